package middleware

import (
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/oggyb/swipe-engine/internal/auth"
	"github.com/oggyb/swipe-engine/internal/db"
	svcErr "github.com/oggyb/swipe-engine/internal/errors"
	"github.com/oggyb/swipe-engine/internal/http/response"
	"github.com/oggyb/swipe-engine/internal/repository"
)

const userKey = "auth_user"

type AuthMiddleware struct {
	log    *slog.Logger
	tokens *auth.Tokens
	users  *repository.UserRepository
	now    func() time.Time
}

func NewAuthMiddleware(log *slog.Logger, tokens *auth.Tokens, users *repository.UserRepository, now func() time.Time) *AuthMiddleware {
	return &AuthMiddleware{log: log.With("middleware", "auth"), tokens: tokens, users: users, now: now}
}

// RequireAuth resolves the bearer token to an active, unblocked user and
// stores it on the gin context.
func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := extractToken(c)
		if raw == "" {
			response.Fail(c, svcErr.Unauthorized("Access denied. No token provided."))
			return
		}

		userID, err := am.tokens.Verify(raw)
		switch {
		case errors.Is(err, auth.ErrTokenExpired):
			response.Fail(c, svcErr.Unauthorized("Token expired."))
			return
		case err != nil:
			response.Fail(c, svcErr.Unauthorized("Invalid token."))
			return
		}

		ctx := c.Request.Context()
		user, err := am.users.FindByID(ctx, userID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.Fail(c, svcErr.Unauthorized("Invalid token. User not found."))
			return
		}
		if err != nil {
			response.Fail(c, svcErr.Internal("Authentication failed.", err))
			return
		}
		if !user.IsActive {
			response.Fail(c, svcErr.Unauthorized("Account is deactivated."))
			return
		}
		if user.IsBlocked {
			response.Fail(c, svcErr.Unauthorized("Account is blocked."))
			return
		}

		if err := am.users.TouchLastActive(ctx, user.ID, am.now().UTC()); err != nil {
			am.log.WarnContext(ctx, "update last active failed", "user_id", user.ID, "err", err)
		}

		c.Set(userKey, user)
		c.Next()
	}
}

// RequirePhoneVerification rejects users who never verified their phone.
func RequirePhoneVerification() gin.HandlerFunc {
	return func(c *gin.Context) {
		if u := CurrentUser(c); u == nil || !u.PhoneVerified {
			response.Fail(c, svcErr.Forbidden("Phone verification required.", map[string]any{"requiresVerification": true}))
			return
		}
		c.Next()
	}
}

// RequireOnboarding rejects users who have not finished onboarding.
func RequireOnboarding() gin.HandlerFunc {
	return func(c *gin.Context) {
		if u := CurrentUser(c); u == nil || !u.OnboardingComplete {
			response.Fail(c, svcErr.Forbidden("Onboarding required.", map[string]any{"requiresOnboarding": true}))
			return
		}
		c.Next()
	}
}

// CurrentUser returns the user stored by RequireAuth, or nil.
func CurrentUser(c *gin.Context) *db.User {
	v, ok := c.Get(userKey)
	if !ok {
		return nil
	}
	u, _ := v.(*db.User)
	return u
}

// SetUser is used by tests and tools that bypass token checks.
func SetUser(c *gin.Context, u *db.User) { c.Set(userKey, u) }

// extractToken prefers the Authorization header and falls back to ?token=.
func extractToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
		return strings.TrimSpace(authHeader[7:])
	}
	return strings.TrimSpace(c.Query("token"))
}
