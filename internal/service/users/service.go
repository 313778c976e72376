package users

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/oggyb/swipe-engine/internal/app"
	"github.com/oggyb/swipe-engine/internal/db"
	svcErr "github.com/oggyb/swipe-engine/internal/errors"
	"github.com/oggyb/swipe-engine/internal/repository"
)

type PriceRange struct {
	Min *float64 `json:"min"`
	Max *float64 `json:"max"`
}

// PreferencesPatch is a partial update. A nil field keeps the stored value;
// a present field replaces it whole, so priceRange {"min": 500} clears max.
type PreferencesPatch struct {
	PriceRange *PriceRange `json:"priceRange"`
	Brands     *[]string   `json:"brands"`
	Categories *[]string   `json:"categories"`
	Colors     *[]string   `json:"colors"`
}

// Service owns the user's own profile settings.
type Service struct {
	appCtx *app.AppContext
	users  *repository.UserRepository
}

func NewUserService(appCtx *app.AppContext) *Service {
	return &Service{appCtx: appCtx, users: repository.NewUserRepository(appCtx.DB)}
}

// UpdatePreferences merges patch into the user's stored preferences and
// returns the result. user is updated in place on success.
func (s *Service) UpdatePreferences(ctx context.Context, user *db.User, patch *PreferencesPatch) (*db.Preferences, error) {
	if patch == nil {
		return nil, svcErr.InvalidArgument("Valid preferences object is required")
	}
	if fields := validatePatch(patch); len(fields) > 0 {
		return nil, svcErr.FieldErrors("Validation failed", fields)
	}

	next := user.Preferences
	if patch.PriceRange != nil {
		next.PriceMin, next.PriceMax = patch.PriceRange.Min, patch.PriceRange.Max
	}
	if patch.Brands != nil {
		next.Brands = clean(*patch.Brands)
	}
	if patch.Categories != nil {
		next.Categories = clean(*patch.Categories)
	}
	if patch.Colors != nil {
		next.Colors = clean(*patch.Colors)
	}

	err := s.users.UpdatePreferences(ctx, user.ID, next, s.appCtx.Now())
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, svcErr.NotFound("User not found")
	}
	if err != nil {
		return nil, svcErr.Internal("Failed to update preferences", err)
	}

	user.Preferences = next
	return &next, nil
}

func validatePatch(p *PreferencesPatch) []svcErr.FieldError {
	var out []svcErr.FieldError
	if r := p.PriceRange; r != nil {
		if r.Min != nil && *r.Min < 0 {
			out = append(out, svcErr.FieldError{Field: "preferences.priceRange.min", Message: "Price range minimum must be zero or more", Value: *r.Min})
		}
		if r.Max != nil && *r.Max < 0 {
			out = append(out, svcErr.FieldError{Field: "preferences.priceRange.max", Message: "Price range maximum must be zero or more", Value: *r.Max})
		}
		if r.Min != nil && r.Max != nil && *r.Max < *r.Min {
			out = append(out, svcErr.FieldError{Field: "preferences.priceRange", Message: "Price range maximum must not be below the minimum"})
		}
	}
	return out
}

// clean trims entries and drops blanks and repeats, keeping order.
func clean(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
