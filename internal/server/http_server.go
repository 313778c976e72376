package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/oggyb/swipe-engine/internal/app"
	"github.com/oggyb/swipe-engine/internal/auth"
	"github.com/oggyb/swipe-engine/internal/http/middleware"
	"github.com/oggyb/swipe-engine/internal/http/response"
	"github.com/oggyb/swipe-engine/internal/repository"
)

// NewRouter builds the gin engine: global middleware, /healthcheck and the
// /api groups handed to every registrar.
func NewRouter(appCtx *app.AppContext, registrars ...Registrar) *gin.Engine {
	cfg := appCtx.Config
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(
		gin.Recovery(),
		otelgin.Middleware(cfg.App.Name),
		middleware.AttachTraceContext(),
		middleware.RequestLogger(appCtx.Logger),
		middleware.CORS(cfg.HTTP.AllowOrigins),
	)
	if cfg.IsDevelopment() {
		r.Use(func(c *gin.Context) {
			c.Set(response.ExposeInternalKey, true)
			c.Next()
		})
	}

	r.GET("/healthcheck", healthcheck(appCtx))

	limiter := middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	am := middleware.NewAuthMiddleware(appCtx.Logger, auth.NewTokens(cfg), repository.NewUserRepository(appCtx.DB), appCtx.Now)

	api := r.Group("/api")
	routes := Routes{
		Public: api.Group("", limiter.Handler()),
		Authed: api.Group("",
			am.RequireAuth(),
			limiter.Handler(),
			middleware.RequirePhoneVerification(),
			middleware.RequireOnboarding(),
		),
	}
	for _, reg := range registrars {
		reg.Register(routes)
	}
	return r
}

// healthcheck reports DB and Redis reachability. Redis being disabled is
// not a failure.
func healthcheck(appCtx *app.AppContext) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		dbStatus, redisStatus := "ok", "disabled"

		if sqlDB, err := appCtx.DB.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
			dbStatus, status = "down", http.StatusServiceUnavailable
		}
		if appCtx.RedisCache != nil {
			redisStatus = "ok"
			if err := appCtx.RedisCache.Ping(ctx); err != nil {
				redisStatus, status = "down", http.StatusServiceUnavailable
			}
		}

		c.JSON(status, gin.H{
			"success": status == http.StatusOK,
			"data": gin.H{
				"db":        dbStatus,
				"redis":     redisStatus,
				"timestamp": appCtx.Now(),
			},
		})
	}
}

// NewHTTPServer wraps the router with the configured address and timeouts.
func NewHTTPServer(appCtx *app.AppContext, handler http.Handler) *http.Server {
	cfg := appCtx.Config
	return &http.Server{
		Addr:              cfg.HTTP.Host + ":" + cfg.HTTP.Port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
