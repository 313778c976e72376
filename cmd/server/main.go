package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/oggyb/swipe-engine/internal/app"
	"github.com/oggyb/swipe-engine/internal/cache"
	"github.com/oggyb/swipe-engine/internal/config"
	"github.com/oggyb/swipe-engine/internal/db"
	"github.com/oggyb/swipe-engine/internal/logger"
	"github.com/oggyb/swipe-engine/internal/observability"
	"github.com/oggyb/swipe-engine/internal/seed"
	"github.com/oggyb/swipe-engine/internal/server"
	"github.com/oggyb/swipe-engine/internal/service/catalog"
	"github.com/oggyb/swipe-engine/internal/service/swipe"
	"github.com/oggyb/swipe-engine/internal/service/users"
	"github.com/oggyb/swipe-engine/internal/service/wishlist"
)

func main() {
	cfg := config.New()

	// Init logger (global singleton)
	logger.InitFromConfig(cfg)
	log := logger.L()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.InitTracing(ctx, cfg, log)
	if err != nil {
		log.Error("failed to init tracing", "err", err)
		os.Exit(1)
	}

	// Init DB
	database, err := db.NewDB(cfg, log)
	if err != nil {
		log.Error("failed to init db", "err", err)
		os.Exit(1)
	}

	// Init Redis. Without it the service still runs: locks go in-process
	// and trending is computed on every request.
	var redisCache *cache.RedisCache
	if !cfg.Redis.Disabled {
		redisCache = cache.NewRedisCache(cfg)
		if err := redisCache.Ping(ctx); err != nil {
			log.Warn("redis unreachable, continuing without it", "addr", cfg.Redis.Addr, "err", err)
			_ = redisCache.Close()
			redisCache = nil
		}
	}

	appCtx := app.New(cfg, database, redisCache, log)

	if cfg.IsDevelopment() {
		if _, err := seed.Run(ctx, appCtx, seed.DefaultOptions()); err != nil {
			log.Error("failed to seed", "err", err)
		}
	}

	router := server.NewRouter(appCtx,
		swipe.NewRegistrar(appCtx),
		catalog.NewRegistrar(appCtx),
		wishlist.NewRegistrar(appCtx),
		users.NewRegistrar(appCtx),
	)
	httpSrv := server.NewHTTPServer(appCtx, router)

	health := server.NewHealthRegistrar()
	grpcSrv := server.NewGRPCServer(cfg, health)
	health.SetServing(true)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting HTTP server", "addr", httpSrv.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		log.Info("starting gRPC server", "addr", grpcSrv.Addr())
		return grpcSrv.Serve()
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		health.SetServing(false)

		sctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		err := httpSrv.Shutdown(sctx)
		grpcSrv.Shutdown(sctx)
		if redisCache != nil {
			_ = redisCache.Close()
		}
		if terr := shutdownTracing(sctx); terr != nil {
			log.Warn("tracing shutdown failed", "err", terr)
		}
		return err
	})

	if err := g.Wait(); err != nil {
		log.Error("server stopped with error", "err", err)
		os.Exit(1)
	}
}
