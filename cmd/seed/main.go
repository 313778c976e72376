package main

import (
	"context"
	"flag"
	"os"

	"github.com/oggyb/swipe-engine/internal/app"
	"github.com/oggyb/swipe-engine/internal/config"
	"github.com/oggyb/swipe-engine/internal/db"
	"github.com/oggyb/swipe-engine/internal/logger"
	"github.com/oggyb/swipe-engine/internal/seed"
)

func main() {
	opts := seed.DefaultOptions()
	flag.IntVar(&opts.Users, "users", opts.Users, "number of users")
	flag.IntVar(&opts.Products, "products", opts.Products, "number of products")
	flag.IntVar(&opts.SwipesPerUser, "swipes", opts.SwipesPerUser, "swipes per user")
	flag.Int64Var(&opts.Seed, "seed", opts.Seed, "random seed")
	flag.Parse()

	// Load configuration
	cfg := config.New()
	logger.InitFromConfig(cfg)
	log := logger.L()

	database, err := db.NewDB(cfg, log)
	if err != nil {
		log.Error("failed to init db", "err", err)
		os.Exit(1)
	}

	// seeding goes through the in-process locker; no Redis needed
	appCtx := app.New(cfg, database, nil, log)
	if _, err := seed.Run(context.Background(), appCtx, opts); err != nil {
		log.Error("failed to seed", "err", err)
		os.Exit(1)
	}
}
