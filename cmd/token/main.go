// Command token mints a bearer token for a seeded user, for use with curl.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/uuid"

	"github.com/oggyb/swipe-engine/internal/auth"
	"github.com/oggyb/swipe-engine/internal/config"
	"github.com/oggyb/swipe-engine/internal/db"
	"github.com/oggyb/swipe-engine/internal/logger"
	"github.com/oggyb/swipe-engine/internal/repository"
)

func main() {
	phone := flag.String("phone", "", "user phone number")
	id := flag.String("user", "", "user id")
	flag.Parse()

	cfg := config.New()
	logger.InitFromConfig(cfg)
	log := logger.L()

	if *phone == "" && *id == "" {
		fmt.Fprintln(os.Stderr, "usage: token -phone +919000000001 | -user <uuid>")
		os.Exit(2)
	}

	database, err := db.NewDB(cfg, log)
	if err != nil {
		log.Error("failed to init db", "err", err)
		os.Exit(1)
	}
	users := repository.NewUserRepository(database)
	ctx := context.Background()

	var user *db.User
	if *id != "" {
		uid, perr := uuid.Parse(*id)
		if perr != nil {
			log.Error("invalid user id", "err", perr)
			os.Exit(2)
		}
		user, err = users.FindByID(ctx, uid)
	} else {
		user, err = users.FindByPhone(ctx, *phone)
	}
	if err != nil {
		log.Error("user lookup failed", "err", err)
		os.Exit(1)
	}

	token, err := auth.NewTokens(cfg).Mint(user.ID)
	if err != nil {
		log.Error("failed to mint token", "err", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
