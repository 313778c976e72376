// Package seed fills a development database with demo users, products and
// swipe history.
package seed

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/oggyb/swipe-engine/internal/app"
	"github.com/oggyb/swipe-engine/internal/db"
	svcErr "github.com/oggyb/swipe-engine/internal/errors"
	"github.com/oggyb/swipe-engine/internal/service/swipe"
)

type Options struct {
	Users         int
	Products      int
	SwipesPerUser int
	Seed          int64
}

func DefaultOptions() Options {
	return Options{Users: 20, Products: 120, SwipesPerUser: 15, Seed: 42}
}

// Summary counts what Run produced.
type Summary struct {
	Users    int
	Products int
	Swipes   int
}

// Run resets the database and replays random swipes through the swipe
// service, so product and user totals match the ledger. About 60% of
// swipes are like-class.
func Run(ctx context.Context, appCtx *app.AppContext, opts Options) (*Summary, error) {
	r := rand.New(rand.NewSource(opts.Seed))

	seeded, err := db.SeedTestData(appCtx.DB, r, opts.Users, opts.Products)
	if err != nil {
		return nil, err
	}
	sum := &Summary{Users: len(seeded.Users), Products: len(seeded.Products)}
	if len(seeded.Products) == 0 {
		return sum, nil
	}

	svc := swipe.NewSwipeService(appCtx)
	sources := []db.Source{db.SourceHome, db.SourceExplore, db.SourceCategory, db.SourceSearch, db.SourceRecommendation}

	for _, u := range seeded.Users {
		for j := 0; j < opts.SwipesPerUser; j++ {
			p := seeded.Products[r.Intn(len(seeded.Products))]
			pos := j
			_, err := svc.RecordSwipe(ctx, swipe.RecordInput{
				UserID:    u.ID,
				ProductID: p.ID,
				Action:    pickAction(r),
				Context:   db.SwipeContext{Source: sources[r.Intn(len(sources))], Position: &pos},
				Device:    db.DeviceInfo{Platform: "seed"},
			})
			switch {
			case err == nil:
				sum.Swipes++
			case svcErr.IsKind(err, svcErr.KindUnavailable):
				// inactive or out of stock
			default:
				return sum, fmt.Errorf("failed to seed swipe: %w", err)
			}
		}
	}

	appCtx.Logger.InfoContext(ctx, "seed completed", "users", sum.Users, "products", sum.Products, "swipes", sum.Swipes)
	return sum, nil
}

func pickAction(r *rand.Rand) db.Action {
	switch n := r.Intn(100); {
	case n < 50:
		return db.ActionLike
	case n < 60:
		return db.ActionSuperLike
	case n < 85:
		return db.ActionDislike
	default:
		return db.ActionSkip
	}
}
