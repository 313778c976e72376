package swipe

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/oggyb/swipe-engine/internal/db"
	svcErr "github.com/oggyb/swipe-engine/internal/errors"
	"github.com/oggyb/swipe-engine/internal/repository"
)

type FeedInput struct {
	Category string
	Gender   string
	Limit    int
}

type Feed struct {
	Products []db.Product `json:"products"`
	Count    int          `json:"count"`
	HasMore  bool         `json:"hasMore"`
}

// SwipeFeed returns the next cards to swipe: active, in-stock products the
// user has not swiped yet, newest first.
//
// Behavior:
//   - An explicit category wins over the user's preferred categories.
//   - Preferred brands and the price range always apply.
//   - HasMore is set when at least one more card matches.
func (s *Service) SwipeFeed(ctx context.Context, user *db.User, in FeedInput) (*Feed, error) {
	ctx, span := tracer.Start(ctx, "swipe.SwipeFeed")
	defer span.End()

	limit, err := s.limit(in.Limit)
	if err != nil {
		return nil, err
	}

	swiped, err := s.swipes.SwipedProductIDs(ctx, user.ID)
	if err != nil {
		return nil, svcErr.Internal("Failed to load products", err)
	}

	prefs := user.Preferences
	filter := repository.CandidateFilter{
		Exclude:     swiped,
		Categories:  prefs.Categories,
		Brands:      prefs.Brands,
		Gender:      strings.TrimSpace(in.Gender),
		PriceMin:    prefs.PriceMin,
		PriceMax:    prefs.PriceMax,
		Limit:       limit + 1,
		NewestFirst: true,
	}
	if c := strings.TrimSpace(in.Category); c != "" {
		filter.Categories = []string{c}
	}

	products, err := s.products.Candidates(ctx, filter)
	if err != nil {
		return nil, svcErr.Internal("Failed to load products", err)
	}
	hasMore := len(products) > limit
	if hasMore {
		products = products[:limit]
	}
	if products == nil {
		products = []db.Product{}
	}

	span.SetAttributes(attribute.Int("feed.excluded", len(swiped)), attribute.Int("feed.count", len(products)))
	return &Feed{Products: products, Count: len(products), HasMore: hasMore}, nil
}
