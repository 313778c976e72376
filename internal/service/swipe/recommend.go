package swipe

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/oggyb/swipe-engine/internal/cache"
	"github.com/oggyb/swipe-engine/internal/db"
	svcErr "github.com/oggyb/swipe-engine/internal/errors"
	"github.com/oggyb/swipe-engine/internal/repository"
)

const (
	basedOnHistory  = "user_preferences_and_swipe_history"
	basedOnPopular  = "popular_inventory"
	maxTrendingDays = 365
)

// TrendingProduct is a product with its score inside the trending window.
type TrendingProduct struct {
	db.Product
	LikeCount      int64 `json:"likeCount"`
	SuperLikeCount int64 `json:"superLikeCount"`
	Score          int64 `json:"score"`
}

type Trending struct {
	Products []TrendingProduct `json:"products"`
	Days     int               `json:"days"`
	Count    int               `json:"count"`
}

// TrendingProducts ranks products by likes + 2×super likes over the last
// days days. Ties are broken by product id. Zero arguments take the
// configured defaults.
//
// Results are cached in Redis for a short TTL when Redis is configured;
// cache failures fall through to the database.
func (s *Service) TrendingProducts(ctx context.Context, days, limit int) (*Trending, error) {
	ctx, span := tracer.Start(ctx, "swipe.TrendingProducts")
	defer span.End()

	if days == 0 {
		days = s.appCtx.Config.Policy.TrendingDays
	}
	if days < 1 || days > maxTrendingDays {
		return nil, svcErr.InvalidArgument("Days must be between 1 and 365")
	}
	limit, err := s.limit(limit)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("trending.days", days), attribute.Int("trending.limit", limit))

	rc := s.appCtx.RedisCache
	var key string
	if rc != nil {
		key = rc.KeyForTrending(days, limit)
		var cached Trending
		err := rc.GetJSON(ctx, key, &cached)
		if err == nil {
			span.SetAttributes(attribute.Bool("cache.hit", true))
			return &cached, nil
		}
		if !errors.Is(err, cache.ErrMiss) {
			s.appCtx.Logger.WarnContext(ctx, "trending cache read failed", "key", key, "err", err)
		}
	}

	now := s.appCtx.Now()
	scores, err := s.swipes.TrendingScores(ctx, now.Add(-time.Duration(days)*24*time.Hour), now, limit)
	if err != nil {
		return nil, svcErr.Internal("Failed to load trending products", err)
	}

	ids := make([]uuid.UUID, 0, len(scores))
	for _, sc := range scores {
		ids = append(ids, sc.ProductID)
	}
	products, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, svcErr.Internal("Failed to load trending products", err)
	}

	out := &Trending{Products: make([]TrendingProduct, 0, len(scores)), Days: days}
	for _, sc := range scores {
		p, ok := products[sc.ProductID]
		if !ok {
			// deleted after it was swiped
			continue
		}
		out.Products = append(out.Products, TrendingProduct{
			Product:        p,
			LikeCount:      sc.LikeCount,
			SuperLikeCount: sc.SuperLikeCount,
			Score:          sc.Score,
		})
	}
	out.Count = len(out.Products)

	if rc != nil {
		if err := rc.SetJSON(ctx, key, out, s.appCtx.Config.Policy.TrendingCacheTTL); err != nil {
			s.appCtx.Logger.WarnContext(ctx, "trending cache write failed", "key", key, "err", err)
		}
	}
	return out, nil
}

// Profile is what a user's positive swipes say about their taste.
type Profile struct {
	Categories  []string  `json:"categories"`
	Brands      []string  `json:"brands"`
	Colors      []string  `json:"colors"`
	PricePoints []float64 `json:"pricePoints"`
}

type Recommendations struct {
	Recommendations []db.Product `json:"recommendations"`
	Count           int          `json:"count"`
	BasedOn         string       `json:"basedOn"`
	Profile         Profile      `json:"profile"`
}

// PersonalizedRecommendations returns active, in-stock products the user has
// never swiped, narrowed by the categories and brands of liked products and
// by the user's explicit price range. A user without history gets the most
// liked inventory.
func (s *Service) PersonalizedRecommendations(ctx context.Context, user *db.User, limit int) (*Recommendations, error) {
	ctx, span := tracer.Start(ctx, "swipe.PersonalizedRecommendations")
	defer span.End()

	limit, err := s.limit(limit)
	if err != nil {
		return nil, err
	}

	var (
		swiped []uuid.UUID
		liked  []repository.LikedProduct
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		swiped, err = s.swipes.SwipedProductIDs(gctx, user.ID)
		return err
	})
	g.Go(func() error {
		var err error
		liked, err = s.swipes.LikedProducts(gctx, user.ID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, svcErr.Internal("Failed to load recommendations", err)
	}

	profile := buildProfile(liked)
	filter := repository.CandidateFilter{
		Exclude:    swiped,
		Categories: profile.Categories,
		Brands:     profile.Brands,
		Limit:      limit,
	}
	if prefs := user.Preferences; prefs.HasPriceRange() {
		filter.PriceMin, filter.PriceMax = prefs.PriceMin, prefs.PriceMax
	}

	products, err := s.products.Candidates(ctx, filter)
	if err != nil {
		return nil, svcErr.Internal("Failed to load recommendations", err)
	}
	if products == nil {
		products = []db.Product{}
	}
	span.SetAttributes(attribute.Int("recommend.excluded", len(swiped)), attribute.Int("recommend.count", len(products)))

	basedOn := basedOnHistory
	if len(liked) == 0 && !user.Preferences.HasPriceRange() {
		basedOn = basedOnPopular
	}
	return &Recommendations{
		Recommendations: products,
		Count:           len(products),
		BasedOn:         basedOn,
		Profile:         profile,
	}, nil
}

// buildProfile collects distinct categories, brands and lead colors in the
// order they were liked, plus every observed price.
func buildProfile(liked []repository.LikedProduct) Profile {
	p := Profile{Categories: []string{}, Brands: []string{}, Colors: []string{}, PricePoints: []float64{}}
	seen := map[string]bool{}
	add := func(dst *[]string, kind, v string) {
		if v == "" || seen[kind+":"+v] {
			return
		}
		seen[kind+":"+v] = true
		*dst = append(*dst, v)
	}
	for _, l := range liked {
		add(&p.Categories, "c", l.Category)
		add(&p.Brands, "b", l.Brand)
		if len(l.Colors) > 0 {
			add(&p.Colors, "k", l.Colors[0])
		}
		p.PricePoints = append(p.PricePoints, l.PriceCurrent)
	}
	return p
}
