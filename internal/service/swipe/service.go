package swipe

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"

	"github.com/oggyb/swipe-engine/internal/app"
	"github.com/oggyb/swipe-engine/internal/cache"
	"github.com/oggyb/swipe-engine/internal/db"
	svcErr "github.com/oggyb/swipe-engine/internal/errors"
	"github.com/oggyb/swipe-engine/internal/repository"
	"github.com/oggyb/swipe-engine/internal/utils/pagination"
)

var tracer = otel.Tracer("github.com/oggyb/swipe-engine/internal/service/swipe")

// Service implements the swipe ledger, undo policy and the
// trending/recommendation queries on top of the repositories.
// Counter changes are delegated to the engagement aggregator.
type Service struct {
	appCtx   *app.AppContext
	swipes   *repository.SwipeRepository
	products *repository.ProductRepository
}

// NewSwipeService creates a new swipe service with dependencies from AppContext.
func NewSwipeService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:   appCtx,
		swipes:   repository.NewSwipeRepository(appCtx.DB),
		products: repository.NewProductRepository(appCtx.DB),
	}
}

// RecordInput is one swipe as submitted by a client. Unset context fields
// keep their stored value on a repeat swipe.
type RecordInput struct {
	UserID    uuid.UUID
	ProductID uuid.UUID
	Action    db.Action
	Context   db.SwipeContext
	Device    db.DeviceInfo
}

type RecordResult struct {
	Swipe    db.Swipe `json:"swipe"`
	IsUpdate bool     `json:"isUpdate"`
}

// RecordSwipe creates or updates the swipe for (user, product).
//
// Behavior:
//   - Product must exist (NotFound) and be active and in stock (Unavailable).
//   - The pair is serialized with a pair lock, a row lock and a
//     conflict-aware insert, so exactly one of creation or transition runs.
//   - Counters are updated in the same transaction as the ledger row.
func (s *Service) RecordSwipe(ctx context.Context, in RecordInput) (*RecordResult, error) {
	ctx, span := tracer.Start(ctx, "swipe.RecordSwipe")
	defer span.End()
	span.SetAttributes(attribute.String("swipe.action", string(in.Action)))

	if !in.Action.Valid() {
		return nil, svcErr.InvalidArgument("Invalid swipe action")
	}
	if in.Context.Source != "" && !in.Context.Source.Valid() {
		return nil, svcErr.InvalidArgument("Invalid context source")
	}

	product, err := s.products.FindByID(ctx, in.ProductID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, svcErr.NotFound("Product not found")
	}
	if err != nil {
		return nil, svcErr.Internal("Failed to load product", err)
	}
	if !product.Available() {
		return nil, svcErr.Unavailable("Product is no longer available")
	}

	release, err := s.appCtx.Locker.Lock(ctx, cache.KeyForSwipeLock(in.UserID, in.ProductID))
	if err != nil {
		return nil, svcErr.Internal("Failed to record swipe", err)
	}
	defer release()

	now := s.appCtx.Now()
	var result RecordResult
	err = s.appCtx.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.swipes.WithTx(tx)

		existing, err := repo.FindForUpdate(ctx, in.UserID, in.ProductID)
		if err != nil {
			return err
		}

		if existing == nil {
			fresh := &db.Swipe{
				UserID:    in.UserID,
				ProductID: in.ProductID,
				Action:    in.Action,
				Context:   normalizeContext(in.Context),
				Device:    in.Device,
				CreatedAt: now,
				UpdatedAt: now,
			}
			inserted, err := repo.InsertIfAbsent(ctx, fresh)
			if err != nil {
				return err
			}
			if inserted {
				result = RecordResult{Swipe: *fresh}
				return s.appCtx.Aggregator.ApplyCreation(ctx, tx, in.UserID, in.ProductID, in.Action)
			}

			// another writer created the pair first; treat ours as a repeat
			if existing, err = repo.FindForUpdate(ctx, in.UserID, in.ProductID); err != nil {
				return err
			}
			if existing == nil {
				return fmt.Errorf("swipe %s/%s vanished during insert", in.UserID, in.ProductID)
			}
		}

		old := existing.Action
		existing.Action = in.Action
		existing.Context = existing.Context.Merge(in.Context)
		existing.UpdatedAt = now
		if err := repo.UpdateAction(ctx, existing); err != nil {
			return err
		}
		result = RecordResult{Swipe: *existing, IsUpdate: true}
		return s.appCtx.Aggregator.ApplyTransition(ctx, tx, in.UserID, in.ProductID, old, in.Action)
	})
	if err != nil {
		span.RecordError(err)
		return nil, svcErr.Internal("Failed to record swipe", err)
	}

	// counters moved inside the transaction; show the committed values
	if fresh, err := s.products.FindByID(ctx, in.ProductID); err == nil {
		product = fresh
	}
	result.Swipe.Product = product
	span.SetAttributes(attribute.Bool("swipe.is_update", result.IsUpdate))
	s.appCtx.Logger.DebugContext(ctx, "swipe recorded",
		"user_id", in.UserID, "product_id", in.ProductID, "action", in.Action, "is_update", result.IsUpdate)
	return &result, nil
}

func normalizeContext(c db.SwipeContext) db.SwipeContext {
	if c.Source == "" {
		c.Source = db.SourceHome
	}
	return c
}

type HistoryInput struct {
	UserID uuid.UUID
	Action *db.Action
	Limit  int
	Token  *string
}

type HistoryPage struct {
	Swipes              []db.Swipe `json:"swipes"`
	Total               int64      `json:"total"`
	NextPaginationToken *string    `json:"nextPaginationToken,omitempty"`
}

// History returns the user's swipes newest first with product summaries.
func (s *Service) History(ctx context.Context, in HistoryInput) (*HistoryPage, error) {
	limit, err := s.limit(in.Limit)
	if err != nil {
		return nil, err
	}
	if in.Action != nil && !in.Action.Valid() {
		return nil, svcErr.InvalidArgument("Action must be one of: like, dislike, super_like, skip")
	}
	if in.Token != nil {
		if _, err := pagination.Decode(*in.Token); err != nil {
			return nil, svcErr.InvalidArgument("Invalid pagination token")
		}
	}

	swipes, next, total, err := s.swipes.History(ctx, in.UserID, repository.HistoryFilter{
		Action: in.Action,
		Token:  in.Token,
		Limit:  limit,
	})
	if err != nil {
		return nil, svcErr.Internal("Failed to load swipe history", err)
	}
	if swipes == nil {
		swipes = []db.Swipe{}
	}
	return &HistoryPage{Swipes: swipes, Total: total, NextPaginationToken: next}, nil
}

type PeriodStat struct {
	Count        int64 `json:"count"`
	AvgTimeSpent int64 `json:"avgTimeSpent"`
}

type Stats struct {
	Period       string                   `json:"period"`
	PeriodStats  map[db.Action]PeriodStat `json:"periodStats"`
	AllTimeStats map[db.Action]int64      `json:"allTimeStats"`
	TotalSwipes  int64                    `json:"totalSwipes"`
	TotalLikes   int64                    `json:"totalLikes"`
}

// Stats groups the user's swipes by action over the last periodDays days
// and over all time. A zero periodDays means the 7 day default.
func (s *Service) Stats(ctx context.Context, user *db.User, periodDays int) (*Stats, error) {
	if periodDays == 0 {
		periodDays = 7
	}
	if periodDays < 1 || periodDays > 365 {
		return nil, svcErr.InvalidArgument("Period must be between 1 and 365 days")
	}

	since := s.appCtx.Now().AddDate(0, 0, -periodDays)
	period, err := s.swipes.StatsByAction(ctx, user.ID, since)
	if err != nil {
		return nil, svcErr.Internal("Failed to load swipe stats", err)
	}
	allTime, err := s.swipes.StatsByAction(ctx, user.ID, time.Time{})
	if err != nil {
		return nil, svcErr.Internal("Failed to load swipe stats", err)
	}

	// Totals are read from the user row the auth middleware loaded for this
	// request; a second query would add nothing.
	out := &Stats{
		Period:       strconv.Itoa(periodDays) + " days",
		PeriodStats:  make(map[db.Action]PeriodStat, len(period)),
		AllTimeStats: make(map[db.Action]int64, len(allTime)),
		TotalSwipes:  user.TotalSwipes,
		TotalLikes:   user.TotalLikes,
	}
	for _, st := range period {
		var avg int64
		if st.AvgTimeSpent != nil {
			avg = int64(math.Round(*st.AvgTimeSpent))
		}
		out.PeriodStats[st.Action] = PeriodStat{Count: st.Count, AvgTimeSpent: avg}
	}
	for _, st := range allTime {
		out.AllTimeStats[st.Action] = st.Count
	}
	return out, nil
}

// undoAttempts bounds how often UndoLastSwipe starts over when a newer
// swipe lands between picking the target and locking it.
const undoAttempts = 3

var errUndoTargetMoved = errors.New("most recent swipe changed")

// UndoLastSwipe deletes the user's most recent swipe if it is inside the
// undo window and reverses its counter effects. Calling it twice undoes two
// different swipes (or fails with NotFound).
func (s *Service) UndoLastSwipe(ctx context.Context, userID uuid.UUID) (*db.Swipe, error) {
	ctx, span := tracer.Start(ctx, "swipe.UndoLastSwipe")
	defer span.End()

	for attempt := 1; attempt <= undoAttempts; attempt++ {
		undone, err := s.undoOnce(ctx, userID)
		if errors.Is(err, errUndoTargetMoved) {
			s.appCtx.Logger.DebugContext(ctx, "undo target moved, retrying", "user_id", userID, "attempt", attempt)
			continue
		}
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
		s.appCtx.Logger.DebugContext(ctx, "swipe undone", "user_id", userID, "product_id", undone.ProductID, "action", undone.Action)
		return undone, nil
	}
	return nil, svcErr.Internal("Failed to undo swipe", errUndoTargetMoved)
}

func (s *Service) undoOnce(ctx context.Context, userID uuid.UUID) (*db.Swipe, error) {
	last, err := s.swipes.MostRecent(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, svcErr.NotFound("No swipes to undo")
	}
	if err != nil {
		return nil, svcErr.Internal("Failed to undo swipe", err)
	}
	if s.appCtx.Now().Sub(last.CreatedAt) > s.appCtx.Config.Policy.UndoWindow {
		return nil, svcErr.Expired("Swipe is too old to undo")
	}

	release, err := s.appCtx.Locker.Lock(ctx, cache.KeyForSwipeLock(userID, last.ProductID))
	if err != nil {
		return nil, svcErr.Internal("Failed to undo swipe", err)
	}
	defer release()

	var undone *db.Swipe
	err = s.appCtx.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.swipes.WithTx(tx)

		current, err := repo.FindForUpdate(ctx, userID, last.ProductID)
		if err != nil {
			return err
		}
		if current == nil {
			// undone concurrently; the next attempt picks the new head
			return errUndoTargetMoved
		}
		// a swipe on another product may have committed since the first read
		head, err := repo.MostRecent(ctx, userID)
		if err != nil {
			return err
		}
		if head.ProductID != last.ProductID {
			return errUndoTargetMoved
		}

		if _, err := repo.Delete(ctx, userID, head.ProductID); err != nil {
			return err
		}
		undone = head
		return s.appCtx.Aggregator.ApplyRemoval(ctx, tx, userID, head.ProductID, head.Action)
	})
	if errors.Is(err, errUndoTargetMoved) {
		return nil, err
	}
	if err != nil {
		return nil, svcErr.Internal("Failed to undo swipe", err)
	}
	return undone, nil
}

type Engagement struct {
	ProductID       uuid.UUID           `json:"productId"`
	Engagement      map[db.Action]int64 `json:"engagement"`
	TotalViews      int64               `json:"totalViews"`
	TotalLikes      int64               `json:"totalLikes"`
	TotalDislikes   int64               `json:"totalDislikes"`
	TotalWishlisted int64               `json:"totalWishlisted"`
}

// ProductEngagement breaks down the swipes on one product by action.
func (s *Service) ProductEngagement(ctx context.Context, productID uuid.UUID) (*Engagement, error) {
	product, err := s.products.FindByID(ctx, productID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, svcErr.NotFound("Product not found")
	}
	if err != nil {
		return nil, svcErr.Internal("Failed to load product", err)
	}

	rows, err := s.swipes.EngagementByProduct(ctx, productID)
	if err != nil {
		return nil, svcErr.Internal("Failed to load engagement", err)
	}
	out := &Engagement{
		ProductID:       product.ID,
		Engagement:      make(map[db.Action]int64, len(rows)),
		TotalViews:      product.TotalViews,
		TotalLikes:      product.TotalLikes,
		TotalDislikes:   product.TotalDislikes,
		TotalWishlisted: product.TotalWishlisted,
	}
	for _, r := range rows {
		out.Engagement[r.Action] = r.Count
	}
	return out, nil
}

// limit applies the list default and bounds.
func (s *Service) limit(n int) (int, error) {
	p := s.appCtx.Config.Policy
	if n == 0 {
		return p.DefaultLimit, nil
	}
	if n < 1 || n > p.MaxLimit {
		return 0, svcErr.InvalidArgument(fmt.Sprintf("Limit must be between 1 and %d", p.MaxLimit))
	}
	return n, nil
}
