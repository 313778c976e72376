package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oggyb/swipe-engine/internal/db"
	"github.com/oggyb/swipe-engine/internal/utils/pagination"
)

// SwipeRepository provides data access methods for the Swipe ledger.
// It never touches engagement counters; those belong to the engagement package.
type SwipeRepository struct {
	db *gorm.DB
}

// NewSwipeRepository creates a new repository bound to the given DB connection.
func NewSwipeRepository(database *gorm.DB) *SwipeRepository {
	return &SwipeRepository{db: database}
}

// WithTx returns a copy of the repository that runs on tx.
func (r *SwipeRepository) WithTx(tx *gorm.DB) *SwipeRepository {
	return &SwipeRepository{db: tx}
}

// FindForUpdate loads the swipe for a pair and row-locks it (SQLite ignores
// the locking clause). Returns (nil, nil) when the pair has no swipe yet.
func (r *SwipeRepository) FindForUpdate(ctx context.Context, userID, productID uuid.UUID) (*db.Swipe, error) {
	var s db.Swipe
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Take(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// InsertIfAbsent inserts s unless the pair already exists.
//
// Behavior:
//   - Composite PK (user_id, product_id) makes the insert conditional.
//   - Returns false when another writer already created the pair; the caller
//     then re-reads and takes the update path.
func (r *SwipeRepository) InsertIfAbsent(ctx context.Context, s *db.Swipe) (bool, error) {
	res := r.db.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "product_id"}},
			DoNothing: true,
		}).
		Create(s)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// UpdateAction overwrites action, context and device of an existing swipe.
// created_at is kept so the swipe keeps its place in history.
func (r *SwipeRepository) UpdateAction(ctx context.Context, s *db.Swipe) error {
	return r.db.WithContext(ctx).
		Model(&db.Swipe{}).
		Where("user_id = ? AND product_id = ?", s.UserID, s.ProductID).
		Updates(map[string]any{
			"action":             s.Action,
			"ctx_source":         s.Context.Source,
			"ctx_position":       s.Context.Position,
			"ctx_session_id":     s.Context.SessionID,
			"ctx_time_spent":     s.Context.TimeSpent,
			"device_platform":    s.Device.Platform,
			"device_user_agent":  s.Device.UserAgent,
			"device_screen_size": s.Device.ScreenSize,
			"updated_at":         s.UpdatedAt,
		}).Error
}

// MostRecent returns the user's latest swipe with its product preloaded.
// Returns gorm.ErrRecordNotFound when the user has no swipes.
func (r *SwipeRepository) MostRecent(ctx context.Context, userID uuid.UUID) (*db.Swipe, error) {
	var s db.Swipe
	err := r.db.WithContext(ctx).
		Preload("Product").
		Where("user_id = ?", userID).
		Order("created_at DESC, product_id DESC").
		Take(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Delete removes one pair. Returns false when nothing was deleted.
func (r *SwipeRepository) Delete(ctx context.Context, userID, productID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Delete(&db.Swipe{})
	return res.RowsAffected > 0, res.Error
}

// HistoryFilter narrows a history page.
type HistoryFilter struct {
	Action *db.Action
	Token  *string
	Limit  int
}

// History returns a page of the user's swipes, newest first.
//
// Behavior:
//   - Ordered by created_at DESC, product_id DESC.
//   - Supports cursor-based pagination via Token.
//   - total counts every swipe matching the filter, ignoring the cursor.
func (r *SwipeRepository) History(ctx context.Context, userID uuid.UUID, f HistoryFilter) ([]db.Swipe, *string, int64, error) {
	cursor, err := pagination.Decode(getString(f.Token))
	if err != nil {
		return nil, nil, 0, err
	}

	base := r.db.WithContext(ctx).Model(&db.Swipe{}).Where("user_id = ?", userID)
	if f.Action != nil {
		base = base.Where("action = ?", *f.Action)
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, nil, 0, err
	}

	query := base.Session(&gorm.Session{}).
		Preload("Product").
		Order("created_at DESC, product_id DESC").
		Limit(f.Limit + 1)

	// apply cursor
	if !cursor.IsZero() {
		ts := time.UnixMilli(cursor.CreatedUnix).UTC()
		query = query.Where(
			"(created_at < ? OR (created_at = ? AND product_id < ?))",
			ts, ts, cursor.ProductID,
		)
	}

	var swipes []db.Swipe
	if err := query.Find(&swipes).Error; err != nil {
		return nil, nil, 0, err
	}

	// pagination: build next cursor if needed
	var nextToken *string
	if len(swipes) > f.Limit {
		last := swipes[f.Limit-1]
		token, _ := pagination.Encode(pagination.Cursor{
			CreatedUnix: last.CreatedAt.UnixMilli(),
			ProductID:   last.ProductID.String(),
		})
		nextToken = &token
		swipes = swipes[:f.Limit]
	}

	return swipes, nextToken, total, nil
}

// ActionStat is one row of a per-action breakdown.
type ActionStat struct {
	Action       db.Action
	Count        int64
	AvgTimeSpent *float64
}

// StatsByAction groups the user's swipes by action. A zero since means all time.
// AvgTimeSpent ignores swipes without a recorded time spent.
func (r *SwipeRepository) StatsByAction(ctx context.Context, userID uuid.UUID, since time.Time) ([]ActionStat, error) {
	q := r.db.WithContext(ctx).
		Model(&db.Swipe{}).
		Select("action, COUNT(*) AS count, AVG(ctx_time_spent) AS avg_time_spent").
		Where("user_id = ?", userID)
	if !since.IsZero() {
		q = q.Where("created_at >= ?", since)
	}

	var rows []ActionStat
	err := q.Group("action").Order("action").Scan(&rows).Error
	return rows, err
}

// EngagementByProduct counts swipes on one product per action.
func (r *SwipeRepository) EngagementByProduct(ctx context.Context, productID uuid.UUID) ([]ActionStat, error) {
	var rows []ActionStat
	err := r.db.WithContext(ctx).
		Model(&db.Swipe{}).
		Select("action, COUNT(*) AS count").
		Where("product_id = ?", productID).
		Group("action").
		Order("action").
		Scan(&rows).Error
	return rows, err
}

// TrendingScore is one product's score inside a trending window.
type TrendingScore struct {
	ProductID      uuid.UUID
	LikeCount      int64
	SuperLikeCount int64
	Score          int64
}

// TrendingScores ranks products by likes + 2×super likes within [from, to].
//
// Behavior:
//   - Only like and super_like swipes count.
//   - Ordered by score DESC, product_id ASC so ties are deterministic.
func (r *SwipeRepository) TrendingScores(ctx context.Context, from, to time.Time, limit int) ([]TrendingScore, error) {
	const (
		likes      = "SUM(CASE WHEN action = 'like' THEN 1 ELSE 0 END)"
		superLikes = "SUM(CASE WHEN action = 'super_like' THEN 1 ELSE 0 END)"
	)

	var rows []TrendingScore
	err := r.db.WithContext(ctx).
		Model(&db.Swipe{}).
		Select("product_id, "+likes+" AS like_count, "+superLikes+" AS super_like_count, "+
			likes+" + 2 * "+superLikes+" AS score").
		Where("action IN ?", []db.Action{db.ActionLike, db.ActionSuperLike}).
		Where("created_at >= ? AND created_at <= ?", from, to).
		Group("product_id").
		Order("score DESC, product_id ASC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}

// SwipedProductIDs returns every product the user has swiped, any action.
func (r *SwipeRepository) SwipedProductIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&db.Swipe{}).
		Where("user_id = ?", userID).
		Pluck("product_id", &ids).Error
	return ids, err
}

// LikedProduct is the slice of a liked product that feeds a recommendation profile.
type LikedProduct struct {
	Category     string
	Brand        string
	Colors       datatypes.JSONSlice[string]
	PriceCurrent float64
}

// LikedProducts returns the products behind the user's like and super_like swipes.
func (r *SwipeRepository) LikedProducts(ctx context.Context, userID uuid.UUID) ([]LikedProduct, error) {
	var rows []LikedProduct
	err := r.db.WithContext(ctx).
		Table("swipes s").
		Select("p.category, p.brand, p.colors, p.price_current").
		Joins("JOIN products p ON p.id = s.product_id").
		Where("s.user_id = ? AND s.action IN ?", userID, []db.Action{db.ActionLike, db.ActionSuperLike}).
		Order("s.created_at DESC").
		Scan(&rows).Error
	return rows, err
}

// getString safely dereferences a string pointer for pagination tokens.
func getString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
