package engagement

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/oggyb/swipe-engine/internal/db"
)

// counter columns; nothing outside this package names them in a write
const (
	colProductLikes      = "total_likes"
	colProductDislikes   = "total_dislikes"
	colProductWishlisted = "total_wishlisted"
	colProductViews      = "total_views"
	colUserSwipes        = "total_swipes"
	colUserLikes         = "total_likes"
)

// Aggregator applies counter deltas. All methods take the caller's *gorm.DB
// so the counter update commits or rolls back with the ledger write.
type Aggregator struct {
	log *slog.Logger
}

func New(log *slog.Logger) *Aggregator {
	return &Aggregator{log: log.With("module", "engagement")}
}

// ApplyCreation records the first swipe of a pair.
func (a *Aggregator) ApplyCreation(ctx context.Context, tx *gorm.DB, userID, productID uuid.UUID, action db.Action) error {
	return a.Apply(ctx, tx, userID, productID, CreationDelta(action))
}

// ApplyTransition records an action change on an existing swipe.
func (a *Aggregator) ApplyTransition(ctx context.Context, tx *gorm.DB, userID, productID uuid.UUID, old, next db.Action) error {
	return a.Apply(ctx, tx, userID, productID, TransitionDelta(old, next))
}

// ApplyRemoval reverses a creation when a swipe is undone.
func (a *Aggregator) ApplyRemoval(ctx context.Context, tx *gorm.DB, userID, productID uuid.UUID, action db.Action) error {
	return a.Apply(ctx, tx, userID, productID, RemovalDelta(action))
}

// ApplyWishlist moves the product's wishlisted counter by one.
func (a *Aggregator) ApplyWishlist(ctx context.Context, tx *gorm.DB, productID uuid.UUID, added bool) error {
	return a.Apply(ctx, tx, uuid.Nil, productID, WishlistDelta(added))
}

// ApplyView counts one product detail view.
func (a *Aggregator) ApplyView(ctx context.Context, tx *gorm.DB, productID uuid.UUID) error {
	return a.Apply(ctx, tx, uuid.Nil, productID, ViewDelta())
}

// Apply writes d against the product and user rows. A row that no longer
// exists is logged and skipped; only storage failures are returned.
func (a *Aggregator) Apply(ctx context.Context, tx *gorm.DB, userID, productID uuid.UUID, d Delta) error {
	if d.touchesProduct() {
		cols := map[string]any{}
		setStep(cols, colProductLikes, d.ProductLikes)
		setStep(cols, colProductDislikes, d.ProductDislikes)
		setStep(cols, colProductWishlisted, d.ProductWishlisted)
		setStep(cols, colProductViews, d.ProductViews)

		res := tx.WithContext(ctx).Model(&db.Product{}).Where("id = ?", productID).UpdateColumns(cols)
		if res.Error != nil {
			return fmt.Errorf("update product counters: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			a.log.WarnContext(ctx, "product missing during aggregation, counters skipped", "product_id", productID)
		}
	}

	if d.touchesUser() && userID != uuid.Nil {
		cols := map[string]any{}
		setStep(cols, colUserSwipes, d.UserSwipes)
		setStep(cols, colUserLikes, d.UserLikes)

		res := tx.WithContext(ctx).Model(&db.User{}).Where("id = ?", userID).UpdateColumns(cols)
		if res.Error != nil {
			return fmt.Errorf("update user counters: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			a.log.WarnContext(ctx, "user missing during aggregation, counters skipped", "user_id", userID)
		}
	}
	return nil
}

func setStep(cols map[string]any, col string, s Step) {
	if s.IsZero() {
		return
	}
	if s.Dec == 0 {
		cols[col] = gorm.Expr(col+" + ?", s.Inc)
		return
	}
	cols[col] = gorm.Expr("(CASE WHEN "+col+" >= ? THEN "+col+" - ? ELSE 0 END) + ?", s.Dec, s.Dec, s.Inc)
}
