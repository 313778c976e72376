package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oggyb/swipe-engine/internal/db"
)

// WishlistRepository stores saved products. total_wishlisted on the product
// is kept in step by the engagement package.
type WishlistRepository struct {
	db *gorm.DB
}

func NewWishlistRepository(database *gorm.DB) *WishlistRepository {
	return &WishlistRepository{db: database}
}

func (r *WishlistRepository) WithTx(tx *gorm.DB) *WishlistRepository {
	return &WishlistRepository{db: tx}
}

// Add inserts the item. Returns false when the pair was already saved.
func (r *WishlistRepository) Add(ctx context.Context, item *db.WishlistItem) (bool, error) {
	res := r.db.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "product_id"}},
			DoNothing: true,
		}).
		Create(item)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// Remove deletes the item. Returns false when nothing was saved.
func (r *WishlistRepository) Remove(ctx context.Context, userID, productID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Delete(&db.WishlistItem{})
	return res.RowsAffected > 0, res.Error
}

// List returns the user's wishlist, newest first, with products preloaded.
func (r *WishlistRepository) List(ctx context.Context, userID uuid.UUID) ([]db.WishlistItem, error) {
	var items []db.WishlistItem
	err := r.db.WithContext(ctx).
		Preload("Product").
		Where("user_id = ?", userID).
		Order("created_at DESC, product_id DESC").
		Find(&items).Error
	return items, err
}

// Contains reports whether the user saved the product.
func (r *WishlistRepository) Contains(ctx context.Context, userID, productID uuid.UUID) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&db.WishlistItem{}).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Count(&n).Error
	return n > 0, err
}
