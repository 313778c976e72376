package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/oggyb/swipe-engine/internal/db"
)

// UserRepository reads accounts for the auth middleware and services.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(database *gorm.DB) *UserRepository {
	return &UserRepository{db: database}
}

// FindByID returns gorm.ErrRecordNotFound when the user does not exist.
func (r *UserRepository) FindByID(ctx context.Context, id uuid.UUID) (*db.User, error) {
	var u db.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).Take(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// FindByPhone is used by the token tool to resolve seeded accounts.
func (r *UserRepository) FindByPhone(ctx context.Context, phone string) (*db.User, error) {
	var u db.User
	if err := r.db.WithContext(ctx).Where("phone = ?", phone).Take(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// TouchLastActive stamps last_active_at without bumping updated_at.
func (r *UserRepository) TouchLastActive(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&db.User{}).
		Where("id = ?", id).
		UpdateColumn("last_active_at", at).Error
}

// UpdatePreferences overwrites the stored shopping preferences. Nil price
// bounds clear the bound.
func (r *UserRepository) UpdatePreferences(ctx context.Context, id uuid.UUID, p db.Preferences, at time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&db.User{}).
		Where("id = ?", id).
		UpdateColumns(map[string]any{
			"pref_price_min":  p.PriceMin,
			"pref_price_max":  p.PriceMax,
			"pref_brands":     p.Brands,
			"pref_categories": p.Categories,
			"pref_colors":     p.Colors,
			"updated_at":      at,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
