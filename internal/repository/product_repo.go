package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/oggyb/swipe-engine/internal/db"
)

// ProductRepository reads the product catalog. Counter columns are written
// by the engagement package only.
type ProductRepository struct {
	db *gorm.DB
}

func NewProductRepository(database *gorm.DB) *ProductRepository {
	return &ProductRepository{db: database}
}

func (r *ProductRepository) WithTx(tx *gorm.DB) *ProductRepository {
	return &ProductRepository{db: tx}
}

// FindByID returns gorm.ErrRecordNotFound when the product does not exist.
func (r *ProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*db.Product, error) {
	var p db.Product
	if err := r.db.WithContext(ctx).Where("id = ?", id).Take(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// FindByIDs loads products keyed by id. Missing ids are simply absent.
func (r *ProductRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]db.Product, error) {
	out := make(map[uuid.UUID]db.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var products []db.Product
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, err
	}
	for _, p := range products {
		out[p.ID] = p
	}
	return out, nil
}

// CandidateFilter narrows the candidate query used by the swipe feed and
// recommendations. Empty values and nil bounds mean "no filter".
type CandidateFilter struct {
	Exclude    []uuid.UUID
	Categories []string
	Brands     []string
	Gender     string
	PriceMin   *float64
	PriceMax   *float64
	Limit      int
	// NewestFirst orders by created_at instead of popularity.
	NewestFirst bool
}

// Candidates returns active, in-stock products matching f.
//
// Behavior:
//   - Excluded ids never appear.
//   - Ordered by total_likes DESC, created_at DESC, id ASC, or with
//     NewestFirst by created_at DESC, id ASC.
func (r *ProductRepository) Candidates(ctx context.Context, f CandidateFilter) ([]db.Product, error) {
	q := r.db.WithContext(ctx).
		Where("is_active = ? AND in_stock = ?", true, true)

	if len(f.Exclude) > 0 {
		q = q.Where("id NOT IN ?", f.Exclude)
	}
	if len(f.Categories) > 0 {
		q = q.Where("category IN ?", f.Categories)
	}
	if len(f.Brands) > 0 {
		q = q.Where("brand IN ?", f.Brands)
	}
	if f.Gender != "" {
		q = q.Where("gender = ?", f.Gender)
	}
	if f.PriceMin != nil {
		q = q.Where("price_current >= ?", *f.PriceMin)
	}
	if f.PriceMax != nil {
		q = q.Where("price_current <= ?", *f.PriceMax)
	}

	order := "total_likes DESC, created_at DESC, id ASC"
	if f.NewestFirst {
		order = "created_at DESC, id ASC"
	}

	var products []db.Product
	err := q.Order(order).
		Limit(f.Limit).
		Find(&products).Error
	return products, err
}
