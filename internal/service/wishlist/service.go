package wishlist

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/oggyb/swipe-engine/internal/app"
	"github.com/oggyb/swipe-engine/internal/db"
	svcErr "github.com/oggyb/swipe-engine/internal/errors"
	"github.com/oggyb/swipe-engine/internal/repository"
)

// Service manages saved products. The product's wishlisted counter moves
// in the same transaction as the wishlist row.
type Service struct {
	appCtx   *app.AppContext
	items    *repository.WishlistRepository
	products *repository.ProductRepository
}

func NewWishlistService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:   appCtx,
		items:    repository.NewWishlistRepository(appCtx.DB),
		products: repository.NewProductRepository(appCtx.DB),
	}
}

// Add saves an active product. Saving it twice is a validation error.
func (s *Service) Add(ctx context.Context, userID, productID uuid.UUID) (*db.WishlistItem, error) {
	p, err := s.products.FindByID(ctx, productID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, svcErr.NotFound("Product not found")
	}
	if err != nil {
		return nil, svcErr.Internal("Failed to load product", err)
	}
	if !p.IsActive {
		return nil, svcErr.Unavailable("Product is no longer available")
	}

	item := &db.WishlistItem{UserID: userID, ProductID: productID, CreatedAt: s.appCtx.Now()}
	err = s.appCtx.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		added, err := s.items.WithTx(tx).Add(ctx, item)
		if err != nil {
			return err
		}
		if !added {
			return svcErr.AlreadyExists("Product already in wishlist")
		}
		return s.appCtx.Aggregator.ApplyWishlist(ctx, tx, productID, true)
	})
	if svcErr.IsKind(err, svcErr.KindConflict) {
		return nil, err
	}
	if err != nil {
		return nil, svcErr.Internal("Failed to update wishlist", err)
	}

	p.TotalWishlisted++
	item.Product = p
	return item, nil
}

// Remove deletes a saved product.
func (s *Service) Remove(ctx context.Context, userID, productID uuid.UUID) error {
	err := s.appCtx.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		removed, err := s.items.WithTx(tx).Remove(ctx, userID, productID)
		if err != nil {
			return err
		}
		if !removed {
			return svcErr.NotFound("Product not in wishlist")
		}
		return s.appCtx.Aggregator.ApplyWishlist(ctx, tx, productID, false)
	})
	if svcErr.IsKind(err, svcErr.KindNotFound) {
		return err
	}
	if err != nil {
		return svcErr.Internal("Failed to update wishlist", err)
	}
	return nil
}

// Status reports whether the user saved the product. Unknown products are
// simply not saved.
func (s *Service) Status(ctx context.Context, userID, productID uuid.UUID) (bool, error) {
	ok, err := s.items.Contains(ctx, userID, productID)
	if err != nil {
		return false, svcErr.Internal("Failed to check wishlist status", err)
	}
	return ok, nil
}

// List returns saved products, newest first.
func (s *Service) List(ctx context.Context, userID uuid.UUID) ([]db.WishlistItem, error) {
	items, err := s.items.List(ctx, userID)
	if err != nil {
		return nil, svcErr.Internal("Failed to load wishlist", err)
	}
	if items == nil {
		items = []db.WishlistItem{}
	}
	return items, nil
}
