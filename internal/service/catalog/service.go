package catalog

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/oggyb/swipe-engine/internal/app"
	"github.com/oggyb/swipe-engine/internal/db"
	svcErr "github.com/oggyb/swipe-engine/internal/errors"
	"github.com/oggyb/swipe-engine/internal/http/response"
	"github.com/oggyb/swipe-engine/internal/repository"
	"github.com/oggyb/swipe-engine/internal/server"
)

// Service serves product detail pages.
type Service struct {
	appCtx   *app.AppContext
	products *repository.ProductRepository
}

func NewCatalogService(appCtx *app.AppContext) *Service {
	return &Service{appCtx: appCtx, products: repository.NewProductRepository(appCtx.DB)}
}

// GetProduct returns an active product and counts the view. A failed view
// count is logged; the product is still returned.
func (s *Service) GetProduct(ctx context.Context, id uuid.UUID) (*db.Product, error) {
	p, err := s.products.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, svcErr.NotFound("Product not found")
	}
	if err != nil {
		return nil, svcErr.Internal("Failed to load product", err)
	}
	if !p.IsActive {
		return nil, svcErr.NotFound("Product is no longer available")
	}

	if err := s.appCtx.Aggregator.ApplyView(ctx, s.appCtx.DB, p.ID); err != nil {
		s.appCtx.Logger.WarnContext(ctx, "view count failed", "product_id", p.ID, "err", err)
	} else {
		p.TotalViews++
	}
	return p, nil
}

// Registrar mounts GET /api/products/:productId.
type Registrar struct {
	appCtx *app.AppContext
}

func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{appCtx: appCtx}
}

func (r *Registrar) Register(routes server.Routes) {
	svc := NewCatalogService(r.appCtx)
	routes.Public.GET("/products/:productId", func(c *gin.Context) {
		id, err := uuid.Parse(c.Param("productId"))
		if err != nil {
			response.Fail(c, svcErr.InvalidArgument("Invalid product ID"))
			return
		}
		p, err := svc.GetProduct(c.Request.Context(), id)
		if err != nil {
			response.Fail(c, err)
			return
		}
		response.OK(c, gin.H{"product": p})
	})
}
