package wishlist

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/oggyb/swipe-engine/internal/app"
	svcErr "github.com/oggyb/swipe-engine/internal/errors"
	"github.com/oggyb/swipe-engine/internal/http/middleware"
	"github.com/oggyb/swipe-engine/internal/http/response"
	"github.com/oggyb/swipe-engine/internal/server"
)

// Registrar ties the wishlist endpoints into the HTTP router
type Registrar struct {
	appCtx *app.AppContext
}

func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{appCtx: appCtx}
}

func (r *Registrar) Register(routes server.Routes) {
	svc := NewWishlistService(r.appCtx)
	g := routes.Authed.Group("/wishlist")

	g.GET("", func(c *gin.Context) {
		items, err := svc.List(c.Request.Context(), middleware.CurrentUser(c).ID)
		if err != nil {
			response.Fail(c, err)
			return
		}
		response.OK(c, gin.H{"items": items, "count": len(items)})
	})

	g.POST("", func(c *gin.Context) {
		var req struct {
			ProductID string `json:"productId"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Fail(c, svcErr.InvalidArgument("Invalid request body"))
			return
		}
		id, err := uuid.Parse(req.ProductID)
		if err != nil {
			response.Fail(c, svcErr.InvalidArgument("Invalid product ID"))
			return
		}
		item, err := svc.Add(c.Request.Context(), middleware.CurrentUser(c).ID, id)
		if err != nil {
			response.Fail(c, err)
			return
		}
		response.Message(c, http.StatusOK, "Item added to wishlist successfully", gin.H{"item": item})
	})

	g.GET("/:productId/status", func(c *gin.Context) {
		id, err := uuid.Parse(c.Param("productId"))
		if err != nil {
			response.Fail(c, svcErr.InvalidArgument("Invalid product ID"))
			return
		}
		saved, err := svc.Status(c.Request.Context(), middleware.CurrentUser(c).ID, id)
		if err != nil {
			response.Fail(c, err)
			return
		}
		response.OK(c, gin.H{"inWishlist": saved, "productId": id})
	})

	g.DELETE("/:productId", func(c *gin.Context) {
		id, err := uuid.Parse(c.Param("productId"))
		if err != nil {
			response.Fail(c, svcErr.InvalidArgument("Invalid product ID"))
			return
		}
		if err := svc.Remove(c.Request.Context(), middleware.CurrentUser(c).ID, id); err != nil {
			response.Fail(c, err)
			return
		}
		response.Message(c, http.StatusOK, "Item removed from wishlist successfully", nil)
	})
}
