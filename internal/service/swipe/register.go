package swipe

import (
	"github.com/oggyb/swipe-engine/internal/app"
	"github.com/oggyb/swipe-engine/internal/server"
)

// Registrar ties the swipe endpoints into the HTTP router
type Registrar struct {
	appCtx *app.AppContext
}

// NewRegistrar creates a new Registrar for the swipe service
func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{appCtx: appCtx}
}

// Register attaches the swipe handlers. The feed and trending live under
// /api/products next to the catalog endpoints; trending is public.
func (r *Registrar) Register(routes server.Routes) {
	h := NewHandler(NewSwipeService(r.appCtx))

	g := routes.Authed.Group("/swipes")
	g.POST("", h.Record)
	g.GET("/history", h.History)
	g.GET("/stats", h.Stats)
	g.POST("/undo", h.Undo)
	g.GET("/recommendations", h.Recommendations)
	g.GET("/product/:productId/engagement", h.Engagement)

	routes.Authed.GET("/products/swipe", h.Feed)
	routes.Public.GET("/products/trending", h.Trending)
}
