package users

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/oggyb/swipe-engine/internal/app"
	svcErr "github.com/oggyb/swipe-engine/internal/errors"
	"github.com/oggyb/swipe-engine/internal/http/middleware"
	"github.com/oggyb/swipe-engine/internal/http/response"
	"github.com/oggyb/swipe-engine/internal/server"
)

// Registrar ties the profile endpoints into the HTTP router
type Registrar struct {
	appCtx *app.AppContext
}

func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{appCtx: appCtx}
}

func (r *Registrar) Register(routes server.Routes) {
	svc := NewUserService(r.appCtx)
	g := routes.Authed.Group("/users")

	g.PUT("/preferences", func(c *gin.Context) {
		var req struct {
			Preferences *PreferencesPatch `json:"preferences"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Fail(c, svcErr.InvalidArgument("Valid preferences object is required"))
			return
		}
		prefs, err := svc.UpdatePreferences(c.Request.Context(), middleware.CurrentUser(c), req.Preferences)
		if err != nil {
			response.Fail(c, err)
			return
		}
		response.Message(c, http.StatusOK, "Preferences updated successfully", gin.H{"preferences": prefs})
	})
}
