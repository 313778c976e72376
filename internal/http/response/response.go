// Package response writes the JSON envelope every endpoint answers with:
// {success, message?, data?} on success and {success:false, message, ...}
// on failure.
package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	svcErr "github.com/oggyb/swipe-engine/internal/errors"
)

// ExposeInternalKey is set on the gin context (development only) to show
// internal error messages to clients.
const ExposeInternalKey = "expose_internal"

type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func OK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Envelope{Success: true, Data: data})
}

// Message answers with status and a human-readable message.
func Message(c *gin.Context, status int, msg string, data any) {
	c.JSON(status, Envelope{Success: true, Message: msg, Data: data})
}

// Fail maps err to a status and aborts the request. The raw error is
// attached to the gin context so the request logger records it.
func Fail(c *gin.Context, err error) {
	_ = c.Error(err)
	he := svcErr.Map(err, c.GetBool(ExposeInternalKey))
	body := gin.H{"success": false, "message": he.Message}
	for k, v := range he.Details {
		body[k] = v
	}
	c.AbortWithStatusJSON(he.Status, body)
}
