package server

import (
	"github.com/gin-gonic/gin"
	"google.golang.org/grpc"
)

// Routes are the groups a registrar mounts endpoints on.
type Routes struct {
	// Public is /api without authentication.
	Public *gin.RouterGroup
	// Authed is /api behind bearer auth, phone verification and onboarding.
	Authed *gin.RouterGroup
}

// Registrar is a common interface for all HTTP service registrars
type Registrar interface {
	Register(r Routes)
}

// GRPCRegistrar attaches services to the admin gRPC server.
type GRPCRegistrar interface {
	Register(s *grpc.Server)
}
