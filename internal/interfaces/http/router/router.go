package router

import "github.com/gin-gonic/gin"

// RouteRegistrar is implemented by handlers that attach their own routes to a
// router group
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// Router mounts handlers under the versioned API prefix
type Router struct {
	engine *gin.Engine
	prefix string
}

// New creates a router serving under /api/v1
func New(engine *gin.Engine) *Router {
	return &Router{
		engine: engine,
		prefix: "/api/v1",
	}
}

// Mount attaches each registrar's routes under the API prefix
func (r *Router) Mount(registrars ...RouteRegistrar) {
	api := r.engine.Group(r.prefix)
	for _, registrar := range registrars {
		registrar.RegisterRoutes(api)
	}
}
