// README: HTTP router registration.
package http

import (
	"github.com/gin-gonic/gin"

	"farecast/internal/http/handlers"
	"farecast/internal/http/middleware"
)

func newRouter(deps ServerDeps) *gin.Engine {
	r := gin.New()
	r.Use(middleware.Recovery(deps.Log), middleware.Logging(deps.Log))

	health := handlers.NewHealthHandler(deps.Upstream)
	r.GET("/health", health.Health)
	r.GET("/readyz", health.Ready)

	sessions := handlers.NewSessionHandler(deps.Sessions, deps.Upstream)
	quotes := handlers.NewQuoteHandler(deps.Quotes)

	api := r.Group("/api")
	{
		api.POST("/sessions", sessions.Create)
		api.GET("/sessions/:id", sessions.Get)
		api.DELETE("/sessions/:id", sessions.Delete)
		api.POST("/sessions/:id/locations", sessions.SelectLocation)
		api.POST("/sessions/:id/search", sessions.Search)
		api.POST("/sessions/:id/reset", sessions.Reset)
		api.PUT("/sessions/:id/passengers", sessions.SetPassengers)
		api.PUT("/sessions/:id/pickup-time", sessions.SetPickupTime)
		api.POST("/sessions/:id/pickup-time/now", sessions.SetPickupNow)
		api.POST("/sessions/:id/predict", sessions.Predict)
		api.GET("/sessions/:id/map", sessions.Map)
		api.GET("/sessions/:id/stream", sessions.Stream)
		api.GET("/sessions/:id/quotes", quotes.List)
		api.GET("/quotes/:id", quotes.Get)
	}
	return r
}
