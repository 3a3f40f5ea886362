// README: API gateway; registers HTTP routes and delegates to module services.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"navette/internal/http/handlers"
	"navette/internal/http/middleware"
)

type ServerDeps struct {
	Recommend    handlers.Recommender
	Availability handlers.Resolver
	Mission      handlers.Booker
	Logger       *zap.Logger
}

type Server struct {
	engine *gin.Engine
}

func NewServer(deps ServerDeps) *Server {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}

	engine := gin.New()
	engine.Use(middleware.Logging(log), middleware.Recovery(log))

	recommendHandler := handlers.NewRecommendHandler(deps.Recommend)
	availabilityHandler := handlers.NewAvailabilityHandler(deps.Availability)
	missionHandler := handlers.NewMissionHandler(deps.Mission)

	api := engine.Group("/api")
	api.POST("/recommendations", recommendHandler.Recommend)
	api.POST("/availability", availabilityHandler.Resolve)
	api.POST("/missions", missionHandler.Book)
	api.POST("/missions/:id/cancel", missionHandler.Cancel)

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	return &Server{engine: engine}
}

func (s *Server) Routes() http.Handler {
	return s.engine
}
