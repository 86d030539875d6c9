package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/calebchiang/repcoach_server/controllers"
	"github.com/calebchiang/repcoach_server/logger"
	"github.com/calebchiang/repcoach_server/metrics"
	"github.com/calebchiang/repcoach_server/middleware"
)

// Setup builds the engine: health and metrics at the root, everything else
// under /api behind auth.
func Setup(ctl *controllers.Controller, jwtSecret string, m *metrics.Metrics, log *logger.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(log, m))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(m.Handler()))

	api := r.Group("/api")
	api.Use(middleware.RequireAuth(jwtSecret, log))

	ConversationRoutes(api, ctl)
	PersonaRoutes(api, ctl)
	AdminRoutes(api, ctl)

	return r
}
