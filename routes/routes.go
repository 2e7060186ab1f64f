package routes

import (
	"github.com/gin-gonic/gin"

	"hcplog/controllers"
	"hcplog/metrics"
	"hcplog/middlewares"
)

func SetupRouter(ic *controllers.InteractionController, m *metrics.Metrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middlewares.Logger(m))
	r.Use(middlewares.CORS())

	r.GET("/", ic.Root)
	r.GET("/healthz", ic.Health)
	if m != nil {
		r.GET("/metrics", gin.WrapH(m.Handler()))
	}

	// Structured and free-text submissions
	r.POST("/log_interaction", ic.LogInteraction)
	r.POST("/chat_log", ic.ChatLog)

	interactions := r.Group("/interactions")
	{
		interactions.GET("", ic.List)
		interactions.GET("/:id", ic.Get)
		interactions.PUT("/:id", ic.Update)
		interactions.DELETE("/:id", ic.Delete)
	}

	return r
}
