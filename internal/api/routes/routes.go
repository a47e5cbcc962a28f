package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yoockh/intervue/internal/api/handlers"
	"github.com/yoockh/intervue/internal/api/middleware"
	"github.com/yoockh/intervue/internal/utils"
)

type Deps struct {
	Tokens utils.TokenConfig

	Auth      *handlers.AuthHandler
	Interview *handlers.InterviewHandler
	Turn      *handlers.TurnHandler
	Analysis  *handlers.AnalysisHandler
	WS        *handlers.WSHandler

	// Metrics defaults to the prometheus default gatherer.
	Metrics prometheus.Gatherer
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	// Health-ish
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	gatherer := d.Metrics
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	r.POST("/auth/register", d.Auth.Register)
	r.POST("/auth/login", d.Auth.Login)

	// Protected routes (JWT)
	auth := r.Group("/")
	auth.Use(middleware.JWTAuth(d.Tokens))

	auth.POST("/auth/change-password", d.Auth.ChangePassword)

	auth.GET("/interviews", d.Interview.List)
	auth.POST("/interviews", d.Interview.Create)
	auth.GET("/interviews/:id", d.Interview.Get)
	auth.POST("/interviews/:id/turn", d.Turn.Submit)
	auth.POST("/interviews/:id/turn/audio", d.Turn.SubmitAudio)
	auth.POST("/interviews/:id/complete", d.Interview.Complete)
	auth.POST("/interviews/:id/analyze", d.Analysis.Analyze)
	auth.GET("/interviews/:id/analysis/raw", d.Analysis.Raw)
	auth.GET("/interviews/:id/turns", d.Turn.List)
	auth.GET("/interviews/:id/recording", d.Interview.Recording)

	// WebSocket
	auth.GET("/ws/interviews/:id", d.WS.InterviewWS)

	admin := auth.Group("/admin")
	admin.Use(middleware.RequireAdmin())
	admin.GET("/interviews/:id", d.Interview.AdminGet)
}
