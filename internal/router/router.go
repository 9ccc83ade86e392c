package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pomofocus/backend/internal/handler"
	"pomofocus/backend/internal/middleware"
	"pomofocus/backend/internal/service"
)

type Handlers struct {
	Auth          *handler.AuthHandler
	Timer         *handler.TimerHandler
	Tasks         *handler.TaskHandler
	Notifications *handler.NotificationHandler
	Events        *handler.EventsHandler
	Prioritize    *handler.PrioritizeHandler
}

func New(authService *service.AuthService, h Handlers, corsOrigins []string) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Logger(), gin.Recovery(), middleware.CORS(corsOrigins))

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := engine.Group("/api")
	auth := api.Group("/auth")
	auth.POST("/register", h.Auth.Register)
	auth.POST("/login", h.Auth.Login)

	protected := api.Group("")
	protected.Use(middleware.Auth(authService))
	protected.GET("/auth/me", h.Auth.Me)

	timer := protected.Group("/timer")
	timer.GET("/state", h.Timer.GetState)
	timer.POST("/start", h.Timer.Start)
	timer.POST("/pause", h.Timer.Pause)
	timer.POST("/reset", h.Timer.Reset)
	timer.PUT("/settings", h.Timer.UpdateSettings)
	timer.GET("/sounds", h.Timer.Sounds)
	timer.GET("/history", h.Timer.GetHistory)

	tasks := protected.Group("/tasks")
	tasks.GET("", h.Tasks.List)
	tasks.POST("", h.Tasks.Create)
	tasks.GET("/categories", h.Tasks.Categories)
	tasks.PATCH("/:id", h.Tasks.Rename)
	tasks.POST("/:id/toggle", h.Tasks.Toggle)
	tasks.DELETE("/:id", h.Tasks.Delete)

	notifications := protected.Group("/notifications")
	notifications.GET("/permission", h.Notifications.GetPermission)
	notifications.POST("/permission", h.Notifications.RequestPermission)

	protected.GET("/events", h.Events.Stream)
	protected.POST("/ai/prioritize", h.Prioritize.Prioritize)

	return engine
}
