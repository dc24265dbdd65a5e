package router

import (
	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"

	apiHandler "github.com/fastygo/planner/api/handler"
)

type Handlers struct {
	Auth    *apiHandler.AuthHandler
	Profile *apiHandler.ProfileHandler
	Task    *apiHandler.TaskHandler
	Health  *apiHandler.HealthHandler
	// Metrics is optional; nil disables /metrics.
	Metrics fasthttp.RequestHandler
}

func New(handlers Handlers, authMiddleware func(fasthttp.RequestHandler) fasthttp.RequestHandler) *router.Router {
	r := router.New()

	r.GET("/health", handlers.Health.Check)
	if handlers.Metrics != nil {
		r.GET("/metrics", handlers.Metrics)
	}

	// Auth routes
	auth := r.Group("/api/v1/auth")
	auth.POST("/register", handlers.Auth.Register)
	auth.POST("/login", handlers.Auth.Login)
	auth.GET("/google", handlers.Auth.GoogleLogin)
	auth.GET("/google/callback", handlers.Auth.GoogleCallback)
	auth.POST("/refresh", authMiddleware(handlers.Auth.Refresh))
	auth.POST("/logout", authMiddleware(handlers.Auth.Logout))
	auth.GET("/me", authMiddleware(handlers.Auth.Me))

	// Protected routes
	r.GET("/api/v1/profile", authMiddleware(handlers.Profile.GetProfile))
	r.PUT("/api/v1/profile", authMiddleware(handlers.Profile.UpdateProfile))

	r.GET("/api/v1/tasks", authMiddleware(handlers.Task.ListTasks))
	r.POST("/api/v1/tasks", authMiddleware(handlers.Task.CreateTask))

	tasks := r.Group("/api/v1/tasks")
	tasks.GET("/export", authMiddleware(handlers.Task.ExportTasks))
	tasks.GET("/{id}", authMiddleware(handlers.Task.GetTask))
	tasks.PUT("/{id}", authMiddleware(handlers.Task.UpdateTask))
	tasks.DELETE("/{id}", authMiddleware(handlers.Task.DeleteTask))
	tasks.PATCH("/{id}/status", authMiddleware(handlers.Task.SetStatus))
	tasks.GET("/{id}/history", authMiddleware(handlers.Task.History))
	tasks.POST("/{id}/calendar", authMiddleware(handlers.Task.SyncToCalendar))

	return r
}
