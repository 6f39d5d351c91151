package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/yukikurage/task-tracker-api/internal/auth"
	"github.com/yukikurage/task-tracker-api/internal/constants"
	apierrors "github.com/yukikurage/task-tracker-api/internal/errors"
	"github.com/yukikurage/task-tracker-api/internal/handlers"
	"github.com/yukikurage/task-tracker-api/internal/middleware"
	"github.com/yukikurage/task-tracker-api/internal/repository"
	"github.com/yukikurage/task-tracker-api/internal/services"
)

// Deps are the collaborators the router is built from.
type Deps struct {
	Log        *logrus.Logger
	Store      repository.Store
	Tokens     *auth.TokenManager
	Revoker    auth.Revoker
	BcryptCost int
}

// NewRouter wires services, handlers and middleware into a gin engine.
func NewRouter(d Deps) *gin.Engine {
	if d.Revoker == nil {
		d.Revoker = auth.NoopRevoker{}
	}

	userService := services.NewUserService(d.Store, d.BcryptCost)
	taskService := services.NewTaskService(d.Store)

	authHandler := handlers.NewAuthHandler(userService, d.Tokens, d.Revoker, d.Log)
	taskHandler := handlers.NewTaskHandler(taskService, d.Log)
	userHandler := handlers.NewUserHandler(userService, d.Log)

	metrics := middleware.NewMetrics()

	r := gin.New()
	r.Use(
		middleware.RequestID(),
		gin.CustomRecoveryWithWriter(d.Log.WriterLevel(logrus.ErrorLevel), func(c *gin.Context, _ any) {
			apierrors.InternalError(c, "")
		}),
		middleware.RequestLogger(d.Log),
		metrics.Middleware(),
	)
	r.NoRoute(func(c *gin.Context) {
		apierrors.NotFound(c, "Route not found")
	})

	r.GET("/health", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := d.Store.Ping(ctx); err != nil {
			d.Log.WithError(err).Warn("health check failed")
			apierrors.ServiceUnavailable(c, "Database unavailable")
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	requireAuth := middleware.RequireAuth(d.Tokens, d.Revoker, d.Log)
	anyRole := middleware.RequireRoles(constants.RoleUser, constants.RoleAdmin)
	adminOnly := middleware.RequireRoles(constants.RoleAdmin)

	api := r.Group("/api")
	{
		// Auth routes (public)
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/signup", authHandler.Signup)
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/logout", requireAuth, authHandler.Logout)
			authGroup.GET("/me", requireAuth, authHandler.GetCurrentUser)
		}

		// Task routes (protected)
		tasks := api.Group("/tasks")
		tasks.Use(requireAuth, anyRole)
		{
			tasks.POST("", taskHandler.CreateTask)
			tasks.GET("", taskHandler.ListTasks)
			tasks.GET("/overdue", taskHandler.ListOverdueTasks)
			tasks.GET("/stats", taskHandler.GetStats)
			tasks.GET("/user/:userId", taskHandler.ListTasksByAssignee)
			tasks.GET("/creator/:userId", taskHandler.ListTasksByCreator)
			tasks.GET("/status/:status", taskHandler.ListTasksByStatus)
			tasks.GET("/priority/:priority", taskHandler.ListTasksByPriority)
			tasks.GET("/:id", taskHandler.GetTask)
			tasks.PUT("/:id", taskHandler.UpdateTask)
			tasks.DELETE("/:id", adminOnly, taskHandler.DeleteTask)
		}

		// User administration
		users := api.Group("/users")
		users.Use(requireAuth, adminOnly)
		{
			users.GET("", userHandler.ListUsers)
			users.GET("/:id", userHandler.GetUser)
			users.DELETE("/:id", userHandler.DeleteUser)
		}
	}

	return r
}
