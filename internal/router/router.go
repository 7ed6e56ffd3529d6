// Package router wires handlers and middleware into the gin engine.
package router

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/task-manager-api/internal/constants"
	"github.com/yukikurage/task-manager-api/internal/handlers"
	"github.com/yukikurage/task-manager-api/internal/middleware"
	"github.com/yukikurage/task-manager-api/internal/policy"
	"github.com/yukikurage/task-manager-api/internal/repository"
	"github.com/yukikurage/task-manager-api/internal/services"
	"github.com/yukikurage/task-manager-api/internal/utils"
)

// Dependencies are the collaborators the HTTP layer needs.
type Dependencies struct {
	Users         repository.UserRepository
	Tokens        *utils.TokenManager
	Auth          *services.AuthService
	Tasks         *services.TaskService
	Admin         *services.AdminService
	Notifications *services.NotificationService
}

// New builds the engine with every API route registered.
func New(store sessions.Store, deps Dependencies) *gin.Engine {
	handlers.RegisterValidators()

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	r.Use(sessions.Sessions(constants.SessionCookieName, store))

	authHandler := handlers.NewAuthHandler(deps.Auth, deps.Tokens)
	taskHandler := handlers.NewTaskHandler(deps.Tasks)
	adminHandler := handlers.NewAdminHandler(deps.Admin, deps.Tasks)
	notificationHandler := handlers.NewNotificationHandler(deps.Notifications)

	requireAuth := middleware.RequireAuth(deps.Users, deps.Tokens)
	taskAccess := func(capability policy.Capability) gin.HandlerFunc {
		return middleware.RequireTaskAccess(deps.Tasks, capability)
	}

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Task Manager API is running",
		})
	})

	api := r.Group("/api")
	{
		// Auth routes
		auth := api.Group("/auth")
		{
			auth.POST("/signup", authHandler.Signup)
			auth.POST("/login", authHandler.Login)
			auth.POST("/logout", authHandler.Logout)
			auth.GET("/me", requireAuth, authHandler.GetCurrentUser)
			auth.PUT("/profile", requireAuth, authHandler.UpdateProfile)
			auth.PUT("/password", requireAuth, authHandler.ChangePassword)
		}

		// Task routes (protected)
		tasks := api.Group("/tasks")
		tasks.Use(requireAuth)
		{
			tasks.GET("", taskHandler.ListTasks)
			tasks.POST("", taskHandler.CreateTask)
			tasks.POST("/generate", taskHandler.GenerateTasks)
			tasks.GET("/:id", taskAccess(policy.CapRead), taskHandler.GetTask)
			tasks.PUT("/:id", taskAccess(policy.CapModify), taskHandler.UpdateTask)
			tasks.PATCH("/:id", taskAccess(policy.CapModify), taskHandler.UpdateTask)
			tasks.DELETE("/:id", taskAccess(policy.CapDelete), taskHandler.DeleteTask)
			tasks.POST("/:id/comments", taskAccess(policy.CapModify), taskHandler.AddComment)
			tasks.PUT("/:id/archive", taskAccess(policy.CapArchive), taskHandler.ToggleArchive)
		}

		api.GET("/notifications", requireAuth, notificationHandler.List)

		// Admin routes
		admin := api.Group("/admin")
		admin.Use(requireAuth, middleware.RequireAdmin())
		{
			admin.GET("/dashboard", adminHandler.Dashboard)
			admin.GET("/stats", adminHandler.Stats)
			admin.GET("/activity", adminHandler.Activity)
			admin.GET("/users", adminHandler.ListUsers)
			admin.GET("/users/:id", adminHandler.GetUser)
			admin.PUT("/users/:id", adminHandler.UpdateUser)
			admin.PUT("/users/:id/role", adminHandler.ChangeRole)
			admin.PUT("/users/:id/status", adminHandler.SetStatus)
			admin.DELETE("/users/:id", adminHandler.DeleteUser)
			admin.GET("/tasks", adminHandler.ListTasks)
		}
	}

	return r
}
