package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/appschool/internal/app/controllers"
	"github.com/yigit/appschool/internal/app/models/dto"
	"github.com/yigit/appschool/internal/middleware"
)

// SetupRouter configures all application routes
func SetupRouter(
	router *gin.Engine,
	authController *controllers.AuthController,
	notificationController *controllers.NotificationController,
	userController *controllers.UserController,
	authMiddleware *middleware.AuthMiddleware,
) {
	// API version group
	v1 := router.Group("/api/v1")

	// --- Public Auth routes ---
	auth := v1.Group("/auth")
	{
		auth.POST("/register", authController.Register)
		auth.POST("/login", authController.Login)
	}

	// --- Authenticated Routes Group ---
	authenticated := v1.Group("")
	authenticated.Use(authMiddleware.JWTAuth())
	{
		authenticated.GET("/users/me", userController.GetUserProfile)

		// Role checks happen in the authorization service, not here
		notifications := authenticated.Group("/notifications")
		{
			notifications.POST("", notificationController.CreateNotification)
			notifications.GET("/professor", notificationController.ListOwnNotifications)
			notifications.GET("/student", notificationController.ListStudentNotifications)
			notifications.GET("/stream", notificationController.Stream)
			notifications.PUT("/:id", notificationController.UpdateNotification)
			notifications.DELETE("/:id", notificationController.DeleteNotification)
			notifications.POST("/:id/read", notificationController.MarkAsRead)
		}
	}

	// Health check endpoint (public)
	v1.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, dto.NewSuccessResponse(gin.H{"status": "ok"}))
	})
}
