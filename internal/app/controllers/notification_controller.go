package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/yigit/appschool/internal/app/auth"
	"github.com/yigit/appschool/internal/app/models"
	"github.com/yigit/appschool/internal/app/models/dto"
	"github.com/yigit/appschool/internal/app/services"
	"github.com/yigit/appschool/internal/middleware"
	"github.com/yigit/appschool/internal/pkg/websocket"
)

// NotificationController exposes the notification operations over HTTP
type NotificationController struct {
	notificationService *services.NotificationService
	authz               *auth.AuthorizationService
	wsHandler           *websocket.Handler
	logger              zerolog.Logger
}

// NewNotificationController creates a new NotificationController
func NewNotificationController(
	notificationService *services.NotificationService,
	authz *auth.AuthorizationService,
	wsHandler *websocket.Handler,
	logger zerolog.Logger,
) *NotificationController {
	return &NotificationController{
		notificationService: notificationService,
		authz:               authz,
		wsHandler:           wsHandler,
		logger:              logger,
	}
}

func (c *NotificationController) caller(ctx *gin.Context) (models.Caller, bool) {
	caller, ok := middleware.CallerFromContext(ctx)
	if !ok {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Authentication required").
			WithDetails("User information not found")
		ctx.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(errorDetail))
	}
	return caller, ok
}

func parseNotificationID(ctx *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid notification ID").
			WithDetails("Notification ID must be a positive number")
		ctx.AbortWithStatusJSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return 0, false
	}
	return id, true
}

// CreateNotification handles notification creation
// @Summary Create a notification
// @Tags notifications
// @Accept json
// @Produce json
// @Param request body dto.CreateNotificationRequest true "Notification"
// @Success 201 {object} dto.APIResponse{data=models.Notification}
// @Failure 400 {object} dto.APIResponse "Validation failed"
// @Failure 403 {object} dto.APIResponse "Caller is not a professor"
// @Router /notifications [post]
func (c *NotificationController) CreateNotification(ctx *gin.Context) {
	caller, ok := c.caller(ctx)
	if !ok {
		return
	}

	var req dto.CreateNotificationRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleBindingError(ctx, err)
		return
	}

	notification, err := c.notificationService.CreateNotification(ctx.Request.Context(), caller, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(notification))
}

// ListOwnNotifications returns the calling professor's notifications
// @Summary List own notifications
// @Tags notifications
// @Produce json
// @Success 200 {object} dto.APIResponse{data=[]models.Notification}
// @Router /notifications/professor [get]
func (c *NotificationController) ListOwnNotifications(ctx *gin.Context) {
	caller, ok := c.caller(ctx)
	if !ok {
		return
	}

	notifications, err := c.notificationService.ListOwnNotifications(ctx.Request.Context(), caller)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(notifications))
}

// ListStudentNotifications returns the student feed
// @Summary List active notifications for students
// @Tags notifications
// @Produce json
// @Param unread query bool false "Only notifications the student has not read"
// @Success 200 {object} dto.APIResponse{data=[]dto.StudentNotificationView}
// @Router /notifications/student [get]
func (c *NotificationController) ListStudentNotifications(ctx *gin.Context) {
	caller, ok := c.caller(ctx)
	if !ok {
		return
	}

	unreadOnly := false
	if raw := ctx.Query("unread"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid unread flag").
				WithField("unread")
			ctx.AbortWithStatusJSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
			return
		}
		unreadOnly = parsed
	}

	views, err := c.notificationService.ListStudentNotifications(ctx.Request.Context(), caller, unreadOnly)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(views))
}

// UpdateNotification applies a partial update
// @Summary Update a notification
// @Tags notifications
// @Accept json
// @Produce json
// @Param id path int true "Notification ID"
// @Param request body dto.UpdateNotificationRequest true "Fields to change"
// @Success 200 {object} dto.APIResponse{data=models.Notification}
// @Failure 403 {object} dto.APIResponse "Not the owner"
// @Failure 404 {object} dto.APIResponse "Notification not found"
// @Router /notifications/{id} [put]
func (c *NotificationController) UpdateNotification(ctx *gin.Context) {
	caller, ok := c.caller(ctx)
	if !ok {
		return
	}
	id, ok := parseNotificationID(ctx)
	if !ok {
		return
	}

	var req dto.UpdateNotificationRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleBindingError(ctx, err)
		return
	}

	notification, err := c.notificationService.UpdateNotification(ctx.Request.Context(), caller, id, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(notification))
}

// DeleteNotification removes a notification
// @Summary Delete a notification
// @Tags notifications
// @Param id path int true "Notification ID"
// @Success 200 {object} dto.APIResponse{data=dto.MessageResponse}
// @Router /notifications/{id} [delete]
func (c *NotificationController) DeleteNotification(ctx *gin.Context) {
	caller, ok := c.caller(ctx)
	if !ok {
		return
	}
	id, ok := parseNotificationID(ctx)
	if !ok {
		return
	}

	if err := c.notificationService.DeleteNotification(ctx.Request.Context(), caller, id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.MessageResponse{Message: "Notification deleted successfully"}))
}

// MarkAsRead records a student's read receipt
func (c *NotificationController) MarkAsRead(ctx *gin.Context) {
	caller, ok := c.caller(ctx)
	if !ok {
		return
	}
	id, ok := parseNotificationID(ctx)
	if !ok {
		return
	}

	if err := c.notificationService.MarkAsRead(ctx.Request.Context(), caller, id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.MessageResponse{Message: "Notification marked as read"}))
}

// Stream upgrades a student's connection to the live feed
func (c *NotificationController) Stream(ctx *gin.Context) {
	caller, ok := c.caller(ctx)
	if !ok {
		return
	}

	if err := c.authz.Authorize(caller, auth.OpListForStudents); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	c.wsHandler.Serve(ctx, caller.UserID)
}
