package dto

import (
	"time"

	"github.com/yigit/appschool/internal/app/models"
)

// CreateNotificationRequest is the body of POST /notifications
type CreateNotificationRequest struct {
	Title     string                  `json:"title" binding:"required,max=200"`
	Message   string                  `json:"message" binding:"required"`
	Type      models.NotificationType `json:"type,omitempty"`
	ExpiresAt *time.Time              `json:"expiresAt,omitempty"`
}

// UpdateNotificationRequest is the body of PUT /notifications/:id.
// Omitted fields are left as they are. A null expiresAt is treated as
// omitted, so removing an expiry takes clearExpiresAt.
type UpdateNotificationRequest struct {
	Title          *string                  `json:"title,omitempty" binding:"omitempty,max=200"`
	Message        *string                  `json:"message,omitempty"`
	Type           *models.NotificationType `json:"type,omitempty"`
	IsActive       *bool                    `json:"isActive,omitempty"`
	ExpiresAt      *time.Time               `json:"expiresAt,omitempty"`
	ClearExpiresAt bool                     `json:"clearExpiresAt,omitempty"`
}

// StudentNotificationView is what a student sees of a notification.
// It never carries the owner id, the active flag or the expiry.
type StudentNotificationView struct {
	ID            int64                   `json:"id"`
	Title         string                  `json:"title"`
	Message       string                  `json:"message"`
	Type          models.NotificationType `json:"type"`
	CreatedAt     time.Time               `json:"createdAt"`
	ProfessorName string                  `json:"professorName"`
}

// NewStudentNotificationView projects a notification and its owner's name
func NewStudentNotificationView(n *models.Notification, ownerName string) StudentNotificationView {
	return StudentNotificationView{
		ID:            n.ID,
		Title:         n.Title,
		Message:       n.Message,
		Type:          n.Type,
		CreatedAt:     n.CreatedAt,
		ProfessorName: ownerName,
	}
}

// NewStudentNotificationViews projects every element of a joined list
func NewStudentNotificationViews(items []*models.NotificationWithOwner) []StudentNotificationView {
	views := make([]StudentNotificationView, 0, len(items))
	for _, item := range items {
		views = append(views, NewStudentNotificationView(&item.Notification, item.OwnerName))
	}
	return views
}
