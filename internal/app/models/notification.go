package models

import "time"

// NotificationType tags a notification with its urgency
type NotificationType string

const (
	NotificationTypeReminder     NotificationType = "lembrete"
	NotificationTypeAnnouncement NotificationType = "comunicado"
	NotificationTypeNotice       NotificationType = "aviso"
	NotificationTypeUrgent       NotificationType = "urgente"
)

// DefaultNotificationType is used when the author does not pick a type
const DefaultNotificationType = NotificationTypeNotice

// Valid reports whether t is one of the known notification types
func (t NotificationType) Valid() bool {
	switch t {
	case NotificationTypeReminder, NotificationTypeAnnouncement, NotificationTypeNotice, NotificationTypeUrgent:
		return true
	}
	return false
}

// Notification defines the notification model based on the 'notifications' table.
// ProfessorID references users.id of the owning professor.
type Notification struct {
	ID          int64            `json:"id" db:"id"`
	ProfessorID int64            `json:"professorId" db:"professor_id"`
	Title       string           `json:"title" db:"title"`
	Message     string           `json:"message" db:"message"`
	Type        NotificationType `json:"type" db:"type"`
	IsActive    bool             `json:"isActive" db:"is_active"`
	ExpiresAt   *time.Time       `json:"expiresAt,omitempty" db:"expires_at"`
	CreatedAt   time.Time        `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time        `json:"updatedAt" db:"updated_at"`
}

// NotificationWithOwner pairs a notification with its author's display name
type NotificationWithOwner struct {
	Notification
	OwnerName string `db:"owner_name"`
}

// NotificationPatch carries a partial update. Nil fields are left untouched.
// ClearExpiresAt removes the expiry and is never combined with ExpiresAt.
type NotificationPatch struct {
	Title          *string
	Message        *string
	Type           *NotificationType
	IsActive       *bool
	ExpiresAt      *time.Time
	ClearExpiresAt bool
}

// IsEmpty reports whether the patch changes nothing
func (p NotificationPatch) IsEmpty() bool {
	return p.Title == nil && p.Message == nil && p.Type == nil && p.IsActive == nil &&
		p.ExpiresAt == nil && !p.ClearExpiresAt
}

// Apply writes the provided fields onto n
func (p NotificationPatch) Apply(n *Notification) {
	if p.Title != nil {
		n.Title = *p.Title
	}
	if p.Message != nil {
		n.Message = *p.Message
	}
	if p.Type != nil {
		n.Type = *p.Type
	}
	if p.IsActive != nil {
		n.IsActive = *p.IsActive
	}
	if p.ExpiresAt != nil {
		t := *p.ExpiresAt
		n.ExpiresAt = &t
	}
	if p.ClearExpiresAt {
		n.ExpiresAt = nil
	}
}
