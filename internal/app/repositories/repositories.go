package repositories

import (
	"context"
	"time"

	"github.com/yigit/appschool/internal/app/models"
	"github.com/yigit/appschool/internal/db"
)

// IUserRepository defines the identity store
type IUserRepository interface {
	// CreateStudentAccount stores the user and its student profile atomically
	CreateStudentAccount(ctx context.Context, user *models.User, student *models.Student) error
	// CreateProfessorAccount stores the user and its professor profile atomically
	CreateProfessorAccount(ctx context.Context, user *models.User, professor *models.Professor) error

	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	EmailExists(ctx context.Context, email string) (bool, error)

	GetProfessorByUserID(ctx context.Context, userID int64) (*models.Professor, error)
	GetStudentByUserID(ctx context.Context, userID int64) (*models.Student, error)
}

// INotificationRepository defines the notification store.
//
// Lists are ordered by creation time, newest first, with ties broken by id
// descending. Update and Delete re-check ownership: an unknown id yields
// apperrors.ErrNotificationNotFound and a foreign one apperrors.ErrNotNotificationOwner.
type INotificationRepository interface {
	// Create inserts n and fills in its id and timestamps
	Create(ctx context.Context, n *models.Notification) error
	GetByID(ctx context.Context, id int64) (*models.Notification, error)
	// ListByProfessor returns every notification of the professor, active or not
	ListByProfessor(ctx context.Context, professorID int64) ([]*models.Notification, error)
	// ListActiveWithOwner returns active notifications of all professors
	ListActiveWithOwner(ctx context.Context) ([]*models.NotificationWithOwner, error)
	// ListUnreadActiveWithOwner is ListActiveWithOwner minus what studentID has read
	ListUnreadActiveWithOwner(ctx context.Context, studentID int64) ([]*models.NotificationWithOwner, error)
	Update(ctx context.Context, id, callerID int64, patch models.NotificationPatch) (*models.Notification, error)
	Delete(ctx context.Context, id, callerID int64) error
	// MarkAsRead records a read; repeating it is a no-op
	MarkAsRead(ctx context.Context, notificationID, studentID int64) error
	// DeactivateExpired turns off active notifications whose expiry is before now
	// and returns their ids
	DeactivateExpired(ctx context.Context, now time.Time) ([]int64, error)
}

// Repositories holds all the repository instances
type Repositories struct {
	UserRepository         IUserRepository
	NotificationRepository INotificationRepository
}

// NewRepositories initializes the PostgreSQL repositories
func NewRepositories(database *db.PostgresDB) *Repositories {
	return &Repositories{
		UserRepository:         NewUserRepository(database),
		NotificationRepository: NewNotificationRepository(database.Pool),
	}
}
