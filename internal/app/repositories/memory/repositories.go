package memory

import "github.com/yigit/appschool/internal/app/repositories"

// NewRepositories wires the in-memory stores over a shared DB
func NewRepositories(db *DB) *repositories.Repositories {
	return &repositories.Repositories{
		UserRepository:         NewUserRepository(db),
		NotificationRepository: NewNotificationRepository(db),
	}
}
