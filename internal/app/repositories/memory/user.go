package memory

import (
	"context"
	"strings"

	"github.com/yigit/appschool/internal/app/models"
	"github.com/yigit/appschool/internal/app/repositories"
	"github.com/yigit/appschool/internal/pkg/apperrors"
)

type userRepository struct {
	db *DB
}

// NewUserRepository creates an in-memory identity store
func NewUserRepository(db *DB) repositories.IUserRepository {
	return &userRepository{db: db}
}

func (repo *userRepository) emailTaken(email string) bool {
	for _, u := range repo.db.users {
		if strings.EqualFold(u.Email, email) {
			return true
		}
	}
	return false
}

func (repo *userRepository) insertUser(u *models.User) error {
	if repo.emailTaken(u.Email) {
		return apperrors.ErrEmailAlreadyExists
	}

	repo.db.userPK++
	now := repo.db.now()
	u.ID = repo.db.userPK
	u.CreatedAt = now
	u.UpdatedAt = now

	stored := *u
	repo.db.users[u.ID] = &stored
	return nil
}

func (repo *userRepository) CreateStudentAccount(_ context.Context, u *models.User, student *models.Student) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if err := repo.insertUser(u); err != nil {
		return err
	}

	repo.db.profilePK++
	student.ID = repo.db.profilePK
	student.UserID = u.ID
	stored := *student
	stored.User = nil
	repo.db.students[u.ID] = &stored
	return nil
}

func (repo *userRepository) CreateProfessorAccount(_ context.Context, u *models.User, professor *models.Professor) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if err := repo.insertUser(u); err != nil {
		return err
	}

	repo.db.profilePK++
	professor.ID = repo.db.profilePK
	professor.UserID = u.ID
	stored := *professor
	stored.User = nil
	repo.db.professors[u.ID] = &stored
	return nil
}

func (repo *userRepository) GetUserByID(_ context.Context, id int64) (*models.User, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if u, ok := repo.db.users[id]; ok {
		found := *u
		return &found, nil
	}
	return nil, apperrors.ErrUserNotFound
}

func (repo *userRepository) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, u := range repo.db.users {
		if strings.EqualFold(u.Email, email) {
			found := *u
			return &found, nil
		}
	}
	return nil, apperrors.ErrUserNotFound
}

func (repo *userRepository) EmailExists(_ context.Context, email string) (bool, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return repo.emailTaken(email), nil
}

func (repo *userRepository) GetProfessorByUserID(_ context.Context, userID int64) (*models.Professor, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if p, ok := repo.db.professors[userID]; ok {
		found := *p
		return &found, nil
	}
	return nil, apperrors.ErrProfessorNotFound
}

func (repo *userRepository) GetStudentByUserID(_ context.Context, userID int64) (*models.Student, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if s, ok := repo.db.students[userID]; ok {
		found := *s
		return &found, nil
	}
	return nil, apperrors.NewResourceNotFoundError("student not found")
}
