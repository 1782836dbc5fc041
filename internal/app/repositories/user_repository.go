package repositories

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/yigit/appschool/internal/app/models"
	"github.com/yigit/appschool/internal/app/repositories/user"
	"github.com/yigit/appschool/internal/db"
)

// UserRepository combines all user-related repositories
type UserRepository struct {
	database  *db.PostgresDB
	common    *user.Repository
	student   *user.StudentRepository
	professor *user.ProfessorRepository
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(database *db.PostgresDB) *UserRepository {
	return &UserRepository{
		database:  database,
		common:    user.NewRepository(database.Pool),
		student:   user.NewStudentRepository(database.Pool),
		professor: user.NewProfessorRepository(database.Pool),
	}
}

// CreateStudentAccount creates the user row and the student profile in one transaction
func (r *UserRepository) CreateStudentAccount(ctx context.Context, u *models.User, student *models.Student) error {
	return r.database.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		if err := r.common.CreateUser(ctx, tx, u); err != nil {
			return err
		}
		student.UserID = u.ID
		return r.student.CreateStudent(ctx, tx, student)
	})
}

// CreateProfessorAccount creates the user row and the professor profile in one transaction
func (r *UserRepository) CreateProfessorAccount(ctx context.Context, u *models.User, professor *models.Professor) error {
	return r.database.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		if err := r.common.CreateUser(ctx, tx, u); err != nil {
			return err
		}
		professor.UserID = u.ID
		return r.professor.CreateProfessor(ctx, tx, professor)
	})
}

// GetUserByID retrieves a user by ID
func (r *UserRepository) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	return r.common.GetUserByID(ctx, id)
}

// GetUserByEmail retrieves a user by email
func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.common.GetUserByEmail(ctx, email)
}

// EmailExists checks if an email already exists
func (r *UserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	return r.common.EmailExists(ctx, email)
}

// GetProfessorByUserID retrieves a professor by user ID
func (r *UserRepository) GetProfessorByUserID(ctx context.Context, userID int64) (*models.Professor, error) {
	return r.professor.GetProfessorByUserID(ctx, userID)
}

// GetStudentByUserID retrieves a student by user ID
func (r *UserRepository) GetStudentByUserID(ctx context.Context, userID int64) (*models.Student, error) {
	return r.student.GetStudentByUserID(ctx, userID)
}
