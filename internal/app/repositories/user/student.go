package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yigit/appschool/internal/app/models"
	"github.com/yigit/appschool/internal/pkg/apperrors"
	"github.com/yigit/appschool/internal/pkg/dberrors"
	"github.com/yigit/appschool/internal/pkg/logger"
)

// StudentRepository handles student profile rows
type StudentRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewStudentRepository creates a new StudentRepository
func NewStudentRepository(db *pgxpool.Pool) *StudentRepository {
	return &StudentRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// CreateStudent inserts the student profile through q
func (r *StudentRepository) CreateStudent(ctx context.Context, q Querier, student *models.Student) error {
	sql, args, err := r.sb.Insert("students").
		Columns("user_id", "enrollment").
		Values(student.UserID, student.Enrollment).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create student query: %w", err)
	}

	if err := q.QueryRow(ctx, sql, args...).Scan(&student.ID); err != nil {
		if dberrors.IsDuplicateConstraintError(err, "students_user_id_key") {
			return apperrors.NewCustomError(apperrors.ErrResourceAlreadyExists, "student profile already exists")
		}
		return fmt.Errorf("error creating student: %w", err)
	}

	logger.Debug().Int64("userID", student.UserID).Msg("Student profile created")
	return nil
}

// GetStudentByUserID retrieves a student by user ID
func (r *StudentRepository) GetStudentByUserID(ctx context.Context, userID int64) (*models.Student, error) {
	sql, args, err := r.sb.Select("id", "user_id", "enrollment").
		From("students").
		Where(squirrel.Eq{"user_id": userID}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get student query: %w", err)
	}

	var student models.Student
	err = r.db.QueryRow(ctx, sql, args...).Scan(&student.ID, &student.UserID, &student.Enrollment)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewResourceNotFoundError("student not found")
		}
		return nil, fmt.Errorf("error retrieving student: %w", err)
	}

	return &student, nil
}
