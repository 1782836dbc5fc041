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

// ProfessorRepository handles professor profile rows
type ProfessorRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewProfessorRepository creates a new ProfessorRepository
func NewProfessorRepository(db *pgxpool.Pool) *ProfessorRepository {
	return &ProfessorRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// CreateProfessor inserts the professor profile through q
func (r *ProfessorRepository) CreateProfessor(ctx context.Context, q Querier, professor *models.Professor) error {
	sql, args, err := r.sb.Insert("professors").
		Columns("user_id").
		Values(professor.UserID).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create professor query: %w", err)
	}

	if err := q.QueryRow(ctx, sql, args...).Scan(&professor.ID); err != nil {
		if dberrors.IsDuplicateConstraintError(err, "professors_user_id_key") {
			return apperrors.NewCustomError(apperrors.ErrResourceAlreadyExists, "professor profile already exists")
		}
		return fmt.Errorf("error creating professor: %w", err)
	}

	logger.Debug().Int64("userID", professor.UserID).Msg("Professor profile created")
	return nil
}

// GetProfessorByUserID retrieves a professor by user ID
func (r *ProfessorRepository) GetProfessorByUserID(ctx context.Context, userID int64) (*models.Professor, error) {
	sql, args, err := r.sb.Select("id", "user_id").
		From("professors").
		Where(squirrel.Eq{"user_id": userID}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get professor query: %w", err)
	}

	var professor models.Professor
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&professor.ID, &professor.UserID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrProfessorNotFound
		}
		return nil, fmt.Errorf("error retrieving professor: %w", err)
	}

	return &professor, nil
}
