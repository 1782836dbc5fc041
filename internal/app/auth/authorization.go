package auth

import (
	"context"
	"errors"

	"github.com/yigit/appschool/internal/app/models"
	"github.com/yigit/appschool/internal/app/repositories"
	"github.com/yigit/appschool/internal/pkg/apperrors"
	"github.com/yigit/appschool/internal/pkg/logger"
)

// Operation names a notification operation guarded by the gate
type Operation string

const (
	OpCreate          Operation = "create"
	OpListOwn         Operation = "listOwn"
	OpListForStudents Operation = "listForStudents"
	OpUpdate          Operation = "update"
	OpDelete          Operation = "delete"
	OpMarkRead        Operation = "markRead"
)

// requiredRoles is the single source of truth for who may call what
var requiredRoles = map[Operation]models.RoleType{
	OpCreate:          models.RoleProfessor,
	OpListOwn:         models.RoleProfessor,
	OpUpdate:          models.RoleProfessor,
	OpDelete:          models.RoleProfessor,
	OpListForStudents: models.RoleStudent,
	OpMarkRead:        models.RoleStudent,
}

// AuthorizationService decides whether a caller may run a notification operation
type AuthorizationService struct {
	notificationRepo     repositories.INotificationRepository
	hideForeignExistence bool
}

// NewAuthorizationService creates a new AuthorizationService. With
// hideForeignExistence set, mutating another professor's notification
// reports NotFound instead of Forbidden.
func NewAuthorizationService(notificationRepo repositories.INotificationRepository, hideForeignExistence bool) *AuthorizationService {
	return &AuthorizationService{
		notificationRepo:     notificationRepo,
		hideForeignExistence: hideForeignExistence,
	}
}

// Authorize checks the caller's role against the operation
func (s *AuthorizationService) Authorize(caller models.Caller, op Operation) error {
	required, known := requiredRoles[op]
	if !known {
		logger.Warn().Str("operation", string(op)).Msg("Authorization requested for unknown operation")
		return apperrors.ErrRoleNotAllowed
	}

	if !caller.Role.Valid() || caller.Role != required {
		logger.Debug().
			Int64("userID", caller.UserID).
			Str("role", string(caller.Role)).
			Str("operation", string(op)).
			Msg("Role not allowed")
		return apperrors.ErrRoleNotAllowed
	}

	return nil
}

// AuthorizeMutation checks the role and then the ownership of notification id.
// It returns the current notification so callers don't load it twice.
func (s *AuthorizationService) AuthorizeMutation(ctx context.Context, caller models.Caller, op Operation, id int64) (*models.Notification, error) {
	if op != OpUpdate && op != OpDelete {
		return nil, apperrors.ErrRoleNotAllowed
	}
	if err := s.Authorize(caller, op); err != nil {
		return nil, err
	}

	n, err := s.notificationRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperrors.ErrResourceNotFound) {
			return nil, apperrors.ErrNotificationNotFound
		}
		return nil, err
	}

	if n.ProfessorID != caller.UserID {
		logger.Warn().
			Int64("userID", caller.UserID).
			Int64("notificationID", id).
			Str("operation", string(op)).
			Msg("Attempt to modify another professor's notification")
		return nil, s.foreignError()
	}

	return n, nil
}

// MapOwnershipError translates an ownership failure reported by the store
// according to the same disclosure setting as the gate.
func (s *AuthorizationService) MapOwnershipError(err error) error {
	if errors.Is(err, apperrors.ErrNotNotificationOwner) {
		return s.foreignError()
	}
	return err
}

func (s *AuthorizationService) foreignError() error {
	if s.hideForeignExistence {
		return apperrors.ErrNotificationNotFound
	}
	return apperrors.ErrNotNotificationOwner
}
