package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/yigit/appschool/internal/app/models"
	"github.com/yigit/appschool/internal/app/repositories/memory"
	"github.com/yigit/appschool/internal/pkg/apperrors"
)

func TestAuthorize_RoleMatrix(t *testing.T) {
	gate := NewAuthorizationService(nil, false)
	professor := models.Caller{UserID: 1, Role: models.RoleProfessor}
	student := models.Caller{UserID: 2, Role: models.RoleStudent}
	stranger := models.Caller{UserID: 3, Role: "ADMIN"}

	tests := []struct {
		op          Operation
		professorOK bool
		studentOK   bool
	}{
		{OpCreate, true, false},
		{OpListOwn, true, false},
		{OpUpdate, true, false},
		{OpDelete, true, false},
		{OpListForStudents, false, true},
		{OpMarkRead, false, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.op), func(t *testing.T) {
			if err := gate.Authorize(professor, tt.op); (err == nil) != tt.professorOK {
				t.Errorf("professor: Authorize() error = %v, want allowed=%v", err, tt.professorOK)
			}
			if err := gate.Authorize(student, tt.op); (err == nil) != tt.studentOK {
				t.Errorf("student: Authorize() error = %v, want allowed=%v", err, tt.studentOK)
			}
			if err := gate.Authorize(stranger, tt.op); !errors.Is(err, apperrors.ErrPermissionDenied) {
				t.Errorf("unknown role: Authorize() error = %v, want permission denied", err)
			}
		})
	}

	if err := gate.Authorize(professor, Operation("publish")); !errors.Is(err, apperrors.ErrPermissionDenied) {
		t.Errorf("unknown operation error = %v", err)
	}
}

func setupGateStore(t *testing.T) (*memory.DB, int64, int64, int64) {
	t.Helper()
	db := memory.NewDB()
	users := memory.NewUserRepository(db)
	ctx := context.Background()

	owner := &models.User{Name: "Ana", Email: "ana@escola.com", RoleType: models.RoleProfessor}
	other := &models.User{Name: "Carla", Email: "carla@escola.com", RoleType: models.RoleProfessor}
	for _, u := range []*models.User{owner, other} {
		if err := users.CreateProfessorAccount(ctx, u, &models.Professor{}); err != nil {
			t.Fatalf("CreateProfessorAccount() error = %v", err)
		}
	}

	n := &models.Notification{ProfessorID: owner.ID, Title: "t", Message: "m", Type: models.NotificationTypeNotice, IsActive: true}
	if err := memory.NewNotificationRepository(db).Create(ctx, n); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	return db, owner.ID, other.ID, n.ID
}

func TestAuthorizeMutation(t *testing.T) {
	db, ownerID, otherID, id := setupGateStore(t)
	repo := memory.NewNotificationRepository(db)
	ctx := context.Background()

	t.Run("owner", func(t *testing.T) {
		gate := NewAuthorizationService(repo, false)
		n, err := gate.AuthorizeMutation(ctx, models.Caller{UserID: ownerID, Role: models.RoleProfessor}, OpUpdate, id)
		if err != nil || n.ID != id {
			t.Fatalf("AuthorizeMutation() = %v, %v", n, err)
		}
	})

	t.Run("foreign is forbidden by default", func(t *testing.T) {
		gate := NewAuthorizationService(repo, false)
		_, err := gate.AuthorizeMutation(ctx, models.Caller{UserID: otherID, Role: models.RoleProfessor}, OpDelete, id)
		if !errors.Is(err, apperrors.ErrPermissionDenied) {
			t.Errorf("error = %v, want permission denied", err)
		}
	})

	t.Run("foreign is hidden when configured", func(t *testing.T) {
		gate := NewAuthorizationService(repo, true)
		_, err := gate.AuthorizeMutation(ctx, models.Caller{UserID: otherID, Role: models.RoleProfessor}, OpUpdate, id)
		if !errors.Is(err, apperrors.ErrResourceNotFound) {
			t.Errorf("error = %v, want not found", err)
		}
		if mapped := gate.MapOwnershipError(apperrors.ErrNotNotificationOwner); !errors.Is(mapped, apperrors.ErrResourceNotFound) {
			t.Errorf("MapOwnershipError() = %v, want not found", mapped)
		}
	})

	t.Run("missing", func(t *testing.T) {
		gate := NewAuthorizationService(repo, false)
		_, err := gate.AuthorizeMutation(ctx, models.Caller{UserID: ownerID, Role: models.RoleProfessor}, OpUpdate, 999)
		if !errors.Is(err, apperrors.ErrNotificationNotFound) {
			t.Errorf("error = %v, want ErrNotificationNotFound", err)
		}
	})

	t.Run("student cannot mutate", func(t *testing.T) {
		gate := NewAuthorizationService(repo, false)
		_, err := gate.AuthorizeMutation(ctx, models.Caller{UserID: ownerID, Role: models.RoleStudent}, OpUpdate, id)
		if !errors.Is(err, apperrors.ErrPermissionDenied) {
			t.Errorf("error = %v, want permission denied", err)
		}
	})

	t.Run("non mutation operation", func(t *testing.T) {
		gate := NewAuthorizationService(repo, false)
		_, err := gate.AuthorizeMutation(ctx, models.Caller{UserID: ownerID, Role: models.RoleProfessor}, OpCreate, id)
		if !errors.Is(err, apperrors.ErrPermissionDenied) {
			t.Errorf("error = %v, want permission denied", err)
		}
	})
}
