package seed

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	appModels "github.com/yigit/appschool/internal/app/models"
	appRepos "github.com/yigit/appschool/internal/app/repositories"
	"github.com/yigit/appschool/internal/pkg/auth"
)

// Demo accounts created on an empty database
const (
	DemoProfessorEmail = "professor@appschool.dev"
	DemoStudentEmail   = "aluno@appschool.dev"
	DemoPassword       = "appschool123"
)

// CreateDefaultData creates a demo professor, a demo student and a welcome
// notification if they don't exist. It is safe to run on every start.
func CreateDefaultData(ctx context.Context, repos *appRepos.Repositories, lgr zerolog.Logger) error {
	lgr.Info().Msg("Checking/Creating default data (demo accounts)...")
	var finalErr error

	professor, created, err := ensureUser(ctx, repos.UserRepository, &appModels.User{
		Name:     "Professora Demo",
		Email:    DemoProfessorEmail,
		RoleType: appModels.RoleProfessor,
	}, "")
	if err != nil {
		lgr.Error().Err(err).Msg("Error creating demo professor")
		finalErr = errors.Join(finalErr, err)
	}

	if created {
		welcome := &appModels.Notification{
			ProfessorID: professor.ID,
			Title:       "Bem-vindos ao app-school",
			Message:     "Os avisos dos professores aparecem aqui.",
			Type:        appModels.NotificationTypeAnnouncement,
			IsActive:    true,
		}
		if err := repos.NotificationRepository.Create(ctx, welcome); err != nil {
			lgr.Error().Err(err).Msg("Error creating welcome notification")
			finalErr = errors.Join(finalErr, err)
		}
	}

	if _, _, err := ensureUser(ctx, repos.UserRepository, &appModels.User{
		Name:     "Aluno Demo",
		Email:    DemoStudentEmail,
		RoleType: appModels.RoleStudent,
	}, "2025000"); err != nil {
		lgr.Error().Err(err).Msg("Error creating demo student")
		finalErr = errors.Join(finalErr, err)
	}

	if finalErr == nil {
		lgr.Info().Msg("Default data ready")
	}
	return finalErr
}

// ensureUser returns the user with u.Email, creating it with its role profile
// when missing. created reports whether a new account was inserted.
func ensureUser(ctx context.Context, users appRepos.IUserRepository, u *appModels.User, enrollment string) (*appModels.User, bool, error) {
	exists, err := users.EmailExists(ctx, u.Email)
	if err != nil {
		return nil, false, fmt.Errorf("failed to check %s: %w", u.Email, err)
	}
	if exists {
		existing, err := users.GetUserByEmail(ctx, u.Email)
		return existing, false, err
	}

	hashed, err := auth.HashPassword(DemoPassword)
	if err != nil {
		return nil, false, err
	}
	u.Password = hashed

	if u.RoleType == appModels.RoleProfessor {
		err = users.CreateProfessorAccount(ctx, u, &appModels.Professor{})
	} else {
		err = users.CreateStudentAccount(ctx, u, &appModels.Student{Enrollment: enrollment})
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to create %s: %w", u.Email, err)
	}
	return u, true, nil
}
