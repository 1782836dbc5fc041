package services

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/yigit/appschool/internal/app/models"
	"github.com/yigit/appschool/internal/app/models/dto"
	"github.com/yigit/appschool/internal/app/repositories"
)

// UserService serves the caller's own profile
type UserService struct {
	userRepo repositories.IUserRepository
	logger   zerolog.Logger
}

// NewUserService creates a new UserService
func NewUserService(userRepo repositories.IUserRepository, logger zerolog.Logger) *UserService {
	return &UserService{
		userRepo: userRepo,
		logger:   logger,
	}
}

// GetProfile returns the caller's account together with its role profile
func (s *UserService) GetProfile(ctx context.Context, caller models.Caller) (*dto.ProfileResponse, error) {
	user, err := s.userRepo.GetUserByID(ctx, caller.UserID)
	if err != nil {
		return nil, storeError(s.logger, "get user", err)
	}

	var student *models.Student
	switch user.RoleType {
	case models.RoleStudent:
		student, err = s.userRepo.GetStudentByUserID(ctx, user.ID)
	case models.RoleProfessor:
		_, err = s.userRepo.GetProfessorByUserID(ctx, user.ID)
	}
	if err != nil {
		return nil, storeError(s.logger, "get role profile", err)
	}

	profile := dto.NewProfileResponse(user, student)
	return &profile, nil
}
