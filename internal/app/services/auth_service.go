package services

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"
	"github.com/yigit/appschool/internal/app/models"
	"github.com/yigit/appschool/internal/app/models/dto"
	"github.com/yigit/appschool/internal/app/repositories"
	"github.com/yigit/appschool/internal/pkg/apperrors"
	"github.com/yigit/appschool/internal/pkg/auth"
	"github.com/yigit/appschool/internal/pkg/validation"
)

// AuthService handles registration and login
type AuthService struct {
	userRepo   repositories.IUserRepository
	jwtService *auth.JWTService
	logger     zerolog.Logger
}

// NewAuthService creates a new AuthService
func NewAuthService(userRepo repositories.IUserRepository, jwtService *auth.JWTService, logger zerolog.Logger) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		jwtService: jwtService,
		logger:     logger,
	}
}

func (s *AuthService) validateRegistration(req *dto.RegisterRequest) error {
	if !validation.ValidName(req.Name) {
		return apperrors.NewValidationError("name", "name must be between 2 and 100 characters")
	}
	if !validation.ValidEmail(req.Email) {
		return apperrors.NewValidationError("email", "email format is invalid")
	}
	if !validation.ValidPassword(req.Password) {
		return apperrors.NewValidationError("password", "password must be at least 6 characters long")
	}
	if !req.RoleType.Valid() {
		return apperrors.NewValidationError("roleType", "roleType must be STUDENT or PROFESSOR")
	}
	return nil
}

// Register creates a user with its role profile and logs it in
func (s *AuthService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.AuthResponse, error) {
	if err := s.validateRegistration(req); err != nil {
		return nil, err
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	exists, err := s.userRepo.EmailExists(ctx, email)
	if err != nil {
		return nil, storeError(s.logger, "email exists", err)
	}
	if exists {
		return nil, apperrors.ErrEmailAlreadyExists
	}

	hashed, err := auth.HashPassword(req.Password)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to hash password")
		return nil, apperrors.NewStoreError(err)
	}

	user := &models.User{
		Name:     strings.TrimSpace(req.Name),
		Email:    email,
		Password: hashed,
		RoleType: req.RoleType,
	}

	switch req.RoleType {
	case models.RoleProfessor:
		err = s.userRepo.CreateProfessorAccount(ctx, user, &models.Professor{})
	default:
		err = s.userRepo.CreateStudentAccount(ctx, user, &models.Student{Enrollment: strings.TrimSpace(req.Enrollment)})
	}
	if err != nil {
		return nil, storeError(s.logger, "create account", err)
	}

	s.logger.Info().Int64("userID", user.ID).Str("role", string(user.RoleType)).Msg("User registered")
	return s.authResponse(user)
}

// Login checks the credentials and issues an access token
func (s *AuthService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	user, err := s.userRepo.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if errors.Is(err, apperrors.ErrResourceNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, storeError(s.logger, "get user by email", err)
	}

	if !auth.CheckPassword(user.Password, req.Password) {
		return nil, apperrors.ErrInvalidCredentials
	}

	return s.authResponse(user)
}

func (s *AuthService) authResponse(user *models.User) (*dto.AuthResponse, error) {
	token, expiresIn, err := s.jwtService.GenerateAccessToken(user)
	if err != nil {
		s.logger.Error().Err(err).Int64("userID", user.ID).Msg("Failed to generate access token")
		return nil, err
	}

	return &dto.AuthResponse{
		Token: dto.TokenResponse{
			AccessToken: token,
			TokenType:   "Bearer",
			ExpiresIn:   expiresIn,
		},
		User: dto.NewUserResponse(user),
	}, nil
}
