package dto

import (
	"time"

	"github.com/yigit/appschool/internal/app/models"
)

// ProfileResponse is the authenticated user's own profile
type ProfileResponse struct {
	UserResponse
	// Enrollment is only set for students
	Enrollment string    `json:"enrollment,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// NewProfileResponse builds a profile from the user row and its student profile, if any
func NewProfileResponse(u *models.User, student *models.Student) ProfileResponse {
	profile := ProfileResponse{
		UserResponse: NewUserResponse(u),
		CreatedAt:    u.CreatedAt,
	}
	if student != nil {
		profile.Enrollment = student.Enrollment
	}
	return profile
}
