package models

// RoleType defines the user role type
type RoleType string

const (
	RoleStudent   RoleType = "STUDENT"
	RoleProfessor RoleType = "PROFESSOR"
)

// Valid reports whether r is one of the known roles
func (r RoleType) Valid() bool {
	return r == RoleStudent || r == RoleProfessor
}

// Caller is the authenticated identity attached to a request
type Caller struct {
	UserID int64
	Role   RoleType
}
