package models

// Student defines the student profile based on the 'students' table
type Student struct {
	ID         int64  `json:"id" db:"id"`
	UserID     int64  `json:"userId" db:"user_id"`
	Enrollment string `json:"enrollment" db:"enrollment"` // school registration number, optional

	User *User `json:"user,omitempty"`
}
