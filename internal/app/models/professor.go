package models

// Professor defines the professor profile based on the 'professors' table
type Professor struct {
	ID     int64 `json:"id" db:"id"`
	UserID int64 `json:"userId" db:"user_id"`

	User *User `json:"user,omitempty"`
}
