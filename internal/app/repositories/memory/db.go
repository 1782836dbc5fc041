// Package memory keeps the identity and notification stores in process memory.
// It backs the "memory" storage driver and the service and HTTP tests.
package memory

import (
	"sync"
	"time"

	"github.com/yigit/appschool/internal/app/models"
)

type readKey struct {
	notificationID int64
	studentID      int64
}

// DB is the shared in-memory state. A single lock covers every table so joins
// (notification + owner name) see a consistent snapshot.
type DB struct {
	mutex sync.RWMutex
	now   func() time.Time

	userPK         int64
	profilePK      int64
	notificationPK int64

	users         map[int64]*models.User
	professors    map[int64]*models.Professor // keyed by user id
	students      map[int64]*models.Student   // keyed by user id
	notifications map[int64]*models.Notification
	reads         map[readKey]time.Time
}

// Option configures a DB
type Option func(*DB)

// WithClock replaces time.Now for generated timestamps
func WithClock(now func() time.Time) Option {
	return func(db *DB) {
		db.now = now
	}
}

// NewDB creates an empty in-memory database
func NewDB(opts ...Option) *DB {
	db := &DB{
		now:           time.Now,
		users:         make(map[int64]*models.User),
		professors:    make(map[int64]*models.Professor),
		students:      make(map[int64]*models.Student),
		notifications: make(map[int64]*models.Notification),
		reads:         make(map[readKey]time.Time),
	}
	for _, opt := range opts {
		opt(db)
	}
	return db
}
