package memory

import (
	"context"
	"sort"
	"time"

	"github.com/yigit/appschool/internal/app/models"
	"github.com/yigit/appschool/internal/app/repositories"
	"github.com/yigit/appschool/internal/pkg/apperrors"
)

type notificationRepository struct {
	db *DB
}

// NewNotificationRepository creates an in-memory notification store
func NewNotificationRepository(db *DB) repositories.INotificationRepository {
	return &notificationRepository{db: db}
}

// newestFirst orders by creation time descending, then id descending
func newestFirst(a, b *models.Notification) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID > b.ID
}

func copyNotification(n *models.Notification) *models.Notification {
	c := *n
	if n.ExpiresAt != nil {
		t := *n.ExpiresAt
		c.ExpiresAt = &t
	}
	return &c
}

func (repo *notificationRepository) Create(_ context.Context, n *models.Notification) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.users[n.ProfessorID]; !ok {
		return apperrors.ErrProfessorNotFound
	}

	repo.db.notificationPK++
	now := repo.db.now()
	n.ID = repo.db.notificationPK
	n.CreatedAt = now
	n.UpdatedAt = now

	repo.db.notifications[n.ID] = copyNotification(n)
	return nil
}

func (repo *notificationRepository) GetByID(_ context.Context, id int64) (*models.Notification, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if n, ok := repo.db.notifications[id]; ok {
		return copyNotification(n), nil
	}
	return nil, apperrors.ErrNotificationNotFound
}

func (repo *notificationRepository) ListByProfessor(_ context.Context, professorID int64) ([]*models.Notification, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	list := make([]*models.Notification, 0)
	for _, n := range repo.db.notifications {
		if n.ProfessorID == professorID {
			list = append(list, copyNotification(n))
		}
	}
	sort.Slice(list, func(i, j int) bool { return newestFirst(list[i], list[j]) })
	return list, nil
}

func (repo *notificationRepository) activeWithOwner(keep func(*models.Notification) bool) []*models.NotificationWithOwner {
	active := make([]*models.Notification, 0)
	for _, n := range repo.db.notifications {
		if n.IsActive && keep(n) {
			active = append(active, n)
		}
	}
	sort.Slice(active, func(i, j int) bool { return newestFirst(active[i], active[j]) })

	items := make([]*models.NotificationWithOwner, 0, len(active))
	for _, n := range active {
		owner, ok := repo.db.users[n.ProfessorID]
		if !ok {
			// inner join semantics
			continue
		}
		items = append(items, &models.NotificationWithOwner{
			Notification: *copyNotification(n),
			OwnerName:    owner.Name,
		})
	}
	return items
}

func (repo *notificationRepository) ListActiveWithOwner(_ context.Context) ([]*models.NotificationWithOwner, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	return repo.activeWithOwner(func(*models.Notification) bool { return true }), nil
}

func (repo *notificationRepository) ListUnreadActiveWithOwner(_ context.Context, studentID int64) ([]*models.NotificationWithOwner, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	return repo.activeWithOwner(func(n *models.Notification) bool {
		_, read := repo.db.reads[readKey{notificationID: n.ID, studentID: studentID}]
		return !read
	}), nil
}

// ownedLocked returns the stored notification if callerID owns it. Caller holds the lock.
func (repo *notificationRepository) ownedLocked(id, callerID int64) (*models.Notification, error) {
	n, ok := repo.db.notifications[id]
	if !ok {
		return nil, apperrors.ErrNotificationNotFound
	}
	if n.ProfessorID != callerID {
		return nil, apperrors.ErrNotNotificationOwner
	}
	return n, nil
}

func (repo *notificationRepository) Update(_ context.Context, id, callerID int64, patch models.NotificationPatch) (*models.Notification, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	n, err := repo.ownedLocked(id, callerID)
	if err != nil {
		return nil, err
	}

	patch.Apply(n)
	n.UpdatedAt = repo.db.now()
	return copyNotification(n), nil
}

func (repo *notificationRepository) Delete(_ context.Context, id, callerID int64) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, err := repo.ownedLocked(id, callerID); err != nil {
		return err
	}

	delete(repo.db.notifications, id)
	for key := range repo.db.reads {
		if key.notificationID == id {
			delete(repo.db.reads, key)
		}
	}
	return nil
}

func (repo *notificationRepository) MarkAsRead(_ context.Context, notificationID, studentID int64) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.notifications[notificationID]; !ok {
		return apperrors.ErrNotificationNotFound
	}

	key := readKey{notificationID: notificationID, studentID: studentID}
	if _, exists := repo.db.reads[key]; !exists {
		repo.db.reads[key] = repo.db.now()
	}
	return nil
}

func (repo *notificationRepository) DeactivateExpired(_ context.Context, now time.Time) ([]int64, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	ids := make([]int64, 0)
	for id, n := range repo.db.notifications {
		if n.IsActive && n.ExpiresAt != nil && n.ExpiresAt.Before(now) {
			n.IsActive = false
			n.UpdatedAt = repo.db.now()
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}
