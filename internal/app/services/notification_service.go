package services

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/yigit/appschool/internal/app/auth"
	"github.com/yigit/appschool/internal/app/models"
	"github.com/yigit/appschool/internal/app/models/dto"
	"github.com/yigit/appschool/internal/app/repositories"
	"github.com/yigit/appschool/internal/pkg/apperrors"
	"github.com/yigit/appschool/internal/pkg/events"
	"github.com/yigit/appschool/internal/pkg/validation"
	"github.com/yigit/appschool/internal/pkg/websocket"
)

// NotificationService implements the notification operations on top of the
// authorization gate and the notification store.
type NotificationService struct {
	notificationRepo repositories.INotificationRepository
	userRepo         repositories.IUserRepository
	authz            *auth.AuthorizationService
	cache            FeedCache
	publisher        EventPublisher
	broadcaster      FeedBroadcaster
	cacheTTL         time.Duration
	logger           zerolog.Logger
	now              func() time.Time

	// feedDirty is set while the cached feed may hold removed notifications.
	// The cache is bypassed until a Delete of the feed key succeeds.
	feedDirty atomic.Bool
}

// sideEffectTimeout bounds the cache, broker and hub work that follows a write
const sideEffectTimeout = 3 * time.Second

// NotificationServiceOption customizes a NotificationService
type NotificationServiceOption func(*NotificationService)

// WithClock replaces time.Now, used for expiry checks
func WithClock(now func() time.Time) NotificationServiceOption {
	return func(s *NotificationService) {
		s.now = now
	}
}

// NewNotificationService creates a new NotificationService. cache, publisher
// and broadcaster are optional.
func NewNotificationService(
	notificationRepo repositories.INotificationRepository,
	userRepo repositories.IUserRepository,
	authz *auth.AuthorizationService,
	cache FeedCache,
	publisher EventPublisher,
	broadcaster FeedBroadcaster,
	cacheTTL time.Duration,
	logger zerolog.Logger,
	opts ...NotificationServiceOption,
) *NotificationService {
	s := &NotificationService{
		notificationRepo: notificationRepo,
		userRepo:         userRepo,
		authz:            authz,
		cache:            cache,
		publisher:        publisher,
		broadcaster:      broadcaster,
		cacheTTL:         cacheTTL,
		logger:           logger,
		now:              time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateNotification stores a new active notification owned by the caller
func (s *NotificationService) CreateNotification(ctx context.Context, caller models.Caller, req *dto.CreateNotificationRequest) (*models.Notification, error) {
	if err := s.authz.Authorize(caller, auth.OpCreate); err != nil {
		return nil, err
	}

	if !validation.ValidTitle(req.Title) {
		return nil, apperrors.NewValidationError("title", "title is required and must be at most 200 characters")
	}
	if !validation.ValidMessage(req.Message) {
		return nil, apperrors.NewValidationError("message", "message is required")
	}

	notificationType := req.Type
	if notificationType == "" {
		notificationType = models.DefaultNotificationType
	}
	if !notificationType.Valid() {
		return nil, invalidTypeError()
	}

	if req.ExpiresAt != nil && !req.ExpiresAt.After(s.now()) {
		return nil, apperrors.NewValidationError("expiresAt", "expiresAt must be in the future")
	}

	owner, err := s.requireProfessor(ctx, caller.UserID)
	if err != nil {
		return nil, err
	}

	n := &models.Notification{
		ProfessorID: caller.UserID,
		Title:       strings.TrimSpace(req.Title),
		Message:     strings.TrimSpace(req.Message),
		Type:        notificationType,
		IsActive:    true,
		ExpiresAt:   req.ExpiresAt,
	}
	if err := s.notificationRepo.Create(ctx, n); err != nil {
		return nil, storeError(s.logger, "create notification", err)
	}

	s.logger.Info().
		Int64("notificationID", n.ID).
		Int64("professorID", n.ProfessorID).
		Str("type", string(n.Type)).
		Msg("Notification created")

	s.afterWrite(ctx, events.NotificationCreated, n, owner.Name)
	return n, nil
}

// ListOwnNotifications returns every notification of the calling professor,
// inactive ones included.
func (s *NotificationService) ListOwnNotifications(ctx context.Context, caller models.Caller) ([]*models.Notification, error) {
	if err := s.authz.Authorize(caller, auth.OpListOwn); err != nil {
		return nil, err
	}

	if _, err := s.requireProfessor(ctx, caller.UserID); err != nil {
		return nil, err
	}

	notifications, err := s.notificationRepo.ListByProfessor(ctx, caller.UserID)
	if err != nil {
		return nil, storeError(s.logger, "list own notifications", err)
	}
	return notifications, nil
}

// ListStudentNotifications returns the projected feed of active notifications.
// With unreadOnly set, notifications the student has read are left out.
func (s *NotificationService) ListStudentNotifications(ctx context.Context, caller models.Caller, unreadOnly bool) ([]dto.StudentNotificationView, error) {
	if err := s.authz.Authorize(caller, auth.OpListForStudents); err != nil {
		return nil, err
	}

	if unreadOnly {
		items, err := s.notificationRepo.ListUnreadActiveWithOwner(ctx, caller.UserID)
		if err != nil {
			return nil, storeError(s.logger, "list unread notifications", err)
		}
		return dto.NewStudentNotificationViews(items), nil
	}

	useCache := s.cache != nil && s.feedCacheUsable(ctx)
	if useCache {
		var cached []dto.StudentNotificationView
		if err := s.cache.Get(ctx, studentFeedKey, &cached); err == nil && cached != nil {
			return cached, nil
		}
	}

	items, err := s.notificationRepo.ListActiveWithOwner(ctx)
	if err != nil {
		return nil, storeError(s.logger, "list active notifications", err)
	}
	views := dto.NewStudentNotificationViews(items)

	if useCache {
		if err := s.cache.Set(ctx, studentFeedKey, views, s.cacheTTL); err != nil {
			s.logger.Warn().Err(err).Msg("Failed to cache student feed")
		}
	}
	return views, nil
}

// UpdateNotification applies a partial update to a notification the caller owns
func (s *NotificationService) UpdateNotification(ctx context.Context, caller models.Caller, id int64, req *dto.UpdateNotificationRequest) (*models.Notification, error) {
	current, err := s.authz.AuthorizeMutation(ctx, caller, auth.OpUpdate, id)
	if err != nil {
		return nil, storeError(s.logger, "authorize update", err)
	}

	patch, err := buildPatch(req)
	if err != nil {
		return nil, err
	}

	updated, err := s.notificationRepo.Update(ctx, id, caller.UserID, patch)
	if err != nil {
		return nil, storeError(s.logger, "update notification", s.authz.MapOwnershipError(err))
	}

	if current.IsActive != updated.IsActive {
		s.logger.Info().
			Int64("notificationID", id).
			Bool("isActive", updated.IsActive).
			Msg("Notification visibility changed")
	}

	// nothing a student or subscriber sees has changed
	if patch.IsEmpty() {
		s.logger.Debug().Int64("notificationID", id).Msg("Empty notification patch, skipping side effects")
		return updated, nil
	}

	s.afterWrite(ctx, events.NotificationUpdated, updated, s.ownerName(ctx, caller.UserID))
	return updated, nil
}

// DeleteNotification permanently removes a notification the caller owns
func (s *NotificationService) DeleteNotification(ctx context.Context, caller models.Caller, id int64) error {
	if _, err := s.authz.AuthorizeMutation(ctx, caller, auth.OpDelete, id); err != nil {
		return storeError(s.logger, "authorize delete", err)
	}

	if err := s.notificationRepo.Delete(ctx, id, caller.UserID); err != nil {
		return storeError(s.logger, "delete notification", s.authz.MapOwnershipError(err))
	}

	s.logger.Info().Int64("notificationID", id).Int64("professorID", caller.UserID).Msg("Notification deleted")

	s.afterRemove(ctx, events.NotificationDeleted, id, caller.UserID)
	return nil
}

// MarkAsRead records that the calling student has read an active notification
func (s *NotificationService) MarkAsRead(ctx context.Context, caller models.Caller, id int64) error {
	if err := s.authz.Authorize(caller, auth.OpMarkRead); err != nil {
		return err
	}

	n, err := s.notificationRepo.GetByID(ctx, id)
	if err != nil {
		return storeError(s.logger, "get notification", err)
	}
	// inactive notifications are invisible to students
	if !n.IsActive {
		return apperrors.ErrNotificationNotFound
	}

	if err := s.notificationRepo.MarkAsRead(ctx, id, caller.UserID); err != nil {
		return storeError(s.logger, "mark as read", err)
	}
	return nil
}

// DeactivateExpired switches off every active notification past its expiry
// and returns how many were affected.
func (s *NotificationService) DeactivateExpired(ctx context.Context) (int, error) {
	ids, err := s.notificationRepo.DeactivateExpired(ctx, s.now())
	if err != nil {
		return 0, storeError(s.logger, "deactivate expired", err)
	}

	for _, id := range ids {
		s.afterRemove(ctx, events.NotificationExpired, id, 0)
	}
	return len(ids), nil
}

// requireProfessor loads the caller's user row and professor profile
func (s *NotificationService) requireProfessor(ctx context.Context, userID int64) (*models.User, error) {
	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrResourceNotFound) {
			return nil, apperrors.ErrProfessorNotFound
		}
		return nil, storeError(s.logger, "get user", err)
	}
	if user.RoleType != models.RoleProfessor {
		return nil, apperrors.ErrProfessorNotFound
	}

	if _, err := s.userRepo.GetProfessorByUserID(ctx, userID); err != nil {
		if errors.Is(err, apperrors.ErrResourceNotFound) {
			return nil, apperrors.ErrProfessorNotFound
		}
		return nil, storeError(s.logger, "get professor", err)
	}
	return user, nil
}

func (s *NotificationService) ownerName(ctx context.Context, userID int64) string {
	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		s.logger.Warn().Err(err).Int64("userID", userID).Msg("Failed to load notification owner")
		return ""
	}
	return user.Name
}

// sideEffectContext detaches ctx from the request so a client that went away
// after the commit does not skip the cache invalidation.
func sideEffectContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), sideEffectTimeout)
}

// afterWrite runs the side effects of a create or update. Failures are
// logged only: the write itself already succeeded.
func (s *NotificationService) afterWrite(ctx context.Context, eventType string, n *models.Notification, ownerName string) {
	ctx, cancel := sideEffectContext(ctx)
	defer cancel()

	s.invalidateFeed(ctx)
	s.publish(ctx, events.NewEvent(eventType, n))

	if s.broadcaster == nil {
		return
	}
	if n.IsActive {
		view := dto.NewStudentNotificationView(n, ownerName)
		s.broadcaster.Broadcast(&websocket.Message{
			Type:           websocket.MessageTypePublished,
			NotificationID: n.ID,
			Notification:   view,
		})
		return
	}
	s.broadcaster.Broadcast(&websocket.Message{Type: websocket.MessageTypeRemoved, NotificationID: n.ID})
}

// removedNotification is the event payload of deletions and expiries
type removedNotification struct {
	ID          int64 `json:"id"`
	ProfessorID int64 `json:"professorId,omitempty"`
}

func (s *NotificationService) afterRemove(ctx context.Context, eventType string, id, professorID int64) {
	ctx, cancel := sideEffectContext(ctx)
	defer cancel()

	s.invalidateFeed(ctx)
	s.publish(ctx, events.NewEvent(eventType, removedNotification{ID: id, ProfessorID: professorID}))

	if s.broadcaster != nil {
		s.broadcaster.Broadcast(&websocket.Message{Type: websocket.MessageTypeRemoved, NotificationID: id})
	}
}

func (s *NotificationService) invalidateFeed(ctx context.Context) {
	if s.cache == nil {
		return
	}
	s.feedDirty.Store(true)
	if err := s.cache.Delete(ctx, studentFeedKey); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to invalidate student feed cache, bypassing it until the next successful delete")
		return
	}
	s.feedDirty.Store(false)
}

// feedCacheUsable reports whether the cached feed can be trusted. A pending
// invalidation is retried first.
func (s *NotificationService) feedCacheUsable(ctx context.Context) bool {
	if !s.feedDirty.Load() {
		return true
	}
	if err := s.cache.Delete(ctx, studentFeedKey); err != nil {
		s.logger.Warn().Err(err).Msg("Student feed cache still dirty")
		return false
	}
	s.feedDirty.Store(false)
	return true
}

func (s *NotificationService) publish(ctx context.Context, event events.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn().Err(err).Str("event", event.Type).Msg("Failed to publish notification event")
	}
}

func invalidTypeError() error {
	return apperrors.NewValidationError("type", "type must be one of: lembrete, comunicado, aviso, urgente")
}

// buildPatch validates the provided fields of req and converts them into a patch
func buildPatch(req *dto.UpdateNotificationRequest) (models.NotificationPatch, error) {
	var patch models.NotificationPatch

	if req.Title != nil {
		if !validation.ValidTitle(*req.Title) {
			return patch, apperrors.NewValidationError("title", "title cannot be empty and must be at most 200 characters")
		}
		title := strings.TrimSpace(*req.Title)
		patch.Title = &title
	}
	if req.Message != nil {
		if !validation.ValidMessage(*req.Message) {
			return patch, apperrors.NewValidationError("message", "message cannot be empty")
		}
		message := strings.TrimSpace(*req.Message)
		patch.Message = &message
	}
	if req.Type != nil {
		if !req.Type.Valid() {
			return patch, invalidTypeError()
		}
		t := *req.Type
		patch.Type = &t
	}
	if req.IsActive != nil {
		active := *req.IsActive
		patch.IsActive = &active
	}
	if req.ExpiresAt != nil && req.ClearExpiresAt {
		return patch, apperrors.NewValidationError("expiresAt", "expiresAt cannot be set and cleared in the same update")
	}
	if req.ExpiresAt != nil {
		expires := *req.ExpiresAt
		patch.ExpiresAt = &expires
	}
	patch.ClearExpiresAt = req.ClearExpiresAt

	return patch, nil
}
