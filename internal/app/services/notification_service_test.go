package services

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/yigit/appschool/internal/app/auth"
	"github.com/yigit/appschool/internal/app/models"
	"github.com/yigit/appschool/internal/app/models/dto"
	"github.com/yigit/appschool/internal/app/repositories/memory"
	"github.com/yigit/appschool/internal/pkg/apperrors"
	"github.com/yigit/appschool/internal/pkg/cache"
	"github.com/yigit/appschool/internal/pkg/events"
	"github.com/yigit/appschool/internal/pkg/websocket"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type recordingBroadcaster struct {
	messages []*websocket.Message
}

func (b *recordingBroadcaster) Broadcast(message *websocket.Message) {
	b.messages = append(b.messages, message)
}

func (b *recordingBroadcaster) last() *websocket.Message {
	if len(b.messages) == 0 {
		return nil
	}
	return b.messages[len(b.messages)-1]
}

type serviceFixture struct {
	svc         *NotificationService
	clock       *testClock
	publisher   *recordingPublisher
	broadcaster *recordingBroadcaster
	redis       *miniredis.Miniredis
	ana         models.Caller
	carla       models.Caller
	student     models.Caller
}

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func newServiceFixture(t *testing.T, hideForeignExistence bool) *serviceFixture {
	t.Helper()
	ctx := context.Background()
	clock := &testClock{t: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)}

	db := memory.NewDB(memory.WithClock(clock.now))
	repos := memory.NewRepositories(db)

	ana := &models.User{Name: "Ana Souza", Email: "ana@escola.com", RoleType: models.RoleProfessor}
	carla := &models.User{Name: "Carla Lima", Email: "carla@escola.com", RoleType: models.RoleProfessor}
	for _, u := range []*models.User{ana, carla} {
		if err := repos.UserRepository.CreateProfessorAccount(ctx, u, &models.Professor{}); err != nil {
			t.Fatalf("CreateProfessorAccount() error = %v", err)
		}
	}
	student := &models.User{Name: "Bia Santos", Email: "bia@escola.com", RoleType: models.RoleStudent}
	if err := repos.UserRepository.CreateStudentAccount(ctx, student, &models.Student{Enrollment: "2025001"}); err != nil {
		t.Fatalf("CreateStudentAccount() error = %v", err)
	}

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	publisher := &recordingPublisher{}
	broadcaster := &recordingBroadcaster{}
	gate := auth.NewAuthorizationService(repos.NotificationRepository, hideForeignExistence)

	svc := NewNotificationService(
		repos.NotificationRepository,
		repos.UserRepository,
		gate,
		cache.New(client, "test:"),
		publisher,
		broadcaster,
		time.Minute,
		zerolog.Nop(),
		WithClock(clock.now),
	)

	return &serviceFixture{
		svc:         svc,
		clock:       clock,
		publisher:   publisher,
		broadcaster: broadcaster,
		redis:       mr,
		ana:         models.Caller{UserID: ana.ID, Role: models.RoleProfessor},
		carla:       models.Caller{UserID: carla.ID, Role: models.RoleProfessor},
		student:     models.Caller{UserID: student.ID, Role: models.RoleStudent},
	}
}

func (f *serviceFixture) create(t *testing.T, caller models.Caller, title string) *models.Notification {
	t.Helper()
	n, err := f.svc.CreateNotification(context.Background(), caller, &dto.CreateNotificationRequest{
		Title:   title,
		Message: title + " details",
	})
	if err != nil {
		t.Fatalf("CreateNotification() error = %v", err)
	}
	return n
}

func boolPtr(b bool) *bool { return &b }

func strPtr(s string) *string { return &s }

func typePtr(t models.NotificationType) *models.NotificationType { return &t }

func TestNotificationService_Scenario(t *testing.T) {
	f := newServiceFixture(t, false)
	ctx := context.Background()

	n, err := f.svc.CreateNotification(ctx, f.ana, &dto.CreateNotificationRequest{
		Title:   "Prova amanhã",
		Message: "Estudem capítulo 3",
		Type:    models.NotificationTypeUrgent,
	})
	if err != nil {
		t.Fatalf("CreateNotification() error = %v", err)
	}
	if !n.IsActive || n.Type != models.NotificationTypeUrgent || n.ProfessorID != f.ana.UserID {
		t.Fatalf("created notification = %+v", n)
	}

	feed, err := f.svc.ListStudentNotifications(ctx, f.student, false)
	if err != nil {
		t.Fatalf("ListStudentNotifications() error = %v", err)
	}
	if len(feed) != 1 || feed[0].ProfessorName != "Ana Souza" || feed[0].Title != "Prova amanhã" {
		t.Fatalf("student feed = %+v", feed)
	}

	raw, err := json.Marshal(feed[0])
	if err != nil {
		t.Fatalf("json.Marshal() error = %v", err)
	}
	var fields map[string]interface{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		t.Fatalf("json.Unmarshal() error = %v", err)
	}
	for _, hidden := range []string{"professorId", "isActive", "expiresAt"} {
		if _, ok := fields[hidden]; ok {
			t.Errorf("student view exposes %q", hidden)
		}
	}

	_, err = f.svc.UpdateNotification(ctx, f.carla, n.ID, &dto.UpdateNotificationRequest{IsActive: boolPtr(false)})
	if !errors.Is(err, apperrors.ErrPermissionDenied) {
		t.Fatalf("non-owner UpdateNotification() error = %v, want permission denied", err)
	}

	if _, err := f.svc.UpdateNotification(ctx, f.ana, n.ID, &dto.UpdateNotificationRequest{IsActive: boolPtr(false)}); err != nil {
		t.Fatalf("owner UpdateNotification() error = %v", err)
	}

	feed, err = f.svc.ListStudentNotifications(ctx, f.student, false)
	if err != nil {
		t.Fatalf("ListStudentNotifications() error = %v", err)
	}
	if len(feed) != 0 {
		t.Errorf("student feed after deactivation = %+v, want empty", feed)
	}

	own, err := f.svc.ListOwnNotifications(ctx, f.ana)
	if err != nil {
		t.Fatalf("ListOwnNotifications() error = %v", err)
	}
	if len(own) != 1 || own[0].IsActive {
		t.Errorf("own list = %+v, want the inactive notification", own)
	}
}

func TestNotificationService_CreateValidation(t *testing.T) {
	f := newServiceFixture(t, false)
	ctx := context.Background()
	past := f.clock.now().Add(-time.Hour)

	tests := []struct {
		name string
		req  dto.CreateNotificationRequest
	}{
		{"blank title", dto.CreateNotificationRequest{Title: "   ", Message: "body"}},
		{"blank message", dto.CreateNotificationRequest{Title: "title", Message: "\n\t"}},
		{"unknown type", dto.CreateNotificationRequest{Title: "title", Message: "body", Type: "info"}},
		{"past expiry", dto.CreateNotificationRequest{Title: "title", Message: "body", ExpiresAt: &past}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.req
			if _, err := f.svc.CreateNotification(ctx, f.ana, &req); !errors.Is(err, apperrors.ErrValidationFailed) {
				t.Errorf("CreateNotification() error = %v, want validation error", err)
			}
		})
	}

	n := f.create(t, f.ana, "  Reunião  ")
	if n.Type != models.DefaultNotificationType {
		t.Errorf("Type = %q, want default %q", n.Type, models.DefaultNotificationType)
	}
	if n.Title != "Reunião" {
		t.Errorf("Title = %q, want trimmed", n.Title)
	}
}

func TestNotificationService_RoleChecks(t *testing.T) {
	f := newServiceFixture(t, false)
	ctx := context.Background()

	if _, err := f.svc.CreateNotification(ctx, f.student, &dto.CreateNotificationRequest{Title: "t", Message: "m"}); !errors.Is(err, apperrors.ErrPermissionDenied) {
		t.Errorf("student CreateNotification() error = %v", err)
	}
	if _, err := f.svc.ListOwnNotifications(ctx, f.student); !errors.Is(err, apperrors.ErrPermissionDenied) {
		t.Errorf("student ListOwnNotifications() error = %v", err)
	}
	if _, err := f.svc.ListStudentNotifications(ctx, f.ana, false); !errors.Is(err, apperrors.ErrPermissionDenied) {
		t.Errorf("professor ListStudentNotifications() error = %v", err)
	}

	// professor role in the token without a matching account
	ghost := models.Caller{UserID: 999, Role: models.RoleProfessor}
	if _, err := f.svc.CreateNotification(ctx, ghost, &dto.CreateNotificationRequest{Title: "t", Message: "m"}); !errors.Is(err, apperrors.ErrProfessorNotFound) {
		t.Errorf("unknown professor CreateNotification() error = %v", err)
	}
}

func TestNotificationService_NonOwnerUpdateLeavesNotificationUnchanged(t *testing.T) {
	f := newServiceFixture(t, false)
	ctx := context.Background()
	n := f.create(t, f.ana, "Original")

	_, err := f.svc.UpdateNotification(ctx, f.carla, n.ID, &dto.UpdateNotificationRequest{Title: strPtr("Hijacked")})
	if !errors.Is(err, apperrors.ErrPermissionDenied) {
		t.Fatalf("UpdateNotification() error = %v, want permission denied", err)
	}
	if err := f.svc.DeleteNotification(ctx, f.carla, n.ID); !errors.Is(err, apperrors.ErrPermissionDenied) {
		t.Fatalf("DeleteNotification() error = %v, want permission denied", err)
	}

	own, err := f.svc.ListOwnNotifications(ctx, f.ana)
	if err != nil {
		t.Fatalf("ListOwnNotifications() error = %v", err)
	}
	if len(own) != 1 || own[0].Title != "Original" {
		t.Errorf("notification changed by non-owner: %+v", own)
	}
}

func TestNotificationService_HideForeignExistence(t *testing.T) {
	f := newServiceFixture(t, true)
	ctx := context.Background()
	n := f.create(t, f.ana, "Private")

	_, err := f.svc.UpdateNotification(ctx, f.carla, n.ID, &dto.UpdateNotificationRequest{IsActive: boolPtr(false)})
	if !errors.Is(err, apperrors.ErrResourceNotFound) {
		t.Errorf("UpdateNotification() error = %v, want not found", err)
	}
}

func TestNotificationService_DeleteThenUpdate(t *testing.T) {
	f := newServiceFixture(t, false)
	ctx := context.Background()
	n := f.create(t, f.ana, "Temporary")

	if err := f.svc.DeleteNotification(ctx, f.ana, n.ID); err != nil {
		t.Fatalf("DeleteNotification() error = %v", err)
	}
	_, err := f.svc.UpdateNotification(ctx, f.ana, n.ID, &dto.UpdateNotificationRequest{Title: strPtr("again")})
	if !errors.Is(err, apperrors.ErrResourceNotFound) {
		t.Errorf("UpdateNotification() after delete error = %v, want not found", err)
	}
	if err := f.svc.DeleteNotification(ctx, f.ana, n.ID); !errors.Is(err, apperrors.ErrResourceNotFound) {
		t.Errorf("second DeleteNotification() error = %v, want not found", err)
	}

	if got := f.broadcaster.last(); got == nil || got.Type != websocket.MessageTypeRemoved || got.NotificationID != n.ID {
		t.Errorf("last broadcast = %+v, want removal of %d", got, n.ID)
	}
}

func TestNotificationService_DeactivateIsIdempotent(t *testing.T) {
	f := newServiceFixture(t, false)
	ctx := context.Background()
	n := f.create(t, f.ana, "Twice")

	for i := 0; i < 2; i++ {
		updated, err := f.svc.UpdateNotification(ctx, f.ana, n.ID, &dto.UpdateNotificationRequest{IsActive: boolPtr(false)})
		if err != nil {
			t.Fatalf("UpdateNotification() #%d error = %v", i+1, err)
		}
		if updated.IsActive {
			t.Fatalf("UpdateNotification() #%d left the notification active", i+1)
		}
	}

	feed, err := f.svc.ListStudentNotifications(ctx, f.student, false)
	if err != nil {
		t.Fatalf("ListStudentNotifications() error = %v", err)
	}
	if len(feed) != 0 {
		t.Errorf("student feed = %+v, want empty", feed)
	}
}

func TestNotificationService_PartialUpdate(t *testing.T) {
	f := newServiceFixture(t, false)
	ctx := context.Background()
	n := f.create(t, f.ana, "Aula")

	updated, err := f.svc.UpdateNotification(ctx, f.ana, n.ID, &dto.UpdateNotificationRequest{
		Type: typePtr(models.NotificationTypeReminder),
	})
	if err != nil {
		t.Fatalf("UpdateNotification() error = %v", err)
	}
	if updated.Type != models.NotificationTypeReminder || updated.Title != "Aula" || updated.Message != "Aula details" {
		t.Errorf("updated = %+v", updated)
	}

	invalid := []*dto.UpdateNotificationRequest{
		{Title: strPtr("  ")},
		{Message: strPtr("")},
		{Type: typePtr("info")},
		{Title: strPtr("ok"), Message: strPtr(" ")},
	}
	for i, req := range invalid {
		if _, err := f.svc.UpdateNotification(ctx, f.ana, n.ID, req); !errors.Is(err, apperrors.ErrValidationFailed) {
			t.Errorf("invalid patch #%d error = %v, want validation error", i, err)
		}
	}

	own, err := f.svc.ListOwnNotifications(ctx, f.ana)
	if err != nil {
		t.Fatalf("ListOwnNotifications() error = %v", err)
	}
	if own[0].Title != "Aula" {
		t.Errorf("rejected patch was partially applied: %+v", own[0])
	}
}

func TestNotificationService_FeedCacheInvalidation(t *testing.T) {
	f := newServiceFixture(t, false)
	ctx := context.Background()
	f.create(t, f.ana, "Primeira")

	if _, err := f.svc.ListStudentNotifications(ctx, f.student, false); err != nil {
		t.Fatalf("ListStudentNotifications() error = %v", err)
	}
	if !f.redis.Exists("test:" + studentFeedKey) {
		t.Fatal("student feed was not cached")
	}

	second := f.create(t, f.carla, "Segunda")
	if f.redis.Exists("test:" + studentFeedKey) {
		t.Fatal("student feed still cached after create")
	}

	feed, err := f.svc.ListStudentNotifications(ctx, f.student, false)
	if err != nil {
		t.Fatalf("ListStudentNotifications() error = %v", err)
	}
	if len(feed) != 2 {
		t.Fatalf("feed length = %d, want 2", len(feed))
	}

	if err := f.svc.DeleteNotification(ctx, f.carla, second.ID); err != nil {
		t.Fatalf("DeleteNotification() error = %v", err)
	}
	if f.redis.Exists("test:" + studentFeedKey) {
		t.Error("student feed still cached after delete")
	}

	want := []string{events.NotificationCreated, events.NotificationCreated, events.NotificationDeleted}
	got := f.publisher.types()
	if len(got) != len(want) {
		t.Fatalf("published events = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestNotificationService_MarkAsRead(t *testing.T) {
	f := newServiceFixture(t, false)
	ctx := context.Background()
	first := f.create(t, f.ana, "Lida")
	f.clock.advance(time.Second)
	second := f.create(t, f.ana, "Nova")

	if err := f.svc.MarkAsRead(ctx, f.student, first.ID); err != nil {
		t.Fatalf("MarkAsRead() error = %v", err)
	}
	// repeated reads are no-ops
	if err := f.svc.MarkAsRead(ctx, f.student, first.ID); err != nil {
		t.Fatalf("second MarkAsRead() error = %v", err)
	}

	unread, err := f.svc.ListStudentNotifications(ctx, f.student, true)
	if err != nil {
		t.Fatalf("ListStudentNotifications(unread) error = %v", err)
	}
	if len(unread) != 1 || unread[0].ID != second.ID {
		t.Errorf("unread feed = %+v, want only %d", unread, second.ID)
	}

	if err := f.svc.MarkAsRead(ctx, f.ana, second.ID); !errors.Is(err, apperrors.ErrPermissionDenied) {
		t.Errorf("professor MarkAsRead() error = %v", err)
	}
	if err := f.svc.MarkAsRead(ctx, f.student, 4242); !errors.Is(err, apperrors.ErrResourceNotFound) {
		t.Errorf("missing MarkAsRead() error = %v", err)
	}

	if _, err := f.svc.UpdateNotification(ctx, f.ana, second.ID, &dto.UpdateNotificationRequest{IsActive: boolPtr(false)}); err != nil {
		t.Fatalf("UpdateNotification() error = %v", err)
	}
	if err := f.svc.MarkAsRead(ctx, f.student, second.ID); !errors.Is(err, apperrors.ErrResourceNotFound) {
		t.Errorf("inactive MarkAsRead() error = %v, want not found", err)
	}
}

func TestNotificationService_Broadcasts(t *testing.T) {
	f := newServiceFixture(t, false)
	ctx := context.Background()
	n := f.create(t, f.ana, "Ao vivo")

	msg := f.broadcaster.last()
	if msg == nil || msg.Type != websocket.MessageTypePublished {
		t.Fatalf("broadcast after create = %+v", msg)
	}
	view, ok := msg.Notification.(dto.StudentNotificationView)
	if !ok || view.ProfessorName != "Ana Souza" || view.ID != n.ID {
		t.Errorf("broadcast payload = %#v", msg.Notification)
	}

	if _, err := f.svc.UpdateNotification(ctx, f.ana, n.ID, &dto.UpdateNotificationRequest{IsActive: boolPtr(false)}); err != nil {
		t.Fatalf("UpdateNotification() error = %v", err)
	}
	if msg := f.broadcaster.last(); msg.Type != websocket.MessageTypeRemoved {
		t.Errorf("broadcast after deactivation = %+v", msg)
	}
}

func TestNotificationService_FailedInvalidationBypassesCache(t *testing.T) {
	f := newServiceFixture(t, false)
	ctx := context.Background()
	n := f.create(t, f.ana, "Prova")

	if _, err := f.svc.ListStudentNotifications(ctx, f.student, false); err != nil {
		t.Fatalf("ListStudentNotifications() error = %v", err)
	}

	f.redis.SetError("ERR cache unavailable")
	if _, err := f.svc.UpdateNotification(ctx, f.ana, n.ID, &dto.UpdateNotificationRequest{IsActive: boolPtr(false)}); err != nil {
		t.Fatalf("UpdateNotification() error = %v", err)
	}

	// the cache is still down, the feed must come from the store
	feed, err := f.svc.ListStudentNotifications(ctx, f.student, false)
	if err != nil {
		t.Fatalf("ListStudentNotifications() error = %v", err)
	}
	if len(feed) != 0 {
		t.Errorf("feed while cache is down = %+v, want empty", feed)
	}

	f.redis.SetError("")
	feed, err = f.svc.ListStudentNotifications(ctx, f.student, false)
	if err != nil {
		t.Fatalf("ListStudentNotifications() error = %v", err)
	}
	if len(feed) != 0 {
		t.Errorf("feed after cache recovery = %+v, want empty", feed)
	}
	if f.svc.feedDirty.Load() {
		t.Error("feed still marked dirty after a successful delete")
	}
}

func TestNotificationService_CancelledRequestStillInvalidates(t *testing.T) {
	f := newServiceFixture(t, false)
	n := f.create(t, f.ana, "Aula cancelada")

	if _, err := f.svc.ListStudentNotifications(context.Background(), f.student, false); err != nil {
		t.Fatalf("ListStudentNotifications() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := f.svc.UpdateNotification(ctx, f.ana, n.ID, &dto.UpdateNotificationRequest{IsActive: boolPtr(false)}); err != nil {
		t.Fatalf("UpdateNotification() error = %v", err)
	}
	if f.redis.Exists("test:" + studentFeedKey) {
		t.Fatal("student feed still cached after an update with a cancelled context")
	}

	feed, err := f.svc.ListStudentNotifications(context.Background(), f.student, false)
	if err != nil {
		t.Fatalf("ListStudentNotifications() error = %v", err)
	}
	for _, item := range feed {
		if item.ID == n.ID {
			t.Errorf("feed = %+v, still shows deactivated notification %d", feed, n.ID)
		}
	}
}

func TestNotificationService_ClearExpiry(t *testing.T) {
	f := newServiceFixture(t, false)
	ctx := context.Background()
	expires := f.clock.now().Add(time.Hour)

	n, err := f.svc.CreateNotification(ctx, f.ana, &dto.CreateNotificationRequest{
		Title:     "Inscrições",
		Message:   "Até o fim do dia",
		ExpiresAt: &expires,
	})
	if err != nil {
		t.Fatalf("CreateNotification() error = %v", err)
	}

	_, err = f.svc.UpdateNotification(ctx, f.ana, n.ID, &dto.UpdateNotificationRequest{ExpiresAt: &expires, ClearExpiresAt: true})
	if !errors.Is(err, apperrors.ErrValidationFailed) {
		t.Fatalf("set and clear UpdateNotification() error = %v, want validation error", err)
	}

	updated, err := f.svc.UpdateNotification(ctx, f.ana, n.ID, &dto.UpdateNotificationRequest{ClearExpiresAt: true})
	if err != nil {
		t.Fatalf("UpdateNotification() error = %v", err)
	}
	if updated.ExpiresAt != nil {
		t.Errorf("ExpiresAt = %v, want nil", updated.ExpiresAt)
	}

	f.clock.advance(2 * time.Hour)
	count, err := f.svc.DeactivateExpired(ctx)
	if err != nil {
		t.Fatalf("DeactivateExpired() error = %v", err)
	}
	if count != 0 {
		t.Errorf("DeactivateExpired() = %d, want 0 once the expiry is cleared", count)
	}
}

func TestNotificationService_EmptyPatchSkipsSideEffects(t *testing.T) {
	f := newServiceFixture(t, false)
	ctx := context.Background()
	n := f.create(t, f.ana, "Sem mudança")

	if _, err := f.svc.ListStudentNotifications(ctx, f.student, false); err != nil {
		t.Fatalf("ListStudentNotifications() error = %v", err)
	}
	broadcasts := len(f.broadcaster.messages)

	if _, err := f.svc.UpdateNotification(ctx, f.ana, n.ID, &dto.UpdateNotificationRequest{}); err != nil {
		t.Fatalf("UpdateNotification() error = %v", err)
	}

	if got := f.publisher.types(); len(got) != 1 || got[0] != events.NotificationCreated {
		t.Errorf("published events = %v, want only the creation", got)
	}
	if len(f.broadcaster.messages) != broadcasts {
		t.Errorf("empty patch was broadcast: %+v", f.broadcaster.last())
	}
	if !f.redis.Exists("test:" + studentFeedKey) {
		t.Error("empty patch invalidated the student feed")
	}
}
