package dto

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/yigit/appschool/internal/app/models"
)

func TestNewStudentNotificationView_DropsPrivateFields(t *testing.T) {
	expires := time.Now().Add(time.Hour)
	n := &models.Notification{
		ID:          7,
		ProfessorID: 1,
		Title:       "Prova amanhã",
		Message:     "Sala 3",
		Type:        models.NotificationTypeUrgent,
		IsActive:    true,
		ExpiresAt:   &expires,
		CreatedAt:   time.Date(2025, 5, 2, 8, 0, 0, 0, time.UTC),
	}

	view := NewStudentNotificationView(n, "Ana Souza")
	if view.ProfessorName != "Ana Souza" || view.ID != 7 || view.Type != models.NotificationTypeUrgent {
		t.Fatalf("unexpected view: %+v", view)
	}

	raw, err := json.Marshal(view)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var fields map[string]interface{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	for _, hidden := range []string{"professorId", "isActive", "expiresAt", "updatedAt"} {
		if _, ok := fields[hidden]; ok {
			t.Errorf("student view exposes %q", hidden)
		}
	}
	for _, shown := range []string{"id", "title", "message", "type", "createdAt", "professorName"} {
		if _, ok := fields[shown]; !ok {
			t.Errorf("student view is missing %q", shown)
		}
	}
}

func TestNewStudentNotificationViews_EmptyIsNotNil(t *testing.T) {
	views := NewStudentNotificationViews(nil)
	if views == nil {
		t.Fatal("expected an empty slice, got nil")
	}
	raw, _ := json.Marshal(views)
	if string(raw) != "[]" {
		t.Errorf("empty list marshals to %s, want []", raw)
	}
}
