package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/yigit/appschool/internal/app/models"
)

func newTestJWTService(exp time.Duration) *JWTService {
	return NewJWTService(JWTConfig{
		SecretKey:      "test-secret",
		AccessTokenExp: exp,
		TokenIssuer:    "appschool-test",
	})
}

func TestJWTService_RoundTrip(t *testing.T) {
	svc := newTestJWTService(time.Hour)
	user := &models.User{ID: 42, Email: "ana@escola.com", RoleType: models.RoleProfessor}

	token, expiresIn, err := svc.GenerateAccessToken(user)
	if err != nil {
		t.Fatalf("GenerateAccessToken() error = %v", err)
	}
	if expiresIn != 3600 {
		t.Errorf("expiresIn = %d, want 3600", expiresIn)
	}

	claims, err := svc.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken() error = %v", err)
	}

	caller := claims.Caller()
	if caller.UserID != 42 || caller.Role != models.RoleProfessor {
		t.Errorf("caller = %+v", caller)
	}
	if claims.ID == "" {
		t.Error("token id should be set")
	}
}

func TestJWTService_Expired(t *testing.T) {
	svc := newTestJWTService(-time.Minute)
	token, _, err := svc.GenerateAccessToken(&models.User{ID: 1, Email: "a@b.com", RoleType: models.RoleStudent})
	if err != nil {
		t.Fatalf("GenerateAccessToken() error = %v", err)
	}

	if _, err := svc.ValidateToken(token); !errors.Is(err, ErrExpiredToken) {
		t.Errorf("ValidateToken() error = %v, want ErrExpiredToken", err)
	}
}

func TestJWTService_Rejects(t *testing.T) {
	svc := newTestJWTService(time.Hour)
	other := NewJWTService(JWTConfig{SecretKey: "other", AccessTokenExp: time.Hour, TokenIssuer: "appschool-test"})

	foreign, _, _ := other.GenerateAccessToken(&models.User{ID: 1, Email: "a@b.com", RoleType: models.RoleStudent})
	badRole, _, _ := svc.GenerateAccessToken(&models.User{ID: 1, Email: "a@b.com", RoleType: "ADMIN"})

	tests := map[string]string{
		"empty":        "",
		"garbage":      "not.a.jwt",
		"wrong key":    foreign,
		"unknown role": badRole,
	}
	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := svc.ValidateToken(token); !errors.Is(err, ErrInvalidToken) {
				t.Errorf("ValidateToken() error = %v, want ErrInvalidToken", err)
			}
		})
	}
}

func TestExtractBearerToken(t *testing.T) {
	got, err := ExtractBearerToken("Bearer abc.def")
	if err != nil || got != "abc.def" {
		t.Errorf("ExtractBearerToken() = %q, %v", got, err)
	}
	if _, err := ExtractBearerToken("  "); !errors.Is(err, ErrInvalidFormat) {
		t.Errorf("empty header error = %v", err)
	}
}

func TestPasswordHashing(t *testing.T) {
	BcryptCost = 4
	hash, err := HashPassword("segredo123")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	if !CheckPassword(hash, "segredo123") {
		t.Error("correct password rejected")
	}
	if CheckPassword(hash, "wrong") {
		t.Error("wrong password accepted")
	}
}
