package service

import (
	"testing"
	"time"

	"github.com/reeltask/reeltask/internal/config"
	"github.com/reeltask/reeltask/internal/models"
)

func newUserAuthTestService(secret string, expireHours int) *UserAuthService {
	cfg := &config.Config{}
	cfg.UserJWT.SecretKey = secret
	cfg.UserJWT.ExpireHours = expireHours
	return NewUserAuthService(cfg)
}

func TestUserJWTRoundTrip(t *testing.T) {
	svc := newUserAuthTestService("test-secret", 2)
	user := &models.User{ID: 9, Email: "u9@example.com"}

	token, expiresAt, err := svc.GenerateUserJWT(user)
	if err != nil {
		t.Fatalf("generate token failed: %v", err)
	}
	if remaining := time.Until(expiresAt); remaining < time.Hour || remaining > 3*time.Hour {
		t.Fatalf("unexpected expiry window: %v", remaining)
	}

	claims, err := svc.ParseUserJWT(token)
	if err != nil {
		t.Fatalf("parse token failed: %v", err)
	}
	if claims.UserID != 9 || claims.Email != "u9@example.com" {
		t.Fatalf("claims mismatch: %+v", claims)
	}
}

func TestUserJWTRejectsWrongSecret(t *testing.T) {
	svc := newUserAuthTestService("secret-a", 1)
	token, _, err := svc.GenerateUserJWT(&models.User{ID: 3, Email: "u3@example.com"})
	if err != nil {
		t.Fatalf("generate token failed: %v", err)
	}

	other := newUserAuthTestService("secret-b", 1)
	if _, err := other.ParseUserJWT(token); err == nil {
		t.Fatalf("token signed with different secret should be rejected")
	}
}

func TestUserJWTRejectsNilUser(t *testing.T) {
	svc := newUserAuthTestService("test-secret", 1)
	if _, _, err := svc.GenerateUserJWT(nil); err == nil {
		t.Fatalf("nil user should be rejected")
	}
	if _, _, err := svc.GenerateUserJWT(&models.User{}); err == nil {
		t.Fatalf("user without id should be rejected")
	}
}
