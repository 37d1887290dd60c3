package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"taskhub/internal/models"
)

func mintCustomToken(t *testing.T, secret, sub string, exp time.Time) string {
	t.Helper()
	claims := jwt.RegisteredClaims{Subject: sub, ExpiresAt: jwt.NewNumericDate(exp)}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return tok
}

func TestSessionRoundTrip(t *testing.T) {
	p := NewJWTProvider("session-secret", "", time.Hour)

	id, err := p.SignInAnonymously(context.Background())
	if err != nil {
		t.Fatalf("SignInAnonymously failed: %v", err)
	}
	if id.UserID == "" || !id.Anonymous {
		t.Fatalf("unexpected identity: %+v", id)
	}

	tok, err := p.IssueSession(id)
	if err != nil {
		t.Fatalf("IssueSession failed: %v", err)
	}
	got, err := p.VerifySession(tok)
	if err != nil {
		t.Fatalf("VerifySession failed: %v", err)
	}
	if got != id {
		t.Errorf("VerifySession = %+v, want %+v", got, id)
	}
}

func TestVerifySessionRejectsExpiredAndForeign(t *testing.T) {
	p := NewJWTProvider("session-secret", "", time.Minute)
	tok, _ := p.IssueSession(models.Identity{UserID: "u1"})

	p.now = func() time.Time { return time.Now().Add(time.Hour) }
	if _, err := p.VerifySession(tok); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expired session: expected ErrInvalidToken, got %v", err)
	}

	other := NewJWTProvider("other-secret", "", time.Hour)
	foreign, _ := other.IssueSession(models.Identity{UserID: "u1"})
	if _, err := NewJWTProvider("session-secret", "", time.Hour).VerifySession(foreign); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("foreign session: expected ErrInvalidToken, got %v", err)
	}
}

func TestSignInWithToken(t *testing.T) {
	p := NewJWTProvider("session-secret", "custom-secret", time.Hour)
	ctx := context.Background()

	id, err := p.SignInWithToken(ctx, mintCustomToken(t, "custom-secret", "user-42", time.Now().Add(time.Hour)))
	if err != nil {
		t.Fatalf("SignInWithToken failed: %v", err)
	}
	if id.UserID != "user-42" || id.Anonymous {
		t.Errorf("unexpected identity: %+v", id)
	}

	_, err = p.SignInWithToken(ctx, mintCustomToken(t, "wrong", "user-42", time.Now().Add(time.Hour)))
	if !errors.Is(err, ErrInvalidToken) {
		t.Errorf("wrong secret: expected ErrInvalidToken, got %v", err)
	}
	if IsTransient(err) {
		t.Error("invalid token must not be transient")
	}

	_, err = p.SignInWithToken(ctx, mintCustomToken(t, "custom-secret", "", time.Now().Add(time.Hour)))
	if !errors.Is(err, ErrInvalidToken) {
		t.Errorf("missing subject: expected ErrInvalidToken, got %v", err)
	}

	disabled := NewJWTProvider("session-secret", "", time.Hour)
	if _, err := disabled.SignInWithToken(ctx, "x"); !errors.Is(err, ErrCustomTokensDisabled) {
		t.Errorf("expected ErrCustomTokensDisabled, got %v", err)
	}
}
