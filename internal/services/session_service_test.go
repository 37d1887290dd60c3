package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"taskhub/internal/auth"
	"taskhub/internal/models"
)

// stubProvider fails the first failures sign-ins with err.
type stubProvider struct {
	*auth.JWTProvider
	failures int
	err      error
	calls    int
}

func (p *stubProvider) SignInAnonymously(ctx context.Context) (models.Identity, error) {
	p.calls++
	if p.calls <= p.failures {
		return models.Identity{}, p.err
	}
	return p.JWTProvider.SignInAnonymously(ctx)
}

func newStub(failures int, err error) *stubProvider {
	return &stubProvider{
		JWTProvider: auth.NewJWTProvider("secret", "custom", time.Hour),
		failures:    failures,
		err:         err,
	}
}

func TestEstablishRetriesTransientFailures(t *testing.T) {
	stub := newStub(2, auth.ErrProviderUnavailable)
	svc := NewSessionService(stub, 3, time.Millisecond)

	sess, err := svc.Establish(context.Background(), "")
	if err != nil {
		t.Fatalf("Establish failed: %v", err)
	}
	if stub.calls != 3 {
		t.Errorf("calls = %d, want 3", stub.calls)
	}
	id, err := svc.Resolve(sess.Token)
	if err != nil || id != sess.Identity {
		t.Errorf("Resolve = %+v, %v", id, err)
	}
}

func TestEstablishGivesUpAfterAttempts(t *testing.T) {
	stub := newStub(10, auth.ErrProviderUnavailable)
	svc := NewSessionService(stub, 3, time.Millisecond)

	if _, err := svc.Establish(context.Background(), ""); !errors.Is(err, auth.ErrProviderUnavailable) {
		t.Fatalf("expected ErrProviderUnavailable, got %v", err)
	}
	if stub.calls != 3 {
		t.Errorf("calls = %d, want 3", stub.calls)
	}
}

func TestEstablishDoesNotRetryPermanentFailures(t *testing.T) {
	stub := newStub(10, auth.ErrInvalidToken)
	svc := NewSessionService(stub, 5, time.Millisecond)

	if _, err := svc.Establish(context.Background(), ""); !errors.Is(err, auth.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
	if stub.calls != 1 {
		t.Errorf("calls = %d, want 1", stub.calls)
	}

	if _, err := svc.Establish(context.Background(), "not-a-jwt"); !errors.Is(err, auth.ErrInvalidToken) {
		t.Errorf("bad custom token: expected ErrInvalidToken, got %v", err)
	}
}

func TestOnIdentityChange(t *testing.T) {
	svc := NewSessionService(auth.NewJWTProvider("secret", "", time.Hour), 1, time.Millisecond)

	var seen []models.Identity
	unsubscribe := svc.OnIdentityChange(func(id models.Identity) { seen = append(seen, id) })

	first, _ := svc.Establish(context.Background(), "")
	unsubscribe()
	svc.Establish(context.Background(), "")

	if len(seen) != 1 || seen[0] != first.Identity {
		t.Errorf("seen = %+v, want only %+v", seen, first.Identity)
	}

	if _, err := svc.Resolve(""); !errors.Is(err, ErrNoSession) {
		t.Errorf("expected ErrNoSession, got %v", err)
	}
}
