package services

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/sethvargo/go-retry"

	"taskhub/internal/auth"
	"taskhub/internal/models"
)

var ErrNoSession = errors.New("no active session")

// Session is the result of a successful sign-in.
type Session struct {
	Identity models.Identity `json:"identity"`
	Token    string          `json:"sessionToken"`
}

// SessionService establishes identities through the identity provider and
// resolves the session tokens presented by clients.
type SessionService struct {
	provider  auth.Provider
	attempts  uint64
	baseDelay time.Duration

	mu        sync.Mutex
	nextID    uint64
	listeners map[uint64]func(models.Identity)
}

func NewSessionService(provider auth.Provider, attempts int, baseDelay time.Duration) *SessionService {
	if attempts < 1 {
		attempts = 1
	}
	if baseDelay <= 0 {
		baseDelay = 100 * time.Millisecond
	}
	return &SessionService{
		provider:  provider,
		attempts:  uint64(attempts),
		baseDelay: baseDelay,
		listeners: make(map[uint64]func(models.Identity)),
	}
}

// Establish signs in with the custom token when one is given and anonymously
// otherwise. Transient provider failures are retried with exponential backoff.
func (s *SessionService) Establish(ctx context.Context, token string) (*Session, error) {
	token = strings.TrimSpace(token)
	mode := "anonymous"
	if token != "" {
		mode = "custom-token"
	}

	backoff := retry.WithMaxRetries(s.attempts-1, retry.NewExponential(s.baseDelay))
	var id models.Identity
	attempt := 0
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		var err error
		if token != "" {
			id, err = s.provider.SignInWithToken(ctx, token)
		} else {
			id, err = s.provider.SignInAnonymously(ctx)
		}
		if err != nil && auth.IsTransient(err) {
			log.Printf("[session][establish][retry] mode=%s attempt=%d: %v", mode, attempt, err)
			return retry.RetryableError(err)
		}
		return err
	})
	if err != nil {
		log.Printf("[session][establish][err] mode=%s attempts=%d: %v", mode, attempt, err)
		return nil, err
	}

	sessionToken, err := s.provider.IssueSession(id)
	if err != nil {
		log.Printf("[session][issue][err] user=%s: %v", id.UserID, err)
		return nil, err
	}
	log.Printf("[session][establish][ok] mode=%s user=%s", mode, id.UserID)

	s.notify(id)
	return &Session{Identity: id, Token: sessionToken}, nil
}

// Resolve turns a session token back into its identity.
func (s *SessionService) Resolve(token string) (models.Identity, error) {
	if strings.TrimSpace(token) == "" {
		return models.Identity{}, ErrNoSession
	}
	return s.provider.VerifySession(token)
}

// OnIdentityChange registers fn for every newly established identity and
// returns a function that removes it.
func (s *SessionService) OnIdentityChange(fn func(models.Identity)) (unsubscribe func()) {
	s.mu.Lock()
	s.nextID++
	id := s.nextID
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

func (s *SessionService) notify(id models.Identity) {
	s.mu.Lock()
	fns := make([]func(models.Identity), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.Unlock()
	for _, fn := range fns {
		fn(id)
	}
}
