package services

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

var ErrConfirmationNotFound = errors.New("confirmation not found or expired")

// Action is a destructive operation waiting for the user's approval.
type Action func(ctx context.Context) error

type Pending struct {
	ID        string    `json:"id"`
	Message   string    `json:"message"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type pendingAction struct {
	Pending
	action Action
}

// ConfirmationGate holds at most one pending confirmation per user. A new
// request replaces the previous one.
type ConfirmationGate struct {
	ttl time.Duration
	now func() time.Time

	mu    sync.Mutex
	slots map[string]*pendingAction
}

func NewConfirmationGate(ttl time.Duration) *ConfirmationGate {
	return &ConfirmationGate{
		ttl:   ttl,
		now:   time.Now,
		slots: make(map[string]*pendingAction),
	}
}

func (g *ConfirmationGate) Request(userID, message string, action Action) Pending {
	p := &pendingAction{
		Pending: Pending{
			ID:        uuid.NewString(),
			Message:   message,
			ExpiresAt: g.now().Add(g.ttl),
		},
		action: action,
	}
	g.mu.Lock()
	g.sweep()
	if prev, ok := g.slots[userID]; ok {
		log.Printf("[confirm][replace] user=%s dropped=%s", userID, prev.ID)
	}
	g.slots[userID] = p
	g.mu.Unlock()
	return p.Pending
}

// Current returns the user's live pending confirmation.
func (g *ConfirmationGate) Current(userID string) (Pending, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	p, ok := g.live(userID)
	if !ok {
		return Pending{}, false
	}
	return p.Pending, true
}

// Confirm runs the pending action with the given id. The slot is cleared
// before the action runs, so a failed action has to be requested again.
func (g *ConfirmationGate) Confirm(ctx context.Context, userID, id string) error {
	g.mu.Lock()
	p, ok := g.live(userID)
	if !ok || p.ID != id {
		g.mu.Unlock()
		return ErrConfirmationNotFound
	}
	delete(g.slots, userID)
	g.mu.Unlock()

	log.Printf("[confirm][run] user=%s id=%s message=%q", userID, id, p.Message)
	return p.action(ctx)
}

func (g *ConfirmationGate) Cancel(userID, id string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	p, ok := g.live(userID)
	if !ok || p.ID != id {
		return ErrConfirmationNotFound
	}
	delete(g.slots, userID)
	return nil
}

// live must be called with mu held. Expired entries are dropped.
func (g *ConfirmationGate) live(userID string) (*pendingAction, bool) {
	p, ok := g.slots[userID]
	if !ok {
		return nil, false
	}
	if !g.now().Before(p.ExpiresAt) {
		delete(g.slots, userID)
		return nil, false
	}
	return p, true
}

// sweep drops every expired entry. It must be called with mu held.
func (g *ConfirmationGate) sweep() {
	now := g.now()
	for userID, p := range g.slots {
		if !now.Before(p.ExpiresAt) {
			delete(g.slots, userID)
		}
	}
}
