package services

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestConfirmRunsActionOnce(t *testing.T) {
	g := NewConfirmationGate(time.Minute)
	runs := 0
	p := g.Request("u1", "Delete project?", func(context.Context) error { runs++; return nil })

	if cur, ok := g.Current("u1"); !ok || cur.ID != p.ID {
		t.Fatalf("Current = %+v, %v", cur, ok)
	}
	if err := g.Confirm(context.Background(), "u1", p.ID); err != nil {
		t.Fatalf("Confirm failed: %v", err)
	}
	if err := g.Confirm(context.Background(), "u1", p.ID); !errors.Is(err, ErrConfirmationNotFound) {
		t.Errorf("second confirm: expected ErrConfirmationNotFound, got %v", err)
	}
	if runs != 1 {
		t.Errorf("runs = %d, want 1", runs)
	}
}

func TestLastRequestWins(t *testing.T) {
	g := NewConfirmationGate(time.Minute)
	var ran []string
	first := g.Request("u1", "first", func(context.Context) error { ran = append(ran, "first"); return nil })
	second := g.Request("u1", "second", func(context.Context) error { ran = append(ran, "second"); return nil })

	if err := g.Confirm(context.Background(), "u1", first.ID); !errors.Is(err, ErrConfirmationNotFound) {
		t.Errorf("replaced id: expected ErrConfirmationNotFound, got %v", err)
	}
	if err := g.Confirm(context.Background(), "u1", second.ID); err != nil {
		t.Fatalf("Confirm failed: %v", err)
	}
	if len(ran) != 1 || ran[0] != "second" {
		t.Errorf("ran = %v", ran)
	}
}

func TestCancelAndExpiry(t *testing.T) {
	g := NewConfirmationGate(time.Minute)
	now := time.Date(2026, 10, 15, 10, 0, 0, 0, time.UTC)
	g.now = func() time.Time { return now }

	p := g.Request("u1", "x", func(context.Context) error { t.Error("cancelled action ran"); return nil })
	if err := g.Cancel("u1", p.ID); err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}
	if _, ok := g.Current("u1"); ok {
		t.Error("slot not cleared by cancel")
	}

	p = g.Request("u1", "y", func(context.Context) error { t.Error("expired action ran"); return nil })
	now = now.Add(2 * time.Minute)
	if err := g.Confirm(context.Background(), "u1", p.ID); !errors.Is(err, ErrConfirmationNotFound) {
		t.Errorf("expired: expected ErrConfirmationNotFound, got %v", err)
	}

	// slots are per user
	g.Request("u2", "z", func(context.Context) error { return nil })
	if _, ok := g.Current("u1"); ok {
		t.Error("u2's request leaked into u1's slot")
	}
}

func TestNoticeBoardSingleSlot(t *testing.T) {
	b := NewNoticeBoard()
	var changes []string
	unsubscribe := b.OnChange(func(userID, message string) { changes = append(changes, userID+":"+message) })
	defer unsubscribe()

	b.Set("u1", "first")
	b.Set("u1", "second")
	b.Set("u1", "second")
	if msg, _ := b.Get("u1"); msg != "second" {
		t.Errorf("Get = %q, want second", msg)
	}
	b.Clear("u1")
	b.Clear("u1")
	if _, ok := b.Get("u1"); ok {
		t.Error("notice not cleared")
	}

	want := []string{"u1:first", "u1:second", "u1:"}
	if len(changes) != len(want) {
		t.Fatalf("changes = %v, want %v", changes, want)
	}
	for i := range want {
		if changes[i] != want[i] {
			t.Errorf("changes[%d] = %q, want %q", i, changes[i], want[i])
		}
	}
}

func TestRequestDropsOtherUsersExpiredEntries(t *testing.T) {
	now := time.Date(2026, 10, 15, 10, 0, 0, 0, time.UTC)
	g := NewConfirmationGate(time.Minute)
	g.now = func() time.Time { return now }
	noop := func(context.Context) error { return nil }

	g.Request("u1", "delete a", noop)
	g.Request("u2", "delete b", noop)

	now = now.Add(2 * time.Minute)
	p := g.Request("u3", "delete c", noop)

	g.mu.Lock()
	n := len(g.slots)
	g.mu.Unlock()
	if n != 1 {
		t.Errorf("slots = %d after expiry, want 1", n)
	}
	if cur, ok := g.Current("u3"); !ok || cur.ID != p.ID {
		t.Errorf("Current(u3) = %+v, %v", cur, ok)
	}
}
