package services

import "sync"

// NoticeBoard keeps one active error message per user. The next error
// replaces it; a successful operation or an explicit dismiss clears it.
type NoticeBoard struct {
	mu        sync.Mutex
	notices   map[string]string
	nextID    uint64
	listeners map[uint64]func(userID, message string)
}

func NewNoticeBoard() *NoticeBoard {
	return &NoticeBoard{
		notices:   make(map[string]string),
		listeners: make(map[uint64]func(string, string)),
	}
}

func (b *NoticeBoard) Set(userID, message string) {
	if userID == "" || message == "" {
		return
	}
	b.mu.Lock()
	if b.notices[userID] == message {
		b.mu.Unlock()
		return
	}
	b.notices[userID] = message
	fns := b.snapshot()
	b.mu.Unlock()

	for _, fn := range fns {
		fn(userID, message)
	}
}

func (b *NoticeBoard) Clear(userID string) {
	b.mu.Lock()
	if _, ok := b.notices[userID]; !ok {
		b.mu.Unlock()
		return
	}
	delete(b.notices, userID)
	fns := b.snapshot()
	b.mu.Unlock()

	for _, fn := range fns {
		fn(userID, "")
	}
}

func (b *NoticeBoard) Get(userID string) (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	msg, ok := b.notices[userID]
	return msg, ok
}

// OnChange registers fn for every set or clear. Clears are reported with an
// empty message.
func (b *NoticeBoard) OnChange(fn func(userID, message string)) (unsubscribe func()) {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.listeners[id] = fn
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.listeners, id)
		b.mu.Unlock()
	}
}

func (b *NoticeBoard) snapshot() []func(string, string) {
	out := make([]func(string, string), 0, len(b.listeners))
	for _, fn := range b.listeners {
		out = append(out, fn)
	}
	return out
}
