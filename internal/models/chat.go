package models

import (
	"cmp"
	"slices"
	"time"
)

// ChatMessage is append-only; there is no edit or delete.
type ChatMessage struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"projectId"`
	UserID    string    `json:"userId"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}

// SortMessages orders messages oldest first. Equal timestamps fall back to id
// so the order is stable across snapshots.
func SortMessages(msgs []ChatMessage) {
	slices.SortFunc(msgs, func(a, b ChatMessage) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}
