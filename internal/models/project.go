package models

import (
	"slices"
	"time"
)

// Project groups tasks and a chat. The owner is always one of the members.
type Project struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	OwnerID     string    `json:"ownerId"`
	Members     []string  `json:"members"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (p *Project) IsOwner(userID string) bool {
	return userID != "" && p.OwnerID == userID
}

func (p *Project) HasMember(userID string) bool {
	return slices.Contains(p.Members, userID)
}
