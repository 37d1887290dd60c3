package models

// Identity is the signed-in user. It is never persisted.
type Identity struct {
	UserID    string `json:"userId"`
	Anonymous bool   `json:"anonymous"`
}
