// Package docstore is the boundary to the document database: schemaless JSON
// records grouped in collections, simple field filters and live subscriptions
// that push the full matching record set after every change.
package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
)

// Collections used by the application.
const (
	CollectionProjects     = "projects"
	CollectionTasks        = "tasks"
	CollectionComments     = "comments"
	CollectionChatMessages = "chatMessages"
)

var (
	ErrNotFound           = errors.New("document not found")
	ErrSubscriptionClosed = errors.New("subscription closed")
	ErrUnknownDriver      = errors.New("unknown store driver")
)

// Document is one record of a collection. Fields never contain the id.
type Document struct {
	ID     string
	Fields map[string]any
}

// Ref addresses a single document.
type Ref struct {
	Collection string
	ID         string
}

type Op string

const (
	OpEq       Op = "eq"
	OpContains Op = "contains"
)

// Filter selects documents by a single string field. The zero Filter matches
// every document of a collection.
type Filter struct {
	Field string
	Op    Op
	Value string
}

// Eq matches documents whose field equals value.
func Eq(field, value string) Filter {
	return Filter{Field: field, Op: OpEq, Value: value}
}

// Contains matches documents whose array field holds value.
func Contains(field, value string) Filter {
	return Filter{Field: field, Op: OpContains, Value: value}
}

func (f Filter) String() string {
	if f.Field == "" {
		return "*"
	}
	return fmt.Sprintf("%s %s %q", f.Field, f.Op, f.Value)
}

// Match reports whether fields satisfy the filter.
func (f Filter) Match(fields map[string]any) bool {
	if f.Field == "" {
		return true
	}
	v, ok := fields[f.Field]
	if !ok {
		return false
	}
	switch f.Op {
	case OpEq:
		s, ok := v.(string)
		return ok && s == f.Value
	case OpContains:
		return arrayContains(v, f.Value)
	}
	return false
}

// Store is implemented by every backend. All methods are safe for concurrent use.
type Store interface {
	Insert(ctx context.Context, collection string, fields map[string]any) (string, error)
	Get(ctx context.Context, collection, id string) (Document, error)
	// Update merges partial into the stored fields (top-level keys only).
	Update(ctx context.Context, collection, id string, partial map[string]any) error
	// SetUnion adds value to an array field unless it is already present.
	SetUnion(ctx context.Context, collection, id, field, value string) error
	// SetRemove removes every occurrence of value from an array field.
	SetRemove(ctx context.Context, collection, id, field, value string) error
	Delete(ctx context.Context, collection, id string) error
	GetAll(ctx context.Context, collection string, filter Filter) ([]Document, error)
	// DeleteAll removes all refs as one unit: either every document is gone
	// afterwards or none was removed.
	DeleteAll(ctx context.Context, refs []Ref) error
	// Subscribe opens a live query. The current matching set is delivered
	// immediately, then again after every change to the collection.
	Subscribe(ctx context.Context, collection string, filter Filter) (*Subscription, error)
	Close() error
}

// ChangeFeed is implemented by backends that receive changes made by other
// processes and must be pumped for as long as the store is in use.
type ChangeFeed interface {
	Listen(ctx context.Context) error
}

// normalize round-trips fields through JSON so every backend stores the same
// value shapes (string, float64, bool, []any, map[string]any, nil).
func normalize(fields map[string]any) (map[string]any, error) {
	raw, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("encode fields: %w", err)
	}
	out := map[string]any{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode fields: %w", err)
	}
	delete(out, "id")
	return out, nil
}

func arrayContains(v any, value string) bool {
	arr, ok := v.([]any)
	if !ok {
		return false
	}
	for _, el := range arr {
		if s, ok := el.(string); ok && s == value {
			return true
		}
	}
	return false
}

func arrayUnion(v any, value string) []any {
	arr, _ := v.([]any)
	if arrayContains(arr, value) {
		return arr
	}
	return append(slices.Clone(arr), value)
}

func arrayRemove(v any, value string) []any {
	arr, _ := v.([]any)
	out := make([]any, 0, len(arr))
	for _, el := range arr {
		if s, ok := el.(string); ok && s == value {
			continue
		}
		out = append(out, el)
	}
	return out
}

func uniqueCollections(refs []Ref) []string {
	var out []string
	for _, r := range refs {
		if !slices.Contains(out, r.Collection) {
			out = append(out, r.Collection)
		}
	}
	return out
}
