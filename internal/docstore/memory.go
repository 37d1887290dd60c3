package docstore

import (
	"context"
	"fmt"
	"maps"
	"sort"
	"sync"

	"github.com/google/uuid"
)

var _ Store = (*MemoryStore)(nil)

type memoryDoc struct {
	seq    uint64
	fields map[string]any
}

// MemoryStore keeps documents in process memory. It backs tests and
// single-node development setups; nothing survives a restart.
type MemoryStore struct {
	namespace string
	broker    *Broker

	mu   sync.RWMutex
	seq  uint64
	data map[string]map[string]memoryDoc
}

func NewMemoryStore(namespace string) *MemoryStore {
	s := &MemoryStore{
		namespace: namespace,
		data:      make(map[string]map[string]memoryDoc),
	}
	s.broker = NewBroker(s.GetAll)
	return s
}

func (s *MemoryStore) path(collection string) string {
	return s.namespace + "/" + collection
}

func (s *MemoryStore) Insert(ctx context.Context, collection string, fields map[string]any) (string, error) {
	norm, err := normalize(fields)
	if err != nil {
		return "", err
	}
	id := uuid.NewString()

	s.mu.Lock()
	p := s.path(collection)
	if s.data[p] == nil {
		s.data[p] = make(map[string]memoryDoc)
	}
	s.seq++
	s.data[p][id] = memoryDoc{seq: s.seq, fields: norm}
	s.mu.Unlock()

	s.broker.Publish(ctx, collection)
	return id, nil
}

func (s *MemoryStore) Get(ctx context.Context, collection, id string) (Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.data[s.path(collection)][id]
	if !ok {
		return Document{}, fmt.Errorf("%s/%s: %w", collection, id, ErrNotFound)
	}
	return Document{ID: id, Fields: cloneFields(d.fields)}, nil
}

func (s *MemoryStore) Update(ctx context.Context, collection, id string, partial map[string]any) error {
	norm, err := normalize(partial)
	if err != nil {
		return err
	}
	err = s.mutate(collection, id, func(fields map[string]any) {
		maps.Copy(fields, norm)
	})
	if err != nil {
		return err
	}
	s.broker.Publish(ctx, collection)
	return nil
}

func (s *MemoryStore) SetUnion(ctx context.Context, collection, id, field, value string) error {
	err := s.mutate(collection, id, func(fields map[string]any) {
		fields[field] = arrayUnion(fields[field], value)
	})
	if err != nil {
		return err
	}
	s.broker.Publish(ctx, collection)
	return nil
}

func (s *MemoryStore) SetRemove(ctx context.Context, collection, id, field, value string) error {
	err := s.mutate(collection, id, func(fields map[string]any) {
		fields[field] = arrayRemove(fields[field], value)
	})
	if err != nil {
		return err
	}
	s.broker.Publish(ctx, collection)
	return nil
}

func (s *MemoryStore) mutate(collection, id string, fn func(map[string]any)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	docs := s.data[s.path(collection)]
	d, ok := docs[id]
	if !ok {
		return fmt.Errorf("%s/%s: %w", collection, id, ErrNotFound)
	}
	fields := cloneFields(d.fields)
	fn(fields)
	docs[id] = memoryDoc{seq: d.seq, fields: fields}
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, collection, id string) error {
	s.mu.Lock()
	delete(s.data[s.path(collection)], id)
	s.mu.Unlock()

	s.broker.Publish(ctx, collection)
	return nil
}

func (s *MemoryStore) DeleteAll(ctx context.Context, refs []Ref) error {
	if len(refs) == 0 {
		return nil
	}
	s.mu.Lock()
	for _, r := range refs {
		delete(s.data[s.path(r.Collection)], r.ID)
	}
	s.mu.Unlock()

	s.broker.Publish(ctx, uniqueCollections(refs)...)
	return nil
}

func (s *MemoryStore) GetAll(ctx context.Context, collection string, filter Filter) ([]Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	type entry struct {
		seq uint64
		doc Document
	}
	var matched []entry
	for id, d := range s.data[s.path(collection)] {
		if !filter.Match(d.fields) {
			continue
		}
		matched = append(matched, entry{seq: d.seq, doc: Document{ID: id, Fields: cloneFields(d.fields)}})
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].seq < matched[j].seq })

	out := make([]Document, 0, len(matched))
	for _, e := range matched {
		out = append(out, e.doc)
	}
	return out, nil
}

func (s *MemoryStore) Subscribe(ctx context.Context, collection string, filter Filter) (*Subscription, error) {
	return s.broker.Subscribe(ctx, collection, filter)
}

// Subscriptions reports how many live queries are open.
func (s *MemoryStore) Subscriptions() int {
	return s.broker.Active()
}

func (s *MemoryStore) Close() error {
	s.broker.Close()
	return nil
}

func cloneFields(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneFields(t)
	case []any:
		out := make([]any, len(t))
		for i, el := range t {
			out[i] = cloneValue(el)
		}
		return out
	default:
		return v
	}
}
