package repositories

import (
	"context"
	"encoding/json"
	"fmt"

	"taskhub/internal/docstore"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = docstore.ErrNotFound

func encode(v any) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	fields := map[string]any{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	delete(fields, "id")
	return fields, nil
}

func decode[T any](doc docstore.Document) (T, error) {
	var out T
	fields := make(map[string]any, len(doc.Fields)+1)
	for k, v := range doc.Fields {
		fields[k] = v
	}
	fields["id"] = doc.ID
	raw, err := json.Marshal(fields)
	if err != nil {
		return out, fmt.Errorf("decode %s: %w", doc.ID, err)
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("decode %s: %w", doc.ID, err)
	}
	return out, nil
}

func decodeAll[T any](docs []docstore.Document) ([]T, error) {
	out := make([]T, 0, len(docs))
	for _, d := range docs {
		v, err := decode[T](d)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func getOne[T any](ctx context.Context, store docstore.Store, collection, id string) (*T, error) {
	doc, err := store.Get(ctx, collection, id)
	if err != nil {
		return nil, err
	}
	v, err := decode[T](doc)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func listAll[T any](ctx context.Context, store docstore.Store, collection string, filter docstore.Filter) ([]T, error) {
	docs, err := store.GetAll(ctx, collection, filter)
	if err != nil {
		return nil, err
	}
	return decodeAll[T](docs)
}
