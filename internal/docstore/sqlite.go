package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"maps"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

var _ Store = (*SQLiteStore)(nil)

// SQLiteStore is the single-node persistent backend. Documents are stored as
// JSON text and filtered with the JSON1 functions.
type SQLiteStore struct {
	db        *sql.DB
	namespace string
	broker    *Broker
}

// NewSQLiteStore wraps an open database. The pool is limited to one
// connection so read-modify-write transactions never interleave.
func NewSQLiteStore(db *sql.DB, namespace string) *SQLiteStore {
	db.SetMaxOpenConns(1)
	s := &SQLiteStore{db: db, namespace: namespace}
	s.broker = NewBroker(s.GetAll)
	return s
}

func (s *SQLiteStore) Insert(ctx context.Context, collection string, fields map[string]any) (string, error) {
	norm, err := normalize(fields)
	if err != nil {
		return "", err
	}
	raw, err := json.Marshal(norm)
	if err != nil {
		return "", err
	}
	id := uuid.NewString()

	const q = `INSERT INTO documents (namespace, collection, id, data) VALUES (?, ?, ?, ?)`
	if _, err := s.db.ExecContext(ctx, q, s.namespace, collection, id, string(raw)); err != nil {
		return "", fmt.Errorf("insert %s: %w", collection, err)
	}
	s.broker.Publish(ctx, collection)
	return id, nil
}

func (s *SQLiteStore) Get(ctx context.Context, collection, id string) (Document, error) {
	return s.get(ctx, s.db, collection, id)
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *SQLiteStore) get(ctx context.Context, q queryRower, collection, id string) (Document, error) {
	var raw string
	err := q.QueryRowContext(ctx,
		`SELECT data FROM documents WHERE namespace = ? AND collection = ? AND id = ?`,
		s.namespace, collection, id,
	).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Document{}, fmt.Errorf("%s/%s: %w", collection, id, ErrNotFound)
		}
		return Document{}, err
	}
	fields := map[string]any{}
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return Document{}, fmt.Errorf("decode %s/%s: %w", collection, id, err)
	}
	return Document{ID: id, Fields: fields}, nil
}

func (s *SQLiteStore) Update(ctx context.Context, collection, id string, partial map[string]any) error {
	norm, err := normalize(partial)
	if err != nil {
		return err
	}
	return s.mutate(ctx, collection, id, func(fields map[string]any) {
		maps.Copy(fields, norm)
	})
}

func (s *SQLiteStore) SetUnion(ctx context.Context, collection, id, field, value string) error {
	return s.mutate(ctx, collection, id, func(fields map[string]any) {
		fields[field] = arrayUnion(fields[field], value)
	})
}

func (s *SQLiteStore) SetRemove(ctx context.Context, collection, id, field, value string) error {
	return s.mutate(ctx, collection, id, func(fields map[string]any) {
		fields[field] = arrayRemove(fields[field], value)
	})
}

func (s *SQLiteStore) mutate(ctx context.Context, collection, id string, fn func(map[string]any)) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	doc, err := s.get(ctx, tx, collection, id)
	if err != nil {
		return err
	}
	fn(doc.Fields)
	raw, err := json.Marshal(doc.Fields)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx,
		`UPDATE documents SET data = ? WHERE namespace = ? AND collection = ? AND id = ?`,
		string(raw), s.namespace, collection, id,
	)
	if err != nil {
		return fmt.Errorf("update %s/%s: %w", collection, id, err)
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	s.broker.Publish(ctx, collection)
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, collection, id string) error {
	return s.DeleteAll(ctx, []Ref{{Collection: collection, ID: id}})
}

func (s *SQLiteStore) DeleteAll(ctx context.Context, refs []Ref) error {
	if len(refs) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, r := range refs {
		_, err := tx.ExecContext(ctx,
			`DELETE FROM documents WHERE namespace = ? AND collection = ? AND id = ?`,
			s.namespace, r.Collection, r.ID,
		)
		if err != nil {
			return fmt.Errorf("delete %s/%s: %w", r.Collection, r.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	s.broker.Publish(ctx, uniqueCollections(refs)...)
	return nil
}

func (s *SQLiteStore) GetAll(ctx context.Context, collection string, filter Filter) ([]Document, error) {
	q := `SELECT id, data FROM documents WHERE namespace = ? AND collection = ?`
	args := []any{s.namespace, collection}
	switch {
	case filter.Field == "":
	case filter.Op == OpEq:
		q += ` AND json_extract(data, ?) = ?`
		args = append(args, "$."+filter.Field, filter.Value)
	case filter.Op == OpContains:
		q += ` AND EXISTS (SELECT 1 FROM json_each(documents.data, ?) WHERE json_each.value = ?)`
		args = append(args, "$."+filter.Field, filter.Value)
	default:
		return nil, fmt.Errorf("unsupported filter op %q", filter.Op)
	}
	q += ` ORDER BY seq`

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Document
	for rows.Next() {
		var id, raw string
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, err
		}
		fields := map[string]any{}
		if err := json.Unmarshal([]byte(raw), &fields); err != nil {
			return nil, fmt.Errorf("decode %s/%s: %w", collection, id, err)
		}
		out = append(out, Document{ID: id, Fields: fields})
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Subscribe(ctx context.Context, collection string, filter Filter) (*Subscription, error) {
	return s.broker.Subscribe(ctx, collection, filter)
}

func (s *SQLiteStore) Close() error {
	s.broker.Close()
	return s.db.Close()
}
