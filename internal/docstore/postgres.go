package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

const notifyChannel = "taskhub_documents"

var (
	_ Store      = (*PostgresStore)(nil)
	_ ChangeFeed = (*PostgresStore)(nil)
)

// PostgresStore keeps every collection in one jsonb table. Writes raise a
// NOTIFY so other instances can refresh their subscriptions.
type PostgresStore struct {
	db        *sql.DB
	dsn       string
	namespace string
	instance  string
	broker    *Broker
}

func NewPostgresStore(db *sql.DB, dsn, namespace string) *PostgresStore {
	s := &PostgresStore{
		db:        db,
		dsn:       dsn,
		namespace: namespace,
		instance:  uuid.NewString(),
	}
	s.broker = NewBroker(s.GetAll)
	return s
}

func (s *PostgresStore) Insert(ctx context.Context, collection string, fields map[string]any) (string, error) {
	norm, err := normalize(fields)
	if err != nil {
		return "", err
	}
	raw, err := json.Marshal(norm)
	if err != nil {
		return "", err
	}
	id := uuid.NewString()

	err = s.withTx(ctx, func(tx *sql.Tx) error {
		const q = `INSERT INTO documents (namespace, collection, id, data) VALUES ($1, $2, $3, $4::jsonb)`
		if _, err := tx.ExecContext(ctx, q, s.namespace, collection, id, string(raw)); err != nil {
			return err
		}
		return s.notify(ctx, tx, collection)
	})
	if err != nil {
		return "", fmt.Errorf("insert %s: %w", collection, err)
	}
	s.broker.Publish(ctx, collection)
	return id, nil
}

func (s *PostgresStore) Get(ctx context.Context, collection, id string) (Document, error) {
	const q = `SELECT data FROM documents WHERE namespace = $1 AND collection = $2 AND id = $3`
	var raw []byte
	err := s.db.QueryRowContext(ctx, q, s.namespace, collection, id).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Document{}, fmt.Errorf("%s/%s: %w", collection, id, ErrNotFound)
		}
		return Document{}, err
	}
	fields := map[string]any{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return Document{}, fmt.Errorf("decode %s/%s: %w", collection, id, err)
	}
	return Document{ID: id, Fields: fields}, nil
}

func (s *PostgresStore) Update(ctx context.Context, collection, id string, partial map[string]any) error {
	norm, err := normalize(partial)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(norm)
	if err != nil {
		return err
	}
	const q = `UPDATE documents SET data = data || $4::jsonb
		WHERE namespace = $1 AND collection = $2 AND id = $3`
	return s.exec(ctx, collection, id, q, string(raw))
}

func (s *PostgresStore) SetUnion(ctx context.Context, collection, id, field, value string) error {
	const q = `UPDATE documents SET data = jsonb_set(
			data,
			ARRAY[$4::text],
			CASE WHEN COALESCE(data->($4::text), '[]'::jsonb) @> to_jsonb($5::text)
				THEN COALESCE(data->($4::text), '[]'::jsonb)
				ELSE COALESCE(data->($4::text), '[]'::jsonb) || to_jsonb($5::text)
			END,
			true)
		WHERE namespace = $1 AND collection = $2 AND id = $3`
	return s.exec(ctx, collection, id, q, field, value)
}

func (s *PostgresStore) SetRemove(ctx context.Context, collection, id, field, value string) error {
	const q = `UPDATE documents SET data = jsonb_set(data, ARRAY[$4::text], COALESCE(data->($4::text), '[]'::jsonb) - $5::text, true)
		WHERE namespace = $1 AND collection = $2 AND id = $3`
	return s.exec(ctx, collection, id, q, field, value)
}

// exec runs a single-row update and fails with ErrNotFound when no row matched.
func (s *PostgresStore) exec(ctx context.Context, collection, id, q string, args ...any) error {
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, q, append([]any{s.namespace, collection, id}, args...)...)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("%s/%s: %w", collection, id, ErrNotFound)
		}
		return s.notify(ctx, tx, collection)
	})
	if err != nil {
		return err
	}
	s.broker.Publish(ctx, collection)
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, collection, id string) error {
	return s.DeleteAll(ctx, []Ref{{Collection: collection, ID: id}})
}

func (s *PostgresStore) DeleteAll(ctx context.Context, refs []Ref) error {
	if len(refs) == 0 {
		return nil
	}
	collections := uniqueCollections(refs)
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `DELETE FROM documents WHERE namespace = $1 AND collection = $2 AND id = $3`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, r := range refs {
			if _, err := stmt.ExecContext(ctx, s.namespace, r.Collection, r.ID); err != nil {
				return fmt.Errorf("delete %s/%s: %w", r.Collection, r.ID, err)
			}
		}
		for _, c := range collections {
			if err := s.notify(ctx, tx, c); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.broker.Publish(ctx, collections...)
	return nil
}

func (s *PostgresStore) GetAll(ctx context.Context, collection string, filter Filter) ([]Document, error) {
	q := `SELECT id, data FROM documents WHERE namespace = $1 AND collection = $2`
	args := []any{s.namespace, collection}
	switch {
	case filter.Field == "":
	case filter.Op == OpEq:
		q += ` AND data @> jsonb_build_object($3::text, $4::text)`
		args = append(args, filter.Field, filter.Value)
	case filter.Op == OpContains:
		q += ` AND data @> jsonb_build_object($3::text, jsonb_build_array($4::text))`
		args = append(args, filter.Field, filter.Value)
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
		var (
			id  string
			raw []byte
		)
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, err
		}
		fields := map[string]any{}
		if err := json.Unmarshal(raw, &fields); err != nil {
			return nil, fmt.Errorf("decode %s/%s: %w", collection, id, err)
		}
		out = append(out, Document{ID: id, Fields: fields})
	}
	return out, rows.Err()
}

func (s *PostgresStore) Subscribe(ctx context.Context, collection string, filter Filter) (*Subscription, error) {
	return s.broker.Subscribe(ctx, collection, filter)
}

// Listen pumps NOTIFY messages from other instances into the local broker
// until ctx is done.
func (s *PostgresStore) Listen(ctx context.Context) error {
	listener := pq.NewListener(s.dsn, time.Second, time.Minute, func(ev pq.ListenerEventType, err error) {
		if err != nil {
			log.Printf("[docstore][listen][err] event=%d: %v", ev, err)
		}
	})
	defer listener.Close()

	if err := listener.Listen(notifyChannel); err != nil {
		return fmt.Errorf("listen %s: %w", notifyChannel, err)
	}
	log.Printf("[docstore][listen] channel=%s instance=%s", notifyChannel, s.instance)

	for {
		select {
		case <-ctx.Done():
			return nil
		case n := <-listener.Notify:
			if n == nil {
				// connection was re-established; notifications may be lost
				s.broker.PublishAll(ctx)
				continue
			}
			instance, path, ok := strings.Cut(n.Extra, "|")
			if !ok || instance == s.instance {
				continue
			}
			i := strings.LastIndex(path, "/")
			if i < 0 || path[:i] != s.namespace {
				continue
			}
			s.broker.Publish(ctx, path[i+1:])
		case <-time.After(90 * time.Second):
			if err := listener.Ping(); err != nil {
				log.Printf("[docstore][listen][ping][err] %v", err)
			}
		}
	}
}

func (s *PostgresStore) Close() error {
	s.broker.Close()
	return s.db.Close()
}

func (s *PostgresStore) notify(ctx context.Context, tx *sql.Tx, collection string) error {
	payload := s.instance + "|" + s.namespace + "/" + collection
	_, err := tx.ExecContext(ctx, `SELECT pg_notify($1, $2)`, notifyChannel, payload)
	return err
}

func (s *PostgresStore) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}
