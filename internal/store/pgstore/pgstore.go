// Package pgstore implements store.Store on a single PostgreSQL JSONB table.
// Equality filters become containment (@>) queries; updates read the row
// FOR UPDATE, merge in Go and write it back inside one transaction.
package pgstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/diagnosis/turneja/internal/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS documents (
	collection text        NOT NULL,
	id         text        NOT NULL,
	doc        jsonb       NOT NULL,
	created_at timestamptz NOT NULL DEFAULT now(),
	PRIMARY KEY (collection, id)
);
CREATE INDEX IF NOT EXISTS documents_doc_idx ON documents USING gin (doc jsonb_path_ops);
CREATE UNIQUE INDEX IF NOT EXISTS documents_user_email_idx ON documents ((doc->>'email')) WHERE collection = 'users';
`

type Store struct {
	pool *pgxpool.Pool
}

// New wraps an open pool and creates the documents table if needed.
func New(ctx context.Context, pool *pgxpool.Pool) (*Store, error) {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return nil, fmt.Errorf("pgstore: create schema: %w", err)
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Collection(name string) store.Collection {
	return &collection{pool: s.pool, name: name}
}

func (s *Store) NewID() string { return uuid.NewString() }

func (s *Store) Ping(ctx context.Context) error { return s.pool.Ping(ctx) }

func (s *Store) Close(context.Context) error {
	s.pool.Close()
	return nil
}

type collection struct {
	pool *pgxpool.Pool
	name string
}

func (c *collection) FindOne(ctx context.Context, filter store.Filter, out any) error {
	pattern, err := containment(filter)
	if err != nil {
		return err
	}
	const q = `SELECT doc FROM documents WHERE collection = $1 AND doc @> $2::jsonb ORDER BY created_at, id LIMIT 1`

	var raw []byte
	err = c.pool.QueryRow(ctx, q, c.name, pattern).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return store.ErrNotFound
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

func (c *collection) Find(ctx context.Context, filter store.Filter, out any) error {
	pattern, err := containment(filter)
	if err != nil {
		return err
	}
	const q = `SELECT doc FROM documents WHERE collection = $1 AND doc @> $2::jsonb ORDER BY created_at, id`

	rows, err := c.pool.Query(ctx, q, c.name, pattern)
	if err != nil {
		return err
	}
	defer rows.Close()

	docs := make([]string, 0)
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return err
		}
		docs = append(docs, string(raw))
	}
	if err := rows.Err(); err != nil {
		return err
	}
	return json.Unmarshal([]byte("["+strings.Join(docs, ",")+"]"), out)
}

func (c *collection) InsertOne(ctx context.Context, v any) (store.InsertResult, error) {
	doc, err := store.ToDocument(v)
	if err != nil {
		return store.InsertResult{}, err
	}
	id := store.DocumentID(doc)
	if id == "" {
		id = uuid.NewString()
		doc["_id"] = id
	}
	if err := insert(ctx, c.pool, c.name, id, doc); err != nil {
		return store.InsertResult{}, err
	}
	return store.InsertResult{Acknowledged: true, InsertedID: id}, nil
}

func (c *collection) UpdateOne(ctx context.Context, filter store.Filter, set store.Set, opts store.UpdateOptions) (store.UpdateResult, error) {
	res, err := c.updateOne(ctx, filter, set, opts)
	if opts.Upsert && errors.Is(err, store.ErrDuplicate) {
		// lost an upsert race; the winner's row now matches
		return c.updateOne(ctx, filter, set, store.UpdateOptions{})
	}
	return res, err
}

func (c *collection) updateOne(ctx context.Context, filter store.Filter, set store.Set, opts store.UpdateOptions) (store.UpdateResult, error) {
	pattern, err := containment(filter)
	if err != nil {
		return store.UpdateResult{}, err
	}

	res := store.UpdateResult{Acknowledged: true}
	err = pgx.BeginFunc(ctx, c.pool, func(tx pgx.Tx) error {
		const sel = `SELECT id, doc FROM documents WHERE collection = $1 AND doc @> $2::jsonb ORDER BY created_at, id LIMIT 1 FOR UPDATE`

		var (
			id  string
			raw []byte
		)
		err := tx.QueryRow(ctx, sel, c.name, pattern).Scan(&id, &raw)
		if errors.Is(err, pgx.ErrNoRows) {
			if !opts.Upsert {
				return nil
			}
			doc := store.Nest(filter)
			store.ApplySet(doc, set)
			newID := store.DocumentID(doc)
			if newID == "" {
				newID = uuid.NewString()
				doc["_id"] = newID
			}
			if err := insert(ctx, tx, c.name, newID, doc); err != nil {
				return err
			}
			res.UpsertedCount = 1
			res.UpsertedID = &newID
			return nil
		}
		if err != nil {
			return err
		}

		var doc store.Document
		if err := json.Unmarshal(raw, &doc); err != nil {
			return fmt.Errorf("pgstore: decode %s/%s: %w", c.name, id, err)
		}
		res.MatchedCount = 1
		if !store.ApplySet(doc, set) {
			return nil
		}
		encoded, err := json.Marshal(doc)
		if err != nil {
			return err
		}
		const upd = `UPDATE documents SET doc = $3::jsonb WHERE collection = $1 AND id = $2`
		if _, err := tx.Exec(ctx, upd, c.name, id, string(encoded)); err != nil {
			return wrapError(err)
		}
		res.ModifiedCount = 1
		return nil
	})
	if err != nil {
		return store.UpdateResult{}, err
	}
	return res, nil
}

type execer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

func insert(ctx context.Context, db execer, collection, id string, doc store.Document) error {
	encoded, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	const q = `INSERT INTO documents (collection, id, doc) VALUES ($1, $2, $3::jsonb)`
	_, err = db.Exec(ctx, q, collection, id, string(encoded))
	return wrapError(err)
}

func containment(filter store.Filter) (string, error) {
	raw, err := json.Marshal(store.Nest(filter))
	if err != nil {
		return "", fmt.Errorf("pgstore: encode filter: %w", err)
	}
	return string(raw), nil
}

func wrapError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return store.ErrDuplicate
	}
	return err
}
