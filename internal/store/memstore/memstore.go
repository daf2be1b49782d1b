// Package memstore is an in-process store.Store used by tests and by
// STORE_DRIVER=memory for local development. Documents live as JSON objects
// so behaviour matches the persistent drivers.
package memstore

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/diagnosis/turneja/internal/store"
)

type Store struct {
	mu   sync.Mutex
	cols map[string]*Collection
}

func New() *Store {
	return &Store{cols: make(map[string]*Collection)}
}

func (s *Store) Collection(name string) store.Collection {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cols[name]
	if !ok {
		c = &Collection{docs: make(map[string]store.Document), newID: s.NewID}
		s.cols[name] = c
	}
	return c
}

func (s *Store) NewID() string { return uuid.NewString() }

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close(context.Context) error { return nil }

// Collection keeps insertion order so Find results are stable.
type Collection struct {
	mu    sync.RWMutex
	order []string
	docs  map[string]store.Document
	newID func() string
}

func (c *Collection) FindOne(ctx context.Context, filter store.Filter, out any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, id := range c.order {
		if doc := c.docs[id]; store.Matches(doc, filter) {
			return store.DecodeInto(doc, out)
		}
	}
	return store.ErrNotFound
}

func (c *Collection) Find(ctx context.Context, filter store.Filter, out any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	matched := make([]store.Document, 0)
	for _, id := range c.order {
		if doc := c.docs[id]; store.Matches(doc, filter) {
			matched = append(matched, doc)
		}
	}
	return store.DecodeInto(matched, out)
}

func (c *Collection) InsertOne(ctx context.Context, v any) (store.InsertResult, error) {
	if err := ctx.Err(); err != nil {
		return store.InsertResult{}, err
	}
	doc, err := store.ToDocument(v)
	if err != nil {
		return store.InsertResult{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	id := store.DocumentID(doc)
	if id == "" {
		id = c.newID()
		doc["_id"] = id
	}
	if _, exists := c.docs[id]; exists {
		return store.InsertResult{}, store.ErrDuplicate
	}
	c.put(id, doc)
	return store.InsertResult{Acknowledged: true, InsertedID: id}, nil
}

func (c *Collection) UpdateOne(ctx context.Context, filter store.Filter, set store.Set, opts store.UpdateOptions) (store.UpdateResult, error) {
	if err := ctx.Err(); err != nil {
		return store.UpdateResult{}, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, id := range c.order {
		doc := c.docs[id]
		if !store.Matches(doc, filter) {
			continue
		}
		res := store.UpdateResult{Acknowledged: true, MatchedCount: 1}
		if store.ApplySet(doc, set) {
			res.ModifiedCount = 1
		}
		return res, nil
	}

	if !opts.Upsert {
		return store.UpdateResult{Acknowledged: true}, nil
	}

	doc := store.Nest(filter)
	store.ApplySet(doc, set)
	id := store.DocumentID(doc)
	if id == "" {
		id = c.newID()
		doc["_id"] = id
	}
	c.put(id, doc)
	return store.UpdateResult{Acknowledged: true, UpsertedCount: 1, UpsertedID: &id}, nil
}

func (c *Collection) put(id string, doc store.Document) {
	c.order = append(c.order, id)
	c.docs[id] = doc
}
