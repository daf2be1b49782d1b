// Package store is the narrow document-store surface the booking core talks
// to. Collections hold JSON-shaped documents addressed by "_id"; filters are
// equality matches over dotted field paths and updates are "$set" merges.
package store

import (
	"context"
	"errors"
)

const (
	ColUsers    = "users"
	ColRooms    = "rooms"
	ColBookings = "bookings"
)

var (
	ErrNotFound  = errors.New("store: document not found")
	ErrDuplicate = errors.New("store: duplicate key")
)

// Filter matches documents whose value at each dotted path equals the given
// value. An empty filter matches everything.
type Filter map[string]any

// Set assigns values at dotted paths, creating intermediate objects.
type Set map[string]any

type UpdateOptions struct {
	Upsert bool
}

type InsertResult struct {
	Acknowledged bool   `json:"acknowledged"`
	InsertedID   string `json:"insertedId"`
}

type UpdateResult struct {
	Acknowledged  bool    `json:"acknowledged"`
	MatchedCount  int64   `json:"matchedCount"`
	ModifiedCount int64   `json:"modifiedCount"`
	UpsertedCount int64   `json:"upsertedCount"`
	UpsertedID    *string `json:"upsertedId"`
}

type Collection interface {
	// FindOne decodes the first match into out or returns ErrNotFound.
	FindOne(ctx context.Context, filter Filter, out any) error
	// Find decodes every match into out, which must point to a slice.
	Find(ctx context.Context, filter Filter, out any) error
	InsertOne(ctx context.Context, doc any) (InsertResult, error)
	// UpdateOne applies set to the first match. With Upsert and no match a
	// new document is built from the filter's equality fields plus set.
	UpdateOne(ctx context.Context, filter Filter, set Set, opts UpdateOptions) (UpdateResult, error)
}

// Store is opened once at process start and shared by every request.
type Store interface {
	Collection(name string) Collection
	// NewID returns an identifier in the backend's native format.
	NewID() string
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}
