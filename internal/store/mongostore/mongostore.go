// Package mongostore implements store.Store on MongoDB through
// mongo-driver v2. Reads are flattened to their JSON shape before decoding,
// so ObjectID keys written by other clients surface as hex strings.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/diagnosis/turneja/internal/store"
	"github.com/diagnosis/turneja/pkg/logger"
)

type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

// NewStore connects, pings and ensures indexes on dbName.
func NewStore(ctx context.Context, uri, dbName string) (*Store, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri).SetBSONOptions(&options.BSONOptions{
		ObjectIDAsHexString: true,
		DefaultDocumentMap:  true,
	}))
	if err != nil {
		return nil, fmt.Errorf("mongostore: connect failed: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongostore: ping failed: %w", err)
	}

	s := &Store{client: client, db: client.Database(dbName)}
	if err := s.ensureIndexes(pingCtx); err != nil {
		logger.Warn("mongostore: ensure indexes failed", "error", err)
	}
	return s, nil
}

func (s *Store) Collection(name string) store.Collection {
	return &collection{col: s.db.Collection(name), newID: s.NewID}
}

func (s *Store) NewID() string {
	return bson.NewObjectID().Hex()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	type idx struct {
		col    string
		keys   bson.D
		unique bool
	}

	indexes := []idx{
		{store.ColUsers, bson.D{{Key: "email", Value: 1}}, true},
		{store.ColRooms, bson.D{{Key: "host.email", Value: 1}}, false},
		{store.ColRooms, bson.D{{Key: "booked", Value: 1}}, false},
		{store.ColBookings, bson.D{{Key: "guest.email", Value: 1}}, false},
		{store.ColBookings, bson.D{{Key: "host", Value: 1}}, false},
		{store.ColBookings, bson.D{{Key: "roomId", Value: 1}}, false},
	}

	for _, i := range indexes {
		model := mongo.IndexModel{Keys: i.keys}
		if i.unique {
			model.Options = options.Index().SetUnique(true)
		}
		if _, err := s.db.Collection(i.col).Indexes().CreateOne(ctx, model); err != nil {
			return fmt.Errorf("create index on %s: %w", i.col, err)
		}
	}
	return nil
}

type collection struct {
	col   *mongo.Collection
	newID func() string
}

func (c *collection) FindOne(ctx context.Context, filter store.Filter, out any) error {
	var doc map[string]any
	if err := c.col.FindOne(ctx, toFilter(filter)).Decode(&doc); err != nil {
		return wrapError(err)
	}
	return store.DecodeInto(plain(doc), out)
}

func (c *collection) Find(ctx context.Context, filter store.Filter, out any) error {
	cursor, err := c.col.Find(ctx, toFilter(filter))
	if err != nil {
		return wrapError(err)
	}
	docs := []map[string]any{}
	if err := cursor.All(ctx, &docs); err != nil {
		return err
	}
	flat := make([]any, len(docs))
	for i, doc := range docs {
		flat[i] = plain(doc)
	}
	return store.DecodeInto(flat, out)
}

func (c *collection) InsertOne(ctx context.Context, doc any) (store.InsertResult, error) {
	res, err := c.col.InsertOne(ctx, doc)
	if err != nil {
		return store.InsertResult{}, wrapError(err)
	}
	return store.InsertResult{Acknowledged: res.Acknowledged, InsertedID: idString(res.InsertedID)}, nil
}

func (c *collection) UpdateOne(ctx context.Context, filter store.Filter, set store.Set, opts store.UpdateOptions) (store.UpdateResult, error) {
	update := bson.D{{Key: "$set", Value: toD(set)}}
	if opts.Upsert {
		// string ids everywhere, never a driver-generated ObjectID
		update = append(update, bson.E{Key: "$setOnInsert", Value: bson.D{{Key: "_id", Value: c.newID()}}})
	}

	res, err := c.col.UpdateOne(ctx, toFilter(filter), update, options.UpdateOne().SetUpsert(opts.Upsert))
	if err != nil {
		return store.UpdateResult{}, wrapError(err)
	}

	out := store.UpdateResult{
		Acknowledged:  res.Acknowledged,
		MatchedCount:  res.MatchedCount,
		ModifiedCount: res.ModifiedCount,
		UpsertedCount: res.UpsertedCount,
	}
	if res.UpsertedID != nil {
		id := idString(res.UpsertedID)
		out.UpsertedID = &id
	}
	return out, nil
}

// toD turns a map into a bson.D with a stable key order.
func toD[M ~map[string]any](m M) bson.D {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	d := make(bson.D, 0, len(keys))
	for _, k := range keys {
		d = append(d, bson.E{Key: k, Value: m[k]})
	}
	return d
}

// toFilter matches "_id" in both its ObjectID and string forms, since rows
// created by other clients carry ObjectIDs and ours carry hex strings.
func toFilter(filter store.Filter) bson.D {
	d := toD(filter)
	for i, e := range d {
		if e.Key != "_id" {
			continue
		}
		s, ok := e.Value.(string)
		if !ok {
			continue
		}
		if oid, err := bson.ObjectIDFromHex(s); err == nil {
			d[i].Value = bson.D{{Key: "$in", Value: bson.A{oid, s}}}
		}
	}
	return d
}

// plain converts decoded BSON into the values encoding/json produces, so
// every driver hands the same document shape to callers.
func plain(v any) any {
	switch x := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, val := range x {
			out[k] = plain(val)
		}
		return out
	case bson.M:
		return plain(map[string]any(x))
	case bson.D:
		out := make(map[string]any, len(x))
		for _, e := range x {
			out[e.Key] = plain(e.Value)
		}
		return out
	case bson.A:
		return plain([]any(x))
	case []any:
		out := make([]any, len(x))
		for i, val := range x {
			out[i] = plain(val)
		}
		return out
	case bson.ObjectID:
		return x.Hex()
	case bson.DateTime:
		return x.Time().UTC()
	case bson.Decimal128:
		return x.String()
	case bson.Timestamp:
		return time.Unix(int64(x.T), 0).UTC()
	default:
		return x
	}
}

func idString(v any) string {
	switch id := v.(type) {
	case string:
		return id
	case bson.ObjectID:
		return id.Hex()
	default:
		return fmt.Sprint(v)
	}
}

func wrapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return store.ErrNotFound
	}
	if mongo.IsDuplicateKeyError(err) {
		return store.ErrDuplicate
	}
	return err
}
