package mongostore

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/diagnosis/turneja/internal/domain"
	"github.com/diagnosis/turneja/internal/store"
)

// testStore connects to a throwaway database and skips when MongoDB is not
// reachable.
func testStore(t *testing.T) *Store {
	t.Helper()

	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		uri = "mongodb://localhost:27017"
	}

	ctx := context.Background()
	s, err := NewStore(ctx, uri, "turneja_test")
	if err != nil {
		t.Skipf("MongoDB not available: %v", err)
	}
	require.NoError(t, s.db.Drop(ctx))
	require.NoError(t, s.ensureIndexes(ctx))

	t.Cleanup(func() {
		s.db.Drop(context.Background())
		s.Close(context.Background())
	})
	return s
}

var _ store.Store = (*Store)(nil)

func TestRoomLifecycle(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	rooms := s.Collection(store.ColRooms)

	room := domain.Room{"_id": s.NewID(), "location": "Dhaka", "price": "80", "beds": 2, "host": map[string]any{"email": "h@example.com"}}
	res, err := rooms.InsertOne(ctx, room)
	require.NoError(t, err)
	assert.Equal(t, room.ID(), res.InsertedID)

	for i := 0; i < 2; i++ {
		upd, err := rooms.UpdateOne(ctx, store.Filter{"_id": room.ID()}, store.Set{"booked": true}, store.UpdateOptions{})
		require.NoError(t, err)
		assert.Equal(t, int64(1), upd.MatchedCount)
	}

	var got domain.Room
	require.NoError(t, rooms.FindOne(ctx, store.Filter{"_id": room.ID()}, &got))
	assert.True(t, got.Booked())
	assert.Equal(t, "80", got["price"])
	assert.Equal(t, float64(2), got["beds"])

	var list []domain.Room
	require.NoError(t, rooms.Find(ctx, store.Filter{"host.email": "h@example.com"}, &list))
	require.Len(t, list, 1)
	assert.Equal(t, "h@example.com", list[0].HostEmail())

	err = rooms.FindOne(ctx, store.Filter{"_id": "missing"}, &got)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestObjectIDDocumentsFromOtherClients(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	oid := bson.NewObjectID()
	_, err := s.db.Collection(store.ColRooms).InsertOne(ctx, bson.D{
		{Key: "_id", Value: oid},
		{Key: "location", Value: "Khulna"},
		{Key: "host", Value: bson.D{{Key: "email", Value: "h@example.com"}}},
	})
	require.NoError(t, err)
	_, err = s.db.Collection(store.ColUsers).InsertOne(ctx, bson.D{
		{Key: "_id", Value: bson.NewObjectID()},
		{Key: "email", Value: "legacy@example.com"},
		{Key: "role", Value: "admin"},
		{Key: "timestamp", Value: float64(1718000000000)},
	})
	require.NoError(t, err)

	rooms := s.Collection(store.ColRooms)
	var got domain.Room
	require.NoError(t, rooms.FindOne(ctx, store.Filter{"_id": oid.Hex()}, &got))
	assert.Equal(t, oid.Hex(), got.ID())
	assert.Equal(t, "h@example.com", got.HostEmail())

	upd, err := rooms.UpdateOne(ctx, store.Filter{"_id": oid.Hex()}, store.Set{"booked": true}, store.UpdateOptions{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), upd.MatchedCount)

	var u domain.User
	require.NoError(t, s.Collection(store.ColUsers).FindOne(ctx, store.Filter{"email": "legacy@example.com"}, &u))
	assert.Len(t, u.ID, 24)
	assert.Equal(t, domain.RoleAdmin, u.Role)
	assert.Equal(t, int64(1718000000000), u.Timestamp)
}

func TestPlain_FlattensBSON(t *testing.T) {
	oid := bson.NewObjectID()
	at := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	raw, err := bson.Marshal(bson.D{
		{Key: "_id", Value: oid},
		{Key: "email", Value: "legacy@example.com"},
		{Key: "role", Value: "host"},
		{Key: "host", Value: bson.D{{Key: "email", Value: "h@example.com"}}},
		{Key: "images", Value: bson.A{"a.png", oid}},
		{Key: "from", Value: bson.NewDateTimeFromTime(at)},
	})
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, bson.Unmarshal(raw, &doc))
	flat := plain(doc).(map[string]any)

	assert.Equal(t, oid.Hex(), flat["_id"])
	assert.Equal(t, map[string]any{"email": "h@example.com"}, flat["host"])
	assert.Equal(t, []any{"a.png", oid.Hex()}, flat["images"])
	assert.Equal(t, at, flat["from"])

	var u domain.User
	require.NoError(t, store.DecodeInto(flat, &u))
	assert.Equal(t, oid.Hex(), u.ID)
	assert.Equal(t, domain.RoleHost, u.Role)

	var room domain.Room
	require.NoError(t, store.DecodeInto(flat, &room))
	assert.Equal(t, oid.Hex(), room.ID())
	assert.Equal(t, "h@example.com", room.HostEmail())
}

func TestToFilter_MatchesBothIDForms(t *testing.T) {
	oid := bson.NewObjectID()

	d := toFilter(store.Filter{"_id": oid.Hex(), "booked": true})
	assert.Equal(t, bson.D{
		{Key: "_id", Value: bson.D{{Key: "$in", Value: bson.A{oid, oid.Hex()}}}},
		{Key: "booked", Value: true},
	}, d)

	d = toFilter(store.Filter{"_id": "6f1c1c5e-uuid"})
	assert.Equal(t, bson.D{{Key: "_id", Value: "6f1c1c5e-uuid"}}, d)
}

func TestUserUpsertUsesStringIDs(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	users := s.Collection(store.ColUsers)

	upd, err := users.UpdateOne(ctx, store.Filter{"email": "a@example.com"}, store.Set{"role": "guest"}, store.UpdateOptions{Upsert: true})
	require.NoError(t, err)
	require.NotNil(t, upd.UpsertedID)

	var u domain.User
	require.NoError(t, users.FindOne(ctx, store.Filter{"email": "a@example.com"}, &u))
	assert.Equal(t, *upd.UpsertedID, u.ID)
	assert.Equal(t, domain.RoleGuest, u.Role)

	_, err = users.InsertOne(ctx, domain.User{ID: s.NewID(), Email: "a@example.com"})
	assert.ErrorIs(t, err, store.ErrDuplicate)
}
