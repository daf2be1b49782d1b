package memstore

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diagnosis/turneja/internal/store"
)

type room struct {
	ID     string `json:"_id"`
	Booked bool   `json:"booked"`
	Host   struct {
		Email string `json:"email"`
	} `json:"host"`
}

var _ store.Store = (*Store)(nil)

func TestCollection_InsertFindUpdate(t *testing.T) {
	ctx := context.Background()
	col := New().Collection(store.ColRooms)

	r := room{ID: "r1"}
	r.Host.Email = "h@example.com"
	res, err := col.InsertOne(ctx, r)
	require.NoError(t, err)
	assert.Equal(t, store.InsertResult{Acknowledged: true, InsertedID: "r1"}, res)

	_, err = col.InsertOne(ctx, r)
	assert.ErrorIs(t, err, store.ErrDuplicate)

	var got room
	require.NoError(t, col.FindOne(ctx, store.Filter{"_id": "r1"}, &got))
	assert.Equal(t, "h@example.com", got.Host.Email)

	err = col.FindOne(ctx, store.Filter{"_id": "nope"}, &got)
	assert.ErrorIs(t, err, store.ErrNotFound)

	upd, err := col.UpdateOne(ctx, store.Filter{"_id": "r1"}, store.Set{"booked": true}, store.UpdateOptions{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), upd.MatchedCount)
	assert.Equal(t, int64(1), upd.ModifiedCount)

	upd, err = col.UpdateOne(ctx, store.Filter{"_id": "r1"}, store.Set{"booked": true}, store.UpdateOptions{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), upd.MatchedCount)
	assert.Zero(t, upd.ModifiedCount)

	var all []room
	require.NoError(t, col.Find(ctx, store.Filter{"host.email": "h@example.com"}, &all))
	require.Len(t, all, 1)
	assert.True(t, all[0].Booked)
}

func TestCollection_FindEmptyYieldsEmptySlice(t *testing.T) {
	var out []room
	require.NoError(t, New().Collection("x").Find(context.Background(), store.Filter{}, &out))
	assert.NotNil(t, out)
	assert.Empty(t, out)
}

func TestCollection_Upsert(t *testing.T) {
	ctx := context.Background()
	col := New().Collection(store.ColUsers)

	upd, err := col.UpdateOne(ctx, store.Filter{"email": "a@example.com"}, store.Set{"role": "guest"}, store.UpdateOptions{Upsert: true})
	require.NoError(t, err)
	assert.Equal(t, int64(1), upd.UpsertedCount)
	require.NotNil(t, upd.UpsertedID)

	var doc map[string]any
	require.NoError(t, col.FindOne(ctx, store.Filter{"email": "a@example.com"}, &doc))
	assert.Equal(t, "guest", doc["role"])
	assert.Equal(t, *upd.UpsertedID, doc["_id"])

	upd, err = col.UpdateOne(ctx, store.Filter{"email": "missing@example.com"}, store.Set{"role": "guest"}, store.UpdateOptions{})
	require.NoError(t, err)
	assert.Zero(t, upd.MatchedCount)
	assert.Zero(t, upd.UpsertedCount)
}

func TestCollection_ConcurrentInserts(t *testing.T) {
	ctx := context.Background()
	col := New().Collection(store.ColBookings)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := col.InsertOne(ctx, map[string]any{"host": "h@example.com"})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	var out []map[string]any
	require.NoError(t, col.Find(ctx, store.Filter{"host": "h@example.com"}, &out))
	assert.Len(t, out, 50)
}

func TestCollection_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New().Collection("x").InsertOne(ctx, map[string]any{})
	assert.ErrorIs(t, err, context.Canceled)
}
