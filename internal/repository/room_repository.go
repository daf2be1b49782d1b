package repository

import (
	"context"
	"errors"

	"github.com/diagnosis/turneja/internal/domain"
	"github.com/diagnosis/turneja/internal/store"
)

type RoomRepository interface {
	List(ctx context.Context) ([]domain.Room, error)
	ListByHost(ctx context.Context, email string) ([]domain.Room, error)
	ListBooked(ctx context.Context) ([]domain.Room, error)
	GetByID(ctx context.Context, id string) (domain.Room, error)
	Create(ctx context.Context, room domain.Room) (store.InsertResult, error)
	SetBooked(ctx context.Context, id string, booked bool) (store.UpdateResult, error)
}

type roomRepository struct {
	col   store.Collection
	newID func() string
}

func NewRoomRepository(s store.Store) RoomRepository {
	return &roomRepository{col: s.Collection(store.ColRooms), newID: s.NewID}
}

func (r *roomRepository) List(ctx context.Context) ([]domain.Room, error) {
	return r.find(ctx, store.Filter{})
}

func (r *roomRepository) ListByHost(ctx context.Context, email string) ([]domain.Room, error) {
	return r.find(ctx, store.Filter{domain.FieldRoomHost: email})
}

func (r *roomRepository) ListBooked(ctx context.Context) ([]domain.Room, error) {
	return r.find(ctx, store.Filter{domain.FieldBooked: true})
}

func (r *roomRepository) find(ctx context.Context, filter store.Filter) ([]domain.Room, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rooms := []domain.Room{}
	if err := r.col.Find(ctx, filter, &rooms); err != nil {
		return nil, err
	}
	return rooms, nil
}

// GetByID returns nil when no room has the id.
func (r *roomRepository) GetByID(ctx context.Context, id string) (domain.Room, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var room domain.Room
	err := r.col.FindOne(ctx, store.Filter{domain.FieldID: id}, &room)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return room, nil
}

// Create assigns an id when the caller left it empty.
func (r *roomRepository) Create(ctx context.Context, room domain.Room) (store.InsertResult, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	if room.ID() == "" {
		room[domain.FieldID] = r.newID()
	}
	return r.col.InsertOne(ctx, room)
}

func (r *roomRepository) SetBooked(ctx context.Context, id string, booked bool) (store.UpdateResult, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	return r.col.UpdateOne(ctx, store.Filter{domain.FieldID: id}, store.Set{domain.FieldBooked: booked}, store.UpdateOptions{})
}
