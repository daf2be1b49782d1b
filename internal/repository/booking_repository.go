package repository

import (
	"context"

	"github.com/diagnosis/turneja/internal/domain"
	"github.com/diagnosis/turneja/internal/store"
)

type BookingRepository interface {
	Create(ctx context.Context, b domain.Booking) (store.InsertResult, error)
	ListByGuest(ctx context.Context, email string) ([]domain.Booking, error)
	ListByHost(ctx context.Context, email string) ([]domain.Booking, error)
	// BookedRoomIDs returns every room id referenced by the ledger.
	BookedRoomIDs(ctx context.Context) (map[string]struct{}, error)
}

type bookingRepository struct {
	col   store.Collection
	newID func() string
}

func NewBookingRepository(s store.Store) BookingRepository {
	return &bookingRepository{col: s.Collection(store.ColBookings), newID: s.NewID}
}

func (r *bookingRepository) Create(ctx context.Context, b domain.Booking) (store.InsertResult, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	if b.ID() == "" {
		b[domain.FieldID] = r.newID()
	}
	return r.col.InsertOne(ctx, b)
}

func (r *bookingRepository) ListByGuest(ctx context.Context, email string) ([]domain.Booking, error) {
	return r.find(ctx, store.Filter{domain.FieldGuestEmail: email})
}

func (r *bookingRepository) ListByHost(ctx context.Context, email string) ([]domain.Booking, error) {
	return r.find(ctx, store.Filter{domain.FieldHostEmail: email})
}

func (r *bookingRepository) BookedRoomIDs(ctx context.Context) (map[string]struct{}, error) {
	bookings, err := r.find(ctx, store.Filter{})
	if err != nil {
		return nil, err
	}
	ids := make(map[string]struct{}, len(bookings))
	for _, b := range bookings {
		if id := b.RoomID(); id != "" {
			ids[id] = struct{}{}
		}
	}
	return ids, nil
}

func (r *bookingRepository) find(ctx context.Context, filter store.Filter) ([]domain.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	bookings := []domain.Booking{}
	if err := r.col.Find(ctx, filter, &bookings); err != nil {
		return nil, err
	}
	return bookings, nil
}
