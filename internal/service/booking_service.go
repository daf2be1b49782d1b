package service

import (
	"context"
	"fmt"
	"time"

	"github.com/diagnosis/turneja/internal/domain"
	"github.com/diagnosis/turneja/internal/repository"
	"github.com/diagnosis/turneja/internal/store"
	"github.com/diagnosis/turneja/pkg/events"
	"github.com/diagnosis/turneja/pkg/logger"
)

type BookingService interface {
	Create(ctx context.Context, b domain.Booking) (store.InsertResult, error)
	ListForGuest(ctx context.Context, email string) ([]domain.Booking, error)
	ListForHost(ctx context.Context, email string) ([]domain.Booking, error)
	FindOrphanedRooms(ctx context.Context) ([]domain.Room, error)
}

type bookingService struct {
	bookings repository.BookingRepository
	rooms    repository.RoomRepository
	eventBus events.Publisher
	now      func() time.Time
}

func NewBookingService(bookings repository.BookingRepository, rooms repository.RoomRepository, eventBus events.Publisher) BookingService {
	return &bookingService{bookings: bookings, rooms: rooms, eventBus: eventBus, now: time.Now}
}

// Create records the booking as the client sent it. The room's booked flag
// is flipped by a separate call, so the two writes are not atomic; see
// FindOrphanedRooms.
func (s *bookingService) Create(ctx context.Context, b domain.Booking) (store.InsertResult, error) {
	if b == nil {
		return store.InsertResult{}, domain.Invalid("booking must be a JSON object")
	}
	createdAt := s.now().UTC()
	b.PrepareNew("", createdAt)

	res, err := s.bookings.Create(ctx, b)
	if err != nil {
		return store.InsertResult{}, fmt.Errorf("create booking: %w", err)
	}

	event := events.BookingCreatedEvent{
		BookingID:  b.ID(),
		RoomID:     b.RoomID(),
		GuestEmail: b.GuestEmail(),
		HostEmail:  b.HostEmail(),
		Price:      b.Price(),
		CreatedAt:  createdAt,
	}
	if err := s.eventBus.Publish(ctx, events.BookingCreated, event); err != nil {
		logger.ErrorContext(ctx, "Failed to publish booking created event", "error", err, "booking_id", b.ID())
	}
	logger.InfoContext(ctx, "Booking created", "booking_id", b.ID(), "room_id", b.RoomID())
	return res, nil
}

func (s *bookingService) ListForGuest(ctx context.Context, email string) ([]domain.Booking, error) {
	if email == "" {
		return []domain.Booking{}, nil
	}
	return s.bookings.ListByGuest(ctx, domain.NormalizeEmail(email))
}

func (s *bookingService) ListForHost(ctx context.Context, email string) ([]domain.Booking, error) {
	if email == "" {
		return []domain.Booking{}, nil
	}
	return s.bookings.ListByHost(ctx, domain.NormalizeEmail(email))
}

// FindOrphanedRooms returns rooms marked booked that no booking references,
// the residue of a failure between the status flip and the ledger insert.
func (s *bookingService) FindOrphanedRooms(ctx context.Context) ([]domain.Room, error) {
	booked, err := s.rooms.ListBooked(ctx)
	if err != nil {
		return nil, fmt.Errorf("list booked rooms: %w", err)
	}
	orphaned := []domain.Room{}
	if len(booked) == 0 {
		return orphaned, nil
	}

	referenced, err := s.bookings.BookedRoomIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list booked room ids: %w", err)
	}
	for _, room := range booked {
		if _, ok := referenced[room.ID()]; !ok {
			orphaned = append(orphaned, room)
		}
	}
	return orphaned, nil
}
