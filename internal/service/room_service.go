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

type RoomService interface {
	List(ctx context.Context) ([]domain.Room, error)
	ListByHost(ctx context.Context, email string) ([]domain.Room, error)
	Get(ctx context.Context, id string) (domain.Room, error)
	Create(ctx context.Context, room domain.Room) (store.InsertResult, error)
	SetBookedStatus(ctx context.Context, id string, booked bool) (store.UpdateResult, error)
}

type roomService struct {
	rooms    repository.RoomRepository
	eventBus events.Publisher
	now      func() time.Time
}

func NewRoomService(rooms repository.RoomRepository, eventBus events.Publisher) RoomService {
	return &roomService{rooms: rooms, eventBus: eventBus, now: time.Now}
}

func (s *roomService) List(ctx context.Context) ([]domain.Room, error) {
	return s.rooms.List(ctx)
}

// ListByHost filters on the supplied email. Callers gate on the host role
// only; ownership of email is not checked.
func (s *roomService) ListByHost(ctx context.Context, email string) ([]domain.Room, error) {
	return s.rooms.ListByHost(ctx, domain.NormalizeEmail(email))
}

func (s *roomService) Get(ctx context.Context, id string) (domain.Room, error) {
	if id == "" {
		return nil, nil
	}
	return s.rooms.GetByID(ctx, id)
}

// Create stores the payload as given, except that the store assigns the id
// and a new room always starts available.
func (s *roomService) Create(ctx context.Context, room domain.Room) (store.InsertResult, error) {
	if room == nil {
		return store.InsertResult{}, domain.Invalid("room must be a JSON object")
	}
	room.PrepareNew("")

	res, err := s.rooms.Create(ctx, room)
	if err != nil {
		return store.InsertResult{}, fmt.Errorf("create room: %w", err)
	}
	logger.InfoContext(ctx, "Room created", "room_id", room.ID(), "host", room.HostEmail())
	return res, nil
}

// SetBookedStatus is idempotent: repeating a status reports a match with no
// modification.
func (s *roomService) SetBookedStatus(ctx context.Context, id string, booked bool) (store.UpdateResult, error) {
	res, err := s.rooms.SetBooked(ctx, id, booked)
	if err != nil {
		return store.UpdateResult{}, fmt.Errorf("set room status: %w", err)
	}
	if res.MatchedCount == 0 {
		logger.WarnContext(ctx, "Room status update matched nothing", "room_id", id)
		return res, nil
	}

	event := events.RoomStatusChangedEvent{
		RoomID:    id,
		Booked:    booked,
		Modified:  res.ModifiedCount > 0,
		ChangedAt: s.now().UTC(),
	}
	if err := s.eventBus.Publish(ctx, events.RoomStatusChanged, event); err != nil {
		logger.ErrorContext(ctx, "Failed to publish room status event", "error", err, "room_id", id)
	}
	return res, nil
}
