package service

import (
	"context"
	"time"

	"github.com/diagnosis/turneja/pkg/events"
	"github.com/diagnosis/turneja/pkg/logger"
)

// Reconciler periodically reports orphaned rooms. It never changes a room;
// releasing one is left to an operator.
type Reconciler struct {
	bookings BookingService
	eventBus events.Publisher
	now      func() time.Time
}

func NewReconciler(bookings BookingService, eventBus events.Publisher) *Reconciler {
	return &Reconciler{bookings: bookings, eventBus: eventBus, now: time.Now}
}

// Run sweeps every interval until ctx is done.
func (r *Reconciler) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := r.Sweep(ctx); err != nil {
				logger.ErrorContext(ctx, "Reconcile sweep failed", "error", err)
			}
		}
	}
}

// Sweep runs one pass and returns how many orphaned rooms it reported.
func (r *Reconciler) Sweep(ctx context.Context) (int, error) {
	rooms, err := r.bookings.FindOrphanedRooms(ctx)
	if err != nil {
		return 0, err
	}
	for _, room := range rooms {
		logger.WarnContext(ctx, "Room booked without a booking record", "room_id", room.ID(), "host", room.HostEmail())
		event := events.RoomOrphanedEvent{RoomID: room.ID(), HostEmail: room.HostEmail(), DetectedAt: r.now().UTC()}
		if err := r.eventBus.Publish(ctx, events.RoomOrphaned, event); err != nil {
			logger.ErrorContext(ctx, "Failed to publish orphaned room event", "error", err, "room_id", room.ID())
		}
	}
	return len(rooms), nil
}
