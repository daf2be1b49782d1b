package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/diagnosis/turneja/pkg/logger"
)

type Publisher interface {
	Publish(ctx context.Context, subject string, data interface{}) error
	Close() error
}

type NATSPublisher struct {
	conn *nats.Conn
}

func NewNATSPublisher(url string) (*NATSPublisher, error) {
	conn, err := nats.Connect(url, nats.Name("turneja-api"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return &NATSPublisher{conn: conn}, nil
}

func (n *NATSPublisher) Publish(ctx context.Context, subject string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}

	logger.DebugContext(ctx, "Publishing event", "subject", subject, "bytes", len(payload))

	return n.conn.Publish(subject, payload)
}

func (n *NATSPublisher) Close() error {
	if err := n.conn.Drain(); err != nil {
		n.conn.Close()
		return err
	}
	return nil
}

// Nop discards every event. Used when no NATS_URL is configured.
type Nop struct{}

func (Nop) Publish(context.Context, string, interface{}) error { return nil }
func (Nop) Close() error                                       { return nil }

const (
	BookingCreated       = "booking.created"
	RoomStatusChanged    = "room.status.changed"
	RoomOrphaned         = "room.orphaned"
	PaymentIntentCreated = "payment.intent.created"
	UserHostRequested    = "user.host.requested"
	UserRoleChanged      = "user.role.changed"
)

type BookingCreatedEvent struct {
	BookingID  string    `json:"booking_id"`
	RoomID     string    `json:"room_id"`
	GuestEmail string    `json:"guest_email"`
	HostEmail  string    `json:"host_email"`
	Price      float64   `json:"price"`
	CreatedAt  time.Time `json:"created_at"`
}

type RoomStatusChangedEvent struct {
	RoomID    string    `json:"room_id"`
	Booked    bool      `json:"booked"`
	Modified  bool      `json:"modified"`
	ChangedAt time.Time `json:"changed_at"`
}

type RoomOrphanedEvent struct {
	RoomID     string    `json:"room_id"`
	HostEmail  string    `json:"host_email"`
	DetectedAt time.Time `json:"detected_at"`
}

// PaymentIntentCreatedEvent never carries the client secret.
type PaymentIntentCreatedEvent struct {
	IntentID string `json:"intent_id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

type UserEvent struct {
	Email  string    `json:"email"`
	Role   string    `json:"role,omitempty"`
	Status string    `json:"status,omitempty"`
	At     time.Time `json:"at"`
}
