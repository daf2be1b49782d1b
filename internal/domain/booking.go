package domain

import "time"

// Booking is written once, as the guest sent it, and never revised. "host"
// holds the host's email.
type Booking map[string]any

// Filter paths used by the ledger queries.
const (
	FieldGuestEmail    = "guest.email"
	FieldHostEmail     = "host"
	FieldRoomID        = "roomId"
	FieldPrice         = "price"
	FieldTransactionID = "transactionId"
	FieldCreatedAt     = "createdAt"
)

func (b Booking) ID() string            { return stringAt(b, FieldID) }
func (b Booking) RoomID() string        { return stringAt(b, FieldRoomID) }
func (b Booking) GuestEmail() string    { return stringAt(b, FieldGuestEmail) }
func (b Booking) HostEmail() string     { return stringAt(b, FieldHostEmail) }
func (b Booking) TransactionID() string { return stringAt(b, FieldTransactionID) }

// Price accepts a number or a numeric string; anything else reads as zero.
func (b Booking) Price() float64 { return numberAt(b, FieldPrice) }

// PrepareNew stamps the server-owned fields of a new ledger entry.
func (b Booking) PrepareNew(id string, now time.Time) {
	b[FieldID] = id
	b[FieldCreatedAt] = now.UTC()
	normalizeEmailAt(b, FieldGuestEmail)
	normalizeEmailAt(b, FieldHostEmail)
}
