package domain

// Room is a listing document kept exactly as the host submitted it. The
// server owns only "_id" and "booked"; every other key round-trips untouched.
type Room map[string]any

type RoomStatusRequest struct {
	Status *bool `json:"status"`
}

const (
	FieldID       = "_id"
	FieldBooked   = "booked"
	FieldRoomHost = "host.email"
)

func (r Room) ID() string        { return stringAt(r, FieldID) }
func (r Room) HostEmail() string { return stringAt(r, FieldRoomHost) }

func (r Room) Booked() bool {
	b, _ := r[FieldBooked].(bool)
	return b
}

// PrepareNew applies the server-owned fields of a freshly created room.
func (r Room) PrepareNew(id string) {
	r[FieldID] = id
	r[FieldBooked] = false
	normalizeEmailAt(r, FieldRoomHost)
}
