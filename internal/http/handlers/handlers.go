package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/diagnosis/turneja/internal/auth"
	"github.com/diagnosis/turneja/internal/domain"
	"github.com/diagnosis/turneja/internal/http/response"
	"github.com/diagnosis/turneja/internal/payment"
	"github.com/diagnosis/turneja/internal/service"
	"github.com/diagnosis/turneja/pkg/logger"
)

const maxBodyBytes = 1 << 20

type Handlers struct {
	tokens   *auth.TokenService
	users    service.UserService
	rooms    service.RoomService
	payments service.PaymentService
	bookings service.BookingService
}

func New(
	tokens *auth.TokenService,
	users service.UserService,
	rooms service.RoomService,
	payments service.PaymentService,
	bookings service.BookingService,
) *Handlers {
	return &Handlers{
		tokens:   tokens,
		users:    users,
		rooms:    rooms,
		payments: payments,
		bookings: bookings,
	}
}

// decodeJSON reads a JSON body into dst. An empty body leaves dst untouched
// when allowEmpty is set.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}, allowEmpty bool) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil || (allowEmpty && errors.Is(err, io.EOF)) {
		return true
	}
	response.BadRequest(w, "invalid json")
	return false
}

// fail maps a service error to a response. Validation errors carry their
// message to the client; everything else is an opaque 500.
func fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		response.BadRequest(w, err.Error())
	case errors.Is(err, payment.ErrNotConfigured):
		response.Unavailable(w, "payments are not configured")
	default:
		logger.ErrorContext(r.Context(), op+" failed", "error", err)
		response.InternalError(w)
	}
}
