package handlers

import (
	"net/http"

	"github.com/diagnosis/turneja/internal/domain"
	"github.com/diagnosis/turneja/internal/http/response"
)

func (h *Handlers) createPaymentIntent(w http.ResponseWriter, r *http.Request) {
	var in domain.PaymentIntentRequest
	if !decodeJSON(w, r, &in, false) {
		return
	}

	resp, err := h.payments.CreateIntent(r.Context(), in.Price)
	if err != nil {
		fail(w, r, "create payment intent", err)
		return
	}
	response.JSON(w, http.StatusOK, resp)
}

func (h *Handlers) createBooking(w http.ResponseWriter, r *http.Request) {
	var b domain.Booking
	if !decodeJSON(w, r, &b, false) {
		return
	}

	res, err := h.bookings.Create(r.Context(), b)
	if err != nil {
		fail(w, r, "create booking", err)
		return
	}
	response.JSON(w, http.StatusOK, res)
}

func (h *Handlers) listGuestBookings(w http.ResponseWriter, r *http.Request) {
	bookings, err := h.bookings.ListForGuest(r.Context(), r.URL.Query().Get("email"))
	if err != nil {
		fail(w, r, "list guest bookings", err)
		return
	}
	response.JSON(w, http.StatusOK, bookings)
}

func (h *Handlers) listHostBookings(w http.ResponseWriter, r *http.Request) {
	bookings, err := h.bookings.ListForHost(r.Context(), r.URL.Query().Get("email"))
	if err != nil {
		fail(w, r, "list host bookings", err)
		return
	}
	response.JSON(w, http.StatusOK, bookings)
}

type reconcileResponse struct {
	Orphaned []domain.Room `json:"orphaned"`
}

// reconcile lists booked rooms without a booking and reports them.
func (h *Handlers) reconcile(w http.ResponseWriter, r *http.Request) {
	rooms, err := h.bookings.FindOrphanedRooms(r.Context())
	if err != nil {
		fail(w, r, "reconcile", err)
		return
	}
	response.JSON(w, http.StatusOK, reconcileResponse{Orphaned: rooms})
}
