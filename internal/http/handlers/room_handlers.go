package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/diagnosis/turneja/internal/domain"
	"github.com/diagnosis/turneja/internal/http/response"
)

func (h *Handlers) listRooms(w http.ResponseWriter, r *http.Request) {
	rooms, err := h.rooms.List(r.Context())
	if err != nil {
		fail(w, r, "list rooms", err)
		return
	}
	response.JSON(w, http.StatusOK, rooms)
}

func (h *Handlers) listHostRooms(w http.ResponseWriter, r *http.Request) {
	rooms, err := h.rooms.ListByHost(r.Context(), chi.URLParam(r, "email"))
	if err != nil {
		fail(w, r, "list host rooms", err)
		return
	}
	response.JSON(w, http.StatusOK, rooms)
}

// getRoom answers null for an unknown id.
func (h *Handlers) getRoom(w http.ResponseWriter, r *http.Request) {
	room, err := h.rooms.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		fail(w, r, "get room", err)
		return
	}
	response.JSON(w, http.StatusOK, room)
}

func (h *Handlers) createRoom(w http.ResponseWriter, r *http.Request) {
	// decoded as a document so unknown keys survive the round trip
	var room domain.Room
	if !decodeJSON(w, r, &room, false) {
		return
	}

	res, err := h.rooms.Create(r.Context(), room)
	if err != nil {
		fail(w, r, "create room", err)
		return
	}
	response.JSON(w, http.StatusOK, res)
}

func (h *Handlers) setRoomStatus(w http.ResponseWriter, r *http.Request) {
	var in domain.RoomStatusRequest
	if !decodeJSON(w, r, &in, false) {
		return
	}
	if in.Status == nil {
		response.BadRequest(w, "status is required")
		return
	}

	res, err := h.rooms.SetBookedStatus(r.Context(), chi.URLParam(r, "id"), *in.Status)
	if err != nil {
		fail(w, r, "set room status", err)
		return
	}
	response.JSON(w, http.StatusOK, res)
}
