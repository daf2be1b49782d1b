package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/diagnosis/turneja/internal/domain"
	"github.com/diagnosis/turneja/internal/http/response"
)

func (h *Handlers) saveUser(w http.ResponseWriter, r *http.Request) {
	var patch domain.UserPatch
	if !decodeJSON(w, r, &patch, true) {
		return
	}

	res, err := h.users.Save(r.Context(), chi.URLParam(r, "email"), patch)
	if err != nil {
		fail(w, r, "save user", err)
		return
	}
	if res.User != nil {
		response.JSON(w, http.StatusOK, res.User)
		return
	}
	response.JSON(w, http.StatusOK, res.Update)
}

func (h *Handlers) getUser(w http.ResponseWriter, r *http.Request) {
	u, err := h.users.Get(r.Context(), chi.URLParam(r, "email"))
	if err != nil {
		fail(w, r, "get user", err)
		return
	}
	response.JSON(w, http.StatusOK, u)
}

func (h *Handlers) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		fail(w, r, "list users", err)
		return
	}
	response.JSON(w, http.StatusOK, users)
}

func (h *Handlers) updateUserRole(w http.ResponseWriter, r *http.Request) {
	var patch domain.UserPatch
	if !decodeJSON(w, r, &patch, false) {
		return
	}

	res, err := h.users.UpdateRole(r.Context(), chi.URLParam(r, "email"), patch)
	if err != nil {
		fail(w, r, "update user role", err)
		return
	}
	response.JSON(w, http.StatusOK, res)
}
