package handlers

import (
	"net/http"

	"github.com/diagnosis/turneja/internal/domain"
	"github.com/diagnosis/turneja/internal/http/response"
	"github.com/diagnosis/turneja/pkg/logger"
)

type tokenRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

type tokenResponse struct {
	Success bool         `json:"success"`
	User    *domain.User `json:"user,omitempty"`
	Message string       `json:"message,omitempty"`
}

// issueToken exchanges a registered email for the token cookie. Unknown
// emails get success=false so the client can route to registration.
func (h *Handlers) issueToken(w http.ResponseWriter, r *http.Request) {
	var in tokenRequest
	if !decodeJSON(w, r, &in, false) {
		return
	}

	token, user, err := h.tokens.Issue(r.Context(), in.Email, in.Name)
	if err != nil {
		fail(w, r, "issue token", err)
		return
	}
	if user == nil {
		response.JSON(w, http.StatusOK, tokenResponse{Success: false, Message: "User does not exist."})
		return
	}

	http.SetCookie(w, h.tokens.Cookie(token))
	logger.InfoContext(r.Context(), "Token issued", "email", user.Email)
	response.JSON(w, http.StatusOK, tokenResponse{Success: true, User: user})
}

func (h *Handlers) logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, h.tokens.Revoke())
	response.JSON(w, http.StatusOK, tokenResponse{Success: true})
}
