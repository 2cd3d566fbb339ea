package handler

import (
	"net/http"

	"github.com/templui/tasktracker/internal/ctxkeys"
	"github.com/templui/tasktracker/internal/model"
	"github.com/templui/tasktracker/internal/service"
)

type authResponse struct {
	State service.AuthState `json:"state"`
	User  *model.User       `json:"user"`
}

type AuthHandler struct {
	authService *service.AuthService
}

func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

func (h *AuthHandler) State(w http.ResponseWriter, r *http.Request) {
	state, user := h.authService.State(r.Context(), ctxkeys.ProfileID(r.Context()))
	writeJSON(w, http.StatusOK, authResponse{State: state, User: user})
}

// SignIn blocks for the provider's round trip, then returns the new state.
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	profileID := ctxkeys.ProfileID(r.Context())

	_, err := h.authService.SignIn(r.Context(), profileID, r.PathValue("provider"))
	if err != nil {
		handleError(w, r, err, "sign in")
		return
	}

	if isFormPost(r) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	state, user := h.authService.State(r.Context(), profileID)
	writeJSON(w, http.StatusOK, authResponse{State: state, User: user})
}

func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	profileID := ctxkeys.ProfileID(r.Context())

	err := h.authService.SignOut(r.Context(), profileID)
	if err != nil {
		handleError(w, r, err, "sign out")
		return
	}

	if isFormPost(r) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	state, user := h.authService.State(r.Context(), profileID)
	writeJSON(w, http.StatusOK, authResponse{State: state, User: user})
}
