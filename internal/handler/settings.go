package handler

import (
	"net/http"

	"github.com/templui/tasktracker/internal/ctxkeys"
	"github.com/templui/tasktracker/internal/service"
)

type SettingsHandler struct {
	apiKeyService *service.APIKeyService
}

func NewSettingsHandler(apiKeyService *service.APIKeyService) *SettingsHandler {
	return &SettingsHandler{
		apiKeyService: apiKeyService,
	}
}

// APIKey reports whether a key is configured. With ?validate=true the
// stored key is also checked against the provider.
func (h *SettingsHandler) APIKey(w http.ResponseWriter, r *http.Request) {
	profileID := ctxkeys.ProfileID(r.Context())

	status, err := h.apiKeyService.Status(profileID)
	if err != nil {
		handleError(w, r, err, "load api key")
		return
	}

	if r.URL.Query().Get("validate") == "true" && status.Source == service.KeySourceProfile {
		valid, err := h.apiKeyService.Validate(r.Context(), profileID)
		if err != nil {
			handleError(w, r, err, "validate api key")
			return
		}
		status.Valid = &valid
	}

	writeJSON(w, http.StatusOK, status)
}

func (h *SettingsHandler) SetAPIKey(w http.ResponseWriter, r *http.Request) {
	profileID := ctxkeys.ProfileID(r.Context())

	var req struct {
		APIKey string `json:"apiKey"`
	}
	err := decodeJSON(w, r, &req)
	if err != nil {
		handleError(w, r, err, "save api key")
		return
	}

	valid, err := h.apiKeyService.Set(r.Context(), profileID, req.APIKey)
	if err != nil {
		handleError(w, r, err, "save api key")
		return
	}

	status, err := h.apiKeyService.Status(profileID)
	if err != nil {
		handleError(w, r, err, "load api key")
		return
	}
	status.Valid = &valid
	writeJSON(w, http.StatusOK, status)
}

func (h *SettingsHandler) ClearAPIKey(w http.ResponseWriter, r *http.Request) {
	err := h.apiKeyService.Clear(ctxkeys.ProfileID(r.Context()))
	if err != nil {
		handleError(w, r, err, "clear api key")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
