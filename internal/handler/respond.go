package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/templui/tasktracker/internal/assistant"
	"github.com/templui/tasktracker/internal/ctxkeys"
	"github.com/templui/tasktracker/internal/service"
	"github.com/templui/tasktracker/internal/tracker"
)

const maxBodyBytes = 10 << 20 // 10 MB, room for large backup files

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		slog.Error("failed to write json response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	err := json.NewDecoder(body).Decode(dst)
	if err != nil && !errors.Is(err, io.EOF) {
		return &tracker.ValidationError{Field: "body", Err: errors.New("request body must be valid JSON")}
	}
	return nil
}

// handleError maps domain errors to HTTP responses. Unknown errors are logged as 500.
func handleError(w http.ResponseWriter, r *http.Request, err error, action string) {
	var ve *tracker.ValidationError
	var pe *service.ParseError

	switch {
	case errors.As(err, &ve):
		writeError(w, http.StatusBadRequest, ve.Error())
	case errors.Is(err, tracker.ErrTaskNotFound):
		// Stale ids are ignored
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, service.ErrConfirmationRequired):
		writeError(w, http.StatusPreconditionRequired, "This action must be confirmed with confirm=true")
	case errors.As(err, &pe):
		slog.Warn("import rejected", "error", err, "profile_id", ctxkeys.ProfileID(r.Context()))
		writeError(w, http.StatusBadRequest, "Import failed: the file is not a valid backup")
	case assistant.IsGeneration(err):
		writeError(w, http.StatusBadGateway, "Failed to generate a response. Please try again.")
	case errors.Is(err, service.ErrAuthInProgress):
		writeError(w, http.StatusConflict, err.Error())
	default:
		slog.Error("failed to "+action, "error", err, "path", r.URL.Path, "profile_id", ctxkeys.ProfileID(r.Context()))
		writeError(w, http.StatusInternalServerError, "Failed to "+action)
	}
}

// namespace selects the snapshot for the request's profile and signed-in user.
func namespace(r *http.Request) service.Namespace {
	ns := service.Namespace{ProfileID: ctxkeys.ProfileID(r.Context())}
	if user := ctxkeys.User(r.Context()); user != nil {
		ns.UserID = user.ID
	}
	return ns
}

// isFormPost reports a plain HTML form submission, which gets a redirect
// back to the page instead of JSON.
func isFormPost(r *http.Request) bool {
	ct := r.Header.Get("Content-Type")
	return strings.HasPrefix(ct, "application/x-www-form-urlencoded") ||
		(ct == "" && strings.Contains(r.Header.Get("Accept"), "text/html"))
}

func confirmed(r *http.Request) bool {
	return r.URL.Query().Get("confirm") == "true"
}
