package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/templui/tasktracker/internal/ctxkeys"
	"github.com/templui/tasktracker/internal/service"
	"github.com/templui/tasktracker/internal/tracker"
)

type DataHandler struct {
	workspaces *service.WorkspaceService
}

func NewDataHandler(workspaces *service.WorkspaceService) *DataHandler {
	return &DataHandler{
		workspaces: workspaces,
	}
}

func (h *DataHandler) Export(w http.ResponseWriter, r *http.Request) {
	export, err := h.workspaces.Export(r.Context(), namespace(r))
	if err != nil {
		handleError(w, r, err, "export data")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", "attachment; filename="+export.Filename)
	_, err = w.Write(export.Data)
	if err != nil {
		slog.Error("failed to write export", "error", err, "profile_id", ctxkeys.ProfileID(r.Context()))
	}
}

// Import replaces the workspace with an uploaded backup. The file comes from
// a multipart "file" field or the raw request body.
func (h *DataHandler) Import(w http.ResponseWriter, r *http.Request) {
	data, err := readUpload(w, r)
	if err != nil {
		handleError(w, r, err, "import data")
		return
	}

	ns := namespace(r)
	err = h.workspaces.Import(ns, data, confirmed(r))
	if err != nil {
		handleError(w, r, err, "import data")
		return
	}

	slog.Info("data imported", "namespace", ns.String(), "bytes", len(data))

	state, err := h.workspaces.State(ns)
	if err != nil {
		handleError(w, r, err, "load workspace")
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func readUpload(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		file, _, err := r.FormFile("file")
		if err != nil {
			return nil, &tracker.ValidationError{Field: "file", Err: errors.New("a backup file is required")}
		}
		defer file.Close()
		return io.ReadAll(file)
	}

	data, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, &tracker.ValidationError{Field: "file", Err: errors.New("backup file is too large")}
	}
	return data, nil
}

func (h *DataHandler) Wipe(w http.ResponseWriter, r *http.Request) {
	ns := namespace(r)
	err := h.workspaces.Wipe(ns, confirmed(r))
	if err != nil {
		handleError(w, r, err, "clear data")
		return
	}

	slog.Info("data cleared", "namespace", ns.String())
	w.WriteHeader(http.StatusNoContent)
}
