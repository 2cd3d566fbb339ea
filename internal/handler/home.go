package handler

import (
	"net/http"

	"github.com/templui/tasktracker/internal/ctxkeys"
	"github.com/templui/tasktracker/internal/markdown"
	"github.com/templui/tasktracker/internal/service"
	"github.com/templui/tasktracker/internal/ui"
)

type HomeHandler struct {
	workspaces  *service.WorkspaceService
	authService *service.AuthService
	md          *markdown.Parser
}

func NewHomeHandler(workspaces *service.WorkspaceService, authService *service.AuthService, md *markdown.Parser) *HomeHandler {
	return &HomeHandler{
		workspaces:  workspaces,
		authService: authService,
		md:          md,
	}
}

func (h *HomeHandler) HomePage(w http.ResponseWriter, r *http.Request) {
	ns := namespace(r)

	state, err := h.workspaces.State(ns)
	if err != nil {
		handleError(w, r, err, "load workspace")
		return
	}

	messages, err := h.workspaces.Messages(ns)
	if err != nil {
		handleError(w, r, err, "load chat")
		return
	}

	authState, user := h.authService.State(r.Context(), ns.ProfileID)

	appName := "Task Tracker"
	if cfg := ctxkeys.Config(r.Context()); cfg != nil {
		appName = cfg.AppName
	}

	ui.Render(w, r, ui.Home(h.md, ui.HomeView{
		AppName:   appName,
		AuthState: authState,
		User:      user,
		State:     state,
		Messages:  messages,
		CSRFToken: ctxkeys.CSRFToken(r.Context()),
	}))
}

func (h *HomeHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
