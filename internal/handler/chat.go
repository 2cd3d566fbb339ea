package handler

import (
	"net/http"

	"github.com/templui/tasktracker/internal/markdown"
	"github.com/templui/tasktracker/internal/model"
	"github.com/templui/tasktracker/internal/service"
	"github.com/templui/tasktracker/internal/ui"
)

type ChatHandler struct {
	workspaces       *service.WorkspaceService
	assistantService *service.AssistantService
	md               *markdown.Parser
}

func NewChatHandler(workspaces *service.WorkspaceService, assistantService *service.AssistantService, md *markdown.Parser) *ChatHandler {
	return &ChatHandler{
		workspaces:       workspaces,
		assistantService: assistantService,
		md:               md,
	}
}

func (h *ChatHandler) Messages(w http.ResponseWriter, r *http.Request) {
	messages, err := h.workspaces.Messages(namespace(r))
	if err != nil {
		handleError(w, r, err, "load chat")
		return
	}
	if messages == nil {
		messages = []model.ChatMessage{}
	}
	writeJSON(w, http.StatusOK, messages)
}

func (h *ChatHandler) Transcript(w http.ResponseWriter, r *http.Request) {
	messages, err := h.workspaces.Messages(namespace(r))
	if err != nil {
		handleError(w, r, err, "load chat")
		return
	}
	ui.Render(w, r, ui.Transcript(h.md, messages))
}

// Send stores the user's message and the assistant's reply. A failed
// generation is recorded in the transcript and still returns 200.
func (h *ChatHandler) Send(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Message string `json:"message"`
	}
	err := decodeJSON(w, r, &req)
	if err != nil {
		handleError(w, r, err, "send message")
		return
	}

	turn, err := h.assistantService.SendChatMessage(r.Context(), namespace(r), req.Message)
	if err != nil {
		handleError(w, r, err, "send message")
		return
	}
	writeJSON(w, http.StatusOK, turn)
}
