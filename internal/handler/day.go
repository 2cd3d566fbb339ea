package handler

import (
	"net/http"
	"time"

	"github.com/templui/tasktracker/internal/assistant"
	"github.com/templui/tasktracker/internal/markdown"
	"github.com/templui/tasktracker/internal/model"
	"github.com/templui/tasktracker/internal/service"
	"github.com/templui/tasktracker/internal/tracker"
	"github.com/templui/tasktracker/internal/ui"
)

type taskRequest struct {
	Title            string           `json:"title"`
	Description      string           `json:"description"`
	PlannedStartTime *model.Timestamp `json:"plannedStartTime"`
	PlannedEndTime   *model.Timestamp `json:"plannedEndTime"`
}

func (req taskRequest) input() tracker.TaskInput {
	return tracker.TaskInput{
		Title:        req.Title,
		Description:  req.Description,
		PlannedStart: timeOf(req.PlannedStartTime),
		PlannedEnd:   timeOf(req.PlannedEndTime),
	}
}

func timeOf(ts *model.Timestamp) *time.Time {
	if ts == nil || ts.IsZero() {
		return nil
	}
	t := ts.Time
	return &t
}

type DayHandler struct {
	workspaces       *service.WorkspaceService
	assistantService *service.AssistantService
	md               *markdown.Parser
}

func NewDayHandler(workspaces *service.WorkspaceService, assistantService *service.AssistantService, md *markdown.Parser) *DayHandler {
	return &DayHandler{
		workspaces:       workspaces,
		assistantService: assistantService,
		md:               md,
	}
}

func (h *DayHandler) State(w http.ResponseWriter, r *http.Request) {
	state, err := h.workspaces.State(namespace(r))
	if err != nil {
		handleError(w, r, err, "load workspace")
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (h *DayHandler) Navigate(w http.ResponseWriter, r *http.Request) {
	dir, err := tracker.ParseDirection(r.PathValue("direction"))
	if err != nil {
		handleError(w, r, err, "navigate")
		return
	}

	state, err := h.workspaces.Navigate(namespace(r), dir)
	if err != nil {
		handleError(w, r, err, "navigate")
		return
	}

	if isFormPost(r) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (h *DayHandler) Day(w http.ResponseWriter, r *http.Request) {
	log, err := h.workspaces.Day(namespace(r), r.PathValue("date"))
	if err != nil {
		handleError(w, r, err, "load day")
		return
	}
	writeJSON(w, http.StatusOK, log)
}

func (h *DayHandler) taskList(w http.ResponseWriter, r *http.Request) (model.TaskList, bool) {
	list, err := model.ParseTaskList(r.PathValue("list"))
	if err != nil {
		handleError(w, r, &tracker.ValidationError{Field: "list", Err: err}, "parse task list")
		return "", false
	}
	return list, true
}

func (h *DayHandler) AddTask(w http.ResponseWriter, r *http.Request) {
	list, ok := h.taskList(w, r)
	if !ok {
		return
	}

	var req taskRequest
	err := decodeJSON(w, r, &req)
	if err != nil {
		handleError(w, r, err, "add task")
		return
	}

	task, err := h.workspaces.AddTask(namespace(r), r.PathValue("date"), list, req.input())
	if err != nil {
		handleError(w, r, err, "add task")
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

func (h *DayHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	list, ok := h.taskList(w, r)
	if !ok {
		return
	}

	var req taskRequest
	err := decodeJSON(w, r, &req)
	if err != nil {
		handleError(w, r, err, "update task")
		return
	}

	task, err := h.workspaces.UpdateTask(namespace(r), r.PathValue("date"), list, r.PathValue("id"), req.input())
	if err != nil {
		handleError(w, r, err, "update task")
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (h *DayHandler) ToggleTask(w http.ResponseWriter, r *http.Request) {
	list, ok := h.taskList(w, r)
	if !ok {
		return
	}

	task, err := h.workspaces.ToggleTask(namespace(r), r.PathValue("date"), list, r.PathValue("id"))
	if err != nil {
		handleError(w, r, err, "toggle task")
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (h *DayHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	list, ok := h.taskList(w, r)
	if !ok {
		return
	}

	err := h.workspaces.DeleteTask(namespace(r), r.PathValue("date"), list, r.PathValue("id"), confirmed(r))
	if err != nil {
		handleError(w, r, err, "delete task")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *DayHandler) UpdateReflection(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Field string `json:"field"`
		Value string `json:"value"`
	}
	err := decodeJSON(w, r, &req)
	if err != nil {
		handleError(w, r, err, "update reflection")
		return
	}

	field, err := model.ParseReflectionField(req.Field)
	if err != nil {
		handleError(w, r, &tracker.ValidationError{Field: "field", Err: err}, "update reflection")
		return
	}

	log, err := h.workspaces.UpdateReflection(namespace(r), r.PathValue("date"), field, req.Value)
	if err != nil {
		handleError(w, r, err, "update reflection")
		return
	}
	writeJSON(w, http.StatusOK, log)
}

// GenerateSummary asks the assistant for a day summary in the browser's language.
func (h *DayHandler) GenerateSummary(w http.ResponseWriter, r *http.Request) {
	language := assistant.Language(r.Header.Get("Accept-Language"))

	log, err := h.assistantService.GenerateDaySummary(r.Context(), namespace(r), r.PathValue("date"), language)
	if err != nil {
		handleError(w, r, err, "generate summary")
		return
	}
	writeJSON(w, http.StatusOK, log)
}

func (h *DayHandler) Summary(w http.ResponseWriter, r *http.Request) {
	log, err := h.workspaces.Day(namespace(r), r.PathValue("date"))
	if err != nil {
		handleError(w, r, err, "load summary")
		return
	}
	ui.Render(w, r, ui.DaySummary(h.md, log))
}
