package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/templui/tasktracker/internal/model"
	"github.com/templui/tasktracker/internal/service"
	"github.com/templui/tasktracker/internal/tracker"
)

type GoalHandler struct {
	workspaces *service.WorkspaceService
}

func NewGoalHandler(workspaces *service.WorkspaceService) *GoalHandler {
	return &GoalHandler{
		workspaces: workspaces,
	}
}

func pathIndex(r *http.Request, name string) (int, error) {
	n, err := strconv.Atoi(r.PathValue(name))
	if err != nil {
		return 0, &tracker.ValidationError{Field: name, Err: fmt.Errorf("%s must be a number", name)}
	}
	return n, nil
}

func (h *GoalHandler) Goals(w http.ResponseWriter, r *http.Request) {
	goals, err := h.workspaces.Goals(namespace(r))
	if err != nil {
		handleError(w, r, err, "load goals")
		return
	}
	writeJSON(w, http.StatusOK, goals)
}

// SetThreeMonth replaces the quarter goal. Omitted dates clear the period.
func (h *GoalHandler) SetThreeMonth(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text      string           `json:"text"`
		StartDate *model.Timestamp `json:"startDate"`
		EndDate   *model.Timestamp `json:"endDate"`
	}
	err := decodeJSON(w, r, &req)
	if err != nil {
		handleError(w, r, err, "update goals")
		return
	}

	goals, err := h.workspaces.SetThreeMonth(namespace(r), req.Text, timeOf(req.StartDate), timeOf(req.EndDate))
	if err != nil {
		handleError(w, r, err, "update goals")
		return
	}
	writeJSON(w, http.StatusOK, goals)
}

func (h *GoalHandler) SetMonth(w http.ResponseWriter, r *http.Request) {
	month, err := pathIndex(r, "month")
	if err != nil {
		handleError(w, r, err, "update goals")
		return
	}

	var req struct {
		Text string `json:"text"`
	}
	err = decodeJSON(w, r, &req)
	if err != nil {
		handleError(w, r, err, "update goals")
		return
	}

	goals, err := h.workspaces.SetMonth(namespace(r), month, req.Text)
	if err != nil {
		handleError(w, r, err, "update goals")
		return
	}
	writeJSON(w, http.StatusOK, goals)
}

func (h *GoalHandler) SetWeek(w http.ResponseWriter, r *http.Request) {
	month, err := pathIndex(r, "month")
	if err != nil {
		handleError(w, r, err, "update goals")
		return
	}
	week, err := pathIndex(r, "week")
	if err != nil {
		handleError(w, r, err, "update goals")
		return
	}

	var req struct {
		Text string `json:"text"`
	}
	err = decodeJSON(w, r, &req)
	if err != nil {
		handleError(w, r, err, "update goals")
		return
	}

	goals, err := h.workspaces.SetWeek(namespace(r), month, week, req.Text)
	if err != nil {
		handleError(w, r, err, "update goals")
		return
	}
	writeJSON(w, http.StatusOK, goals)
}
