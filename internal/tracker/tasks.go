package tracker

import (
	"strings"
	"time"

	"github.com/templui/tasktracker/internal/model"
	"github.com/templui/tasktracker/internal/validation"
)

type TaskInput struct {
	Title        string
	Description  string
	PlannedStart *time.Time
	PlannedEnd   *time.Time
}

func (in TaskInput) normalize() (TaskInput, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)

	err := validation.ValidateTaskTitle(in.Title)
	if err != nil {
		return in, invalid("title", err)
	}
	err = validation.ValidateTaskDescription(in.Description)
	if err != nil {
		return in, invalid("description", err)
	}
	err = validation.ValidatePlannedWindow(in.PlannedStart, in.PlannedEnd)
	if err != nil {
		return in, invalid("plannedEnd", err)
	}
	return in, nil
}

func optionalTimestamp(t *time.Time) *model.Timestamp {
	if t == nil {
		return nil
	}
	return model.AtPtr(*t)
}

// AddTask appends a new task to the end of the chosen list.
// A blank title is rejected without touching the log.
func (w *Workspace) AddTask(date string, list model.TaskList, in TaskInput) (*model.Task, error) {
	in, err := in.normalize()
	if err != nil {
		return nil, err
	}

	log, err := w.GetOrCreate(date)
	if err != nil {
		return nil, err
	}

	now := w.clock.Now()
	task := model.Task{
		ID:               newTaskID(now.UnixMilli()),
		Title:            in.Title,
		Description:      in.Description,
		CreatedAt:        model.At(now),
		PlannedStartTime: optionalTimestamp(in.PlannedStart),
		PlannedEndTime:   optionalTimestamp(in.PlannedEnd),
	}

	tasks := log.Tasks(list)
	*tasks = append(*tasks, task)
	return &(*tasks)[len(*tasks)-1], nil
}

// UpdateTask edits the text and planned window; completion state is untouched.
func (w *Workspace) UpdateTask(date string, list model.TaskList, id string, in TaskInput) (*model.Task, error) {
	in, err := in.normalize()
	if err != nil {
		return nil, err
	}

	task, err := w.findTask(date, list, id)
	if err != nil {
		return nil, err
	}

	task.Title = in.Title
	task.Description = in.Description
	task.PlannedStartTime = optionalTimestamp(in.PlannedStart)
	task.PlannedEndTime = optionalTimestamp(in.PlannedEnd)
	return task, nil
}

// ToggleTask flips completion. Completing stamps ActualEndTime with the
// current time; reopening clears it.
func (w *Workspace) ToggleTask(date string, list model.TaskList, id string) (*model.Task, error) {
	task, err := w.findTask(date, list, id)
	if err != nil {
		return nil, err
	}

	task.IsDone = !task.IsDone
	if task.IsDone {
		task.ActualEndTime = model.AtPtr(w.clock.Now())
	} else {
		task.ActualEndTime = nil
	}
	return task, nil
}

// DeleteTask removes the task permanently.
func (w *Workspace) DeleteTask(date string, list model.TaskList, id string) error {
	log, err := w.GetOrCreate(date)
	if err != nil {
		return err
	}

	tasks := log.Tasks(list)
	for i := range *tasks {
		if (*tasks)[i].ID == id {
			*tasks = append((*tasks)[:i:i], (*tasks)[i+1:]...)
			return nil
		}
	}
	return ErrTaskNotFound
}

func (w *Workspace) findTask(date string, list model.TaskList, id string) (*model.Task, error) {
	log, err := w.GetOrCreate(date)
	if err != nil {
		return nil, err
	}

	tasks := *log.Tasks(list)
	for i := range tasks {
		if tasks[i].ID == id {
			return &tasks[i], nil
		}
	}
	return nil, ErrTaskNotFound
}
