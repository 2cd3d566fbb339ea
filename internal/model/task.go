package model

import "fmt"

type TaskList string

const (
	TaskListToday    TaskList = "today"
	TaskListTomorrow TaskList = "tomorrow"
)

func ParseTaskList(s string) (TaskList, error) {
	switch TaskList(s) {
	case TaskListToday, TaskListTomorrow:
		return TaskList(s), nil
	}
	return "", fmt.Errorf("unknown task list %q", s)
}

// Task is owned by exactly one list of one DailyLog.
// ActualEndTime is set if and only if IsDone is true.
type Task struct {
	ID               string     `json:"id"`
	Title            string     `json:"title"`
	Description      string     `json:"description"`
	IsDone           bool       `json:"isDone"`
	CreatedAt        Timestamp  `json:"createdAt"`
	PlannedStartTime *Timestamp `json:"plannedStartTime,omitempty"`
	PlannedEndTime   *Timestamp `json:"plannedEndTime,omitempty"`
	ActualEndTime    *Timestamp `json:"actualEndTime,omitempty"`
}
