package model

import "fmt"

const DateLayout = "2006-01-02"

type ReflectionField string

const (
	ReflectionInsight   ReflectionField = "insight"
	ReflectionChallenge ReflectionField = "challenge"
	ReflectionRating    ReflectionField = "rating"
)

func ParseReflectionField(s string) (ReflectionField, error) {
	switch ReflectionField(s) {
	case ReflectionInsight, ReflectionChallenge, ReflectionRating:
		return ReflectionField(s), nil
	}
	return "", fmt.Errorf("unknown reflection field %q", s)
}

type DailyLog struct {
	Date             string `json:"date"`
	TasksToday       []Task `json:"tasksToday"`
	TasksForTomorrow []Task `json:"tasksForTomorrow"`
	Insight          string `json:"insight"`
	Challenge        string `json:"challenge"`
	Rating           *int   `json:"rating"`
	DaySummary       string `json:"daySummary,omitempty"`
}

func NewDailyLog(date string) *DailyLog {
	return &DailyLog{
		Date:             date,
		TasksToday:       []Task{},
		TasksForTomorrow: []Task{},
	}
}

// Tasks returns a pointer to the list so callers can replace it in place.
func (l *DailyLog) Tasks(list TaskList) *[]Task {
	if list == TaskListTomorrow {
		return &l.TasksForTomorrow
	}
	return &l.TasksToday
}

// Split partitions today's tasks by completion, preserving order.
func (l *DailyLog) Split() (completed, incomplete []Task) {
	for _, t := range l.TasksToday {
		if t.IsDone {
			completed = append(completed, t)
		} else {
			incomplete = append(incomplete, t)
		}
	}
	return completed, incomplete
}
