// Package tracker holds the daily log store and goal plan store.
// It is storage-free: a Workspace mutates a Snapshot in memory and the
// caller persists the whole snapshot after every change.
package tracker

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/templui/tasktracker/internal/model"
	"github.com/templui/tasktracker/internal/validation"
)

type Workspace struct {
	snap  *model.Snapshot
	clock Clock
}

// NewWorkspace wraps snap, repairing any nil collections left by older data.
func NewWorkspace(snap *model.Snapshot, clock Clock) *Workspace {
	if snap == nil {
		snap = model.NewSnapshot()
	}
	if snap.DailyLogs == nil {
		snap.DailyLogs = make(map[string]*model.DailyLog)
	}
	if snap.ChatMessages == nil {
		snap.ChatMessages = []model.ChatMessage{}
	}
	for date, log := range snap.DailyLogs {
		if log == nil {
			delete(snap.DailyLogs, date)
			continue
		}
		if log.TasksToday == nil {
			log.TasksToday = []model.Task{}
		}
		if log.TasksForTomorrow == nil {
			log.TasksForTomorrow = []model.Task{}
		}
	}
	return &Workspace{snap: snap, clock: clock}
}

func (w *Workspace) Snapshot() *model.Snapshot {
	return w.snap
}

// Today is the current calendar date in the clock's location.
func (w *Workspace) Today() string {
	return w.clock.Now().Format(model.DateLayout)
}

// GetOrCreate returns the log for date, registering an empty one on first view.
func (w *Workspace) GetOrCreate(date string) (*model.DailyLog, error) {
	err := validation.ValidateDate(date, w.Today())
	if err != nil {
		return nil, invalid("date", err)
	}

	log, ok := w.snap.DailyLogs[date]
	if !ok {
		log = model.NewDailyLog(date)
		w.snap.DailyLogs[date] = log
	}
	return log, nil
}

func (w *Workspace) SetDaySummary(date, summary string) (*model.DailyLog, error) {
	log, err := w.GetOrCreate(date)
	if err != nil {
		return nil, err
	}
	log.DaySummary = summary
	return log, nil
}

// AppendMessage adds to the transcript. Messages are never edited afterwards.
func (w *Workspace) AppendMessage(role, content string) model.ChatMessage {
	msg := model.ChatMessage{
		ID:        "msg-" + uuid.NewString(),
		Role:      role,
		Content:   content,
		Timestamp: model.At(w.clock.Now()),
	}
	w.snap.ChatMessages = append(w.snap.ChatMessages, msg)
	return msg
}

// Replace swaps all three stores wholesale, as an import does.
func (w *Workspace) Replace(logs map[string]*model.DailyLog, goals model.FixedGoals, messages []model.ChatMessage) {
	replaced := &model.Snapshot{
		DailyLogs:    logs,
		FixedGoals:   goals,
		ChatMessages: messages,
		ViewingDate:  w.snap.ViewingDate,
	}
	w.snap = NewWorkspace(replaced, w.clock).snap
}

// Export builds the backup document for the current state.
func (w *Workspace) Export() *model.ExportFile {
	return &model.ExportFile{
		DailyLogs:    w.snap.DailyLogs,
		FixedGoals:   w.snap.FixedGoals,
		ChatMessages: w.snap.ChatMessages,
		ExportDate:   w.clock.Now().UTC().Format("2006-01-02T15:04:05.000Z07:00"),
	}
}

func newTaskID(ms int64) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
	return fmt.Sprintf("task-%d-%s", ms, suffix)
}
