package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/templui/tasktracker/internal/model"
	"github.com/templui/tasktracker/internal/storage"
	"github.com/templui/tasktracker/internal/tracker"
)

var ErrConfirmationRequired = errors.New("confirmation required")

// WorkspaceState is what the main screen shows for one namespace.
type WorkspaceState struct {
	Namespace   string           `json:"namespace"`
	Today       string           `json:"today"`
	ViewingDate string           `json:"viewingDate"`
	CanGoNext   bool             `json:"canGoNext"`
	Busy        bool             `json:"busy"`
	Log         *model.DailyLog  `json:"log"`
	Goals       model.FixedGoals `json:"fixedGoals"`
}

// Export is a rendered backup file.
type Export struct {
	Filename string
	Data     []byte
}

// WorkspaceService runs every tracker operation as load, mutate, full save.
// Operations on one namespace are serialized; different namespaces run in parallel.
type WorkspaceService struct {
	store   *SnapshotStore
	clock   tracker.Clock
	archive storage.Archive

	mu    sync.Mutex
	locks map[string]*sync.Mutex

	busyMu sync.Mutex
	busy   map[string]int
}

// NewWorkspaceService creates the service. archive may be nil.
func NewWorkspaceService(store *SnapshotStore, clock tracker.Clock, archive storage.Archive) *WorkspaceService {
	return &WorkspaceService{
		store:   store,
		clock:   clock,
		archive: archive,
		locks:   make(map[string]*sync.Mutex),
		busy:    make(map[string]int),
	}
}

func (s *WorkspaceService) lock(ns Namespace) func() {
	s.mu.Lock()
	l, ok := s.locks[ns.String()]
	if !ok {
		l = &sync.Mutex{}
		s.locks[ns.String()] = l
	}
	s.mu.Unlock()

	l.Lock()
	return l.Unlock
}

// View loads the namespace and runs fn without saving.
func (s *WorkspaceService) View(ns Namespace, fn func(w *tracker.Workspace) error) error {
	unlock := s.lock(ns)
	defer unlock()

	snap, err := s.store.Load(ns)
	if err != nil {
		return err
	}
	return fn(tracker.NewWorkspace(snap, s.clock))
}

// Update loads the namespace, runs fn and saves the whole snapshot.
// Nothing is saved when fn fails.
func (s *WorkspaceService) Update(ns Namespace, fn func(w *tracker.Workspace) error) error {
	unlock := s.lock(ns)
	defer unlock()

	snap, err := s.store.Load(ns)
	if err != nil {
		return err
	}

	ws := tracker.NewWorkspace(snap, s.clock)
	err = fn(ws)
	if err != nil {
		return err
	}

	return s.store.Save(ns, ws.Snapshot())
}

// BeginBusy marks the namespace busy until the returned func is called.
func (s *WorkspaceService) BeginBusy(ns Namespace) func() {
	s.busyMu.Lock()
	s.busy[ns.String()]++
	s.busyMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.busyMu.Lock()
			defer s.busyMu.Unlock()
			s.busy[ns.String()]--
			if s.busy[ns.String()] <= 0 {
				delete(s.busy, ns.String())
			}
		})
	}
}

func (s *WorkspaceService) Busy(ns Namespace) bool {
	s.busyMu.Lock()
	defer s.busyMu.Unlock()
	return s.busy[ns.String()] > 0
}

// State resolves the viewing date and registers its log.
func (s *WorkspaceService) State(ns Namespace) (*WorkspaceState, error) {
	var state *WorkspaceState
	err := s.Update(ns, func(w *tracker.Workspace) error {
		var err error
		state, err = s.state(ns, w)
		return err
	})
	return state, err
}

func (s *WorkspaceService) state(ns Namespace, w *tracker.Workspace) (*WorkspaceState, error) {
	viewing := w.ViewingDate()
	log, err := w.GetOrCreate(viewing)
	if err != nil {
		return nil, err
	}
	w.Snapshot().ViewingDate = viewing

	return &WorkspaceState{
		Namespace:   ns.Name(),
		Today:       w.Today(),
		ViewingDate: viewing,
		CanGoNext:   viewing < w.Today(),
		Busy:        s.Busy(ns),
		Log:         log,
		Goals:       *w.Goals(),
	}, nil
}

func (s *WorkspaceService) Navigate(ns Namespace, dir tracker.Direction) (*WorkspaceState, error) {
	var state *WorkspaceState
	err := s.Update(ns, func(w *tracker.Workspace) error {
		w.Navigate(dir)
		var err error
		state, err = s.state(ns, w)
		return err
	})
	return state, err
}

// Day returns the log for date, creating it on first view.
func (s *WorkspaceService) Day(ns Namespace, date string) (*model.DailyLog, error) {
	var log *model.DailyLog
	err := s.Update(ns, func(w *tracker.Workspace) error {
		var err error
		log, err = w.GetOrCreate(date)
		return err
	})
	return log, err
}

func (s *WorkspaceService) AddTask(ns Namespace, date string, list model.TaskList, in tracker.TaskInput) (*model.Task, error) {
	var task *model.Task
	err := s.Update(ns, func(w *tracker.Workspace) error {
		var err error
		task, err = w.AddTask(date, list, in)
		return err
	})
	return task, err
}

func (s *WorkspaceService) UpdateTask(ns Namespace, date string, list model.TaskList, id string, in tracker.TaskInput) (*model.Task, error) {
	var task *model.Task
	err := s.Update(ns, func(w *tracker.Workspace) error {
		var err error
		task, err = w.UpdateTask(date, list, id, in)
		return err
	})
	return task, err
}

func (s *WorkspaceService) ToggleTask(ns Namespace, date string, list model.TaskList, id string) (*model.Task, error) {
	var task *model.Task
	err := s.Update(ns, func(w *tracker.Workspace) error {
		var err error
		task, err = w.ToggleTask(date, list, id)
		return err
	})
	return task, err
}

func (s *WorkspaceService) DeleteTask(ns Namespace, date string, list model.TaskList, id string, confirmed bool) error {
	if !confirmed {
		return ErrConfirmationRequired
	}
	return s.Update(ns, func(w *tracker.Workspace) error {
		return w.DeleteTask(date, list, id)
	})
}

func (s *WorkspaceService) UpdateReflection(ns Namespace, date string, field model.ReflectionField, value string) (*model.DailyLog, error) {
	var log *model.DailyLog
	err := s.Update(ns, func(w *tracker.Workspace) error {
		var err error
		log, err = w.UpdateReflection(date, field, value)
		return err
	})
	return log, err
}

func (s *WorkspaceService) SetDaySummary(ns Namespace, date, summary string) (*model.DailyLog, error) {
	var log *model.DailyLog
	err := s.Update(ns, func(w *tracker.Workspace) error {
		var err error
		log, err = w.SetDaySummary(date, summary)
		return err
	})
	return log, err
}

func (s *WorkspaceService) Goals(ns Namespace) (model.FixedGoals, error) {
	var goals model.FixedGoals
	err := s.View(ns, func(w *tracker.Workspace) error {
		goals = *w.Goals()
		return nil
	})
	return goals, err
}

// SetThreeMonth replaces the quarter goal text and its optional period.
func (s *WorkspaceService) SetThreeMonth(ns Namespace, text string, start, end *time.Time) (model.FixedGoals, error) {
	var goals model.FixedGoals
	err := s.Update(ns, func(w *tracker.Workspace) error {
		err := w.SetThreeMonth(text)
		if err != nil {
			return err
		}
		err = w.SetThreeMonthDates(start, end)
		if err != nil {
			return err
		}
		goals = *w.Goals()
		return nil
	})
	return goals, err
}

func (s *WorkspaceService) SetMonth(ns Namespace, month int, text string) (model.FixedGoals, error) {
	var goals model.FixedGoals
	err := s.Update(ns, func(w *tracker.Workspace) error {
		err := w.SetMonth(month, text)
		if err != nil {
			return err
		}
		goals = *w.Goals()
		return nil
	})
	return goals, err
}

func (s *WorkspaceService) SetWeek(ns Namespace, month, week int, text string) (model.FixedGoals, error) {
	var goals model.FixedGoals
	err := s.Update(ns, func(w *tracker.Workspace) error {
		err := w.SetWeek(month, week, text)
		if err != nil {
			return err
		}
		goals = *w.Goals()
		return nil
	})
	return goals, err
}

func (s *WorkspaceService) Messages(ns Namespace) ([]model.ChatMessage, error) {
	var messages []model.ChatMessage
	err := s.View(ns, func(w *tracker.Workspace) error {
		messages = w.Snapshot().ChatMessages
		return nil
	})
	return messages, err
}

func (s *WorkspaceService) AppendMessage(ns Namespace, role, content string) (model.ChatMessage, error) {
	var msg model.ChatMessage
	err := s.Update(ns, func(w *tracker.Workspace) error {
		msg = w.AppendMessage(role, content)
		return nil
	})
	return msg, err
}

// Export renders the backup file and, when an archive is configured,
// stores a copy of it. Archive failures are logged only.
func (s *WorkspaceService) Export(ctx context.Context, ns Namespace) (*Export, error) {
	var file *model.ExportFile
	err := s.View(ns, func(w *tracker.Workspace) error {
		file = w.Export()
		return nil
	})
	if err != nil {
		return nil, err
	}

	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode export: %w", err)
	}

	export := &Export{
		Filename: ExportFilename(s.clock.Now()),
		Data:     data,
	}

	if s.archive != nil {
		key := storage.ExportKey(ns.ProfileID, ns.Name(), export.Filename)
		err := s.archive.Put(ctx, key, data, "application/json")
		if err != nil {
			slog.Error("failed to archive export", "error", err, "key", key)
		} else {
			slog.Info("export archived", "key", key)
		}
	}

	return export, nil
}

func ExportFilename(now time.Time) string {
	return "task-tracker-" + now.Format(model.DateLayout) + ".json"
}

type importFile struct {
	DailyLogs    map[string]*model.DailyLog `json:"dailyLogs"`
	FixedGoals   *model.FixedGoals          `json:"fixedGoals"`
	ChatMessages []model.ChatMessage        `json:"chatMessages"`
}

// Import replaces all stores with the uploaded backup. A missing goal plan
// keeps the current one. Malformed input is a ParseError and changes nothing.
func (s *WorkspaceService) Import(ns Namespace, data []byte, confirmed bool) error {
	if !confirmed {
		return ErrConfirmationRequired
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return &ParseError{Source: "import file", Err: errors.New("expected a JSON object")}
	}

	var file importFile
	err := json.Unmarshal(trimmed, &file)
	if err != nil {
		return &ParseError{Source: "import file", Err: err}
	}

	return s.Update(ns, func(w *tracker.Workspace) error {
		goals := *w.Goals()
		if file.FixedGoals != nil {
			goals = *file.FixedGoals
		}
		w.Replace(file.DailyLogs, goals, file.ChatMessages)
		return nil
	})
}

// Wipe deletes the namespace's stored snapshot. The next access starts from defaults.
func (s *WorkspaceService) Wipe(ns Namespace, confirmed bool) error {
	if !confirmed {
		return ErrConfirmationRequired
	}

	unlock := s.lock(ns)
	defer unlock()

	err := s.store.Remove(ns)
	if err != nil {
		return err
	}
	slog.Info("workspace wiped", "profile_id", ns.ProfileID, "namespace", ns.Name())
	return nil
}
