package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/templui/tasktracker/internal/model"
	"github.com/templui/tasktracker/internal/repository"
)

// ParseError reports a stored or uploaded document that is not valid JSON
// of the expected shape.
type ParseError struct {
	Source string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse %s: %v", e.Source, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// SnapshotStore persists whole snapshots as single local storage items.
type SnapshotStore struct {
	repo repository.LocalStorageRepository
}

func NewSnapshotStore(repo repository.LocalStorageRepository) *SnapshotStore {
	return &SnapshotStore{repo: repo}
}

// Load returns the stored snapshot, or defaults when nothing usable is stored.
// An unreadable blob is logged and replaced by defaults, never surfaced.
func (s *SnapshotStore) Load(ns Namespace) (*model.Snapshot, error) {
	value, err := s.repo.Item(ns.ProfileID, ns.StorageKey())
	if errors.Is(err, repository.ErrItemNotFound) {
		return model.NewSnapshot(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}

	snap, err := DecodeSnapshot([]byte(value))
	if err != nil {
		slog.Warn("stored snapshot unreadable, using defaults",
			"profile_id", ns.ProfileID,
			"namespace", ns.Name(),
			"error", err,
		)
		return model.NewSnapshot(), nil
	}
	return snap, nil
}

// Save always rewrites the whole snapshot.
func (s *SnapshotStore) Save(ns Namespace, snap *model.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	err = s.repo.SetItem(ns.ProfileID, ns.StorageKey(), string(data))
	if err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

func (s *SnapshotStore) Remove(ns Namespace) error {
	err := s.repo.RemoveItem(ns.ProfileID, ns.StorageKey())
	if err != nil {
		return fmt.Errorf("failed to remove snapshot: %w", err)
	}
	return nil
}

// DecodeSnapshot decodes each top-level field on its own, so one damaged
// field falls back to its default without losing the others.
// Only a document that is not a JSON object is a ParseError.
func DecodeSnapshot(data []byte) (*model.Snapshot, error) {
	var raw map[string]json.RawMessage
	err := json.Unmarshal(data, &raw)
	if err != nil {
		return nil, &ParseError{Source: "snapshot", Err: err}
	}

	snap := model.NewSnapshot()

	var logs map[string]*model.DailyLog
	if decodeField(raw, "dailyLogs", &logs) && logs != nil {
		snap.DailyLogs = logs
	}

	var goals model.FixedGoals
	if decodeField(raw, "fixedGoals", &goals) {
		snap.FixedGoals = goals
	}

	var messages []model.ChatMessage
	if decodeField(raw, "chatMessages", &messages) && messages != nil {
		snap.ChatMessages = messages
	}

	var viewingDate string
	if decodeField(raw, "viewingDate", &viewingDate) {
		snap.ViewingDate = viewingDate
	}

	return snap, nil
}

func decodeField(raw map[string]json.RawMessage, name string, dst any) bool {
	value, ok := raw[name]
	if !ok {
		return false
	}
	err := json.Unmarshal(value, dst)
	if err != nil {
		slog.Debug("snapshot field unreadable, using default", "field", name, "error", err)
		return false
	}
	return true
}
