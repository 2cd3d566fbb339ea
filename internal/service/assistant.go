package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/templui/tasktracker/internal/assistant"
	"github.com/templui/tasktracker/internal/model"
	"github.com/templui/tasktracker/internal/tracker"
)

const chatFailureNotice = "Failed to send message. Please try again."

// GeneratorFactory builds a Generator bound to one API key.
type GeneratorFactory interface {
	ForKey(apiKey string) assistant.Generator
}

// ChatTurn is what one SendChatMessage call appended to the transcript.
type ChatTurn struct {
	User   model.ChatMessage `json:"user"`
	Reply  model.ChatMessage `json:"reply"`
	Failed bool              `json:"failed"`
}

// AssistantService connects the tracker stores to the text-generation model.
// Calls for the same namespace are not serialized against each other.
type AssistantService struct {
	workspaces *WorkspaceService
	keys       *APIKeyService
	generators GeneratorFactory
	clock      tracker.Clock
}

func NewAssistantService(workspaces *WorkspaceService, keys *APIKeyService, generators GeneratorFactory, clock tracker.Clock) *AssistantService {
	return &AssistantService{
		workspaces: workspaces,
		keys:       keys,
		generators: generators,
		clock:      clock,
	}
}

func (s *AssistantService) generator(profileID string) (assistant.Generator, error) {
	key, err := s.keys.Resolve(profileID)
	if err != nil {
		if errors.Is(err, assistant.ErrNoAPIKey) {
			return nil, &assistant.GenerationError{Op: "resolve api key", Err: err}
		}
		return nil, err
	}
	return s.generators.ForKey(key), nil
}

// GenerateDaySummary replaces the day's summary with a freshly generated one.
// On failure the stored summary is left unchanged. The call runs to completion
// even if ctx is cancelled.
func (s *AssistantService) GenerateDaySummary(ctx context.Context, ns Namespace, date, language string) (*model.DailyLog, error) {
	ctx = context.WithoutCancel(ctx)
	done := s.workspaces.BeginBusy(ns)
	defer done()

	log, err := s.workspaces.Day(ns, date)
	if err != nil {
		return nil, err
	}

	gen, err := s.generator(ns.ProfileID)
	if err != nil {
		return nil, err
	}

	summary, err := gen.Generate(ctx, assistant.DaySummaryPrompt(log, language))
	if err != nil {
		slog.Warn("day summary generation failed", "error", err, "profile_id", ns.ProfileID, "date", date)
		return nil, err
	}

	return s.workspaces.SetDaySummary(ns, date, summary)
}

// SendChatMessage records the user's message before calling the model.
// A failed call is recorded as a system message, not returned as an error.
// The reply is stored even if ctx is cancelled while the model is working.
func (s *AssistantService) SendChatMessage(ctx context.Context, ns Namespace, text string) (*ChatTurn, error) {
	ctx = context.WithoutCancel(ctx)
	if strings.TrimSpace(text) == "" {
		return nil, &tracker.ValidationError{Field: "message", Err: errors.New("message is empty")}
	}

	done := s.workspaces.BeginBusy(ns)
	defer done()

	turn := &ChatTurn{}
	var prompt string
	err := s.workspaces.Update(ns, func(w *tracker.Workspace) error {
		turn.User = w.AppendMessage(model.RoleUser, text)
		snap := w.Snapshot()
		prompt = assistant.ChatPrompt(text, snap.DailyLogs, snap.FixedGoals, s.clock.Now())
		return nil
	})
	if err != nil {
		return nil, err
	}

	reply, err := s.reply(ctx, ns, prompt)
	if err != nil {
		slog.Error("chat generation failed", "error", err, "profile_id", ns.ProfileID, "namespace", ns.Name())
		turn.Failed = true
		turn.Reply, err = s.workspaces.AppendMessage(ns, model.RoleSystem, chatFailureNotice)
		if err != nil {
			return nil, fmt.Errorf("failed to record chat failure: %w", err)
		}
		return turn, nil
	}

	turn.Reply, err = s.workspaces.AppendMessage(ns, model.RoleAssistant, reply)
	if err != nil {
		return nil, err
	}
	return turn, nil
}

func (s *AssistantService) reply(ctx context.Context, ns Namespace, prompt string) (string, error) {
	gen, err := s.generator(ns.ProfileID)
	if err != nil {
		return "", err
	}
	return gen.Generate(ctx, prompt)
}

func (s *AssistantService) Busy(ns Namespace) bool {
	return s.workspaces.Busy(ns)
}
