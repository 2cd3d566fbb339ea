package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/templui/tasktracker/internal/assistant"
	"github.com/templui/tasktracker/internal/model"
	"github.com/templui/tasktracker/internal/tracker"
)

type assistantFixture struct {
	workspaces *WorkspaceService
	generators *fakeGenerators
	service    *AssistantService
}

func newAssistantFixture(t *testing.T, fallbackKey string, generate func(context.Context, string) (string, error)) *assistantFixture {
	t.Helper()
	repo := newMemoryRepository()
	clock := newFakeClock()
	workspaces := NewWorkspaceService(NewSnapshotStore(repo), clock, nil)
	keys := NewAPIKeyService(repo, listerAccepting("unused"), fallbackKey)
	generators := &fakeGenerators{generate: generate}
	return &assistantFixture{
		workspaces: workspaces,
		generators: generators,
		service:    NewAssistantService(workspaces, keys, generators, clock),
	}
}

func TestGenerateDaySummary_Success(t *testing.T) {
	f := newAssistantFixture(t, "server-key", func(context.Context, string) (string, error) {
		return "You finished the report.", nil
	})
	ns := Namespace{ProfileID: "p1"}
	_, err := f.workspaces.AddTask(ns, "2026-10-16", model.TaskListToday, tracker.TaskInput{Title: "Report"})
	require.NoError(t, err)

	log, err := f.service.GenerateDaySummary(context.Background(), ns, "2026-10-16", "Russian")

	require.NoError(t, err)
	assert.Equal(t, "You finished the report.", log.DaySummary)
	assert.Equal(t, []string{"server-key"}, f.generators.keys)
	require.Len(t, f.generators.prompts, 1)
	assert.Contains(t, f.generators.prompts[0], "Incomplete tasks: Report: ")
	assert.Contains(t, f.generators.prompts[0], "in Russian")

	stored, err := f.workspaces.Day(ns, "2026-10-16")
	require.NoError(t, err)
	assert.Equal(t, "You finished the report.", stored.DaySummary)
	assert.False(t, f.workspaces.Busy(ns))
}

func TestGenerateDaySummary_FailureKeepsPreviousSummary(t *testing.T) {
	f := newAssistantFixture(t, "server-key", func(context.Context, string) (string, error) {
		return "", &assistant.GenerationError{Op: "generate", Err: errors.New("quota exceeded")}
	})
	ns := Namespace{ProfileID: "p1"}
	_, err := f.workspaces.SetDaySummary(ns, "2026-10-16", "old summary")
	require.NoError(t, err)

	_, err = f.service.GenerateDaySummary(context.Background(), ns, "2026-10-16", "English")

	assert.True(t, assistant.IsGeneration(err))
	log, err := f.workspaces.Day(ns, "2026-10-16")
	require.NoError(t, err)
	assert.Equal(t, "old summary", log.DaySummary)
	assert.False(t, f.workspaces.Busy(ns))
}

func TestGenerateDaySummary_NoKeyIsGenerationError(t *testing.T) {
	f := newAssistantFixture(t, "", func(context.Context, string) (string, error) {
		t.Fatal("generator must not be called without a key")
		return "", nil
	})

	_, err := f.service.GenerateDaySummary(context.Background(), Namespace{ProfileID: "p1"}, "2026-10-17", "English")

	assert.True(t, assistant.IsGeneration(err))
	assert.ErrorIs(t, err, assistant.ErrNoAPIKey)
}

func TestGenerateDaySummary_FutureDateRejected(t *testing.T) {
	f := newAssistantFixture(t, "server-key", func(context.Context, string) (string, error) { return "x", nil })

	_, err := f.service.GenerateDaySummary(context.Background(), Namespace{ProfileID: "p1"}, "2026-10-18", "English")

	assert.True(t, tracker.IsValidation(err))
	assert.Empty(t, f.generators.prompts)
}

func TestSendChatMessage_Success(t *testing.T) {
	f := newAssistantFixture(t, "server-key", func(context.Context, string) (string, error) {
		return "Break it into smaller steps.", nil
	})
	ns := Namespace{ProfileID: "p1"}

	turn, err := f.service.SendChatMessage(context.Background(), ns, "How do I focus?")

	require.NoError(t, err)
	assert.False(t, turn.Failed)
	assert.Equal(t, model.RoleUser, turn.User.Role)
	assert.Equal(t, model.RoleAssistant, turn.Reply.Role)
	assert.True(t, strings.HasPrefix(f.generators.prompts[0], "You are an AI productivity coach."))
	assert.True(t, strings.HasSuffix(f.generators.prompts[0], "How do I focus?"))

	messages, err := f.workspaces.Messages(ns)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, "How do I focus?", messages[0].Content)
	assert.Equal(t, "Break it into smaller steps.", messages[1].Content)
	assert.NotEqual(t, messages[0].ID, messages[1].ID)
}

func TestSendChatMessage_UserMessageSavedBeforeGeneration(t *testing.T) {
	var f *assistantFixture
	ns := Namespace{ProfileID: "p1"}
	f = newAssistantFixture(t, "server-key", func(context.Context, string) (string, error) {
		messages, err := f.workspaces.Messages(ns)
		require.NoError(t, err)
		require.Len(t, messages, 1)
		assert.Equal(t, model.RoleUser, messages[0].Role)
		assert.True(t, f.workspaces.Busy(ns))
		return "ok", nil
	})

	_, err := f.service.SendChatMessage(context.Background(), ns, "hi")
	require.NoError(t, err)
}

func TestSendChatMessage_FailureAppendsSystemMessage(t *testing.T) {
	f := newAssistantFixture(t, "server-key", func(context.Context, string) (string, error) {
		return "", &assistant.GenerationError{Op: "generate", Err: errors.New("503")}
	})
	ns := Namespace{ProfileID: "p1"}

	turn, err := f.service.SendChatMessage(context.Background(), ns, "analyze my progress")

	require.NoError(t, err)
	assert.True(t, turn.Failed)

	messages, err := f.workspaces.Messages(ns)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, model.RoleUser, messages[0].Role)
	assert.Equal(t, model.RoleSystem, messages[1].Role)
	assert.Equal(t, "Failed to send message. Please try again.", messages[1].Content)
	assert.Contains(t, f.generators.prompts[0], "Data for the last 30 days:")
}

func TestSendChatMessage_BlankIsRejected(t *testing.T) {
	f := newAssistantFixture(t, "server-key", func(context.Context, string) (string, error) { return "x", nil })
	ns := Namespace{ProfileID: "p1"}

	_, err := f.service.SendChatMessage(context.Background(), ns, "  \n ")

	assert.True(t, tracker.IsValidation(err))
	messages, _ := f.workspaces.Messages(ns)
	assert.Empty(t, messages)
}

func generateUnlessCancelled(reply string) func(context.Context, string) (string, error) {
	return func(ctx context.Context, _ string) (string, error) {
		if err := ctx.Err(); err != nil {
			return "", &assistant.GenerationError{Op: "generate", Err: err}
		}
		return reply, nil
	}
}

func TestSendChatMessage_CancelledCallerStillStoresReply(t *testing.T) {
	f := newAssistantFixture(t, "server-key", generateUnlessCancelled("Keep going."))
	ns := Namespace{ProfileID: "p1"}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	turn, err := f.service.SendChatMessage(ctx, ns, "hi")

	require.NoError(t, err)
	assert.False(t, turn.Failed)
	messages, err := f.workspaces.Messages(ns)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, model.RoleAssistant, messages[1].Role)
	assert.Equal(t, "Keep going.", messages[1].Content)
}

func TestGenerateDaySummary_CancelledCallerStillStoresSummary(t *testing.T) {
	f := newAssistantFixture(t, "server-key", generateUnlessCancelled("A steady day."))
	ns := Namespace{ProfileID: "p1"}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	log, err := f.service.GenerateDaySummary(ctx, ns, "2026-10-17", "English")

	require.NoError(t, err)
	assert.Equal(t, "A steady day.", log.DaySummary)
}
