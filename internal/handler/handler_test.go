package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/templui/tasktracker/internal/assistant"
	"github.com/templui/tasktracker/internal/db"
	"github.com/templui/tasktracker/internal/markdown"
	"github.com/templui/tasktracker/internal/middleware"
	"github.com/templui/tasktracker/internal/model"
	"github.com/templui/tasktracker/internal/repository"
	"github.com/templui/tasktracker/internal/service"
)

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

type stubGenerators struct {
	reply   string
	err     error
	prompts []string
}

func (g *stubGenerators) ForKey(string) assistant.Generator {
	return assistant.GeneratorFunc(func(_ context.Context, prompt string) (string, error) {
		g.prompts = append(g.prompts, prompt)
		if g.err != nil {
			return "", g.err
		}
		return g.reply, nil
	})
}

type stubLister struct{ err error }

func (l stubLister) ListModels(context.Context, string) ([]string, error) {
	if l.err != nil {
		return nil, l.err
	}
	return []string{"models/gemini-1.5-flash"}, nil
}

type testServer struct {
	t          *testing.T
	handler    http.Handler
	cookies    []*http.Cookie
	generators *stubGenerators
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	database, err := db.Init("sqlite", filepath.Join(t.TempDir(), "tracker.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	require.NoError(t, db.RunMigrations(database.DB, "sqlite"))

	repo := repository.NewLocalStorageRepository(database)
	clock := fixedClock{now: time.Date(2026, 10, 17, 9, 30, 0, 0, time.UTC)}
	generators := &stubGenerators{reply: "**Well done**"}
	md := markdown.NewParser()

	profiles := service.NewProfileService("test-secret", time.Hour, false)
	auth := service.NewAuthService(repo, service.NewMockIdentityProvider(0, 0))
	workspaces := service.NewWorkspaceService(service.NewSnapshotStore(repo), clock, nil)
	keys := service.NewAPIKeyService(repo, stubLister{}, "server-key")
	assistantService := service.NewAssistantService(workspaces, keys, generators, clock)

	home := NewHomeHandler(workspaces, auth, md)
	authHandler := NewAuthHandler(auth)
	settings := NewSettingsHandler(keys)
	day := NewDayHandler(workspaces, assistantService, md)
	goal := NewGoalHandler(workspaces)
	chat := NewChatHandler(workspaces, assistantService, md)
	data := NewDataHandler(workspaces)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", home.HomePage)
	mux.HandleFunc("GET /healthz", home.Health)
	mux.HandleFunc("GET /auth/state", authHandler.State)
	mux.HandleFunc("POST /auth/signin/{provider}", authHandler.SignIn)
	mux.HandleFunc("POST /auth/signout", authHandler.SignOut)
	mux.HandleFunc("GET /app/settings/api-key", settings.APIKey)
	mux.HandleFunc("PUT /app/settings/api-key", settings.SetAPIKey)
	mux.HandleFunc("DELETE /app/settings/api-key", settings.ClearAPIKey)
	mux.HandleFunc("GET /app/state", day.State)
	mux.HandleFunc("POST /app/navigate/{direction}", day.Navigate)
	mux.HandleFunc("GET /app/days/{date}", day.Day)
	mux.HandleFunc("POST /app/days/{date}/tasks/{list}", day.AddTask)
	mux.HandleFunc("PATCH /app/days/{date}/tasks/{list}/{id}", day.UpdateTask)
	mux.HandleFunc("POST /app/days/{date}/tasks/{list}/{id}/toggle", day.ToggleTask)
	mux.HandleFunc("DELETE /app/days/{date}/tasks/{list}/{id}", day.DeleteTask)
	mux.HandleFunc("PATCH /app/days/{date}/reflection", day.UpdateReflection)
	mux.HandleFunc("POST /app/days/{date}/summary", day.GenerateSummary)
	mux.HandleFunc("GET /app/days/{date}/summary", day.Summary)
	mux.HandleFunc("GET /app/goals", goal.Goals)
	mux.HandleFunc("PUT /app/goals/three-month", goal.SetThreeMonth)
	mux.HandleFunc("PUT /app/goals/months/{month}", goal.SetMonth)
	mux.HandleFunc("PUT /app/goals/months/{month}/weeks/{week}", goal.SetWeek)
	mux.HandleFunc("GET /app/chat", chat.Messages)
	mux.HandleFunc("GET /app/chat/transcript", chat.Transcript)
	mux.HandleFunc("POST /app/chat", chat.Send)
	mux.HandleFunc("GET /app/export", data.Export)
	mux.HandleFunc("POST /app/import", data.Import)
	mux.HandleFunc("DELETE /app/data", data.Wipe)

	return &testServer{
		t:          t,
		handler:    middleware.Profile(profiles, auth)(mux),
		generators: generators,
	}
}

func (s *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	s.t.Helper()
	for _, c := range s.cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	if len(s.cookies) == 0 {
		s.cookies = rec.Result().Cookies()
	}
	return rec
}

func (s *testServer) request(method, path string, body any) *httptest.ResponseRecorder {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	return s.do(req)
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	rec := s.request(http.MethodGet, "/healthz", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestState_DefaultsToToday(t *testing.T) {
	s := newTestServer(t)

	rec := s.request(http.MethodGet, "/app/state", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	state := decode[service.WorkspaceState](t, rec)
	assert.Equal(t, "guest", state.Namespace)
	assert.Equal(t, "2026-10-17", state.Today)
	assert.Equal(t, "2026-10-17", state.ViewingDate)
	assert.False(t, state.CanGoNext)
	require.NotNil(t, state.Log)
	assert.Equal(t, "2026-10-17", state.Log.Date)
}

func TestNavigate(t *testing.T) {
	s := newTestServer(t)

	rec := s.request(http.MethodPost, "/app/navigate/prev", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	state := decode[service.WorkspaceState](t, rec)
	assert.Equal(t, "2026-10-16", state.ViewingDate)
	assert.True(t, state.CanGoNext)

	rec = s.request(http.MethodPost, "/app/navigate/today", nil)
	state = decode[service.WorkspaceState](t, rec)
	assert.Equal(t, "2026-10-17", state.ViewingDate)

	rec = s.request(http.MethodPost, "/app/navigate/next", nil)
	state = decode[service.WorkspaceState](t, rec)
	assert.Equal(t, "2026-10-17", state.ViewingDate, "cannot move past today")

	rec = s.request(http.MethodPost, "/app/navigate/sideways", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestNavigate_FormPostRedirects(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/app/navigate/prev", strings.NewReader("csrf_token=x"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := s.do(req)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
}

func TestTasks_Lifecycle(t *testing.T) {
	s := newTestServer(t)

	rec := s.request(http.MethodPost, "/app/days/2026-10-17/tasks/today", map[string]any{
		"title":            "  Write report ",
		"plannedStartTime": int64(1792224000000),
		"plannedEndTime":   int64(1792227600000),
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	task := decode[model.Task](t, rec)
	assert.Equal(t, "Write report", task.Title)
	assert.False(t, task.IsDone)
	require.NotNil(t, task.PlannedStartTime)

	rec = s.request(http.MethodPost, "/app/days/2026-10-17/tasks/today/"+task.ID+"/toggle", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	toggled := decode[model.Task](t, rec)
	assert.True(t, toggled.IsDone)
	assert.NotNil(t, toggled.ActualEndTime)

	rec = s.request(http.MethodPatch, "/app/days/2026-10-17/tasks/today/"+task.ID, map[string]any{
		"title":       "Write final report",
		"description": "two pages",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	updated := decode[model.Task](t, rec)
	assert.Equal(t, "Write final report", updated.Title)
	assert.True(t, updated.IsDone, "edit keeps completion")

	rec = s.request(http.MethodDelete, "/app/days/2026-10-17/tasks/today/"+task.ID, nil)
	assert.Equal(t, http.StatusPreconditionRequired, rec.Code)

	rec = s.request(http.MethodDelete, "/app/days/2026-10-17/tasks/today/"+task.ID+"?confirm=true", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.request(http.MethodGet, "/app/days/2026-10-17", nil)
	log := decode[model.DailyLog](t, rec)
	assert.Empty(t, log.TasksToday)
}

func TestTasks_Validation(t *testing.T) {
	s := newTestServer(t)

	rec := s.request(http.MethodPost, "/app/days/2026-10-17/tasks/today", map[string]any{"title": "   "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode[errorResponse](t, rec).Error, "title")

	rec = s.request(http.MethodPost, "/app/days/2026-10-17/tasks/someday", map[string]any{"title": "x"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.request(http.MethodPost, "/app/days/17-10-2026/tasks/today", map[string]any{"title": "x"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.request(http.MethodPost, "/app/days/2026-10-17/tasks/today/missing/toggle", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code, "unknown task ids are ignored")
}

func TestReflection(t *testing.T) {
	s := newTestServer(t)

	rec := s.request(http.MethodPatch, "/app/days/2026-10-17/reflection", map[string]string{"field": "rating", "value": "8"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	log := decode[model.DailyLog](t, rec)
	require.NotNil(t, log.Rating)
	assert.Equal(t, 8, *log.Rating)

	rec = s.request(http.MethodPatch, "/app/days/2026-10-17/reflection", map[string]string{"field": "insight", "value": "Focus early"})
	log = decode[model.DailyLog](t, rec)
	assert.Equal(t, "Focus early", log.Insight)

	rec = s.request(http.MethodPatch, "/app/days/2026-10-17/reflection", map[string]string{"field": "mood", "value": "ok"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSummary_GenerateAndRender(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/app/days/2026-10-17/summary", nil)
	req.Header.Set("Accept-Language", "ru-RU,ru;q=0.9")
	rec := s.do(req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	log := decode[model.DailyLog](t, rec)
	assert.Equal(t, "**Well done**", log.DaySummary)
	require.Len(t, s.generators.prompts, 1)
	assert.Contains(t, s.generators.prompts[0], "Russian")

	rec = s.request(http.MethodGet, "/app/days/2026-10-17/summary", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "<strong>Well done</strong>")
}

func TestSummary_GenerationFailureKeepsSummary(t *testing.T) {
	s := newTestServer(t)
	s.request(http.MethodPost, "/app/days/2026-10-17/summary", nil)

	s.generators.err = &assistant.GenerationError{Op: "generate", Err: errors.New("quota exceeded")}
	rec := s.request(http.MethodPost, "/app/days/2026-10-17/summary", nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	rec = s.request(http.MethodGet, "/app/days/2026-10-17", nil)
	assert.Equal(t, "**Well done**", decode[model.DailyLog](t, rec).DaySummary)
}

func TestGoals(t *testing.T) {
	s := newTestServer(t)

	rec := s.request(http.MethodPut, "/app/goals/three-month", map[string]any{
		"text":      "Ship v1",
		"startDate": int64(1791763200000),
		"endDate":   int64(1799625600000),
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	goals := decode[model.FixedGoals](t, rec)
	assert.Equal(t, "Ship v1", goals.ThreeMonth.Text)
	assert.NotNil(t, goals.ThreeMonth.StartDate)

	rec = s.request(http.MethodPut, "/app/goals/months/2", map[string]string{"text": "Beta"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Beta", decode[model.FixedGoals](t, rec).Month2.Text)

	rec = s.request(http.MethodPut, "/app/goals/months/1/weeks/4", map[string]string{"text": "Launch"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Launch", decode[model.FixedGoals](t, rec).Month1.Weeks[3].Text)

	rec = s.request(http.MethodPut, "/app/goals/months/4", map[string]string{"text": "x"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.request(http.MethodPut, "/app/goals/months/1/weeks/five", map[string]string{"text": "x"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.request(http.MethodGet, "/app/goals", nil)
	goals = decode[model.FixedGoals](t, rec)
	assert.Equal(t, "Ship v1", goals.ThreeMonth.Text)
	assert.Equal(t, "Beta", goals.Month2.Text)
}

func TestChat(t *testing.T) {
	s := newTestServer(t)

	rec := s.request(http.MethodGet, "/app/chat", nil)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = s.request(http.MethodPost, "/app/chat", map[string]string{"message": "How am I doing?"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	turn := decode[service.ChatTurn](t, rec)
	assert.False(t, turn.Failed)
	assert.Equal(t, model.RoleUser, turn.User.Role)
	assert.Equal(t, model.RoleAssistant, turn.Reply.Role)

	s.generators.err = errors.New("network down")
	rec = s.request(http.MethodPost, "/app/chat", map[string]string{"message": "Again?"})
	require.Equal(t, http.StatusOK, rec.Code)
	turn = decode[service.ChatTurn](t, rec)
	assert.True(t, turn.Failed)
	assert.Equal(t, model.RoleSystem, turn.Reply.Role)

	rec = s.request(http.MethodGet, "/app/chat", nil)
	assert.Len(t, decode[[]model.ChatMessage](t, rec), 4)

	rec = s.request(http.MethodGet, "/app/chat/transcript", nil)
	assert.Contains(t, rec.Body.String(), "<strong>Well done</strong>")
	assert.Contains(t, rec.Body.String(), `role="alert"`)

	rec = s.request(http.MethodPost, "/app/chat", map[string]string{"message": "  "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuth_SignInScopesData(t *testing.T) {
	s := newTestServer(t)

	rec := s.request(http.MethodGet, "/auth/state", nil)
	assert.Equal(t, service.AuthUnauthenticated, decode[authResponse](t, rec).State)

	s.request(http.MethodPost, "/app/days/2026-10-17/tasks/today", map[string]string{"title": "Guest task"})

	rec = s.request(http.MethodPost, "/auth/signin/github", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode[authResponse](t, rec)
	assert.Equal(t, service.AuthAuthenticated, resp.State)
	require.NotNil(t, resp.User)

	rec = s.request(http.MethodGet, "/app/state", nil)
	state := decode[service.WorkspaceState](t, rec)
	assert.Equal(t, resp.User.ID, state.Namespace)
	assert.Empty(t, state.Log.TasksToday, "signed-in user does not see guest data")

	rec = s.request(http.MethodPost, "/auth/signout", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, service.AuthUnauthenticated, decode[authResponse](t, rec).State)

	rec = s.request(http.MethodGet, "/app/state", nil)
	state = decode[service.WorkspaceState](t, rec)
	require.Len(t, state.Log.TasksToday, 1)
	assert.Equal(t, "Guest task", state.Log.TasksToday[0].Title)

	rec = s.request(http.MethodPost, "/auth/signin/myspace", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAPIKeySettings(t *testing.T) {
	s := newTestServer(t)

	rec := s.request(http.MethodGet, "/app/settings/api-key", nil)
	status := decode[service.APIKeyStatus](t, rec)
	assert.True(t, status.Configured)
	assert.Equal(t, service.KeySourceServer, status.Source)

	rec = s.request(http.MethodPut, "/app/settings/api-key", map[string]string{"apiKey": " AIzaSyExampleKey1234 "})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	status = decode[service.APIKeyStatus](t, rec)
	assert.Equal(t, service.KeySourceProfile, status.Source)
	require.NotNil(t, status.Valid)
	assert.True(t, *status.Valid)
	assert.NotContains(t, status.Masked, "ExampleKey")

	rec = s.request(http.MethodDelete, "/app/settings/api-key", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.request(http.MethodGet, "/app/settings/api-key", nil)
	assert.Equal(t, service.KeySourceServer, decode[service.APIKeyStatus](t, rec).Source)
}

func TestExportImportWipe(t *testing.T) {
	s := newTestServer(t)
	s.request(http.MethodPost, "/app/days/2026-10-17/tasks/today", map[string]string{"title": "Backed up"})

	rec := s.request(http.MethodGet, "/app/export", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "attachment; filename=task-tracker-2026-10-17.json", rec.Header().Get("Content-Disposition"))
	backup := rec.Body.Bytes()
	assert.Contains(t, string(backup), `"exportDate"`)

	rec = s.request(http.MethodDelete, "/app/data", nil)
	assert.Equal(t, http.StatusPreconditionRequired, rec.Code)

	rec = s.request(http.MethodDelete, "/app/data?confirm=true", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.request(http.MethodGet, "/app/days/2026-10-17", nil)
	assert.Empty(t, decode[model.DailyLog](t, rec).TasksToday)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "task-tracker-2026-10-17.json")
	require.NoError(t, err)
	_, err = part.Write(backup)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/app/import?confirm=true", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec = s.do(req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.request(http.MethodGet, "/app/days/2026-10-17", nil)
	tasks := decode[model.DailyLog](t, rec).TasksToday
	require.Len(t, tasks, 1)
	assert.Equal(t, "Backed up", tasks[0].Title)
}

func TestImport_RejectsInvalidFile(t *testing.T) {
	s := newTestServer(t)
	s.request(http.MethodPost, "/app/days/2026-10-17/tasks/today", map[string]string{"title": "Keep me"})

	req := httptest.NewRequest(http.MethodPost, "/app/import?confirm=true", strings.NewReader("not json"))
	rec := s.do(req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode[errorResponse](t, rec).Error, "Import failed")

	req = httptest.NewRequest(http.MethodPost, "/app/import", strings.NewReader(`{"dailyLogs":{}}`))
	rec = s.do(req)
	assert.Equal(t, http.StatusPreconditionRequired, rec.Code)

	rec = s.request(http.MethodGet, "/app/days/2026-10-17", nil)
	assert.Len(t, decode[model.DailyLog](t, rec).TasksToday, 1)
}

func TestHomePage(t *testing.T) {
	s := newTestServer(t)
	s.request(http.MethodPost, "/app/days/2026-10-17/tasks/today", map[string]string{"title": "<b>escaped</b>"})

	rec := s.request(http.MethodGet, "/", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "2026-10-17")
	assert.Contains(t, body, "&lt;b&gt;escaped&lt;/b&gt;")
	assert.Contains(t, body, "/auth/signin/google")
}
