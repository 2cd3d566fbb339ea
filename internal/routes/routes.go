package routes

import (
	"net/http"

	"github.com/templui/tasktracker/internal/app"
	"github.com/templui/tasktracker/internal/handler"
	"github.com/templui/tasktracker/internal/middleware"
)

func SetupRoutes(app *app.App) http.Handler {
	// Handlers
	home := handler.NewHomeHandler(app.WorkspaceService, app.AuthService, app.Markdown)
	auth := handler.NewAuthHandler(app.AuthService)
	settings := handler.NewSettingsHandler(app.APIKeyService)
	day := handler.NewDayHandler(app.WorkspaceService, app.AssistantService, app.Markdown)
	goal := handler.NewGoalHandler(app.WorkspaceService)
	chat := handler.NewChatHandler(app.WorkspaceService, app.AssistantService, app.Markdown)
	data := handler.NewDataHandler(app.WorkspaceService)

	mux := http.NewServeMux()

	// ============================================================================
	// PUBLIC ROUTES
	// ============================================================================

	mux.HandleFunc("GET /{$}", home.HomePage)
	mux.HandleFunc("GET /healthz", home.Health)

	// Auth (sign-in is rate limited)
	rateLimiter := middleware.RateLimit(app.SignInLimiter)

	mux.HandleFunc("GET /auth/state", auth.State)
	mux.HandleFunc("POST /auth/signin/{provider}", rateLimiter(auth.SignIn))
	mux.HandleFunc("POST /auth/signout", auth.SignOut)

	// ============================================================================
	// APP ROUTES (/app/*), scoped to the browser profile and signed-in user
	// ============================================================================

	// Settings
	mux.HandleFunc("GET /app/settings/api-key", settings.APIKey)
	mux.HandleFunc("PUT /app/settings/api-key", settings.SetAPIKey)
	mux.HandleFunc("DELETE /app/settings/api-key", settings.ClearAPIKey)

	// Daily log
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

	// Goals
	mux.HandleFunc("GET /app/goals", goal.Goals)
	mux.HandleFunc("PUT /app/goals/three-month", goal.SetThreeMonth)
	mux.HandleFunc("PUT /app/goals/months/{month}", goal.SetMonth)
	mux.HandleFunc("PUT /app/goals/months/{month}/weeks/{week}", goal.SetWeek)

	// Chat
	mux.HandleFunc("GET /app/chat", chat.Messages)
	mux.HandleFunc("GET /app/chat/transcript", chat.Transcript)
	mux.HandleFunc("POST /app/chat", chat.Send)

	// Data portability
	mux.HandleFunc("GET /app/export", data.Export)
	mux.HandleFunc("POST /app/import", data.Import)
	mux.HandleFunc("DELETE /app/data", data.Wipe)

	// Global middleware - executed in order (top to bottom)
	handler := middleware.Chain(
		mux,
		middleware.RequestLogging,
		middleware.Config(app.Cfg),
		middleware.NonceMiddleware, // must be before SecurityHeaders
		middleware.SecurityHeaders,
		middleware.Profile(app.ProfileService, app.AuthService),
		middleware.CSRFProtection,
	)

	return handler
}
