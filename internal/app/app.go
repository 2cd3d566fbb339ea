package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/templui/tasktracker/internal/assistant"
	"github.com/templui/tasktracker/internal/config"
	"github.com/templui/tasktracker/internal/db"
	"github.com/templui/tasktracker/internal/markdown"
	"github.com/templui/tasktracker/internal/middleware"
	"github.com/templui/tasktracker/internal/repository"
	"github.com/templui/tasktracker/internal/service"
	"github.com/templui/tasktracker/internal/storage"
	"github.com/templui/tasktracker/internal/tracker"
)

const rateLimitCleanupInterval = 5 * time.Minute

type App struct {
	Cfg              *config.Config
	DB               *sqlx.DB
	Markdown         *markdown.Parser
	SignInLimiter    *middleware.RateLimiter
	ProfileService   *service.ProfileService
	AuthService      *service.AuthService
	WorkspaceService *service.WorkspaceService
	APIKeyService    *service.APIKeyService
	AssistantService *service.AssistantService
}

func New(ctx context.Context, cfg *config.Config) (*App, error) {
	// Initialize database
	database, err := db.Init(cfg.DBDriver, cfg.DBConnection)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %v", err)
	}

	// Run database migrations
	err = db.RunMigrations(database.DB, cfg.DBDriver)
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to run migrations: %v", err)
	}

	// Repositories
	localStorage := repository.NewLocalStorageRepository(database)

	// Storage
	archive, err := storage.New(ctx, cfg)
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to initialize storage: %v", err)
	}

	// Assistant
	gemini := assistant.NewGemini(assistant.GeminiConfig{
		BaseURL: cfg.GeminiBaseURL,
		Model:   cfg.GeminiModel,
	})

	// Services
	clock := tracker.SystemClock{Location: cfg.Location()}
	profileService := service.NewProfileService(cfg.ProfileSecret, cfg.ProfileTokenExpiry, cfg.CookieSecure)
	authService := service.NewAuthService(
		localStorage,
		service.NewMockIdentityProvider(cfg.AuthSignInDelay, cfg.AuthSignOutDelay),
	)
	workspaceService := service.NewWorkspaceService(service.NewSnapshotStore(localStorage), clock, archive)
	apiKeyService := service.NewAPIKeyService(localStorage, gemini, cfg.GeminiAPIKey)
	assistantService := service.NewAssistantService(workspaceService, apiKeyService, gemini, clock)

	slog.Info("app initialized",
		"db_driver", cfg.DBDriver,
		"timezone", cfg.Timezone,
		"gemini_model", gemini.Model(),
		"archive", cfg.ArchiveEnabled(),
	)

	return &App{
		Cfg:              cfg,
		DB:               database,
		Markdown:         markdown.NewParser(),
		SignInLimiter:    middleware.NewRateLimiter(cfg.SignInRateLimit, cfg.SignInRateWindow),
		ProfileService:   profileService,
		AuthService:      authService,
		WorkspaceService: workspaceService,
		APIKeyService:    apiKeyService,
		AssistantService: assistantService,
	}, nil
}

// RunMaintenance prunes stale rate limiter entries until ctx is done.
func (a *App) RunMaintenance(ctx context.Context) {
	ticker := time.NewTicker(rateLimitCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.SignInLimiter.Cleanup()
		}
	}
}

func (a *App) Close() error {
	if a.DB != nil {
		return a.DB.Close()
	}
	return nil
}
