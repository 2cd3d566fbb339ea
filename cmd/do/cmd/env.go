package cmd

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/templui/tasktracker/internal/config"
	"github.com/templui/tasktracker/internal/db"
	"github.com/templui/tasktracker/internal/logger"
	"github.com/templui/tasktracker/internal/repository"
	"github.com/templui/tasktracker/internal/service"
	"github.com/templui/tasktracker/internal/storage"
	"github.com/templui/tasktracker/internal/tracker"
)

// env is what admin commands share: loaded config and an open database.
type env struct {
	cfg   *config.Config
	db    *sqlx.DB
	flush func()
}

func openEnv() (*env, error) {
	cfg := config.Load()
	flush := logger.Init(logger.Options{
		Development: cfg.IsDevelopment(),
		SentryDSN:   cfg.SentryDSN,
		Environment: cfg.AppEnv,
	})

	database, err := db.Init(cfg.DBDriver, cfg.DBConnection)
	if err != nil {
		flush()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return &env{cfg: cfg, db: database, flush: flush}, nil
}

func (e *env) Close() {
	e.db.Close()
	e.flush()
}

// localStorage migrates the database and returns the raw key/value store.
func (e *env) localStorage() (repository.LocalStorageRepository, error) {
	err := db.RunMigrations(e.db.DB, e.cfg.DBDriver)
	if err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return repository.NewLocalStorageRepository(e.db), nil
}

func (e *env) workspaces(ctx context.Context) (*service.WorkspaceService, error) {
	repo, err := e.localStorage()
	if err != nil {
		return nil, err
	}

	archive, err := storage.New(ctx, e.cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	clock := tracker.SystemClock{Location: e.cfg.Location()}
	return service.NewWorkspaceService(service.NewSnapshotStore(repo), clock, archive), nil
}
