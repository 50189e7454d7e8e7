// Package server wires the application together: logging, database,
// migrations, services and the HTTP endpoint, with signal-driven graceful
// shutdown.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/avolkov/minipost/internal/logging"
	"github.com/avolkov/minipost/internal/server/config"
	httpserver "github.com/avolkov/minipost/internal/server/http"
	"github.com/avolkov/minipost/internal/server/repositories/repomanager"
	"github.com/avolkov/minipost/internal/server/services"
)

type App struct {
	config      *config.Config
	logger      logging.Logger
	db          *sql.DB
	users       *services.UserService
	posts       *services.PostService
	attachments *services.AttachmentService
}

// NewApp builds the dependency graph and brings the schema up to date.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	users, err := services.NewUserService(db, rm, cfg)
	if err != nil {
		return nil, fmt.Errorf("user service init error: %w", err)
	}

	return &App{
		config:      cfg,
		logger:      logger,
		db:          db,
		users:       users,
		posts:       services.NewPostService(db, rm),
		attachments: services.NewAttachmentService(db, rm, cfg),
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s, err := httpserver.NewHTTPServer(app.logger, app.users, app.posts, app.attachments, app.config)
	if err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
		return
	}

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run serves until a termination signal arrives, then waits for the server
// to drain and closes the database.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close error", "error", err.Error())
	}

	app.logger.Info(ctx, "Shutdown complete")
}
