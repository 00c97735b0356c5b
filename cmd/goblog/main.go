// Command goblog runs the blog server: a single binary serving HTML pages
// backed by SQLite, with sessions, uploads and an audit event log.
package main

import (
	"context"
	"database/sql"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"goblog/internal/config"
	"goblog/internal/handler"
	"goblog/internal/logging"
	"goblog/internal/render"
	"goblog/internal/service"
	"goblog/internal/session"
	"goblog/internal/store"
	"goblog/web"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Optional .env file for local development.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	db, err := store.NewDB(cfg.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := store.Migrate(db); err != nil {
		return err
	}

	setupLogger(cfg, db)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.DoSeed {
		if err := store.Seed(ctx, db); err != nil {
			return err
		}
	}

	sessionManager := session.New(db, cfg.IsDevelopment())

	templatesFS, err := fs.Sub(web.TemplatesFS, "templates")
	if err != nil {
		return err
	}
	renderer, err := render.New(render.Config{
		TemplatesFS:    templatesFS,
		SessionManager: sessionManager,
	})
	if err != nil {
		return err
	}

	media, err := service.NewMediaService(cfg.UploadsDir)
	if err != nil {
		return err
	}
	events := service.NewEventService(db)

	staticFS, err := fs.Sub(web.StaticFS, "static")
	if err != nil {
		return err
	}

	router := handler.Routes(handler.RouterConfig{
		DB:         db,
		Sessions:   sessionManager,
		Renderer:   renderer,
		Media:      media,
		Events:     events,
		PageSize:   cfg.PageSize,
		IsDev:      cfg.IsDevelopment(),
		CSRFKey:    []byte(cfg.SessionSecret)[:32],
		ServerAddr: cfg.ServerAddr(),
		StaticFS:   staticFS,
		UploadsDir: cfg.UploadsDir,
	})

	server := &http.Server{
		Addr:         cfg.ServerAddr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", cfg.ServerAddr(), "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// setupLogger installs the default slog logger, mirroring WARN and ERROR
// records into the events table.
func setupLogger(cfg *config.Config, db *sql.DB) {
	var level slog.Level
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	var inner slog.Handler
	if cfg.IsDevelopment() {
		inner = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	} else {
		inner = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	}

	slog.SetDefault(slog.New(logging.NewEventLogHandler(inner, db)))
}
