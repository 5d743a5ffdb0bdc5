package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/example/stockdesk/internal/config"
	"github.com/example/stockdesk/internal/migrations"
	"github.com/example/stockdesk/internal/obs"
	"go.uber.org/zap"
)

type App struct {
	DB          DB
	sessions    *Sessions
	jobs        *JobRunner
	log         *zap.Logger
	metrics     *obs.HTTPMetrics
	rateLimiter *RateLimiter

	cookie      config.Cookie
	refreshTTL  time.Duration
	corsOrigins []string
}

func NewApp(c *config.Config, db DB, logger *zap.Logger) *App {
	issuer := NewTokenIssuer([]byte(c.JwtSecret), c.AccessTTL)
	return &App{
		DB:          db,
		sessions:    NewSessions(db, issuer, c.RefreshTTL),
		jobs:        NewJobRunner(c.Script, logger),
		log:         logger,
		metrics:     obs.NewHTTPMetrics("stockdesk"),
		rateLimiter: NewRateLimiter(c.RateLimitPerMinute),
		cookie:      c.Cookie,
		refreshTTL:  c.RefreshTTL,
		corsOrigins: c.CORSOrigins,
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("write json", zap.Error(err))
	}
}

func openDB(c *config.Config, logger *zap.Logger) (DB, error) {
	switch c.DBAdapter {
	case "sqlite":
		return NewSQLiteDB(c.SQLiteFile)
	case "postgres":
		dsn, err := c.BuildPostgresDSN()
		if err != nil {
			return nil, fmt.Errorf("postgres config: %w", err)
		}
		if err := migrations.Apply(c.MigrationsDir, dsn, logger); err != nil {
			return nil, fmt.Errorf("migrate: %w", err)
		}
		return NewPostgresDB(dsn)
	case "memory":
		logger.Warn("using in-memory database; data is lost on exit")
		return NewSQLiteDB(":memory:")
	default:
		return nil, fmt.Errorf("unsupported DB_ADAPTER: %s (supported: postgres, sqlite, memory)", c.DBAdapter)
	}
}

func main() {
	c, err := config.New()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger, err := obs.NewLogger(obs.LogConfig{Level: c.LogLevel, Pretty: c.LogPretty, App: "stockdesk", Env: c.Env})
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	db, err := openDB(c, logger)
	if err != nil {
		logger.Fatal("database init", zap.String("adapter", c.DBAdapter), zap.Error(err))
	}
	logger.Info("database ready", zap.String("adapter", c.DBAdapter))

	app := NewApp(c, db, logger)
	srv := &http.Server{
		Handler:           app.Router(),
		Addr:              ":" + c.Port,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", zap.Error(err))
	}
	if err := app.jobs.Shutdown(shutdownCtx); err != nil {
		logger.Error("job shutdown", zap.Error(err))
	}
	if err := db.Close(); err != nil {
		logger.Error("db close", zap.Error(err))
	}
	logger.Info("server exited properly")
}
