package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	api "github.com/mind-engage/quizgrade/internal/api/http"
	auth "github.com/mind-engage/quizgrade/internal/auth/middleware"
	"github.com/mind-engage/quizgrade/internal/config"
	"github.com/mind-engage/quizgrade/internal/db"
	"github.com/mind-engage/quizgrade/internal/grading"
	"github.com/mind-engage/quizgrade/internal/logger"
	"github.com/mind-engage/quizgrade/internal/progress"
	"github.com/mind-engage/quizgrade/internal/quiz"
	syncx "github.com/mind-engage/quizgrade/internal/sync"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log, err := logger.New(cfg)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Storage ---
	var (
		store   quiz.Store
		events  syncx.Log
		cursors syncx.CursorStore
		ready   func(context.Context) error
	)
	if db.Driver(cfg.DB.Driver) == db.DriverMemory {
		store = quiz.NewInMemoryStore()
		events = syncx.NewMemoryLog(cfg.Events.SiteID)
		cursors = syncx.NewMemoryCursor()
	} else {
		openCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		dbh, err := db.Open(openCtx, db.Driver(cfg.DB.Driver), cfg.DB.DSN)
		cancel()
		if err != nil {
			log.Fatal("db open failed", zap.String("driver", cfg.DB.Driver), zap.Error(err))
		}
		defer dbh.Close()
		store = quiz.NewSQLStore(dbh, cfg.DB.Driver)
		events = syncx.NewEventRepo(dbh, cfg.Events.SiteID)
		cursors = syncx.NewCursorRepo(dbh)
		ready = pinger(dbh)
	}

	// --- Grading ---
	engine := grading.New(
		grading.WithWorkers(cfg.Grading.Workers),
		grading.WithRegexTimeout(cfg.Grading.RegexTimeout),
	)
	svc := progress.NewService(store, engine, events, log)

	// --- Auth ---
	authSvc, err := auth.NewAuthService(cfg.Auth.HMACSecret, cfg.Auth.TokenTTL, cfg.Auth.AdminUser, cfg.Auth.AdminPassHash)
	if err != nil {
		log.Fatal("auth setup failed", zap.Error(err))
	}
	if cfg.Auth.AdminPassHash == "" {
		log.Warn("no admin password hash configured; using the development default")
	}

	if cfg.Events.ForwardURL != "" {
		fwd := syncx.NewForwarder(events, syncx.NewGradebookClient(syncx.GradebookConfig{
			URL:          cfg.Events.ForwardURL,
			TokenURL:     cfg.Events.TokenURL,
			ClientID:     cfg.Events.ClientID,
			ClientSecret: cfg.Events.ClientSecret,
			Timeout:      10 * time.Second,
		}), cursors, log)
		go fwd.Run(ctx, cfg.Events.ForwardEvery)
		log.Info("forwarding scores", zap.String("url", cfg.Events.ForwardURL), zap.Duration("every", cfg.Events.ForwardEvery))
	}

	srv := &http.Server{
		Addr: cfg.HTTPAddr,
		Handler: api.NewRouter(api.Deps{
			Store:       store,
			Progress:    svc,
			Events:      events,
			Auth:        authSvc,
			Log:         log,
			CORSOrigins: cfg.CORS.AllowedOrigins(),
			Ready:       ready,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("shutdown", zap.Error(err))
		}
	}()

	log.Info("listening",
		zap.String("addr", cfg.HTTPAddr),
		zap.String("env", cfg.Env),
		zap.String("db", cfg.DB.Driver),
		zap.Int("grading_workers", engine.Workers()),
	)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("server failed", zap.Error(err))
	}
	log.Info("stopped")
}

func pinger(dbh *sql.DB) func(context.Context) error {
	return func(ctx context.Context) error { return dbh.PingContext(ctx) }
}
