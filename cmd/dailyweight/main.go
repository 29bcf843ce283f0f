package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	adapthttp "dailyweight/internal/adapter/http"
	"dailyweight/internal/adapter/memory"
	"dailyweight/internal/adapter/notify"
	"dailyweight/internal/adapter/postgres"
	"dailyweight/internal/adapter/prefs"
	"dailyweight/internal/adapter/sqlite"
	"dailyweight/internal/app"
	"dailyweight/internal/app/addweight"
	"dailyweight/internal/app/history"
	"dailyweight/internal/app/home"
	"dailyweight/internal/app/login"
	"dailyweight/internal/app/setgoal"
	"dailyweight/internal/app/settings"
	"dailyweight/internal/config"
	"dailyweight/internal/domain"
	"dailyweight/internal/logging"
)

// store is what every backend provides.
type store interface {
	domain.UserRepository
	domain.WeightRepository
	domain.GoalRepository
}

func main() {
	configFile := flag.String("config", os.Getenv("CONFIG"), "path to a YAML config file")
	flag.Parse()

	if err := run(*configFile); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(configFile string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}
	logger, err := logging.Setup(cfg.LogLevel)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, closeDB, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeDB()

	preferences, err := prefs.Open(cfg.PrefsPath, logger.With("component", "prefs"))
	if err != nil {
		return err
	}
	notifications := notify.New(cfg.NotificationsGranted, logger.With("component", "notify"))

	session := app.NewSession()
	screens := adapthttp.Screens{
		Login:     login.New(db, session, logger),
		Home:      home.New(ctx, session, db, db, preferences, logger),
		History:   history.New(ctx, session, db, preferences, logger),
		AddWeight: addweight.New(session, db, db, preferences, notifications, logger),
		SetGoal:   setgoal.New(session, db, preferences, logger),
		Settings:  settings.New(ctx, session, db, preferences, logger),
	}
	defer screens.Home.Close()
	defer screens.History.Close()
	defer screens.Settings.Close()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           adapthttp.New(session, app.NewNavigator(), screens, notifications, cfg.WebDir, logger).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.Addr, "store", cfg.Store)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (store, func(), error) {
	log := logger.With("component", "store", "store", cfg.Store)
	switch cfg.Store {
	case config.StorePostgres:
		db, err := postgres.Open(ctx, cfg.DatabaseURL, log)
		if err != nil {
			return nil, nil, fmt.Errorf("db open: %w", err)
		}
		return db, func() { _ = db.Close() }, nil
	case config.StoreMemory:
		return memory.New(log), func() {}, nil
	default:
		db, err := sqlite.Open(ctx, cfg.DBPath, log)
		if err != nil {
			return nil, nil, fmt.Errorf("db open: %w", err)
		}
		return db, func() { _ = db.Close() }, nil
	}
}
