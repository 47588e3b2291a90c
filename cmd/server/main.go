// Command server runs the marathon trainer. RUN_MODE selects what starts:
// the JSON API tier, the server-rendered web tier, the background sync
// worker, or all three in one process.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/abhishyantkhare/marathon-trainer/internal/auth"
	"github.com/abhishyantkhare/marathon-trainer/internal/config"
	"github.com/abhishyantkhare/marathon-trainer/internal/database"
	"github.com/abhishyantkhare/marathon-trainer/internal/httpapi"
	"github.com/abhishyantkhare/marathon-trainer/internal/logging"
	"github.com/abhishyantkhare/marathon-trainer/internal/models"
	"github.com/abhishyantkhare/marathon-trainer/internal/planner"
	"github.com/abhishyantkhare/marathon-trainer/internal/session"
	"github.com/abhishyantkhare/marathon-trainer/internal/store"
	"github.com/abhishyantkhare/marathon-trainer/internal/strava"
	"github.com/abhishyantkhare/marathon-trainer/internal/web"
	"github.com/abhishyantkhare/marathon-trainer/internal/worker"
)

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	logger := logging.New(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	runAPI := cfg.RunMode == "api" || cfg.RunMode == "all"
	runWeb := cfg.RunMode == "web" || cfg.RunMode == "all"
	runWorker := cfg.RunMode == "worker" || cfg.RunMode == "all"

	// Only the API and worker tiers touch the database; the web tier reaches
	// everything through the API client.
	var st *store.Store
	var syncer *strava.Syncer
	if runAPI || runWorker {
		if cfg.EncryptionKey != "" {
			if err := models.InitEncryption(cfg.EncryptionKey); err != nil {
				return fmt.Errorf("failed to init token encryption: %w", err)
			}
		} else {
			log.Println("WARNING: TOKEN_ENCRYPTION_KEY not set. Strava tokens will be stored in plaintext.")
		}

		db, err := database.Init(cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer func() {
			if err := database.Close(db); err != nil {
				logger.Error("failed to close database", "error", err)
			}
		}()

		if err := database.RunMigrations(db); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		if cfg.Env == "development" {
			if err := database.SeedDevData(db); err != nil {
				logger.Warn("failed to seed dev data", "error", err)
			}
		}

		st = store.NewGorm(db)
		syncer = strava.NewSyncer(strava.NewClient(cfg.StravaClientID, cfg.StravaClientSecret), st.Users, st.Runs, logger)
	}

	if runWorker {
		if err := worker.InitClient(cfg.RedisURL); err != nil {
			return fmt.Errorf("failed to init task client: %w", err)
		}
		defer worker.CloseClient()
	}

	// Standalone worker mode blocks inside asynq's own signal-aware loop.
	if cfg.RunMode == "worker" {
		stopScheduler, err := worker.StartScheduler(cfg)
		if err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
		defer stopScheduler()
		return worker.Run(cfg, st.Users, syncer)
	}

	var servers []*http.Server
	var shutdowns []func()

	if runAPI {
		auth.InitProviders(cfg)

		generator, err := planner.NewGenerator(cfg.AnthropicAPIKey, cfg.PlannerModel, cfg.PlannerStub, logger)
		if err != nil {
			return fmt.Errorf("failed to create planner: %w", err)
		}

		api := httpapi.NewServer(cfg, logger, *st, auth.NewHandler(st.Users, cfg, logger), syncer, generator)
		servers = append(servers, &http.Server{Addr: cfg.APIAddress, Handler: api.Router()})
		logger.Info("API tier listening", "address", cfg.APIAddress)
	}

	if runWeb {
		manager := session.NewManager(cfg.WebSessionTTL, func(token string) *session.Store {
			return session.New(cfg.APIBaseURL, token, logger)
		})
		defer manager.Close()

		webSrv, err := web.NewServer(cfg, logger, manager)
		if err != nil {
			return fmt.Errorf("failed to create web server: %w", err)
		}
		servers = append(servers, &http.Server{Addr: cfg.WebAddress, Handler: webSrv.Router()})
		logger.Info("web tier listening", "address", cfg.WebAddress)
	}

	if runWorker {
		stopWorker, err := worker.Start(cfg, st.Users, syncer)
		if err != nil {
			return fmt.Errorf("failed to start worker: %w", err)
		}
		shutdowns = append(shutdowns, stopWorker)

		stopScheduler, err := worker.StartScheduler(cfg)
		if err != nil {
			stopWorker()
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
		shutdowns = append(shutdowns, stopScheduler)
	}

	errCh := make(chan error, len(servers))
	for _, srv := range servers {
		srv := srv
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
		}()
	}

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		runErr = err
		logger.Error("http server failed", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	for _, srv := range servers {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown failed", "error", err)
		}
	}
	for i := len(shutdowns) - 1; i >= 0; i-- {
		shutdowns[i]()
	}

	return runErr
}
