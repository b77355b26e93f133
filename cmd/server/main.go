// Command server runs the CRM client-core gateway: the lead cache backed by
// the upstream CRM API, the optimistic lead edit flow, the reminder poller,
// and the alarm arbiter, exposed over a versioned REST API.
package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/leadcore/go-crm-backend/internal/alarm"
	"github.com/leadcore/go-crm-backend/internal/cache"
	"github.com/leadcore/go-crm-backend/internal/config"
	httpapi "github.com/leadcore/go-crm-backend/internal/http"
	"github.com/leadcore/go-crm-backend/internal/observability"
	"github.com/leadcore/go-crm-backend/internal/remote"
	"github.com/leadcore/go-crm-backend/internal/services"
	"github.com/leadcore/go-crm-backend/internal/store"
	"github.com/leadcore/go-crm-backend/internal/sysutil"
)

// version is stamped at build time via -ldflags.
var version = "dev"

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.MustLoad()
	sysutil.SetupLogging(cfg.LogLevel, cfg.LogPretty)
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		log.Fatal().Err(err).Msg("otel setup failed")
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOTel(sctx); err != nil {
			log.Warn().Err(err).Msg("otel shutdown")
		}
	}()

	// Upstream CRM client, shared by the cache and both services.
	client := remote.NewClient(cfg.CRMBaseURL, cfg.CRMAPIKey, &http.Client{Timeout: cfg.CRMTimeout}, log.Logger)

	leadCache := cache.New(cfg.CacheTTL, client, client, log.Logger)
	leadStore := store.NewLeadStore()
	notifier := services.NewLogNotifier(log.Logger)

	leadSvc := services.NewLeadService(leadCache, leadStore, client, notifier, log.Logger)
	remSvc := services.NewReminderService(client, notifier, cfg.PollInterval, log.Logger)

	arbiter := alarm.New(alarm.NewLogSounder(log.Logger), log.Logger)
	if cfg.AlarmDisabled {
		log.Info().Msg("alarm disabled; reminder state changes will not trigger it")
	} else {
		arbiter.Bind(remSvc)
		remSvc.AttachAlarm(arbiter)
	}

	// Background refresh of loaded reminder sets.
	remSvc.Start(ctx)

	engine := gin.New()
	httpapi.RegisterRoutes(engine, httpapi.Deps{
		Leads:     leadSvc,
		Reminders: remSvc,
		Alarm:     arbiter,
	}, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           engine,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("version", version).Msg("server starting")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}

	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
	log.Info().Msg("server stopped")
}
