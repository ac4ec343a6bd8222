package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"regdesk/internal/backend"
	"regdesk/internal/drafts"
	"regdesk/internal/platform/config"
	"regdesk/internal/platform/httpserver"
	"regdesk/internal/platform/logger"
	"regdesk/internal/platform/metrics"
	"regdesk/internal/registration"
	"regdesk/internal/searchcache"
	"regdesk/internal/session"
	"regdesk/internal/session/lockout"
	"regdesk/internal/subject/display"
	"regdesk/internal/subject/i18n"
	"regdesk/internal/subject/validation"
	httptransport "regdesk/internal/transport/http"
)

// main wires the desk: stores first, then services, then routes.
func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.Log.Level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	infra, err := buildInfra(ctx, cfg, log)
	if err != nil {
		log.Error("failed to initialise storage", "error", err)
		os.Exit(1)
	}
	defer infra.Close()

	operators := session.DevDirectory()
	if cfg.Session.OperatorsFile != "" {
		operators, err = session.LoadDirectory(cfg.Session.OperatorsFile)
		if err != nil {
			log.Error("failed to load operators", "path", cfg.Session.OperatorsFile, "error", err)
			os.Exit(1)
		}
	} else {
		log.Warn("no operators file configured, using development operators")
	}
	sessions := session.New(operators, session.NewTokenService(cfg.Session.SigningKey),
		session.WithTTL(cfg.Session.TTL),
		session.WithRevocationList(infra.revocations),
		session.WithLockout(lockout.New(infra.lockouts,
			lockout.WithConfig(lockout.Config{
				MaxAttempts:  cfg.Session.MaxFailedLogins,
				Window:       cfg.Session.LockoutWindow,
				LockDuration: cfg.Session.LockoutDuration,
			}),
			lockout.WithLogger(log),
		)),
		session.WithAuditPublisher(infra.auditor),
		session.WithLogger(log),
	)

	client := backend.NewFromConfig(cfg.Backend,
		backend.WithLogger(log),
		backend.WithMetrics(m),
	)
	bundle := i18n.NewBundle(cfg.Display.DefaultLanguage)
	cache := searchcache.New(infra.searchStore,
		searchcache.WithTTL(cfg.SearchCacheTTL),
		searchcache.WithMetrics(m),
		searchcache.WithLogger(log),
	)
	regSvc := registration.New(client,
		registration.WithValidator(validation.New(validation.WithLimits(validation.Limits{
			AdultMaxBytes: cfg.Imaging.AdultMaxBytes,
			MinorMaxBytes: cfg.Imaging.MinorMaxBytes,
		}))),
		registration.WithDisplay(display.New(display.WithReveal(cfg.Display.RevealIdentity))),
		registration.WithBundle(bundle),
		registration.WithSearchCache(cache),
		registration.WithAuditPublisher(infra.auditor),
		registration.WithMetrics(m),
		registration.WithLogger(log),
		registration.WithFollowUpTimeout(cfg.Backend.FollowUpTimeout),
	)
	draftSvc := drafts.NewService(infra.draftStore, cfg.DraftTTL)

	router := httptransport.NewRouter(httptransport.Deps{
		Logger:       log,
		Metrics:      m,
		Bundle:       bundle,
		Sessions:     sessions,
		Registration: regSvc,
		Drafts:       draftSvc,
		Audit:        infra.auditor,
		AdminToken:   cfg.AdminToken,
	})

	srv := httpserver.New(cfg.Addr, router)
	go func() {
		log.Info("starting regdesk", "addr", cfg.Addr, "backend", cfg.Backend.BaseURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
	regSvc.Close()
}
