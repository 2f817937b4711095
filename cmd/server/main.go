// Package main is the entry point for the meeting engine server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/PabloGalante/meeting-engine/internal/agentsvc"
	"github.com/PabloGalante/meeting-engine/internal/audit"
	"github.com/PabloGalante/meeting-engine/internal/broadcast"
	"github.com/PabloGalante/meeting-engine/internal/config"
	"github.com/PabloGalante/meeting-engine/internal/coordinator"
	"github.com/PabloGalante/meeting-engine/internal/httpapi"
	"github.com/PabloGalante/meeting-engine/internal/llm"
	"github.com/PabloGalante/meeting-engine/internal/meetingsvc"
	"github.com/PabloGalante/meeting-engine/internal/mindmap"
	"github.com/PabloGalante/meeting-engine/internal/minutes"
	"github.com/PabloGalante/meeting-engine/internal/selector"
	"github.com/PabloGalante/meeting-engine/internal/store"
	"github.com/PabloGalante/meeting-engine/internal/store/memstore"
	"github.com/PabloGalante/meeting-engine/internal/turnengine"
	"github.com/PabloGalante/meeting-engine/pkg/logger"
	"github.com/PabloGalante/meeting-engine/pkg/tracing"
)

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	logger.SetGlobal(log)

	log.Info("starting meeting engine server")

	ctx := context.Background()
	if cfg.TracingEnabled {
		tp, err := tracing.InitTracer(ctx, "meeting-engine", cfg.TracingEndpoint)
		if err != nil {
			log.Warn("failed to initialize tracing")
		} else {
			defer tracing.Shutdown(ctx, tp)
		}
	}

	st, ready, err := newStore(cfg)
	if err != nil {
		log.Sugar().Errorw("failed to initialize store", "error", err)
		os.Exit(1)
	}

	coord := coordinator.NewWithMaxChainDepth(cfg.MaxChainDepth)
	hub := broadcast.New()
	sel := selector.New()

	retryPolicy := llm.RetryPolicy{
		MaxAttempts: cfg.RetryMaxAttempts,
		BaseDelay:   cfg.RetryBaseDelay,
		MaxDelay:    cfg.RetryMaxDelay,
	}
	engine := turnengine.NewEngineWithConfig(st, hub, log, turnengine.Config{
		RetryPolicy:       retryPolicy,
		BlockingDeadline:  cfg.BlockingTurnTimeout,
		StreamingDeadline: cfg.StreamingTurnTimeout,
	})
	minutesGen := minutes.NewWithRetryPolicy(retryPolicy)
	mindmapGen := mindmap.NewWithRetryPolicy(retryPolicy)

	// Wiring a typed-nil *audit.Mirror into an AuditSink interface
	// variable would make the service's nil check pass even when the
	// concrete pointer is nil, so audit stays a literal nil unless a
	// mirror is actually connected.
	var auditSink meetingsvc.AuditSink
	if cfg.AuditEnabled {
		mirror, err := audit.Connect(ctx, audit.Config{
			URL:      cfg.NATSURL,
			CAFile:   cfg.NATSCAFile,
			CertFile: cfg.NATSCertFile,
			KeyFile:  cfg.NATSKeyFile,
			Token:    cfg.NATSToken,
		}, log)
		if err != nil {
			log.Sugar().Errorw("failed to connect audit mirror", "error", err)
			os.Exit(1)
		}
		defer mirror.Close()
		auditSink = mirror
	}

	meetingSvc := meetingsvc.New(st, coord, hub, sel, engine, minutesGen, mindmapGen, auditSink, log)
	agentSvc := agentsvc.New(st, log)

	router := httpapi.NewRouter(cfg, log, agentSvc, meetingSvc, ready)

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Sugar().Infow("server listening", "port", cfg.ServerPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Sugar().Errorw("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Sugar().Errorw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}

// newStore builds the persistence backend cfg.StoreBackend names and a
// readiness probe for it. memstore has nothing to check, so its probe is
// nil; the file backend reports not-ready if its directory became
// unwritable.
func newStore(cfg *config.Config) (store.Store, func() error, error) {
	switch cfg.StoreBackend {
	case "memory":
		return memstore.New(), nil, nil
	default:
		fs, err := store.NewFileStore(cfg.StoreDir)
		if err != nil {
			return nil, nil, err
		}
		ready := func() error {
			_, err := os.Stat(cfg.StoreDir)
			return err
		}
		return fs, ready, nil
	}
}
