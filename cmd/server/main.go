package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"servicebook/internal/audit"
	"servicebook/internal/document"
	"servicebook/internal/document/render"
	"servicebook/internal/platform/config"
	"servicebook/internal/platform/database"
	"servicebook/internal/platform/httpserver"
	"servicebook/internal/platform/logger"
	"servicebook/internal/platform/metrics"
	"servicebook/internal/platform/middleware"
	platformredis "servicebook/internal/platform/redis"
	"servicebook/internal/profile"
	profilehandler "servicebook/internal/profile/handler"
	recordhandler "servicebook/internal/record/handler"
	recordservice "servicebook/internal/record/service"
	recordstore "servicebook/internal/record/store"
	"servicebook/internal/registry"
	"servicebook/internal/session"
	sessionhandler "servicebook/internal/session/handler"
	"servicebook/internal/signing"
	"servicebook/internal/signing/esign"
	"servicebook/internal/signing/otp"
	httptransport "servicebook/internal/transport/http"
	"servicebook/internal/workflow"
	workflowhandler "servicebook/internal/workflow/handler"
)

// main wires high-level dependencies and keeps the server lifecycle small.
// Business logic lives in the internal service packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()
	m := metrics.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Stores: Postgres when configured, in-memory otherwise.
	var (
		records    recordstore.Store = recordstore.NewInMemoryStore()
		timelines  workflow.Store    = workflow.NewInMemoryStore()
		auditStore audit.Store       = audit.NewInMemoryStore()
	)
	if cfg.DatabaseURL != "" {
		db, err := database.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Error("database connection failed", "error", err.Error())
			os.Exit(1)
		}
		defer db.Close()
		records = recordstore.NewPostgres(db)
		timelines = workflow.NewPostgres(db)
		auditStore = audit.NewPostgres(db)
	}

	var sessions session.Store = session.NewInMemoryStore()
	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("redis connection failed", "error", err.Error())
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		sessions = session.NewRedisStore(redisClient)
	}

	var docs signing.Documents = document.NewInMemoryStore()
	if cfg.Document.AccessKey != "" {
		minioStore, err := document.NewMinio(ctx, cfg.Document)
		if err != nil {
			log.Error("document store connection failed", "error", err.Error())
			os.Exit(1)
		}
		docs = minioStore
	}

	auditor := audit.NewService(auditStore)
	registryClient := registry.NewClient(cfg.Registry)

	recordSvc, err := recordservice.New(records, registryClient, auditor, m, log)
	if err != nil {
		log.Error("record service init failed", "error", err.Error())
		os.Exit(1)
	}
	profileSvc, err := profile.New(registryClient, recordSvc, timelines, log)
	if err != nil {
		log.Error("profile service init failed", "error", err.Error())
		os.Exit(1)
	}
	renderer, err := render.New(profileSvc)
	if err != nil {
		log.Error("renderer init failed", "error", err.Error())
		os.Exit(1)
	}
	saga, err := signing.New(otp.NewClient(cfg.Signing), renderer, docs, esign.NewClient(cfg.Signing), nil, m, log)
	if err != nil {
		log.Error("signing saga init failed", "error", err.Error())
		os.Exit(1)
	}
	workflowSvc, err := workflow.New(timelines, profileSvc, saga, auditor, m, log)
	if err != nil {
		log.Error("workflow service init failed", "error", err.Error())
		os.Exit(1)
	}
	sessionSvc, err := session.NewService(sessions)
	if err != nil {
		log.Error("session service init failed", "error", err.Error())
		os.Exit(1)
	}

	validator := middleware.NewHMACValidator(cfg.JWTSigningKey)
	router := httptransport.NewRouter(log, m,
		sessionhandler.New(sessionSvc, validator, log, validator),
		profilehandler.New(profileSvc, log, validator),
		recordhandler.New(recordSvc, log, validator),
		workflowhandler.New(workflowSvc, log, validator),
	)

	srv := httpserver.New(cfg.Addr, router)

	if len(cfg.Audit.Brokers) > 0 {
		worker, err := audit.NewWorker(auditStore, cfg.Audit.Brokers, cfg.Audit.Topic, log)
		if err != nil {
			log.Error("audit worker init failed", "error", err.Error())
			os.Exit(1)
		}
		defer worker.Close()
		go func() {
			if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("audit worker stopped", "error", err.Error())
			}
		}()
	}

	go func() {
		log.Info("starting servicebook", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err.Error())
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err.Error())
	}
}
