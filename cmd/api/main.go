package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"complaint-hotline/internal/auth"
	"complaint-hotline/internal/calls"
	"complaint-hotline/internal/classify"
	"complaint-hotline/internal/complaints"
	"complaint-hotline/internal/config"
	"complaint-hotline/internal/httpapi"
	"complaint-hotline/internal/ingest"
	"complaint-hotline/internal/reporting"
	"complaint-hotline/internal/telephony"
	"complaint-hotline/internal/transcribe"
	"complaint-hotline/pkg/logger"
	"complaint-hotline/pkg/utils"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
)

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if os.Getenv("APP_ENV") != "production" {
		_ = godotenv.Load()
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	authManager, err := auth.NewManager(cfg.Auth)
	if err != nil {
		log.Error("auth init failed", "err", err)
		os.Exit(1)
	}

	db, err := utils.OpenPostgres(rootCtx, "pgx", cfg.PostgresDSN(), utils.PostgresPoolConfig{})
	if err != nil {
		log.Error("postgres init failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	rdb, err := utils.OpenRedis(rootCtx, utils.RedisConfig{Addr: cfg.RedisAddr()})
	if err != nil {
		log.Error("redis init failed", "err", err)
		os.Exit(1)
	}
	defer rdb.Close()

	// Stores
	callStore := calls.NewPostgresStore(db)
	complaintStore := complaints.NewPostgresStore(db)
	userStore := auth.NewPostgresUserStore(db)

	// Services
	callService := calls.NewService(callStore, cfg.Ingest.MinDurationSeconds)
	complaintService := complaints.NewService(complaintStore)
	authService := auth.NewService(userStore, authManager)
	reportingService := reporting.NewService(reporting.StoreRepo{Calls: callStore, Complaints: complaintStore})

	// Ingestion pipeline with its external clients
	transcriber := transcribe.NewClient(transcribe.Config{
		AccountSID: cfg.Twilio.AccountSID,
		AuthToken:  cfg.Twilio.AuthToken,
		APIKey:     cfg.OpenAI.APIKey,
		BaseURL:    cfg.OpenAI.BaseURL,
		Model:      cfg.OpenAI.TranscribeModel,
		Language:   cfg.OpenAI.Language,
		Timeout:    cfg.OpenAI.RequestTimeout,
	}, log)
	classifier := classify.NewClassifier(classify.Config{
		APIKey:  cfg.OpenAI.APIKey,
		BaseURL: cfg.OpenAI.BaseURL,
		Model:   cfg.OpenAI.ChatModel,
		Timeout: cfg.OpenAI.RequestTimeout,
	}, log)
	pipeline := ingest.NewPipeline(callService, callStore, transcriber, classifier, complaintService, log)

	webhooks := telephony.WebhookHandler{
		Pipeline:              pipeline,
		Redis:                 rdb,
		LeaseTTL:              cfg.Ingest.LeaseTTL,
		HostURL:               cfg.App.HostURL,
		RecordingCallbackPath: recordingStatusPath,
	}

	handlers := httpapi.Handlers{
		Auth:       authService,
		Calls:      callService,
		Complaints: complaintService,
		Reporting:  reportingService,
	}

	// Gin router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))

	registerRoutes(r, webhooks, handlers, auth.RequireAccessToken(authManager))

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}
}
