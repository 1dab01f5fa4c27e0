package main

import (
	"context"
	"crypto/tls"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/clinicdesk/clinic-secretary/internal/api/router"
	"github.com/clinicdesk/clinic-secretary/internal/appointments"
	"github.com/clinicdesk/clinic-secretary/internal/calendar"
	"github.com/clinicdesk/clinic-secretary/internal/clinicinfo"
	"github.com/clinicdesk/clinic-secretary/internal/config"
	"github.com/clinicdesk/clinic-secretary/internal/conversation"
	"github.com/clinicdesk/clinic-secretary/internal/doctors"
	"github.com/clinicdesk/clinic-secretary/internal/notify"
	"github.com/clinicdesk/clinic-secretary/internal/observability/metrics"
	"github.com/clinicdesk/clinic-secretary/internal/patients"
	"github.com/clinicdesk/clinic-secretary/internal/schedule"
	"github.com/clinicdesk/clinic-secretary/internal/whatsapp"
	"github.com/clinicdesk/clinic-secretary/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	logger := logging.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.DatabaseURL == "" {
		logger.Error("DATABASE_URL is required")
		os.Exit(1)
	}
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to create database pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		logger.Error("failed to ping database", "error", err)
		os.Exit(1)
	}

	redisOpts := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOpts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	redisClient := redis.NewClient(redisOpts)
	defer func() { _ = redisClient.Close() }()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Error("failed to ping redis", "addr", cfg.RedisAddr, "error", err)
		os.Exit(1)
	}

	info, err := clinicinfo.Load(cfg.ClinicInfoPath)
	if err != nil {
		logger.Error("failed to load clinic document", "path", cfg.ClinicInfoPath, "error", err)
		os.Exit(1)
	}

	waClient := whatsapp.New(whatsapp.Config{
		BaseURL:           cfg.MetaBaseURL,
		AccessToken:       cfg.MetaAccessToken,
		PhoneNumberID:     cfg.MetaPhoneNumberID,
		BusinessAccountID: cfg.MetaBusinessAccountID,
		VerifyToken:       cfg.MetaVerifyToken,
		Logger:            logger,
	})
	if !waClient.Ready() {
		logger.Warn("whatsapp credentials missing, outbound messages disabled")
	}

	calClient, err := calendar.New(ctx, calendar.Config{
		CalendarID:      cfg.GoogleCalendarID,
		CredentialsJSON: cfg.GoogleServiceAccountJSON,
		Logger:          logger,
	})
	if err != nil {
		logger.Error("failed to build calendar client", "error", err)
		os.Exit(1)
	}
	if !calClient.Ready() {
		logger.Warn("calendar credentials missing, event sync disabled")
	}

	patientRepo := patients.NewRepository(pool, logger)
	doctorRepo := doctors.NewRepository(pool, logger)
	apptRepo := appointments.NewRepository(pool, logger)

	notifier := notify.NewService(waClient, logger)

	engine := conversation.NewEngine(conversation.EngineConfig{
		Patients:     patientRepo,
		Doctors:      doctorRepo,
		Appointments: apptRepo,
		Calendar:     calClient,
		Notifier:     notifier,
		Info:         info,
		Logger:       logger,
	})
	store := conversation.NewStore(redisClient)
	convMetrics := metrics.NewConversationMetrics(nil)

	scheduleService := schedule.NewService(apptRepo, calClient, cfg.BusinessHourStart, cfg.BusinessHourEnd, logger)

	handler := router.New(router.Config{
		Conversation: conversation.NewHandler(engine, store, waClient, patientRepo, convMetrics, logger),
		ClinicInfo:   clinicinfo.NewHandler(info, logger),
		Appointments: appointments.NewHandler(apptRepo, notifier, logger),
		Schedule:     schedule.NewHandler(scheduleService, logger),
		CORSOrigins:  cfg.CORSAllowedOrigins,
		Logger:       logger,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "port", cfg.Port, "env", cfg.Env)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}
