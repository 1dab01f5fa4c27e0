// Command reminder-worker sends WhatsApp reminders for appointments coming up
// inside the reminder window. It is a one-shot job meant to run on a cron
// schedule.
package main

import (
	"context"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/clinicdesk/clinic-secretary/internal/appointments"
	"github.com/clinicdesk/clinic-secretary/internal/config"
	"github.com/clinicdesk/clinic-secretary/internal/notify"
	"github.com/clinicdesk/clinic-secretary/internal/whatsapp"
	"github.com/clinicdesk/clinic-secretary/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	logger := logging.New(cfg.LogLevel)

	if cfg.DatabaseURL == "" {
		logger.Error("DATABASE_URL is required")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to create database pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	waClient := whatsapp.New(whatsapp.Config{
		BaseURL:           cfg.MetaBaseURL,
		AccessToken:       cfg.MetaAccessToken,
		PhoneNumberID:     cfg.MetaPhoneNumberID,
		BusinessAccountID: cfg.MetaBusinessAccountID,
		VerifyToken:       cfg.MetaVerifyToken,
		Logger:            logger,
	})
	if !waClient.Ready() {
		logger.Error("whatsapp credentials missing, cannot send reminders")
		os.Exit(1)
	}

	repo := appointments.NewRepository(pool, logger)
	notifier := notify.NewService(waClient, logger)

	now := time.Now()
	due, err := repo.ListRemindable(ctx, now, now.Add(cfg.ReminderWindow))
	if err != nil {
		logger.Error("failed to list remindable appointments", "error", err)
		os.Exit(1)
	}

	reminders := make([]notify.Reminder, 0, len(due))
	for _, appt := range due {
		reminders = append(reminders, notify.Reminder{
			To: appt.PatientPhone,
			Details: notify.Details{
				PatientName:     appt.PatientName,
				DoctorName:      appt.DoctorName,
				AppointmentType: appt.Type,
				When:            appt.ScheduledAt,
			},
		})
	}

	sent, failed := notifier.SendReminders(ctx, reminders)
	logger.Info("reminder run complete",
		"window", cfg.ReminderWindow.String(),
		"due", len(due),
		"sent", sent,
		"failed", failed,
	)
	if failed > 0 && sent == 0 {
		os.Exit(1)
	}
}
