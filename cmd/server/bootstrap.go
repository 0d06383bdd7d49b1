package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/gatherpoint/gatherpoint/internal/api"
	"github.com/gatherpoint/gatherpoint/internal/app"
	"github.com/gatherpoint/gatherpoint/internal/app/schedule"
	"github.com/gatherpoint/gatherpoint/internal/database"
	"github.com/gatherpoint/gatherpoint/internal/services"
	"github.com/gatherpoint/gatherpoint/pkg/logger"
	"github.com/gatherpoint/gatherpoint/pkg/mail"
)

// runtimeStack bundles long-lived services used by the HTTP server.
type runtimeStack struct {
	DB            *gorm.DB
	Mailer        mail.Mailer
	Reminders     *services.ReminderService
	Confirmations *services.ConfirmationService
	Scheduler     *schedule.Scheduler
	Router        *gin.Engine
}

// bootstrapRuntime initialises the database, mailer, services, scheduler and router.
func bootstrapRuntime(ctx context.Context, cfg *app.Config, log *zap.Logger) (*runtimeStack, error) {
	stack := &runtimeStack{}
	var err error
	success := false

	defer func() {
		if !success {
			stack.Shutdown(context.Background(), log)
		}
	}()

	if debug, _ := os.LookupEnv("GIN_DEBUG"); debug != "true" {
		gin.SetMode(gin.ReleaseMode)
	}

	stack.DB, err = initialiseDatabase(cfg)
	if err != nil {
		return nil, err
	}

	stack.Mailer, err = buildMailer(ctx, cfg)
	if err != nil {
		return nil, err
	}

	stack.Reminders, err = services.NewReminderService(stack.DB, stack.Mailer,
		services.WithReminderWindow(cfg.Reminders.Window),
		services.WithReminderExpiry(cfg.Reminders.TokenExpiry),
		services.WithReminderBaseURL(cfg.Reminders.BaseURL),
		services.WithReminderTimezone(cfg.Reminders.DefaultTimezone),
	)
	if err != nil {
		return nil, fmt.Errorf("initialise reminder service: %w", err)
	}

	stack.Confirmations, err = services.NewConfirmationService(stack.DB, stack.Mailer,
		services.WithConfirmationTimezone(cfg.Reminders.DefaultTimezone),
	)
	if err != nil {
		return nil, fmt.Errorf("initialise confirmation service: %w", err)
	}

	stack.Scheduler = schedule.New(stack.Reminders,
		schedule.WithGenerateSchedule(cfg.Reminders.Schedule),
		schedule.WithCleanupSchedule(cfg.Reminders.CleanupSchedule),
		schedule.WithRetention(cfg.Reminders.Retention),
	)
	if err := stack.Scheduler.Start(); err != nil {
		return nil, fmt.Errorf("start reminder scheduler: %w", err)
	}

	stack.Router, err = api.NewRouter(stack.DB, cfg, stack.Reminders, stack.Confirmations)
	if err != nil {
		return nil, fmt.Errorf("build api router: %w", err)
	}

	success = true
	return stack, nil
}

// Shutdown gracefully stops background jobs and releases resources.
func (s *runtimeStack) Shutdown(ctx context.Context, log *zap.Logger) {
	if s == nil {
		return
	}

	if s.Scheduler != nil {
		stopCtx := s.Scheduler.Stop()
		if stopCtx != nil {
			<-stopCtx.Done()
		}
	}

	if s.DB != nil {
		closeDatabase(s.DB, log)
	}
}

func buildMailer(ctx context.Context, cfg *app.Config) (mail.Mailer, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Email.Provider)) {
	case "ses":
		mailer, err := mail.NewSESMailer(ctx, cfg.Email.SESSettings())
		if err != nil {
			return nil, fmt.Errorf("initialise ses mailer: %w", err)
		}
		return mailer, nil
	default:
		mailer, err := mail.NewSMTPMailer(cfg.Email.SMTPSettings())
		if err != nil {
			return nil, fmt.Errorf("initialise smtp mailer: %w", err)
		}
		return mailer, nil
	}
}

func initialiseDatabase(cfg *app.Config) (*gorm.DB, error) {
	dbCfg := cfg.Database.StoreConfig()
	db, err := database.Open(dbCfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := database.Migrate(db); err != nil {
		return nil, fmt.Errorf("auto-migrate database: %w", err)
	}

	logger.WithModule("database").Info("database connected",
		zap.String("driver", strings.ToLower(strings.TrimSpace(dbCfg.Driver))))

	return db, nil
}

func closeDatabase(db *gorm.DB, log *zap.Logger) {
	sqlDB, err := db.DB()
	if err != nil {
		log.Warn("access underlying database handle", zap.Error(err))
		return
	}
	if err := sqlDB.Close(); err != nil {
		log.Warn("close database", zap.Error(err))
	}
}
