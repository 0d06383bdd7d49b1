package api

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/gatherpoint/gatherpoint/internal/app"
	"github.com/gatherpoint/gatherpoint/internal/handlers"
	"github.com/gatherpoint/gatherpoint/internal/middleware"
	"github.com/gatherpoint/gatherpoint/internal/services"
)

// NewRouter builds the Gin engine, wires middleware and registers the
// reminder workflow routes.
func NewRouter(db *gorm.DB, cfg *app.Config, reminders *services.ReminderService, confirmations *services.ConfirmationService) (*gin.Engine, error) {
	if db == nil {
		return nil, fmt.Errorf("database handle must be provided")
	}
	if cfg == nil {
		return nil, fmt.Errorf("config must be provided")
	}
	if reminders == nil {
		return nil, fmt.Errorf("reminder service must be provided")
	}
	if confirmations == nil {
		return nil, fmt.Errorf("confirmation service must be provided")
	}

	r := gin.New()
	r.SetHTMLTemplate(handlers.Templates())

	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())
	// The confirmation link is a bearer-token surface; keep guessing slow.
	r.Use(middleware.RateLimit(60, time.Minute))

	r.GET("/health", handlers.Health(db))

	if cfg.Monitoring.Prometheus.Enabled {
		r.GET(cfg.Monitoring.Prometheus.Endpoint, gin.WrapH(promhttp.Handler()))
	}

	confirmHandler := handlers.NewConfirmReminderHandler(confirmations)
	r.GET("/confirm-reminder", confirmHandler.Review)
	r.POST("/confirm-reminder", confirmHandler.Confirm)

	reminderHandler := handlers.NewReminderHandler(reminders, cfg.Reminders.TriggerSecret)
	internal := r.Group("/internal")
	{
		internal.POST("/reminders/run", reminderHandler.Run)
		internal.GET("/reminders/runs", reminderHandler.Runs)
	}

	r.NoRoute(middleware.NotFoundHandler)

	return r, nil
}
