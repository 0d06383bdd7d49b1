package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/gatherpoint/gatherpoint/internal/database"
	"github.com/gatherpoint/gatherpoint/internal/models"
	"github.com/gatherpoint/gatherpoint/internal/services"
)

func setupReminderRouter(t *testing.T, secret string, now time.Time) (*gin.Engine, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	reminders, err := services.NewReminderService(db, &recordingMailer{},
		services.WithReminderClock(func() time.Time { return now }),
	)
	require.NoError(t, err)

	router := gin.New()
	handler := NewReminderHandler(reminders, secret)
	router.POST("/internal/reminders/run", handler.Run)
	router.GET("/internal/reminders/runs", handler.Runs)

	return router, db
}

func TestRunExecutesBatch(t *testing.T) {
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	router, db := setupReminderRouter(t, "", now)

	organizer := &models.User{Email: "maria@example.org", FirstName: "Maria"}
	require.NoError(t, db.Create(organizer).Error)
	group := &models.Group{Name: "St. Mary Choir"}
	require.NoError(t, db.Create(group).Error)
	require.NoError(t, db.Create(&models.Meeting{
		GroupID:     group.ID,
		Title:       "Monthly Planning",
		StartsAt:    now.Add(24 * time.Hour),
		OrganizerID: &organizer.ID,
	}).Error)

	req := httptest.NewRequest(http.MethodPost, "/internal/reminders/run", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Success bool         `json:"success"`
		Data    runReportDTO `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.True(t, body.Success)
	require.Equal(t, 1, body.Data.Processed)
	require.Empty(t, body.Data.Errors)
}

func TestRunRejectsWrongSecret(t *testing.T) {
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	router, _ := setupReminderRouter(t, "topsecret", now)

	req := httptest.NewRequest(http.MethodPost, "/internal/reminders/run", nil)
	req.Header.Set("X-Internal-Token", "guess")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/internal/reminders/run", nil)
	req.Header.Set("X-Internal-Token", "topsecret")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRunsReturnsHistory(t *testing.T) {
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	router, db := setupReminderRouter(t, "", now)

	for i := 0; i < 3; i++ {
		require.NoError(t, db.Create(&models.ReminderRun{
			StartedAt:  now.Add(-time.Duration(i) * time.Hour),
			FinishedAt: now.Add(-time.Duration(i) * time.Hour).Add(time.Minute),
			Processed:  i,
		}).Error)
	}

	req := httptest.NewRequest(http.MethodGet, "/internal/reminders/runs?limit=2", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data struct {
			Runs []models.ReminderRun `json:"runs"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Data.Runs, 2)
	require.True(t, body.Data.Runs[0].StartedAt.After(body.Data.Runs[1].StartedAt), "newest first")
}
