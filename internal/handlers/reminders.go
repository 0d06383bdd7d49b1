package handlers

import (
	"crypto/subtle"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/gatherpoint/gatherpoint/internal/services"
	appErrors "github.com/gatherpoint/gatherpoint/pkg/errors"
	"github.com/gatherpoint/gatherpoint/pkg/response"
)

// ReminderHandler exposes the generator's entry point and run history to
// the external scheduling mechanism and to operators.
type ReminderHandler struct {
	reminders *services.ReminderService
	secret    string
}

func NewReminderHandler(reminders *services.ReminderService, secret string) *ReminderHandler {
	return &ReminderHandler{reminders: reminders, secret: secret}
}

type runReportDTO struct {
	Processed int      `json:"processed"`
	Skipped   int      `json:"skipped"`
	Errors    []string `json:"errors"`
}

// POST /internal/reminders/run
func (h *ReminderHandler) Run(c *gin.Context) {
	if h.reminders == nil {
		response.Error(c, appErrors.ErrInternalServer)
		return
	}
	if !h.authorized(c) {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	report, err := h.reminders.GenerateReminders(requestContext(c))
	if err != nil {
		response.Error(c, appErrors.ErrInternalServer.WithInternal(err))
		return
	}

	messages := make([]string, 0, len(report.Errors))
	for _, genErr := range report.Errors {
		messages = append(messages, genErr.Error())
	}

	response.Success(c, http.StatusOK, runReportDTO{
		Processed: report.Processed,
		Skipped:   report.Skipped,
		Errors:    messages,
	})
}

// GET /internal/reminders/runs
func (h *ReminderHandler) Runs(c *gin.Context) {
	if h.reminders == nil {
		response.Error(c, appErrors.ErrInternalServer)
		return
	}
	if !h.authorized(c) {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	limit := 20
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	runs, err := h.reminders.RecentRuns(requestContext(c), limit)
	if err != nil {
		response.Error(c, appErrors.ErrInternalServer.WithInternal(err))
		return
	}

	response.Success(c, http.StatusOK, gin.H{"runs": runs})
}

func (h *ReminderHandler) authorized(c *gin.Context) bool {
	if h.secret == "" {
		return true
	}
	provided := c.GetHeader("X-Internal-Token")
	return subtle.ConstantTimeCompare([]byte(provided), []byte(h.secret)) == 1
}
