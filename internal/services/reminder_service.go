package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/gatherpoint/gatherpoint/internal/models"
	"github.com/gatherpoint/gatherpoint/pkg/crypto"
	"github.com/gatherpoint/gatherpoint/pkg/logger"
	"github.com/gatherpoint/gatherpoint/pkg/mail"
	"github.com/gatherpoint/gatherpoint/pkg/metrics"
)

const (
	defaultReminderWindow   = 48 * time.Hour
	defaultTokenExpiry      = 7 * 24 * time.Hour
	defaultTokenBytes       = 32
	defaultFallbackTimezone = "UTC"
)

// GenerationError captures one meeting's failure inside a batch run.
type GenerationError struct {
	MeetingID string `json:"meeting_id"`
	Message   string `json:"message"`
}

func (e GenerationError) Error() string {
	return fmt.Sprintf("meeting %s: %s", e.MeetingID, e.Message)
}

// GenerationReport summarises one generator invocation.
type GenerationReport struct {
	Processed int               `json:"processed"`
	Skipped   int               `json:"skipped"`
	Errors    []GenerationError `json:"errors,omitempty"`
}

// ReminderOption customises the ReminderService.
type ReminderOption func(*ReminderService)

// WithReminderWindow sets the look-ahead window for candidate meetings.
func WithReminderWindow(d time.Duration) ReminderOption {
	return func(s *ReminderService) {
		if d > 0 {
			s.window = d
		}
	}
}

// WithReminderExpiry overrides the confirmation token lifetime.
func WithReminderExpiry(d time.Duration) ReminderOption {
	return func(s *ReminderService) {
		if d > 0 {
			s.expiry = d
		}
	}
}

// WithReminderBaseURL sets the application base URL used in confirmation links.
func WithReminderBaseURL(base string) ReminderOption {
	return func(s *ReminderService) {
		s.baseURL = strings.TrimRight(base, "/")
	}
}

// WithReminderTimezone sets the fallback timezone for meetings whose meeting
// and group zones are both unset.
func WithReminderTimezone(name string) ReminderOption {
	return func(s *ReminderService) {
		if name != "" {
			s.fallbackTZ = name
		}
	}
}

// WithReminderClock injects a custom time source.
func WithReminderClock(clock func() time.Time) ReminderOption {
	return func(s *ReminderService) {
		if clock != nil {
			s.now = clock
		}
	}
}

// ReminderService scans for upcoming meetings, issues confirmation tokens
// and notifies organizers. Safe to invoke more often than the nominal
// schedule: meetings already notified are skipped.
type ReminderService struct {
	db         *gorm.DB
	mailer     mail.Mailer
	window     time.Duration
	expiry     time.Duration
	tokenBytes int
	baseURL    string
	fallbackTZ string
	now        func() time.Time
	log        *zap.Logger
}

// NewReminderService constructs the generator with the provided dependencies.
func NewReminderService(db *gorm.DB, mailer mail.Mailer, opts ...ReminderOption) (*ReminderService, error) {
	if db == nil {
		return nil, errors.New("reminder service: db is required")
	}

	service := &ReminderService{
		db:         db,
		mailer:     mailer,
		window:     defaultReminderWindow,
		expiry:     defaultTokenExpiry,
		tokenBytes: defaultTokenBytes,
		fallbackTZ: defaultFallbackTimezone,
		now:        time.Now,
		log:        logger.WithModule("reminders"),
	}

	for _, opt := range opts {
		opt(service)
	}

	return service, nil
}

// GenerateReminders runs one batch over the target window. Per-meeting
// failures are collected in the report; only infrastructure failures (the
// candidate scan, the run record) surface as the returned error.
func (s *ReminderService) GenerateReminders(ctx context.Context) (GenerationReport, error) {
	started := s.now()
	report := GenerationReport{}

	var meetings []models.Meeting
	err := s.db.WithContext(ctx).
		Preload("Group").
		Preload("Organizer").
		Where("starts_at >= ? AND starts_at <= ? AND organizer_id IS NOT NULL",
			started, started.Add(s.window)).
		Order("starts_at").
		Find(&meetings).Error
	if err != nil {
		return report, fmt.Errorf("reminder service: scan meetings: %w", err)
	}

	for i := range meetings {
		meeting := &meetings[i]
		skipped, procErr := s.processMeeting(ctx, meeting)
		switch {
		case procErr != nil:
			report.Errors = append(report.Errors, GenerationError{
				MeetingID: meeting.ID,
				Message:   procErr.Error(),
			})
			metrics.RemindersGenerated.WithLabelValues("failed").Inc()
			s.log.Warn("reminder generation failed",
				zap.String("meeting_id", meeting.ID),
				zap.Error(procErr),
			)
		case skipped:
			report.Skipped++
			metrics.RemindersGenerated.WithLabelValues("skipped").Inc()
		default:
			report.Processed++
			metrics.RemindersGenerated.WithLabelValues("sent").Inc()
		}
	}

	var runErr error
	if err := s.recordRun(ctx, started, report); err != nil {
		runErr = multierr.Append(runErr, err)
	}

	s.log.Info("reminder batch finished",
		zap.Int("processed", report.Processed),
		zap.Int("skipped", report.Skipped),
		zap.Int("errors", len(report.Errors)),
	)

	return report, runErr
}

// processMeeting issues or refreshes the meeting's token and notifies the
// organizer. The skipped return is true when the organizer was already
// notified in an earlier run.
func (s *ReminderService) processMeeting(ctx context.Context, meeting *models.Meeting) (bool, error) {
	if meeting.OrganizerID == nil || meeting.Organizer == nil {
		return false, errors.New("meeting has no organizer")
	}

	var existing models.ReminderToken
	found := true
	err := s.db.WithContext(ctx).
		Where("meeting_id = ?", meeting.ID).
		First(&existing).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return false, fmt.Errorf("lookup token: %w", err)
		}
		found = false
	}

	if found && existing.ReminderSentAt != nil {
		return true, nil
	}

	audience, err := loadAudience(ctx, s.db, meeting.ID)
	if err != nil {
		return false, err
	}

	tokenValue, err := crypto.GenerateToken(s.tokenBytes)
	if err != nil {
		return false, fmt.Errorf("generate token: %w", err)
	}

	now := s.now()
	expiresAt := now.Add(s.expiry)

	// Update in place when a row already exists so a rescheduled meeting
	// re-entering the window gets a fresh, usable link instead of a
	// duplicate row.
	var tokenID string
	if found {
		tokenID = existing.ID
		err = s.db.WithContext(ctx).
			Model(&models.ReminderToken{}).
			Where("id = ?", existing.ID).
			Updates(map[string]any{
				"token":        tokenValue,
				"expires_at":   expiresAt,
				"organizer_id": *meeting.OrganizerID,
			}).Error
	} else {
		token := models.ReminderToken{
			MeetingID:   meeting.ID,
			OrganizerID: *meeting.OrganizerID,
			Token:       tokenValue,
			ExpiresAt:   expiresAt,
		}
		err = s.db.WithContext(ctx).Create(&token).Error
		tokenID = token.ID
	}
	if err != nil {
		return false, fmt.Errorf("upsert token: %w", err)
	}

	loc := ResolveTimezone(meeting, meeting.Group, s.fallbackTZ)
	link := s.confirmationLink(tokenValue)
	subject, htmlBody, textBody := renderOrganizerEmail(
		meeting, meeting.Organizer.DisplayName(), link, audience.Total, loc)

	msg := mail.Message{
		To:       []mail.Address{{Email: meeting.Organizer.Email, Name: meeting.Organizer.DisplayName()}},
		Subject:  subject,
		HTMLBody: htmlBody,
		TextBody: textBody,
	}

	if s.mailer == nil {
		return false, errors.New("no mailer configured")
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		metrics.EmailDispatches.WithLabelValues("organizer", "failure").Inc()
		return false, fmt.Errorf("notify organizer: %w", err)
	}
	metrics.EmailDispatches.WithLabelValues("organizer", "success").Inc()

	// Conditional update keeps overlapping invocations from double-counting
	// a meeting whose email just went out.
	if err := s.db.WithContext(ctx).
		Model(&models.ReminderToken{}).
		Where("id = ? AND reminder_sent_at IS NULL", tokenID).
		Update("reminder_sent_at", s.now()).Error; err != nil {
		return false, fmt.Errorf("mark reminder sent: %w", err)
	}

	return false, nil
}

func (s *ReminderService) confirmationLink(token string) string {
	if s.baseURL == "" {
		return "/confirm-reminder?token=" + url.QueryEscape(token)
	}
	return fmt.Sprintf("%s/confirm-reminder?token=%s", s.baseURL, url.QueryEscape(token))
}

func (s *ReminderService) recordRun(ctx context.Context, started time.Time, report GenerationReport) error {
	run := models.ReminderRun{
		StartedAt:  started,
		FinishedAt: s.now(),
		Processed:  report.Processed,
		Skipped:    report.Skipped,
	}

	if len(report.Errors) > 0 {
		payload, err := json.Marshal(report.Errors)
		if err != nil {
			return fmt.Errorf("reminder service: marshal run errors: %w", err)
		}
		run.Errors = datatypes.JSON(payload)
	}

	if err := s.db.WithContext(ctx).Create(&run).Error; err != nil {
		return fmt.Errorf("reminder service: record run: %w", err)
	}
	return nil
}

// RecentRuns returns the latest generator runs, newest first.
func (s *ReminderService) RecentRuns(ctx context.Context, limit int) ([]models.ReminderRun, error) {
	if limit <= 0 {
		limit = 20
	}
	var runs []models.ReminderRun
	err := s.db.WithContext(ctx).
		Order("started_at DESC").
		Limit(limit).
		Find(&runs).Error
	if err != nil {
		return nil, fmt.Errorf("reminder service: list runs: %w", err)
	}
	return runs, nil
}

// CleanupTokens removes reminder tokens that can never be acted on again:
// expired and never confirmed, or fully sent and past the retention window.
// Old run records beyond the same window are pruned as well.
func (s *ReminderService) CleanupTokens(ctx context.Context, retention time.Duration) (int64, error) {
	now := s.now()
	cutoff := now.Add(-retention)

	var removed int64
	result := s.db.WithContext(ctx).
		Where("(expires_at < ? AND confirmed_at IS NULL) OR (attendee_email_sent_at IS NOT NULL AND attendee_email_sent_at < ?)",
			now, cutoff).
		Delete(&models.ReminderToken{})
	if result.Error != nil {
		return 0, fmt.Errorf("reminder service: cleanup tokens: %w", result.Error)
	}
	removed = result.RowsAffected

	if err := s.db.WithContext(ctx).
		Where("started_at < ?", cutoff).
		Delete(&models.ReminderRun{}).Error; err != nil {
		return removed, fmt.Errorf("reminder service: cleanup runs: %w", err)
	}

	return removed, nil
}
