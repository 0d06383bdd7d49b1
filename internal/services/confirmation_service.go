package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/gatherpoint/gatherpoint/internal/models"
	"github.com/gatherpoint/gatherpoint/pkg/logger"
	"github.com/gatherpoint/gatherpoint/pkg/mail"
	"github.com/gatherpoint/gatherpoint/pkg/metrics"
)

const (
	maxDescriptionRunes = 5000
	maxMessageRunes     = 2000
)

// ConfirmationOption customises the ConfirmationService.
type ConfirmationOption func(*ConfirmationService)

// WithConfirmationClock injects a custom time source.
func WithConfirmationClock(clock func() time.Time) ConfirmationOption {
	return func(s *ConfirmationService) {
		if clock != nil {
			s.now = clock
		}
	}
}

// WithConfirmationTimezone sets the fallback timezone used for display.
func WithConfirmationTimezone(name string) ConfirmationOption {
	return func(s *ConfirmationService) {
		if name != "" {
			s.fallbackTZ = name
		}
	}
}

// ConfirmationService validates confirmation tokens, renders review state
// and performs the confirm-and-send transition.
type ConfirmationService struct {
	db         *gorm.DB
	mailer     mail.Mailer
	fallbackTZ string
	now        func() time.Time
	log        *zap.Logger
}

// NewConfirmationService constructs the service with the provided dependencies.
func NewConfirmationService(db *gorm.DB, mailer mail.Mailer, opts ...ConfirmationOption) (*ConfirmationService, error) {
	if db == nil {
		return nil, errors.New("confirmation service: db is required")
	}

	service := &ConfirmationService{
		db:         db,
		mailer:     mailer,
		fallbackTZ: defaultFallbackTimezone,
		now:        time.Now,
		log:        logger.WithModule("confirmation"),
	}

	for _, opt := range opts {
		opt(service)
	}

	return service, nil
}

// ReviewData is the organizer-facing state rendered on GET.
type ReviewData struct {
	MeetingID     string
	Title         string
	Description   string
	StartsAt      time.Time
	When          string
	Location      string
	OrganizerName string
	GroupName     string
	AttendeeCount int
	Timezone      string
	ExpiresAt     time.Time
}

// ConfirmInput carries the organizer's optional overrides.
type ConfirmInput struct {
	Description string
	Message     string
}

// ConfirmResult reports a successful confirm-and-send.
type ConfirmResult struct {
	AttendeeCount int
}

// workflowState bundles everything the shared validation resolves.
type workflowState struct {
	token    models.ReminderToken
	meeting  models.Meeting
	location *time.Location
}

// Review validates the token and returns the current meeting state for the
// organizer to inspect. No mutation occurs.
func (s *ConfirmationService) Review(ctx context.Context, tokenValue string) (*ReviewData, error) {
	state, err := s.loadState(ctx, tokenValue)
	if err != nil {
		return nil, err
	}

	audience, err := loadAudience(ctx, s.db, state.meeting.ID)
	if err != nil {
		return nil, err
	}

	var groupName string
	if state.meeting.Group != nil {
		groupName = state.meeting.Group.Name
	}

	return &ReviewData{
		MeetingID:     state.meeting.ID,
		Title:         state.meeting.Title,
		Description:   state.meeting.Description,
		StartsAt:      state.meeting.StartsAt,
		When:          formatMeetingWhen(state.meeting.StartsAt, state.location),
		Location:      state.meeting.Location,
		OrganizerName: state.meeting.Organizer.DisplayName(),
		GroupName:     groupName,
		AttendeeCount: audience.Total,
		Timezone:      state.location.String(),
		ExpiresAt:     state.token.ExpiresAt,
	}, nil
}

// Confirm transitions the token to confirmed, dispatches the attendee
// reminder and marks the send complete. A failed dispatch rolls the
// confirmation back so the organizer can retry from the same link.
func (s *ConfirmationService) Confirm(ctx context.Context, tokenValue string, input ConfirmInput) (*ConfirmResult, error) {
	state, err := s.loadState(ctx, tokenValue)
	if err != nil {
		return nil, err
	}

	description := normalizeOverride(input.Description, maxDescriptionRunes)
	message := normalizeOverride(input.Message, maxMessageRunes)

	now := s.now()

	// The conditional WHERE is the commit point: of two concurrent
	// submissions only one can flip confirmed_at, the other sees zero rows
	// affected and is rejected as a duplicate.
	result := s.db.WithContext(ctx).
		Model(&models.ReminderToken{}).
		Where("id = ? AND confirmed_at IS NULL", state.token.ID).
		Updates(map[string]any{
			"confirmed_at":       now,
			"custom_description": description,
			"custom_message":     message,
		})
	if result.Error != nil {
		return nil, fmt.Errorf("confirmation service: confirm token: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		metrics.Confirmations.WithLabelValues("rejected").Inc()
		return nil, ErrAlreadyConfirmed
	}

	audience, err := loadAudience(ctx, s.db, state.meeting.ID)
	if err != nil {
		// The confirmation committed but the audience could not be read.
		// Roll back so the link stays usable.
		s.rollbackConfirmation(ctx, state.token.ID)
		return nil, err
	}

	// A meeting with no emailable attendees is still closable; the
	// organizer's intent to finish the cycle must not be blocked.
	if len(audience.Recipients) == 0 {
		metrics.Confirmations.WithLabelValues("no_recipients").Inc()
		return &ConfirmResult{AttendeeCount: 0}, nil
	}

	body := state.meeting.Description
	if description != nil {
		body = *description
	}
	var note string
	if message != nil {
		note = *message
	}

	subject, htmlBody, textBody := renderAttendeeEmail(&state.meeting, body, note, state.location)
	msg := mail.Message{
		To:       audience.Recipients,
		Subject:  subject,
		HTMLBody: htmlBody,
		TextBody: textBody,
	}

	if s.mailer == nil {
		s.rollbackConfirmation(ctx, state.token.ID)
		return nil, fmt.Errorf("%w: no mailer configured", ErrEmailDelivery)
	}
	if sendErr := s.mailer.Send(ctx, msg); sendErr != nil {
		metrics.EmailDispatches.WithLabelValues("attendee", "failure").Inc()
		metrics.Confirmations.WithLabelValues("rolled_back").Inc()
		s.rollbackConfirmation(ctx, state.token.ID)
		s.log.Warn("attendee dispatch failed, confirmation rolled back",
			zap.String("meeting_id", state.meeting.ID),
			zap.Error(sendErr),
		)
		return nil, fmt.Errorf("%w: %v", ErrEmailDelivery, sendErr)
	}
	metrics.EmailDispatches.WithLabelValues("attendee", "success").Inc()

	if err := s.db.WithContext(ctx).
		Model(&models.ReminderToken{}).
		Where("id = ?", state.token.ID).
		Update("attendee_email_sent_at", s.now()).Error; err != nil {
		// The email went out; the terminal marker failing to persist is
		// logged but not surfaced as a send failure.
		s.log.Error("failed to mark attendee send complete",
			zap.String("token_id", state.token.ID),
			zap.Error(err),
		)
	}

	metrics.Confirmations.WithLabelValues("sent").Inc()
	return &ConfirmResult{AttendeeCount: len(audience.Recipients)}, nil
}

// loadState performs the validation shared by GET and POST, in the order
// the organizer-facing errors demand: unknown link, expiry (before any
// other state check), duplicate confirmation, missing meeting, past
// meeting.
func (s *ConfirmationService) loadState(ctx context.Context, tokenValue string) (*workflowState, error) {
	tokenValue = strings.TrimSpace(tokenValue)
	if tokenValue == "" {
		return nil, ErrTokenNotFound
	}

	var token models.ReminderToken
	err := s.db.WithContext(ctx).
		Where("token = ?", tokenValue).
		First(&token).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTokenNotFound
		}
		return nil, fmt.Errorf("confirmation service: find token: %w", err)
	}

	now := s.now()
	if !token.ExpiresAt.After(now) {
		return nil, ErrTokenExpired
	}
	if token.ConfirmedAt != nil {
		return nil, ErrAlreadyConfirmed
	}

	var meeting models.Meeting
	err = s.db.WithContext(ctx).
		Preload("Group").
		Preload("Organizer").
		Where("id = ?", token.MeetingID).
		First(&meeting).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMeetingNotFound
		}
		return nil, fmt.Errorf("confirmation service: find meeting: %w", err)
	}
	if meeting.Organizer == nil {
		return nil, ErrMeetingNotFound
	}
	if meeting.StartsAt.Before(now) {
		return nil, ErrMeetingPassed
	}

	return &workflowState{
		token:    token,
		meeting:  meeting,
		location: ResolveTimezone(&meeting, meeting.Group, s.fallbackTZ),
	}, nil
}

func (s *ConfirmationService) rollbackConfirmation(ctx context.Context, tokenID string) {
	if err := s.db.WithContext(ctx).
		Model(&models.ReminderToken{}).
		Where("id = ?", tokenID).
		Update("confirmed_at", nil).Error; err != nil {
		s.log.Error("confirmation rollback failed",
			zap.String("token_id", tokenID),
			zap.Error(err),
		)
	}
}
