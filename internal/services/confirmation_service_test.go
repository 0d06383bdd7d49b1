package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/gatherpoint/gatherpoint/internal/models"
)

func newConfirmationService(t *testing.T, db *gorm.DB, mailer *stubMailer, now time.Time) *ConfirmationService {
	t.Helper()
	service, err := NewConfirmationService(db, mailer,
		WithConfirmationClock(fixedClock(now)),
	)
	require.NoError(t, err)
	return service
}

type confirmationFixture struct {
	organizer *models.User
	meeting   *models.Meeting
	token     *models.ReminderToken
}

func seedConfirmation(t *testing.T, db *gorm.DB, now time.Time) confirmationFixture {
	t.Helper()

	organizer := createUser(t, db, "maria@example.org", "Maria", "Keller")
	group := createGroup(t, db, "St. Mary Choir", strptr("Europe/Berlin"))
	meeting := createMeeting(t, db, group, organizer, now.Add(24*time.Hour))

	sentAt := now.Add(-time.Hour)
	token := &models.ReminderToken{
		MeetingID:      meeting.ID,
		OrganizerID:    organizer.ID,
		Token:          strings.Repeat("f", 64),
		ExpiresAt:      now.Add(6 * 24 * time.Hour),
		ReminderSentAt: &sentAt,
	}
	require.NoError(t, db.Create(token).Error)

	return confirmationFixture{organizer: organizer, meeting: meeting, token: token}
}

func TestReviewReturnsMeetingState(t *testing.T) {
	db := newTestDB(t)
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	fx := seedConfirmation(t, db, now)

	inviteUser(t, db, fx.meeting, createUser(t, db, "jan@example.org", "Jan", ""), models.AttendanceAccepted)
	inviteUser(t, db, fx.meeting, createUser(t, db, "eva@example.org", "Eva", ""), models.AttendanceInvited)
	inviteUser(t, db, fx.meeting, createUser(t, db, "tom@example.org", "Tom", ""), models.AttendanceDeclined)

	service := newConfirmationService(t, db, &stubMailer{}, now)
	data, err := service.Review(context.Background(), fx.token.Token)
	require.NoError(t, err)

	require.Equal(t, fx.meeting.ID, data.MeetingID)
	require.Equal(t, "Monthly Planning", data.Title)
	require.Equal(t, "Maria Keller", data.OrganizerName)
	require.Equal(t, "St. Mary Choir", data.GroupName)
	require.Equal(t, 2, data.AttendeeCount, "declined attendees stay out of the audience")
	require.Equal(t, "Europe/Berlin", data.Timezone)
	require.Contains(t, data.When, "CEST")

	// Review is read-only.
	token := fetchToken(t, db, fx.meeting.ID)
	require.Nil(t, token.ConfirmedAt)
}

func TestReviewRejectsUnknownToken(t *testing.T) {
	db := newTestDB(t)
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	service := newConfirmationService(t, db, &stubMailer{}, now)

	_, err := service.Review(context.Background(), strings.Repeat("0", 64))
	require.ErrorIs(t, err, ErrTokenNotFound)

	_, err = service.Review(context.Background(), "   ")
	require.ErrorIs(t, err, ErrTokenNotFound)
}

func TestReviewExpiryWinsOverOtherStates(t *testing.T) {
	db := newTestDB(t)
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	fx := seedConfirmation(t, db, now)

	// Expired and already confirmed: the organizer must hear "expired".
	confirmedAt := now.Add(-2 * 24 * time.Hour)
	require.NoError(t, db.Model(fx.token).Updates(map[string]any{
		"expires_at":   now.Add(-time.Minute),
		"confirmed_at": confirmedAt,
	}).Error)

	service := newConfirmationService(t, db, &stubMailer{}, now)
	_, err := service.Review(context.Background(), fx.token.Token)
	require.ErrorIs(t, err, ErrTokenExpired)
}

func TestReviewRejectsPastMeeting(t *testing.T) {
	db := newTestDB(t)
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	fx := seedConfirmation(t, db, now)

	require.NoError(t, db.Model(fx.meeting).Update("starts_at", now.Add(-time.Hour)).Error)

	service := newConfirmationService(t, db, &stubMailer{}, now)
	_, err := service.Review(context.Background(), fx.token.Token)
	require.ErrorIs(t, err, ErrMeetingPassed)
}

func TestReviewRejectsDeletedMeeting(t *testing.T) {
	db := newTestDB(t)
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	fx := seedConfirmation(t, db, now)

	require.NoError(t, db.Delete(fx.meeting).Error)

	service := newConfirmationService(t, db, &stubMailer{}, now)
	_, err := service.Review(context.Background(), fx.token.Token)
	require.ErrorIs(t, err, ErrMeetingNotFound)
}

func TestConfirmSendsReminderToAudience(t *testing.T) {
	db := newTestDB(t)
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	fx := seedConfirmation(t, db, now)

	inviteUser(t, db, fx.meeting, createUser(t, db, "jan@example.org", "Jan", ""), models.AttendanceAccepted)
	invitePlaceholder(t, db, fx.meeting, "Oma Schmidt", strptr("oma@example.org"))
	invitePlaceholder(t, db, fx.meeting, "Little Timo", nil) // no email on file

	mailer := &stubMailer{}
	service := newConfirmationService(t, db, mailer, now)

	result, err := service.Confirm(context.Background(), fx.token.Token, ConfirmInput{
		Description: "Updated agenda: rehearsal first.",
		Message:     "Looking forward to seeing everyone!",
	})
	require.NoError(t, err)
	require.Equal(t, 2, result.AttendeeCount, "only attendees with an address receive mail")

	messages := mailer.messages()
	require.Len(t, messages, 1)
	require.ElementsMatch(t, []string{"jan@example.org", "oma@example.org"}, recipientEmails(messages[0]))
	require.Equal(t, "Reminder: Monthly Planning", messages[0].Subject)
	require.Contains(t, messages[0].TextBody, "Updated agenda: rehearsal first.")
	require.Contains(t, messages[0].TextBody, "Looking forward to seeing everyone!")
	require.Contains(t, messages[0].HTMLBody, "Looking forward to seeing everyone!")

	token := fetchToken(t, db, fx.meeting.ID)
	require.NotNil(t, token.ConfirmedAt)
	require.NotNil(t, token.AttendeeEmailSentAt)
	require.NotNil(t, token.CustomDescription)
	require.Equal(t, "Updated agenda: rehearsal first.", *token.CustomDescription)
}

func TestConfirmSecondSubmissionRejected(t *testing.T) {
	db := newTestDB(t)
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	fx := seedConfirmation(t, db, now)
	inviteUser(t, db, fx.meeting, createUser(t, db, "jan@example.org", "Jan", ""), models.AttendanceAccepted)

	mailer := &stubMailer{}
	service := newConfirmationService(t, db, mailer, now)

	_, err := service.Confirm(context.Background(), fx.token.Token, ConfirmInput{})
	require.NoError(t, err)

	_, err = service.Confirm(context.Background(), fx.token.Token, ConfirmInput{})
	require.ErrorIs(t, err, ErrAlreadyConfirmed)
	require.Len(t, mailer.messages(), 1, "the duplicate must not send again")
}

func TestConfirmWithoutRecipientsStillSucceeds(t *testing.T) {
	db := newTestDB(t)
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	fx := seedConfirmation(t, db, now)
	invitePlaceholder(t, db, fx.meeting, "Little Timo", nil)

	mailer := &stubMailer{}
	service := newConfirmationService(t, db, mailer, now)

	result, err := service.Confirm(context.Background(), fx.token.Token, ConfirmInput{})
	require.NoError(t, err)
	require.Zero(t, result.AttendeeCount)
	require.Empty(t, mailer.messages())

	token := fetchToken(t, db, fx.meeting.ID)
	require.NotNil(t, token.ConfirmedAt)
	require.Nil(t, token.AttendeeEmailSentAt, "nothing was sent, so the send marker stays unset")
}

func TestConfirmRollsBackOnDeliveryFailure(t *testing.T) {
	db := newTestDB(t)
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	fx := seedConfirmation(t, db, now)
	inviteUser(t, db, fx.meeting, createUser(t, db, "jan@example.org", "Jan", ""), models.AttendanceAccepted)

	mailer := &stubMailer{err: context.DeadlineExceeded}
	service := newConfirmationService(t, db, mailer, now)

	_, err := service.Confirm(context.Background(), fx.token.Token, ConfirmInput{})
	require.ErrorIs(t, err, ErrEmailDelivery)

	// The rollback keeps the link usable for a retry.
	token := fetchToken(t, db, fx.meeting.ID)
	require.Nil(t, token.ConfirmedAt)
	require.Nil(t, token.AttendeeEmailSentAt)

	mailer.mu.Lock()
	mailer.err = nil
	mailer.mu.Unlock()

	result, err := service.Confirm(context.Background(), fx.token.Token, ConfirmInput{})
	require.NoError(t, err)
	require.Equal(t, 1, result.AttendeeCount)
}

func TestConfirmTruncatesOversizedOverrides(t *testing.T) {
	db := newTestDB(t)
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	fx := seedConfirmation(t, db, now)
	inviteUser(t, db, fx.meeting, createUser(t, db, "jan@example.org", "Jan", ""), models.AttendanceAccepted)

	service := newConfirmationService(t, db, &stubMailer{}, now)

	_, err := service.Confirm(context.Background(), fx.token.Token, ConfirmInput{
		Description: strings.Repeat("ä", maxDescriptionRunes+1000),
		Message:     strings.Repeat("ö", maxMessageRunes+500),
	})
	require.NoError(t, err)

	token := fetchToken(t, db, fx.meeting.ID)
	require.NotNil(t, token.CustomDescription)
	require.Len(t, []rune(*token.CustomDescription), maxDescriptionRunes)
	require.NotNil(t, token.CustomMessage)
	require.Len(t, []rune(*token.CustomMessage), maxMessageRunes)
}

func TestConfirmBlankOverridesFallBackToMeetingDescription(t *testing.T) {
	db := newTestDB(t)
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	fx := seedConfirmation(t, db, now)
	inviteUser(t, db, fx.meeting, createUser(t, db, "jan@example.org", "Jan", ""), models.AttendanceAccepted)

	mailer := &stubMailer{}
	service := newConfirmationService(t, db, mailer, now)

	_, err := service.Confirm(context.Background(), fx.token.Token, ConfirmInput{
		Description: "   \n  ",
	})
	require.NoError(t, err)

	token := fetchToken(t, db, fx.meeting.ID)
	require.Nil(t, token.CustomDescription, "whitespace-only overrides are treated as absent")

	messages := mailer.messages()
	require.Len(t, messages, 1)
	require.Contains(t, messages[0].TextBody, "Agenda to follow")
}
