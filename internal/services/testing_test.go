package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/gatherpoint/gatherpoint/internal/database"
	"github.com/gatherpoint/gatherpoint/internal/models"
	"github.com/gatherpoint/gatherpoint/pkg/mail"
)

func newTestDB(t *testing.T) *gorm.DB {
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

	return db
}

// stubMailer records sent messages and can be told to fail.
type stubMailer struct {
	mu   sync.Mutex
	sent []mail.Message
	err  error
}

func (m *stubMailer) Send(_ context.Context, msg mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *stubMailer) messages() []mail.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]mail.Message, len(m.sent))
	copy(out, m.sent)
	return out
}

func createUser(t *testing.T, db *gorm.DB, email, first, last string) *models.User {
	t.Helper()
	user := &models.User{Email: email, FirstName: first, LastName: last}
	require.NoError(t, db.Create(user).Error)
	return user
}

func createGroup(t *testing.T, db *gorm.DB, name string, tz *string) *models.Group {
	t.Helper()
	group := &models.Group{Name: name, Timezone: tz}
	require.NoError(t, db.Create(group).Error)
	return group
}

func createMeeting(t *testing.T, db *gorm.DB, group *models.Group, organizer *models.User, startsAt time.Time) *models.Meeting {
	t.Helper()
	meeting := &models.Meeting{
		GroupID:     group.ID,
		Title:       "Monthly Planning",
		Description: "Agenda to follow",
		StartsAt:    startsAt,
		Location:    "Parish Hall",
	}
	if organizer != nil {
		meeting.OrganizerID = &organizer.ID
	}
	require.NoError(t, db.Create(meeting).Error)
	return meeting
}

func inviteUser(t *testing.T, db *gorm.DB, meeting *models.Meeting, user *models.User, status string) {
	t.Helper()
	att := &models.Attendance{MeetingID: meeting.ID, UserID: &user.ID, Status: status}
	require.NoError(t, db.Create(att).Error)
}

func invitePlaceholder(t *testing.T, db *gorm.DB, meeting *models.Meeting, name string, email *string) {
	t.Helper()
	profile := &models.PlaceholderProfile{GroupID: meeting.GroupID, Name: name, Email: email}
	require.NoError(t, db.Create(profile).Error)
	att := &models.Attendance{MeetingID: meeting.ID, PlaceholderID: &profile.ID, Status: models.AttendanceInvited}
	require.NoError(t, db.Create(att).Error)
}

func fetchToken(t *testing.T, db *gorm.DB, meetingID string) *models.ReminderToken {
	t.Helper()
	var token models.ReminderToken
	require.NoError(t, db.Where("meeting_id = ?", meetingID).First(&token).Error)
	return &token
}

func strptr(s string) *string { return &s }

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}
