package services

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/gatherpoint/gatherpoint/internal/models"
	"github.com/gatherpoint/gatherpoint/pkg/mail"
)

// AttendeeAudience is the resolved reminder audience for one meeting.
// Total counts every invited or accepted attendee; Recipients holds only
// those with a resolvable email address.
type AttendeeAudience struct {
	Total      int
	Recipients []mail.Address
}

// loadAudience fetches invited and accepted attendances for a meeting and
// resolves each to an (email, name) pair through the user profile or the
// placeholder profile. Attendees without an email stay in the total but
// are excluded from delivery.
func loadAudience(ctx context.Context, db *gorm.DB, meetingID string) (AttendeeAudience, error) {
	var attendances []models.Attendance
	err := db.WithContext(ctx).
		Preload("User").
		Preload("Placeholder").
		Where("meeting_id = ? AND status IN ?", meetingID,
			[]string{models.AttendanceInvited, models.AttendanceAccepted}).
		Find(&attendances).Error
	if err != nil {
		return AttendeeAudience{}, fmt.Errorf("load audience: %w", err)
	}

	audience := AttendeeAudience{Total: len(attendances)}
	for i := range attendances {
		if addr, ok := resolveRecipient(&attendances[i]); ok {
			audience.Recipients = append(audience.Recipients, addr)
		}
	}
	return audience, nil
}

func resolveRecipient(attendance *models.Attendance) (mail.Address, bool) {
	switch {
	case attendance.User != nil && strings.TrimSpace(attendance.User.Email) != "":
		return mail.Address{
			Email: strings.TrimSpace(attendance.User.Email),
			Name:  attendance.User.DisplayName(),
		}, true
	case attendance.Placeholder != nil && attendance.Placeholder.Email != nil &&
		strings.TrimSpace(*attendance.Placeholder.Email) != "":
		return mail.Address{
			Email: strings.TrimSpace(*attendance.Placeholder.Email),
			Name:  attendance.Placeholder.Name,
		}, true
	default:
		return mail.Address{}, false
	}
}
