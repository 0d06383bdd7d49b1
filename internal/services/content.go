package services

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/gatherpoint/gatherpoint/internal/models"
)

// normalizeOverride trims organizer-submitted text, mapping empty input to
// absent and truncating anything over the limit. Over-long input is capped,
// not rejected.
func normalizeOverride(value string, limit int) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	value = truncateRunes(value, limit)
	return &value
}

func truncateRunes(value string, limit int) string {
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	return string(runes[:limit])
}

// formatMeetingWhen renders the meeting start in the resolved timezone.
func formatMeetingWhen(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("Monday, January 2, 2006 at 3:04 PM MST")
}

// htmlText escapes user-supplied text for HTML bodies, keeping line breaks.
func htmlText(value string) string {
	escaped := html.EscapeString(value)
	return strings.ReplaceAll(escaped, "\n", "<br>\n")
}

func renderOrganizerEmail(meeting *models.Meeting, organizerName, confirmLink string, audienceTotal int, loc *time.Location) (subject, htmlBody, textBody string) {
	subject = fmt.Sprintf("Review reminder for %s", meeting.Title)
	when := formatMeetingWhen(meeting.StartsAt, loc)

	location := meeting.Location
	if location == "" {
		location = "No location set"
	}

	htmlBody = fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: Arial, sans-serif; color: #333;">
  <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
    <h2>Your meeting reminder is ready to review</h2>
    <p><strong>%s</strong> is coming up and a reminder is waiting for your approval.</p>
    <table style="margin: 16px 0;">
      <tr><td style="padding-right: 12px;"><strong>When</strong></td><td>%s</td></tr>
      <tr><td style="padding-right: 12px;"><strong>Where</strong></td><td>%s</td></tr>
      <tr><td style="padding-right: 12px;"><strong>Attendees</strong></td><td>%d invited or accepted</td></tr>
    </table>
    <p>Review the details, add a personal note if you like, and send the reminder to everyone:</p>
    <p style="text-align: center;">
      <a href="%s" style="display: inline-block; padding: 12px 30px; background-color: #4a6fa5; color: white; text-decoration: none; border-radius: 5px;">Review &amp; Send Reminder</a>
    </p>
    <p>Or copy this link into your browser:</p>
    <p style="word-break: break-all; font-size: 12px; color: #666;">%s</p>
    <p style="font-size: 12px; color: #666;">This link is personal to you and expires after 7 days.</p>
  </div>
</body>
</html>
`, htmlText(meeting.Title), htmlText(when), htmlText(location), audienceTotal, confirmLink, confirmLink)

	textBody = fmt.Sprintf(`Hi %s,

%s is coming up and a reminder is waiting for your approval.

When:      %s
Where:     %s
Attendees: %d invited or accepted

Review the details and send the reminder to everyone:
%s

This link is personal to you and expires after 7 days.
`, organizerName, meeting.Title, when, location, audienceTotal, confirmLink)

	return subject, htmlBody, textBody
}

func renderAttendeeEmail(meeting *models.Meeting, description, personalMessage string, loc *time.Location) (subject, htmlBody, textBody string) {
	subject = fmt.Sprintf("Reminder: %s", meeting.Title)
	when := formatMeetingWhen(meeting.StartsAt, loc)

	location := meeting.Location
	if location == "" {
		location = "No location set"
	}

	var callout string
	var calloutText string
	if personalMessage != "" {
		callout = fmt.Sprintf(`    <div style="background-color: #fdf6e3; border-left: 4px solid #e0b64f; padding: 12px 16px; margin: 16px 0;">
      <p style="margin: 0;"><em>%s</em></p>
    </div>
`, htmlText(personalMessage))
		calloutText = fmt.Sprintf("\nA note from your organizer:\n%s\n", personalMessage)
	}

	var descriptionHTML string
	var descriptionText string
	if description != "" {
		descriptionHTML = fmt.Sprintf("    <p>%s</p>\n", htmlText(description))
		descriptionText = "\n" + description + "\n"
	}

	htmlBody = fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: Arial, sans-serif; color: #333;">
  <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
    <h2>%s</h2>
%s%s    <table style="margin: 16px 0;">
      <tr><td style="padding-right: 12px;"><strong>When</strong></td><td>%s</td></tr>
      <tr><td style="padding-right: 12px;"><strong>Where</strong></td><td>%s</td></tr>
    </table>
    <p style="font-size: 12px; color: #666;">You are receiving this because you were invited to this meeting.</p>
  </div>
</body>
</html>
`, htmlText(meeting.Title), callout, descriptionHTML, htmlText(when), htmlText(location))

	textBody = fmt.Sprintf(`Reminder: %s
%s%s
When:  %s
Where: %s

You are receiving this because you were invited to this meeting.
`, meeting.Title, calloutText, descriptionText, when, location)

	return subject, htmlBody, textBody
}
