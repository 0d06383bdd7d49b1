package services

import "errors"

var (
	// ErrTokenNotFound indicates the confirmation token does not resolve to a row.
	ErrTokenNotFound = errors.New("reminder: token not found")
	// ErrTokenExpired indicates the token's lifetime has passed. Expiry takes
	// precedence over every other state check.
	ErrTokenExpired = errors.New("reminder: token expired")
	// ErrAlreadyConfirmed signals the organizer already approved this send.
	ErrAlreadyConfirmed = errors.New("reminder: already confirmed")
	// ErrMeetingNotFound indicates the underlying meeting was deleted.
	ErrMeetingNotFound = errors.New("reminder: meeting not found")
	// ErrMeetingPassed indicates the meeting date is already behind us.
	ErrMeetingPassed = errors.New("reminder: meeting already occurred")
	// ErrEmailDelivery wraps a failed attendee dispatch. The confirmation is
	// rolled back, so the caller may retry with the same link.
	ErrEmailDelivery = errors.New("reminder: attendee email delivery failed")
)
