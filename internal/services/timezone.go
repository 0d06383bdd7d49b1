package services

import (
	"time"

	"github.com/gatherpoint/gatherpoint/internal/models"
)

// ResolveTimezone picks the display timezone for a meeting: the meeting's
// own override first, then the group's, then the configured default. An
// unloadable zone name falls through to the next candidate, ending at UTC.
func ResolveTimezone(meeting *models.Meeting, group *models.Group, fallback string) *time.Location {
	candidates := make([]string, 0, 3)
	if meeting != nil && meeting.Timezone != nil {
		candidates = append(candidates, *meeting.Timezone)
	}
	if group != nil && group.Timezone != nil {
		candidates = append(candidates, *group.Timezone)
	}
	if fallback != "" {
		candidates = append(candidates, fallback)
	}

	for _, name := range candidates {
		if name == "" {
			continue
		}
		if loc, err := time.LoadLocation(name); err == nil {
			return loc
		}
	}
	return time.UTC
}
