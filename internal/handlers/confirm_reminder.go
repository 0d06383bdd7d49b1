package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/gatherpoint/gatherpoint/internal/services"
	appErrors "github.com/gatherpoint/gatherpoint/pkg/errors"
	"github.com/gatherpoint/gatherpoint/pkg/response"
)

// ConfirmReminderHandler serves the organizer-facing confirmation link.
// GET renders the review state; POST performs the confirm-and-send.
type ConfirmReminderHandler struct {
	confirmations *services.ConfirmationService
}

func NewConfirmReminderHandler(confirmations *services.ConfirmationService) *ConfirmReminderHandler {
	return &ConfirmReminderHandler{confirmations: confirmations}
}

type confirmRequest struct {
	Description string `json:"description" form:"description"`
	Message     string `json:"message" form:"message"`
}

type reviewDTO struct {
	MeetingID     string    `json:"meeting_id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	StartsAt      time.Time `json:"starts_at"`
	When          string    `json:"when"`
	Location      string    `json:"location,omitempty"`
	OrganizerName string    `json:"organizer_name"`
	GroupName     string    `json:"group_name,omitempty"`
	AttendeeCount int       `json:"attendee_count"`
	Timezone      string    `json:"timezone"`
	ExpiresAt     time.Time `json:"expires_at"`
}

// GET /confirm-reminder?token=...
func (h *ConfirmReminderHandler) Review(c *gin.Context) {
	if h.confirmations == nil {
		h.writeError(c, appErrors.ErrInternalServer)
		return
	}

	token := strings.TrimSpace(c.Query("token"))
	if token == "" {
		h.writeError(c, appErrors.NewBadRequest("Confirmation token is required"))
		return
	}

	data, err := h.confirmations.Review(requestContext(c), token)
	if err != nil {
		h.writeError(c, mapConfirmationError(err))
		return
	}

	if response.PrefersHTML(c) {
		response.HTML(c, http.StatusOK, "review.html", gin.H{
			"Token":         token,
			"Title":         data.Title,
			"When":          data.When,
			"Location":      data.Location,
			"GroupName":     data.GroupName,
			"OrganizerName": data.OrganizerName,
			"AttendeeCount": data.AttendeeCount,
			"Timezone":      data.Timezone,
			"Description":   data.Description,
		})
		return
	}

	response.Success(c, http.StatusOK, toReviewDTO(data))
}

// POST /confirm-reminder?token=...
func (h *ConfirmReminderHandler) Confirm(c *gin.Context) {
	if h.confirmations == nil {
		h.writeError(c, appErrors.ErrInternalServer)
		return
	}

	token := strings.TrimSpace(c.Query("token"))
	if token == "" {
		h.writeError(c, appErrors.NewBadRequest("Confirmation token is required"))
		return
	}

	var req confirmRequest
	if !bindAndValidate(c, &req) {
		return
	}

	result, err := h.confirmations.Confirm(requestContext(c), token, services.ConfirmInput{
		Description: req.Description,
		Message:     req.Message,
	})
	if err != nil {
		h.writeError(c, mapConfirmationError(err))
		return
	}

	if response.PrefersHTML(c) {
		response.HTML(c, http.StatusOK, "sent.html", gin.H{
			"AttendeeCount": result.AttendeeCount,
		})
		return
	}

	response.Success(c, http.StatusOK, gin.H{"attendee_count": result.AttendeeCount})
}

func (h *ConfirmReminderHandler) writeError(c *gin.Context, err error) {
	if response.PrefersHTML(c) {
		response.ErrorHTML(c, err, "error.html")
		return
	}
	response.Error(c, err)
}

// mapConfirmationError translates service sentinels into distinct
// user-facing errors so the organizer's next action is unambiguous.
func mapConfirmationError(err error) error {
	switch {
	case errors.Is(err, services.ErrTokenNotFound):
		return appErrors.ErrReminderInvalid
	case errors.Is(err, services.ErrTokenExpired):
		return appErrors.ErrReminderExpired
	case errors.Is(err, services.ErrAlreadyConfirmed):
		return appErrors.ErrReminderAlreadySent
	case errors.Is(err, services.ErrMeetingNotFound):
		return appErrors.ErrMeetingNotFound
	case errors.Is(err, services.ErrMeetingPassed):
		return appErrors.ErrMeetingPassed
	case errors.Is(err, services.ErrEmailDelivery):
		return appErrors.ErrEmailDelivery.WithInternal(err)
	default:
		return appErrors.ErrInternalServer.WithInternal(err)
	}
}

func toReviewDTO(data *services.ReviewData) reviewDTO {
	return reviewDTO{
		MeetingID:     data.MeetingID,
		Title:         data.Title,
		Description:   data.Description,
		StartsAt:      data.StartsAt,
		When:          data.When,
		Location:      data.Location,
		OrganizerName: data.OrganizerName,
		GroupName:     data.GroupName,
		AttendeeCount: data.AttendeeCount,
		Timezone:      data.Timezone,
		ExpiresAt:     data.ExpiresAt,
	}
}
