package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	appErrors "github.com/gatherpoint/gatherpoint/pkg/errors"
)

// Response defines the base API payload.
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorInfo  `json:"error,omitempty"`
}

// ErrorInfo holds error details to send to clients.
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Success writes a JSON success response.
func Success(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, Response{
		Success: true,
		Data:    data,
	})
}

// Error writes a JSON error response derived from an AppError.
func Error(c *gin.Context, err error) {
	if err == nil {
		err = appErrors.ErrInternalServer
	}

	appErr := appErrors.FromError(err)
	status := appErr.StatusCode
	if status == 0 {
		status = http.StatusInternalServerError
	}

	c.JSON(status, Response{
		Success: false,
		Error: &ErrorInfo{
			Code:    appErr.Code,
			Message: appErr.Message,
		},
	})
}

// PrefersHTML reports whether the caller asked for a rendered page rather
// than a JSON document. Browsers following an emailed link send text/html;
// API clients send application/json or nothing specific.
func PrefersHTML(c *gin.Context) bool {
	return c.NegotiateFormat(gin.MIMEJSON, gin.MIMEHTML) == gin.MIMEHTML
}

// HTML renders the named template with the given status code.
func HTML(c *gin.Context, statusCode int, name string, data interface{}) {
	c.HTML(statusCode, name, data)
}

// ErrorHTML renders the error page template for an AppError.
func ErrorHTML(c *gin.Context, err error, name string) {
	appErr := appErrors.FromError(err)
	status := appErr.StatusCode
	if status == 0 {
		status = http.StatusInternalServerError
	}

	c.HTML(status, name, gin.H{
		"Code":    appErr.Code,
		"Message": appErr.Message,
	})
}
