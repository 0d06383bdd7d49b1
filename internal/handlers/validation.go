package handlers

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	appErrors "github.com/gatherpoint/gatherpoint/pkg/errors"
	"github.com/gatherpoint/gatherpoint/pkg/response"
	appValidator "github.com/gatherpoint/gatherpoint/pkg/validator"
)

// bindAndValidate binds the request payload (JSON or form-encoded, chosen
// from the Content-Type) into dest and runs struct validation rules. When
// validation fails, an error response is automatically written and false is
// returned. An empty body binds to the zero value.
func bindAndValidate[T any](c *gin.Context, dest *T) bool {
	if c.Request != nil && c.Request.ContentLength > 0 {
		if err := c.ShouldBind(dest); err != nil {
			response.Error(c, appErrors.NewBadRequest("invalid request payload"))
			return false
		}
	}

	if err := appValidator.ValidateStruct(dest); err != nil {
		response.Error(c, appErrors.NewBadRequest(formatValidationError(err)))
		return false
	}

	return true
}

func formatValidationError(err error) string {
	if err == nil {
		return "invalid request payload"
	}

	if ve, ok := err.(appValidator.ValidationErrors); ok {
		if len(ve) == 0 {
			return "invalid request payload"
		}

		messages := make([]string, 0, len(ve))
		for _, failure := range ve {
			field := prettifyFieldName(failure.Field)
			switch failure.Tag {
			case "required":
				messages = append(messages, fmt.Sprintf("%s is required", field))
			case "email":
				messages = append(messages, fmt.Sprintf("%s must be a valid email address", field))
			case "max":
				messages = append(messages, fmt.Sprintf("%s must be at most %s characters", field, failure.Param))
			default:
				if failure.Param != "" {
					messages = append(messages, fmt.Sprintf("%s failed validation: %s=%s", field, failure.Tag, failure.Param))
				} else {
					messages = append(messages, fmt.Sprintf("%s failed validation: %s", field, failure.Tag))
				}
			}
		}
		return strings.Join(messages, "; ")
	}

	return "invalid request payload"
}

func prettifyFieldName(name string) string {
	if name == "" {
		return "field"
	}
	name = strings.ReplaceAll(name, "_", " ")
	return strings.ToLower(name)
}
