package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mateatletas/tutorbilling/internal/shared/constants"
	"github.com/mateatletas/tutorbilling/internal/shared/errors"
)

// APIResponse is the envelope every JSON endpoint answers with.
type APIResponse struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data,omitempty"`
	Error     *ErrorInfo  `json:"error,omitempty"`
	Message   string      `json:"message,omitempty"`
	RequestID string      `json:"request_id,omitempty"`
}

type ErrorInfo struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

func SuccessResponse(c *gin.Context, statusCode int, message string, data interface{}) {
	c.JSON(statusCode, envelope(c, true, message, data, nil))
}

// CreatedResponse answers 201 with an optional message.
func CreatedResponse(c *gin.Context, data interface{}, message ...string) {
	msg := "Resource created successfully"
	if len(message) > 0 {
		msg = message[0]
	}
	c.JSON(http.StatusCreated, envelope(c, true, msg, data, nil))
}

// ErrorResponse aborts the chain with a plain error message.
func ErrorResponse(c *gin.Context, statusCode int, message string) {
	c.AbortWithStatusJSON(statusCode, envelope(c, false, "", nil, &ErrorInfo{
		Type:    "error",
		Message: message,
	}))
}

// ErrorResponseWithError aborts with the status carried by an AppError. Any other error is
// reported as a generic 500 and recorded on the context for the request logger.
func ErrorResponseWithError(c *gin.Context, err error) {
	appErr := errors.GetAppError(err)
	if appErr == nil {
		_ = c.Error(err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, envelope(c, false, "", nil, &ErrorInfo{
			Type:    string(errors.ErrorTypeInternal),
			Message: "Internal server error occurred",
		}))
		return
	}

	c.AbortWithStatusJSON(appErr.Code, envelope(c, false, "", nil, &ErrorInfo{
		Type:    string(appErr.Type),
		Message: appErr.Message,
		Details: appErr.Details,
	}))
}

func envelope(c *gin.Context, success bool, message string, data interface{}, errInfo *ErrorInfo) APIResponse {
	return APIResponse{
		Success:   success,
		Data:      data,
		Error:     errInfo,
		Message:   message,
		RequestID: c.GetString(constants.ContextKeyRequestID),
	}
}
