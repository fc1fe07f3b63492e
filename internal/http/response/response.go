package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	domainagg "github.com/yungbote/knowledgebase-backend/internal/domain/aggregates"
)

// Envelope is the uniform API body: success plus either data or
// error, never both.
type Envelope struct {
	Success bool      `json:"success"`
	Data    any       `json:"data,omitempty"`
	Error   *APIError `json:"error,omitempty"`
}

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, Envelope{Success: true, Data: payload})
}

func RespondCreated(c *gin.Context, payload any) {
	c.JSON(http.StatusCreated, Envelope{Success: true, Data: payload})
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, Envelope{
		Success: false,
		Error:   &APIError{Message: msg, Code: code},
	})
}

// RespondDomainError maps aggregate error codes onto HTTP statuses.
func RespondDomainError(c *gin.Context, err error) {
	code := domainagg.CodeOf(err)
	RespondError(c, StatusForCode(code), string(code), err)
}

func StatusForCode(code domainagg.ErrorCode) int {
	switch code {
	case domainagg.CodeValidation:
		return http.StatusBadRequest
	case domainagg.CodeNotFound:
		return http.StatusNotFound
	case domainagg.CodeConflict:
		return http.StatusConflict
	case domainagg.CodeInvariantViolation:
		return http.StatusUnprocessableEntity
	case domainagg.CodePreconditionFailed:
		return http.StatusPreconditionFailed
	case domainagg.CodePermissionDenied:
		return http.StatusForbidden
	case domainagg.CodeRetryable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
