package response

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/fulltheme-backend/internal/platform/apierr"
	"github.com/yungbote/fulltheme-backend/internal/ratelimit"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

// RespondServiceError maps a service error onto a status and code. Errors
// that carry no mapping become 500 with fallbackCode.
func RespondServiceError(c *gin.Context, err error, fallbackCode string) {
	status, code := Classify(err, fallbackCode)
	RespondError(c, status, code, err)
}

func Classify(err error, fallbackCode string) (int, string) {
	if ae, ok := apierr.From(err); ok && ae.Status != 0 {
		code := ae.Code
		if code == "" {
			code = fallbackCode
		}
		return ae.Status, code
	}
	switch {
	case errors.Is(err, ratelimit.ErrProviderExhausted):
		return http.StatusTooManyRequests, "provider_exhausted"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "timeout"
	case errors.Is(err, context.Canceled):
		return 499, "client_closed_request"
	}
	return http.StatusInternalServerError, fallbackCode
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}
