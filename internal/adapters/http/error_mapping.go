package httpadapter

import (
	"context"
	"errors"
	"net/http"

	"github.com/nqhuy/admissions-assistant/internal/core/domain"
)

func statusFromError(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, domain.ErrGenerationExhausted):
		return http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrTemporary):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// clientMessage strips internal detail from errors surfaced to callers.
// Validation failures carry their reason; everything else gets a generic
// message so upstream URLs and model names stay out of responses.
func clientMessage(err error, status int) string {
	switch status {
	case http.StatusBadRequest:
		return err.Error()
	case http.StatusTooManyRequests:
		return "rate limit exceeded"
	case http.StatusServiceUnavailable:
		return "service temporarily unavailable"
	case http.StatusGatewayTimeout:
		return "request timed out"
	default:
		return "internal server error"
	}
}
