package services

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/yungbote/fulltheme-backend/internal/platform/apierr"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrAccessDenied = errors.New("access denied")
	ErrValidation   = errors.New("validation failed")
	ErrFinalized    = errors.New("codebook is finalized")
)

// Each helper wraps a sentinel in an *apierr.Error so handlers can map the
// status directly while callers still match with errors.Is.

func notFound(code, format string, args ...any) error {
	return apierr.NotFound(code, fmt.Errorf("%w: "+format, append([]any{ErrNotFound}, args...)...))
}

func accessDenied(code, format string, args ...any) error {
	return apierr.Forbidden(code, fmt.Errorf("%w: "+format, append([]any{ErrAccessDenied}, args...)...))
}

func invalid(code, format string, args ...any) error {
	return apierr.BadRequest(code, fmt.Errorf("%w: "+format, append([]any{ErrValidation}, args...)...))
}

func finalized(format string, args ...any) error {
	return apierr.New(http.StatusConflict, "codebook_finalized", fmt.Errorf("%w: "+format, append([]any{ErrFinalized}, args...)...))
}
