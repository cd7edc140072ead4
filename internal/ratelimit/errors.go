package ratelimit

import (
	"errors"
	"fmt"
)

// ErrProviderExhausted matches any *ExhaustedError.
var ErrProviderExhausted = errors.New("provider rate limit exhausted")

// ExhaustedError is returned once a call has used every attempt.
type ExhaustedError struct {
	Provider  string
	Operation string
	Attempts  int
	Err       error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("provider %s exhausted after %d attempts (%s): %v", e.Provider, e.Attempts, e.Operation, e.Err)
}

func (e *ExhaustedError) Unwrap() error { return e.Err }

func (e *ExhaustedError) Is(target error) bool { return target == ErrProviderExhausted }
