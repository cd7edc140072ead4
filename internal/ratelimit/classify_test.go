package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestIsRateLimited(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"status 429", httpErr{code: 429}, true},
		{"status 402", fmt.Errorf("wrap: %w", httpErr{code: 402}), true},
		{"status 403", httpErr{code: 403}, true},
		{"status 503", httpErr{code: 503}, true},
		{"status 400", httpErr{code: 400}, false},
		{"quota message", errors.New("You exceeded your current quota"), true},
		{"rate limit message", errors.New("Rate limit reached for gpt"), true},
		{"too many", errors.New("Too Many Requests"), true},
		{"billing", errors.New("billing hard limit"), true},
		{"generate is not rate", errors.New("failed to generate content: bad schema"), false},
		{"context length", errors.New("maximum context length exceeded"), false},
		{"deadline", fmt.Errorf("call: %w", context.DeadlineExceeded), false},
		{"canceled", context.Canceled, false},
		{"decode error quoting billing", fmt.Errorf("initial_coding: %w", permanentErr{msg: "unexpected end of JSON input near: the billing office said retry"}), false},
		{"permanent with 429 status", permanentStatusErr{code: 429}, false},
	}
	for _, tc := range cases {
		if got := IsRateLimited(tc.err); got != tc.want {
			t.Fatalf("%s: got %v want %v", tc.name, got, tc.want)
		}
	}
}

type permanentErr struct{ msg string }

func (e permanentErr) Error() string   { return e.msg }
func (e permanentErr) Permanent() bool { return true }

type permanentStatusErr struct{ code int }

func (e permanentStatusErr) Error() string       { return "quota" }
func (e permanentStatusErr) HTTPStatusCode() int { return e.code }
func (e permanentStatusErr) Permanent() bool     { return true }
