package main

import (
	"errors"
	"testing"
)

func TestClassifyPollError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want pollErrorKind
	}{
		{"unauthorized status", errors.New("Unauthorized"), pollErrorAuth},
		{"bad token code", errors.New("telegram: 401 bad token"), pollErrorAuth},
		{"second consumer", errors.New("Conflict: terminated by other getUpdates request"), pollErrorConflict},
		{"conflict code", errors.New("409 conflict"), pollErrorConflict},
		{"rate limited", errors.New("Too Many Requests: retry after 5"), pollErrorRateLimit},
		{"rate limit code", errors.New("got 429 from api"), pollErrorRateLimit},
		{"plain network", errors.New("dial tcp: i/o timeout"), pollErrorNetwork},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classifyPollError(tt.err); got != tt.want {
				t.Errorf("classifyPollError(%q) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestAuthErrorIsFatalSentinel(t *testing.T) {
	// The outer loop in main() must see the auth failure as the
	// sentinel so it exits instead of restarting with the same token.
	if !errors.Is(errAuth, errAuth) {
		t.Fatal("sentinel does not match itself")
	}
	wrapped := errors.New("unrelated exit")
	if errors.Is(wrapped, errAuth) {
		t.Error("unrelated error matches the fatal sentinel")
	}
}
