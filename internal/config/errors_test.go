package config

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestRateLimitedIsTransient(t *testing.T) {
	err := NewTransientErrorWithRetry(ErrRateLimited, 1500*time.Millisecond)

	if !errors.Is(err, ErrRateLimited) {
		t.Errorf("errors.Is(%v, ErrRateLimited) = false", err)
	}
	if !IsTransient(err) {
		t.Error("IsTransient() = false for a rate limit rejection")
	}
	if got := GetRetryAfter(err); got != 1500*time.Millisecond {
		t.Errorf("GetRetryAfter() = %v, want 1.5s", got)
	}
	if err.Error() != ErrRateLimited.Error() {
		t.Errorf("Error() = %q, want %q", err.Error(), ErrRateLimited.Error())
	}
}

func TestRetryAfterSurvivesWrapping(t *testing.T) {
	inner := NewTransientErrorWithRetry(ErrRateLimited, 200*time.Millisecond)
	wrapped := fmt.Errorf("sign m/1852'/1815'/0'/0/0: %w", inner)

	if !errors.Is(wrapped, ErrRateLimited) {
		t.Error("wrapped error lost ErrRateLimited")
	}
	if got := GetRetryAfter(wrapped); got != 200*time.Millisecond {
		t.Errorf("GetRetryAfter(wrapped) = %v, want 200ms", got)
	}
}

func TestTransientWithoutDelay(t *testing.T) {
	err := NewTransientError(ErrRateLimited)
	if !IsTransient(err) {
		t.Error("IsTransient() = false")
	}
	if got := GetRetryAfter(err); got != 0 {
		t.Errorf("GetRetryAfter() = %v, want 0 (caller decides)", got)
	}
}

func TestNonTransientErrors(t *testing.T) {
	for name, err := range map[string]error{
		"nil":              nil,
		"bare sentinel":    ErrRateLimited,
		"derivation error": fmt.Errorf("%w: segment 3", ErrKeyDerivation),
	} {
		t.Run(name, func(t *testing.T) {
			if IsTransient(err) {
				t.Errorf("IsTransient(%v) = true", err)
			}
			if got := GetRetryAfter(err); got != 0 {
				t.Errorf("GetRetryAfter(%v) = %v, want 0", err, got)
			}
		})
	}
}
