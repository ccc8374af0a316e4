package config

import (
	"errors"
	"time"
)

// Sentinel errors for internal use.
var (
	ErrInvalidConfig        = errors.New("invalid configuration")
	ErrMnemonicSourceNotSet = errors.New("mnemonic source not configured")
	ErrKeyDerivation        = errors.New("key derivation failed")
	ErrRateLimited          = errors.New("rate limit exceeded")
)

// TransientError wraps an error that can be retried later.
type TransientError struct {
	Err        error
	RetryAfter time.Duration // 0 = caller decides
}

func (e *TransientError) Error() string { return e.Err.Error() }
func (e *TransientError) Unwrap() error { return e.Err }

// NewTransientError wraps an error as transient (retriable).
func NewTransientError(err error) error {
	return &TransientError{Err: err}
}

// NewTransientErrorWithRetry wraps with explicit retry delay.
func NewTransientErrorWithRetry(err error, retryAfter time.Duration) error {
	return &TransientError{Err: err, RetryAfter: retryAfter}
}

// IsTransient returns true if the error is transient (retriable).
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// GetRetryAfter returns the retry delay if set, or 0.
func GetRetryAfter(err error) time.Duration {
	var te *TransientError
	if errors.As(err, &te) {
		return te.RetryAfter
	}
	return 0
}

// Error codes returned in API error responses.
const (
	ErrorInvalidRequest        = "ERROR_INVALID_REQUEST"
	ErrorInvalidMnemonic       = "ERROR_INVALID_MNEMONIC"
	ErrorInvalidPath           = "ERROR_INVALID_PATH"
	ErrorInvalidKey            = "ERROR_INVALID_KEY"
	ErrorInvalidAddress        = "ERROR_INVALID_ADDRESS"
	ErrorInvalidSignature      = "ERROR_INVALID_SIGNATURE"
	ErrorInvalidCount          = "ERROR_INVALID_COUNT"
	ErrorNetworkMismatch       = "ERROR_NETWORK_MISMATCH"
	ErrorUnknownNetwork        = "ERROR_UNKNOWN_NETWORK"
	ErrorNoStakeCredential     = "ERROR_NO_STAKE_CREDENTIAL"
	ErrorKeyDerivation         = "ERROR_KEY_DERIVATION"
	ErrorMnemonicSourceNotSet  = "ERROR_MNEMONIC_SOURCE_NOT_SET"
	ErrorDatabase              = "ERROR_DATABASE"
	ErrorNotFound              = "ERROR_NOT_FOUND"
	ErrorExportFailed          = "ERROR_EXPORT_FAILED"
	ErrorRateLimited           = "ERROR_RATE_LIMITED"
	ErrorChallengeExpired      = "ERROR_CHALLENGE_EXPIRED"
	ErrorChallengeResolved     = "ERROR_CHALLENGE_RESOLVED"
	ErrorChallengeKeyMismatch  = "ERROR_CHALLENGE_KEY_MISMATCH"
	ErrorChallengeBadSignature = "ERROR_CHALLENGE_BAD_SIGNATURE"
	ErrorInternal              = "ERROR_INTERNAL"
)
