package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strconv"

	"github.com/Fantasim/hdada/internal/address"
	"github.com/Fantasim/hdada/internal/challenge"
	"github.com/Fantasim/hdada/internal/config"
	"github.com/Fantasim/hdada/internal/db"
	"github.com/Fantasim/hdada/internal/hdkey"
	"github.com/Fantasim/hdada/internal/keystore"
	"github.com/Fantasim/hdada/internal/mnemonic"
	"github.com/Fantasim/hdada/internal/models"
	"github.com/Fantasim/hdada/internal/signer"
	"github.com/Fantasim/hdada/internal/wallet"
)

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to write JSON response", "error", err)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, models.APIError{
		Error: models.APIErrorDetail{
			Code:    code,
			Message: message,
		},
	})
}

// writeErr maps err to a status and error code. Transient errors carry a
// Retry-After header.
func writeErr(w http.ResponseWriter, err error) {
	status, code := classify(err)
	if config.IsTransient(err) {
		if retry := config.GetRetryAfter(err); retry > 0 {
			w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(retry.Seconds()))))
		}
	}

	message := err.Error()
	if status == http.StatusInternalServerError {
		message = "internal error"
	}
	writeError(w, status, code, message)
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, config.ErrRateLimited):
		return http.StatusTooManyRequests, config.ErrorRateLimited
	case errors.Is(err, db.ErrNotFound):
		return http.StatusNotFound, config.ErrorNotFound
	case errors.Is(err, mnemonic.ErrInvalidMnemonic):
		return http.StatusBadRequest, config.ErrorInvalidMnemonic
	case errors.Is(err, hdkey.ErrInvalidPath), errors.Is(err, hdkey.ErrHardenedFromPublic):
		return http.StatusBadRequest, config.ErrorInvalidPath
	case errors.Is(err, hdkey.ErrInvalidKey):
		return http.StatusBadRequest, config.ErrorInvalidKey
	case errors.Is(err, address.ErrNetworkMismatch):
		return http.StatusBadRequest, config.ErrorNetworkMismatch
	case errors.Is(err, address.ErrUnknownNetwork):
		return http.StatusBadRequest, config.ErrorUnknownNetwork
	case errors.Is(err, address.ErrNoStakeCredential):
		return http.StatusBadRequest, config.ErrorNoStakeCredential
	case errors.Is(err, address.ErrInvalidAddress):
		return http.StatusBadRequest, config.ErrorInvalidAddress
	case errors.Is(err, signer.ErrInvalidSignature):
		return http.StatusBadRequest, config.ErrorInvalidSignature
	case errors.Is(err, wallet.ErrInvalidCount):
		return http.StatusBadRequest, config.ErrorInvalidCount
	case errors.Is(err, challenge.ErrExpired):
		return http.StatusGone, config.ErrorChallengeExpired
	case errors.Is(err, challenge.ErrKeyMismatch):
		return http.StatusUnauthorized, config.ErrorChallengeKeyMismatch
	case errors.Is(err, challenge.ErrBadSignature):
		return http.StatusUnauthorized, config.ErrorChallengeBadSignature
	case errors.Is(err, config.ErrMnemonicSourceNotSet):
		return http.StatusServiceUnavailable, config.ErrorMnemonicSourceNotSet
	case errors.Is(err, keystore.ErrWrongPassword), errors.Is(err, keystore.ErrWalletNotFound):
		return http.StatusServiceUnavailable, config.ErrorMnemonicSourceNotSet
	case errors.Is(err, config.ErrKeyDerivation):
		return http.StatusInternalServerError, config.ErrorKeyDerivation
	default:
		return http.StatusInternalServerError, config.ErrorInternal
	}
}

// decodeJSON reads a size-limited JSON body into v and rejects unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, config.MaxRequestBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// parseIntParam extracts an integer query parameter with a default value.
func parseIntParam(r *http.Request, key string, defaultVal int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		slog.Debug("invalid int param, using default",
			"key", key,
			"value", val,
			"default", defaultVal,
		)
		return defaultVal
	}
	return n
}

// pagination reads page and pageSize, clamped to the configured limits.
func pagination(r *http.Request) (page, pageSize int) {
	page = parseIntParam(r, "page", 1)
	pageSize = parseIntParam(r, "pageSize", config.DefaultPageSize)
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = config.DefaultPageSize
	}
	if pageSize > config.MaxPageSize {
		pageSize = config.MaxPageSize
	}
	return page, pageSize
}
