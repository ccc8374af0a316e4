package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Fantasim/hdada/internal/address"
	"github.com/Fantasim/hdada/internal/challenge"
	"github.com/Fantasim/hdada/internal/config"
	"github.com/Fantasim/hdada/internal/hdkey"
	"github.com/Fantasim/hdada/internal/models"
	"github.com/Fantasim/hdada/internal/signer"
)

type createChallengeRequest struct {
	Address string `json:"address"`
}

type challengeResponseRequest struct {
	PublicKey string `json:"publicKey"`
	Signature string `json:"signature"`
}

// CreateChallenge handles POST /api/challenges.
func CreateChallenge(deps *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createChallengeRequest
		if err := decodeJSON(w, r, &req); err != nil {
			slog.Warn("invalid challenge request body", "error", err)
			writeError(w, http.StatusBadRequest, config.ErrorInvalidRequest, err.Error())
			return
		}

		addr, err := address.Parse(req.Address)
		if err != nil {
			writeErr(w, err)
			return
		}

		ttl := deps.Config.ChallengeTTL
		if ttl <= 0 {
			ttl = config.ChallengeTTL
		}

		c, err := challenge.New(addr, ttl, deps.now())
		if err != nil {
			slog.Error("challenge creation failed", "address", req.Address, "error", err)
			writeErr(w, err)
			return
		}

		m := c.Model(models.ChallengePending)
		if err := deps.DB.SaveChallenge(m); err != nil {
			slog.Error("failed to save challenge", "id", c.ID, "error", err)
			writeError(w, http.StatusInternalServerError, config.ErrorDatabase, "failed to save challenge")
			return
		}

		slog.Info("challenge issued", "id", c.ID, "address", req.Address, "expiresAt", m.ExpiresAt)
		writeJSON(w, http.StatusCreated, models.APIResponse{Data: m})
	}
}

// VerifyChallenge handles POST /api/challenges/{id}/verify. A challenge is
// answered once: a bad key or signature marks it failed.
func VerifyChallenge(deps *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		var req challengeResponseRequest
		if err := decodeJSON(w, r, &req); err != nil {
			slog.Warn("invalid challenge response body", "id", id, "error", err)
			writeError(w, http.StatusBadRequest, config.ErrorInvalidRequest, err.Error())
			return
		}

		pub, err := hdkey.ParsePublicKey(req.PublicKey)
		if err != nil {
			writeError(w, http.StatusBadRequest, config.ErrorInvalidKey, err.Error())
			return
		}
		sig, err := signer.ParseSignature(req.Signature)
		if err != nil {
			writeError(w, http.StatusBadRequest, config.ErrorInvalidSignature, err.Error())
			return
		}

		stored, err := deps.DB.GetChallenge(id)
		if err != nil {
			writeErr(w, err)
			return
		}
		if stored.Status != models.ChallengePending {
			writeError(w, http.StatusConflict, config.ErrorChallengeResolved, "challenge already "+string(stored.Status))
			return
		}

		c, err := challenge.FromModel(*stored)
		if err != nil {
			slog.Error("stored challenge is corrupt", "id", id, "error", err)
			writeError(w, http.StatusInternalServerError, config.ErrorDatabase, "stored challenge is corrupt")
			return
		}

		now := deps.now()
		verifyErr := c.Verify(pub, sig, now)
		if errors.Is(verifyErr, challenge.ErrExpired) {
			slog.Info("expired challenge answered", "id", id)
			writeErr(w, verifyErr)
			return
		}

		status := models.ChallengeVerified
		if verifyErr != nil {
			status = models.ChallengeFailed
		}

		at := now.Format(time.RFC3339)
		updated, err := deps.DB.ResolveChallenge(id, status, at)
		if err != nil {
			slog.Error("failed to resolve challenge", "id", id, "error", err)
			writeError(w, http.StatusInternalServerError, config.ErrorDatabase, "failed to resolve challenge")
			return
		}
		if !updated {
			writeError(w, http.StatusConflict, config.ErrorChallengeResolved, "challenge already resolved")
			return
		}

		slog.Info("challenge answered", "id", id, "status", status, "publicKey", pub.String())

		if verifyErr != nil {
			writeErr(w, verifyErr)
			return
		}

		stored.Status = status
		stored.VerifiedAt = at
		writeJSON(w, http.StatusOK, models.APIResponse{Data: stored})
	}
}
