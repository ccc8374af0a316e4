package handlers

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/Fantasim/hdada/internal/address"
	"github.com/Fantasim/hdada/internal/challenge"
	"github.com/Fantasim/hdada/internal/config"
	"github.com/Fantasim/hdada/internal/hdkey"
	"github.com/Fantasim/hdada/internal/models"
	"github.com/Fantasim/hdada/internal/signer"
)

type signRequest struct {
	AccountIndex uint32       `json:"accountIndex"`
	Chain        models.Chain `json:"chain"`
	Index        uint32       `json:"index"`
	Message      string       `json:"message"`
	Encoding     string       `json:"encoding"`
}

type verifyRequest struct {
	PublicKey string `json:"publicKey"`
	Message   string `json:"message"`
	Encoding  string `json:"encoding"`
	Signature string `json:"signature"`
	Address   string `json:"address"`
}

type verifyBatchRequest struct {
	Items []models.VerifyItem `json:"items"`
}

type verifyResponse struct {
	Valid           bool  `json:"valid"`
	ControlsAddress *bool `json:"controlsAddress,omitempty"`
}

// decodeMessage decodes the request message and enforces the size limit.
func decodeMessage(msg, encoding string) ([]byte, error) {
	b, err := signer.DecodeMessage(msg, encoding)
	if err != nil {
		return nil, err
	}
	if len(b) > config.MaxMessageBytes {
		return nil, fmt.Errorf("message is %d bytes, limit is %d", len(b), config.MaxMessageBytes)
	}
	return b, nil
}

// SignMessage handles POST /api/sign. The key is derived from the configured
// mnemonic source; only the signature and public key leave the server.
func SignMessage(deps *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := deps.SignLimiter.Allow(); err != nil {
			writeErr(w, err)
			return
		}

		var req signRequest
		if err := decodeJSON(w, r, &req); err != nil {
			slog.Warn("invalid sign request body", "error", err)
			writeError(w, http.StatusBadRequest, config.ErrorInvalidRequest, err.Error())
			return
		}

		chain, ok := req.Chain.Index()
		if !ok {
			writeError(w, http.StatusBadRequest, config.ErrorInvalidPath,
				fmt.Sprintf("invalid chain %q, must be external, internal or stake", req.Chain))
			return
		}

		msg, err := decodeMessage(req.Message, req.Encoding)
		if err != nil {
			writeError(w, http.StatusBadRequest, config.ErrorInvalidRequest, err.Error())
			return
		}

		slog.Info("sign requested",
			"account", req.AccountIndex,
			"chain", req.Chain,
			"index", req.Index,
			"messageLen", len(msg),
			"remoteAddr", r.RemoteAddr,
		)

		result, err := deps.Keys.Sign(r.Context(), req.AccountIndex, chain, req.Index, msg)
		if err != nil {
			slog.Error("sign failed", "account", req.AccountIndex, "chain", req.Chain, "index", req.Index, "error", err)
			writeErr(w, err)
			return
		}

		writeJSON(w, http.StatusOK, models.APIResponse{Data: result})
	}
}

// VerifySignature handles POST /api/verify. An invalid signature is a normal
// result, not an error. When address is given the response also says whether
// the key hashes to one of its credentials.
func VerifySignature() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req verifyRequest
		if err := decodeJSON(w, r, &req); err != nil {
			slog.Warn("invalid verify request body", "error", err)
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
		msg, err := decodeMessage(req.Message, req.Encoding)
		if err != nil {
			writeError(w, http.StatusBadRequest, config.ErrorInvalidRequest, err.Error())
			return
		}

		resp := verifyResponse{Valid: signer.Verify(pub, msg, sig)}
		if req.Address != "" {
			addr, err := address.Parse(req.Address)
			if err != nil {
				writeErr(w, err)
				return
			}
			controls := challenge.Controls(addr, pub)
			resp.ControlsAddress = &controls
		}

		slog.Info("signature verified",
			"publicKey", pub.String(),
			"valid", resp.Valid,
			"address", req.Address,
		)
		writeJSON(w, http.StatusOK, models.APIResponse{Data: resp})
	}
}

// VerifyBatch handles POST /api/verify/batch. Items are checked independently;
// malformed ones are counted invalid and listed in the report errors.
func VerifyBatch() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req verifyBatchRequest
		if err := decodeJSON(w, r, &req); err != nil {
			slog.Warn("invalid batch verify request body", "error", err)
			writeError(w, http.StatusBadRequest, config.ErrorInvalidRequest, err.Error())
			return
		}
		if len(req.Items) == 0 {
			writeError(w, http.StatusBadRequest, config.ErrorInvalidRequest, "items must not be empty")
			return
		}
		if len(req.Items) > config.MaxVerifyBatchItems {
			writeError(w, http.StatusBadRequest, config.ErrorInvalidRequest,
				fmt.Sprintf("batch has %d items, limit is %d", len(req.Items), config.MaxVerifyBatchItems))
			return
		}

		report := challenge.VerifyBatch(req.Items)

		slog.Info("signature batch verified",
			"total", report.Total,
			"valid", report.Valid,
			"invalid", report.Invalid,
		)
		writeJSON(w, http.StatusOK, models.APIResponse{Data: report})
	}
}
