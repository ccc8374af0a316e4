package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Fantasim/hdada/internal/address"
	"github.com/Fantasim/hdada/internal/config"
	"github.com/Fantasim/hdada/internal/db"
	"github.com/Fantasim/hdada/internal/models"
	"github.com/Fantasim/hdada/internal/wallet"
)

// GetAddress handles GET /api/addresses/{address}. Owned is set when the
// address belongs to a stored bundle.
func GetAddress(deps *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw := chi.URLParam(r, "address")

		addr, err := address.Parse(raw)
		if err != nil {
			slog.Debug("address parse failed", "address", raw, "error", err)
			writeErr(w, err)
			return
		}

		info := wallet.InspectAddress(addr)

		owned, err := deps.DB.FindAddress(addr.String())
		switch {
		case err == nil:
			info.Owned = owned
		case errors.Is(err, db.ErrNotFound):
		default:
			slog.Error("address lookup failed", "address", raw, "error", err)
			writeError(w, http.StatusInternalServerError, config.ErrorDatabase, "address lookup failed")
			return
		}

		writeJSON(w, http.StatusOK, models.APIResponse{Data: info})
	}
}
