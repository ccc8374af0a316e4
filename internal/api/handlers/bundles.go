package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Fantasim/hdada/internal/config"
	"github.com/Fantasim/hdada/internal/models"
	"github.com/Fantasim/hdada/internal/wallet"
)

type createBundleRequest struct {
	AccountIndex  *uint32 `json:"accountIndex"`
	ExternalCount *int    `json:"externalCount"`
	InternalCount *int    `json:"internalCount"`
}

type bundleResponse struct {
	Bundle    *models.StoredBundle   `json:"bundle"`
	Addresses []models.BundleAddress `json:"addresses"`
}

// CreateBundle handles POST /api/bundles. Omitted fields fall back to the
// configured account and counts.
func CreateBundle(deps *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		var req createBundleRequest
		if err := decodeJSON(w, r, &req); err != nil {
			slog.Warn("invalid bundle request body", "error", err)
			writeError(w, http.StatusBadRequest, config.ErrorInvalidRequest, err.Error())
			return
		}

		account, external, internal := deps.Config.AccountIndex, deps.Config.ExternalCount, deps.Config.InternalCount
		if req.AccountIndex != nil {
			account = *req.AccountIndex
		}
		if req.ExternalCount != nil {
			external = *req.ExternalCount
		}
		if req.InternalCount != nil {
			internal = *req.InternalCount
		}

		slog.Info("bundle generation requested",
			"account", account,
			"external", external,
			"internal", internal,
			"remoteAddr", r.RemoteAddr,
		)

		bundle, err := deps.Keys.Bundle(r.Context(), account, external, internal)
		if err != nil {
			slog.Error("bundle generation failed", "account", account, "error", err)
			writeErr(w, err)
			return
		}

		stored, err := deps.DB.SaveBundle(bundle)
		if err != nil {
			slog.Error("failed to save bundle", "account", account, "error", err)
			writeError(w, http.StatusInternalServerError, config.ErrorDatabase, "failed to save bundle")
			return
		}

		writeJSON(w, http.StatusCreated, models.APIResponse{
			Data: bundleResponse{Bundle: stored, Addresses: bundle.Addresses},
			Meta: &models.APIMeta{
				Total:         int64(len(bundle.Addresses)),
				ExecutionTime: time.Since(start).Milliseconds(),
			},
		})
	}
}

// ListBundles handles GET /api/bundles.
func ListBundles(deps *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		page, pageSize := pagination(r)

		bundles, total, err := deps.DB.ListBundles((page-1)*pageSize, pageSize)
		if err != nil {
			slog.Error("failed to list bundles", "error", err)
			writeError(w, http.StatusInternalServerError, config.ErrorDatabase, "failed to list bundles")
			return
		}

		writeJSON(w, http.StatusOK, models.APIResponse{
			Data: bundles,
			Meta: &models.APIMeta{
				Page:          page,
				PageSize:      pageSize,
				Total:         int64(total),
				ExecutionTime: time.Since(start).Milliseconds(),
			},
		})
	}
}

// GetBundle handles GET /api/bundles/{id} with one page of its addresses.
func GetBundle(deps *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		id := chi.URLParam(r, "id")
		page, pageSize := pagination(r)

		stored, err := deps.DB.GetBundle(id)
		if err != nil {
			slog.Warn("bundle lookup failed", "id", id, "error", err)
			writeErr(w, err)
			return
		}

		addrs, err := deps.DB.GetBundleAddresses(id, (page-1)*pageSize, pageSize)
		if err != nil {
			slog.Error("failed to fetch bundle addresses", "id", id, "error", err)
			writeError(w, http.StatusInternalServerError, config.ErrorDatabase, "failed to fetch bundle addresses")
			return
		}

		writeJSON(w, http.StatusOK, models.APIResponse{
			Data: bundleResponse{Bundle: stored, Addresses: addrs},
			Meta: &models.APIMeta{
				Page:          page,
				PageSize:      pageSize,
				Total:         int64(stored.ExternalCount + stored.InternalCount),
				ExecutionTime: time.Since(start).Milliseconds(),
			},
		})
	}
}

// ExportBundle handles GET /api/bundles/{id}/export?format=json|csv and
// streams the file as an attachment.
func ExportBundle(deps *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		format := r.URL.Query().Get("format")
		if format == "" {
			format = "json"
		}
		if format != "json" && format != "csv" {
			writeError(w, http.StatusBadRequest, config.ErrorInvalidRequest, "format must be json or csv")
			return
		}

		stored, err := deps.DB.GetBundle(id)
		if err != nil {
			slog.Warn("export of unknown bundle", "id", id, "error", err)
			writeErr(w, err)
			return
		}
		if stored.ExternalCount+stored.InternalCount == 0 {
			writeError(w, http.StatusBadRequest, config.ErrorExportFailed, wallet.ErrEmptyBundle.Error())
			return
		}

		filename := wallet.ExportBaseName(stored.Network, stored.AccountIndex) + "." + format
		w.Header().Set("Content-Disposition", "attachment; filename="+filename)

		slog.Info("bundle export requested", "id", id, "format", format, "remoteAddr", r.RemoteAddr)

		if format == "csv" {
			w.Header().Set("Content-Type", "text/csv")
			err = wallet.StreamBundleCSV(w, deps.DB, id)
		} else {
			w.Header().Set("Content-Type", "application/json")
			err = wallet.StreamBundleJSON(w, deps.DB, id)
		}
		if err != nil {
			// Headers are already sent; the client sees a truncated body.
			slog.Error("export stream error", "id", id, "format", format, "error", err)
			return
		}

		slog.Info("bundle export complete", "id", id, "format", format)
	}
}
