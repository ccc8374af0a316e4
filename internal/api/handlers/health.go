package handlers

import (
	"log/slog"
	"net/http"

	"github.com/Fantasim/hdada/internal/config"
	"github.com/Fantasim/hdada/internal/models"
)

// Health handles GET /api/health. It never touches the mnemonic.
func Health(cfg *config.Config, version string) http.HandlerFunc {
	source := "none"
	switch {
	case cfg.MnemonicFile != "":
		source = "file"
	case cfg.UsesKeystore():
		source = "keystore"
	}

	return func(w http.ResponseWriter, r *http.Request) {
		slog.Debug("health check requested", "remoteAddr", r.RemoteAddr)

		writeJSON(w, http.StatusOK, models.APIResponse{Data: map[string]string{
			"status":         "ok",
			"version":        version,
			"network":        cfg.Network,
			"mnemonicSource": source,
		}})
	}
}
