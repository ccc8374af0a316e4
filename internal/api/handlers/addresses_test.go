package handlers

import (
	"net/http"
	"testing"

	"github.com/Fantasim/hdada/internal/config"
	"github.com/Fantasim/hdada/internal/models"
)

func TestGetAddress(t *testing.T) {
	router := setupRouter(setupDeps(t))
	created := createBundle(t, router, map[string]int{"externalCount": 1})

	t.Run("owned", func(t *testing.T) {
		w := do(t, router, http.MethodGet, "/api/addresses/"+wantExt0Mainnet, nil)
		if w.Code != http.StatusOK {
			t.Fatalf("status %d", w.Code)
		}
		var info models.AddressInfo
		decodeData(t, w, &info)
		if info.Kind != "base" || info.Network != models.NetworkMainnet || info.StakeAddress != wantStakeMainnet {
			t.Errorf("info = %+v", info)
		}
		if info.Owned == nil || info.Owned.BundleID != created.Bundle.ID || info.Owned.Chain != models.ChainExternal {
			t.Errorf("owned = %+v", info.Owned)
		}
	})

	t.Run("stake address not owned", func(t *testing.T) {
		w := do(t, router, http.MethodGet, "/api/addresses/"+wantStakeMainnet, nil)
		if w.Code != http.StatusOK {
			t.Fatalf("status %d", w.Code)
		}
		var info models.AddressInfo
		decodeData(t, w, &info)
		if info.Kind != "reward" || info.Owned != nil || info.PaymentCredential != "" {
			t.Errorf("info = %+v", info)
		}
	})

	t.Run("invalid", func(t *testing.T) {
		w := do(t, router, http.MethodGet, "/api/addresses/addr1qqqq", nil)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("status %d, want 400", w.Code)
		}
		if code := errorCode(t, w); code != config.ErrorInvalidAddress {
			t.Errorf("code = %s", code)
		}
	})
}
