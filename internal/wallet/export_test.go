package wallet

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/Fantasim/hdada/internal/address"
	"github.com/Fantasim/hdada/internal/models"
)

// mockStreamer implements BundleStreamer for testing.
type mockStreamer struct {
	stored *models.StoredBundle
	bundle *models.WalletBundle
}

func (m *mockStreamer) GetBundle(id string) (*models.StoredBundle, error) {
	if m.stored == nil || m.stored.ID != id {
		return nil, errors.New("not found")
	}
	return m.stored, nil
}

func (m *mockStreamer) StreamBundleAddresses(id string, fn func(addr models.BundleAddress) error) error {
	for _, addr := range m.bundle.Addresses {
		if err := fn(addr); err != nil {
			return err
		}
	}
	return nil
}

func testBundle(t *testing.T) *models.WalletBundle {
	t.Helper()
	bundle, err := GenerateBundle(testMnemonic, 0, 3, 2, address.Mainnet)
	if err != nil {
		t.Fatalf("GenerateBundle() error = %v", err)
	}
	return bundle
}

func newMockStreamer(bundle *models.WalletBundle) *mockStreamer {
	return &mockStreamer{
		stored: &models.StoredBundle{
			ID:            "b-1",
			Network:       bundle.Network,
			AccountIndex:  bundle.AccountIndex,
			StakeAddress:  bundle.StakeAddress,
			ExternalCount: bundle.Count(models.ChainExternal),
			InternalCount: bundle.Count(models.ChainInternal),
		},
		bundle: bundle,
	}
}

func TestWriteJSONShape(t *testing.T) {
	bundle := testBundle(t)

	var buf bytes.Buffer
	if err := WriteJSON(&buf, bundle); err != nil {
		t.Fatalf("WriteJSON() error = %v", err)
	}

	var raw map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &raw); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	for _, key := range []string{"network", "account_index", "stake_address", "addresses"} {
		if _, ok := raw[key]; !ok {
			t.Errorf("missing key %q", key)
		}
	}

	first := raw["addresses"].([]interface{})[0].(map[string]interface{})
	for _, key := range []string{"index", "chain", "address", "public_key"} {
		if _, ok := first[key]; !ok {
			t.Errorf("address entry missing key %q", key)
		}
	}
	if first["chain"] != "external" {
		t.Errorf("chain = %v, want external", first["chain"])
	}
	if raw["stake_address"] != wantStakeMainnet {
		t.Errorf("stake_address = %v", raw["stake_address"])
	}
}

func TestWriteCSV(t *testing.T) {
	bundle := testBundle(t)

	var buf bytes.Buffer
	if err := WriteCSV(&buf, bundle); err != nil {
		t.Fatalf("WriteCSV() error = %v", err)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(rows) != 6 {
		t.Fatalf("rows = %d, want 6", len(rows))
	}
	if !reflect.DeepEqual(rows[0], CSVHeader) {
		t.Errorf("header = %v, want %v", rows[0], CSVHeader)
	}
	if want := []string{"0", "external", wantExt0Mainnet, "7ea09a34aebb13c9841c71397b1cabfec5ddf950405293dee496cac2f437480a"}; !reflect.DeepEqual(rows[1], want) {
		t.Errorf("row 1 = %v, want %v", rows[1], want)
	}
	if rows[4][1] != "internal" || rows[4][0] != "0" {
		t.Errorf("row 4 = %v, want internal index 0", rows[4])
	}
}

func TestExportBundle(t *testing.T) {
	bundle := testBundle(t)
	dir := t.TempDir()

	jsonPath, csvPath, err := ExportBundle(bundle, dir)
	if err != nil {
		t.Fatalf("ExportBundle() error = %v", err)
	}
	if filepath.Base(jsonPath) != "mainnet_account0_addresses.json" {
		t.Errorf("json file = %s", jsonPath)
	}

	data, err := os.ReadFile(jsonPath)
	if err != nil {
		t.Fatalf("read json: %v", err)
	}
	var decoded models.WalletBundle
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if !reflect.DeepEqual(&decoded, bundle) {
		t.Error("exported JSON does not round-trip")
	}

	csvData, err := os.ReadFile(csvPath)
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if !strings.HasPrefix(string(csvData), "index,chain,address,public_key\n") {
		t.Errorf("csv starts with %q", strings.SplitN(string(csvData), "\n", 2)[0])
	}
}

func TestExportBundleEmpty(t *testing.T) {
	_, _, err := ExportBundle(&models.WalletBundle{Network: models.NetworkMainnet}, t.TempDir())
	if !errors.Is(err, ErrEmptyBundle) {
		t.Errorf("ExportBundle() error = %v, want ErrEmptyBundle", err)
	}
}

func TestStreamBundleMatchesInMemoryExport(t *testing.T) {
	bundle := testBundle(t)
	db := newMockStreamer(bundle)

	var streamed, direct bytes.Buffer
	if err := StreamBundleJSON(&streamed, db, "b-1"); err != nil {
		t.Fatalf("StreamBundleJSON() error = %v", err)
	}
	if err := WriteJSON(&direct, bundle); err != nil {
		t.Fatal(err)
	}

	var a, b models.WalletBundle
	if err := json.Unmarshal(streamed.Bytes(), &a); err != nil {
		t.Fatalf("streamed JSON invalid: %v", err)
	}
	if err := json.Unmarshal(direct.Bytes(), &b); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Error("streamed JSON differs from WriteJSON output")
	}

	streamed.Reset()
	direct.Reset()
	if err := StreamBundleCSV(&streamed, db, "b-1"); err != nil {
		t.Fatalf("StreamBundleCSV() error = %v", err)
	}
	if err := WriteCSV(&direct, bundle); err != nil {
		t.Fatal(err)
	}
	if streamed.String() != direct.String() {
		t.Error("streamed CSV differs from WriteCSV output")
	}

	if err := StreamBundleJSON(&streamed, db, "missing"); err == nil {
		t.Error("StreamBundleJSON(missing) succeeded")
	}
}

func TestExportStoredBundle(t *testing.T) {
	bundle := testBundle(t)
	dir := t.TempDir()

	jsonPath, csvPath, err := ExportStoredBundle(newMockStreamer(bundle), "b-1", dir)
	if err != nil {
		t.Fatalf("ExportStoredBundle() error = %v", err)
	}

	for _, p := range []string{jsonPath, csvPath} {
		if _, err := os.Stat(p); err != nil {
			t.Errorf("export file %s: %v", p, err)
		}
	}
}
