package wallet

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/Fantasim/hdada/internal/models"
)

// ExportDir is the default directory for bundle exports.
const ExportDir = "./data/export"

// CSVHeader is the first row of every CSV export.
var CSVHeader = []string{"index", "chain", "address", "public_key"}

// BundleStreamer is the interface for streaming a stored bundle from the DB.
type BundleStreamer interface {
	GetBundle(id string) (*models.StoredBundle, error)
	StreamBundleAddresses(id string, fn func(addr models.BundleAddress) error) error
}

// WriteJSON writes the bundle as indented JSON.
func WriteJSON(w io.Writer, bundle *models.WalletBundle) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(bundle); err != nil {
		return fmt.Errorf("encode bundle: %w", err)
	}
	return nil
}

// WriteCSV writes one row per address under CSVHeader.
func WriteCSV(w io.Writer, bundle *models.WalletBundle) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, a := range bundle.Addresses {
		if err := cw.Write(csvRow(a)); err != nil {
			return fmt.Errorf("write csv row %s/%d: %w", a.Chain, a.Index, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

func csvRow(a models.BundleAddress) []string {
	return []string{strconv.FormatUint(uint64(a.Index), 10), string(a.Chain), a.Address, a.PublicKey}
}

// ExportBaseName returns e.g. "mainnet_account0_addresses".
func ExportBaseName(network models.NetworkMode, account uint32) string {
	return fmt.Sprintf("%s_account%d_addresses", network, account)
}

// ExportBundle writes the bundle as JSON and CSV files into outputDir and
// returns both paths.
func ExportBundle(bundle *models.WalletBundle, outputDir string) (string, string, error) {
	if len(bundle.Addresses) == 0 {
		return "", "", ErrEmptyBundle
	}
	if outputDir == "" {
		outputDir = ExportDir
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", "", fmt.Errorf("create export directory %q: %w", outputDir, err)
	}

	base := filepath.Join(outputDir, ExportBaseName(bundle.Network, bundle.AccountIndex))
	jsonPath, csvPath := base+".json", base+".csv"

	if err := writeFile(jsonPath, func(w io.Writer) error { return WriteJSON(w, bundle) }); err != nil {
		return "", "", err
	}
	if err := writeFile(csvPath, func(w io.Writer) error { return WriteCSV(w, bundle) }); err != nil {
		return "", "", err
	}

	slog.Info("bundle exported",
		"network", bundle.Network,
		"account", bundle.AccountIndex,
		"count", len(bundle.Addresses),
		"json", jsonPath,
		"csv", csvPath,
	)
	return jsonPath, csvPath, nil
}

// StreamBundleJSON writes a stored bundle in the WalletBundle JSON shape,
// streaming addresses so large bundles are never held in memory.
func StreamBundleJSON(w io.Writer, db BundleStreamer, id string) error {
	stored, err := db.GetBundle(id)
	if err != nil {
		return fmt.Errorf("load bundle %s: %w", id, err)
	}

	stake, err := json.Marshal(stored.StakeAddress)
	if err != nil {
		return fmt.Errorf("encode stake address: %w", err)
	}
	header := fmt.Sprintf(`{"network":%q,"account_index":%d,"stake_address":%s,"addresses":[`,
		stored.Network, stored.AccountIndex, stake)
	if _, err := io.WriteString(w, header); err != nil {
		return fmt.Errorf("write export header: %w", err)
	}

	first := true
	err = db.StreamBundleAddresses(id, func(addr models.BundleAddress) error {
		if !first {
			if _, err := io.WriteString(w, ","); err != nil {
				return err
			}
		}
		first = false

		entry, err := json.Marshal(addr)
		if err != nil {
			return fmt.Errorf("marshal address entry: %w", err)
		}
		_, err = w.Write(entry)
		return err
	})
	if err != nil {
		return fmt.Errorf("stream addresses for export: %w", err)
	}

	if _, err := io.WriteString(w, "]}\n"); err != nil {
		return fmt.Errorf("write export footer: %w", err)
	}
	return nil
}

// StreamBundleCSV writes a stored bundle as CSV rows under CSVHeader.
func StreamBundleCSV(w io.Writer, db BundleStreamer, id string) error {
	if _, err := db.GetBundle(id); err != nil {
		return fmt.Errorf("load bundle %s: %w", id, err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	err := db.StreamBundleAddresses(id, func(addr models.BundleAddress) error {
		return cw.Write(csvRow(addr))
	})
	if err != nil {
		return fmt.Errorf("stream addresses for export: %w", err)
	}
	cw.Flush()
	return cw.Error()
}

// ExportStoredBundle streams a stored bundle to JSON and CSV files in outputDir.
func ExportStoredBundle(db BundleStreamer, id string, outputDir string) (string, string, error) {
	stored, err := db.GetBundle(id)
	if err != nil {
		return "", "", fmt.Errorf("load bundle %s: %w", id, err)
	}
	if stored.ExternalCount+stored.InternalCount == 0 {
		return "", "", ErrEmptyBundle
	}

	if outputDir == "" {
		outputDir = ExportDir
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", "", fmt.Errorf("create export directory %q: %w", outputDir, err)
	}

	base := filepath.Join(outputDir, ExportBaseName(stored.Network, stored.AccountIndex))
	jsonPath, csvPath := base+".json", base+".csv"

	slog.Info("exporting stored bundle",
		"bundleId", id,
		"count", stored.ExternalCount+stored.InternalCount,
		"json", jsonPath,
	)

	if err := writeFile(jsonPath, func(w io.Writer) error { return StreamBundleJSON(w, db, id) }); err != nil {
		return "", "", err
	}
	if err := writeFile(csvPath, func(w io.Writer) error { return StreamBundleCSV(w, db, id) }); err != nil {
		return "", "", err
	}

	slog.Info("export complete", "bundleId", id, "csv", csvPath)
	return jsonPath, csvPath, nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create export file %q: %w", path, err)
	}

	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("write %q: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %q: %w", path, err)
	}
	return nil
}
