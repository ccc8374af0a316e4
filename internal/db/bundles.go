package db

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Fantasim/hdada/internal/models"
)

// insertBatchSize is the number of address rows per INSERT statement.
const insertBatchSize = 500

// SaveBundle stores a generated bundle and its addresses in one transaction
// and returns the stored summary.
func (d *DB) SaveBundle(bundle *models.WalletBundle) (*models.StoredBundle, error) {
	stored := &models.StoredBundle{
		ID:            uuid.NewString(),
		Network:       bundle.Network,
		AccountIndex:  bundle.AccountIndex,
		StakeAddress:  bundle.StakeAddress,
		ExternalCount: bundle.Count(models.ChainExternal),
		InternalCount: bundle.Count(models.ChainInternal),
		CreatedAt:     time.Now().UTC().Format(time.RFC3339),
	}
	start := time.Now()

	tx, err := d.conn.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`INSERT INTO bundles (id, network, account_index, stake_address, external_count, internal_count, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		stored.ID, string(stored.Network), stored.AccountIndex, stored.StakeAddress,
		stored.ExternalCount, stored.InternalCount, stored.CreatedAt,
	); err != nil {
		return nil, fmt.Errorf("insert bundle: %w", err)
	}

	for i := 0; i < len(bundle.Addresses); i += insertBatchSize {
		end := min(i+insertBatchSize, len(bundle.Addresses))
		if err := insertAddressBatch(tx, stored.ID, bundle.Addresses[i:end]); err != nil {
			return nil, fmt.Errorf("insert address batch [%d:%d]: %w", i, end, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit bundle: %w", err)
	}

	slog.Info("bundle saved",
		"id", stored.ID,
		"network", stored.Network,
		"accountIndex", stored.AccountIndex,
		"addresses", len(bundle.Addresses),
		"duration", time.Since(start).Round(time.Millisecond),
	)
	return stored, nil
}

func insertAddressBatch(tx *sql.Tx, bundleID string, addrs []models.BundleAddress) error {
	placeholders := make([]string, 0, len(addrs))
	args := make([]any, 0, len(addrs)*5)
	for _, a := range addrs {
		placeholders = append(placeholders, "(?, ?, ?, ?, ?)")
		args = append(args, bundleID, string(a.Chain), a.Index, a.Address, a.PublicKey)
	}

	query := "INSERT INTO bundle_addresses (bundle_id, chain, address_index, address, public_key) VALUES " +
		strings.Join(placeholders, ", ")
	if _, err := tx.Exec(query, args...); err != nil {
		return fmt.Errorf("exec batch insert: %w", err)
	}
	return nil
}

const bundleColumns = "id, network, account_index, stake_address, external_count, internal_count, created_at"

func scanBundle(row interface{ Scan(...any) error }) (*models.StoredBundle, error) {
	var b models.StoredBundle
	if err := row.Scan(&b.ID, &b.Network, &b.AccountIndex, &b.StakeAddress,
		&b.ExternalCount, &b.InternalCount, &b.CreatedAt); err != nil {
		return nil, err
	}
	return &b, nil
}

// GetBundle returns the bundle summary with the given id.
func (d *DB) GetBundle(id string) (*models.StoredBundle, error) {
	b, err := scanBundle(d.conn.QueryRow("SELECT "+bundleColumns+" FROM bundles WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("bundle %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query bundle %s: %w", id, err)
	}
	return b, nil
}

// ListBundles returns a page of bundles, newest first, and the total count.
func (d *DB) ListBundles(offset, limit int) ([]models.StoredBundle, int, error) {
	var total int
	if err := d.conn.QueryRow("SELECT COUNT(*) FROM bundles").Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count bundles: %w", err)
	}

	rows, err := d.conn.Query(
		"SELECT "+bundleColumns+" FROM bundles ORDER BY created_at DESC, id LIMIT ? OFFSET ?",
		limit, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("query bundles: %w", err)
	}
	defer rows.Close()

	bundles := []models.StoredBundle{}
	for rows.Next() {
		b, err := scanBundle(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan bundle row: %w", err)
		}
		bundles = append(bundles, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate bundle rows: %w", err)
	}

	slog.Debug("bundles listed", "offset", offset, "limit", limit, "returned", len(bundles), "total", total)
	return bundles, total, nil
}

// DeleteBundle removes a bundle and its addresses.
func (d *DB) DeleteBundle(id string) error {
	result, err := d.conn.Exec("DELETE FROM bundles WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete bundle %s: %w", id, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete bundle %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("bundle %s: %w", id, ErrNotFound)
	}

	slog.Info("bundle deleted", "id", id)
	return nil
}

// GetBundleAddresses returns a page of a bundle's addresses in export order:
// external chain first, then internal, each by index.
func (d *DB) GetBundleAddresses(id string, offset, limit int) ([]models.BundleAddress, error) {
	rows, err := d.conn.Query(
		`SELECT chain, address_index, address, public_key FROM bundle_addresses
		 WHERE bundle_id = ?
		 ORDER BY CASE chain WHEN 'external' THEN 0 ELSE 1 END, address_index
		 LIMIT ? OFFSET ?`,
		id, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("query addresses of bundle %s: %w", id, err)
	}
	defer rows.Close()

	addrs := []models.BundleAddress{}
	for rows.Next() {
		var a models.BundleAddress
		if err := rows.Scan(&a.Chain, &a.Index, &a.Address, &a.PublicKey); err != nil {
			return nil, fmt.Errorf("scan address row: %w", err)
		}
		addrs = append(addrs, a)
	}
	return addrs, rows.Err()
}

// StreamBundleAddresses calls fn for every address of a bundle in export
// order without loading them all into memory.
func (d *DB) StreamBundleAddresses(id string, fn func(addr models.BundleAddress) error) error {
	rows, err := d.conn.Query(
		`SELECT chain, address_index, address, public_key FROM bundle_addresses
		 WHERE bundle_id = ?
		 ORDER BY CASE chain WHEN 'external' THEN 0 ELSE 1 END, address_index`,
		id,
	)
	if err != nil {
		return fmt.Errorf("query addresses for streaming %s: %w", id, err)
	}
	defer rows.Close()

	for rows.Next() {
		var a models.BundleAddress
		if err := rows.Scan(&a.Chain, &a.Index, &a.Address, &a.PublicKey); err != nil {
			return fmt.Errorf("scan address row during streaming: %w", err)
		}
		if err := fn(a); err != nil {
			return fmt.Errorf("stream callback error: %w", err)
		}
	}
	return rows.Err()
}

// FindAddress looks up a payment address across all stored bundles. When the
// address appears in several bundles the oldest one wins.
func (d *DB) FindAddress(address string) (*models.AddressRecord, error) {
	var r models.AddressRecord
	err := d.conn.QueryRow(
		`SELECT a.bundle_id, b.network, b.account_index, a.chain, a.address_index, a.address, a.public_key
		 FROM bundle_addresses a JOIN bundles b ON b.id = a.bundle_id
		 WHERE a.address = ?
		 ORDER BY b.created_at, b.id LIMIT 1`,
		address,
	).Scan(&r.BundleID, &r.Network, &r.AccountIndex, &r.Chain, &r.Index, &r.Address, &r.PublicKey)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("address %s: %w", address, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query address %s: %w", address, err)
	}
	return &r, nil
}
