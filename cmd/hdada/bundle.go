package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Fantasim/hdada/internal/config"
	"github.com/Fantasim/hdada/internal/db"
	"github.com/Fantasim/hdada/internal/hdkey"
	"github.com/Fantasim/hdada/internal/wallet"
)

func runInit(args []string) error {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	mnemonicFile := fs.String("mnemonic-file", "", "Path to the mnemonic file (default: HDADA_MNEMONIC_FILE or the keystore)")
	network := fs.String("network", "", "Network: mainnet or testnet (default: HDADA_NETWORK)")
	dbPath := fs.String("db", "", "Database path (default: HDADA_DB_PATH)")
	output := fs.String("output", "", "Export directory (default: HDADA_EXPORT_DIR)")
	account := fs.Int("account", -1, "Account index (default: HDADA_ACCOUNT_INDEX)")
	external := fs.Int("external", -1, "External address count (default: HDADA_EXTERNAL_COUNT)")
	internal := fs.Int("internal", -1, "Internal address count (default: HDADA_INTERNAL_COUNT)")
	fs.Parse(args)

	cfg, err := loadCLIConfig()
	if err != nil {
		return err
	}

	if *mnemonicFile != "" {
		cfg.MnemonicFile = *mnemonicFile
	}
	if *network != "" {
		cfg.Network = *network
	}
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}
	if *output != "" {
		cfg.ExportDir = *output
	}
	if *account >= 0 {
		cfg.AccountIndex = uint32(*account)
	}
	if *external >= 0 {
		cfg.ExternalCount = *external
	}
	if *internal >= 0 {
		cfg.InternalCount = *internal
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	keys, err := newKeyService(cfg)
	if err != nil {
		return err
	}

	start := time.Now()
	bundle, err := keys.Bundle(context.Background(), cfg.AccountIndex, cfg.ExternalCount, cfg.InternalCount)
	if err != nil {
		return err
	}
	slog.Info("bundle generated",
		"count", len(bundle.Addresses),
		"duration", time.Since(start).Round(time.Millisecond),
	)

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer database.Close()

	stored, err := database.SaveBundle(bundle)
	if err != nil {
		return fmt.Errorf("store bundle: %w", err)
	}

	fmt.Printf("bundle %s\n", stored.ID)
	fmt.Printf("stake address %s\n", bundle.StakeAddress)

	if len(bundle.Addresses) == 0 {
		return nil
	}
	jsonPath, csvPath, err := wallet.ExportBundle(bundle, cfg.ExportDir)
	if err != nil {
		return err
	}
	fmt.Printf("exported %s\n", jsonPath)
	fmt.Printf("exported %s\n", csvPath)
	return nil
}

func runExport(args []string) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	bundleID := fs.String("bundle", "", "Export this stored bundle as JSON and CSV")
	path := fs.String("path", "", "Derive the key at this path, e.g. m/1852'/1815'/0'/0/0")
	output := fs.String("output", "", "Output directory (default: HDADA_EXPORT_DIR)")
	fs.Parse(args)

	if (*bundleID == "") == (*path == "") {
		return errors.New("exactly one of -bundle or -path is required")
	}

	cfg, err := loadCLIConfig()
	if err != nil {
		return err
	}
	if *output != "" {
		cfg.ExportDir = *output
	}

	if *bundleID != "" {
		return exportBundle(cfg, *bundleID)
	}
	return exportKey(cfg, *path)
}

func exportBundle(cfg *config.Config, id string) error {
	database, err := db.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer database.Close()

	jsonPath, csvPath, err := wallet.ExportStoredBundle(database, id, cfg.ExportDir)
	if err != nil {
		return err
	}
	fmt.Printf("exported %s\n", jsonPath)
	fmt.Printf("exported %s\n", csvPath)
	return nil
}

// exportKey prints the bech32 extended keys at path. Address-level keys are
// also written as cardano-cli .skey/.vkey files.
func exportKey(cfg *config.Config, raw string) error {
	path, err := hdkey.ParsePath(raw)
	if err != nil {
		return err
	}
	signingHRP, verifyHRP := hdkey.SigningHRP(path), hdkey.VerifyHRP(path)
	if signingHRP == "" {
		return fmt.Errorf("path %s is not a root, account or address key", path)
	}

	keys, err := newKeyService(cfg)
	if err != nil {
		return err
	}
	key, err := keys.DeriveKey(context.Background(), path)
	if err != nil {
		return err
	}
	defer key.Zero()

	xsk, err := key.Bech32(signingHRP)
	if err != nil {
		return err
	}
	fmt.Println(xsk)
	if verifyHRP != "" {
		xvk, err := key.Public().Bech32(verifyHRP)
		if err != nil {
			return err
		}
		fmt.Println(xvk)
	}

	if len(path) != hdkey.MaxDepth {
		return nil
	}

	role := hdkey.RoleForChain(path[3].Index)
	base := filepath.Join(cfg.ExportDir, keyFileBase(path))
	if err := os.MkdirAll(cfg.ExportDir, config.KeystoreDirMode); err != nil {
		return fmt.Errorf("create export directory %q: %w", cfg.ExportDir, err)
	}
	if err := writeEnvelope(base+".skey", hdkey.SigningKeyEnvelope(key, role), config.KeystoreFileMode); err != nil {
		return err
	}
	if err := writeEnvelope(base+".vkey", hdkey.VerificationKeyEnvelope(key.Public(), role), 0o644); err != nil {
		return err
	}

	slog.Info("key files written", "path", path.String(), "base", base)
	fmt.Fprintf(os.Stderr, "wrote %s.skey and %s.vkey\n", base, base)
	return nil
}

// keyFileBase turns m/1852'/1815'/0'/0/3 into "key_0_0_3".
func keyFileBase(path hdkey.DerivationPath) string {
	parts := []string{"key"}
	for _, seg := range path[2:] {
		parts = append(parts, fmt.Sprint(seg.Index))
	}
	return strings.Join(parts, "_")
}

func writeEnvelope(path string, env hdkey.TextEnvelope, mode os.FileMode) error {
	data, err := json.MarshalIndent(env, "", "    ")
	if err != nil {
		return err
	}
	defer clear(data)
	if err := os.WriteFile(path, append(data, '\n'), mode); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
