// Package keystore stores wallet mnemonics encrypted on disk.
package keystore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"time"

	"github.com/Fantasim/hdada/internal/config"
	"github.com/Fantasim/hdada/internal/mnemonic"
)

const (
	fileVersion = 1
	fileExt     = ".wallet"
)

var validName = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.-]{0,63}$`)

// walletFile is the on-disk JSON format. Only the mnemonic entropy is
// encrypted; StakeAddress is a public label for listing without a password.
type walletFile struct {
	Version          int       `json:"version"`
	CreatedAt        time.Time `json:"created_at"`
	WordCount        int       `json:"word_count"`
	StakeAddress     string    `json:"stake_address,omitempty"`
	EncryptedEntropy []byte    `json:"encrypted_entropy"`
}

// Entry describes a stored wallet without decrypting it.
type Entry struct {
	Name         string    `json:"name"`
	CreatedAt    time.Time `json:"createdAt"`
	WordCount    int       `json:"wordCount"`
	StakeAddress string    `json:"stakeAddress,omitempty"`
}

// Keystore manages encrypted wallet files in one directory.
type Keystore struct {
	dir    string
	params Params
}

// New opens (and creates if needed) a keystore directory.
func New(dir string) (*Keystore, error) {
	return NewWithParams(dir, DefaultParams())
}

// NewWithParams is New with explicit Argon2id costs for new wallets.
func NewWithParams(dir string, params Params) (*Keystore, error) {
	if err := os.MkdirAll(dir, config.KeystoreDirMode); err != nil {
		return nil, fmt.Errorf("create keystore dir: %w", err)
	}
	return &Keystore{dir: dir, params: params}, nil
}

func (ks *Keystore) walletPath(name string) (string, error) {
	if !validName.MatchString(name) {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return filepath.Join(ks.dir, name+fileExt), nil
}

// Create encrypts m under password and stores it as name. stakeAddress is an
// optional public label.
func (ks *Keystore) Create(name string, m mnemonic.Mnemonic, password []byte, stakeAddress string) error {
	path, err := ks.walletPath(name)
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%w: %q", ErrWalletExists, name)
	}

	entropy := m.Entropy()
	defer clear(entropy)

	sealed, err := Seal(entropy, password, ks.params)
	if err != nil {
		return fmt.Errorf("encrypt mnemonic: %w", err)
	}

	wf := walletFile{
		Version:          fileVersion,
		CreatedAt:        time.Now().UTC(),
		WordCount:        m.WordCount(),
		StakeAddress:     stakeAddress,
		EncryptedEntropy: sealed,
	}
	if err := writeFile(path, &wf); err != nil {
		return err
	}

	slog.Info("wallet stored in keystore",
		"name", name,
		"wordCount", wf.WordCount,
		"stakeAddress", stakeAddress,
	)
	return nil
}

// Load decrypts wallet name and rebuilds its mnemonic.
func (ks *Keystore) Load(name string, password []byte) (mnemonic.Mnemonic, error) {
	path, err := ks.walletPath(name)
	if err != nil {
		return mnemonic.Mnemonic{}, err
	}
	wf, err := readFile(path)
	if err != nil {
		return mnemonic.Mnemonic{}, err
	}

	entropy, err := Open(wf.EncryptedEntropy, password)
	if err != nil {
		slog.Warn("keystore decrypt failed", "name", name)
		return mnemonic.Mnemonic{}, fmt.Errorf("open wallet %q: %w", name, err)
	}
	defer clear(entropy)

	m, err := mnemonic.FromEntropy(entropy)
	if err != nil {
		return mnemonic.Mnemonic{}, fmt.Errorf("rebuild mnemonic for %q: %w", name, err)
	}

	slog.Debug("wallet loaded from keystore", "name", name)
	return m, nil
}

// List returns the stored wallets sorted by name.
func (ks *Keystore) List() ([]Entry, error) {
	dirEntries, err := os.ReadDir(ks.dir)
	if err != nil {
		return nil, fmt.Errorf("read keystore dir: %w", err)
	}

	entries := []Entry{}
	for _, e := range dirEntries {
		if e.IsDir() || filepath.Ext(e.Name()) != fileExt {
			continue
		}
		name := e.Name()[:len(e.Name())-len(fileExt)]

		wf, err := readFile(filepath.Join(ks.dir, e.Name()))
		if err != nil {
			slog.Warn("skipping unreadable keystore file", "file", e.Name(), "error", err)
			continue
		}
		entries = append(entries, Entry{
			Name:         name,
			CreatedAt:    wf.CreatedAt,
			WordCount:    wf.WordCount,
			StakeAddress: wf.StakeAddress,
		})
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

// Delete removes wallet name.
func (ks *Keystore) Delete(name string) error {
	path, err := ks.walletPath(name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %q", ErrWalletNotFound, name)
		}
		return fmt.Errorf("delete wallet: %w", err)
	}

	slog.Info("wallet deleted from keystore", "name", name)
	return nil
}

// Source reads a wallet mnemonic from the keystore on every call.
type Source struct {
	Keystore *Keystore
	Name     string
	Password []byte
}

func (s Source) Mnemonic(ctx context.Context) (mnemonic.Mnemonic, error) {
	if err := ctx.Err(); err != nil {
		return mnemonic.Mnemonic{}, err
	}
	return s.Keystore.Load(s.Name, s.Password)
}

func writeFile(path string, wf *walletFile) error {
	data, err := json.MarshalIndent(wf, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal wallet: %w", err)
	}
	if err := os.WriteFile(path, data, config.KeystoreFileMode); err != nil {
		return fmt.Errorf("write wallet: %w", err)
	}
	return nil
}

func readFile(path string) (*walletFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrWalletNotFound, filepath.Base(path))
		}
		return nil, fmt.Errorf("read wallet: %w", err)
	}

	var wf walletFile
	if err := json.Unmarshal(data, &wf); err != nil {
		return nil, fmt.Errorf("parse wallet: %w", err)
	}
	if wf.Version != fileVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, wf.Version)
	}
	return &wf, nil
}
