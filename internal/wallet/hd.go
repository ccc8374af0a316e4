package wallet

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/Fantasim/hdada/internal/mnemonic"
)

// ReadMnemonicFromFile reads a mnemonic from a file, trims whitespace, and validates it.
func ReadMnemonicFromFile(path string) (mnemonic.Mnemonic, error) {
	slog.Debug("reading mnemonic from file", "path", path)

	data, err := os.ReadFile(path)
	if err != nil {
		return mnemonic.Mnemonic{}, fmt.Errorf("read mnemonic file %q: %w", path, err)
	}
	defer clear(data)

	phrase := strings.TrimSpace(string(data))
	if phrase == "" {
		return mnemonic.Mnemonic{}, fmt.Errorf("mnemonic file %q is empty: %w", path, mnemonic.ErrInvalidMnemonic)
	}

	m, err := mnemonic.Validate(phrase)
	if err != nil {
		return mnemonic.Mnemonic{}, fmt.Errorf("mnemonic file %q: %w", path, err)
	}

	slog.Debug("mnemonic read and validated from file", "wordCount", m.WordCount())
	return m, nil
}

// MnemonicSource yields the wallet mnemonic on demand.
type MnemonicSource interface {
	Mnemonic(ctx context.Context) (mnemonic.Mnemonic, error)
}

// FileSource reads the mnemonic from a plain-text file on every call.
type FileSource struct {
	Path string
}

func (s FileSource) Mnemonic(ctx context.Context) (mnemonic.Mnemonic, error) {
	if err := ctx.Err(); err != nil {
		return mnemonic.Mnemonic{}, err
	}
	return ReadMnemonicFromFile(s.Path)
}
