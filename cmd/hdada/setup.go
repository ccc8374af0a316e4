package main

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/Fantasim/hdada/internal/address"
	"github.com/Fantasim/hdada/internal/config"
	"github.com/Fantasim/hdada/internal/keystore"
	"github.com/Fantasim/hdada/internal/logging"
	"github.com/Fantasim/hdada/internal/wallet"
)

// loadCLIConfig loads configuration and routes logs to stderr so stdout
// carries only command output.
func loadCLIConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := logging.SetupCLI(cfg.LogLevel); err != nil {
		return nil, err
	}
	return cfg, nil
}

func networkOf(cfg *config.Config) (address.Network, error) {
	return address.ParseNetwork(cfg.Network)
}

// mnemonicSource picks the configured source: a mnemonic file wins over a
// keystore entry. A keystore password missing from the environment is
// prompted for.
func mnemonicSource(cfg *config.Config) (wallet.MnemonicSource, error) {
	if err := cfg.RequireMnemonicSource(); err != nil {
		return nil, err
	}
	if !cfg.UsesKeystore() {
		return wallet.FileSource{Path: cfg.MnemonicFile}, nil
	}

	ks, err := keystore.New(cfg.KeystoreDir)
	if err != nil {
		return nil, err
	}

	password := []byte(cfg.KeystorePassword)
	if len(password) == 0 {
		password, err = promptSecret(fmt.Sprintf("Password for wallet %q: ", cfg.KeystoreName))
		if err != nil {
			return nil, err
		}
	}
	return keystore.Source{Keystore: ks, Name: cfg.KeystoreName, Password: password}, nil
}

// newKeyService builds a key service over the configured mnemonic source.
func newKeyService(cfg *config.Config) (*wallet.KeyService, error) {
	network, err := networkOf(cfg)
	if err != nil {
		return nil, err
	}
	source, err := mnemonicSource(cfg)
	if err != nil {
		return nil, err
	}
	return wallet.NewKeyService(source, cfg.Passphrase, network), nil
}

// promptSecret reads a line from the terminal without echo, or a plain line
// when stdin is not a terminal.
func promptSecret(prompt string) ([]byte, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		line, err := readLine(os.Stdin)
		return []byte(line), err
	}

	fmt.Fprint(os.Stderr, prompt)
	secret, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return nil, fmt.Errorf("read secret: %w", err)
	}
	return secret, nil
}

// promptNewSecret asks twice and requires both entries to match.
func promptNewSecret(prompt string) ([]byte, error) {
	first, err := promptSecret(prompt)
	if err != nil {
		return nil, err
	}
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return first, nil
	}
	second, err := promptSecret("Repeat: ")
	if err != nil {
		clear(first)
		return nil, err
	}
	return confirmSecret(first, second)
}

// confirmSecret returns first when both entries match. second is always
// wiped, and first too on mismatch.
func confirmSecret(first, second []byte) ([]byte, error) {
	defer clear(second)
	if !bytes.Equal(first, second) {
		clear(first)
		return nil, errors.New("entries do not match")
	}
	return first, nil
}

// readPhrase reads a mnemonic from path, or from stdin when path is empty or
// "-". Terminal input is not echoed.
func readPhrase(path string) (string, error) {
	if path != "" && path != "-" {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("read %s: %w", path, err)
		}
		defer clear(data)
		return strings.TrimSpace(string(data)), nil
	}

	secret, err := promptSecret("Mnemonic: ")
	if err != nil {
		return "", err
	}
	defer clear(secret)
	return strings.TrimSpace(string(secret)), nil
}

func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
