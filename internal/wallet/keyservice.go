package wallet

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Fantasim/hdada/internal/address"
	"github.com/Fantasim/hdada/internal/config"
	"github.com/Fantasim/hdada/internal/hdkey"
	"github.com/Fantasim/hdada/internal/models"
	"github.com/Fantasim/hdada/internal/signer"
)

// KeyService derives keys on demand from the configured mnemonic source.
// The mnemonic is read fresh each time to minimize time secrets spend in memory.
type KeyService struct {
	source     MnemonicSource
	passphrase string
	network    address.Network
}

// NewKeyService creates a key derivation service. A nil source makes every
// call fail with config.ErrMnemonicSourceNotSet.
func NewKeyService(source MnemonicSource, passphrase string, network address.Network) *KeyService {
	slog.Info("key service created",
		"network", network,
		"mnemonicSourceConfigured", source != nil,
		"passphraseSet", passphrase != "",
	)
	return &KeyService{
		source:     source,
		passphrase: passphrase,
		network:    network,
	}
}

func (ks *KeyService) Network() address.Network {
	return ks.network
}

// DeriveKey derives the private key at path, which must follow the CIP-1852
// layout. The caller MUST Zero the returned key after use.
func (ks *KeyService) DeriveKey(ctx context.Context, path hdkey.DerivationPath) (*hdkey.ExtendedKey, error) {
	if err := path.Validate(); err != nil {
		return nil, err
	}

	root, err := ks.rootKey(ctx)
	if err != nil {
		return nil, err
	}
	defer root.Zero()

	key, err := hdkey.DerivePath(root, path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", config.ErrKeyDerivation, path, err)
	}

	slog.Debug("key derived", "path", path.String())
	return key, nil
}

// Sign signs message with the key at m/1852'/1815'/account'/chain/index and
// returns the signature with the address it belongs to. Chain 2 signs with
// the stake key and reports the stake address.
func (ks *KeyService) Sign(ctx context.Context, account, chain, index uint32, message []byte) (*models.SignResult, error) {
	path := hdkey.AddressPath(account, chain, index)
	if err := path.Validate(); err != nil {
		return nil, err
	}

	root, err := ks.rootKey(ctx)
	if err != nil {
		return nil, err
	}
	defer root.Zero()

	key, err := hdkey.DerivePath(root, path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", config.ErrKeyDerivation, path, err)
	}
	defer key.Zero()

	addr, err := ks.addressFor(root, account, chain, key.PublicKey())
	if err != nil {
		return nil, err
	}

	sig := signer.Sign(key, message)
	pub := key.PublicKey()

	slog.Info("message signed",
		"path", path.String(),
		"address", addr.String(),
		"messageLen", len(message),
	)
	return &models.SignResult{
		Path:      path.String(),
		Address:   addr.String(),
		PublicKey: pub.String(),
		Signature: sig.Hex(),
	}, nil
}

// Bundle generates the wallet bundle of account from the configured source.
func (ks *KeyService) Bundle(ctx context.Context, account uint32, externalCount, internalCount int) (*models.WalletBundle, error) {
	if err := checkCount(models.ChainExternal, externalCount); err != nil {
		return nil, err
	}
	if err := checkCount(models.ChainInternal, internalCount); err != nil {
		return nil, err
	}

	root, err := ks.rootKey(ctx)
	if err != nil {
		return nil, err
	}
	defer root.Zero()

	slog.Info("generating bundle",
		"account", account,
		"external", externalCount,
		"internal", internalCount,
		"network", ks.network,
	)
	return bundleFromRoot(root, account, externalCount, internalCount, ks.network, options{})
}

// addressFor returns the address of pub at chain: a base address delegated to
// the account's stake key for payment chains, the reward address for chain 2.
func (ks *KeyService) addressFor(root *hdkey.ExtendedKey, account, chain uint32, pub hdkey.PublicKey) (address.Address, error) {
	if chain == hdkey.ChainStake {
		return address.StakeAddress(pub, ks.network)
	}

	stakeKey, err := hdkey.DerivePath(root, hdkey.AddressPath(account, hdkey.ChainStake, 0))
	if err != nil {
		return address.Address{}, fmt.Errorf("%w: stake key: %w", config.ErrKeyDerivation, err)
	}
	stakePub := stakeKey.PublicKey()
	stakeKey.Zero()

	return address.PaymentAddress(pub, &stakePub, ks.network)
}

// rootKey reads the mnemonic and derives the root key. The mnemonic entropy is
// wiped before returning; the caller zeroes the root key.
func (ks *KeyService) rootKey(ctx context.Context) (*hdkey.ExtendedKey, error) {
	if ks.source == nil {
		return nil, config.ErrMnemonicSourceNotSet
	}

	// Check context before potentially slow I/O.
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context cancelled before key derivation: %w", err)
	}

	m, err := ks.source.Mnemonic(ctx)
	if err != nil {
		return nil, fmt.Errorf("read mnemonic: %w", err)
	}
	defer m.Zero()

	return hdkey.RootKeyFromMnemonic(m, ks.passphrase), nil
}
