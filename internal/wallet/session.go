package wallet

import (
	"fmt"

	"github.com/Fantasim/hdada/internal/address"
	"github.com/Fantasim/hdada/internal/config"
	"github.com/Fantasim/hdada/internal/hdkey"
	"github.com/Fantasim/hdada/internal/mnemonic"
	"github.com/Fantasim/hdada/internal/models"
)

// MaxAddressCount caps the addresses derived per chain in one bundle.
const MaxAddressCount = config.MaxAddressesPerChain

type options struct {
	passphrase string
	workers    int
	progress   ProgressCallback
}

// Option configures GenerateBundle.
type Option func(*options)

// WithPassphrase sets the optional passphrase mixed into the root key.
func WithPassphrase(passphrase string) Option {
	return func(o *options) { o.passphrase = passphrase }
}

// WithWorkers overrides the number of derivation workers (default NumCPU).
func WithWorkers(n int) Option {
	return func(o *options) { o.workers = n }
}

// WithProgress registers a callback invoked as each chain is derived.
func WithProgress(cb ProgressCallback) Option {
	return func(o *options) { o.progress = cb }
}

// GenerateBundle derives the payment addresses and stake address of one
// account. External addresses come first, then internal ones, each in index
// order; every payment address is a base address delegated to the account's
// stake key (chain 2, index 0). Identical inputs give identical bundles.
// Nothing is returned on failure.
func GenerateBundle(
	phrase string,
	accountIndex uint32,
	externalCount, internalCount int,
	network address.Network,
	opts ...Option,
) (*models.WalletBundle, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	if err := checkCount(models.ChainExternal, externalCount); err != nil {
		return nil, err
	}
	if err := checkCount(models.ChainInternal, internalCount); err != nil {
		return nil, err
	}
	if !network.Valid() {
		return nil, fmt.Errorf("%w: %d", address.ErrUnknownNetwork, byte(network))
	}

	m, err := mnemonic.Validate(phrase)
	if err != nil {
		return nil, fmt.Errorf("validate mnemonic: %w", err)
	}

	root := hdkey.RootKeyFromMnemonic(m, o.passphrase)
	m.Zero()
	defer root.Zero()

	return bundleFromRoot(root, accountIndex, externalCount, internalCount, network, o)
}

func bundleFromRoot(
	root *hdkey.ExtendedKey,
	accountIndex uint32,
	externalCount, internalCount int,
	network address.Network,
	o options,
) (*models.WalletBundle, error) {
	account, err := hdkey.DerivePath(root, hdkey.AccountPath(accountIndex))
	if err != nil {
		return nil, fmt.Errorf("derive account %d: %w", accountIndex, err)
	}
	defer account.Zero()

	chainKeys := make(map[models.Chain]*hdkey.ExtendedPublicKey, 3)
	for _, chain := range []models.Chain{models.ChainExternal, models.ChainInternal, models.ChainStake} {
		idx, _ := chain.Index()
		key, err := hdkey.DeriveChild(account, hdkey.Soft(idx))
		if err != nil {
			return nil, fmt.Errorf("derive %s chain key: %w", chain, err)
		}
		chainKeys[chain] = key.Public()
		key.Zero()
	}

	stakeKey, err := chainKeys[models.ChainStake].DeriveChild(hdkey.Soft(0))
	if err != nil {
		return nil, fmt.Errorf("%w: stake key: %w", config.ErrKeyDerivation, err)
	}
	stakePub := stakeKey.PublicKey()
	stakeAddr, err := address.StakeAddress(stakePub, network)
	if err != nil {
		return nil, fmt.Errorf("stake address: %w", err)
	}

	counts := map[models.Chain]int{
		models.ChainExternal: externalCount,
		models.ChainInternal: internalCount,
	}

	bundle := &models.WalletBundle{
		Network:      models.NetworkMode(network.String()),
		AccountIndex: accountIndex,
		StakeAddress: stakeAddr.String(),
		Addresses:    make([]models.BundleAddress, 0, externalCount+internalCount),
	}
	for _, chain := range models.PaymentChains {
		entries, err := generateChain(chainKeys[chain], chain, counts[chain], stakePub, network, o.workers, o.progress)
		if err != nil {
			return nil, err
		}
		bundle.Addresses = append(bundle.Addresses, entries...)
	}

	return bundle, nil
}

func checkCount(chain models.Chain, n int) error {
	if n < 0 || n > MaxAddressCount {
		return fmt.Errorf("%w: %s count %d", ErrInvalidCount, chain, n)
	}
	return nil
}
