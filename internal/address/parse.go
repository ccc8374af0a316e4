package address

import (
	"fmt"

	"github.com/btcsuite/btcd/btcutil/bech32"
)

var hrpNetworks = map[string]struct {
	network Network
	reward  bool
}{
	"addr":       {Mainnet, false},
	"addr_test":  {Testnet, false},
	"stake":      {Mainnet, true},
	"stake_test": {Testnet, true},
}

// Parse decodes a bech32 Shelley address with key-hash credentials.
// The human-readable prefix must agree with the header's network and kind.
func Parse(s string) (Address, error) {
	hrp, data, err := bech32.DecodeNoLimit(s)
	if err != nil {
		return Address{}, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	raw, err := bech32.ConvertBits(data, 5, 8, false)
	if err != nil {
		return Address{}, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}

	prefix, ok := hrpNetworks[hrp]
	if !ok {
		return Address{}, fmt.Errorf("%w: unknown prefix %q", ErrInvalidAddress, hrp)
	}
	addr, err := FromBytes(raw)
	if err != nil {
		return Address{}, err
	}

	if prefix.reward != (addr.kind == KindReward) {
		return Address{}, fmt.Errorf("%w: prefix %q does not match %s address", ErrInvalidAddress, hrp, addr.kind)
	}
	if prefix.network != addr.network {
		return Address{}, fmt.Errorf("%w: prefix %q on %s header", ErrNetworkMismatch, hrp, addr.network)
	}
	return addr, nil
}

// FromBytes decodes the raw header || credentials form.
func FromBytes(raw []byte) (Address, error) {
	if len(raw) == 0 {
		return Address{}, fmt.Errorf("%w: empty", ErrInvalidAddress)
	}

	addr := Address{kind: Kind(raw[0] >> 4), network: Network(raw[0] & 0x0f)}
	if !addr.network.Valid() {
		return Address{}, fmt.Errorf("%w: %w: id %d", ErrInvalidAddress, ErrUnknownNetwork, byte(addr.network))
	}

	body := raw[1:]
	switch addr.kind {
	case KindBase:
		if len(body) != 2*CredentialSize {
			return Address{}, fmt.Errorf("%w: base address body is %d bytes", ErrInvalidAddress, len(body))
		}
		copy(addr.payment[:], body[:CredentialSize])
		copy(addr.stake[:], body[CredentialSize:])
	case KindEnterprise:
		if len(body) != CredentialSize {
			return Address{}, fmt.Errorf("%w: enterprise address body is %d bytes", ErrInvalidAddress, len(body))
		}
		copy(addr.payment[:], body)
	case KindReward:
		if len(body) != CredentialSize {
			return Address{}, fmt.Errorf("%w: reward address body is %d bytes", ErrInvalidAddress, len(body))
		}
		copy(addr.stake[:], body)
	default:
		return Address{}, fmt.Errorf("%w: unsupported address type %d", ErrInvalidAddress, byte(addr.kind))
	}

	return addr, nil
}
