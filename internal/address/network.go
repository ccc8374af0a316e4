package address

import (
	"fmt"
	"strings"
)

// Network is the Shelley network id carried in the low nibble of the address
// header.
type Network byte

const (
	Testnet Network = 0
	Mainnet Network = 1
)

func (n Network) String() string {
	switch n {
	case Mainnet:
		return "mainnet"
	case Testnet:
		return "testnet"
	default:
		return fmt.Sprintf("network(%d)", byte(n))
	}
}

// Valid reports whether n is mainnet or testnet.
func (n Network) Valid() bool {
	return n == Mainnet || n == Testnet
}

// ParseNetwork accepts "mainnet" and "testnet". The public test networks
// (preprod, preview) share the testnet id.
func ParseNetwork(s string) (Network, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "mainnet":
		return Mainnet, nil
	case "testnet", "preprod", "preview":
		return Testnet, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownNetwork, s)
	}
}

// MarshalText encodes the network as its name.
func (n Network) MarshalText() ([]byte, error) {
	if !n.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownNetwork, byte(n))
	}
	return []byte(n.String()), nil
}

func (n *Network) UnmarshalText(text []byte) error {
	parsed, err := ParseNetwork(string(text))
	if err != nil {
		return err
	}
	*n = parsed
	return nil
}

func (n Network) paymentHRP() string {
	if n == Mainnet {
		return "addr"
	}
	return "addr_test"
}

func (n Network) stakeHRP() string {
	if n == Mainnet {
		return "stake"
	}
	return "stake_test"
}
