package address

import (
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/btcutil/bech32"
	"golang.org/x/crypto/blake2b"

	"github.com/Fantasim/hdada/internal/hdkey"
)

// CredentialSize is the length of a blake2b-224 key hash.
const CredentialSize = 28

// Kind is the Shelley address type. Only key-hash credentials are produced.
type Kind byte

// Header type nibbles.
const (
	KindBase       Kind = 0x0
	KindEnterprise Kind = 0x6
	KindReward     Kind = 0xe
)

func (k Kind) String() string {
	switch k {
	case KindBase:
		return "base"
	case KindEnterprise:
		return "enterprise"
	case KindReward:
		return "reward"
	default:
		return fmt.Sprintf("kind(%d)", byte(k))
	}
}

// Credential is the blake2b-224 hash of a public key.
type Credential [CredentialSize]byte

// KeyHash returns the credential of pub.
func KeyHash(pub hdkey.PublicKey) Credential {
	h, err := blake2b.New(CredentialSize, nil)
	if err != nil {
		// Only fails for sizes outside 1..64 or oversized keys.
		panic("address: " + err.Error())
	}
	h.Write(pub[:])

	var c Credential
	copy(c[:], h.Sum(nil))
	return c
}

func (c Credential) String() string {
	return hex.EncodeToString(c[:])
}

// Address is a Shelley base, enterprise or reward address.
type Address struct {
	kind    Kind
	network Network
	payment Credential
	stake   Credential
}

// PaymentAddress builds a base address when stakePub is set and an
// enterprise address otherwise.
func PaymentAddress(paymentPub hdkey.PublicKey, stakePub *hdkey.PublicKey, network Network) (Address, error) {
	if !network.Valid() {
		return Address{}, fmt.Errorf("%w: %d", ErrUnknownNetwork, byte(network))
	}

	addr := Address{kind: KindEnterprise, network: network, payment: KeyHash(paymentPub)}
	if stakePub != nil {
		addr.kind = KindBase
		addr.stake = KeyHash(*stakePub)
	}
	return addr, nil
}

// StakeAddress builds the reward address of stakePub.
func StakeAddress(stakePub hdkey.PublicKey, network Network) (Address, error) {
	if !network.Valid() {
		return Address{}, fmt.Errorf("%w: %d", ErrUnknownNetwork, byte(network))
	}
	return Address{kind: KindReward, network: network, stake: KeyHash(stakePub)}, nil
}

// Delegate combines the payment credential of payment with the stake
// credential of stake into a base address.
func Delegate(payment, stake Address) (Address, error) {
	if payment.kind != KindBase && payment.kind != KindEnterprise {
		return Address{}, fmt.Errorf("%w: %s address has no payment credential", ErrInvalidAddress, payment.kind)
	}
	if stake.kind != KindReward {
		return Address{}, fmt.Errorf("%w: %s address is not a stake address", ErrInvalidAddress, stake.kind)
	}
	if payment.network != stake.network {
		return Address{}, fmt.Errorf("%w: payment on %s, stake on %s", ErrNetworkMismatch, payment.network, stake.network)
	}

	return Address{kind: KindBase, network: payment.network, payment: payment.payment, stake: stake.stake}, nil
}

func (a Address) Kind() Kind {
	return a.kind
}

func (a Address) Network() Network {
	return a.network
}

// PaymentCredential returns the payment key hash. ok is false for reward
// addresses.
func (a Address) PaymentCredential() (Credential, bool) {
	if a.kind == KindReward {
		return Credential{}, false
	}
	return a.payment, true
}

// StakeCredential returns the stake key hash. ok is false for enterprise
// addresses.
func (a Address) StakeCredential() (Credential, bool) {
	if a.kind == KindEnterprise {
		return Credential{}, false
	}
	return a.stake, true
}

// StakeAddress returns the reward address sharing a's stake credential.
func (a Address) StakeAddress() (Address, error) {
	switch a.kind {
	case KindBase, KindReward:
		return Address{kind: KindReward, network: a.network, stake: a.stake}, nil
	default:
		return Address{}, fmt.Errorf("%w: %s address", ErrNoStakeCredential, a.kind)
	}
}

// Bytes returns the raw header || credentials form.
func (a Address) Bytes() []byte {
	out := make([]byte, 0, 1+2*CredentialSize)
	out = append(out, byte(a.kind)<<4|byte(a.network))
	switch a.kind {
	case KindBase:
		out = append(out, a.payment[:]...)
		out = append(out, a.stake[:]...)
	case KindEnterprise:
		out = append(out, a.payment[:]...)
	case KindReward:
		out = append(out, a.stake[:]...)
	}
	return out
}

func (a Address) hrp() string {
	if a.kind == KindReward {
		return a.network.stakeHRP()
	}
	return a.network.paymentHRP()
}

// String returns the bech32 form, or "" for the zero Address.
func (a Address) String() string {
	if a.IsZero() {
		return ""
	}

	conv, err := bech32.ConvertBits(a.Bytes(), 8, 5, true)
	if err != nil {
		return ""
	}
	s, err := bech32.Encode(a.hrp(), conv)
	if err != nil {
		return ""
	}
	return s
}

// IsZero reports whether a was never built.
func (a Address) IsZero() bool {
	return a == Address{}
}

// MarshalText encodes the address as bech32.
func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Address) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
