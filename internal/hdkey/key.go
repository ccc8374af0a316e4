package hdkey

import (
	"encoding/hex"
	"fmt"

	"filippo.io/edwards25519"
)

const (
	// ExtendedKeySize is kL || kR || chain code, the cardano-address xprv layout.
	ExtendedKeySize = 96
	// ExtendedPublicKeySize is A || chain code.
	ExtendedPublicKeySize = 64
	PublicKeySize         = 32
	ChainCodeSize         = 32
)

// PublicKey is a compressed Ed25519 point.
type PublicKey [PublicKeySize]byte

// PublicKeyFromBytes copies b into a PublicKey after checking it decodes to a
// curve point.
func PublicKeyFromBytes(b []byte) (PublicKey, error) {
	var pk PublicKey
	if len(b) != PublicKeySize {
		return pk, fmt.Errorf("%w: public key is %d bytes, want %d", ErrInvalidKey, len(b), PublicKeySize)
	}
	if _, err := new(edwards25519.Point).SetBytes(b); err != nil {
		return pk, fmt.Errorf("%w: public key is not a curve point", ErrInvalidKey)
	}
	copy(pk[:], b)
	return pk, nil
}

// ParsePublicKey decodes a hex public key.
func ParsePublicKey(s string) (PublicKey, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return PublicKey{}, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	return PublicKeyFromBytes(b)
}

func (pk PublicKey) Bytes() []byte {
	out := make([]byte, PublicKeySize)
	copy(out, pk[:])
	return out
}

func (pk PublicKey) String() string {
	return hex.EncodeToString(pk[:])
}

// MarshalText encodes the key as lowercase hex.
func (pk PublicKey) MarshalText() ([]byte, error) {
	return []byte(pk.String()), nil
}

// UnmarshalText decodes a hex public key.
func (pk *PublicKey) UnmarshalText(text []byte) error {
	parsed, err := ParsePublicKey(string(text))
	if err != nil {
		return err
	}
	*pk = parsed
	return nil
}

// ExtendedKey is a BIP32-Ed25519 private key: the 64-byte extended scalar
// kL || kR and its chain code. The zero value is not a usable key.
type ExtendedKey struct {
	key       [64]byte
	chainCode [ChainCodeSize]byte
}

// NewExtendedKey parses the 96-byte xprv layout kL || kR || chain code.
// kL must carry the Ed25519 clamping bits of a derived key.
func NewExtendedKey(raw []byte) (*ExtendedKey, error) {
	if len(raw) != ExtendedKeySize {
		return nil, fmt.Errorf("%w: extended key is %d bytes, want %d", ErrInvalidKey, len(raw), ExtendedKeySize)
	}
	if raw[0]&0x07 != 0 || raw[31]&0x40 == 0 {
		return nil, fmt.Errorf("%w: extended key scalar is not clamped", ErrInvalidKey)
	}

	k := &ExtendedKey{}
	copy(k.key[:], raw[:64])
	copy(k.chainCode[:], raw[64:])
	return k, nil
}

// Bytes returns a copy of kL || kR || chain code.
func (k *ExtendedKey) Bytes() []byte {
	out := make([]byte, 0, ExtendedKeySize)
	out = append(out, k.key[:]...)
	return append(out, k.chainCode[:]...)
}

// PrivateKey returns a copy of the 64-byte extended scalar kL || kR.
func (k *ExtendedKey) PrivateKey() []byte {
	out := make([]byte, 64)
	copy(out, k.key[:])
	return out
}

func (k *ExtendedKey) ChainCode() []byte {
	out := make([]byte, ChainCodeSize)
	copy(out, k.chainCode[:])
	return out
}

// PublicKey returns A = kL·B.
func (k *ExtendedKey) PublicKey() PublicKey {
	s := scalarFromKL(k.key[:32])
	var pk PublicKey
	copy(pk[:], new(edwards25519.Point).ScalarBaseMult(s).Bytes())
	return pk
}

// Public returns the extended public key (A, chain code).
func (k *ExtendedKey) Public() *ExtendedPublicKey {
	return &ExtendedPublicKey{key: k.PublicKey(), chainCode: k.chainCode}
}

// Zero wipes the key material in place.
func (k *ExtendedKey) Zero() {
	if k == nil {
		return
	}
	wipe(k.key[:])
	wipe(k.chainCode[:])
}

// ExtendedPublicKey is a public key with its chain code. It supports
// non-hardened child derivation.
type ExtendedPublicKey struct {
	key       PublicKey
	chainCode [ChainCodeSize]byte
}

// NewExtendedPublicKey parses the 64-byte A || chain code layout.
func NewExtendedPublicKey(raw []byte) (*ExtendedPublicKey, error) {
	if len(raw) != ExtendedPublicKeySize {
		return nil, fmt.Errorf("%w: extended public key is %d bytes, want %d", ErrInvalidKey, len(raw), ExtendedPublicKeySize)
	}
	pk, err := PublicKeyFromBytes(raw[:PublicKeySize])
	if err != nil {
		return nil, err
	}

	xpub := &ExtendedPublicKey{key: pk}
	copy(xpub.chainCode[:], raw[PublicKeySize:])
	return xpub, nil
}

func (k *ExtendedPublicKey) PublicKey() PublicKey {
	return k.key
}

func (k *ExtendedPublicKey) ChainCode() []byte {
	out := make([]byte, ChainCodeSize)
	copy(out, k.chainCode[:])
	return out
}

// Bytes returns a copy of A || chain code.
func (k *ExtendedPublicKey) Bytes() []byte {
	out := make([]byte, 0, ExtendedPublicKeySize)
	out = append(out, k.key[:]...)
	return append(out, k.chainCode[:]...)
}

// scalarFromKL reduces the little-endian 32-byte kL modulo the group order.
// kL is not a canonical scalar after derivation, so it goes through the
// wide reduction.
func scalarFromKL(kL []byte) *edwards25519.Scalar {
	var wide [64]byte
	copy(wide[:], kL)
	s, err := edwards25519.NewScalar().SetUniformBytes(wide[:])
	wipe(wide[:])
	if err != nil {
		// SetUniformBytes only fails on a wrong input length.
		panic("hdkey: " + err.Error())
	}
	return s
}

func wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
