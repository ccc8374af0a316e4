package hdkey

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/binary"
	"fmt"
	"hash"

	"filippo.io/edwards25519"
	"golang.org/x/crypto/pbkdf2"

	"github.com/Fantasim/hdada/internal/mnemonic"
)

// Icarus master key parameters.
const (
	pbkdf2Iterations = 4096
	rootKeyLen       = ExtendedKeySize
)

// Domain tags prefixed to the HMAC input of a child derivation.
const (
	tagHardenedKey   = 0x00
	tagHardenedChain = 0x01
	tagSoftKey       = 0x02
	tagSoftChain     = 0x03
)

// RootKeyFromMnemonic derives the Icarus root key from the mnemonic entropy
// and an optional passphrase (empty for none).
func RootKeyFromMnemonic(m mnemonic.Mnemonic, passphrase string) *ExtendedKey {
	entropy := m.Entropy()
	defer wipe(entropy)
	return RootKeyFromEntropy(entropy, passphrase)
}

// RootKeyFromEntropy runs PBKDF2-HMAC-SHA512(passphrase, entropy, 4096) to
// 96 bytes and clamps the scalar half.
func RootKeyFromEntropy(entropy []byte, passphrase string) *ExtendedKey {
	data := pbkdf2.Key([]byte(passphrase), entropy, pbkdf2Iterations, rootKeyLen, sha512.New)
	defer wipe(data)

	data[0] &= 0xf8
	data[31] &= 0x1f
	data[31] |= 0x40

	root := &ExtendedKey{}
	copy(root.key[:], data[:64])
	copy(root.chainCode[:], data[64:])
	return root
}

// DeriveChild derives one BIP32-Ed25519 (V2) child of parent.
func DeriveChild(parent *ExtendedKey, seg PathSegment) (*ExtendedKey, error) {
	if !seg.Valid() {
		return nil, fmt.Errorf("%w: index %d exceeds 31 bits", ErrInvalidPath, seg.Index)
	}

	var idx [4]byte
	binary.LittleEndian.PutUint32(idx[:], seg.ChildIndex())

	zMac := hmac.New(sha512.New, parent.chainCode[:])
	cMac := hmac.New(sha512.New, parent.chainCode[:])
	if seg.Hardened {
		writeAll(zMac, []byte{tagHardenedKey}, parent.key[:], idx[:])
		writeAll(cMac, []byte{tagHardenedChain}, parent.key[:], idx[:])
	} else {
		pub := parent.PublicKey()
		writeAll(zMac, []byte{tagSoftKey}, pub[:], idx[:])
		writeAll(cMac, []byte{tagSoftChain}, pub[:], idx[:])
	}

	z := zMac.Sum(nil)
	c := cMac.Sum(nil)
	defer wipe(z)
	defer wipe(c)

	child := &ExtendedKey{}
	addMul8(child.key[:32], parent.key[:32], z[:28])
	add256(child.key[32:], parent.key[32:], z[32:])
	copy(child.chainCode[:], c[32:])
	return child, nil
}

// DeriveChild derives a non-hardened child public key: A' = A + (8·zL)·B.
func (k *ExtendedPublicKey) DeriveChild(seg PathSegment) (*ExtendedPublicKey, error) {
	if seg.Hardened {
		return nil, fmt.Errorf("%w: segment %s", ErrHardenedFromPublic, seg)
	}
	if !seg.Valid() {
		return nil, fmt.Errorf("%w: index %d exceeds 31 bits", ErrInvalidPath, seg.Index)
	}

	var idx [4]byte
	binary.LittleEndian.PutUint32(idx[:], seg.ChildIndex())

	zMac := hmac.New(sha512.New, k.chainCode[:])
	cMac := hmac.New(sha512.New, k.chainCode[:])
	writeAll(zMac, []byte{tagSoftKey}, k.key[:], idx[:])
	writeAll(cMac, []byte{tagSoftChain}, k.key[:], idx[:])
	z := zMac.Sum(nil)
	c := cMac.Sum(nil)

	var zl8 [32]byte
	addMul8(zl8[:], make([]byte, 32), z[:28])

	parentPoint, err := new(edwards25519.Point).SetBytes(k.key[:])
	if err != nil {
		return nil, fmt.Errorf("%w: parent public key is not a curve point", ErrInvalidKey)
	}
	tweak := new(edwards25519.Point).ScalarBaseMult(scalarFromKL(zl8[:]))

	child := &ExtendedPublicKey{}
	copy(child.key[:], new(edwards25519.Point).Add(parentPoint, tweak).Bytes())
	copy(child.chainCode[:], c[32:])
	return child, nil
}

// DerivePath validates path against the CIP-1852 layout and derives it from
// root. Intermediate keys are wiped; root is left untouched.
func DerivePath(root *ExtendedKey, path DerivationPath) (*ExtendedKey, error) {
	if err := path.Validate(); err != nil {
		return nil, err
	}
	return deriveSegments(root, path)
}

func deriveSegments(parent *ExtendedKey, path DerivationPath) (*ExtendedKey, error) {
	current := &ExtendedKey{key: parent.key, chainCode: parent.chainCode}
	for _, seg := range path {
		next, err := DeriveChild(current, seg)
		current.Zero()
		if err != nil {
			return nil, err
		}
		current = next
	}
	return current, nil
}

func writeAll(h hash.Hash, parts ...[]byte) {
	for _, p := range parts {
		h.Write(p)
	}
}

// addMul8 sets out = x + 8·y, with x 32 bytes and y 28 bytes, both little
// endian, modulo 2^256.
func addMul8(out, x, y []byte) {
	var carry uint16
	for i := 0; i < 28; i++ {
		r := uint16(x[i]) + uint16(y[i])<<3 + carry
		out[i] = byte(r)
		carry = r >> 8
	}
	for i := 28; i < 32; i++ {
		r := uint16(x[i]) + carry
		out[i] = byte(r)
		carry = r >> 8
	}
}

// add256 sets out = x + y modulo 2^256, little endian.
func add256(out, x, y []byte) {
	var carry uint16
	for i := 0; i < 32; i++ {
		r := uint16(x[i]) + uint16(y[i]) + carry
		out[i] = byte(r)
		carry = r >> 8
	}
}
