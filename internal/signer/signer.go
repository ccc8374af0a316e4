// Package signer signs and verifies raw messages with BIP32-Ed25519 keys.
package signer

import (
	"crypto/ed25519"
	"crypto/sha512"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"filippo.io/edwards25519"

	"github.com/Fantasim/hdada/internal/hdkey"
)

// SignatureSize is the length of an Ed25519 signature (R || S).
const SignatureSize = ed25519.SignatureSize

var ErrInvalidSignature = errors.New("invalid signature encoding")

// Signature is an Ed25519 signature R || S.
type Signature [SignatureSize]byte

// Sign signs message with the extended scalar of key. Extended keys have no
// seed, so the nonce is taken from kR instead of a seed hash:
//
//	r = H(kR || M), R = r·B, S = r + H(R || A || M)·kL  (mod l)
//
// The result verifies under standard Ed25519 with key.PublicKey().
func Sign(key *hdkey.ExtendedKey, message []byte) Signature {
	priv := key.PrivateKey()
	defer wipe(priv)

	kL, err := scalarFromBytes(priv[:32])
	if err != nil {
		panic("signer: " + err.Error())
	}
	pub := key.PublicKey()

	h := sha512.New()
	h.Write(priv[32:])
	h.Write(message)
	nonceDigest := h.Sum(nil)
	defer wipe(nonceDigest)

	r, err := edwards25519.NewScalar().SetUniformBytes(nonceDigest)
	if err != nil {
		panic("signer: " + err.Error())
	}
	R := new(edwards25519.Point).ScalarBaseMult(r).Bytes()

	h.Reset()
	h.Write(R)
	h.Write(pub[:])
	h.Write(message)
	k, err := edwards25519.NewScalar().SetUniformBytes(h.Sum(nil))
	if err != nil {
		panic("signer: " + err.Error())
	}

	S := edwards25519.NewScalar().MultiplyAdd(k, kL, r)

	var sig Signature
	copy(sig[:32], R)
	copy(sig[32:], S.Bytes())
	return sig
}

// Verify reports whether sig is a valid signature of message by pub.
func Verify(pub hdkey.PublicKey, message []byte, sig Signature) bool {
	return ed25519.Verify(ed25519.PublicKey(pub[:]), message, sig[:])
}

// VerifyBytes is Verify over untyped input. Wrong lengths and non-canonical
// encodings return false.
func VerifyBytes(pub, message, sig []byte) bool {
	if len(pub) != hdkey.PublicKeySize || len(sig) != SignatureSize {
		return false
	}
	return ed25519.Verify(ed25519.PublicKey(pub), message, sig)
}

// ParseSignature decodes a signature from hex or base64 (standard or URL
// alphabet, padded or not).
func ParseSignature(s string) (Signature, error) {
	var sig Signature
	s = strings.TrimSpace(s)

	if len(s) == 2*SignatureSize {
		if raw, err := hex.DecodeString(s); err == nil {
			copy(sig[:], raw)
			return sig, nil
		}
	}

	for _, enc := range []*base64.Encoding{
		base64.StdEncoding, base64.RawStdEncoding, base64.URLEncoding, base64.RawURLEncoding,
	} {
		raw, err := enc.DecodeString(s)
		if err == nil && len(raw) == SignatureSize {
			copy(sig[:], raw)
			return sig, nil
		}
	}

	return sig, fmt.Errorf("%w: expected %d bytes as hex or base64", ErrInvalidSignature, SignatureSize)
}

func (s Signature) Hex() string {
	return hex.EncodeToString(s[:])
}

func (s Signature) Base64() string {
	return base64.StdEncoding.EncodeToString(s[:])
}

func (s Signature) String() string {
	return s.Hex()
}

// MarshalText encodes the signature as hex.
func (s Signature) MarshalText() ([]byte, error) {
	return []byte(s.Hex()), nil
}

func (s *Signature) UnmarshalText(text []byte) error {
	parsed, err := ParseSignature(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

func scalarFromBytes(b []byte) (*edwards25519.Scalar, error) {
	var wide [64]byte
	copy(wide[:], b)
	defer wipe(wide[:])
	return edwards25519.NewScalar().SetUniformBytes(wide[:])
}

func wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
