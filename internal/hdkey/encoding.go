package hdkey

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/btcsuite/btcd/btcutil/bech32"
	"github.com/fxamacker/cbor/v2"
)

// Bech32 prefixes used by cardano-address for extended keys.
const (
	HRPRootSigning    = "root_xsk"
	HRPAccountSigning = "acct_xsk"
	HRPAccountVerify  = "acct_xvk"
	HRPAddressSigning = "addr_xsk"
	HRPAddressVerify  = "addr_xvk"
	HRPStakeSigning   = "stake_xsk"
	HRPStakeVerify    = "stake_xvk"
)

// SigningHRP returns the bech32 prefix for a private key at path.
// Paths outside the root, account and address depths return "".
func SigningHRP(path DerivationPath) string {
	switch len(path) {
	case 0:
		return HRPRootSigning
	case 3:
		return HRPAccountSigning
	case MaxDepth:
		if path[3].Index == ChainStake {
			return HRPStakeSigning
		}
		return HRPAddressSigning
	}
	return ""
}

// VerifyHRP returns the bech32 prefix for a public key at path.
func VerifyHRP(path DerivationPath) string {
	switch len(path) {
	case 3:
		return HRPAccountVerify
	case MaxDepth:
		if path[3].Index == ChainStake {
			return HRPStakeVerify
		}
		return HRPAddressVerify
	}
	return ""
}

// Bech32 encodes the 96-byte xprv under hrp.
func (k *ExtendedKey) Bech32(hrp string) (string, error) {
	raw := k.Bytes()
	defer wipe(raw)
	return encodeBech32(hrp, raw)
}

// Bech32 encodes the 64-byte xpub under hrp.
func (k *ExtendedPublicKey) Bech32(hrp string) (string, error) {
	return encodeBech32(hrp, k.Bytes())
}

// ParseExtendedKey decodes a bech32 xprv and returns it with its prefix.
func ParseExtendedKey(s string) (*ExtendedKey, string, error) {
	hrp, raw, err := decodeBech32(s)
	if err != nil {
		return nil, "", err
	}
	defer wipe(raw)

	key, err := NewExtendedKey(raw)
	if err != nil {
		return nil, "", err
	}
	return key, hrp, nil
}

// ParseExtendedPublicKey decodes a bech32 xpub and returns it with its prefix.
func ParseExtendedPublicKey(s string) (*ExtendedPublicKey, string, error) {
	hrp, raw, err := decodeBech32(s)
	if err != nil {
		return nil, "", err
	}

	key, err := NewExtendedPublicKey(raw)
	if err != nil {
		return nil, "", err
	}
	return key, hrp, nil
}

func encodeBech32(hrp string, data []byte) (string, error) {
	conv, err := bech32.ConvertBits(data, 8, 5, true)
	if err != nil {
		return "", fmt.Errorf("convert bits: %w", err)
	}
	out, err := bech32.Encode(hrp, conv)
	if err != nil {
		return "", fmt.Errorf("bech32 encode: %w", err)
	}
	return out, nil
}

func decodeBech32(s string) (string, []byte, error) {
	hrp, data, err := bech32.DecodeNoLimit(s)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	raw, err := bech32.ConvertBits(data, 5, 8, false)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	return hrp, raw, nil
}

// KeyRole selects the cardano-cli key type names of a text envelope.
type KeyRole int

const (
	RolePayment KeyRole = iota
	RoleStake
)

// RoleForChain maps a CIP-1852 chain to the key role it serves.
func RoleForChain(chain uint32) KeyRole {
	if chain == ChainStake {
		return RoleStake
	}
	return RolePayment
}

// TextEnvelope is the cardano-cli key file format (.skey / .vkey).
type TextEnvelope struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	CborHex     string `json:"cborHex"`
}

var envelopeNames = map[KeyRole]struct {
	prefix, description string
}{
	RolePayment: {"Payment", "Payment"},
	RoleStake:   {"Stake", "Stake"},
}

// SigningKeyEnvelope wraps k as an extended signing key file. The payload is
// kL || kR || A || chain code, as cardano-cli expects.
func SigningKeyEnvelope(k *ExtendedKey, role KeyRole) TextEnvelope {
	pub := k.PublicKey()
	payload := make([]byte, 0, 128)
	payload = append(payload, k.key[:]...)
	payload = append(payload, pub[:]...)
	payload = append(payload, k.chainCode[:]...)
	defer wipe(payload)

	names := envelopeNames[role]
	return TextEnvelope{
		Type:        names.prefix + "ExtendedSigningKeyShelley_ed25519_bip32",
		Description: names.description + " Signing Key",
		CborHex:     hex.EncodeToString(cborBytes(payload)),
	}
}

// VerificationKeyEnvelope wraps the extended public key (A || chain code).
func VerificationKeyEnvelope(k *ExtendedPublicKey, role KeyRole) TextEnvelope {
	names := envelopeNames[role]
	return TextEnvelope{
		Type:        names.prefix + "ExtendedVerificationKeyShelley_ed25519_bip32",
		Description: names.description + " Verification Key",
		CborHex:     hex.EncodeToString(cborBytes(k.Bytes())),
	}
}

// ParseSigningKeyEnvelope reads an extended signing key file produced by
// SigningKeyEnvelope or cardano-cli.
func ParseSigningKeyEnvelope(data []byte) (*ExtendedKey, KeyRole, error) {
	var env TextEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, 0, fmt.Errorf("%w: decode envelope: %v", ErrInvalidKey, err)
	}

	var role KeyRole
	switch env.Type {
	case "PaymentExtendedSigningKeyShelley_ed25519_bip32":
		role = RolePayment
	case "StakeExtendedSigningKeyShelley_ed25519_bip32":
		role = RoleStake
	default:
		return nil, 0, fmt.Errorf("%w: unsupported envelope type %q", ErrInvalidKey, env.Type)
	}

	encoded, err := hex.DecodeString(env.CborHex)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: cborHex: %v", ErrInvalidKey, err)
	}
	defer wipe(encoded)

	payload, err := cborBytesPayload(encoded)
	if err != nil {
		return nil, 0, err
	}
	defer wipe(payload)
	if len(payload) != 128 {
		return nil, 0, fmt.Errorf("%w: signing key payload is %d bytes, want 128", ErrInvalidKey, len(payload))
	}

	raw := make([]byte, 0, ExtendedKeySize)
	raw = append(raw, payload[:64]...)
	raw = append(raw, payload[96:]...)
	defer wipe(raw)

	key, err := NewExtendedKey(raw)
	if err != nil {
		return nil, 0, err
	}
	if pub := key.PublicKey(); string(pub[:]) != string(payload[64:96]) {
		key.Zero()
		return nil, 0, fmt.Errorf("%w: embedded public key does not match scalar", ErrInvalidKey)
	}
	return key, role, nil
}

// cborBytes encodes b as a CBOR byte string (major type 2).
func cborBytes(b []byte) []byte {
	out, err := cbor.Marshal(b)
	if err != nil {
		panic(fmt.Sprintf("hdkey: encode cbor byte string: %v", err))
	}
	return out
}

// cborBytesPayload decodes a CBOR byte string, rejecting any other type and
// trailing data.
func cborBytesPayload(b []byte) ([]byte, error) {
	var payload []byte
	if err := cbor.Unmarshal(b, &payload); err != nil {
		return nil, fmt.Errorf("%w: cbor byte string: %v", ErrInvalidKey, err)
	}
	return payload, nil
}
