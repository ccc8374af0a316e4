package keystore

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

const (
	SaltSize = 32

	// Sealed layout: salt(32) | memory(4) | iterations(4) | parallelism(1) | nonce(24) | ciphertext
	headerSize = SaltSize + 4 + 4 + 1

	// Upper bounds accepted when opening, so a tampered header cannot demand
	// unbounded memory or time.
	maxMemoryKiB  = 1 << 21 // 2 GiB
	maxIterations = 64
)

// Params are the Argon2id cost parameters.
type Params struct {
	Memory      uint32 // KiB
	Iterations  uint32
	Parallelism uint8
}

// DefaultParams returns the Argon2id costs used for new wallets.
func DefaultParams() Params {
	return Params{
		Memory:      64 * 1024,
		Iterations:  3,
		Parallelism: 4,
	}
}

func (p Params) valid() bool {
	return p.Memory >= 8*uint32(p.Parallelism) && p.Memory <= maxMemoryKiB &&
		p.Iterations >= 1 && p.Iterations <= maxIterations &&
		p.Parallelism >= 1
}

func deriveKey(password, salt []byte, p Params) []byte {
	return argon2.IDKey(password, salt, p.Iterations, p.Memory, p.Parallelism, chacha20poly1305.KeySize)
}

// Seal encrypts plaintext under password with Argon2id and XChaCha20-Poly1305.
// The cost parameters travel in the header.
func Seal(plaintext, password []byte, p Params) ([]byte, error) {
	if !p.valid() {
		return nil, fmt.Errorf("argon2 parameters out of range: %+v", p)
	}

	salt := make([]byte, SaltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}

	key := deriveKey(password, salt, p)
	defer clear(key)

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}

	header := make([]byte, 0, headerSize+len(nonce))
	header = append(header, salt...)
	header = binary.LittleEndian.AppendUint32(header, p.Memory)
	header = binary.LittleEndian.AppendUint32(header, p.Iterations)
	header = append(header, p.Parallelism)
	header = append(header, nonce...)

	// The header is authenticated as associated data.
	return aead.Seal(header, nonce, plaintext, header), nil
}

// Open reverses Seal. A wrong password and a modified payload are
// indistinguishable and both return ErrWrongPassword.
func Open(sealed, password []byte) ([]byte, error) {
	nonceSize := chacha20poly1305.NonceSizeX
	if len(sealed) < headerSize+nonceSize+chacha20poly1305.Overhead {
		return nil, fmt.Errorf("%w: %d bytes", ErrMalformed, len(sealed))
	}

	salt := sealed[:SaltSize]
	p := Params{
		Memory:      binary.LittleEndian.Uint32(sealed[SaltSize:]),
		Iterations:  binary.LittleEndian.Uint32(sealed[SaltSize+4:]),
		Parallelism: sealed[SaltSize+8],
	}
	if !p.valid() {
		return nil, fmt.Errorf("%w: argon2 parameters %+v", ErrMalformed, p)
	}

	header := sealed[:headerSize+nonceSize]
	nonce := sealed[headerSize : headerSize+nonceSize]
	ciphertext := sealed[headerSize+nonceSize:]

	key := deriveKey(password, salt, p)
	defer clear(key)

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}

	plaintext, err := aead.Open(nil, nonce, ciphertext, header)
	if err != nil {
		return nil, ErrWrongPassword
	}
	return plaintext, nil
}
