// Package challenge issues ownership challenges for addresses and checks the
// signed responses.
package challenge

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Fantasim/hdada/internal/address"
	"github.com/Fantasim/hdada/internal/config"
	"github.com/Fantasim/hdada/internal/hdkey"
	"github.com/Fantasim/hdada/internal/models"
	"github.com/Fantasim/hdada/internal/signer"
)

var (
	ErrExpired      = errors.New("challenge expired")
	ErrBadSignature = errors.New("signature does not match challenge")
	ErrKeyMismatch  = errors.New("public key does not control the challenged address")
	ErrInvalidTTL   = errors.New("challenge ttl must be positive")
)

// Challenge is a one-time message the holder of Address must sign.
type Challenge struct {
	ID        string
	Address   address.Address
	Nonce     string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// New creates a challenge for addr valid for ttl from now.
func New(addr address.Address, ttl time.Duration, now time.Time) (*Challenge, error) {
	if addr.IsZero() {
		return nil, fmt.Errorf("%w: empty address", address.ErrInvalidAddress)
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidTTL, ttl)
	}

	nonce := make([]byte, config.ChallengeNonceBytes)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}

	now = now.UTC().Truncate(time.Second)
	return &Challenge{
		ID:        uuid.NewString(),
		Address:   addr,
		Nonce:     hex.EncodeToString(nonce),
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}, nil
}

// Message is the exact text the address holder signs.
func (c *Challenge) Message() string {
	var b strings.Builder
	b.WriteString(config.ChallengeMessageHead)
	b.WriteString("\naddress: ")
	b.WriteString(c.Address.String())
	b.WriteString("\nnonce: ")
	b.WriteString(c.Nonce)
	b.WriteString("\nexpires: ")
	b.WriteString(c.ExpiresAt.UTC().Format(time.RFC3339))
	return b.String()
}

// Expired reports whether the challenge can no longer be answered at now.
func (c *Challenge) Expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}

// Verify checks a response. The key must hash to the payment or stake
// credential of the challenged address and sig must cover Message.
func (c *Challenge) Verify(pub hdkey.PublicKey, sig signer.Signature, now time.Time) error {
	if c.Expired(now) {
		return fmt.Errorf("%w: at %s", ErrExpired, c.ExpiresAt.Format(time.RFC3339))
	}
	if !Controls(c.Address, pub) {
		return ErrKeyMismatch
	}
	if !signer.Verify(pub, []byte(c.Message()), sig) {
		return ErrBadSignature
	}
	return nil
}

// Controls reports whether pub hashes to one of addr's credentials.
func Controls(addr address.Address, pub hdkey.PublicKey) bool {
	hash := address.KeyHash(pub)
	if cred, ok := addr.PaymentCredential(); ok && cred == hash {
		return true
	}
	if cred, ok := addr.StakeCredential(); ok && cred == hash {
		return true
	}
	return false
}

// Model converts the challenge into its stored and API form.
func (c *Challenge) Model(status models.ChallengeStatus) models.Challenge {
	return models.Challenge{
		ID:        c.ID,
		Address:   c.Address.String(),
		Nonce:     c.Nonce,
		Message:   c.Message(),
		Status:    status,
		ExpiresAt: c.ExpiresAt.Format(time.RFC3339),
		CreatedAt: c.CreatedAt.Format(time.RFC3339),
	}
}

// FromModel rebuilds a challenge from its stored form.
func FromModel(m models.Challenge) (*Challenge, error) {
	addr, err := address.Parse(m.Address)
	if err != nil {
		return nil, err
	}
	created, err := time.Parse(time.RFC3339, m.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("parse createdAt: %w", err)
	}
	expires, err := time.Parse(time.RFC3339, m.ExpiresAt)
	if err != nil {
		return nil, fmt.Errorf("parse expiresAt: %w", err)
	}
	return &Challenge{
		ID:        m.ID,
		Address:   addr,
		Nonce:     m.Nonce,
		CreatedAt: created.UTC(),
		ExpiresAt: expires.UTC(),
	}, nil
}
