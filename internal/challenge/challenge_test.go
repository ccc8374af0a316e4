package challenge

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Fantasim/hdada/internal/address"
	"github.com/Fantasim/hdada/internal/hdkey"
	"github.com/Fantasim/hdada/internal/mnemonic"
	"github.com/Fantasim/hdada/internal/models"
	"github.com/Fantasim/hdada/internal/signer"
)

const testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

type testKeys struct {
	payment *hdkey.ExtendedKey
	stake   *hdkey.ExtendedKey
	other   *hdkey.ExtendedKey
	base    address.Address
	reward  address.Address
}

func newTestKeys(t *testing.T) testKeys {
	t.Helper()
	m, err := mnemonic.Validate(testMnemonic)
	if err != nil {
		t.Fatalf("Validate() error: %v", err)
	}
	root := hdkey.RootKeyFromMnemonic(m, "")
	defer root.Zero()

	derive := func(chain, index uint32) *hdkey.ExtendedKey {
		k, err := hdkey.DerivePath(root, hdkey.AddressPath(0, chain, index))
		if err != nil {
			t.Fatalf("DerivePath() error: %v", err)
		}
		t.Cleanup(k.Zero)
		return k
	}

	keys := testKeys{
		payment: derive(hdkey.ChainExternal, 0),
		stake:   derive(hdkey.ChainStake, 0),
		other:   derive(hdkey.ChainExternal, 1),
	}
	stakePub := keys.stake.PublicKey()
	keys.base, err = address.PaymentAddress(keys.payment.PublicKey(), &stakePub, address.Mainnet)
	if err != nil {
		t.Fatalf("PaymentAddress() error: %v", err)
	}
	keys.reward, err = address.StakeAddress(stakePub, address.Mainnet)
	if err != nil {
		t.Fatalf("StakeAddress() error: %v", err)
	}
	return keys
}

func TestNew(t *testing.T) {
	keys := newTestKeys(t)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	c, err := New(keys.base, 5*time.Minute, now)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if c.ID == "" {
		t.Error("ID is empty")
	}
	if len(c.Nonce) != 64 {
		t.Errorf("nonce length = %d, want 64 hex chars", len(c.Nonce))
	}
	if !c.ExpiresAt.Equal(now.Add(5 * time.Minute)) {
		t.Errorf("ExpiresAt = %s", c.ExpiresAt)
	}

	msg := c.Message()
	for _, want := range []string{"hdada ownership challenge", keys.base.String(), c.Nonce, "2026-03-01T12:05:00Z"} {
		if !strings.Contains(msg, want) {
			t.Errorf("Message() = %q, missing %q", msg, want)
		}
	}

	other, _ := New(keys.base, time.Minute, now)
	if other.ID == c.ID || other.Nonce == c.Nonce {
		t.Error("two challenges share an id or nonce")
	}
}

func TestNew_Errors(t *testing.T) {
	keys := newTestKeys(t)
	now := time.Now()

	if _, err := New(address.Address{}, time.Minute, now); !errors.Is(err, address.ErrInvalidAddress) {
		t.Errorf("New(zero address) error = %v, want ErrInvalidAddress", err)
	}
	if _, err := New(keys.base, 0, now); !errors.Is(err, ErrInvalidTTL) {
		t.Errorf("New(ttl 0) error = %v, want ErrInvalidTTL", err)
	}
}

func TestVerify(t *testing.T) {
	keys := newTestKeys(t)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	base, err := New(keys.base, 5*time.Minute, now)
	if err != nil {
		t.Fatal(err)
	}
	reward, err := New(keys.reward, 5*time.Minute, now)
	if err != nil {
		t.Fatal(err)
	}

	sign := func(c *Challenge, k *hdkey.ExtendedKey) signer.Signature {
		return signer.Sign(k, []byte(c.Message()))
	}

	tests := []struct {
		name    string
		c       *Challenge
		key     *hdkey.ExtendedKey
		sig     func() signer.Signature
		at      time.Time
		wantErr error
	}{
		{"payment key on base", base, keys.payment, func() signer.Signature { return sign(base, keys.payment) }, now.Add(time.Minute), nil},
		{"stake key on base", base, keys.stake, func() signer.Signature { return sign(base, keys.stake) }, now, nil},
		{"stake key on reward", reward, keys.stake, func() signer.Signature { return sign(reward, keys.stake) }, now, nil},
		{"payment key on reward", reward, keys.payment, func() signer.Signature { return sign(reward, keys.payment) }, now, ErrKeyMismatch},
		{"unrelated key", base, keys.other, func() signer.Signature { return sign(base, keys.other) }, now, ErrKeyMismatch},
		{"signature over other challenge", base, keys.payment, func() signer.Signature { return sign(reward, keys.payment) }, now, ErrBadSignature},
		{"at expiry", base, keys.payment, func() signer.Signature { return sign(base, keys.payment) }, now.Add(5 * time.Minute), nil},
		{"expired", base, keys.payment, func() signer.Signature { return sign(base, keys.payment) }, now.Add(5*time.Minute + time.Second), ErrExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.c.Verify(tt.key.PublicKey(), tt.sig(), tt.at)
			if tt.wantErr == nil && err != nil {
				t.Fatalf("Verify() error: %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("Verify() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestModelRoundTrip(t *testing.T) {
	keys := newTestKeys(t)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	c, err := New(keys.base, time.Hour, now)
	if err != nil {
		t.Fatal(err)
	}

	m := c.Model(models.ChallengePending)
	if m.Status != models.ChallengePending || m.Message != c.Message() {
		t.Errorf("Model() = %+v", m)
	}

	back, err := FromModel(m)
	if err != nil {
		t.Fatalf("FromModel() error: %v", err)
	}
	if back.Message() != c.Message() {
		t.Errorf("rebuilt message differs:\n%s\n%s", back.Message(), c.Message())
	}

	m.Address = "addr1invalid"
	if _, err := FromModel(m); !errors.Is(err, address.ErrInvalidAddress) {
		t.Errorf("FromModel(bad address) error = %v, want ErrInvalidAddress", err)
	}
}
