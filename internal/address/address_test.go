package address

import (
	"errors"
	"strings"
	"testing"

	"github.com/btcsuite/btcd/btcutil/bech32"

	"github.com/Fantasim/hdada/internal/hdkey"
	"github.com/Fantasim/hdada/internal/mnemonic"
)

const testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

// testPub returns the public key at m/1852'/1815'/0'/chain/index.
func testPub(t *testing.T, chain, index uint32) hdkey.PublicKey {
	t.Helper()
	m, err := mnemonic.Validate(testMnemonic)
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	root := hdkey.RootKeyFromMnemonic(m, "")
	defer root.Zero()

	key, err := hdkey.DerivePath(root, hdkey.AddressPath(0, chain, index))
	if err != nil {
		t.Fatalf("DerivePath() error = %v", err)
	}
	defer key.Zero()
	return key.PublicKey()
}

func TestKnownAddresses(t *testing.T) {
	stake := testPub(t, hdkey.ChainStake, 0)
	ext0 := testPub(t, hdkey.ChainExternal, 0)
	ext4 := testPub(t, hdkey.ChainExternal, 4)
	int0 := testPub(t, hdkey.ChainInternal, 0)

	build := func(pub hdkey.PublicKey, withStake bool, network Network) string {
		var sp *hdkey.PublicKey
		if withStake {
			sp = &stake
		}
		addr, err := PaymentAddress(pub, sp, network)
		if err != nil {
			t.Fatalf("PaymentAddress() error = %v", err)
		}
		return addr.String()
	}
	reward := func(network Network) string {
		addr, err := StakeAddress(stake, network)
		if err != nil {
			t.Fatalf("StakeAddress() error = %v", err)
		}
		return addr.String()
	}

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"mainnet base external 0", build(ext0, true, Mainnet), "addr1qy8ac7qqy0vtulyl7wntmsxc6wex80gvcyjy33qffrhm7sh927ysx5sftuw0dlft05dz3c7revpf7jx0xnlcjz3g69mq4afdhv"},
		{"mainnet base external 4", build(ext4, true, Mainnet), "addr1q8azgx7lmkhytaw25yzdc6euvr8vajuxtma6ssf99scke5h927ysx5sftuw0dlft05dz3c7revpf7jx0xnlcjz3g69mq0lxtr2"},
		{"mainnet base internal 0", build(int0, true, Mainnet), "addr1qykhadtnvjpkxh76xgr0mu4huc9tg800x2sxsqemn9uz8jh927ysx5sftuw0dlft05dz3c7revpf7jx0xnlcjz3g69mq28kufu"},
		{"mainnet enterprise", build(ext0, false, Mainnet), "addr1vy8ac7qqy0vtulyl7wntmsxc6wex80gvcyjy33qffrhm7ss7lxrqp"},
		{"mainnet stake", reward(Mainnet), "stake1u8j40zgr2gy4788kl54h6x3gu0pukq5lfr8nflufpg5dzaskqlx2l"},
		{"testnet base external 0", build(ext0, true, Testnet), "addr_test1qq8ac7qqy0vtulyl7wntmsxc6wex80gvcyjy33qffrhm7sh927ysx5sftuw0dlft05dz3c7revpf7jx0xnlcjz3g69mqkt5dmn"},
		{"testnet base internal 0", build(int0, true, Testnet), "addr_test1qqkhadtnvjpkxh76xgr0mu4huc9tg800x2sxsqemn9uz8jh927ysx5sftuw0dlft05dz3c7revpf7jx0xnlcjz3g69mqf3tu9r"},
		{"testnet enterprise", build(ext0, false, Testnet), "addr_test1vq8ac7qqy0vtulyl7wntmsxc6wex80gvcyjy33qffrhm7ss9hjl0y"},
		{"testnet stake", reward(Testnet), "stake_test1urj40zgr2gy4788kl54h6x3gu0pukq5lfr8nflufpg5dzas324ywz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %s, want %s", tt.got, tt.want)
			}
		})
	}
}

func TestPrefixesPerNetwork(t *testing.T) {
	stake := testPub(t, hdkey.ChainStake, 0)
	payment := testPub(t, hdkey.ChainExternal, 1)

	for _, tt := range []struct {
		network     Network
		wantPayment string
		wantStake   string
	}{
		{Mainnet, "addr1", "stake1"},
		{Testnet, "addr_test1", "stake_test1"},
	} {
		t.Run(tt.network.String(), func(t *testing.T) {
			base, _ := PaymentAddress(payment, &stake, tt.network)
			if !strings.HasPrefix(base.String(), tt.wantPayment) {
				t.Errorf("base address %s lacks prefix %s", base, tt.wantPayment)
			}
			reward, _ := StakeAddress(stake, tt.network)
			if !strings.HasPrefix(reward.String(), tt.wantStake) {
				t.Errorf("stake address %s lacks prefix %s", reward, tt.wantStake)
			}
		})
	}
}

func TestUnknownNetwork(t *testing.T) {
	pub := testPub(t, hdkey.ChainExternal, 0)

	if _, err := PaymentAddress(pub, nil, Network(5)); !errors.Is(err, ErrUnknownNetwork) {
		t.Errorf("PaymentAddress() error = %v, want ErrUnknownNetwork", err)
	}
	if _, err := StakeAddress(pub, Network(2)); !errors.Is(err, ErrUnknownNetwork) {
		t.Errorf("StakeAddress() error = %v, want ErrUnknownNetwork", err)
	}
}

func TestDelegate(t *testing.T) {
	stakePub := testPub(t, hdkey.ChainStake, 0)
	paymentPub := testPub(t, hdkey.ChainExternal, 0)

	enterprise, _ := PaymentAddress(paymentPub, nil, Mainnet)
	reward, _ := StakeAddress(stakePub, Mainnet)
	want, _ := PaymentAddress(paymentPub, &stakePub, Mainnet)

	got, err := Delegate(enterprise, reward)
	if err != nil {
		t.Fatalf("Delegate() error = %v", err)
	}
	if got != want {
		t.Errorf("Delegate() = %s, want %s", got, want)
	}

	// Re-delegating a base address replaces its stake credential.
	otherStake := testPub(t, hdkey.ChainExternal, 9)
	otherReward, _ := StakeAddress(otherStake, Mainnet)
	moved, err := Delegate(want, otherReward)
	if err != nil {
		t.Fatalf("Delegate() error = %v", err)
	}
	if cred, _ := moved.StakeCredential(); cred != KeyHash(otherStake) {
		t.Error("stake credential was not replaced")
	}
	if cred, _ := moved.PaymentCredential(); cred != KeyHash(paymentPub) {
		t.Error("payment credential changed")
	}

	testnetReward, _ := StakeAddress(stakePub, Testnet)
	if _, err := Delegate(enterprise, testnetReward); !errors.Is(err, ErrNetworkMismatch) {
		t.Errorf("cross-network Delegate() error = %v, want ErrNetworkMismatch", err)
	}
	if _, err := Delegate(reward, reward); !errors.Is(err, ErrInvalidAddress) {
		t.Errorf("Delegate(reward, reward) error = %v, want ErrInvalidAddress", err)
	}
	if _, err := Delegate(enterprise, enterprise); !errors.Is(err, ErrInvalidAddress) {
		t.Errorf("Delegate(enterprise, enterprise) error = %v, want ErrInvalidAddress", err)
	}
}

func TestStakeAddressExtraction(t *testing.T) {
	stakePub := testPub(t, hdkey.ChainStake, 0)
	paymentPub := testPub(t, hdkey.ChainExternal, 0)

	base, _ := PaymentAddress(paymentPub, &stakePub, Mainnet)
	want, _ := StakeAddress(stakePub, Mainnet)

	got, err := base.StakeAddress()
	if err != nil {
		t.Fatalf("StakeAddress() error = %v", err)
	}
	if got.String() != want.String() {
		t.Errorf("StakeAddress() = %s, want %s", got, want)
	}
	if got.String() == base.String() {
		t.Error("StakeAddress() echoed the payment address")
	}

	self, err := want.StakeAddress()
	if err != nil || self != want {
		t.Errorf("reward StakeAddress() = %s, %v", self, err)
	}

	enterprise, _ := PaymentAddress(paymentPub, nil, Mainnet)
	if _, err := enterprise.StakeAddress(); !errors.Is(err, ErrNoStakeCredential) {
		t.Errorf("enterprise StakeAddress() error = %v, want ErrNoStakeCredential", err)
	}
}

func TestDeterministic(t *testing.T) {
	stakePub := testPub(t, hdkey.ChainStake, 0)
	paymentPub := testPub(t, hdkey.ChainExternal, 2)

	a, _ := PaymentAddress(paymentPub, &stakePub, Testnet)
	b, _ := PaymentAddress(paymentPub, &stakePub, Testnet)
	if a.String() != b.String() || string(a.Bytes()) != string(b.Bytes()) {
		t.Error("identical inputs produced different addresses")
	}
}

func TestNetworkParse(t *testing.T) {
	tests := []struct {
		in      string
		want    Network
		wantErr bool
	}{
		{"mainnet", Mainnet, false},
		{"MAINNET", Mainnet, false},
		{"testnet", Testnet, false},
		{"preprod", Testnet, false},
		{"preview", Testnet, false},
		{"devnet", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseNetwork(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrUnknownNetwork) {
					t.Errorf("ParseNetwork(%q) error = %v, want ErrUnknownNetwork", tt.in, err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("ParseNetwork(%q) = %v, %v; want %v", tt.in, got, err, tt.want)
			}
		})
	}
}

func encodeRaw(t *testing.T, hrp string, raw []byte) string {
	t.Helper()
	conv, err := bech32.ConvertBits(raw, 8, 5, true)
	if err != nil {
		t.Fatalf("ConvertBits() error = %v", err)
	}
	s, err := bech32.Encode(hrp, conv)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	return s
}
