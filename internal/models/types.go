package models

// Chain is the role of a derived key within an account.
type Chain string

const (
	ChainExternal Chain = "external"
	ChainInternal Chain = "internal"
	ChainStake    Chain = "stake"
)

// PaymentChains is the ordered list of chains that produce payment addresses.
var PaymentChains = []Chain{ChainExternal, ChainInternal}

// Index returns the CIP-1852 chain number (0, 1 or 2).
func (c Chain) Index() (uint32, bool) {
	switch c {
	case ChainExternal:
		return 0, true
	case ChainInternal:
		return 1, true
	case ChainStake:
		return 2, true
	default:
		return 0, false
	}
}

// ChainFromIndex maps a CIP-1852 chain number to its role.
func ChainFromIndex(i uint32) (Chain, bool) {
	switch i {
	case 0:
		return ChainExternal, true
	case 1:
		return ChainInternal, true
	case 2:
		return ChainStake, true
	default:
		return "", false
	}
}

// NetworkMode represents mainnet or testnet operation.
type NetworkMode string

const (
	NetworkMainnet NetworkMode = "mainnet"
	NetworkTestnet NetworkMode = "testnet"
)

// BundleAddress is one derived payment address of a bundle.
type BundleAddress struct {
	Index     uint32 `json:"index"`
	Chain     Chain  `json:"chain"`
	Address   string `json:"address"`
	PublicKey string `json:"public_key"`
}

// WalletBundle is the full derivation output for one account.
type WalletBundle struct {
	Network      NetworkMode     `json:"network"`
	AccountIndex uint32          `json:"account_index"`
	StakeAddress string          `json:"stake_address"`
	Addresses    []BundleAddress `json:"addresses"`
}

// Count returns the number of addresses on chain.
func (b *WalletBundle) Count(chain Chain) int {
	n := 0
	for _, a := range b.Addresses {
		if a.Chain == chain {
			n++
		}
	}
	return n
}

// StoredBundle is the persisted summary of a generated bundle.
type StoredBundle struct {
	ID            string      `json:"id"`
	Network       NetworkMode `json:"network"`
	AccountIndex  uint32      `json:"accountIndex"`
	StakeAddress  string      `json:"stakeAddress"`
	ExternalCount int         `json:"externalCount"`
	InternalCount int         `json:"internalCount"`
	CreatedAt     string      `json:"createdAt"`
}

// AddressRecord locates a stored address inside its bundle.
type AddressRecord struct {
	BundleID     string      `json:"bundleId"`
	Network      NetworkMode `json:"network"`
	AccountIndex uint32      `json:"accountIndex"`
	Chain        Chain       `json:"chain"`
	Index        uint32      `json:"index"`
	Address      string      `json:"address"`
	PublicKey    string      `json:"publicKey"`
}

// AddressInfo describes a decoded address.
type AddressInfo struct {
	Address           string         `json:"address"`
	Kind              string         `json:"kind"`
	Network           NetworkMode    `json:"network"`
	PaymentCredential string         `json:"paymentCredential,omitempty"`
	StakeCredential   string         `json:"stakeCredential,omitempty"`
	StakeAddress      string         `json:"stakeAddress,omitempty"`
	Owned             *AddressRecord `json:"owned,omitempty"`
}

// ChallengeStatus is the lifecycle state of a signing challenge.
type ChallengeStatus string

const (
	ChallengePending  ChallengeStatus = "pending"
	ChallengeVerified ChallengeStatus = "verified"
	ChallengeFailed   ChallengeStatus = "failed"
)

// Challenge asks the holder of an address to sign Message.
type Challenge struct {
	ID         string          `json:"id"`
	Address    string          `json:"address"`
	Nonce      string          `json:"nonce"`
	Message    string          `json:"message"`
	Status     ChallengeStatus `json:"status"`
	ExpiresAt  string          `json:"expiresAt"`
	CreatedAt  string          `json:"createdAt"`
	VerifiedAt string          `json:"verifiedAt,omitempty"`
}

// SignResult is the output of signing a message with a derived key.
type SignResult struct {
	Path      string `json:"path"`
	Address   string `json:"address"`
	PublicKey string `json:"publicKey"`
	Signature string `json:"signature"`
}

// VerifyItem is one signature to check in a batch. Address is optional.
type VerifyItem struct {
	PublicKey string `json:"publicKey"`
	Message   string `json:"message"`
	Encoding  string `json:"encoding,omitempty"`
	Signature string `json:"signature"`
	Address   string `json:"address,omitempty"`
}

// VerifyItemResult is the outcome of one batch item. Valid requires a good
// signature and, when an address was given, a key that controls it.
type VerifyItemResult struct {
	Index           int    `json:"index"`
	Valid           bool   `json:"valid"`
	SignatureValid  bool   `json:"signatureValid"`
	ControlsAddress *bool  `json:"controlsAddress,omitempty"`
	Error           string `json:"error,omitempty"`
}

// BatchVerifyReport summarizes a batch verification.
type BatchVerifyReport struct {
	Total   int                `json:"total"`
	Valid   int                `json:"valid"`
	Invalid int                `json:"invalid"`
	Errors  []string           `json:"errors"`
	Results []VerifyItemResult `json:"results"`
}

// APIResponse is the standard API response wrapper.
type APIResponse struct {
	Data interface{} `json:"data,omitempty"`
	Meta *APIMeta    `json:"meta,omitempty"`
}

// APIMeta contains pagination and execution metadata.
type APIMeta struct {
	Page          int   `json:"page,omitempty"`
	PageSize      int   `json:"pageSize,omitempty"`
	Total         int64 `json:"total,omitempty"`
	ExecutionTime int64 `json:"executionTime,omitempty"`
}

// APIError is the standard error response.
type APIError struct {
	Error APIErrorDetail `json:"error"`
}

// APIErrorDetail contains error code and message.
type APIErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
