package config

import "time"

// Address Generation
const (
	MaxAddressesPerChain = 1 << 20
	DefaultWordCount     = 24
	DefaultExternalCount = 5
	DefaultInternalCount = 0
)

// CIP-1852 index limit; account indices at or above it are not representable
// as hardened segments.
const HardenedOffset = 0x80000000

// Server
const (
	ServerReadTimeout   = 30 * time.Second
	ServerWriteTimeout  = 60 * time.Second
	ServerIdleTimeout   = 120 * time.Second
	ShutdownTimeout     = 10 * time.Second
	APITimeout          = 30 * time.Second
	MaxRequestBodyBytes = 1 << 20
	MaxMessageBytes     = 64 << 10
	MaxVerifyBatchItems = 1000
	DefaultPageSize     = 50
	MaxPageSize         = 500
)

// Sign endpoint token bucket size. The rate itself is HDADA_SIGN_RATE_LIMIT.
const RateLimitSignBurst = 10

// Challenges
const (
	ChallengeTTL         = 5 * time.Minute
	ChallengeNonceBytes  = 32
	ChallengeMessageHead = "hdada ownership challenge"
	ChallengePurgeEvery  = 10 * time.Minute
)

// Keystore
const (
	KeystoreDir      = "./data/keystore"
	KeystoreFileMode = 0o600
	KeystoreDirMode  = 0o700
)

// Logging
const (
	LogDir         = "./logs"
	LogFilePattern = "hdada-%s.log" // %s = YYYY-MM-DD
	LogMaxAgeDays  = 30
)

// Database
const (
	DBPath        = "./data/hdada.sqlite"
	DBWALMode     = true
	DBBusyTimeout = 5000 // milliseconds
)

// Export
const (
	ExportDir = "./data/export"
)
