package hdkey

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/wollac/iota-crypto-demo/pkg/bip32path"
)

// CIP-1852 derivation constants.
// Full path: m/1852'/1815'/account'/chain/index
const (
	HardenedOffset = uint32(0x80000000)

	Purpose  = 1852
	CoinType = 1815

	ChainExternal = 0
	ChainInternal = 1
	ChainStake    = 2

	// MaxDepth is the depth of an address key: purpose, coin, account, chain, index.
	MaxDepth = 5

	// accountDepth is the deepest position a hardened segment may take.
	accountDepth = 2
)

// PathSegment is one step of a derivation path: a 31-bit index and a
// hardened flag.
type PathSegment struct {
	Index    uint32
	Hardened bool
}

// NewSegment builds a segment, rejecting indices wider than 31 bits.
func NewSegment(index uint32, hardened bool) (PathSegment, error) {
	seg := PathSegment{Index: index, Hardened: hardened}
	if !seg.Valid() {
		return PathSegment{}, fmt.Errorf("%w: index %d exceeds 31 bits", ErrInvalidPath, index)
	}
	return seg, nil
}

// Hardened returns the hardened segment index'.
func Hardened(index uint32) PathSegment {
	return PathSegment{Index: index, Hardened: true}
}

// Soft returns the non-hardened segment index.
func Soft(index uint32) PathSegment {
	return PathSegment{Index: index}
}

// Valid reports whether the index fits in 31 bits.
func (s PathSegment) Valid() bool {
	return s.Index < HardenedOffset
}

// ChildIndex returns the 32-bit child number used in derivation.
func (s PathSegment) ChildIndex() uint32 {
	if s.Hardened {
		return s.Index | HardenedOffset
	}
	return s.Index
}

func (s PathSegment) String() string {
	if s.Hardened {
		return strconv.FormatUint(uint64(s.Index), 10) + "'"
	}
	return strconv.FormatUint(uint64(s.Index), 10)
}

// DerivationPath is an ordered list of segments starting at the root key.
type DerivationPath []PathSegment

// AccountPath returns m/1852'/1815'/account'.
func AccountPath(account uint32) DerivationPath {
	return DerivationPath{Hardened(Purpose), Hardened(CoinType), Hardened(account)}
}

// AddressPath returns m/1852'/1815'/account'/chain/index.
func AddressPath(account, chain, index uint32) DerivationPath {
	return append(AccountPath(account), Soft(chain), Soft(index))
}

// String renders the path as m/1852'/1815'/0'/0/0.
func (p DerivationPath) String() string {
	var sb strings.Builder
	sb.WriteString("m")
	for _, seg := range p {
		sb.WriteByte('/')
		sb.WriteString(seg.String())
	}
	return sb.String()
}

// Validate checks p against the CIP-1852 layout. Segments up to the account
// level must be hardened, chain and address index must not be, purpose and
// coin type are fixed and chain is external, internal or stake.
func (p DerivationPath) Validate() error {
	if len(p) > MaxDepth {
		return fmt.Errorf("%w: depth %d exceeds %d", ErrInvalidPath, len(p), MaxDepth)
	}

	for depth, seg := range p {
		if !seg.Valid() {
			return fmt.Errorf("%w: segment %d index %d exceeds 31 bits", ErrInvalidPath, depth, seg.Index)
		}

		if depth <= accountDepth && !seg.Hardened {
			return fmt.Errorf("%w: segment %d (%s) must be hardened", ErrInvalidPath, depth, seg)
		}
		if depth > accountDepth && seg.Hardened {
			return fmt.Errorf("%w: segment %d (%s) must not be hardened", ErrInvalidPath, depth, seg)
		}

		switch depth {
		case 0:
			if seg.Index != Purpose {
				return fmt.Errorf("%w: purpose %d, want %d", ErrInvalidPath, seg.Index, Purpose)
			}
		case 1:
			if seg.Index != CoinType {
				return fmt.Errorf("%w: coin type %d, want %d", ErrInvalidPath, seg.Index, CoinType)
			}
		case 3:
			if seg.Index > ChainStake {
				return fmt.Errorf("%w: chain %d, want 0, 1 or 2", ErrInvalidPath, seg.Index)
			}
		}
	}

	return nil
}

// ParsePath parses m/1852'/1815'/0'/0/0 or the cardano-address form
// 1852H/1815H/0H/0/0. Only syntax is checked; use Validate for layout.
func ParsePath(s string) (DerivationPath, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "m")
	s = strings.TrimPrefix(s, "/")
	if s == "" {
		return DerivationPath{}, nil
	}

	s = hardenedMarks.Replace(s)
	if strings.Contains(s, "''") {
		return nil, fmt.Errorf("%w: %q: repeated hardened mark", ErrInvalidPath, s)
	}
	indices, err := bip32path.ParsePath(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrInvalidPath, s, err)
	}

	// The parser folds the hardened flag into bit 31, so an unmarked index
	// of 2^31 or more would come back as a hardened one.
	parts := strings.Split(s, "/")
	if len(parts) != len(indices) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPath, s)
	}

	path := make(DerivationPath, len(indices))
	for i, idx := range indices {
		seg := PathSegment{Index: idx &^ HardenedOffset, Hardened: idx&HardenedOffset != 0}
		if seg.Hardened != strings.HasSuffix(parts[i], "'") {
			return nil, fmt.Errorf("%w: segment %d index %s exceeds 31 bits", ErrInvalidPath, i, parts[i])
		}
		path[i] = seg
	}
	return path, nil
}

var hardenedMarks = strings.NewReplacer("H", "'", "h", "'")
