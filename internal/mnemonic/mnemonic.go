// Package mnemonic generates and validates BIP-39 recovery phrases against
// the English wordlist.
package mnemonic

import (
	"crypto/rand"
	"fmt"
	"io"
	"strings"

	"github.com/tyler-smith/go-bip39"
	"github.com/tyler-smith/go-bip39/wordlists"
)

// SupportedWordCounts lists the accepted phrase lengths.
var SupportedWordCounts = []int{12, 15, 24}

// entropyBits maps a word count to its BIP-39 entropy size.
var entropyBits = map[int]int{
	12: 128,
	15: 160,
	24: 256,
}

var wordIndex map[string]int

func init() {
	wordIndex = make(map[string]int, len(wordlists.English))
	for i, w := range wordlists.English {
		wordIndex[w] = i
	}
	if len(wordIndex) != 2048 {
		panic(fmt.Sprintf("mnemonic: wordlist has %d words, want 2048", len(wordIndex)))
	}
}

// Mnemonic is a validated recovery phrase together with its decoded entropy.
// The zero value is not a valid mnemonic.
type Mnemonic struct {
	words   []string
	entropy []byte
}

// Generate creates a new phrase of wordCount words from crypto/rand entropy.
func Generate(wordCount int) (Mnemonic, error) {
	return GenerateFrom(rand.Reader, wordCount)
}

// GenerateFrom creates a new phrase reading its entropy from r.
// A short read or read error is reported as ErrRngUnavailable.
func GenerateFrom(r io.Reader, wordCount int) (Mnemonic, error) {
	bits, ok := entropyBits[wordCount]
	if !ok {
		return Mnemonic{}, fmt.Errorf("%w: %d", ErrUnsupportedWordCount, wordCount)
	}

	entropy := make([]byte, bits/8)
	if _, err := io.ReadFull(r, entropy); err != nil {
		return Mnemonic{}, fmt.Errorf("%w: %v", ErrRngUnavailable, err)
	}

	return FromEntropy(entropy)
}

// FromEntropy builds the phrase encoding entropy. The entropy length must
// match one of the supported word counts.
func FromEntropy(entropy []byte) (Mnemonic, error) {
	if !supportedEntropyLen(len(entropy)) {
		return Mnemonic{}, fmt.Errorf("%w: entropy of %d bytes", ErrUnsupportedWordCount, len(entropy))
	}

	phrase, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return Mnemonic{}, fmt.Errorf("encode entropy: %w", err)
	}

	owned := make([]byte, len(entropy))
	copy(owned, entropy)

	return Mnemonic{words: strings.Fields(phrase), entropy: owned}, nil
}

// Validate normalizes phrase and checks its word count, wordlist membership
// and checksum. Failures are returned as *InvalidMnemonicError.
func Validate(phrase string) (Mnemonic, error) {
	normalized := Normalize(phrase)
	words := strings.Fields(normalized)

	if _, ok := entropyBits[len(words)]; !ok {
		return Mnemonic{}, &InvalidMnemonicError{Reason: ReasonWordCount, WordCount: len(words)}
	}

	var unknown []UnknownWord
	for i, w := range words {
		if _, ok := wordIndex[w]; !ok {
			unknown = append(unknown, UnknownWord{Position: i + 1, Word: w})
		}
	}
	if len(unknown) > 0 {
		return Mnemonic{}, &InvalidMnemonicError{
			Reason:    ReasonUnknownWords,
			WordCount: len(words),
			Unknown:   unknown,
		}
	}

	// Count and membership already passed, so any failure here is the checksum.
	entropy, err := bip39.EntropyFromMnemonic(normalized)
	if err != nil {
		return Mnemonic{}, &InvalidMnemonicError{Reason: ReasonChecksum, WordCount: len(words)}
	}

	return Mnemonic{words: words, entropy: entropy}, nil
}

// Normalize lowercases phrase, collapses runs of whitespace to one space and
// trims both ends.
func Normalize(phrase string) string {
	return strings.Join(strings.Fields(strings.ToLower(phrase)), " ")
}

// IsValid reports whether phrase passes Validate.
func IsValid(phrase string) bool {
	_, err := Validate(phrase)
	return err == nil
}

// String returns the space-separated phrase.
func (m Mnemonic) String() string {
	return strings.Join(m.words, " ")
}

// Words returns a copy of the phrase words.
func (m Mnemonic) Words() []string {
	out := make([]string, len(m.words))
	copy(out, m.words)
	return out
}

// WordCount returns the number of words in the phrase.
func (m Mnemonic) WordCount() int {
	return len(m.words)
}

// Entropy returns a copy of the entropy encoded by the phrase.
func (m Mnemonic) Entropy() []byte {
	out := make([]byte, len(m.entropy))
	copy(out, m.entropy)
	return out
}

// IsZero reports whether m is the zero value or has been zeroed.
func (m Mnemonic) IsZero() bool {
	return len(m.words) == 0
}

// Zero wipes the entropy held by m. Word strings are immutable in Go and are
// only dropped, not overwritten.
func (m *Mnemonic) Zero() {
	for i := range m.entropy {
		m.entropy[i] = 0
	}
	m.entropy = nil
	m.words = nil
}

func supportedEntropyLen(n int) bool {
	for _, bits := range entropyBits {
		if bits/8 == n {
			return true
		}
	}
	return false
}
