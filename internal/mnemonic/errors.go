package mnemonic

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidMnemonic      = errors.New("invalid mnemonic")
	ErrUnsupportedWordCount = errors.New("unsupported mnemonic word count")
	ErrRngUnavailable       = errors.New("secure random source unavailable")
)

// Reason classifies why a phrase failed validation.
type Reason string

const (
	ReasonWordCount    Reason = "word_count"
	ReasonUnknownWords Reason = "unknown_words"
	ReasonChecksum     Reason = "bad_checksum"
)

// UnknownWord is a phrase word that is not in the wordlist. Position is 1-based.
type UnknownWord struct {
	Position int
	Word     string
}

// InvalidMnemonicError carries the failing detail of a rejected phrase.
// It unwraps to ErrInvalidMnemonic.
type InvalidMnemonicError struct {
	Reason    Reason
	WordCount int
	Unknown   []UnknownWord
}

func (e *InvalidMnemonicError) Error() string {
	switch e.Reason {
	case ReasonWordCount:
		return fmt.Sprintf("%s: got %d words, want one of %v", ErrInvalidMnemonic, e.WordCount, SupportedWordCounts)
	case ReasonUnknownWords:
		parts := make([]string, 0, len(e.Unknown))
		for _, u := range e.Unknown {
			parts = append(parts, fmt.Sprintf("#%d %q", u.Position, u.Word))
		}
		return fmt.Sprintf("%s: unknown words: %s", ErrInvalidMnemonic, strings.Join(parts, ", "))
	case ReasonChecksum:
		return fmt.Sprintf("%s: bad checksum", ErrInvalidMnemonic)
	default:
		return ErrInvalidMnemonic.Error()
	}
}

func (e *InvalidMnemonicError) Unwrap() error { return ErrInvalidMnemonic }
