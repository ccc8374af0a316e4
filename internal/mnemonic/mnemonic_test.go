package mnemonic

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/tyler-smith/go-bip39/wordlists"
)

// Standard BIP-39 test mnemonic (12-word, all-zero entropy).
const testMnemonic12 = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

// Standard BIP-39 test mnemonic (24-word, all-zero entropy).
const testMnemonic24 = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon art"

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("entropy pool closed") }

func TestGenerateRoundTrip(t *testing.T) {
	for _, count := range SupportedWordCounts {
		m, err := Generate(count)
		if err != nil {
			t.Fatalf("Generate(%d) error = %v", count, err)
		}
		if m.WordCount() != count {
			t.Errorf("Generate(%d) word count = %d", count, m.WordCount())
		}
		if got := len(m.Entropy()); got != entropyBits[count]/8 {
			t.Errorf("Generate(%d) entropy = %d bytes, want %d", count, got, entropyBits[count]/8)
		}

		back, err := Validate(m.String())
		if err != nil {
			t.Fatalf("Validate(Generate(%d)) error = %v", count, err)
		}
		if !bytes.Equal(back.Entropy(), m.Entropy()) {
			t.Errorf("Validate(Generate(%d)) entropy mismatch", count)
		}
	}
}

func TestGenerateFromDeterministicSource(t *testing.T) {
	m, err := GenerateFrom(bytes.NewReader(make([]byte, 16)), 12)
	if err != nil {
		t.Fatalf("GenerateFrom() error = %v", err)
	}
	if m.String() != testMnemonic12 {
		t.Errorf("GenerateFrom(zero entropy) = %q, want %q", m.String(), testMnemonic12)
	}
}

func TestGenerateErrors(t *testing.T) {
	if _, err := Generate(18); !errors.Is(err, ErrUnsupportedWordCount) {
		t.Errorf("Generate(18) error = %v, want ErrUnsupportedWordCount", err)
	}

	if _, err := GenerateFrom(failingReader{}, 24); !errors.Is(err, ErrRngUnavailable) {
		t.Errorf("GenerateFrom(failing) error = %v, want ErrRngUnavailable", err)
	}

	short := io.LimitReader(bytes.NewReader(make([]byte, 64)), 8)
	if _, err := GenerateFrom(short, 12); !errors.Is(err, ErrRngUnavailable) {
		t.Errorf("GenerateFrom(short) error = %v, want ErrRngUnavailable", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name       string
		phrase     string
		wantReason Reason
	}{
		{name: "valid 12 words", phrase: testMnemonic12},
		{name: "valid 24 words", phrase: testMnemonic24},
		{name: "mixed case and spacing", phrase: "  ABANDON abandon\tabandon abandon abandon abandon abandon abandon abandon abandon abandon About \n"},
		{name: "empty", phrase: "", wantReason: ReasonWordCount},
		{name: "11 words", phrase: strings.Repeat("abandon ", 10) + "about", wantReason: ReasonWordCount},
		{name: "18 words", phrase: strings.Repeat("abandon ", 17) + "agent", wantReason: ReasonWordCount},
		{name: "unknown word", phrase: strings.Replace(testMnemonic12, "about", "aboot", 1), wantReason: ReasonUnknownWords},
		{name: "bad checksum", phrase: strings.TrimSpace(strings.Repeat("abandon ", 12)), wantReason: ReasonChecksum},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := Validate(tt.phrase)
			if tt.wantReason == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v", err)
				}
				if m.String() != Normalize(tt.phrase) {
					t.Errorf("Validate() = %q, want normalized %q", m.String(), Normalize(tt.phrase))
				}
				return
			}

			if !errors.Is(err, ErrInvalidMnemonic) {
				t.Fatalf("Validate() error = %v, want ErrInvalidMnemonic", err)
			}
			var ime *InvalidMnemonicError
			if !errors.As(err, &ime) {
				t.Fatalf("Validate() error type = %T, want *InvalidMnemonicError", err)
			}
			if ime.Reason != tt.wantReason {
				t.Errorf("Validate() reason = %s, want %s", ime.Reason, tt.wantReason)
			}
		})
	}
}

func TestValidateReportsEveryUnknownWord(t *testing.T) {
	words := strings.Fields(testMnemonic12)
	words[2] = "bitcoin"
	words[9] = "cardano"

	_, err := Validate(strings.Join(words, " "))

	var ime *InvalidMnemonicError
	if !errors.As(err, &ime) {
		t.Fatalf("Validate() error = %v, want *InvalidMnemonicError", err)
	}
	want := []UnknownWord{{Position: 3, Word: "bitcoin"}, {Position: 10, Word: "cardano"}}
	if len(ime.Unknown) != len(want) {
		t.Fatalf("unknown = %v, want %v", ime.Unknown, want)
	}
	for i := range want {
		if ime.Unknown[i] != want[i] {
			t.Errorf("unknown[%d] = %v, want %v", i, ime.Unknown[i], want[i])
		}
	}
	if !strings.Contains(err.Error(), `#3 "bitcoin"`) || !strings.Contains(err.Error(), `#10 "cardano"`) {
		t.Errorf("error message %q does not name failing words", err.Error())
	}
}

// Every single-word substitution of a fixed phrase is checked. A substitute
// passes only when it happens to satisfy the checksum, and then it always
// encodes different entropy. The accepted counts are fixed by the phrase.
func TestSingleWordSubstitutionIsCaught(t *testing.T) {
	tests := []struct {
		phrase       string
		wantAccepted int
	}{
		{phrase: testMnemonic12, wantAccepted: 1495},
		{phrase: testMnemonic24, wantAccepted: 179},
	}

	for _, tt := range tests {
		base, err := Validate(tt.phrase)
		if err != nil {
			t.Fatalf("Validate(base) error = %v", err)
		}
		words := base.Words()

		accepted, total := 0, 0
		for pos := range words {
			original := words[pos]
			for _, candidate := range wordlists.English {
				if candidate == original {
					continue
				}
				words[pos] = candidate
				total++

				m, err := Validate(strings.Join(words, " "))
				if err == nil {
					accepted++
					if bytes.Equal(m.Entropy(), base.Entropy()) {
						t.Fatalf("substitution %d=%q kept the same entropy", pos, candidate)
					}
					continue
				}
				var ime *InvalidMnemonicError
				if !errors.As(err, &ime) || ime.Reason != ReasonChecksum {
					t.Fatalf("substitution %d=%q error = %v, want bad checksum", pos, candidate, err)
				}
			}
			words[pos] = original
		}

		if total != len(words)*2047 {
			t.Errorf("%d words: total substitutions = %d", len(words), total)
		}
		if accepted != tt.wantAccepted {
			t.Errorf("%d words: accepted substitutions = %d, want %d", len(words), accepted, tt.wantAccepted)
		}
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"   ", ""},
		{"Abandon  ABOUT", "abandon about"},
		{"\tone\n two  three ", "one two three"},
	}

	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFromEntropy(t *testing.T) {
	m, err := FromEntropy(make([]byte, 32))
	if err != nil {
		t.Fatalf("FromEntropy() error = %v", err)
	}
	if m.String() != testMnemonic24 {
		t.Errorf("FromEntropy(32 zero bytes) = %q", m.String())
	}

	if _, err := FromEntropy(make([]byte, 24)); !errors.Is(err, ErrUnsupportedWordCount) {
		t.Errorf("FromEntropy(24 bytes) error = %v, want ErrUnsupportedWordCount", err)
	}
}

func TestZero(t *testing.T) {
	m, err := FromEntropy(bytes.Repeat([]byte{0xab}, 16))
	if err != nil {
		t.Fatal(err)
	}
	entropy := m.entropy

	m.Zero()

	if !m.IsZero() {
		t.Error("IsZero() = false after Zero()")
	}
	for i, b := range entropy {
		if b != 0 {
			t.Fatalf("entropy byte %d = %#x after Zero()", i, b)
		}
	}
}
