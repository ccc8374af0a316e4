package signer

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
)

// Message encodings accepted by DecodeMessage.
const (
	EncodingUTF8   = "utf8"
	EncodingHex    = "hex"
	EncodingBase64 = "base64"
)

// DecodeMessage turns a textual message into the bytes to sign. An empty
// encoding means utf8.
func DecodeMessage(msg, encoding string) ([]byte, error) {
	var (
		b   []byte
		err error
	)
	switch encoding {
	case "", EncodingUTF8:
		b = []byte(msg)
	case EncodingHex:
		b, err = hex.DecodeString(msg)
	case EncodingBase64:
		b, err = base64.StdEncoding.DecodeString(msg)
	default:
		return nil, fmt.Errorf("unknown message encoding %q", encoding)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s message: %w", encoding, err)
	}
	return b, nil
}
