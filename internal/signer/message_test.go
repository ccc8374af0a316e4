package signer

import (
	"bytes"
	"testing"
)

func TestDecodeMessage(t *testing.T) {
	tests := []struct {
		name     string
		msg      string
		encoding string
		want     []byte
		wantErr  bool
	}{
		{name: "default utf8", msg: "hello", want: []byte("hello")},
		{name: "explicit utf8", msg: "héllo", encoding: EncodingUTF8, want: []byte("héllo")},
		{name: "hex", msg: "68656c6c6f", encoding: EncodingHex, want: []byte("hello")},
		{name: "base64", msg: "aGVsbG8=", encoding: EncodingBase64, want: []byte("hello")},
		{name: "bad hex", msg: "zz", encoding: EncodingHex, wantErr: true},
		{name: "bad base64", msg: "%%%", encoding: EncodingBase64, wantErr: true},
		{name: "unknown encoding", msg: "hello", encoding: "rot13", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeMessage(tt.msg, tt.encoding)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("DecodeMessage(%q, %q) succeeded, want error", tt.msg, tt.encoding)
				}
				return
			}
			if err != nil {
				t.Fatalf("DecodeMessage(%q, %q) error: %v", tt.msg, tt.encoding, err)
			}
			if !bytes.Equal(got, tt.want) {
				t.Errorf("DecodeMessage(%q, %q) = %x, want %x", tt.msg, tt.encoding, got, tt.want)
			}
		})
	}
}
