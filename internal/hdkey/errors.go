package hdkey

import "errors"

var (
	ErrInvalidPath        = errors.New("invalid derivation path")
	ErrInvalidKey         = errors.New("invalid key material")
	ErrHardenedFromPublic = errors.New("hardened derivation requires private key")
)
