package keystore

import "errors"

var (
	ErrWalletExists       = errors.New("wallet already exists")
	ErrWalletNotFound     = errors.New("wallet not found")
	ErrWrongPassword      = errors.New("wrong password or corrupted keystore")
	ErrInvalidName        = errors.New("invalid wallet name")
	ErrUnsupportedVersion = errors.New("unsupported keystore version")
	ErrMalformed          = errors.New("malformed encrypted payload")
)
