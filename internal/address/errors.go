package address

import "errors"

var (
	ErrInvalidAddress    = errors.New("invalid address")
	ErrNetworkMismatch   = errors.New("network mismatch")
	ErrNoStakeCredential = errors.New("address has no stake credential")
	ErrUnknownNetwork    = errors.New("unknown network")
)
