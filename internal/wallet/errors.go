package wallet

import "errors"

var (
	ErrInvalidCount = errors.New("invalid address count")
	ErrEmptyBundle  = errors.New("bundle has no addresses")
)
