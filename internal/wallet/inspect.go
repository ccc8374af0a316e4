package wallet

import (
	"github.com/Fantasim/hdada/internal/address"
	"github.com/Fantasim/hdada/internal/models"
)

// InspectAddress decodes an address into its kind, network and credentials.
// Only base and reward addresses report a stake address.
func InspectAddress(addr address.Address) models.AddressInfo {
	info := models.AddressInfo{
		Address: addr.String(),
		Kind:    addr.Kind().String(),
		Network: models.NetworkMode(addr.Network().String()),
	}
	if cred, ok := addr.PaymentCredential(); ok {
		info.PaymentCredential = cred.String()
	}
	if cred, ok := addr.StakeCredential(); ok {
		info.StakeCredential = cred.String()
	}
	if stake, err := addr.StakeAddress(); err == nil {
		info.StakeAddress = stake.String()
	}
	return info
}
