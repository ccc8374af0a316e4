package handlers

import (
	"time"

	"github.com/Fantasim/hdada/internal/config"
	"github.com/Fantasim/hdada/internal/db"
	"github.com/Fantasim/hdada/internal/wallet"
)

// Deps holds the collaborators shared by the API handlers.
type Deps struct {
	DB          *db.DB
	Config      *config.Config
	Keys        *wallet.KeyService
	SignLimiter *RateLimiter

	// Now defaults to time.Now; tests pin it.
	Now func() time.Time
}

func (d *Deps) now() time.Time {
	if d.Now != nil {
		return d.Now().UTC()
	}
	return time.Now().UTC()
}
