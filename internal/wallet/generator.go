package wallet

import (
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/Fantasim/hdada/internal/address"
	"github.com/Fantasim/hdada/internal/config"
	"github.com/Fantasim/hdada/internal/hdkey"
	"github.com/Fantasim/hdada/internal/models"
)

// ProgressCallback is called during address generation to report progress.
type ProgressCallback func(chain models.Chain, generated int, total int)

// progressEvery is how many addresses a chain derives between progress calls.
const progressEvery = 1000

// generateChain derives count base addresses under chainKey (an account's
// external or internal chain), all delegated to stake. Work is split into
// contiguous index chunks, one per worker; the first error stops every worker.
func generateChain(
	chainKey *hdkey.ExtendedPublicKey,
	chain models.Chain,
	count int,
	stake hdkey.PublicKey,
	network address.Network,
	numWorkers int,
	progress ProgressCallback,
) ([]models.BundleAddress, error) {
	if count == 0 {
		return []models.BundleAddress{}, nil
	}
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}

	addresses := make([]models.BundleAddress, count)
	var done atomic.Int64
	var firstErr atomic.Value

	var wg sync.WaitGroup
	chunkSize := (count + numWorkers - 1) / numWorkers

	for w := 0; w < numWorkers; w++ {
		chunkStart := w * chunkSize
		chunkEnd := chunkStart + chunkSize
		if chunkEnd > count {
			chunkEnd = count
		}
		if chunkStart >= count {
			break
		}

		wg.Add(1)
		go func(from, to int) {
			defer wg.Done()
			for i := from; i < to; i++ {
				// Stop early if another worker hit an error.
				if firstErr.Load() != nil {
					return
				}

				entry, err := deriveBundleAddress(chainKey, chain, uint32(i), stake, network)
				if err != nil {
					firstErr.CompareAndSwap(nil, fmt.Errorf("generate %s address at index %d: %w", chain, i, err))
					return
				}
				addresses[i] = entry

				if n := done.Add(1); progress != nil && n%progressEvery == 0 {
					progress(chain, int(n), count)
				}
			}
		}(chunkStart, chunkEnd)
	}

	wg.Wait()

	if errVal := firstErr.Load(); errVal != nil {
		return nil, errVal.(error)
	}
	if progress != nil && count%progressEvery != 0 {
		progress(chain, count, count)
	}

	return addresses, nil
}

func deriveBundleAddress(
	chainKey *hdkey.ExtendedPublicKey,
	chain models.Chain,
	index uint32,
	stake hdkey.PublicKey,
	network address.Network,
) (models.BundleAddress, error) {
	child, err := chainKey.DeriveChild(hdkey.Soft(index))
	if err != nil {
		return models.BundleAddress{}, fmt.Errorf("%w: %w", config.ErrKeyDerivation, err)
	}

	pub := child.PublicKey()
	addr, err := address.PaymentAddress(pub, &stake, network)
	if err != nil {
		return models.BundleAddress{}, err
	}

	return models.BundleAddress{
		Index:     index,
		Chain:     chain,
		Address:   addr.String(),
		PublicKey: pub.String(),
	}, nil
}
