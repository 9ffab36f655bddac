package exchange

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/latticeworks/dislocnet/internal/sim"
	"github.com/latticeworks/dislocnet/internal/topology"
)

// InMemory exchanges operation logs between domains hosted in one process.
// It broadcasts every domain's records to every other domain, applies them
// in source order, and clears the logs.
//
// Each destination domain is applied on its own goroutine: a domain
// exclusively owns its node state, so the fan-out needs no locking as long
// as domains do not share node objects — which in-process setups must not
// do, mirroring the address-space separation of a real multi-process job.
type InMemory struct{}

// Exchange delivers and applies all pending records, then clears every
// source log so the next cycle starts empty.
func (InMemory) Exchange(ctx context.Context, domains []*sim.Domain) error {
	// Snapshot before applying: Apply may append to a receiver's log (it
	// must not, but a snapshot keeps delivery well-defined regardless).
	pending := make([][]topology.Operation, len(domains))
	for i, d := range domains {
		ops := d.Log.Ops()
		pending[i] = append([]topology.Operation(nil), ops...)
	}

	g, ctx := errgroup.WithContext(ctx)
	for di, dst := range domains {
		g.Go(func() error {
			for si, ops := range pending {
				if si == di {
					continue
				}
				for _, op := range ops {
					if err := ctx.Err(); err != nil {
						return err
					}
					if err := Apply(dst, op); err != nil {
						return fmt.Errorf("apply %s from domain %d on domain %d: %w",
							op.Kind, domains[si].Rank, dst.Rank, err)
					}
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for _, d := range domains {
		d.Log.Clear()
	}
	return nil
}
