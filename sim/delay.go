package sim

import (
	"context"
	"math/rand"
	"time"

	"github.com/benbjohnson/clock"
)

// sleep waits d on clk, returning early with ctx's error if ctx ends first.
// A non-positive d returns immediately unless ctx is already done.
func sleep(ctx context.Context, clk clock.Clock, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d <= 0 {
		return nil
	}
	t := clk.Timer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// jittered spreads d uniformly over [d*(1-frac), d*(1+frac)].
func jittered(rng *rand.Rand, d time.Duration, frac float64) time.Duration {
	if frac <= 0 || d <= 0 || rng == nil {
		return d
	}
	scale := 1 + frac*(2*rng.Float64()-1)
	return time.Duration(float64(d) * scale)
}
