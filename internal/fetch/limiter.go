package fetch

import (
	"context"

	"golang.org/x/time/rate"
)

// Pacer spaces requests out process-wide. Exactly one pacer is shared by
// everything that touches the network in a run, so the aggregate request
// rate stays bounded no matter how many sources are configured.
type Pacer interface {
	Wait(ctx context.Context) error
}

// NewPacer returns a pacer enforcing at most rps requests per second.
// rps <= 0 disables pacing entirely.
func NewPacer(rps float64) Pacer {
	if rps <= 0 {
		return noopPacer{}
	}
	return &ratePacer{limiter: rate.NewLimiter(rate.Limit(rps), 1)}
}

type ratePacer struct {
	limiter *rate.Limiter
}

func (p *ratePacer) Wait(ctx context.Context) error {
	return p.limiter.Wait(ctx)
}

type noopPacer struct{}

func (noopPacer) Wait(context.Context) error { return nil }
