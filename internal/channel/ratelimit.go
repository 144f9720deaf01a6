package channel

import (
	"context"

	"golang.org/x/time/rate"
)

// rateLimited spaces provider calls with a token bucket, the way chat
// platforms throttle bot clients.
type rateLimited struct {
	next    Provider
	limiter *rate.Limiter
}

// RateLimited wraps p so that calls wait for a token from a bucket refilled
// at rps per second with the given burst. rps <= 0 returns p unchanged.
func RateLimited(p Provider, rps float64, burst int) Provider {
	if rps <= 0 {
		return p
	}
	if burst < 1 {
		burst = 1
	}
	return &rateLimited{next: p, limiter: rate.NewLimiter(rate.Limit(rps), burst)}
}

func (r *rateLimited) ListChannels(ctx context.Context, workspace string) ([]Ref, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return r.next.ListChannels(ctx, workspace)
}

func (r *rateLimited) CreateChannel(ctx context.Context, workspace string, spec CreateSpec) (*Ref, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return r.next.CreateChannel(ctx, workspace, spec)
}

func (r *rateLimited) ListRecent(ctx context.Context, ch *Ref, limit int) ([]Record, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return r.next.ListRecent(ctx, ch, limit)
}

func (r *rateLimited) Append(ctx context.Context, ch *Ref, body string) (*Record, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return r.next.Append(ctx, ch, body)
}

func (r *rateLimited) Delete(ctx context.Context, ch *Ref, recordID string) error {
	if err := r.limiter.Wait(ctx); err != nil {
		return err
	}
	return r.next.Delete(ctx, ch, recordID)
}
