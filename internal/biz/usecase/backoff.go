package usecase

import (
	"math"
	"math/rand"
	"time"
)

// Backoff computes retry delays: exponential base with bounded jitter,
// capped at Max. Delays are non-decreasing up to the cap because the jitter
// added to attempt n is always smaller than the base growth to attempt n+1.
type Backoff struct {
	Initial time.Duration
	Max     time.Duration

	rnd func() float64 // overridable in tests
}

// NewBackoff creates a backoff with the given initial delay and cap
func NewBackoff(initial, maxDelay time.Duration) *Backoff {
	return &Backoff{Initial: initial, Max: maxDelay, rnd: rand.Float64}
}

// Delay returns how long to wait before retry attempt n (1-indexed)
func (b *Backoff) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	base := float64(b.Initial) * math.Pow(2, float64(attempt-1))
	jitter := b.rnd() * base / 2
	d := time.Duration(base + jitter)
	if b.Max > 0 && d > b.Max {
		return b.Max
	}
	return d
}
