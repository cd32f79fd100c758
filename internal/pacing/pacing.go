// Package pacing computes jittered delays between successive requests.
package pacing

import (
	"context"
	"math"
	"math/rand/v2"
	"sync"
	"time"
)

const (
	// DefaultSpikeProbability is the chance that a delay is doubled
	DefaultSpikeProbability = 0.15

	jitterLow  = 0.8
	jitterSpan = 0.8
)

// Source yields uniform floats in [0, 1)
type Source interface {
	Float64() float64
}

// Policy draws delays of base*U, U uniform in [0.8, 1.6), doubled with
// probability SpikeProbability.
type Policy struct {
	spikeProbability float64
	src              Source
	mu               sync.Mutex
}

// New creates a Policy. A nil src uses a time-seeded PCG generator.
func New(spikeProbability float64, src Source) *Policy {
	if spikeProbability < 0 {
		spikeProbability = 0
	}
	if spikeProbability > 1 {
		spikeProbability = 1
	}
	if src == nil {
		seed := uint64(time.Now().UnixNano())
		src = rand.New(rand.NewPCG(seed, seed>>1|1))
	}
	return &Policy{
		spikeProbability: spikeProbability,
		src:              src,
	}
}

// SpikeProbability returns the configured spike probability
func (p *Policy) SpikeProbability() float64 {
	return p.spikeProbability
}

// ComputeDelay returns a jittered delay around base
func (p *Policy) ComputeDelay(base time.Duration) time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()

	baseMs := float64(base.Milliseconds())
	delayMs := math.Round(baseMs * (jitterLow + p.src.Float64()*jitterSpan))
	// rounding must not reach the exclusive upper bound
	if upper := baseMs * (jitterLow + jitterSpan); baseMs > 0 && delayMs >= upper {
		delayMs = math.Ceil(upper) - 1
	}
	if p.src.Float64() < p.spikeProbability {
		delayMs = math.Round(delayMs * 2)
	}
	return time.Duration(delayMs) * time.Millisecond
}

// Wait suspends the caller for d or until ctx is done
func Wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
