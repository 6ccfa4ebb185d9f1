package resilience

import (
	"sync"
	"time"

	"github.com/rotisserie/eris"
)

// ErrCircuitOpen is returned when a call is rejected because the breaker is
// open. The enrichment cache treats it like any other provider failure and
// falls back, so a dead provider costs one failed call per reset window
// instead of one per location.
var ErrCircuitOpen = eris.New("resilience: circuit open")

// Breaker is a minimal consecutive-failure circuit breaker. After Threshold
// consecutive failures it rejects calls for ResetAfter, then lets a single
// probe through.
type Breaker struct {
	Threshold  int
	ResetAfter time.Duration

	mu       sync.Mutex
	failures int
	openedAt time.Time
	now      func() time.Time
}

// NewBreaker creates a Breaker. Non-positive arguments take the defaults of
// 5 failures and a 30s reset window.
func NewBreaker(threshold int, resetAfter time.Duration) *Breaker {
	if threshold <= 0 {
		threshold = 5
	}
	if resetAfter <= 0 {
		resetAfter = 30 * time.Second
	}
	return &Breaker{Threshold: threshold, ResetAfter: resetAfter, now: time.Now}
}

// WithNow sets a fixed clock for testing.
func (b *Breaker) WithNow(now func() time.Time) *Breaker {
	b.now = now
	return b
}

// Allow reports whether a call may proceed. While open, only the first call
// after ResetAfter is admitted as a probe.
func (b *Breaker) Allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.failures < b.Threshold {
		return nil
	}
	if b.now().Sub(b.openedAt) >= b.ResetAfter {
		// Probe: count it as the threshold-th failure until Record says otherwise.
		b.openedAt = b.now()
		return nil
	}
	return ErrCircuitOpen
}

// Record feeds a call outcome into the breaker.
func (b *Breaker) Record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err == nil {
		b.failures = 0
		return
	}
	b.failures++
	if b.failures == b.Threshold {
		b.openedAt = b.now()
	}
}
