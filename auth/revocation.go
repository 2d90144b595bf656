package auth

import (
	"sync"
	"time"

	"github.com/ndavault/ndavault/internal/metrics"
)

// defaultSweepInterval is the period between automatic sweeps absent
// an explicit configuration (§6.4).
const defaultSweepInterval = 60 * time.Minute

// Registry is C5: a thread-safe blacklist mapping token_id to
// expires_at, reaped on a ticker. Structurally grounded on the
// teacher's core/session.Manager: a mutex-guarded map plus a
// cleanup ticker and a stop channel, retargeted from Session values
// to bare expiry timestamps.
type Registry struct {
	mu      sync.RWMutex
	revoked map[string]time.Time

	sweepInterval time.Duration
	ticker        *time.Ticker
	stop          chan struct{}
	stopOnce      sync.Once
}

// NewRegistry constructs a Registry and starts its background
// reaper immediately. sweepInterval <= 0 selects the 60-minute
// default.
func NewRegistry(sweepInterval time.Duration) *Registry {
	if sweepInterval <= 0 {
		sweepInterval = defaultSweepInterval
	}

	r := &Registry{
		revoked:       make(map[string]time.Time),
		sweepInterval: sweepInterval,
		ticker:        time.NewTicker(sweepInterval),
		stop:          make(chan struct{}),
	}
	go r.runSweeper()
	return r
}

// Revoke inserts or overwrites the entry for tokenID.
func (r *Registry) Revoke(tokenID string, expiresAt time.Time) {
	r.mu.Lock()
	r.revoked[tokenID] = expiresAt
	size := len(r.revoked)
	r.mu.Unlock()

	metrics.RevocationsRecorded.Inc()
	metrics.RevocationRegistrySize.Set(float64(size))
}

// IsRevoked reports whether tokenID is present. An entry past its
// expiry may be reported either way; both are safe since the
// credential is rejected elsewhere on cryptographic expiry.
func (r *Registry) IsRevoked(tokenID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.revoked[tokenID]
	return ok
}

// Sweep deletes every entry with expires_at <= now and returns the
// count removed. Safe to call concurrently with Revoke/IsRevoked.
func (r *Registry) Sweep() int {
	now := time.Now().UTC()

	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for tokenID, expiresAt := range r.revoked {
		if !expiresAt.After(now) {
			delete(r.revoked, tokenID)
			removed++
		}
	}
	metrics.RevocationRegistrySize.Set(float64(len(r.revoked)))
	return removed
}

// Size returns the current number of entries, for observability.
func (r *Registry) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.revoked)
}

// Close stops the background reaper. It does not leak: the ticker
// is stopped and the goroutine exits within one tick. Safe to call
// more than once.
func (r *Registry) Close() {
	r.stopOnce.Do(func() {
		close(r.stop)
		r.ticker.Stop()
	})
}

func (r *Registry) runSweeper() {
	for {
		select {
		case <-r.ticker.C:
			r.Sweep()
		case <-r.stop:
			return
		}
	}
}
