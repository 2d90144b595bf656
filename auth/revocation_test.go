package auth

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRevokeAndIsRevoked(t *testing.T) {
	r := NewRegistry(time.Hour)
	defer r.Close()

	assert.False(t, r.IsRevoked("jti-1"))
	r.Revoke("jti-1", time.Now().Add(time.Hour))
	assert.True(t, r.IsRevoked("jti-1"))
}

func TestSweepRemovesExpiredEntriesOnly(t *testing.T) {
	r := NewRegistry(time.Hour)
	defer r.Close()

	r.Revoke("expired", time.Now().Add(-time.Second))
	r.Revoke("live", time.Now().Add(time.Hour))
	assert.Equal(t, 2, r.Size())

	removed := r.Sweep()
	assert.Equal(t, 1, removed)
	assert.Equal(t, 1, r.Size())
	assert.False(t, r.IsRevoked("expired"))
	assert.True(t, r.IsRevoked("live"))
}

func TestSweepSafeUnderConcurrency(t *testing.T) {
	r := NewRegistry(time.Hour)
	defer r.Close()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(3)
		go func(i int) {
			defer wg.Done()
			r.Revoke("jti", time.Now().Add(time.Duration(i)*time.Millisecond))
		}(i)
		go func() {
			defer wg.Done()
			r.IsRevoked("jti")
		}()
		go func() {
			defer wg.Done()
			r.Sweep()
		}()
	}
	wg.Wait()
}

func TestCloseStopsReaperAndIsIdempotent(t *testing.T) {
	r := NewRegistry(10 * time.Millisecond)
	r.Close()
	r.Close()

	select {
	case _, open := <-r.stop:
		assert.False(t, open, "stop channel should be closed")
	default:
		t.Fatal("Close did not signal the reaper to stop")
	}
}
