package health

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeStore struct{ err error }

func (f fakeStore) Ping(ctx context.Context) error { return f.err }

type fakeRegistry struct{ size int }

func (f fakeRegistry) Size() int { return f.size }

type fakeLedger struct{ err error }

func (f fakeLedger) Ping(ctx context.Context) error { return f.err }

func TestDefaultChecksAllHealthy(t *testing.T) {
	checks := DefaultChecks(fakeStore{}, fakeRegistry{size: 3}, fakeLedger{})
	registry := NewRegistry(time.Second, time.Minute, checks...)

	overall, statuses := registry.Run(context.Background())
	assert.Equal(t, OverallHealthy, overall)
	assert.Len(t, statuses, 3)
}

func TestDefaultChecksLedgerDownDegrades(t *testing.T) {
	checks := DefaultChecks(fakeStore{}, fakeRegistry{}, fakeLedger{err: errors.New("timeout")})
	registry := NewRegistry(time.Second, time.Minute, checks...)

	overall, _ := registry.Run(context.Background())
	assert.Equal(t, OverallDegraded, overall)
}

func TestDefaultChecksStorageDownFails(t *testing.T) {
	checks := DefaultChecks(fakeStore{err: errors.New("connection refused")}, fakeRegistry{}, fakeLedger{})
	registry := NewRegistry(time.Second, time.Minute, checks...)

	overall, _ := registry.Run(context.Background())
	assert.Equal(t, OverallUnhealthy, overall)
}
