package health

import "context"

// storagePinger is the slice of pkg/storage.Store a storage check needs.
type storagePinger interface {
	Ping(ctx context.Context) error
}

// revocationRegistry is the slice of auth.Registry a revocation check
// needs. Its Size method never fails; the check exists for symmetry
// with the other two so every dependency of the service is visible in
// one place, not because it can actually be unhealthy.
type revocationRegistry interface {
	Size() int
}

// ledgerPinger is the slice of ledger.Client a reachability check needs.
type ledgerPinger interface {
	Ping(ctx context.Context) error
}

// DefaultChecks builds the three checks this service exposes: storage
// reachability (critical — a down database means the service cannot
// serve anything), revocation registry presence (always healthy, kept
// for symmetry), and ledger network reachability (best-effort; a down
// ledger degrades sharing/anchoring but leaves everything else usable).
func DefaultChecks(store storagePinger, revocations revocationRegistry, ledgerClient ledgerPinger) []Check {
	return []Check{
		{
			Name:     "storage",
			Critical: true,
			Run:      store.Ping,
		},
		{
			Name:     "revocation_registry",
			Critical: false,
			Run: func(ctx context.Context) error {
				revocations.Size()
				return nil
			},
		},
		{
			Name:     "ledger",
			Critical: false,
			Run:      ledgerClient.Ping,
		},
	}
}
