package memory

import (
	"context"

	"github.com/ndavault/ndavault/pkg/storage"
)

type shareStore struct{ s *Store }

func (sh *shareStore) Create(ctx context.Context, share *storage.Share) error {
	sh.s.mu.Lock()
	defer sh.s.mu.Unlock()

	sh.s.shares = append(sh.s.shares, *share)
	return nil
}

func (sh *shareStore) ExistsShare(ctx context.Context, processID, partnerPublicKey string) (bool, error) {
	sh.s.mu.Lock()
	defer sh.s.mu.Unlock()

	for _, share := range sh.s.shares {
		if share.ProcessID == processID && share.PartnerPublicKey == partnerPublicKey {
			return true, nil
		}
	}
	return false, nil
}
