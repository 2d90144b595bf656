package postgres

import (
	"context"

	"github.com/ndavault/ndavault/apierr"
	"github.com/ndavault/ndavault/pkg/storage"
)

// ShareStore persists storage.Share rows. Uniqueness on
// (process_id, partner_public_key) is deliberately not enforced:
// repeated shares re-anchor and are allowed (§3).
type ShareStore struct {
	db dbtx
}

func (s *ShareStore) Create(ctx context.Context, share *storage.Share) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO shares (id, process_id, partner_public_key, ledger_txn_hash, shared_at)
		VALUES ($1, $2, $3, $4, $5)
	`, share.ID, share.ProcessID, share.PartnerPublicKey, share.LedgerTxnHash, share.SharedAt)
	if err != nil {
		return apierr.Wrap(apierr.Internal, "create share", err)
	}
	return nil
}

func (s *ShareStore) ExistsShare(ctx context.Context, processID, partnerPublicKey string) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM shares WHERE process_id = $1 AND partner_public_key = $2)
	`, processID, partnerPublicKey).Scan(&exists)
	if err != nil {
		return false, apierr.Wrap(apierr.Internal, "check share existence", err)
	}
	return exists, nil
}
