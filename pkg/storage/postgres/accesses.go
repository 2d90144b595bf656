package postgres

import (
	"context"

	"github.com/ndavault/ndavault/apierr"
	"github.com/ndavault/ndavault/pkg/storage"
)

// AccessStore persists storage.Access rows, append-only, and serves
// the audit projection (§4.9).
type AccessStore struct {
	db dbtx
}

func (s *AccessStore) Create(ctx context.Context, access *storage.Access) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO accesses (id, process_id, partner_id, accessed_at)
		VALUES ($1, $2, $3, $4)
	`, access.ID, access.ProcessID, access.PartnerID, access.AccessedAt)
	if err != nil {
		return apierr.Wrap(apierr.Internal, "create access", err)
	}
	return nil
}

// ListByOwner returns the flattened join projection in one query: a
// left join from processes to accesses to users, so a process with no
// accesses yet still produces one row with null access-side fields,
// and a removed partner still produces one row with a null username.
// No N+1 lookups.
func (s *AccessStore) ListByOwner(ctx context.Context, ownerID string) ([]storage.AuditRow, error) {
	rows, err := s.db.Query(ctx, `
		SELECT a.id, p.id, a.partner_id, a.accessed_at, p.title, p.description, p.status, u.username
		FROM processes p
		LEFT JOIN accesses a ON a.process_id = p.id
		LEFT JOIN users u ON u.id = a.partner_id
		WHERE p.owner_id = $1
		ORDER BY a.accessed_at DESC NULLS LAST
	`, ownerID)
	if err != nil {
		return nil, apierr.Wrap(apierr.Internal, "list accesses by owner", err)
	}
	defer rows.Close()

	var result []storage.AuditRow
	for rows.Next() {
		var row storage.AuditRow
		if err := rows.Scan(&row.AccessID, &row.ProcessID, &row.PartnerID, &row.AccessedAt,
			&row.ProcessTitle, &row.ProcessDescription, &row.ProcessStatus, &row.PartnerUsername); err != nil {
			return nil, apierr.Wrap(apierr.Internal, "scan audit row", err)
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, apierr.Wrap(apierr.Internal, "iterate audit rows", err)
	}
	return result, nil
}
