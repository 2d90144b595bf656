package memory

import (
	"context"
	"sort"

	"github.com/ndavault/ndavault/pkg/storage"
)

type accessStore struct{ s *Store }

func (a *accessStore) Create(ctx context.Context, access *storage.Access) error {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()

	a.s.accesses = append(a.s.accesses, *access)
	return nil
}

// ListByOwner builds the same outer-join-shaped projection the
// Postgres implementation produces via SQL, by walking the three
// in-memory collections once.
func (a *accessStore) ListByOwner(ctx context.Context, ownerID string) ([]storage.AuditRow, error) {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()

	var rows []storage.AuditRow
	for _, proc := range a.s.processes {
		if proc.OwnerID != ownerID {
			continue
		}

		matched := false
		for _, access := range a.s.accesses {
			if access.ProcessID != proc.ID {
				continue
			}
			matched = true

			accessID := access.ID
			partnerID := access.PartnerID
			accessedAt := access.AccessedAt
			var username *string
			if u, ok := a.s.users[access.PartnerID]; ok {
				uname := u.Username
				username = &uname
			}

			rows = append(rows, storage.AuditRow{
				AccessID:           &accessID,
				ProcessID:          proc.ID,
				PartnerID:          &partnerID,
				AccessedAt:         &accessedAt,
				ProcessTitle:       proc.Title,
				ProcessDescription: proc.Description,
				ProcessStatus:      proc.Status,
				PartnerUsername:    username,
			})
		}

		if !matched {
			rows = append(rows, storage.AuditRow{
				ProcessID:          proc.ID,
				ProcessTitle:       proc.Title,
				ProcessDescription: proc.Description,
				ProcessStatus:      proc.Status,
			})
		}
	}

	sort.Slice(rows, func(i, j int) bool {
		ti, tj := rows[i].AccessedAt, rows[j].AccessedAt
		if ti == nil {
			return false
		}
		if tj == nil {
			return true
		}
		return ti.After(*tj)
	})
	return rows, nil
}
