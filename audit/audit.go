// Package audit implements C9: per-owner access notifications built
// directly from C6's outer-join projection.
package audit

import (
	"context"
	"time"

	"github.com/ndavault/ndavault/apierr"
	"github.com/ndavault/ndavault/pkg/storage"
)

// Notification is one row of an owner's access history: a process
// with no recorded access yet has nil AccessID/AccessedAt/Partner.
type Notification struct {
	ProcessID          string                `json:"process_id"`
	ProcessTitle       string                `json:"process_title"`
	ProcessDescription string                `json:"process_description"`
	ProcessStatus      storage.ProcessStatus `json:"process_status"`
	AccessID           *string               `json:"access_id,omitempty"`
	AccessedAt         *time.Time            `json:"accessed_at,omitempty"`
	Partner            *string               `json:"partner,omitempty"`
}

// Service implements C9.
type Service struct {
	store storage.Store
}

// New constructs an audit Service over its dependency.
func New(store storage.Store) *Service {
	return &Service{store: store}
}

// List implements §4.9: one row per access of every process owned by
// the caller, plus one row for each such process with no access yet,
// newest access first.
func (s *Service) List(ctx context.Context, ownerID string) ([]Notification, error) {
	rows, err := s.store.Accesses().ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, apierr.Wrap(apierr.Internal, "list accesses", err)
	}

	notifications := make([]Notification, 0, len(rows))
	for _, row := range rows {
		notifications = append(notifications, Notification{
			ProcessID:          row.ProcessID,
			ProcessTitle:       row.ProcessTitle,
			ProcessDescription: row.ProcessDescription,
			ProcessStatus:      row.ProcessStatus,
			AccessID:           row.AccessID,
			AccessedAt:         row.AccessedAt,
			Partner:            row.PartnerUsername,
		})
	}
	return notifications, nil
}
