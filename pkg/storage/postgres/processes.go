package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/ndavault/ndavault/apierr"
	"github.com/ndavault/ndavault/pkg/storage"
)

// ProcessStore persists storage.Process rows.
type ProcessStore struct {
	db dbtx
}

func (s *ProcessStore) Create(ctx context.Context, p *storage.Process) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO processes (id, owner_id, title, description, sealed_body, content_key, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, p.ID, p.OwnerID, p.Title, p.Description, p.SealedBody, p.ContentKey, p.Status, p.CreatedAt)
	if err != nil {
		return apierr.Wrap(apierr.Internal, "create process", err)
	}
	return nil
}

func (s *ProcessStore) ListByOwner(ctx context.Context, ownerID string) ([]*storage.Process, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, owner_id, title, description, sealed_body, content_key, status, created_at
		FROM processes WHERE owner_id = $1
		ORDER BY created_at DESC
	`, ownerID)
	if err != nil {
		return nil, apierr.Wrap(apierr.Internal, "list processes by owner", err)
	}
	defer rows.Close()

	var result []*storage.Process
	for rows.Next() {
		p, err := scanProcess(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, apierr.Wrap(apierr.Internal, "iterate processes", err)
	}
	return result, nil
}

func (s *ProcessStore) FindByID(ctx context.Context, id string) (*storage.Process, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, owner_id, title, description, sealed_body, content_key, status, created_at
		FROM processes WHERE id = $1
	`, id)
	p, err := scanProcess(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return p, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProcess(row rowScanner) (*storage.Process, error) {
	p := &storage.Process{}
	err := row.Scan(&p.ID, &p.OwnerID, &p.Title, &p.Description, &p.SealedBody, &p.ContentKey, &p.Status, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, apierr.Wrap(apierr.Internal, "scan process", err)
	}
	return p, nil
}
