package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/ndavault/ndavault/apierr"
	"github.com/ndavault/ndavault/pkg/storage"
)

// UserStore persists storage.User rows. Grounded on the teacher's
// pkg/storage/postgres SessionStore: parameterized SQL, pgx.ErrNoRows
// mapped to a typed "not found" result.
type UserStore struct {
	db dbtx
}

func (s *UserStore) Create(ctx context.Context, user *storage.User) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO users (id, username, display_name, password_digest, ledger_public_key, ledger_secret_key, roles, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, user.ID, user.Username, user.DisplayName, user.PasswordDigest,
		user.LedgerPublicKey, user.LedgerSecretKey, user.Roles, user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return apierr.Wrap(apierr.Conflict, "username already exists", err)
		}
		return apierr.Wrap(apierr.Internal, "create user", err)
	}
	return nil
}

func (s *UserStore) FindByUsername(ctx context.Context, username string) (*storage.User, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, username, display_name, password_digest, ledger_public_key, ledger_secret_key, roles, created_at
		FROM users WHERE username = $1
	`, username)
	return scanUser(row)
}

func (s *UserStore) FindByID(ctx context.Context, id string) (*storage.User, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, username, display_name, password_digest, ledger_public_key, ledger_secret_key, roles, created_at
		FROM users WHERE id = $1
	`, id)
	return scanUser(row)
}

func scanUser(row pgx.Row) (*storage.User, error) {
	u := &storage.User{}
	err := row.Scan(&u.ID, &u.Username, &u.DisplayName, &u.PasswordDigest,
		&u.LedgerPublicKey, &u.LedgerSecretKey, &u.Roles, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, apierr.Wrap(apierr.Internal, "scan user", err)
	}
	return u, nil
}

// isUniqueViolation reports whether err is a Postgres unique
// constraint violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	var pgErr interface{ SQLState() string }
	if errors.As(err, &pgErr) {
		return pgErr.SQLState() == "23505"
	}
	return false
}
