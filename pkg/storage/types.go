package storage

import "time"

// ProcessStatus is the enum driving the process lifecycle state
// machine (§4.11).
type ProcessStatus string

const (
	ProcessActive    ProcessStatus = "active"
	ProcessArchived  ProcessStatus = "archived"
	ProcessCompleted ProcessStatus = "completed"
	ProcessDeleted   ProcessStatus = "deleted"
)

// User is the identity of a principal (§3).
type User struct {
	ID               string
	Username         string
	DisplayName      string
	PasswordDigest   string
	LedgerPublicKey  string
	LedgerSecretKey  string
	Roles            []string
	CreatedAt        time.Time
}

// HasRole reports whether role is among u.Roles.
func (u *User) HasRole(role string) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Process is a confidential artifact owned by exactly one user (§3).
// SealedBody and ContentKey never cross an external boundary (I2).
type Process struct {
	ID          string
	OwnerID     string
	Title       string
	Description string
	SealedBody  string
	ContentKey  []byte
	Status      ProcessStatus
	CreatedAt   time.Time
}

// Share is a grant from an owner to a partner, anchored on the
// ledger (§3).
type Share struct {
	ID                string
	ProcessID         string
	PartnerPublicKey  string
	LedgerTxnHash     string
	SharedAt          time.Time
}

// Access is an audit event recording a successful decryption (§3).
// Append-only; never deleted.
type Access struct {
	ID         string
	ProcessID  string
	PartnerID  string
	AccessedAt time.Time
}

// AuditRow is the flattened join projection §4.9 describes: one row
// per (process_id, access_id) pair for an owner's processes, plus one
// row per process with no accesses yet. Pointer fields are nullable.
type AuditRow struct {
	AccessID            *string
	ProcessID           string
	PartnerID           *string
	AccessedAt          *time.Time
	ProcessTitle        string
	ProcessDescription  string
	ProcessStatus       ProcessStatus
	PartnerUsername     *string
}
