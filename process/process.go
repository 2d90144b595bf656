// Package process implements C8: create/list/share/access on top of
// C1 (symmetric sealing), C3 (ledger anchoring), and C6 (persistence).
package process

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/google/uuid"

	"github.com/ndavault/ndavault/apierr"
	"github.com/ndavault/ndavault/crypto/cipher"
	"github.com/ndavault/ndavault/internal/metrics"
	"github.com/ndavault/ndavault/pkg/storage"
)

// ledgerAnchorer is the slice of *ledger.Client that Share needs.
type ledgerAnchorer interface {
	AnchorShare(ctx context.Context, senderSecret, recipientPublic, memo string) (string, error)
}

// memoPrefix is prepended to every process id to form the ledger memo
// for a share transaction (§6.3). Stellar text memos are capped at 28
// bytes, which is why process ids are a 16-hex-character id rather
// than a UUIDv4: len("NDA_SHARE:") + 16 == 26.
const memoPrefix = "NDA_SHARE:"

// Summary is the projection of a process returned to its owner: the
// sealed body and content key never cross the service boundary.
type Summary struct {
	ID          string              `json:"id"`
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Status      storage.ProcessStatus `json:"status"`
	CreatedAt   time.Time           `json:"created_at"`
}

// Service implements C8.
type Service struct {
	store  storage.Store
	ledger ledgerAnchorer
}

// New constructs a process Service over its dependencies.
func New(store storage.Store, ledgerClient ledgerAnchorer) *Service {
	return &Service{store: store, ledger: ledgerClient}
}

// Create implements §4.8.1: seal the body under a freshly generated
// content key and persist the sealed form alongside that key; the
// plaintext body never touches storage, and neither the sealed body
// nor the key is returned. caller is the authenticated principal; ownerID
// is the body's declared owner_id, which must match the caller and
// belong to a user holding the client role.
func (s *Service) Create(ctx context.Context, caller *storage.User, ownerID, title, description, body string) (result Summary, err error) {
	defer func() { recordOutcome("create", err) }()

	if caller.ID != ownerID || !caller.HasRole("client") {
		return Summary{}, apierr.New(apierr.Forbidden, "caller is not the declared client owner")
	}
	if title == "" || body == "" {
		return Summary{}, apierr.New(apierr.Malformed, "title and body are required")
	}

	key, err := cipher.GenerateKey()
	if err != nil {
		return Summary{}, err
	}
	sealed, err := cipher.Seal([]byte(body), key)
	if err != nil {
		return Summary{}, err
	}

	id, err := newProcessID()
	if err != nil {
		return Summary{}, apierr.Wrap(apierr.Internal, "generate process id", err)
	}

	proc := &storage.Process{
		ID:          id,
		OwnerID:     caller.ID,
		Title:       title,
		Description: description,
		SealedBody:  sealed,
		ContentKey:  key,
		Status:      storage.ProcessActive,
		CreatedAt:   time.Now().UTC(),
	}
	if err = s.store.Processes().Create(ctx, proc); err != nil {
		return Summary{}, err
	}

	return projectProcess(proc), nil
}

// List implements §4.8.2: every process owned by the calling user,
// newest first.
func (s *Service) List(ctx context.Context, caller *storage.User, ownerID string) ([]Summary, error) {
	if caller.ID != ownerID {
		return nil, apierr.New(apierr.Forbidden, "caller does not own this process list")
	}
	procs, err := s.store.Processes().ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, apierr.Wrap(apierr.Internal, "list processes", err)
	}
	summaries := make([]Summary, 0, len(procs))
	for _, p := range procs {
		summaries = append(summaries, projectProcess(p))
	}
	return summaries, nil
}

// Share implements §4.8.3: the owner grants a partner (identified by
// their ledger public key) access to a process, anchoring the grant
// on the ledger before it is persisted. The memo encodes which
// process was shared so the anchor is independently auditable.
func (s *Service) Share(ctx context.Context, owner *storage.User, ownerUsername, processID, partnerPublicKey string) (txnHash string, err error) {
	defer func() { recordOutcome("share", err) }()

	proc, err := s.store.Processes().FindByID(ctx, processID)
	if err != nil {
		return "", apierr.Wrap(apierr.Internal, "look up process", err)
	}
	if proc == nil {
		return "", apierr.New(apierr.NotFound, "process not found")
	}
	if owner.Username != ownerUsername || !owner.HasRole("client") || owner.ID != proc.OwnerID {
		return "", apierr.New(apierr.Forbidden, "caller is not the owning client")
	}

	txnHash, err = s.ledger.AnchorShare(ctx, owner.LedgerSecretKey, partnerPublicKey, memoPrefix+processID)
	if err != nil {
		return "", err
	}

	share := &storage.Share{
		ID:               uuid.NewString(),
		ProcessID:        processID,
		PartnerPublicKey: partnerPublicKey,
		LedgerTxnHash:    txnHash,
		SharedAt:         time.Now().UTC(),
	}
	if err = s.store.Shares().Create(ctx, share); err != nil {
		return "", err
	}

	return txnHash, nil
}

// AccessResult is the projection of an access grant returned to the
// partner: the full body plus the process metadata needed to present
// it, per §4.8.4.
type AccessResult struct {
	ProcessID   string    `json:"process_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Body        string    `json:"body"`
	AccessedAt  time.Time `json:"accessed_at"`
}

// Access implements §4.8.4. Preconditions are checked in the exact
// order the spec prescribes: the process must exist, the calling
// partner must exist and match the declared partner_username, the
// partner must hold the partner role, a share must exist linking the
// two, and only then is the sealed body opened.
func (s *Service) Access(ctx context.Context, partner *storage.User, processID, partnerUsername, partnerPublicKey string) (result AccessResult, err error) {
	defer func() { recordOutcome("access", err) }()

	proc, err := s.store.Processes().FindByID(ctx, processID)
	if err != nil {
		return AccessResult{}, apierr.Wrap(apierr.Internal, "look up process", err)
	}
	if proc == nil {
		return AccessResult{}, apierr.New(apierr.NotFound, "process not found")
	}

	if partner.Username != partnerUsername {
		return AccessResult{}, apierr.New(apierr.Unauthorized, "partner_username does not match the authenticated caller")
	}

	if !partner.HasRole("partner") {
		return AccessResult{}, apierr.New(apierr.Forbidden, "caller does not hold the partner role")
	}

	exists, err := s.store.Shares().ExistsShare(ctx, processID, partnerPublicKey)
	if err != nil {
		return AccessResult{}, apierr.Wrap(apierr.Internal, "look up share", err)
	}
	if !exists {
		return AccessResult{}, apierr.New(apierr.Forbidden, "process was not shared with this partner")
	}

	plaintext, err := cipher.Open(proc.SealedBody, proc.ContentKey)
	if err != nil {
		return AccessResult{}, err
	}

	accessedAt := time.Now().UTC()
	access := &storage.Access{
		ID:         uuid.NewString(),
		ProcessID:  processID,
		PartnerID:  partner.ID,
		AccessedAt: accessedAt,
	}
	if err = s.store.Accesses().Create(ctx, access); err != nil {
		return AccessResult{}, err
	}

	return AccessResult{
		ProcessID:   proc.ID,
		Title:       proc.Title,
		Description: proc.Description,
		Body:        string(plaintext),
		AccessedAt:  accessedAt,
	}, nil
}

func projectProcess(p *storage.Process) Summary {
	return Summary{
		ID:          p.ID,
		Title:       p.Title,
		Description: p.Description,
		Status:      p.Status,
		CreatedAt:   p.CreatedAt,
	}
}

func recordOutcome(operation string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	metrics.ProcessOperations.WithLabelValues(operation, outcome).Inc()
}

func newProcessID() (string, error) {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
