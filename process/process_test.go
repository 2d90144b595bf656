package process

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndavault/ndavault/apierr"
	"github.com/ndavault/ndavault/pkg/storage"
	"github.com/ndavault/ndavault/pkg/storage/memory"
)

type fakeAnchorer struct {
	hash string
	err  error
	memo string
}

func (f *fakeAnchorer) AnchorShare(ctx context.Context, senderSecret, recipientPublic, memo string) (string, error) {
	f.memo = memo
	if f.err != nil {
		return "", f.err
	}
	return f.hash, nil
}

func TestCreateSealsBodyAndExcludesItFromSummary(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := New(store, &fakeAnchorer{hash: "deadbeef"})

	owner := &storage.User{ID: "owner1", Username: "acme", Roles: []string{"client"}}
	summary, err := svc.Create(ctx, owner, owner.ID, "Invoice 42", "a procurement process", "the secret body")
	require.NoError(t, err)
	assert.Equal(t, "Invoice 42", summary.Title)
	assert.Len(t, summary.ID, 16) // 8 bytes hex-encoded

	stored, err := store.Processes().FindByID(ctx, summary.ID)
	require.NoError(t, err)
	assert.NotEqual(t, "the secret body", stored.SealedBody)
}

func TestCreateRejectsNonClientRole(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := New(store, &fakeAnchorer{})

	partnerOnly := &storage.User{ID: "eve", Username: "eve", Roles: []string{"partner"}}
	_, err := svc.Create(ctx, partnerOnly, partnerOnly.ID, "Invoice 42", "desc", "body")
	assertKind(t, err, apierr.Forbidden)
}

func TestShareAnchorsOnLedgerWithinMemoLimit(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	anchorer := &fakeAnchorer{hash: "txhash1"}
	svc := New(store, anchorer)

	owner := &storage.User{ID: "owner1", Username: "acme", Roles: []string{"client"}, LedgerSecretKey: "SSECRET"}
	summary, err := svc.Create(ctx, owner, owner.ID, "Invoice 42", "desc", "body")
	require.NoError(t, err)

	hash, err := svc.Share(ctx, owner, owner.Username, summary.ID, "GPARTNER")
	require.NoError(t, err)
	assert.Equal(t, "txhash1", hash)
	assert.LessOrEqual(t, len(anchorer.memo), 28)

	exists, err := store.Shares().ExistsShare(ctx, summary.ID, "GPARTNER")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestShareRejectsNonOwner(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := New(store, &fakeAnchorer{hash: "txhash1"})

	owner := &storage.User{ID: "owner1", Username: "acme", Roles: []string{"client"}}
	summary, err := svc.Create(ctx, owner, owner.ID, "Invoice 42", "desc", "body")
	require.NoError(t, err)

	other := &storage.User{ID: "owner2", Username: "someone-else", Roles: []string{"client"}}
	_, err = svc.Share(ctx, other, other.Username, summary.ID, "GPARTNER")
	assertKind(t, err, apierr.Forbidden)
}

func TestAccessPreconditionOrder(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := New(store, &fakeAnchorer{hash: "txhash1"})

	owner := &storage.User{ID: "owner1", Username: "acme", Roles: []string{"client"}, LedgerSecretKey: "SSECRET"}
	summary, err := svc.Create(ctx, owner, owner.ID, "Invoice 42", "desc", "the secret body")
	require.NoError(t, err)

	partner := &storage.User{ID: "partner1", Username: "beta", Roles: []string{"partner"}, LedgerPublicKey: "GPARTNER"}

	// 1. process does not exist
	_, err = svc.Access(ctx, partner, "nonexistent", partner.Username, partner.LedgerPublicKey)
	assertKind(t, err, apierr.NotFound)

	// 2. declared partner_username does not match the caller
	_, err = svc.Access(ctx, partner, summary.ID, "not-beta", partner.LedgerPublicKey)
	assertKind(t, err, apierr.Unauthorized)

	// 3. wrong role
	noRole := &storage.User{ID: "partner2", Username: "gamma", LedgerPublicKey: "GOTHER"}
	_, err = svc.Access(ctx, noRole, summary.ID, noRole.Username, noRole.LedgerPublicKey)
	assertKind(t, err, apierr.Forbidden)

	// 4. no share exists yet
	_, err = svc.Access(ctx, partner, summary.ID, partner.Username, partner.LedgerPublicKey)
	assertKind(t, err, apierr.Forbidden)

	// establish the share, then access succeeds and is recorded
	_, err = svc.Share(ctx, owner, owner.Username, summary.ID, partner.LedgerPublicKey)
	require.NoError(t, err)

	result, err := svc.Access(ctx, partner, summary.ID, partner.Username, partner.LedgerPublicKey)
	require.NoError(t, err)
	assert.Equal(t, "the secret body", result.Body)
	assert.Equal(t, summary.ID, result.ProcessID)
	assert.Equal(t, "Invoice 42", result.Title)

	rows, err := store.Accesses().ListByOwner(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.NotNil(t, rows[0].AccessID)
}

func assertKind(t *testing.T, err error, kind apierr.Kind) {
	t.Helper()
	apiErr, ok := apierr.As(err)
	require.True(t, ok)
	assert.Equal(t, kind, apiErr.Kind)
}

func TestListOrdersNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := New(store, &fakeAnchorer{})

	owner := &storage.User{ID: "owner1", Username: "acme", Roles: []string{"client"}}
	first, err := svc.Create(ctx, owner, owner.ID, "first", "desc", "body")
	require.NoError(t, err)
	time.Sleep(time.Millisecond)
	second, err := svc.Create(ctx, owner, owner.ID, "second", "desc", "body")
	require.NoError(t, err)

	list, err := svc.List(ctx, owner, owner.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, first.ID, list[1].ID)
}

func TestListRejectsNonOwnerCaller(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := New(store, &fakeAnchorer{})

	owner := &storage.User{ID: "owner1", Username: "acme", Roles: []string{"client"}}
	other := &storage.User{ID: "owner2", Username: "someone-else"}

	_, err := svc.List(ctx, other, owner.ID)
	assertKind(t, err, apierr.Forbidden)
}
