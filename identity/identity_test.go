package identity

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndavault/ndavault/apierr"
	"github.com/ndavault/ndavault/auth"
	"github.com/ndavault/ndavault/pkg/storage/memory"
)

type fakeFunder struct {
	failures map[string]bool
	funded   []string
}

func (f *fakeFunder) FundTestAccount(ctx context.Context, publicKey string) error {
	f.funded = append(f.funded, publicKey)
	if f.failures[publicKey] {
		return apierr.New(apierr.Integration, "friendbot unavailable")
	}
	return nil
}

func newTestService() (*Service, *fakeFunder, *auth.Registry) {
	store := memory.New()
	funder := &fakeFunder{failures: map[string]bool{}}
	tokens := auth.New([]byte("01234567890123456789012345678901"), 15*time.Minute, 7*24*time.Hour)
	registry := auth.NewRegistry(time.Hour)
	return New(store, funder, tokens, registry), funder, registry
}

func TestRegisterThenLogin(t *testing.T) {
	ctx := context.Background()
	svc, funder, _ := newTestService()

	user, err := svc.Register(ctx, "acme", "Acme Corp", "correct horse battery staple", []string{"client"})
	require.NoError(t, err)
	assert.Equal(t, "acme", user.Username)
	assert.Len(t, funder.funded, 1)

	creds, err := svc.Login(ctx, "acme", "correct horse battery staple")
	require.NoError(t, err)
	assert.NotEmpty(t, creds.AccessToken)
	assert.NotEmpty(t, creds.RefreshToken)
	assert.Equal(t, "Bearer", creds.TokenType)
}

func TestRegisterRejectsDuplicateUsername(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService()

	_, err := svc.Register(ctx, "acme", "Acme", "password1234", []string{"client"})
	require.NoError(t, err)

	_, err = svc.Register(ctx, "acme", "Other", "password5678", []string{"client"})
	apiErr, ok := apierr.As(err)
	require.True(t, ok)
	assert.Equal(t, apierr.Conflict, apiErr.Kind)
}

func TestRegisterAbortsWithoutPersistingOnFundingFailure(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	tokens := auth.New([]byte("01234567890123456789012345678901"), 15*time.Minute, 7*24*time.Hour)
	registry := auth.NewRegistry(time.Hour)

	svc := New(store, alwaysFailFunder{}, tokens, registry)

	_, err := svc.Register(ctx, "acme", "Acme", "password1234", []string{"client"})
	require.Error(t, err)

	found, lookupErr := store.Users().FindByUsername(ctx, "acme")
	require.NoError(t, lookupErr)
	assert.Nil(t, found)
}

type alwaysFailFunder struct{}

func (alwaysFailFunder) FundTestAccount(ctx context.Context, publicKey string) error {
	return apierr.New(apierr.Integration, "friendbot unavailable")
}

func TestLoginRejectsUnknownUserAndWrongPassword(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService()

	_, err := svc.Register(ctx, "acme", "Acme", "password1234", []string{"client"})
	require.NoError(t, err)

	_, err = svc.Login(ctx, "nobody", "whatever")
	apiErr, ok := apierr.As(err)
	require.True(t, ok)
	assert.Equal(t, apierr.Unauthorized, apiErr.Kind)

	_, err = svc.Login(ctx, "acme", "wrong-password")
	apiErr, ok = apierr.As(err)
	require.True(t, ok)
	assert.Equal(t, apierr.Unauthorized, apiErr.Kind)
}

func TestRefreshRotatesAndInvalidatesOldToken(t *testing.T) {
	ctx := context.Background()
	svc, _, registry := newTestService()

	_, err := svc.Register(ctx, "acme", "Acme", "password1234", []string{"client"})
	require.NoError(t, err)
	creds, err := svc.Login(ctx, "acme", "password1234")
	require.NoError(t, err)

	rotated, err := svc.Refresh(ctx, creds.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, creds.RefreshToken, rotated.RefreshToken)

	_, err = svc.Refresh(ctx, creds.RefreshToken)
	require.Error(t, err)

	oldClaims, verifyErr := svc.tokens.Verify(creds.RefreshToken)
	require.NoError(t, verifyErr)
	assert.True(t, registry.IsRevoked(oldClaims.TokenID))
}

func TestLogoutRevokesSuppliedCredentialsAndIgnoresMalformed(t *testing.T) {
	ctx := context.Background()
	svc, _, registry := newTestService()

	_, err := svc.Register(ctx, "acme", "Acme", "password1234", []string{"client"})
	require.NoError(t, err)
	creds, err := svc.Login(ctx, "acme", "password1234")
	require.NoError(t, err)

	garbage := "not-a-jwt"
	err = svc.Logout(ctx, &creds.AccessToken, &garbage)
	require.NoError(t, err)

	claims, err := svc.tokens.Verify(creds.AccessToken)
	require.NoError(t, err)
	assert.True(t, registry.IsRevoked(claims.TokenID))
}

func TestAutoLoginRequiresMatchingUsername(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService()

	user, err := svc.Register(ctx, "acme", "Acme", "password1234", []string{"client"})
	require.NoError(t, err)

	projected, err := svc.AutoLogin(ctx, "acme", user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.ID, projected.ID)

	_, err = svc.AutoLogin(ctx, "someone-else", user.ID)
	require.Error(t, err)
}
