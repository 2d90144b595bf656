// Package boundary implements C10: the request-level gate that turns
// a bearer header into the authenticated user record, composing C4
// (tokens), C5 (revocation), and C6 (user lookup).
package boundary

import (
	"context"

	"github.com/ndavault/ndavault/apierr"
	"github.com/ndavault/ndavault/auth"
	"github.com/ndavault/ndavault/pkg/storage"
)

// Gate authenticates inbound requests per §4.10.
type Gate struct {
	tokens   *auth.Core
	registry *auth.Registry
	store    storage.Store
}

// New constructs a request Gate over its dependencies.
func New(tokens *auth.Core, registry *auth.Registry, store storage.Store) *Gate {
	return &Gate{tokens: tokens, registry: registry, store: store}
}

// Authenticate extracts a bearer credential from an Authorization
// header value, verifies its signature and expiry, rejects it if its
// token id has been revoked, and resolves it to the current user
// record. Missing header, malformed scheme, bad signature, expiry,
// and revocation all surface as apierr.Unauthorized so a caller
// cannot distinguish them.
func (g *Gate) Authenticate(ctx context.Context, authorizationHeader string) (*storage.User, error) {
	credential, ok := auth.ParseBearer(authorizationHeader)
	if !ok {
		return nil, apierr.New(apierr.Unauthorized, "missing or malformed bearer credential")
	}

	claims, err := g.tokens.Verify(credential)
	if err != nil {
		return nil, err
	}
	if g.registry.IsRevoked(claims.TokenID) {
		return nil, apierr.New(apierr.Unauthorized, "credential has been revoked")
	}

	user, err := g.store.Users().FindByID(ctx, claims.Subject)
	if err != nil {
		return nil, apierr.Wrap(apierr.Internal, "look up user", err)
	}
	if user == nil || user.Username != claims.Username {
		return nil, apierr.New(apierr.Unauthorized, "credential no longer matches a known user")
	}

	return user, nil
}
