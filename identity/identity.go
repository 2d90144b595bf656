// Package identity implements C7: register/login/refresh/logout/
// auto-login on top of C2 (password), C3 (ledger), C4 (tokens), and
// C6 (persistence).
package identity

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ndavault/ndavault/apierr"
	"github.com/ndavault/ndavault/auth"
	"github.com/ndavault/ndavault/crypto/password"
	"github.com/ndavault/ndavault/ledger"
	"github.com/ndavault/ndavault/pkg/storage"
)

// ledgerFunder is the slice of *ledger.Client that Register needs.
// Accepting an interface rather than the concrete type lets tests
// substitute a funder that performs no network I/O.
type ledgerFunder interface {
	FundTestAccount(ctx context.Context, publicKey string) error
}

// UserProjection is what crosses the service boundary for a user:
// password_digest and ledger_secret_key never appear here (§4.7.1).
type UserProjection struct {
	ID          string    `json:"id"`
	Username    string    `json:"username"`
	DisplayName string    `json:"display_name"`
	Roles       []string  `json:"roles"`
	CreatedAt   time.Time `json:"created_at"`
}

// Credentials is the access/refresh pair returned by login and
// refresh, alongside the lifetimes the caller needs to schedule its
// own refresh.
type Credentials struct {
	User         UserProjection `json:"user"`
	AccessToken  string         `json:"access_token"`
	RefreshToken string         `json:"refresh_token"`
	TokenType    string         `json:"token_type"`
	ExpiresIn    int            `json:"expires_in"`
}

// Service implements C7.
type Service struct {
	store    storage.Store
	ledger   ledgerFunder
	tokens   *auth.Core
	registry *auth.Registry
}

// New constructs an identity Service over its dependencies.
func New(store storage.Store, ledgerClient ledgerFunder, tokens *auth.Core, registry *auth.Registry) *Service {
	return &Service{store: store, ledger: ledgerClient, tokens: tokens, registry: registry}
}

// Register implements §4.7.1.
func (s *Service) Register(ctx context.Context, username, displayName, plainPassword string, roles []string) (UserProjection, error) {
	if username == "" || plainPassword == "" || len(roles) == 0 {
		return UserProjection{}, apierr.New(apierr.Malformed, "username, password, and at least one role are required")
	}

	existing, err := s.store.Users().FindByUsername(ctx, username)
	if err != nil {
		return UserProjection{}, apierr.Wrap(apierr.Internal, "look up username", err)
	}
	if existing != nil {
		return UserProjection{}, apierr.New(apierr.Conflict, "username already exists")
	}

	publicKey, secretKey, err := ledger.NewAccount()
	if err != nil {
		return UserProjection{}, apierr.Wrap(apierr.Integration, "generate ledger keypair", err)
	}
	if err := s.ledger.FundTestAccount(ctx, publicKey); err != nil {
		return UserProjection{}, apierr.Wrap(apierr.Integration, "fund test account", err)
	}

	digest, err := password.Hash(plainPassword)
	if err != nil {
		return UserProjection{}, apierr.Wrap(apierr.Internal, "hash password", err)
	}

	user := &storage.User{
		ID:              uuid.NewString(),
		Username:        username,
		DisplayName:     displayName,
		PasswordDigest:  digest,
		LedgerPublicKey: publicKey,
		LedgerSecretKey: secretKey,
		Roles:           roles,
		CreatedAt:       time.Now().UTC(),
	}
	if err := s.store.Users().Create(ctx, user); err != nil {
		return UserProjection{}, err
	}

	return projectUser(user), nil
}

// Login implements §4.7.2. The Unauthorized response is
// indistinguishable between "bad password" and "unknown user".
func (s *Service) Login(ctx context.Context, username, plainPassword string) (Credentials, error) {
	user, err := s.store.Users().FindByUsername(ctx, username)
	if err != nil {
		return Credentials{}, apierr.Wrap(apierr.Internal, "look up username", err)
	}
	if user == nil {
		// Pay bcrypt's cost even for an unknown user so that
		// observable latency does not distinguish the two failure
		// cases the spec requires be indistinguishable.
		password.Verify(plainPassword, unknownUserDigest)
		return Credentials{}, apierr.New(apierr.Unauthorized, "invalid username or password")
	}
	if !password.Verify(plainPassword, user.PasswordDigest) {
		return Credentials{}, apierr.New(apierr.Unauthorized, "invalid username or password")
	}

	return s.issueCredentials(user)
}

// unknownUserDigest is a fixed bcrypt digest used only to keep the
// Verify call's cost identical whether or not the user exists.
const unknownUserDigest = "$2a$10$CwTycUXWue0Thq9StjUM0uJ8q6Ya8N2GZJjz1ZDXZ3p6g4j8gT1.O"

// Refresh implements §4.7.3: verify, check revocation, and rotate in
// one logical step so the presented refresh credential is permanently
// unusable afterward.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (Credentials, error) {
	claims, err := s.tokens.Verify(refreshToken)
	if err != nil {
		return Credentials{}, err
	}
	if s.registry.IsRevoked(claims.TokenID) {
		return Credentials{}, apierr.New(apierr.Unauthorized, "refresh credential revoked")
	}

	user, err := s.store.Users().FindByID(ctx, claims.Subject)
	if err != nil {
		return Credentials{}, apierr.Wrap(apierr.Internal, "look up user", err)
	}
	if user == nil {
		return Credentials{}, apierr.New(apierr.Unauthorized, "unknown user")
	}

	s.registry.Revoke(claims.TokenID, claims.ExpiresAt)

	return s.issueCredentials(user)
}

// Logout implements §4.7.4: each supplied credential that verifies is
// inserted into the revocation registry; malformed or already-expired
// credentials are silently ignored.
func (s *Service) Logout(ctx context.Context, accessToken, refreshToken *string) error {
	for _, token := range []*string{accessToken, refreshToken} {
		if token == nil || *token == "" {
			continue
		}
		claims, err := s.tokens.Verify(*token)
		if err != nil {
			continue
		}
		s.registry.Revoke(claims.TokenID, claims.ExpiresAt)
	}
	return nil
}

// AutoLogin implements §4.7.5. It is documented as bypass-class: it
// returns the public projection of a user without issuing any
// credential, and without otherwise authenticating the caller beyond
// the username/id pair matching. Production deployments MUST either
// remove this handler, gate it behind a device-bound cookie, or
// require a signed nonce (§7) — this core implements none of those
// additional gates itself.
func (s *Service) AutoLogin(ctx context.Context, username, userID string) (UserProjection, error) {
	user, err := s.store.Users().FindByID(ctx, userID)
	if err != nil {
		return UserProjection{}, apierr.Wrap(apierr.Internal, "look up user", err)
	}
	if user == nil || user.Username != username {
		return UserProjection{}, apierr.New(apierr.Unauthorized, "user not found")
	}
	return projectUser(user), nil
}

func (s *Service) issueCredentials(user *storage.User) (Credentials, error) {
	authUser := auth.User{ID: user.ID, Username: user.Username, Roles: user.Roles}

	access, accessExpiresAt, err := s.tokens.MintAccess(authUser)
	if err != nil {
		return Credentials{}, err
	}
	refresh, _, err := s.tokens.MintRefresh(authUser)
	if err != nil {
		return Credentials{}, err
	}

	return Credentials{
		User:         projectUser(user),
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    int(time.Until(accessExpiresAt).Seconds()),
	}, nil
}

func projectUser(u *storage.User) UserProjection {
	return UserProjection{
		ID:          u.ID,
		Username:    u.Username,
		DisplayName: u.DisplayName,
		Roles:       u.Roles,
		CreatedAt:   u.CreatedAt,
	}
}
