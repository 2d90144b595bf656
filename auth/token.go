// Package auth implements C4, the auth-token core: minting and
// verifying short-lived access and long-lived refresh credentials.
// Adapted from the teacher's RS256/Auth0 JWT verifier
// (oidc/auth0/auth0.go) to HS256 with a service-local secret.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/ndavault/ndavault/apierr"
	"github.com/ndavault/ndavault/internal/metrics"
)

// Claims is the opaque credential shape consumers receive from Verify.
type Claims struct {
	Subject   string
	Username  string
	Roles     []string
	IssuedAt  time.Time
	ExpiresAt time.Time
	TokenID   string
}

// User is the minimal view of a user the token core needs to mint
// credentials for it.
type User struct {
	ID       string
	Username string
	Roles    []string
}

// Core mints and verifies credentials signed with a single HMAC
// secret. No alternative algorithm is ever accepted.
type Core struct {
	secret          []byte
	accessLifetime  time.Duration
	refreshLifetime time.Duration
}

// New constructs a Core. secret must be at least 32 bytes; callers
// validate this at configuration load time (config.Validate).
func New(secret []byte, accessLifetime, refreshLifetime time.Duration) *Core {
	return &Core{
		secret:          secret,
		accessLifetime:  accessLifetime,
		refreshLifetime: refreshLifetime,
	}
}

type registeredClaims struct {
	Subject  string   `json:"sub"`
	Username string   `json:"username"`
	Roles    []string `json:"roles"`
	jwt.RegisteredClaims
}

// MintAccess mints a credential valid for the configured access
// lifetime (15 minutes by default per §6.4).
func (c *Core) MintAccess(user User) (string, time.Time, error) {
	signed, expiresAt, err := c.mint(user, c.accessLifetime)
	if err == nil {
		metrics.TokensMinted.WithLabelValues("access").Inc()
	}
	return signed, expiresAt, err
}

// MintRefresh mints a credential valid for the configured refresh
// lifetime (7 days by default per §6.4).
func (c *Core) MintRefresh(user User) (string, time.Time, error) {
	signed, expiresAt, err := c.mint(user, c.refreshLifetime)
	if err == nil {
		metrics.TokensMinted.WithLabelValues("refresh").Inc()
	}
	return signed, expiresAt, err
}

func (c *Core) mint(user User, lifetime time.Duration) (string, time.Time, error) {
	now := time.Now().UTC()
	expiresAt := now.Add(lifetime)

	claims := registeredClaims{
		Subject:  user.ID,
		Username: user.Username,
		Roles:    user.Roles,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", time.Time{}, apierr.Wrap(apierr.Internal, "sign credential", err)
	}
	return signed, expiresAt, nil
}

// Verify checks the signature, parses the structure, checks
// expires_at > now, and returns claims. No algorithm other than
// HS256 is accepted.
func (c *Core) Verify(credential string) (Claims, error) {
	parsed, err := jwt.ParseWithClaims(credential, &registeredClaims{}, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return c.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenSignatureInvalid) {
			metrics.VerificationFailures.WithLabelValues("signature").Inc()
			return Claims{}, apierr.Wrap(apierr.Unauthorized, "bad credential signature", err)
		}
		if errors.Is(err, jwt.ErrTokenExpired) {
			metrics.VerificationFailures.WithLabelValues("expired").Inc()
			return Claims{}, apierr.Wrap(apierr.Unauthorized, "credential expired", err)
		}
		metrics.VerificationFailures.WithLabelValues("malformed").Inc()
		return Claims{}, apierr.Wrap(apierr.Unauthorized, "malformed credential", err)
	}

	claims, ok := parsed.Claims.(*registeredClaims)
	if !ok || !parsed.Valid {
		metrics.VerificationFailures.WithLabelValues("malformed").Inc()
		return Claims{}, apierr.New(apierr.Unauthorized, "malformed credential")
	}
	if claims.ExpiresAt == nil || claims.ExpiresAt.Before(time.Now().UTC()) {
		metrics.VerificationFailures.WithLabelValues("expired").Inc()
		return Claims{}, apierr.New(apierr.Unauthorized, "credential expired")
	}

	return Claims{
		Subject:   claims.Subject,
		Username:  claims.Username,
		Roles:     claims.Roles,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
		TokenID:   claims.ID,
	}, nil
}

// ParseBearer accepts "Bearer <token>" with a case-insensitive scheme
// and a single-space separator. It returns ok=false rather than an
// error for any other shape, leaving the Unauthorized mapping to the
// caller (C10).
func ParseBearer(headerValue string) (credential string, ok bool) {
	const scheme = "bearer "
	if len(headerValue) <= len(scheme) {
		return "", false
	}
	if !strings.EqualFold(headerValue[:len(scheme)], scheme) {
		return "", false
	}
	token := headerValue[len(scheme):]
	if token == "" || strings.Contains(token, " ") {
		return "", false
	}
	return token, true
}
