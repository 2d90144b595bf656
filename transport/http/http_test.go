package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndavault/ndavault/audit"
	"github.com/ndavault/ndavault/auth"
	"github.com/ndavault/ndavault/boundary"
	"github.com/ndavault/ndavault/health"
	"github.com/ndavault/ndavault/identity"
	"github.com/ndavault/ndavault/pkg/storage/memory"
	"github.com/ndavault/ndavault/process"
)

type fakeFunder struct{}

func (fakeFunder) FundTestAccount(ctx context.Context, publicKey string) error { return nil }

type fakeAnchorer struct{}

func (fakeAnchorer) AnchorShare(ctx context.Context, senderSecret, recipientPublic, memo string) (string, error) {
	return "fake-txn-hash", nil
}

func (fakeAnchorer) Ping(ctx context.Context) error { return nil }

func newTestServer(t *testing.T) *Server {
	t.Helper()
	store := memory.New()
	tokens := auth.New([]byte("test-signing-secret"), time.Minute, time.Hour)
	registry := auth.NewRegistry(time.Hour)
	t.Cleanup(registry.Close)

	identitySvc := identity.New(store, fakeFunder{}, tokens, registry)
	processSvc := process.New(store, fakeAnchorer{})
	auditSvc := audit.New(store)
	gate := boundary.New(tokens, registry, store)
	healthRegistry := health.NewRegistry(time.Second, time.Minute, health.DefaultChecks(store, registry, fakeAnchorer{})...)

	return New(identitySvc, processSvc, auditSvc, gate, healthRegistry, nil)
}

func TestHealthEndpointReportsHealthy(t *testing.T) {
	srv := newTestServer(t)
	req := httptest.NewRequest("GET", "/health", nil)
	rec := httptest.NewRecorder()

	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, 200, rec.Code)
}

func TestRegisterLoginAndAuthenticatedRoute(t *testing.T) {
	srv := newTestServer(t)
	handler := srv.Handler()

	registerBody, _ := json.Marshal(map[string]any{
		"username": "alice",
		"name":     "Alice",
		"password": "correct horse battery staple",
		"roles":    []string{"client"},
	})
	req := httptest.NewRequest("POST", "/users/register", bytes.NewReader(registerBody))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, 201, rec.Code)

	loginBody, _ := json.Marshal(map[string]any{
		"username": "alice",
		"password": "correct horse battery staple",
	})
	req = httptest.NewRequest("POST", "/users/login", bytes.NewReader(loginBody))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, 200, rec.Code)

	var creds struct {
		User struct {
			ID string `json:"id"`
		} `json:"user"`
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &creds))
	require.NotEmpty(t, creds.AccessToken)

	createBody, _ := json.Marshal(map[string]any{
		"client_id":            creds.User.ID,
		"title":                "quarterly filing",
		"description":          "Q3 tax documents",
		"confidential_content": "the actual sensitive content",
	})
	req = httptest.NewRequest("POST", "/processes", bytes.NewReader(createBody))
	req.Header.Set("Authorization", "Bearer "+creds.AccessToken)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, 201, rec.Code)
}

func TestAuthenticatedRouteRejectsMissingBearer(t *testing.T) {
	srv := newTestServer(t)
	req := httptest.NewRequest("GET", "/processes?client_id=someone", nil)
	rec := httptest.NewRecorder()

	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, 401, rec.Code)
}
