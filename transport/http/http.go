// Package http implements A7: the HTTP surface described in §6.1,
// translating JSON requests into calls against the identity, process,
// and audit services and apierr.Kind into status codes. Grounded on
// the pack's plain net/http.ServeMux server style; this layer stays
// thin on purpose; it carries no business logic of its own.
package http

import (
	"encoding/json"
	"net/http"

	"github.com/ndavault/ndavault/apierr"
	"github.com/ndavault/ndavault/audit"
	"github.com/ndavault/ndavault/boundary"
	"github.com/ndavault/ndavault/health"
	"github.com/ndavault/ndavault/identity"
	"github.com/ndavault/ndavault/internal/logger"
	"github.com/ndavault/ndavault/pkg/storage"
	"github.com/ndavault/ndavault/process"
)

// Server wires the three application services and the request
// boundary into a ServeMux.
type Server struct {
	identity *identity.Service
	process  *process.Service
	audit    *audit.Service
	gate     *boundary.Gate
	health   *health.Registry
	log      logger.Logger
}

// New constructs the HTTP surface over its service dependencies.
func New(identitySvc *identity.Service, processSvc *process.Service, auditSvc *audit.Service, gate *boundary.Gate, healthRegistry *health.Registry, log logger.Logger) *Server {
	if log == nil {
		log = logger.GetDefaultLogger()
	}
	return &Server{identity: identitySvc, process: processSvc, audit: auditSvc, gate: gate, health: healthRegistry, log: log}
}

// Handler builds the ServeMux routing table per §6.1.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /users/register", s.handleRegister)
	mux.HandleFunc("POST /users/login", s.handleLogin)
	mux.HandleFunc("POST /users/refresh", s.handleRefresh)
	mux.HandleFunc("POST /users/auto-login", s.handleAutoLogin)
	mux.HandleFunc("GET /health", s.handleHealth)

	mux.HandleFunc("POST /users/logout", s.withAuth(s.handleLogout))
	mux.HandleFunc("POST /processes", s.withAuth(s.handleCreateProcess))
	mux.HandleFunc("GET /processes", s.withAuth(s.handleListProcesses))
	mux.HandleFunc("POST /processes/share", s.withAuth(s.handleShareProcess))
	mux.HandleFunc("POST /processes/access", s.withAuth(s.handleAccessProcess))
	mux.HandleFunc("GET /notifications", s.withAuth(s.handleNotifications))

	return s.withLogging(mux)
}

// withLogging logs each request's method, path, and outcome status,
// matching the level of detail the rest of the core logs at info.
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.log.Info("request handled",
			logger.String("method", r.Method),
			logger.String("path", r.URL.Path),
			logger.Int("status", rec.status),
		)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

type authedHandler func(w http.ResponseWriter, r *http.Request, caller *storage.User)

// withAuth resolves the bearer credential via the request boundary
// before calling next; every authenticated route shares this gate so
// the failure modes listed in boundary.Gate stay uniform across the
// surface.
func (s *Server) withAuth(next authedHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := s.gate.Authenticate(r.Context(), r.Header.Get("Authorization"))
		if err != nil {
			writeError(w, err)
			return
		}
		next(w, r, user)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	overall, checks := s.health.Run(r.Context())
	status := http.StatusOK
	if overall == health.OverallUnhealthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]any{"status": overall, "checks": checks})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Username string   `json:"username"`
		Name     string   `json:"name"`
		Password string   `json:"password"`
		Roles    []string `json:"roles"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	user, err := s.identity.Register(r.Context(), body.Username, body.Name, body.Password, body.Roles)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	creds, err := s.identity.Login(r.Context(), body.Username, body.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, creds)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var body struct {
		RefreshToken string `json:"refresh_token"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	creds, err := s.identity.Refresh(r.Context(), body.RefreshToken)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, creds)
}

func (s *Server) handleAutoLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		UserName string `json:"user_name"`
		UserID   string `json:"user_id"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	user, err := s.identity.AutoLogin(r.Context(), body.UserName, body.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request, _ *storage.User) {
	var body struct {
		AccessToken  *string `json:"access_token"`
		RefreshToken *string `json:"refresh_token"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	if err := s.identity.Logout(r.Context(), body.AccessToken, body.RefreshToken); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleCreateProcess(w http.ResponseWriter, r *http.Request, caller *storage.User) {
	var body struct {
		ClientID            string `json:"client_id"`
		Title               string `json:"title"`
		Description         string `json:"description"`
		ConfidentialContent string `json:"confidential_content"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	summary, err := s.process.Create(r.Context(), caller, body.ClientID, body.Title, body.Description, body.ConfidentialContent)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, summary)
}

func (s *Server) handleListProcesses(w http.ResponseWriter, r *http.Request, caller *storage.User) {
	clientID := r.URL.Query().Get("client_id")
	summaries, err := s.process.List(r.Context(), caller, clientID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summaries)
}

func (s *Server) handleShareProcess(w http.ResponseWriter, r *http.Request, caller *storage.User) {
	var body struct {
		ClientUsername   string `json:"client_username"`
		ProcessID        string `json:"process_id"`
		PartnerPublicKey string `json:"partner_public_key"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	txnHash, err := s.process.Share(r.Context(), caller, body.ClientUsername, body.ProcessID, body.PartnerPublicKey)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"ledger_txn_hash": txnHash})
}

func (s *Server) handleAccessProcess(w http.ResponseWriter, r *http.Request, caller *storage.User) {
	var body struct {
		ProcessID        string `json:"process_id"`
		PartnerUsername  string `json:"partner_username"`
		PartnerPublicKey string `json:"partner_public_key"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	result, err := s.process.Access(r.Context(), caller, body.ProcessID, body.PartnerUsername, body.PartnerPublicKey)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleNotifications(w http.ResponseWriter, r *http.Request, caller *storage.User) {
	clientID := r.URL.Query().Get("client_id")
	if caller.ID != clientID {
		writeError(w, apierr.New(apierr.Forbidden, "owner_id does not match the authenticated caller"))
		return
	}
	notifications, err := s.audit.List(r.Context(), clientID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, notifications)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, apierr.Wrap(apierr.Malformed, "request body is not valid JSON", err))
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, err error) {
	kind := apierr.Internal
	message := "internal error"
	if apiErr, ok := apierr.As(err); ok {
		kind = apiErr.Kind
		message = apiErr.Message
	}
	writeJSON(w, kind.Status(), map[string]string{"error": string(kind), "message": message})
}
