// Package memory implements C6 as an in-memory store, selected by
// config when storage.url is "memory://" — the default, no-external-
// services persistence backend. Grounded on the teacher's
// pkg/storage/memory.DIDStore: a mutex-guarded map with deep-copy on
// read and write so returned values can't alias internal state.
package memory

import (
	"context"
	"sync"

	"github.com/ndavault/ndavault/pkg/storage"
)

// Store is an in-memory storage.Store. Safe for concurrent use.
type Store struct {
	mu sync.Mutex

	users     map[string]storage.User
	byUsername map[string]string // username -> id
	processes map[string]storage.Process
	shares    []storage.Share
	accesses  []storage.Access

	usersStore     *userStore
	processesStore *processStore
	sharesStore    *shareStore
	accessesStore  *accessStore
}

// New constructs an empty in-memory Store.
func New() *Store {
	s := &Store{
		users:      make(map[string]storage.User),
		byUsername: make(map[string]string),
		processes:  make(map[string]storage.Process),
	}
	s.usersStore = &userStore{s: s}
	s.processesStore = &processStore{s: s}
	s.sharesStore = &shareStore{s: s}
	s.accessesStore = &accessStore{s: s}
	return s
}

func (s *Store) Users() storage.UserStore        { return s.usersStore }
func (s *Store) Processes() storage.ProcessStore { return s.processesStore }
func (s *Store) Shares() storage.ShareStore      { return s.sharesStore }
func (s *Store) Accesses() storage.AccessStore   { return s.accessesStore }

// WithTx runs fn against this same store. There is no real rollback:
// every current call site mutates at most one row through these
// sub-stores, so the multi-row transactional discipline (§4.6) has no
// in-memory case to exercise beyond serializing access via the mutex
// each sub-store operation already takes.
func (s *Store) WithTx(ctx context.Context, fn func(tx storage.Store) error) error {
	return fn(s)
}

func (s *Store) Close() error { return nil }

func (s *Store) Ping(ctx context.Context) error { return nil }
