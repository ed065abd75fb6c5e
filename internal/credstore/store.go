package credstore

import (
	"context"
	"sync"

	"github.com/workforcehub/hubauth/pkg/logger"
)

// Fixed storage keys, one per token. Stable across releases so a reload can
// recover a pair persisted by an earlier page visit.
const (
	KeyAccessToken  = "workforcehub_access_token"
	KeyRefreshToken = "workforcehub_refresh_token"
)

// Pair is a backend-issued access/refresh token pair. Both values are opaque
// bearer strings; the coordinator never parses or validates them.
type Pair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Store caches the backend credential pair in memory and mirrors it to a
// session-scoped Storage backend. Reads are read-through: the in-memory value
// wins, and an absent value falls back to one storage lookup whose result is
// cached. All storage I/O is best-effort — persistence is an optimization, not
// a correctness requirement, so backend failures are logged and swallowed.
type Store struct {
	mu      sync.Mutex
	storage Storage
	access  string
	refresh string
}

func NewStore(storage Storage) *Store {
	return &Store{storage: storage}
}

// SetPair replaces the whole credential pair. Partial updates are not offered:
// every (re)issue overwrites both tokens so no torn state is observable.
func (s *Store) SetPair(ctx context.Context, access, refresh string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.access = access
	s.refresh = refresh
	s.persist(ctx, KeyAccessToken, access)
	s.persist(ctx, KeyRefreshToken, refresh)
}

// Access returns the backend access token, or "" when none is set.
func (s *Store) Access(ctx context.Context) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.access != "" {
		return s.access
	}
	s.access = s.load(ctx, KeyAccessToken)
	return s.access
}

// Refresh returns the backend refresh token, or "" when none is set.
func (s *Store) Refresh(ctx context.Context) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.refresh != "" {
		return s.refresh
	}
	s.refresh = s.load(ctx, KeyRefreshToken)
	return s.refresh
}

// HasCredential reports whether a backend access token is currently available.
func (s *Store) HasCredential(ctx context.Context) bool {
	return s.Access(ctx) != ""
}

// Clear drops the in-memory pair and removes both storage entries.
func (s *Store) Clear(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.access = ""
	s.refresh = ""
	if s.storage == nil {
		return
	}
	if err := s.storage.Delete(ctx, KeyAccessToken); err != nil {
		logger.Debugf("credstore: delete %s: %v", KeyAccessToken, err)
	}
	if err := s.storage.Delete(ctx, KeyRefreshToken); err != nil {
		logger.Debugf("credstore: delete %s: %v", KeyRefreshToken, err)
	}
}

// persist writes (or removes) one key. Callers hold s.mu.
func (s *Store) persist(ctx context.Context, key, value string) {
	if s.storage == nil {
		return
	}
	var err error
	if value == "" {
		err = s.storage.Delete(ctx, key)
	} else {
		err = s.storage.Set(ctx, key, value)
	}
	if err != nil {
		logger.Debugf("credstore: persist %s: %v", key, err)
	}
}

// load reads one key from storage. Callers hold s.mu.
func (s *Store) load(ctx context.Context, key string) string {
	if s.storage == nil {
		return ""
	}
	v, err := s.storage.Get(ctx, key)
	if err != nil {
		logger.Debugf("credstore: load %s: %v", key, err)
		return ""
	}
	return v
}
