package enrich

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/wonny/screener/backend/internal/contracts"
	"github.com/wonny/screener/backend/pkg/logger"
)

// ErrRefreshInProgress is returned when a refresh is requested while one is running
var ErrRefreshInProgress = errors.New("refresh already in progress")

// Snapshot is one complete enriched set
type Snapshot struct {
	Records  []contracts.EnrichedStock
	LoadedAt time.Time
}

// Status describes the store for health and API responses
type Status struct {
	Loading   bool      `json:"loading"`
	Ready     bool      `json:"ready"`
	LoadedAt  time.Time `json:"loaded_at,omitempty"`
	Count     int       `json:"count"`
	LastError string    `json:"last_error,omitempty"`
	Stale     bool      `json:"stale"`
}

// Store holds the latest complete snapshot for readers that do not load their own.
// Only complete sets are published; a failed refresh keeps the previous snapshot.
type Store struct {
	loader *Loader
	maxAge time.Duration
	logger *logger.Logger

	mu      sync.RWMutex
	current *Snapshot
	loading bool
	lastErr error
}

// NewStore creates a store. maxAge marks a snapshot stale in Status; it is never evicted.
func NewStore(loader *Loader, maxAge time.Duration, log *logger.Logger) *Store {
	return &Store{
		loader: loader,
		maxAge: maxAge,
		logger: log.WithComponent("snapshot"),
	}
}

// Refresh loads a new snapshot and publishes it on success
func (s *Store) Refresh(ctx context.Context) error {
	s.mu.Lock()
	if s.loading {
		s.mu.Unlock()
		return ErrRefreshInProgress
	}
	s.loading = true
	s.mu.Unlock()

	records, err := s.loader.Load(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false

	if err != nil {
		s.lastErr = err
		s.logger.WithError(err).Error("Snapshot refresh failed")
		return err
	}

	s.current = &Snapshot{Records: records, LoadedAt: time.Now()}
	s.lastErr = nil
	return nil
}

// Current returns the latest snapshot, or nil before the first successful load.
// Records must be treated as read-only.
func (s *Store) Current() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Status reports loading state, readiness and the last error
func (s *Store) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Status{Loading: s.loading}
	if s.lastErr != nil {
		st.LastError = s.lastErr.Error()
	}
	if s.current != nil {
		st.Ready = true
		st.LoadedAt = s.current.LoadedAt
		st.Count = len(s.current.Records)
		st.Stale = s.maxAge > 0 && time.Since(s.current.LoadedAt) > s.maxAge
	}
	return st
}
