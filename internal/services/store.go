package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"retail-dashboard/internal/backend"
	"retail-dashboard/internal/models"
)

// DefaultRetention is how long a snapshot that is no longer refreshed stays
// available as a stale fallback.
const DefaultRetention = 30 * time.Minute

type snapshot struct {
	txs       []models.Transaction
	fetchedAt time.Time
}

type refSnapshot struct {
	ref       *backend.Reference
	fetchedAt time.Time
}

// Transactions keeps the latest fetched list per key so pages can be filtered
// again without another backend round trip, and so a page can still be served
// while the backend is down. Entries older than the retention are dropped.
type Transactions struct {
	mu         sync.RWMutex
	snapshots  map[string]snapshot
	references map[string]refSnapshot
	retention  time.Duration
	refreshes  atomic.Int64
	now        func() time.Time
	logger     *slog.Logger
}

// NewTransactions creates a store. A retention of zero or less keeps entries
// until the process exits.
func NewTransactions(retention time.Duration, logger *slog.Logger) *Transactions {
	if logger == nil {
		logger = slog.Default()
	}
	return &Transactions{
		snapshots:  make(map[string]snapshot),
		references: make(map[string]refSnapshot),
		retention:  retention,
		now:        time.Now,
		logger:     logger,
	}
}

func (s *Transactions) expired(at, now time.Time) bool {
	return s.retention > 0 && now.Sub(at) >= s.retention
}

// sweep drops expired entries. Callers hold the write lock.
func (s *Transactions) sweep(now time.Time) {
	for k, snap := range s.snapshots {
		if s.expired(snap.fetchedAt, now) {
			delete(s.snapshots, k)
		}
	}
	for k, snap := range s.references {
		if s.expired(snap.fetchedAt, now) {
			delete(s.references, k)
		}
	}
}

// Replace stores txs under key. The slice is copied.
func (s *Transactions) Replace(key string, txs []models.Transaction) {
	cp := append([]models.Transaction(nil), txs...)
	now := s.now()
	s.mu.Lock()
	s.sweep(now)
	s.snapshots[key] = snapshot{txs: cp, fetchedAt: now}
	s.mu.Unlock()
	s.refreshes.Add(1)
}

// Snapshot returns the stored list and when it was fetched.
func (s *Transactions) Snapshot(key string) ([]models.Transaction, time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.snapshots[key]
	if !ok || s.expired(snap.fetchedAt, s.now()) {
		return nil, time.Time{}, false
	}
	return snap.txs, snap.fetchedAt, true
}

// Refresh calls fetch and stores the result under key. On failure the previous
// snapshot is kept.
func (s *Transactions) Refresh(ctx context.Context, key string, fetch func(context.Context) ([]models.Transaction, error)) ([]models.Transaction, error) {
	start := s.now()
	txs, err := fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("refresh %s: %w", key, err)
	}
	s.Replace(key, txs)
	s.logger.Debug("snapshot refreshed",
		"key", key,
		"records", len(txs),
		"duration", s.now().Sub(start))
	return txs, nil
}

// RememberReference keeps the last good reference data under key.
func (s *Transactions) RememberReference(key string, ref *backend.Reference) {
	now := s.now()
	s.mu.Lock()
	s.sweep(now)
	s.references[key] = refSnapshot{ref: ref, fetchedAt: now}
	s.mu.Unlock()
}

func (s *Transactions) Reference(key string) (*backend.Reference, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.references[key]
	if !ok || s.expired(snap.fetchedAt, s.now()) {
		return nil, false
	}
	return snap.ref, true
}

// Utility method for monitoring
func (s *Transactions) Stats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := 0
	var newest time.Time
	for _, snap := range s.snapshots {
		records += len(snap.txs)
		if snap.fetchedAt.After(newest) {
			newest = snap.fetchedAt
		}
	}
	return map[string]any{
		"snapshots":      len(s.snapshots),
		"references":     len(s.references),
		"record_count":   records,
		"refreshes":      s.refreshes.Load(),
		"last_refreshed": newest,
		"retention":      s.retention.String(),
	}
}
