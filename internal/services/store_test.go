package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"retail-dashboard/internal/backend"
	"retail-dashboard/internal/models"
)

func newTestStore() *Transactions {
	return NewTransactions(DefaultRetention, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestTransactions_ReplaceAndSnapshot(t *testing.T) {
	s := newTestStore()
	if _, _, ok := s.Snapshot("global"); ok {
		t.Error("empty store should have no snapshot")
	}

	in := sample()
	s.Replace("global", in)
	in[0].ID = "changed"

	got, at, ok := s.Snapshot("global")
	if !ok || len(got) != 5 {
		t.Fatalf("Snapshot() = %d records, %v", len(got), ok)
	}
	if got[0].ID != "t1" {
		t.Error("store should keep its own copy")
	}
	if at.IsZero() {
		t.Error("fetch time should be recorded")
	}
}

func TestTransactions_Retention(t *testing.T) {
	s := newTestStore()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	s.Replace("shop:u1:s1:2024-01-01:-", sample())
	s.RememberReference("global:abc", &backend.Reference{User: models.User{ID: "u1"}})

	now = now.Add(DefaultRetention - time.Second)
	if _, _, ok := s.Snapshot("shop:u1:s1:2024-01-01:-"); !ok {
		t.Error("snapshot inside the retention should be kept")
	}
	if _, ok := s.Reference("global:abc"); !ok {
		t.Error("reference inside the retention should be kept")
	}

	now = now.Add(time.Second)
	if _, _, ok := s.Snapshot("shop:u1:s1:2024-01-01:-"); ok {
		t.Error("expired snapshot should not be served")
	}
	if _, ok := s.Reference("global:abc"); ok {
		t.Error("expired reference should not be served")
	}

	// The next write sweeps every expired entry.
	s.Replace("global:u1", sample()[:1])
	stats := s.Stats()
	if stats["snapshots"] != 1 || stats["references"] != 0 {
		t.Errorf("after sweep snapshots=%v references=%v, want 1 and 0", stats["snapshots"], stats["references"])
	}
}

func TestTransactions_ZeroRetentionKeepsEntries(t *testing.T) {
	s := NewTransactions(0, nil)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }
	s.Replace("global", sample())

	now = now.Add(24 * time.Hour)
	if _, _, ok := s.Snapshot("global"); !ok {
		t.Error("zero retention should never expire snapshots")
	}
}

func TestTransactions_RefreshKeepsPreviousOnError(t *testing.T) {
	s := newTestStore()
	s.Replace("shop:s1", sample()[:2])

	_, err := s.Refresh(context.Background(), "shop:s1", func(context.Context) ([]models.Transaction, error) {
		return nil, errors.New("backend down")
	})
	if err == nil {
		t.Fatal("Refresh() should return the fetch error")
	}
	if got, _, _ := s.Snapshot("shop:s1"); len(got) != 2 {
		t.Errorf("previous snapshot lost, got %d records", len(got))
	}

	txs, err := s.Refresh(context.Background(), "shop:s1", func(context.Context) ([]models.Transaction, error) {
		return sample(), nil
	})
	if err != nil || len(txs) != 5 {
		t.Fatalf("Refresh() = %d, %v", len(txs), err)
	}
}

func TestTransactions_Stats(t *testing.T) {
	s := newTestStore()
	s.Replace("a", sample())
	s.Replace("b", sample()[:1])

	stats := s.Stats()
	if stats["snapshots"] != 2 {
		t.Errorf("snapshots = %v, want 2", stats["snapshots"])
	}
	if stats["record_count"] != 6 {
		t.Errorf("record_count = %v, want 6", stats["record_count"])
	}
	if stats["refreshes"] != int64(2) {
		t.Errorf("refreshes = %v, want 2", stats["refreshes"])
	}
}

func TestTransactions_ConcurrentAccess(t *testing.T) {
	s := newTestStore()
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			s.Replace("global", sample())
		}()
		go func() {
			defer wg.Done()
			_, _, _ = s.Snapshot("global")
			_ = s.Stats()
		}()
	}
	wg.Wait()
}
