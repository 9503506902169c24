package core

import (
	"context"
	"testing"
	"time"
)

func TestRunPurge_UsesRetention(t *testing.T) {
	history := NewMemoryHistory(10)
	svc := newTestService(t, history, Options{})

	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	ctx := context.Background()
	history.Record(ctx, HistoryEntry{ID: "old", CreatedAt: now.Add(-48 * time.Hour)})
	history.Record(ctx, HistoryEntry{ID: "new", CreatedAt: now.Add(-time.Hour)})

	svc.runPurge(ctx, 24*time.Hour)

	got, _ := history.Recent(ctx, 0)
	if ids := entryIDs(got); ids != "new" {
		t.Errorf("after purge ids = %s, want new", ids)
	}
}

func TestStartHistoryPurger_StopsOnCancel(t *testing.T) {
	svc := newTestService(t, NewMemoryHistory(10), Options{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		svc.StartHistoryPurger(ctx, PurgeConfig{Retention: time.Hour, Interval: 10 * time.Millisecond})
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Error("purger did not stop after cancel")
	}
}

func TestStartHistoryPurger_NoStore(t *testing.T) {
	svc := newTestService(t, nil, Options{})

	done := make(chan struct{})
	go func() {
		svc.StartHistoryPurger(context.Background(), PurgeConfig{})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Error("purger without a store should return immediately")
	}
}
