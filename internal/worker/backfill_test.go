package worker

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/podsight/attribution-engine/internal/domain"
)

type stubLister struct {
	mu      sync.Mutex
	pending []domain.Conversion
}

func (s *stubLister) ListUnattributed(ctx context.Context, limit int) ([]domain.Conversion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.pending) > limit {
		return s.pending[:limit], nil
	}
	out := s.pending
	s.pending = nil
	return out, nil
}

type stubAttributor struct {
	mu   sync.Mutex
	seen []string
	err  error
}

func (s *stubAttributor) Attribute(ctx context.Context, conversionID string, models []domain.ModelName) (map[domain.ModelName]domain.AttributionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seen = append(s.seen, conversionID)
	if s.err != nil {
		return nil, s.err
	}
	return map[domain.ModelName]domain.AttributionResult{}, nil
}

func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return client
}

func TestBackfillWorker_StartStop(t *testing.T) {
	redisClient := setupTestRedis(t)

	w := NewBackfillWorker(&stubLister{}, &stubAttributor{}, redisClient, nil, BackfillConfig{
		PollInterval: time.Hour, // only the immediate sweep runs
	})

	if err := w.Start(); err != nil {
		t.Fatalf("Start() error: %v", err)
	}

	w.mu.RLock()
	running := w.running
	w.mu.RUnlock()
	if !running {
		t.Error("worker should be running after Start()")
	}

	if err := w.Start(); err == nil {
		t.Error("double Start() should return error")
	}

	w.Stop()

	w.mu.RLock()
	running = w.running
	w.mu.RUnlock()
	if running {
		t.Error("worker should not be running after Stop()")
	}
}

func TestBackfillWorker_SweepsPendingConversions(t *testing.T) {
	redisClient := setupTestRedis(t)

	lister := &stubLister{}
	for _, id := range []string{"conv-1", "conv-2", "conv-3"} {
		lister.pending = append(lister.pending, domain.Conversion{ID: id, CampaignID: "camp-1"})
	}
	attr := &stubAttributor{}

	w := NewBackfillWorker(lister, attr, redisClient, nil, BackfillConfig{
		PollInterval: time.Hour,
		NumWorkers:   2,
	})

	if err := w.Start(); err != nil {
		t.Fatalf("Start() error: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if w.Stats()["total_attributed"] == 3 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	w.Stop()

	attr.mu.Lock()
	seen := len(attr.seen)
	attr.mu.Unlock()
	if seen != 3 {
		t.Errorf("attributed %d conversions, want 3", seen)
	}
	if got := w.Stats()["total_attributed"]; got != 3 {
		t.Errorf("total_attributed = %d, want 3", got)
	}
}

func TestBackfillWorker_CountsFailures(t *testing.T) {
	redisClient := setupTestRedis(t)

	lister := &stubLister{pending: []domain.Conversion{{ID: "conv-1"}}}
	attr := &stubAttributor{err: context.DeadlineExceeded}

	w := NewBackfillWorker(lister, attr, redisClient, nil, BackfillConfig{
		PollInterval: time.Hour,
	})

	if err := w.Start(); err != nil {
		t.Fatalf("Start() error: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if w.Stats()["total_failed"] == 1 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	w.Stop()

	if got := w.Stats()["total_failed"]; got != 1 {
		t.Errorf("total_failed = %d, want 1", got)
	}
	if got := w.Stats()["total_attributed"]; got != 0 {
		t.Errorf("total_attributed = %d, want 0", got)
	}
}
