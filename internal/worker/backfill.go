package worker

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/podsight/attribution-engine/internal/domain"
	"github.com/podsight/attribution-engine/internal/pkg/distlock"
	"github.com/podsight/attribution-engine/internal/service/reporting"
)

// =============================================================================
// ATTRIBUTION BACKFILL WORKER
// =============================================================================
// Sweeps conversions that were recorded but never attributed (API crashed
// mid-run, engine raised an error, touchpoints arrived late) and pushes them
// through the attribution service. A distributed lock elects a single leader
// per poll so replicas don't fight over the same batch; attribution itself
// is idempotent, so a lost lock at worst repeats work.

const backfillLockKey = "attribution_backfill"

// ConversionLister is the slice of the repository the backfill needs.
type ConversionLister interface {
	ListUnattributed(ctx context.Context, limit int) ([]domain.Conversion, error)
}

// Attributor runs attribution for a single conversion.
type Attributor interface {
	Attribute(ctx context.Context, conversionID string, models []domain.ModelName) (map[domain.ModelName]domain.AttributionResult, error)
}

type BackfillConfig struct {
	PollInterval time.Duration
	BatchSize    int
	NumWorkers   int
	LockTTL      time.Duration
}

func DefaultBackfillConfig() BackfillConfig {
	return BackfillConfig{
		PollInterval: 30 * time.Second,
		BatchSize:    100,
		NumWorkers:   4,
		LockTTL:      2 * time.Minute,
	}
}

// BackfillWorker periodically attributes pending conversions.
type BackfillWorker struct {
	lister     ConversionLister
	attributor Attributor
	redis      *redis.Client
	db         *sql.DB

	workerID string
	config   BackfillConfig

	totalAttributed int64
	totalFailed     int64
	sweeps          int64

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.RWMutex
	running bool
}

func NewBackfillWorker(lister ConversionLister, attributor Attributor, redisClient *redis.Client, db *sql.DB, config BackfillConfig) *BackfillWorker {
	def := DefaultBackfillConfig()
	if config.PollInterval <= 0 {
		config.PollInterval = def.PollInterval
	}
	if config.BatchSize <= 0 {
		config.BatchSize = def.BatchSize
	}
	if config.NumWorkers <= 0 {
		config.NumWorkers = def.NumWorkers
	}
	if config.LockTTL <= 0 {
		config.LockTTL = def.LockTTL
	}

	return &BackfillWorker{
		lister:     lister,
		attributor: attributor,
		redis:      redisClient,
		db:         db,
		workerID:   fmt.Sprintf("backfill-%s", uuid.New().String()[:8]),
		config:     config,
	}
}

// Start begins the poll loop.
func (w *BackfillWorker) Start() error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("backfill worker already running")
	}
	w.running = true
	w.ctx, w.cancel = context.WithCancel(context.Background())
	w.mu.Unlock()

	log.Printf("[Backfill] %s starting (poll=%s batch=%d workers=%d)",
		w.workerID, w.config.PollInterval, w.config.BatchSize, w.config.NumWorkers)

	w.wg.Add(1)
	go w.loop()
	return nil
}

// Stop waits for the in-flight sweep to finish.
func (w *BackfillWorker) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.cancel()
	w.mu.Unlock()

	w.wg.Wait()
	log.Printf("[Backfill] %s stopped. attributed=%d failed=%d sweeps=%d",
		w.workerID,
		atomic.LoadInt64(&w.totalAttributed),
		atomic.LoadInt64(&w.totalFailed),
		atomic.LoadInt64(&w.sweeps))
}

// Stats returns current counters.
func (w *BackfillWorker) Stats() map[string]int64 {
	return map[string]int64{
		"total_attributed": atomic.LoadInt64(&w.totalAttributed),
		"total_failed":     atomic.LoadInt64(&w.totalFailed),
		"sweeps":           atomic.LoadInt64(&w.sweeps),
	}
}

func (w *BackfillWorker) loop() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.config.PollInterval)
	defer ticker.Stop()

	// first sweep immediately, then on the ticker
	w.sweep()
	for {
		select {
		case <-w.ctx.Done():
			return
		case <-ticker.C:
			w.sweep()
		}
	}
}

func (w *BackfillWorker) sweep() {
	lock := distlock.New(w.redis, w.db, backfillLockKey, w.config.LockTTL)
	acquired, err := lock.Acquire(w.ctx)
	if err != nil {
		log.Printf("[Backfill] lock error: %v", err)
		return
	}
	if !acquired {
		return
	}
	defer lock.Release(context.Background())

	atomic.AddInt64(&w.sweeps, 1)

	conversions, err := w.lister.ListUnattributed(w.ctx, w.config.BatchSize)
	if err != nil {
		log.Printf("[Backfill] list error: %v", err)
		return
	}
	if len(conversions) == 0 {
		return
	}

	log.Printf("[Backfill] sweeping %d pending conversions", len(conversions))

	jobs := make(chan domain.Conversion)
	var wg sync.WaitGroup
	for i := 0; i < w.config.NumWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for conv := range jobs {
				if _, err := w.attributor.Attribute(w.ctx, conv.ID, nil); err != nil {
					atomic.AddInt64(&w.totalFailed, 1)
					log.Printf("[Backfill] conversion %s: %v", conv.ID, err)
					continue
				}
				atomic.AddInt64(&w.totalAttributed, 1)
			}
		}()
	}

	for _, conv := range conversions {
		select {
		case <-w.ctx.Done():
			close(jobs)
			wg.Wait()
			return
		case jobs <- conv:
		}
	}
	close(jobs)
	wg.Wait()
}

var _ ConversionLister = (reporting.Repository)(nil)
var _ Attributor = (*reporting.Service)(nil)
