package worker

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"prepboard-backend/internal/stats"
)

const refreshQueue = "queue:stats-refresh"

// RefreshJob asks the pool to recompute one user's snapshot. Jobs are
// idempotent: each refresh recomputes from the full history, so a
// duplicate enqueue is wasted work but never wrong.
type RefreshJob struct {
	UserID     uuid.UUID `json:"user_id"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}

// EnqueueRefresh pushes a refresh job onto the queue. Callers treat it as
// fire-and-forget; a failed enqueue only delays the next dashboard update.
func EnqueueRefresh(ctx context.Context, redisClient *redis.Client, userID uuid.UUID) error {
	payload, err := json.Marshal(RefreshJob{UserID: userID, EnqueuedAt: time.Now()})
	if err != nil {
		return err
	}
	return redisClient.RPush(ctx, refreshQueue, payload).Err()
}

// Pool consumes refresh jobs and drives the stats store. Overlapping jobs
// for the same user collapse into one computation inside the store.
type Pool struct {
	redis       *redis.Client
	store       *stats.Store
	workerCount int
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
}

func NewPool(redisClient *redis.Client, store *stats.Store, workerCount int) *Pool {
	ctx, cancel := context.WithCancel(context.Background())
	return &Pool{
		redis:       redisClient,
		store:       store,
		workerCount: workerCount,
		ctx:         ctx,
		cancel:      cancel,
	}
}

func (p *Pool) Start() {
	for i := 0; i < p.workerCount; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}

	log.Printf("Started %d stats worker goroutines", p.workerCount)
}

// Stop cancels the workers' blocking pops and waits for them to exit. A job
// already picked up runs to completion on its own timeout.
func (p *Pool) Stop() {
	p.cancel()
	p.wg.Wait()
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()

	for {
		// BLPOP with 30s timeout; cancelling the pool context aborts the
		// blocking pop immediately.
		result, err := p.redis.BLPop(p.ctx, 30*time.Second, refreshQueue).Result()
		if err != nil {
			if p.ctx.Err() != nil {
				log.Printf("Stats worker %d shutting down", id)
				return
			}
			continue // Timeout or transient error, retry
		}

		if len(result) < 2 {
			continue
		}

		var job RefreshJob
		if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
			log.Printf("Stats worker %d: failed to parse job: %v", id, err)
			continue
		}

		jobCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := p.store.Refresh(jobCtx, job.UserID); err != nil {
			log.Printf("Stats worker %d: refresh failed for user %s: %v", id, job.UserID, err)
		}
		cancel()
	}
}
