package stats

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"prepboard-backend/internal/models"
)

const snapshotTTL = 24 * time.Hour

// GuestUserID is the sentinel for a visitor without an account. Refreshing
// it publishes an empty snapshot without touching the attempt log.
var GuestUserID = uuid.Nil

// Loader fetches the full attempt history for a user, ascending by
// attempted_at.
type Loader interface {
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.AttemptRecord, error)
}

// PlanSource resolves the study-plan dates for a user.
type PlanSource interface {
	PlanFor(ctx context.Context, userID uuid.UUID) (PlanConfig, error)
}

type entry struct {
	snapshot models.StatsSnapshot
	ready    bool
	loading  bool
	err      error
	nextSeq  uint64
	applied  uint64
}

// Store holds the latest snapshot per user and recomputes it on demand.
// Concurrent refreshes for the same user share one fetch+compute, and a
// completion is dropped if a later refresh has already been applied.
type Store struct {
	loader  Loader
	plans   PlanSource
	catalog models.SubjectCatalog
	redis   *redis.Client
	now     func() time.Time

	group   singleflight.Group
	mu      sync.Mutex
	entries map[uuid.UUID]*entry
}

func NewStore(loader Loader, plans PlanSource, catalog models.SubjectCatalog, redisClient *redis.Client) *Store {
	return &Store{
		loader:  loader,
		plans:   plans,
		catalog: catalog,
		redis:   redisClient,
		now:     time.Now,
		entries: make(map[uuid.UUID]*entry),
	}
}

// Snapshot returns the latest published snapshot plus the loading flag and
// the error from the most recent failed refresh. ok is false until the
// first refresh for this user completes.
func (s *Store) Snapshot(userID uuid.UUID) (snap models.StatsSnapshot, loading bool, ok bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, exists := s.entries[userID]
	if !exists {
		return models.StatsSnapshot{}, false, false, nil
	}
	return e.snapshot, e.loading, e.ready, e.err
}

// Refresh recomputes the user's snapshot from the full attempt history and
// publishes it. Overlapping calls for the same user are coalesced into the
// in-flight computation and all see its result.
func (s *Store) Refresh(ctx context.Context, userID uuid.UUID) error {
	if userID == GuestUserID {
		now := s.now()
		plan := PlanConfig{}
		if s.plans != nil {
			if p, err := s.plans.PlanFor(ctx, userID); err == nil {
				plan = p
			}
		}
		s.apply(userID, s.bumpSeq(userID), Aggregate(nil, now, s.catalog, plan))
		return nil
	}

	_, err, _ := s.group.Do(userID.String(), func() (interface{}, error) {
		seq := s.bumpSeq(userID)
		s.setLoading(userID, true)
		defer s.setLoading(userID, false)

		plan, err := s.plans.PlanFor(ctx, userID)
		if err != nil {
			s.fail(userID, err)
			return nil, err
		}

		records, err := s.loader.ListByUser(ctx, userID)
		if err != nil {
			// Keep whatever snapshot is already published; stale data beats
			// a blank dashboard.
			log.Printf("stats: refresh failed for user %s: %v", userID, err)
			s.fail(userID, err)
			return nil, err
		}

		s.apply(userID, seq, Aggregate(records, s.now(), s.catalog, plan))
		return nil, nil
	})
	return err
}

func (s *Store) entryLocked(userID uuid.UUID) *entry {
	e, ok := s.entries[userID]
	if !ok {
		e = &entry{}
		s.entries[userID] = e
	}
	return e
}

func (s *Store) bumpSeq(userID uuid.UUID) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.entryLocked(userID)
	e.nextSeq++
	return e.nextSeq
}

func (s *Store) setLoading(userID uuid.UUID, loading bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entryLocked(userID).loading = loading
}

func (s *Store) fail(userID uuid.UUID, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entryLocked(userID).err = err
}

// apply publishes a computed snapshot unless a later refresh already did.
func (s *Store) apply(userID uuid.UUID, seq uint64, snap models.StatsSnapshot) {
	s.mu.Lock()
	e := s.entryLocked(userID)
	if seq <= e.applied {
		s.mu.Unlock()
		log.Printf("stats: dropping stale snapshot for user %s (seq %d <= %d)", userID, seq, e.applied)
		return
	}
	e.applied = seq
	e.snapshot = snap
	e.ready = true
	e.err = nil
	s.mu.Unlock()

	s.publish(userID, snap)
}

// publish caches the snapshot and notifies connected dashboards. Both are
// best effort; the in-memory snapshot is already live.
func (s *Store) publish(userID uuid.UUID, snap models.StatsSnapshot) {
	if s.redis == nil || userID == GuestUserID {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	data, err := json.Marshal(snap)
	if err != nil {
		log.Printf("stats: failed to marshal snapshot for user %s: %v", userID, err)
		return
	}

	if err := s.redis.Set(ctx, snapshotCacheKey(userID), data, snapshotTTL).Err(); err != nil {
		log.Printf("stats: failed to cache snapshot for user %s: %v", userID, err)
	}

	msg, _ := json.Marshal(models.WSMessage{Type: "stats_updated", Payload: snap})
	if err := s.redis.Publish(ctx, UpdateChannel(userID), msg).Err(); err != nil {
		log.Printf("stats: failed to publish snapshot for user %s: %v", userID, err)
	}
}

// CachedSnapshot restores the last published snapshot from redis, for cold
// starts before the first in-process refresh.
func (s *Store) CachedSnapshot(ctx context.Context, userID uuid.UUID) (models.StatsSnapshot, bool) {
	if s.redis == nil {
		return models.StatsSnapshot{}, false
	}
	data, err := s.redis.Get(ctx, snapshotCacheKey(userID)).Bytes()
	if err != nil {
		return models.StatsSnapshot{}, false
	}
	var snap models.StatsSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return models.StatsSnapshot{}, false
	}
	return snap, true
}

func snapshotCacheKey(userID uuid.UUID) string {
	return "stats:snapshot:" + userID.String()
}

// UpdateChannel is the redis pub/sub channel carrying snapshot updates for
// one user.
func UpdateChannel(userID uuid.UUID) string {
	return "stats_updates:" + userID.String()
}
