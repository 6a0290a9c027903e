// Package usage tracks per-window feature consumption. The live count for
// each (owner, feature, window) lives in Redis so concurrent recordings are
// a single atomic script, never read-modify-write. Every successful
// increment is mirrored into a durable MySQL row; after a cache loss the
// Redis key is reseeded from that row.
package usage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/formworks/licensing/app/repository"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ErrQuotaExceeded is returned when an increment would pass the window
// limit. The count is left unchanged.
var ErrQuotaExceeded = errors.New("usage: quota exceeded")

// Unlimited disables the limit check on an increment.
const Unlimited int64 = -1

// incrScript checks the window count against the limit and increments in
// one atomic step. Returns -1 when the quota is already spent.
var incrScript = redis.NewScript(`
local limit = tonumber(ARGV[1])
local ttl = tonumber(ARGV[2])
local count = tonumber(redis.call('GET', KEYS[1]) or '0')
if limit >= 0 and count >= limit then
  return -1
end
local v = redis.call('INCR', KEYS[1])
if ttl > 0 then
  redis.call('PEXPIRE', KEYS[1], ttl)
end
return v
`)

// Window is one quota window: a start instant and, unless the window is a
// lifetime window, the instant it rolls over.
type Window struct {
	Start time.Time
	End   *time.Time
}

// TTL returns how long a Redis key for this window should live: until the
// window ends plus the grace period, or 0 (no expiry) for lifetime windows.
func (w Window) TTL(now time.Time, grace time.Duration) time.Duration {
	if w.End == nil {
		return 0
	}
	ttl := w.End.Sub(now) + grace
	if ttl < 0 {
		return 0
	}
	return ttl
}

// Store reads and increments usage counters.
type Store struct {
	rdb   *redis.Client
	repo  repository.UsageRepository
	log   *zap.Logger
	grace time.Duration
}

// NewStore creates a usage store. grace is how long expired windows stay
// readable before their keys and rows become garbage.
func NewStore(rdb *redis.Client, repo repository.UsageRepository, log *zap.Logger, grace time.Duration) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{rdb: rdb, repo: repo, log: log, grace: grace}
}

func key(ownerKey, featureCode string, w Window) string {
	return fmt.Sprintf("usage:%s:%s:%d", ownerKey, featureCode, w.Start.Unix())
}

// Count returns the current count for the window, seeding Redis from the
// durable row when the key is missing.
func (s *Store) Count(ctx context.Context, ownerKey, featureCode string, w Window) (int64, error) {
	k := key(ownerKey, featureCode, w)
	v, err := s.rdb.Get(ctx, k).Int64()
	if err == nil {
		return v, nil
	}
	if !errors.Is(err, redis.Nil) {
		return 0, err
	}
	return s.seed(ctx, ownerKey, featureCode, w)
}

// Increment atomically adds one recorded use to the window, rejecting the
// call with ErrQuotaExceeded once limit is reached. Pass Unlimited to skip
// the limit check. The durable mirror row is updated on success; a mirror
// failure is logged but does not undo the recording.
func (s *Store) Increment(ctx context.Context, ownerKey, featureCode string, w Window, limit int64) (int64, error) {
	if _, err := s.seed(ctx, ownerKey, featureCode, w); err != nil {
		return 0, err
	}

	k := key(ownerKey, featureCode, w)
	ttl := w.TTL(time.Now(), s.grace)
	res, err := incrScript.Run(ctx, s.rdb, []string{k}, limit, ttl.Milliseconds()).Int64()
	if err != nil {
		return 0, err
	}
	if res < 0 {
		return limit, fmt.Errorf("%w: %s/%s", ErrQuotaExceeded, ownerKey, featureCode)
	}

	if err := s.repo.Increment(ownerKey, featureCode, w.Start, w.End); err != nil {
		s.log.Warn("usage mirror update failed",
			zap.String("owner", ownerKey),
			zap.String("feature", featureCode),
			zap.Error(err),
		)
	}
	return res, nil
}

// GC removes durable rows whose window ended more than the grace period
// ago. Redis keys expire on their own via TTL.
func (s *Store) GC(ctx context.Context) (int64, error) {
	_ = ctx
	return s.repo.DeleteExpired(time.Now().Add(-s.grace))
}

// seed copies the durable count into Redis when the key is absent. SETNX
// keeps a concurrent recording from being overwritten.
func (s *Store) seed(ctx context.Context, ownerKey, featureCode string, w Window) (int64, error) {
	k := key(ownerKey, featureCode, w)
	v, err := s.rdb.Get(ctx, k).Int64()
	if err == nil {
		return v, nil
	}
	if !errors.Is(err, redis.Nil) {
		return 0, err
	}

	var count int64
	row, err := s.repo.Get(ownerKey, featureCode, w.Start)
	switch {
	case err == nil:
		count = row.Count
	case errors.Is(err, gorm.ErrRecordNotFound):
		count = 0
	default:
		return 0, err
	}

	if count > 0 {
		if err := s.rdb.SetNX(ctx, k, count, w.TTL(time.Now(), s.grace)).Err(); err != nil {
			return 0, err
		}
	}
	v, err = s.rdb.Get(ctx, k).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return v, err
}
