package cache

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/umalmyha/inquiries/internal/model"
	"github.com/umalmyha/inquiries/internal/repository"
	"github.com/vmihailenco/msgpack/v5"
)

const flagRecordsKey = "feature_flags:records"

// FlagRecordsCache shares raw flag records between service instances
type FlagRecordsCache interface {
	Find(context.Context) (*model.FlagRecordsSnapshot, error)
	Cache(context.Context, *model.FlagRecordsSnapshot) error
	Evict(context.Context) error
}

type redisFlagRecordsCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisFlagRecordsCache builds FlagRecordsCache, entries expire ttl after records were read from flag store
func NewRedisFlagRecordsCache(client *redis.Client, ttl time.Duration) FlagRecordsCache {
	return &redisFlagRecordsCache{client: client, ttl: ttl}
}

// Find returns nil on cache miss
func (r *redisFlagRecordsCache) Find(ctx context.Context) (*model.FlagRecordsSnapshot, error) {
	res, err := r.client.Get(ctx, flagRecordsKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var snapshot model.FlagRecordsSnapshot
	if err := msgpack.Unmarshal([]byte(res), &snapshot); err != nil {
		return nil, err
	}
	if snapshot.Records == nil {
		snapshot.Records = make([]*model.FlagRecord, 0)
	}
	return &snapshot, nil
}

// Cache skips snapshot which is already older than ttl
func (r *redisFlagRecordsCache) Cache(ctx context.Context, snapshot *model.FlagRecordsSnapshot) error {
	ttl := r.ttl - time.Since(snapshot.ReadAt)
	if ttl <= 0 {
		return nil
	}

	encoded, err := msgpack.Marshal(snapshot)
	if err != nil {
		return err
	}

	if _, err := r.client.Set(ctx, flagRecordsKey, encoded, ttl).Result(); err != nil {
		return err
	}
	return nil
}

func (r *redisFlagRecordsCache) Evict(ctx context.Context) error {
	if _, err := r.client.Del(ctx, flagRecordsKey).Result(); err != nil {
		return err
	}
	return nil
}

type cachedFlagRepository struct {
	flagRps repository.FlagRepository
	cache   FlagRecordsCache
	logger  logrus.FieldLogger
	now     func() time.Time
}

// NewCachedFlagRepository reads flag records through cache. Cache failures are logged and
// records are read from flagRps as if cache was empty. Reads marked with repository.WithFreshRead
// skip cache and refill it.
func NewCachedFlagRepository(flagRps repository.FlagRepository, cache FlagRecordsCache, logger logrus.FieldLogger) repository.AgedFlagRepository {
	return &cachedFlagRepository{flagRps: flagRps, cache: cache, logger: logger, now: time.Now}
}

func (r *cachedFlagRepository) FindAll(ctx context.Context) ([]*model.FlagRecord, error) {
	records, _, err := r.FindAllAged(ctx)
	return records, err
}

func (r *cachedFlagRepository) FindAllAged(ctx context.Context) ([]*model.FlagRecord, time.Time, error) {
	if !repository.FreshRead(ctx) {
		cached, err := r.cache.Find(ctx)
		if err != nil {
			r.logger.WithError(err).Warn("failed to read feature flags from cache")
		}
		if cached != nil {
			return cached.Records, cached.ReadAt, nil
		}
	}

	readAt := r.now().UTC()
	records, err := r.flagRps.FindAll(ctx)
	if err != nil {
		return nil, time.Time{}, err
	}

	if err := r.cache.Cache(ctx, &model.FlagRecordsSnapshot{Records: records, ReadAt: readAt}); err != nil {
		r.logger.WithError(err).Warn("failed to cache feature flags")
	}
	return records, readAt, nil
}
