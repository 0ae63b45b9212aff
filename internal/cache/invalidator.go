package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/vmihailenco/msgpack/v5"
)

// Invalidation is message published to flags invalidation channel
type Invalidation struct {
	Keys     []string  `msgpack:"keys"`
	IssuedAt time.Time `msgpack:"issued_at"`
}

type redisFlagInvalidator struct {
	client  *redis.Client
	channel string
	cache   FlagRecordsCache
	target  Invalidatable
	logger  logrus.FieldLogger
	stop    chan struct{}
	once    sync.Once
}

// NewRedisFlagInvalidator listens to channel and drops shared records cache and target state on every invalidation.
// cache may be nil.
func NewRedisFlagInvalidator(client *redis.Client, channel string, cache FlagRecordsCache, target Invalidatable, logger logrus.FieldLogger) CacheUpdater {
	return &redisFlagInvalidator{
		client:  client,
		channel: channel,
		cache:   cache,
		target:  target,
		logger:  logger,
		stop:    make(chan struct{}),
	}
}

func (i *redisFlagInvalidator) Listen() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub := i.client.Subscribe(ctx, i.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to %s - %w", i.channel, err)
	}
	i.logger.Infof("listening to feature flags invalidations on %s", i.channel)

	messages := sub.Channel()
	for {
		select {
		case <-i.stop:
			return nil
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			i.handle(ctx, msg.Payload)
		}
	}
}

func (i *redisFlagInvalidator) Stop() {
	i.once.Do(func() {
		close(i.stop)
	})
}

func (i *redisFlagInvalidator) handle(ctx context.Context, payload string) {
	var inv Invalidation
	if err := msgpack.Unmarshal([]byte(payload), &inv); err != nil {
		// payload of unknown shape still invalidates
		i.logger.WithError(err).Warn("failed to decode feature flags invalidation")
	}

	if i.cache != nil {
		if err := i.cache.Evict(ctx); err != nil {
			i.logger.WithError(err).Warn("failed to evict feature flags cache")
		}
	}
	i.target.Invalidate()

	i.logger.WithFields(logrus.Fields{
		"keys":     inv.Keys,
		"issuedAt": inv.IssuedAt,
	}).Info("feature flags invalidated")
}

// PublishInvalidation notifies every service instance that flags changed
func PublishInvalidation(ctx context.Context, client *redis.Client, channel string, keys []string) error {
	encoded, err := msgpack.Marshal(&Invalidation{Keys: keys, IssuedAt: time.Now().UTC()})
	if err != nil {
		return err
	}

	if err := client.Publish(ctx, channel, encoded).Err(); err != nil {
		return fmt.Errorf("failed to publish feature flags invalidation - %w", err)
	}
	return nil
}

// RedisInvalidationPublisher publishes flags invalidations to redis channel
type RedisInvalidationPublisher struct {
	client  *redis.Client
	channel string
}

// NewRedisInvalidationPublisher builds publisher of flags invalidations
func NewRedisInvalidationPublisher(client *redis.Client, channel string) *RedisInvalidationPublisher {
	return &RedisInvalidationPublisher{client: client, channel: channel}
}

func (p *RedisInvalidationPublisher) Publish(ctx context.Context, keys []string) error {
	return PublishInvalidation(ctx, p.client, p.channel, keys)
}
