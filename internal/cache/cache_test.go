package cache

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-redis/redis/v9"
	"github.com/labstack/gommon/log"
	"github.com/ory/dockertest/v3"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/umalmyha/inquiries/internal/cache/mocks"
	"github.com/umalmyha/inquiries/internal/model"
	"github.com/umalmyha/inquiries/internal/repository"
	rpsMocks "github.com/umalmyha/inquiries/internal/repository/mocks"
	"github.com/umalmyha/inquiries/internal/service"
	"github.com/vmihailenco/msgpack/v5"
)

const (
	redisContainerName = "redis-test-inquiries"
	testChannel        = "feature_flags:invalidate:test"
)

var redisClient *redis.Client

func TestMain(m *testing.M) {
	flag.Parse()

	if testing.Short() {
		os.Exit(m.Run())
	}

	dockerPool, err := dockertest.NewPool("")
	if err != nil {
		log.Fatalf("failed to create pool - %v", err)
	}

	rds, err := dockerPool.RunWithOptions(&dockertest.RunOptions{
		Name:       redisContainerName,
		Repository: "redis",
		Tag:        "7",
	})
	if err != nil {
		log.Fatalf("failed to start redis - %v", err)
	}

	err = dockerPool.Retry(func() error {
		redisClient = redis.NewClient(&redis.Options{Addr: fmt.Sprintf("localhost:%s", rds.GetPort("6379/tcp"))})
		return redisClient.Ping(context.Background()).Err()
	})
	if err != nil {
		log.Fatalf("failed to establish connection to redis - %v", err)
	}

	code := m.Run()

	_ = redisClient.Close()
	if err := dockerPool.Purge(rds); err != nil {
		log.Fatalf("failed to purge redis - %v", err)
	}

	os.Exit(code)
}

func testLogger() logrus.FieldLogger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

type countingTarget struct {
	calls int32
}

func (c *countingTarget) Invalidate() {
	atomic.AddInt32(&c.calls, 1)
}

func (c *countingTarget) count() int {
	return int(atomic.LoadInt32(&c.calls))
}

func newTestCachedFlagRepository(flagRps *rpsMocks.FlagRepository, cache *mocks.FlagRecordsCache, at time.Time) *cachedFlagRepository {
	rps := NewCachedFlagRepository(flagRps, cache, testLogger()).(*cachedFlagRepository)
	rps.now = func() time.Time { return at }
	return rps
}

func TestCachedFlagRepository(t *testing.T) {
	ctx := context.Background()
	at := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	records := []*model.FlagRecord{{Key: model.FlagKillSwitch, Enabled: true}}
	fresh := &model.FlagRecordsSnapshot{Records: records, ReadAt: at}

	t.Log("cached records are served without reading repository")
	{
		cacheMock := mocks.NewFlagRecordsCache(t)
		flagRpsMock := rpsMocks.NewFlagRepository(t)
		cached := &model.FlagRecordsSnapshot{Records: records, ReadAt: at.Add(-4 * time.Minute)}
		cacheMock.On("Find", ctx).Return(cached, nil).Once()

		res, readAt, err := newTestCachedFlagRepository(flagRpsMock, cacheMock, at).FindAllAged(ctx)
		require.NoError(t, err)
		require.Equal(t, records, res)
		require.Equal(t, cached.ReadAt, readAt, "age of shared records must be kept")
		flagRpsMock.AssertNotCalled(t, "FindAll", mock.Anything)
	}

	t.Log("cache miss reads repository and fills cache")
	{
		cacheMock := mocks.NewFlagRecordsCache(t)
		flagRpsMock := rpsMocks.NewFlagRepository(t)
		cacheMock.On("Find", ctx).Return(nil, nil).Once()
		flagRpsMock.On("FindAll", ctx).Return(records, nil).Once()
		cacheMock.On("Cache", ctx, fresh).Return(nil).Once()

		res, readAt, err := newTestCachedFlagRepository(flagRpsMock, cacheMock, at).FindAllAged(ctx)
		require.NoError(t, err)
		require.Equal(t, records, res)
		require.Equal(t, at, readAt)
	}

	t.Log("fresh read skips cache and refills it")
	{
		freshCtx := repository.WithFreshRead(ctx)
		cacheMock := mocks.NewFlagRecordsCache(t)
		flagRpsMock := rpsMocks.NewFlagRepository(t)
		flagRpsMock.On("FindAll", freshCtx).Return(records, nil).Once()
		cacheMock.On("Cache", freshCtx, fresh).Return(nil).Once()

		res, err := newTestCachedFlagRepository(flagRpsMock, cacheMock, at).FindAll(freshCtx)
		require.NoError(t, err)
		require.Equal(t, records, res)
		cacheMock.AssertNotCalled(t, "Find", mock.Anything)
	}

	t.Log("broken cache doesn't break reads")
	{
		cacheMock := mocks.NewFlagRecordsCache(t)
		flagRpsMock := rpsMocks.NewFlagRepository(t)
		cacheMock.On("Find", ctx).Return(nil, errors.New("connection refused")).Once()
		flagRpsMock.On("FindAll", ctx).Return(records, nil).Once()
		cacheMock.On("Cache", ctx, fresh).Return(errors.New("connection refused")).Once()

		res, err := newTestCachedFlagRepository(flagRpsMock, cacheMock, at).FindAll(ctx)
		require.NoError(t, err)
		require.Equal(t, records, res)
	}

	t.Log("repository failure is returned")
	{
		cacheMock := mocks.NewFlagRecordsCache(t)
		flagRpsMock := rpsMocks.NewFlagRepository(t)
		cacheMock.On("Find", ctx).Return(nil, nil).Once()
		flagRpsMock.On("FindAll", ctx).Return(nil, errors.New("relation does not exist")).Once()

		_, err := newTestCachedFlagRepository(flagRpsMock, cacheMock, at).FindAll(ctx)
		require.Error(t, err)
	}
}

func TestForcedFetchSeesKillSwitchBehindSharedCache(t *testing.T) {
	ctx := context.Background()
	freshCtx := repository.WithFreshRead(ctx)
	cacheMock := mocks.NewFlagRecordsCache(t)
	flagRpsMock := rpsMocks.NewFlagRepository(t)

	unlocked := []*model.FlagRecord{{Key: model.FlagKillSwitch, Enabled: false}}
	flipped := []*model.FlagRecord{{Key: model.FlagKillSwitch, Enabled: true}}

	cacheMock.On("Find", ctx).Return(&model.FlagRecordsSnapshot{Records: unlocked, ReadAt: time.Now().UTC()}, nil).Once()
	flagRpsMock.On("FindAll", freshCtx).Return(unlocked, nil).Once()
	flagRpsMock.On("FindAll", freshCtx).Return(flipped, nil).Once()
	cacheMock.On("Cache", freshCtx, mock.Anything).Return(nil).Twice()

	flagSvc := service.NewFeatureFlagService(NewCachedFlagRepository(flagRpsMock, cacheMock, testLogger()), time.Minute, testLogger())

	t.Log("plain fetch is served by shared cache")
	{
		state := flagSvc.Fetch(ctx, service.FetchOptions{})
		require.False(t, state.KillSwitch)
		flagRpsMock.AssertNotCalled(t, "FindAll", mock.Anything)
	}

	t.Log("every forced fetch reads flag store")
	{
		state := flagSvc.Fetch(ctx, service.FetchOptions{Force: true})
		require.False(t, state.KillSwitch)

		state = flagSvc.Fetch(ctx, service.FetchOptions{Force: true})
		require.Equal(t, model.FlagSourceRemote, state.Source)
		require.True(t, state.KillSwitch, "flipped kill switch must be seen")
		require.False(t, state.Telephony)
		flagRpsMock.AssertNumberOfCalls(t, "FindAll", 2)
	}
}

func TestInvalidatorHandle(t *testing.T) {
	ctx := context.Background()

	t.Log("invalidation evicts cache and target")
	{
		cacheMock := mocks.NewFlagRecordsCache(t)
		cacheMock.On("Evict", ctx).Return(nil).Once()
		target := &countingTarget{}

		inv := NewRedisFlagInvalidator(nil, testChannel, cacheMock, target, testLogger()).(*redisFlagInvalidator)

		payload, err := msgpack.Marshal(&Invalidation{Keys: []string{model.FlagPayments}, IssuedAt: time.Now()})
		require.NoError(t, err)

		inv.handle(ctx, string(payload))
		require.Equal(t, 1, target.count())
	}

	t.Log("undecodable payload still invalidates")
	{
		target := &countingTarget{}
		inv := NewRedisFlagInvalidator(nil, testChannel, nil, target, testLogger()).(*redisFlagInvalidator)

		inv.handle(ctx, "not msgpack")
		require.Equal(t, 1, target.count())
	}
}

func TestRedisFlagRecordsCache(t *testing.T) {
	if testing.Short() {
		t.Skip("integration test, docker containers are required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	percentage := 40
	records := []*model.FlagRecord{
		{Key: model.FlagKillSwitch},
		{Key: model.FlagTelephony, Enabled: true, RolloutPercentage: &percentage},
	}

	flagsCache := NewRedisFlagRecordsCache(redisClient, time.Minute)

	t.Log("miss on empty cache")
	{
		res, err := flagsCache.Find(ctx)
		require.NoError(t, err)
		require.Nil(t, res)
	}

	t.Log("cached records are found")
	{
		readAt := time.Now().UTC().Truncate(time.Millisecond)
		require.NoError(t, flagsCache.Cache(ctx, &model.FlagRecordsSnapshot{Records: records, ReadAt: readAt}))

		res, err := flagsCache.Find(ctx)
		require.NoError(t, err)
		require.Equal(t, records, res.Records)
		require.True(t, readAt.Equal(res.ReadAt), "read time must survive cache")

		ttl, err := redisClient.TTL(ctx, flagRecordsKey).Result()
		require.NoError(t, err)
		require.True(t, ttl > 0 && ttl <= time.Minute, "entry must expire ttl after records were read, got %s", ttl)
	}

	t.Log("records older than ttl are not cached")
	{
		require.NoError(t, flagsCache.Evict(ctx))
		require.NoError(t, flagsCache.Cache(ctx, &model.FlagRecordsSnapshot{Records: records, ReadAt: time.Now().Add(-2 * time.Minute)}))

		res, err := flagsCache.Find(ctx)
		require.NoError(t, err)
		require.Nil(t, res)
	}

	t.Log("evicted records are gone")
	{
		require.NoError(t, flagsCache.Evict(ctx))

		res, err := flagsCache.Find(ctx)
		require.NoError(t, err)
		require.Nil(t, res)
	}
}

func TestRedisFlagInvalidator(t *testing.T) {
	if testing.Short() {
		t.Skip("integration test, docker containers are required")
	}

	target := &countingTarget{}
	inv := NewRedisFlagInvalidator(redisClient, testChannel, NewRedisFlagRecordsCache(redisClient, time.Minute), target, testLogger())

	errCh := make(chan error, 1)
	go func() {
		errCh <- inv.Listen()
	}()

	// subscription is confirmed asynchronously, keep publishing until delivered
	require.Eventually(t, func() bool {
		_ = PublishInvalidation(context.Background(), redisClient, testChannel, []string{model.FlagAnalytics})
		return target.count() > 0
	}, 5*time.Second, 100*time.Millisecond)

	inv.Stop()
	require.NoError(t, <-errCh)
}
