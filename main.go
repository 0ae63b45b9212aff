package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v9"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
	"github.com/umalmyha/inquiries/internal/analytics"
	"github.com/umalmyha/inquiries/internal/auth"
	"github.com/umalmyha/inquiries/internal/cache"
	"github.com/umalmyha/inquiries/internal/config"
	"github.com/umalmyha/inquiries/internal/handlers"
	"github.com/umalmyha/inquiries/internal/infra"
	"github.com/umalmyha/inquiries/internal/interceptors"
	"github.com/umalmyha/inquiries/internal/logging"
	"github.com/umalmyha/inquiries/internal/middleware"
	"github.com/umalmyha/inquiries/internal/remote"
	"github.com/umalmyha/inquiries/internal/repository"
	"github.com/umalmyha/inquiries/internal/service"
	"github.com/umalmyha/inquiries/pkg/db/transactor"
	"go.mongodb.org/mongo-driver/mongo"
	"google.golang.org/grpc"
)

const DefaultConnectTimeout = 5 * time.Second

type backends struct {
	pgPool      *pgxpool.Pool
	mongoClient *mongo.Client
	redisClient *redis.Client
	kafkaWriter *kafka.Writer
}

func (b *backends) close(logger logrus.FieldLogger) {
	if b.kafkaWriter != nil {
		if err := b.kafkaWriter.Close(); err != nil {
			logger.WithError(err).Warn("failed to flush analytics events")
		}
	}

	if b.redisClient != nil {
		if err := b.redisClient.Close(); err != nil {
			logger.WithError(err).Warn("failed to gracefully close connection to redis")
		}
	}

	if b.mongoClient != nil {
		ctx, cancel := context.WithTimeout(context.Background(), DefaultConnectTimeout)
		defer cancel()

		if err := b.mongoClient.Disconnect(ctx); err != nil {
			logger.WithError(err).Warn("failed to gracefully disconnect from mongodb")
		}
	}

	if b.pgPool != nil {
		b.pgPool.Close()
	}
}

type app struct {
	http        *echo.Echo
	grpc        *grpc.Server
	invalidator cache.CacheUpdater
	limiter     *middleware.RateLimiter
	flags       *service.FeatureFlagRegistry
}

// @title                      Inquiries API
// @version                    1.0
// @description                Feature flags and customer inquiries of the mobile client
// @BasePath                   /
// @securityDefinitions.apikey ApiKeyAuth
// @in                         header
// @name                       Authorization
func main() {
	cfg, err := config.Build()
	if err != nil {
		log.Fatalf("failed to build configuration - %v", err)
	}

	logger, err := logging.New(cfg.LogCfg)
	if err != nil {
		log.Fatalf("failed to build logger - %v", err)
	}

	b, err := connect(cfg)
	if err != nil {
		logger.Fatalf("failed to connect to backends - %v", err)
	}
	defer b.close(logger)

	a, err := build(cfg, b, logger)
	if err != nil {
		logger.Fatalf("failed to build application - %v", err)
	}

	start(cfg, a, logger)
}

func connect(cfg config.Config) (*backends, error) {
	ctx, cancel := context.WithTimeout(context.Background(), DefaultConnectTimeout)
	defer cancel()

	b := &backends{}

	// flags live next to inquiries unless seeded from file, function backend keeps them in postgres
	needPostgres := cfg.StoreCfg.Backend == config.StoreBackendPostgres ||
		(cfg.StoreCfg.Backend == config.StoreBackendFunction && cfg.FlagsCfg.SeedFile == "")

	if needPostgres {
		pool, err := infra.Postgresql(ctx, cfg.PostgresCfg)
		if err != nil {
			return nil, err
		}
		b.pgPool = pool
	}

	if cfg.StoreCfg.Backend == config.StoreBackendMongo {
		client, err := infra.Mongodb(ctx, cfg.MongoCfg)
		if err != nil {
			b.close(logrus.StandardLogger())
			return nil, err
		}
		b.mongoClient = client
	}

	redisClient, err := infra.Redis(ctx, cfg.RedisCfg)
	if err != nil {
		b.close(logrus.StandardLogger())
		return nil, err
	}
	b.redisClient = redisClient

	if cfg.KafkaCfg.Enabled {
		b.kafkaWriter = analytics.NewKafkaWriter(cfg.KafkaCfg.Brokers, cfg.KafkaCfg.Topic)
	}
	return b, nil
}

func build(cfg config.Config, b *backends, logger *logrus.Logger) (*app, error) {
	// Flags
	var flagRps repository.FlagRepository
	switch {
	case cfg.FlagsCfg.SeedFile != "":
		flagRps = repository.NewFileFlagRepository(cfg.FlagsCfg.SeedFile)
	case b.mongoClient != nil:
		flagRps = repository.NewMongoFlagRepository(b.mongoClient.Database(cfg.MongoCfg.Database))
	default:
		flagRps = repository.NewPostgresFlagRepository(transactor.NewPgxWithinTransactionExecutor(b.pgPool))
	}

	flagCache := cache.NewRedisFlagRecordsCache(b.redisClient, cfg.FlagsCfg.TimeToLive)
	flagRps = cache.NewCachedFlagRepository(flagRps, flagCache, logger)

	registry := service.NewFeatureFlagRegistry(flagRps, cfg.FlagsCfg.TimeToLive, logger)
	invalidator := cache.NewRedisFlagInvalidator(b.redisClient, cfg.FlagsCfg.InvalidationChannel, flagCache, registry, logger)
	publisher := cache.NewRedisInvalidationPublisher(b.redisClient, cfg.FlagsCfg.InvalidationChannel)

	// Analytics, gated by flags of anonymous session
	tracker := analytics.NopTracker()
	if b.kafkaWriter != nil {
		tracker = analytics.NewKafkaTracker(b.kafkaWriter, registry.ForUser(""), logger)
	}

	// Inquiries
	var source repository.InquirySource
	switch cfg.StoreCfg.Backend {
	case config.StoreBackendFunction:
		source = remote.NewFunctionClient(cfg.StoreCfg.FunctionURL, cfg.StoreCfg.FunctionKey, nil)
	case config.StoreBackendMongo:
		source = repository.NewRepositoryInquirySource(repository.NewMongoInquiryRepository(b.mongoClient.Database(cfg.MongoCfg.Database)))
	default:
		trx := transactor.NewPgxTransactor(b.pgPool)
		executor := transactor.NewPgxWithinTransactionExecutor(b.pgPool)
		source = repository.NewRepositoryInquirySource(repository.NewPostgresInquiryRepository(trx, executor))
	}

	store := service.NewInquiryStore(source, tracker, service.InquiryStoreCfg{
		CoalesceWindow: cfg.StoreCfg.CoalesceWindow,
		FetchTimeout:   cfg.StoreCfg.FetchTimeout,
	}, logger)

	// Auth
	var jwtValidator *auth.JwtValidator
	if jwtCfg := cfg.AuthCfg.JwtCfg; jwtCfg.PublicKey != nil {
		jwtValidator = auth.NewJwtValidator(jwtCfg.Issuer, jwtCfg.SigningMethod, jwtCfg.PublicKey)
	} else {
		logger.Warn("jwt public key is not configured, every request is served as anonymous session")
	}

	if cfg.AuthCfg.OperatorKey == "" {
		logger.Warn("operator key is not configured, flags invalidation over http is disabled")
	}

	limiter := middleware.NewRateLimiter(cfg.RateLimitCfg.RequestsPerSecond, cfg.RateLimitCfg.Burst)

	e, err := infra.Router(infra.RouterDeps{
		Logger:       logger,
		JwtValidator: jwtValidator,
		Flags:        registry,
		Store:        store,
		Publisher:    publisher,
		Limiter:      limiter,
		OperatorKey:  cfg.AuthCfg.OperatorKey,
	})
	if err != nil {
		return nil, err
	}

	grpcServer := grpc.NewServer(grpc.ChainUnaryInterceptor(
		interceptors.ErrorUnaryInterceptor(logger),
		interceptors.AuthUnaryInterceptor(jwtValidator),
	))
	handlers.RegisterFeatureFlagServiceServer(grpcServer, handlers.NewFlagGrpcHandler(registry))
	handlers.RegisterInquiryServiceServer(grpcServer, handlers.NewInquiryGrpcHandler(store))

	return &app{
		http:        e,
		grpc:        grpcServer,
		invalidator: invalidator,
		limiter:     limiter,
		flags:       registry,
	}, nil
}

func start(cfg config.Config, a *app, logger *logrus.Logger) {
	shutdownCh := make(chan os.Signal, 1)
	errorCh := make(chan error, 3)
	signal.Notify(shutdownCh, os.Interrupt, syscall.SIGTERM)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go a.limiter.Cleanup(ctx)
	go a.flags.Cleanup(ctx)

	go func() {
		if err := a.invalidator.Listen(); err != nil {
			errorCh <- fmt.Errorf("flags invalidation listener failed - %w", err)
		}
	}()

	go func() {
		errorCh <- a.http.Start(fmt.Sprintf(":%d", cfg.HttpCfg.Port))
	}()

	go func() {
		lis, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.GrpcCfg.Port))
		if err != nil {
			errorCh <- fmt.Errorf("failed to listen gRPC port - %w", err)
			return
		}
		errorCh <- a.grpc.Serve(lis)
	}()

	select {
	case <-shutdownCh:
		logger.Info("shutdown signal has been sent, stopping the server...")
	case err := <-errorCh:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Error("shutting down the server, unexpected error occurred")
		}
	}

	a.invalidator.Stop()
	a.grpc.GracefulStop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.HttpCfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := a.http.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("failed to stop server gracefully")
	}
}
