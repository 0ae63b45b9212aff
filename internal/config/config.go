package config

import (
	"crypto"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/golang-jwt/jwt/v4"
	"github.com/joho/godotenv"
)

const jwtSigningAlgorithmEd25519 = "EdDSA"

const (
	StoreBackendPostgres = "postgres"
	StoreBackendMongo    = "mongo"
	StoreBackendFunction = "function"
)

type HttpCfg struct {
	Port            int           `env:"HTTP_PORT" envDefault:"8080"`
	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

type GrpcCfg struct {
	Port int `env:"GRPC_PORT" envDefault:"9090"`
}

type MongoCfg struct {
	Host        string `env:"MONGO_HOST" envDefault:"localhost"`
	User        string `env:"MONGO_USER" envDefault:""`
	Password    string `env:"MONGO_PASSWORD" envDefault:""`
	Port        int    `env:"MONGO_PORT" envDefault:"27017"`
	Database    string `env:"MONGO_DB" envDefault:"inquiries"`
	MaxPoolSize int    `env:"MONGO_MAX_POOL_SIZE" envDefault:"100"`
}

type PostgresCfg struct {
	Host        string `env:"POSTGRES_HOST" envDefault:"localhost"`
	User        string `env:"POSTGRES_USER" envDefault:""`
	Password    string `env:"POSTGRES_PASSWORD" envDefault:""`
	Database    string `env:"POSTGRES_DB" envDefault:"inquiries"`
	SslMode     string `env:"POSTGRES_SSL_MODE" envDefault:"disable"`
	Port        int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PoolMaxConn int    `env:"POSTGRES_POOL_MAX_CONN" envDefault:"100"`
}

type RedisCfg struct {
	Addr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	Password string `env:"REDIS_PASSWORD" envDefault:""`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
}

type KafkaCfg struct {
	Enabled bool     `env:"KAFKA_ENABLED" envDefault:"false"`
	Brokers []string `env:"KAFKA_BROKERS" envSeparator:"," envDefault:"localhost:9092"`
	Topic   string   `env:"KAFKA_ANALYTICS_TOPIC" envDefault:"inquiries.analytics"`
}

type JwtCfg struct {
	Issuer        string `env:"AUTH_JWT_ISSUER" envDefault:"inquiries-api"`
	PublicKeyFile string `env:"AUTH_JWT_PUBLIC_KEY_FILE" envDefault:""`
	SigningMethod jwt.SigningMethod
	PublicKey     crypto.PublicKey
}

type AuthCfg struct {
	JwtCfg JwtCfg

	// OperatorKey guards flags invalidation, empty key disables it
	OperatorKey string `env:"AUTH_OPERATOR_KEY" envDefault:""`
}

// StoreCfg selects where inquiries live and how inquiry store behaves
type StoreCfg struct {
	Backend        string        `env:"STORE_BACKEND" envDefault:"postgres"`
	FunctionURL    string        `env:"STORE_FUNCTION_URL" envDefault:""`
	FunctionKey    string        `env:"STORE_FUNCTION_API_KEY" envDefault:""`
	CoalesceWindow time.Duration `env:"STORE_COALESCE_WINDOW" envDefault:"30s"`
	FetchTimeout   time.Duration `env:"STORE_FETCH_TIMEOUT" envDefault:"10s"`
}

type FlagsCfg struct {
	TimeToLive          time.Duration `env:"FLAGS_TIME_TO_LIVE" envDefault:"5m"`
	SeedFile            string        `env:"FLAGS_SEED_FILE" envDefault:""`
	InvalidationChannel string        `env:"FLAGS_INVALIDATION_CHANNEL" envDefault:"feature_flags:invalidate"`
}

type LogCfg struct {
	Level string `env:"LOG_LEVEL" envDefault:"info"`
	Json  bool   `env:"LOG_JSON" envDefault:"true"`
}

type RateLimitCfg struct {
	RequestsPerSecond float64 `env:"RATE_LIMIT_RPS" envDefault:"10"`
	Burst             int     `env:"RATE_LIMIT_BURST" envDefault:"20"`
}

type Config struct {
	HttpCfg      HttpCfg
	GrpcCfg      GrpcCfg
	MongoCfg     MongoCfg
	PostgresCfg  PostgresCfg
	RedisCfg     RedisCfg
	KafkaCfg     KafkaCfg
	AuthCfg      AuthCfg
	StoreCfg     StoreCfg
	FlagsCfg     FlagsCfg
	LogCfg       LogCfg
	RateLimitCfg RateLimitCfg
}

// Build reads configuration from environment, .env file in working directory is loaded first if present
func Build() (Config, error) {
	var cfg Config

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return cfg, fmt.Errorf("failed to load .env file - %w", err)
	}

	opts := env.Options{RequiredIfNoDef: true}
	if err := env.Parse(&cfg, opts); err != nil {
		return cfg, fmt.Errorf("failed to parse environment variables - %w", err)
	}

	if err := cfg.validate(); err != nil {
		return cfg, err
	}

	cfg.AuthCfg.JwtCfg.SigningMethod = jwt.GetSigningMethod(jwtSigningAlgorithmEd25519)

	// anonymous sessions only
	if cfg.AuthCfg.JwtCfg.PublicKeyFile == "" {
		return cfg, nil
	}

	jwtPublicKeyBytes, err := os.ReadFile(cfg.AuthCfg.JwtCfg.PublicKeyFile)
	if err != nil {
		return cfg, fmt.Errorf("failed to read public key file for jwt - %w", err)
	}

	jwtPublicKey, err := jwt.ParseEdPublicKeyFromPEM(jwtPublicKeyBytes)
	if err != nil {
		return cfg, fmt.Errorf("failed to parse public key for jwt - %w", err)
	}
	cfg.AuthCfg.JwtCfg.PublicKey = jwtPublicKey

	return cfg, nil
}

func (c Config) validate() error {
	switch c.StoreCfg.Backend {
	case StoreBackendPostgres, StoreBackendMongo:
	case StoreBackendFunction:
		if c.StoreCfg.FunctionURL == "" {
			return errors.New("STORE_FUNCTION_URL is required for function store backend")
		}
	default:
		return fmt.Errorf("unknown store backend %s", c.StoreCfg.Backend)
	}

	if c.StoreCfg.FetchTimeout <= 0 {
		return errors.New("STORE_FETCH_TIMEOUT must be positive")
	}
	if c.FlagsCfg.TimeToLive <= 0 {
		return errors.New("FLAGS_TIME_TO_LIVE must be positive")
	}
	return nil
}
