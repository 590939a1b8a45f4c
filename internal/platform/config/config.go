package config

import (
	"os"
	"strings"
	"time"

	id "restgate/pkg/domain"
)

// Server captures process-level configuration.
type Server struct {
	Addr          string
	JWTSigningKey string
	JWTIssuer     string

	// EngineIdentity is the identity the engine grants itself on every
	// decision flag. Defaults to a fixed identity when unset.
	EngineIdentity id.Identity

	// AdminIdentity is the initial administrator (the "deployer").
	AdminIdentity id.Identity

	// PostgresDSN enables durable stores when set; otherwise the in-memory
	// stores are used.
	PostgresDSN string

	// Redis backs the latest-decision cache when configured.
	Redis RedisConfig

	// KafkaBrokers enables the Kafka notification publisher when non-empty.
	KafkaBrokers []string
	KafkaTopic   string
}

// RedisConfig carries go-redis connection settings.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// FromEnv builds a Server config from environment variables so main stays
// lean.
func FromEnv() Server {
	cfg := Server{
		Addr:          envOr("RESTGATE_ADDR", ":8080"),
		JWTSigningKey: envOr("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		JWTIssuer:     envOr("JWT_ISSUER", "restgate"),
		PostgresDSN:   os.Getenv("POSTGRES_DSN"),
		KafkaTopic:    envOr("KAFKA_TOPIC", "restgate.notifications"),
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
	}

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = strings.Split(brokers, ",")
	}

	if raw := os.Getenv("ENGINE_IDENTITY"); raw != "" {
		if parsed, err := id.ParseIdentity(raw); err == nil {
			cfg.EngineIdentity = parsed
		}
	}
	if cfg.EngineIdentity.IsNil() {
		cfg.EngineIdentity = id.NewIdentity()
	}

	if raw := os.Getenv("ADMIN_IDENTITY"); raw != "" {
		if parsed, err := id.ParseIdentity(raw); err == nil {
			cfg.AdminIdentity = parsed
		}
	}
	if cfg.AdminIdentity.IsNil() {
		cfg.AdminIdentity = id.NewIdentity()
	}

	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
