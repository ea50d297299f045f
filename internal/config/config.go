package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const ProdEnv = "prod"

// Config holds all application configuration loaded from environment.
type Config struct {
	AppEnv      string `envconfig:"APP_ENV" default:"dev"`
	ProdOrigins string `envconfig:"PROD_ORIGINS"`
	HTTPAddr    string `envconfig:"HTTP_ADDR" default:":8080"`

	DBDSN          string `envconfig:"DB_DSN" required:"true"`
	MigrateOnStart bool   `envconfig:"MIGRATE_ON_START" default:"true"`

	JWTSecret         string        `envconfig:"JWT_SECRET" required:"true"`
	JWTAccessTokenTTL time.Duration `envconfig:"JWT_ACCESS_TOKEN_TTL" default:"15m"`
	BcryptCost        int           `envconfig:"BCRYPT_COST" default:"12"`

	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"json"`

	// Rate limiting on booking creation. Empty RedisAddr disables it.
	RedisAddr      string        `envconfig:"REDIS_ADDR"`
	RedisPassword  string        `envconfig:"REDIS_PASSWORD"`
	RedisDB        int           `envconfig:"REDIS_DB" default:"0"`
	BookRateLimit  int           `envconfig:"BOOK_RATE_LIMIT" default:"10"`
	BookRateWindow time.Duration `envconfig:"BOOK_RATE_WINDOW" default:"1m"`

	// Booking events. Empty AMQPURL disables publishing.
	AMQPURL      string `envconfig:"AMQP_URL"`
	AMQPExchange string `envconfig:"AMQP_EXCHANGE" default:"booking.events"`

	// Tracing. Empty endpoint keeps the no-op tracer.
	OTLPEndpoint string `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT"`

	// Extra facility aliases, e.g. "pool:Swimming Pool,court:Badminton Court".
	FacilityAliases map[string]string `envconfig:"FACILITY_ALIASES"`

	AdminHogwartsID string `envconfig:"ADMIN_HOGWARTS_ID" default:"admin"`
	AdminPassword   string `envconfig:"ADMIN_PASSWORD"`
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == ProdEnv
}

// Origins splits PROD_ORIGINS on commas.
func (c *Config) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.ProdOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// Load loads configuration from .env (optional) and environment variables.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file loaded", "error", err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("process env: %w", err)
	}

	// envconfig treats a set-but-empty variable as present
	if cfg.DBDSN == "" {
		return nil, fmt.Errorf("DB_DSN is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.BcryptCost < 4 || cfg.BcryptCost > 31 {
		return nil, fmt.Errorf("invalid BCRYPT_COST %d: must be between 4 and 31", cfg.BcryptCost)
	}
	if cfg.JWTAccessTokenTTL <= 0 {
		return nil, fmt.Errorf("invalid JWT_ACCESS_TOKEN_TTL %s", cfg.JWTAccessTokenTTL)
	}
	if cfg.IsProduction() && cfg.AdminPassword == "" {
		return nil, fmt.Errorf("ADMIN_PASSWORD is required in production")
	}

	return &cfg, nil
}
