package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix namespaces every environment variable the service reads.
const EnvPrefix = "CARDHAVEN"

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

type Config struct {
	App          AppConfig
	Redis        RedisConfig
	Cart         CartConfig
	Pricing      PricingConfig
	Search       SearchConfig
	Revalidation RevalidationConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string   `envconfig:"CARDHAVEN_APP_ENV" required:"true"`
	Port         string   `envconfig:"CARDHAVEN_APP_PORT" default:"8080"`
	LogLevel     string   `envconfig:"CARDHAVEN_LOG_LEVEL" default:"info"`
	LogWarnStack bool     `envconfig:"CARDHAVEN_LOG_WARN_STACK" default:"false"`
	CORSOrigins  []string `envconfig:"CARDHAVEN_CORS_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type RedisConfig struct {
	URL          string        `envconfig:"CARDHAVEN_REDIS_URL" required:"true"`
	Address      string        `envconfig:"CARDHAVEN_REDIS_ADDR"`
	Password     string        `envconfig:"CARDHAVEN_REDIS_PASSWORD"`
	DB           int           `envconfig:"CARDHAVEN_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"CARDHAVEN_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"CARDHAVEN_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"CARDHAVEN_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"CARDHAVEN_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"CARDHAVEN_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type CartConfig struct {
	Retention            time.Duration `envconfig:"CARDHAVEN_CART_RETENTION" default:"168h"`
	NotificationTTL      time.Duration `envconfig:"CARDHAVEN_CART_NOTIFICATION_TTL" default:"5s"`
	PriceDeviationPct    float64       `envconfig:"CARDHAVEN_CART_PRICE_DEVIATION_PCT" default:"5"`
	MaxNotificationQueue int           `envconfig:"CARDHAVEN_CART_MAX_NOTIFICATION_QUEUE" default:"50"`
}

type PricingConfig struct {
	BaseURL string        `envconfig:"CARDHAVEN_PRICING_BASE_URL" required:"true"`
	APIKey  string        `envconfig:"CARDHAVEN_PRICING_API_KEY" required:"true"`
	Timeout time.Duration `envconfig:"CARDHAVEN_PRICING_TIMEOUT" default:"10s"`
}

type SearchConfig struct {
	Debounce        time.Duration `envconfig:"CARDHAVEN_SEARCH_DEBOUNCE" default:"300ms"`
	CountsCacheTTL  time.Duration `envconfig:"CARDHAVEN_SEARCH_COUNTS_CACHE_TTL" default:"1m"`
	RateLimit       int64         `envconfig:"CARDHAVEN_SEARCH_RATE_LIMIT" default:"30"`
	RateLimitWindow time.Duration `envconfig:"CARDHAVEN_SEARCH_RATE_LIMIT_WINDOW" default:"1m"`
}

type RevalidationConfig struct {
	Interval time.Duration `envconfig:"CARDHAVEN_REVALIDATION_INTERVAL" default:"5m"`
	LockTTL  time.Duration `envconfig:"CARDHAVEN_REVALIDATION_LOCK_TTL" default:"4m"`
}
