package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = ""

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv          = "STOREFRONT_APP_ENV"
	EnvPort            = "STOREFRONT_APP_PORT"
	EnvRedisURL        = "STOREFRONT_REDIS_URL"
	EnvCommerceBaseURL = "STOREFRONT_COMMERCE_BASE_URL"
)

type Config struct {
	App      AppConfig
	Redis    RedisConfig
	Commerce CommerceConfig
	Payment  PaymentConfig
	Routing  RoutingConfig
	Pickup   PickupConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Commerce.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"STOREFRONT_APP_ENV" required:"true"`
	Port         string `envconfig:"STOREFRONT_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"STOREFRONT_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"STOREFRONT_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type RedisConfig struct {
	URL          string        `envconfig:"STOREFRONT_REDIS_URL" required:"true"`
	Address      string        `envconfig:"STOREFRONT_REDIS_ADDR"`
	Password     string        `envconfig:"STOREFRONT_REDIS_PASSWORD"`
	DB           int           `envconfig:"STOREFRONT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"STOREFRONT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"STOREFRONT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"STOREFRONT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// CommerceConfig points at the upstream commerce API that owns carts,
// orders, addresses, and outlets.
type CommerceConfig struct {
	BaseURL        string        `envconfig:"STOREFRONT_COMMERCE_BASE_URL"`
	RequestTimeout time.Duration `envconfig:"STOREFRONT_COMMERCE_TIMEOUT" default:"15s"`
}

func (c CommerceConfig) validate() error {
	if strings.TrimSpace(c.BaseURL) == "" {
		return fmt.Errorf("STOREFRONT_COMMERCE_BASE_URL is required")
	}
	return nil
}

type PaymentConfig struct {
	SessionTTL time.Duration `envconfig:"STOREFRONT_PAYMENT_SESSION_TTL" default:"30m"`
}

type RoutingConfig struct {
	BaseURL        string        `envconfig:"STOREFRONT_ROUTING_BASE_URL" default:"https://router.project-osrm.org"`
	RequestTimeout time.Duration `envconfig:"STOREFRONT_ROUTING_TIMEOUT" default:"8s"`
}

// PickupConfig holds the fallback coordinates used when a buyer has no
// saved address with usable coordinates. Defaults to the Yogyakarta
// city center.
type PickupConfig struct {
	DefaultLat    float64       `envconfig:"STOREFRONT_PICKUP_DEFAULT_LAT" default:"-7.797068"`
	DefaultLng    float64       `envconfig:"STOREFRONT_PICKUP_DEFAULT_LNG" default:"110.370529"`
	OrderCacheTTL time.Duration `envconfig:"STOREFRONT_ORDER_CACHE_TTL" default:"15s"`
}
