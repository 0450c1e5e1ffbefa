package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
	"github.com/go-playground/validator/v10"

	"github.com/xenking/order-gateway/pkg/httpmiddleware"
)

const defaultAddr = "0.0.0.0:5001"

// Config holds the gateway configuration, loadable from environment variables
// (GATEWAY_ prefix), flags, or YAML config files.
type Config struct {
	Addr         string   `default:"0.0.0.0:5001" usage:"API server listen address" validate:"required,hostname_port"`
	DatabaseURL  string   `usage:"PostgreSQL connection URL (GATEWAY_DATABASE_URL or DATABASE_URL)" flag:"database-url" validate:"required"`
	APIKeys      []string `usage:"Accepted API keys (GATEWAY_API_KEYS or API_KEY)" flag:"api-keys"`
	APIKeyPepper string   `usage:"HMAC pepper for API key hashing" flag:"api-key-pepper"`
	MaxBodyBytes int64    `default:"1048576" usage:"Request body size limit" flag:"max-body-bytes" validate:"gt=0"`
	Migrate      bool     `default:"true" usage:"Apply embedded migrations on start"`
	Pool         PoolConfig
	RateLimit    RateLimitConfig
	CORS         CORSConfig
	Graceful     GracefulConfig
}

// PoolConfig sizes the database connection pool.
type PoolConfig struct {
	MaxConns        int32         `default:"10" usage:"Maximum pool connections" validate:"gte=1"`
	MinConns        int32         `default:"0" usage:"Minimum idle pool connections" validate:"gte=0,ltefield=MaxConns"`
	MaxConnIdleTime time.Duration `default:"30s" usage:"Close connections idle longer than this"`
}

// RateLimitConfig controls the per-client sliding window rate limiter.
type RateLimitConfig struct {
	Max    int           `default:"100" usage:"Max requests per window, 0 disables" validate:"gte=0"`
	Window time.Duration `default:"1m"  usage:"Rate limit window duration" validate:"gte=0,required_with=Max"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins          []string      `default:"*" usage:"Allowed CORS origins"`
	AllowCredentials bool          `default:"false" usage:"Allow credentials" flag:"cors-credentials"`
	MaxAge           time.Duration `default:"24h" usage:"Preflight cache duration" flag:"cors-max-age"`
}

func (c CORSConfig) middleware() httpmiddleware.CORSConfig {
	return httpmiddleware.CORSConfig{
		Origins:     c.Origins,
		Credentials: c.AllowCredentials,
		MaxAge:      c.MaxAge,
	}
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout" validate:"gt=0"`
}

// LoadConfig loads configuration from environment variables and YAML files,
// applies platform defaults and validates the result.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "GATEWAY",
		Files:     []string{"config.yaml", "/etc/gateway/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults(os.Getenv)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the validate tags.
func (c *Config) Validate() error {
	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(c); err != nil {
		return errors.Wrap(err, "invalid config")
	}
	return nil
}

// applyPlatformDefaults maps the conventional DATABASE_URL, PORT and API_KEY
// variables onto the GATEWAY_-prefixed configuration.
func (c *Config) applyPlatformDefaults(getenv func(string) string) {
	if c.DatabaseURL == "" {
		c.DatabaseURL = getenv("DATABASE_URL")
	}
	if port := getenv("PORT"); port != "" && c.Addr == defaultAddr {
		c.Addr = "0.0.0.0:" + port
	}
	if len(c.APIKeys) == 0 {
		if key := getenv("API_KEY"); key != "" {
			c.APIKeys = []string{key}
		}
	}
}
