package config

import (
	"fmt"  // For error wrapping
	"time" // For durations

	"github.com/joho/godotenv"             // For loading .env files
	"github.com/kelseyhightower/envconfig" // For environment parsing
)

// Config holds the application configuration
type Config struct {
	App     AppConfig
	DB      DBConfig
	Redis   RedisConfig
	JWT     JWTConfig
	Cache   CacheConfig
	MockAPI MockAPIConfig
	Auth    AuthConfig
}

// AppConfig holds process-level settings
type AppConfig struct {
	Port         string `envconfig:"APP_PORT" default:"8080"`      // Application port
	IsProd       bool   `envconfig:"IS_PROD" default:"false"`      // Is production environment
	LogLevel     string `envconfig:"LOG_LEVEL" default:"info"`     // logrus level name
	DemoAccounts bool   `envconfig:"DEMO_ACCOUNTS" default:"true"` // Accept the built-in demo credentials
}

// DBConfig selects and locates the local store
type DBConfig struct {
	Driver   string `envconfig:"DB_DRIVER" default:"sqlite"`      // sqlite, mysql or postgres
	Path     string `envconfig:"DB_PATH" default:"storefront.db"` // SQLite database file
	DSN      string `envconfig:"DB_DSN"`                          // Full DSN, overrides the parts below
	User     string `envconfig:"DB_USER"`                         // Database user
	Password string `envconfig:"DB_PASSWORD"`                     // Database password
	Host     string `envconfig:"DB_HOST"`                         // Database host
	Port     string `envconfig:"DB_PORT"`                         // Database port
	Name     string `envconfig:"DB_NAME"`                         // Database name
}

// RedisConfig is optional; an empty address disables Redis
type RedisConfig struct {
	Addr string `envconfig:"REDIS_ADDR"` // Redis server address
	Pass string `envconfig:"REDIS_PASS"` // Redis password
	DB   int    `envconfig:"REDIS_DB" default:"0"`
}

// JWTConfig signs session tokens
type JWTConfig struct {
	Secret      string        `envconfig:"JWT_SECRET" required:"true"`           // JWT secret key
	TTL         time.Duration `envconfig:"JWT_TTL" default:"24h"`                // Lifetime of tab-scoped sessions
	RememberTTL time.Duration `envconfig:"JWT_REMEMBER_TTL" default:"720h"`      // Lifetime of durable sessions
	SweepEvery  time.Duration `envconfig:"SESSION_SWEEP_INTERVAL" default:"10m"` // How often expired session state is dropped
}

// CacheConfig controls the catalog list cache
type CacheConfig struct {
	TTL time.Duration `envconfig:"CACHE_TTL" default:"60s"`
}

// MockAPIConfig controls the simulated order endpoint
type MockAPIConfig struct {
	Latency time.Duration `envconfig:"MOCK_API_LATENCY" default:"800ms"`
}

// AuthConfig limits login and registration attempts
type AuthConfig struct {
	RatePerMinute int `envconfig:"AUTH_RATE_PER_MIN" default:"30"`
}

// LoadConfig loads configuration from the environment (and .env if present)
func LoadConfig() (*Config, error) {
	_ = godotenv.Load() // Load .env file if present
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

// RedisEnabled reports whether a Redis server is configured
func (c *Config) RedisEnabled() bool {
	return c.Redis.Addr != ""
}

// DataSource returns the DSN handed to the selected driver
func (d DBConfig) DataSource() string {
	if d.DSN != "" {
		return d.DSN
	}
	switch d.Driver {
	case "mysql":
		return d.User + ":" + d.Password + "@tcp(" + d.Host + ":" + d.Port + ")/" + d.Name + "?parseTime=true"
	case "postgres":
		return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable", d.Host, d.Port, d.User, d.Password, d.Name)
	default:
		return d.Path
	}
}
