package config

import (
	"fmt"
	"net"
	"net/url"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	Redis         RedisConfig
	Auth          AuthConfig
	Janitor       JanitorConfig
	App           AppConfig
	Observability ObservabilityConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port            string        `envconfig:"SERVER_PORT" required:"true"`
	Host            string        `envconfig:"SERVER_HOST" required:"true"`
	BaseURL         string        `envconfig:"SERVER_BASE_URL" required:"true"`
	ReadTimeout     time.Duration `envconfig:"SERVER_READ_TIMEOUT" required:"true"`
	WriteTimeout    time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" required:"true"`
	IdleTimeout     time.Duration `envconfig:"SERVER_IDLE_TIMEOUT" required:"true"`
	ShutdownTimeout time.Duration `envconfig:"SERVER_SHUTDOWN_TIMEOUT" required:"true"`
}

// Validate validates the server configuration.
func (c *ServerConfig) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("port cannot be empty")
	}
	if c.Host == "" {
		return fmt.Errorf("host cannot be empty")
	}
	if c.BaseURL == "" {
		return fmt.Errorf("base URL cannot be empty")
	}
	if c.ReadTimeout <= 0 || c.WriteTimeout <= 0 || c.IdleTimeout <= 0 {
		return fmt.Errorf("read, write and idle timeouts must be positive")
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("shutdown timeout must be positive")
	}
	return nil
}

// DatabaseConfig holds database connection configuration.
type DatabaseConfig struct {
	Host         string        `envconfig:"DB_HOST" required:"true"`
	Port         string        `envconfig:"DB_PORT" required:"true"`
	User         string        `envconfig:"DB_USER" required:"true"`
	Password     string        `envconfig:"DB_PASSWORD" required:"true"`
	Name         string        `envconfig:"DB_NAME" required:"true"`
	SSLMode      string        `envconfig:"DB_SSLMODE" required:"true"`
	MaxConns     int32         `envconfig:"DB_MAX_CONNS" required:"true"`
	MinConns     int32         `envconfig:"DB_MIN_CONNS" required:"true"`
	QueryTimeout time.Duration `envconfig:"DB_QUERY_TIMEOUT" default:"3s"`
	Migrate      bool          `envconfig:"DB_MIGRATE" default:"true"`
}

// Validate validates the database configuration.
func (c *DatabaseConfig) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("host cannot be empty")
	}
	if c.Port == "" {
		return fmt.Errorf("port cannot be empty")
	}
	if c.User == "" {
		return fmt.Errorf("user cannot be empty")
	}
	if c.Password == "" {
		return fmt.Errorf("password cannot be empty")
	}
	if c.Name == "" {
		return fmt.Errorf("database name cannot be empty")
	}
	if c.MaxConns <= 0 {
		return fmt.Errorf("max connections must be positive")
	}
	if c.MinConns <= 0 {
		return fmt.Errorf("min connections must be positive")
	}
	if c.MinConns > c.MaxConns {
		return fmt.Errorf("min connections (%d) cannot be greater than max connections (%d)", c.MinConns, c.MaxConns)
	}
	if c.QueryTimeout <= 0 {
		return fmt.Errorf("query timeout must be positive")
	}

	validSSLModes := map[string]bool{
		"disable":     true,
		"require":     true,
		"verify-ca":   true,
		"verify-full": true,
	}
	if !validSSLModes[c.SSLMode] {
		return fmt.Errorf("invalid SSL mode: %s (must be one of: disable, require, verify-ca, verify-full)", c.SSLMode)
	}
	return nil
}

// ConnectionString returns the PostgreSQL keyword/value connection string.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// URL returns the PostgreSQL connection URL used by the migrator.
func (c *DatabaseConfig) URL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     net.JoinHostPort(c.Host, c.Port),
		Path:     "/" + c.Name,
		RawQuery: url.Values{"sslmode": []string{c.SSLMode}}.Encode(),
	}
	return u.String()
}

// RedisConfig holds cache backend configuration.
type RedisConfig struct {
	Enabled     bool          `envconfig:"REDIS_ENABLED" default:"true"`
	Addr        string        `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	Password    string        `envconfig:"REDIS_PASSWORD"`
	DB          int           `envconfig:"REDIS_DB" default:"0"`
	DialTimeout time.Duration `envconfig:"REDIS_DIAL_TIMEOUT" default:"2s"`
	OpTimeout   time.Duration `envconfig:"REDIS_OP_TIMEOUT" default:"200ms"`
	KeyPrefix   string        `envconfig:"REDIS_KEY_PREFIX" default:"url:"`
	DefaultTTL  time.Duration `envconfig:"CACHE_DEFAULT_TTL" default:"0s"` // 0 = entries without expiry
}

// Validate validates the cache configuration.
func (c *RedisConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Addr == "" {
		return fmt.Errorf("redis address cannot be empty when redis is enabled")
	}
	if c.DB < 0 {
		return fmt.Errorf("redis db must not be negative")
	}
	if c.DialTimeout <= 0 || c.OpTimeout <= 0 {
		return fmt.Errorf("redis dial and op timeouts must be positive")
	}
	if c.KeyPrefix == "" {
		return fmt.Errorf("redis key prefix cannot be empty")
	}
	if c.DefaultTTL < 0 {
		return fmt.Errorf("cache default TTL must not be negative")
	}
	return nil
}

// AuthConfig holds token and admin bootstrap configuration.
type AuthConfig struct {
	JWTSecret     string        `envconfig:"JWT_SECRET" required:"true"`
	TokenTTL      time.Duration `envconfig:"JWT_TOKEN_TTL" default:"30m"`
	AdminUsername string        `envconfig:"ADMIN_USERNAME"`
	AdminPassword string        `envconfig:"ADMIN_PASSWORD"`
	AdminEmail    string        `envconfig:"ADMIN_EMAIL"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if len(c.JWTSecret) < 16 {
		return fmt.Errorf("jwt secret must be at least 16 characters")
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("token TTL must be positive")
	}
	if c.AdminUsername != "" && (c.AdminPassword == "" || c.AdminEmail == "") {
		return fmt.Errorf("admin password and email are required when admin username is set")
	}
	return nil
}

// BootstrapAdmin reports whether an admin account should be ensured at startup.
func (c *AuthConfig) BootstrapAdmin() bool {
	return c.AdminUsername != ""
}

// JanitorConfig holds the expired-link sweep schedule.
type JanitorConfig struct {
	Interval time.Duration `envconfig:"JANITOR_INTERVAL" default:"1h"`
	Timeout  time.Duration `envconfig:"JANITOR_TIMEOUT" default:"30s"`
}

// Validate validates the janitor configuration.
func (c *JanitorConfig) Validate() error {
	if c.Interval <= 0 {
		return fmt.Errorf("janitor interval must be positive")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("janitor timeout must be positive")
	}
	return nil
}

// AppConfig holds application-specific configuration.
type AppConfig struct {
	Environment string `envconfig:"APP_ENV" required:"true"`   // development, staging, production, test
	LogLevel    string `envconfig:"LOG_LEVEL" required:"true"` // debug, info, warn, error
}

// Validate validates the app configuration.
func (c *AppConfig) Validate() error {
	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
		"test":        true,
	}
	if !validEnvs[c.Environment] {
		return fmt.Errorf("invalid environment: %s (must be one of: development, staging, production, test)", c.Environment)
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}
	return nil
}

// ObservabilityConfig holds service identity and metrics settings.
type ObservabilityConfig struct {
	ServiceName    string `envconfig:"SERVICE_NAME" default:"shortlinks"`
	ServiceVersion string `envconfig:"SERVICE_VERSION" default:"dev"`
	MetricsEnabled bool   `envconfig:"METRICS_ENABLED" default:"true"`
}

// Validate validates the observability configuration.
func (c *ObservabilityConfig) Validate() error {
	if c.ServiceName == "" {
		return fmt.Errorf("service name cannot be empty")
	}
	return nil
}

type section struct {
	name     string
	target   any
	validate func() error
}

// Load loads configuration from environment variables only.
// (.env loading happens in internal/app for development and test.)
func Load() (*Config, error) {
	cfg := &Config{}

	sections := []section{
		{"Server", &cfg.Server, cfg.Server.Validate},
		{"Database", &cfg.Database, cfg.Database.Validate},
		{"Redis", &cfg.Redis, cfg.Redis.Validate},
		{"Auth", &cfg.Auth, cfg.Auth.Validate},
		{"Janitor", &cfg.Janitor, cfg.Janitor.Validate},
		{"App", &cfg.App, cfg.App.Validate},
		{"Observability", &cfg.Observability, cfg.Observability.Validate},
	}

	for _, s := range sections {
		if err := envconfig.Process("", s.target); err != nil {
			return nil, fmt.Errorf("failed to load %s config: %w", s.name, err)
		}
		if err := s.validate(); err != nil {
			return nil, fmt.Errorf("invalid %s config: %w", s.name, err)
		}
	}

	return cfg, nil
}
