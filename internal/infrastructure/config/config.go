package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App          AppConfig
	Log          LogConfig
	HTTP         HTTPConfig
	Redis        RedisConfig
	Session      SessionConfig
	Gateway      GatewayConfig
	Enrichment   WorkerConfig
	Orders       WorkerConfig
	Environments []EnvironmentConfig
	Plants       map[string]PlantConfig
	Database     DatabaseConfig
	Storage      StorageConfig
	Event        EventConfig
	Telemetry    TelemetryConfig
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout            time.Duration
	WriteTimeout           time.Duration
	IdleTimeout            time.Duration
	MaxHeaderBytes         int
	MaxBodySize            int64
	MaxUploadSize          int64
	RateLimitEnabled       bool
	RateLimitRequests      int
	RateLimitWindow        time.Duration
	LoginRateLimitRequests int           // Max login attempts per client IP
	LoginRateLimitWindow   time.Duration // Window for login attempts
	CORSAllowOrigins       []string
	CORSAllowMethods       []string
	CORSAllowHeaders       []string
	TrustedProxies         []string
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Host      string
	Port      int
	Password  string
	DB        int
	KeyPrefix string
}

// Addr returns host:port
func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// SessionConfig holds session lifecycle settings
type SessionConfig struct {
	Store           string        // memory, redis
	Lifetime        time.Duration // absolute lifetime, never extended
	EncryptionKey   string        // base64-encoded 32-byte key
	CleanupInterval time.Duration // sweep interval for the in-memory store
}

// GatewayConfig holds enterprise gateway call settings
type GatewayConfig struct {
	CallTimeout        time.Duration
	MaxConcurrentCalls int // per session
	InsecureSkipVerify bool
}

// WorkerConfig sizes a bounded worker pool
type WorkerConfig struct {
	Workers int
}

// EnvironmentConfig describes one backend system
type EnvironmentConfig struct {
	ID           string `mapstructure:"id"`
	Description  string `mapstructure:"description"`
	Host         string `mapstructure:"ashost"`
	SystemNumber string `mapstructure:"sysnr"`
	URL          string `mapstructure:"url"`
	Mode         string `mapstructure:"mode"` // rfc, sandbox
}

// PlantConfig holds values derived from a plant code
type PlantConfig struct {
	SalesOrg string `mapstructure:"sales_org"`
	SoldTo   string `mapstructure:"sold_to"`
	ShipTo   string `mapstructure:"ship_to"`
}

// DatabaseConfig holds submission ledger database settings
type DatabaseConfig struct {
	Enabled         bool
	Driver          string // postgres, sqlite
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	Path            string // sqlite file path
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
	AutoMigrate     bool
}

// StorageConfig holds upload archive object storage settings
type StorageConfig struct {
	Enabled      bool
	Endpoint     string
	Region       string
	Bucket       string
	AccessKey    string
	SecretKey    string
	UseSSL       bool
	UsePathStyle bool
	KeyPrefix    string
}

// EventConfig holds order event publishing settings
type EventConfig struct {
	Enabled      bool
	Brokers      []string
	Topic        string
	WriteTimeout time.Duration
}

// TelemetryConfig holds OpenTelemetry configuration
type TelemetryConfig struct {
	Enabled           bool    // Whether to enable OpenTelemetry
	CollectorEndpoint string  // OTEL Collector endpoint (e.g., "localhost:4317")
	SamplingRatio     float64 // Sampling ratio (0.0-1.0, 1.0 = 100%)
	ServiceName       string  // Service name for traces
	Insecure          bool    // Use insecure (non-TLS) connection (development only)
	MetricsEnabled    bool
	MetricsInterval   time.Duration
	DBTraceEnabled    bool // Enable ledger query tracing (otelgorm)
	DBMetricsEnabled  bool // Export ledger connection pool gauges
	DBMetricsInterval time.Duration
	LogsEnabled       bool   // Export logs over OTLP in addition to stdout
	LogsLevel         string // Minimum level exported over OTLP

	ProfilingEnabled    bool
	ProfilerAddress     string // Pyroscope server URL
	ProfilerMutex       bool
	ProfilerBlock       bool
	SpanProfilesEnabled bool // Link profiles to trace spans
}

// Load loads configuration from .env, TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with MATREQ_ prefix (e.g., MATREQ_SESSION_ENCRYPTION_KEY)
// 2. .env file in the working directory
// 3. config.toml
// 4. Built-in defaults
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error reading .env file: %w", err)
	}

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix("MATREQ")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:            v.GetDuration("http.read_timeout"),
			WriteTimeout:           v.GetDuration("http.write_timeout"),
			IdleTimeout:            v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes:         v.GetInt("http.max_header_bytes"),
			MaxBodySize:            v.GetInt64("http.max_body_size"),
			MaxUploadSize:          v.GetInt64("http.max_upload_size"),
			RateLimitEnabled:       v.GetBool("http.rate_limit_enabled"),
			RateLimitRequests:      v.GetInt("http.rate_limit_requests"),
			RateLimitWindow:        v.GetDuration("http.rate_limit_window"),
			LoginRateLimitRequests: v.GetInt("http.login_rate_limit_requests"),
			LoginRateLimitWindow:   v.GetDuration("http.login_rate_limit_window"),
			CORSAllowOrigins:       v.GetStringSlice("http.cors_allow_origins"),
			CORSAllowMethods:       v.GetStringSlice("http.cors_allow_methods"),
			CORSAllowHeaders:       v.GetStringSlice("http.cors_allow_headers"),
			TrustedProxies:         v.GetStringSlice("http.trusted_proxies"),
		},
		Redis: RedisConfig{
			Host:      v.GetString("redis.host"),
			Port:      v.GetInt("redis.port"),
			Password:  v.GetString("redis.password"),
			DB:        v.GetInt("redis.db"),
			KeyPrefix: v.GetString("redis.key_prefix"),
		},
		Session: SessionConfig{
			Store:           v.GetString("session.store"),
			Lifetime:        v.GetDuration("session.lifetime"),
			EncryptionKey:   v.GetString("session.encryption_key"),
			CleanupInterval: v.GetDuration("session.cleanup_interval"),
		},
		Gateway: GatewayConfig{
			CallTimeout:        v.GetDuration("gateway.call_timeout"),
			MaxConcurrentCalls: v.GetInt("gateway.max_concurrent_calls"),
			InsecureSkipVerify: v.GetBool("gateway.insecure_skip_verify"),
		},
		Enrichment: WorkerConfig{
			Workers: v.GetInt("enrichment.workers"),
		},
		Orders: WorkerConfig{
			Workers: v.GetInt("orders.workers"),
		},
		Database: DatabaseConfig{
			Enabled:         v.GetBool("database.enabled"),
			Driver:          v.GetString("database.driver"),
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			Path:            v.GetString("database.path"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
			AutoMigrate:     v.GetBool("database.auto_migrate"),
		},
		Storage: StorageConfig{
			Enabled:      v.GetBool("storage.enabled"),
			Endpoint:     v.GetString("storage.endpoint"),
			Region:       v.GetString("storage.region"),
			Bucket:       v.GetString("storage.bucket"),
			AccessKey:    v.GetString("storage.access_key"),
			SecretKey:    v.GetString("storage.secret_key"),
			UseSSL:       v.GetBool("storage.use_ssl"),
			UsePathStyle: v.GetBool("storage.use_path_style"),
			KeyPrefix:    v.GetString("storage.key_prefix"),
		},
		Event: EventConfig{
			Enabled:      v.GetBool("event.enabled"),
			Brokers:      v.GetStringSlice("event.brokers"),
			Topic:        v.GetString("event.topic"),
			WriteTimeout: v.GetDuration("event.write_timeout"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
			ServiceName:       v.GetString("telemetry.service_name"),
			Insecure:          v.GetBool("telemetry.insecure"),
			MetricsEnabled:    v.GetBool("telemetry.metrics_enabled"),
			MetricsInterval:   v.GetDuration("telemetry.metrics_interval"),
			DBTraceEnabled:    v.GetBool("telemetry.db_trace_enabled"),
			DBMetricsEnabled:  v.GetBool("telemetry.db_metrics_enabled"),
			DBMetricsInterval: v.GetDuration("telemetry.db_metrics_interval"),
			LogsEnabled:       v.GetBool("telemetry.logs_enabled"),
			LogsLevel:         v.GetString("telemetry.logs_level"),

			ProfilingEnabled:    v.GetBool("telemetry.profiling_enabled"),
			ProfilerAddress:     v.GetString("telemetry.profiler_address"),
			ProfilerMutex:       v.GetBool("telemetry.profiler_mutex"),
			ProfilerBlock:       v.GetBool("telemetry.profiler_block"),
			SpanProfilesEnabled: v.GetBool("telemetry.span_profiles_enabled"),
		},
	}

	if err := v.UnmarshalKey("environments", &cfg.Environments); err != nil {
		return nil, fmt.Errorf("error decoding environments: %w", err)
	}
	if err := v.UnmarshalKey("plants", &cfg.Plants); err != nil {
		return nil, fmt.Errorf("error decoding plants: %w", err)
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// DefaultEnvironments returns the built-in system inventory
func DefaultEnvironments() []EnvironmentConfig {
	return []EnvironmentConfig{
		{ID: "DEV", Description: "Development", Host: "sap-dev.company.com", SystemNumber: "00", Mode: "rfc"},
		{ID: "QAS", Description: "Quality", Host: "sap-qas.company.com", SystemNumber: "00", Mode: "rfc"},
		{ID: "PRD", Description: "Production", Host: "sap-prd.company.com", SystemNumber: "00", Mode: "rfc"},
	}
}

// DefaultPlants returns the built-in plant table
func DefaultPlants() map[string]PlantConfig {
	return map[string]PlantConfig{
		"US01": {SalesOrg: "US01", SoldTo: "166", ShipTo: "M0001001E"},
		"US65": {SalesOrg: "US65", SoldTo: "1", ShipTo: "M0001001XI"},
	}
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "matreq-backend"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 30 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		// Order submission waits on the gateway for every group
		cfg.HTTP.WriteTimeout = 5 * time.Minute
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	if cfg.HTTP.MaxBodySize == 0 {
		cfg.HTTP.MaxBodySize = 10 << 20 // 10MB
	}
	if cfg.HTTP.MaxUploadSize == 0 {
		cfg.HTTP.MaxUploadSize = 10 << 20 // 10MB
	}
	if cfg.HTTP.RateLimitRequests == 0 {
		cfg.HTTP.RateLimitRequests = 100
	}
	if cfg.HTTP.RateLimitWindow == 0 {
		cfg.HTTP.RateLimitWindow = time.Minute
	}
	if cfg.HTTP.LoginRateLimitRequests == 0 {
		cfg.HTTP.LoginRateLimitRequests = 5
	}
	if cfg.HTTP.LoginRateLimitWindow == 0 {
		cfg.HTTP.LoginRateLimitWindow = time.Minute
	}
	if len(cfg.HTTP.CORSAllowMethods) == 0 {
		cfg.HTTP.CORSAllowMethods = []string{"GET", "POST", "OPTIONS"}
	}
	if len(cfg.HTTP.CORSAllowHeaders) == 0 {
		cfg.HTTP.CORSAllowHeaders = []string{"Content-Type", "Authorization", "X-Request-ID", "X-Session-Id"}
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.Redis.KeyPrefix == "" {
		cfg.Redis.KeyPrefix = "matreq:session:"
	}
	if cfg.Session.Store == "" {
		cfg.Session.Store = "memory"
	}
	if cfg.Session.Lifetime == 0 {
		cfg.Session.Lifetime = 8 * time.Hour
	}
	if cfg.Session.CleanupInterval == 0 {
		cfg.Session.CleanupInterval = 10 * time.Minute
	}
	if cfg.Gateway.CallTimeout == 0 {
		cfg.Gateway.CallTimeout = 30 * time.Second
	}
	if cfg.Gateway.MaxConcurrentCalls == 0 {
		cfg.Gateway.MaxConcurrentCalls = 4
	}
	if cfg.Enrichment.Workers == 0 {
		cfg.Enrichment.Workers = 8
	}
	if cfg.Orders.Workers == 0 {
		cfg.Orders.Workers = 4
	}
	if len(cfg.Environments) == 0 {
		cfg.Environments = DefaultEnvironments()
	}
	for i := range cfg.Environments {
		env := &cfg.Environments[i]
		env.ID = strings.ToUpper(strings.TrimSpace(env.ID))
		if env.Mode == "" {
			env.Mode = "rfc"
		}
		if env.SystemNumber == "" {
			env.SystemNumber = "00"
		}
		if env.URL == "" && env.Host != "" {
			env.URL = "https://" + env.Host
		}
	}
	if len(cfg.Plants) == 0 {
		cfg.Plants = DefaultPlants()
	}
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "postgres"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "matreq"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = "matreq.db"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 10
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 2
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 60
	}
	if cfg.Database.ConnMaxIdleTime == 0 {
		cfg.Database.ConnMaxIdleTime = 30
	}
	if cfg.Storage.Region == "" {
		cfg.Storage.Region = "us-east-1"
	}
	if cfg.Storage.KeyPrefix == "" {
		cfg.Storage.KeyPrefix = "uploads"
	}
	if cfg.Event.Topic == "" {
		cfg.Event.Topic = "matreq.orders"
	}
	if cfg.Event.WriteTimeout == 0 {
		cfg.Event.WriteTimeout = 10 * time.Second
	}
	if cfg.Telemetry.CollectorEndpoint == "" {
		cfg.Telemetry.CollectorEndpoint = "localhost:4317"
	}
	if cfg.Telemetry.SamplingRatio == 0 {
		cfg.Telemetry.SamplingRatio = 1.0
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = "matreq-backend"
	}
	if cfg.Telemetry.MetricsInterval == 0 {
		cfg.Telemetry.MetricsInterval = 60 * time.Second
	}
	if cfg.Telemetry.DBMetricsInterval == 0 {
		cfg.Telemetry.DBMetricsInterval = 15 * time.Second
	}
	if cfg.Telemetry.LogsLevel == "" {
		cfg.Telemetry.LogsLevel = "info"
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	switch c.Session.Store {
	case "memory", "redis":
	default:
		return fmt.Errorf("session.store must be 'memory' or 'redis', got %q", c.Session.Store)
	}
	if c.Session.Lifetime < 0 {
		return fmt.Errorf("session.lifetime cannot be negative")
	}
	if c.Gateway.MaxConcurrentCalls < 0 {
		return fmt.Errorf("gateway.max_concurrent_calls cannot be negative")
	}
	if c.Enrichment.Workers < 0 || c.Orders.Workers < 0 {
		return fmt.Errorf("worker counts cannot be negative")
	}

	seen := make(map[string]bool, len(c.Environments))
	for _, env := range c.Environments {
		if env.ID == "" {
			return fmt.Errorf("environments: id is required")
		}
		if seen[env.ID] {
			return fmt.Errorf("environments: duplicate id %q", env.ID)
		}
		seen[env.ID] = true
		switch env.Mode {
		case "rfc":
			if env.URL == "" {
				return fmt.Errorf("environments.%s: url or ashost is required", env.ID)
			}
			if _, err := url.Parse(env.URL); err != nil {
				return fmt.Errorf("environments.%s: invalid url: %w", env.ID, err)
			}
		case "sandbox":
		default:
			return fmt.Errorf("environments.%s: mode must be 'rfc' or 'sandbox'", env.ID)
		}
	}

	if c.Database.Enabled {
		switch c.Database.Driver {
		case "postgres", "sqlite":
		default:
			return fmt.Errorf("database.driver must be 'postgres' or 'sqlite', got %q", c.Database.Driver)
		}
		if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
			return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
				c.Database.MaxIdleConns, c.Database.MaxOpenConns)
		}
	}

	if c.Event.Enabled && len(c.Event.Brokers) == 0 {
		return fmt.Errorf("event.brokers is required when event publishing is enabled")
	}

	if c.Telemetry.ProfilingEnabled && c.Telemetry.ProfilerAddress == "" {
		return fmt.Errorf("telemetry.profiler_address is required when profiling is enabled")
	}

	// Production-specific validations
	if c.App.Env == "production" {
		if c.Session.EncryptionKey == "" {
			return fmt.Errorf("session.encryption_key is required in production")
		}
		for _, origin := range c.HTTP.CORSAllowOrigins {
			if origin == "*" {
				return fmt.Errorf("cors_allow_origins cannot be '*' in production (use specific origins)")
			}
		}
		for _, env := range c.Environments {
			if env.Mode == "sandbox" {
				return fmt.Errorf("environments.%s: sandbox mode is not allowed in production", env.ID)
			}
		}
		if c.Database.Enabled && c.Database.Driver == "postgres" && c.Database.Password == "" {
			return fmt.Errorf("database.password is required in production")
		}
	}

	if c.Telemetry.SamplingRatio < 0.0 || c.Telemetry.SamplingRatio > 1.0 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)
	}

	return nil
}

// DSN returns the database connection string with properly escaped values
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}
