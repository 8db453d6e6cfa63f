package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"time"

	"github.com/aurios-ai/aurios/internal/slogging"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	WebSocket WebSocketConfig `yaml:"websocket"`
	AI        AIConfig        `yaml:"ai"`
	Logging   LoggingConfig   `yaml:"logging"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port         string        `yaml:"port" env:"SERVER_PORT"`
	Interface    string        `yaml:"interface" env:"SERVER_INTERFACE"`
	ReadTimeout  time.Duration `yaml:"read_timeout" env:"SERVER_READ_TIMEOUT"`
	WriteTimeout time.Duration `yaml:"write_timeout" env:"SERVER_WRITE_TIMEOUT"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" env:"SERVER_IDLE_TIMEOUT"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Postgres PostgresConfig `yaml:"postgres"`
	Redis    RedisConfig    `yaml:"redis"`
}

// PostgresConfig holds PostgreSQL configuration
type PostgresConfig struct {
	Host     string `yaml:"host" env:"POSTGRES_HOST"`
	Port     string `yaml:"port" env:"POSTGRES_PORT"`
	User     string `yaml:"user" env:"POSTGRES_USER"`
	Password string `yaml:"password" env:"POSTGRES_PASSWORD"`
	Database string `yaml:"database" env:"POSTGRES_DATABASE"`
	SSLMode  string `yaml:"sslmode" env:"POSTGRES_SSL_MODE"`
}

// DSN renders the postgres connection string
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode)
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string `yaml:"host" env:"REDIS_HOST"`
	Port     string `yaml:"port" env:"REDIS_PORT"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"REDIS_DB"`
}

// Addr renders the host:port pair for the redis client
func (r RedisConfig) Addr() string {
	return r.Host + ":" + r.Port
}

// AuthConfig holds authentication configuration
type AuthConfig struct {
	JWT JWTConfig `yaml:"jwt"`
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret            string `yaml:"secret" env:"JWT_SECRET"`
	ExpirationSeconds int    `yaml:"expiration_seconds" env:"JWT_EXPIRATION_SECONDS"`
}

// WebSocketConfig holds connection registry tuning
type WebSocketConfig struct {
	MaxConnectionsPerUser   int           `yaml:"max_connections_per_user" env:"WEBSOCKET_MAX_CONNECTIONS_PER_USER"`
	MaxConnectionsPerTenant int           `yaml:"max_connections_per_tenant" env:"WEBSOCKET_MAX_CONNECTIONS_PER_TENANT"`
	MessageRateLimit        int           `yaml:"message_rate_limit" env:"WEBSOCKET_MESSAGE_RATE_LIMIT"`
	SweepInterval           time.Duration `yaml:"sweep_interval" env:"WEBSOCKET_SWEEP_INTERVAL"`
	IdleTimeout             time.Duration `yaml:"idle_timeout" env:"WEBSOCKET_IDLE_TIMEOUT"`
}

// AIConfig holds LLM provider configuration
type AIConfig struct {
	Provider    string  `yaml:"provider" env:"AI_PROVIDER"`
	BaseURL     string  `yaml:"base_url" env:"AI_BASE_URL"`
	APIKey      string  `yaml:"api_key" env:"AI_API_KEY"`
	Model       string  `yaml:"model" env:"AI_MODEL"`
	MaxTokens   int     `yaml:"max_tokens" env:"AI_MAX_TOKENS"`
	Temperature float64 `yaml:"temperature" env:"AI_TEMPERATURE"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level            string `yaml:"level" env:"LOG_LEVEL"`
	IsDev            bool   `yaml:"is_dev" env:"LOG_IS_DEV"`
	LogDir           string `yaml:"log_dir" env:"LOG_DIR"`
	MaxAgeDays       int    `yaml:"max_age_days" env:"LOG_MAX_AGE_DAYS"`
	MaxSizeMB        int    `yaml:"max_size_mb" env:"LOG_MAX_SIZE_MB"`
	MaxBackups       int    `yaml:"max_backups" env:"LOG_MAX_BACKUPS"`
	AlsoLogToConsole bool   `yaml:"also_log_to_console" env:"LOG_CONSOLE"`
}

// TelemetryConfig holds tracing configuration
type TelemetryConfig struct {
	Enabled      bool   `yaml:"enabled" env:"TELEMETRY_ENABLED"`
	ServiceName  string `yaml:"service_name" env:"TELEMETRY_SERVICE_NAME"`
	OTLPEndpoint string `yaml:"otlp_endpoint" env:"TELEMETRY_OTLP_ENDPOINT"`
}

// Load loads configuration from a YAML file with environment variable overrides
func Load(configFile string) (*Config, error) {
	config := getDefaultConfig()

	if configFile != "" {
		if err := loadFromYAML(config, configFile); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	if err := overrideWithEnv(config); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func getDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         "8080",
			Interface:    "0.0.0.0",
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Database: DatabaseConfig{
			Postgres: PostgresConfig{
				Host:     "localhost",
				Port:     "5432",
				User:     "aurios",
				Database: "aurios",
				SSLMode:  "disable",
			},
			Redis: RedisConfig{
				Host: "localhost",
				Port: "6379",
			},
		},
		Auth: AuthConfig{
			JWT: JWTConfig{
				ExpirationSeconds: 3600,
			},
		},
		WebSocket: WebSocketConfig{
			MaxConnectionsPerUser:   5,
			MaxConnectionsPerTenant: 100,
			MessageRateLimit:        60,
			SweepInterval:           60 * time.Second,
			IdleTimeout:             30 * time.Minute,
		},
		AI: AIConfig{
			Provider:    "openai",
			Model:       "gpt-4o-mini",
			MaxTokens:   2048,
			Temperature: 0.7,
		},
		Logging: LoggingConfig{
			Level:            "info",
			LogDir:           "logs",
			MaxAgeDays:       7,
			MaxSizeMB:        100,
			MaxBackups:       10,
			AlsoLogToConsole: true,
		},
		Telemetry: TelemetryConfig{
			ServiceName: "aurios",
		},
	}
}

func loadFromYAML(config *Config, filename string) error {
	data, err := os.ReadFile(filename) // #nosec G304 - config path is operator-provided
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, config)
}

// overrideWithEnv walks the config struct and applies values from the
// environment variables named in `env` tags.
func overrideWithEnv(config *Config) error {
	return overrideStructWithEnv(reflect.ValueOf(config).Elem())
}

func overrideStructWithEnv(v reflect.Value) error {
	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		structField := t.Field(i)

		if field.Kind() == reflect.Struct && structField.Tag.Get("env") == "" {
			if err := overrideStructWithEnv(field); err != nil {
				return err
			}
			continue
		}

		envName := structField.Tag.Get("env")
		if envName == "" {
			continue
		}
		envValue, ok := os.LookupEnv("AURIOS_" + envName)
		if !ok {
			continue
		}
		if err := setFieldFromString(field, envValue); err != nil {
			return fmt.Errorf("invalid value for AURIOS_%s: %w", envName, err)
		}
	}
	return nil
}

func setFieldFromString(field reflect.Value, value string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		field.SetBool(b)
	case reflect.Int, reflect.Int64:
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			d, err := time.ParseDuration(value)
			if err != nil {
				return err
			}
			field.SetInt(int64(d))
			return nil
		}
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return err
		}
		field.SetInt(n)
	case reflect.Float64:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		field.SetFloat(f)
	default:
		return fmt.Errorf("unsupported field kind %s", field.Kind())
	}
	return nil
}

// Validate checks the configuration for required values and sane limits
func (c *Config) Validate() error {
	if c.Auth.JWT.Secret == "" {
		return fmt.Errorf("auth.jwt.secret is required (AURIOS_JWT_SECRET)")
	}
	if len(c.Auth.JWT.Secret) < 32 {
		return fmt.Errorf("auth.jwt.secret must be at least 32 characters")
	}
	if c.WebSocket.MaxConnectionsPerUser <= 0 {
		return fmt.Errorf("websocket.max_connections_per_user must be positive")
	}
	if c.WebSocket.MaxConnectionsPerTenant < c.WebSocket.MaxConnectionsPerUser {
		return fmt.Errorf("websocket.max_connections_per_tenant must be >= max_connections_per_user")
	}
	if c.WebSocket.MessageRateLimit <= 0 {
		return fmt.Errorf("websocket.message_rate_limit must be positive")
	}
	if c.WebSocket.SweepInterval <= 0 {
		return fmt.Errorf("websocket.sweep_interval must be positive")
	}
	if c.WebSocket.IdleTimeout <= 0 {
		return fmt.Errorf("websocket.idle_timeout must be positive")
	}
	return nil
}

// GetJWTDuration returns the configured token lifetime
func (c *Config) GetJWTDuration() time.Duration {
	return time.Duration(c.Auth.JWT.ExpirationSeconds) * time.Second
}

// GetLogLevel returns the parsed logging level
func (c *Config) GetLogLevel() slogging.LogLevel {
	return slogging.ParseLogLevel(c.Logging.Level)
}

// ListenAddr renders the interface:port pair for the HTTP server
func (c *Config) ListenAddr() string {
	return c.Server.Interface + ":" + c.Server.Port
}
