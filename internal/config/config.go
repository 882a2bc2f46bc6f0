// Package config loads the server configuration from defaults, an optional
// YAML file, an optional .env file and environment variables, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"attendance_backend/pkg/utils"
)

// Default configuration constants.
const (
	DefaultHost            = "0.0.0.0"
	DefaultPort            = 8080
	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultShutdownTimeout = 10 * time.Second

	DefaultDBMaxOpenConns    = 25
	DefaultDBMaxIdleConns    = 5
	DefaultDBConnMaxLifetime = 30 * time.Minute

	DefaultAccessTokenTTL = 12 * time.Hour

	DefaultBusinessHoursStart = "06:00"
	DefaultBusinessHoursEnd   = "22:00"
)

// Config holds the complete application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Auth       AuthConfig       `yaml:"auth"`
	CORS       CORSConfig       `yaml:"cors"`
	Log        LogConfig        `yaml:"log"`
	Attendance AttendanceConfig `yaml:"attendance"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// Address returns the full server address (host:port).
func (c ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// DatabaseConfig holds PostgreSQL connection configuration.
type DatabaseConfig struct {
	Host            string        `yaml:"host"`
	Port            string        `yaml:"port"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	Name            string        `yaml:"name"`
	SSLMode         string        `yaml:"sslmode"`
	SchemaPath      string        `yaml:"schema_path"`
	ApplySchema     bool          `yaml:"apply_schema"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

// DSN returns the lib/pq connection string.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

// AuthConfig holds authentication configuration. When Enabled is false the
// API is served without token checks.
type AuthConfig struct {
	Enabled        bool          `yaml:"enabled"`
	JWTSecret      string        `yaml:"jwt_secret"`
	AccessTokenTTL time.Duration `yaml:"access_token_ttl"`
}

// CORSConfig holds the allowed browser origins.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // json | console
}

// AttendanceConfig holds attendance rule configuration.
type AttendanceConfig struct {
	BusinessHours BusinessHoursConfig `yaml:"business_hours"`
}

// BusinessHoursConfig restricts check-in and check-out to a daily window
// when Enabled. Start and End are HH:MM.
type BusinessHoursConfig struct {
	Enabled bool   `yaml:"enabled"`
	Start   string `yaml:"start"`
	End     string `yaml:"end"`
}

// Window parses Start and End into offsets from midnight.
func (c BusinessHoursConfig) Window() (time.Duration, time.Duration, error) {
	start, err := parseClock(c.Start)
	if err != nil {
		return 0, 0, fmt.Errorf("attendance.business_hours.start: %w", err)
	}
	end, err := parseClock(c.End)
	if err != nil {
		return 0, 0, fmt.Errorf("attendance.business_hours.end: %w", err)
	}
	return start, end, nil
}

func parseClock(s string) (time.Duration, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("invalid time of day %q, use HH:MM", s)
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}

// Configuration errors.
var (
	ErrConfigInvalid     = errors.New("invalid configuration")
	ErrInvalidLogLevel   = errors.New("invalid log level: must be debug, info, warn, or error")
	ErrInvalidLogFormat  = errors.New("invalid log format: must be json or console")
	ErrInvalidCORSOrigin = errors.New("invalid CORS origin: must be * or start with http:// or https://")
)

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            DefaultHost,
			Port:            DefaultPort,
			ReadTimeout:     DefaultReadTimeout,
			WriteTimeout:    DefaultWriteTimeout,
			ShutdownTimeout: DefaultShutdownTimeout,
		},
		Database: DatabaseConfig{
			Host:            "localhost",
			Port:            "5432",
			User:            "attendance_user",
			Password:        "attendance_password",
			Name:            "attendance_db",
			SSLMode:         "disable",
			MaxOpenConns:    DefaultDBMaxOpenConns,
			MaxIdleConns:    DefaultDBMaxIdleConns,
			ConnMaxLifetime: DefaultDBConnMaxLifetime,
		},
		Auth: AuthConfig{
			JWTSecret:      "dev-secret-change-in-production",
			AccessTokenTTL: DefaultAccessTokenTTL,
		},
		CORS: CORSConfig{
			AllowedOrigins: []string{"http://localhost:3000", "http://localhost:3001"},
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Attendance: AttendanceConfig{
			BusinessHours: BusinessHoursConfig{
				Start: DefaultBusinessHoursStart,
				End:   DefaultBusinessHoursEnd,
			},
		},
	}
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port))
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, errors.New("server.read_timeout must be positive"))
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, errors.New("server.write_timeout must be positive"))
	}
	if c.Database.Host == "" {
		errs = append(errs, errors.New("database.host is required"))
	}
	if c.Database.Name == "" {
		errs = append(errs, errors.New("database.name is required"))
	}
	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("auth.jwt_secret is required"))
	}
	if c.Auth.AccessTokenTTL <= 0 {
		errs = append(errs, errors.New("auth.access_token_ttl must be positive"))
	}
	if len(c.CORS.AllowedOrigins) == 0 {
		errs = append(errs, errors.New("cors.allowed_origins must list at least one origin"))
	}
	for _, origin := range c.CORS.AllowedOrigins {
		if origin != "*" && !strings.HasPrefix(origin, "http://") && !strings.HasPrefix(origin, "https://") {
			errs = append(errs, fmt.Errorf("%w: %q", ErrInvalidCORSOrigin, origin))
		}
	}
	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[strings.ToLower(c.Log.Level)] {
		errs = append(errs, ErrInvalidLogLevel)
	}
	validLogFormats := map[string]bool{"json": true, "console": true}
	if !validLogFormats[strings.ToLower(c.Log.Format)] {
		errs = append(errs, ErrInvalidLogFormat)
	}
	if bh := c.Attendance.BusinessHours; bh.Enabled {
		start, end, err := bh.Window()
		if err != nil {
			errs = append(errs, err)
		} else if start >= end {
			errs = append(errs, errors.New("attendance.business_hours.start must be before end"))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrConfigInvalid, errors.Join(errs...))
	}
	return nil
}

// Loader handles configuration loading from files and environment variables.
type Loader struct {
	configPaths []string
	envFiles    []string
}

// NewLoader creates a new configuration loader.
func NewLoader() *Loader {
	return &Loader{
		configPaths: []string{"configs/config.yaml", "config.yaml"},
		envFiles:    []string{".env"},
	}
}

// WithConfigPaths sets custom config paths to search.
func (l *Loader) WithConfigPaths(paths ...string) *Loader {
	l.configPaths = paths
	return l
}

// WithEnvFiles sets the dotenv files to load before reading the environment.
func (l *Loader) WithEnvFiles(files ...string) *Loader {
	l.envFiles = files
	return l
}

// Load loads configuration. An explicit path must exist; otherwise CONFIG_PATH
// and then the standard locations are tried, and a missing file is not an error.
func Load(path string) (*Config, error) {
	return NewLoader().Load(path)
}

// Load loads configuration from file and environment variables.
func (l *Loader) Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	for _, f := range l.envFiles {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return nil, fmt.Errorf("loading env file %s: %w", f, err)
		}
	}

	configPath := path
	if configPath == "" {
		configPath = os.Getenv("CONFIG_PATH")
	}
	if configPath == "" {
		for _, p := range l.configPaths {
			if _, err := os.Stat(p); err == nil {
				configPath = p
				break
			}
		}
	}

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", configPath, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("%w: parsing %s: %w", ErrConfigInvalid, configPath, err)
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides file values with environment variables.
func applyEnv(cfg *Config) {
	cfg.Server.Host = utils.Getenv("SERVER_HOST", cfg.Server.Host)
	cfg.Server.Port = utils.GetenvInt("PORT", cfg.Server.Port)
	cfg.Server.Port = utils.GetenvInt("SERVER_PORT", cfg.Server.Port)
	cfg.Server.ShutdownTimeout = utils.GetenvDuration("SERVER_SHUTDOWN_TIMEOUT", cfg.Server.ShutdownTimeout)

	cfg.Database.Host = utils.Getenv("DB_HOST", cfg.Database.Host)
	cfg.Database.Port = utils.Getenv("DB_PORT", cfg.Database.Port)
	cfg.Database.User = utils.Getenv("DB_USER", cfg.Database.User)
	cfg.Database.Password = utils.Getenv("DB_PASSWORD", cfg.Database.Password)
	cfg.Database.Name = utils.Getenv("DB_NAME", cfg.Database.Name)
	cfg.Database.SSLMode = utils.Getenv("DB_SSLMODE", cfg.Database.SSLMode)
	cfg.Database.SchemaPath = utils.Getenv("DB_SCHEMA_PATH", cfg.Database.SchemaPath)
	cfg.Database.ApplySchema = utils.GetenvBool("DB_APPLY_SCHEMA", cfg.Database.ApplySchema)

	cfg.Auth.Enabled = utils.GetenvBool("AUTH_ENABLED", cfg.Auth.Enabled)
	cfg.Auth.JWTSecret = utils.Getenv("AUTH_JWT_SECRET", cfg.Auth.JWTSecret)
	cfg.Auth.AccessTokenTTL = utils.GetenvDuration("AUTH_ACCESS_TOKEN_TTL", cfg.Auth.AccessTokenTTL)

	if origins := os.Getenv("CORS_ALLOWED_ORIGINS"); origins != "" {
		cfg.CORS.AllowedOrigins = splitList(origins)
	}

	cfg.Log.Level = utils.Getenv("LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Format = utils.Getenv("LOG_FORMAT", cfg.Log.Format)

	bh := &cfg.Attendance.BusinessHours
	bh.Enabled = utils.GetenvBool("ATTENDANCE_BUSINESS_HOURS_ENABLED", bh.Enabled)
	bh.Start = utils.Getenv("ATTENDANCE_BUSINESS_HOURS_START", bh.Start)
	bh.End = utils.Getenv("ATTENDANCE_BUSINESS_HOURS_END", bh.End)
}

// splitList splits a comma-separated value, trimming entries and dropping empty ones.
func splitList(value string) []string {
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
