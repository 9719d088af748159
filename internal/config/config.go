package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	devSessionSecret = "dev-only-session-secret-change-me"
)

// Config holds all configuration for the application
type Config struct {
	// Env is "development" or "production".
	Env     string `yaml:"env"`
	AppName string `yaml:"app_name"`

	Server      ServerConfig      `yaml:"server"`
	Database    DatabaseConfig    `yaml:"database"`
	Session     SessionConfig     `yaml:"session"`
	Email       EmailConfig       `yaml:"email"`
	Scheduler   SchedulerConfig   `yaml:"scheduler"`
	GoogleOAuth GoogleOAuthConfig `yaml:"google_oauth"`
	CORS        CORSConfig        `yaml:"cors"`
	Log         LogConfig         `yaml:"log"`

	// Warnings collects non-fatal problems found while loading, for the
	// caller to log once a logger exists.
	Warnings []string `yaml:"-"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port            string        `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	Driver         string        `yaml:"driver"`
	Host           string        `yaml:"host"`
	Port           string        `yaml:"port"`
	User           string        `yaml:"user"`
	Password       string        `yaml:"password"`
	Name           string        `yaml:"name"`
	SSLMode        string        `yaml:"sslmode"`
	MaxConns       int32         `yaml:"max_conns"`
	MinConns       int32         `yaml:"min_conns"`
	MaxLifetime    time.Duration `yaml:"max_lifetime"`
	ConnTimeout    time.Duration `yaml:"conn_timeout"`
	QueryTimeout   time.Duration `yaml:"query_timeout"`
	SimpleProtocol bool          `yaml:"simple_protocol"`
	SQLitePath     string        `yaml:"sqlite_path"`
}

// SessionConfig holds session token configuration
type SessionConfig struct {
	Secret        string        `yaml:"secret"`
	TTL           time.Duration `yaml:"ttl"`
	SweepInterval time.Duration `yaml:"sweep_interval"`
	CookieName    string        `yaml:"cookie_name"`
	CookieSecure  bool          `yaml:"cookie_secure"`
}

// EmailConfig holds email service configuration
type EmailConfig struct {
	SMTPHost     string        `yaml:"smtp_host"`
	SMTPPort     string        `yaml:"smtp_port"`
	SMTPUsername string        `yaml:"smtp_username"`
	SMTPPassword string        `yaml:"smtp_password"`
	FromEmail    string        `yaml:"from_email"`
	FromName     string        `yaml:"from_name"`
	UseTLS       bool          `yaml:"use_tls"`
	UseSSL       bool          `yaml:"use_ssl"`
	Timeout      time.Duration `yaml:"timeout"`
}

// SchedulerConfig holds the notification job configuration
type SchedulerConfig struct {
	Enabled    bool          `yaml:"enabled"`
	Interval   time.Duration `yaml:"interval"`
	LeadDays   int           `yaml:"lead_days"`
	Timezone   string        `yaml:"timezone"`
	RunOnStart bool          `yaml:"run_on_start"`
}

// GoogleOAuthConfig holds Google OAuth configuration
type GoogleOAuthConfig struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	RedirectURL  string `yaml:"redirect_url"`
	// FrontendURL receives the browser after a successful callback. Empty
	// means the callback answers with JSON instead.
	FrontendURL string `yaml:"frontend_url"`
}

// CORSConfig holds CORS configuration
type CORSConfig struct {
	AllowedOrigins   []string `yaml:"allowed_origins"`
	AllowedMethods   []string `yaml:"allowed_methods"`
	AllowedHeaders   []string `yaml:"allowed_headers"`
	AllowCredentials bool     `yaml:"allow_credentials"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Env:     "development",
		AppName: "DateMate",
		Server: ServerConfig{
			Port:            "8080",
			ReadTimeout:     5 * time.Second,
			WriteTimeout:    10 * time.Second,
			IdleTimeout:     120 * time.Second,
			ShutdownTimeout: 5 * time.Second,
		},
		Database: DatabaseConfig{
			Driver:       DriverPostgres,
			Host:         "localhost",
			Port:         "5432",
			User:         "postgres",
			Name:         "postgres",
			SSLMode:      "disable",
			MaxConns:     5,
			MaxLifetime:  time.Hour,
			ConnTimeout:  10 * time.Second,
			QueryTimeout: 30 * time.Second,
			SQLitePath:   "remindme.db",
		},
		Session: SessionConfig{
			TTL:           24 * time.Hour,
			SweepInterval: 10 * time.Minute,
			CookieName:    "session",
		},
		Email: EmailConfig{
			SMTPHost: "smtp.gmail.com",
			SMTPPort: "587",
			FromName: "The DateMate Team",
			UseTLS:   true,
			Timeout:  15 * time.Second,
		},
		Scheduler: SchedulerConfig{
			Enabled:    true,
			Interval:   5 * time.Minute,
			LeadDays:   7,
			Timezone:   "UTC",
			RunOnStart: true,
		},
		GoogleOAuth: GoogleOAuthConfig{
			RedirectURL: "http://localhost:8080/auth/google/callback",
		},
		CORS: CORSConfig{
			AllowedOrigins:   []string{"http://127.0.0.1:5500"},
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Content-Type", "Authorization"},
			AllowCredentials: true,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file named by
// CONFIG_FILE, and environment variables (including .env), in that order of
// increasing precedence.
func Load() (*Config, error) {
	cfg := Default()

	// Load .env file
	if err := godotenv.Load("../.env"); err != nil {
		// Try loading from current directory if not found in parent
		if err := godotenv.Load(".env"); err != nil {
			cfg.warn(".env file not found: %v", err)
		}
	}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()

	if cfg.Session.Secret == "" && !cfg.IsProduction() {
		cfg.Session.Secret = devSessionSecret
		cfg.warn("SESSION_SECRET not set, using an insecure development secret")
	}
	if !cfg.IsEmailConfigured() {
		cfg.warn("SMTP credentials not configured, reminder emails will only be logged")
	}
	if !cfg.IsGoogleOAuthConfigured() {
		cfg.warn("Google OAuth credentials not configured, Google login is disabled")
	}

	// Validate required configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

// applyEnv overrides every field whose variable is set.
func (c *Config) applyEnv() {
	c.Env = getEnv("APP_ENV", c.Env)
	c.AppName = getEnv("APP_NAME", c.AppName)

	c.Server.Port = getEnv("SERVER_PORT", c.Server.Port)
	c.Server.ReadTimeout = getDurationEnv("SERVER_READ_TIMEOUT", c.Server.ReadTimeout)
	c.Server.WriteTimeout = getDurationEnv("SERVER_WRITE_TIMEOUT", c.Server.WriteTimeout)
	c.Server.IdleTimeout = getDurationEnv("SERVER_IDLE_TIMEOUT", c.Server.IdleTimeout)
	c.Server.ShutdownTimeout = getDurationEnv("SERVER_SHUTDOWN_TIMEOUT", c.Server.ShutdownTimeout)

	c.Database.Driver = strings.ToLower(getEnv("DB_DRIVER", c.Database.Driver))
	c.Database.Host = getEnv("DB_HOST", c.Database.Host)
	c.Database.Port = getEnv("DB_PORT", c.Database.Port)
	c.Database.User = getEnv("DB_USER", c.Database.User)
	c.Database.Password = getEnv("DB_PASSWORD", c.Database.Password)
	c.Database.Name = getEnv("DB_NAME", c.Database.Name)
	c.Database.SSLMode = getEnv("DB_SSLMODE", c.Database.SSLMode)
	c.Database.MaxConns = getInt32Env("DB_MAX_CONNS", c.Database.MaxConns)
	c.Database.MinConns = getInt32Env("DB_MIN_CONNS", c.Database.MinConns)
	c.Database.MaxLifetime = getDurationEnv("DB_MAX_LIFETIME", c.Database.MaxLifetime)
	c.Database.ConnTimeout = getDurationEnv("DB_CONN_TIMEOUT", c.Database.ConnTimeout)
	c.Database.QueryTimeout = getDurationEnv("DB_QUERY_TIMEOUT", c.Database.QueryTimeout)
	c.Database.SimpleProtocol = getBoolEnv("DB_SIMPLE_PROTOCOL", c.Database.SimpleProtocol)
	c.Database.SQLitePath = getEnv("SQLITE_PATH", c.Database.SQLitePath)

	c.Session.Secret = getEnv("SESSION_SECRET", c.Session.Secret)
	c.Session.TTL = getDurationEnv("SESSION_TTL", c.Session.TTL)
	c.Session.SweepInterval = getDurationEnv("SESSION_SWEEP_INTERVAL", c.Session.SweepInterval)
	c.Session.CookieName = getEnv("SESSION_COOKIE_NAME", c.Session.CookieName)
	c.Session.CookieSecure = getBoolEnv("SESSION_COOKIE_SECURE", c.Session.CookieSecure)

	c.Email.SMTPHost = getEnv("SMTP_HOST", c.Email.SMTPHost)
	c.Email.SMTPPort = getEnv("SMTP_PORT", c.Email.SMTPPort)
	c.Email.SMTPUsername = getEnv("SMTP_USERNAME", c.Email.SMTPUsername)
	c.Email.SMTPPassword = getEnv("SMTP_PASSWORD", c.Email.SMTPPassword)
	c.Email.FromEmail = getEnv("EMAIL_FROM", c.Email.FromEmail)
	c.Email.FromName = getEnv("EMAIL_FROM_NAME", c.Email.FromName)
	c.Email.UseTLS = getBoolEnv("SMTP_USE_TLS", c.Email.UseTLS)
	c.Email.UseSSL = getBoolEnv("SMTP_USE_SSL", c.Email.UseSSL)
	c.Email.Timeout = getDurationEnv("SMTP_TIMEOUT", c.Email.Timeout)

	c.Scheduler.Enabled = getBoolEnv("SCHEDULER_ENABLED", c.Scheduler.Enabled)
	c.Scheduler.Interval = getDurationEnv("SCHEDULER_INTERVAL", c.Scheduler.Interval)
	c.Scheduler.LeadDays = getIntEnv("SCHEDULER_LEAD_DAYS", c.Scheduler.LeadDays)
	c.Scheduler.Timezone = getEnv("SCHEDULER_TIMEZONE", c.Scheduler.Timezone)
	c.Scheduler.RunOnStart = getBoolEnv("SCHEDULER_RUN_ON_START", c.Scheduler.RunOnStart)

	c.GoogleOAuth.ClientID = getEnv("GOOGLE_CLIENT_ID", c.GoogleOAuth.ClientID)
	c.GoogleOAuth.ClientSecret = getEnv("GOOGLE_CLIENT_SECRET", c.GoogleOAuth.ClientSecret)
	c.GoogleOAuth.RedirectURL = getEnv("GOOGLE_REDIRECT_URL", c.GoogleOAuth.RedirectURL)
	c.GoogleOAuth.FrontendURL = getEnv("FRONTEND_URL", c.GoogleOAuth.FrontendURL)

	c.CORS.AllowedOrigins = getStringSliceEnv("CORS_ALLOWED_ORIGINS", c.CORS.AllowedOrigins)
	c.CORS.AllowedMethods = getStringSliceEnv("CORS_ALLOWED_METHODS", c.CORS.AllowedMethods)
	c.CORS.AllowedHeaders = getStringSliceEnv("CORS_ALLOWED_HEADERS", c.CORS.AllowedHeaders)
	c.CORS.AllowCredentials = getBoolEnv("CORS_ALLOW_CREDENTIALS", c.CORS.AllowCredentials)

	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnv("LOG_FORMAT", c.Log.Format)
}

// Validate validates the configuration
func (c *Config) Validate() error {
	var errs []error

	switch c.Database.Driver {
	case DriverPostgres:
		if c.Database.Password == "" {
			errs = append(errs, errors.New("DB_PASSWORD is required"))
		}
	case DriverSQLite:
	default:
		errs = append(errs, fmt.Errorf("unknown DB_DRIVER %q", c.Database.Driver))
	}

	if c.Session.Secret == "" {
		errs = append(errs, errors.New("SESSION_SECRET is required in production"))
	}
	if c.Session.TTL <= 0 {
		errs = append(errs, errors.New("SESSION_TTL must be positive"))
	}
	if c.Session.SweepInterval <= 0 {
		errs = append(errs, errors.New("SESSION_SWEEP_INTERVAL must be positive"))
	}

	if c.Scheduler.Interval <= 0 {
		errs = append(errs, errors.New("SCHEDULER_INTERVAL must be positive"))
	}
	if c.Scheduler.LeadDays < 0 {
		errs = append(errs, errors.New("SCHEDULER_LEAD_DAYS must not be negative"))
	}
	if _, err := time.LoadLocation(c.Scheduler.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("SCHEDULER_TIMEZONE: %w", err))
	}

	return errors.Join(errs...)
}

// GetDSN returns the database connection string. Credentials and the
// database name are escaped.
func (c *Config) GetDSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.Database.User, c.Database.Password),
		Host:     net.JoinHostPort(c.Database.Host, c.Database.Port),
		Path:     "/" + c.Database.Name,
		RawQuery: fmt.Sprintf("sslmode=%s&connect_timeout=%d", url.QueryEscape(c.Database.SSLMode), int(c.Database.ConnTimeout.Seconds())),
	}
	return u.String()
}

// Location returns the scheduler's time zone, falling back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Scheduler.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// IsEmailConfigured checks if email service is properly configured
func (c *Config) IsEmailConfigured() bool {
	return c.Email.SMTPUsername != "" && c.Email.SMTPPassword != ""
}

// IsGoogleOAuthConfigured checks if Google OAuth is properly configured
func (c *Config) IsGoogleOAuthConfigured() bool {
	return c.GoogleOAuth.ClientID != "" && c.GoogleOAuth.ClientSecret != ""
}

func (c *Config) warn(format string, args ...any) {
	c.Warnings = append(c.Warnings, fmt.Sprintf(format, args...))
}

// Helper functions for environment variable parsing

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getInt32Env(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intValue)
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getStringSliceEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := []string{}
		for _, part := range strings.Split(value, ",") {
			if part = strings.TrimSpace(part); part != "" {
				parts = append(parts, part)
			}
		}
		if len(parts) > 0 {
			return parts
		}
	}
	return defaultValue
}
