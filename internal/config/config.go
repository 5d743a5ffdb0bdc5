package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port       string
	Env        string
	DBAdapter  string
	SQLiteFile string
	JwtSecret  string
	LogLevel   string
	LogPretty  bool
	// PostgreSQL connection settings
	PostgresDSN      string
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string
	// Empty means the migrations embedded in the binary.
	MigrationsDir string

	AccessTTL  time.Duration
	RefreshTTL time.Duration
	Cookie     Cookie

	CORSOrigins        []string
	RateLimitPerMinute int

	Script Script
}

// Cookie describes the refresh-token cookie.
type Cookie struct {
	Name   string
	Domain string
	Path   string
	Secure bool
}

// Script is the external close-price feed invoked by the job runner.
type Script struct {
	Command   string
	Args      []string
	Dir       string
	OutputDir string
}

// BuildPostgresDSN constructs a PostgreSQL DSN from individual components or returns the provided DSN
func (c *Config) BuildPostgresDSN() (string, error) {
	if c.PostgresDSN != "" {
		return c.PostgresDSN, nil
	}

	if c.PostgresHost == "" {
		return "", errors.New("POSTGRES_HOST or POSTGRES_DSN must be set")
	}
	if c.PostgresUser == "" {
		return "", errors.New("POSTGRES_USER must be set")
	}
	if c.PostgresDB == "" {
		return "", errors.New("POSTGRES_DB must be set")
	}

	port := c.PostgresPort
	if port == "" {
		port = "5432"
	}

	sslMode := c.PostgresSSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	dsn := fmt.Sprintf("host=%s port=%s user=%s dbname=%s sslmode=%s",
		c.PostgresHost, port, c.PostgresUser, c.PostgresDB, sslMode)

	if c.PostgresPassword != "" {
		dsn += " password=" + c.PostgresPassword
	}

	return dsn, nil
}

// IsProduction reports whether ENV names a production deployment.
func (c *Config) IsProduction() bool {
	env := strings.ToLower(c.Env)
	return env == "production" || env == "prod"
}

// New loads configuration from the environment and, when CONFIG_FILE is set,
// from that YAML file.
func New() (*Config, error) {
	return Load(os.Getenv("CONFIG_FILE"))
}

// Load reads the optional YAML file at path, applies defaults and lets
// environment variables override everything.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	v.SetDefault("port", "3001")
	v.SetDefault("env", "")
	v.SetDefault("db_adapter", "postgres")
	v.SetDefault("sqlite_file", "./data/stockdesk.db")
	v.SetDefault("jwt_secret", "change-me")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_pretty", false)
	v.SetDefault("migrations_dir", "")

	v.SetDefault("postgres_dsn", "")
	v.SetDefault("postgres_host", "localhost")
	v.SetDefault("postgres_port", "5432")
	v.SetDefault("postgres_user", "stockdesk")
	v.SetDefault("postgres_password", "stockdesk")
	v.SetDefault("postgres_db", "stockdesk")
	v.SetDefault("postgres_sslmode", "disable")

	v.SetDefault("access_ttl", "15m")
	v.SetDefault("refresh_ttl", "720h")
	v.SetDefault("cookie_name", "refresh_token")
	v.SetDefault("cookie_domain", "")
	v.SetDefault("cookie_path", "/auth")
	v.SetDefault("cookie_secure", false)

	v.SetDefault("cors_origins", "http://localhost:3000")
	v.SetDefault("rate_limit_per_minute", 60)

	v.SetDefault("script_command", "python3")
	v.SetDefault("script_args", "stock/dividend_yield.py")
	v.SetDefault("script_dir", ".")
	v.SetDefault("script_output_dir", "./stock/result")

	// Keep the legacy DB_* names working next to POSTGRES_*.
	_ = v.BindEnv("postgres_host", "POSTGRES_HOST", "DB_HOST")
	_ = v.BindEnv("postgres_port", "POSTGRES_PORT", "DB_PORT")
	_ = v.BindEnv("postgres_user", "POSTGRES_USER", "DB_USER")
	_ = v.BindEnv("postgres_password", "POSTGRES_PASSWORD", "DB_PASSWORD")
	_ = v.BindEnv("postgres_db", "POSTGRES_DB", "DB_NAME")
	_ = v.BindEnv("postgres_sslmode", "POSTGRES_SSLMODE", "DB_SSLMODE")
	_ = v.BindEnv("env", "ENV", "GO_ENV")
	v.AutomaticEnv()

	c := &Config{
		Port:             v.GetString("port"),
		Env:              v.GetString("env"),
		DBAdapter:        strings.ToLower(v.GetString("db_adapter")),
		SQLiteFile:       v.GetString("sqlite_file"),
		JwtSecret:        v.GetString("jwt_secret"),
		LogLevel:         v.GetString("log_level"),
		LogPretty:        v.GetBool("log_pretty"),
		MigrationsDir:    v.GetString("migrations_dir"),
		PostgresDSN:      v.GetString("postgres_dsn"),
		PostgresHost:     v.GetString("postgres_host"),
		PostgresPort:     v.GetString("postgres_port"),
		PostgresUser:     v.GetString("postgres_user"),
		PostgresPassword: v.GetString("postgres_password"),
		PostgresDB:       v.GetString("postgres_db"),
		PostgresSSLMode:  v.GetString("postgres_sslmode"),
		AccessTTL:        v.GetDuration("access_ttl"),
		RefreshTTL:       v.GetDuration("refresh_ttl"),
		Cookie: Cookie{
			Name:   v.GetString("cookie_name"),
			Domain: v.GetString("cookie_domain"),
			Path:   v.GetString("cookie_path"),
			Secure: v.GetBool("cookie_secure"),
		},
		CORSOrigins:        splitList(v.GetString("cors_origins"), ","),
		RateLimitPerMinute: v.GetInt("rate_limit_per_minute"),
		Script: Script{
			Command:   v.GetString("script_command"),
			Args:      strings.Fields(v.GetString("script_args")),
			Dir:       v.GetString("script_dir"),
			OutputDir: v.GetString("script_output_dir"),
		},
	}

	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) validate() error {
	switch c.DBAdapter {
	case "postgres":
		dsn, err := c.BuildPostgresDSN()
		if err != nil {
			return fmt.Errorf("postgres configuration error: %w", err)
		}
		c.PostgresDSN = dsn
	case "sqlite":
		if c.SQLiteFile == "" {
			return errors.New("SQLITE_FILE must be set when DB_ADAPTER=sqlite")
		}
	case "memory":
	default:
		return fmt.Errorf("unsupported DB_ADAPTER: %s (supported: postgres, sqlite, memory)", c.DBAdapter)
	}

	if c.IsProduction() && (c.JwtSecret == "" || c.JwtSecret == "change-me") {
		return errors.New("JWT_SECRET must be set in production")
	}
	if c.JwtSecret == "" {
		return errors.New("JWT_SECRET must not be empty")
	}

	if _, err := strconv.Atoi(c.Port); err != nil {
		return fmt.Errorf("invalid PORT: %s", c.Port)
	}
	if c.AccessTTL <= 0 || c.RefreshTTL <= 0 {
		return errors.New("ACCESS_TTL and REFRESH_TTL must be positive")
	}
	if c.Cookie.Name == "" {
		return errors.New("COOKIE_NAME must be set")
	}
	for _, o := range c.CORSOrigins {
		// the refresh cookie travels with credentialed CORS requests
		if o == "*" {
			return errors.New("CORS_ORIGINS must list explicit origins, not *")
		}
	}
	if c.RateLimitPerMinute <= 0 {
		c.RateLimitPerMinute = 60
	}
	return nil
}

func splitList(s, sep string) []string {
	var out []string
	for _, p := range strings.Split(s, sep) {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
