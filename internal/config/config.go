package config

import (
	"errors"
	"strings"
	"time"

	"blog-api/internal/store/postgres"

	"github.com/spf13/viper"
)

type App struct {
	Name        string `mapstructure:"name"`
	Description string `mapstructure:"description"`
	Version     string `mapstructure:"version"`
	Env         string `mapstructure:"env"`
}

func (a App) Debug() bool { return a.Env == "development" }

type Server struct {
	Addr            string        `mapstructure:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	GracefulTimeout time.Duration `mapstructure:"graceful_timeout"`
	CORSOrigins     []string      `mapstructure:"cors_origins"`
}

type Auth struct {
	JWTSecret  string        `mapstructure:"jwt_secret"`
	MasterKey  string        `mapstructure:"master_key"`
	AccessTTL  time.Duration `mapstructure:"access_ttl"`
	RefreshTTL time.Duration `mapstructure:"refresh_ttl"`
	BcryptCost int           `mapstructure:"bcrypt_cost"`
}

type Log struct {
	Level           string `mapstructure:"level"`
	Pretty          bool   `mapstructure:"pretty"`
	AuditFile       string `mapstructure:"audit_file"`
	AuditMaxSizeMB  int    `mapstructure:"audit_max_size_mb"`
	AuditMaxBackups int    `mapstructure:"audit_max_backups"`
}

type Cleanup struct {
	Interval  time.Duration `mapstructure:"interval"`
	Retention time.Duration `mapstructure:"retention"`
}

type Metrics struct {
	Addr string `mapstructure:"addr"`
}

type OTEL struct {
	Enable       bool    `mapstructure:"enable"`
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	SampleRatio  float64 `mapstructure:"sample_ratio"`
}

// Config is built once at startup and handed to constructors by value.
type Config struct {
	App     App             `mapstructure:"app"`
	Server  Server          `mapstructure:"server"`
	DB      postgres.Config `mapstructure:"db"`
	Auth    Auth            `mapstructure:"auth"`
	Log     Log             `mapstructure:"log"`
	Cleanup Cleanup         `mapstructure:"cleanup"`
	Metrics Metrics         `mapstructure:"metrics"`
	OTEL    OTEL            `mapstructure:"otel"`
}

const envPrefix = "BLOG"

const (
	defaultJWTSecret = "myjwtsecretkey"
	defaultMasterKey = "master_key"
)

// Load reads an optional YAML file, then BLOG_* environment variables
// (BLOG_AUTH_JWT_SECRET, BLOG_DB_DSN, ...), over the defaults below.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, err
		}
	}

	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "Blog API")
	v.SetDefault("app.description", "An API for a blog web application")
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.env", "development")

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout", "10s")
	v.SetDefault("server.write_timeout", "10s")
	v.SetDefault("server.idle_timeout", "60s")
	v.SetDefault("server.graceful_timeout", "10s")
	v.SetDefault("server.cors_origins", []string{"http://localhost", "http://localhost:3000", "http://localhost:5173"})

	// Empty DSN selects the in-memory store.
	v.SetDefault("db.dsn", "")
	v.SetDefault("db.max_conns", 10)
	v.SetDefault("db.min_conns", 1)
	v.SetDefault("db.max_conn_lifetime", "30m")
	v.SetDefault("db.max_conn_idle_time", "10m")
	v.SetDefault("db.health_check_period", "30s")
	v.SetDefault("db.query_timeout", "2s")

	v.SetDefault("auth.jwt_secret", defaultJWTSecret)
	v.SetDefault("auth.master_key", defaultMasterKey)
	v.SetDefault("auth.access_ttl", "30m")
	v.SetDefault("auth.refresh_ttl", "168h")
	v.SetDefault("auth.bcrypt_cost", 10)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)
	v.SetDefault("log.audit_file", "audit_logs.log")
	v.SetDefault("log.audit_max_size_mb", 5)
	v.SetDefault("log.audit_max_backups", 5)

	v.SetDefault("cleanup.interval", "24h")
	v.SetDefault("cleanup.retention", "720h")

	v.SetDefault("metrics.addr", ":9090")

	v.SetDefault("otel.enable", false)
	v.SetDefault("otel.otlp_endpoint", "localhost:4317")
	v.SetDefault("otel.sample_ratio", 1.0)
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Auth.JWTSecret) == "" {
		return errors.New("auth.jwt_secret is required")
	}
	if strings.TrimSpace(c.Auth.MasterKey) == "" {
		return errors.New("auth.master_key is required")
	}
	if c.App.Env == "production" {
		if c.Auth.JWTSecret == defaultJWTSecret {
			return errors.New("auth.jwt_secret must be set in production")
		}
		if c.Auth.MasterKey == defaultMasterKey {
			return errors.New("auth.master_key must be set in production")
		}
	}
	if c.Auth.RefreshTTL <= c.Auth.AccessTTL {
		return errors.New("auth.refresh_ttl must exceed auth.access_ttl")
	}
	if c.Cleanup.Retention <= 0 {
		return errors.New("cleanup.retention must be positive")
	}
	return nil
}

func (c Config) UsePostgres() bool {
	return strings.TrimSpace(c.DB.DSN) != ""
}
