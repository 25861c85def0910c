package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

// envFiles are loaded, if present, before the environment is read. Variables
// already set in the process environment take precedence.
var envFiles = []string{"config.env", ".env"}

type Config struct {
	Port          string `env:"PORT,            default=8080"`
	Env           string `env:"ENV,             default=development"`
	LogLevel      string `env:"LOG_LEVEL,       default=info"`
	PublicBaseURL string `env:"PUBLIC_BASE_URL, default=http://localhost:8080"`

	Auth    AuthConfig
	Orders  OrdersConfig
	Mongo   MongoConfig
	Redis   RedisConfig
	Limit   RateLimitConfig
	SMTP    SMTPConfig
	Workers int `env:"NOTIFY_WORKERS, default=4"`
}

type AuthConfig struct {
	JWTSecret    string        `env:"JWT_SECRET, required"`
	TokenTTL     time.Duration `env:"JWT_TTL,    default=24h"`
	SignupCredit int64         `env:"SIGNUP_CREDIT, default=0"`
}

type OrdersConfig struct {
	ApprovalWindow time.Duration `env:"APPROVAL_WINDOW,       default=168h"`
	SweepInterval  time.Duration `env:"EXPIRY_SWEEP_INTERVAL, default=0s"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017/?replicaSet=rs0"`
	Database string `env:"MONGO_DB,  default=hour_bank"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
}

type RateLimitConfig struct {
	Max    int64         `env:"RATE_LIMIT_MAX,    default=100"`
	Window time.Duration `env:"RATE_LIMIT_WINDOW, default=1h"`
}

// SMTPConfig leaves Host empty to log notifications instead of mailing them.
type SMTPConfig struct {
	Host     string        `env:"SMTP_HOST"`
	Port     int           `env:"SMTP_PORT, default=587"`
	Username string        `env:"SMTP_USERNAME"`
	Password string        `env:"SMTP_PASSWORD"`
	From     string        `env:"MAIL_FROM, default=Hour-Bank <admin@hour-bank.com>"`
	Timeout  time.Duration `env:"SMTP_TIMEOUT, default=15s"`
}

// IsProduction reports whether the service runs with ENV=production.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Load reads the optional env files and then the process environment.
func Load(ctx context.Context) (*Config, error) {
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config: load %s: %w", f, err)
		}
	}
	return process(ctx, envconfig.OsLookuper())
}

func process(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: lookuper}); err != nil {
		return nil, fmt.Errorf("config: failed to load configuration: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch {
	case c.Auth.SignupCredit < 0:
		return errors.New("config: SIGNUP_CREDIT must not be negative")
	case c.Orders.ApprovalWindow <= 0:
		return errors.New("config: APPROVAL_WINDOW must be positive")
	case c.Orders.SweepInterval < 0:
		return errors.New("config: EXPIRY_SWEEP_INTERVAL must not be negative")
	case c.Limit.Max <= 0 || c.Limit.Window <= 0:
		return errors.New("config: RATE_LIMIT_MAX and RATE_LIMIT_WINDOW must be positive")
	}
	return nil
}
