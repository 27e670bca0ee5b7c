package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
	DriverSQLite   = "sqlite"
)

type Config struct {
	Port            int
	CORSAllowOrigin string

	// Database
	DBDriver    string
	DatabaseURL string
	DBHost      string
	DBPort      int
	DBName      string
	DBUser      string
	DBPassword  string
	DBMaxConns  int

	// Auth
	JWTSecret     string
	JWTTTL        time.Duration
	BcryptCost    int
	AuthRateLimit float64
	AuthRateBurst int

	// Logging
	LogLevel  string
	LogFormat string

	// Journal
	DefaultStartingBalance  float64
	StrategyRefreshInterval time.Duration

	// Stats cache
	RedisURL      string
	StatsCacheTTL time.Duration

	// Events
	AMQPURL      string
	AMQPExchange string

	// Notifications
	WebhookURL string
	BotName    string
}

// Load reads .env (if present), an optional journal.{yaml,json,toml} in the
// working directory, and the process environment, in rising precedence.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("journal")
	v.AddConfigPath(".")
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := &Config{
		Port:            v.GetInt("PORT"),
		CORSAllowOrigin: v.GetString("CORS_ALLOW_ORIGIN"),

		DBDriver:    strings.ToLower(v.GetString("DB_DRIVER")),
		DatabaseURL: v.GetString("DATABASE_URL"),
		DBHost:      v.GetString("DB_HOST"),
		DBPort:      v.GetInt("DB_PORT"),
		DBName:      v.GetString("DB_NAME"),
		DBUser:      v.GetString("DB_USER"),
		DBPassword:  v.GetString("DB_PASSWORD"),
		DBMaxConns:  v.GetInt("DB_MAX_CONNS"),

		JWTSecret:     v.GetString("JWT_SECRET"),
		JWTTTL:        v.GetDuration("JWT_TTL"),
		BcryptCost:    v.GetInt("BCRYPT_COST"),
		AuthRateLimit: v.GetFloat64("AUTH_RATE_LIMIT"),
		AuthRateBurst: v.GetInt("AUTH_RATE_BURST"),

		LogLevel:  v.GetString("LOG_LEVEL"),
		LogFormat: v.GetString("LOG_FORMAT"),

		DefaultStartingBalance:  v.GetFloat64("DEFAULT_STARTING_BALANCE"),
		StrategyRefreshInterval: v.GetDuration("STRATEGY_REFRESH_INTERVAL"),

		RedisURL:      v.GetString("REDIS_URL"),
		StatsCacheTTL: v.GetDuration("STATS_CACHE_TTL"),

		AMQPURL:      v.GetString("AMQP_URL"),
		AMQPExchange: v.GetString("AMQP_EXCHANGE"),

		WebhookURL: v.GetString("WEBHOOK_URL"),
		BotName:    v.GetString("BOT_NAME"),
	}

	if cfg.DBPort == 0 {
		switch cfg.DBDriver {
		case DriverMySQL:
			cfg.DBPort = 3306
		case DriverPostgres:
			cfg.DBPort = 5432
		}
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", 5000)
	v.SetDefault("CORS_ALLOW_ORIGIN", "*")

	v.SetDefault("DB_DRIVER", DriverPostgres)
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_NAME", "trade_journal")
	v.SetDefault("DB_MAX_CONNS", 20)

	v.SetDefault("JWT_TTL", "24h")
	v.SetDefault("BCRYPT_COST", bcrypt.DefaultCost)
	v.SetDefault("AUTH_RATE_LIMIT", 5)
	v.SetDefault("AUTH_RATE_BURST", 10)

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")

	v.SetDefault("DEFAULT_STARTING_BALANCE", 10000)
	v.SetDefault("STRATEGY_REFRESH_INTERVAL", "1h")

	v.SetDefault("STATS_CACHE_TTL", "5m")
	v.SetDefault("AMQP_EXCHANGE", "trade_journal")
	v.SetDefault("BOT_NAME", "TradeJournal")
}

// Validate reports every hard error at once. Soft problems are logged as
// warnings.
func (c *Config) Validate(log *zap.Logger) error {
	var errs []string

	switch c.DBDriver {
	case DriverPostgres, DriverMySQL, DriverSQLite:
	default:
		errs = append(errs, fmt.Sprintf("DB_DRIVER must be one of postgres, mysql, sqlite (got %q)", c.DBDriver))
	}
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Sprintf("PORT out of range: %d", c.Port))
	}
	if c.DBMaxConns <= 0 {
		errs = append(errs, "DB_MAX_CONNS must be positive")
	}
	if c.JWTSecret == "" {
		errs = append(errs, "JWT_SECRET is required")
	}
	if c.JWTTTL <= 0 {
		errs = append(errs, "JWT_TTL must be positive")
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		errs = append(errs, fmt.Sprintf("BCRYPT_COST must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost))
	}
	if c.AuthRateLimit <= 0 || c.AuthRateBurst <= 0 {
		errs = append(errs, "AUTH_RATE_LIMIT and AUTH_RATE_BURST must be positive")
	}
	if c.StrategyRefreshInterval <= 0 {
		errs = append(errs, "STRATEGY_REFRESH_INTERVAL must be positive")
	}
	if c.StatsCacheTTL <= 0 {
		errs = append(errs, "STATS_CACHE_TTL must be positive")
	}
	if c.DefaultStartingBalance < 0 {
		errs = append(errs, "DEFAULT_STARTING_BALANCE cannot be negative")
	}

	if c.JWTSecret != "" && len(c.JWTSecret) < 32 {
		log.Warn("JWT_SECRET is shorter than 32 characters")
	}
	if c.CORSAllowOrigin == "*" {
		log.Warn("CORS_ALLOW_ORIGIN is '*', any origin may call the API")
	}
	if c.RedisURL == "" {
		log.Info("REDIS_URL not set, stats cache is in-process")
	}
	if c.AMQPURL == "" {
		log.Info("AMQP_URL not set, journal events are dropped")
	}
	if c.WebhookURL == "" {
		log.Info("WEBHOOK_URL not set, trade notifications disabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  %s", strings.Join(errs, "\n  "))
	}
	return nil
}

// Print logs the effective configuration with credentials redacted.
func (c *Config) Print(log *zap.Logger) {
	log.Info("configuration",
		zap.Int("port", c.Port),
		zap.String("dbDriver", c.DBDriver),
		zap.String("dsn", redact(c.DSN())),
		zap.Int("dbMaxConns", c.DBMaxConns),
		zap.Duration("jwtTTL", c.JWTTTL),
		zap.Int("bcryptCost", c.BcryptCost),
		zap.Float64("authRateLimit", c.AuthRateLimit),
		zap.Int("authRateBurst", c.AuthRateBurst),
		zap.Float64("defaultStartingBalance", c.DefaultStartingBalance),
		zap.Duration("strategyRefreshInterval", c.StrategyRefreshInterval),
		zap.String("statsCache", boolLabel(c.RedisURL != "", "redis", "memory")),
		zap.Duration("statsCacheTTL", c.StatsCacheTTL),
		zap.String("events", boolLabel(c.AMQPURL != "", "amqp:"+c.AMQPExchange, "disabled")),
		zap.String("webhook", boolLabel(c.WebhookURL != "", "configured", "disabled")),
	)
}

// DSN returns DATABASE_URL when set, otherwise a connection string composed
// for the selected driver.
func (c *Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}

	switch c.DBDriver {
	case DriverMySQL:
		return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
			c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName)
	case DriverSQLite:
		if strings.HasPrefix(c.DBName, "file:") || strings.HasSuffix(c.DBName, ".db") {
			return c.DBName
		}
		return c.DBName + ".db"
	default:
		return fmt.Sprintf("postgres://%s@%s:%d/%s?sslmode=disable",
			url.UserPassword(c.DBUser, c.DBPassword), c.DBHost, c.DBPort, c.DBName)
	}
}

// --- helpers ---

func redact(dsn string) string {
	if u, err := url.Parse(dsn); err == nil && u.User != nil {
		return u.Redacted()
	}
	// user:pass@tcp(...) form
	if at := strings.LastIndex(dsn, "@"); at > 0 {
		if colon := strings.Index(dsn[:at], ":"); colon >= 0 {
			return dsn[:colon+1] + "xxxxx" + dsn[at:]
		}
	}
	return dsn
}

func boolLabel(cond bool, ifTrue, ifFalse string) string {
	if cond {
		return ifTrue
	}
	return ifFalse
}
