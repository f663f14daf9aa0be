package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	JWT        JWTConfig
	Payment    PaymentConfig
	Generation GenerationConfig
	Limits     LimitsConfig
	Points     PointsConfig
	Personas   PersonasConfig
	Redis      RedisConfig
	Admin      AdminConfig
	Snowflake  SnowflakeConfig
}

type ServerConfig struct {
	Port         string
	Env          string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	// RequestsPerMinute caps requests per client IP across the whole API.
	RequestsPerMinute int
}

type DatabaseConfig struct {
	DSN             string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

// JWTConfig verifies session tokens minted by the identity platform.
type JWTConfig struct {
	AccessSecret string
	AccessExpiry time.Duration
	Issuer       string
}

type PaymentConfig struct {
	Provider      string // stripe | stub
	SecretKey     string
	WebhookSecret string
	SuccessURL    string
	CancelURL     string
	Packages      []PointPackage
}

// PointPackage is one purchasable bundle of points.
type PointPackage struct {
	ID       string `mapstructure:"id" json:"id"`
	Name     string `mapstructure:"name" json:"name"`
	Points   int64  `mapstructure:"points" json:"points"`
	Amount   int64  `mapstructure:"amount" json:"amount"` // minor units of Currency
	Currency string `mapstructure:"currency" json:"currency"`
}

type GenerationConfig struct {
	APIKey     string
	BaseURL    string
	Model      string
	MaxRetries int
	RetryDelay time.Duration
	// PacingDelay spaces sequential message inserts for realtime display.
	PacingDelay  time.Duration
	HistoryTurns int
	// RequestTimeout bounds one HTTP call to the generation API.
	RequestTimeout time.Duration
	// FollowUpTimeout bounds the post-unlock suggestion, pacing included.
	FollowUpTimeout time.Duration
}

type LimitsConfig struct {
	DailyMessages int
	Timezone      string
	MaxMessageLen int
}

type PointsConfig struct {
	UnlockCost  int64
	SignupBonus int64
}

type PersonasConfig struct {
	Path string
}

type RedisConfig struct {
	URL string
}

type AdminConfig struct {
	// APIKeyHash is a bcrypt hash of the key accepted in X-Admin-Key.
	APIKeyHash string
}

type SnowflakeConfig struct {
	NodeID int64
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8099")
	v.SetDefault("server.env", "development")
	v.SetDefault("server.readtimeout", 10*time.Second)
	v.SetDefault("server.writetimeout", 60*time.Second)
	v.SetDefault("server.requestsperminute", 100)

	v.SetDefault("database.dsn", "sqlite:fortuna.db")
	v.SetDefault("database.maxidleconns", 10)
	v.SetDefault("database.maxopenconns", 100)
	v.SetDefault("database.connmaxlifetime", time.Hour)

	v.SetDefault("jwt.accesssecret", "change-me-in-production")
	v.SetDefault("jwt.accessexpiry", time.Hour)
	v.SetDefault("jwt.issuer", "fortuna")

	v.SetDefault("payment.provider", "stub")
	v.SetDefault("payment.successurl", "http://localhost:3000/points/success")
	v.SetDefault("payment.cancelurl", "http://localhost:3000/points")
	v.SetDefault("payment.packages", []map[string]interface{}{
		{"id": "p1000", "name": "1,000 points", "points": 1000, "amount": 980, "currency": "jpy"},
		{"id": "p3000", "name": "3,000 points", "points": 3000, "amount": 2800, "currency": "jpy"},
		{"id": "p5000", "name": "5,000 points", "points": 5000, "amount": 4500, "currency": "jpy"},
	})

	v.SetDefault("generation.baseurl", "https://generativelanguage.googleapis.com/v1beta/openai/")
	v.SetDefault("generation.model", "gemini-2.0-flash")
	v.SetDefault("generation.maxretries", 3)
	v.SetDefault("generation.retrydelay", time.Second)
	v.SetDefault("generation.pacingdelay", 1500*time.Millisecond)
	v.SetDefault("generation.historyturns", 20)
	v.SetDefault("generation.requesttimeout", 30*time.Second)
	v.SetDefault("generation.followuptimeout", 45*time.Second)

	v.SetDefault("limits.dailymessages", 3)
	v.SetDefault("limits.timezone", "Local")
	v.SetDefault("limits.maxmessagelen", 1000)

	v.SetDefault("points.unlockcost", 1000)
	v.SetDefault("points.signupbonus", 0)

	v.SetDefault("personas.path", "personas.yaml")
	// Secrets have empty defaults so AutomaticEnv can bind them on Unmarshal.
	for _, key := range []string{"payment.secretkey", "payment.webhooksecret", "generation.apikey", "redis.url", "admin.apikeyhash"} {
		v.SetDefault(key, "")
	}
	v.SetDefault("snowflake.nodeid", 1)
}

// Load reads defaults, an optional config.yaml and FORTUNA_* environment
// variables (e.g. FORTUNA_DATABASE_DSN).
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.SetEnvPrefix("FORTUNA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if cfg.Limits.DailyMessages <= 0 {
		cfg.Limits.DailyMessages = 3
	}
	return &cfg, nil
}

// Location returns the timezone used to compute the limiter's calendar day.
func (c LimitsConfig) Location() *time.Location {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// Package looks up a point package by id.
func (c PaymentConfig) Package(id string) (PointPackage, bool) {
	for _, p := range c.Packages {
		if p.ID == id {
			return p, true
		}
	}
	return PointPackage{}, false
}
