package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

type AppConfig struct {
	API        *APIConfig        `mapstructure:"api"`
	Gin        *GinConfig        `mapstructure:"gin"`
	Postgres   *PostgresConfig   `mapstructure:"postgres"`
	Redis      *RedisConfig      `mapstructure:"redis"`
	RabbitMQ   *RabbitMQConfig   `mapstructure:"rabbitmq"`
	Cloudinary *CloudinaryConfig `mapstructure:"cloudinary"`
	Session    *SessionConfig    `mapstructure:"session"`
	Allocation *AllocationConfig `mapstructure:"allocation"`
	Jobs       *JobsConfig       `mapstructure:"jobs"`
}

type APIConfig struct {
	Port               string        `mapstructure:"port"`
	BaseURL            string        `mapstructure:"base_url"`
	PublicURL          string        `mapstructure:"public_url"`
	Environment        string        `mapstructure:"environment"`
	LogLevel           string        `mapstructure:"log_level"`
	JWTSigningKey      string        `mapstructure:"jwt_signing_key"`
	AllowedCORSDomains []string      `mapstructure:"allowed_cors_domains"`
	AdminTokenTTL      time.Duration `mapstructure:"admin_token_ttl"`
}

type GinConfig struct {
	Mode string `mapstructure:"mode"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DB       string `mapstructure:"db"`
	SSLMode  string `mapstructure:"sslmode"`
}

func (c *PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DB, c.SSLMode,
	)
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Channel  string `mapstructure:"channel"`
}

type RabbitMQConfig struct {
	URL   string `mapstructure:"url"`
	Queue string `mapstructure:"queue"`
}

type CloudinaryConfig struct {
	CloudName string `mapstructure:"cloud_name"`
	APIKey    string `mapstructure:"api_key"`
	APISecret string `mapstructure:"api_secret"`
	Folder    string `mapstructure:"folder"`
}

// Enabled reports whether image uploads can be served.
func (c *CloudinaryConfig) Enabled() bool {
	return c.CloudName != "" && c.APIKey != "" && c.APISecret != ""
}

type SessionConfig struct {
	SigningKey       string        `mapstructure:"signing_key"`
	CityCookieName   string        `mapstructure:"city_cookie_name"`
	AccessCookieName string        `mapstructure:"access_cookie_name"`
	TTL              time.Duration `mapstructure:"ttl"`
	Secure           bool          `mapstructure:"secure"`
}

type AllocationConfig struct {
	MaxCASAttempts       int    `mapstructure:"max_cas_attempts"`
	CityScopePolicy      string `mapstructure:"city_scope_policy"`
	VenueScopePolicy     string `mapstructure:"venue_scope_policy"`
	ZeroCeilingUnlimited bool   `mapstructure:"zero_ceiling_unlimited"`
}

type JobsConfig struct {
	ReconcileCron string `mapstructure:"reconcile_cron"`
}

// Load reads the YAML file at path, applies SPINWHEEL_* environment overrides
// and keeps watching the file. onChange, when given, is called with the
// reloaded config after every write to the file.
func Load(path string, onChange ...func(*AppConfig)) (*AppConfig, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetEnvPrefix("SPINWHEEL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("v.ReadInConfig -> %w", err)
	}

	conf, err := decode(v)
	if err != nil {
		return nil, err
	}

	if len(onChange) > 0 {
		v.OnConfigChange(func(_ fsnotify.Event) {
			reloaded, err := decode(v)
			if err != nil {
				return
			}
			for _, fn := range onChange {
				fn(reloaded)
			}
		})
		v.WatchConfig()
	}

	return conf, nil
}

func decode(v *viper.Viper) (*AppConfig, error) {
	conf := &AppConfig{}
	if err := v.Unmarshal(conf); err != nil {
		return nil, fmt.Errorf("v.Unmarshal -> %w", err)
	}

	return conf, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.port", "8080")
	v.SetDefault("api.base_url", "localhost:8080")
	v.SetDefault("api.public_url", "http://localhost:3000")
	v.SetDefault("api.environment", "development")
	v.SetDefault("api.log_level", "info")
	v.SetDefault("api.allowed_cors_domains", []string{"http://localhost:3000"})
	v.SetDefault("api.admin_token_ttl", 12*time.Hour)

	v.SetDefault("gin.mode", "debug")

	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", "5432")
	v.SetDefault("postgres.user", "postgres")
	v.SetDefault("postgres.db", "spinwheel")
	v.SetDefault("postgres.sslmode", "disable")

	v.SetDefault("redis.channel", "spinwheel:gifts")

	v.SetDefault("rabbitmq.queue", "spin.won")

	v.SetDefault("cloudinary.folder", "prize-images")

	v.SetDefault("session.city_cookie_name", "spin_city_auth")
	v.SetDefault("session.access_cookie_name", "spin_campaign_access")
	v.SetDefault("session.ttl", 24*time.Hour)

	v.SetDefault("allocation.max_cas_attempts", 3)
	v.SetDefault("allocation.city_scope_policy", "open_by_default")
	v.SetDefault("allocation.venue_scope_policy", "closed_by_default")
	v.SetDefault("allocation.zero_ceiling_unlimited", true)

	v.SetDefault("jobs.reconcile_cron", "@every 5m")
}
