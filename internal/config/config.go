package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

var (
	ErrMissingEnvironmentVariables = errors.New("missing required environment variables")
	ErrInvalidConfig               = errors.New("invalid configuration")
)

const EnvLocal = "local"

type Config struct {
	Env      string  `mapstructure:"env"`       // local, dev, production
	HTTPAddr string  `mapstructure:"http_addr"` // listen address of the gateway
	DB       DB      `mapstructure:"db"`
	Auth     Auth    `mapstructure:"auth"`
	CORS     CORS    `mapstructure:"cors"`
	Grading  Grading `mapstructure:"grading"`
	Events   Events  `mapstructure:"events"`
}

type DB struct {
	Driver string `mapstructure:"driver"` // sqlite, postgres or memory
	DSN    string `mapstructure:"dsn"`
}

type Auth struct {
	HMACSecret    string        `mapstructure:"hmac_secret"`
	AdminUser     string        `mapstructure:"admin_user"`
	AdminPassHash string        `mapstructure:"admin_pass_hash"` // bcrypt
	TokenTTL      time.Duration `mapstructure:"token_ttl"`
}

type CORS struct {
	Origins string `mapstructure:"origins"` // comma separated
}

// AllowedOrigins splits Origins, dropping blanks.
func (c CORS) AllowedOrigins() []string {
	var out []string
	for _, p := range strings.Split(c.Origins, ",") {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}

type Grading struct {
	Workers      int           `mapstructure:"workers"`       // learners scored at once in batch requests
	RegexTimeout time.Duration `mapstructure:"regex_timeout"` // per match of an author supplied pattern
}

type Events struct {
	SiteID string `mapstructure:"site_id"`

	// Recorded scores are pushed to ForwardURL when it is set.
	ForwardURL   string        `mapstructure:"forward_url"`
	ForwardEvery time.Duration `mapstructure:"forward_every"`
	TokenURL     string        `mapstructure:"token_url"`
	ClientID     string        `mapstructure:"client_id"`
	ClientSecret string        `mapstructure:"client_secret"`
}

// Load reads an optional .env file, an optional ./config/config.yaml and the
// environment, in increasing order of precedence.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error loading .env: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")

	v.SetDefault("env", EnvLocal)
	v.SetDefault("http_addr", ":8080")
	v.SetDefault("db.driver", "sqlite")
	v.SetDefault("db.dsn", "")
	v.SetDefault("auth.hmac_secret", "")
	v.SetDefault("auth.admin_user", "admin")
	v.SetDefault("auth.admin_pass_hash", "") // empty: password "admin", local only
	v.SetDefault("auth.token_ttl", "8h")
	v.SetDefault("cors.origins", "http://localhost:3000")
	v.SetDefault("grading.workers", 8)
	v.SetDefault("grading.regex_timeout", "100ms")
	v.SetDefault("events.site_id", "local")
	v.SetDefault("events.forward_url", "")
	v.SetDefault("events.forward_every", "30s")
	v.SetDefault("events.token_url", "")
	v.SetDefault("events.client_id", "")
	v.SetDefault("events.client_secret", "")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("env", "APP_ENV")

	if err := v.ReadInConfig(); err != nil {
		var fileLookupErr viper.ConfigFileNotFoundError
		if !errors.As(err, &fileLookupErr) {
			return nil, fmt.Errorf("error loading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	if cfg.Auth.HMACSecret == "" {
		if cfg.Env != EnvLocal {
			return nil, fmt.Errorf("%w: AUTH_HMAC_SECRET", ErrMissingEnvironmentVariables)
		}
		cfg.Auth.HMACSecret = "dev-secret-change-me"
	}
	if cfg.Auth.AdminPassHash == "" && cfg.Env != EnvLocal {
		return nil, fmt.Errorf("%w: AUTH_ADMIN_PASS_HASH", ErrMissingEnvironmentVariables)
	}
	if cfg.Events.ForwardURL != "" && cfg.Events.ForwardEvery <= 0 {
		return nil, fmt.Errorf("%w: EVENTS_FORWARD_EVERY must be positive, got %s", ErrInvalidConfig, cfg.Events.ForwardEvery)
	}
	return &cfg, nil
}
