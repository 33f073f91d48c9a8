package config

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/spf13/viper"
)

type ServerConfig struct {
	Address string `mapstructure:"address"`
	Port    int    `mapstructure:"port"`
	Mode    string `mapstructure:"mode"`
}

type DatabaseConfig struct {
	Path    string `mapstructure:"path"`
	LogMode bool   `mapstructure:"log_mode"`
}

type JWTConfig struct {
	Secret          string `mapstructure:"secret"`
	Issuer          string `mapstructure:"issuer"`
	SessionTTLHours int    `mapstructure:"session_ttl_hours"`
}

type AuthConfig struct {
	LoginTokenTTLMinutes int `mapstructure:"login_token_ttl_minutes"`
}

// RedisConfig backs the vote rate limiter. An empty address disables the
// limiter entirely (fail-open).
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type RateLimitConfig struct {
	VotesPerHour  int `mapstructure:"votes_per_hour"`
	WindowMinutes int `mapstructure:"window_minutes"`
}

type EmailConfig struct {
	ResendAPIKey string `mapstructure:"resend_api_key"`
	From         string `mapstructure:"from"`
}

type RecaptchaConfig struct {
	SecretKey string  `mapstructure:"secret_key"`
	MinScore  float64 `mapstructure:"min_score"`
}

type TelegramConfig struct {
	BotToken string `mapstructure:"bot_token"`
	ChatID   int64  `mapstructure:"chat_id"`
}

type AppSubConfig struct {
	URL      string `mapstructure:"url"` // public base URL embedded in magic links
	PageSize int    `mapstructure:"page_size"`
}

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Redis     RedisConfig     `mapstructure:"redis"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Email     EmailConfig     `mapstructure:"email"`
	Recaptcha RecaptchaConfig `mapstructure:"recaptcha"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	App       AppSubConfig    `mapstructure:"app"`
}

var (
	appConfig *Config
	once      sync.Once
)

// Load loads configuration from the given file path (e.g. "config.yaml").
// If path is empty, it defaults to "config.yaml" in the current working
// directory.
func Load(path string) (*Config, error) {
	var err error
	once.Do(func() {
		v := viper.New()

		if path == "" {
			v.SetConfigName("config")
			v.SetConfigType("yaml")
			v.AddConfigPath(".")
		} else {
			v.SetConfigFile(path)
		}

		// environment overrides, e.g. FV_SERVER_PORT=9000
		v.SetEnvPrefix("FV")
		v.AutomaticEnv()

		v.SetDefault("server.address", "0.0.0.0")
		v.SetDefault("server.port", 8080)
		v.SetDefault("database.path", "data/feature-voting.db")
		v.SetDefault("jwt.issuer", "feature-voting")
		v.SetDefault("jwt.session_ttl_hours", 720)
		v.SetDefault("auth.login_token_ttl_minutes", 15)
		v.SetDefault("rate_limit.votes_per_hour", 10)
		v.SetDefault("rate_limit.window_minutes", 60)
		v.SetDefault("recaptcha.min_score", 0.5)
		v.SetDefault("app.page_size", 20)

		// a missing file is fine, environment variables and defaults apply
		if err = v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist) {
				err = nil
			} else {
				err = fmt.Errorf("read config: %w", err)
				return
			}
		}

		var c Config
		if err = v.Unmarshal(&c); err != nil {
			err = fmt.Errorf("unmarshal config: %w", err)
			return
		}

		appConfig = &c
	})

	if err != nil {
		return nil, err
	}
	return appConfig, nil
}

// Get returns the loaded global configuration.
// Call Load() once at application startup.
func Get() *Config {
	return appConfig
}
