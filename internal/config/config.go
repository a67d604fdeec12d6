package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	SMTP     SMTPConfig     `mapstructure:"smtp"`
	Bot      BotConfig      `mapstructure:"bot"`
	Hospital HospitalConfig `mapstructure:"hospital"`
}

type ServerConfig struct {
	Port           int `mapstructure:"port"`
	TimeoutSeconds int `mapstructure:"timeoutSeconds"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
}

type RedisConfig struct {
	URL          string        `mapstructure:"url"`
	MaxRetries   int           `mapstructure:"max_retries"`
	RetryBackoff time.Duration `mapstructure:"retry_backoff"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
}

type JWTConfig struct {
	Secret      string `mapstructure:"secret"`
	ExpiryHours int    `mapstructure:"expiry_hours"`
}

type SMTPConfig struct {
	Host     string   `mapstructure:"host"`
	Port     int      `mapstructure:"port"`
	Username string   `mapstructure:"username"`
	Password string   `mapstructure:"password"`
	From     string   `mapstructure:"from"`
	AlertTo  []string `mapstructure:"alert_to"`
}

// BotConfig drives the long-poll dispatch loop. Secrets come from the
// environment only, overlaid by envconfig after the file load.
type BotConfig struct {
	APIBase      string        `mapstructure:"api_base" envconfig:"BOT_API_BASE"`
	Token        string        `mapstructure:"-" envconfig:"BOT_TOKEN"`
	PollTimeout  time.Duration `mapstructure:"poll_timeout" envconfig:"BOT_POLL_TIMEOUT"`
	ErrorBackoff time.Duration `mapstructure:"error_backoff" envconfig:"BOT_ERROR_BACKOFF"`
	Enabled      bool          `mapstructure:"enabled" envconfig:"BOT_ENABLED"`
}

type HospitalConfig struct {
	// Local offset from UTC in minutes. The deployment runs at UTC+5.
	TZOffsetMinutes int `mapstructure:"tz_offset_minutes"`
	// Weekday with no OPD; schedule patches for it are rejected.
	ClosureWeekday string `mapstructure:"closure_weekday"`
	// Days shown by the flattened upcoming-schedule view.
	DisplayDays int `mapstructure:"display_days"`
}

func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.timeoutSeconds", 30)
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("bot.poll_timeout", "25s")
	viper.SetDefault("bot.error_backoff", "5s")
	viper.SetDefault("hospital.tz_offset_minutes", 300)
	viper.SetDefault("hospital.closure_weekday", "Friday")
	viper.SetDefault("hospital.display_days", 7)

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := envconfig.Process("", &config.Bot); err != nil {
		return nil, fmt.Errorf("failed to overlay bot env: %w", err)
	}

	return &config, nil
}
