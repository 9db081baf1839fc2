// Package config provides configuration management using viper.
// It supports loading from YAML files and environment variable overrides.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Bot       BotConfig       `mapstructure:"bot"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Admin     AdminConfig     `mapstructure:"admin"`
	AI        AIConfig        `mapstructure:"ai"`
	Gate      GateConfig      `mapstructure:"gate"`
	Economy   EconomyConfig   `mapstructure:"economy"`
	Broadcast BroadcastConfig `mapstructure:"broadcast"`
}

// BotConfig holds Telegram bot configuration.
type BotConfig struct {
	Token string `mapstructure:"token"`
}

// DatabaseConfig holds PostgreSQL connection configuration.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	PoolSize        int           `mapstructure:"pool_size"`
	ConnectTimeout  time.Duration `mapstructure:"connect_timeout"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`
}

// AdminConfig holds the admin control plane configuration.
// The password is compared for exact equality with no attempt limiting;
// this preserves the legacy contract and is a known hardening gap.
type AdminConfig struct {
	Password string `mapstructure:"password"`
}

// AIConfig holds the generative AI collaborator configuration.
type AIConfig struct {
	APIKey  string        `mapstructure:"api_key"`
	Model   string        `mapstructure:"model"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// GateConfig holds advertisement gating configuration.
type GateConfig struct {
	AdLink          string `mapstructure:"ad_link"`
	ResponseLimit   int64  `mapstructure:"response_limit"`
	RequiredSeconds int    `mapstructure:"required_seconds"`
	Bonus           int64  `mapstructure:"bonus"`
}

// EconomyConfig holds ledger tunables.
type EconomyConfig struct {
	WelcomeBonus   int64 `mapstructure:"welcome_bonus"`
	ReferralReward int64 `mapstructure:"referral_reward"`
	ConvertRate    int64 `mapstructure:"convert_rate"`
	ConvertMinimum int64 `mapstructure:"convert_minimum"`
	PremiumCost    int64 `mapstructure:"premium_cost"`
}

// BroadcastConfig holds admin broadcast pacing configuration.
type BroadcastConfig struct {
	SendDelay time.Duration `mapstructure:"send_delay"`
}

// DSN returns the PostgreSQL connection string.
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		d.User, d.Password, d.Host, d.Port, d.Name,
	)
}

// Load reads configuration from file and environment variables.
// It looks for config.yaml in the config directory.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Configure viper
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	// Enable environment variable override
	// e.g. BOT_TOKEN, DATABASE_HOST, ADMIN_PASSWORD, AI_API_KEY
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (optional - env vars can provide all config)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "studybot")
	v.SetDefault("database.name", "studybot")
	v.SetDefault("database.pool_size", 20)
	v.SetDefault("database.connect_timeout", "10s")
	v.SetDefault("database.max_conn_lifetime", "1h")
	v.SetDefault("database.max_conn_idle_time", "30m")

	// AI defaults
	v.SetDefault("ai.model", "gemini-2.0-flash")
	v.SetDefault("ai.timeout", "30s")

	// Gate defaults
	v.SetDefault("gate.response_limit", 2)
	v.SetDefault("gate.required_seconds", 5)
	v.SetDefault("gate.bonus", 5)

	// Economy defaults
	v.SetDefault("economy.welcome_bonus", 50)
	v.SetDefault("economy.referral_reward", 100)
	v.SetDefault("economy.convert_rate", 100)
	v.SetDefault("economy.convert_minimum", 100)
	v.SetDefault("economy.premium_cost", 10)

	// Broadcast defaults
	v.SetDefault("broadcast.send_delay", "50ms")
}

// IsAdminPassword checks the supplied secret against the configured one.
func (c *Config) IsAdminPassword(input string) bool {
	return c.Admin.Password != "" && input == c.Admin.Password
}
