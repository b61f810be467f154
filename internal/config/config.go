package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Log     LogConfig     `mapstructure:"log"`
	Auth    AuthConfig    `mapstructure:"auth"`
	Paradex ParadexConfig `mapstructure:"paradex"`
	Account AccountConfig `mapstructure:"account"`
	Session SessionConfig `mapstructure:"session"`
	Market  MarketConfig  `mapstructure:"market"`
	Redis   RedisConfig   `mapstructure:"redis"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	History HistoryConfig `mapstructure:"history"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type AuthConfig struct {
	RequireAPIKey bool   `mapstructure:"require_api_key"`
	APIKey        string `mapstructure:"api_key"`
}

type ParadexConfig struct {
	BaseURL string `mapstructure:"base_url"`
	WSURL   string `mapstructure:"ws_url"`
	// Short-string chain identifier, e.g. "PRIVATE_SN_PARACLEAR_MAINNET"
	ChainID string `mapstructure:"chain_id"`
	// Requests per second toward the exchange
	RateLimit float64 `mapstructure:"rate_limit"`
	TimeoutMs int     `mapstructure:"timeout_ms"`
}

type AccountConfig struct {
	// StarkNet account address (hex)
	Address string `mapstructure:"address"`
	// Stark private key (hex). When empty, EthereumPrivateKey is used to
	// derive it via the STARK key grinding flow.
	PrivateKey         string `mapstructure:"private_key"`
	EthereumPrivateKey string `mapstructure:"ethereum_private_key"`
	L1ChainID          int64  `mapstructure:"l1_chain_id"`
}

type SessionConfig struct {
	RefreshIntervalSeconds int `mapstructure:"refresh_interval_seconds"`
	DebounceMs             int `mapstructure:"debounce_ms"`
}

func (c SessionConfig) RefreshInterval() time.Duration {
	return time.Duration(c.RefreshIntervalSeconds) * time.Second
}

func (c SessionConfig) Debounce() time.Duration {
	return time.Duration(c.DebounceMs) * time.Millisecond
}

type MarketConfig struct {
	Symbols             []string `mapstructure:"symbols"`
	PollIntervalSeconds int      `mapstructure:"poll_interval_seconds"`
	StreamEnabled       bool     `mapstructure:"stream_enabled"`
}

type RedisConfig struct {
	Addr         string `mapstructure:"addr"`
	Password     string `mapstructure:"password"`
	DB           int    `mapstructure:"db"`
	AuditListKey string `mapstructure:"audit_list_key"`
	AuditListMax int    `mapstructure:"audit_list_max"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

type HistoryConfig struct {
	MaxEntries int `mapstructure:"max_entries"`
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./configs")

	// Environment variables support
	// e.g. PARAGATE_ACCOUNT_PRIVATE_KEY
	viper.SetEnvPrefix("paragate")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Defaults
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("log.level", "info")
	viper.SetDefault("auth.require_api_key", false)
	viper.SetDefault("paradex.base_url", "https://api.prod.paradex.trade/v1")
	viper.SetDefault("paradex.ws_url", "wss://ws.api.prod.paradex.trade/v1")
	viper.SetDefault("paradex.chain_id", "PRIVATE_SN_PARACLEAR_MAINNET")
	viper.SetDefault("paradex.rate_limit", 10.0)
	viper.SetDefault("paradex.timeout_ms", 10000)
	viper.SetDefault("account.l1_chain_id", 1)
	viper.SetDefault("session.refresh_interval_seconds", 180)
	viper.SetDefault("session.debounce_ms", 250)
	viper.SetDefault("market.poll_interval_seconds", 15)
	viper.SetDefault("market.stream_enabled", true)
	viper.SetDefault("redis.audit_list_key", "order_audit")
	viper.SetDefault("redis.audit_list_max", 10000)
	viper.SetDefault("metrics.enabled", true)
	viper.SetDefault("metrics.path", "/metrics")
	viper.SetDefault("history.max_entries", 1000)

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Println("No config file found, using defaults and env vars")
		} else {
			return nil, err
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Account.Address == "" {
		return fmt.Errorf("account.address is required")
	}
	if c.Account.PrivateKey == "" && c.Account.EthereumPrivateKey == "" {
		return fmt.Errorf("one of account.private_key or account.ethereum_private_key is required")
	}
	if c.Paradex.ChainID == "" {
		return fmt.Errorf("paradex.chain_id is required")
	}
	return nil
}
