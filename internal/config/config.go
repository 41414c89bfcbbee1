package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Server   ServerConfig   `mapstructure:"server"`
	Logger   LoggerConfig   `mapstructure:"logger"`
	Network  NetworkConfig  `mapstructure:"network"`
	Networks NetworksConfig `mapstructure:"networks"`
	Provider ProviderConfig `mapstructure:"provider"`
	Wallet   WalletConfig   `mapstructure:"wallet"`
	Checker  CheckerConfig  `mapstructure:"checker"`
	Cache    CacheConfig    `mapstructure:"cache"`
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Name    string `mapstructure:"name"`
	Version string `mapstructure:"version"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string `mapstructure:"port"`
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level    string `mapstructure:"level"`
	Encoding string `mapstructure:"encoding"`
	Output   string `mapstructure:"output"`
}

// NetworkConfig selects which registered network the wallet is expected to be on.
// ExpectedChainID, when set, moves the selected slot off the built-in EDU Chain network.
type NetworkConfig struct {
	UseTestnet      bool   `mapstructure:"use_testnet"`
	ExpectedChainID string `mapstructure:"expected_chain_id"`
}

// NetworksConfig holds the optional sources of network descriptors.
type NetworksConfig struct {
	File           string   `mapstructure:"file"`
	ChainlistURL   string   `mapstructure:"chainlist_url"`
	ImportChainIDs []string `mapstructure:"import_chain_ids"`
}

// ProviderConfig holds settings for the host wallet provider bridge.
type ProviderConfig struct {
	URL            string        `mapstructure:"url"`
	EventsURL      string        `mapstructure:"events_url"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	PromptTimeout  time.Duration `mapstructure:"prompt_timeout"`
	RetryAttempts  uint          `mapstructure:"retry_attempts"`
	RetryDelay     time.Duration `mapstructure:"retry_delay"`
	ReconnectDelay time.Duration `mapstructure:"reconnect_delay"`
}

// WalletConfig holds settings for the wallet state store.
type WalletConfig struct {
	SerializeRefresh bool `mapstructure:"serialize_refresh"`
}

// CheckerConfig holds settings related to the RPC endpoint health checks.
type CheckerConfig struct {
	CheckInterval time.Duration `mapstructure:"check_interval"`
	CheckTimeout  time.Duration `mapstructure:"check_timeout"`
	MaxWorkers    int           `mapstructure:"max_workers"`
	CacheTTL      time.Duration `mapstructure:"cache_ttl"`
}

// CacheConfig holds settings for the caching layer.
type CacheConfig struct {
	DefaultExpiration time.Duration `mapstructure:"default_expiration"`
	CleanupInterval   time.Duration `mapstructure:"cleanup_interval"`
}

// Load reads configuration from file and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	v.SetDefault("app.name", "educhain-wallet")
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("server.port", "8080")
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.encoding", "json")
	v.SetDefault("logger.output", "stdout")
	v.SetDefault("network.use_testnet", true)
	v.SetDefault("network.expected_chain_id", "")
	v.SetDefault("networks.file", "")
	v.SetDefault("networks.chainlist_url", "")
	v.SetDefault("networks.import_chain_ids", []string{})
	v.SetDefault("provider.url", "")
	v.SetDefault("provider.events_url", "")
	v.SetDefault("provider.request_timeout", "10s")
	v.SetDefault("provider.prompt_timeout", "0s")
	v.SetDefault("provider.retry_attempts", 3)
	v.SetDefault("provider.retry_delay", "500ms")
	v.SetDefault("provider.reconnect_delay", "3s")
	v.SetDefault("wallet.serialize_refresh", false)
	v.SetDefault("checker.check_interval", "15m")
	v.SetDefault("checker.check_timeout", "5s")
	v.SetDefault("checker.max_workers", 8)
	v.SetDefault("checker.cache_ttl", "30m")
	v.SetDefault("cache.default_expiration", "30m")
	v.SetDefault("cache.cleanup_interval", "1h")

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		fmt.Printf("Warning: Config file not found in %s or '.', using defaults/env vars\n", configPath)
	}

	v.SetEnvPrefix("EDUCHAIN_WALLET")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func (c CheckerConfig) GetTimeout() time.Duration {
	return c.CheckTimeout
}

func (c CheckerConfig) GetCheckInterval() time.Duration {
	return c.CheckInterval
}

func (c CheckerConfig) GetCacheTTL() time.Duration {
	return c.CacheTTL
}

func (c CacheConfig) GetDefaultExpiration() time.Duration {
	return c.DefaultExpiration
}

func (c CacheConfig) GetCleanupInterval() time.Duration {
	return c.CleanupInterval
}
