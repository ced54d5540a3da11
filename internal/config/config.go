package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Server     ServerConfig     `mapstructure:"server"`
	Log        LogConfig        `mapstructure:"log"`
	Cron       CronConfig       `mapstructure:"cron"`
	Queue      QueueConfig      `mapstructure:"queue"`
	Dispatch   DispatchConfig   `mapstructure:"dispatch"`
	Consumer   ConsumerConfig   `mapstructure:"consumer"`
	Kalshi     KalshiConfig     `mapstructure:"kalshi"`
	Polymarket PolymarketConfig `mapstructure:"polymarket"`
	Store      StoreConfig      `mapstructure:"store"`
	Embed      EmbedConfig      `mapstructure:"embed"`
	Audit      AuditConfig      `mapstructure:"audit"`
}

type AppConfig struct {
	Env string `mapstructure:"env"`
}

type ServerConfig struct {
	HTTPAddr string `mapstructure:"http_addr"`
}

type LogConfig struct {
	Level             string `mapstructure:"level"`
	Encoding          string `mapstructure:"encoding"`
	Development       bool   `mapstructure:"development"`
	Sampling          bool   `mapstructure:"sampling"`
	DisableCaller     bool   `mapstructure:"disable_caller"`
	DisableStacktrace bool   `mapstructure:"disable_stacktrace"`
}

type CronConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Extract string `mapstructure:"extract"`
}

type QueueConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Stream   string        `mapstructure:"stream"`
	Group    string        `mapstructure:"group"`
	Consumer string        `mapstructure:"consumer"`
	Block    time.Duration `mapstructure:"block"`
	MinIdle  time.Duration `mapstructure:"min_idle"`
}

type DispatchConfig struct {
	// BatchSize bounds records per queue message so the serialized body
	// stays under the transport's per-message size ceiling.
	BatchSize int `mapstructure:"batch_size"`
}

type ConsumerConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Workers int  `mapstructure:"workers"`
}

type KalshiConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	BaseURL   string        `mapstructure:"base_url"`
	Email     string        `mapstructure:"email"`
	Password  string        `mapstructure:"password"`
	PageLimit int           `mapstructure:"page_limit"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

type PolymarketConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type StoreConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	APIKey  string        `mapstructure:"api_key"`
	Table   string        `mapstructure:"table"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type EmbedConfig struct {
	URL     string        `mapstructure:"url"`
	APIKey  string        `mapstructure:"api_key"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type AuditConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	BaseURL string        `mapstructure:"base_url"`
	Bucket  string        `mapstructure:"bucket"`
	APIKey  string        `mapstructure:"api_key"`
	Timeout time.Duration `mapstructure:"timeout"`
}

func Load(path string, envOnly bool) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("ADJ")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.AutomaticEnv()

	v.SetDefault("app.env", "dev")
	v.SetDefault("server.http_addr", ":8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "console")
	v.SetDefault("log.development", true)
	v.SetDefault("log.sampling", false)
	v.SetDefault("log.disable_caller", false)
	v.SetDefault("log.disable_stacktrace", false)
	v.SetDefault("cron.enabled", true)
	v.SetDefault("cron.extract", "@every 10m")
	v.SetDefault("queue.addr", "localhost:6379")
	v.SetDefault("queue.password", "")
	v.SetDefault("queue.db", 0)
	v.SetDefault("queue.stream", "adjacent:markets")
	v.SetDefault("queue.group", "upsert")
	v.SetDefault("queue.consumer", "etl")
	v.SetDefault("queue.block", "5s")
	v.SetDefault("queue.min_idle", "1m")
	v.SetDefault("dispatch.batch_size", 50)
	v.SetDefault("consumer.enabled", true)
	v.SetDefault("consumer.workers", 2)
	v.SetDefault("kalshi.enabled", true)
	v.SetDefault("kalshi.base_url", "https://trading-api.kalshi.com/trade-api/v2")
	v.SetDefault("kalshi.email", "")
	v.SetDefault("kalshi.password", "")
	v.SetDefault("kalshi.page_limit", 1000)
	v.SetDefault("kalshi.timeout", "30s")
	v.SetDefault("polymarket.enabled", true)
	v.SetDefault("polymarket.base_url", "https://clob.polymarket.com")
	v.SetDefault("polymarket.timeout", "30s")
	v.SetDefault("store.base_url", "")
	v.SetDefault("store.api_key", "")
	v.SetDefault("store.table", "markets_data")
	v.SetDefault("store.timeout", "15s")
	v.SetDefault("embed.url", "")
	v.SetDefault("embed.api_key", "")
	v.SetDefault("embed.timeout", "30s")
	v.SetDefault("audit.enabled", true)
	v.SetDefault("audit.base_url", "")
	v.SetDefault("audit.bucket", "raw-data")
	v.SetDefault("audit.api_key", "")
	v.SetDefault("audit.timeout", "30s")

	if !envOnly {
		if err := v.ReadInConfig(); err != nil {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}
