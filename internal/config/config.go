package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/xxxsen/common/logger"
)

type Config struct {
	Port             int              `json:"port"`
	LogConfig        logger.LogConfig `json:"log_config"`
	CORSAllowOrigins []string         `json:"cors_allow_origins"`
	Cache            CacheConfig      `json:"cache"`
	Oracle           OracleConfig     `json:"oracle"`
	RateLimit        RateLimitConfig  `json:"rate_limit"`
	SweepCron        string           `json:"sweep_cron"`
}

type CacheConfig struct {
	FastSize   int         `json:"fast_size"`
	TTLSeconds int         `json:"ttl_seconds"`
	Store      StoreConfig `json:"store"`
}

type StoreConfig struct {
	Type     string         `json:"type"`
	Redis    RedisConfig    `json:"redis"`
	Postgres PostgresConfig `json:"postgres"`
}

type RedisConfig struct {
	Addr     string `json:"addr"`
	Password string `json:"password"`
	DB       int    `json:"db"`
}

type PostgresConfig struct {
	DSN string `json:"dsn"`
}

type OracleConfig struct {
	Provider  string      `json:"provider"`
	Dimension int         `json:"dimension"`
	Data      interface{} `json:"data"`
}

type RateLimitConfig struct {
	WindowMS int `json:"window_ms"`
}

func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.Port == 0 {
		return nil, fmt.Errorf("port is required")
	}
	if cfg.LogConfig.Level == "" {
		cfg.LogConfig.Level = "info"
	}
	if cfg.Cache.FastSize == 0 {
		cfg.Cache.FastSize = 1000
	}
	if cfg.Cache.TTLSeconds == 0 {
		cfg.Cache.TTLSeconds = 3600
	}
	if cfg.Cache.Store.Type == "" {
		cfg.Cache.Store.Type = "none"
	}
	switch cfg.Cache.Store.Type {
	case "none":
	case "redis":
		if cfg.Cache.Store.Redis.Addr == "" {
			return nil, fmt.Errorf("cache.store.redis.addr is required for redis store")
		}
	case "postgres":
		if cfg.Cache.Store.Postgres.DSN == "" {
			return nil, fmt.Errorf("cache.store.postgres.dsn is required for postgres store")
		}
	default:
		return nil, fmt.Errorf("cache.store.type must be none, redis or postgres")
	}
	if cfg.Oracle.Provider == "" {
		return nil, fmt.Errorf("oracle.provider is required")
	}
	if cfg.Oracle.Dimension == 0 {
		cfg.Oracle.Dimension = 512
	}
	if cfg.SweepCron == "" {
		cfg.SweepCron = "*/10 * * * *"
	}
	return &cfg, nil
}
