package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the full runtime configuration.
type Config struct {
	GitHub GitHubConfig `mapstructure:"github"`
	Cache  CacheConfig  `mapstructure:"cache"`
	Log    LogConfig    `mapstructure:"log"`
}

// GitHubConfig configures the upstream client.
type GitHubConfig struct {
	BaseURL   string        `mapstructure:"base_url"`
	Token     string        `mapstructure:"token"`
	UserAgent string        `mapstructure:"user_agent"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// CacheConfig selects the session store backend and the cache policy.
type CacheConfig struct {
	// Backend is one of "memory", "lru" or "redis".
	Backend    string        `mapstructure:"backend"`
	Duration   time.Duration `mapstructure:"duration"`
	SessionTTL time.Duration `mapstructure:"session_ttl"`
	LRUSize    int           `mapstructure:"lru_size"`
	Redis      RedisConfig   `mapstructure:"redis"`
}

// RedisConfig is used when Backend is "redis".
type RedisConfig struct {
	Addr      string `mapstructure:"addr"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	UseTLS    bool   `mapstructure:"use_tls"`
	SessionID string `mapstructure:"session_id"`
}

// LogConfig configures logrus.
type LogConfig struct {
	Level string `mapstructure:"level"`
	Dir   string `mapstructure:"dir"`
}

// Load reads configuration from configPath (optional), REPOLOOKUP_* environment
// variables and GITHUB_TOKEN, in increasing order of precedence.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("REPOLOOKUP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("github.token", "REPOLOOKUP_GITHUB_TOKEN", "GITHUB_TOKEN"); err != nil {
		return nil, fmt.Errorf("failed to bind token env: %w", err)
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the rest of the module cannot work with.
func (c *Config) Validate() error {
	switch c.Cache.Backend {
	case "memory", "lru", "redis":
	default:
		return fmt.Errorf("unknown cache backend %q", c.Cache.Backend)
	}
	if c.Cache.Duration <= 0 {
		return fmt.Errorf("cache duration must be positive, got %s", c.Cache.Duration)
	}
	if c.Cache.Backend == "lru" && c.Cache.LRUSize <= 0 {
		return fmt.Errorf("lru size must be positive, got %d", c.Cache.LRUSize)
	}
	if c.Cache.Backend == "redis" && c.Cache.Redis.Addr == "" {
		return fmt.Errorf("redis backend requires cache.redis.addr")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("github.base_url", "https://api.github.com/")
	v.SetDefault("github.user_agent", "repolookup")
	v.SetDefault("github.timeout", 10*time.Second)

	v.SetDefault("cache.backend", "memory")
	v.SetDefault("cache.duration", 5*time.Minute)
	v.SetDefault("cache.session_ttl", 12*time.Hour)
	v.SetDefault("cache.lru_size", 1024)
	v.SetDefault("cache.redis.addr", "localhost:6379")
	v.SetDefault("cache.redis.password", "")
	v.SetDefault("cache.redis.db", 0)
	v.SetDefault("cache.redis.use_tls", false)
	v.SetDefault("cache.redis.session_id", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.dir", "")
}
