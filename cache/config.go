package cache

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// Backend kinds accepted by Config.Backend.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Config selects and tunes the backend a container wires behind the
// dispatcher. It is plain data so it can come from code, a file, or the
// environment.
type Config struct {
	// Backend picks the store: "memory" (in-process, sturdyc-backed) or
	// "redis".
	Backend string `mapstructure:"backend"`

	// Namespace prefixes every key the backend touches. Required for redis
	// so Clear can be scoped to this cache's own entries.
	Namespace string `mapstructure:"namespace"`

	// DefaultTTL applies to policies registered without an explicit TTL.
	DefaultTTL time.Duration `mapstructure:"default_ttl"`

	Memory MemoryConfig `mapstructure:"memory"`
	Redis  RedisConfig  `mapstructure:"redis"`
}

// MemoryConfig tunes the in-process backend.
type MemoryConfig struct {
	// Capacity is the maximum number of entries before eviction kicks in.
	Capacity int `mapstructure:"capacity"`

	// NumShards spreads entries over independent shards for concurrency.
	NumShards int `mapstructure:"num_shards"`

	// EvictionPercentage is how much of a full shard gets evicted at once.
	EvictionPercentage int `mapstructure:"eviction_percentage"`

	// MaxTTL bounds how long any entry can live in process memory,
	// including entries written with Forever.
	MaxTTL time.Duration `mapstructure:"max_ttl"`
}

// RedisConfig tunes the remote backend.
type RedisConfig struct {
	Addr         string        `mapstructure:"addr"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// DefaultConfig returns a Config for a single-process deployment: memory
// backend, five minute default TTL.
func DefaultConfig() Config {
	return Config{
		Backend:    BackendMemory,
		Namespace:  "cache",
		DefaultTTL: 5 * time.Minute,
		Memory: MemoryConfig{
			Capacity:           10000,
			NumShards:          64,
			EvictionPercentage: 10,
			MaxTTL:             time.Hour,
		},
		Redis: RedisConfig{
			Addr:         "localhost:6379",
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
	}
}

// Validate checks whether the configuration values are usable.
func (c Config) Validate() error {
	if err := validation.ValidateStruct(&c,
		validation.Field(&c.Backend, validation.Required, validation.In(BackendMemory, BackendRedis)),
		validation.Field(&c.Namespace, validation.Required),
		validation.Field(&c.DefaultTTL, validation.Required, validation.Min(time.Duration(1))),
	); err != nil {
		return err
	}

	switch c.Backend {
	case BackendMemory:
		return validation.ValidateStruct(&c.Memory,
			validation.Field(&c.Memory.Capacity, validation.Required, validation.Min(1)),
			validation.Field(&c.Memory.NumShards, validation.Required, validation.Min(1)),
			validation.Field(&c.Memory.EvictionPercentage, validation.Min(1), validation.Max(100)),
			validation.Field(&c.Memory.MaxTTL, validation.Required, validation.Min(time.Duration(1))),
		)
	case BackendRedis:
		return validation.ValidateStruct(&c.Redis,
			validation.Field(&c.Redis.Addr, validation.Required),
			validation.Field(&c.Redis.PoolSize, validation.Min(0)),
		)
	}
	return nil
}

// LoadConfig reads a Config from the given file, layering values over
// DefaultConfig. Environment variables prefixed with METHODCACHE_ override
// file values (METHODCACHE_REDIS_ADDR, METHODCACHE_BACKEND, ...).
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("METHODCACHE")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return Config{}, errors.Wrapf(err, "reading config %s", path)
	}
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, errors.Wrapf(err, "parsing config %s", path)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
