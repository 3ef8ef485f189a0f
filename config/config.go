// Package config lê a configuração do gateway uma única vez no startup.
//
// As chaves são variáveis de ambiente (BACKEND_URL, REQUEST_TIMEOUT,
// MAX_CONCURRENT_REQUESTS, ...). CONFIG_FILE aponta opcionalmente para um YAML
// com as mesmas chaves; o ambiente sempre tem precedência.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	ListenAddr      string
	BackendURL      string
	RequestTimeout  time.Duration
	MaxConcurrent   int
	PoolMaxConns    int
	PoolMaxIdle     int
	MaxBodyBytes    int64
	LogLevel        string
	ShutdownTimeout time.Duration

	Rate  RateConfig
	Stats StatsConfig
}

type RateConfig struct {
	Enabled    bool
	RPS        float64
	Burst      int
	KeyHeader  string
	TrustXFF   bool
	RetryAfter time.Duration
	AddHeaders bool
}

type StatsConfig struct {
	Enabled       bool
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	Prefix        string
	TTL           time.Duration
	Bucket        string
	TrackKeys     bool
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("LISTEN_ADDR", ":8081")
	v.SetDefault("BACKEND_URL", "http://localhost:8080")
	v.SetDefault("REQUEST_TIMEOUT", 60.0)
	v.SetDefault("MAX_CONCURRENT_REQUESTS", 5)
	v.SetDefault("POOL_MAX_CONNS", 100)
	v.SetDefault("POOL_MAX_IDLE_CONNS", 20)
	v.SetDefault("MAX_BODY_BYTES", 1<<20)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("SHUTDOWN_TIMEOUT", 10*time.Second)

	v.SetDefault("RATE_ENABLED", false)
	v.SetDefault("RATE_RPS", 10.0)
	v.SetDefault("RATE_KEY_HEADER", "")
	v.SetDefault("TRUST_XFF", false)
	v.SetDefault("RETRY_AFTER", time.Second)
	v.SetDefault("ADD_RATELIMIT_HEADERS", false)

	v.SetDefault("OUTCOME_STATS_ENABLED", false)
	v.SetDefault("OUTCOME_STATS_REDIS_ADDR", "")
	v.SetDefault("OUTCOME_STATS_REDIS_PASSWORD", "")
	v.SetDefault("OUTCOME_STATS_REDIS_DB", 0)
	v.SetDefault("OUTCOME_STATS_PREFIX", "gateway:outcomes")
	v.SetDefault("OUTCOME_STATS_TTL", 24*time.Hour)
	v.SetDefault("OUTCOME_STATS_BUCKET", "minute")
	v.SetDefault("OUTCOME_STATS_TRACK_KEYS", false)
}

// Load lê ambiente (e CONFIG_FILE, se definido) e valida o resultado.
func Load() (Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	if file := strings.TrimSpace(v.GetString("CONFIG_FILE")); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file %s: %w", file, err)
		}
	}
	return FromViper(v)
}

// FromViper monta a Config a partir de uma instância já preparada.
func FromViper(v *viper.Viper) (Config, error) {
	setDefaults(v)

	// REQUEST_TIMEOUT é em segundos (aceita fração, ex: "0.5")
	timeoutSecs := v.GetFloat64("REQUEST_TIMEOUT")

	cfg := Config{
		ListenAddr:      v.GetString("LISTEN_ADDR"),
		BackendURL:      strings.TrimSpace(v.GetString("BACKEND_URL")),
		RequestTimeout:  time.Duration(timeoutSecs * float64(time.Second)),
		MaxConcurrent:   v.GetInt("MAX_CONCURRENT_REQUESTS"),
		PoolMaxConns:    v.GetInt("POOL_MAX_CONNS"),
		PoolMaxIdle:     v.GetInt("POOL_MAX_IDLE_CONNS"),
		MaxBodyBytes:    v.GetInt64("MAX_BODY_BYTES"),
		LogLevel:        strings.ToLower(strings.TrimSpace(v.GetString("LOG_LEVEL"))),
		ShutdownTimeout: v.GetDuration("SHUTDOWN_TIMEOUT"),
		Rate: RateConfig{
			Enabled:    v.GetBool("RATE_ENABLED"),
			RPS:        v.GetFloat64("RATE_RPS"),
			Burst:      rateBurst(v),
			KeyHeader:  strings.TrimSpace(v.GetString("RATE_KEY_HEADER")),
			TrustXFF:   v.GetBool("TRUST_XFF"),
			RetryAfter: v.GetDuration("RETRY_AFTER"),
			AddHeaders: v.GetBool("ADD_RATELIMIT_HEADERS"),
		},
		Stats: StatsConfig{
			Enabled:       v.GetBool("OUTCOME_STATS_ENABLED"),
			RedisAddr:     strings.TrimSpace(v.GetString("OUTCOME_STATS_REDIS_ADDR")),
			RedisPassword: v.GetString("OUTCOME_STATS_REDIS_PASSWORD"),
			RedisDB:       v.GetInt("OUTCOME_STATS_REDIS_DB"),
			Prefix:        v.GetString("OUTCOME_STATS_PREFIX"),
			TTL:           v.GetDuration("OUTCOME_STATS_TTL"),
			Bucket:        v.GetString("OUTCOME_STATS_BUCKET"),
			TrackKeys:     v.GetBool("OUTCOME_STATS_TRACK_KEYS"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// rateBurst: sem RATE_BURST explícito o padrão é 20, mas com RPS < 1 uma
// rajada de 20 esconderia o limite, então cai para 1.
func rateBurst(v *viper.Viper) int {
	if v.IsSet("RATE_BURST") {
		return v.GetInt("RATE_BURST")
	}
	if rps := v.GetFloat64("RATE_RPS"); rps > 0 && rps < 1 {
		return 1
	}
	return 20
}

func (c Config) Validate() error {
	if c.BackendURL == "" {
		return errors.New("BACKEND_URL is required")
	}
	if c.RequestTimeout <= 0 {
		return errors.New("REQUEST_TIMEOUT must be > 0")
	}
	if c.MaxConcurrent < 1 {
		return errors.New("MAX_CONCURRENT_REQUESTS must be >= 1")
	}
	if c.PoolMaxConns < 1 {
		return errors.New("POOL_MAX_CONNS must be >= 1")
	}
	if c.PoolMaxIdle < 0 {
		return errors.New("POOL_MAX_IDLE_CONNS must be >= 0")
	}
	if c.MaxBodyBytes < 1 {
		return errors.New("MAX_BODY_BYTES must be >= 1")
	}
	if c.Rate.Enabled {
		if c.Rate.RPS <= 0 {
			return errors.New("RATE_RPS must be > 0")
		}
		if c.Rate.Burst <= 0 {
			return errors.New("RATE_BURST must be > 0")
		}
	}
	if c.Stats.Enabled && c.Stats.RedisAddr == "" {
		return errors.New("OUTCOME_STATS_REDIS_ADDR is required when OUTCOME_STATS_ENABLED=true")
	}
	return nil
}
