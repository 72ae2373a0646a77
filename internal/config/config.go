package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Store drivers.
const (
	DriverMemory   = "memory"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Log struct {
		Env   string `yaml:"env"`
		Level string `yaml:"level"`
	} `yaml:"log"`
	Store struct {
		Driver string `yaml:"driver"`
	} `yaml:"store"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL             string `yaml:"url"`
		MaxConns        int32  `yaml:"max_conns"`
		MaxConnLifetime string `yaml:"max_conn_lifetime"`
	} `yaml:"postgres"`
	Mongo struct {
		URI      string `yaml:"uri"`
		Database string `yaml:"database"`
	} `yaml:"mongo"`
	AMQP struct {
		URL      string `yaml:"url"`
		Exchange string `yaml:"exchange"`
	} `yaml:"amqp"`
	Quiz struct {
		QuestionTime string `yaml:"question_time"`
		Tick         string `yaml:"tick"`
		MaxQuestions int    `yaml:"max_questions"`
		ContentTTL   string `yaml:"content_ttl"`
		BundlePath   string `yaml:"bundle_path"`
	} `yaml:"quiz"`
	Leaderboard struct {
		Timezone string `yaml:"timezone"`
	} `yaml:"leaderboard"`
}

// Load reads YAML config from path.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks that the selected store driver has its connection settings.
func (c Config) Validate() error {
	switch c.StoreDriver() {
	case DriverMemory:
	case DriverRedis:
		if c.Redis.Addr == "" {
			return fmt.Errorf("store driver redis requires redis.addr")
		}
	case DriverPostgres:
		if c.Postgres.URL == "" {
			return fmt.Errorf("store driver postgres requires postgres.url")
		}
	case DriverMongo:
		if c.Mongo.URI == "" {
			return fmt.Errorf("store driver mongo requires mongo.uri")
		}
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
	if c.Quiz.MaxQuestions < 0 {
		return fmt.Errorf("quiz.max_questions must not be negative")
	}
	if _, err := c.LeaderboardLocation(); err != nil {
		return err
	}
	return nil
}

// StoreDriver returns the configured driver, memory when unset.
func (c Config) StoreDriver() string {
	if c.Store.Driver == "" {
		return DriverMemory
	}
	return c.Store.Driver
}

// LeaderboardLocation resolves the timezone that daily and weekly windows roll over in.
func (c Config) LeaderboardLocation() (*time.Location, error) {
	if c.Leaderboard.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Leaderboard.Timezone)
	if err != nil {
		return nil, fmt.Errorf("leaderboard.timezone: %w", err)
	}
	return loc, nil
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
