// Package config holds the service configuration. Values are layered by Load:
// defaults from New, an optional YAML file, then SKILLRADAR_* environment variables.
package config

import (
	"time"
)

type Config struct {
	App       AppConfig       `koanf:"app"`
	Database  DatabaseConfig  `koanf:"database"`
	Redis     RedisConfig     `koanf:"redis"`
	JWT       JWTConfig       `koanf:"jwt"`
	CodeHost  CodeHostConfig  `koanf:"codehost"`
	Judge     JudgeConfig     `koanf:"judge"`
	Sync      SyncConfig      `koanf:"sync"`
	Scheduler SchedulerConfig `koanf:"scheduler"`
	Insight   InsightConfig   `koanf:"insight"`
	Secrets   SecretsConfig   `koanf:"secrets"`
	Catalog   CatalogConfig   `koanf:"catalog"`
}

type AppConfig struct {
	Name        string `koanf:"name"`
	Environment string `koanf:"env"`
	HTTPPort    string `koanf:"http_port"`
	LogLevel    string `koanf:"log_level"`
	LogJSON     bool   `koanf:"log_json"`
}

// DatabaseConfig is optional. With an empty Host the service keeps subjects in memory.
type DatabaseConfig struct {
	Host     string `koanf:"host"`
	Port     string `koanf:"port"`
	Name     string `koanf:"name"`
	User     string `koanf:"user"`
	Password string `koanf:"password"`
	SSLMode  string `koanf:"ssl_mode"`

	ConnectTimeout        time.Duration `koanf:"connect_timeout"`
	PoolMaxConns          int32         `koanf:"pool_max_conns"`
	PoolMinConns          int32         `koanf:"pool_min_conns"`
	PoolMaxConnLifetime   time.Duration `koanf:"pool_max_conn_lifetime"`
	PoolMaxConnIdleTime   time.Duration `koanf:"pool_max_conn_idle_time"`
	PoolHealthCheckPeriod time.Duration `koanf:"pool_health_check_period"`

	MigrateOnStart bool `koanf:"migrate_on_start"`
}

func (c DatabaseConfig) Enabled() bool {
	return c.Host != ""
}

type RedisConfig struct {
	Addr     string        `koanf:"addr"`
	Password string        `koanf:"password"`
	DB       int           `koanf:"db"`
	LockTTL  time.Duration `koanf:"lock_ttl"`
	MatchTTL time.Duration `koanf:"match_ttl"`
}

type JWTConfig struct {
	Secret   string        `koanf:"secret"`
	Issuer   string        `koanf:"issuer"`
	TokenTTL time.Duration `koanf:"token_ttl"`
}

type CodeHostConfig struct {
	BaseURL string        `koanf:"base_url"`
	Timeout time.Duration `koanf:"timeout"`
	PerPage int           `koanf:"per_page"`
}

type JudgeConfig struct {
	BaseURL string        `koanf:"base_url"`
	Timeout time.Duration `koanf:"timeout"`
}

type SyncConfig struct {
	PacingDelay    time.Duration `koanf:"pacing_delay"`
	SubjectTimeout time.Duration `koanf:"subject_timeout"`
	BatchWorkers   int           `koanf:"batch_workers"`
	DefaultRole    string        `koanf:"default_role"`
}

type SchedulerConfig struct {
	Enabled  bool          `koanf:"enabled"`
	Interval time.Duration `koanf:"interval"`
}

// InsightConfig selects the narrator. Provider "heuristic" needs nothing else; "gemini"
// needs APIKey.
type InsightConfig struct {
	Provider string        `koanf:"provider"`
	APIKey   string        `koanf:"api_key"`
	Model    string        `koanf:"model"`
	Timeout  time.Duration `koanf:"timeout"`
}

type SecretsConfig struct {
	TokenKey string `koanf:"token_key"`
}

// CatalogConfig points at a YAML catalog of target profiles. Empty uses the embedded one.
type CatalogConfig struct {
	Path string `koanf:"path"`
}

func New() *Config {
	return &Config{
		App: AppConfig{
			Name:        "skill-radar",
			Environment: "development",
			HTTPPort:    "8080",
			LogLevel:    "info",
		},
		Database: DatabaseConfig{
			Port:                  "5432",
			SSLMode:               "disable",
			ConnectTimeout:        5 * time.Second,
			PoolMaxConns:          10,
			PoolMaxConnLifetime:   time.Hour,
			PoolMaxConnIdleTime:   30 * time.Minute,
			PoolHealthCheckPeriod: time.Minute,
		},
		Redis: RedisConfig{
			LockTTL:  10 * time.Minute,
			MatchTTL: 15 * time.Minute,
		},
		JWT: JWTConfig{
			Issuer:   "skill-radar",
			TokenTTL: 24 * time.Hour,
		},
		CodeHost: CodeHostConfig{
			BaseURL: "https://api.github.com",
			Timeout: 15 * time.Second,
			PerPage: 100,
		},
		Judge: JudgeConfig{
			BaseURL: "https://alfa-leetcode-api.onrender.com/userProfile",
			Timeout: 15 * time.Second,
		},
		Sync: SyncConfig{
			PacingDelay:    500 * time.Millisecond,
			SubjectTimeout: 5 * time.Minute,
			BatchWorkers:   1,
			DefaultRole:    "Software Engineer",
		},
		Scheduler: SchedulerConfig{
			Interval: 24 * time.Hour,
		},
		Insight: InsightConfig{
			Provider: "heuristic",
			Model:    "gemini-2.5-flash",
			Timeout:  30 * time.Second,
		},
	}
}
