package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	envPrefix  = "SKILLRADAR_"
	envFileVar = "SKILLRADAR_CONFIG"
)

// Load layers, low to high precedence:
//  1. defaults (New)
//  2. YAML file named by SKILLRADAR_CONFIG
//  3. env vars with the SKILLRADAR_ prefix; "__" separates sections,
//     so SKILLRADAR_SYNC__PACING_DELAY sets sync.pacing_delay.
func Load() (*Config, error) {
	k := koanf.New(".")

	if path := strings.TrimSpace(os.Getenv(envFileVar)); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: file %s: %w", ErrLoadConfig, path, err)
		}
	}

	envProvider := env.Provider(envPrefix, ".", envKey)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}

	cfg := *New()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func envKey(s string) string {
	if s == envFileVar {
		return ""
	}
	s = strings.TrimPrefix(s, envPrefix)
	s = strings.ToLower(s)
	return strings.ReplaceAll(s, "__", ".")
}

func (c Config) Validate() error {
	var problems []string
	if strings.TrimSpace(c.App.HTTPPort) == "" {
		problems = append(problems, "app.http_port must not be empty")
	}
	if c.Sync.PacingDelay < 0 {
		problems = append(problems, "sync.pacing_delay must not be negative")
	}
	if strings.TrimSpace(c.Redis.Addr) != "" {
		// The redis subject lock must outlive the longest run it guards.
		switch {
		case c.Sync.SubjectTimeout <= 0:
			problems = append(problems, "sync.subject_timeout must be positive when redis locks are used")
		case c.Redis.LockTTL <= c.Sync.SubjectTimeout:
			problems = append(problems, "redis.lock_ttl must be longer than sync.subject_timeout")
		}
	}
	if c.Sync.BatchWorkers < 1 {
		problems = append(problems, "sync.batch_workers must be at least 1")
	}
	if c.CodeHost.PerPage < 1 || c.CodeHost.PerPage > 100 {
		problems = append(problems, "codehost.per_page must be within 1..100")
	}
	if c.Scheduler.Enabled && c.Scheduler.Interval <= 0 {
		problems = append(problems, "scheduler.interval must be positive when enabled")
	}
	switch c.Insight.Provider {
	case "", "heuristic":
	case "gemini":
		if strings.TrimSpace(c.Insight.APIKey) == "" {
			problems = append(problems, "insight.api_key is required for the gemini provider")
		}
	default:
		problems = append(problems, fmt.Sprintf("insight.provider %q is not supported", c.Insight.Provider))
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}
