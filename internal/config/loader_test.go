package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"skill-radar/internal/config"

	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		convey.Convey("When loading with defaults only", func() {
			clearConfigEnvVars()

			cfg, err := config.Load()

			convey.Convey("Then defaults are used", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.App.HTTPPort, convey.ShouldEqual, "8080")
				convey.So(cfg.Sync.PacingDelay, convey.ShouldEqual, 500*time.Millisecond)
				convey.So(cfg.Sync.BatchWorkers, convey.ShouldEqual, 1)
				convey.So(cfg.Sync.DefaultRole, convey.ShouldEqual, "Software Engineer")
				convey.So(cfg.CodeHost.PerPage, convey.ShouldEqual, 100)
				convey.So(cfg.Database.Enabled(), convey.ShouldBeFalse)
			})
		})

		convey.Convey("When loading with environment variables", func() {
			clearConfigEnvVars()
			_ = os.Setenv("SKILLRADAR_SYNC__PACING_DELAY", "750ms")
			_ = os.Setenv("SKILLRADAR_SYNC__BATCH_WORKERS", "4")
			_ = os.Setenv("SKILLRADAR_APP__HTTP_PORT", "9000")
			_ = os.Setenv("SKILLRADAR_DATABASE__HOST", "db")
			defer clearConfigEnvVars()

			cfg, err := config.Load()

			convey.Convey("Then env overrides defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Sync.PacingDelay, convey.ShouldEqual, 750*time.Millisecond)
				convey.So(cfg.Sync.BatchWorkers, convey.ShouldEqual, 4)
				convey.So(cfg.App.HTTPPort, convey.ShouldEqual, "9000")
				convey.So(cfg.Database.Enabled(), convey.ShouldBeTrue)
				convey.So(cfg.Database.Port, convey.ShouldEqual, "5432")
			})
		})

		convey.Convey("When loading with a YAML file and env on top", func() {
			clearConfigEnvVars()
			path := writeTempConfig(t, `
sync:
  pacing_delay: 2s
  default_role: Backend Engineer
judge:
  base_url: http://judge.local/profile
`)
			_ = os.Setenv("SKILLRADAR_CONFIG", path)
			_ = os.Setenv("SKILLRADAR_SYNC__PACING_DELAY", "1s")
			defer clearConfigEnvVars()

			cfg, err := config.Load()

			convey.Convey("Then the file applies and env wins", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Sync.PacingDelay, convey.ShouldEqual, time.Second)
				convey.So(cfg.Sync.DefaultRole, convey.ShouldEqual, "Backend Engineer")
				convey.So(cfg.Judge.BaseURL, convey.ShouldEqual, "http://judge.local/profile")
				convey.So(cfg.Judge.Timeout, convey.ShouldEqual, 15*time.Second)
			})
		})

		convey.Convey("When the file does not exist", func() {
			clearConfigEnvVars()
			_ = os.Setenv("SKILLRADAR_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))
			defer clearConfigEnvVars()

			_, err := config.Load()

			convey.Convey("Then a load error is returned", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When pacing is explicitly disabled", func() {
			clearConfigEnvVars()
			_ = os.Setenv("SKILLRADAR_SYNC__PACING_DELAY", "0s")
			defer clearConfigEnvVars()

			cfg, err := config.Load()

			convey.Convey("Then zero is kept", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Sync.PacingDelay, convey.ShouldEqual, time.Duration(0))
			})
		})

		convey.Convey("When the redis lock could expire mid-run", func() {
			clearConfigEnvVars()
			_ = os.Setenv("SKILLRADAR_REDIS__ADDR", "localhost:6379")
			_ = os.Setenv("SKILLRADAR_REDIS__LOCK_TTL", "1m")
			_ = os.Setenv("SKILLRADAR_SYNC__SUBJECT_TIMEOUT", "5m")
			defer clearConfigEnvVars()

			_, err := config.Load()

			convey.Convey("Then validation fails", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "redis.lock_ttl")
			})
		})

		convey.Convey("When runs are unbounded with redis locks", func() {
			clearConfigEnvVars()
			_ = os.Setenv("SKILLRADAR_REDIS__ADDR", "localhost:6379")
			_ = os.Setenv("SKILLRADAR_SYNC__SUBJECT_TIMEOUT", "0s")
			defer clearConfigEnvVars()

			_, err := config.Load()

			convey.Convey("Then validation fails", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "sync.subject_timeout")
			})
		})

		convey.Convey("When redis is configured with the default timings", func() {
			clearConfigEnvVars()
			_ = os.Setenv("SKILLRADAR_REDIS__ADDR", "localhost:6379")
			defer clearConfigEnvVars()

			_, err := config.Load()

			convey.Convey("Then the defaults validate", func() {
				convey.So(err, convey.ShouldBeNil)
			})
		})

		convey.Convey("When values are invalid", func() {
			clearConfigEnvVars()
			_ = os.Setenv("SKILLRADAR_SYNC__BATCH_WORKERS", "0")
			_ = os.Setenv("SKILLRADAR_INSIGHT__PROVIDER", "gemini")
			defer clearConfigEnvVars()

			_, err := config.Load()

			convey.Convey("Then validation fails", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "sync.batch_workers")
				convey.So(err.Error(), convey.ShouldContainSubstring, "insight.api_key")
			})
		})
	})
}

func clearConfigEnvVars() {
	for _, k := range []string{
		"SKILLRADAR_CONFIG",
		"SKILLRADAR_SYNC__PACING_DELAY",
		"SKILLRADAR_SYNC__BATCH_WORKERS",
		"SKILLRADAR_APP__HTTP_PORT",
		"SKILLRADAR_DATABASE__HOST",
		"SKILLRADAR_INSIGHT__PROVIDER",
		"SKILLRADAR_REDIS__ADDR",
		"SKILLRADAR_REDIS__LOCK_TTL",
		"SKILLRADAR_SYNC__SUBJECT_TIMEOUT",
	} {
		_ = os.Unsetenv(k)
	}
}

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}
