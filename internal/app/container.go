package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"skill-radar/internal/config"
	"skill-radar/internal/database"
	"skill-radar/internal/database/migration"
	dbpostgres "skill-radar/internal/database/postgres"
	"skill-radar/internal/domain/insight"
	"skill-radar/internal/domain/matching"
	"skill-radar/internal/domain/subject"
	"skill-radar/internal/domain/syncrun"
	"skill-radar/internal/infrastructure/ai/gemini"
	"skill-radar/internal/infrastructure/cache"
	"skill-radar/internal/infrastructure/codehost"
	"skill-radar/internal/infrastructure/judge"
	"skill-radar/internal/infrastructure/persistence/memory"
	"skill-radar/internal/infrastructure/persistence/postgres"
	"skill-radar/internal/infrastructure/selfreport"
	"skill-radar/internal/pipeline"
	"skill-radar/internal/pkg/jwt"
	"skill-radar/internal/pkg/metrics"
	"skill-radar/internal/pkg/secret"
	"skill-radar/internal/scheduler"
	"skill-radar/internal/usecase"
	"skill-radar/internal/ws"
	"skill-radar/migrations"

	"go.uber.org/zap"
)

// subjectStore is what the container needs from a subject repository.
type subjectStore interface {
	subject.Repository
	subject.Counter
}

// Container owns every long-lived dependency of the service.
type Container struct {
	Config config.Config
	Logger *zap.Logger

	DB       database.DB
	Redis    *cache.Redis
	Subjects subjectStore
	Runs     syncrun.Store

	CodeHost *codehost.Client
	Metrics  *metrics.Manager
	Hub      *ws.Hub
	JWT      jwt.Service

	Pipeline  *pipeline.SyncPipeline
	Scheduler *scheduler.Scheduler

	SubjectUsecase usecase.SubjectUsecase
	StatusUsecase  usecase.PipelineStatusUsecase
}

func NewContainer(ctx context.Context, cfg config.Config, log *zap.Logger) (*Container, error) {
	if log == nil {
		log = zap.NewNop()
	}
	c := &Container{Config: cfg, Logger: log}

	if err := c.initStorage(ctx); err != nil {
		_ = c.Close()
		return nil, err
	}

	c.Redis = cache.NewRedis(ctx, cfg.Redis, log.Named("redis"))
	c.Metrics = metrics.NewManager()
	c.Hub = ws.NewHub(log.Named("ws"))

	catalog, err := matching.LoadCatalog(cfg.Catalog.Path)
	if err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	generator, err := newGenerator(ctx, cfg.Insight, log)
	if err != nil {
		_ = c.Close()
		return nil, err
	}

	c.CodeHost = codehost.New(codehost.Options{
		BaseURL: cfg.CodeHost.BaseURL,
		PerPage: cfg.CodeHost.PerPage,
		Timeout: cfg.CodeHost.Timeout,
		Logger:  log.Named("codehost"),
	})

	c.Pipeline = pipeline.NewSyncPipeline(pipeline.Config{
		PacingDelay:    cfg.Sync.PacingDelay,
		SubjectTimeout: cfg.Sync.SubjectTimeout,
		BatchWorkers:   cfg.Sync.BatchWorkers,
		DefaultRole:    cfg.Sync.DefaultRole,
	}, pipeline.Deps{
		Subjects: c.Subjects,
		Sources: pipeline.Sources{
			CodeHost: c.CodeHost,
			Judge: judge.New(judge.Options{
				BaseURL: cfg.Judge.BaseURL,
				Timeout: cfg.Judge.Timeout,
				Logger:  log.Named("judge"),
			}),
			SelfReport: selfreport.New(),
		},
		Generator: generator,
		Catalog:   catalog,
		Locker:    cache.NewSubjectLocker(c.Redis, cfg.Redis.LockTTL),
		Matches:   cache.NewMatchCache(c.Redis, cfg.Redis.MatchTTL),
		Notifier:  ws.NewNotifier(c.Hub),
		Recorder:  c.Metrics,
		Runs:      c.Runs,
		Logger:    log.Named("pipeline"),
	})

	var tokens usecase.TokenIssuer
	if strings.TrimSpace(cfg.JWT.Secret) != "" {
		svc := jwt.NewHMACService(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.TokenTTL)
		c.JWT = svc
		tokens = svc
	} else {
		log.Warn("jwt secret not configured, API authentication disabled")
	}

	c.SubjectUsecase = usecase.NewSubjectUsecase(c.Subjects, c.Pipeline, c.CodeHost, tokens, log.Named("usecase"))
	c.StatusUsecase = usecase.NewPipelineStatusUsecase(c.Subjects, c.Runs, usecase.PipelineSettings{
		PacingDelay:       cfg.Sync.PacingDelay,
		BatchWorkers:      cfg.Sync.BatchWorkers,
		SchedulerEnabled:  cfg.Scheduler.Enabled,
		SchedulerInterval: cfg.Scheduler.Interval,
		InsightProvider:   cfg.Insight.Provider,
	}, log.Named("status"))

	interval := time.Duration(0)
	if cfg.Scheduler.Enabled {
		interval = cfg.Scheduler.Interval
	}
	c.Scheduler = scheduler.New(c.Pipeline, interval, log.Named("scheduler"))

	return c, nil
}

// initStorage connects Postgres when configured and falls back to in-memory stores.
func (c *Container) initStorage(ctx context.Context) error {
	cfg := c.Config
	if !cfg.Database.Enabled() {
		c.Logger.Warn("database not configured, subjects are kept in memory")
		c.Subjects = memory.NewSubjectRepository()
		c.Runs = memory.NewSyncRunRepository()
		return nil
	}

	var sealer *secret.Sealer
	if strings.TrimSpace(cfg.Secrets.TokenKey) != "" {
		s, err := secret.NewSealer(cfg.Secrets.TokenKey)
		if err != nil {
			return fmt.Errorf("init token sealer: %w", err)
		}
		sealer = s
	} else {
		c.Logger.Warn("secrets.token_key not set, code-host tokens are stored unencrypted")
	}

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	db, err := dbpostgres.Connect(connectCtx, cfg.Database)
	if err != nil {
		return err
	}
	c.DB = db

	if cfg.Database.MigrateOnStart {
		if err := c.Migrate(ctx); err != nil {
			return err
		}
	}

	c.Subjects = postgres.NewSubjectRepository(db, sealer)
	c.Runs = postgres.NewSyncRunRepository(db)
	return nil
}

// Migrate applies pending schema migrations.
func (c *Container) Migrate(ctx context.Context) error {
	if c.DB == nil {
		return errors.New("database not configured")
	}
	applied, err := migration.Runner{FS: migrations.FS}.Run(ctx, c.DB.SQLDB())
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	for _, m := range applied {
		c.Logger.Info("migration applied", zap.Int64("version", m.Version), zap.String("name", m.Name))
	}
	return nil
}

func newGenerator(ctx context.Context, cfg config.InsightConfig, log *zap.Logger) (insight.Generator, error) {
	base := insight.NewHeuristic()
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", "heuristic":
		return base, nil
	case "gemini":
		n, err := gemini.NewNarrator(ctx, base, gemini.Options{
			APIKey:  cfg.APIKey,
			Model:   cfg.Model,
			Timeout: cfg.Timeout,
			Logger:  log.Named("gemini"),
		})
		if err != nil {
			return nil, fmt.Errorf("init gemini narrator: %w", err)
		}
		return n, nil
	default:
		return nil, fmt.Errorf("unknown insight provider %q", cfg.Provider)
	}
}

func (c *Container) Close() error {
	if c == nil {
		return nil
	}
	var errs []error
	if c.Scheduler != nil {
		c.Scheduler.Stop()
	}
	if c.Redis != nil {
		errs = append(errs, c.Redis.Close())
	}
	if c.DB != nil {
		errs = append(errs, c.DB.Close())
	}
	return errors.Join(errs...)
}
