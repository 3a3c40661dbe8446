package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"TragedyWatch/internal/classifier"
	"TragedyWatch/internal/config"
	"TragedyWatch/internal/domain"
	"TragedyWatch/internal/httpapi"
	"TragedyWatch/internal/infrastructure/cache"
	"TragedyWatch/internal/infrastructure/newsapi"
	"TragedyWatch/internal/infrastructure/parser"
	"TragedyWatch/internal/infrastructure/push"
	"TragedyWatch/internal/infrastructure/scheduler"
	"TragedyWatch/internal/infrastructure/storage"
	"TragedyWatch/internal/logging"
	"TragedyWatch/internal/ports"
	"TragedyWatch/internal/scanner"
	"TragedyWatch/internal/usecase"
)

const (
	shutdownTimeout   = 10 * time.Second
	readHeaderTimeout = 5 * time.Second

	testAlertTitle = "Test Tragedy Article"
	testAlertURL   = "https://example.com/test"
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg    config.Config
	logger *slog.Logger

	store        *storage.SQLRepository
	seen         *cache.RedisSeen
	repository   ports.ArticleRepository
	notifier     ports.Notifier
	pipeline     *usecase.Pipeline
	orchestrator *usecase.Orchestrator
}

// New opens the store and builds every collaborator. Optional integrations
// (Redis, Firebase) degrade with a warning instead of failing startup.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	}

	store, err := storage.Open(ctx, cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	baseLogger.Info("store ready", "driver", store.Driver())

	a := &Application{cfg: cfg, logger: baseLogger, store: store}

	var seenCache ports.SeenCache
	if cfg.Cache.Redis.Addr != "" {
		redisCfg := cfg.Cache.Redis
		redisCfg.Key = cache.ScopedKey(redisCfg.Key, cfg.Database.URL)
		seen, err := cache.New(ctx, redisCfg)
		if err != nil {
			baseLogger.Warn("seen cache unavailable, using store only", "addr", cfg.Cache.Redis.Addr, "error", err)
		} else {
			a.seen = seen
			seenCache = seen
		}
	}
	a.repository = storage.NewCachedRepository(ctx, store, seenCache, baseLogger)

	a.notifier = buildNotifier(ctx, cfg.Notifications.Firebase, baseLogger)

	registry := scanner.NewRegistry()
	registry.Register(newsapi.NewClient(cfg.Providers.NewsAPI))
	registry.Register(parser.NewFeedScanner(nil))
	baseLogger.Debug("scanners registered", "names", registry.Names())
	source := parser.NewFallbackSource(registry, cfg.Sources, baseLogger.With("component", "source"))

	a.pipeline = usecase.NewPipeline(usecase.PipelineDeps{
		Source:     source,
		Classifier: classifier.New(cfg.Classifier.Keywords),
		Repository: a.repository,
		Notifier:   a.notifier,
		Logger:     baseLogger.With("component", "pipeline"),
	})

	schedule, err := scheduler.NewCronSchedule(cfg.Scheduler.CronExpression, cfg.Scheduler.Location())
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.orchestrator = usecase.NewOrchestrator(usecase.OrchestratorDeps{
		Poller:       a.pipeline,
		Counter:      a.repository,
		Schedule:     schedule,
		BackoffDelay: cfg.Scheduler.BackoffDelay,
		RunOnStart:   !cfg.Scheduler.SkipInitialPoll,
		Logger:       baseLogger,
	})

	return a, nil
}

func buildNotifier(ctx context.Context, cfg config.FirebaseConfig, logger *slog.Logger) ports.Notifier {
	notifier, err := push.NewFromCredentialsFile(ctx, cfg.CredentialsPath, cfg.Topic, logger)
	switch {
	case err == nil:
		return notifier
	case errors.Is(err, push.ErrNotifierDisabled):
		logger.Info("push notifications disabled: no firebase credentials configured")
	default:
		logger.Warn("push notifications disabled", "path", cfg.CredentialsPath, "error", err)
	}
	return push.Disabled{}
}

// Serve runs the orchestrator and the Read API until ctx is cancelled or
// either of them fails.
func (a *Application) Serve(ctx context.Context) error {
	if !strings.EqualFold(a.cfg.Logging.Level, "debug") {
		gin.SetMode(gin.ReleaseMode)
	}

	server := &http.Server{
		Addr:              a.cfg.HTTP.Addr,
		Handler:           httpapi.NewRouter(a.repository, a.orchestrator, a.logger),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return a.orchestrator.Run(gctx)
	})

	g.Go(func() error {
		a.logger.Info("http server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		return nil
	})

	return g.Wait()
}

// PollOnce runs a single poll routine synchronously.
func (a *Application) PollOnce(ctx context.Context) (domain.PollReport, error) {
	return a.pipeline.Poll(ctx, domain.TriggerCLI)
}

// Recent lists stored tragedies, newest first, with the total stored count.
func (a *Application) Recent(ctx context.Context, limit int) ([]domain.Article, int, error) {
	articles, err := a.repository.ListRecent(ctx, limit)
	if err != nil {
		return nil, 0, err
	}
	total, err := a.repository.Count(ctx)
	if err != nil {
		return nil, 0, err
	}
	return articles, total, nil
}

// SendTestNotification pushes a fixed alert through the configured notifier.
func (a *Application) SendTestNotification(ctx context.Context) (string, error) {
	return a.notifier.Send(ctx, testAlertTitle, testAlertURL)
}

// Close releases the store and cache connections.
func (a *Application) Close() error {
	var errs []error
	if a.seen != nil {
		errs = append(errs, a.seen.Close())
	}
	if a.store != nil {
		errs = append(errs, a.store.Close())
	}
	return errors.Join(errs...)
}
