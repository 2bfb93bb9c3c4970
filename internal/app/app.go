package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/hausee/navigator-backend/internal/forms"
	apphttp "github.com/hausee/navigator-backend/internal/http"
	httpH "github.com/hausee/navigator-backend/internal/http/handlers"
	httpMW "github.com/hausee/navigator-backend/internal/http/middleware"
	"github.com/hausee/navigator-backend/internal/modules"
	"github.com/hausee/navigator-backend/internal/modules/catalog"
	"github.com/hausee/navigator-backend/internal/modules/evaluation"
	"github.com/hausee/navigator-backend/internal/observability"
	"github.com/hausee/navigator-backend/internal/platform/logger"
	"github.com/hausee/navigator-backend/internal/services"
)

const serviceName = "hausee-navigator"

type App struct {
	Log      *logger.Logger
	Cfg      Config
	Stores   Stores
	Registry *forms.Registry
	Metrics  *observability.Metrics
	Server   *apphttp.Server

	ctx          context.Context
	cancel       context.CancelFunc
	otelShutdown func(context.Context) error
}

func New() (*App, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	a := &App{Log: log, Cfg: cfg, ctx: ctx, cancel: cancel}
	a.otelShutdown = observability.InitOTel(ctx, log, observability.OtelConfigFromEnv(serviceName, cfg.LogMode, cfg.Version))
	a.Metrics = observability.Init(log)

	cat, err := catalog.Load(log)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("load form catalog: %w", err)
	}

	a.Stores, err = wireStores(log, cfg, modules.Tables(cat))
	if err != nil {
		a.Close()
		return nil, err
	}

	deps := forms.Deps{
		Store:   forms.NewDualStore(a.Stores.Local, a.Stores.Remote, log),
		Log:     log,
		Context: ctx,
	}
	if a.Metrics != nil {
		deps.Observer = a.Metrics
	}
	a.Registry = forms.NewRegistry(deps)
	if err := modules.RegisterAll(a.Registry, cat); err != nil {
		a.Close()
		return nil, fmt.Errorf("register form modules: %w", err)
	}

	homeService := services.NewHomeService(a.Stores.Postgres, log, a.Registry)
	a.Registry.CheckSubjects(evaluation.ModuleID, homeService.EvaluationSubject)

	verifier, err := services.NewTokenVerifier(log, cfg.Auth)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("init token verifier: %w", err)
	}

	log.Info("Wiring handlers...")
	routerMetrics := a.Metrics
	if cfg.MetricsAddr != "" {
		routerMetrics = nil
	}
	a.Server = apphttp.NewServer(apphttp.RouterConfig{
		Log:                 log,
		ServiceName:         serviceName,
		CORSOrigins:         cfg.CORSOrigins,
		Metrics:             routerMetrics,
		AuthMiddleware:      httpMW.NewAuthMiddleware(log, verifier),
		FormHandler:         httpH.NewFormHandler(services.NewFormService(log, a.Registry)),
		AgentRequestHandler: httpH.NewAgentRequestHandler(services.NewAgentRequestService(log, a.Registry)),
		HomeHandler:         httpH.NewHomeHandler(homeService),
		HealthHandler:       httpH.NewHealthHandler(a.checks()),
	})
	return a, nil
}

func (a *App) checks() map[string]httpH.Check {
	return map[string]httpH.Check{
		"postgres": func(ctx context.Context) error {
			sqlDB, err := a.Stores.Postgres.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}
}

// Start launches the background loops: idle session eviction and metric
// collectors.
func (a *App) Start() {
	go a.Registry.Run(a.ctx, a.Cfg.SweepInterval, a.Cfg.SessionIdleTTL)
	if a.Metrics != nil {
		a.Metrics.StartSessionCollector(a.ctx, a.Registry.Len)
		a.Metrics.StartPostgresCollector(a.ctx, a.Log, a.Stores.Postgres)
		if a.Cfg.LocalCacheMode == CacheModeRedis {
			a.Metrics.StartRedisCollector(a.ctx, a.Log, a.Cfg.RedisAddr)
		}
		a.Metrics.StartServer(a.ctx, a.Log, a.Cfg.MetricsAddr)
	}
}

// Run serves HTTP until ctx is cancelled, then drains in-flight requests
// and flushes every open form.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	a.Start()

	errCh := make(chan error, 1)
	go func() {
		a.Log.Info("Server listening", "port", a.Cfg.Port)
		errCh <- a.Server.Run(":" + a.Cfg.Port)
	}()

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Cfg.ShutdownTimeout)
	defer cancel()
	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		a.Log.Warn("http shutdown", "error", err)
	}
	if err := a.Registry.Close(shutdownCtx); err != nil {
		a.Log.Error("final form flush failed", "error", err)
		runErr = errors.Join(runErr, err)
	}
	a.Close()
	return runErr
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	a.Stores.Close()
	if a.otelShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), a.Cfg.ShutdownTimeout)
		_ = a.otelShutdown(ctx)
		cancel()
		a.otelShutdown = nil
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
