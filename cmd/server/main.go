package main

import (
	"context"
	"log"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	apiHandler "github.com/fastygo/energy-backoffice/api/handler"
	"github.com/fastygo/energy-backoffice/internal/config"
	"github.com/fastygo/energy-backoffice/internal/infrastructure/journal"
	"github.com/fastygo/energy-backoffice/internal/infrastructure/monitor"
	pgInfra "github.com/fastygo/energy-backoffice/internal/infrastructure/postgres"
	redisInfra "github.com/fastygo/energy-backoffice/internal/infrastructure/redis"
	"github.com/fastygo/energy-backoffice/internal/middleware"
	"github.com/fastygo/energy-backoffice/internal/router"
	"github.com/fastygo/energy-backoffice/internal/services"
	"github.com/fastygo/energy-backoffice/internal/services/lifecycle"
	"github.com/fastygo/energy-backoffice/pkg/httpcontext"
	"github.com/fastygo/energy-backoffice/pkg/logger"
	"github.com/fastygo/energy-backoffice/pkg/metrics"
	"github.com/fastygo/energy-backoffice/repository/postgres"
	redisRepo "github.com/fastygo/energy-backoffice/repository/redis"
	authUC "github.com/fastygo/energy-backoffice/usecase/auth"
	journalUC "github.com/fastygo/energy-backoffice/usecase/journal"
	orgUC "github.com/fastygo/energy-backoffice/usecase/organization"
	periodUC "github.com/fastygo/energy-backoffice/usecase/period"
	profileUC "github.com/fastygo/energy-backoffice/usecase/profile"
	"github.com/fastygo/energy-backoffice/usecase/session"
	"github.com/fastygo/energy-backoffice/usecase/taxonomy"
	userUC "github.com/fastygo/energy-backoffice/usecase/user"
	wizardUC "github.com/fastygo/energy-backoffice/usecase/wizard"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	zapLogger, err := logger.New(logger.Config{
		Level:       cfg.Logger.Level,
		Encoding:    cfg.Logger.Encoding,
		Service:     cfg.AppName,
		Environment: cfg.Environment,
	})
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer zapLogger.Sync()

	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	manager := lifecycle.New(cfg.Context.ShutdownTimeout, zapLogger)

	if cfg.Migrations.Enabled {
		if err := pgInfra.RunMigrations(cfg.Database.URL, cfg.Migrations.Path, zapLogger); err != nil {
			zapLogger.Fatal("migrations failed", zap.Error(err))
		}
	}

	pool, err := pgInfra.NewPool(appCtx, cfg.Database, zapLogger)
	if err != nil {
		zapLogger.Fatal("postgres connection failed", zap.Error(err))
	}
	manager.Register("postgres", func(ctx context.Context) error {
		pool.Close()
		return nil
	})

	redisClient, err := redisInfra.NewClient(appCtx, cfg.Redis)
	if err != nil {
		zapLogger.Fatal("redis connection failed", zap.Error(err))
	}
	manager.Register("redis", func(ctx context.Context) error {
		return redisClient.Close()
	})

	loginLimiter, err := redisInfra.NewRateLimiter(redisClient, cfg.Auth.LoginRate, cfg.Auth.LimiterPrefix+":login")
	if err != nil {
		zapLogger.Fatal("login limiter", zap.Error(err))
	}
	signupLimiter, err := redisInfra.NewRateLimiter(redisClient, cfg.Auth.SignupRate, cfg.Auth.LimiterPrefix+":signup")
	if err != nil {
		zapLogger.Fatal("signup limiter", zap.Error(err))
	}

	journalStore, err := journal.Open(cfg.Journal.Path, cfg.Journal.Bucket)
	if err != nil {
		zapLogger.Fatal("failed to open journal store", zap.Error(err))
	}
	manager.Register("journal_store", func(ctx context.Context) error {
		return journalStore.Close()
	})

	mon := monitor.New(map[string]monitor.Probe{
		"postgresql": monitor.PostgresProbe(pool),
		"redis":      monitor.RedisProbe(redisClient),
	}, journalStore, cfg.Scheduler.MonitorInterval, zapLogger)
	mon.Start()
	manager.Register("monitor", func(ctx context.Context) error {
		mon.Stop()
		return nil
	})

	var appMetrics *metrics.Metrics
	if cfg.HTTP.EnableMetrics {
		appMetrics = metrics.New()
	}

	credentialRepo := postgres.NewCredentialRepository(pool)
	profileRepo := postgres.NewProfileRepository(pool)
	userRepo := postgres.NewUserRepository(pool)
	orgRepo := postgres.NewOrganizationRepository(pool)
	periodRepo := postgres.NewPeriodRepository(pool)
	taxonomyRepo := postgres.NewTaxonomyRepository(pool)
	indicatorRepo := postgres.NewIndicatorRepository(pool)
	selectionRepo := postgres.NewSelectionRepository(pool)
	logRepo := postgres.NewLogRepository(pool)
	sessionRepo := redisRepo.NewSessionRepository(redisClient, cfg.JWT.TokenTTL)
	draftRepo := redisRepo.NewDraftRepository(redisClient, cfg.Wizard.DraftTTL)

	shipper, err := services.NewJournalShipper(journalStore, mon, logRepo, appMetrics, zapLogger, services.ShipperConfig{
		Interval:   cfg.Journal.ShipInterval,
		BatchSize:  cfg.Journal.BatchSize,
		MaxRetries: cfg.Journal.MaxRetry,
		Retention:  time.Duration(cfg.Journal.RetentionHours) * time.Hour,
	})
	if err != nil {
		zapLogger.Fatal("journal shipper", zap.Error(err))
	}
	shipper.Start()
	manager.Register("journal_shipper", func(ctx context.Context) error {
		shipper.Stop(ctx)
		// last attempt so a clean shutdown leaves nothing behind when postgres is up
		return shipper.Drain(ctx)
	})

	authUseCase := authUC.New(credentialRepo, sessionRepo,
		authUC.Limiters{Login: loginLimiter, Signup: signupLimiter},
		appMetrics,
		authUC.Config{
			Secret:      cfg.JWT.Secret,
			Issuer:      cfg.JWT.Issuer,
			TokenTTL:    cfg.JWT.TokenTTL,
			AutoConfirm: cfg.Auth.AutoConfirm,
			BcryptCost:  cfg.Auth.BcryptCost,
		}, zapLogger)
	sessions := session.NewManager(authUseCase, profileRepo, userRepo, orgRepo, zapLogger)

	options := taxonomy.NewOptions(taxonomyRepo, zapLogger)
	aggregator := taxonomy.NewAggregator(taxonomyRepo, indicatorRepo, appMetrics, zapLogger)
	catalog := taxonomy.NewCatalog(indicatorRepo, taxonomyRepo, shipper, zapLogger)
	wizardUseCase := wizardUC.New(draftRepo, selectionRepo, options, aggregator, catalog, shipper, zapLogger)
	orgUseCase := orgUC.New(orgRepo, shipper, zapLogger)
	userUseCase := userUC.New(authUseCase, userRepo, profileRepo, shipper, zapLogger)
	periodUseCase := periodUC.New(periodRepo, shipper, zapLogger)
	journalUseCase := journalUC.New(logRepo, zapLogger)
	profileUseCase := profileUC.New(userRepo, profileRepo, shipper, zapLogger)

	periodScheduler, err := services.NewPeriodScheduler(periodUseCase, appMetrics, cfg.Scheduler.PeriodCloseSpec, zapLogger)
	if err != nil {
		zapLogger.Fatal("period scheduler", zap.Error(err))
	}
	periodScheduler.Start()
	manager.Register("period_scheduler", func(ctx context.Context) error {
		periodScheduler.Stop(ctx)
		return nil
	})

	ctxAdapter := httpcontext.NewAdapter(cfg.Context.RequestTimeout)

	handlers := router.Handlers{
		Auth:         apiHandler.NewAuthHandler(sessions, authUseCase, ctxAdapter, zapLogger),
		Profile:      apiHandler.NewProfileHandler(profileUseCase, ctxAdapter, zapLogger),
		Organization: apiHandler.NewOrganizationHandler(orgUseCase, ctxAdapter, zapLogger),
		User:         apiHandler.NewUserHandler(userUseCase, ctxAdapter, zapLogger),
		Period:       apiHandler.NewPeriodHandler(periodUseCase, ctxAdapter, zapLogger),
		Taxonomy:     apiHandler.NewTaxonomyHandler(options, aggregator, catalog, ctxAdapter, zapLogger),
		Wizard:       apiHandler.NewWizardHandler(wizardUseCase, ctxAdapter, zapLogger),
		Journal:      apiHandler.NewJournalHandler(journalUseCase, ctxAdapter, zapLogger),
		Health:       apiHandler.NewHealthHandler(mon, ctxAdapter, zapLogger),
	}

	r := router.New(handlers, router.Options{
		Session:     middleware.Session(sessions, ctxAdapter, zapLogger),
		Metrics:     appMetrics,
		EnablePprof: cfg.HTTP.EnablePprof,
	})

	server := &fasthttp.Server{
		Handler:            middleware.AccessLog(zapLogger)(r.Handler),
		ReadTimeout:        cfg.HTTP.ReadTimeout,
		WriteTimeout:       cfg.HTTP.WriteTimeout,
		IdleTimeout:        cfg.HTTP.IdleTimeout,
		Concurrency:        cfg.HTTP.MaxConn,
		Name:               cfg.AppName,
		CloseOnShutdown:    true,
		MaxRequestBodySize: 4 << 20,
	}

	manager.Go("http_server", func(ctx context.Context) error {
		zapLogger.Info("server started", zap.String("address", cfg.Address()))
		return server.ListenAndServe(cfg.Address())
	})
	manager.Register("http_server", func(ctx context.Context) error {
		return server.ShutdownWithContext(ctx)
	})

	if err := manager.Run(appCtx); err != nil {
		zapLogger.Error("graceful shutdown error", zap.Error(err))
	}
}
