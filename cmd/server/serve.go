package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	apiHandler "github.com/fastygo/planner/api/handler"
	"github.com/fastygo/planner/internal/calendar"
	"github.com/fastygo/planner/internal/config"
	"github.com/fastygo/planner/internal/google"
	"github.com/fastygo/planner/internal/infrastructure/buffer"
	"github.com/fastygo/planner/internal/infrastructure/monitor"
	pgInfra "github.com/fastygo/planner/internal/infrastructure/postgres"
	redisInfra "github.com/fastygo/planner/internal/infrastructure/redis"
	"github.com/fastygo/planner/internal/metrics"
	"github.com/fastygo/planner/internal/middleware"
	"github.com/fastygo/planner/internal/router"
	"github.com/fastygo/planner/internal/services"
	"github.com/fastygo/planner/internal/services/lifecycle"
	"github.com/fastygo/planner/pkg/httpcontext"
	"github.com/fastygo/planner/pkg/logger"
	"github.com/fastygo/planner/repository"
	"github.com/fastygo/planner/repository/memory"
	"github.com/fastygo/planner/repository/postgres"
	redisRepo "github.com/fastygo/planner/repository/redis"
	"github.com/fastygo/planner/usecase"
	authUC "github.com/fastygo/planner/usecase/auth"
	profileUC "github.com/fastygo/planner/usecase/profile"
	taskUC "github.com/fastygo/planner/usecase/task"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("config error: %w", err)
			}

			zapLogger, err := logger.New(logger.Config{
				Level:    cfg.Logger.Level,
				Encoding: cfg.Logger.Encoding,
				Output:   cfg.Logger.Output,
				Service:  cfg.AppName,
			})
			if err != nil {
				return fmt.Errorf("logger error: %w", err)
			}
			defer zapLogger.Sync()

			return serve(cfg, zapLogger)
		},
	}
}

// stores groups the repositories of the selected storage driver.
type stores struct {
	users    repository.UserRepository
	tasks    repository.TaskRepository
	events   repository.TaskEventRepository
	sessions repository.SessionRepository
	states   repository.StateRepository
	tokens   repository.TokenRepository
	notifier usecase.ChangeNotifier
}

func serve(cfg *config.Config, zapLogger *zap.Logger) error {
	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	manager := lifecycle.New(cfg.Context.ShutdownTimeout, zapLogger)
	stopListening := manager.Listen(cancel)
	defer stopListening()

	repos, mon, err := openStores(appCtx, cfg, manager, zapLogger)
	if err != nil {
		return err
	}

	registry := metrics.New()
	location := cfg.Location()

	var googleProvider *google.Provider
	if cfg.Google.Enabled() {
		googleProvider = google.NewProvider(google.Config{
			ClientID:     cfg.Google.ClientID,
			ClientSecret: cfg.Google.ClientSecret,
			RedirectURL:  cfg.Google.RedirectURL,
		})
	}

	var outbox usecase.CalendarOutbox
	if googleProvider != nil {
		bridge, err := startOutbox(cfg, repos, googleProvider, mon, registry, location, manager, zapLogger)
		if err != nil {
			return err
		}
		outbox = bridge
	} else {
		zapLogger.Info("google credentials not set, sign-in with google and calendar sync disabled")
	}

	authDeps := authUC.Deps{
		Users:      repos.users,
		Sessions:   repos.sessions,
		States:     repos.states,
		Tokens:     repos.tokens,
		Signer:     authUC.NewSigner(cfg.SigningSecret(), cfg.JWT.Issuer),
		Metrics:    registry,
		SessionTTL: cfg.JWT.SessionTTL,
	}
	if googleProvider != nil {
		authDeps.Google = googleProvider
	}
	authUseCase := authUC.New(authDeps, zapLogger)
	profileUseCase := profileUC.New(repos.users, zapLogger)
	taskUseCase := taskUC.New(taskUC.Deps{
		Tasks:    repos.tasks,
		Events:   repos.events,
		Notifier: repos.notifier,
		Outbox:   outbox,
		Metrics:  registry,
		Location: location,
	}, zapLogger)

	ctxAdapter := httpcontext.NewAdapter(cfg.Context.RequestTimeout)

	handlers := router.Handlers{
		Auth:    apiHandler.NewAuthHandler(authUseCase, ctxAdapter, zapLogger, cfg.JWT.SessionTTL),
		Profile: apiHandler.NewProfileHandler(profileUseCase, ctxAdapter, zapLogger),
		Task:    apiHandler.NewTaskHandler(taskUseCase, ctxAdapter, zapLogger),
		Health:  apiHandler.NewHealthHandler(mon, cfg.Storage, ctxAdapter, zapLogger),
	}
	if cfg.HTTP.EnableMetrics {
		handlers.Metrics = registry.Handler()
	}

	authMiddleware := middleware.JWTAuth(authDeps.Signer, authUseCase, ctxAdapter, zapLogger)
	r := router.New(handlers, authMiddleware)

	server := &fasthttp.Server{
		Handler:            registry.Middleware(r.Handler),
		ReadTimeout:        cfg.HTTP.ReadTimeout,
		WriteTimeout:       cfg.HTTP.WriteTimeout,
		IdleTimeout:        cfg.HTTP.IdleTimeout,
		MaxConnsPerIP:      cfg.HTTP.MaxConn,
		Name:               cfg.AppName,
		MaxRequestBodySize: 1 << 20,
	}

	go func() {
		zapLogger.Info("server started",
			zap.String("address", cfg.Address()),
			zap.String("storage", cfg.Storage),
			zap.String("timezone", location.String()))
		if err := server.ListenAndServe(cfg.Address()); err != nil {
			zapLogger.Error("server crashed", zap.Error(err))
			cancel()
		}
	}()

	manager.Register("http_server", func(ctx context.Context) error {
		return server.ShutdownWithContext(ctx)
	})

	<-appCtx.Done()

	if err := manager.Shutdown(context.Background()); err != nil {
		zapLogger.Error("graceful shutdown error", zap.Error(err))
		return err
	}
	return nil
}

// openStores connects the configured storage driver and registers its shutdown hooks.
func openStores(ctx context.Context, cfg *config.Config, manager *lifecycle.Manager, zapLogger *zap.Logger) (*stores, *monitor.Monitor, error) {
	if cfg.Storage == config.StorageMemory {
		zapLogger.Warn("using in-memory storage, data is lost on restart")
		store := memory.New()
		mon := monitor.New(nil, nil, nil, 10*time.Second, zapLogger)
		mon.Start()
		manager.RegisterStop("monitor", mon.Stop)
		return &stores{
			users:    store.Users(),
			tasks:    store.Tasks(),
			events:   store.TaskEvents(),
			sessions: store.Sessions(cfg.JWT.SessionTTL),
			states:   store.States(),
			tokens:   store.Tokens(),
		}, mon, nil
	}

	if err := pgInfra.RunMigrations(cfg, zapLogger); err != nil {
		return nil, nil, fmt.Errorf("migrations failed: %w", err)
	}

	pool, err := pgInfra.NewPool(ctx, cfg.Database, zapLogger)
	if err != nil {
		return nil, nil, fmt.Errorf("postgres connection failed: %w", err)
	}
	manager.RegisterStop("postgres", func() { pgInfra.Close(pool, zapLogger) })

	redisClient, err := redisInfra.NewClient(ctx, cfg.Redis)
	if err != nil {
		return nil, nil, fmt.Errorf("redis connection failed: %w", err)
	}
	manager.RegisterCloser("redis", redisClient)

	mon := monitor.New(pool, redisClient, nil, 10*time.Second, zapLogger)
	mon.Refresh()
	mon.Start()
	manager.RegisterStop("monitor", mon.Stop)

	return &stores{
		users:    postgres.NewUserRepository(pool),
		tasks:    postgres.NewTaskRepository(pool, cfg.Location()),
		events:   postgres.NewTaskEventRepository(pool),
		sessions: redisRepo.NewSessionRepository(redisClient, cfg.JWT.SessionTTL),
		states:   redisRepo.NewStateRepository(redisClient),
		tokens:   redisRepo.NewTokenRepository(redisClient),
		notifier: redisRepo.NewChangeNotifier(redisClient),
	}, mon, nil
}

// startOutbox opens the bbolt outbox and starts the processor pushing tasks to Google Calendar.
func startOutbox(
	cfg *config.Config,
	repos *stores,
	provider *google.Provider,
	mon *monitor.Monitor,
	registry *metrics.Registry,
	location *time.Location,
	manager *lifecycle.Manager,
	zapLogger *zap.Logger,
) (*services.CalendarBridge, error) {
	store, err := buffer.Open(cfg.Buffer.Path, "calendar_outbox")
	if err != nil {
		return nil, fmt.Errorf("failed to open outbox store: %w", err)
	}
	manager.RegisterCloser("outbox", store)
	mon.AttachOutbox(store)
	mon.Refresh()
	// Stop the monitor before the store it reads is closed.
	manager.RegisterStop("outbox_monitor", mon.Stop)

	publisher := calendar.NewPublisher(repos.tokens, provider, calendar.Config{
		CalendarID: cfg.Calendar.ID,
		EventHour:  cfg.Calendar.EventHour,
		Duration:   cfg.Calendar.EventDuration,
		Location:   location,
	}, zapLogger)

	processor := services.NewOutboxProcessor(services.OutboxDeps{
		Store:    store,
		Monitor:  mon,
		Pusher:   publisher,
		Tasks:    repos.tasks,
		Events:   repos.events,
		Notifier: repos.notifier,
		Metrics:  registry,
	}, zapLogger, services.ProcessorConfig{
		Interval:   cfg.Buffer.SyncInterval,
		BatchSize:  50,
		MaxRetries: cfg.Buffer.MaxRetry,
		Retention:  time.Duration(cfg.Buffer.RetentionHours) * time.Hour,
	})
	processor.Start()
	manager.Register("outbox_processor", func(ctx context.Context) error {
		processor.Stop(ctx)
		return nil
	})

	registry.TrackGauge("outbox_pending", "Calendar pushes waiting in the outbox.", func() float64 {
		return float64(processor.Size())
	})

	return services.NewCalendarBridge(processor, repos.tokens), nil
}
