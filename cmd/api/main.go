package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	httptransport "github.com/spec-kit/facility-tickets/internal/api/http"
	"github.com/spec-kit/facility-tickets/internal/api/http/handlers"
	"github.com/spec-kit/facility-tickets/internal/auth"
	"github.com/spec-kit/facility-tickets/internal/config"
	"github.com/spec-kit/facility-tickets/internal/events"
	"github.com/spec-kit/facility-tickets/internal/notify"
	"github.com/spec-kit/facility-tickets/internal/observability"
	"github.com/spec-kit/facility-tickets/internal/persistence"
	"github.com/spec-kit/facility-tickets/internal/repository"
	"github.com/spec-kit/facility-tickets/internal/repository/memory"
	"github.com/spec-kit/facility-tickets/internal/service"
	"github.com/spec-kit/facility-tickets/internal/worker"
)

type repositories struct {
	users      repository.UserRepository
	tickets    repository.TicketRepository
	otps       repository.OTPRepository
	categories repository.CategoryRepository
	sessions   repository.SessionRepository
	inMemory   bool
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if pg.Enabled() && cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(cfg.Postgres.DSN, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis, err := persistence.NewRedis(ctx, cfg.Redis, logger)
	if err != nil {
		logger.Fatal("failed to connect redis", zap.Error(err))
	}
	defer redis.Close()

	repos := buildRepositories(pg, redis)
	health := map[string]handlers.Pinger{}
	if pg.Enabled() {
		health["postgres"] = pg
	}
	if redis != nil {
		health["redis"] = redis
	}

	dispatcher, err := newDispatcher(cfg.Events, logger)
	if err != nil {
		logger.Fatal("failed to start event bus", zap.Error(err))
	}
	defer dispatcher.Close() //nolint:errcheck

	sender, err := notify.NewSender(cfg.Notification, logger)
	if err != nil {
		logger.Fatal("failed to configure notifications", zap.Error(err))
	}

	metrics := observability.NewMetrics()

	worker.StartNotificationWorker(service.NewNotificationService(service.NotificationDependencies{
		Dispatcher: dispatcher,
		Mailer:     notify.NewMailer(sender),
		Metrics:    metrics,
		Logger:     logger,
		OTPTTL:     cfg.OTP.TTL(),
	}))

	authService := service.NewAuthService(service.AuthDependencies{
		UserRepo:    repos.users,
		SessionRepo: repos.sessions,
		Tokens:      auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.SessionTTL()),
		Dispatcher:  dispatcher,
		Logger:      logger,
		BcryptCost:  cfg.Auth.BcryptCost,
	})
	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:   repos.tickets,
		UserRepo:     repos.users,
		CategoryRepo: repos.categories,
		Dispatcher:   dispatcher,
		Metrics:      metrics,
		Logger:       logger,
	})
	assignmentService := service.NewAssignmentService(service.AssignmentDependencies{
		TicketRepo: repos.tickets,
		UserRepo:   repos.users,
		Dispatcher: dispatcher,
		Metrics:    metrics,
		Logger:     logger,
	})
	verificationService := service.NewVerificationService(service.VerificationDependencies{
		TicketRepo: repos.tickets,
		OTPRepo:    repos.otps,
		Dispatcher: dispatcher,
		Metrics:    metrics,
		Logger:     logger,
		CodeLength: cfg.OTP.Length,
		TTL:        cfg.OTP.TTL(),
	})
	categoryService := service.NewCategoryService(repos.categories)
	staffService := service.NewStaffService(repos.users, authService)

	if repos.inMemory {
		// Nothing persists between runs, so seed what the seeder would.
		if _, err := categoryService.Seed(ctx, service.DefaultCategories); err != nil {
			logger.Fatal("failed to seed categories", zap.Error(err))
		}
		if admin := cfg.Bootstrap; admin.AdminEmail != "" {
			if _, _, err := authService.EnsureAdmin(ctx, admin.AdminName, admin.AdminEmail, admin.AdminPassword); err != nil {
				logger.Fatal("failed to bootstrap admin", zap.Error(err))
			}
		}
	}

	cookies := auth.NewCookieCodec(cfg.Auth.CookieName, cfg.Auth.CookieHashKey, cfg.Auth.CookieBlockKey, cfg.Auth.CookieSecure)

	app := httptransport.NewServer(httptransport.ServerConfig{
		AppName:        cfg.App.Name,
		RequestTimeout: cfg.App.RequestTimeout(),
		Logger:         logger,
		Metrics:        metrics,
		Routes: httptransport.RouteConfig{
			Health:            handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, metrics, health),
			Auth:              handlers.NewAuthHandler(authService, cookies),
			Tickets:           handlers.NewTicketsHandler(ticketService),
			Verification:      handlers.NewVerificationHandler(verificationService),
			Admin:             handlers.NewAdminHandler(assignmentService, staffService),
			Categories:        handlers.NewCategoriesHandler(categoryService),
			AuthMiddleware:    auth.NewAuthMiddleware(authService, cookies),
			OTPRequestsPerMin: cfg.OTP.RequestsPerMinute,
		},
	})

	go func() {
		logger.Info("http server listening", zap.String("addr", cfg.App.Addr()))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
}

func buildRepositories(pg *persistence.Postgres, redis *persistence.Redis) repositories {
	var repos repositories
	var store *memory.Store
	if pg.Enabled() {
		pool := pg.PoolHandle()
		repos.users = repository.NewUserRepository(pool)
		repos.tickets = repository.NewTicketRepository(pool)
		repos.otps = repository.NewOTPRepository(pool)
		repos.categories = repository.NewCategoryRepository(pool)
	} else {
		store = memory.NewStore()
		repos.users = store.Users()
		repos.tickets = store.Tickets()
		repos.otps = store.OTPs()
		repos.categories = store.Categories()
		repos.inMemory = true
	}

	switch {
	case redis != nil:
		repos.sessions = repository.NewSessionRepository(redis.Client)
	case store != nil:
		repos.sessions = store.Sessions()
	default:
		repos.sessions = memory.NewStore().Sessions()
	}
	return repos
}

func newDispatcher(cfg config.EventsConfig, logger *zap.Logger) (events.Dispatcher, error) {
	if cfg.Backend == "nats" {
		return events.NewNATSDispatcher(cfg.NATSURL, cfg.SubjectPrefix, logger)
	}
	return events.NewAsyncDispatcher(logger, cfg.Workers, cfg.BufferSize), nil
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
