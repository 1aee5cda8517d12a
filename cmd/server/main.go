package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prudhvinik1/customer-service/internal/admin"
	"github.com/prudhvinik1/customer-service/internal/config"
	"github.com/prudhvinik1/customer-service/internal/database"
	"github.com/prudhvinik1/customer-service/internal/events"
	"github.com/prudhvinik1/customer-service/internal/handlers"
	"github.com/prudhvinik1/customer-service/internal/logging"
	"github.com/prudhvinik1/customer-service/internal/mailer"
	"github.com/prudhvinik1/customer-service/internal/metrics"
	"github.com/prudhvinik1/customer-service/internal/repositories"
	"github.com/prudhvinik1/customer-service/internal/services"
	"golang.org/x/sync/errgroup"
)

func main() {
	godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewJSONLogger(logging.ParseLevel(cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error(ctx, "server error", "error", err)
		os.Exit(1)
	}
	logger.Info(ctx, "server stopped gracefully")
}

func run(ctx context.Context, cfg *config.Config, logger logging.Logger) error {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)
	reporter := logging.NewLogReporter(logger, m.ErrorsReported.Inc)
	checks := map[string]admin.HealthCheck{}

	// Initialize storage
	var accountRepo repositories.AccountRepository
	switch cfg.StorageDriver {
	case config.StorageDriverMemory:
		logger.Warn(ctx, "using in-memory storage, data is lost on restart")
		accountRepo = repositories.NewMemoryAccountRepository()
	default:
		pool, err := database.NewPostgresPool(ctx, cfg.DatabaseURL, database.PoolConfig{
			MaxConns:        cfg.DBMaxConns,
			MinConns:        cfg.DBMinConns,
			MaxConnLifetime: cfg.DBMaxConnLifetime,
			MaxConnIdleTime: cfg.DBMaxConnIdleTime,
		})
		if err != nil {
			return fmt.Errorf("failed to create postgres pool: %w", err)
		}
		defer pool.Close()

		if err := database.Migrate(ctx, pool); err != nil {
			return err
		}
		accountRepo = repositories.NewPostgresAccountRepository(pool)
		checks["postgres"] = pool.Ping
	}

	// Event sink for other services
	var publisher events.Publisher = events.NewLogPublisher(logger)
	if cfg.RedisURL != "" {
		redisClient, err := database.NewRedisClient(ctx, cfg.RedisURL, database.RedisConfig{
			PoolSize:    cfg.RedisPoolSize,
			DialTimeout: cfg.RedisDialTimeout,
		})
		if err != nil {
			return fmt.Errorf("failed to create redis client: %w", err)
		}
		defer redisClient.Close()

		publisher = events.NewRedisPublisher(redisClient)
		checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}

	var mail mailer.Mailer = mailer.NewLogMailer(logger)
	if cfg.SMTPHost != "" {
		mail = mailer.NewSMTPMailer(mailer.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUser,
			Password: cfg.SMTPPassword,
			From:     cfg.MailFrom,
		})
	}

	tokens := services.NewTokenService(cfg.JWTSecret, cfg.JWTExpiry)
	accounts := services.NewAccountService(accountRepo, tokens, mail,
		services.WithLinkBaseURL(cfg.BaseURL),
		services.WithRequireVerified(cfg.RequireVerifiedEmail),
		services.WithLogger(logger),
		services.WithMetrics(m),
	)
	h := handlers.NewHandler(accounts, tokens, publisher, logger, reporter, m, handlers.Config{
		ShoppingChannel: cfg.ShoppingChannel,
		PhoneRegion:     cfg.PhoneRegion,
	})

	server := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           h.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	adminServer := admin.NewServer(":"+cfg.AdminPort, admin.Handler(registry, checks))

	g, gctx := errgroup.WithContext(ctx)
	for _, srv := range []*http.Server{server, adminServer} {
		g.Go(func() error {
			logger.Info(gctx, "starting server", "addr", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server %s: %w", srv.Addr, err)
			}
			return nil
		})
	}

	// graceful shutdown
	g.Go(func() error {
		<-gctx.Done()
		logger.Info(context.Background(), "shutting down servers")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return errors.Join(server.Shutdown(shutdownCtx), adminServer.Shutdown(shutdownCtx))
	})

	return g.Wait()
}
