// Package main is the entry point for the capacity-manager API.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"capacity-manager/internal/app/service"
	"capacity-manager/internal/config"
	"capacity-manager/internal/domain"
	"capacity-manager/internal/infra/awsec2"
	"capacity-manager/internal/infra/notify"
	"capacity-manager/internal/infra/postgres"
	"capacity-manager/internal/infra/postgres/migrations"
	redisinfra "capacity-manager/internal/infra/redis"
	"capacity-manager/internal/job"
	"capacity-manager/internal/logger"
	"capacity-manager/internal/transport/httpserver"
	"capacity-manager/internal/validator"
	"capacity-manager/pkg/locker"
)

func main() {
	// Load configuration
	cfg, err := config.Load("")
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(
		logger.Config{
			Level:  cfg.Logger.Level,
			Format: cfg.Logger.Format,
			Output: cfg.Logger.Output,
		},
		logger.SentryConfig{
			Enabled:     cfg.Sentry.Enabled,
			DSN:         cfg.Sentry.DSN,
			Environment: cfg.Sentry.Environment,
			SampleRate:  cfg.Sentry.SampleRate,
		},
	)
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting capacity-manager",
		zap.String("env", cfg.App.Env),
		zap.Int("port", cfg.App.Port),
		zap.String("region", cfg.AWS.Region),
	)

	// Connect to database
	db, err := postgres.NewConnection(
		postgres.Config{
			Host:         cfg.Database.Host,
			Port:         cfg.Database.Port,
			Name:         cfg.Database.Name,
			User:         cfg.Database.User,
			Password:     cfg.Database.Password,
			SSLMode:      cfg.Database.SSLMode,
			MaxOpenConns: cfg.Database.MaxOpenConns,
			MaxIdleConns: cfg.Database.MaxIdleConns,
			MaxLifetime:  cfg.Database.MaxLifetime,
		},
		log.Logger,
	)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer func() { _ = postgres.Close(db) }()

	// Run migrations
	if err := migrations.Run(db); err != nil {
		log.Fatal("failed to run migrations", zap.Error(err))
	}
	log.Info("database migrations completed")

	// Create acquisition history repository
	history := postgres.NewRepository(db)

	// Create EC2 client and the capacity components built on it
	ctx := context.Background()
	ec2Client, err := awsec2.NewClient(ctx, cfg.AWS.Region)
	if err != nil {
		log.Fatal("failed to create EC2 client", zap.Error(err))
	}

	breakerCfg := awsec2.BreakerConfig{
		MaxRequests:  cfg.AWS.Breaker.MaxRequests,
		Interval:     cfg.AWS.Breaker.Interval,
		Timeout:      cfg.AWS.Breaker.Timeout,
		FailureRatio: cfg.AWS.Breaker.FailureRatio,
	}

	directory := awsec2.NewDirectory(ec2Client, breakerCfg, log.Logger)
	catalog := awsec2.NewCatalog(
		ec2Client,
		awsec2.CatalogConfig{
			StartBuffer:   cfg.Capacity.OfferingStartBuffer,
			Horizon:       cfg.Capacity.OfferingHorizon,
			InstanceCount: cfg.Capacity.InstanceCount,
		},
		breakerCfg,
		log.Logger,
	)
	purchaser := awsec2.NewPurchaser(ec2Client, cfg.Capacity.Tags, log.Logger)
	zones := awsec2.NewZoneLookup(ec2Client, cfg.Capacity.VPCID, log.Logger)

	// Connect to Redis
	redisClient := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	// Ping Redis to verify connection
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatal("failed to connect to Redis", zap.Error(err))
	}
	defer func() { _ = redisClient.Close() }()
	log.Info("connected to Redis",
		zap.String("host", cfg.Redis.Host),
		zap.Int("port", cfg.Redis.Port),
	)

	// Lease store, audit trail and snapshot cache share the Redis client
	leases := redisinfra.NewLeaseStore(redisClient, log.Logger, cfg.Lease.Namespace, cfg.Lease.TTL)
	audit := redisinfra.NewAuditStore(redisClient, log.Logger, cfg.Lease.Namespace)
	cache := redisinfra.NewCache(redisClient, log.Logger, cfg.Snapshot.KeyPrefix)

	// Acquisition event sink (optional, based on config)
	var notifier domain.Notifier
	if cfg.Webhook.Enabled {
		notifier = notify.NewWebhook(
			notify.WebhookConfig{
				URL:         cfg.Webhook.URL,
				Timeout:     cfg.Webhook.Timeout,
				MaxAttempts: cfg.Webhook.MaxAttempts,
				WaitTime:    cfg.Webhook.WaitTime,
				MaxWaitTime: cfg.Webhook.MaxWaitTime,
			},
			log.Logger,
		)
		log.Info("acquisition webhook enabled", zap.String("url", cfg.Webhook.URL))
	} else {
		notifier = notify.NewNoop()
		log.Info("acquisition webhook disabled")
	}

	// Label table: config override or built-in defaults
	var labels domain.LabelMapping
	if len(cfg.Capacity.Labels) > 0 {
		labels = domain.NewLabelMapping(cfg.Capacity.Labels)
	}

	// Create the capacity service
	capacitySvc := service.NewCapacityService(
		directory,
		catalog,
		purchaser,
		leases,
		audit,
		history,
		zones,
		notifier,
		cache,
		service.Options{
			DefaultResourceClass: cfg.Capacity.DefaultResourceClass,
			DefaultDurationHours: cfg.Capacity.DefaultDurationHours,
			Zone:                 cfg.Capacity.Zone,
			Labels:               labels,
			OptimisticDiscovery:  cfg.Capacity.OptimisticDiscovery,
			SnapshotTTL:          cfg.Snapshot.TTL,
		},
		log.Logger,
	)

	// Create distributed locker
	distLocker := locker.NewRedisLocker(redisClient, log.Logger)

	// Create validator
	v := validator.New()

	// Create HTTP server
	server := httpserver.NewServer(
		httpserver.ServerConfig{
			Port:      cfg.App.Port,
			BodyLimit: 1024 * 1024, // 1MB
			Debug:     cfg.App.Debug,
		},
		capacitySvc,
		db,
		redisClient,
		v,
		log.Logger,
	)

	// Start snapshot refresh scheduler with distributed locking
	scheduler := job.NewRefreshScheduler(
		capacitySvc,
		[]string{cfg.Capacity.DefaultResourceClass},
		job.RefreshConfig{
			Interval:  cfg.Snapshot.Interval,
			Timeout:   cfg.Snapshot.Timeout,
			OnStartup: cfg.Snapshot.OnStartup,
		},
		log.Logger,
		distLocker,
	)
	scheduler.Start()

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Info("shutdown signal received")

		// Stop scheduler
		scheduler.Stop()

		// Shutdown server with timeout
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := server.App.ShutdownWithContext(ctx); err != nil {
			log.Error("server shutdown error", zap.Error(err))
		}
	}()

	// Start server
	if err := server.Start(cfg.App.Port); err != nil {
		log.Fatal("server error", zap.Error(err))
	}
}
