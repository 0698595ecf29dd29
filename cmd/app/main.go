package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Domenick1991/travelbooking/config"
	"github.com/Domenick1991/travelbooking/internal/bootstrap"
	"github.com/Domenick1991/travelbooking/internal/cache"
	"github.com/Domenick1991/travelbooking/internal/kafka"
	"github.com/Domenick1991/travelbooking/internal/logging"
	"github.com/Domenick1991/travelbooking/internal/metrics"
	"github.com/Domenick1991/travelbooking/internal/repository"
	"github.com/Domenick1991/travelbooking/internal/service/booking"
	"github.com/Domenick1991/travelbooking/internal/service/destinations"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
)

func main() {
	if err := godotenv.Load(); err != nil {
		logrus.Info(".env not found, using process environment")
	}

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		logrus.Fatalf("load config: %v", err)
	}
	logger := logging.New(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		logger.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	if cfg.Database.Migrate {
		if err := repository.Migrate(ctx, pool); err != nil {
			logger.Fatalf("migrate: %v", err)
		}
		logger.Info("database schema up to date")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	bookingRepo := repository.NewBookingRepository(pool)
	destinationRepo := repository.NewDestinationRepository(pool)

	var (
		locker           booking.DestinationLocker
		destinationCache destinations.Cache
	)
	if cfg.Redis.Addr != "" {
		redisCache := cache.NewRedisCache(cfg.Redis, cfg.Booking.CacheTTL())
		defer redisCache.Close()
		if err := redisCache.Ping(ctx); err != nil {
			logger.WithError(err).Warn("redis unreachable, booking creation will fail until it recovers")
		}
		locker = booking.NewRedisLocker(redisCache, cfg.Booking.LockTTL(), cfg.Booking.LockWait(), logger)
		destinationCache = redisCache
	} else {
		logger.Warn("redis not configured, using in-process booking lock")
		locker = booking.NewLocalLocker(cfg.Booking.LockWait())
	}

	opts := []booking.BookingServiceOption{
		booking.WithLogger(logger),
		booking.WithMetrics(m),
		booking.WithConfirmationPrefix(cfg.Booking.ConfirmationPrefix),
		booking.WithDefaultCurrency(cfg.Booking.DefaultCurrency),
		booking.WithReadRetries(cfg.Booking.AvailabilityRetries, 100*time.Millisecond),
		booking.WithConfirmationRetries(cfg.Booking.ConfirmationCodeRetries),
	}
	if len(cfg.Kafka.Brokers) > 0 && cfg.Kafka.BookingTopic != "" {
		producer := kafka.NewProducer(cfg.Kafka.Brokers, logger)
		defer producer.Close()

		checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		if err := producer.CheckConnection(checkCtx); err != nil {
			logger.WithError(err).Warn("kafka unreachable, booking events will be dropped until it recovers")
		}
		cancel()

		opts = append(opts,
			booking.WithProducer(producer, cfg.Kafka.BookingTopic),
			booking.WithNotificationsTopic(cfg.Kafka.NotificationsTopic),
		)
	}

	bookingService := booking.NewBookingService(bookingRepo, destinationRepo, locker, opts...)
	destinationService := destinations.NewDestinationService(destinationRepo, destinationCache, logger, cfg.Booking.DefaultCurrency)

	err = bootstrap.Run(ctx, cfg, bootstrap.Deps{
		Bookings:     bookingService,
		Destinations: destinationService,
		Logger:       logger,
		Metrics:      m,
		Gatherer:     registry,
		Ready:        pool.Ping,
	})
	if err != nil {
		logger.Fatalf("server error: %v", err)
	}
}
