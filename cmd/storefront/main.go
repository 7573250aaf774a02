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

	"github.com/example/perfumery/gateway"
	"github.com/example/perfumery/pkg/auth"
	"github.com/example/perfumery/pkg/config"
	"github.com/example/perfumery/pkg/discovery"
	"github.com/example/perfumery/pkg/health"
	"github.com/example/perfumery/pkg/logger"
	"github.com/example/perfumery/pkg/metrics"
	"github.com/example/perfumery/pkg/notify"
	"github.com/example/perfumery/pkg/ratelimit"
	"github.com/example/perfumery/pkg/repository"
	"github.com/example/perfumery/pkg/service"
	"go.uber.org/zap"
)

func configPath() string {
	if p := os.Getenv("SHOP_CONFIG"); p != "" {
		return p
	}
	return "config/config.yaml"
}

func main() {
	cfg, err := config.Load(configPath())
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		panic(fmt.Sprintf("Failed to create logger: %v", err))
	}
	defer log.Sync()

	log.Info("Starting storefront",
		zap.String("name", cfg.Server.Name),
		zap.String("address", cfg.Server.Addr()))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mongoRepo, err := repository.NewMongoRepository(&cfg.MongoDB)
	if err != nil {
		log.Fatal("Failed to connect to MongoDB", zap.Error(err))
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := mongoRepo.Close(closeCtx); err != nil {
			log.Error("Failed to disconnect MongoDB", zap.Error(err))
		}
	}()
	if err := mongoRepo.EnsureIndexes(ctx); err != nil {
		log.Fatal("Failed to create indexes", zap.Error(err))
	}

	redisRepo := repository.NewRedisRepository(&cfg.Redis)
	defer redisRepo.Close()
	if err := redisRepo.Ping(ctx); err != nil {
		log.Warn("Redis connection failed", zap.Error(err))
	} else {
		log.Info("Redis connected successfully")
	}

	db := mongoRepo.Database()
	products := repository.NewProductRepository(db)
	orders := repository.NewOrderRepository(db)
	users := repository.NewUserRepository(db)

	var sink notify.Sink = notify.LogSink{Logger: log.Named("notifications")}
	if len(cfg.Notify.KafkaBrokers) > 0 {
		kafkaSink := notify.NewKafkaSink(cfg.Notify.KafkaBrokers, cfg.Notify.Topic)
		defer kafkaSink.Close()
		sink = kafkaSink
		log.Info("Publishing notifications to Kafka", zap.Strings("brokers", cfg.Notify.KafkaBrokers), zap.String("topic", cfg.Notify.Topic))
	}

	dispatcher, err := notify.NewDispatcher(sink, log)
	if err != nil {
		log.Fatal("Failed to start notifications", zap.Error(err))
	}
	defer func() {
		if err := dispatcher.Close(); err != nil {
			log.Error("Failed to stop notifications", zap.Error(err))
		}
	}()

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	auditor := service.NewAuditor(repository.NewAuditRepository(db), log.Named("audit"))

	var limiter ratelimit.Limiter
	switch cfg.RateLimit.Backend {
	case config.RateLimitRedis:
		limiter = ratelimit.NewCounterLimiter(redisRepo, "ratelimit:orders:", cfg.RateLimit.Requests, cfg.RateLimit.Window)
	default:
		limiter = ratelimit.NewMemoryLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window)
	}

	checker := health.NewChecker(map[string]health.Pinger{
		"mongodb": mongoRepo,
		"redis":   redisRepo,
	}, cfg.Health.Interval, log.Named("health"))
	go checker.Run(ctx)

	gw := gateway.NewGateway(gateway.Deps{
		Orders:    service.NewOrderService(orders, products, dispatcher, auditor, log.Named("orders")),
		Products:  service.NewProductService(products, redisRepo, cfg.Catalog.CacheTTL, auditor, log.Named("products")),
		Users:     service.NewUserService(users, tokens, auditor, log.Named("users")),
		Audit:     auditor,
		Tokens:    tokens,
		Limiter:   limiter,
		RateLimit: cfg.RateLimit.Requests,
		Metrics:   metrics.New(cfg.Server.Name),
		Health:    checker,
	}, log)

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      gw.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	serverErr := make(chan error, 2)
	go func() {
		log.Info("HTTP server listening", zap.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()
	go func() {
		if err := checker.Serve(cfg.Server.Host, cfg.Health.Port); err != nil {
			serverErr <- fmt.Errorf("health server: %w", err)
		}
	}()

	var sd *discovery.ServiceDiscovery
	instance := &discovery.ServiceInstance{Name: cfg.Server.Name, Host: cfg.Server.Host, Port: cfg.Server.Port}
	if discovery.Enabled(&cfg.Etcd) {
		sd, err = discovery.NewServiceDiscovery(&cfg.Etcd, log.Named("discovery"))
		if err != nil {
			log.Warn("Failed to connect to etcd, continuing without service discovery", zap.Error(err))
		} else if err := sd.Register(ctx, instance); err != nil {
			log.Warn("Failed to register service", zap.Error(err))
		}
	}

	select {
	case <-ctx.Done():
		log.Info("Received shutdown signal")
	case err := <-serverErr:
		log.Error("Server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if sd != nil {
		if err := sd.Deregister(shutdownCtx, instance); err != nil {
			log.Error("Failed to deregister service", zap.Error(err))
		}
		sd.Close()
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown failed", zap.Error(err))
	}
	checker.Stop()

	log.Info("Storefront stopped")
}
