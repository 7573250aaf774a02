// Command healthcheck exits 0 when the storefront's gRPC health service
// reports SERVING. It is meant for container liveness probes.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/example/perfumery/pkg/config"
	"github.com/example/perfumery/pkg/discovery"
	"github.com/example/perfumery/pkg/health"
	"github.com/example/perfumery/pkg/logger"
	"go.uber.org/zap"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

func main() {
	path := os.Getenv("SHOP_CONFIG")
	if path == "" {
		path = "config/config.yaml"
	}
	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(2)
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(2)
	}
	defer log.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var resolver health.Resolver
	if discovery.Enabled(&cfg.Etcd) {
		sd, err := discovery.NewServiceDiscovery(&cfg.Etcd, log)
		if err != nil {
			log.Warn("Failed to connect to etcd", zap.Error(err))
		} else {
			defer sd.Close()
			resolver = sd
		}
	}

	probe := health.NewProbe(resolver, cfg.Health.Port, log)
	target := os.Getenv("SHOP_HEALTH_TARGET")
	if target == "" {
		target = probe.Target(ctx, cfg.Server.Name, "127.0.0.1")
	}

	status, err := probe.Check(ctx, target, "")
	if err != nil {
		log.Error("Health check failed", zap.String("target", target), zap.Error(err))
		os.Exit(1)
	}
	log.Info("Health status", zap.String("target", target), zap.String("status", status.String()))
	if status != healthpb.HealthCheckResponse_SERVING {
		os.Exit(1)
	}
}
