package health

import (
	"context"
	"fmt"
	"net"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// Pinger is a dependency that can report whether it is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Checker pings the storefront's dependencies and publishes the result
// through the standard grpc.health.v1 service. The overall service ("") is
// SERVING only when every dependency answered.
type Checker struct {
	checks   map[string]Pinger
	interval time.Duration
	timeout  time.Duration
	server   *health.Server
	grpc     *grpc.Server
	logger   *zap.Logger

	mu      sync.RWMutex
	results map[string]error
}

func NewChecker(checks map[string]Pinger, interval time.Duration, logger *zap.Logger) *Checker {
	c := &Checker{
		checks:   checks,
		interval: interval,
		timeout:  2 * time.Second,
		server:   health.NewServer(),
		logger:   logger,
		results:  make(map[string]error),
	}
	c.server.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	return c
}

// Check pings every dependency once and updates the published status.
func (c *Checker) Check(ctx context.Context) map[string]error {
	results := make(map[string]error, len(c.checks))
	healthy := true

	for name, p := range c.checks {
		pctx, cancel := context.WithTimeout(ctx, c.timeout)
		err := p.Ping(pctx)
		cancel()

		results[name] = err
		status := healthpb.HealthCheckResponse_SERVING
		if err != nil {
			healthy = false
			status = healthpb.HealthCheckResponse_NOT_SERVING
			c.logger.Warn("Dependency unhealthy", zap.String("dependency", name), zap.Error(err))
		}
		c.server.SetServingStatus(name, status)
	}

	overall := healthpb.HealthCheckResponse_SERVING
	if !healthy {
		overall = healthpb.HealthCheckResponse_NOT_SERVING
	}
	c.server.SetServingStatus("", overall)

	c.mu.Lock()
	c.results = results
	c.mu.Unlock()
	return results
}

// Status returns the last check result per dependency, "ok" or the error text.
func (c *Checker) Status() (bool, map[string]string) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	ok := len(c.results) == len(c.checks)
	out := make(map[string]string, len(c.checks))
	names := make([]string, 0, len(c.checks))
	for name := range c.checks {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		err, seen := c.results[name]
		switch {
		case !seen:
			out[name] = "unknown"
		case err != nil:
			ok = false
			out[name] = err.Error()
		default:
			out[name] = "ok"
		}
	}
	return ok, out
}

// Run checks immediately and then every interval until ctx is done.
func (c *Checker) Run(ctx context.Context) {
	c.Check(ctx)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Check(ctx)
		}
	}
}

func (c *Checker) Serve(host string, port int) error {
	addr := fmt.Sprintf("%s:%d", host, port)
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}

	srv := grpc.NewServer()
	healthpb.RegisterHealthServer(srv, c.server)
	reflection.Register(srv)

	c.mu.Lock()
	c.grpc = srv
	c.mu.Unlock()

	c.logger.Info("Health service started", zap.String("address", addr))
	return srv.Serve(lis)
}

func (c *Checker) Stop() {
	c.server.Shutdown()

	c.mu.RLock()
	srv := c.grpc
	c.mu.RUnlock()
	if srv != nil {
		srv.GracefulStop()
	}
}
