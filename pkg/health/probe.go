package health

import (
	"context"
	"fmt"
	"net"
	"strconv"

	"github.com/example/perfumery/pkg/discovery"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Resolver looks up registered instances of a service.
type Resolver interface {
	Discover(ctx context.Context, serviceName string) ([]*discovery.ServiceInstance, error)
}

// Probe queries the grpc.health.v1 service of a storefront instance.
type Probe struct {
	resolver Resolver
	port     int
	logger   *zap.Logger
	dialOpts []grpc.DialOption
}

// NewProbe builds a probe for health servers listening on port. resolver
// may be nil, in which case only the fallback host is used.
func NewProbe(resolver Resolver, port int, logger *zap.Logger, opts ...grpc.DialOption) *Probe {
	dialOpts := append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	return &Probe{resolver: resolver, port: port, logger: logger, dialOpts: dialOpts}
}

// Target returns the health address of the first registered instance of
// service, or of fallbackHost when none is registered.
func (p *Probe) Target(ctx context.Context, service, fallbackHost string) string {
	host := fallbackHost
	if p.resolver != nil {
		instances, err := p.resolver.Discover(ctx, service)
		switch {
		case err != nil:
			p.logger.Warn("Discovery failed, using fallback host", zap.String("service", service), zap.Error(err))
		case len(instances) > 0:
			host = instances[0].Host
			p.logger.Info("Discovered instance", zap.String("service", service), zap.String("host", host))
		}
	}
	return net.JoinHostPort(host, strconv.Itoa(p.port))
}

// Check asks target for the status of service ("" is the whole server).
func (p *Probe) Check(ctx context.Context, target, service string) (healthpb.HealthCheckResponse_ServingStatus, error) {
	conn, err := grpc.NewClient(target, p.dialOpts...)
	if err != nil {
		return healthpb.HealthCheckResponse_UNKNOWN, fmt.Errorf("failed to connect to %s: %w", target, err)
	}
	defer conn.Close()

	resp, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{Service: service})
	if err != nil {
		return healthpb.HealthCheckResponse_UNKNOWN, fmt.Errorf("health check failed: %w", err)
	}
	return resp.Status, nil
}
