package grpc

import (
	"context"
	"log/slog"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the health service key load balancers probe.
const ServiceName = "cart"

type Pinger interface {
	Ping(ctx context.Context) error
}

// Health reports SERVING while the cart store answers pings.
type Health struct {
	log      *slog.Logger
	srv      *health.Server
	pinger   Pinger
	interval time.Duration
}

func NewHealth(log *slog.Logger, pinger Pinger, interval time.Duration) *Health {
	srv := health.NewServer()
	srv.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
	return &Health{log: log, srv: srv, pinger: pinger, interval: interval}
}

func (h *Health) Server() *health.Server { return h.srv }

func (h *Health) Check(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	status := healthpb.HealthCheckResponse_SERVING
	if err := h.pinger.Ping(ctx); err != nil {
		h.log.Warn("cart store ping failed", "err", err)
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	h.srv.SetServingStatus(ServiceName, status)
	h.srv.SetServingStatus("", status)
	return status
}

func (h *Health) Watch(ctx context.Context) error {
	h.Check(ctx)
	t := time.NewTicker(h.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			h.srv.Shutdown()
			return nil
		case <-t.C:
			h.Check(ctx)
		}
	}
}

func Run(addr string, h *Health) (*grpc.Server, error) {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return Serve(lis, h), nil
}

func Serve(lis net.Listener, h *Health) *grpc.Server {
	gs := grpc.NewServer()
	healthpb.RegisterHealthServer(gs, h.srv)
	go func() {
		if err := gs.Serve(lis); err != nil {
			h.log.Error("grpc server stopped", "err", err)
		}
	}()
	return gs
}
