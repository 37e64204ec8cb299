package server

import (
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/GriffinCanCode/screenrec/internal/trace"
)

// Health serves the standard gRPC health protocol. The recorder service is
// SERVING while a source is selected.
type Health struct {
	srv *grpc.Server
	hs  *health.Server
}

// NewHealth creates a health server reporting NOT_SERVING.
func NewHealth() *Health {
	hs := health.NewServer()
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(trace.UnaryServerInterceptor()))
	healthpb.RegisterHealthServer(srv, hs)
	h := &Health{srv: srv, hs: hs}
	h.SetBound(false)
	return h
}

// SetBound updates the recorder service status.
func (h *Health) SetBound(bound bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if bound {
		status = healthpb.HealthCheckResponse_SERVING
	}
	h.hs.SetServingStatus(HealthService, status)
	h.hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
}

// Serve accepts connections on lis until Stop.
func (h *Health) Serve(lis net.Listener) error {
	return h.srv.Serve(lis)
}

// Stop shuts the server down, finishing pending calls.
func (h *Health) Stop() {
	h.hs.Shutdown()
	h.srv.GracefulStop()
}
