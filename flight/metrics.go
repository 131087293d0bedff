package flight

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

// Metrics holds the Prometheus collectors for a Flight server.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	rows     prometheus.Counter
}

// NewMetrics creates the server collectors and registers them with reg.
// Collectors already registered on reg by an earlier call are reused, so
// every Metrics built over one registerer updates the same series. A nil
// reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		requests: register(reg, prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tabflight_requests_total",
				Help: "Total number of Flight requests by method and status code",
			},
			[]string{"method", "code"},
		)),
		duration: register(reg, prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tabflight_request_duration_seconds",
				Help:    "Flight request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method"},
		)),
		rows: register(reg, prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "tabflight_rows_returned_total",
				Help: "Total number of rows streamed by DoGet",
			},
		)),
	}
}

// register adds c to reg, returning the existing collector when an identical
// one is already registered. Any other registration error panics, as
// MustRegister does.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) C {
	if reg == nil {
		return c
	}
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing
			}
		}
		panic(err)
	}
	return c
}

// Observe records one finished request.
func (m *Metrics) Observe(method string, err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method, status.Code(err).String()).Inc()
	m.duration.WithLabelValues(method).Observe(elapsed.Seconds())
}

// AddRows counts rows sent to clients.
func (m *Metrics) AddRows(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.rows.Add(float64(n))
}

// UnaryServerInterceptor records request counts and latency for unary RPCs.
func (m *Metrics) UnaryServerInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		m.Observe(info.FullMethod, err, time.Since(start))
		return resp, err
	}
}

// StreamServerInterceptor records request counts and latency for streaming RPCs.
func (m *Metrics) StreamServerInterceptor() grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		start := time.Now()
		err := handler(srv, ss)
		m.Observe(info.FullMethod, err, time.Since(start))
		return err
	}
}
