package tabflight_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strings"
	"testing"

	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/flight"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/hugr-lab/tabflight"
	"github.com/hugr-lab/tabflight/dataset"
)

type testServer struct {
	grpcServer *grpc.Server
	address    string
}

func (s *testServer) stop() {
	s.grpcServer.Stop()
}

func newTestServer(t *testing.T, config tabflight.ServerConfig) *testServer {
	t.Helper()

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to create listener: %v", err)
	}

	if config.Logger == nil {
		config.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if config.Registerer == nil {
		config.Registerer = prometheus.NewRegistry()
	}
	config.Address = "grpc://" + lis.Addr().String()

	grpcServer := grpc.NewServer(tabflight.ServerOptions(config)...)
	if err := tabflight.NewServer(grpcServer, config); err != nil {
		t.Fatalf("Failed to register server: %v", err)
	}

	go func() {
		_ = grpcServer.Serve(lis)
	}()

	return &testServer{
		grpcServer: grpcServer,
		address:    lis.Addr().String(),
	}
}

func newClient(t *testing.T, address string) flight.Client {
	t.Helper()

	client, err := flight.NewClientWithMiddleware(address, nil, nil,
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	return client
}

func loadDataset(t *testing.T, decls []string, rows string) *dataset.Dataset {
	t.Helper()

	schema, err := dataset.ParseSchema(decls)
	if err != nil {
		t.Fatalf("ParseSchema() error = %v", err)
	}
	ds, err := dataset.Load(strings.NewReader(rows), schema)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	return ds
}

func xyDataset(t *testing.T) *dataset.Dataset {
	return loadDataset(t, []string{"x:numeric", "y:nominal"},
		`[{"x":1,"y":"a"},{"x":5,"y":"b"},{"x":3,"y":"c"}]`)
}

// fetch runs a DoGet and returns the rows of a two-column result as strings.
func fetch(ctx context.Context, client flight.Client, ticket string) ([]string, error) {
	stream, err := client.DoGet(ctx, &flight.Ticket{Ticket: []byte(ticket)})
	if err != nil {
		return nil, err
	}
	reader, err := flight.NewRecordReader(stream)
	if err != nil {
		return nil, err
	}
	defer reader.Release()

	var rows []string
	for reader.Next() {
		rec := reader.Record()
		xs := rec.Column(0).(*array.Float64)
		ys := rec.Column(1).(*array.String)
		for i := 0; i < int(rec.NumRows()); i++ {
			rows = append(rows, fmt.Sprintf("%g:%s", xs.Value(i), ys.Value(i)))
		}
	}
	if err := reader.Err(); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return rows, nil
}

// TestQueryEndToEnd runs the documented example: gt compares as lt.
func TestQueryEndToEnd(t *testing.T) {
	server := newTestServer(t, tabflight.ServerConfig{Dataset: xyDataset(t), Name: "xy"})
	defer server.stop()

	client := newClient(t, server.address)
	defer client.Close()

	rows, err := fetch(context.Background(), client,
		`{"filter":{"type":"single","operation":"gt","left":0,"right":"2"}}`)
	if err != nil {
		t.Fatalf("DoGet failed: %v", err)
	}
	if len(rows) != 1 || rows[0] != "1:a" {
		t.Errorf("rows = %v, want [1:a]", rows)
	}
}

// TestAuthentication verifies that bearer token authentication works correctly.
func TestAuthentication(t *testing.T) {
	server := newTestServer(t, tabflight.ServerConfig{
		Dataset: xyDataset(t),
		Auth:    tabflight.StaticToken("valid-token", "tester"),
	})
	defer server.stop()

	client := newClient(t, server.address)
	defer client.Close()

	t.Run("NoToken", func(t *testing.T) {
		_, err := fetch(context.Background(), client, `{}`)
		if status.Code(err) != codes.Unauthenticated {
			t.Errorf("code = %v, want %v", status.Code(err), codes.Unauthenticated)
		}
	})

	t.Run("InvalidToken", func(t *testing.T) {
		ctx := metadata.AppendToOutgoingContext(context.Background(), "authorization", "Bearer invalid-token")
		_, err := fetch(ctx, client, `{}`)
		if status.Code(err) != codes.Unauthenticated {
			t.Errorf("code = %v, want %v", status.Code(err), codes.Unauthenticated)
		}
	})

	t.Run("ValidToken", func(t *testing.T) {
		ctx := metadata.AppendToOutgoingContext(context.Background(), "authorization", "Bearer valid-token")
		rows, err := fetch(ctx, client, `{}`)
		if err != nil {
			t.Fatalf("DoGet with valid token failed: %v", err)
		}
		if len(rows) != 3 {
			t.Errorf("got %d rows, want 3", len(rows))
		}
	})
}

// TestConcurrentQueries checks that simultaneous requests against the shared
// dataset do not observe each other's ordering or pagination.
func TestConcurrentQueries(t *testing.T) {
	ds := xyDataset(t)
	server := newTestServer(t, tabflight.ServerConfig{Dataset: ds})
	defer server.stop()

	client := newClient(t, server.address)
	defer client.Close()

	queries := []struct {
		ticket string
		want   string
	}{
		{ticket: `{"order":0}`, want: "1:a,3:c,5:b"},
		{ticket: `{"order":0,"dir":"desc"}`, want: "5:b,3:c,1:a"},
		{ticket: `{"order":1,"dir":"desc","limit":2}`, want: "3:c,5:b"},
		{ticket: `{"skip":1}`, want: "5:b,3:c"},
		{ticket: `{"filter":{"type":"not","children":[{"type":"single","operation":"eq","left":1,"right":"b"}]}}`, want: "1:a,3:c"},
	}

	g, ctx := errgroup.WithContext(context.Background())
	for i := 0; i < 40; i++ {
		q := queries[i%len(queries)]
		g.Go(func() error {
			rows, err := fetch(ctx, client, q.ticket)
			if err != nil {
				return err
			}
			if got := strings.Join(rows, ","); got != q.want {
				return fmt.Errorf("ticket %s: got %s, want %s", q.ticket, got, q.want)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}

	first := ds.Row(0)
	if first[0].Num() != 1 || first[1].Str() != "a" {
		t.Errorf("dataset order changed: first row = %v", first)
	}
}

func TestNewServerInvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		config tabflight.ServerConfig
	}{
		{name: "nil dataset", config: tabflight.ServerConfig{}},
		{name: "negative message size", config: tabflight.ServerConfig{Dataset: xyDataset(t), MaxMessageSize: -1}},
		{name: "negative batch size", config: tabflight.ServerConfig{Dataset: xyDataset(t), BatchSize: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tabflight.NewServer(grpc.NewServer(), tt.config)
			if !errors.Is(err, tabflight.ErrInvalidConfig) {
				t.Errorf("NewServer() error = %v, want %v", err, tabflight.ErrInvalidConfig)
			}
		})
	}
}

func TestServerOptions(t *testing.T) {
	if opts := tabflight.ServerOptions(tabflight.ServerConfig{}); len(opts) != 0 {
		t.Errorf("ServerOptions() = %d options, want 0", len(opts))
	}

	opts := tabflight.ServerOptions(tabflight.ServerConfig{
		Auth:           tabflight.NoAuth(),
		MaxMessageSize: 16 << 20,
		Registerer:     prometheus.NewRegistry(),
	})
	if len(opts) != 4 {
		t.Errorf("ServerOptions() = %d options, want 4", len(opts))
	}
}

func TestMemoryNotLeaked(t *testing.T) {
	allocator := memory.NewCheckedAllocator(memory.DefaultAllocator)
	defer allocator.AssertSize(t, 0)

	server := newTestServer(t, tabflight.ServerConfig{
		Dataset:   xyDataset(t),
		Allocator: allocator,
		BatchSize: 1,
	})

	client := newClient(t, server.address)
	for _, ticket := range []string{`{}`, `{"order":0,"limit":1}`, `{"filter":{"type":"single","operation":"eq","left":1,"right":"zzz"}}`} {
		if _, err := fetch(context.Background(), client, ticket); err != nil {
			t.Fatalf("DoGet(%s) failed: %v", ticket, err)
		}
	}
	client.Close()
	server.stop()
}

func TestServersShareRegisterer(t *testing.T) {
	reg := prometheus.NewRegistry()

	var addresses []string
	for range 2 {
		server := newTestServer(t, tabflight.ServerConfig{Dataset: xyDataset(t), Registerer: reg})
		defer server.stop()
		addresses = append(addresses, server.address)
	}

	for _, addr := range addresses {
		client := newClient(t, addr)
		rows, err := fetch(context.Background(), client, `{}`)
		client.Close()
		if err != nil {
			t.Fatalf("DoGet failed: %v", err)
		}
		if len(rows) != 3 {
			t.Errorf("rows = %v, want 3 rows", rows)
		}
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}
	var returned float64
	for _, mf := range families {
		if mf.GetName() == "tabflight_rows_returned_total" {
			for _, m := range mf.GetMetric() {
				returned += m.GetCounter().GetValue()
			}
		}
	}
	if returned != 6 {
		t.Errorf("rows returned = %v, want 6", returned)
	}
}
