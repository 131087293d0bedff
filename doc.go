// Package tabflight serves a read-only tabular dataset over Apache Arrow Flight.
//
// Clients query the dataset with an untrusted boolean filter expression, an
// optional sort column, pagination bounds and a column projection. Results are
// streamed as Arrow record batches.
//
// # Quick Start
//
//	package main
//
//	import (
//	    "log"
//	    "net"
//
//	    "google.golang.org/grpc"
//
//	    "github.com/hugr-lab/tabflight"
//	    "github.com/hugr-lab/tabflight/dataset"
//	)
//
//	func main() {
//	    schema, _ := dataset.ParseSchema([]string{"city:nominal", "population:numeric"})
//	    ds, err := dataset.Open("cities.json", schema)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//
//	    config := tabflight.ServerConfig{Dataset: ds, Name: "cities"}
//	    grpcServer := grpc.NewServer(tabflight.ServerOptions(config)...)
//	    if err := tabflight.NewServer(grpcServer, config); err != nil {
//	        log.Fatal(err)
//	    }
//	    lis, _ := net.Listen("tcp", ":50051")
//	    grpcServer.Serve(lis)
//	}
//
// # Queries
//
// A DoGet ticket is a JSON object:
//
//	{
//	  "filter":     {"type": "single", "operation": "cni", "left": 0, "right": "ber"},
//	  "projection": "1,0",
//	  "order":      1,
//	  "dir":        "desc",
//	  "skip":       20,
//	  "limit":      10
//	}
//
// Every field is optional. The pipeline filters, orders, projects and then
// paginates. See package filter for the expression language.
//
// DoAction serves metadata, count, nominal_values and explain with
// MessagePack bodies and results.
//
// # Server Lifecycle
//
// The package registers Flight service handlers on a user-provided grpc.Server
// but does NOT manage server lifecycle (start/stop/listen). TLS, extra
// interceptors and graceful shutdown stay under the caller's control.
//
// # Authentication
//
// Bearer token authentication is enabled by setting ServerConfig.Auth and
// creating the gRPC server with ServerOptions:
//
//	config := tabflight.ServerConfig{
//	    Dataset: ds,
//	    Auth:    tabflight.StaticToken(os.Getenv("TABFLIGHT_AUTH_TOKEN"), "client"),
//	}
//	grpcServer := grpc.NewServer(tabflight.ServerOptions(config)...)
//
// # Memory Management
//
// Arrow uses manual reference counting. Record batches built for a DoGet
// response are released when the stream completes; pass a
// memory.NewCheckedAllocator as ServerConfig.Allocator to verify this in tests.
package tabflight
