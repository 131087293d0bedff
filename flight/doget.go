package flight

import (
	"github.com/apache/arrow-go/v18/arrow/flight"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/hugr-lab/tabflight/dataset"
	"github.com/hugr-lab/tabflight/internal/recovery"
	"github.com/hugr-lab/tabflight/query"
)

// DoGet runs the query carried by the ticket and streams the result as
// Arrow record batches.
//
// The handler:
//  1. Decodes the ticket into a query request
//  2. Runs filter, order, projection and pagination
//  3. Converts the projected rows to record batches
//  4. Streams them, stopping when the client goes away
func (s *Server) DoGet(ticket *flight.Ticket, stream flight.FlightService_DoGetServer) error {
	ctx := EnrichContextMetadata(stream.Context())

	s.logger.Debug("DoGet called",
		"ticket_size", len(ticket.GetTicket()),
		"trace_id", TraceIDFromContext(ctx),
	)

	req, err := ParseTicket(ticket.GetTicket())
	if err != nil {
		s.logger.Error("Failed to decode ticket", "error", err)
		return statusError(err, "invalid ticket")
	}

	s.logger.Debug("DoGet request",
		"filter_depth", req.Filter.Depth(),
		"projection", req.Projection,
		"order", req.Order,
		"dir", req.Dir.String(),
		"skip", req.Skip,
		"limit", req.Limit,
	)

	result, err := recovery.RecoverToValue(s.logger, "Run", func() (query.Result, error) {
		return s.pipeline.Run(req), nil
	})
	if err != nil {
		return err
	}

	reader, err := dataset.NewRecordReader(s.allocator, result.Schema, result.Rows, s.batchSize)
	if err != nil {
		s.logger.Error("Failed to build record batches", "error", err)
		return status.Errorf(codes.Internal, "failed to build record batches: %v", err)
	}
	defer reader.Release()

	writer := flight.NewRecordWriter(stream, ipc.WithSchema(reader.Schema()), ipc.WithAllocator(s.allocator))
	defer writer.Close()

	batchCount := 0
	totalRows := int64(0)

	for reader.Next() {
		select {
		case <-ctx.Done():
			s.logger.Debug("DoGet cancelled by client",
				"batches_sent", batchCount,
				"rows_sent", totalRows,
			)
			return status.Error(codes.Canceled, "request cancelled")
		default:
		}

		record := reader.Record()
		if err := writer.Write(record); err != nil {
			s.logger.Error("Failed to write record batch",
				"batch", batchCount,
				"error", err,
			)
			return status.Errorf(codes.Internal, "failed to write batch %d: %v", batchCount, err)
		}
		batchCount++
		totalRows += record.NumRows()
		s.metrics.AddRows(record.NumRows())
	}

	if err := reader.Err(); err != nil {
		s.logger.Error("Record reader failed", "error", err)
		return status.Errorf(codes.Internal, "failed to read batches: %v", err)
	}

	s.logger.Debug("DoGet completed",
		"batches_sent", batchCount,
		"total_rows", totalRows,
	)
	return nil
}
