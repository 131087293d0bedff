package flight

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hugr-lab/tabflight/query"
)

// ErrInvalidTicket is returned when a ticket is not a JSON object.
var ErrInvalidTicket = errors.New("invalid ticket")

// TicketData is the client-side form of a query ticket.
// Tickets are JSON objects carrying the fields of a full query request.
type TicketData struct {
	// Filter is the raw filter expression (see package filter).
	Filter any `json:"filter,omitempty"`

	// Projection lists output column positions; empty means all columns.
	Projection []int `json:"projection,omitempty"`

	// Order is the sort column position; nil keeps dataset order.
	Order *int `json:"order,omitempty"`

	// Dir is "asc" or "desc".
	Dir string `json:"dir,omitempty"`

	Skip  int `json:"skip,omitempty"`
	Limit int `json:"limit,omitempty"`
}

// EncodeTicket creates an opaque ticket from a query.
func EncodeTicket(t TicketData) ([]byte, error) {
	data, err := json.Marshal(t)
	if err != nil {
		return nil, fmt.Errorf("failed to encode ticket: %w", err)
	}
	return data, nil
}

// DecodeTicket parses a ticket into its dynamic form. Numbers are kept as
// json.Number so that the request parser sees the client's literal text.
func DecodeTicket(ticketBytes []byte) (map[string]any, error) {
	if len(bytes.TrimSpace(ticketBytes)) == 0 {
		return nil, fmt.Errorf("%w: ticket cannot be empty", ErrInvalidTicket)
	}

	dec := json.NewDecoder(bytes.NewReader(ticketBytes))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTicket, err)
	}
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: ticket must be a JSON object", ErrInvalidTicket)
	}
	return obj, nil
}

// ParseTicket decodes a ticket into a query request.
func ParseTicket(ticketBytes []byte) (query.Request, error) {
	raw, err := DecodeTicket(ticketBytes)
	if err != nil {
		return query.Request{}, err
	}
	return query.ParseRequest(raw)
}
