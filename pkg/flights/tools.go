package flights

import (
	"context"
	"errors"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"gflights/pkg/tool"
)

const (
	SearchToolName = "get_search_flights2"
	BookToolName   = "book_flight_declaration"
)

// NewSearchTool exposes Search to the model. An empty result list is an
// empty payload.
func NewSearchTool(inv *Inventory) *tool.Struct[SearchParams] {
	return tool.NewStruct(SearchToolName,
		"Tool for searching a flight with origin, destination, departure date, seat type, and maximum cost",
		func(ctx context.Context, p SearchParams, tc *tool.ToolContext) (any, error) {
			flights, err := inv.Search(ctx, p)
			if err != nil {
				return nil, err
			}
			tc.Logger.Debug("flight search", "call_id", tc.CallID, "origin", p.Origin, "destination", p.Destination,
				"date", p.DepartureDate, "seat_type", p.SeatType, "max_cost", float64(p.MaxCost), "matches", len(flights))
			return flights, nil
		}).WithRetry(tool.Retry(2, isBusy))
}

// NewBookTool exposes Book to the model. A failed reservation yields a nil
// *Booking, which is an empty payload. Bookings are never retried.
func NewBookTool(inv *Inventory) *tool.Struct[BookParams] {
	return tool.NewStruct(BookToolName,
		"Tool for booking a flight with a flight id, seat type and number of seats",
		func(ctx context.Context, p BookParams, tc *tool.ToolContext) (any, error) {
			b, err := inv.Book(ctx, p)
			if err != nil {
				return nil, err
			}
			tc.Logger.Debug("flight booking", "call_id", tc.CallID, "flight_id", p.FlightID, "seat_type", p.SeatType,
				"num_seats", p.NumSeats, "confirmed", b != nil)
			return b, nil
		})
}

// NewRegistry declares both flight tools, search first.
func NewRegistry(inv *Inventory) (*tool.Registry, error) {
	return tool.NewRegistry(NewSearchTool(inv), NewBookTool(inv))
}

// isBusy reports whether err is SQLite refusing a statement because another
// connection holds the lock.
func isBusy(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	code := se.Code() & 0xff
	return code == sqlite3.SQLITE_BUSY || code == sqlite3.SQLITE_LOCKED
}
