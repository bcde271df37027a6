package flights

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"gflights/pkg/tool"
	"gflights/pkg/types"
)

func TestCostUnmarshal(t *testing.T) {
	tests := []struct {
		raw     string
		want    Cost
		wantErr bool
	}{
		{raw: `300`, want: 300},
		{raw: `299.99`, want: 299.99},
		{raw: `"300"`, want: 300},
		{raw: `"$1,200.50"`, want: 1200.5},
		{raw: `" 450 "`, want: 450},
		{raw: `"cheap"`, wantErr: true},
		{raw: `true`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			var c Cost
			err := json.Unmarshal([]byte(tt.raw), &c)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, float64(tt.want), float64(c), 1e-9)
		})
	}
}

func TestSeatType(t *testing.T) {
	assert.True(t, Economy.Valid())
	assert.True(t, SeatType(" First_Class ").Valid())
	assert.False(t, SeatType("premium").Valid())

	price, ok := Flight{BusinessPrice: 800}.Price("business")
	assert.True(t, ok)
	assert.Equal(t, 800.0, price)
	_, ok = Flight{}.Price("premium")
	assert.False(t, ok)
}

func TestSampleFlightsDeterministic(t *testing.T) {
	a, b := SampleFlights(), SampleFlights()
	require.Len(t, a, sampleDays*len(sampleAirports)*(len(sampleAirports)-1)*flightsPerDay)
	assert.Equal(t, a, b)
	for _, f := range a {
		assert.NotEqual(t, f.Origin, f.Destination)
		assert.Contains(t, f.DepartureDate, "2024-06-")
	}
}

func TestToolSchemas(t *testing.T) {
	search := NewSearchTool(nil).InputSchema()
	assert.Equal(t, []string{"origin", "destination", "departure_date", "max_cost", "seat_type"}, tool.RequiredFields(search))
	props := search["properties"].(map[string]any)
	assert.Equal(t, "string", props["max_cost"].(map[string]any)["type"])
	assert.Equal(t, "date", props["departure_date"].(map[string]any)["format"])

	book := NewBookTool(nil).InputSchema()
	assert.Equal(t, []string{"flight_id", "seat_type"}, tool.RequiredFields(book))
	props = book["properties"].(map[string]any)
	assert.Equal(t, "integer", props["flight_id"].(map[string]any)["type"])
	assert.Equal(t, "The number of seats to book", props["num_seats"].(map[string]any)["description"])
}

type InventorySuite struct {
	suite.Suite

	ctx context.Context
	inv *Inventory
}

func TestInventorySuite(t *testing.T) {
	suite.Run(t, new(InventorySuite))
}

func (s *InventorySuite) SetupTest() {
	s.ctx = context.Background()
	inv, err := Open(s.ctx, Config{DSN: ":memory:"})
	s.Require().NoError(err)
	s.inv = inv

	s.Require().NoError(inv.Insert(s.ctx,
		Flight{ID: 1, Origin: "LAX", Destination: "SFO", DepartureDate: "2024-06-01", DepartureTime: "09:00",
			ArrivalDate: "2024-06-01", ArrivalTime: "10:30", Airline: "United",
			EconomyPrice: 150, BusinessPrice: 400, FirstClassPrice: 900,
			EconomySeats: 10, BusinessSeats: 2, FirstClassSeats: 0},
		Flight{ID: 2, Origin: "lax", Destination: "sfo", DepartureDate: "2024-06-01", DepartureTime: "07:00",
			ArrivalDate: "2024-06-01", ArrivalTime: "08:30", Airline: "Delta",
			EconomyPrice: 280, BusinessPrice: 600, FirstClassPrice: 1200,
			EconomySeats: 1, BusinessSeats: 0, FirstClassSeats: 4},
		Flight{ID: 3, Origin: "LAX", Destination: "SFO", DepartureDate: "2024-06-02", DepartureTime: "09:00",
			ArrivalDate: "2024-06-02", ArrivalTime: "10:30", Airline: "Alaska",
			EconomyPrice: 90, BusinessPrice: 300, FirstClassPrice: 700,
			EconomySeats: 50, BusinessSeats: 5, FirstClassSeats: 2},
		Flight{ID: 42, Origin: "JFK", Destination: "BOS", DepartureDate: "2024-06-01", DepartureTime: "18:00",
			ArrivalDate: "2024-06-01", ArrivalTime: "19:15", Airline: "JetBlue",
			EconomyPrice: 120, BusinessPrice: 350, FirstClassPrice: 800,
			EconomySeats: 0, BusinessSeats: 3, FirstClassSeats: 1},
	))
}

func (s *InventorySuite) TearDownTest() {
	s.Require().NoError(s.inv.Close())
}

func (s *InventorySuite) flight(id int) *Flight {
	f, err := lookup(s.ctx, s.inv.db, id)
	s.Require().NoError(err)
	return f
}

func (s *InventorySuite) ids(flights []Flight) []int {
	out := make([]int, len(flights))
	for i, f := range flights {
		out[i] = f.ID
	}
	return out
}

func (s *InventorySuite) TestSearch() {
	tests := []struct {
		name   string
		params SearchParams
		want   []int
	}{
		{
			name:   "ordered by departure time",
			params: SearchParams{Origin: "LAX", Destination: "SFO", DepartureDate: "2024-06-01", MaxCost: 300, SeatType: Economy},
			want:   []int{2, 1},
		},
		{
			name:   "codes are case-insensitive",
			params: SearchParams{Origin: "lax", Destination: "Sfo", DepartureDate: "2024-06-01", MaxCost: 300, SeatType: Economy},
			want:   []int{2, 1},
		},
		{
			name:   "fare must be below the ceiling",
			params: SearchParams{Origin: "LAX", Destination: "SFO", DepartureDate: "2024-06-01", MaxCost: 150, SeatType: Economy},
			want:   []int{},
		},
		{
			name:   "fare just under the ceiling",
			params: SearchParams{Origin: "LAX", Destination: "SFO", DepartureDate: "2024-06-01", MaxCost: 150.01, SeatType: Economy},
			want:   []int{1},
		},
		{
			name:   "sold-out cabins are excluded",
			params: SearchParams{Origin: "LAX", Destination: "SFO", DepartureDate: "2024-06-01", MaxCost: 2000, SeatType: FirstClass},
			want:   []int{2},
		},
		{
			name:   "other date",
			params: SearchParams{Origin: "LAX", Destination: "SFO", DepartureDate: "2024-06-03", MaxCost: 2000, SeatType: Economy},
			want:   []int{},
		},
		{
			name:   "unknown seat type",
			params: SearchParams{Origin: "LAX", Destination: "SFO", DepartureDate: "2024-06-01", MaxCost: 2000, SeatType: "premium"},
			want:   []int{},
		},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			got, err := s.inv.Search(s.ctx, tt.params)
			s.Require().NoError(err)
			s.NotNil(got)
			s.Equal(tt.want, s.ids(got))
		})
	}
}

func (s *InventorySuite) TestBook() {
	b, err := s.inv.Book(s.ctx, BookParams{FlightID: 1, SeatType: "Business", NumSeats: 2})
	s.Require().NoError(err)
	s.Require().NotNil(b)
	s.NotEmpty(b.BookingID)
	s.Equal(Business, b.SeatType)
	s.Equal(2, b.NumSeats)
	s.Equal(800.0, b.TotalCost)
	s.Equal("confirmed", b.Status)

	f := s.flight(1)
	s.Require().NotNil(f)
	s.Equal(0, f.BusinessSeats)
	s.Equal(10, f.EconomySeats)
}

func (s *InventorySuite) TestBookDefaultsToOneSeat() {
	b, err := s.inv.Book(s.ctx, BookParams{FlightID: 2, SeatType: Economy})
	s.Require().NoError(err)
	s.Require().NotNil(b)
	s.Equal(1, b.NumSeats)

	f := s.flight(2)
	s.Require().NotNil(f)
	s.Equal(0, f.EconomySeats)
}

func (s *InventorySuite) TestBookFailuresAreNil() {
	tests := []struct {
		name   string
		params BookParams
	}{
		{name: "sold out", params: BookParams{FlightID: 42, SeatType: Economy, NumSeats: 1}},
		{name: "not enough seats", params: BookParams{FlightID: 42, SeatType: Business, NumSeats: 4}},
		{name: "unknown flight", params: BookParams{FlightID: 999, SeatType: Economy}},
		{name: "unknown seat type", params: BookParams{FlightID: 1, SeatType: "premium"}},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			b, err := s.inv.Book(s.ctx, tt.params)
			s.Require().NoError(err)
			s.Nil(b)
		})
	}

	f := s.flight(42)
	s.Require().NotNil(f)
	s.Equal(3, f.BusinessSeats, "failed bookings leave availability untouched")
}

func (s *InventorySuite) TestLookupUnknown() {
	s.Nil(s.flight(999))
}

func (s *InventorySuite) executor() *tool.Executor {
	reg, err := NewRegistry(s.inv)
	s.Require().NoError(err)
	s.Equal([]string{SearchToolName, BookToolName}, reg.Names())
	return tool.NewExecutor(reg, tool.ExecutorConfig{})
}

func (s *InventorySuite) TestSearchToolWithStringCost() {
	res := s.executor().Execute(s.ctx, types.ToolCall{Name: SearchToolName, Args: map[string]any{
		"origin": "LAX", "destination": "SFO", "departure_date": "2024-06-01",
		"max_cost": "300", "seat_type": "economy",
	}})
	s.Require().NoError(res.Error)
	s.False(res.Empty())
	s.Len(res.Result.Payload, 2)
}

func (s *InventorySuite) TestSearchToolNoMatchesIsEmpty() {
	res := s.executor().Execute(s.ctx, types.ToolCall{Name: SearchToolName, Args: map[string]any{
		"origin": "SEA", "destination": "ORD", "departure_date": "2024-06-01",
		"max_cost": 300.0, "seat_type": "economy",
	}})
	s.Require().NoError(res.Error)
	s.True(res.Empty())
}

func (s *InventorySuite) TestBookToolSoldOutIsEmpty() {
	res := s.executor().Execute(s.ctx, types.ToolCall{Name: BookToolName, Args: map[string]any{
		"flight_id": 42.0, "seat_type": "economy", "num_seats": 1.0,
	}})
	s.Require().NoError(res.Error)
	s.True(res.Empty())
}

func (s *InventorySuite) TestBookToolMissingField() {
	res := s.executor().Execute(s.ctx, types.ToolCall{Name: BookToolName, Args: map[string]any{
		"flight_id": 1.0,
	}})
	s.Require().ErrorIs(res.Error, tool.ErrMissingField)
}

func TestOpenSeeds(t *testing.T) {
	ctx := context.Background()
	inv, err := Open(ctx, Config{DSN: ":memory:", Seed: true})
	require.NoError(t, err)
	defer func() { _ = inv.Close() }()

	n, err := inv.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(SampleFlights()), n)

	require.NoError(t, inv.seedIfEmpty(ctx))
	again, err := inv.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, n, again, "seeding is skipped when flights exist")
}

func TestIsBusy(t *testing.T) {
	assert.False(t, isBusy(errors.New("database is locked")))
	assert.False(t, isBusy(context.Canceled))
}

func TestToolLimits(t *testing.T) {
	search := NewSearchTool(nil).Limits()
	require.NotNil(t, search.Retry)
	assert.Equal(t, 2, search.Retry.MaxRetries)

	assert.Nil(t, NewBookTool(nil).Limits().Retry)
}
