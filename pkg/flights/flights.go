package flights

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// SeatType is one of the cabin classes a flight sells.
type SeatType string

const (
	Economy    SeatType = "economy"
	Business   SeatType = "business"
	FirstClass SeatType = "first_class"
)

// Valid reports whether s names a known cabin.
func (s SeatType) Valid() bool {
	_, ok := seatColumns[s.normalize()]
	return ok
}

func (s SeatType) normalize() SeatType {
	return SeatType(strings.ToLower(strings.TrimSpace(string(s))))
}

// seatColumns maps a cabin to its price and availability columns.
var seatColumns = map[SeatType][2]string{
	Economy:    {"economy_price", "economy_seats"},
	Business:   {"business_price", "business_seats"},
	FirstClass: {"first_class_price", "first_class_seats"},
}

// Flight is one row of the inventory.
type Flight struct {
	ID              int     `json:"flight_id"`
	Origin          string  `json:"origin"`
	Destination     string  `json:"destination"`
	DepartureDate   string  `json:"departure_date"`
	DepartureTime   string  `json:"departure_time"`
	ArrivalDate     string  `json:"arrival_date"`
	ArrivalTime     string  `json:"arrival_time"`
	Airline         string  `json:"airline"`
	EconomyPrice    float64 `json:"economy_price"`
	BusinessPrice   float64 `json:"business_price"`
	FirstClassPrice float64 `json:"first_class_price"`
	EconomySeats    int     `json:"economy_seats"`
	BusinessSeats   int     `json:"business_seats"`
	FirstClassSeats int     `json:"first_class_seats"`
}

// Price returns the fare for the cabin, or false for an unknown cabin.
func (f Flight) Price(s SeatType) (float64, bool) {
	switch s.normalize() {
	case Economy:
		return f.EconomyPrice, true
	case Business:
		return f.BusinessPrice, true
	case FirstClass:
		return f.FirstClassPrice, true
	}
	return 0, false
}

// Cost is a price ceiling. Models send it either as a JSON number or as a
// string such as "300" or "$1,200.50".
type Cost float64

func (c *Cost) UnmarshalJSON(data []byte) error {
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*c = Cost(n)
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("max_cost: expected number or string, got %s", data)
	}
	parsed, err := ParseCost(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ParseCost parses a human-written amount, ignoring currency symbols and
// thousands separators.
func ParseCost(s string) (Cost, error) {
	cleaned := strings.NewReplacer("$", "", ",", "", " ", "").Replace(strings.TrimSpace(s))
	n, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("max_cost: invalid amount %q", s)
	}
	return Cost(n), nil
}

// SearchParams are the arguments of the flight search tool.
type SearchParams struct {
	Origin        string   `json:"origin" description:"The airport of departure for the flight given in airport code such as LAX, SFO, BOS, etc."`
	Destination   string   `json:"destination" description:"The airport of destination for the flight given in airport code such as LAX, SFO, BOS, etc."`
	DepartureDate string   `json:"departure_date" format:"date" description:"The date of departure for the flight in YYYY-MM-DD format"`
	MaxCost       Cost     `json:"max_cost" type:"string" description:"The cost of the flight should be always less than max_cost, max_cost is a number"`
	SeatType      SeatType `json:"seat_type" description:"choose the type of the seat from the 3 options: 'economy', 'business', 'first_class'"`
}

// BookParams are the arguments of the booking tool. NumSeats defaults to 1.
type BookParams struct {
	FlightID int      `json:"flight_id" description:"The id or number of the flight"`
	NumSeats int      `json:"num_seats,omitempty" description:"The number of seats to book"`
	SeatType SeatType `json:"seat_type" description:"choose the type of the seat from the 3 options: 'economy', 'business', 'first_class'"`
}

// Booking is a confirmed reservation.
type Booking struct {
	BookingID     string   `json:"booking_id"`
	FlightID      int      `json:"flight_id"`
	Airline       string   `json:"airline"`
	Origin        string   `json:"origin"`
	Destination   string   `json:"destination"`
	DepartureDate string   `json:"departure_date"`
	DepartureTime string   `json:"departure_time"`
	SeatType      SeatType `json:"seat_type"`
	NumSeats      int      `json:"num_seats"`
	TotalCost     float64  `json:"total_cost"`
	Status        string   `json:"status"`
}
