package flights

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"
)

var (
	sampleAirports = []string{"LAX", "SFO", "JFK", "BOS", "SEA", "ORD"}
	sampleAirlines = []string{"United", "Delta", "American", "Alaska", "JetBlue", "Southwest"}
)

const (
	sampleStart   = "2024-06-01"
	sampleDays    = 30
	flightsPerDay = 2
)

// SampleFlights returns the deterministic catalogue used to seed an empty
// inventory: every ordered pair of sample airports, twice a day through June 2024.
func SampleFlights() []Flight {
	rng := rand.New(rand.NewPCG(2024, 6))
	start, _ := time.Parse(time.DateOnly, sampleStart)

	var out []Flight
	for day := 0; day < sampleDays; day++ {
		date := start.AddDate(0, 0, day)
		for oi, origin := range sampleAirports {
			for di, dest := range sampleAirports {
				if oi == di {
					continue
				}
				for n := 0; n < flightsPerDay; n++ {
					depart := date.Add(time.Duration(6+n*8+rng.IntN(4))*time.Hour + time.Duration(rng.IntN(4)*15)*time.Minute)
					arrive := depart.Add(time.Duration(60+rng.IntN(300)) * time.Minute)
					economy := float64(90 + rng.IntN(400))
					out = append(out, Flight{
						Origin:          origin,
						Destination:     dest,
						DepartureDate:   depart.Format(time.DateOnly),
						DepartureTime:   depart.Format("15:04"),
						ArrivalDate:     arrive.Format(time.DateOnly),
						ArrivalTime:     arrive.Format("15:04"),
						Airline:         sampleAirlines[rng.IntN(len(sampleAirlines))],
						EconomyPrice:    economy,
						BusinessPrice:   economy * 2.5,
						FirstClassPrice: economy * 4,
						EconomySeats:    rng.IntN(120),
						BusinessSeats:   rng.IntN(24),
						FirstClassSeats: rng.IntN(8),
					})
				}
			}
		}
	}
	return out
}

func (i *Inventory) seedIfEmpty(ctx context.Context) error {
	n, err := i.Count(ctx)
	if err != nil {
		return fmt.Errorf("count flights: %w", err)
	}
	if n > 0 {
		return nil
	}
	sample := SampleFlights()
	if err := i.Insert(ctx, sample...); err != nil {
		return fmt.Errorf("seed flights: %w", err)
	}
	i.logger.Info("seeded flight inventory", "flights", len(sample))
	return nil
}
