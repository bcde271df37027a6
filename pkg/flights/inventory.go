package flights

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	_ "modernc.org/sqlite"
)

// DefaultDSN is a process-local in-memory database.
const DefaultDSN = "file:gflights?mode=memory&cache=shared"

// Config controls how the inventory database is opened.
type Config struct {
	DSN    string
	Seed   bool
	Logger *slog.Logger
}

// Inventory is the SQLite-backed flight catalogue.
type Inventory struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open connects to the database, creates the schema and optionally seeds
// the sample flights when the table is empty.
func Open(ctx context.Context, cfg Config) (*Inventory, error) {
	dsn := cfg.DSN
	if strings.TrimSpace(dsn) == "" {
		dsn = DefaultDSN
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open flights db: %w", err)
	}
	// A single connection keeps in-memory databases alive and serialises writers.
	db.SetMaxOpenConns(1)

	inv, err := New(ctx, db, cfg.Logger)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if cfg.Seed {
		if err := inv.seedIfEmpty(ctx); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	return inv, nil
}

// New wraps an open database and runs migrations.
func New(ctx context.Context, db *sql.DB, logger *slog.Logger) (*Inventory, error) {
	if logger == nil {
		logger = slog.Default()
	}
	inv := &Inventory{db: db, logger: logger}
	if err := inv.migrate(ctx); err != nil {
		return nil, err
	}
	return inv, nil
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS flights (
		id INTEGER PRIMARY KEY,
		origin TEXT NOT NULL,
		destination TEXT NOT NULL,
		departure_date TEXT NOT NULL,
		departure_time TEXT NOT NULL,
		arrival_date TEXT NOT NULL,
		arrival_time TEXT NOT NULL,
		airline TEXT NOT NULL,
		economy_price REAL NOT NULL,
		business_price REAL NOT NULL,
		first_class_price REAL NOT NULL,
		economy_seats INTEGER NOT NULL DEFAULT 0,
		business_seats INTEGER NOT NULL DEFAULT 0,
		first_class_seats INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE INDEX IF NOT EXISTS idx_flights_route ON flights (origin, destination, departure_date)`,
	`CREATE TABLE IF NOT EXISTS bookings (
		booking_id TEXT PRIMARY KEY,
		flight_id INTEGER NOT NULL REFERENCES flights(id),
		seat_type TEXT NOT NULL,
		num_seats INTEGER NOT NULL,
		total_cost REAL NOT NULL,
		created_at DATETIME NOT NULL
	)`,
}

func (i *Inventory) migrate(ctx context.Context) error {
	for _, query := range migrations {
		if _, err := i.db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("migrate flights db: %w", err)
		}
	}
	return nil
}

// Close releases the database.
func (i *Inventory) Close() error {
	return i.db.Close()
}

const flightColumns = `id, origin, destination, departure_date, departure_time, arrival_date, arrival_time, airline,
	economy_price, business_price, first_class_price, economy_seats, business_seats, first_class_seats`

// Insert stores flights; a zero ID lets the database assign one.
func (i *Inventory) Insert(ctx context.Context, flights ...Flight) error {
	tx, err := i.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO flights (`+flightColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer func() { _ = stmt.Close() }()

	for _, f := range flights {
		var id any
		if f.ID != 0 {
			id = f.ID
		}
		if _, err := stmt.ExecContext(ctx, id,
			strings.ToUpper(f.Origin), strings.ToUpper(f.Destination), f.DepartureDate, f.DepartureTime,
			f.ArrivalDate, f.ArrivalTime, f.Airline,
			f.EconomyPrice, f.BusinessPrice, f.FirstClassPrice,
			f.EconomySeats, f.BusinessSeats, f.FirstClassSeats,
		); err != nil {
			return fmt.Errorf("failed to insert flight: %w", err)
		}
	}
	return tx.Commit()
}

// Count returns the number of flights in the inventory.
func (i *Inventory) Count(ctx context.Context) (int, error) {
	var n int
	err := i.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM flights`).Scan(&n)
	return n, err
}

type rowQuerier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// lookup returns a flight by id, or nil when it does not exist.
func lookup(ctx context.Context, q rowQuerier, id int) (*Flight, error) {
	f, err := scanFlight(q.QueryRowContext(ctx, `SELECT `+flightColumns+` FROM flights WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return f, err
}

// Search lists flights on the route and date whose fare in the requested
// cabin is below MaxCost and which still have seats in that cabin.
// Airport codes match case-insensitively. An unknown seat type matches nothing.
func (i *Inventory) Search(ctx context.Context, p SearchParams) ([]Flight, error) {
	cols, ok := seatColumns[p.SeatType.normalize()]
	if !ok {
		i.logger.Debug("search with unknown seat type", "seat_type", p.SeatType)
		return []Flight{}, nil
	}

	query := `SELECT ` + flightColumns + ` FROM flights
		WHERE origin = ? COLLATE NOCASE
		AND destination = ? COLLATE NOCASE
		AND departure_date = ?
		AND ` + cols[0] + ` < ?
		AND ` + cols[1] + ` > 0
		ORDER BY departure_time, id`
	rows, err := i.db.QueryContext(ctx, query,
		strings.TrimSpace(p.Origin), strings.TrimSpace(p.Destination), strings.TrimSpace(p.DepartureDate), float64(p.MaxCost))
	if err != nil {
		return nil, fmt.Errorf("search flights: %w", err)
	}
	defer func() { _ = rows.Close() }()

	flights := []Flight{}
	for rows.Next() {
		f, err := scanFlight(rows)
		if err != nil {
			return nil, err
		}
		flights = append(flights, *f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return flights, nil
}

// Book reserves seats on a flight. It returns a nil booking, without error,
// when the flight does not exist, the seat type is unknown, or too few seats
// remain.
func (i *Inventory) Book(ctx context.Context, p BookParams) (*Booking, error) {
	seat := p.SeatType.normalize()
	cols, ok := seatColumns[seat]
	if !ok {
		return nil, nil
	}
	n := p.NumSeats
	if n <= 0 {
		n = 1
	}

	tx, err := i.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	f, err := lookup(ctx, tx, p.FlightID)
	if err != nil {
		return nil, err
	}
	if f == nil {
		i.logger.Debug("booking unknown flight", "flight_id", p.FlightID)
		return nil, nil
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE flights SET `+cols[1]+` = `+cols[1]+` - ? WHERE id = ? AND `+cols[1]+` >= ?`, n, p.FlightID, n)
	if err != nil {
		return nil, fmt.Errorf("reserve seats: %w", err)
	}
	if affected, err := res.RowsAffected(); err != nil {
		return nil, err
	} else if affected == 0 {
		i.logger.Debug("not enough seats", "flight_id", p.FlightID, "seat_type", seat, "requested", n)
		return nil, nil
	}

	price, _ := f.Price(seat)
	b := &Booking{
		BookingID:     uuid.NewString(),
		FlightID:      f.ID,
		Airline:       f.Airline,
		Origin:        f.Origin,
		Destination:   f.Destination,
		DepartureDate: f.DepartureDate,
		DepartureTime: f.DepartureTime,
		SeatType:      seat,
		NumSeats:      n,
		TotalCost:     price * float64(n),
		Status:        "confirmed",
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO bookings (booking_id, flight_id, seat_type, num_seats, total_cost, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		b.BookingID, b.FlightID, string(b.SeatType), b.NumSeats, b.TotalCost, time.Now().UTC().Format(time.RFC3339Nano),
	); err != nil {
		return nil, fmt.Errorf("failed to insert booking: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return b, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFlight(row rowScanner) (*Flight, error) {
	var f Flight
	err := row.Scan(&f.ID, &f.Origin, &f.Destination, &f.DepartureDate, &f.DepartureTime,
		&f.ArrivalDate, &f.ArrivalTime, &f.Airline,
		&f.EconomyPrice, &f.BusinessPrice, &f.FirstClassPrice,
		&f.EconomySeats, &f.BusinessSeats, &f.FirstClassSeats)
	if err != nil {
		return nil, err
	}
	return &f, nil
}
