package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // registers the "sqlite" database/sql driver
)

// schema is applied on every open. CREATE TABLE IF NOT EXISTS makes
// initialization idempotent against an already-populated database.
const schema = `
CREATE TABLE IF NOT EXISTS readings (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	temperature REAL,
	humidity    REAL,
	timestamp   DATETIME NOT NULL
)`

// SQLite is the durable [Store] implementation backed by a single SQLite
// database file.
//
// Writes go through a single connection (SQLite allows only one writer at
// a time; funnelling all access through one connection avoids SQLITE_BUSY
// under concurrent ingestion). WAL journaling keeps readers from blocking
// the writer.
type SQLite struct {
	db *sql.DB
}

// Open opens (creating if necessary) the database at path and ensures the
// readings schema exists. Opening an already-initialized database is safe
// and loses no data.
//
// Use ":memory:" for an ephemeral in-process database.
func Open(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database %q: %w", path, err)
	}

	// single logical writer queue
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`PRAGMA journal_mode=WAL`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set journal mode: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	return &SQLite{db: db}, nil
}

// Insert persists one reading with a server-assigned id and UTC timestamp.
func (s *SQLite) Insert(ctx context.Context, temperature, humidity *float64) (Reading, error) {
	now := time.Now().UTC()

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO readings (temperature, humidity, timestamp) VALUES (?, ?, ?)`,
		temperature, humidity, now,
	)
	if err != nil {
		return Reading{}, fmt.Errorf("insert reading: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return Reading{}, fmt.Errorf("resolve reading id: %w", err)
	}

	return Reading{
		ID:          id,
		Temperature: temperature,
		Humidity:    humidity,
		Timestamp:   now,
	}, nil
}

// ListAll returns every stored reading, most recent first. Ties on
// timestamp break by id descending.
func (s *SQLite) ListAll(ctx context.Context) ([]Reading, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, temperature, humidity, timestamp
		 FROM readings
		 ORDER BY timestamp DESC, id DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list readings: %w", err)
	}
	defer rows.Close()

	// non-nil so an empty store serializes as [] rather than null
	readings := make([]Reading, 0, 64)
	for rows.Next() {
		var r Reading
		if err := rows.Scan(&r.ID, &r.Temperature, &r.Humidity, &r.Timestamp); err != nil {
			return nil, fmt.Errorf("scan reading: %w", err)
		}
		readings = append(readings, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate readings: %w", err)
	}

	return readings, nil
}

// Latest returns the single most recent reading, or (nil, nil) on an
// empty store.
func (s *SQLite) Latest(ctx context.Context) (*Reading, error) {
	var r Reading
	err := s.db.QueryRowContext(ctx,
		`SELECT id, temperature, humidity, timestamp
		 FROM readings
		 ORDER BY timestamp DESC, id DESC
		 LIMIT 1`,
	).Scan(&r.ID, &r.Temperature, &r.Humidity, &r.Timestamp)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query latest reading: %w", err)
	}
	return &r, nil
}

// Close closes the underlying database handle.
func (s *SQLite) Close() error {
	return s.db.Close()
}
