// Package postgres loads the city catalog from a PostgreSQL reference table.
//
// The table is read once at startup; the resulting [catalog.Catalog] is
// immutable. Booking state is never written to the database.
//
// Usage:
//
//	cities, err := postgres.Load(ctx, dsn)
//	if err != nil { … }
//	cat, err := catalog.New(catalog.Merge(catalog.Defaults(), cities))
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/MrWong99/flightdesk/internal/catalog"
)

const ddlAirports = `
CREATE TABLE IF NOT EXISTS airports (
    code     CHAR(3)  PRIMARY KEY,
    city     TEXT     NOT NULL,
    country  TEXT     NOT NULL DEFAULT '',
    aliases  TEXT[]   NOT NULL DEFAULT '{}',
    active   BOOLEAN  NOT NULL DEFAULT TRUE
);
`

const queryAirports = `
SELECT code, city, country, aliases
FROM   airports
WHERE  active
ORDER  BY city, code`

// Load connects to dsn, ensures the airports table exists, and returns every
// active row as a catalog.City.
func Load(ctx context.Context, dsn string) ([]catalog.City, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("catalog postgres: create pool: %w", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("catalog postgres: ping: %w", err)
	}
	if err := Migrate(ctx, pool); err != nil {
		return nil, err
	}
	return LoadFrom(ctx, pool)
}

// Migrate creates the airports table if it does not exist.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, ddlAirports); err != nil {
		return fmt.Errorf("catalog postgres: migrate: %w", err)
	}
	return nil
}

// LoadFrom reads every active airport row using an existing pool.
func LoadFrom(ctx context.Context, pool *pgxpool.Pool) ([]catalog.City, error) {
	rows, err := pool.Query(ctx, queryAirports)
	if err != nil {
		return nil, fmt.Errorf("catalog postgres: query: %w", err)
	}
	cities, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (catalog.City, error) {
		var c catalog.City
		if err := row.Scan(&c.Code, &c.Name, &c.Country, &c.Aliases); err != nil {
			return catalog.City{}, err
		}
		return c, nil
	})
	if err != nil {
		return nil, fmt.Errorf("catalog postgres: scan rows: %w", err)
	}
	return cities, nil
}
