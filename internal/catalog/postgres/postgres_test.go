package postgres_test

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/MrWong99/flightdesk/internal/catalog"
	"github.com/MrWong99/flightdesk/internal/catalog/postgres"
)

// testDSN returns the test database DSN from the environment, or skips the
// test if FLIGHTDESK_TEST_POSTGRES_DSN is not set.
func testDSN(t *testing.T) string {
	t.Helper()
	dsn := os.Getenv("FLIGHTDESK_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("FLIGHTDESK_TEST_POSTGRES_DSN not set, skipping PostgreSQL integration tests")
	}
	return dsn
}

func TestLoad_ActiveRowsOnly(t *testing.T) {
	dsn := testDSN(t)
	ctx := context.Background()

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("pool: %v", err)
	}
	t.Cleanup(pool.Close)

	if _, err := pool.Exec(ctx, `DROP TABLE IF EXISTS airports`); err != nil {
		t.Fatalf("drop: %v", err)
	}
	if err := postgres.Migrate(ctx, pool); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	if _, err := pool.Exec(ctx, `
		INSERT INTO airports (code, city, country, aliases, active) VALUES
		('BUF', 'Buffalo', 'US', '{"buffalo niagara"}', TRUE),
		('XXX', 'Closed Field', 'US', '{}', FALSE)`); err != nil {
		t.Fatalf("insert: %v", err)
	}

	cities, err := postgres.Load(ctx, dsn)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cities) != 1 || cities[0].Code != "BUF" || cities[0].Aliases[0] != "buffalo niagara" {
		t.Fatalf("cities = %+v", cities)
	}

	cat, err := catalog.New(catalog.Merge(catalog.Defaults(), cities))
	if err != nil {
		t.Fatalf("catalog.New: %v", err)
	}
	if m, ok := cat.Lookup("buffalo niagara"); !ok || m.City.Code != "BUF" {
		t.Errorf("Lookup alias = %+v, %v", m, ok)
	}
}
