// Package testutil starts a throwaway Postgres for integration tests.
package testutil

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/PrintMyStudios/EcomProfitCalculator-sub001/internal/database"
)

// appTables are reset by Truncate.
var appTables = []string{"calculation_snapshots"}

// TestDB is a migrated Postgres container plus a pool connected to it. One
// TestDB is shared by a package's tests through TestMain:
//
//	func TestMain(m *testing.M) {
//	    var code int
//	    defer func() { os.Exit(code) }()
//
//	    db, err := testutil.SetupTestDB()
//	    if err != nil { log.Fatal(err) }
//	    defer db.Close()
//	    testDB = db
//
//	    code = m.Run()
//	}
type TestDB struct {
	Pool      *pgxpool.Pool
	container testcontainers.Container
	connStr   string
}

// SetupTestDB starts the container and applies the embedded migrations.
func SetupTestDB() (*TestDB, error) {
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("profitcalc_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("starting postgres container: %w", err)
	}

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		container.Terminate(ctx)
		return nil, fmt.Errorf("getting connection string: %w", err)
	}

	if err := database.Migrate(connStr); err != nil {
		container.Terminate(ctx)
		return nil, err
	}

	pool, err := database.Connect(ctx, connStr)
	if err != nil {
		container.Terminate(ctx)
		return nil, err
	}

	return &TestDB{Pool: pool, container: container, connStr: connStr}, nil
}

// Close closes the pool and stops the container.
func (tdb *TestDB) Close() {
	if tdb.Pool != nil {
		tdb.Pool.Close()
	}
	if tdb.container != nil {
		tdb.container.Terminate(context.Background())
	}
}

// Truncate empties every application table. Call it at the start of each
// test.
func (tdb *TestDB) Truncate(t *testing.T) {
	t.Helper()
	_, err := tdb.Pool.Exec(context.Background(), "TRUNCATE "+strings.Join(appTables, ", "))
	if err != nil {
		t.Fatalf("truncating tables: %v", err)
	}
}

// ConnString returns the container's connection string, for tests that
// drive migrations themselves.
func (tdb *TestDB) ConnString() string {
	return tdb.connStr
}
