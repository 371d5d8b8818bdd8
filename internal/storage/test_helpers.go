package storage

import (
	"context"
	"os"
	"testing"
	"time"
)

// testContext creates a context with timeout for tests
func testContext(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// testDB connects to the database named by TEST_DATABASE_URL, skipping the
// test when no database is available
func testDB(t *testing.T) *PostgresDB {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("Skipping integration test - TEST_DATABASE_URL not set")
	}

	db, err := NewPostgresDB(url, 5)
	if err != nil {
		t.Skipf("Skipping test - Postgres not available: %v", err)
	}
	t.Cleanup(db.Close)
	return db
}
