package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/portfolio-snapshot/internal/logging"
)

// tableSpec is a compile-time table descriptor. Setup issues idempotent DDL
// from these, so a fresh database needs no out-of-band migration step.
type tableSpec struct {
	Name    string
	Columns string
}

// uniqueSpec names a single-column unique constraint to enforce after the
// tables exist
type uniqueSpec struct {
	Table  string
	Column string
}

var tables = []tableSpec{
	{
		Name: "tracked_instruments",
		Columns: `
			id BIGSERIAL PRIMARY KEY,
			index_name VARCHAR(255),
			ticker VARCHAR(255) UNIQUE,
			from_currency VARCHAR(10),
			to_currency VARCHAR(10)`,
	},
	{
		Name: "manual_holdings",
		Columns: `
			id BIGSERIAL PRIMARY KEY,
			platform VARCHAR(255),
			account_wallet VARCHAR(255),
			asset_type VARCHAR(255),
			asset_name VARCHAR(255),
			ticker VARCHAR(255),
			amount NUMERIC,
			native_currency VARCHAR(10)`,
	},
	{
		Name: "crypto_wallets",
		Columns: `
			id BIGSERIAL PRIMARY KEY,
			account_wallet VARCHAR(255),
			platform VARCHAR(255),
			alias VARCHAR(255)`,
	},
	{
		Name: "asset_valuations",
		Columns: `
			id BIGSERIAL PRIMARY KEY,
			platform VARCHAR(255),
			account_wallet VARCHAR(255),
			asset_type VARCHAR(255),
			asset_name VARCHAR(255),
			ticker VARCHAR(255),
			amount NUMERIC,
			native_currency VARCHAR(10),
			native_price NUMERIC,
			usd_price NUMERIC,
			total_native NUMERIC,
			total_usd NUMERIC,
			snapshot_ts TIMESTAMPTZ,
			run_id UUID`,
	},
	{
		Name: "historical_rates",
		Columns: `
			id BIGSERIAL PRIMARY KEY,
			ticker VARCHAR(255),
			price NUMERIC,
			snapshot_ts TIMESTAMPTZ,
			run_id UUID`,
	},
}

var uniques = []uniqueSpec{
	{Table: "tracked_instruments", Column: "ticker"},
}

// Setup creates the schema if it does not exist and enforces the declared
// unique constraints. Safe to run on every startup.
func Setup(ctx context.Context, db *PostgresDB) error {
	logger := logging.FromContext(ctx)

	for _, table := range tables {
		query := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", table.Name, table.Columns)
		if _, err := db.Pool().Exec(ctx, query); err != nil {
			return fmt.Errorf("failed to create table %s: %w", table.Name, err)
		}
		logger.WithField("table", table.Name).Debug("Table created or already exists")
	}

	for _, unique := range uniques {
		if err := ensureUniqueConstraint(ctx, db, unique); err != nil {
			return err
		}
	}
	return nil
}

// ensureUniqueConstraint adds a unique constraint if missing. If the existing
// data violates it, duplicate rows are collapsed to the oldest one and the
// constraint is retried once.
func ensureUniqueConstraint(ctx context.Context, db *PostgresDB, spec uniqueSpec) error {
	logger := logging.FromContext(ctx).WithFields(map[string]interface{}{
		"table":  spec.Table,
		"column": spec.Column,
	})

	constraintName := fmt.Sprintf("unique_%s", spec.Column)

	var existing string
	err := db.Pool().QueryRow(ctx, `
		SELECT constraint_name
		FROM information_schema.table_constraints
		WHERE table_name = $1
		  AND constraint_type = 'UNIQUE'
		  AND constraint_name = $2`,
		spec.Table, constraintName,
	).Scan(&existing)
	if err == nil {
		logger.Debug("Unique constraint already exists")
		return nil
	}

	addConstraint := fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s UNIQUE (%s)", spec.Table, constraintName, spec.Column)
	_, err = db.Pool().Exec(ctx, addConstraint)
	if err == nil {
		logger.Info("Added unique constraint")
		return nil
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "23505" {
		return fmt.Errorf("failed to add unique constraint on %s.%s: %w", spec.Table, spec.Column, err)
	}

	logger.Warn("Existing duplicates block the unique constraint, cleaning up")
	dedup := fmt.Sprintf(`
		DELETE FROM %[1]s a USING (
			SELECT MIN(ctid) as ctid, %[2]s
			FROM %[1]s
			GROUP BY %[2]s HAVING COUNT(*) > 1
		) b
		WHERE a.%[2]s = b.%[2]s
		AND a.ctid <> b.ctid`, spec.Table, spec.Column)
	if _, err := db.Pool().Exec(ctx, dedup); err != nil {
		return fmt.Errorf("failed to remove duplicates from %s: %w", spec.Table, err)
	}

	if _, err := db.Pool().Exec(ctx, addConstraint); err != nil {
		return fmt.Errorf("failed to add unique constraint after dedup on %s.%s: %w", spec.Table, spec.Column, err)
	}
	logger.Info("Duplicates removed and unique constraint added")
	return nil
}
