package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/portfolio-snapshot/internal/models"
)

// InstrumentRepository handles tracked conversion instrument persistence
type InstrumentRepository struct {
	db *PostgresDB
}

// NewInstrumentRepository creates a new instrument repository
func NewInstrumentRepository(db *PostgresDB) *InstrumentRepository {
	return &InstrumentRepository{db: db}
}

// Upsert creates or updates an instrument keyed by its ticker
func (r *InstrumentRepository) Upsert(ctx context.Context, instrument *models.TrackedInstrument) error {
	query := `
		INSERT INTO tracked_instruments (index_name, ticker, from_currency, to_currency)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (ticker)
		DO UPDATE SET
			index_name = EXCLUDED.index_name,
			from_currency = EXCLUDED.from_currency,
			to_currency = EXCLUDED.to_currency
	`

	_, err := r.db.Pool().Exec(ctx, query,
		instrument.Name,
		instrument.Ticker,
		instrument.FromCurrency,
		instrument.ToCurrency,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert instrument %s: %w", instrument.Ticker, err)
	}
	return nil
}

// SeedRegistry upserts the curated instrument registry. Re-running converges
// on the seed definitions without duplicating rows.
func (r *InstrumentRepository) SeedRegistry(ctx context.Context) error {
	for i := range models.SeedInstruments {
		if err := r.Upsert(ctx, &models.SeedInstruments[i]); err != nil {
			return err
		}
	}
	return nil
}

// FindConversion retrieves the instrument converting one currency to another.
// Returns nil without error when no instrument exists for the pair.
func (r *InstrumentRepository) FindConversion(ctx context.Context, fromCurrency, toCurrency string) (*models.TrackedInstrument, error) {
	query := `
		SELECT id, index_name, ticker, from_currency, to_currency
		FROM tracked_instruments
		WHERE from_currency = $1 AND to_currency = $2
	`

	var instrument models.TrackedInstrument
	err := r.db.Pool().QueryRow(ctx, query, fromCurrency, toCurrency).Scan(
		&instrument.ID,
		&instrument.Name,
		&instrument.Ticker,
		&instrument.FromCurrency,
		&instrument.ToCurrency,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find conversion instrument: %w", err)
	}
	return &instrument, nil
}

// ListInstruments retrieves every tracked instrument
func (r *InstrumentRepository) ListInstruments(ctx context.Context) ([]models.TrackedInstrument, error) {
	query := `
		SELECT id, index_name, ticker, from_currency, to_currency
		FROM tracked_instruments
		ORDER BY ticker
	`

	rows, err := r.db.Pool().Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list instruments: %w", err)
	}
	defer rows.Close()

	var instruments []models.TrackedInstrument
	for rows.Next() {
		var instrument models.TrackedInstrument
		err := rows.Scan(
			&instrument.ID,
			&instrument.Name,
			&instrument.Ticker,
			&instrument.FromCurrency,
			&instrument.ToCurrency,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan instrument: %w", err)
		}
		instruments = append(instruments, instrument)
	}
	return instruments, rows.Err()
}
