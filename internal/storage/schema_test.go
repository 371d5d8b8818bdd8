package storage

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableDescriptorsCoverLedger(t *testing.T) {
	names := make(map[string]tableSpec, len(tables))
	for _, table := range tables {
		names[table.Name] = table
	}

	for _, expected := range []string{
		"tracked_instruments",
		"manual_holdings",
		"crypto_wallets",
		"asset_valuations",
		"historical_rates",
	} {
		_, ok := names[expected]
		assert.True(t, ok, "missing descriptor for %s", expected)
	}

	// the append-only tables carry the shared run timestamp
	assert.Contains(t, names["asset_valuations"].Columns, "snapshot_ts")
	assert.Contains(t, names["historical_rates"].Columns, "snapshot_ts")
	assert.Contains(t, names["asset_valuations"].Columns, "run_id")
}

func TestUniqueConstraintDeclared(t *testing.T) {
	require.Len(t, uniques, 1)
	assert.Equal(t, "tracked_instruments", uniques[0].Table)
	assert.Equal(t, "ticker", uniques[0].Column)
}

func TestDescriptorsProduceIdempotentDDL(t *testing.T) {
	for _, table := range tables {
		assert.False(t, strings.Contains(table.Columns, ";"), "%s columns must be a single statement fragment", table.Name)
		assert.True(t, strings.Contains(table.Columns, "PRIMARY KEY"), "%s needs a primary key", table.Name)
	}
}
