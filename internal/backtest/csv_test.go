package backtest

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dca-backtest/internal/model"
)

func TestWriteFills(t *testing.T) {
	fills := []Fill{{
		Index:         0,
		TickIndex:     3,
		Timestamp:     1000,
		OrderID:       7,
		PlacedAt:      900,
		Side:          model.SideBuy,
		Kind:          model.KindEntry,
		Price:         95.5,
		Qty:           0.25,
		FeePaid:       0.01,
		BalanceAfter:  999.99,
		PositionAfter: 0.25,
		EquityAfter:   999.99,
	}}

	var buf bytes.Buffer
	require.NoError(t, WriteFills(&buf, fills))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, fillsHeader, rows[0])
	assert.Equal(t, "1000", rows[1][2])
	assert.Equal(t, "BUY", rows[1][5])
	assert.Equal(t, "ENTRY", rows[1][6])
	assert.Equal(t, "95.5", rows[1][8])
	assert.Equal(t, "0.25", rows[1][9])
}

func TestWriteFillsCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fills.csv")
	require.NoError(t, WriteFillsCSV(path, nil))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), "index,tick_index,timestamp")
}
