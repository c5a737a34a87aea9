package backtest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedgerAppend(t *testing.T) {
	l := NewLedger(2)
	require.NoError(t, l.Append(Fill{Timestamp: 10}))
	require.NoError(t, l.Append(Fill{Timestamp: 10}))
	require.NoError(t, l.Append(Fill{Timestamp: 20}))

	err := l.Append(Fill{Timestamp: 15})
	assert.ErrorIs(t, err, ErrOutOfOrder)
	assert.Equal(t, 3, l.Len())

	for i, f := range l.Fills() {
		assert.Equal(t, i, f.Index)
	}
}
