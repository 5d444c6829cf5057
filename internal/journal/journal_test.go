package journal

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestJournalRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trades.db")

	j, err := Open(path, zap.NewNop())
	require.NoError(t, err)
	defer j.Close()

	j.RecordBuy("mint-1", "pool-1", 0.5, 0.01, "sig-buy")
	j.RecordSell("mint-1", 100, 0.55, 0.1, 0.04, "sig-sell")
	j.RecordPriceMark("mint-1", 0.52)

	var buys, sells, marks int
	require.NoError(t, j.db.QueryRow(`SELECT COUNT(*) FROM buys`).Scan(&buys))
	require.NoError(t, j.db.QueryRow(`SELECT COUNT(*) FROM sells`).Scan(&sells))
	require.NoError(t, j.db.QueryRow(`SELECT COUNT(*) FROM price_marks`).Scan(&marks))

	assert.Equal(t, 1, buys)
	assert.Equal(t, 1, sells)
	assert.Equal(t, 1, marks)

	var mint string
	var price float64
	require.NoError(t, j.db.QueryRow(`SELECT mint, price FROM buys`).Scan(&mint, &price))
	assert.Equal(t, "mint-1", mint)
	assert.Equal(t, 0.5, price)
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trades.db")

	j, err := Open(path, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, j.Close())

	// reopening an existing journal must not fail on schema creation
	j, err = Open(path, zap.NewNop())
	require.NoError(t, err)
	assert.NoError(t, j.Close())
}
