package registry

import (
	"sync"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rovshanmuradov/raydium-sniper/internal/raydium"
)

func testMarket() *raydium.MinimalMarket {
	return &raydium.MinimalMarket{
		Bids:       solana.NewWallet().PublicKey(),
		Asks:       solana.NewWallet().PublicKey(),
		EventQueue: solana.NewWallet().PublicKey(),
	}
}

func TestMarkPoolSeen_Idempotent(t *testing.T) {
	store := NewStore()
	key := solana.NewWallet().PublicKey()

	assert.True(t, store.MarkPoolSeen(key))
	assert.False(t, store.MarkPoolSeen(key))
	assert.False(t, store.MarkPoolSeen(key))

	// market set is independent
	assert.True(t, store.MarkMarketSeen(key))
	assert.False(t, store.MarkMarketSeen(key))
}

func TestMarkPoolSeen_Concurrent(t *testing.T) {
	store := NewStore()
	key := solana.NewWallet().PublicKey()

	const goroutines = 32
	var wg sync.WaitGroup
	winners := make(chan struct{}, goroutines)

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if store.MarkPoolSeen(key) {
				winners <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(winners)

	count := 0
	for range winners {
		count++
	}
	assert.Equal(t, 1, count, "exactly one goroutine may win the seen gate")
}

func TestRecordMarket_FirstWriterWins(t *testing.T) {
	store := NewStore()
	mint := solana.NewWallet().PublicKey()
	ata := solana.NewWallet().PublicKey()

	first := testMarket()
	second := testMarket()

	record := store.RecordMarket(mint, ata, first)
	assert.Equal(t, first, record.Market)

	record = store.RecordMarket(mint, ata, second)
	assert.Equal(t, first, record.Market, "second market event must not overwrite the first")
}

func TestAttachPoolKeys_UntrackedMint(t *testing.T) {
	store := NewStore()
	err := store.AttachPoolKeys(solana.NewWallet().PublicKey(), &raydium.PoolKeys{})
	assert.Error(t, err)
}

func TestPurchasePrices(t *testing.T) {
	store := NewStore()
	mint := solana.NewWallet().PublicKey()

	_, ok := store.FirstPurchasePrice(mint)
	assert.False(t, ok)

	err := store.RecordPurchasePrice(mint, 1.0)
	assert.Error(t, err, "untracked mint cannot record a price")

	store.RecordMarket(mint, solana.NewWallet().PublicKey(), testMarket())
	require.NoError(t, store.RecordPurchasePrice(mint, 1.0))
	require.NoError(t, store.RecordPurchasePrice(mint, 1.2))

	price, ok := store.FirstPurchasePrice(mint)
	require.True(t, ok)
	assert.Equal(t, 1.0, price, "sell reference is the first recorded price")
}

func TestLookup_Snapshot(t *testing.T) {
	store := NewStore()
	mint := solana.NewWallet().PublicKey()
	store.RecordMarket(mint, solana.NewWallet().PublicKey(), testMarket())
	require.NoError(t, store.RecordPurchasePrice(mint, 1.0))

	snapshot, ok := store.Lookup(mint)
	require.True(t, ok)
	require.Len(t, snapshot.PurchasePrices, 1)

	require.NoError(t, store.RecordPurchasePrice(mint, 2.0))
	assert.Len(t, snapshot.PurchasePrices, 1, "snapshot must not see later appends")

	_, ok = store.Lookup(solana.NewWallet().PublicKey())
	assert.False(t, ok)
}
