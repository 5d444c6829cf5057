package sniper

import (
	"context"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/raydium-sniper/internal/config"
	"github.com/rovshanmuradov/raydium-sniper/internal/raydium"
	"github.com/rovshanmuradov/raydium-sniper/internal/registry"
	"github.com/rovshanmuradov/raydium-sniper/internal/snipelist"
	"github.com/rovshanmuradov/raydium-sniper/internal/wallet"
)

// fakeChain is an in-memory ChainClient capturing submitted transactions.
type fakeChain struct {
	mu        sync.Mutex
	accounts  map[solana.PublicKey][]byte
	balances  map[solana.PublicKey]uint64
	sendErr   error
	sendCalls int
	lastTx    *solana.Transaction
}

func newFakeChain() *fakeChain {
	return &fakeChain{
		accounts: make(map[solana.PublicKey][]byte),
		balances: make(map[solana.PublicKey]uint64),
	}
}

func (c *fakeChain) GetAccountDataBytes(_ context.Context, account solana.PublicKey) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.accounts[account], nil
}

func (c *fakeChain) GetTokenBalance(_ context.Context, account solana.PublicKey) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if balance, ok := c.balances[account]; ok {
		return balance, nil
	}
	return 0, errors.New("balance unavailable")
}

func (c *fakeChain) LatestBlockhash(context.Context) (solana.Hash, error) {
	return solana.Hash{1}, nil
}

func (c *fakeChain) SendAndConfirm(_ context.Context, tx *solana.Transaction) (solana.Signature, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sendCalls++
	c.lastTx = tx
	if c.sendErr != nil {
		return solana.Signature{}, c.sendErr
	}
	return solana.Signature{2}, nil
}

func (c *fakeChain) calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sendCalls
}

type fakeOracle struct {
	price float64
	err   error
}

func (o *fakeOracle) GetPrice(context.Context, solana.PublicKey) (float64, error) {
	return o.price, o.err
}

type fakeApprover struct {
	approve bool
	reason  string
	calls   int
}

func (a *fakeApprover) Approve(context.Context, solana.PublicKey) (bool, string) {
	a.calls++
	return a.approve, a.reason
}

func poolAccountData(openTime uint64, baseMint, quoteMint, marketID, marketProgram solana.PublicKey) []byte {
	data := make([]byte, raydium.LiquidityStateV4Span)
	binary.LittleEndian.PutUint64(data[0:8], raydium.StatusSwapEnabled)
	binary.LittleEndian.PutUint64(data[224:232], openTime)
	copy(data[400:432], baseMint[:])
	copy(data[432:464], quoteMint[:])
	copy(data[528:560], marketID[:])
	copy(data[560:592], marketProgram[:])
	return data
}

func marketAccountData(baseMint, quoteMint solana.PublicKey) []byte {
	data := make([]byte, raydium.MarketStateV3Span)
	copy(data[53:85], baseMint[:])
	copy(data[85:117], quoteMint[:])
	copy(data[253:285], solana.PublicKey{11}.Bytes())
	copy(data[285:317], solana.PublicKey{12}.Bytes())
	copy(data[317:349], solana.PublicKey{13}.Bytes())
	return data
}

func testWallet(t *testing.T) *wallet.Wallet {
	t.Helper()
	kp := solana.NewWallet()
	w, err := wallet.New(base58.Encode(kp.PrivateKey))
	require.NoError(t, err)
	return w
}

func testConfig() *config.Config {
	levels, _ := config.ParseExitLevels("0.04:10")
	return &config.Config{
		QuoteAmount:      0.01,
		QuoteAmountRaw:   10_000_000,
		ComputeUnitLimit: 101337,
		ComputeUnitPrice: 421197,
		ExitLevels:       levels,
		Quote: config.QuoteToken{
			Symbol:   "WSOL",
			Mint:     raydium.WSOLMint,
			Decimals: 9,
		},
	}
}

func newTestSniper(t *testing.T, chain *fakeChain, oracle *fakeOracle, approver *fakeApprover) (*Sniper, *registry.Store, *TaskGroup) {
	t.Helper()

	store := registry.NewStore()
	list, err := snipelist.New("", false, zap.NewNop())
	require.NoError(t, err)
	tasks := NewTaskGroup(zap.NewNop())

	s := New(Deps{
		Config:    testConfig(),
		Wallet:    testWallet(t),
		Chain:     chain,
		Store:     store,
		Approver:  approver,
		Oracle:    oracle,
		SnipeList: list,
		Tasks:     tasks,
		QuoteATA:  solana.PublicKey{7},
		Logger:    zap.NewNop(),
	})
	return s, store, tasks
}

func TestPoolOpenTimeGate(t *testing.T) {
	chain := newFakeChain()
	approver := &fakeApprover{approve: true}
	s, store, tasks := newTestSniper(t, chain, &fakeOracle{price: 0.001}, approver)

	poolID := solana.NewWallet().PublicKey()
	stale := poolAccountData(
		uint64(time.Now().Add(-time.Hour).Unix()),
		solana.NewWallet().PublicKey(), raydium.WSOLMint,
		solana.NewWallet().PublicKey(), raydium.OpenBookProgramID)

	s.OnPoolAccount(context.Background(), poolID, stale)
	tasks.Wait()

	assert.Equal(t, 0, chain.calls())
	assert.Equal(t, 0, approver.calls)
	// a stale pool must not even enter the dedup set
	assert.True(t, store.MarkPoolSeen(poolID))
}

func TestPoolDedup(t *testing.T) {
	chain := newFakeChain()
	s, _, tasks := newTestSniper(t, chain, &fakeOracle{price: 0.001}, &fakeApprover{approve: true})

	mint := solana.NewWallet().PublicKey()
	marketID := solana.NewWallet().PublicKey()
	chain.accounts[marketID] = marketAccountData(mint, raydium.WSOLMint)

	poolID := solana.NewWallet().PublicKey()
	data := poolAccountData(
		uint64(time.Now().Add(time.Minute).Unix()),
		mint, raydium.WSOLMint, marketID, raydium.OpenBookProgramID)

	s.OnPoolAccount(context.Background(), poolID, data)
	s.OnPoolAccount(context.Background(), poolID, data)
	tasks.Wait()

	assert.Equal(t, 1, chain.calls())
}

func TestBuyFlow(t *testing.T) {
	chain := newFakeChain()
	s, store, tasks := newTestSniper(t, chain, &fakeOracle{price: 0.0025}, &fakeApprover{approve: true})

	mint := solana.NewWallet().PublicKey()
	marketID := solana.NewWallet().PublicKey()
	chain.accounts[marketID] = marketAccountData(mint, raydium.WSOLMint)

	poolID := solana.NewWallet().PublicKey()
	data := poolAccountData(
		uint64(time.Now().Add(time.Minute).Unix()),
		mint, raydium.WSOLMint, marketID, raydium.OpenBookProgramID)

	s.OnPoolAccount(context.Background(), poolID, data)
	tasks.Wait()

	require.Equal(t, 1, chain.calls())

	// compute budget x2, create ata, swap
	require.NotNil(t, chain.lastTx)
	assert.Len(t, chain.lastTx.Message.Instructions, 4)

	price, ok := store.FirstPurchasePrice(mint)
	require.True(t, ok)
	assert.Equal(t, 0.0025, price)

	record, ok := store.Lookup(mint)
	require.True(t, ok)
	require.NotNil(t, record.PoolKeys)
	assert.Equal(t, mint, record.PoolKeys.BaseMint)
	require.NotNil(t, record.Market)
	assert.Equal(t, solana.PublicKey{12}, record.Market.Bids)
}

func TestBuyAbortsWhenPriceUnresolved(t *testing.T) {
	chain := newFakeChain()
	oracle := &fakeOracle{err: context.DeadlineExceeded}
	s, store, tasks := newTestSniper(t, chain, oracle, &fakeApprover{approve: true})

	mint := solana.NewWallet().PublicKey()
	marketID := solana.NewWallet().PublicKey()
	chain.accounts[marketID] = marketAccountData(mint, raydium.WSOLMint)

	data := poolAccountData(
		uint64(time.Now().Add(time.Minute).Unix()),
		mint, raydium.WSOLMint, marketID, raydium.OpenBookProgramID)

	s.OnPoolAccount(context.Background(), solana.NewWallet().PublicKey(), data)
	tasks.Wait()

	// no reference price means no anchor for the sell ladder: no buy
	assert.Equal(t, 0, chain.calls())
	_, ok := store.FirstPurchasePrice(mint)
	assert.False(t, ok)
}

func TestSnipeListedMintStillChecked(t *testing.T) {
	chain := newFakeChain()
	approver := &fakeApprover{approve: false, reason: "mint_authority"}

	mint := solana.NewWallet().PublicKey()
	path := filepath.Join(t.TempDir(), "snipe-list.txt")
	require.NoError(t, os.WriteFile(path, []byte(mint.String()+"\n"), 0o600))
	list, err := snipelist.New(path, true, zap.NewNop())
	require.NoError(t, err)

	tasks := NewTaskGroup(zap.NewNop())
	s := New(Deps{
		Config:    testConfig(),
		Wallet:    testWallet(t),
		Chain:     chain,
		Store:     registry.NewStore(),
		Approver:  approver,
		Oracle:    &fakeOracle{price: 0.001},
		SnipeList: list,
		Tasks:     tasks,
		QuoteATA:  solana.PublicKey{7},
		Logger:    zap.NewNop(),
	})

	data := poolAccountData(
		uint64(time.Now().Add(time.Minute).Unix()),
		mint, raydium.WSOLMint,
		solana.NewWallet().PublicKey(), raydium.OpenBookProgramID)

	s.OnPoolAccount(context.Background(), solana.NewWallet().PublicKey(), data)
	tasks.Wait()

	// the list narrows discovery; it never vouches for a mint
	assert.Equal(t, 1, approver.calls)
	assert.Equal(t, 0, chain.calls())
}

func TestRejectedMintIsNotBought(t *testing.T) {
	chain := newFakeChain()
	approver := &fakeApprover{approve: false, reason: "mint_authority"}
	s, _, tasks := newTestSniper(t, chain, &fakeOracle{price: 0.001}, approver)

	data := poolAccountData(
		uint64(time.Now().Add(time.Minute).Unix()),
		solana.NewWallet().PublicKey(), raydium.WSOLMint,
		solana.NewWallet().PublicKey(), raydium.OpenBookProgramID)

	s.OnPoolAccount(context.Background(), solana.NewWallet().PublicKey(), data)
	tasks.Wait()

	assert.Equal(t, 1, approver.calls)
	assert.Equal(t, 0, chain.calls())
}

func TestMinPoolSizeGate(t *testing.T) {
	chain := newFakeChain()
	approver := &fakeApprover{approve: true}
	s, _, tasks := newTestSniper(t, chain, &fakeOracle{price: 0.001}, approver)
	s.cfg.MinPoolSizeRaw = 5_000_000_000

	// SwapQuoteInAmount stays zero in the synthetic account data, below
	// the configured minimum.
	data := poolAccountData(
		uint64(time.Now().Add(time.Minute).Unix()),
		solana.NewWallet().PublicKey(), raydium.WSOLMint,
		solana.NewWallet().PublicKey(), raydium.OpenBookProgramID)

	s.OnPoolAccount(context.Background(), solana.NewWallet().PublicKey(), data)
	tasks.Wait()

	assert.Equal(t, 0, approver.calls)
	assert.Equal(t, 0, chain.calls())
}

func TestOnMarketAccountRecordsLeg(t *testing.T) {
	chain := newFakeChain()
	s, store, _ := newTestSniper(t, chain, &fakeOracle{price: 0.001}, &fakeApprover{approve: true})

	mint := solana.NewWallet().PublicKey()
	marketID := solana.NewWallet().PublicKey()

	s.OnMarketAccount(context.Background(), marketID, marketAccountData(mint, raydium.WSOLMint))

	record, ok := store.Lookup(mint)
	require.True(t, ok)
	require.NotNil(t, record.Market)
	assert.Equal(t, solana.PublicKey{11}, record.Market.EventQueue)
	assert.Equal(t, solana.PublicKey{12}, record.Market.Bids)
	assert.Equal(t, solana.PublicKey{13}, record.Market.Asks)
	assert.False(t, record.ATA.IsZero())
}
