// internal/sniper/sniper.go
package sniper

import (
	"context"
	"time"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/raydium-sniper/internal/config"
	"github.com/rovshanmuradov/raydium-sniper/internal/journal"
	"github.com/rovshanmuradov/raydium-sniper/internal/notify"
	"github.com/rovshanmuradov/raydium-sniper/internal/raydium"
	"github.com/rovshanmuradov/raydium-sniper/internal/registry"
	"github.com/rovshanmuradov/raydium-sniper/internal/snipelist"
	"github.com/rovshanmuradov/raydium-sniper/internal/wallet"
)

// PriceOracle resolves a token's price in SOL.
type PriceOracle interface {
	GetPrice(ctx context.Context, mint solana.PublicKey) (float64, error)
}

// Approver decides whether a discovered mint may be bought. The second
// return value names the check that rejected it.
type Approver interface {
	Approve(ctx context.Context, mint solana.PublicKey) (bool, string)
}

// Sniper coordinates discovery, eligibility and the buy path. Pool and
// market notifications arrive on the listener goroutines; processing
// beyond the dedup gate runs on the task group.
type Sniper struct {
	cfg       *config.Config
	wallet    *wallet.Wallet
	chain     ChainClient
	store     *registry.Store
	approver  Approver
	oracle    PriceOracle
	snipeList *snipelist.List
	journal   *journal.Journal
	notifier  *notify.Notifier
	tasks     *TaskGroup
	logger    *zap.Logger

	quoteATA  solana.PublicKey
	startTime time.Time
}

// Deps bundles the sniper's collaborators.
type Deps struct {
	Config    *config.Config
	Wallet    *wallet.Wallet
	Chain     ChainClient
	Store     *registry.Store
	Approver  Approver
	Oracle    PriceOracle
	SnipeList *snipelist.List
	Journal   *journal.Journal
	Notifier  *notify.Notifier
	Tasks     *TaskGroup
	QuoteATA  solana.PublicKey
	Logger    *zap.Logger
}

// New creates a sniper. Pools whose open time predates this call are
// treated as pre-existing and ignored.
func New(d Deps) *Sniper {
	return &Sniper{
		cfg:       d.Config,
		wallet:    d.Wallet,
		chain:     d.Chain,
		store:     d.Store,
		approver:  d.Approver,
		oracle:    d.Oracle,
		snipeList: d.SnipeList,
		journal:   d.Journal,
		notifier:  d.Notifier,
		tasks:     d.Tasks,
		quoteATA:  d.QuoteATA,
		logger:    d.Logger.Named("sniper"),
		startTime: time.Now(),
	}
}

// OnPoolAccount handles a Raydium pool account notification. The open-time
// and dedup gates run synchronously on the listener goroutine so duplicate
// notifications can never race past them; everything after is dispatched
// to the task group.
func (s *Sniper) OnPoolAccount(ctx context.Context, poolID solana.PublicKey, data []byte) {
	state, err := raydium.DecodeLiquidityStateV4(data)
	if err != nil {
		s.logger.Debug("skipping undecodable pool account",
			zap.String("pool", poolID.String()),
			zap.Error(err))
		return
	}

	// Existing pools are re-announced on every swap; only pools opened
	// after this process started are new listings.
	if int64(state.PoolOpenTime) <= s.startTime.Unix() {
		return
	}
	if !s.store.MarkPoolSeen(poolID) {
		return
	}

	s.logger.Info("new pool detected",
		zap.String("pool", poolID.String()),
		zap.String("mint", state.BaseMint.String()),
		zap.Uint64("open_time", state.PoolOpenTime))

	s.tasks.Go("process_pool", func() {
		s.processPool(ctx, poolID, state)
	})
}

// OnMarketAccount handles an OpenBook market account notification. Market
// data is recorded first-writer-wins so the pool leg can correlate it by
// base mint without another RPC round trip.
func (s *Sniper) OnMarketAccount(ctx context.Context, marketID solana.PublicKey, data []byte) {
	if !s.store.MarkMarketSeen(marketID) {
		return
	}

	state, err := raydium.DecodeMarketStateV3(data)
	if err != nil {
		s.logger.Debug("skipping undecodable market account",
			zap.String("market", marketID.String()),
			zap.Error(err))
		return
	}

	ata, err := s.wallet.ATA(state.BaseMint)
	if err != nil {
		s.logger.Error("failed to derive ata for market base mint",
			zap.String("mint", state.BaseMint.String()),
			zap.Error(err))
		return
	}

	s.store.RecordMarket(state.BaseMint, ata, state.Minimal())
}

// processPool runs the eligibility pipeline for a fresh pool and buys on
// approval. Each stage rejects by returning; there are no retries here.
func (s *Sniper) processPool(ctx context.Context, poolID solana.PublicKey, state *raydium.LiquidityStateV4) {
	mint := state.BaseMint
	log := s.logger.With(
		zap.String("pool", poolID.String()),
		zap.String("mint", mint.String()))

	if !s.snipeList.Allows(mint) {
		log.Debug("mint not in snipe list, skipping")
		return
	}

	if s.cfg.MinPoolSizeRaw > 0 {
		poolSize := state.SwapQuoteInAmount.BigInt()
		if poolSize.IsUint64() && poolSize.Uint64() < s.cfg.MinPoolSizeRaw {
			log.Info("pool below minimum size",
				zap.Uint64("pool_size", poolSize.Uint64()),
				zap.Uint64("min_pool_size", s.cfg.MinPoolSizeRaw))
			return
		}
	}

	ok, reason := s.approver.Approve(ctx, mint)
	if !ok {
		log.Info("mint rejected", zap.String("check", reason))
		return
	}

	s.buy(ctx, poolID, state, log)
}
