// internal/sniper/sell.go
package sniper

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/raydium-sniper/internal/config"
	"github.com/rovshanmuradov/raydium-sniper/internal/journal"
	"github.com/rovshanmuradov/raydium-sniper/internal/notify"
	"github.com/rovshanmuradov/raydium-sniper/internal/raydium"
	"github.com/rovshanmuradov/raydium-sniper/internal/registry"
	"github.com/rovshanmuradov/raydium-sniper/internal/wallet"
)

// position is the sell-side accounting for one held token. The original
// amount anchors the ladder: every level's slice is a percentage of it,
// never of the shrinking remainder.
type position struct {
	original  uint64
	remaining uint64
	executed  []bool // one flag per exit level

	delayed    bool
	evaluating bool
}

// SellEngine walks the tiered exit ladder for tracked tokens. Balance
// notifications for the wallet's token accounts trigger evaluation
// passes; each pass sells at most one level. The confirmed sell changes
// the account balance, which triggers the next pass for the next level.
type SellEngine struct {
	chain    ChainClient
	wallet   *wallet.Wallet
	store    *registry.Store
	oracle   PriceOracle
	journal  *journal.Journal
	notifier *notify.Notifier
	logger   *zap.Logger

	levels     []config.ExitLevel
	delay      time.Duration
	retryDelay time.Duration
	maxRetries int

	quoteMint solana.PublicKey
	quoteATA  solana.PublicKey

	mu          sync.Mutex
	positions   map[solana.PublicKey]*position
	totalGains  float64
	totalLosses float64
}

// SellDeps bundles the sell engine's collaborators.
type SellDeps struct {
	Chain      ChainClient
	Wallet     *wallet.Wallet
	Store      *registry.Store
	Oracle     PriceOracle
	Journal    *journal.Journal
	Notifier   *notify.Notifier
	Logger     *zap.Logger
	Levels     []config.ExitLevel
	Delay      time.Duration
	RetryDelay time.Duration
	MaxRetries int
	QuoteMint  solana.PublicKey
	QuoteATA   solana.PublicKey
}

// NewSellEngine creates a sell engine. Levels must be ascending by
// threshold; config validation guarantees that.
func NewSellEngine(d SellDeps) *SellEngine {
	return &SellEngine{
		chain:      d.Chain,
		wallet:     d.Wallet,
		store:      d.Store,
		oracle:     d.Oracle,
		journal:    d.Journal,
		notifier:   d.Notifier,
		logger:     d.Logger.Named("sell"),
		levels:     d.Levels,
		delay:      d.Delay,
		retryDelay: d.RetryDelay,
		maxRetries: d.MaxRetries,
		quoteMint:  d.QuoteMint,
		quoteATA:   d.QuoteATA,
		positions:  make(map[solana.PublicKey]*position),
	}
}

// OnWalletTokenAccount handles a balance notification for one of the
// wallet's token accounts and runs an evaluation pass when the token is
// a tracked position. At most one pass per mint runs at a time; extra
// triggers while a pass is in flight are dropped, not queued.
func (e *SellEngine) OnWalletTokenAccount(ctx context.Context, data []byte) {
	account, err := raydium.DecodeTokenAccount(data)
	if err != nil {
		e.logger.Debug("skipping undecodable token account", zap.Error(err))
		return
	}

	mint := account.Mint
	if mint.Equals(e.quoteMint) || account.Amount == 0 {
		return
	}
	if !e.store.Tracked(mint) {
		return
	}

	e.mu.Lock()
	pos, ok := e.positions[mint]
	if !ok {
		pos = &position{
			original:  account.Amount,
			remaining: account.Amount,
			executed:  make([]bool, len(e.levels)),
		}
		e.positions[mint] = pos
	} else {
		// The chain is the source of truth for what is left to sell.
		pos.remaining = account.Amount
	}
	if pos.evaluating {
		e.mu.Unlock()
		return
	}
	pos.evaluating = true
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		pos.evaluating = false
		e.mu.Unlock()
	}()

	e.evaluate(ctx, mint, pos)
}

// evaluate runs one pass over the exit ladder for a position.
func (e *SellEngine) evaluate(ctx context.Context, mint solana.PublicKey, pos *position) {
	log := e.logger.With(zap.String("mint", mint.String()))

	if e.delay > 0 && !pos.delayed {
		pos.delayed = true
		select {
		case <-ctx.Done():
			return
		case <-time.After(e.delay):
		}
	}

	record, ok := e.store.Lookup(mint)
	if !ok || record.PoolKeys == nil {
		log.Error("position has no pool keys; cannot sell")
		return
	}
	reference, ok := e.store.FirstPurchasePrice(mint)
	if !ok {
		log.Warn("no reference price recorded; sell ladder disarmed")
		return
	}

	price, err := e.oracle.GetPrice(ctx, mint)
	if err != nil {
		log.Warn("price unresolved, skipping evaluation pass", zap.Error(err))
		return
	}
	if e.journal != nil {
		e.journal.RecordPriceMark(mint.String(), price)
	}

	gain := price/reference - 1
	log.Debug("evaluating position",
		zap.Float64("price", price),
		zap.Float64("reference", reference),
		zap.Float64("gain", gain))

	for i, level := range e.levels {
		e.mu.Lock()
		done := pos.executed[i]
		remaining := pos.remaining
		original := pos.original
		e.mu.Unlock()

		if done || gain < level.Threshold {
			continue
		}
		if remaining == 0 {
			return
		}

		quantity := sellQuantity(original, remaining, level.Percentage)
		if quantity == 0 {
			continue
		}
		closing := quantity == remaining

		// The tracked remainder mirrors balance notifications, which can
		// lag a confirmed sell; the account itself decides what can
		// actually be sold.
		if balance, err := e.chain.GetTokenBalance(ctx, record.ATA); err != nil {
			log.Warn("token balance check failed, using tracked amount", zap.Error(err))
		} else {
			if balance == 0 {
				log.Warn("token account already empty, nothing to sell")
				return
			}
			if quantity > balance {
				quantity = balance
			}
			closing = quantity == balance
		}

		sig, err := e.executeSell(ctx, record.PoolKeys, record.ATA, quantity, closing)
		if err != nil {
			log.Error("sell abandoned after retries",
				zap.Float64("threshold", level.Threshold),
				zap.Uint64("quantity", quantity),
				zap.Error(err))
			return
		}

		e.mu.Lock()
		pos.executed[i] = true
		pos.remaining -= quantity
		left := pos.remaining
		e.mu.Unlock()

		e.settle(quantity, price, reference, gain)

		log.Info("sell confirmed",
			zap.String("signature", sig.String()),
			zap.Float64("threshold", level.Threshold),
			zap.Float64("gain", gain),
			zap.Uint64("quantity", quantity),
			zap.Uint64("remaining", left))

		if e.journal != nil {
			e.journal.RecordSell(mint.String(), quantity, price, gain, level.Threshold, sig.String())
		}
		e.notifier.SellConfirmed(mint.String(), quantity, gain, sig.String())

		// One level per pass. The balance change this sell caused will
		// arrive as a fresh notification and drive the next level.
		return
	}
}

// sellQuantity returns the slice for one exit level: a percentage of the
// original position, truncated, and never more than what is left.
func sellQuantity(original, remaining uint64, percentage float64) uint64 {
	quantity := uint64(math.Floor(float64(original) * percentage / 100))
	if quantity > remaining {
		quantity = remaining
	}
	return quantity
}

// executeSell submits the sell swap, retrying transient failures on a
// fixed interval. When the slice empties the position the token account
// is closed in the same transaction to reclaim its rent.
func (e *SellEngine) executeSell(ctx context.Context, keys *raydium.PoolKeys, baseATA solana.PublicKey, quantity uint64, closing bool) (solana.Signature, error) {
	instructions := []solana.Instruction{
		raydium.MakeSwapFixedInInstruction(keys, raydium.SwapUserKeys{
			TokenAccountIn:  baseATA,
			TokenAccountOut: e.quoteATA,
			Owner:           e.wallet.PublicKey,
		}, quantity, 0),
	}
	if closing {
		instructions = append(instructions,
			raydium.MakeCloseAccountInstruction(baseATA, e.wallet.PublicKey, e.wallet.PublicKey))
	}

	return backoff.Retry(ctx, func() (solana.Signature, error) {
		return submitTransaction(ctx, e.chain, e.wallet, instructions)
	},
		backoff.WithBackOff(backoff.NewConstantBackOff(e.retryDelay)),
		backoff.WithMaxTries(uint(e.maxRetries)),
	)
}

// settle updates the running profit and loss totals. Gains carry the
// sale value at the current price, losses the value at cost, both in
// raw token quantity terms.
func (e *SellEngine) settle(quantity uint64, price, reference, gain float64) {
	e.mu.Lock()
	var proceeds float64
	if gain >= 0 {
		proceeds = float64(quantity) * price
		e.totalGains += proceeds
	} else {
		proceeds = float64(quantity) * reference
		e.totalLosses += proceeds
	}
	gains, losses := e.totalGains, e.totalLosses
	e.mu.Unlock()

	fields := []zap.Field{
		zap.Float64("gain", gain),
		zap.Float64("proceeds", proceeds),
		zap.Float64("total_gains", gains),
		zap.Float64("total_losses", losses),
	}
	// the ratio is undefined until a loss has been realized
	if losses > 0 {
		fields = append(fields, zap.Float64("gain_loss_ratio", gains/losses))
	}
	e.logger.Info("realized pnl", fields...)
}
