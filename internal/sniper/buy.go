// internal/sniper/buy.go
package sniper

import (
	"context"
	"errors"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/raydium-sniper/internal/raydium"
	"github.com/rovshanmuradov/raydium-sniper/internal/wallet"
)

// buy assembles, signs and submits the swap that spends the configured
// quote amount on the fresh pool's base token. Failures are logged and
// the pool is abandoned; the next discovery is unaffected.
func (s *Sniper) buy(ctx context.Context, poolID solana.PublicKey, state *raydium.LiquidityStateV4, log *zap.Logger) {
	mint := state.BaseMint

	market, baseATA, err := s.resolveMarket(ctx, state)
	if err != nil {
		log.Error("failed to resolve market leg", zap.Error(err))
		return
	}

	keys, err := raydium.BuildPoolKeys(poolID, state, market)
	if err != nil {
		log.Error("failed to build pool keys", zap.Error(err))
		return
	}
	if err := s.store.AttachPoolKeys(mint, keys); err != nil {
		log.Error("failed to attach pool keys", zap.Error(err))
		return
	}

	// Reference price for the sell ladder. Without it the gain
	// computation has no anchor, so an unresolved price aborts the buy.
	price, err := s.oracle.GetPrice(ctx, mint)
	if err != nil {
		log.Error("reference price unresolved, abandoning buy", zap.Error(err))
		return
	}
	if err := s.store.RecordPurchasePrice(mint, price); err != nil {
		log.Error("failed to record purchase price", zap.Error(err))
		return
	}

	instructions := []solana.Instruction{
		raydium.MakeComputeUnitPriceInstruction(s.cfg.ComputeUnitPrice),
		raydium.MakeComputeUnitLimitInstruction(s.cfg.ComputeUnitLimit),
		raydium.MakeCreateATAIdempotentInstruction(s.wallet.PublicKey, s.wallet.PublicKey, baseATA, mint),
		raydium.MakeSwapFixedInInstruction(keys, raydium.SwapUserKeys{
			TokenAccountIn:  s.quoteATA,
			TokenAccountOut: baseATA,
			Owner:           s.wallet.PublicKey,
		}, s.cfg.QuoteAmountRaw, 0),
	}

	sig, err := submitTransaction(ctx, s.chain, s.wallet, instructions)
	if err != nil {
		log.Error("buy transaction failed", zap.Error(err))
		return
	}

	log.Info("buy confirmed",
		zap.String("signature", sig.String()),
		zap.Float64("price", price),
		zap.Uint64("quote_amount", s.cfg.QuoteAmountRaw))

	if s.journal != nil {
		s.journal.RecordBuy(mint.String(), poolID.String(), price, s.cfg.QuoteAmount, sig.String())
	}
	s.notifier.BuyConfirmed(mint.String(), price, sig.String())
}

// resolveMarket returns the order-book accounts for the pool's market.
// The market leg usually arrived first over the websocket; when it did
// not, the market account is fetched directly.
func (s *Sniper) resolveMarket(ctx context.Context, state *raydium.LiquidityStateV4) (*raydium.MinimalMarket, solana.PublicKey, error) {
	mint := state.BaseMint

	if record, ok := s.store.Lookup(mint); ok && record.Market != nil {
		return record.Market, record.ATA, nil
	}

	data, err := s.chain.GetAccountDataBytes(ctx, state.MarketID)
	if err != nil {
		return nil, solana.PublicKey{}, err
	}
	if data == nil {
		return nil, solana.PublicKey{}, errors.New("market account not found")
	}
	marketState, err := raydium.DecodeMarketStateV3(data)
	if err != nil {
		return nil, solana.PublicKey{}, err
	}

	ata, err := s.wallet.ATA(mint)
	if err != nil {
		return nil, solana.PublicKey{}, err
	}

	market := marketState.Minimal()
	record := s.store.RecordMarket(mint, ata, market)
	return record.Market, record.ATA, nil
}

// submitTransaction assembles, signs and sends a transaction built from
// the instructions, blocking until confirmation.
func submitTransaction(ctx context.Context, chain ChainClient, w *wallet.Wallet, instructions []solana.Instruction) (solana.Signature, error) {
	blockhash, err := chain.LatestBlockhash(ctx)
	if err != nil {
		return solana.Signature{}, err
	}

	tx, err := solana.NewTransaction(instructions, blockhash, solana.TransactionPayer(w.PublicKey))
	if err != nil {
		return solana.Signature{}, err
	}
	if err := w.SignTransaction(tx); err != nil {
		return solana.Signature{}, err
	}

	return chain.SendAndConfirm(ctx, tx)
}
