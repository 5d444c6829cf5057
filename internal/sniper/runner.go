// internal/sniper/runner.go
package sniper

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/raydium-sniper/internal/birdeye"
	"github.com/rovshanmuradov/raydium-sniper/internal/config"
	"github.com/rovshanmuradov/raydium-sniper/internal/eligibility"
	"github.com/rovshanmuradov/raydium-sniper/internal/helius"
	"github.com/rovshanmuradov/raydium-sniper/internal/journal"
	"github.com/rovshanmuradov/raydium-sniper/internal/notify"
	"github.com/rovshanmuradov/raydium-sniper/internal/registry"
	"github.com/rovshanmuradov/raydium-sniper/internal/snipelist"
	"github.com/rovshanmuradov/raydium-sniper/internal/wallet"
)

// Runner owns the agent's lifecycle: it wires every component from the
// configuration, starts the listeners and tears everything down on
// SIGINT/SIGTERM.
type Runner struct {
	cfg        *config.Config
	logger     *zap.Logger
	shutdownCh chan os.Signal
}

// NewRunner creates a runner.
func NewRunner(cfg *config.Config, logger *zap.Logger) *Runner {
	return &Runner{
		cfg:        cfg,
		logger:     logger,
		shutdownCh: make(chan os.Signal, 1),
	}
}

// Run starts the agent and blocks until a shutdown signal arrives or the
// context is cancelled. Startup validation failures return an error;
// once the listeners are live, individual trade failures never do.
func (r *Runner) Run(ctx context.Context) error {
	signal.Notify(r.shutdownCh, syscall.SIGINT, syscall.SIGTERM)
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		sig := <-r.shutdownCh
		r.logger.Info("signal received, shutting down", zap.String("signal", sig.String()))
		cancel()
	}()

	w, err := wallet.New(r.cfg.PrivateKey)
	if err != nil {
		return fmt.Errorf("load wallet: %w", err)
	}
	r.logger.Info("wallet loaded", zap.String("public_key", w.String()))

	chain := NewChainClient(rpc.New(r.cfg.RPCEndpoint), r.logger)

	// The quote token account must exist and be funded before the agent
	// starts; it is the source of every buy.
	quoteATA, err := w.ATA(r.cfg.Quote.Mint)
	if err != nil {
		return fmt.Errorf("derive quote ata: %w", err)
	}
	data, err := chain.GetAccountDataBytes(ctx, quoteATA)
	if err != nil {
		return fmt.Errorf("check quote token account: %w", err)
	}
	if data == nil {
		return fmt.Errorf("no %s token account found for wallet %s", r.cfg.Quote.Symbol, w)
	}

	var trades *journal.Journal
	if r.cfg.JournalPath != "" {
		trades, err = journal.Open(r.cfg.JournalPath, r.logger)
		if err != nil {
			return fmt.Errorf("open trade journal: %w", err)
		}
		defer trades.Close()
	}

	var notifier *notify.Notifier
	if r.cfg.TelegramToken != "" {
		notifier, err = notify.NewNotifier(r.cfg.TelegramToken, r.cfg.TelegramChatID, r.logger)
		if err != nil {
			return fmt.Errorf("create notifier: %w", err)
		}
	}

	list, err := snipelist.New(r.cfg.SnipeListPath, r.cfg.UseSnipeList, r.logger)
	if err != nil {
		return fmt.Errorf("load snipe list: %w", err)
	}
	if r.cfg.UseSnipeList {
		// Listed mints are the ones the hot path will buy; derive their
		// ATAs now instead of on the first pool event.
		if err := w.PrecomputeATAs(list.Mints()); err != nil {
			return fmt.Errorf("precompute snipe list atas: %w", err)
		}
	}

	oracle := birdeye.NewClient(r.cfg.BirdeyeAPIKey, r.cfg.PriceTimeout, r.logger)
	metadata := helius.NewClient(r.cfg.HeliusAPIKey, r.logger)
	checker := eligibility.NewChecker(chain, metadata, oracle, eligibility.Checks{
		MintRenounced:         r.cfg.CheckMintRenounced,
		FreezeRenounced:       r.cfg.CheckFreezeRenounced,
		MetadataImmutable:     r.cfg.CheckMetadataImmutable,
		TokenSecurity:         r.cfg.CheckTokenSecurity,
		MaxTop10HolderPercent: r.cfg.MaxTop10HolderPercent,
	}, r.logger)

	store := registry.NewStore()
	tasks := NewTaskGroup(r.logger)

	var sells *SellEngine
	if r.cfg.AutoSell {
		sells = NewSellEngine(SellDeps{
			Chain:      chain,
			Wallet:     w,
			Store:      store,
			Oracle:     oracle,
			Journal:    trades,
			Notifier:   notifier,
			Logger:     r.logger,
			Levels:     r.cfg.ExitLevels,
			Delay:      r.cfg.AutoSellDelay,
			RetryDelay: r.cfg.SellRetryDelay,
			MaxRetries: r.cfg.MaxSellRetries,
			QuoteMint:  r.cfg.Quote.Mint,
			QuoteATA:   quoteATA,
		})
	}

	s := New(Deps{
		Config:    r.cfg,
		Wallet:    w,
		Chain:     chain,
		Store:     store,
		Approver:  checker,
		Oracle:    oracle,
		SnipeList: list,
		Journal:   trades,
		Notifier:  notifier,
		Tasks:     tasks,
		QuoteATA:  quoteATA,
		Logger:    r.logger,
	})

	listener := NewListener(r.cfg.WSEndpoint, r.cfg.Quote.Mint, w.PublicKey, s, sells, r.logger)
	if !r.cfg.AutoSell {
		listener.DisableWalletWatch()
	}
	listener.Run(ctx, tasks)

	if r.cfg.UseSnipeList {
		tasks.Go("snipe_list_reload", func() {
			list.Run(ctx, r.cfg.SnipeListRefreshInterval)
		})
	}

	r.logger.Info("sniper running",
		zap.String("quote", r.cfg.Quote.Symbol),
		zap.Float64("quote_amount", r.cfg.QuoteAmount),
		zap.Bool("auto_sell", r.cfg.AutoSell),
		zap.Bool("snipe_list", r.cfg.UseSnipeList))
	notifier.Startup(w.String())

	<-ctx.Done()
	tasks.Wait()
	notifier.Shutdown()
	r.logger.Info("sniper stopped")
	return nil
}
