// internal/sniper/listener.go
package sniper

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/gagliardetto/solana-go/rpc/ws"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/raydium-sniper/internal/raydium"
)

// AccountHandler consumes one program-account notification.
type AccountHandler func(ctx context.Context, key solana.PublicKey, data []byte)

// subscription is one program watch: a program id, its server-side
// filters and the handler its notifications feed.
type subscription struct {
	name    string
	program solana.PublicKey
	filters []rpc.RPCFilter
	handler AccountHandler
}

// Listener maintains the three websocket program subscriptions the agent
// runs on: Raydium pools, OpenBook markets and the wallet's own token
// accounts. Each subscription gets its own connection and reconnects
// independently with exponential backoff.
type Listener struct {
	wsEndpoint string
	logger     *zap.Logger
	subs       []subscription
}

// NewListener creates a listener for the given websocket endpoint.
// quoteMint scopes pool and market discovery to the configured quote
// currency; walletKey scopes token-account events to the trading wallet.
func NewListener(wsEndpoint string, quoteMint, walletKey solana.PublicKey, s *Sniper, sells *SellEngine, logger *zap.Logger) *Listener {
	return &Listener{
		wsEndpoint: wsEndpoint,
		logger:     logger.Named("listener"),
		subs: []subscription{
			{
				name:    "raydium_pools",
				program: raydium.AmmV4ProgramID,
				filters: []rpc.RPCFilter{
					{DataSize: raydium.LiquidityStateV4Span},
					{Memcmp: &rpc.RPCFilterMemcmp{
						Offset: raydium.LiquidityV4QuoteMintOffset,
						Bytes:  quoteMint.Bytes(),
					}},
					{Memcmp: &rpc.RPCFilterMemcmp{
						Offset: raydium.LiquidityV4MarketProgramIDOffset,
						Bytes:  raydium.OpenBookProgramID.Bytes(),
					}},
					{Memcmp: &rpc.RPCFilterMemcmp{
						Offset: raydium.LiquidityV4StatusOffset,
						Bytes:  raydium.StatusSwapEnabledBytes,
					}},
				},
				handler: s.OnPoolAccount,
			},
			{
				name:    "openbook_markets",
				program: raydium.OpenBookProgramID,
				filters: []rpc.RPCFilter{
					{DataSize: raydium.MarketStateV3Span},
					{Memcmp: &rpc.RPCFilterMemcmp{
						Offset: raydium.MarketV3QuoteMintOffset,
						Bytes:  quoteMint.Bytes(),
					}},
				},
				handler: s.OnMarketAccount,
			},
			{
				name:    "wallet_token_accounts",
				program: solana.TokenProgramID,
				filters: []rpc.RPCFilter{
					{DataSize: raydium.TokenAccountSpan},
					{Memcmp: &rpc.RPCFilterMemcmp{
						Offset: raydium.TokenAccountOwnerOffset,
						Bytes:  walletKey.Bytes(),
					}},
				},
				handler: func(ctx context.Context, _ solana.PublicKey, data []byte) {
					sells.OnWalletTokenAccount(ctx, data)
				},
			},
		},
	}
}

// DisableWalletWatch drops the wallet token-account subscription. Used
// when automated selling is off and balance events have no consumer.
func (l *Listener) DisableWalletWatch() {
	kept := l.subs[:0]
	for _, sub := range l.subs {
		if sub.name != "wallet_token_accounts" {
			kept = append(kept, sub)
		}
	}
	l.subs = kept
}

// Run starts every subscription on the task group. The watchers exit
// when the context is done.
func (l *Listener) Run(ctx context.Context, tasks *TaskGroup) {
	for _, sub := range l.subs {
		sub := sub
		tasks.Go("listen_"+sub.name, func() {
			l.watch(ctx, sub)
		})
	}
}

// watch keeps one subscription alive, reconnecting on failure. The
// backoff resets once a connection delivers a notification.
func (l *Listener) watch(ctx context.Context, sub subscription) {
	log := l.logger.With(zap.String("subscription", sub.name))

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = time.Second
	bo.MaxInterval = 30 * time.Second

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		delivered, err := l.listen(ctx, sub, log)
		if ctx.Err() != nil {
			return
		}
		if delivered {
			bo.Reset()
		}

		wait := bo.NextBackOff()
		log.Warn("subscription dropped, reconnecting",
			zap.Error(err),
			zap.Duration("backoff", wait))

		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}
	}
}

// listen runs one connect-subscribe-receive cycle. It reports whether at
// least one notification was delivered before the cycle ended.
func (l *Listener) listen(ctx context.Context, sub subscription, log *zap.Logger) (bool, error) {
	client, err := ws.Connect(ctx, l.wsEndpoint)
	if err != nil {
		return false, err
	}
	defer client.Close()

	wsSub, err := client.ProgramSubscribeWithOpts(
		sub.program,
		rpc.CommitmentConfirmed,
		solana.EncodingBase64,
		sub.filters,
	)
	if err != nil {
		return false, err
	}
	defer wsSub.Unsubscribe()

	log.Info("subscribed", zap.String("program", sub.program.String()))

	delivered := false
	for {
		msg, err := wsSub.Recv(ctx)
		if err != nil {
			return delivered, err
		}
		if msg == nil || msg.Value.Account == nil {
			continue
		}
		delivered = true
		sub.handler(ctx, msg.Value.Pubkey, msg.Value.Account.Data.GetBinary())
	}
}
