// internal/sniper/chain.go
package sniper

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"
)

// ChainClient is the RPC surface the trading core needs. It is an
// interface so tests can run the state machine against a fake chain.
type ChainClient interface {
	// GetAccountDataBytes returns raw account data; (nil, nil) when the
	// account does not exist.
	GetAccountDataBytes(ctx context.Context, account solana.PublicKey) ([]byte, error)
	// GetTokenBalance returns the raw token amount of an SPL token account.
	GetTokenBalance(ctx context.Context, tokenAccount solana.PublicKey) (uint64, error)
	// LatestBlockhash returns a recent blockhash for transaction assembly.
	LatestBlockhash(ctx context.Context) (solana.Hash, error)
	// SendAndConfirm submits a signed transaction and blocks until it is
	// confirmed or the context expires.
	SendAndConfirm(ctx context.Context, tx *solana.Transaction) (solana.Signature, error)
}

const (
	confirmPollInterval = 500 * time.Millisecond
	confirmTimeout      = 60 * time.Second
)

type rpcChain struct {
	client *rpc.Client
	logger *zap.Logger
}

// NewChainClient wraps a solana RPC client.
func NewChainClient(client *rpc.Client, logger *zap.Logger) ChainClient {
	return &rpcChain{
		client: client,
		logger: logger.Named("chain"),
	}
}

func (c *rpcChain) GetAccountDataBytes(ctx context.Context, account solana.PublicKey) ([]byte, error) {
	res, err := c.client.GetAccountInfoWithOpts(ctx, account, &rpc.GetAccountInfoOpts{
		Encoding:   solana.EncodingBase64,
		Commitment: rpc.CommitmentConfirmed,
	})
	if errors.Is(err, rpc.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get account %s: %w", account, err)
	}
	if res.Value == nil {
		return nil, nil
	}
	return res.Value.Data.GetBinary(), nil
}

func (c *rpcChain) GetTokenBalance(ctx context.Context, tokenAccount solana.PublicKey) (uint64, error) {
	res, err := c.client.GetTokenAccountBalance(ctx, tokenAccount, rpc.CommitmentConfirmed)
	if err != nil {
		return 0, fmt.Errorf("get token balance %s: %w", tokenAccount, err)
	}
	amount, err := strconv.ParseUint(res.Value.Amount, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse token balance %q: %w", res.Value.Amount, err)
	}
	return amount, nil
}

func (c *rpcChain) LatestBlockhash(ctx context.Context) (solana.Hash, error) {
	res, err := c.client.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
	if err != nil {
		return solana.Hash{}, fmt.Errorf("get latest blockhash: %w", err)
	}
	return res.Value.Blockhash, nil
}

// SendAndConfirm sends with preflight skipped (speed matters more than a
// simulation round trip when sniping) and polls signature status until
// the transaction is confirmed.
func (c *rpcChain) SendAndConfirm(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	sig, err := c.client.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		SkipPreflight:       true,
		PreflightCommitment: rpc.CommitmentConfirmed,
	})
	if err != nil {
		return solana.Signature{}, fmt.Errorf("send transaction: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, confirmTimeout)
	defer cancel()

	ticker := time.NewTicker(confirmPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return sig, fmt.Errorf("confirm %s: %w", sig, ctx.Err())
		case <-ticker.C:
			res, err := c.client.GetSignatureStatuses(ctx, true, sig)
			if err != nil {
				c.logger.Debug("signature status poll failed", zap.Error(err))
				continue
			}
			if len(res.Value) == 0 || res.Value[0] == nil {
				continue
			}
			status := res.Value[0]
			if status.Err != nil {
				return sig, fmt.Errorf("transaction %s failed: %v", sig, status.Err)
			}
			switch status.ConfirmationStatus {
			case rpc.ConfirmationStatusConfirmed, rpc.ConfirmationStatusFinalized:
				return sig, nil
			}
		}
	}
}
