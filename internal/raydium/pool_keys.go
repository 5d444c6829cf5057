// internal/raydium/pool_keys.go
package raydium

import (
	"encoding/binary"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// PoolKeys is the full trading-venue key bundle for a Raydium AMM v4 pool:
// everything the swap instruction needs, resolved once per pool.
type PoolKeys struct {
	ID              solana.PublicKey
	BaseMint        solana.PublicKey
	QuoteMint       solana.PublicKey
	LpMint          solana.PublicKey
	BaseDecimals    uint8
	QuoteDecimals   uint8
	ProgramID       solana.PublicKey
	Authority       solana.PublicKey
	OpenOrders      solana.PublicKey
	TargetOrders    solana.PublicKey
	BaseVault       solana.PublicKey
	QuoteVault      solana.PublicKey
	WithdrawQueue   solana.PublicKey
	LpVault         solana.PublicKey
	MarketProgramID solana.PublicKey
	MarketID        solana.PublicKey
	MarketAuthority solana.PublicKey
	MarketBaseVault solana.PublicKey
	MarketQuoteVault solana.PublicKey
	MarketBids      solana.PublicKey
	MarketAsks      solana.PublicKey
	MarketEventQueue solana.PublicKey
}

// ammAuthoritySeed is the fixed PDA seed of the Raydium AMM authority.
var ammAuthoritySeed = []byte("amm authority")

// AmmAuthority derives the AMM authority PDA for the given program.
func AmmAuthority(programID solana.PublicKey) (solana.PublicKey, error) {
	authority, _, err := solana.FindProgramAddress([][]byte{ammAuthoritySeed}, programID)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("derive amm authority: %w", err)
	}
	return authority, nil
}

// MarketAuthority derives the OpenBook vault-signer address by scanning the
// vault-signer nonce space, the same way the order-book program does when a
// market is created.
func MarketAuthority(marketID, marketProgramID solana.PublicKey) (solana.PublicKey, error) {
	for nonce := uint64(0); nonce < 100; nonce++ {
		seed := make([]byte, 8)
		binary.LittleEndian.PutUint64(seed, nonce)
		authority, err := solana.CreateProgramAddress([][]byte{marketID.Bytes(), seed}, marketProgramID)
		if err == nil {
			return authority, nil
		}
	}
	return solana.PublicKey{}, fmt.Errorf("no valid vault signer nonce for market %s", marketID)
}

// BuildPoolKeys assembles the key bundle from a decoded pool state and the
// order-book accounts of its market. The pool state already carries the
// market id and program; only bids/asks/event queue come from the market leg.
func BuildPoolKeys(poolID solana.PublicKey, state *LiquidityStateV4, market *MinimalMarket) (*PoolKeys, error) {
	authority, err := AmmAuthority(AmmV4ProgramID)
	if err != nil {
		return nil, err
	}

	marketAuthority, err := MarketAuthority(state.MarketID, state.MarketProgramID)
	if err != nil {
		return nil, err
	}

	return &PoolKeys{
		ID:               poolID,
		BaseMint:         state.BaseMint,
		QuoteMint:        state.QuoteMint,
		LpMint:           state.LpMint,
		BaseDecimals:     uint8(state.BaseDecimal),
		QuoteDecimals:    uint8(state.QuoteDecimal),
		ProgramID:        AmmV4ProgramID,
		Authority:        authority,
		OpenOrders:       state.OpenOrders,
		TargetOrders:     state.TargetOrders,
		BaseVault:        state.BaseVault,
		QuoteVault:       state.QuoteVault,
		WithdrawQueue:    state.WithdrawQueue,
		LpVault:          state.LpVault,
		MarketProgramID:  state.MarketProgramID,
		MarketID:         state.MarketID,
		MarketAuthority:  marketAuthority,
		MarketBaseVault:  state.BaseVault,
		MarketQuoteVault: state.QuoteVault,
		MarketBids:       market.Bids,
		MarketAsks:       market.Asks,
		MarketEventQueue: market.EventQueue,
	}, nil
}
