// internal/raydium/layouts.go
package raydium

import (
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// LiquidityStateV4 mirrors the Raydium AMM v4 pool account layout (752 bytes).
// Field order matters: the struct is decoded as packed little-endian data.
type LiquidityStateV4 struct {
	Status                 uint64
	Nonce                  uint64
	MaxOrder               uint64
	Depth                  uint64
	BaseDecimal            uint64
	QuoteDecimal           uint64
	State                  uint64
	ResetFlag              uint64
	MinSize                uint64
	VolMaxCutRatio         uint64
	AmountWaveRatio        uint64
	BaseLotSize            uint64
	QuoteLotSize           uint64
	MinPriceMultiplier     uint64
	MaxPriceMultiplier     uint64
	SystemDecimalValue     uint64
	MinSeparateNumerator   uint64
	MinSeparateDenominator uint64
	TradeFeeNumerator      uint64
	TradeFeeDenominator    uint64
	PnlNumerator           uint64
	PnlDenominator         uint64
	SwapFeeNumerator       uint64
	SwapFeeDenominator     uint64
	BaseNeedTakePnl        uint64
	QuoteNeedTakePnl       uint64
	QuoteTotalPnl          uint64
	BaseTotalPnl           uint64
	PoolOpenTime           uint64
	PunishPcAmount         uint64
	PunishCoinAmount       uint64
	OrderbookToInitTime    uint64
	SwapBaseInAmount       bin.Uint128
	SwapQuoteOutAmount     bin.Uint128
	SwapBase2QuoteFee      uint64
	SwapQuoteInAmount      bin.Uint128
	SwapBaseOutAmount      bin.Uint128
	SwapQuote2BaseFee      uint64
	BaseVault              solana.PublicKey
	QuoteVault             solana.PublicKey
	BaseMint               solana.PublicKey
	QuoteMint              solana.PublicKey
	LpMint                 solana.PublicKey
	OpenOrders             solana.PublicKey
	MarketID               solana.PublicKey
	MarketProgramID        solana.PublicKey
	TargetOrders           solana.PublicKey
	WithdrawQueue          solana.PublicKey
	LpVault                solana.PublicKey
	Owner                  solana.PublicKey
	LpReserve              uint64
	Padding                [3]uint64
}

// DecodeLiquidityStateV4 decodes a Raydium AMM v4 pool account.
func DecodeLiquidityStateV4(data []byte) (*LiquidityStateV4, error) {
	if len(data) < LiquidityStateV4Span {
		return nil, fmt.Errorf("liquidity state too short: got %d, need %d", len(data), LiquidityStateV4Span)
	}
	state := &LiquidityStateV4{}
	if err := bin.NewBinDecoder(data).Decode(state); err != nil {
		return nil, fmt.Errorf("decode liquidity state: %w", err)
	}
	return state, nil
}

// MarketStateV3 mirrors the OpenBook market account layout (388 bytes).
type MarketStateV3 struct {
	Padding1               [5]byte
	AccountFlags           uint64
	OwnAddress             solana.PublicKey
	VaultSignerNonce       uint64
	BaseMint               solana.PublicKey
	QuoteMint              solana.PublicKey
	BaseVault              solana.PublicKey
	BaseDepositsTotal      uint64
	BaseFeesAccrued        uint64
	QuoteVault             solana.PublicKey
	QuoteDepositsTotal     uint64
	QuoteFeesAccrued       uint64
	QuoteDustThreshold     uint64
	RequestQueue           solana.PublicKey
	EventQueue             solana.PublicKey
	Bids                   solana.PublicKey
	Asks                   solana.PublicKey
	BaseLotSize            uint64
	QuoteLotSize           uint64
	FeeRateBps             uint64
	ReferrerRebatesAccrued uint64
	Padding2               [7]byte
}

// DecodeMarketStateV3 decodes an OpenBook market account.
func DecodeMarketStateV3(data []byte) (*MarketStateV3, error) {
	if len(data) < MarketStateV3Span {
		return nil, fmt.Errorf("market state too short: got %d, need %d", len(data), MarketStateV3Span)
	}
	state := &MarketStateV3{}
	if err := bin.NewBinDecoder(data).Decode(state); err != nil {
		return nil, fmt.Errorf("decode market state: %w", err)
	}
	return state, nil
}

// MinimalMarket is the subset of market state the swap path needs once the
// pool state itself carries the rest of the market references.
type MinimalMarket struct {
	Bids       solana.PublicKey
	Asks       solana.PublicKey
	EventQueue solana.PublicKey
}

// Minimal extracts the order-book accounts from a full market state.
func (m *MarketStateV3) Minimal() *MinimalMarket {
	return &MinimalMarket{
		Bids:       m.Bids,
		Asks:       m.Asks,
		EventQueue: m.EventQueue,
	}
}

// Mint mirrors the SPL token mint layout (82 bytes). The authority option
// fields are the 4-byte COption tags: 0 means the authority is renounced.
type Mint struct {
	MintAuthorityOption   uint32
	MintAuthority         solana.PublicKey
	Supply                uint64
	Decimals              uint8
	IsInitialized         uint8
	FreezeAuthorityOption uint32
	FreezeAuthority       solana.PublicKey
}

// DecodeMint decodes an SPL token mint account.
func DecodeMint(data []byte) (*Mint, error) {
	if len(data) < MintSpan {
		return nil, fmt.Errorf("mint account too short: got %d, need %d", len(data), MintSpan)
	}
	mint := &Mint{}
	if err := bin.NewBinDecoder(data).Decode(mint); err != nil {
		return nil, fmt.Errorf("decode mint: %w", err)
	}
	return mint, nil
}

// TokenAccount mirrors the SPL token account layout (165 bytes).
type TokenAccount struct {
	Mint                 solana.PublicKey
	Owner                solana.PublicKey
	Amount               uint64
	DelegateOption       uint32
	Delegate             solana.PublicKey
	State                uint8
	IsNativeOption       uint32
	IsNative             uint64
	DelegatedAmount      uint64
	CloseAuthorityOption uint32
	CloseAuthority       solana.PublicKey
}

// DecodeTokenAccount decodes an SPL token account.
func DecodeTokenAccount(data []byte) (*TokenAccount, error) {
	if len(data) < TokenAccountSpan {
		return nil, fmt.Errorf("token account too short: got %d, need %d", len(data), TokenAccountSpan)
	}
	account := &TokenAccount{}
	if err := bin.NewBinDecoder(data).Decode(account); err != nil {
		return nil, fmt.Errorf("decode token account: %w", err)
	}
	return account, nil
}
