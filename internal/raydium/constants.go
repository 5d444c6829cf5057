// internal/raydium/constants.go
package raydium

import "github.com/gagliardetto/solana-go"

var (
	// AmmV4ProgramID is the Raydium liquidity pool program (AMM v4) on mainnet.
	AmmV4ProgramID = solana.MustPublicKeyFromBase58("675kPX9MHTjS2zt1qfr1NYHuzeLXfQM9H24wFSUt1Mp8")

	// OpenBookProgramID is the OpenBook (Serum v3 fork) central limit order book program.
	OpenBookProgramID = solana.MustPublicKeyFromBase58("srmqPvymJeFKQ4zGQed1GFppgkRHL9kaELCbyksJtPX")

	// WSOLMint is the wrapped SOL mint.
	WSOLMint = solana.MustPublicKeyFromBase58("So11111111111111111111111111111111111111112")

	// USDCMint is the USDC mint on mainnet.
	USDCMint = solana.MustPublicKeyFromBase58("EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v")

	// AssociatedTokenProgramID creates deterministic per-owner token accounts.
	AssociatedTokenProgramID = solana.MustPublicKeyFromBase58("ATokenGPvbdGVxr1b2hvZbsiqW5xWH25efTNsLJA8knL")

	// ComputeBudgetProgramID sets per-transaction compute limits and priority fees.
	ComputeBudgetProgramID = solana.MustPublicKeyFromBase58("ComputeBudget111111111111111111111111111111")
)

// Account data sizes of the fixed layouts this package decodes.
const (
	LiquidityStateV4Span = 752
	MarketStateV3Span    = 388
	MintSpan             = 82
	TokenAccountSpan     = 165
)

// Byte offsets inside LIQUIDITY_STATE_LAYOUT_V4, used for subscription
// memcmp filters. The first 32 fields are u64, followed by a mixed
// u128/u64 swap-statistics block; public keys start at offset 336.
const (
	LiquidityV4StatusOffset          = 0
	LiquidityV4QuoteMintOffset       = 432
	LiquidityV4MarketProgramIDOffset = 560
)

// Byte offsets inside MARKET_STATE_LAYOUT_V3.
const (
	MarketV3QuoteMintOffset = 85
)

// Byte offsets inside the SPL token account layout.
const (
	TokenAccountOwnerOffset = 32
)

// StatusSwapEnabled is the pool status value for a pool open for swaps.
// New pools are announced with this status; the memcmp filter below keys
// on its little-endian u64 encoding.
const StatusSwapEnabled uint64 = 6

// StatusSwapEnabledBytes is StatusSwapEnabled encoded as the 8-byte
// little-endian value the on-chain account stores.
var StatusSwapEnabledBytes = []byte{6, 0, 0, 0, 0, 0, 0, 0}
