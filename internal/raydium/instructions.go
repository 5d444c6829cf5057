// internal/raydium/instructions.go
package raydium

import (
	"encoding/binary"

	"github.com/gagliardetto/solana-go"
)

// Raydium AMM v4 instruction discriminators.
const (
	instructionSwapBaseIn uint8 = 9

	// swapInstructionSize is 1 (discriminator) + 8 (amountIn) + 8 (minAmountOut).
	swapInstructionSize = 17
)

// SPL token program instruction discriminators.
const instructionCloseAccount uint8 = 9

// Compute budget program instruction discriminators.
const (
	instructionSetComputeUnitLimit uint8 = 2
	instructionSetComputeUnitPrice uint8 = 3
)

// SwapUserKeys are the user-side accounts of a swap.
type SwapUserKeys struct {
	TokenAccountIn  solana.PublicKey
	TokenAccountOut solana.PublicKey
	Owner           solana.PublicKey
}

// MakeSwapFixedInInstruction builds a Raydium swap-base-in instruction:
// spend exactly amountIn of the source token, receive at least minAmountOut.
// Account order follows the AMM v4 program's expectation.
func MakeSwapFixedInInstruction(keys *PoolKeys, user SwapUserKeys, amountIn, minAmountOut uint64) solana.Instruction {
	data := make([]byte, swapInstructionSize)
	data[0] = instructionSwapBaseIn
	binary.LittleEndian.PutUint64(data[1:9], amountIn)
	binary.LittleEndian.PutUint64(data[9:17], minAmountOut)

	metas := solana.AccountMetaSlice{
		solana.NewAccountMeta(solana.TokenProgramID, false, false),
		solana.NewAccountMeta(keys.ID, true, false),
		solana.NewAccountMeta(keys.Authority, false, false),
		solana.NewAccountMeta(keys.OpenOrders, true, false),
		solana.NewAccountMeta(keys.TargetOrders, true, false),
		solana.NewAccountMeta(keys.BaseVault, true, false),
		solana.NewAccountMeta(keys.QuoteVault, true, false),
		solana.NewAccountMeta(keys.MarketProgramID, false, false),
		solana.NewAccountMeta(keys.MarketID, true, false),
		solana.NewAccountMeta(keys.MarketBids, true, false),
		solana.NewAccountMeta(keys.MarketAsks, true, false),
		solana.NewAccountMeta(keys.MarketEventQueue, true, false),
		solana.NewAccountMeta(keys.MarketBaseVault, true, false),
		solana.NewAccountMeta(keys.MarketQuoteVault, true, false),
		solana.NewAccountMeta(keys.MarketAuthority, false, false),
		solana.NewAccountMeta(user.TokenAccountIn, true, false),
		solana.NewAccountMeta(user.TokenAccountOut, true, false),
		solana.NewAccountMeta(user.Owner, true, true),
	}

	return solana.NewInstruction(keys.ProgramID, metas, data)
}

// MakeCloseAccountInstruction closes an SPL token account, sending its
// lamports to dest. Used after a full sell to reclaim the account rent.
func MakeCloseAccountInstruction(account, dest, owner solana.PublicKey) solana.Instruction {
	return solana.NewInstruction(
		solana.TokenProgramID,
		solana.AccountMetaSlice{
			solana.NewAccountMeta(account, true, false),
			solana.NewAccountMeta(dest, true, false),
			solana.NewAccountMeta(owner, false, true),
		},
		[]byte{instructionCloseAccount},
	)
}

// MakeCreateATAIdempotentInstruction creates the associated token account for
// (owner, mint) if it does not exist yet; a no-op when it does.
func MakeCreateATAIdempotentInstruction(payer, owner, ata, mint solana.PublicKey) solana.Instruction {
	return solana.NewInstruction(
		AssociatedTokenProgramID,
		solana.AccountMetaSlice{
			solana.NewAccountMeta(payer, true, true),
			solana.NewAccountMeta(ata, true, false),
			solana.NewAccountMeta(owner, false, false),
			solana.NewAccountMeta(mint, false, false),
			solana.NewAccountMeta(solana.SystemProgramID, false, false),
			solana.NewAccountMeta(solana.TokenProgramID, false, false),
		},
		[]byte{1}, // CreateIdempotent
	)
}

// MakeComputeUnitLimitInstruction caps the transaction's compute units.
func MakeComputeUnitLimitInstruction(units uint32) solana.Instruction {
	data := make([]byte, 5)
	data[0] = instructionSetComputeUnitLimit
	binary.LittleEndian.PutUint32(data[1:5], units)
	return solana.NewInstruction(ComputeBudgetProgramID, solana.AccountMetaSlice{}, data)
}

// MakeComputeUnitPriceInstruction sets the priority fee in micro-lamports
// per compute unit.
func MakeComputeUnitPriceInstruction(microLamports uint64) solana.Instruction {
	data := make([]byte, 9)
	data[0] = instructionSetComputeUnitPrice
	binary.LittleEndian.PutUint64(data[1:9], microLamports)
	return solana.NewInstruction(ComputeBudgetProgramID, solana.AccountMetaSlice{}, data)
}
