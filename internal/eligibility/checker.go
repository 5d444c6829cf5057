// internal/eligibility/checker.go
package eligibility

import (
	"context"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/raydium-sniper/internal/raydium"
)

// Result is the outcome of a single predicate. Inconclusive is a distinct
// state: a check that cannot produce a definitive answer fails closed, but
// is logged differently from an explicit rejection.
type Result int

const (
	Eligible Result = iota
	Ineligible
	Inconclusive
)

// AccountFetcher fetches raw account data. A missing account is (nil, nil).
type AccountFetcher interface {
	GetAccountDataBytes(ctx context.Context, account solana.PublicKey) ([]byte, error)
}

// MetadataAPI answers whether a token's metadata is mutable; nil means the
// source had no definitive answer.
type MetadataAPI interface {
	IsMetadataMutable(ctx context.Context, mint solana.PublicKey) (*bool, error)
}

// SecurityAPI runs external token-security heuristics.
type SecurityAPI interface {
	CheckTokenSecurity(ctx context.Context, mint solana.PublicKey, maxTop10HolderPercent float64) (bool, error)
}

// Checks selects which predicates gate a buy. Disabled predicates are
// skipped entirely.
type Checks struct {
	MintRenounced         bool
	FreezeRenounced       bool
	MetadataImmutable     bool
	TokenSecurity         bool
	MaxTop10HolderPercent float64
}

// Checker evaluates a candidate mint against the configured predicates.
// Every predicate is fail-closed: an error or inconclusive answer rejects
// the candidate, it never blocks or retries.
type Checker struct {
	accounts AccountFetcher
	metadata MetadataAPI
	security SecurityAPI
	checks   Checks
	logger   *zap.Logger
}

// NewChecker creates an eligibility checker.
func NewChecker(accounts AccountFetcher, metadata MetadataAPI, security SecurityAPI, checks Checks, logger *zap.Logger) *Checker {
	return &Checker{
		accounts: accounts,
		metadata: metadata,
		security: security,
		checks:   checks,
		logger:   logger.Named("eligibility"),
	}
}

// CheckMintable reports whether the mint authority is renounced. A missing
// account or decode failure is Inconclusive.
func (c *Checker) CheckMintable(ctx context.Context, mint solana.PublicKey) Result {
	layout, result := c.fetchMint(ctx, mint)
	if result != Eligible {
		return result
	}
	if layout.MintAuthorityOption == 0 {
		return Eligible
	}
	return Ineligible
}

// CheckFreezeAuthority reports whether the freeze authority is renounced.
func (c *Checker) CheckFreezeAuthority(ctx context.Context, mint solana.PublicKey) Result {
	layout, result := c.fetchMint(ctx, mint)
	if result != Eligible {
		return result
	}
	if layout.FreezeAuthorityOption == 0 {
		return Eligible
	}
	return Ineligible
}

func (c *Checker) fetchMint(ctx context.Context, mint solana.PublicKey) (*raydium.Mint, Result) {
	data, err := c.accounts.GetAccountDataBytes(ctx, mint)
	if err != nil {
		c.logger.Warn("failed to fetch mint account",
			zap.String("mint", mint.String()),
			zap.Error(err))
		return nil, Inconclusive
	}
	if data == nil {
		return nil, Inconclusive
	}
	layout, err := raydium.DecodeMint(data)
	if err != nil {
		c.logger.Warn("failed to decode mint account",
			zap.String("mint", mint.String()),
			zap.Error(err))
		return nil, Inconclusive
	}
	return layout, Eligible
}

// CheckMetadataImmutable reports whether the token metadata is explicitly
// immutable. An absent answer is Inconclusive, never coerced to a boolean.
func (c *Checker) CheckMetadataImmutable(ctx context.Context, mint solana.PublicKey) Result {
	mutable, err := c.metadata.IsMetadataMutable(ctx, mint)
	if err != nil {
		c.logger.Warn("metadata query failed",
			zap.String("mint", mint.String()),
			zap.Error(err))
		return Inconclusive
	}
	if mutable == nil {
		return Inconclusive
	}
	if *mutable {
		return Ineligible
	}
	return Eligible
}

// CheckTokenSecurity runs the external security heuristics. Transport or
// parse failures are a hard rejection.
func (c *Checker) CheckTokenSecurity(ctx context.Context, mint solana.PublicKey) Result {
	ok, err := c.security.CheckTokenSecurity(ctx, mint, c.checks.MaxTop10HolderPercent)
	if err != nil {
		c.logger.Warn("token security query failed",
			zap.String("mint", mint.String()),
			zap.Error(err))
		return Ineligible
	}
	if !ok {
		return Ineligible
	}
	return Eligible
}

// Approve runs all configured predicates, short-circuiting on the first one
// that is not Eligible. It returns whether the mint may be bought and, when
// it may not, the name of the check that stopped it.
func (c *Checker) Approve(ctx context.Context, mint solana.PublicKey) (bool, string) {
	if c.checks.MintRenounced {
		if result := c.CheckMintable(ctx, mint); result != Eligible {
			return false, "mint_authority"
		}
	}
	if c.checks.FreezeRenounced {
		if result := c.CheckFreezeAuthority(ctx, mint); result != Eligible {
			return false, "freeze_authority"
		}
	}
	if c.checks.MetadataImmutable {
		if result := c.CheckMetadataImmutable(ctx, mint); result != Eligible {
			return false, "metadata_mutable"
		}
	}
	if c.checks.TokenSecurity {
		if result := c.CheckTokenSecurity(ctx, mint); result != Eligible {
			return false, "token_security"
		}
	}
	return true, ""
}
