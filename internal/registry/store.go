// internal/registry/store.go
package registry

import (
	"fmt"
	"sync"

	"github.com/gagliardetto/solana-go"

	"github.com/rovshanmuradov/raydium-sniper/internal/raydium"
)

// TrackedMint correlates the two event legs of a tradeable token: the
// order-book market data and the liquidity-pool key bundle, keyed by the
// base mint. Purchase prices are appended once per buy and never rewritten.
type TrackedMint struct {
	Mint           solana.PublicKey
	ATA            solana.PublicKey
	Market         *raydium.MinimalMarket
	PoolKeys       *raydium.PoolKeys
	PurchasePrices []float64
}

// Store is the process-wide registry reconciling pool and market event
// streams. Records are never evicted: the agent runs bounded sessions and
// restarts with empty state. All access goes through the mutex; handlers
// run on independent goroutines.
type Store struct {
	mu          sync.Mutex
	tracked     map[solana.PublicKey]*TrackedMint
	seenPools   map[solana.PublicKey]struct{}
	seenMarkets map[solana.PublicKey]struct{}
}

// NewStore creates an empty registry.
func NewStore() *Store {
	return &Store{
		tracked:     make(map[solana.PublicKey]*TrackedMint),
		seenPools:   make(map[solana.PublicKey]struct{}),
		seenMarkets: make(map[solana.PublicKey]struct{}),
	}
}

// MarkPoolSeen records a pool account key and reports whether it was new.
// The test-and-set is atomic so duplicate notifications for the same
// account can never both pass the gate.
func (s *Store) MarkPoolSeen(key solana.PublicKey) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.seenPools[key]; ok {
		return false
	}
	s.seenPools[key] = struct{}{}
	return true
}

// MarkMarketSeen records a market account key and reports whether it was new.
func (s *Store) MarkMarketSeen(key solana.PublicKey) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.seenMarkets[key]; ok {
		return false
	}
	s.seenMarkets[key] = struct{}{}
	return true
}

// Tracked reports whether the mint already has a record.
func (s *Store) Tracked(mint solana.PublicKey) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.tracked[mint]
	return ok
}

// RecordMarket stores the market leg for a mint, creating the record if this
// is the first event naming it. Market data is first-writer-wins: a second
// market event for the same mint leaves the existing data untouched.
func (s *Store) RecordMarket(mint, ata solana.PublicKey, market *raydium.MinimalMarket) *TrackedMint {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.tracked[mint]
	if !ok {
		record = &TrackedMint{Mint: mint, ATA: ata}
		s.tracked[mint] = record
	}
	if record.Market == nil {
		record.Market = market
	}
	return record
}

// AttachPoolKeys stores the resolved pool key bundle for a mint.
func (s *Store) AttachPoolKeys(mint solana.PublicKey, keys *raydium.PoolKeys) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.tracked[mint]
	if !ok {
		return fmt.Errorf("mint %s is not tracked", mint)
	}
	record.PoolKeys = keys
	return nil
}

// RecordPurchasePrice appends a buy price to the mint's history.
func (s *Store) RecordPurchasePrice(mint solana.PublicKey, price float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.tracked[mint]
	if !ok {
		return fmt.Errorf("mint %s is not tracked", mint)
	}
	record.PurchasePrices = append(record.PurchasePrices, price)
	return nil
}

// Lookup returns a snapshot of the mint's record. The contained pool keys
// and market data are immutable once attached; the snapshot copies the
// price history so callers cannot observe later appends.
func (s *Store) Lookup(mint solana.PublicKey) (*TrackedMint, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.tracked[mint]
	if !ok {
		return nil, false
	}
	snapshot := *record
	snapshot.PurchasePrices = append([]float64(nil), record.PurchasePrices...)
	return &snapshot, true
}

// FirstPurchasePrice returns the earliest recorded buy price for the mint,
// the reference price for sell-level evaluation.
func (s *Store) FirstPurchasePrice(mint solana.PublicKey) (float64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.tracked[mint]
	if !ok || len(record.PurchasePrices) == 0 {
		return 0, false
	}
	return record.PurchasePrices[0], true
}
