// internal/journal/journal.go
package journal

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// Journal is a write-only sqlite trade log: buys, sells and price marks.
// It exists for post-session analysis; the trading core never reads it
// back, so a journal failure must not stop a trade.
type Journal struct {
	db     *sql.DB
	logger *zap.Logger
}

// Open creates (or opens) the journal database and ensures the schema.
func Open(path string, logger *zap.Logger) (*Journal, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}

	_, err = db.Exec(`
        CREATE TABLE IF NOT EXISTS buys (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            mint TEXT NOT NULL,
            pool_id TEXT NOT NULL,
            price REAL NOT NULL,
            quote_amount REAL NOT NULL,
            signature TEXT,
            created_at DATETIME NOT NULL
        );

        CREATE TABLE IF NOT EXISTS sells (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            mint TEXT NOT NULL,
            quantity INTEGER NOT NULL,
            price REAL NOT NULL,
            gain REAL NOT NULL,
            threshold REAL NOT NULL,
            signature TEXT,
            created_at DATETIME NOT NULL
        );

        CREATE TABLE IF NOT EXISTS price_marks (
            mint TEXT NOT NULL,
            price REAL NOT NULL,
            created_at DATETIME NOT NULL
        );
    `)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create journal schema: %w", err)
	}

	return &Journal{db: db, logger: logger.Named("journal")}, nil
}

// Close closes the underlying database.
func (j *Journal) Close() error {
	return j.db.Close()
}

// RecordBuy logs a confirmed buy. Errors are logged, never propagated.
func (j *Journal) RecordBuy(mint, poolID string, price, quoteAmount float64, signature string) {
	_, err := j.db.Exec(`
        INSERT INTO buys (mint, pool_id, price, quote_amount, signature, created_at)
        VALUES (?, ?, ?, ?, ?, ?)`,
		mint, poolID, price, quoteAmount, signature, time.Now().UTC(),
	)
	if err != nil {
		j.logger.Error("failed to record buy", zap.String("mint", mint), zap.Error(err))
	}
}

// RecordSell logs a confirmed sell slice.
func (j *Journal) RecordSell(mint string, quantity uint64, price, gain, threshold float64, signature string) {
	_, err := j.db.Exec(`
        INSERT INTO sells (mint, quantity, price, gain, threshold, signature, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?)`,
		mint, quantity, price, gain, threshold, signature, time.Now().UTC(),
	)
	if err != nil {
		j.logger.Error("failed to record sell", zap.String("mint", mint), zap.Error(err))
	}
}

// RecordPriceMark logs a price observation made during a sell evaluation.
func (j *Journal) RecordPriceMark(mint string, price float64) {
	_, err := j.db.Exec(`
        INSERT INTO price_marks (mint, price, created_at) VALUES (?, ?, ?)`,
		mint, price, time.Now().UTC(),
	)
	if err != nil {
		j.logger.Error("failed to record price mark", zap.String("mint", mint), zap.Error(err))
	}
}
