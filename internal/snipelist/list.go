// internal/snipelist/list.go
package snipelist

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"
)

// List is an optional allow-list of mints. When enabled, only listed mints
// proceed past discovery; when disabled every mint is allowed. The backing
// file is reloaded on a fixed interval so entries can be added while the
// agent runs.
type List struct {
	mu      sync.RWMutex
	mints   map[string]struct{}
	path    string
	enabled bool
	logger  *zap.Logger
}

// New creates a snipe list. When enabled, the file is loaded immediately;
// a missing file at startup is a configuration error.
func New(path string, enabled bool, logger *zap.Logger) (*List, error) {
	l := &List{
		mints:   make(map[string]struct{}),
		path:    path,
		enabled: enabled,
		logger:  logger.Named("snipelist"),
	}
	if enabled {
		if err := l.Reload(); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// Enabled reports whether the allow-list filter is active.
func (l *List) Enabled() bool {
	return l.enabled
}

// Allows reports whether the mint may be traded.
func (l *List) Allows(mint solana.PublicKey) bool {
	if !l.enabled {
		return true
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.mints[mint.String()]
	return ok
}

// Mints returns the currently loaded mints. Lines that do not parse as
// public keys are skipped; they can never match a discovered mint.
func (l *List) Mints() []solana.PublicKey {
	l.mu.RLock()
	defer l.mu.RUnlock()

	mints := make([]solana.PublicKey, 0, len(l.mints))
	for raw := range l.mints {
		key, err := solana.PublicKeyFromBase58(raw)
		if err != nil {
			continue
		}
		mints = append(mints, key)
	}
	return mints
}

// Reload reads the list file: one mint per line, blank lines ignored.
func (l *List) Reload() error {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return fmt.Errorf("read snipe list: %w", err)
	}

	mints := make(map[string]struct{})
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			mints[line] = struct{}{}
		}
	}

	l.mu.Lock()
	previous := len(l.mints)
	l.mints = mints
	l.mu.Unlock()

	if len(mints) != previous {
		l.logger.Info("snipe list loaded", zap.Int("mints", len(mints)))
	}
	return nil
}

// Run reloads the list on the given interval until the context is done.
// Reload failures are logged and the previous list stays in effect.
func (l *List) Run(ctx context.Context, interval time.Duration) {
	if !l.enabled {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := l.Reload(); err != nil {
				l.logger.Error("failed to reload snipe list", zap.Error(err))
			}
		}
	}
}
