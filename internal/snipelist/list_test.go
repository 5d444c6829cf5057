package snipelist

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func writeList(t *testing.T, lines string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "snipe-list.txt")
	require.NoError(t, os.WriteFile(path, []byte(lines), 0o600))
	return path
}

func TestDisabledListAllowsEverything(t *testing.T) {
	list, err := New("does-not-exist.txt", false, zap.NewNop())
	require.NoError(t, err)

	assert.True(t, list.Allows(solana.NewWallet().PublicKey()))
	assert.False(t, list.Enabled())
}

func TestEnabledListFiltersMints(t *testing.T) {
	listed := solana.NewWallet().PublicKey()
	other := solana.NewWallet().PublicKey()

	path := writeList(t, listed.String()+"\n\n  \n")
	list, err := New(path, true, zap.NewNop())
	require.NoError(t, err)

	assert.True(t, list.Allows(listed))
	assert.False(t, list.Allows(other))
}

func TestEnabledListMissingFileIsFatal(t *testing.T) {
	_, err := New("does-not-exist.txt", true, zap.NewNop())
	assert.Error(t, err)
}

func TestMintsSkipsUnparseableLines(t *testing.T) {
	listed := solana.NewWallet().PublicKey()

	path := writeList(t, listed.String()+"\nnot-a-pubkey\n")
	list, err := New(path, true, zap.NewNop())
	require.NoError(t, err)

	assert.Equal(t, []solana.PublicKey{listed}, list.Mints())
}

func TestReloadPicksUpNewEntries(t *testing.T) {
	first := solana.NewWallet().PublicKey()
	second := solana.NewWallet().PublicKey()

	path := writeList(t, first.String())
	list, err := New(path, true, zap.NewNop())
	require.NoError(t, err)
	assert.False(t, list.Allows(second))

	require.NoError(t, os.WriteFile(path, []byte(first.String()+"\n"+second.String()), 0o600))
	require.NoError(t, list.Reload())

	assert.True(t, list.Allows(first))
	assert.True(t, list.Allows(second))
}
