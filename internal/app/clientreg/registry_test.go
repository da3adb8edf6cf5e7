package clientreg

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUpsertLastWriteWins(t *testing.T) {
	reg := NewRegistry()
	reg.Upsert(3, Config{BaseURL: "https://a", PrivateKey: "0x1", ChainID: 1, AccountIndex: 10})
	reg.Upsert(3, Config{BaseURL: "https://b", PrivateKey: "0x2", ChainID: 2, AccountIndex: 20})

	cfg, ok := reg.Lookup(3)
	require.True(t, ok)
	require.Equal(t, "https://b", cfg.BaseURL)
	require.Equal(t, int64(20), cfg.AccountIndex)
	require.Equal(t, 1, reg.Len())
}

func TestLookupMissing(t *testing.T) {
	reg := NewRegistry()
	_, ok := reg.Lookup(9)
	require.False(t, ok)
}

func TestUpsertDoesNotTouchInitialized(t *testing.T) {
	reg := NewRegistry()
	reg.Upsert(1, Config{BaseURL: "https://a", PrivateKey: "0x1"})
	require.False(t, reg.IsInitialized(1))

	reg.MarkInitialized(1)
	require.True(t, reg.IsInitialized(1))

	// 覆盖配置不应清除注册标记。
	reg.Upsert(1, Config{BaseURL: "https://b", PrivateKey: "0x2"})
	require.True(t, reg.IsInitialized(1))
}

func TestMarkInitializedIdempotent(t *testing.T) {
	reg := NewRegistry()
	reg.MarkInitialized(7)
	reg.MarkInitialized(7)
	require.True(t, reg.IsInitialized(7))
	require.False(t, reg.IsInitialized(8))
}

func TestSeedNeverMarksInitialized(t *testing.T) {
	reg := NewRegistry()
	reg.Seed([]SeedEntry{
		{APIKeyIndex: 0, Config: Config{BaseURL: "https://x", PrivateKey: "0xabc", ChainID: 1, AccountIndex: 5}},
		{APIKeyIndex: 2, Config: Config{BaseURL: "https://y", PrivateKey: "0xdef", ChainID: 1, AccountIndex: 6}},
	})

	cfg, ok := reg.Lookup(0)
	require.True(t, ok)
	require.Equal(t, "https://x", cfg.BaseURL)
	require.False(t, reg.IsInitialized(0))
	require.False(t, reg.IsInitialized(2))
}
