package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bridge.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "signers", cfg.SignerDir)
	require.Equal(t, 256, cfg.MaxPending)
	require.Empty(t, cfg.Listen)
	require.Empty(t, cfg.Clients)
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
signerDir: /opt/lighter/signers
listen: tcp://127.0.0.1:7001
metricsAddr: :9101
maxPending: 64
clients:
  - apiKeyIndex: 0
    baseUrl: https://mainnet.zklighter.elliot.ai
    privateKey: "0xabc"
    chainId: 304
    accountIndex: 5
  - apiKeyIndex: 2
    baseUrl: https://mainnet.zklighter.elliot.ai
    privateKey: "0xdef"
    chainId: 304
    accountIndex: 5
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "/opt/lighter/signers", cfg.SignerDir)
	require.Equal(t, "tcp://127.0.0.1:7001", cfg.Listen)
	require.Equal(t, ":9101", cfg.MetricsAddr)
	require.Equal(t, 64, cfg.MaxPending)
	require.Len(t, cfg.Clients, 2)

	entries := cfg.SeedEntries()
	require.Len(t, entries, 2)
	require.Equal(t, 0, entries[0].APIKeyIndex)
	require.Equal(t, "0xabc", entries[0].Config.PrivateKey)
	require.Equal(t, int64(5), entries[1].Config.AccountIndex)
}

func TestLoadRejectsBadClients(t *testing.T) {
	path := writeConfig(t, `
clients:
  - apiKeyIndex: 1
    baseUrl: https://x
`)
	_, err := Load(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "privateKey")

	path = writeConfig(t, `
clients:
  - apiKeyIndex: 1
    baseUrl: https://x
    privateKey: "0xa"
  - apiKeyIndex: 1
    baseUrl: https://y
    privateKey: "0xb"
`)
	_, err = Load(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "duplicate")
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("SIGNER_BRIDGE_LIBRARY", "/tmp/signer-amd64.so")
	t.Setenv("SIGNER_BRIDGE_LISTEN", "vsock://2048")
	t.Setenv("SIGNER_BRIDGE_MAX_PENDING", "17")
	t.Setenv("SIGNER_BRIDGE_STUB", "true")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "/tmp/signer-amd64.so", cfg.SignerLibrary)
	require.Equal(t, "vsock://2048", cfg.Listen)
	require.Equal(t, 17, cfg.MaxPending)
	require.True(t, cfg.StubBackend)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}
