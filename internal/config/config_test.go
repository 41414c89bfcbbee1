package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("defaults without config file", func(t *testing.T) {
		cfg, err := Load(t.TempDir())
		require.NoError(t, err)

		assert.Equal(t, "educhain-wallet", cfg.App.Name)
		assert.Equal(t, "8080", cfg.Server.Port)
		assert.True(t, cfg.Network.UseTestnet)
		assert.Empty(t, cfg.Network.ExpectedChainID)
		assert.Equal(t, "stdout", cfg.Logger.Output)
		assert.Equal(t, 10*time.Second, cfg.Provider.RequestTimeout)
		assert.Equal(t, time.Duration(0), cfg.Provider.PromptTimeout)
		assert.Equal(t, uint(3), cfg.Provider.RetryAttempts)
		assert.False(t, cfg.Wallet.SerializeRefresh)
		assert.Equal(t, 30*time.Minute, cfg.Checker.GetCacheTTL())
		assert.Equal(t, time.Hour, cfg.Cache.GetCleanupInterval())
	})

	t.Run("file overrides defaults", func(t *testing.T) {
		dir := t.TempDir()
		content := []byte(`
network:
  use_testnet: false
  expected_chain_id: "0x1"
provider:
  url: http://127.0.0.1:8545
  prompt_timeout: 2m
wallet:
  serialize_refresh: true
networks:
  import_chain_ids: ["0xa3e3"]
`)
		require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), content, 0o600))

		cfg, err := Load(dir)
		require.NoError(t, err)

		assert.False(t, cfg.Network.UseTestnet)
		assert.Equal(t, "0x1", cfg.Network.ExpectedChainID)
		assert.Equal(t, "http://127.0.0.1:8545", cfg.Provider.URL)
		assert.Equal(t, 2*time.Minute, cfg.Provider.PromptTimeout)
		assert.True(t, cfg.Wallet.SerializeRefresh)
		assert.Equal(t, []string{"0xa3e3"}, cfg.Networks.ImportChainIDs)
	})

	t.Run("environment overrides file", func(t *testing.T) {
		t.Setenv("EDUCHAIN_WALLET_SERVER_PORT", "9999")

		cfg, err := Load(t.TempDir())
		require.NoError(t, err)
		assert.Equal(t, "9999", cfg.Server.Port)
	})
}
