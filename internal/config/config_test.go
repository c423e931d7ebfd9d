package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
server:
  host: 127.0.0.1
  port: 9090
database:
  driver: sqlite
  dsn: file:nonces.db
siwe:
  domain: app.example
  uri: https://app.example
  chainId: 137
  allowedChainIds: [80002]
  nonceTtl: 5m
  maxMessageAge: 15m
blockchain:
  networks:
    hardhat:
      chainId: 31337
      name: Hardhat
      enabled: true
cors:
  allowedOrigins: ["https://app.example"]
admin:
  allowedIPs: ["10.0.0.0/8"]
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9090", cfg.Server.Addr())
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "app.example", cfg.SIWE.Domain)
	assert.Equal(t, int64(137), cfg.SIWE.ChainID)
	assert.Equal(t, []int64{80002}, cfg.SIWE.AllowedChains)
	assert.Equal(t, 5*time.Minute, cfg.SIWE.NonceTTL)
	assert.Equal(t, 15*time.Minute, cfg.SIWE.MaxMessageAge)
	// Unset keys keep their defaults.
	assert.Equal(t, time.Minute, cfg.SIWE.SweepInterval)
	assert.Equal(t, 24*time.Hour, cfg.JWT.TTL)
	assert.Same(t, cfg, AppConfig)

	network, err := GetNetworkConfigByChainID(31337)
	require.NoError(t, err)
	assert.Equal(t, "Hardhat", network.Name)

	_, err = GetNetworkConfigByChainID(5)
	assert.Error(t, err)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("SIWE_DOMAIN", "login.example")
	t.Setenv("SIWE_CHAIN_ID", "56")
	t.Setenv("SIWE_ALLOWED_CHAIN_IDS", "1, 11155111")
	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, ,https://b.example")
	t.Setenv("SERVER_PORT", "7000")

	cfg, err := LoadConfig(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, "login.example", cfg.SIWE.Domain)
	assert.Equal(t, int64(56), cfg.SIWE.ChainID)
	assert.Equal(t, []int64{1, 11155111}, cfg.SIWE.AllowedChains)
	assert.Equal(t, "from-env", cfg.JWT.Secret)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, 7000, cfg.Server.Port)
}

func TestLoadConfigErrors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = LoadConfig(writeConfig(t, "siwe: [not, a, map]"))
	assert.Error(t, err)

	_, err = LoadConfig(writeConfig(t, "siwe:\n  chainId: -1\n"))
	assert.ErrorContains(t, err, "chainId")

	_, err = LoadConfig(writeConfig(t, "siwe:\n  allowedChainIds: [1, 0]\n"))
	assert.ErrorContains(t, err, "allowedChainIds")

	_, err = LoadConfig(writeConfig(t, "database:\n  driver: mysql\n"))
	assert.ErrorContains(t, err, "mysql")
}

func TestValidateDefaults(t *testing.T) {
	require.NoError(t, Default().Validate())

	cfg := Default()
	cfg.SIWE.Domain = ""
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.SIWE.NonceTTL = 0
	assert.Error(t, cfg.Validate())
}

func TestAcceptsChain(t *testing.T) {
	cfg := SIWEConfig{ChainID: 1, AllowedChains: []int64{11155111}}
	assert.True(t, cfg.AcceptsChain(1))
	assert.True(t, cfg.AcceptsChain(11155111))
	assert.False(t, cfg.AcceptsChain(56))

	assert.False(t, SIWEConfig{ChainID: 1}.AcceptsChain(11155111))
}

func TestConfigureLogging(t *testing.T) {
	defer logrus.SetLevel(logrus.GetLevel())

	require.NoError(t, ConfigureLogging(LogConfig{Level: "debug", Format: "json"}))
	assert.Equal(t, logrus.DebugLevel, logrus.GetLevel())

	assert.Error(t, ConfigureLogging(LogConfig{Level: "loud"}))
	assert.Error(t, ConfigureLogging(LogConfig{Format: "xml"}))
}
