package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "eip155:8453", cfg.Chain.ChainID)
	assert.Equal(t, "0x5da551c18109b58831abe8a5b9edc5f9a8e4887c", cfg.Chain.ContractAddress)
	assert.Equal(t, int64(216), cfg.Frame.InitialPieceID)
	assert.Equal(t, PrecedenceAction, cfg.Frame.Precedence)
	assert.Equal(t, "http://localhost:8080/api", cfg.BasePath())
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "frame.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
port: 9000
public_url: https://frame.example.com
frame:
  precedence: path
  initial_piece_id: 12
chain:
  timeout: 3s
`), 0o600))

	t.Setenv("PORT", "9100")
	t.Setenv("NEYNAR_API_KEY", "neynar-key")
	t.Setenv("RATE_LIMIT_RPS", "3")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Port)
	assert.Equal(t, "https://frame.example.com", cfg.PublicURL)
	assert.Equal(t, PrecedencePath, cfg.Frame.Precedence)
	assert.Equal(t, int64(12), cfg.Frame.InitialPieceID)
	assert.Equal(t, 3*time.Second, cfg.Chain.Timeout)
	assert.Equal(t, "neynar-key", cfg.Hub.APIKey)
	assert.Equal(t, 3, cfg.RateLimit.RequestsPerSecond)
	// untouched defaults survive both layers
	assert.Equal(t, "https://storage.thirdweb.com/ipfs/upload", cfg.Storage.UploadURL)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"bad port", func(c *Config) { c.Port = 0 }, "invalid PORT"},
		{"bad public url", func(c *Config) { c.PublicURL = "not a url" }, "PUBLIC_URL"},
		{"bad rpc scheme", func(c *Config) { c.Chain.RPCURL = "ftp://node" }, "BASE_RPC_URL"},
		{"bad precedence", func(c *Config) { c.Frame.Precedence = "random" }, "FRAME_PRECEDENCE"},
		{"negative initial", func(c *Config) { c.Frame.InitialPieceID = -1 }, "FRAME_INITIAL_PIECE_ID"},
		{"bad chain id", func(c *Config) { c.Chain.ChainID = "8453" }, "CHAIN_ID"},
		{"hub required without key", func(c *Config) { c.Hub.Required = true }, "HUB_REQUIRED"},
		{"bad trusted proxy", func(c *Config) { c.RateLimit.TrustedProxies = "10.0.0.1, nope" }, "TRUSTED_PROXIES"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestAllowedOrigins(t *testing.T) {
	cfg := Default()
	cfg.CORSAllowedOrigins = " https://warpcast.com, ,http://localhost:3000"

	assert.Equal(t, []string{"https://warpcast.com", "http://localhost:3000"}, cfg.AllowedOrigins())
}

func TestTrustedProxyList(t *testing.T) {
	cfg := Default()
	cfg.RateLimit.TrustedProxies = "10.0.0.0/8, ,192.168.1.5"

	require.NoError(t, cfg.Validate())
	assert.Equal(t, []string{"10.0.0.0/8", "192.168.1.5"}, cfg.TrustedProxyList())
}
