// Package config loads the frame service configuration once at start-up.
//
// Values are layered: built-in defaults, then an optional YAML file
// (FRAME_CONFIG_FILE), then a .env file, then the process environment.
package config

import (
	stderrors "errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Precedence values for FRAME_PRECEDENCE.
const (
	PrecedenceAction = "action"
	PrecedencePath   = "path"
)

// Config is the complete service configuration. It is built once and not
// mutated afterwards.
type Config struct {
	Port      int    `env:"PORT" yaml:"port"`
	PublicURL string `env:"PUBLIC_URL" yaml:"public_url"`
	LogLevel  string `env:"LOG_LEVEL" yaml:"log_level"`
	LogFormat string `env:"LOG_FORMAT" yaml:"log_format"`

	Frame     FrameConfig     `yaml:"frame"`
	Chain     ChainConfig     `yaml:"chain"`
	Hub       HubConfig       `yaml:"hub"`
	Storage   StorageConfig   `yaml:"storage"`
	Cache     CacheConfig     `yaml:"cache"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`

	CORSAllowedOrigins string `env:"CORS_ALLOWED_ORIGINS" yaml:"cors_allowed_origins"`
}

// FrameConfig controls navigation and session signing.
type FrameConfig struct {
	Secret          string `env:"FRAME_SECRET" yaml:"secret"`
	Precedence      string `env:"FRAME_PRECEDENCE" yaml:"precedence"`
	InitialPieceID  int64  `env:"FRAME_INITIAL_PIECE_ID" yaml:"initial_piece_id"`
	ShareComposeURL string `env:"SHARE_COMPOSE_URL" yaml:"share_compose_url"`
}

// ChainConfig locates the CultureIndex contract.
type ChainConfig struct {
	RPCURL          string        `env:"BASE_RPC_URL" yaml:"rpc_url"`
	Timeout         time.Duration `env:"RPC_TIMEOUT" yaml:"timeout"`
	ContractAddress string        `env:"CONTRACT_ADDRESS" yaml:"contract_address"`
	ChainID         string        `env:"CHAIN_ID" yaml:"chain_id"`
}

// HubConfig configures frame action verification.
type HubConfig struct {
	APIKey   string        `env:"NEYNAR_API_KEY" yaml:"api_key"`
	APIURL   string        `env:"NEYNAR_API_URL" yaml:"api_url"`
	Required bool          `env:"HUB_REQUIRED" yaml:"required"`
	Timeout  time.Duration `env:"HUB_TIMEOUT" yaml:"timeout"`
}

// StorageConfig configures the image upload client.
type StorageConfig struct {
	SecretKey  string        `env:"THIRDWEB_SECRET_KEY" yaml:"secret_key"`
	UploadURL  string        `env:"STORAGE_UPLOAD_URL" yaml:"upload_url"`
	GatewayURL string        `env:"STORAGE_GATEWAY_URL" yaml:"gateway_url"`
	Timeout    time.Duration `env:"STORAGE_TIMEOUT" yaml:"timeout"`
}

// CacheConfig configures the optional optimized-image cache.
type CacheConfig struct {
	RedisURL string        `env:"REDIS_URL" yaml:"redis_url"`
	TTL      time.Duration `env:"IMAGE_CACHE_TTL" yaml:"ttl"`
}

// RateLimitConfig configures per-client throttling.
// TrustedProxies lists proxy IPs or CIDRs whose X-Forwarded-For is honored.
type RateLimitConfig struct {
	RequestsPerSecond int    `env:"RATE_LIMIT_RPS" yaml:"requests_per_second"`
	Burst             int    `env:"RATE_LIMIT_BURST" yaml:"burst"`
	TrustedProxies    string `env:"TRUSTED_PROXIES" yaml:"trusted_proxies"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Port:      8080,
		PublicURL: "http://localhost:8080",
		LogLevel:  "info",
		LogFormat: "json",
		Frame: FrameConfig{
			Precedence:      PrecedenceAction,
			InitialPieceID:  216,
			ShareComposeURL: "https://warpcast.com/~/compose",
		},
		Chain: ChainConfig{
			RPCURL:          "https://mainnet.base.org",
			Timeout:         15 * time.Second,
			ContractAddress: "0x5da551c18109b58831abe8a5b9edc5f9a8e4887c",
			ChainID:         "eip155:8453",
		},
		Hub: HubConfig{
			APIURL:  "https://api.neynar.com",
			Timeout: 5 * time.Second,
		},
		Storage: StorageConfig{
			UploadURL:  "https://storage.thirdweb.com/ipfs/upload",
			GatewayURL: "https://ipfs.io/ipfs",
			Timeout:    20 * time.Second,
		},
		Cache: CacheConfig{
			TTL: 7 * 24 * time.Hour,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 10,
			Burst:             20,
		},
	}
}

// Load builds the configuration. path names an optional YAML file; when empty
// FRAME_CONFIG_FILE is consulted.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !stderrors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := Default()

	if path == "" {
		path = strings.TrimSpace(os.Getenv("FRAME_CONFIG_FILE"))
	}
	if path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
	}

	if err := envdecode.Decode(cfg); err != nil && !stderrors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, fmt.Errorf("decode environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// mergeFile overlays the YAML file at path onto cfg.
func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

// Validate checks the configuration for values the service cannot run with.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid PORT %d", c.Port)
	}
	if err := validateURL("PUBLIC_URL", c.PublicURL); err != nil {
		return err
	}
	if err := validateURL("BASE_RPC_URL", c.Chain.RPCURL); err != nil {
		return err
	}
	switch c.Frame.Precedence {
	case PrecedenceAction, PrecedencePath:
	default:
		return fmt.Errorf("FRAME_PRECEDENCE must be %q or %q, got %q", PrecedenceAction, PrecedencePath, c.Frame.Precedence)
	}
	if c.Frame.InitialPieceID < 0 {
		return fmt.Errorf("FRAME_INITIAL_PIECE_ID must not be negative")
	}
	if !strings.HasPrefix(c.Chain.ChainID, "eip155:") {
		return fmt.Errorf("CHAIN_ID must be a CAIP-2 eip155 id, got %q", c.Chain.ChainID)
	}
	if c.Hub.Required && c.Hub.APIKey == "" {
		return fmt.Errorf("HUB_REQUIRED is set but NEYNAR_API_KEY is empty")
	}
	if c.RateLimit.RequestsPerSecond < 0 || c.RateLimit.Burst < 0 {
		return fmt.Errorf("rate limit values must not be negative")
	}
	for _, proxy := range c.TrustedProxyList() {
		if net.ParseIP(proxy) != nil {
			continue
		}
		if _, _, err := net.ParseCIDR(proxy); err != nil {
			return fmt.Errorf("TRUSTED_PROXIES entry %q is not an IP or CIDR", proxy)
		}
	}
	return nil
}

// BasePath returns the public URL of the frame routes.
func (c *Config) BasePath() string {
	return strings.TrimRight(c.PublicURL, "/") + "/api"
}

// AllowedOrigins splits CORS_ALLOWED_ORIGINS on commas.
func (c *Config) AllowedOrigins() []string {
	return splitList(c.CORSAllowedOrigins)
}

// TrustedProxyList splits TRUSTED_PROXIES on commas.
func (c *Config) TrustedProxyList() []string {
	return splitList(c.RateLimit.TrustedProxies)
}

func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if v := strings.TrimSpace(item); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func validateURL(name, raw string) error {
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("%s must be a valid URL", name)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("%s scheme must be http or https", name)
	}
	return nil
}
