// Package storage uploads files to IPFS through the thirdweb storage API.
package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"
)

const (
	defaultUploadURL   = "https://storage.thirdweb.com/ipfs/upload"
	defaultGatewayURL  = "https://ipfs.io/ipfs"
	defaultTimeout     = 20 * time.Second
	defaultMaxBodySize = 1 << 20 // 1MiB

	// SecretKeyHeader carries the thirdweb secret key.
	SecretKeyHeader = "x-secret-key"
)

// Config configures the storage client.
type Config struct {
	// SecretKey authenticates uploads. Required.
	SecretKey string
	// UploadURL is the multipart upload endpoint.
	UploadURL string
	// GatewayURL is the public IPFS gateway used to build returned URLs.
	GatewayURL string
	Timeout    time.Duration
	HTTPClient *http.Client
	// MaxBodyBytes caps response bodies.
	MaxBodyBytes int64
}

// Client uploads files and returns gateway URLs.
type Client struct {
	secretKey    string
	uploadURL    string
	gatewayURL   string
	httpClient   *http.Client
	maxBodyBytes int64
}

// New creates a storage client.
func New(cfg Config) (*Client, error) {
	secretKey := strings.TrimSpace(cfg.SecretKey)
	if secretKey == "" {
		return nil, fmt.Errorf("storage: secret key is required")
	}

	uploadURL := strings.TrimSpace(cfg.UploadURL)
	if uploadURL == "" {
		uploadURL = defaultUploadURL
	}
	if err := validateURL("UploadURL", uploadURL); err != nil {
		return nil, err
	}

	gatewayURL := strings.TrimRight(strings.TrimSpace(cfg.GatewayURL), "/")
	if gatewayURL == "" {
		gatewayURL = defaultGatewayURL
	}
	if err := validateURL("GatewayURL", gatewayURL); err != nil {
		return nil, err
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}

	maxBodyBytes := cfg.MaxBodyBytes
	if maxBodyBytes <= 0 {
		maxBodyBytes = defaultMaxBodySize
	}

	return &Client{
		secretKey:    secretKey,
		uploadURL:    uploadURL,
		gatewayURL:   gatewayURL,
		httpClient:   client,
		maxBodyBytes: maxBodyBytes,
	}, nil
}

func validateURL(field, raw string) error {
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("storage: %s must be a valid URL", field)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("storage: %s scheme must be http or https", field)
	}
	if parsed.User != nil {
		return fmt.Errorf("storage: %s must not include user info", field)
	}
	return nil
}

// Upload stores data under name and returns its gateway URL.
func (c *Client) Upload(ctx context.Context, name string, data []byte) (string, error) {
	if c == nil {
		return "", fmt.Errorf("storage: client is nil")
	}
	name = path.Base(strings.TrimSpace(name))
	if name == "" || name == "." || name == "/" {
		return "", fmt.Errorf("storage: file name is required")
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", name)
	if err != nil {
		return "", fmt.Errorf("storage: create form file: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return "", fmt.Errorf("storage: write form file: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("storage: close multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.uploadURL, &body)
	if err != nil {
		return "", fmt.Errorf("storage: create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set(SecretKeyHeader, c.secretKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("storage: execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		msg, readErr := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if readErr == nil && len(bytes.TrimSpace(msg)) > 0 {
			return "", fmt.Errorf("storage: %s: %s", resp.Status, strings.TrimSpace(string(msg)))
		}
		return "", fmt.Errorf("storage: %s", resp.Status)
	}

	var out struct {
		IpfsHash  string `json:"IpfsHash"`
		PinSize   int64  `json:"PinSize"`
		Timestamp string `json:"Timestamp"`
	}
	dec := json.NewDecoder(io.LimitReader(resp.Body, c.maxBodyBytes))
	if err := dec.Decode(&out); err != nil {
		return "", fmt.Errorf("storage: decode response: %w", err)
	}
	if out.IpfsHash == "" {
		return "", fmt.Errorf("storage: response missing IpfsHash")
	}

	return c.gatewayURL + "/" + out.IpfsHash + "/" + url.PathEscape(name), nil
}
