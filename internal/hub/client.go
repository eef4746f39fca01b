// Package hub validates signed frame actions through the Neynar API.
package hub

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/mykcryptodev/vrbs-vote-frame/internal/httputil"
)

const (
	defaultAPIURL = "https://api.neynar.com"
	validatePath  = "/v2/farcaster/frame/validate"

	// APIKeyHeader carries the Neynar API key.
	APIKeyHeader = "api_key"
)

// ErrInvalidMessage is returned when the hub rejects the signed message.
var ErrInvalidMessage = stderrors.New("frame message failed hub validation")

// Config configures the hub client.
type Config struct {
	APIKey     string
	APIURL     string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client calls the Neynar frame validation endpoint.
type Client struct {
	api *httputil.Client
}

// Action is the trusted view of a validated frame action.
type Action struct {
	FID               int64
	Username          string
	CustodyAddress    string
	VerifiedAddresses []string
	ButtonIndex       int
	InputText         string
	State             string
	URL               string
	TransactionHash   string
}

// New creates a hub client.
func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("hub: API key is required")
	}
	apiURL := strings.TrimSpace(cfg.APIURL)
	if apiURL == "" {
		apiURL = defaultAPIURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	return &Client{
		api: httputil.NewClient(httputil.ClientConfig{
			BaseURL:    apiURL,
			Headers:    map[string]string{APIKeyHeader: cfg.APIKey},
			Timeout:    timeout,
			HTTPClient: cfg.HTTPClient,
		}),
	}, nil
}

// Validate verifies hex-encoded frame message bytes and returns the trusted
// action. ErrInvalidMessage is returned when the hub rejects the message.
func (c *Client) Validate(ctx context.Context, messageBytes string) (*Action, error) {
	messageBytes = strings.TrimPrefix(strings.TrimSpace(messageBytes), "0x")
	if messageBytes == "" {
		return nil, fmt.Errorf("%w: empty message bytes", ErrInvalidMessage)
	}

	resp, err := c.api.Post(ctx, validatePath, map[string]interface{}{
		"message_bytes_in_hex": messageBytes,
	})
	if err != nil {
		return nil, fmt.Errorf("hub validate: %w", err)
	}

	body, err := httputil.ReadResponse(resp)
	if err != nil {
		var statusErr *httputil.StatusError
		if stderrors.As(err, &statusErr) && statusErr.StatusCode == http.StatusBadRequest {
			return nil, fmt.Errorf("%w: %s", ErrInvalidMessage, statusErr.Message)
		}
		return nil, fmt.Errorf("hub validate: %w", err)
	}

	return parseValidateResponse(body)
}

func parseValidateResponse(body []byte) (*Action, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("hub validate: malformed response")
	}

	result := gjson.ParseBytes(body)
	if !result.Get("valid").Bool() {
		return nil, ErrInvalidMessage
	}

	action := result.Get("action")
	out := &Action{
		FID:             action.Get("interactor.fid").Int(),
		Username:        action.Get("interactor.username").String(),
		CustodyAddress:  action.Get("interactor.custody_address").String(),
		ButtonIndex:     int(action.Get("tapped_button.index").Int()),
		InputText:       action.Get("input.text").String(),
		State:           action.Get("state.serialized").String(),
		URL:             action.Get("url").String(),
		TransactionHash: action.Get("transaction.hash").String(),
	}
	for _, addr := range action.Get("interactor.verified_addresses.eth_addresses").Array() {
		out.VerifiedAddresses = append(out.VerifiedAddresses, addr.String())
	}
	if out.FID == 0 {
		return nil, fmt.Errorf("hub validate: response missing interactor fid")
	}
	return out, nil
}
