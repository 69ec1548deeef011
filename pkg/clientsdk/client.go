package clientsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client calls the identity provider on behalf of one client site.
type Client struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	HTTPClient   *http.Client
}

// NewClient creates a client with a 10 second request timeout.
func NewClient(baseURL, clientID, clientSecret string) *Client {
	return &Client{
		BaseURL:      strings.TrimSuffix(baseURL, "/"),
		ClientID:     clientID,
		ClientSecret: clientSecret,
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// ExchangeCode redeems a one-time authorization code. Each code can be
// redeemed once; a repeated call returns ErrNotFound.
func (c *Client) ExchangeCode(ctx context.Context, code string) (*ExchangeResponse, error) {
	req := ExchangeRequest{
		Code:         code,
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
	}

	var resp ExchangeResponse
	if err := c.post(ctx, "/verify_auth_code", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CheckRefresh reports whether token is still the user's live refresh
// token for this client.
func (c *Client) CheckRefresh(ctx context.Context, userID int64, token string) (bool, error) {
	req := CheckRefreshRequest{
		Token:        token,
		UserID:       userID,
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
	}

	var resp CheckRefreshResponse
	if err := c.post(ctx, "/check_refresh", req, &resp); err != nil {
		return false, err
	}
	return resp.IsValid, nil
}

func (c *Client) post(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	resp, err := httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return parseAPIError(resp.StatusCode, raw)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func parseAPIError(status int, raw []byte) error {
	apiErr := &APIError{}
	if err := json.Unmarshal(raw, apiErr); err != nil || apiErr.ErrorCode == 0 {
		return &APIError{ErrorCode: status, Message: strings.TrimSpace(string(raw))}
	}
	return apiErr
}

// IsNotFound reports whether err is an unknown code or client.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }
