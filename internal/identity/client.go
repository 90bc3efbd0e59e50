package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Claims are the identity assertions returned by the provider.
type Claims struct {
	Email        string  `json:"email"`
	Name         string  `json:"name"`
	Picture      *string `json:"picture"`
	SessionToken string  `json:"session_token"`
}

type Provider interface {
	SessionData(ctx context.Context, sessionID string) (*Claims, error)
}

type Client struct {
	url        string
	httpClient *http.Client
}

func NewClient(url string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// SessionData trades an opaque provider session id for identity claims.
func (c *Client) SessionData(ctx context.Context, sessionID string) (*Claims, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, &ExchangeError{Kind: ProviderUnreachable, Err: err}
	}
	req.Header.Set("X-Session-ID", sessionID)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &ExchangeError{Kind: ProviderUnreachable, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &ExchangeError{Kind: ProviderRejected, Err: fmt.Errorf("provider returned status %d", resp.StatusCode)}
	}

	var claims Claims
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&claims); err != nil {
		return nil, &ExchangeError{Kind: ProviderRejected, Err: fmt.Errorf("decoding provider response: %w", err)}
	}
	if claims.Email == "" || claims.SessionToken == "" {
		return nil, &ExchangeError{Kind: ProviderRejected, Err: fmt.Errorf("provider response missing email or session token")}
	}

	return &claims, nil
}
