package sameday

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/smartystudio/lockersync/internal/domain/model"
	"github.com/smartystudio/lockersync/internal/domain/port/driven"
)

// authResponse is the provider's authenticate envelope.
type authResponse struct {
	Token    string `json:"token"`
	ExpireAt string `json:"expire_at"`
}

// authToken returns the cached token while it is still valid, otherwise it
// performs one authentication exchange and caches the result. The lock is
// held across the exchange so concurrent callers never issue duplicate auth
// calls; a caller that blocked on the lock re-checks the cache and reuses the
// freshly fetched token.
func (c *Client) authToken(ctx context.Context) (model.AuthToken, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token.Valid(time.Now()) {
		return c.token, nil
	}

	token, err := c.authenticate(ctx)
	if err != nil {
		return model.AuthToken{}, err
	}

	c.token = token
	slog.Debug("courier token refreshed", "expires_at", token.ExpiresAt)

	return token, nil
}

// authenticate performs a single credentials-for-token exchange against the
// provider. One attempt only; a failure surfaces immediately to the caller.
func (c *Client) authenticate(ctx context.Context) (model.AuthToken, error) {
	if c.username == "" || c.password == "" {
		return model.AuthToken{}, fmt.Errorf("%w: credentials not configured", driven.ErrAuthFailed)
	}

	form := url.Values{}
	form.Set("remember_me", "true")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/authenticate", strings.NewReader(form.Encode()))
	if err != nil {
		return model.AuthToken{}, fmt.Errorf("build authenticate request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-Auth-Username", c.username)
	req.Header.Set("X-Auth-Password", c.password)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return model.AuthToken{}, fmt.Errorf("authenticate: %w: %v", driven.ErrTransport, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return model.AuthToken{}, fmt.Errorf("read authenticate response: %w: %v", driven.ErrTransport, err)
	}

	var parsed authResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return model.AuthToken{}, fmt.Errorf("%w: decode authenticate response: %v", driven.ErrAuthFailed, err)
	}

	if resp.StatusCode != http.StatusOK || parsed.Token == "" {
		return model.AuthToken{}, fmt.Errorf("%w: status %d", driven.ErrAuthFailed, resp.StatusCode)
	}

	expiresAt, err := parseExpiry(parsed.ExpireAt)
	if err != nil {
		return model.AuthToken{}, fmt.Errorf("%w: %v", driven.ErrAuthFailed, err)
	}

	return model.AuthToken{Token: parsed.Token, ExpiresAt: expiresAt}, nil
}

// parseExpiry tries the datetime layouts the provider has been observed to use.
func parseExpiry(s string) (time.Time, error) {
	formats := []string{
		time.RFC3339,
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
	}

	for _, format := range formats {
		if t, err := time.Parse(format, s); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("unrecognized expire_at format: %s", s)
}
