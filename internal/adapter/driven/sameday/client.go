// Package sameday implements the CourierClient port against the Sameday
// locker REST API.
package sameday

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gregjones/httpcache"

	"github.com/smartystudio/lockersync/internal/domain/model"
	"github.com/smartystudio/lockersync/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.CourierClient = (*Client)(nil)

// requestTimeout bounds every provider call so a stalled provider cannot
// hang a sync indefinitely.
const requestTimeout = 10 * time.Second

// Client implements the driven.CourierClient port over the provider's REST
// API. The provider requires the raw credentials as headers on every call in
// addition to the bearer token, so the client carries both.
type Client struct {
	httpClient *http.Client
	baseURL    string
	username   string
	password   string

	// mu guards the cached token so concurrent triggers cannot race a
	// refresh against each other.
	mu    sync.Mutex
	token model.AuthToken
}

// NewClient creates a provider client with an in-memory caching transport
// (conditional request caching) and a 10 second request timeout.
func NewClient(baseURL, username, password string) *Client {
	return &Client{
		httpClient: &http.Client{
			Transport: httpcache.NewMemoryCacheTransport(),
			Timeout:   requestTimeout,
		},
		baseURL:  baseURL,
		username: username,
		password: password,
	}
}

// NewClientWithHTTPClient creates a Client with a custom http.Client and base URL.
// This constructor is intended for testing, allowing injection of an httptest server.
func NewClientWithHTTPClient(httpClient *http.Client, baseURL, username, password string) *Client {
	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		username:   username,
		password:   password,
	}
}

// lockersResponse is the provider's lockers page envelope. A well-formed
// response carries either data+pages or an application-level error object.
type lockersResponse struct {
	Data  []rawLocker `json:"data"`
	Pages int         `json:"pages"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// rawLocker is one locker record as the provider serializes it.
type rawLocker struct {
	LockerID   int64  `json:"lockerId"`
	Name       string `json:"name"`
	Country    string `json:"country"`
	City       string `json:"city"`
	PostalCode string `json:"postalCode"`
	Address    string `json:"address"`
}

// FetchLockers retrieves one page of lockers for the given country code.
// It attaches the cached (or freshly obtained) token plus the raw credentials
// and returns the page's records and the provider-declared total page count.
// It does not paginate internally; callers drive the page loop.
func (c *Client) FetchLockers(ctx context.Context, countryCode string, page int) ([]model.Locker, int, error) {
	token, err := c.authToken(ctx)
	if err != nil {
		return nil, 0, err
	}

	q := url.Values{}
	q.Set("countryCode", countryCode)
	q.Set("page", fmt.Sprintf("%d", page))
	endpoint := c.baseURL + "/api/client/lockers?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("build lockers request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Auth-Username", c.username)
	req.Header.Set("X-Auth-Password", c.password)
	req.Header.Set("X-Auth-Token", token.Token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("fetch lockers page %d: %w: %v", page, driven.ErrTransport, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("read lockers page %d: %w: %v", page, driven.ErrTransport, err)
	}

	var parsed lockersResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, 0, fmt.Errorf("decode lockers page %d: %w: %v", page, driven.ErrMalformedResponse, err)
	}

	if parsed.Error != nil {
		return nil, 0, &driven.ProviderError{Message: parsed.Error.Message}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, 0, &driven.ProviderError{Message: fmt.Sprintf("unexpected status %d", resp.StatusCode)}
	}

	lockers := make([]model.Locker, 0, len(parsed.Data))
	for _, raw := range parsed.Data {
		lockers = append(lockers, mapLocker(raw))
	}

	totalPages := parsed.Pages
	if totalPages < 1 {
		totalPages = 1
	}

	slog.Debug("lockers page fetched",
		"country", countryCode,
		"page", page,
		"count", len(lockers),
		"total_pages", totalPages,
	)

	return lockers, totalPages, nil
}

// mapLocker converts a provider locker record to the domain model. Missing
// optional fields become empty strings rather than failing, and FullAddress
// is always recomputed from its parts regardless of what the provider sent.
// UpdatedAt is left zero; the sync engine stamps it with the run's start time.
func mapLocker(raw rawLocker) model.Locker {
	return model.Locker{
		LockerID:    raw.LockerID,
		Name:        raw.Name,
		Country:     raw.Country,
		CityName:    raw.City,
		PostCode:    raw.PostalCode,
		Address:     raw.Address,
		FullAddress: fmt.Sprintf("%s, %s, %s", raw.City, raw.PostalCode, raw.Address),
	}
}
