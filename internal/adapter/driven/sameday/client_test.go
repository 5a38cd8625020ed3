package sameday_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartystudio/lockersync/internal/adapter/driven/sameday"
	"github.com/smartystudio/lockersync/internal/domain/port/driven"
)

// newTestClient creates a Client backed by the given httptest handler.
func newTestClient(t *testing.T, handler http.Handler) *sameday.Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return sameday.NewClientWithHTTPClient(server.Client(), server.URL, "svcuser", "svcpass")
}

// lockerJSON is a helper struct for building provider locker responses.
type lockerJSON struct {
	LockerID   int64  `json:"lockerId"`
	Name       string `json:"name"`
	Country    string `json:"country,omitempty"`
	City       string `json:"city"`
	PostalCode string `json:"postalCode,omitempty"`
	Address    string `json:"address,omitempty"`
}

// testProvider is an httptest handler emulating the authenticate and lockers
// endpoints. authCalls counts authentication exchanges.
type testProvider struct {
	authCalls   atomic.Int64
	lockerCalls atomic.Int64
	expireAt    string
	lockersFn   func(w http.ResponseWriter, r *http.Request)
}

func (p *testProvider) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/api/authenticate":
		p.authCalls.Add(1)
		if r.Header.Get("X-Auth-Username") != "svcuser" || r.Header.Get("X-Auth-Password") != "svcpass" {
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprint(w, `{}`)
			return
		}
		fmt.Fprintf(w, `{"token":"tok-%d","expire_at":%q}`, p.authCalls.Load(), p.expireAt)
	case "/api/client/lockers":
		p.lockerCalls.Add(1)
		p.lockersFn(w, r)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func futureExpiry() string {
	return time.Now().Add(time.Hour).UTC().Format(time.RFC3339)
}

func writeLockersPage(w http.ResponseWriter, lockers []lockerJSON, pages int) {
	_ = json.NewEncoder(w).Encode(map[string]any{"data": lockers, "pages": pages})
}

func TestFetchLockers_SinglePage(t *testing.T) {
	var gotToken, gotCountry, gotPage string
	provider := &testProvider{
		expireAt: futureExpiry(),
		lockersFn: func(w http.ResponseWriter, r *http.Request) {
			gotToken = r.Header.Get("X-Auth-Token")
			gotCountry = r.URL.Query().Get("countryCode")
			gotPage = r.URL.Query().Get("page")
			writeLockersPage(w, []lockerJSON{
				{LockerID: 101, Name: "Central Station", Country: "RO", City: "Cluj", PostalCode: "400002", Address: "Piata Garii 5"},
				{LockerID: 102, Name: "West Gate", Country: "RO", City: "Cluj", PostalCode: "400010", Address: "Calea Manastur 2"},
			}, 1)
		},
	}
	client := newTestClient(t, provider)

	lockers, totalPages, err := client.FetchLockers(context.Background(), "RO", 1)
	require.NoError(t, err)

	assert.Equal(t, 1, totalPages)
	require.Len(t, lockers, 2)
	assert.Equal(t, int64(101), lockers[0].LockerID)
	assert.Equal(t, "Central Station", lockers[0].Name)
	assert.Equal(t, "Cluj", lockers[0].CityName)
	assert.Equal(t, "Cluj, 400002, Piata Garii 5", lockers[0].FullAddress)
	assert.True(t, lockers[0].UpdatedAt.IsZero(), "adapter leaves the sync stamp to the engine")

	assert.Equal(t, "tok-1", gotToken, "token header must accompany raw credentials")
	assert.Equal(t, "RO", gotCountry)
	assert.Equal(t, "1", gotPage)
}

func TestFetchLockers_NormalizationDefaults(t *testing.T) {
	provider := &testProvider{
		expireAt: futureExpiry(),
		lockersFn: func(w http.ResponseWriter, r *http.Request) {
			writeLockersPage(w, []lockerJSON{
				{LockerID: 7, Name: "Bare Locker", City: "Sofia"},
			}, 1)
		},
	}
	client := newTestClient(t, provider)

	lockers, _, err := client.FetchLockers(context.Background(), "BG", 1)
	require.NoError(t, err)
	require.Len(t, lockers, 1)

	assert.Empty(t, lockers[0].Country)
	assert.Empty(t, lockers[0].PostCode)
	assert.Empty(t, lockers[0].Address)
	assert.Equal(t, "Sofia, , ", lockers[0].FullAddress)
}

func TestFetchLockers_TokenReuse(t *testing.T) {
	provider := &testProvider{
		expireAt: futureExpiry(),
		lockersFn: func(w http.ResponseWriter, r *http.Request) {
			writeLockersPage(w, []lockerJSON{{LockerID: 1, Name: "A", City: "Cluj"}}, 1)
		},
	}
	client := newTestClient(t, provider)

	_, _, err := client.FetchLockers(context.Background(), "RO", 1)
	require.NoError(t, err)
	_, _, err = client.FetchLockers(context.Background(), "RO", 2)
	require.NoError(t, err)

	assert.Equal(t, int64(1), provider.authCalls.Load(), "valid cached token must be reused")
	assert.Equal(t, int64(2), provider.lockerCalls.Load())
}

func TestFetchLockers_TokenRefreshOnExpiry(t *testing.T) {
	provider := &testProvider{
		expireAt: time.Now().Add(-time.Minute).UTC().Format(time.RFC3339),
		lockersFn: func(w http.ResponseWriter, r *http.Request) {
			writeLockersPage(w, []lockerJSON{{LockerID: 1, Name: "A", City: "Cluj"}}, 1)
		},
	}
	client := newTestClient(t, provider)

	_, _, err := client.FetchLockers(context.Background(), "RO", 1)
	require.NoError(t, err)
	_, _, err = client.FetchLockers(context.Background(), "RO", 2)
	require.NoError(t, err)

	assert.Equal(t, int64(2), provider.authCalls.Load(), "expired token must trigger a fresh exchange")
}

func TestFetchLockers_AuthRejected(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{}`)
	})
	client := newTestClient(t, handler)

	_, _, err := client.FetchLockers(context.Background(), "RO", 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, driven.ErrAuthFailed)
}

func TestFetchLockers_MissingCredentials(t *testing.T) {
	client := sameday.NewClientWithHTTPClient(http.DefaultClient, "http://127.0.0.1:0", "", "")

	_, _, err := client.FetchLockers(context.Background(), "RO", 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, driven.ErrAuthFailed)
}

func TestFetchLockers_ProviderError(t *testing.T) {
	provider := &testProvider{
		expireAt: futureExpiry(),
		lockersFn: func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"error":{"message":"country not supported"}}`)
		},
	}
	client := newTestClient(t, provider)

	_, _, err := client.FetchLockers(context.Background(), "XX", 1)
	require.Error(t, err)

	var provErr *driven.ProviderError
	require.ErrorAs(t, err, &provErr)
	assert.Equal(t, "country not supported", provErr.Message)
}

func TestFetchLockers_MalformedResponse(t *testing.T) {
	provider := &testProvider{
		expireAt: futureExpiry(),
		lockersFn: func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `<html>gateway timeout</html>`)
		},
	}
	client := newTestClient(t, provider)

	_, _, err := client.FetchLockers(context.Background(), "RO", 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, driven.ErrMalformedResponse)
}

func TestFetchLockers_TransportError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	client := sameday.NewClientWithHTTPClient(server.Client(), server.URL, "svcuser", "svcpass")
	server.Close()

	_, _, err := client.FetchLockers(context.Background(), "RO", 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, driven.ErrTransport)
}
