package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pmcosta/dealfinder/internal/airports"
	"github.com/pmcosta/dealfinder/internal/cache"
	"github.com/pmcosta/dealfinder/internal/ratelimit"
)

func newTestTravelpayouts(t *testing.T, baseURL string) *TravelpayoutsProvider {
	t.Helper()

	dir, err := airports.Load()
	require.NoError(t, err)

	cfg := DefaultTravelpayoutsConfig()
	cfg.Token = "test-token"
	cfg.BaseURL = baseURL
	cfg.RateLimitDelay = time.Millisecond
	cfg.ExploreDestinations = []string{"CDG"}

	p, err := NewTravelpayoutsProvider(cfg, cache.NewNoOpStore(), dir, ratelimit.NewProviderLimiter(time.Millisecond))
	require.NoError(t, err)
	return p
}

func TestNewTravelpayoutsProvider_RequiresToken(t *testing.T) {
	dir, err := airports.Load()
	require.NoError(t, err)

	cfg := DefaultTravelpayoutsConfig()
	_, err = NewTravelpayoutsProvider(cfg, cache.NewNoOpStore(), dir, ratelimit.NewProviderLimiter(time.Millisecond))
	require.Error(t, err)

	kind, ok := KindOf(err)
	require.True(t, ok)
	assert.Equal(t, KindAuthFailed, kind)
}

func TestTravelpayoutsSearchDeals_ModernFieldNames(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-token", r.URL.Query().Get("token"))
		assert.Equal(t, "2026-05-01", r.URL.Query().Get("beginning_of_period"))
		fmt.Fprint(w, `{"data":[{
			"value": 120.5,
			"departure_at": "2026-05-10T06:25:00Z",
			"return_at": "2026-05-17T21:10:00Z",
			"transfers": 1,
			"airline": "FR",
			"flight_number": 2243,
			"link": "/search/OPO1005CDG17051"
		}]}`)
	}))
	defer srv.Close()

	p := newTestTravelpayouts(t, srv.URL)
	deals, err := p.SearchDeals(context.Background(), Query{
		Origin:       "OPO",
		Destinations: []string{"CDG"},
		StartDate:    date("2026-05-01"),
		EndDate:      date("2026-05-31"),
		MinDays:      5,
		MaxDays:      10,
	})
	require.NoError(t, err)
	require.Len(t, deals, 1)

	d := deals[0]
	assert.Equal(t, 120.5, d.Price)
	assert.Equal(t, "2026-05-10", d.DepartDate)
	assert.Equal(t, "2026-05-17", d.ReturnDate)
	require.NotNil(t, d.Transfers)
	assert.Equal(t, 1, *d.Transfers)
	assert.Equal(t, "FR", d.Airline)
	assert.Equal(t, "2243", d.FlightNumber)
	assert.Equal(t, "/search/OPO1005CDG17051", d.DeepLink)
	assert.Equal(t, "Porto", d.OriginCity)
}

func TestTravelpayoutsSearchDeals_LegacyFieldNames(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":[{
			"price": 99,
			"depart_date": "2026-05-12",
			"return_date": "2026-05-19",
			"number_of_changes": 0
		}]}`)
	}))
	defer srv.Close()

	p := newTestTravelpayouts(t, srv.URL)
	deals, err := p.SearchDeals(context.Background(), Query{
		Origin:       "OPO",
		Destinations: []string{"CDG"},
		StartDate:    date("2026-05-01"),
		EndDate:      date("2026-05-31"),
		MinDays:      5,
		MaxDays:      10,
	})
	require.NoError(t, err)
	require.Len(t, deals, 1)

	d := deals[0]
	assert.Equal(t, 99.0, d.Price)
	assert.Equal(t, "2026-05-12", d.DepartDate)
	require.NotNil(t, d.Transfers)
	assert.Equal(t, 0, *d.Transfers)
}

func TestTravelpayoutsSearchDeals_FiltersOutOfWindowCandidates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":[
			{"value": 80, "departure_at": "2026-05-10", "return_at": "2026-05-17"},
			{"value": 50, "departure_at": "2026-06-10", "return_at": "2026-06-17"},
			{"value": 60, "departure_at": "2026-05-10", "return_at": "2026-05-11"},
			{"value": 0, "departure_at": "2026-05-10", "return_at": "2026-05-17"}
		]}`)
	}))
	defer srv.Close()

	p := newTestTravelpayouts(t, srv.URL)
	deals, err := p.SearchDeals(context.Background(), Query{
		Origin:       "OPO",
		Destinations: []string{"CDG"},
		StartDate:    date("2026-05-01"),
		EndDate:      date("2026-05-31"),
		MinDays:      5,
		MaxDays:      10,
	})
	require.NoError(t, err)
	require.Len(t, deals, 1)
	assert.Equal(t, 80.0, deals[0].Price)
}

func TestTravelpayoutsRequest_TokenRejected(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	p := newTestTravelpayouts(t, srv.URL)
	_, err := p.SearchDeals(context.Background(), Query{
		Origin:       "OPO",
		Destinations: []string{"CDG"},
		StartDate:    date("2026-05-01"),
		EndDate:      date("2026-05-31"),
		MinDays:      1,
		MaxDays:      30,
	})
	require.Error(t, err)

	kind, ok := KindOf(err)
	require.True(t, ok)
	assert.Equal(t, KindAuthFailed, kind)
	assert.Equal(t, int64(1), calls.Load())
}

func TestTravelpayoutsRequest_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, `{"data":[{"value": 75, "departure_at": "2026-05-10", "return_at": "2026-05-17"}]}`)
	}))
	defer srv.Close()

	p := newTestTravelpayouts(t, srv.URL)
	deals, err := p.SearchDeals(context.Background(), Query{
		Origin:       "OPO",
		Destinations: []string{"CDG"},
		StartDate:    date("2026-05-01"),
		EndDate:      date("2026-05-31"),
		MinDays:      1,
		MaxDays:      30,
	})
	require.NoError(t, err)
	require.Len(t, deals, 1)
	assert.Equal(t, int64(3), calls.Load())
}

func TestTravelpayoutsRequest_UnexpectedClientErrorIsEmptyResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	p := newTestTravelpayouts(t, srv.URL)
	deals, err := p.SearchDeals(context.Background(), Query{
		Origin:       "OPO",
		Destinations: []string{"CDG"},
		StartDate:    date("2026-05-01"),
		EndDate:      date("2026-05-31"),
		MinDays:      1,
		MaxDays:      30,
	})
	require.NoError(t, err)
	assert.Empty(t, deals)
}
