package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/pmcosta/dealfinder/internal/airports"
	"github.com/pmcosta/dealfinder/internal/cache"
	"github.com/pmcosta/dealfinder/internal/logger"
	"github.com/pmcosta/dealfinder/internal/models"
	"github.com/pmcosta/dealfinder/internal/ratelimit"
)

const (
	travelpayoutsName = "travelpayouts"
	latestPricesPath  = "/aviasales/v3/get_latest_prices"
)

type TravelpayoutsConfig struct {
	Token               string
	BaseURL             string
	Currency            string
	Timeout             time.Duration
	MaxRetries          int
	RateLimitDelay      time.Duration
	BackoffFactor       float64
	ExploreDestinations []string
}

func DefaultTravelpayoutsConfig() TravelpayoutsConfig {
	return TravelpayoutsConfig{
		BaseURL:        "https://api.travelpayouts.com",
		Currency:       "EUR",
		Timeout:        10 * time.Second,
		MaxRetries:     3,
		RateLimitDelay: 500 * time.Millisecond,
		BackoffFactor:  2.0,
	}
}

// TravelpayoutsProvider searches the Travelpayouts aggregated price feed.
// Authentication is a static token, so there is no token lifecycle; the
// feed is cached data upstream and tolerates aggressive caching here.
type TravelpayoutsProvider struct {
	config   TravelpayoutsConfig
	cache    cache.Store
	airports *airports.Directory
	limiter  *ratelimit.ProviderLimiter
	client   *http.Client
	log      *zap.SugaredLogger
}

func NewTravelpayoutsProvider(cfg TravelpayoutsConfig, store cache.Store, dir *airports.Directory, limiter *ratelimit.ProviderLimiter) (*TravelpayoutsProvider, error) {
	if cfg.Token == "" {
		return nil, &APIError{Provider: travelpayoutsName, Kind: KindAuthFailed, Message: "token not configured (TRAVELPAYOUTS_TOKEN)"}
	}
	limiter.SetProviderDelay(travelpayoutsName, cfg.RateLimitDelay)
	return &TravelpayoutsProvider{
		config:   cfg,
		cache:    store,
		airports: dir,
		limiter:  limiter,
		client:   &http.Client{Timeout: cfg.Timeout},
		log:      logger.GetLogger(travelpayoutsName),
	}, nil
}

func (p *TravelpayoutsProvider) Name() string { return travelpayoutsName }

// SearchDeals queries the latest-prices feed month by month for each
// destination. Named destinations are honored; without them the provider
// falls back to its configured popular destinations.
func (p *TravelpayoutsProvider) SearchDeals(ctx context.Context, q Query) ([]models.FlightDeal, error) {
	origin, ok := normalizeIATA(q.Origin)
	if !ok {
		return nil, &APIError{Provider: travelpayoutsName, Kind: KindBadRequest, Message: fmt.Sprintf("invalid origin %q", q.Origin)}
	}

	dests := p.destinations(origin, q.Destinations)
	months := Months(q.StartDate, q.EndDate)

	total := len(months) * len(dests)
	var (
		deals   []models.FlightDeal
		lastErr error
		step    int
	)
	for _, month := range months {
		for _, dest := range dests {
			if ctx.Err() != nil {
				return deals, lastErr
			}
			step++
			q.report(step, total, fmt.Sprintf("checking %s to %s in %s", origin, dest, month))

			found, err := p.latestPrices(ctx, origin, dest, month)
			if err != nil {
				lastErr = err
				p.log.Warnw("latest-prices query failed", "destination", dest, "month", month, "error", err)
				if kind, ok := KindOf(err); ok && kind == KindRateLimited {
					if len(deals) == 0 {
						return nil, lastErr
					}
					return finalizeDeals(filterDeals(deals, q), q.MaxResults), nil
				}
				continue
			}
			deals = append(deals, found...)
		}
	}

	deals = filterDeals(deals, q)
	if len(deals) == 0 && lastErr != nil {
		return nil, lastErr
	}
	return finalizeDeals(deals, q.MaxResults), nil
}

func (p *TravelpayoutsProvider) destinations(origin string, requested []string) []string {
	source := requested
	if len(source) == 0 || !isSpecificSearch(requested) {
		source = p.config.ExploreDestinations
	}
	dests := make([]string, 0, len(source))
	for _, d := range source {
		code, ok := normalizeIATA(d)
		if !ok || code == origin {
			continue
		}
		dests = append(dests, code)
	}
	return dests
}

func (p *TravelpayoutsProvider) latestPrices(ctx context.Context, origin, dest, month string) ([]models.FlightDeal, error) {
	// The token stays out of the cache key so rotating credentials never
	// invalidates cached responses.
	params := map[string]string{
		"origin":              origin,
		"destination":         dest,
		"beginning_of_period": month + "-01",
		"period_type":         "month",
		"currency":            p.config.Currency,
		"one_way":             "false",
		"limit":               "1000",
	}

	raw, hit, err := p.cache.Get(ctx, "travelpayouts:get_latest_prices", params)
	if err != nil {
		p.log.Warnw("cache read failed", "error", err)
	}
	if !hit {
		raw, err = p.request(ctx, params)
		if err != nil {
			return nil, err
		}
		if err := p.cache.Set(ctx, "travelpayouts:get_latest_prices", params, raw); err != nil {
			p.log.Warnw("cache write failed", "error", err)
		}
	}
	return p.parseLatestPrices(raw, origin, dest)
}

func (p *TravelpayoutsProvider) request(ctx context.Context, params map[string]string) ([]byte, error) {
	query := url.Values{}
	for k, v := range params {
		query.Set(k, v)
	}
	query.Set("token", p.config.Token)
	endpoint := p.config.BaseURL + latestPricesPath + "?" + query.Encode()

	var lastStatus int
	for attempt := 0; attempt < p.config.MaxRetries; attempt++ {
		if err := p.limiter.Wait(ctx, travelpayoutsName); err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, &APIError{Provider: travelpayoutsName, Kind: KindNetwork, Message: "rate limiter wait failed", Err: err}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, &APIError{Provider: travelpayoutsName, Kind: KindBadRequest, Message: "invalid request", Err: err}
		}

		resp, err := p.client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if isTimeout(err) {
				if attempt < p.config.MaxRetries-1 {
					if serr := p.sleep(ctx, p.backoff(attempt)); serr != nil {
						return nil, serr
					}
					continue
				}
				return nil, &APIError{Provider: travelpayoutsName, Kind: KindTimeout, Message: "request timed out", Err: err}
			}
			return nil, &APIError{Provider: travelpayoutsName, Kind: KindNetwork, Message: "network error", Err: err}
		}

		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusOK:
			if readErr != nil {
				return nil, &APIError{Provider: travelpayoutsName, Kind: KindNetwork, Message: "response read failed", Err: readErr}
			}
			return body, nil

		case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
			return nil, &APIError{Provider: travelpayoutsName, Kind: KindAuthFailed, Status: resp.StatusCode, Message: "token rejected"}

		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			lastStatus = resp.StatusCode
			if attempt < p.config.MaxRetries-1 {
				if serr := p.sleep(ctx, p.backoff(attempt)); serr != nil {
					return nil, serr
				}
				continue
			}

		default:
			// An unexpected 4xx is a query the feed cannot answer, not a
			// provider failure. Treat it as an empty result.
			p.log.Warnw("unexpected response", "status", resp.StatusCode)
			return []byte(`{"data":[]}`), nil
		}
	}

	if lastStatus == http.StatusTooManyRequests {
		return nil, &APIError{Provider: travelpayoutsName, Kind: KindRateLimited, Status: lastStatus, Message: "rate limited"}
	}
	return nil, &APIError{Provider: travelpayoutsName, Kind: KindUpstream, Status: lastStatus, Message: "upstream server error"}
}

func (p *TravelpayoutsProvider) backoff(attempt int) time.Duration {
	factor := math.Pow(p.config.BackoffFactor, float64(attempt))
	return time.Duration(float64(p.config.RateLimitDelay) * factor)
}

func (p *TravelpayoutsProvider) sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// latestPriceItem tolerates both field-name vintages the feed emits:
// value/price, departure_at/depart_date, transfers/number_of_changes.
type latestPriceItem struct {
	Value           float64     `json:"value"`
	Price           float64     `json:"price"`
	DepartureAt     string      `json:"departure_at"`
	DepartDate      string      `json:"depart_date"`
	ReturnAt        string      `json:"return_at"`
	ReturnDate      string      `json:"return_date"`
	Transfers       *int        `json:"transfers"`
	NumberOfChanges *int        `json:"number_of_changes"`
	Airline         string      `json:"airline"`
	FlightNumber    json.Number `json:"flight_number"`
	Link            string      `json:"link"`
}

type latestPricesResponse struct {
	Data []json.RawMessage `json:"data"`
}

func (p *TravelpayoutsProvider) parseLatestPrices(raw []byte, origin, dest string) ([]models.FlightDeal, error) {
	var resp latestPricesResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, &APIError{Provider: travelpayoutsName, Kind: KindUpstream, Message: "malformed latest-prices response", Err: err}
	}

	now := time.Now().UTC()
	deals := make([]models.FlightDeal, 0, len(resp.Data))
	for _, item := range resp.Data {
		var entry latestPriceItem
		if err := json.Unmarshal(item, &entry); err != nil {
			continue
		}

		price := entry.Value
		if price == 0 {
			price = entry.Price
		}
		depart := entry.DepartureAt
		if depart == "" {
			depart = entry.DepartDate
		}
		ret := entry.ReturnAt
		if ret == "" {
			ret = entry.ReturnDate
		}
		transfers := entry.Transfers
		if transfers == nil {
			transfers = entry.NumberOfChanges
		}
		if price <= 0 || depart == "" || ret == "" {
			continue
		}

		deal := models.FlightDeal{
			OriginIATA:   origin,
			DestIATA:     dest,
			DepartDate:   models.DateOnly(depart),
			ReturnDate:   models.DateOnly(ret),
			Price:        price,
			Transfers:    transfers,
			Airline:      entry.Airline,
			FlightNumber: entry.FlightNumber.String(),
			DeepLink:     entry.Link,
			FoundAt:      now,
			RawPayload:   item,
		}
		if a, ok := p.airports.Airport(origin); ok {
			deal.OriginCity = a.City
			deal.OriginFlag = a.FlagEmoji()
		}
		if a, ok := p.airports.Airport(dest); ok {
			deal.DestCity = a.City
			deal.DestFlag = a.FlagEmoji()
		}
		deals = append(deals, deal)
	}
	return deals, nil
}
