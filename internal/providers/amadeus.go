package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/pmcosta/dealfinder/internal/airports"
	"github.com/pmcosta/dealfinder/internal/cache"
	"github.com/pmcosta/dealfinder/internal/logger"
	"github.com/pmcosta/dealfinder/internal/models"
	"github.com/pmcosta/dealfinder/internal/ratelimit"
)

const (
	amadeusName      = "amadeus"
	amadeusTokenPath = "/v1/security/oauth2/token"
	flightOffersPath = "/v2/shopping/flight-offers"
	flightDatesPath  = "/v1/shopping/flight-dates"

	// specificSearchMaxDests caps flight-offers calls in specific mode.
	specificSearchMaxDests = 3

	// allDestinationsPrefix marks a destination entry that requests broad
	// exploration instead of a named airport.
	allDestinationsPrefix = "__ALL"
)

type AmadeusConfig struct {
	ClientID            string
	ClientSecret        string
	BaseURL             string
	Currency            string
	Timeout             time.Duration
	MaxRetries          int
	BackoffBase         time.Duration
	BackoffJitter       time.Duration
	RetryAfterCap       time.Duration
	MinRequestDelay     time.Duration
	ConfirmMaxCalls     int
	ConfirmWindow       time.Duration
	ExploreDestinations []string
	ExploreMaxCalls     int
}

func DefaultAmadeusConfig() AmadeusConfig {
	return AmadeusConfig{
		BaseURL:         "https://test.api.amadeus.com",
		Currency:        "EUR",
		Timeout:         15 * time.Second,
		MaxRetries:      2,
		BackoffBase:     time.Second,
		BackoffJitter:   500 * time.Millisecond,
		RetryAfterCap:   5 * time.Second,
		MinRequestDelay: time.Second,
		ConfirmMaxCalls: 3,
		ConfirmWindow:   10 * time.Minute,
		ExploreMaxCalls: 3,
	}
}

// AmadeusProvider searches the Amadeus Self-Service APIs. It owns the
// OAuth token lifecycle, the confirm-call budget, and the per-provider
// pacing; responses are cached by endpoint and normalized parameters.
type AmadeusProvider struct {
	config   AmadeusConfig
	cache    cache.Store
	airports *airports.Directory
	tokens   *TokenManager
	tracker  *CallTracker
	limiter  *ratelimit.ProviderLimiter
	client   *http.Client
	log      *zap.SugaredLogger

	requestCount atomic.Int64
}

func NewAmadeusProvider(cfg AmadeusConfig, store cache.Store, dir *airports.Directory, limiter *ratelimit.ProviderLimiter) *AmadeusProvider {
	limiter.SetProviderDelay(amadeusName, cfg.MinRequestDelay)
	return &AmadeusProvider{
		config:   cfg,
		cache:    store,
		airports: dir,
		tokens:   NewTokenManager(amadeusName, cfg.BaseURL+amadeusTokenPath, cfg.ClientID, cfg.ClientSecret, cfg.Timeout),
		tracker:  NewCallTracker(cfg.ConfirmMaxCalls, cfg.ConfirmWindow),
		limiter:  limiter,
		client:   &http.Client{Timeout: cfg.Timeout},
		log:      logger.GetLogger(amadeusName),
	}
}

func (p *AmadeusProvider) Name() string { return amadeusName }

// RequestStats returns the number of upstream HTTP requests dispatched
// since construction. Cache hits do not count.
func (p *AmadeusProvider) RequestStats() int64 {
	return p.requestCount.Load()
}

// RemainingConfirmCalls reports the client's unused confirm budget.
func (p *AmadeusProvider) RemainingConfirmCalls(clientID string) int {
	return p.tracker.Remaining(clientID)
}

// SearchDeals runs either a specific search (a small set of named
// destinations, one offer call each) or an explore search (cheapest-date
// queries over the popular destinations, month by month). Failures on one
// unit never abort the rest unless the provider is rate limited; partial
// results win over errors whenever anything was collected.
func (p *AmadeusProvider) SearchDeals(ctx context.Context, q Query) ([]models.FlightDeal, error) {
	origin, ok := normalizeIATA(q.Origin)
	if !ok {
		return nil, &APIError{Provider: amadeusName, Kind: KindBadRequest, Message: fmt.Sprintf("invalid origin %q", q.Origin)}
	}
	if _, known := p.airports.Airport(origin); !known {
		p.log.Warnw("unknown origin airport", "origin", origin)
		return nil, nil
	}

	var (
		deals   []models.FlightDeal
		lastErr error
	)
	if isSpecificSearch(q.Destinations) {
		deals, lastErr = p.searchSpecific(ctx, origin, q)
	} else {
		deals, lastErr = p.searchExplore(ctx, origin, q)
	}

	if len(deals) == 0 && lastErr != nil {
		return nil, lastErr
	}
	return finalizeDeals(deals, q.MaxResults), nil
}

// isSpecificSearch is true for one to five named destinations with no
// explore marker among them.
func isSpecificSearch(destinations []string) bool {
	if len(destinations) == 0 || len(destinations) > 5 {
		return false
	}
	for _, d := range destinations {
		if strings.HasPrefix(strings.ToUpper(strings.TrimSpace(d)), allDestinationsPrefix) {
			return false
		}
	}
	return true
}

func (p *AmadeusProvider) searchSpecific(ctx context.Context, origin string, q Query) ([]models.FlightDeal, error) {
	if q.EndDate.Before(q.StartDate) {
		return nil, nil
	}

	dests := make([]string, 0, specificSearchMaxDests)
	for _, d := range q.Destinations {
		code, ok := normalizeIATA(d)
		if !ok || code == origin {
			continue
		}
		dests = append(dests, code)
		if len(dests) == specificSearchMaxDests {
			break
		}
	}

	// One representative probe per destination: mid-window departure and a
	// return after the average requested duration.
	depart := q.StartDate.Add(q.EndDate.Sub(q.StartDate) / 2)
	avgDays := (q.MinDays + q.MaxDays) / 2
	if avgDays < 1 {
		avgDays = 1
	}
	ret := depart.AddDate(0, 0, avgDays)

	var (
		deals   []models.FlightDeal
		lastErr error
	)
	for i, dest := range dests {
		if ctx.Err() != nil {
			return deals, lastErr
		}
		q.report(i+1, len(dests), fmt.Sprintf("checking %s to %s", origin, dest))

		found, err := p.flightOffers(ctx, origin, dest, depart, ret, 250)
		if err != nil {
			lastErr = err
			p.log.Warnw("flight-offers search failed", "destination", dest, "error", err)
			if kind, ok := KindOf(err); ok && kind == KindRateLimited {
				break
			}
			continue
		}
		deals = append(deals, filterDeals(found, q)...)
	}
	return deals, lastErr
}

func (p *AmadeusProvider) searchExplore(ctx context.Context, origin string, q Query) ([]models.FlightDeal, error) {
	dests := p.exploreDestinations(origin)
	periods := MonthRanges(q.StartDate, q.EndDate)

	type unit struct {
		dest   string
		period Period
	}
	var units []unit
	for _, period := range periods {
		for _, dest := range dests {
			units = append(units, unit{dest: dest, period: period})
		}
	}
	if p.config.ExploreMaxCalls > 0 && len(units) > p.config.ExploreMaxCalls {
		units = units[:p.config.ExploreMaxCalls]
	}

	var (
		deals   []models.FlightDeal
		lastErr error
	)
	for i, u := range units {
		if ctx.Err() != nil {
			return deals, lastErr
		}
		q.report(i+1, len(units), fmt.Sprintf("exploring %s to %s", origin, u.dest))

		found, err := p.cheapestDates(ctx, origin, u.dest, u.period, q.MinDays, q.MaxDays)
		if err != nil {
			lastErr = err
			p.log.Warnw("flight-dates search failed", "destination", u.dest, "period", u.period.String(), "error", err)
			if kind, ok := KindOf(err); ok && kind == KindRateLimited {
				break
			}
			continue
		}
		deals = append(deals, filterDeals(found, q)...)
	}
	return deals, lastErr
}

func (p *AmadeusProvider) exploreDestinations(origin string) []string {
	dests := make([]string, 0, len(p.config.ExploreDestinations))
	for _, d := range p.config.ExploreDestinations {
		code, ok := normalizeIATA(d)
		if !ok || code == origin {
			continue
		}
		dests = append(dests, code)
	}
	return dests
}

// ExploreDeals searches a single month of broad exploration from origin.
func (p *AmadeusProvider) ExploreDeals(ctx context.Context, origin, month string, progress ProgressFunc) ([]models.FlightDeal, error) {
	start, err := time.Parse("2006-01", month)
	if err != nil {
		return nil, &APIError{Provider: amadeusName, Kind: KindBadRequest, Message: fmt.Sprintf("invalid month %q", month)}
	}
	end := start.AddDate(0, 1, -1)

	return p.SearchDeals(ctx, Query{
		Origin:    origin,
		StartDate: start,
		EndDate:   end,
		MinDays:   1,
		MaxDays:   30,
		Progress:  progress,
	})
}

// ConfirmOffers re-prices a single route and date with live flight offers.
// The per-client budget is consumed before dispatch, so a request that
// fails upstream still counts against the caller.
func (p *AmadeusProvider) ConfirmOffers(ctx context.Context, origin, dest, date, clientID string) ([]models.FlightDeal, int, error) {
	allowed, remaining := p.tracker.CanMakeCall(clientID)
	if !allowed {
		zero := 0
		return nil, 0, &APIError{
			Provider:       amadeusName,
			Kind:           KindRateLimited,
			Message:        fmt.Sprintf("confirm call budget exhausted, retry after %s", p.config.ConfirmWindow),
			RemainingCalls: &zero,
		}
	}

	origin, ok := normalizeIATA(origin)
	if !ok {
		return nil, remaining, &APIError{Provider: amadeusName, Kind: KindBadRequest, Message: "invalid origin"}
	}
	dest, ok = normalizeIATA(dest)
	if !ok {
		return nil, remaining, &APIError{Provider: amadeusName, Kind: KindBadRequest, Message: "invalid destination"}
	}
	depart, err := time.Parse(dateLayout, models.DateOnly(date))
	if err != nil {
		return nil, remaining, &APIError{Provider: amadeusName, Kind: KindBadRequest, Message: fmt.Sprintf("invalid date %q", date)}
	}

	deals, err := p.confirmOffers(ctx, origin, dest, depart, clientID)
	remaining = p.tracker.Remaining(clientID)
	if err != nil {
		return nil, remaining, err
	}
	sortDeals(deals)
	return deals, remaining, nil
}

func (p *AmadeusProvider) flightOffers(ctx context.Context, origin, dest string, depart, ret time.Time, maxOffers int) ([]models.FlightDeal, error) {
	body := offersRequest{
		CurrencyCode: p.config.Currency,
		OriginDestinations: []originDestination{
			{
				ID:                     "1",
				OriginLocationCode:     origin,
				DestinationLocationCode: dest,
				DepartureDateTimeRange: dateRange{Date: depart.Format(dateLayout)},
			},
			{
				ID:                     "2",
				OriginLocationCode:     dest,
				DestinationLocationCode: origin,
				DepartureDateTimeRange: dateRange{Date: ret.Format(dateLayout)},
			},
		},
		Travelers:      []traveler{{ID: "1", TravelerType: "ADULT"}},
		Sources:        []string{"GDS"},
		SearchCriteria: searchCriteria{MaxFlightOffers: maxOffers},
	}

	params := map[string]string{
		"origin":      origin,
		"destination": dest,
		"depart":      depart.Format(dateLayout),
		"return":      ret.Format(dateLayout),
		"currency":    p.config.Currency,
		"max":         strconv.Itoa(maxOffers),
	}
	raw, err := p.cached(ctx, "amadeus:flight-offers", params, func(ctx context.Context) ([]byte, error) {
		return p.request(ctx, http.MethodPost, flightOffersPath, nil, body)
	})
	if err != nil {
		return nil, err
	}
	return p.parseOffers(raw, origin, dest)
}

func (p *AmadeusProvider) confirmOffers(ctx context.Context, origin, dest string, depart time.Time, clientID string) ([]models.FlightDeal, error) {
	body := offersRequest{
		CurrencyCode: p.config.Currency,
		OriginDestinations: []originDestination{
			{
				ID:                     "1",
				OriginLocationCode:     origin,
				DestinationLocationCode: dest,
				DepartureDateTimeRange: dateRange{Date: depart.Format(dateLayout)},
			},
		},
		Travelers:      []traveler{{ID: "1", TravelerType: "ADULT"}},
		Sources:        []string{"GDS"},
		SearchCriteria: searchCriteria{MaxFlightOffers: 10},
	}

	params := map[string]string{
		"origin":      origin,
		"destination": dest,
		"depart":      depart.Format(dateLayout),
		"currency":    p.config.Currency,
	}

	raw, hit, err := p.cache.Get(ctx, "amadeus:confirm", params)
	if err != nil {
		p.log.Warnw("cache read failed", "endpoint", "amadeus:confirm", "error", err)
	}
	if !hit {
		// Only a live dispatch consumes the client's budget; a cached
		// confirmation costs nothing.
		p.tracker.RecordCall(clientID)
		raw, err = p.request(ctx, http.MethodPost, flightOffersPath, nil, body)
		if err != nil {
			return nil, err
		}
		if err := p.cache.Set(ctx, "amadeus:confirm", params, raw); err != nil {
			p.log.Warnw("cache write failed", "endpoint", "amadeus:confirm", "error", err)
		}
	}
	return p.parseOffers(raw, origin, dest)
}

func (p *AmadeusProvider) cheapestDates(ctx context.Context, origin, dest string, period Period, minDays, maxDays int) ([]models.FlightDeal, error) {
	params := map[string]string{
		"origin":        origin,
		"destination":   dest,
		"departureDate": period.String(),
		"oneWay":        "false",
		"currency":      p.config.Currency,
		"duration":      fmt.Sprintf("%d,%d", minDays, maxDays),
	}
	query := url.Values{}
	for k, v := range params {
		query.Set(k, v)
	}

	raw, err := p.cached(ctx, "amadeus:flight-dates", params, func(ctx context.Context) ([]byte, error) {
		return p.request(ctx, http.MethodGet, flightDatesPath, query, nil)
	})
	if err != nil {
		return nil, err
	}
	return p.parseFlightDates(raw, origin, dest)
}

// cached serves the response body from the cache when present, otherwise
// dispatches and stores the fresh body. Cache failures degrade to a live
// request, never to a search failure.
func (p *AmadeusProvider) cached(ctx context.Context, endpoint string, params map[string]string, fetch func(context.Context) ([]byte, error)) ([]byte, error) {
	if body, hit, err := p.cache.Get(ctx, endpoint, params); err != nil {
		p.log.Warnw("cache read failed", "endpoint", endpoint, "error", err)
	} else if hit {
		return body, nil
	}

	body, err := fetch(ctx)
	if err != nil {
		return nil, err
	}
	if err := p.cache.Set(ctx, endpoint, params, body); err != nil {
		p.log.Warnw("cache write failed", "endpoint", endpoint, "error", err)
	}
	return body, nil
}

// request dispatches one authenticated call with the provider's full
// status handling: a single in-band retry for 401 and 429, exponential
// backoff for 5xx and transient transport failures, and immediate
// classification for everything that retrying cannot fix.
func (p *AmadeusProvider) request(ctx context.Context, method, path string, query url.Values, body any) ([]byte, error) {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, &APIError{Provider: amadeusName, Kind: KindBadRequest, Message: "invalid request body", Err: err}
		}
	}

	endpoint := p.config.BaseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	maxAttempts := p.config.MaxRetries + 1
	if maxAttempts < 2 {
		maxAttempts = 2
	}

	for attempt := 0; attempt < maxAttempts; attempt++ {
		if err := p.limiter.Wait(ctx, amadeusName); err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, &APIError{Provider: amadeusName, Kind: KindNetwork, Message: "rate limiter wait failed", Err: err}
		}

		token, err := p.tokens.Token(ctx)
		if err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, method, endpoint, bytes.NewReader(payload))
		if err != nil {
			return nil, &APIError{Provider: amadeusName, Kind: KindBadRequest, Message: "invalid request", Err: err}
		}
		req.Header.Set("Authorization", "Bearer "+token)
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		p.requestCount.Add(1)
		resp, err := p.client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			kind := KindNetwork
			message := "network error"
			if isTimeout(err) {
				kind = KindTimeout
				message = "request timed out"
			}
			if attempt < maxAttempts-1 {
				if serr := p.sleep(ctx, p.backoff(attempt)); serr != nil {
					return nil, serr
				}
				continue
			}
			return nil, &APIError{Provider: amadeusName, Kind: kind, Message: message, Err: err}
		}

		respBody, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusOK:
			if readErr != nil {
				return nil, &APIError{Provider: amadeusName, Kind: KindNetwork, Message: "response read failed", Err: readErr}
			}
			return respBody, nil

		case resp.StatusCode == http.StatusUnauthorized:
			// Token looked valid locally but the API rejected it. Force a
			// fresh exchange once; a second 401 is a real credential problem.
			p.tokens.Invalidate()
			if attempt == 0 {
				continue
			}
			return nil, &APIError{Provider: amadeusName, Kind: KindAuthFailed, Status: resp.StatusCode, Message: "authentication rejected after token refresh"}

		case resp.StatusCode == http.StatusForbidden:
			return nil, &APIError{Provider: amadeusName, Kind: KindQuotaExceeded, Status: resp.StatusCode, Message: "API quota exceeded"}

		case resp.StatusCode == http.StatusTooManyRequests:
			// One polite wait honoring Retry-After (capped), then give up.
			if attempt == 0 {
				if serr := p.sleep(ctx, p.retryAfter(resp)); serr != nil {
					return nil, serr
				}
				continue
			}
			return nil, &APIError{Provider: amadeusName, Kind: KindRateLimited, Status: resp.StatusCode, Message: "rate limited"}

		case resp.StatusCode == http.StatusBadRequest:
			return nil, &APIError{Provider: amadeusName, Kind: KindBadRequest, Status: resp.StatusCode, Message: errorDetail(respBody)}

		case resp.StatusCode >= 500:
			if attempt < maxAttempts-1 {
				if serr := p.sleep(ctx, p.backoff(attempt)); serr != nil {
					return nil, serr
				}
				continue
			}
			return nil, &APIError{Provider: amadeusName, Kind: KindUpstream, Status: resp.StatusCode, Message: "upstream server error"}

		default:
			return nil, &APIError{Provider: amadeusName, Kind: KindUpstream, Status: resp.StatusCode, Message: errorDetail(respBody)}
		}
	}

	return nil, &APIError{Provider: amadeusName, Kind: KindUpstream, Message: "retries exhausted"}
}

func (p *AmadeusProvider) backoff(attempt int) time.Duration {
	d := p.config.BackoffBase * time.Duration(1<<attempt)
	if p.config.BackoffJitter > 0 {
		d += time.Duration(rand.Int63n(int64(p.config.BackoffJitter) + 1))
	}
	return d
}

func (p *AmadeusProvider) retryAfter(resp *http.Response) time.Duration {
	wait := p.config.RetryAfterCap
	if header := resp.Header.Get("Retry-After"); header != "" {
		if secs, err := strconv.Atoi(header); err == nil && secs >= 0 {
			if d := time.Duration(secs) * time.Second; d < wait {
				wait = d
			}
		}
	}
	return wait
}

func (p *AmadeusProvider) sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// errorDetail pulls a human-readable message out of an Amadeus error
// response, falling back to a generic description.
func errorDetail(body []byte) string {
	var payload struct {
		Errors []struct {
			Title  string `json:"title"`
			Detail string `json:"detail"`
		} `json:"errors"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && len(payload.Errors) > 0 {
		e := payload.Errors[0]
		if e.Detail != "" {
			return e.Detail
		}
		if e.Title != "" {
			return e.Title
		}
	}
	return "request rejected"
}

type offersRequest struct {
	CurrencyCode       string              `json:"currencyCode"`
	OriginDestinations []originDestination `json:"originDestinations"`
	Travelers          []traveler          `json:"travelers"`
	Sources            []string            `json:"sources"`
	SearchCriteria     searchCriteria      `json:"searchCriteria"`
}

type originDestination struct {
	ID                      string    `json:"id"`
	OriginLocationCode      string    `json:"originLocationCode"`
	DestinationLocationCode string    `json:"destinationLocationCode"`
	DepartureDateTimeRange  dateRange `json:"departureDateTimeRange"`
}

type dateRange struct {
	Date string `json:"date"`
}

type traveler struct {
	ID           string `json:"id"`
	TravelerType string `json:"travelerType"`
}

type searchCriteria struct {
	MaxFlightOffers int `json:"maxFlightOffers"`
}

type offersResponse struct {
	Data         []json.RawMessage `json:"data"`
	Dictionaries struct {
		Carriers map[string]string `json:"carriers"`
	} `json:"dictionaries"`
}

type flightOffer struct {
	Price struct {
		GrandTotal string `json:"grandTotal"`
		Total      string `json:"total"`
	} `json:"price"`
	Itineraries []struct {
		Segments []struct {
			Departure struct {
				At string `json:"at"`
			} `json:"departure"`
			CarrierCode string `json:"carrierCode"`
			Number      string `json:"number"`
		} `json:"segments"`
	} `json:"itineraries"`
}

func (p *AmadeusProvider) parseOffers(raw []byte, origin, dest string) ([]models.FlightDeal, error) {
	var resp offersResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, &APIError{Provider: amadeusName, Kind: KindUpstream, Message: "malformed flight-offers response", Err: err}
	}

	now := time.Now().UTC()
	deals := make([]models.FlightDeal, 0, len(resp.Data))
	for _, item := range resp.Data {
		var offer flightOffer
		if err := json.Unmarshal(item, &offer); err != nil {
			continue
		}

		priceStr := offer.Price.GrandTotal
		if priceStr == "" {
			priceStr = offer.Price.Total
		}
		price, err := strconv.ParseFloat(priceStr, 64)
		if err != nil || price <= 0 {
			continue
		}
		if len(offer.Itineraries) < 2 || len(offer.Itineraries[0].Segments) == 0 || len(offer.Itineraries[1].Segments) == 0 {
			continue
		}

		outbound := offer.Itineraries[0].Segments
		inbound := offer.Itineraries[1].Segments
		transfers := len(outbound) - 1

		deal := models.FlightDeal{
			OriginIATA:   origin,
			DestIATA:     dest,
			DepartDate:   models.DateOnly(outbound[0].Departure.At),
			ReturnDate:   models.DateOnly(inbound[0].Departure.At),
			Price:        price,
			Transfers:    &transfers,
			FlightNumber: outbound[0].CarrierCode + outbound[0].Number,
			FoundAt:      now,
			RawPayload:   item,
		}
		if name, ok := resp.Dictionaries.Carriers[outbound[0].CarrierCode]; ok {
			deal.Airline = name
		} else {
			deal.Airline = outbound[0].CarrierCode
		}
		p.decorate(&deal)
		deals = append(deals, deal)
	}
	return deals, nil
}

type flightDatesResponse struct {
	Data []json.RawMessage `json:"data"`
}

type flightDate struct {
	Destination   string `json:"destination"`
	DepartureDate string `json:"departureDate"`
	ReturnDate    string `json:"returnDate"`
	Price         struct {
		Total string `json:"total"`
	} `json:"price"`
}

func (p *AmadeusProvider) parseFlightDates(raw []byte, origin, dest string) ([]models.FlightDeal, error) {
	var resp flightDatesResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, &APIError{Provider: amadeusName, Kind: KindUpstream, Message: "malformed flight-dates response", Err: err}
	}

	now := time.Now().UTC()
	deals := make([]models.FlightDeal, 0, len(resp.Data))
	for _, item := range resp.Data {
		var fd flightDate
		if err := json.Unmarshal(item, &fd); err != nil {
			continue
		}
		price, err := strconv.ParseFloat(fd.Price.Total, 64)
		if err != nil || price <= 0 {
			continue
		}

		destination := dest
		if fd.Destination != "" {
			destination = fd.Destination
		}
		deal := models.FlightDeal{
			OriginIATA: origin,
			DestIATA:   destination,
			DepartDate: models.DateOnly(fd.DepartureDate),
			ReturnDate: models.DateOnly(fd.ReturnDate),
			Price:      price,
			FoundAt:    now,
			RawPayload: item,
		}
		p.decorate(&deal)
		deals = append(deals, deal)
	}
	return deals, nil
}

// decorate fills city names and flag emojis from the airport directory.
func (p *AmadeusProvider) decorate(deal *models.FlightDeal) {
	if a, ok := p.airports.Airport(deal.OriginIATA); ok {
		deal.OriginCity = a.City
		deal.OriginFlag = a.FlagEmoji()
	}
	if a, ok := p.airports.Airport(deal.DestIATA); ok {
		deal.DestCity = a.City
		deal.DestFlag = a.FlagEmoji()
	}
}
