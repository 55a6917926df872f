package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/pmcosta/dealfinder/internal/airports"
	"github.com/pmcosta/dealfinder/internal/cache"
	"github.com/pmcosta/dealfinder/internal/logger"
	"github.com/pmcosta/dealfinder/internal/models"
	"github.com/pmcosta/dealfinder/internal/providers"
)

type SearchHandler struct {
	composer *providers.Composer
	amadeus  *providers.AmadeusProvider
	cache    cache.Store
	airports *airports.Directory
	log      *zap.SugaredLogger
}

func NewSearchHandler(composer *providers.Composer, amadeus *providers.AmadeusProvider, store cache.Store, dir *airports.Directory) *SearchHandler {
	return &SearchHandler{
		composer: composer,
		amadeus:  amadeus,
		cache:    store,
		airports: dir,
		log:      logger.GetLogger("handler"),
	}
}

func (h *SearchHandler) Register(e *echo.Echo) {
	e.GET("/health", h.Health)

	v1 := e.Group("/api/v1")
	v1.POST("/deals/search", h.Search)
	v1.POST("/deals/confirm", h.Confirm)
	v1.GET("/deals/remaining", h.Remaining)
	v1.GET("/airports", h.Airports)
	v1.GET("/cache/stats", h.CacheStats)
	v1.POST("/cache/clear", h.CacheClear)
}

func (h *SearchHandler) Search(c echo.Context) error {
	startTime := time.Now()
	ctx := c.Request().Context()

	var req models.SearchRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: "Failed to parse request body: " + err.Error(),
			Code:    http.StatusBadRequest,
		})
	}
	if err := req.Validate(); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
			Code:    http.StatusBadRequest,
		})
	}

	start, end := req.Window()
	outcome, err := h.composer.Search(ctx, providers.Query{
		Origin:       req.Origin,
		Destinations: req.Destinations,
		StartDate:    start,
		EndDate:      end,
		MinDays:      req.MinDays,
		MaxDays:      req.MaxDays,
		MaxResults:   req.MaxResults,
	})
	if err != nil {
		return h.writeAPIError(c, err)
	}

	return c.JSON(http.StatusOK, models.SearchResponse{
		SearchCriteria: req,
		Metadata: models.SearchMetadata{
			TotalResults: len(outcome.Deals),
			Provider:     outcome.Provider,
			FallbackUsed: outcome.FallbackUsed,
			SearchTimeMs: time.Since(startTime).Milliseconds(),
		},
		Deals: outcome.Deals,
	})
}

func (h *SearchHandler) Confirm(c echo.Context) error {
	ctx := c.Request().Context()

	var req models.ConfirmRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: "Failed to parse request body: " + err.Error(),
			Code:    http.StatusBadRequest,
		})
	}
	if err := req.Validate(); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
			Code:    http.StatusBadRequest,
		})
	}

	if h.amadeus == nil {
		return c.JSON(http.StatusServiceUnavailable, models.ErrorResponse{
			Error:   "provider_unavailable",
			Message: "deal confirmation requires the Amadeus provider",
			Code:    http.StatusServiceUnavailable,
		})
	}

	clientID := h.clientID(c, req.ClientID)
	deals, remaining, err := h.amadeus.ConfirmOffers(ctx, req.Origin, req.Destination, req.Date, clientID)
	if err != nil {
		return h.writeAPIError(c, err)
	}

	return c.JSON(http.StatusOK, models.ConfirmResponse{
		Deals:          deals,
		RemainingCalls: remaining,
	})
}

func (h *SearchHandler) Remaining(c echo.Context) error {
	if h.amadeus == nil {
		return c.JSON(http.StatusServiceUnavailable, models.ErrorResponse{
			Error:   "provider_unavailable",
			Message: "deal confirmation requires the Amadeus provider",
			Code:    http.StatusServiceUnavailable,
		})
	}
	clientID := h.clientID(c, c.QueryParam("client_id"))
	return c.JSON(http.StatusOK, map[string]any{
		"client_id":       clientID,
		"remaining_calls": h.amadeus.RemainingConfirmCalls(clientID),
	})
}

func (h *SearchHandler) Airports(c echo.Context) error {
	var list []airports.Airport
	switch {
	case c.QueryParam("continent") != "":
		list = h.airports.ByContinent(c.QueryParam("continent"))
	case c.QueryParam("country") != "":
		list = h.airports.ByCountry(c.QueryParam("country"))
	default:
		list = h.airports.All()
	}
	return c.JSON(http.StatusOK, map[string]any{
		"total":      len(list),
		"airports":   list,
		"countries":  h.airports.Countries(),
		"continents": h.airports.Continents(),
	})
}

func (h *SearchHandler) CacheStats(c echo.Context) error {
	stats, err := h.cache.Stats(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "cache_error",
			Message: err.Error(),
			Code:    http.StatusInternalServerError,
		})
	}
	return c.JSON(http.StatusOK, stats)
}

func (h *SearchHandler) CacheClear(c echo.Context) error {
	ctx := c.Request().Context()

	if c.QueryParam("expired") == "true" {
		removed, err := h.cache.ClearExpired(ctx)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, models.ErrorResponse{
				Error:   "cache_error",
				Message: err.Error(),
				Code:    http.StatusInternalServerError,
			})
		}
		return c.JSON(http.StatusOK, map[string]any{"removed": removed})
	}

	if err := h.cache.ClearAll(ctx); err != nil {
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "cache_error",
			Message: err.Error(),
			Code:    http.StatusInternalServerError,
		})
	}
	return c.JSON(http.StatusOK, map[string]any{"cleared": true})
}

func (h *SearchHandler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "dealfinder",
	})
}

// clientID resolves the caller identity for the confirm budget: explicit
// body value, then the X-Client-ID header, then a fresh UUID.
func (h *SearchHandler) clientID(c echo.Context, fromRequest string) string {
	if fromRequest != "" {
		return fromRequest
	}
	if header := c.Request().Header.Get("X-Client-ID"); header != "" {
		return header
	}
	return uuid.NewString()
}

func (h *SearchHandler) writeAPIError(c echo.Context, err error) error {
	var apiErr *providers.APIError
	if !errors.As(err, &apiErr) {
		h.log.Errorw("search failed", "error", err)
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "internal_error",
			Message: err.Error(),
			Code:    http.StatusInternalServerError,
		})
	}

	status := http.StatusBadGateway
	switch apiErr.Kind {
	case providers.KindBadRequest:
		status = http.StatusBadRequest
	case providers.KindRateLimited, providers.KindQuotaExceeded:
		status = http.StatusTooManyRequests
	case providers.KindTimeout:
		status = http.StatusGatewayTimeout
	}

	return c.JSON(status, models.ErrorResponse{
		Error:          string(apiErr.Kind),
		Message:        apiErr.Message,
		Code:           status,
		RemainingCalls: apiErr.RemainingCalls,
	})
}
