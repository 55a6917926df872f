package providers

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/pmcosta/dealfinder/internal/logger"
	"github.com/pmcosta/dealfinder/internal/models"
)

// Composer chains a primary provider with an optional secondary. The
// secondary runs only when the primary fails with an actionable error,
// the class of failure another provider may not share.
type Composer struct {
	primary   Provider
	secondary Provider
	log       *zap.SugaredLogger
}

func NewComposer(primary, secondary Provider) *Composer {
	return &Composer{
		primary:   primary,
		secondary: secondary,
		log:       logger.GetLogger("composer"),
	}
}

type SearchOutcome struct {
	Deals        []models.FlightDeal
	Provider     string
	FallbackUsed bool
}

func (c *Composer) Search(ctx context.Context, q Query) (SearchOutcome, error) {
	deals, err := c.primary.SearchDeals(ctx, q)
	if err == nil {
		return SearchOutcome{Deals: deals, Provider: c.primary.Name()}, nil
	}

	var apiErr *APIError
	if c.secondary == nil || !errors.As(err, &apiErr) || !apiErr.Actionable() {
		return SearchOutcome{Provider: c.primary.Name()}, err
	}

	c.log.Warnw("primary provider failed, falling back",
		"primary", c.primary.Name(),
		"secondary", c.secondary.Name(),
		"error", err,
	)

	deals, err = c.secondary.SearchDeals(ctx, q)
	if err != nil {
		return SearchOutcome{Provider: c.secondary.Name(), FallbackUsed: true}, err
	}
	return SearchOutcome{Deals: deals, Provider: c.secondary.Name(), FallbackUsed: true}, nil
}
