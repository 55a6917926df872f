package providers

import (
	"context"
	"time"

	"github.com/pmcosta/dealfinder/internal/models"
)

const dateLayout = "2006-01-02"

// ProgressFunc reports advisory progress before each unit of work. It may
// be nil; it never affects search results.
type ProgressFunc func(current, total int, message string)

// Query is a round-trip deal search: a window of departure dates, duration
// bounds in days, and an optional destination set. An empty destination
// set means broad exploration over the configured popular destinations.
//
// Cancellation is cooperative through the context: providers check it
// between request units and return whatever accumulated so far with a nil
// error.
type Query struct {
	Origin       string
	Destinations []string
	StartDate    time.Time
	EndDate      time.Time
	MinDays      int
	MaxDays      int
	MaxResults   int
	Progress     ProgressFunc
}

func (q Query) report(current, total int, message string) {
	if q.Progress != nil {
		q.Progress(current, total, message)
	}
}

type Provider interface {
	Name() string
	SearchDeals(ctx context.Context, q Query) ([]models.FlightDeal, error)
}
