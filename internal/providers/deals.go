package providers

import (
	"sort"
	"strings"
	"time"

	"github.com/pmcosta/dealfinder/internal/models"
)

const noTransfersSentinel = 999

// sortDeals orders ascending by (price, transfers, departure date); deals
// without a transfer count sort after everything with the same price.
func sortDeals(deals []models.FlightDeal) {
	sort.Slice(deals, func(i, j int) bool {
		if deals[i].Price != deals[j].Price {
			return deals[i].Price < deals[j].Price
		}
		ti, tj := transfersOrSentinel(deals[i]), transfersOrSentinel(deals[j])
		if ti != tj {
			return ti < tj
		}
		return deals[i].DepartDate < deals[j].DepartDate
	})
}

func transfersOrSentinel(d models.FlightDeal) int {
	if d.Transfers == nil {
		return noTransfersSentinel
	}
	return *d.Transfers
}

// dedupeDeals keeps the first deal per route/date key. Deals are sorted
// before deduplication, so the survivor is always the cheapest candidate.
func dedupeDeals(deals []models.FlightDeal) []models.FlightDeal {
	seen := make(map[models.DealKey]bool, len(deals))
	unique := make([]models.FlightDeal, 0, len(deals))
	for _, d := range deals {
		key := d.Key()
		if seen[key] {
			continue
		}
		seen[key] = true
		unique = append(unique, d)
	}
	return unique
}

func finalizeDeals(deals []models.FlightDeal, maxResults int) []models.FlightDeal {
	sortDeals(deals)
	deals = dedupeDeals(deals)
	if maxResults > 0 && len(deals) > maxResults {
		deals = deals[:maxResults]
	}
	return deals
}

// withinWindow re-validates a parsed deal against the requested window.
// Providers may return candidates outside the requested ranges, so this
// runs on every candidate regardless of what the request asked for.
func withinWindow(d models.FlightDeal, q Query) bool {
	if d.Price <= 0 {
		return false
	}
	depart, err := time.Parse(dateLayout, models.DateOnly(d.DepartDate))
	if err != nil {
		return false
	}
	ret, err := time.Parse(dateLayout, models.DateOnly(d.ReturnDate))
	if err != nil {
		return false
	}
	if ret.Before(depart) {
		return false
	}
	if depart.Before(q.StartDate) || depart.After(q.EndDate) {
		return false
	}
	tripDays := int(ret.Sub(depart).Hours() / 24)
	return tripDays >= q.MinDays && tripDays <= q.MaxDays
}

func filterDeals(deals []models.FlightDeal, q Query) []models.FlightDeal {
	filtered := deals[:0:0]
	for _, d := range deals {
		if withinWindow(d, q) {
			filtered = append(filtered, d)
		}
	}
	return filtered
}

func normalizeIATA(code string) (string, bool) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) != 3 {
		return "", false
	}
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return "", false
		}
	}
	return code, true
}
