package providers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pmcosta/dealfinder/internal/models"
)

func intPtr(v int) *int { return &v }

func deal(origin, dest, depart, ret string, price float64) models.FlightDeal {
	return models.FlightDeal{
		OriginIATA: origin,
		DestIATA:   dest,
		DepartDate: depart,
		ReturnDate: ret,
		Price:      price,
	}
}

func TestSortDeals_PriceThenTransfersThenDate(t *testing.T) {
	deals := []models.FlightDeal{
		{OriginIATA: "OPO", DestIATA: "CDG", DepartDate: "2026-05-02", Price: 120},
		{OriginIATA: "OPO", DestIATA: "CDG", DepartDate: "2026-05-01", Price: 120, Transfers: intPtr(1)},
		{OriginIATA: "OPO", DestIATA: "CDG", DepartDate: "2026-05-03", Price: 95},
		{OriginIATA: "OPO", DestIATA: "CDG", DepartDate: "2026-05-01", Price: 120, Transfers: intPtr(0)},
	}

	sortDeals(deals)

	assert.Equal(t, 95.0, deals[0].Price)
	assert.Equal(t, 0, *deals[1].Transfers)
	assert.Equal(t, 1, *deals[2].Transfers)
	assert.Nil(t, deals[3].Transfers)
}

func TestFinalizeDeals_DedupKeepsCheapest(t *testing.T) {
	deals := []models.FlightDeal{
		deal("OPO", "CDG", "2026-05-10", "2026-05-17", 200),
		deal("OPO", "CDG", "2026-05-10", "2026-05-17", 150),
		deal("OPO", "CDG", "2026-05-10", "2026-05-17", 175),
		deal("OPO", "LHR", "2026-05-10", "2026-05-17", 180),
	}

	result := finalizeDeals(deals, 0)
	require.Len(t, result, 2)
	assert.Equal(t, 150.0, result[0].Price)
	assert.Equal(t, "CDG", result[0].DestIATA)
	assert.Equal(t, 180.0, result[1].Price)
}

func TestFinalizeDeals_DedupTreatsTimestampsAsSameDay(t *testing.T) {
	deals := []models.FlightDeal{
		deal("OPO", "CDG", "2026-05-10T08:00:00", "2026-05-17T20:00:00", 150),
		deal("OPO", "CDG", "2026-05-10", "2026-05-17", 200),
	}

	result := finalizeDeals(deals, 0)
	require.Len(t, result, 1)
	assert.Equal(t, 150.0, result[0].Price)
}

func TestFinalizeDeals_MaxResults(t *testing.T) {
	deals := []models.FlightDeal{
		deal("OPO", "CDG", "2026-05-10", "2026-05-17", 300),
		deal("OPO", "LHR", "2026-05-10", "2026-05-17", 100),
		deal("OPO", "FCO", "2026-05-10", "2026-05-17", 200),
	}

	result := finalizeDeals(deals, 2)
	require.Len(t, result, 2)
	assert.Equal(t, 100.0, result[0].Price)
	assert.Equal(t, 200.0, result[1].Price)
}

func TestFilterDeals_Window(t *testing.T) {
	q := Query{
		StartDate: date("2026-05-01"),
		EndDate:   date("2026-05-31"),
		MinDays:   5,
		MaxDays:   10,
	}

	deals := []models.FlightDeal{
		deal("OPO", "CDG", "2026-05-10", "2026-05-17", 150),  // valid, 7 days
		deal("OPO", "CDG", "2026-04-28", "2026-05-05", 120),  // departs before window
		deal("OPO", "CDG", "2026-06-02", "2026-06-09", 120),  // departs after window
		deal("OPO", "CDG", "2026-05-10", "2026-05-12", 110),  // too short
		deal("OPO", "CDG", "2026-05-10", "2026-05-25", 110),  // too long
		deal("OPO", "CDG", "2026-05-17", "2026-05-10", 100),  // return before depart
		deal("OPO", "CDG", "2026-05-10", "2026-05-17", 0),    // price missing
		deal("OPO", "CDG", "not-a-date", "2026-05-17", 130),  // unparseable
	}

	result := filterDeals(deals, q)
	require.Len(t, result, 1)
	assert.Equal(t, 150.0, result[0].Price)
}

func TestFilterDeals_ImpossibleDurationRange(t *testing.T) {
	q := Query{
		StartDate: date("2026-05-01"),
		EndDate:   date("2026-05-31"),
		MinDays:   10,
		MaxDays:   5,
	}

	deals := []models.FlightDeal{
		deal("OPO", "CDG", "2026-05-10", "2026-05-17", 150),
	}
	assert.Empty(t, filterDeals(deals, q))
}

func TestNormalizeIATA(t *testing.T) {
	code, ok := normalizeIATA(" opo ")
	require.True(t, ok)
	assert.Equal(t, "OPO", code)

	_, ok = normalizeIATA("OPOR")
	assert.False(t, ok)

	_, ok = normalizeIATA("A1B")
	assert.False(t, ok)

	_, ok = normalizeIATA("")
	assert.False(t, ok)
}

func TestIsSpecificSearch(t *testing.T) {
	assert.True(t, isSpecificSearch([]string{"CDG"}))
	assert.True(t, isSpecificSearch([]string{"CDG", "LHR", "FCO", "BCN", "AMS"}))
	assert.False(t, isSpecificSearch(nil))
	assert.False(t, isSpecificSearch([]string{"CDG", "LHR", "FCO", "BCN", "AMS", "FRA"}))
	assert.False(t, isSpecificSearch([]string{"CDG", "__ALL_EUROPE"}))
}
