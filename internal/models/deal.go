package models

import (
	"encoding/json"
	"time"

	"github.com/pmcosta/dealfinder/pkg/currency"
)

const dateLayout = "2006-01-02"

// FlightDeal is one priced round-trip itinerary candidate. It is built by
// the provider response parsers and never mutated afterwards.
type FlightDeal struct {
	OriginIATA   string          `json:"origin_iata"`
	DestIATA     string          `json:"dest_iata"`
	OriginCity   string          `json:"origin_city"`
	DestCity     string          `json:"dest_city"`
	OriginFlag   string          `json:"origin_flag"`
	DestFlag     string          `json:"dest_flag"`
	DepartDate   string          `json:"depart_date"`
	ReturnDate   string          `json:"return_date"`
	Price        float64         `json:"price"`
	Transfers    *int            `json:"transfers,omitempty"`
	Airline      string          `json:"airline,omitempty"`
	FlightNumber string          `json:"flight_number,omitempty"`
	DeepLink     string          `json:"deep_link,omitempty"`
	FoundAt      time.Time       `json:"found_at"`
	ExpiresAt    *time.Time      `json:"expires_at,omitempty"`
	RawPayload   json.RawMessage `json:"raw_payload,omitempty"`
}

// DealKey identifies a deal by route and dates for deduplication.
type DealKey struct {
	Origin string
	Dest   string
	Depart string
	Return string
}

func (d FlightDeal) Key() DealKey {
	return DealKey{
		Origin: d.OriginIATA,
		Dest:   d.DestIATA,
		Depart: DateOnly(d.DepartDate),
		Return: DateOnly(d.ReturnDate),
	}
}

// TripDuration returns the trip length in whole days, or 0 when either
// date does not parse.
func (d FlightDeal) TripDuration() int {
	depart, err := time.Parse(dateLayout, DateOnly(d.DepartDate))
	if err != nil {
		return 0
	}
	ret, err := time.Parse(dateLayout, DateOnly(d.ReturnDate))
	if err != nil {
		return 0
	}
	return int(ret.Sub(depart).Hours() / 24)
}

func (d FlightDeal) FormattedPrice() string {
	return currency.FormatEUR(d.Price)
}

// DateOnly keeps the calendar-date part of an ISO timestamp; provider
// responses mix "2026-05-15" and "2026-05-15T06:25:00" forms.
func DateOnly(s string) string {
	if len(s) > 10 {
		return s[:10]
	}
	return s
}
