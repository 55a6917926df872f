package models

import "time"

type SearchRequest struct {
	Origin       string   `json:"origin"`
	Destinations []string `json:"destinations"`
	StartDate    string   `json:"start_date"`
	EndDate      string   `json:"end_date"`
	MinDays      int      `json:"min_days"`
	MaxDays      int      `json:"max_days"`
	MaxResults   int      `json:"max_results,omitempty"`
}

func (r *SearchRequest) Validate() error {
	if r.Origin == "" {
		return ErrMissingOrigin
	}
	if r.StartDate == "" {
		return ErrMissingStartDate
	}
	if r.EndDate == "" {
		return ErrMissingEndDate
	}
	start, err := time.Parse(dateLayout, r.StartDate)
	if err != nil {
		return ErrInvalidStartDate
	}
	end, err := time.Parse(dateLayout, r.EndDate)
	if err != nil {
		return ErrInvalidEndDate
	}
	if end.Before(start) {
		return ErrInvalidDateRange
	}
	if r.MinDays <= 0 {
		r.MinDays = 1
	}
	if r.MaxDays <= 0 {
		r.MaxDays = 30
	}
	if r.MaxResults <= 0 {
		r.MaxResults = 1000
	}
	return nil
}

// Window returns the parsed date range. Validate must have succeeded first.
func (r *SearchRequest) Window() (time.Time, time.Time) {
	start, _ := time.Parse(dateLayout, r.StartDate)
	end, _ := time.Parse(dateLayout, r.EndDate)
	return start, end
}

type ConfirmRequest struct {
	Origin      string `json:"origin"`
	Destination string `json:"destination"`
	Date        string `json:"date"`
	ClientID    string `json:"client_id,omitempty"`
}

func (r *ConfirmRequest) Validate() error {
	if r.Origin == "" {
		return ErrMissingOrigin
	}
	if r.Destination == "" {
		return ErrMissingDestination
	}
	if r.Date == "" {
		return ErrMissingDate
	}
	if _, err := time.Parse(dateLayout, r.Date); err != nil {
		return ErrInvalidDate
	}
	return nil
}

type ValidationError string

func (e ValidationError) Error() string {
	return string(e)
}

const (
	ErrMissingOrigin      ValidationError = "origin is required"
	ErrMissingDestination ValidationError = "destination is required"
	ErrMissingStartDate   ValidationError = "start_date is required"
	ErrMissingEndDate     ValidationError = "end_date is required"
	ErrMissingDate        ValidationError = "date is required"
	ErrInvalidStartDate   ValidationError = "start_date must be YYYY-MM-DD"
	ErrInvalidEndDate     ValidationError = "end_date must be YYYY-MM-DD"
	ErrInvalidDate        ValidationError = "date must be YYYY-MM-DD"
	ErrInvalidDateRange   ValidationError = "end_date must not be before start_date"
)
