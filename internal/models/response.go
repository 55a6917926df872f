package models

type SearchMetadata struct {
	TotalResults int    `json:"total_results"`
	Provider     string `json:"provider"`
	FallbackUsed bool   `json:"fallback_used"`
	SearchTimeMs int64  `json:"search_time_ms"`
}

type SearchResponse struct {
	SearchCriteria SearchRequest  `json:"search_criteria"`
	Metadata       SearchMetadata `json:"metadata"`
	Deals          []FlightDeal   `json:"deals"`
}

type ConfirmResponse struct {
	Deals          []FlightDeal `json:"deals"`
	RemainingCalls int          `json:"remaining_calls"`
}

type ErrorResponse struct {
	Error          string `json:"error"`
	Message        string `json:"message"`
	Code           int    `json:"code"`
	RemainingCalls *int   `json:"remaining_calls,omitempty"`
}
