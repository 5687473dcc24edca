package model

type PageResult[T any] struct {
	Items           []T  `json:"items"`
	Page            int  `json:"page"`
	PageSize        int  `json:"page_size"`
	TotalCount      int  `json:"total_count"`
	TotalPages      int  `json:"total_pages"`
	HasNextPage     bool `json:"has_next_page"`
	HasPreviousPage bool `json:"has_previous_page"`
}

// HistoricalPage is a page of a time series plus the series header.
type HistoricalPage struct {
	Base      CurrencyCode `json:"base"`
	StartDate string       `json:"start_date"`
	EndDate   string       `json:"end_date"`
	Stale     bool         `json:"stale,omitempty"`
	PageResult[DatedRates]
}
