// Package pagination slices full time series into pages.
package pagination

import (
	"currency-rate-proxy/internal/domain/model"
)

// Paginate returns the requested page of series in ascending date order.
// Out-of-range pages are clamped rather than rejected, and a pageSize below
// one is treated as one.
func Paginate(series *model.TimeSeries, page, pageSize int) model.PageResult[model.DatedRates] {
	if pageSize < 1 {
		pageSize = 1
	}

	var dates []string
	if series != nil {
		dates = series.SortedDates()
	}

	totalCount := len(dates)
	totalPages := totalCount / pageSize
	if totalCount%pageSize != 0 {
		totalPages++
	}
	page = clamp(page, 1, max(totalPages, 1))

	// page <= totalPages keeps start within totalCount; end is computed by
	// subtraction so a huge pageSize cannot overflow.
	start := (page - 1) * pageSize
	end := start + min(pageSize, totalCount-start)

	items := make([]model.DatedRates, 0, end-start)
	for _, d := range dates[start:end] {
		items = append(items, model.DatedRates{Date: d, Rates: series.RatesByDate[d]})
	}

	return model.PageResult[model.DatedRates]{
		Items:           items,
		Page:            page,
		PageSize:        pageSize,
		TotalCount:      totalCount,
		TotalPages:      totalPages,
		HasNextPage:     page < totalPages,
		HasPreviousPage: page > 1,
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
