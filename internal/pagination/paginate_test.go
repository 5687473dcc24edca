package pagination

import (
	"fmt"
	"math"
	"testing"
	"time"

	"currency-rate-proxy/internal/domain/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seriesOf builds a series of n consecutive days starting 2024-01-01. The map
// is filled in reverse so ordering cannot come from insertion.
func seriesOf(n int) *model.TimeSeries {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	ts := &model.TimeSeries{
		Base:        "EUR",
		StartDate:   start,
		EndDate:     start.AddDate(0, 0, n-1),
		RatesByDate: make(map[string]model.Rates, n),
	}
	for i := n - 1; i >= 0; i-- {
		d := start.AddDate(0, 0, i).Format("2006-01-02")
		ts.RatesByDate[d] = model.Rates{"USD": decimal.NewFromInt(int64(i + 1))}
	}
	return ts
}

func dates(items []model.DatedRates) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.Date)
	}
	return out
}

func TestPaginate(t *testing.T) {
	tests := []struct {
		name      string
		n         int
		page      int
		pageSize  int
		wantPage  int
		wantPages int
		wantDates []string
		wantNext  bool
		wantPrev  bool
	}{
		{
			name: "first page", n: 8, page: 1, pageSize: 3,
			wantPage: 1, wantPages: 3,
			wantDates: []string{"2024-01-01", "2024-01-02", "2024-01-03"},
			wantNext:  true,
		},
		{
			name: "middle page", n: 8, page: 2, pageSize: 3,
			wantPage: 2, wantPages: 3,
			wantDates: []string{"2024-01-04", "2024-01-05", "2024-01-06"},
			wantNext:  true, wantPrev: true,
		},
		{
			name: "last partial page", n: 8, page: 3, pageSize: 3,
			wantPage: 3, wantPages: 3,
			wantDates: []string{"2024-01-07", "2024-01-08"},
			wantPrev:  true,
		},
		{
			name: "page past end is clamped", n: 8, page: 100, pageSize: 3,
			wantPage: 3, wantPages: 3,
			wantDates: []string{"2024-01-07", "2024-01-08"},
			wantPrev:  true,
		},
		{
			name: "page zero is clamped", n: 8, page: 0, pageSize: 3,
			wantPage: 1, wantPages: 3,
			wantDates: []string{"2024-01-01", "2024-01-02", "2024-01-03"},
			wantNext:  true,
		},
		{
			name: "page size larger than count", n: 4, page: 1, pageSize: 10,
			wantPage: 1, wantPages: 1,
			wantDates: []string{"2024-01-01", "2024-01-02", "2024-01-03", "2024-01-04"},
		},
		{
			name: "max int page size", n: 4, page: 1, pageSize: math.MaxInt,
			wantPage: 1, wantPages: 1,
			wantDates: []string{"2024-01-01", "2024-01-02", "2024-01-03", "2024-01-04"},
		},
		{
			name: "huge page size and page", n: 2, page: math.MaxInt, pageSize: 1 << 40,
			wantPage: 1, wantPages: 1,
			wantDates: []string{"2024-01-01", "2024-01-02"},
		},
		{
			name: "exact multiple", n: 6, page: 2, pageSize: 3,
			wantPage: 2, wantPages: 2,
			wantDates: []string{"2024-01-04", "2024-01-05", "2024-01-06"},
			wantPrev:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Paginate(seriesOf(tt.n), tt.page, tt.pageSize)

			assert.Equal(t, tt.wantPage, got.Page)
			assert.Equal(t, tt.pageSize, got.PageSize)
			assert.Equal(t, tt.n, got.TotalCount)
			assert.Equal(t, tt.wantPages, got.TotalPages)
			assert.Equal(t, tt.wantDates, dates(got.Items))
			assert.Equal(t, tt.wantNext, got.HasNextPage)
			assert.Equal(t, tt.wantPrev, got.HasPreviousPage)
		})
	}
}

func TestPaginate_ItemsCarryRates(t *testing.T) {
	got := Paginate(seriesOf(5), 2, 2)

	require.Len(t, got.Items, 2)
	assert.True(t, decimal.NewFromInt(3).Equal(got.Items[0].Rates["USD"]))
	assert.True(t, decimal.NewFromInt(4).Equal(got.Items[1].Rates["USD"]))
}

func TestPaginate_EmptySeries(t *testing.T) {
	for _, ts := range []*model.TimeSeries{nil, {Base: "EUR"}} {
		got := Paginate(ts, 5, 10)

		assert.Equal(t, 1, got.Page)
		assert.Equal(t, 0, got.TotalCount)
		assert.Equal(t, 0, got.TotalPages)
		assert.NotNil(t, got.Items)
		assert.Empty(t, got.Items)
		assert.False(t, got.HasNextPage)
		assert.False(t, got.HasPreviousPage)
	}
}

func TestPaginate_CoversEveryDateOnce(t *testing.T) {
	ts := seriesOf(23)
	seen := make(map[string]int)

	first := Paginate(ts, 1, 4)
	for p := 1; p <= first.TotalPages; p++ {
		for _, it := range Paginate(ts, p, 4).Items {
			seen[it.Date]++
		}
	}

	assert.Len(t, seen, 23)
	for d, n := range seen {
		assert.Equal(t, 1, n, fmt.Sprintf("date %s", d))
	}
}

func TestPaginate_HugePageSizeOnEmptySeries(t *testing.T) {
	got := Paginate(&model.TimeSeries{Base: "EUR"}, 1, math.MaxInt)

	assert.Equal(t, 0, got.TotalPages)
	assert.Empty(t, got.Items)
	assert.Equal(t, math.MaxInt, got.PageSize)
}
