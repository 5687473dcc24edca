package repository

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"currency-rate-proxy/internal/domain/model"
	"currency-rate-proxy/pkg/logger"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAPI(t *testing.T, handler http.HandlerFunc) *FrankfurterAPI {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewFrankfurterAPI(srv.URL, srv.Client(), logger.Discard())
}

func TestFrankfurterAPI_FetchLatest(t *testing.T) {
	api := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/latest", r.URL.Path)
		assert.Equal(t, "EUR", r.URL.Query().Get("from"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"amount":1.0,"base":"EUR","date":"2024-01-05","rates":{"USD":1.0946,"gbp":0.8603}}`))
	})

	snap, err := api.FetchLatest(context.Background(), "EUR")
	require.NoError(t, err)

	assert.Equal(t, model.CurrencyCode("EUR"), snap.Base)
	assert.Equal(t, time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), snap.Date)
	assert.True(t, decimal.RequireFromString("1.0946").Equal(snap.Rates["USD"]))
	assert.True(t, decimal.RequireFromString("0.8603").Equal(snap.Rates["GBP"]), "codes are normalized")
}

func TestFrankfurterAPI_FetchSeries(t *testing.T) {
	api := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/2024-01-01..2024-01-04", r.URL.Path)
		_, _ = w.Write([]byte(`{"amount":1.0,"base":"EUR","start_date":"2024-01-02","end_date":"2024-01-04",
			"rates":{"2024-01-02":{"USD":1.0956},"2024-01-03":{"USD":1.0919},"2024-01-04":{"USD":1.0953}}}`))
	})

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 4, 0, 0, 0, 0, time.UTC)
	series, err := api.FetchSeries(context.Background(), "EUR", start, end)
	require.NoError(t, err)

	assert.Equal(t, model.CurrencyCode("EUR"), series.Base)
	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), series.StartDate)
	assert.Equal(t, end, series.EndDate)
	assert.Len(t, series.RatesByDate, 3)
	assert.True(t, decimal.RequireFromString("1.0919").Equal(series.RatesByDate["2024-01-03"]["USD"]))
}

func TestFrankfurterAPI_FetchCurrencyList(t *testing.T) {
	api := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/currencies", r.URL.Path)
		_, _ = w.Write([]byte(`{"EUR":"Euro","USD":"United States Dollar"}`))
	})

	list, err := api.FetchCurrencyList(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[model.CurrencyCode]string{"EUR": "Euro", "USD": "United States Dollar"}, list.Currencies)
}

func TestFrankfurterAPI_ErrorClassification(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantKind model.ErrorKind
	}{
		{"server error", http.StatusInternalServerError, `oops`, model.KindTransient},
		{"bad gateway", http.StatusBadGateway, ``, model.KindTransient},
		{"rate limited", http.StatusTooManyRequests, ``, model.KindTransient},
		{"not found", http.StatusNotFound, `{"message":"not found"}`, model.KindPermanent},
		{"unprocessable", http.StatusUnprocessableEntity, ``, model.KindPermanent},
		{"malformed payload", http.StatusOK, `{"base":`, model.KindPermanent},
		{"bad date", http.StatusOK, `{"base":"EUR","date":"yesterday","rates":{}}`, model.KindPermanent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := api.FetchLatest(context.Background(), "EUR")
			require.Error(t, err)
			assert.Equal(t, tt.wantKind, model.KindOf(err))

			var ue *model.UpstreamError
			require.ErrorAs(t, err, &ue)
			assert.Equal(t, "fetch_latest", ue.Op)
		})
	}
}

func TestFrankfurterAPI_NetworkFailureIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	api := NewFrankfurterAPI(srv.URL, nil, logger.Discard())
	_, err := api.FetchCurrencyList(context.Background())

	assert.ErrorIs(t, err, model.ErrTransientUpstream)
}
