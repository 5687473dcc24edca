package http

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"
	"time"

	"currency-rate-proxy/internal/domain/model"
	"currency-rate-proxy/internal/domain/ports"
	"currency-rate-proxy/internal/metrics"
	"currency-rate-proxy/internal/service"
	"currency-rate-proxy/pkg/logger"

	"github.com/shopspring/decimal"
)

const (
	headerCacheStatus = "X-Cache-Status"
	cacheStatusStale  = "stale"
)

type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

type Handler struct {
	service ports.ExchangeService
	log     *logger.Logger
	metrics *metrics.Metrics
}

func NewHandler(service ports.ExchangeService, log *logger.Logger, metrics *metrics.Metrics) *Handler {
	return &Handler{
		service: service,
		log:     log,
		metrics: metrics,
	}
}

func (h *Handler) GetLatestRatesHandler(w http.ResponseWriter, r *http.Request) {
	h.metrics.ObserveRateRequest()

	base := r.URL.Query().Get("base")
	if base == "" {
		h.sendErrorResponse(w, http.StatusBadRequest, "missing required parameter: base")
		return
	}

	snapshot, err := h.service.GetLatestRates(r.Context(), base)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.sendSuccessResponse(w, snapshot, snapshot.Stale)
}

func (h *Handler) ConvertCurrencyHandler(w http.ResponseWriter, r *http.Request) {
	h.metrics.ObserveConversionRequest()

	from := r.URL.Query().Get("from")
	to := r.URL.Query().Get("to")
	amountStr := r.URL.Query().Get("amount")

	if from == "" || to == "" {
		h.sendErrorResponse(w, http.StatusBadRequest, "missing required parameters: from and to")
		return
	}

	amount := decimal.NewFromInt(1)
	if amountStr != "" {
		var err error
		amount, err = decimal.NewFromString(amountStr)
		if err != nil {
			h.sendErrorResponse(w, http.StatusBadRequest, "invalid amount parameter")
			return
		}
	}

	outcome, err := h.service.ConvertCurrency(r.Context(), from, to, amount)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.sendSuccessResponse(w, outcome, outcome.Stale)
}

func (h *Handler) GetHistoricalRatesHandler(w http.ResponseWriter, r *http.Request) {
	h.metrics.ObserveHistoricalRequest()

	q := r.URL.Query()
	query := ports.HistoricalQuery{
		Base:      q.Get("base"),
		StartDate: q.Get("start_date"),
		EndDate:   q.Get("end_date"),
	}

	if query.Base == "" || query.StartDate == "" || query.EndDate == "" {
		h.sendErrorResponse(w, http.StatusBadRequest, "missing required parameters: base, start_date, and end_date")
		return
	}

	var err error
	if query.Page, err = intParam(q.Get("page")); err != nil {
		h.sendErrorResponse(w, http.StatusBadRequest, "invalid page parameter")
		return
	}
	if query.PageSize, err = intParam(q.Get("page_size")); err != nil {
		h.sendErrorResponse(w, http.StatusBadRequest, "invalid page_size parameter")
		return
	}

	page, err := h.service.GetHistoricalRates(r.Context(), query)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.sendSuccessResponse(w, page, page.Stale)
}

func (h *Handler) GetCurrenciesHandler(w http.ResponseWriter, r *http.Request) {
	h.metrics.ObserveCurrencyRequest()

	list, err := h.service.GetCurrencyList(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.sendSuccessResponse(w, list, list.Stale)
}

// intParam parses an optional integer query parameter; empty means zero.
func intParam(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}

func (h *Handler) sendSuccessResponse(w http.ResponseWriter, data interface{}, stale bool) {
	response := Response{
		Success: true,
		Data:    data,
	}

	if stale {
		w.Header().Set(headerCacheStatus, cacheStatusStale)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.log.Error("Failed to encode response", "error", err)
	}
}

func (h *Handler) sendErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	response := Response{
		Success: false,
		Error:   message,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.log.Error("Failed to encode error response", "error", err)
	}
}

func (h *Handler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	statusCode := http.StatusInternalServerError
	errorMessage := "internal server error"

	switch {
	case errors.Is(err, service.ErrInvalidCurrency):
		statusCode = http.StatusBadRequest
		errorMessage = "invalid currency"
	case errors.Is(err, service.ErrInvalidDateRange):
		statusCode = http.StatusBadRequest
		errorMessage = "invalid date range, use YYYY-MM-DD with start_date before end_date"
	case errors.Is(err, service.ErrInvalidAmount):
		statusCode = http.StatusBadRequest
		errorMessage = "invalid amount"
	case errors.Is(err, service.ErrInvalidPagination):
		statusCode = http.StatusBadRequest
		errorMessage = "invalid pagination"
	case errors.Is(err, model.ErrRateNotFound):
		statusCode = http.StatusNotFound
		errorMessage = "exchange rate not found"
	case errors.Is(err, model.ErrServiceUnavailable),
		errors.Is(err, model.ErrCircuitOpen),
		errors.Is(err, model.ErrTransientUpstream):
		statusCode = http.StatusServiceUnavailable
		errorMessage = "exchange rate service temporarily unavailable, retry later"
		if d := retryAfter(err); d > 0 {
			w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(d.Seconds()))))
		}
	case errors.Is(err, model.ErrPermanentUpstream):
		statusCode = http.StatusBadRequest
		errorMessage = "request rejected by exchange rate service"
	case errors.Is(err, model.ErrConfiguration):
		statusCode = http.StatusInternalServerError
		errorMessage = "exchange rate service is misconfigured"
	}

	h.log.Error("Service error",
		"error", err,
		"status_code", statusCode,
		"request_id", RequestIDFromContext(r.Context()),
	)
	h.sendErrorResponse(w, statusCode, errorMessage)
}

// retryAfter finds the break duration left on a circuit-open error anywhere
// in err's chain.
func retryAfter(err error) time.Duration {
	var ue *model.UpstreamError
	for e := err; errors.As(e, &ue); e = ue.Err {
		if ue.RetryAfter > 0 {
			return ue.RetryAfter
		}
	}
	return 0
}
