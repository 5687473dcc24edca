package http

import (
	"net/http"

	"currency-rate-proxy/internal/metrics"
	"currency-rate-proxy/pkg/logger"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Router struct {
	handler  *Handler
	log      *logger.Logger
	metrics  *metrics.Metrics
	gatherer prometheus.Gatherer
}

// NewRouter serves /metrics from gatherer, which should be the registry the
// metrics were registered with.
func NewRouter(handler *Handler, log *logger.Logger, metrics *metrics.Metrics, gatherer prometheus.Gatherer) *Router {
	return &Router{
		handler:  handler,
		log:      log,
		metrics:  metrics,
		gatherer: gatherer,
	}
}

func (r *Router) SetupRoutes() http.Handler {
	mux := chi.NewRouter()
	mux.Use(middleware.Recoverer)

	mux.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	mux.Handle("/metrics", promhttp.HandlerFor(r.gatherer, promhttp.HandlerOpts{}))

	mux.Route("/api/v1", func(api chi.Router) {
		api.Use(requestIDMiddleware)
		api.Use(r.loggingMiddleware)

		api.Get("/rates/latest", r.handler.GetLatestRatesHandler)
		api.Get("/rates/historical", r.handler.GetHistoricalRatesHandler)
		api.Get("/convert", r.handler.ConvertCurrencyHandler)
		api.Get("/currencies", r.handler.GetCurrenciesHandler)
	})

	return mux
}
