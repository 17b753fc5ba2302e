package pagination

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	probesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sight_pagination_probes_total",
		Help: "Total number of total-count probes by result",
	}, []string{"result"})

	pagesFetchedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sight_pagination_pages_fetched_total",
		Help: "Total number of pages fetched during fan-out",
	})

	pageErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sight_pagination_page_errors_total",
		Help: "Total number of failed fan-out page fetches",
	})

	pagesInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "sight_pagination_pages_in_flight",
		Help: "Number of page fetches currently in flight",
	})

	fetchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "sight_pagination_fetch_duration_seconds",
		Help:    "Duration of complete FetchAll runs in seconds",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
	})
)
