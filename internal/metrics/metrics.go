package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	RunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "priceoracle",
			Name:      "runs_total",
			Help:      "Forecast runs by final status",
		},
		[]string{"status"},
	)

	RunDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "priceoracle",
			Name:      "run_duration_seconds",
			Help:      "Wall time of a full forecast run",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
		},
	)

	EpochLoss = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "priceoracle",
			Subsystem: "training",
			Name:      "epoch_loss",
			Help:      "Loss reported by the most recent training epoch",
		},
		[]string{"symbol"},
	)

	FetchErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "priceoracle",
			Subsystem: "collector",
			Name:      "fetch_errors_total",
			Help:      "Upstream retrieval failures by source",
		},
		[]string{"source"},
	)

	ForecastPrice = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "priceoracle",
			Name:      "forecast_price",
			Help:      "Latest denormalized next-period forecast",
		},
		[]string{"symbol"},
	)
)

// Register adds all collectors to the default registry. Safe to call repeatedly.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(RunsTotal, RunDuration, EpochLoss, FetchErrors, ForecastPrice)
	})
}
