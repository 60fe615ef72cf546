package metrics

import (
	"time"

	"StockCast/internal/domain/models"

	"github.com/prometheus/client_golang/prometheus"
)

// ForecastCollector implements repository.ForecastMetrics.
type ForecastCollector struct {
	runs     *prometheus.CounterVec
	duration *prometheus.HistogramVec
	epochs   prometheus.Counter
	lastLoss *prometheus.GaugeVec
	rmse     *prometheus.GaugeVec
}

// NewForecastCollector registers the forecast collectors with reg.
func NewForecastCollector(reg prometheus.Registerer) *ForecastCollector {
	c := &ForecastCollector{
		runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "stockcast",
				Subsystem: "forecast",
				Name:      "runs_total",
				Help:      "Forecast runs by outcome",
			},
			[]string{"outcome"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "stockcast",
				Subsystem: "forecast",
				Name:      "duration_seconds",
				Help:      "Wall time of a forecast run including training",
				Buckets:   prometheus.ExponentialBuckets(0.5, 2, 10),
			},
			[]string{"outcome"},
		),
		epochs: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "stockcast",
				Subsystem: "forecast",
				Name:      "epochs_total",
				Help:      "Training epochs completed",
			},
		),
		lastLoss: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "stockcast",
				Subsystem: "forecast",
				Name:      "last_epoch_loss",
				Help:      "Loss of the most recent epoch",
			},
			[]string{"symbol", "kind"},
		),
		rmse: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "stockcast",
				Subsystem: "forecast",
				Name:      "rmse",
				Help:      "RMSE of the latest run in price units",
			},
			[]string{"symbol", "partition"},
		),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(c.runs, c.duration, c.epochs, c.lastLoss, c.rmse)
	return c
}

func (c *ForecastCollector) ObserveEpoch(symbol string, p models.EpochProgress) {
	c.epochs.Inc()
	c.lastLoss.WithLabelValues(symbol, "train").Set(p.Loss)
	c.lastLoss.WithLabelValues(symbol, "val").Set(p.ValLoss)
}

func (c *ForecastCollector) ObserveRun(symbol, outcome string, d time.Duration, trainRMSE, testRMSE float64) {
	c.runs.WithLabelValues(outcome).Inc()
	c.duration.WithLabelValues(outcome).Observe(d.Seconds())
	if outcome == "ok" {
		c.rmse.WithLabelValues(symbol, "train").Set(trainRMSE)
		c.rmse.WithLabelValues(symbol, "test").Set(testRMSE)
	}
}
