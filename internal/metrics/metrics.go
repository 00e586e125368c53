// Package metrics exposes Prometheus collectors for lifecycle calculations.
// A CLI run has no scrape endpoint, so the registry is written to a node
// exporter textfile instead.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/rshade/medcarbon/internal/engine"
)

const namespace = "medcarbon"

// Recorder owns a private registry and the calculation collectors.
type Recorder struct {
	registry *prometheus.Registry

	productsTotal   *prometheus.CounterVec
	warningsTotal   *prometheus.CounterVec
	batchDuration   prometheus.Histogram
	stageKgCO2e     *prometheus.GaugeVec
	lastBatchKgCO2e prometheus.Gauge
}

// NewRecorder registers the collectors on a fresh registry.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		productsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "products_calculated_total",
				Help:      "Products run through the lifecycle calculator",
			},
			[]string{"category"},
		),
		warningsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "warnings_total",
				Help:      "Data-quality warnings raised during calculations",
			},
			[]string{"kind", "stage"},
		),
		batchDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "batch_duration_seconds",
				Help:      "Time taken to calculate an inventory",
				Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
			},
		),
		stageKgCO2e: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "last_batch_stage_kg_co2e",
				Help:      "Stage totals of the most recent inventory, kg CO2e per use",
			},
			[]string{"stage"},
		),
		lastBatchKgCO2e: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "last_batch_total_kg_co2e",
				Help:      "Grand total of the most recent inventory, kg CO2e per use",
			},
		),
	}
}

// Registry returns the registry the collectors live in.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// ObserveBatch records one inventory calculation.
func (r *Recorder) ObserveBatch(res engine.BatchResult, elapsed time.Duration) {
	for _, p := range res.Products {
		category := p.Category
		if category == "" {
			category = "uncategorised"
		}
		r.productsTotal.WithLabelValues(category).Inc()
		for _, w := range p.Warnings {
			r.warningsTotal.WithLabelValues(w.Kind.String(), string(w.Stage)).Inc()
		}
	}
	r.batchDuration.Observe(elapsed.Seconds())
	for _, st := range res.Aggregate.Stages() {
		r.stageKgCO2e.WithLabelValues(string(st.Stage)).Set(st.KgCO2)
	}
	r.lastBatchKgCO2e.Set(res.Aggregate.Total)
}

// WriteTextfile writes the registry in the text exposition format, replacing
// path atomically.
func (r *Recorder) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.registry)
}
