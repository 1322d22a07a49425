package metrics

import (
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once            sync.Once
	rebuildDuration *prom.HistogramVec
	runDuration     prom.Histogram
	rebuildResults  *prom.CounterVec
	runOutcome      *prom.CounterVec
	gallerySize     prom.Gauge
	staleCount      prom.Gauge
}

// NewPrometheusRecorder constructs and registers Prometheus metrics (idempotent).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{}
	pr.once.Do(func() {
		pr.rebuildDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "nbrun",
			Name:      "rebuild_duration_seconds",
			Help:      "Duration of individual notebook re-executions",
			Buckets:   prom.ExponentialBuckets(0.5, 2, 12),
		}, []string{"notebook", "result"})
		pr.runDuration = prom.NewHistogram(prom.HistogramOpts{
			Namespace: "nbrun",
			Name:      "run_duration_seconds",
			Help:      "Total duration of rebuild passes",
			Buckets:   prom.ExponentialBuckets(0.5, 2, 12),
		})
		pr.rebuildResults = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "nbrun",
			Name:      "rebuild_results_total",
			Help:      "Per-notebook rebuild counts by outcome",
		}, []string{"result"})
		pr.runOutcome = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "nbrun",
			Name:      "run_outcomes_total",
			Help:      "Rebuild pass outcomes by final status",
		}, []string{"outcome"})
		pr.gallerySize = prom.NewGauge(prom.GaugeOpts{
			Namespace: "nbrun",
			Name:      "gallery_notebooks",
			Help:      "Number of notebooks discovered in the gallery",
		})
		pr.staleCount = prom.NewGauge(prom.GaugeOpts{
			Namespace: "nbrun",
			Name:      "stale_notebooks",
			Help:      "Number of stale notebooks found by the last pass",
		})
		reg.MustRegister(pr.rebuildDuration, pr.runDuration, pr.rebuildResults, pr.runOutcome, pr.gallerySize, pr.staleCount)
	})
	return pr
}

func (p *PrometheusRecorder) ObserveRebuildDuration(notebook string, d time.Duration, success bool) {
	if p == nil || p.rebuildDuration == nil {
		return
	}
	res := "failed"
	if success {
		res = "success"
	}
	p.rebuildDuration.WithLabelValues(notebook, res).Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveRunDuration(d time.Duration) {
	if p == nil || p.runDuration == nil {
		return
	}
	p.runDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncRebuildResult(result ResultLabel) {
	if p == nil || p.rebuildResults == nil {
		return
	}
	p.rebuildResults.WithLabelValues(string(result)).Inc()
}

func (p *PrometheusRecorder) IncRunOutcome(outcome string) {
	if p == nil || p.runOutcome == nil {
		return
	}
	p.runOutcome.WithLabelValues(outcome).Inc()
}

func (p *PrometheusRecorder) SetGallerySize(n int) {
	if p == nil || p.gallerySize == nil {
		return
	}
	p.gallerySize.Set(float64(n))
}

func (p *PrometheusRecorder) SetStaleCount(n int) {
	if p == nil || p.staleCount == nil {
		return
	}
	p.staleCount.Set(float64(n))
}
