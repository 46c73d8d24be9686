package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	scanDuration   prom.Histogram
	scanOutcomes   *prom.CounterVec
	filesScanned   prom.Gauge
	refsFound      prom.Gauge
	brokenRefs     prom.Gauge
	expandDuration prom.Histogram
	expandOutcomes *prom.CounterVec
	watchEvents    *prom.CounterVec
}

// NewPrometheusRecorder constructs and registers the metrics on reg, or on a
// fresh registry when reg is nil.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		scanDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: "mdincl",
			Name:      "scan_duration_seconds",
			Help:      "Duration of full tree verification passes",
			Buckets:   prom.DefBuckets,
		}),
		scanOutcomes: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "mdincl",
			Name:      "scan_outcomes_total",
			Help:      "Verification passes by outcome",
		}, []string{"outcome"}),
		filesScanned: prom.NewGauge(prom.GaugeOpts{
			Namespace: "mdincl",
			Name:      "files_scanned",
			Help:      "Documents visited by the last verification pass",
		}),
		refsFound: prom.NewGauge(prom.GaugeOpts{
			Namespace: "mdincl",
			Name:      "refs_found",
			Help:      "References collected by the last verification pass",
		}),
		brokenRefs: prom.NewGauge(prom.GaugeOpts{
			Namespace: "mdincl",
			Name:      "broken_refs",
			Help:      "Broken references reported by the last verification pass",
		}),
		expandDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: "mdincl",
			Name:      "expand_duration_seconds",
			Help:      "Duration of document expansions",
			Buckets:   prom.DefBuckets,
		}),
		expandOutcomes: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "mdincl",
			Name:      "expand_outcomes_total",
			Help:      "Document expansions by outcome",
		}, []string{"outcome"}),
		watchEvents: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "mdincl",
			Name:      "watch_events_total",
			Help:      "Filesystem events seen by the watcher, by operation",
		}, []string{"op"}),
	}
	reg.MustRegister(
		pr.scanDuration, pr.scanOutcomes,
		pr.filesScanned, pr.refsFound, pr.brokenRefs,
		pr.expandDuration, pr.expandOutcomes,
		pr.watchEvents,
	)
	return pr
}

func (p *PrometheusRecorder) ObserveScanDuration(d time.Duration) {
	if p == nil || p.scanDuration == nil {
		return
	}
	p.scanDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncScanOutcome(outcome OutcomeLabel) {
	if p == nil || p.scanOutcomes == nil {
		return
	}
	p.scanOutcomes.WithLabelValues(string(outcome)).Inc()
}

func (p *PrometheusRecorder) SetFilesScanned(n int) {
	if p == nil || p.filesScanned == nil {
		return
	}
	p.filesScanned.Set(float64(n))
}

func (p *PrometheusRecorder) SetRefsFound(n int) {
	if p == nil || p.refsFound == nil {
		return
	}
	p.refsFound.Set(float64(n))
}

func (p *PrometheusRecorder) SetBrokenRefs(n int) {
	if p == nil || p.brokenRefs == nil {
		return
	}
	p.brokenRefs.Set(float64(n))
}

func (p *PrometheusRecorder) ObserveExpandDuration(d time.Duration) {
	if p == nil || p.expandDuration == nil {
		return
	}
	p.expandDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncExpandOutcome(outcome OutcomeLabel) {
	if p == nil || p.expandOutcomes == nil {
		return
	}
	p.expandOutcomes.WithLabelValues(string(outcome)).Inc()
}

func (p *PrometheusRecorder) IncWatchEvent(op string) {
	if p == nil || p.watchEvents == nil {
		return
	}
	p.watchEvents.WithLabelValues(op).Inc()
}
