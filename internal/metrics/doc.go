// Package metrics provides the observability hooks for scanning and
// expansion.
//
// Components receive a Recorder through dependency injection and never check
// whether metrics are enabled: NoopRecorder implements the interface with
// methods that inline to nothing, and PrometheusRecorder is swapped in when
// the daemon serves /metrics.
//
//	var rec metrics.Recorder = metrics.NoopRecorder{}
//	if cfg.Metrics.Enabled {
//	    rec = metrics.NewPrometheusRecorder(registry)
//	}
//	d := daemon.New(cfg, st, rec)
package metrics
