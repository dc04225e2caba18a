// Package metrics provides Prometheus instrumentation for pipevine components.
//
// The Registry holds counter and histogram vectors for pipeline invocations,
// per-stage executions (including pass-forward skips), scheduled runs, and
// feed jobs. Components record into a Registry through their metrics-enabled
// constructors; nothing is collected unless a component is wired to one.
//
// # Quick Start
//
// Attach a metrics observer to a pipeline and expose the default registry:
//
//	p := pipe.New[int]("orders")
//	p.SetObserver(pipe.NewMetricsObserver(metrics.DefaultConfig()))
//
//	http.Handle("/metrics", promhttp.Handler())
//
// # Custom registries
//
// Use a dedicated registry to isolate a component's metrics, e.g. in tests:
//
//	reg := prometheus.NewRegistry()
//	obs := pipe.NewMetricsObserver(metrics.Config{Enabled: true, Registry: reg})
//
// Metric names follow the pipevine_<subsystem>_<name> convention, with
// pipeline and stage label dimensions.
package metrics
