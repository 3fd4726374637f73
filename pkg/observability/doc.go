/*
Package observability exports engine activity as Prometheus metrics.

Metrics are fed by lifecycle hooks, so they can be attached to any Engine:

	metrics := observability.NewMetrics(prometheus.NewRegistry())
	eng, err := parley.New(source, store, parley.WithLifecycleHooks(metrics.Hooks()))
*/
package observability
