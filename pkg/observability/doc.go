/*
Package observability turns compiler lifecycle hooks into metrics and logs.

Metrics feeds Prometheus collectors from domain.CompileHooks; LoggingHooks
writes one structured record per compilation; Combine fans a single hook set
out to several consumers.

	metrics := observability.NewMetrics(prometheus.DefaultRegisterer)
	c, err := speriment.New(speriment.WithHooks(observability.Combine(
		metrics.Hooks(),
		observability.LoggingHooks(logger),
	)))
*/
package observability
