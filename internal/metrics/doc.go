// Package metrics records task and run metrics for sqlite3src.
//
// Components receive a Recorder. NoopRecorder is the default and does nothing;
// PrometheusRecorder registers collectors on a registry which the CLI writes
// as a node-exporter textfile when metrics.textfile is configured:
//
//	reg := prom.NewRegistry()
//	recorder := metrics.NewPrometheusRecorder(reg)
//	svc := pipeline.NewService(deps).WithRecorder(recorder)
//	...
//	_ = metrics.WriteTextfile(reg, cfg.Metrics.Textfile)
package metrics
