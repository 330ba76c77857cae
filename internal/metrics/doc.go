// Package metrics records what the preview server and the rebuild loop do.
//
// Components receive a Recorder and default to NoopRecorder, so metrics
// collection needs no nil checks at call sites. When the server is started
// with metrics enabled, a PrometheusRecorder is injected instead and its
// registry is exposed over HTTP.
package metrics
