package metrics

import "time"

// ResultLabel enumerates outcome categories for counters.
type ResultLabel string

const (
	ResultSuccess  ResultLabel = "success"
	ResultFailed   ResultLabel = "failed"
	ResultCanceled ResultLabel = "canceled"
)

// Result maps an error to its label.
func Result(err error) ResultLabel {
	if err != nil {
		return ResultFailed
	}
	return ResultSuccess
}

// Recorder defines observability hooks for serving and rebuilding.
type Recorder interface {
	// IncRequest counts a served request under the route prefix that
	// matched it ("home" for the home site).
	IncRequest(prefix string, status int)
	ObserveRebuild(target string, d time.Duration, result ResultLabel)
	IncWatchEvent(kind string)
	IncRouteRefresh(changed bool)
	SetRoutes(n int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics are off).
type NoopRecorder struct{}

func (NoopRecorder) IncRequest(string, int)                            {}
func (NoopRecorder) ObserveRebuild(string, time.Duration, ResultLabel) {}
func (NoopRecorder) IncWatchEvent(string)                              {}
func (NoopRecorder) IncRouteRefresh(bool)                              {}
func (NoopRecorder) SetRoutes(int)                                     {}
