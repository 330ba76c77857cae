package server

import (
	"log/slog"
	"net/http"

	"git.home.luguber.info/inful/metadocs/internal/logfields"
	"git.home.luguber.info/inful/metadocs/internal/metrics"
	"git.home.luguber.info/inful/metadocs/internal/routes"
	smw "git.home.luguber.info/inful/metadocs/internal/server/middleware"
)

// HomePrefix labels requests served from the home site.
const HomePrefix = "home"

// Router serves files from the home site or from the project whose route
// prefix matches the request. The table is loaded on every request, so a
// refresh is visible to the next one.
type Router struct {
	loader   routes.Loader
	homeDir  string
	recorder metrics.Recorder
}

// NewRouter returns a router serving homeDir for unmatched paths.
func NewRouter(loader routes.Loader, homeDir string) *Router {
	return &Router{loader: loader, homeDir: homeDir, recorder: metrics.NoopRecorder{}}
}

// WithRecorder sets the metrics recorder.
func (rt *Router) WithRecorder(r metrics.Recorder) *Router {
	if r != nil {
		rt.recorder = r
	}
	return rt
}

func (rt *Router) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	table, err := rt.loader.Load()
	if err != nil {
		slog.Warn("Route table unavailable, serving home site only", logfields.Error(err))
		table = nil
	}

	label := HomePrefix
	if route, ok := routes.Match(r.URL.Path, table); ok {
		label = route.Prefix
	}

	sw := smw.NewStatusWriter(w)
	http.ServeFile(sw, r, routes.Resolve(r.URL.Path, table, rt.homeDir))
	rt.recorder.IncRequest(label, sw.Status())
}
