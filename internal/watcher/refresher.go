package watcher

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"

	"git.home.luguber.info/inful/metadocs/internal/logfields"
	"git.home.luguber.info/inful/metadocs/internal/metrics"
)

// Refresher refreshes the route table on a fixed interval, for file systems
// that drop change events.
type Refresher struct {
	scheduler gocron.Scheduler
	routes    RouteRefresher
	recorder  metrics.Recorder
}

// NewRefresher schedules a refresh every interval. Call Start to run it.
func NewRefresher(interval time.Duration, routes RouteRefresher, recorder metrics.Recorder) (*Refresher, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("refresh interval must be positive, got %s", interval)
	}
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}
	r := &Refresher{scheduler: s, routes: routes, recorder: recorder}

	_, err = s.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(r.refresh),
		gocron.WithName("route-refresh"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = s.Shutdown()
		return nil, fmt.Errorf("failed to create route refresh job: %w", err)
	}
	return r, nil
}

// Start begins the periodic refresh.
func (r *Refresher) Start() {
	slog.Debug("Starting route refresher")
	r.scheduler.Start()
}

// Stop waits for a running refresh and stops the scheduler.
func (r *Refresher) Stop() error {
	return r.scheduler.Shutdown()
}

func (r *Refresher) refresh() {
	table, changed, err := r.routes.Refresh()
	if err != nil {
		slog.Warn("Periodic route refresh failed", logfields.Error(err))
		return
	}
	r.recorder.IncRouteRefresh(changed)
	r.recorder.SetRoutes(len(table))
	if changed {
		slog.Info("Route table updated", logfields.Routes(len(table)))
	}
}
