package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"

	"git.home.luguber.info/inful/metadocs/internal/logfields"
	"git.home.luguber.info/inful/metadocs/internal/metrics"
	"git.home.luguber.info/inful/metadocs/internal/routes"
)

// Builder performs the rebuilds.
type Builder interface {
	BuildProject(ctx context.Context, project string) error
	BuildHome(ctx context.Context, offline bool) error
}

// RouteRefresher recomputes and publishes the route table.
type RouteRefresher interface {
	Refresh() (routes.Table, bool, error)
}

// State is what the event loop is doing.
type State string

const (
	StateIdle       State = "idle"
	StateRebuilding State = "rebuilding"
)

// Options configures a Watcher.
type Options struct {
	Root     string
	SiteDir  string
	Patterns []string
	Ignore   []string
	Offline  bool
	Builder  Builder
	Routes   RouteRefresher
	Recorder metrics.Recorder
}

// Watcher turns file events under the workspace root into rebuilds.
type Watcher struct {
	opts       Options
	classifier *Classifier
	fsw        *fsnotify.Watcher

	mu    sync.RWMutex
	state State
}

// New starts watching every directory under opts.Root.
func New(opts Options) (*Watcher, error) {
	if opts.Recorder == nil {
		opts.Recorder = metrics.NoopRecorder{}
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("fsnotify: %w", err)
	}
	w := &Watcher{
		opts:       opts,
		classifier: NewClassifier(opts.Root, opts.SiteDir, opts.Patterns, opts.Ignore),
		fsw:        fsw,
		state:      StateIdle,
	}
	if err := w.addDirsRecursive(opts.Root); err != nil {
		_ = fsw.Close()
		return nil, err
	}
	return w, nil
}

// State returns the current loop state.
func (w *Watcher) State() State {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.state
}

func (w *Watcher) setState(s State) {
	w.mu.Lock()
	w.state = s
	w.mu.Unlock()
}

// Run processes events until ctx is cancelled or the watcher is closed.
func (w *Watcher) Run(ctx context.Context) error {
	slog.Info("Watching for changes", logfields.Dir(w.opts.Root), slog.Any("patterns", w.opts.Patterns))
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handle(ctx, ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			slog.Warn("Watcher error", logfields.Error(err))
		}
	}
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

func (w *Watcher) handle(ctx context.Context, ev fsnotify.Event) {
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
		return
	}
	if ev.Has(fsnotify.Create) {
		if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() && !w.classifier.SkipDir(ev.Name) {
			if err := w.addDirsRecursive(ev.Name); err != nil {
				slog.Warn("Watch add failed", logfields.Dir(ev.Name), logfields.Error(err))
			}
			return
		}
	}

	change := w.classifier.Classify(ev.Name)
	if change.Target == TargetNone {
		return
	}
	slog.Debug("File change detected", logfields.Path(change.Rel), logfields.Op(ev.Op.String()))
	w.opts.Recorder.IncWatchEvent(opName(ev.Op))
	w.Dispatch(ctx, change)
}

// Dispatch refreshes the route table then runs the rebuild the change asks
// for. Failures are logged.
func (w *Watcher) Dispatch(ctx context.Context, change Change) {
	w.refreshRoutes()

	w.setState(StateRebuilding)
	defer w.setState(StateIdle)

	jobID := uuid.NewString()
	start := time.Now()
	var (
		target string
		err    error
	)
	switch change.Target {
	case TargetHome:
		target = "home"
		slog.Info("Rebuilding home site", logfields.JobID(jobID), logfields.Path(change.Rel))
		err = w.opts.Builder.BuildHome(ctx, w.opts.Offline)
	case TargetProject:
		target = change.Project
		slog.Info("Rebuilding project", logfields.JobID(jobID), logfields.Project(change.Project), logfields.Path(change.Rel))
		err = w.opts.Builder.BuildProject(ctx, change.Project)
	default:
		return
	}

	elapsed := time.Since(start)
	result := metrics.Result(err)
	if err != nil && ctx.Err() != nil {
		result = metrics.ResultCanceled
	}
	w.opts.Recorder.ObserveRebuild(target, elapsed, result)
	if err != nil {
		slog.Warn("Rebuild failed", logfields.JobID(jobID), slog.String("target", target), logfields.Error(err))
		return
	}
	slog.Info("Rebuild finished", logfields.JobID(jobID), slog.String("target", target),
		logfields.DurationMS(float64(elapsed.Milliseconds())))
}

func (w *Watcher) refreshRoutes() {
	if w.opts.Routes == nil {
		return
	}
	table, changed, err := w.opts.Routes.Refresh()
	if err != nil {
		slog.Warn("Route refresh failed", logfields.Error(err))
		return
	}
	w.opts.Recorder.IncRouteRefresh(changed)
	w.opts.Recorder.SetRoutes(len(table))
}

func (w *Watcher) addDirsRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return fmt.Errorf("watch %s: %w", root, err)
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if w.classifier.SkipDir(path) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			slog.Warn("Watch add failed", logfields.Dir(path), logfields.Error(err))
		}
		return nil
	})
}

func opName(op fsnotify.Op) string {
	switch {
	case op.Has(fsnotify.Create):
		return "create"
	case op.Has(fsnotify.Write):
		return "write"
	case op.Has(fsnotify.Remove):
		return "remove"
	case op.Has(fsnotify.Rename):
		return "rename"
	default:
		return "other"
	}
}
