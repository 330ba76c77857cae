package watcher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/metadocs/internal/config"
	"git.home.luguber.info/inful/metadocs/internal/metrics"
	"git.home.luguber.info/inful/metadocs/internal/routes"
)

type fakeBuilder struct {
	mu       sync.Mutex
	calls    []string
	offline  []bool
	err      error
	observed []State
	w        *Watcher
}

func (b *fakeBuilder) record(call string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = append(b.calls, call)
	if b.w != nil {
		b.observed = append(b.observed, b.w.State())
	}
}

func (b *fakeBuilder) BuildProject(_ context.Context, project string) error {
	b.record("project:" + project)
	return b.err
}

func (b *fakeBuilder) BuildHome(_ context.Context, offline bool) error {
	b.record("home")
	b.mu.Lock()
	b.offline = append(b.offline, offline)
	b.mu.Unlock()
	return b.err
}

func (b *fakeBuilder) Calls() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.calls...)
}

type fakeRoutes struct {
	mu    sync.Mutex
	count int
	err   error
}

func (f *fakeRoutes) Refresh() (routes.Table, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.count++
	return routes.Table{{Prefix: "/a", Dir: "/a"}}, f.count == 1, f.err
}

func (f *fakeRoutes) Count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.count
}

func TestClassify(t *testing.T) {
	root := filepath.FromSlash("/ws")
	c := NewClassifier(root, filepath.Join(root, "site"), config.DefaultWatchPatterns, []string{"drafts/*"})

	tests := []struct {
		path    string
		target  Target
		project string
	}{
		{"docs/index.md", TargetHome, ""},
		{"mkdocs.yml", TargetHome, ""},
		{"docs/help/guide.MD", TargetNone, ""},
		{"docs/nav.yaml", TargetHome, ""},
		{"alpha/source/index.rst", TargetProject, "alpha"},
		{"alpha/source/api/mod.rst", TargetProject, "alpha"},
		{"top.rst", TargetNone, ""},
		{"alpha/build/html/_sources/index.rst", TargetNone, ""},
		{"site/index.md", TargetNone, ""},
		{"alpha/source/.index.rst.swp", TargetNone, ""},
		{"docs/index.md~", TargetNone, ""},
		{"docs/#index.md#", TargetNone, ""},
		{".git/config.yml", TargetNone, ""},
		{"alpha/source/conf.py", TargetNone, ""},
		{"drafts/new.md", TargetNone, ""},
		{"../outside/index.md", TargetNone, ""},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			ch := c.Classify(filepath.Join(root, filepath.FromSlash(tt.path)))
			assert.Equal(t, tt.target, ch.Target)
			assert.Equal(t, tt.project, ch.Project)
		})
	}
}

func TestSkipDir(t *testing.T) {
	root := filepath.FromSlash("/ws")
	c := NewClassifier(root, filepath.Join(root, "out"), nil, nil)

	assert.False(t, c.SkipDir(root))
	assert.False(t, c.SkipDir(filepath.Join(root, "alpha", "source")))
	assert.True(t, c.SkipDir(filepath.Join(root, "alpha", "build")))
	assert.True(t, c.SkipDir(filepath.Join(root, ".git")))
	assert.True(t, c.SkipDir(filepath.Join(root, "out")))
	assert.True(t, c.SkipDir(filepath.Join(root, "out", "assets")))
}

func newTestWatcher(t *testing.T, root string, b *fakeBuilder, r RouteRefresher) *Watcher {
	t.Helper()
	w, err := New(Options{
		Root:     root,
		SiteDir:  filepath.Join(root, "site"),
		Patterns: config.DefaultWatchPatterns,
		Offline:  true,
		Builder:  b,
		Routes:   r,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })
	b.w = w
	return w
}

func TestDispatch(t *testing.T) {
	root := t.TempDir()
	b := &fakeBuilder{}
	r := &fakeRoutes{}
	w := newTestWatcher(t, root, b, r)

	w.Dispatch(context.Background(), Change{Target: TargetHome, Rel: "docs/index.md"})
	w.Dispatch(context.Background(), Change{Target: TargetProject, Project: "alpha", Rel: "alpha/source/index.rst"})

	assert.Equal(t, []string{"home", "project:alpha"}, b.Calls())
	assert.Equal(t, []bool{true}, b.offline)
	assert.Equal(t, []State{StateRebuilding, StateRebuilding}, b.observed)
	assert.Equal(t, StateIdle, w.State())
	assert.Equal(t, 2, r.Count(), "routes refresh on every event")
}

func TestDispatch_FailuresAreNotSurfaced(t *testing.T) {
	root := t.TempDir()
	b := &fakeBuilder{err: errors.New("make failed")}
	r := &fakeRoutes{err: errors.New("no index")}
	w := newTestWatcher(t, root, b, r)

	assert.NotPanics(t, func() {
		w.Dispatch(context.Background(), Change{Target: TargetProject, Project: "alpha"})
	})
	assert.Equal(t, []string{"project:alpha"}, b.Calls())
	assert.Equal(t, StateIdle, w.State())
}

type rebuildRecorder struct {
	metrics.NoopRecorder
	mu      sync.Mutex
	results []metrics.ResultLabel
}

func (r *rebuildRecorder) ObserveRebuild(_ string, _ time.Duration, result metrics.ResultLabel) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, result)
}

func TestDispatch_RecordsResult(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		canceled bool
		want     metrics.ResultLabel
	}{
		{name: "success", want: metrics.ResultSuccess},
		{name: "failure", err: errors.New("make failed"), want: metrics.ResultFailed},
		{name: "canceled", err: context.Canceled, canceled: true, want: metrics.ResultCanceled},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &fakeBuilder{err: tt.err}
			w := newTestWatcher(t, t.TempDir(), b, nil)
			rec := &rebuildRecorder{}
			w.opts.Recorder = rec

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			if tt.canceled {
				cancel()
			}
			w.Dispatch(ctx, Change{Target: TargetProject, Project: "alpha"})

			assert.Equal(t, []metrics.ResultLabel{tt.want}, rec.results)
		})
	}
}

func TestHandle_IgnoresChmodAndUnwatchedFiles(t *testing.T) {
	root := t.TempDir()
	b := &fakeBuilder{}
	w := newTestWatcher(t, root, b, nil)

	w.handle(context.Background(), fsnotify.Event{Name: filepath.Join(root, "docs", "index.md"), Op: fsnotify.Chmod})
	w.handle(context.Background(), fsnotify.Event{Name: filepath.Join(root, "alpha", "setup.py"), Op: fsnotify.Write})
	assert.Empty(t, b.Calls())

	w.handle(context.Background(), fsnotify.Event{Name: filepath.Join(root, "docs", "index.md"), Op: fsnotify.Remove})
	assert.Equal(t, []string{"home"}, b.Calls())
}

func TestRun_RebuildsOnFileChange(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "alpha", "source")
	require.NoError(t, os.MkdirAll(src, 0o750))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "docs"), 0o750))

	b := &fakeBuilder{}
	r := &fakeRoutes{}
	w := newTestWatcher(t, root, b, r)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	require.NoError(t, os.WriteFile(filepath.Join(src, "index.rst"), []byte("Alpha\n=====\n"), 0o600))
	assert.Eventually(t, func() bool {
		for _, c := range b.Calls() {
			if c == "project:alpha" {
				return true
			}
		}
		return false
	}, 5*time.Second, 20*time.Millisecond)

	// Output written by a build never triggers another rebuild.
	out := filepath.Join(root, "alpha", "build", "html")
	require.NoError(t, os.MkdirAll(out, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(out, "index.rst"), []byte("x"), 0o600))

	// A directory created later is watched too.
	newDir := filepath.Join(root, "docs", "help")
	require.NoError(t, os.MkdirAll(newDir, 0o750))
	assert.Eventually(t, func() bool {
		return len(w.fsw.WatchList()) > 0 && contains(w.fsw.WatchList(), newDir)
	}, 5*time.Second, 20*time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(newDir, "guide.md"), []byte("# Guide\n"), 0o600))
	assert.Eventually(t, func() bool {
		calls := b.Calls()
		return len(calls) > 0 && calls[len(calls)-1] == "home"
	}, 5*time.Second, 20*time.Millisecond)
	for _, c := range b.Calls() {
		assert.Contains(t, []string{"project:alpha", "home"}, c)
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func TestRefresher(t *testing.T) {
	r := &fakeRoutes{}
	rec := metrics.NewPrometheusRecorder(nil)

	ref, err := NewRefresher(20*time.Millisecond, r, rec)
	require.NoError(t, err)
	ref.Start()
	assert.Eventually(t, func() bool { return r.Count() >= 2 }, 5*time.Second, 10*time.Millisecond)
	require.NoError(t, ref.Stop())

	_, err = NewRefresher(0, r, nil)
	assert.Error(t, err)
}
