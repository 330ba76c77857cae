package commands

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/metadocs/internal/config"
	merrors "git.home.luguber.info/inful/metadocs/internal/errors"
	"git.home.luguber.info/inful/metadocs/internal/prompt"
	"git.home.luguber.info/inful/metadocs/internal/toolchain"
	"git.home.luguber.info/inful/metadocs/internal/version"
	"git.home.luguber.info/inful/metadocs/internal/workspace"
)

// syncBuffer is a bytes.Buffer safe for the serve goroutine and the test.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

const quickstartIndex = `Welcome to mypkg's documentation!
=================================

.. toctree::
   :maxdepth: 2
   :caption: Contents:



Indices and tables
==================

* :ref:` + "`genindex`" + `
`

const quickstartConf = `# import os
# import sys
# sys.path.insert(0, os.path.abspath('.'))

project = 'mypkg'

extensions = [
    'sphinx.ext.autodoc',
    'sphinx.ext.viewcode',
]

html_theme = 'alabaster'
`

// fakeTools emulates the documentation tools: make and mkdocs write the
// pages they would produce, the Sphinx helpers write their sources.
func fakeTools(t *testing.T) *toolchain.FakeRunner {
	t.Helper()
	write := func(path, content string) error {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return err
		}
		return os.WriteFile(path, []byte(content), 0o600)
	}
	return &toolchain.FakeRunner{OnRun: func(inv toolchain.Invocation) (toolchain.Result, error) {
		switch {
		case inv.String() == "make html":
			return toolchain.Result{}, write(filepath.Join(inv.Dir, "build", "html", "index.html"),
				"<title>"+filepath.Base(inv.Dir)+" docs</title>\n")
		case inv.String() == "mkdocs build":
			return toolchain.Result{}, write(filepath.Join(inv.Dir, "site", "index.html"), "<h1>home</h1>\n")
		case inv.Name == "sphinx-quickstart":
			if err := write(filepath.Join(inv.Dir, "source", "conf.py"), quickstartConf); err != nil {
				return toolchain.Result{}, err
			}
			return toolchain.Result{}, write(filepath.Join(inv.Dir, "source", "index.rst"), quickstartIndex)
		case inv.Name == "sphinx-apidoc":
			if err := write(filepath.Join(inv.Dir, "source", "modules.rst"), "mypkg\n=====\n"); err != nil {
				return toolchain.Result{}, err
			}
			return toolchain.Result{}, write(filepath.Join(inv.Dir, "source", "mypkg.core.rst"), "mypkg.core module\n=================\n")
		}
		return toolchain.Result{}, nil
	}}
}

func newGlobal(t *testing.T, runner toolchain.Runner, answers ...string) (*Global, *syncBuffer) {
	t.Helper()
	t.Setenv(config.EnvOffline, "")
	t.Setenv(config.EnvRoutes, "")
	out := &syncBuffer{}
	return &Global{
		Context:  context.Background(),
		Out:      out,
		Prompter: prompt.NewScripted(answers...),
		Runner:   runner,
	}, out
}

func run(t *testing.T, g *Global, args ...string) error {
	t.Helper()
	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("metadocs"),
		kong.Vars{"version": version.Version},
		kong.Bind(g),
		kong.Exit(func(int) { t.Fatalf("unexpected exit for %v", args) }),
	)
	require.NoError(t, err)
	ctx, err := parser.Parse(args)
	if err != nil {
		return err
	}
	return ctx.Run(g, cli)
}

func scaffold(t *testing.T, name string) string {
	t.Helper()
	dir, err := workspace.Scaffold(workspace.ScaffoldOptions{Parent: t.TempDir(), Name: name})
	require.NoError(t, err)
	return dir
}

func TestInit(t *testing.T) {
	parent := t.TempDir()
	runner := fakeTools(t)
	g, out := newGlobal(t, runner, "")

	require.NoError(t, run(t, g, "-C", parent, "init", "acme"))

	dir := filepath.Join(parent, "acme")
	site, err := config.ReadSiteConfig(filepath.Join(dir, "mkdocs.yml"))
	require.NoError(t, err)
	assert.Equal(t, "Acme - Home Documentation", site.SiteName, "empty answer keeps the default")

	asked := g.Prompter.(*prompt.Scripted).Asked()
	require.Len(t, asked, 1)
	assert.Equal(t, "What is your Documentation's name (it can be changed later in mkdocs.yml)?\n[Default: Acme - Home Documentation]\n", asked[0])

	assert.Equal(t, []string{"make clean", "make html", "mkdocs build"}, runner.Commands())
	assert.Contains(t, out.String(), "acme/example_project created as a showcase of how metadocs works")
	assert.Contains(t, out.String(), "Success! You can now start your Docs in ./acme")
	assert.Contains(t, out.String(), "metadocs serve")
}

func TestInit_SiteNameGitAndNoBuild(t *testing.T) {
	parent := t.TempDir()
	runner := fakeTools(t)
	g, _ := newGlobal(t, runner)

	require.NoError(t, run(t, g, "-C", parent, "init", "team", "--site-name", "Team Docs", "--git", "--no-build"))

	site, err := config.ReadSiteConfig(filepath.Join(parent, "team", "mkdocs.yml"))
	require.NoError(t, err)
	assert.Equal(t, "Team Docs", site.SiteName)
	assert.DirExists(t, filepath.Join(parent, "team", ".git"))
	assert.Empty(t, runner.Calls())
	assert.Empty(t, g.Prompter.(*prompt.Scripted).Asked())
}

func TestInit_ExistingTargetAsksNothing(t *testing.T) {
	parent := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(parent, "taken"), 0o750))
	g, _ := newGlobal(t, fakeTools(t))

	err := run(t, g, "-C", parent, "init", "taken")
	require.Error(t, err)
	assert.True(t, merrors.IsCategory(err, merrors.CategoryValidation))
	assert.Empty(t, g.Prompter.(*prompt.Scripted).Asked())
}

func TestInit_BuildFailureIsAdvisory(t *testing.T) {
	parent := t.TempDir()
	runner := &toolchain.FakeRunner{OnRun: func(toolchain.Invocation) (toolchain.Result, error) {
		return toolchain.Result{}, toolchain.ErrBinaryNotFound
	}}
	g, out := newGlobal(t, runner)

	require.NoError(t, run(t, g, "-C", parent, "init", "acme", "--site-name", "Acme"))
	assert.Contains(t, out.String(), "Success! You can now start your Docs in ./acme")
}

func TestBuild(t *testing.T) {
	dir := scaffold(t, "ws")
	runner := fakeTools(t)
	g, out := newGlobal(t, runner)

	require.NoError(t, run(t, g, "-C", dir, "build", "-A", "-F"))
	assert.Equal(t, []string{"make clean", "make html", "mkdocs build"}, runner.Commands())
	assert.Contains(t, out.String(), "Built example_project")
	assert.Contains(t, out.String(), "Home site built in "+filepath.Join(dir, "site"))
	assert.Equal(t, "false", os.Getenv(config.EnvOffline))
}

func TestBuild_ConfirmationAndUnknownProjects(t *testing.T) {
	dir := scaffold(t, "ws")
	runner := fakeTools(t)
	g, out := newGlobal(t, runner, "y")

	require.NoError(t, run(t, g, "-C", dir, "build", "-p", "example_project", "-p", "missing", "--offline"))
	assert.Equal(t, []string{"You are about to build the docs for: \n- example_project\n- missing\nContinue? (y/n) "},
		g.Prompter.(*prompt.Scripted).Asked())
	assert.Contains(t, out.String(), "missing is not a project of this workspace")
	assert.Equal(t, "true", os.Getenv(config.EnvOffline))
}

func TestBuild_Declined(t *testing.T) {
	dir := scaffold(t, "ws")
	runner := fakeTools(t)
	g, out := newGlobal(t, runner, "n")

	require.NoError(t, run(t, g, "-C", dir, "build", "-A"))
	assert.Empty(t, runner.Calls())
	assert.Contains(t, out.String(), "Build cancelled")
}

func TestBuild_InvalidFlags(t *testing.T) {
	dir := scaffold(t, "ws")
	runner := fakeTools(t)
	g, _ := newGlobal(t, runner)

	err := run(t, g, "-C", dir, "build", "-A", "-p", "example_project")
	require.Error(t, err)
	assert.True(t, merrors.IsCategory(err, merrors.CategoryValidation))

	err = run(t, g, "-C", dir, "build")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "You have to specify at least one project (or all)")
	assert.Empty(t, runner.Calls())
}

func TestBuild_OutsideWorkspaceSuggestsLocations(t *testing.T) {
	home := scaffold(t, "docs_home")
	g, _ := newGlobal(t, fakeTools(t))

	err := run(t, g, "-C", filepath.Dir(home), "build", "-A", "-F")
	require.Error(t, err)
	assert.True(t, merrors.IsCategory(err, merrors.CategoryFileSystem))

	msg := merrors.NewCLIErrorAdapter(false, nil).FormatError(err)
	assert.Equal(t, "Are you sure you ran \"metadocs build\" in the right directory?\nTry in ./docs_home", msg)
}

func TestClean(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "source"), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Makefile"), []byte("all:\n"), 0o600))
	g, out := newGlobal(t, nil)

	require.NoError(t, run(t, g, "-C", dir, "clean"))
	assert.Contains(t, out.String(), "Removed source")
	assert.Contains(t, out.String(), "Removed Makefile")
	assert.NoDirExists(t, filepath.Join(dir, "source"))

	require.NoError(t, run(t, g, "-C", dir, "clean"))
	assert.Contains(t, out.String(), "Nothing to clean")
}

func TestProjects(t *testing.T) {
	dir := scaffold(t, "acme")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "beta", "source"), 0o750))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "example_project", "build", "html"), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "example_project", "build", "html", "index.html"),
		[]byte("<title>Example docs</title>"), 0o600))
	g, out := newGlobal(t, nil)

	require.NoError(t, run(t, g, "-C", dir, "projects"))
	text := out.String()
	assert.Contains(t, text, "Acme - Home Documentation")
	assert.Regexp(t, `example_project\s+\[listed, built\]\s+Example docs`, text)
	assert.Regexp(t, `beta\s+\[unlisted, not built\]`, text)
}

func TestVersion(t *testing.T) {
	g, out := newGlobal(t, nil)
	require.NoError(t, run(t, g, "version"))
	assert.Equal(t, "metadocs "+version.Version+"\n", out.String())
}

// autodocProject lays out workspace/mypkg with an importable package.
func autodocProject(t *testing.T) (home, project string) {
	t.Helper()
	home = scaffold(t, "ws")
	project = filepath.Join(home, "mypkg")
	require.NoError(t, os.MkdirAll(filepath.Join(project, "mypkg"), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(project, "mypkg", "__init__.py"), nil, 0o600))
	return home, project
}

func TestAutodoc(t *testing.T) {
	home, project := autodocProject(t)
	runner := fakeTools(t)
	g, out := newGlobal(t, runner)

	require.NoError(t, run(t, g, "-C", project, "autodoc", "-y", "--author", "Ada", "-m", "numpy"))

	cmds := runner.Commands()
	require.Len(t, cmds, 5)
	assert.True(t, strings.HasPrefix(cmds[0], "sphinx-quickstart -q --sep --dot=_ --project mypkg --author Ada"), cmds[0])
	assert.Equal(t, []string{"sphinx-apidoc -f -o source mypkg -e -M", "make clean", "make html", "mkdocs build"}, cmds[1:])
	assert.Equal(t, project, runner.Calls()[0].Dir)
	assert.Equal(t, home, runner.Calls()[4].Dir)

	conf, err := os.ReadFile(filepath.Join(project, "source", "conf.py"))
	require.NoError(t, err)
	assert.Contains(t, string(conf), "html_theme = 'sphinx_rtd_theme'")
	assert.Contains(t, string(conf), `autodoc_mock_imports = ["numpy"]`)

	index, err := os.ReadFile(filepath.Join(project, "source", "index.rst"))
	require.NoError(t, err)
	assert.Contains(t, string(index), "   mypkg\n")
	assert.Contains(t, string(index), ":maxdepth: 6")

	page, err := os.ReadFile(filepath.Join(project, "source", "mypkg.core.rst"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(page), "``core``\n========\n"))
	assert.NoFileExists(t, filepath.Join(project, "source", "modules.rst"))

	homeIndex, err := os.ReadFile(filepath.Join(home, "docs", "index.md"))
	require.NoError(t, err)
	assert.Contains(t, string(homeIndex), "* [Mypkg](/mypkg/) - [Project description to write]")
	assert.Contains(t, out.String(), "mypkg built")
}

func TestAutodoc_DeclinedAndOverwrite(t *testing.T) {
	_, project := autodocProject(t)
	runner := fakeTools(t)

	g, _ := newGlobal(t, runner, "n")
	require.NoError(t, run(t, g, "-C", project, "autodoc"))
	assert.Empty(t, runner.Calls())
	assert.Equal(t, []string{"Do you want to generate the documentation for \"mypkg\"? [y/n] : "},
		g.Prompter.(*prompt.Scripted).Asked())

	require.NoError(t, os.MkdirAll(filepath.Join(project, "source"), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(project, "source", "conf.py"), []byte("old"), 0o600))

	g, _ = newGlobal(t, runner, "y", "n")
	require.NoError(t, run(t, g, "-C", project, "autodoc"))
	assert.Empty(t, runner.Calls())
	assert.FileExists(t, filepath.Join(project, "source", "conf.py"), "declining the overwrite keeps the sources")

	g, _ = newGlobal(t, runner, "y", "y")
	require.NoError(t, run(t, g, "-C", project, "autodoc", "--author", "Ada"))
	conf, err := os.ReadFile(filepath.Join(project, "source", "conf.py"))
	require.NoError(t, err)
	assert.NotEqual(t, "old", string(conf))
}

func TestAutodoc_ApidocFailureCleansUp(t *testing.T) {
	_, project := autodocProject(t)
	emulate := fakeTools(t)
	runner := &toolchain.FakeRunner{OnRun: func(inv toolchain.Invocation) (toolchain.Result, error) {
		if inv.Name == "sphinx-apidoc" {
			return toolchain.Result{Stderr: "No module named mypkg"}, toolchain.ErrExecutionFailed
		}
		return emulate.OnRun(inv)
	}}
	g, out := newGlobal(t, runner)

	err := run(t, g, "-C", project, "autodoc", "-y", "--author", "Ada")
	require.Error(t, err)
	assert.True(t, merrors.IsCategory(err, merrors.CategoryProcess))
	assert.Contains(t, out.String(), "you should run `autodoc` from a project folder, with an importable project package")
	assert.Contains(t, out.String(), "Cleaning...")
	assert.NoDirExists(t, filepath.Join(project, "source"))
	assert.NoFileExists(t, filepath.Join(project, "Makefile"))
}

func TestAutodoc_OutsideWorkspace(t *testing.T) {
	project := filepath.Join(t.TempDir(), "mypkg")
	require.NoError(t, os.MkdirAll(project, 0o750))
	runner := fakeTools(t)
	g, out := newGlobal(t, runner)

	require.NoError(t, run(t, g, "-C", project, "autodoc", "-y", "--author", "Ada"))
	assert.Contains(t, out.String(), "the project could not be added to your home documentation")
	assert.Contains(t, out.String(), "`metadocs autodoc` should be run from: path/to/documentation/new_python_project")
	assert.Len(t, runner.Calls(), 2, "nothing is built without a workspace")
}

func freePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())
	return port
}

var servingAt = regexp.MustCompile(`Serving at (http://127\.0\.0\.1:\d+)`)

func TestServe(t *testing.T) {
	dir := scaffold(t, "ws")
	html := filepath.Join(dir, "example_project", "build", "html")
	require.NoError(t, os.MkdirAll(html, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(html, "index.html"), []byte("example page"), 0o600))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "site"), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "site", "index.html"), []byte("home page"), 0o600))

	g, out := newGlobal(t, fakeTools(t))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	g.Context = ctx

	port := freePort(t)
	done := make(chan error, 1)
	go func() {
		done <- run(t, g, "-C", dir, "serve", "--host", "127.0.0.1", "-s", fmt.Sprint(port),
			"--port-policy", "increment", "--metrics")
	}()

	var base string
	require.Eventually(t, func() bool {
		m := servingAt.FindStringSubmatch(out.String())
		if m == nil {
			return false
		}
		base = m[1]
		return true
	}, 5*time.Second, 20*time.Millisecond)

	get := func(path string) string {
		resp, err := http.Get(base + path)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		return string(body)
	}
	assert.Equal(t, "example page", get("/example_project/index.html"))
	assert.Equal(t, "home page", get("/index.html"))
	assert.Contains(t, get("/_metadocs/metrics"), "metadocs_routes 1")
	assert.Equal(t, `[["/example_project","`+html+`"]]`, os.Getenv(config.EnvRoutes))

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("serve did not stop")
	}
}

func TestServe_Offline(t *testing.T) {
	dir := scaffold(t, "ws")
	page := "<head>\n" +
		`<link href="https://fonts.gstatic.com" rel="preconnect">` + "\n" +
		`<link href="https://fonts.googleapis.com/icon?family=Material+Icons" rel="stylesheet">` + "\n" +
		"</head>\n"
	tools := fakeTools(t)
	base := tools.OnRun
	tools.OnRun = func(inv toolchain.Invocation) (toolchain.Result, error) {
		if inv.String() == "mkdocs build" {
			site := filepath.Join(inv.Dir, "site")
			if err := os.MkdirAll(site, 0o750); err != nil {
				return toolchain.Result{}, err
			}
			return toolchain.Result{}, os.WriteFile(filepath.Join(site, "index.html"), []byte(page), 0o600)
		}
		return base(inv)
	}

	g, out := newGlobal(t, tools)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	g.Context = ctx

	port := freePort(t)
	done := make(chan error, 1)
	go func() {
		done <- run(t, g, "-C", dir, "serve", "--offline", "--host", "127.0.0.1", "-s", fmt.Sprint(port),
			"--port-policy", "increment")
	}()

	require.Eventually(t, func() bool {
		return servingAt.MatchString(out.String())
	}, 5*time.Second, 20*time.Millisecond)

	assert.Contains(t, tools.Commands(), "mkdocs build")
	index, err := os.ReadFile(filepath.Join(dir, "site", "index.html"))
	require.NoError(t, err)
	assert.NotContains(t, string(index), "https://fonts")
	assert.Contains(t, string(index), "material-style.css")
	assert.Equal(t, "true", os.Getenv(config.EnvOffline))

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("serve did not stop")
	}
}

func TestServe_InvalidPortPolicy(t *testing.T) {
	dir := scaffold(t, "ws")
	g, _ := newGlobal(t, fakeTools(t))

	err := run(t, g, "-C", dir, "serve", "--port-policy", "sometimes")
	require.Error(t, err)
	assert.True(t, merrors.IsCategory(err, merrors.CategoryValidation))
}
