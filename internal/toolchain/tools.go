package toolchain

import (
	"context"
	"fmt"
	"io"
	"runtime"

	"git.home.luguber.info/inful/metadocs/internal/config"
)

// Tools knows how to invoke each external tool.
type Tools struct {
	runner Runner
	names  config.ToolsConfig
}

// New returns Tools running through r with the configured binary names.
func New(r Runner, names config.ToolsConfig) *Tools {
	return &Tools{runner: r, names: names}
}

// Runner exposes the underlying runner.
func (t *Tools) Runner() Runner { return t.runner }

// BuildProject runs "make clean" then "make html" in the project directory.
func (t *Tools) BuildProject(ctx context.Context, dir string) error {
	for _, target := range []string{"clean", "html"} {
		inv := Invocation{Dir: dir, Name: t.names.Make, Args: []string{target}}
		if _, err := t.runner.Run(ctx, inv); err != nil {
			return err
		}
	}
	return nil
}

// BuildSite runs "mkdocs build" in the workspace root.
func (t *Tools) BuildSite(ctx context.Context, root string) error {
	_, err := t.runner.Run(ctx, Invocation{Dir: root, Name: t.names.MkDocs, Args: []string{"build"}})
	return err
}

// Apidoc generates one RST page per module of project into source/.
func (t *Tools) Apidoc(ctx context.Context, dir, project string) error {
	inv := Invocation{
		Dir:  dir,
		Name: t.names.SphinxApidoc,
		Args: []string{"-f", "-o", "source", project, "-e", "-M"},
	}
	_, err := t.runner.Run(ctx, inv)
	return err
}

// QuickstartOptions are the answers given to sphinx-quickstart.
type QuickstartOptions struct {
	Project string
	Author  string
	Release string
	Windows bool
}

// DefaultQuickstartOptions fills the platform dependent answers.
func DefaultQuickstartOptions(project, author string) QuickstartOptions {
	return QuickstartOptions{
		Project: project,
		Author:  author,
		Windows: runtime.GOOS == "windows",
	}
}

// quickstartAnswer pairs a wizard question with the flag answering it.
// Questions without an entry keep the wizard default.
type quickstartAnswer struct {
	question string
	args     func(QuickstartOptions) []string
}

func fixed(args ...string) func(QuickstartOptions) []string {
	return func(QuickstartOptions) []string { return args }
}

var quickstartAnswers = []quickstartAnswer{
	{"Separate source and build directories", fixed("--sep")},
	{"Name prefix for templates and static dir", fixed("--dot=_")},
	{"Project name", func(o QuickstartOptions) []string { return []string{"--project", o.Project} }},
	{"Author name(s)", func(o QuickstartOptions) []string { return []string{"--author", o.Author} }},
	{"Project release", func(o QuickstartOptions) []string {
		if o.Release == "" {
			return nil
		}
		return []string{"--release", o.Release}
	}},
	{"Source file suffix", fixed("--suffix=.rst")},
	{"Name of your master document", fixed("--master=index")},
	{"autodoc: automatically insert docstrings", fixed("--ext-autodoc")},
	{"viewcode: include links to the source code", fixed("--ext-viewcode")},
	{"Create Makefile", fixed("--makefile")},
	{"Create Windows command file", func(o QuickstartOptions) []string {
		if o.Windows {
			return []string{"--batchfile"}
		}
		return []string{"--no-batchfile"}
	}},
}

// QuickstartArgs renders the non-interactive sphinx-quickstart command line.
func QuickstartArgs(o QuickstartOptions) []string {
	args := []string{"-q"}
	for _, a := range quickstartAnswers {
		args = append(args, a.args(o)...)
	}
	return append(args, ".")
}

// Quickstart scaffolds a Sphinx project in dir.
func (t *Tools) Quickstart(ctx context.Context, dir string, o QuickstartOptions) error {
	if o.Project == "" || o.Author == "" {
		return fmt.Errorf("sphinx-quickstart needs a project and an author")
	}
	_, err := t.runner.Run(ctx, Invocation{Dir: dir, Name: t.names.SphinxQuickstart, Args: QuickstartArgs(o)})
	return err
}

// Streaming returns Tools whose exec runner also copies output to w. Other
// runners are returned unchanged.
func (t *Tools) Streaming(w io.Writer) *Tools {
	if r, ok := t.runner.(*ExecRunner); ok && r.Stream == nil && w != nil {
		return &Tools{runner: &ExecRunner{Stream: w}, names: t.names}
	}
	return t
}
