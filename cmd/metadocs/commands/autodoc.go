package commands

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/user"
	"path/filepath"

	"git.home.luguber.info/inful/metadocs/internal/build"
	"git.home.luguber.info/inful/metadocs/internal/config"
	merrors "git.home.luguber.info/inful/metadocs/internal/errors"
	"git.home.luguber.info/inful/metadocs/internal/homeindex"
	"git.home.luguber.info/inful/metadocs/internal/logfields"
	"git.home.luguber.info/inful/metadocs/internal/rewrite"
	"git.home.luguber.info/inful/metadocs/internal/toolchain"
	"git.home.luguber.info/inful/metadocs/internal/workspace"
)

// AutodocCmd implements the 'autodoc' command. It runs from a project
// folder placed inside a workspace.
type AutodocCmd struct {
	Mock   []string `short:"m" help:"Module to mock when Sphinx imports the package (repeatable)."`
	Yes    bool     `short:"y" help:"Answer yes to every question."`
	Author string   `help:"Author written into conf.py (defaults to the current user)."`
}

func (a *AutodocCmd) Run(g *Global, root *CLI) error {
	ctx, stop := g.signalContext()
	defer stop()
	p := g.printer()

	dir, err := filepath.Abs(root.Dir)
	if err != nil {
		return merrors.FileSystem("resolve project directory", err)
	}
	project := filepath.Base(dir)
	parent := filepath.Dir(dir)

	if !a.confirm(g, fmt.Sprintf("Do you want to generate the documentation for %q? [y/n] : ", project)) {
		return nil
	}

	if workspace.HasSphinxProject(dir) {
		if !a.confirm(g, "Force overwriting? (you will lose the current ./build/ and ./source/ folders) [y/n] : ") {
			return nil
		}
		if _, err := workspace.Clean(dir); err != nil {
			return merrors.FileSystem("clean", err)
		}
	}

	cfg, err := config.Load(parent)
	if err != nil {
		slog.Warn("Workspace configuration unreadable, using defaults", logfields.Dir(parent), logfields.Error(err))
		cfg = config.Default(parent)
	}
	tools := g.tools(cfg)
	if root.Verbose {
		tools = tools.Streaming(g.out())
	}

	if err := tools.Quickstart(ctx, dir, toolchain.DefaultQuickstartOptions(project, a.author())); err != nil {
		return merrors.ProcessFailed("sphinx-quickstart", err)
	}
	source := filepath.Join(dir, workspace.SourceDir)
	if err := rewrite.SphinxConfigFile(filepath.Join(source, "conf.py"), project, a.Mock); err != nil {
		return merrors.FileSystem("rewrite conf.py", err)
	}

	if err := tools.Apidoc(ctx, dir, project); err != nil {
		p.Fail("you should run `autodoc` from a project folder, with an importable project package")
		p.Info("Cleaning...")
		if _, cleanErr := workspace.Clean(dir); cleanErr != nil {
			slog.Warn("Clean failed", logfields.Dir(dir), logfields.Error(cleanErr))
		}
		return merrors.ProcessFailed("sphinx-apidoc", err)
	}

	if err := rewrite.AddProjectToRSTIndexFile(filepath.Join(source, "index.rst"), project); err != nil {
		return merrors.FileSystem("update index.rst", err)
	}
	n, err := rewrite.RemoveProjectNameFromTitlesDir(source)
	if err != nil {
		return merrors.FileSystem("simplify module titles", err)
	}
	slog.Debug("Module titles simplified", logfields.Dir(source), slog.Int("pages", n))
	if err := os.Remove(filepath.Join(source, "modules.rst")); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return merrors.FileSystem("remove modules.rst", err)
	}
	p.Success("Sphinx documentation of %s generated in ./%s", project, workspace.SourceDir)

	added, err := homeindex.AddProjectFile(cfg.HomeIndexPath(), project)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			p.Fail("the project could not be added to your home documentation")
			p.Info("`metadocs autodoc` should be run from: path/to/documentation/new_python_project")
			return nil
		}
		return merrors.FileSystem("update home index", err)
	}
	if added {
		p.Success("%s added to %s", project, cfg.HomeIndexPath())
	}

	svc := build.NewService(cfg, tools).WithPrompter(g.prompter()).WithStream(g.out())
	res, err := svc.Run(ctx, build.Request{Projects: []string{project}, Force: true, Offline: cfg.Offline})
	switch {
	case err != nil:
		slog.Warn("Build after autodoc failed", logfields.Project(project), logfields.Error(err))
		p.Warning("Could not build %s, run \"metadocs build -p %s\" from %s", project, project, parent)
	case res.Status == build.StatusPartial:
		p.Warning("%s failed to build: %v", project, res.Failed[project])
	default:
		p.Success("%s built", project)
	}
	return nil
}

func (a *AutodocCmd) confirm(g *Global, question string) bool {
	if a.Yes {
		return true
	}
	ok, err := g.prompter().Confirm(question)
	if err != nil {
		slog.Debug("No answer", logfields.Error(err))
		return false
	}
	return ok
}

func (a *AutodocCmd) author() string {
	if a.Author != "" {
		return a.Author
	}
	if u, err := user.Current(); err == nil {
		if u.Name != "" {
			return u.Name
		}
		if u.Username != "" {
			return u.Username
		}
	}
	return "metadocs"
}
