package commands

import (
	"fmt"
	"log/slog"

	"git.home.luguber.info/inful/metadocs/internal/build"
	"git.home.luguber.info/inful/metadocs/internal/config"
	merrors "git.home.luguber.info/inful/metadocs/internal/errors"
	"git.home.luguber.info/inful/metadocs/internal/logfields"
	"git.home.luguber.info/inful/metadocs/internal/workspace"
)

// InitCmd implements the 'init' command.
type InitCmd struct {
	Name     string `arg:"" help:"Directory name of the new workspace."`
	SiteName string `name:"site-name" help:"Title of the home site (asked when omitted)."`
	Git      bool   `help:"Initialise a git repository in the new workspace."`
	NoBuild  bool   `name:"no-build" help:"Skip the initial build."`
}

func (i *InitCmd) Run(g *Global, root *CLI) error {
	ctx, stop := g.signalContext()
	defer stop()
	p := g.printer()

	if err := workspace.CheckTarget(root.Dir, i.Name); err != nil {
		return err
	}

	siteName := i.SiteName
	if siteName == "" {
		def := workspace.DefaultSiteName(i.Name)
		question := fmt.Sprintf("What is your Documentation's name (it can be changed later in mkdocs.yml)?\n[Default: %s]\n", def)
		answer, err := g.prompter().Ask(question, def)
		if err != nil {
			return merrors.InvalidInput("no site name given").WithContext("error", err.Error())
		}
		siteName = answer
	}

	dir, err := workspace.Scaffold(workspace.ScaffoldOptions{Parent: root.Dir, Name: i.Name, SiteName: siteName})
	if err != nil {
		return err
	}
	p.Success("%s/%s created as a showcase of how metadocs works", i.Name, workspace.ExampleProject)

	if i.Git {
		if err := workspace.InitGit(dir); err != nil {
			return merrors.FileSystem("git init", err)
		}
		p.Info("Initialised a git repository in ./%s", i.Name)
	}

	if !i.NoBuild {
		cfg, err := config.Load(dir)
		if err != nil {
			return merrors.ConfigInvalid(dir, err)
		}
		res, err := g.buildService(cfg).Run(ctx, build.Request{All: true, Force: true, Offline: cfg.Offline})
		switch {
		case err != nil:
			slog.Warn("Initial build failed", logfields.Dir(dir), logfields.Error(err))
			p.Warning("The initial build failed, run \"metadocs build -A\" once Sphinx and MkDocs are installed")
		case res.Status == build.StatusPartial:
			p.Warning("Some projects failed to build: %v", res.FailedProjects())
		}
	}

	p.Newline()
	p.Success("Success! You can now start your Docs in ./%s", i.Name)
	p.Command("cd ./" + i.Name)
	p.Command("metadocs serve")
	return nil
}
