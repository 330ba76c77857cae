package commands

import (
	"log/slog"

	"git.home.luguber.info/inful/metadocs/internal/build"
	"git.home.luguber.info/inful/metadocs/internal/config"
	"git.home.luguber.info/inful/metadocs/internal/console"
	"git.home.luguber.info/inful/metadocs/internal/logfields"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	All       bool     `short:"A" help:"Build every project of the workspace."`
	Projects  []string `short:"p" name:"projects" help:"Project to build (repeatable)."`
	Force     bool     `short:"F" help:"Do not ask for confirmation."`
	OnlyIndex bool     `short:"o" name:"only-index" help:"Only build projects linked from the home index."`
	Offline   bool     `help:"Make the home site usable without internet access."`
	Strict    bool     `help:"Fail when a project build fails."`
}

func (b *BuildCmd) Run(g *Global, root *CLI) error {
	ctx, stop := g.signalContext()
	defer stop()

	req := build.Request{
		All:       b.All,
		Projects:  b.Projects,
		Force:     b.Force,
		OnlyIndex: b.OnlyIndex,
		Verbose:   root.Verbose,
		Strict:    b.Strict,
	}
	if err := req.Validate(); err != nil {
		return err
	}

	cfg, err := loadWorkspace(root.Dir, "metadocs build")
	if err != nil {
		return err
	}
	req.Offline = b.Offline || cfg.Offline
	if err := config.ExportOffline(req.Offline); err != nil {
		slog.Warn("Could not export offline mode", logfields.Error(err))
	}

	res, err := g.buildService(cfg).Run(ctx, req)
	printBuildResult(g.printer(), cfg, res)
	return err
}

func printBuildResult(p *console.Printer, cfg *config.Config, res *build.Result) {
	if res == nil {
		return
	}
	if res.Status == build.StatusCanceled {
		p.Info("Build cancelled")
		return
	}
	for _, name := range res.Unknown {
		p.Warning("%s is not a project of this workspace", name)
	}
	for _, name := range res.Built {
		p.Success("Built %s", name)
	}
	for _, name := range res.FailedProjects() {
		p.Fail("%s: %v", name, res.Failed[name])
	}
	if res.SiteBuilt {
		p.Success("Home site built in %s (%s)", cfg.SiteDirPath(), res.Duration.Round(1e6))
	}
}
