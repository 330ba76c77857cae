package commands

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"git.home.luguber.info/inful/metadocs/internal/console"
	merrors "git.home.luguber.info/inful/metadocs/internal/errors"
	"git.home.luguber.info/inful/metadocs/internal/homeindex"
	"git.home.luguber.info/inful/metadocs/internal/logfields"
	"git.home.luguber.info/inful/metadocs/internal/workspace"
)

// ProjectsCmd implements the 'projects' command.
type ProjectsCmd struct{}

func (c *ProjectsCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadWorkspace(root.Dir, "metadocs projects")
	if err != nil {
		return err
	}

	doc, err := os.ReadFile(cfg.HomeIndexPath())
	if err != nil {
		slog.Warn("Home index unreadable", logfields.Path(cfg.HomeIndexPath()), logfields.Error(err))
	}
	descriptions := map[string]string{}
	for _, e := range homeindex.Entries(doc) {
		descriptions[e.Slug] = e.Description
	}

	infos, err := workspace.Inventory(cfg.Root, homeindex.ListedProjects(doc))
	if err != nil {
		return merrors.FileSystem("list projects", err)
	}

	p := g.printer()
	p.Header("%s", cfg.Site.SiteName)
	if len(infos) == 0 {
		p.Info("No projects yet, run \"metadocs autodoc\" from a project folder")
		return nil
	}
	width := 0
	for _, info := range infos {
		width = max(width, len(info.Name))
	}
	for _, info := range infos {
		line := fmt.Sprintf("%-*s  %s", width, info.Name, projectState(info))
		if info.Title != "" {
			line += "  " + info.Title
		}
		p.Info("%s", line)
		if d := descriptions[info.Name]; d != "" && d != homeindex.DescriptionPlaceholder {
			p.Detail("%s", d)
		}
	}
	return nil
}

func projectState(info workspace.ProjectInfo) string {
	var flags []string
	if !info.Source {
		flags = append(flags, console.StyleWarning.Render("no source"))
	}
	if info.Listed {
		flags = append(flags, "listed")
	} else {
		flags = append(flags, console.StyleDim.Render("unlisted"))
	}
	if info.Built {
		flags = append(flags, console.StyleSuccess.Render("built"))
	} else {
		flags = append(flags, console.StyleDim.Render("not built"))
	}
	return "[" + strings.Join(flags, ", ") + "]"
}
