package commands

import (
	"path/filepath"

	merrors "git.home.luguber.info/inful/metadocs/internal/errors"
	"git.home.luguber.info/inful/metadocs/internal/workspace"
)

// CleanCmd implements the 'clean' command.
type CleanCmd struct{}

func (c *CleanCmd) Run(g *Global, root *CLI) error {
	p := g.printer()
	removed, err := workspace.Clean(root.Dir)
	if err != nil {
		return merrors.FileSystem("clean", err)
	}
	if len(removed) == 0 {
		p.Info("Nothing to clean in %s", filepath.Base(root.Dir))
		return nil
	}
	for _, r := range removed {
		p.Success("Removed %s", r)
	}
	return nil
}
