package commands

import (
	"fmt"

	"git.home.luguber.info/inful/metadocs/internal/version"
)

// VersionCmd implements the 'version' command.
type VersionCmd struct{}

func (v *VersionCmd) Run(g *Global, root *CLI) error {
	banner := version.String()
	if root.Verbose {
		banner = version.Long()
	}
	_, err := fmt.Fprintln(g.out(), banner)
	return err
}
