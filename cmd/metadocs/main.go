// Command metadocs builds and serves a home documentation site that links
// the Sphinx documentation of several Python projects.
package main

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/metadocs/cmd/metadocs/commands"
	merrors "git.home.luguber.info/inful/metadocs/internal/errors"
	"git.home.luguber.info/inful/metadocs/internal/version"
)

func main() {
	cli := &commands.CLI{}
	g := &commands.Global{}

	parser := kong.Must(cli,
		kong.Name("metadocs"),
		kong.Description("Build and serve MkDocs home documentation linking Sphinx projects."),
		kong.UsageOnError(),
		kong.Vars{"version": version.Version},
		kong.Bind(g),
	)

	ctx, err := parser.Parse(os.Args[1:])
	parser.FatalIfErrorf(err)

	if err := ctx.Run(g, cli); err != nil {
		merrors.NewCLIErrorAdapter(cli.Verbose, slog.Default()).HandleError(err)
	}
}
