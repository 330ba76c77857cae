package commands

import (
	"context"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"

	"git.home.luguber.info/inful/metadocs/internal/build"
	"git.home.luguber.info/inful/metadocs/internal/config"
	"git.home.luguber.info/inful/metadocs/internal/console"
	merrors "git.home.luguber.info/inful/metadocs/internal/errors"
	"git.home.luguber.info/inful/metadocs/internal/prompt"
	"git.home.luguber.info/inful/metadocs/internal/toolchain"
	"git.home.luguber.info/inful/metadocs/internal/workspace"
)

// Global carries the process-wide collaborators shared by every command.
// Zero fields fall back to the terminal and the real tools.
type Global struct {
	Context  context.Context
	Logger   *slog.Logger
	Out      io.Writer
	Prompter prompt.Prompter
	Runner   toolchain.Runner
}

// CLI definition & global flags.
type CLI struct {
	Dir     string           `short:"C" name:"dir" help:"Run as if metadocs was started in this directory." default:"." type:"path"`
	Verbose bool             `short:"v" help:"Enable verbose logging and stream the output of external tools."`
	Version kong.VersionFlag `name:"version" help:"Show version and exit."`

	Init       InitCmd     `cmd:"" help:"Create a new documentation workspace."`
	Build      BuildCmd    `cmd:"" help:"Build projects and the home site."`
	Serve      ServeCmd    `cmd:"" help:"Serve every build from one local server and rebuild on changes."`
	Autodoc    AutodocCmd  `cmd:"" help:"Generate the Sphinx documentation of the project in the current directory."`
	Clean      CleanCmd    `cmd:"" help:"Remove the generated Sphinx layout of the current project."`
	Projects   ProjectsCmd `cmd:"" help:"List the projects of the workspace."`
	VersionCmd VersionCmd  `cmd:"" name:"version" help:"Print the version."`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply(g *Global) error {
	level := LogLevel(config.NormalizeLogLevel(os.Getenv(config.EnvLogLevel)))
	if c.Verbose {
		level = log.DebugLevel
	}
	logger := slog.New(NewLogHandler(os.Stderr, level))
	slog.SetDefault(logger)
	if g != nil {
		g.Logger = logger
	}
	return nil
}

// NewLogHandler returns the charmbracelet handler used for slog output.
func NewLogHandler(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// LogLevel maps a configured level onto the handler's levels.
func LogLevel(l config.LogLevel) log.Level {
	switch l {
	case config.LogLevelDebug:
		return log.DebugLevel
	case config.LogLevelWarn:
		return log.WarnLevel
	case config.LogLevelError:
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}

// signalContext is cancelled on SIGINT or SIGTERM, or when the parent
// context set on Global is.
func (g *Global) signalContext() (context.Context, context.CancelFunc) {
	parent := context.Background()
	if g != nil && g.Context != nil {
		parent = g.Context
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

func (g *Global) printer() *console.Printer {
	return console.New(g.out())
}

func (g *Global) out() io.Writer {
	if g == nil || g.Out == nil {
		return os.Stdout
	}
	return g.Out
}

func (g *Global) prompter() prompt.Prompter {
	if g == nil || g.Prompter == nil {
		return prompt.NewTerminal()
	}
	return g.Prompter
}

func (g *Global) runner() toolchain.Runner {
	if g == nil || g.Runner == nil {
		return &toolchain.ExecRunner{}
	}
	return g.Runner
}

func (g *Global) tools(cfg *config.Config) *toolchain.Tools {
	return toolchain.New(g.runner(), cfg.Tools)
}

func (g *Global) buildService(cfg *config.Config) *build.Service {
	return build.NewService(cfg, g.tools(cfg)).
		WithPrompter(g.prompter()).
		WithStream(g.out())
}

// loadWorkspace loads the configuration of the workspace at dir. Commands
// that need a home site fail with directory suggestions when there is none.
func loadWorkspace(dir, command string) (*config.Config, error) {
	cfg, err := config.Load(dir)
	if err != nil {
		return nil, merrors.ConfigInvalid(dir, err)
	}
	if !workspace.IsWorkspace(cfg.Root) {
		return nil, merrors.WrongDirectory(command, cfg.SiteConfigPath(), fs.ErrNotExist,
			workspace.SuggestLocations(cfg.Root))
	}
	return cfg, nil
}
