package errors

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
)

// CLIErrorAdapter handles error presentation and exit code determination for CLI applications.
type CLIErrorAdapter struct {
	verbose bool
	logger  *slog.Logger
	out     io.Writer
	exit    func(int)
}

// NewCLIErrorAdapter creates a new CLI error adapter.
func NewCLIErrorAdapter(verbose bool, logger *slog.Logger) *CLIErrorAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CLIErrorAdapter{
		verbose: verbose,
		logger:  logger,
		out:     os.Stderr,
		exit:    os.Exit,
	}
}

// ExitCodeFor determines the appropriate exit code for an error.
func (a *CLIErrorAdapter) ExitCodeFor(err error) int {
	if err == nil {
		return 0
	}

	if me, ok := As(err); ok {
		return a.exitCodeFromMetadocs(me)
	}

	return 1
}

// exitCodeFromMetadocs maps MetadocsError to exit codes.
func (a *CLIErrorAdapter) exitCodeFromMetadocs(err *MetadocsError) int {
	switch err.Category {
	case CategoryValidation:
		return 2 // Invalid usage
	case CategoryConfig:
		return 7 // Configuration error
	case CategoryNetwork:
		return 8 // Port / network error
	case CategoryBuild, CategoryProcess, CategoryFileSystem:
		return 11 // Build error
	case CategoryRuntime:
		return 12 // Runtime error
	case CategoryInternal:
		return 10 // Internal error
	default:
		return 1 // General error
	}
}

// FormatError formats an error for user-friendly display.
func (a *CLIErrorAdapter) FormatError(err error) string {
	if err == nil {
		return ""
	}

	if me, ok := As(err); ok {
		return a.formatMetadocs(me)
	}

	return fmt.Sprintf("Error: %v", err)
}

// formatMetadocs formats a MetadocsError for display.
func (a *CLIErrorAdapter) formatMetadocs(err *MetadocsError) string {
	suggestions, _ := err.Context[ContextSuggestions].([]string)

	var msg string
	switch {
	case a.verbose:
		msg = err.Error()
	case err.Category == CategoryValidation || err.Category == CategoryConfig:
		msg = err.Message
	case err.Context["command"] != nil && err.Category == CategoryFileSystem:
		msg = err.Message
	case err.Cause != nil:
		msg = fmt.Sprintf("%s: %s: %v", err.Category, err.Message, err.Cause)
	default:
		msg = fmt.Sprintf("%s: %s", err.Category, err.Message)
	}

	for _, s := range suggestions {
		msg += "\nTry in " + s
	}
	if hint, ok := err.Context["hint"].(string); ok && hint != "" {
		msg += "\n" + hint
	}
	return msg
}

// HandleError processes an error and exits the program with appropriate code.
func (a *CLIErrorAdapter) HandleError(err error) {
	if err == nil {
		return
	}

	exitCode := a.ExitCodeFor(err)
	message := a.FormatError(err)

	if a.shouldLog(err) {
		a.logError(err)
	}

	_, _ = fmt.Fprintf(a.out, "%s\n", message)
	a.exit(exitCode)
}

// shouldLog determines if an error should be logged.
func (a *CLIErrorAdapter) shouldLog(err error) bool {
	if a.verbose {
		return true
	}

	if me, ok := As(err); ok {
		return me.Category == CategoryInternal ||
			me.Category == CategoryRuntime
	}

	return true
}

// logError logs an error with appropriate level and context.
func (a *CLIErrorAdapter) logError(err error) {
	if me, ok := As(err); ok {
		level := a.slogLevelFromSeverity(me.Severity)
		attrs := []slog.Attr{
			slog.String("category", string(me.Category)),
		}
		if me.Retryable {
			attrs = append(attrs, slog.Bool("retryable", true))
		}
		for k, v := range me.Context {
			attrs = append(attrs, slog.Any(k, v))
		}

		a.logger.LogAttrs(context.Background(), level, me.Message, attrs...)
		return
	}

	a.logger.Error("Unclassified error", "error", err)
}

// slogLevelFromSeverity converts MetadocsError severity to slog level.
func (a *CLIErrorAdapter) slogLevelFromSeverity(severity ErrorSeverity) slog.Level {
	switch severity {
	case SeverityInfo:
		return slog.LevelInfo
	case SeverityWarning:
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}
