package errors

import "fmt"

// Convenience functions for common error patterns

// Operator input errors

func InvalidInput(message string) *MetadocsError {
	return New(CategoryValidation, SeverityFatal, message)
}

func ValidationFailed(field, reason string) *MetadocsError {
	return New(CategoryValidation, SeverityFatal, reason).
		WithContext("field", field)
}

// Config errors

func ConfigInvalid(path string, cause error) *MetadocsError {
	return Wrap(cause, CategoryConfig, SeverityFatal, "invalid configuration").
		WithContext("path", path)
}

// Filesystem errors

// NotFound reports a missing workspace file. Suggestions are the directories
// the command was more likely meant to run in.
func NotFound(path string, cause error, suggestions []string) *MetadocsError {
	e := Wrap(cause, CategoryFileSystem, SeverityFatal, "file not found").
		WithContext("path", path)
	if len(suggestions) > 0 {
		e.WithContext(ContextSuggestions, suggestions)
	}
	return e
}

// WrongDirectory reports a command run outside a workspace. The message
// is what the operator reads; the suggestions follow it.
func WrongDirectory(command, path string, cause error, suggestions []string) *MetadocsError {
	return NotFound(path, cause, suggestions).
		withMessage(fmt.Sprintf("Are you sure you ran %q in the right directory?", command)).
		WithContext("command", command)
}

func FileSystem(operation string, cause error) *MetadocsError {
	return Wrap(cause, CategoryFileSystem, SeverityFatal, "filesystem operation failed").
		WithContext("operation", operation)
}

// External tools

func ProcessFailed(command string, cause error) *MetadocsError {
	return Wrap(cause, CategoryProcess, SeverityError, "external command failed").
		WithContext("command", command)
}

func BuildFailed(stage string, cause error) *MetadocsError {
	return Wrap(cause, CategoryBuild, SeverityFatal, "build failed").
		WithContext("stage", stage)
}

// Network

func PortUnavailable(port int, cause error) *MetadocsError {
	return WrapRetryable(cause, CategoryNetwork, SeverityFatal, "could not bind server port").
		WithContext("port", port)
}

// Internal errors

func InternalError(message string, cause error) *MetadocsError {
	return Wrap(cause, CategoryInternal, SeverityFatal, message)
}

// ContextSuggestions is the context key holding []string directory suggestions.
const ContextSuggestions = "suggestions"
