package config

import "strings"

// PortPolicy decides what happens once the port bind retries are exhausted.
type PortPolicy string

const (
	PortPolicyPrompt    PortPolicy = "prompt"    // ask the operator whether to try the next port
	PortPolicyIncrement PortPolicy = "increment" // move to the next port without asking
	PortPolicyFail      PortPolicy = "fail"      // give up
)

// NormalizePortPolicy canonicalizes user input returning empty string if unknown.
func NormalizePortPolicy(raw string) PortPolicy {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case string(PortPolicyPrompt):
		return PortPolicyPrompt
	case string(PortPolicyIncrement), "auto":
		return PortPolicyIncrement
	case string(PortPolicyFail):
		return PortPolicyFail
	default:
		return ""
	}
}

// LogLevel enumerates supported logging levels.
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// NormalizeLogLevel maps user input to a LogLevel, defaulting to info.
func NormalizeLogLevel(raw string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return LogLevelDebug
	case "warn", "warning":
		return LogLevelWarn
	case "error":
		return LogLevelError
	default:
		return LogLevelInfo
	}
}
