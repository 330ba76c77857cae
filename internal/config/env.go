package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Environment variables understood by metadocs.
const (
	EnvRoutes           = "METADOCS_ROUTES"
	EnvOffline          = "METADOCS_OFFLINE"
	EnvLogLevel         = "METADOCS_LOG_LEVEL"
	EnvPort             = "METADOCS_PORT"
	EnvMkDocs           = "METADOCS_MKDOCS"
	EnvMake             = "METADOCS_MAKE"
	EnvSphinxQuickstart = "METADOCS_SPHINX_QUICKSTART"
	EnvSphinxApidoc     = "METADOCS_SPHINX_APIDOC"
)

// loadEnvFile loads KEY=VALUE pairs from path into the process environment.
// Existing variables are not overwritten and a missing file is not an error.
func loadEnvFile(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

type lookupFunc func(string) (string, bool)

// applyEnv overlays METADOCS_* variables onto cfg.
func applyEnv(cfg *Config, lookup lookupFunc) error {
	get := func(key string) (string, bool) {
		v, ok := lookup(key)
		v = strings.TrimSpace(v)
		return v, ok && v != ""
	}

	if v, ok := get(EnvPort); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: invalid port %q", EnvPort, v)
		}
		cfg.Server.Port = port
	}
	if v, ok := get(EnvOffline); ok {
		cfg.Offline = ParseBool(v)
	}
	if v, ok := get(EnvLogLevel); ok {
		cfg.LogLevel = NormalizeLogLevel(v)
	}
	if v, ok := get(EnvMkDocs); ok {
		cfg.Tools.MkDocs = v
	}
	if v, ok := get(EnvMake); ok {
		cfg.Tools.Make = v
	}
	if v, ok := get(EnvSphinxQuickstart); ok {
		cfg.Tools.SphinxQuickstart = v
	}
	if v, ok := get(EnvSphinxApidoc); ok {
		cfg.Tools.SphinxApidoc = v
	}
	return nil
}

// ParseBool accepts the usual truthy spellings; anything else is false.
func ParseBool(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "yes", "y", "on":
		return true
	default:
		return false
	}
}

// ExportOffline publishes the offline flag for child processes.
func ExportOffline(offline bool) error {
	return os.Setenv(EnvOffline, strconv.FormatBool(offline))
}
