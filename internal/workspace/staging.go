package workspace

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"git.home.luguber.info/inful/metadocs/internal/logfields"
)

// Staging is a scratch directory next to its final location. Content is
// written there and moved into place with a single rename, so a failed
// scaffold never leaves a half-written workspace behind.
type Staging struct {
	parent string
	name   string
	dir    string
}

// NewStaging prepares a staging area for parent/name.
func NewStaging(parent, name string) *Staging {
	if parent == "" {
		parent = "."
	}
	return &Staging{parent: parent, name: name}
}

// Create makes the timestamped staging directory inside parent.
func (s *Staging) Create() error {
	timestamp := time.Now().Format("20060102-150405")
	dir, err := os.MkdirTemp(s.parent, fmt.Sprintf(".metadocs-%s-%s-", s.name, timestamp))
	if err != nil {
		return fmt.Errorf("failed to create staging directory: %w", err)
	}
	s.dir = dir
	slog.Debug("Created staging directory", logfields.Path(dir))
	return nil
}

// Path returns the staging directory, empty before Create.
func (s *Staging) Path() string {
	return s.dir
}

// Target is the final location.
func (s *Staging) Target() string {
	return filepath.Join(s.parent, s.name)
}

// Commit renames the staging directory to its final location.
func (s *Staging) Commit() error {
	if s.dir == "" {
		return fmt.Errorf("staging directory not created")
	}
	if _, err := os.Stat(s.Target()); err == nil {
		return fmt.Errorf("target already exists: %s", s.Target())
	}
	if err := os.Rename(s.dir, s.Target()); err != nil {
		return fmt.Errorf("failed to move staging directory into place: %w", err)
	}
	slog.Debug("Committed staging directory", logfields.Path(s.Target()))
	s.dir = ""
	return nil
}

// Cleanup removes an uncommitted staging directory. It is a no-op after
// Commit.
func (s *Staging) Cleanup() error {
	if s.dir == "" {
		return nil
	}
	if err := os.RemoveAll(s.dir); err != nil {
		return fmt.Errorf("failed to cleanup staging directory: %w", err)
	}
	slog.Debug("Cleaned up staging directory", logfields.Path(s.dir))
	s.dir = ""
	return nil
}
