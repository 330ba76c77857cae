package watcher

import (
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/metadocs/internal/workspace"
)

// Target says what a change rebuilds.
type Target int

const (
	TargetNone Target = iota
	TargetHome
	TargetProject
)

func (t Target) String() string {
	switch t {
	case TargetHome:
		return "home"
	case TargetProject:
		return "project"
	default:
		return "none"
	}
}

// Change is a classified file event.
type Change struct {
	Path    string
	Rel     string // slash separated, relative to the root
	Target  Target
	Project string // set for TargetProject
}

// Classifier maps changed paths to rebuild targets.
type Classifier struct {
	root     string
	siteDir  string
	patterns []string
	ignore   []string
}

// NewClassifier returns a classifier for the workspace at root. Paths under
// siteDir are never rebuilt from. patterns select the watched file names
// and ignore lists extra glob patterns matched against the relative path
// and the base name.
func NewClassifier(root, siteDir string, patterns, ignore []string) *Classifier {
	return &Classifier{
		root:     filepath.Clean(root),
		siteDir:  filepath.Clean(siteDir),
		patterns: patterns,
		ignore:   ignore,
	}
}

// Classify decides what a change to path rebuilds.
func (c *Classifier) Classify(path string) Change {
	ch := Change{Path: path}
	rel, err := filepath.Rel(c.root, path)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return ch
	}
	ch.Rel = filepath.ToSlash(rel)

	base := filepath.Base(path)
	if IsTempFile(base) || !c.matches(base) || c.ignored(ch.Rel, base) {
		return ch
	}
	segments := strings.Split(ch.Rel, "/")
	for _, s := range segments[:len(segments)-1] {
		if skipDirName(s) {
			return ch
		}
	}
	if c.insideSite(path) {
		return ch
	}

	switch strings.ToLower(filepath.Ext(base)) {
	case ".md", ".yml", ".yaml":
		ch.Target = TargetHome
	case ".rst":
		if len(segments) > 1 {
			ch.Target = TargetProject
			ch.Project = segments[0]
		}
	}
	return ch
}

// SkipDir reports whether a directory is left out of the watch set.
func (c *Classifier) SkipDir(path string) bool {
	if filepath.Clean(path) == c.root {
		return false
	}
	return skipDirName(filepath.Base(path)) || c.insideSite(path)
}

func (c *Classifier) matches(base string) bool {
	for _, p := range c.patterns {
		if ok, _ := filepath.Match(p, base); ok {
			return true
		}
	}
	return false
}

func (c *Classifier) ignored(rel, base string) bool {
	for _, p := range c.ignore {
		if ok, _ := filepath.Match(p, rel); ok {
			return true
		}
		if ok, _ := filepath.Match(p, base); ok {
			return true
		}
	}
	return false
}

func (c *Classifier) insideSite(path string) bool {
	rel, err := filepath.Rel(c.siteDir, path)
	return err == nil && !strings.HasPrefix(rel, "..")
}

// skipDirName covers hidden directories and generated output.
func skipDirName(name string) bool {
	return strings.HasPrefix(name, ".") || name == workspace.BuildDir || name == "__pycache__"
}

// IsTempFile reports hidden files and editor swap or backup files.
func IsTempFile(base string) bool {
	return strings.HasPrefix(base, ".") ||
		strings.HasSuffix(base, "~") ||
		strings.HasSuffix(base, ".swp") ||
		strings.HasSuffix(base, ".swx") ||
		strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#")
}
