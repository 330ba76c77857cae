package workspace

import (
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"unicode"

	"git.home.luguber.info/inful/metadocs/internal/config"
	merrors "git.home.luguber.info/inful/metadocs/internal/errors"
	"git.home.luguber.info/inful/metadocs/internal/logfields"
)

//go:embed all:templates
var templates embed.FS

const templateRoot = "templates"

// ExampleProject is the sub-project shipped with every new workspace.
const ExampleProject = "example_project"

// ValidateName rejects workspace names that are empty or not a single path
// element.
func ValidateName(name string) error {
	if strings.TrimSpace(name) == "" || name == "." || name == ".." ||
		strings.ContainsAny(name, `/\`) {
		return merrors.InvalidInput("You should specify a valid project name")
	}
	return nil
}

// CheckTarget validates name and makes sure parent/name does not exist yet.
func CheckTarget(parent, name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	target := filepath.Join(parent, name)
	if _, err := os.Stat(target); err == nil {
		return merrors.InvalidInput("This project already exists").WithContext("path", target)
	}
	return nil
}

// DefaultSiteName derives the home site title from the workspace name.
func DefaultSiteName(name string) string {
	r := []rune(strings.ToLower(name))
	if len(r) > 0 {
		r[0] = unicode.ToUpper(r[0])
	}
	return string(r) + " - Home Documentation"
}

// ScaffoldOptions configures a new workspace.
type ScaffoldOptions struct {
	Parent   string
	Name     string
	SiteName string
}

// Scaffold creates a workspace at Parent/Name with the home index, help
// pages, mkdocs.yml and the example project. It returns the new directory.
func Scaffold(opts ScaffoldOptions) (string, error) {
	if err := CheckTarget(opts.Parent, opts.Name); err != nil {
		return "", err
	}
	target := filepath.Join(opts.Parent, opts.Name)
	if opts.SiteName == "" {
		opts.SiteName = DefaultSiteName(opts.Name)
	}

	staging := NewStaging(opts.Parent, opts.Name)
	if err := staging.Create(); err != nil {
		return "", merrors.FileSystem("create staging directory", err)
	}
	defer func() {
		if err := staging.Cleanup(); err != nil {
			slog.Warn("Staging cleanup failed", logfields.Error(err))
		}
	}()

	if err := copyTemplates(staging.Path()); err != nil {
		return "", merrors.FileSystem("copy templates", err)
	}
	if err := setSiteName(filepath.Join(staging.Path(), config.SiteConfigFile), opts.SiteName); err != nil {
		return "", merrors.FileSystem("write mkdocs.yml", err)
	}
	if err := staging.Commit(); err != nil {
		return "", merrors.FileSystem("commit workspace", err)
	}

	slog.Info("Workspace created", logfields.Path(target))
	return target, nil
}

func copyTemplates(dst string) error {
	return fs.WalkDir(templates, templateRoot, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel := strings.TrimPrefix(strings.TrimPrefix(p, templateRoot), "/")
		if rel == "" {
			return nil
		}
		target := filepath.Join(dst, filepath.FromSlash(rel))
		if d.IsDir() {
			return os.MkdirAll(target, 0o750)
		}
		data, err := templates.ReadFile(path.Clean(p))
		if err != nil {
			return err
		}
		// #nosec G306 -- scaffolded project files are meant to be edited and shared
		return os.WriteFile(target, data, 0o644)
	})
}

// setSiteName replaces the first line of mkdocs.yml with the site name.
func setSiteName(path, siteName string) error {
	data, err := os.ReadFile(path) // #nosec G304 -- path is inside the staging directory
	if err != nil {
		return err
	}
	lines := strings.SplitAfterN(string(data), "\n", 2)
	lines[0] = fmt.Sprintf("site_name: %s\n", siteName)
	// #nosec G306 -- mkdocs.yml is a user-editable project file
	return os.WriteFile(path, []byte(strings.Join(lines, "")), 0o644)
}
