package workspace

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/net/html"

	"git.home.luguber.info/inful/metadocs/internal/config"
)

const (
	SourceDir = "source"
	BuildDir  = "build"
)

// Generated Sphinx artifacts removed by Clean, relative to a project.
var cleanDirs = []string{SourceDir, BuildDir}
var cleanFiles = []string{"Makefile", "make.bat"}

// Projects returns the sub-directories of root that contain a source/
// entry, sorted.
func Projects(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("read workspace: %w", err)
	}
	var out []string
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if _, err := os.Stat(filepath.Join(root, e.Name(), SourceDir)); err == nil {
			out = append(out, e.Name())
		}
	}
	sort.Strings(out)
	return out, nil
}

// ProjectDir is the directory of a sub-project.
func ProjectDir(root, project string) string {
	return filepath.Join(root, project)
}

// HTMLDir is where the generator writes a project's pages.
func HTMLDir(root, project string) string {
	return filepath.Join(ProjectDir(root, project), BuildDir, "html")
}

// HasSphinxProject reports whether dir already holds a Sphinx configuration.
func HasSphinxProject(dir string) bool {
	for _, p := range []string{filepath.Join(dir, SourceDir, "conf.py"), filepath.Join(dir, "conf.py")} {
		if _, err := os.Stat(p); err == nil {
			return true
		}
	}
	return false
}

// Clean removes the generated Sphinx layout of the project in dir. Missing
// entries are ignored. It returns the entries actually removed.
func Clean(dir string) ([]string, error) {
	var removed []string
	for _, d := range cleanDirs {
		p := filepath.Join(dir, d)
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := os.RemoveAll(p); err != nil {
			return removed, fmt.Errorf("remove %s: %w", p, err)
		}
		removed = append(removed, d)
	}
	for _, f := range cleanFiles {
		err := os.Remove(filepath.Join(dir, f))
		switch {
		case err == nil:
			removed = append(removed, f)
		case errors.Is(err, fs.ErrNotExist):
		default:
			return removed, fmt.Errorf("remove %s: %w", f, err)
		}
	}
	return removed, nil
}

// SuggestLocations lists "./name" for each sub-directory of dir holding an
// mkdocs.yml, i.e. the workspaces the operator probably meant.
func SuggestLocations(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var out []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if _, err := os.Stat(filepath.Join(dir, e.Name(), config.SiteConfigFile)); err == nil {
			out = append(out, "./"+e.Name())
		}
	}
	sort.Strings(out)
	return out
}

// IsWorkspace reports whether dir has an mkdocs.yml.
func IsWorkspace(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, config.SiteConfigFile))
	return err == nil
}

// PageTitle returns the <title> text of an HTML file.
func PageTitle(path string) (string, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return "", err
	}
	defer func() {
		_ = f.Close()
	}()

	doc, err := html.Parse(f)
	if err != nil {
		return "", fmt.Errorf("parse %s: %w", path, err)
	}

	var find func(*html.Node) string
	find = func(n *html.Node) string {
		if n.Type == html.ElementNode && n.Data == "title" {
			var b strings.Builder
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				if c.Type == html.TextNode {
					b.WriteString(c.Data)
				}
			}
			return strings.Join(strings.Fields(b.String()), " ")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if t := find(c); t != "" {
				return t
			}
		}
		return ""
	}
	return find(doc), nil
}

// ProjectInfo summarises one project of the workspace.
type ProjectInfo struct {
	Name   string
	Source bool // has a source/ directory
	Listed bool // linked from the home index
	Built  bool // build/html/index.html exists
	Title  string
}

// Inventory merges the projects found on disk with the ones linked from the
// home index, sorted by name.
func Inventory(root string, listed map[string]struct{}) ([]ProjectInfo, error) {
	onDisk, err := Projects(root)
	if err != nil {
		return nil, err
	}

	byName := make(map[string]*ProjectInfo)
	for _, p := range onDisk {
		byName[p] = &ProjectInfo{Name: p, Source: true}
	}
	for p := range listed {
		if _, ok := byName[p]; !ok {
			byName[p] = &ProjectInfo{Name: p}
		}
		byName[p].Listed = true
	}

	out := make([]ProjectInfo, 0, len(byName))
	for _, info := range byName {
		index := filepath.Join(HTMLDir(root, info.Name), "index.html")
		if title, err := PageTitle(index); err == nil {
			info.Built = true
			info.Title = title
		}
		out = append(out, *info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
