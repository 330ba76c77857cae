// Package rewrite patches files produced by the documentation toolchain:
// generated HTML pages, the Sphinx configuration and RST indexes.
package rewrite

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	// ViewSourceMarker starts the generator's "view page source" link.
	ViewSourceMarker = `<a href="_sources`
	// HomeLink replaces the view source link.
	HomeLink = `<h3><a href="/">Home</a></h3>`
)

// ReplaceViewSource swaps the first line containing ViewSourceMarker for
// HomeLink, keeping the line terminator.
func ReplaceViewSource(content []byte) ([]byte, bool) {
	return replaceFirstLine(content, []byte(ViewSourceMarker), []byte(HomeLink))
}

// OverwriteViewSource applies ReplaceViewSource to every top-level HTML file
// of htmlDir and returns the number of files changed. A missing directory
// is not an error: the project may simply not have been built.
func OverwriteViewSource(htmlDir string) (int, error) {
	entries, err := os.ReadDir(htmlDir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("read %s: %w", htmlDir, err)
	}

	changed := 0
	for _, e := range entries {
		if e.IsDir() || !strings.Contains(filepath.Ext(e.Name()), "html") {
			continue
		}
		ok, err := rewriteFile(filepath.Join(htmlDir, e.Name()), ReplaceViewSource)
		if err != nil {
			return changed, err
		}
		if ok {
			changed++
		}
	}
	return changed, nil
}

func replaceFirstLine(content, marker, replacement []byte) ([]byte, bool) {
	idx := bytes.Index(content, marker)
	if idx < 0 {
		return content, false
	}
	start := bytes.LastIndexByte(content[:idx], '\n') + 1
	end := len(content)
	if nl := bytes.IndexByte(content[idx:], '\n'); nl >= 0 {
		end = idx + nl
	}

	out := make([]byte, 0, len(content)-(end-start)+len(replacement))
	out = append(out, content[:start]...)
	out = append(out, replacement...)
	out = append(out, content[end:]...)
	return out, true
}

// rewriteFile applies fn to the file at path and writes the result back
// when fn reports a change.
func rewriteFile(path string, fn func([]byte) ([]byte, bool)) (bool, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- paths come from walking the workspace
	if err != nil {
		return false, fmt.Errorf("read %s: %w", path, err)
	}
	out, changed := fn(data)
	if !changed {
		return false, nil
	}
	info, err := os.Stat(path)
	if err != nil {
		return false, fmt.Errorf("stat %s: %w", path, err)
	}
	if err := os.WriteFile(path, out, info.Mode().Perm()); err != nil {
		return false, fmt.Errorf("write %s: %w", path, err)
	}
	return true, nil
}
