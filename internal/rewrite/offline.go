package rewrite

import (
	_ "embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

//go:embed assets/material-style.css
var materialStyle []byte

const (
	// RemoteFontMarker identifies lines loading web fonts.
	RemoteFontMarker = "https://fonts"
	// OfflineStylesheet replaces the icon font stylesheet link.
	OfflineStylesheet = `<link rel="stylesheet" href=/assets/stylesheets/material-style.css>`
	// OfflineStylesheetPath is where the local stylesheet is installed, relative to the site.
	OfflineStylesheetPath = "assets/stylesheets/material-style.css"
)

// OfflineIndex drops every line referencing remote fonts. The icon font
// line is replaced by a link to the local stylesheet.
func OfflineIndex(content []byte) ([]byte, bool) {
	lines := strings.SplitAfter(string(content), "\n")
	var b strings.Builder
	b.Grow(len(content))
	changed := false
	for _, l := range lines {
		if !strings.Contains(l, RemoteFontMarker) {
			b.WriteString(l)
			continue
		}
		changed = true
		if strings.Contains(l, "icon") {
			b.WriteString(OfflineStylesheet)
			if strings.HasSuffix(l, "\n") {
				b.WriteByte('\n')
			}
		}
	}
	if !changed {
		return content, false
	}
	return []byte(b.String()), true
}

// MakeOffline installs the local stylesheet under siteDir when missing and
// applies OfflineIndex to every index.html below siteDir. It returns the
// number of pages changed.
func MakeOffline(siteDir string) (int, error) {
	if _, err := os.Stat(siteDir); err != nil {
		return 0, fmt.Errorf("make site offline: %w", err)
	}
	if err := installStylesheet(siteDir); err != nil {
		return 0, err
	}

	changed := 0
	err := filepath.WalkDir(siteDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || d.Name() != "index.html" {
			return nil
		}
		ok, err := rewriteFile(path, OfflineIndex)
		if err != nil {
			return err
		}
		if ok {
			changed++
		}
		return nil
	})
	if err != nil {
		return changed, fmt.Errorf("make site offline: %w", err)
	}
	return changed, nil
}

func installStylesheet(siteDir string) error {
	target := filepath.Join(siteDir, filepath.FromSlash(OfflineStylesheetPath))
	if _, err := os.Stat(target); err == nil {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o750); err != nil {
		return fmt.Errorf("create stylesheet dir: %w", err)
	}
	// #nosec G306 -- served static asset
	if err := os.WriteFile(target, materialStyle, 0o644); err != nil {
		return fmt.Errorf("install offline stylesheet: %w", err)
	}
	return nil
}
