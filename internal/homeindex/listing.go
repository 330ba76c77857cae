// Package homeindex reads and edits the home documentation index, the
// Markdown page whose "Projects" section links every sub-project.
package homeindex

import (
	"bytes"
	"fmt"
	"os"
	"sort"
	"strings"
)

// Marker identifies the line opening the projects section. Any heading
// level matches since the check is a substring test.
const Marker = "# Projects"

// ListedProjects returns the slugs linked from the projects section of doc.
//
// The section starts at the first line containing Marker. Every line in it
// holding "](" followed by ")" contributes the text in between. Once at
// least one project was found, the next line starting with "#" ends the
// section, so a sub-heading right below the marker is allowed. Links on the
// closing heading line belong to the next section and are not listed.
func ListedProjects(doc []byte) map[string]struct{} {
	listed := make(map[string]struct{})
	inSection := false

	for _, line := range splitLines(doc) {
		if !inSection {
			if !strings.Contains(line, Marker) {
				continue
			}
			inSection = true
		} else if len(listed) > 0 && strings.HasPrefix(line, "#") {
			break
		}

		target, ok := linkTarget(line)
		if !ok {
			continue
		}
		if slug := Slug(target); slug != "" {
			listed[slug] = struct{}{}
		}
	}
	return listed
}

// ListedProjectsFile reads the index at path and lists its projects.
func ListedProjectsFile(path string) (map[string]struct{}, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- home index lives in the operator's workspace
	if err != nil {
		return nil, fmt.Errorf("read home index: %w", err)
	}
	return ListedProjects(data), nil
}

// Sorted returns the slugs of a listing in lexical order.
func Sorted(listed map[string]struct{}) []string {
	out := make([]string, 0, len(listed))
	for s := range listed {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// Slug normalises a link target such as "/foo/" into "foo".
func Slug(target string) string {
	return strings.Trim(strings.TrimSpace(target), "/")
}

// linkTarget returns the text between the first "](" and the next ")".
func linkTarget(line string) (string, bool) {
	start := strings.Index(line, "](")
	if start < 0 {
		return "", false
	}
	rest := line[start+2:]
	end := strings.Index(rest, ")")
	if end < 0 {
		return "", false
	}
	return rest[:end], true
}

// splitLines splits doc keeping the line terminators, so joining the result
// reproduces doc byte for byte.
func splitLines(doc []byte) []string {
	if len(doc) == 0 {
		return nil
	}
	parts := bytes.SplitAfter(doc, []byte("\n"))
	lines := make([]string, 0, len(parts))
	for _, p := range parts {
		if len(p) > 0 {
			lines = append(lines, string(p))
		}
	}
	return lines
}
