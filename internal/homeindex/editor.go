package homeindex

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DescriptionPlaceholder is written for newly added projects.
const DescriptionPlaceholder = "[Project description to write]"

// Title turns a project name such as "data_tools" into "Data Tools".
func Title(name string) string {
	caser := cases.Title(language.English)
	words := make([]string, 0, 4)
	for _, w := range strings.Split(name, "_") {
		if w == "" {
			continue
		}
		words = append(words, caser.String(w))
	}
	return strings.Join(words, " ")
}

// EntryLine renders the Markdown list item linking a project.
func EntryLine(name string) string {
	return fmt.Sprintf("* [%s](/%s/) - %s", Title(name), name, DescriptionPlaceholder)
}

// AddProject links name from the projects section of doc.
//
// The entry goes after the last existing entry of the section, or right
// below the marker line when the section has none. Before the first entry
// the section ends at any heading that is not a deeper sub-heading directly
// introducing entries. It reports false and returns doc unchanged when the
// marker is missing or the project is already linked.
func AddProject(doc []byte, name string) ([]byte, bool) {
	slug := Slug(name)
	if slug == "" {
		return doc, false
	}

	lines := splitLines(doc)
	marker := -1
	for i, line := range lines {
		if strings.Contains(line, Marker) {
			marker = i
			break
		}
	}
	if marker < 0 {
		return doc, false
	}

	markerLevel := max(headingLevel(lines[marker]), 1)
	insertAfter := marker
	found := false
	for i := marker; i < len(lines); i++ {
		line := lines[i]
		if i > marker && strings.HasPrefix(line, "#") {
			if found || headingLevel(line) <= markerLevel || !entryFollows(lines, i) {
				break
			}
			continue
		}
		target, ok := linkTarget(line)
		if !ok {
			continue
		}
		if Slug(target) == slug {
			return doc, false
		}
		if Slug(target) != "" {
			found = true
			if i > marker {
				insertAfter = i
			}
		}
	}

	if !strings.HasSuffix(lines[insertAfter], "\n") {
		lines[insertAfter] += "\n"
	}
	entry := EntryLine(slug) + "\n"

	out := make([]string, 0, len(lines)+1)
	out = append(out, lines[:insertAfter+1]...)
	out = append(out, entry)
	out = append(out, lines[insertAfter+1:]...)
	return []byte(strings.Join(out, "")), true
}

func headingLevel(line string) int {
	return len(line) - len(strings.TrimLeft(line, "#"))
}

// entryFollows reports whether the first non-blank line after lines[i]
// links a project.
func entryFollows(lines []string, i int) bool {
	for _, line := range lines[i+1:] {
		if strings.TrimSpace(line) == "" {
			continue
		}
		target, ok := linkTarget(line)
		return ok && Slug(target) != ""
	}
	return false
}

// AddProjectFile applies AddProject to the index file at path.
func AddProjectFile(path, name string) (bool, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- home index lives in the operator's workspace
	if err != nil {
		return false, fmt.Errorf("read home index: %w", err)
	}
	updated, added := AddProject(data, name)
	if !added {
		return false, nil
	}
	info, err := os.Stat(path)
	if err != nil {
		return false, fmt.Errorf("stat home index: %w", err)
	}
	if err := os.WriteFile(path, updated, info.Mode().Perm()); err != nil {
		return false, fmt.Errorf("write home index: %w", err)
	}
	return true, nil
}
