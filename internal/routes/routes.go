// Package routes maps URL prefixes to sub-project build directories.
//
// A table is derived from the home index, handed to child processes through
// the METADOCS_ROUTES environment variable, and consulted by the preview
// server on every request.
package routes

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

// HTMLDir is the generator output directory relative to a project.
const HTMLDir = "build/html"

// Route maps a URL prefix to a directory.
type Route struct {
	Prefix string
	Dir    string
}

// Table is an ordered list of routes; the first matching route wins.
type Table []Route

// MarshalJSON encodes the route as a two-element array.
func (r Route) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]string{r.Prefix, r.Dir})
}

// UnmarshalJSON accepts a two-element array. An empty array decodes to the
// zero route, which Clean drops.
func (r *Route) UnmarshalJSON(data []byte) error {
	var pair []string
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("route must be a [prefix, dir] array: %w", err)
	}
	switch len(pair) {
	case 0:
		*r = Route{}
	case 2:
		*r = Route{Prefix: pair[0], Dir: pair[1]}
	default:
		return fmt.Errorf("route must have 2 elements, got %d", len(pair))
	}
	return nil
}

// Build returns one route per slug, "/slug" to <root>/slug/build/html,
// ordered longest prefix first with ties broken alphabetically.
func Build(root string, slugs []string) (Table, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root: %w", err)
	}
	table := make(Table, 0, len(slugs))
	for _, s := range slugs {
		s = strings.Trim(s, "/")
		if s == "" {
			continue
		}
		table = append(table, Route{
			Prefix: "/" + s,
			Dir:    filepath.Join(abs, filepath.FromSlash(s), filepath.FromSlash(HTMLDir)),
		})
	}
	table.Sort()
	return table, nil
}

// Sort orders the table longest prefix first, ties alphabetical.
func (t Table) Sort() {
	sort.SliceStable(t, func(i, j int) bool {
		if len(t[i].Prefix) != len(t[j].Prefix) {
			return len(t[i].Prefix) > len(t[j].Prefix)
		}
		return t[i].Prefix < t[j].Prefix
	})
}

// Clean drops empty routes and makes every prefix start with "/".
func (t Table) Clean() Table {
	out := make(Table, 0, len(t))
	for _, r := range t {
		if r.Prefix == "" || r.Dir == "" {
			continue
		}
		if !strings.HasPrefix(r.Prefix, "/") {
			r.Prefix = "/" + r.Prefix
		}
		out = append(out, r)
	}
	return out
}

// Prefixes lists the route prefixes in table order.
func (t Table) Prefixes() []string {
	out := make([]string, len(t))
	for i, r := range t {
		out[i] = r.Prefix
	}
	return out
}

// Encode serializes the table as a JSON array of [prefix, dir] pairs.
func Encode(t Table) (string, error) {
	if t == nil {
		t = Table{}
	}
	data, err := json.Marshal(t)
	if err != nil {
		return "", fmt.Errorf("encode routes: %w", err)
	}
	return string(data), nil
}

// Decode parses an encoded table. The legacy empty form "[[]]" decodes to
// an empty table.
func Decode(s string) (Table, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Table{}, nil
	}
	var t Table
	if err := json.Unmarshal([]byte(s), &t); err != nil {
		return nil, fmt.Errorf("decode routes: %w", err)
	}
	return t.Clean(), nil
}
