package routes

import (
	"path"
	"path/filepath"
	"strings"
)

// Resolve maps a request path to a filesystem path.
//
// Everything from the first "?" is dropped. The first route whose prefix is
// a literal prefix of the path wins: the prefix is stripped and the rest is
// resolved under the route directory. Unmatched paths resolve under homeDir.
// The remainder is cleaned as a rooted slash path so ".." cannot climb out
// of the directory, and the result has no doubled or trailing separator.
func Resolve(requestPath string, table Table, homeDir string) string {
	requestPath = stripQuery(requestPath)
	if r, ok := Match(requestPath, table); ok {
		return join(r.Dir, requestPath[len(r.Prefix):])
	}
	return join(homeDir, requestPath)
}

// Match returns the first route whose prefix starts requestPath. The empty
// path and "/" never match: they always belong to the home site.
func Match(requestPath string, table Table) (Route, bool) {
	requestPath = stripQuery(requestPath)
	if requestPath == "" || requestPath == "/" {
		return Route{}, false
	}
	for _, r := range table {
		if r.Prefix != "" && strings.HasPrefix(requestPath, r.Prefix) {
			return r, true
		}
	}
	return Route{}, false
}

func stripQuery(p string) string {
	if i := strings.IndexByte(p, '?'); i >= 0 {
		return p[:i]
	}
	return p
}

func join(base, rest string) string {
	cleaned := path.Clean("/" + rest)
	base = filepath.Clean(base)
	if cleaned == "/" {
		return base
	}
	return filepath.Join(base, filepath.FromSlash(cleaned[1:]))
}
