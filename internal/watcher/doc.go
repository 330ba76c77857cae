// Package watcher rebuilds documentation when workspace sources change.
//
// Markdown and YAML changes rebuild the home site; reStructuredText changes
// rebuild the project owning the file, i.e. the first path segment below the
// workspace root. The route table is refreshed on every accepted event.
// Rebuilds run one at a time inside the event loop.
package watcher
