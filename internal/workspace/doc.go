// Package workspace knows the layout of a metadocs workspace: a home
// directory holding mkdocs.yml, docs/index.md and the built site/, plus one
// directory per sub-project with its Sphinx source/ and build/html/.
//
// It discovers projects, scaffolds new workspaces through a staging
// directory that is renamed into place once complete, removes generated
// Sphinx layouts, and suggests likelier workspace directories when a
// command runs in the wrong place.
package workspace
