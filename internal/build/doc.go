// Package build runs the documentation generator for the selected
// sub-projects and then the site builder for the home site.
//
// Every entry point goes through Service: the build command, the rebuilds
// triggered by the file watcher and the final step of init and autodoc.
package build
