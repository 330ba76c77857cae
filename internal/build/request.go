package build

import (
	"fmt"
	"sort"
	"strings"
	"time"

	merrors "git.home.luguber.info/inful/metadocs/internal/errors"
)

// Request selects what a build covers.
type Request struct {
	// All builds every available project.
	All bool

	// Projects names the projects to build when All is false.
	Projects []string

	// Force skips the confirmation prompt.
	Force bool

	// OnlyIndex restricts the selection to projects linked from the home index.
	OnlyIndex bool

	// Offline rewrites the home site so it needs no external fonts.
	Offline bool

	// Verbose streams the output of the external tools.
	Verbose bool

	// Strict turns project build failures into a build error.
	Strict bool
}

// Validate rejects contradictory or empty selections.
func (r Request) Validate() error {
	switch {
	case r.All && len(r.Projects) > 0:
		return merrors.InvalidInput("Can't use both the 'projects' and 'all' flags")
	case !r.All && len(r.Projects) == 0:
		return merrors.InvalidInput("You have to specify at least one project (or all)")
	}
	return nil
}

// ConfirmQuestion is what the operator is asked before a build starts.
func (r Request) ConfirmQuestion() string {
	if r.All {
		return "You're about to build the docs for ALL projects.\nContinue? (y/n) "
	}
	var b strings.Builder
	b.WriteString("You are about to build the docs for: \n")
	for _, p := range r.Projects {
		fmt.Fprintf(&b, "- %s\n", p)
	}
	b.WriteString("Continue? (y/n) ")
	return b.String()
}

// Status is the overall outcome of a build.
type Status string

const (
	StatusSuccess  Status = "success"
	StatusPartial  Status = "partial" // some projects failed, the site was built
	StatusFailed   Status = "failed"
	StatusCanceled Status = "canceled" // declined by the operator
)

// Result describes what a build did.
type Result struct {
	Status Status

	// Built lists the projects whose generator run succeeded, sorted.
	Built []string

	// Failed maps each failing project to its error.
	Failed map[string]error

	// Unknown lists requested names that are not projects of the workspace.
	Unknown []string

	// Patched counts the HTML files whose view-source link was replaced.
	Patched int

	// SiteBuilt reports whether the home site build succeeded.
	SiteBuilt bool

	// OfflinePages counts the pages rewritten for offline use.
	OfflinePages int

	Duration time.Duration
}

// FailedProjects returns the names of the failing projects, sorted.
func (r *Result) FailedProjects() []string {
	out := make([]string, 0, len(r.Failed))
	for p := range r.Failed {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}
