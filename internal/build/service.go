package build

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"
	"time"

	"git.home.luguber.info/inful/metadocs/internal/config"
	merrors "git.home.luguber.info/inful/metadocs/internal/errors"
	"git.home.luguber.info/inful/metadocs/internal/homeindex"
	"git.home.luguber.info/inful/metadocs/internal/logfields"
	"git.home.luguber.info/inful/metadocs/internal/prompt"
	"git.home.luguber.info/inful/metadocs/internal/rewrite"
	"git.home.luguber.info/inful/metadocs/internal/toolchain"
	"git.home.luguber.info/inful/metadocs/internal/workspace"
)

// Service builds the projects of one workspace.
type Service struct {
	cfg      *config.Config
	tools    *toolchain.Tools
	prompter prompt.Prompter
	stream   io.Writer
}

// NewService returns a service for the workspace described by cfg. It asks
// for confirmation on the terminal unless a prompter is set.
func NewService(cfg *config.Config, tools *toolchain.Tools) *Service {
	return &Service{
		cfg:      cfg,
		tools:    tools,
		prompter: prompt.NewTerminal(),
		stream:   os.Stdout,
	}
}

// WithPrompter replaces the confirmation prompter.
func (s *Service) WithPrompter(p prompt.Prompter) *Service {
	s.prompter = p
	return s
}

// WithStream sets where tool output goes in verbose builds.
func (s *Service) WithStream(w io.Writer) *Service {
	s.stream = w
	return s
}

// Run validates req, asks for confirmation and builds the selection then the
// home site.
func (s *Service) Run(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	result := &Result{Status: StatusFailed, Failed: map[string]error{}}
	defer func() { result.Duration = time.Since(start) }()

	if err := req.Validate(); err != nil {
		return result, err
	}

	available, err := workspace.Projects(s.cfg.Root)
	if err != nil {
		return result, merrors.NotFound(s.cfg.Root, err, workspace.SuggestLocations(s.cfg.Root))
	}

	if !req.Force {
		ok, err := s.prompter.Confirm(req.ConfirmQuestion())
		if err != nil {
			return result, merrors.InvalidInput("no answer to the confirmation prompt").WithContext("error", err.Error())
		}
		if !ok {
			result.Status = StatusCanceled
			return result, nil
		}
	}

	selected, unknown := Select(available, req)
	result.Unknown = unknown
	for _, name := range unknown {
		slog.Warn("Not a project of this workspace", logfields.Project(name))
	}
	if req.OnlyIndex {
		listed, err := homeindex.ListedProjectsFile(s.cfg.HomeIndexPath())
		if err != nil {
			return result, merrors.NotFound(s.cfg.HomeIndexPath(), err, workspace.SuggestLocations(s.cfg.Root))
		}
		selected = OnlyListed(selected, listed)
	}

	tools := s.tools
	if req.Verbose {
		tools = tools.Streaming(s.stream)
	}

	for _, project := range selected {
		patched, err := s.buildProject(ctx, tools, project)
		result.Patched += patched
		if err != nil {
			if ctx.Err() != nil {
				result.Status = StatusCanceled
				return result, ctx.Err()
			}
			result.Failed[project] = err
			slog.Warn("Project build failed", logfields.Project(project), logfields.Error(err))
			continue
		}
		result.Built = append(result.Built, project)
	}

	pages, err := s.buildHome(ctx, tools, req.Offline)
	if err != nil {
		return result, err
	}
	result.SiteBuilt = true
	result.OfflinePages = pages

	if len(result.Failed) > 0 {
		result.Status = StatusPartial
		if req.Strict {
			result.Status = StatusFailed
			return result, merrors.BuildFailed("projects", projectErrors(result)).
				WithContext("projects", result.FailedProjects())
		}
		return result, nil
	}
	result.Status = StatusSuccess
	return result, nil
}

// BuildProject regenerates one project and patches its view-source links.
func (s *Service) BuildProject(ctx context.Context, project string) error {
	_, err := s.buildProject(ctx, s.tools, project)
	return err
}

// BuildHome rebuilds the home site, then rewrites it for offline use when
// asked to.
func (s *Service) BuildHome(ctx context.Context, offline bool) error {
	_, err := s.buildHome(ctx, s.tools, offline)
	return err
}

func (s *Service) buildProject(ctx context.Context, tools *toolchain.Tools, project string) (int, error) {
	dir := workspace.ProjectDir(s.cfg.Root, project)
	slog.Info("Building project", logfields.Project(project))
	if err := tools.BuildProject(ctx, dir); err != nil {
		return 0, merrors.ProcessFailed("make html", err).WithContext("project", project)
	}
	patched, err := rewrite.OverwriteViewSource(workspace.HTMLDir(s.cfg.Root, project))
	if err != nil {
		return patched, merrors.FileSystem("patch view-source links", err).WithContext("project", project)
	}
	slog.Debug("Patched view-source links", logfields.Project(project), slog.Int("files", patched))
	return patched, nil
}

func (s *Service) buildHome(ctx context.Context, tools *toolchain.Tools, offline bool) (int, error) {
	slog.Info("Building home site", logfields.Dir(s.cfg.Root))
	if err := tools.BuildSite(ctx, s.cfg.Root); err != nil {
		return 0, merrors.BuildFailed("site", err)
	}
	if !offline {
		return 0, nil
	}
	pages, err := rewrite.MakeOffline(s.cfg.SiteDirPath())
	if err != nil {
		return pages, merrors.FileSystem("offline rewrite", err)
	}
	slog.Info("Site rewritten for offline use", slog.Int("pages", pages))
	return pages, nil
}

// Select intersects the available projects with the request. It returns
// the selection, sorted, and the requested names that are not available.
func Select(available []string, req Request) (selected, unknown []string) {
	if req.All {
		return append([]string(nil), available...), nil
	}
	have := make(map[string]struct{}, len(available))
	for _, p := range available {
		have[p] = struct{}{}
	}
	seen := map[string]struct{}{}
	for _, p := range req.Projects {
		p = strings.Trim(p, "/")
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		if _, ok := have[p]; ok {
			selected = append(selected, p)
		} else {
			unknown = append(unknown, p)
		}
	}
	sort.Strings(selected)
	return selected, unknown
}

// OnlyListed keeps the projects linked from the home index.
func OnlyListed(projects []string, listed map[string]struct{}) []string {
	var out []string
	for _, p := range projects {
		if _, ok := listed[p]; ok {
			out = append(out, p)
		}
	}
	return out
}

func projectErrors(r *Result) error {
	errs := make([]error, 0, len(r.Failed))
	for _, p := range r.FailedProjects() {
		errs = append(errs, fmt.Errorf("%s: %w", p, r.Failed[p]))
	}
	return errors.Join(errs...)
}
