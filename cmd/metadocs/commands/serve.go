package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"git.home.luguber.info/inful/metadocs/internal/config"
	merrors "git.home.luguber.info/inful/metadocs/internal/errors"
	"git.home.luguber.info/inful/metadocs/internal/logfields"
	"git.home.luguber.info/inful/metadocs/internal/metrics"
	"git.home.luguber.info/inful/metadocs/internal/routes"
	"git.home.luguber.info/inful/metadocs/internal/server"
	"git.home.luguber.info/inful/metadocs/internal/watcher"
)

// ServeCmd implements the 'serve' command.
type ServeCmd struct {
	Port            int           `short:"s" help:"Port to serve on (default 8443)."`
	Host            string        `help:"Interface to bind (default 0.0.0.0)."`
	Offline         bool          `help:"Rebuild the home site for offline use."`
	PortPolicy      string        `name:"port-policy" help:"What to do when the port is busy: prompt, increment or fail."`
	Metrics         bool          `help:"Expose Prometheus metrics at /_metadocs/metrics."`
	RefreshInterval time.Duration `name:"refresh-interval" help:"Also refresh the route table periodically (0 disables)."`
}

func (s *ServeCmd) Run(g *Global, root *CLI) error {
	ctx, stop := g.signalContext()
	defer stop()
	p := g.printer()

	cfg, err := loadWorkspace(root.Dir, "metadocs serve")
	if err != nil {
		return err
	}
	if err := s.apply(cfg); err != nil {
		return err
	}
	if err := config.ExportOffline(cfg.Offline); err != nil {
		slog.Warn("Could not export offline mode", logfields.Error(err))
	}
	if cfg.Offline {
		if err := g.buildService(cfg).BuildHome(ctx, true); err != nil {
			slog.Warn("Offline rebuild of the home site failed", logfields.Error(err))
			p.Warning("Could not rebuild the home site for offline use: %v", err)
		}
	}

	refresher := routes.NewRefresher(cfg.Root, cfg.HomeIndexPath(), routes.NewEnvStore())
	table, _, err := refresher.Refresh()
	if err != nil {
		return merrors.WrongDirectory("metadocs serve", cfg.HomeIndexPath(), err, nil)
	}
	slog.Debug("Routes loaded", logfields.Routes(len(table)))

	var recorder metrics.Recorder = metrics.NoopRecorder{}
	var prom *metrics.PrometheusRecorder
	if cfg.Server.Metrics {
		prom = metrics.NewPrometheusRecorder(nil)
		prom.SetRoutes(len(table))
		recorder = prom
	}

	ln, port, err := server.Bind(ctx, server.BindOptions{
		Host:     cfg.Server.Host,
		Port:     cfg.Server.Port,
		Policy:   cfg.Server.PortPolicy,
		Prompter: g.prompter(),
	})
	if err != nil {
		if ctx.Err() != nil {
			p.Info("Aborting.")
			return nil
		}
		return err
	}
	if tcp, ok := ln.Addr().(*net.TCPAddr); ok {
		port = tcp.Port
	}
	p.Success("Serving at http://%s:%d", cfg.Server.Host, port)
	if prom != nil {
		p.Detail("metrics at http://%s:%d%s", cfg.Server.Host, port, server.MetricsPath)
	}

	srv := server.New(server.Options{
		HomeDir: cfg.SiteDirPath(),
		Routes:  routes.NewEnvStore(),
		Metrics: prom,
		Logger:  g.Logger,
	})

	w, err := watcher.New(watcher.Options{
		Root:     cfg.Root,
		SiteDir:  cfg.SiteDirPath(),
		Patterns: cfg.Watch.Patterns,
		Ignore:   cfg.Watch.Ignore,
		Offline:  cfg.Offline,
		Builder:  g.buildService(cfg),
		Routes:   refresher,
		Recorder: recorder,
	})
	if err != nil {
		_ = ln.Close()
		return merrors.FileSystem("watch workspace", err)
	}
	defer func() {
		_ = w.Close()
	}()

	if interval := cfg.Server.RefreshInterval.Std(); interval > 0 {
		periodic, err := watcher.NewRefresher(interval, refresher, recorder)
		if err != nil {
			_ = ln.Close()
			return merrors.InternalError("route refresh scheduler", err)
		}
		periodic.Start()
		defer func() {
			_ = periodic.Stop()
		}()
	}

	errCh := make(chan error, 2)
	go func() { errCh <- srv.Serve(ln) }()
	go func() { errCh <- w.Run(ctx) }()

	select {
	case <-ctx.Done():
		p.Info("Shutting down")
	case err = <-errCh:
	}

	if shutdownErr := srv.Shutdown(context.Background()); shutdownErr != nil {
		slog.Warn("Server shutdown", logfields.Error(shutdownErr))
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		return merrors.InternalError("serve", err)
	}
	return nil
}

// apply lays the command-line overrides over the loaded configuration.
func (s *ServeCmd) apply(cfg *config.Config) error {
	if s.Port != 0 {
		if s.Port < 1 || s.Port > 65535 {
			return merrors.ValidationFailed("port", fmt.Sprintf("%d is not a valid port", s.Port))
		}
		cfg.Server.Port = s.Port
	}
	if s.Host != "" {
		cfg.Server.Host = s.Host
	}
	if s.PortPolicy != "" {
		policy := config.NormalizePortPolicy(s.PortPolicy)
		if policy == "" {
			return merrors.ValidationFailed("port-policy", fmt.Sprintf("unknown policy %q", s.PortPolicy))
		}
		cfg.Server.PortPolicy = policy
	}
	if s.RefreshInterval < 0 {
		return merrors.ValidationFailed("refresh-interval", "must not be negative")
	}
	if s.RefreshInterval > 0 {
		cfg.Server.RefreshInterval = config.Duration(s.RefreshInterval)
	}
	cfg.Server.Metrics = cfg.Server.Metrics || s.Metrics
	cfg.Offline = cfg.Offline || s.Offline
	return nil
}
