package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"time"

	"git.home.luguber.info/inful/metadocs/internal/config"
	merrors "git.home.luguber.info/inful/metadocs/internal/errors"
	"git.home.luguber.info/inful/metadocs/internal/logfields"
	"git.home.luguber.info/inful/metadocs/internal/prompt"
	"git.home.luguber.info/inful/metadocs/internal/retry"
)

// PortHint is shown when the operator declines another port.
const PortHint = "You can specify a custom port with metadocs serve -s"

// BindOptions controls how Bind acquires the server port.
type BindOptions struct {
	Host   string
	Port   int
	Policy config.PortPolicy

	// Retry paces the attempts on one port. An invalid policy, such as the
	// zero value, means retry.PortBindPolicy.
	Retry retry.Policy

	// Prompter is asked before switching ports under PortPolicyPrompt.
	Prompter prompt.Prompter

	// Listen and Sleep default to a TCP listener and a context-aware timer.
	Listen func(ctx context.Context, addr string) (net.Listener, error)
	Sleep  func(ctx context.Context, d time.Duration) error
}

func (o *BindOptions) applyDefaults() {
	if o.Retry.Validate() != nil {
		o.Retry = retry.PortBindPolicy()
	}
	if o.Policy == "" {
		o.Policy = config.PortPolicyPrompt
	}
	if o.Prompter == nil {
		o.Prompter = prompt.NewTerminal()
	}
	if o.Listen == nil {
		o.Listen = func(ctx context.Context, addr string) (net.Listener, error) {
			var lc net.ListenConfig
			return lc.Listen(ctx, "tcp", addr)
		}
	}
	if o.Sleep == nil {
		o.Sleep = sleep
	}
}

// Bind listens on Host:Port. Failed attempts are retried per the retry
// policy; once it is used up the port policy decides whether to ask the
// operator, move to the next port or give up. It returns the listener and
// the port actually bound. Cancelling ctx aborts the loop.
func Bind(ctx context.Context, opts BindOptions) (net.Listener, int, error) {
	opts.applyDefaults()

	port := opts.Port
	failures := 0
	for {
		if err := ctx.Err(); err != nil {
			return nil, port, err
		}

		addr := net.JoinHostPort(opts.Host, strconv.Itoa(port))
		ln, err := opts.Listen(ctx, addr)
		if err == nil {
			slog.Debug("Server port bound", logfields.Port(port), slog.Int("failures", failures))
			return ln, port, nil
		}
		failures++
		slog.Debug("Port busy", logfields.Port(port), slog.Int("failures", failures), logfields.Error(err))

		if opts.Retry.Exhausted(failures - 1) {
			next, err := nextPort(opts, port, err)
			if err != nil {
				return nil, port, err
			}
			port, failures = next, 0
			continue
		}

		if err := opts.Sleep(ctx, opts.Retry.Delay(failures)); err != nil {
			return nil, port, err
		}
	}
}

// nextPort applies the port policy once port is deemed occupied.
func nextPort(opts BindOptions, port int, cause error) (int, error) {
	if port >= 65535 {
		return 0, merrors.PortUnavailable(port, cause)
	}
	switch opts.Policy {
	case config.PortPolicyFail:
		return 0, merrors.PortUnavailable(port, cause)
	case config.PortPolicyIncrement:
		slog.Warn("Port occupied, trying the next one", logfields.Port(port), slog.Int("next", port+1))
		return port + 1, nil
	default:
		ok, err := opts.Prompter.Confirm(fmt.Sprintf("port %d seems occupied. Try with %d ? (y/n)", port, port+1))
		if err != nil {
			return 0, merrors.PortUnavailable(port, cause).WithContext("prompt", err.Error())
		}
		if !ok {
			return 0, merrors.PortUnavailable(port, cause).WithContext("hint", PortHint)
		}
		return port + 1, nil
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
