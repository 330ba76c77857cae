package toolchain

import (
	"context"
	"sync"
)

// FakeRunner records invocations instead of executing them. Tests use it
// to drive orchestration code without the real tools installed.
type FakeRunner struct {
	mu    sync.Mutex
	calls []Invocation

	// OnRun, when set, decides the outcome of each invocation and may
	// produce files the real tool would have written.
	OnRun func(inv Invocation) (Result, error)
}

func (f *FakeRunner) Run(ctx context.Context, inv Invocation) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	f.mu.Lock()
	f.calls = append(f.calls, inv)
	hook := f.OnRun
	f.mu.Unlock()

	if hook != nil {
		return hook(inv)
	}
	return Result{}, nil
}

// Calls returns a copy of the recorded invocations.
func (f *FakeRunner) Calls() []Invocation {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Invocation(nil), f.calls...)
}

// Commands returns the recorded invocations rendered as command lines.
func (f *FakeRunner) Commands() []string {
	calls := f.Calls()
	out := make([]string, len(calls))
	for i, c := range calls {
		out[i] = c.String()
	}
	return out
}
