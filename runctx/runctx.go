// Package runctx runs a set of functions under a shared context that is
// canceled when the process receives a termination signal. It is what turns
// "signal handler calls exit" into "accept loop observes cancellation and
// returns", so a clean shutdown leaves every component drained.
package runctx

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"
)

// NotifySignals are the signals that cancel the group's context.
var NotifySignals = []os.Signal{
	syscall.SIGINT,
	syscall.SIGTERM,
}

// Group is a collection of functions to run concurrently until they all
// return, one of them fails, or a signal arrives.
type Group struct {
	funcs []func(ctx context.Context) error
}

func NewGroup(fn ...func(ctx context.Context) error) *Group {
	return &Group{funcs: fn}
}

func (g *Group) Add(fn func(ctx context.Context) error) {
	g.funcs = append(g.funcs, fn)
}

// Run runs the group under context.Background. It returns the first error
// returned by any function; cancellation itself is not an error, so a
// signal-triggered shutdown produces nil and the process exits 0.
func (g *Group) Run() error {
	return g.RunContext(context.Background())
}

func (g *Group) RunContext(ctx context.Context) error {
	ctx, unregister := signal.NotifyContext(ctx, NotifySignals...)
	defer unregister()

	eg, ctx := errgroup.WithContext(ctx)
	for _, fn := range g.funcs {
		fn := fn
		eg.Go(func() error { return fn(ctx) })
	}

	err := eg.Wait()
	if errors.Is(err, context.Canceled) {
		err = nil
	}

	return err
}
