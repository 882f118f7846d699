// Package lifecycle tracks one-shot initialization tasks that gate parts of the API.
package lifecycle

import (
	"context"
	"sync"
)

// Gate opens once its initialization task has finished successfully. A failed task leaves
// the gate closed and records the error.
type Gate struct {
	name string

	once sync.Once
	mu   sync.RWMutex
	done chan struct{}
	err  error
	open bool
}

// NewGate returns a closed gate.
func NewGate(name string) *Gate {
	return &Gate{name: name, done: make(chan struct{})}
}

// Name identifies the gate in logs.
func (g *Gate) Name() string {
	return g.name
}

// Run executes task once and settles the gate with its outcome.
func (g *Gate) Run(ctx context.Context, task func(context.Context) error) error {
	err := task(ctx)
	g.settle(err)
	return err
}

// Open marks the gate ready without running a task.
func (g *Gate) Open() {
	g.settle(nil)
}

func (g *Gate) settle(err error) {
	g.once.Do(func() {
		g.mu.Lock()
		g.err = err
		g.open = err == nil
		g.mu.Unlock()
		close(g.done)
	})
}

// Ready reports whether the task completed successfully.
func (g *Gate) Ready() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.open
}

// Err returns the task error, if it failed.
func (g *Gate) Err() error {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.err
}

// Wait blocks until the gate settles or ctx ends.
func (g *Gate) Wait(ctx context.Context) error {
	select {
	case <-g.done:
		return g.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}
