package testutil

import (
	"context"

	"github.com/kbukum/hyperkit/component"
)

// TestComponent is a component with state that tests can wipe, capture
// and put back, such as the fake API server.
type TestComponent interface {
	component.Component

	// Reset returns the component to its freshly started state.
	Reset(ctx context.Context) error

	// Snapshot captures the current state for a later Restore.
	Snapshot(ctx context.Context) (interface{}, error)

	// Restore puts back a state captured by Snapshot.
	Restore(ctx context.Context, snapshot interface{}) error
}
