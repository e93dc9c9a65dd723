package testutil

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Manager drives several test components as one, for tests that talk to
// more than one fake API. Components are started in the order they were
// added and stopped in reverse.
type Manager struct {
	ctx        context.Context
	mu         sync.RWMutex
	components []TestComponent
}

// Checkpoint holds one snapshot per component, keyed by name.
type Checkpoint map[string]interface{}

// NewManager creates an empty manager whose lifecycle calls use ctx.
func NewManager(ctx context.Context) *Manager {
	return &Manager{ctx: ctx}
}

// Add registers c. Names must be unique.
func (m *Manager) Add(c TestComponent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.components {
		if existing.Name() == c.Name() {
			return fmt.Errorf("component %s already added", c.Name())
		}
	}
	m.components = append(m.components, c)
	return nil
}

// Get returns the component named name, or nil.
func (m *Manager) Get(name string) TestComponent {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, c := range m.components {
		if c.Name() == name {
			return c
		}
	}
	return nil
}

// Components returns the registered components in order.
func (m *Manager) Components() []TestComponent {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]TestComponent(nil), m.components...)
}

// StartAll starts every component. On failure the ones already started
// are stopped again.
func (m *Manager) StartAll() error {
	components := m.Components()
	for i, c := range components {
		if err := c.Start(m.ctx); err != nil {
			err = fmt.Errorf("failed to start component %s: %w", c.Name(), err)
			return errors.Join(err, stopAll(m.ctx, components[:i]))
		}
	}
	return nil
}

// StopAll stops every component in reverse order, continuing past
// failures.
func (m *Manager) StopAll() error {
	return stopAll(m.ctx, m.Components())
}

// ResetAll resets every component, stopping at the first failure.
func (m *Manager) ResetAll() error {
	for _, c := range m.Components() {
		if err := c.Reset(m.ctx); err != nil {
			return fmt.Errorf("failed to reset component %s: %w", c.Name(), err)
		}
	}
	return nil
}

// SnapshotAll captures every component.
func (m *Manager) SnapshotAll() (Checkpoint, error) {
	cp := Checkpoint{}
	for _, c := range m.Components() {
		snap, err := c.Snapshot(m.ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to snapshot component %s: %w", c.Name(), err)
		}
		cp[c.Name()] = snap
	}
	return cp, nil
}

// RestoreAll puts back the snapshots in cp. A component with no entry in
// cp is an error, since it was added after the checkpoint was taken.
func (m *Manager) RestoreAll(cp Checkpoint) error {
	for _, c := range m.Components() {
		snap, ok := cp[c.Name()]
		if !ok {
			return fmt.Errorf("no snapshot for component %s", c.Name())
		}
		if err := c.Restore(m.ctx, snap); err != nil {
			return fmt.Errorf("failed to restore component %s: %w", c.Name(), err)
		}
	}
	return nil
}

func stopAll(ctx context.Context, components []TestComponent) error {
	var errs []error
	for i := len(components) - 1; i >= 0; i-- {
		if err := components[i].Stop(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop component %s: %w", components[i].Name(), err))
		}
	}
	return errors.Join(errs...)
}
