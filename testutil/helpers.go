package testutil

import (
	"bytes"
	"context"
	"testing"

	"github.com/kbukum/hyperkit/logger"
)

// CleanupFunc stops a component started by Setup.
type CleanupFunc func() error

// Setup starts component and returns the function that stops it.
//
//	cleanup, err := testutil.Setup(srv)
//	if err != nil {
//	    t.Fatal(err)
//	}
//	defer cleanup()
func Setup(component TestComponent) (CleanupFunc, error) {
	return SetupWithContext(context.Background(), component)
}

// SetupWithContext is Setup with a caller-supplied context.
func SetupWithContext(ctx context.Context, component TestComponent) (CleanupFunc, error) {
	if err := component.Start(ctx); err != nil {
		return nil, err
	}
	return func() error { return component.Stop(ctx) }, nil
}

// CaptureLogger returns a debug-level JSON logger and the buffer it
// writes to, for asserting on audit output.
func CaptureLogger(serviceName string) (*logger.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	l := logger.NewWithWriter(&logger.Config{Level: "debug", Format: logger.FormatJSON}, serviceName, &buf)
	return l, &buf
}

// THelper ties component lifecycles to a testing.T.
type THelper struct {
	t   *testing.T
	ctx context.Context
}

// T wraps t:
//
//	func TestList(t *testing.T) {
//	    srv := newServer(t)
//	    testutil.T(t).Setup(srv) // stopped when the test ends
//	}
func T(t *testing.T) *THelper {
	return &THelper{t: t, ctx: context.Background()}
}

// WithContext sets the context passed to lifecycle calls.
func (h *THelper) WithContext(ctx context.Context) *THelper {
	h.ctx = ctx
	return h
}

// Setup starts component and stops it in t.Cleanup.
func (h *THelper) Setup(component TestComponent) {
	h.t.Helper()
	if err := component.Start(h.ctx); err != nil {
		h.t.Fatalf("failed to start component %s: %v", component.Name(), err)
	}
	h.t.Cleanup(func() {
		if err := component.Stop(h.ctx); err != nil {
			h.t.Errorf("failed to stop component %s: %v", component.Name(), err)
		}
	})
}

// Reset resets component or fails the test.
func (h *THelper) Reset(component TestComponent) {
	h.t.Helper()
	if err := component.Reset(h.ctx); err != nil {
		h.t.Fatalf("failed to reset component %s: %v", component.Name(), err)
	}
}

// Snapshot captures component state or fails the test.
func (h *THelper) Snapshot(component TestComponent) interface{} {
	h.t.Helper()
	snapshot, err := component.Snapshot(h.ctx)
	if err != nil {
		h.t.Fatalf("failed to snapshot component %s: %v", component.Name(), err)
	}
	return snapshot
}

// Restore restores a snapshot or fails the test.
func (h *THelper) Restore(component TestComponent, snapshot interface{}) {
	h.t.Helper()
	if err := component.Restore(h.ctx, snapshot); err != nil {
		h.t.Fatalf("failed to restore component %s: %v", component.Name(), err)
	}
}

// SetupAll starts every component of m and stops them in t.Cleanup.
func (h *THelper) SetupAll(m *Manager) {
	h.t.Helper()
	if err := m.StartAll(); err != nil {
		h.t.Fatalf("failed to start components: %v", err)
	}
	h.t.Cleanup(func() {
		if err := m.StopAll(); err != nil {
			h.t.Errorf("failed to stop components: %v", err)
		}
	})
}
