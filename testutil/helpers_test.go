package testutil_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/kbukum/hyperkit/component"
	"github.com/kbukum/hyperkit/testutil"
)

type fakeComponent struct {
	started, stopped bool
	resets           int
	state            string
	startErr         error
}

func (f *fakeComponent) Name() string { return "fake" }

func (f *fakeComponent) Start(context.Context) error {
	if f.startErr != nil {
		return f.startErr
	}
	f.started = true
	return nil
}

func (f *fakeComponent) Stop(context.Context) error {
	f.stopped = true
	return nil
}

func (f *fakeComponent) Health(context.Context) component.Health {
	return component.Health{Name: f.Name(), Status: component.StatusHealthy}
}

func (f *fakeComponent) Reset(context.Context) error {
	f.resets++
	f.state = ""
	return nil
}

func (f *fakeComponent) Snapshot(context.Context) (interface{}, error) { return f.state, nil }

func (f *fakeComponent) Restore(_ context.Context, snap interface{}) error {
	s, ok := snap.(string)
	if !ok {
		return errors.New("bad snapshot")
	}
	f.state = s
	return nil
}

func TestSetup_StartsAndCleanupStops(t *testing.T) {
	c := &fakeComponent{}
	cleanup, err := testutil.Setup(c)
	if err != nil {
		t.Fatalf("Setup() failed: %v", err)
	}
	if !c.started {
		t.Error("component should be started")
	}
	if err := cleanup(); err != nil {
		t.Fatalf("cleanup() failed: %v", err)
	}
	if !c.stopped {
		t.Error("component should be stopped")
	}
}

func TestSetup_StartError(t *testing.T) {
	c := &fakeComponent{startErr: errors.New("port in use")}
	if _, err := testutil.Setup(c); err == nil {
		t.Fatal("expected start error")
	}
}

func TestTHelper_Lifecycle(t *testing.T) {
	c := &fakeComponent{}
	t.Run("inner", func(t *testing.T) {
		h := testutil.T(t)
		h.Setup(c)
		c.state = "seeded"
		snap := h.Snapshot(c)
		h.Reset(c)
		if c.state != "" || c.resets != 1 {
			t.Errorf("reset did not clear state: %+v", c)
		}
		h.Restore(c, snap)
		if c.state != "seeded" {
			t.Errorf("expected restored state, got %q", c.state)
		}
	})
	if !c.stopped {
		t.Error("cleanup should stop the component after the subtest")
	}
}

func TestCaptureLogger(t *testing.T) {
	l, buf := testutil.CaptureLogger("hyperctl")
	l.Debug("request", map[string]interface{}{"method": "GET"})
	out := buf.String()
	if !strings.Contains(out, `"message":"request"`) || !strings.Contains(out, `"method":"GET"`) {
		t.Errorf("unexpected log output %q", out)
	}
}
