package component

import (
	"context"
	"testing"
)

type fakeComponent struct {
	started bool
}

func (f *fakeComponent) Name() string { return "fake" }

func (f *fakeComponent) Start(context.Context) error {
	f.started = true
	return nil
}

func (f *fakeComponent) Stop(context.Context) error {
	f.started = false
	return nil
}

func (f *fakeComponent) Health(context.Context) Health {
	if !f.started {
		return Health{Name: f.Name(), Status: StatusUnhealthy, Message: "not started"}
	}
	return Health{Name: f.Name(), Status: StatusHealthy}
}

func (f *fakeComponent) Describe() Description {
	return Description{Name: "Fake", Type: "test", Port: 8080}
}

var (
	_ Component   = (*fakeComponent)(nil)
	_ Describable = (*fakeComponent)(nil)
)

func TestComponentLifecycle(t *testing.T) {
	ctx := context.Background()
	c := &fakeComponent{}

	if h := c.Health(ctx); h.Status != StatusUnhealthy {
		t.Errorf("expected unhealthy before start, got %s", h.Status)
	}
	if err := c.Start(ctx); err != nil {
		t.Fatal(err)
	}
	if h := c.Health(ctx); h.Status != StatusHealthy {
		t.Errorf("expected healthy after start, got %s", h.Status)
	}
	if err := c.Stop(ctx); err != nil {
		t.Fatal(err)
	}
	if h := c.Health(ctx); h.Status != StatusUnhealthy {
		t.Errorf("expected unhealthy after stop, got %s", h.Status)
	}
}
