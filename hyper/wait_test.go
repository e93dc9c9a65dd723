package hyper

import (
	"context"
	stderrors "errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/kbukum/hyperkit/errors"
)

func TestWaitTransitioning_FlipsAfterThreePolls(t *testing.T) {
	srv := startAPI(t)
	srv.Seed("cluster", map[string]any{"id": "c1"})
	c := newClient(t, srv)
	ctx := context.Background()
	obj, _ := c.ByID(ctx, "cluster", "c1", nil)

	srv.SetTransitioning("cluster", "c1", 2, "no", "")
	before := srv.Count(http.MethodGet, "/clusters/c1")

	done, err := c.WaitTransitioning(ctx, obj, 5*time.Second, 0)
	if err != nil {
		t.Fatalf("WaitTransitioning() failed: %v", err)
	}
	if done.String("transitioning") != "no" {
		t.Errorf("transitioning = %q", done.String("transitioning"))
	}
	if polls := srv.Count(http.MethodGet, "/clusters/c1") - before; polls != 3 {
		t.Errorf("expected 3 reloads, got %d", polls)
	}
}

func TestWaitTransitioning_Timeout(t *testing.T) {
	srv := startAPI(t)
	srv.Seed("cluster", map[string]any{"id": "c1"})
	c := newClient(t, srv)
	ctx := context.Background()
	obj, _ := c.ByID(ctx, "cluster", "c1", nil)
	srv.SetTransitioning("cluster", "c1", 1_000_000, "no", "")

	start := time.Now()
	_, err := c.WaitTransitioning(ctx, obj, time.Second, 0)
	elapsed := time.Since(start)

	if !errors.IsTimeout(err) {
		t.Fatalf("expected TIMEOUT, got %v", err)
	}
	if !strings.Contains(err.Error(), "[cluster:c1]") {
		t.Errorf("timeout should name the object: %v", err)
	}
	if elapsed < time.Second || elapsed > 3*time.Second {
		t.Errorf("timed out after %v, want about 1s", elapsed)
	}
	appErr, _ := errors.AsAppError(err)
	if secs, _ := appErr.Details["elapsed_seconds"].(float64); secs < 1 {
		t.Errorf("elapsed_seconds = %v", appErr.Details["elapsed_seconds"])
	}
}

func TestWaitTransitioning_Vanished(t *testing.T) {
	srv := startAPI(t)
	srv.Seed("cluster", map[string]any{"id": "c1"})
	c := newClient(t, srv)
	ctx := context.Background()
	obj, _ := c.ByID(ctx, "cluster", "c1", nil)
	if _, err := c.Delete(ctx, obj); err != nil {
		t.Fatal(err)
	}

	_, err := c.WaitTransitioning(ctx, obj, time.Second, 0)
	if !IsNotFound(err) {
		t.Errorf("expected 404 APIError, got %v", err)
	}
}

func TestWaitSuccess(t *testing.T) {
	srv := startAPI(t)
	srv.Seed("cluster", map[string]any{"id": "ok"})
	srv.Seed("cluster", map[string]any{"id": "bad"})
	c := newClient(t, srv)
	ctx := context.Background()
	good, _ := c.ByID(ctx, "cluster", "ok", nil)
	bad, _ := c.ByID(ctx, "cluster", "bad", nil)

	srv.SetTransitioning("cluster", "ok", 1, "no", "")
	if _, err := c.WaitSuccess(ctx, good, 5*time.Second); err != nil {
		t.Errorf("WaitSuccess() failed: %v", err)
	}

	srv.SetTransitioning("cluster", "bad", 1, "error", "etcd unreachable")
	_, err := c.WaitSuccess(ctx, bad, 5*time.Second)
	if !errors.IsTransitionFailed(err) {
		t.Fatalf("expected TRANSITION_FAILED, got %v", err)
	}
	if !strings.Contains(err.Error(), "etcd unreachable") {
		t.Errorf("message should carry transitioningMessage: %v", err)
	}
}

func TestWaitFor(t *testing.T) {
	ctx := context.Background()

	calls := 0
	err := WaitFor(ctx, func(context.Context) (bool, error) {
		calls++
		return calls == 3, nil
	}, time.Second)
	if err != nil || calls != 3 {
		t.Errorf("WaitFor() = %v after %d calls", err, calls)
	}

	err = WaitFor(ctx, func(context.Context) (bool, error) { return false, nil }, 50*time.Millisecond)
	if !errors.IsTimeout(err) {
		t.Errorf("expected TIMEOUT, got %v", err)
	}

	boom := stderrors.New("boom")
	err = WaitFor(ctx, func(context.Context) (bool, error) { return false, boom }, time.Second)
	if !stderrors.Is(err, boom) {
		t.Errorf("expected condition error, got %v", err)
	}
}

func TestFindCondition(t *testing.T) {
	obj := mustDecodeObject(t, `{"conditions":[{"type":"Provisioned","status":"True"},{"type":"Ready","status":"False"}]}`)
	tests := []struct {
		condType, status string
		want             bool
	}{
		{"Provisioned", "True", true},
		{"Ready", "True", false},
		{"Ready", "False", true},
		{"Missing", "True", false},
	}
	for _, tt := range tests {
		if got := FindCondition(obj, tt.condType, tt.status); got != tt.want {
			t.Errorf("FindCondition(%s, %s) = %v", tt.condType, tt.status, got)
		}
	}
	if FindCondition(NewObject(), "Ready", "True") {
		t.Error("object without conditions should not match")
	}
}

func TestWaitForCondition(t *testing.T) {
	srv := startAPI(t)
	srv.Seed("cluster", map[string]any{
		"id":         "c1",
		"conditions": []any{map[string]any{"type": "Ready", "status": "True"}},
	})
	c := newClient(t, srv)
	ctx := context.Background()
	obj, _ := c.ByID(ctx, "cluster", "c1", nil)

	got, err := WaitForCondition(ctx, c, obj, "Ready", "True", time.Second)
	if err != nil || got.ID() != "c1" {
		t.Errorf("WaitForCondition() = %v, %v", got, err)
	}

	_, err = WaitForCondition(ctx, c, obj, "Ready", "False", 100*time.Millisecond)
	if !errors.IsTimeout(err) {
		t.Errorf("expected TIMEOUT, got %v", err)
	}
}

func TestWaitForState(t *testing.T) {
	srv := startAPI(t)
	srv.Seed("node", map[string]any{"id": "n1", "state": "provisioning"})
	c := newClient(t, srv)
	ctx := context.Background()

	go func() {
		time.Sleep(100 * time.Millisecond)
		_, _ = c.UpdateByID(ctx, "node", "n1", map[string]any{"state": "active"})
	}()

	got, err := WaitForState(ctx, c, "node", "n1", "active", 5*time.Second)
	if err != nil {
		t.Fatalf("WaitForState() failed: %v", err)
	}
	if got.String("state") != "active" {
		t.Errorf("state = %q", got.String("state"))
	}

	_, err = WaitForState(ctx, c, "node", "n1", "gone", 200*time.Millisecond)
	if !errors.IsTimeout(err) {
		t.Errorf("expected TIMEOUT, got %v", err)
	}
}
