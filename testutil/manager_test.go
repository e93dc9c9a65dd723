package testutil_test

import (
	"context"
	"errors"
	"testing"

	"github.com/kbukum/hyperkit/testutil"
	"github.com/kbukum/hyperkit/testutil/apiserver"
)

func newServers(t *testing.T, names ...string) (*testutil.Manager, []*apiserver.Server) {
	t.Helper()
	m := testutil.NewManager(context.Background())
	var servers []*apiserver.Server
	for _, name := range names {
		srv, err := apiserver.New(apiserver.Config{Name: name})
		if err != nil {
			t.Fatalf("apiserver.New(%s): %v", name, err)
		}
		if err := m.Add(srv); err != nil {
			t.Fatal(err)
		}
		servers = append(servers, srv)
	}
	return m, servers
}

func TestManager_StartsAndStopsServers(t *testing.T) {
	m, servers := newServers(t, "local", "downstream")
	if err := m.StartAll(); err != nil {
		t.Fatalf("StartAll() failed: %v", err)
	}
	for _, srv := range servers {
		if srv.URL() == "" {
			t.Errorf("%s should be started", srv.Name())
		}
	}
	if got := m.Get("downstream"); got != servers[1] {
		t.Errorf("Get(downstream) = %v", got)
	}
	if m.Get("missing") != nil {
		t.Error("Get(missing) should be nil")
	}
	if err := m.StopAll(); err != nil {
		t.Fatalf("StopAll() failed: %v", err)
	}
	for _, srv := range servers {
		if srv.URL() != "" {
			t.Errorf("%s should be stopped", srv.Name())
		}
	}
}

func TestManager_RejectsDuplicateNames(t *testing.T) {
	m, _ := newServers(t, "local")
	dup, err := apiserver.New(apiserver.Config{Name: "local"})
	if err != nil {
		t.Fatal(err)
	}
	if err := m.Add(dup); err == nil {
		t.Error("expected an error for a second component named local")
	}
	if len(m.Components()) != 1 {
		t.Errorf("expected 1 component, got %d", len(m.Components()))
	}
}

func TestManager_StartFailureStopsStarted(t *testing.T) {
	m, servers := newServers(t, "local")
	broken := &fakeComponent{startErr: errors.New("port in use")}
	if err := m.Add(broken); err != nil {
		t.Fatal(err)
	}

	if err := m.StartAll(); err == nil {
		t.Fatal("expected a start error")
	}
	if servers[0].URL() != "" {
		t.Error("the server started before the failure should be stopped again")
	}
}

func TestManager_CheckpointAcrossServers(t *testing.T) {
	m, servers := newServers(t, "local", "downstream")
	testutil.T(t).SetupAll(m)
	local, downstream := servers[0], servers[1]

	local.Seed("cluster", map[string]any{"id": "c1"})
	downstream.Seed("user", map[string]any{"id": "u1"})
	cp, err := m.SnapshotAll()
	if err != nil {
		t.Fatalf("SnapshotAll() failed: %v", err)
	}

	local.Seed("cluster", map[string]any{"id": "c2"})
	downstream.Seed("user", map[string]any{"id": "u2"})
	if err := m.RestoreAll(cp); err != nil {
		t.Fatalf("RestoreAll() failed: %v", err)
	}
	if _, ok := local.Resource("cluster", "c2"); ok {
		t.Error("c2 should be gone after restore")
	}
	if _, ok := downstream.Resource("user", "u2"); ok {
		t.Error("u2 should be gone after restore")
	}
	if _, ok := downstream.Resource("user", "u1"); !ok {
		t.Error("u1 should survive restore")
	}

	if err := m.ResetAll(); err != nil {
		t.Fatalf("ResetAll() failed: %v", err)
	}
	if _, ok := local.Resource("cluster", "c1"); ok {
		t.Error("reset should drop c1")
	}
}

func TestManager_RestoreNeedsEverySnapshot(t *testing.T) {
	m, _ := newServers(t, "local")
	cp, err := m.SnapshotAll()
	if err != nil {
		t.Fatal(err)
	}
	later, err := apiserver.New(apiserver.Config{Name: "later"})
	if err != nil {
		t.Fatal(err)
	}
	if err := m.Add(later); err != nil {
		t.Fatal(err)
	}
	if err := m.RestoreAll(cp); err == nil {
		t.Error("expected an error for a component with no snapshot")
	}
}
