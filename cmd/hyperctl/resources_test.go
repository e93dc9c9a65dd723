package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kbukum/hyperkit/errors"
	"github.com/kbukum/hyperkit/hyper"
	"github.com/kbukum/hyperkit/testutil/apiserver"
)

func decodeList(t *testing.T, out string) []map[string]any {
	t.Helper()
	var items []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &items), out)
	return items
}

func decodeOne(t *testing.T, out string) map[string]any {
	t.Helper()
	var obj map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &obj), out)
	return obj
}

func TestListCommand(t *testing.T) {
	srv := startAPI(t)
	srv.Seed("cluster", map[string]any{"name": "alpha"})
	srv.Seed("cluster", map[string]any{"name": "beta"})
	srv.Seed("cluster", map[string]any{"name": "alps"})

	out, err := run(t, srv, "list", "cluster")
	require.NoError(t, err)
	assert.Contains(t, out, "alpha")
	assert.Contains(t, out, "TOTAL")

	out, err = run(t, srv, "list", "cluster", "-f", "name_prefix=al", "-o", "json")
	require.NoError(t, err)
	items := decodeList(t, out)
	require.Len(t, items, 2)
	for _, item := range items {
		assert.Contains(t, []any{"alpha", "alps"}, item["name"])
	}

	out, err = run(t, srv, "list", "cluster", "-f", "name=nothing", "-o", "json")
	require.NoError(t, err)
	assert.Empty(t, decodeList(t, out))
}

func TestListCommand_AllPages(t *testing.T) {
	srv := startAPI(t)
	for _, name := range []string{"u1", "u2", "u3", "u4", "u5"} {
		srv.Seed("user", map[string]any{"username": name})
	}

	out, err := run(t, srv, "list", "user", "-f", "limit=2", "-o", "json")
	require.NoError(t, err)
	assert.Len(t, decodeList(t, out), 2)

	out, err = run(t, srv, "list", "user", "-f", "limit=2", "--all", "-o", "json")
	require.NoError(t, err)
	assert.Len(t, decodeList(t, out), 5)
}

func TestListCommand_Strict(t *testing.T) {
	srv := startAPI(t)
	_, err := run(t, srv, "--strict", "list", "cluster", "-f", "bogus=1")
	assert.True(t, errors.IsInvalidFilter(err), "got %v", err)

	_, err = run(t, srv, "--strict", "list", "cluster", "-f", "name_ne=x")
	assert.NoError(t, err)
}

func TestGetCommand(t *testing.T) {
	srv := startAPI(t)
	seeded := srv.Seed("cluster", map[string]any{"name": "alpha"})
	id := seeded["id"].(string)

	out, err := run(t, srv, "get", "cluster", id, "-o", "json")
	require.NoError(t, err)
	obj := decodeOne(t, out)
	assert.Equal(t, "alpha", obj["name"])
	assert.Contains(t, obj, "links")

	out, err = run(t, srv, "get", "cluster", id, "-o", "yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "name: alpha")

	out, err = run(t, srv, "get", "cluster", id)
	require.NoError(t, err)
	assert.Contains(t, out, "FIELD")
	assert.Contains(t, out, "generateKubeconfig")

	_, err = run(t, srv, "get", "cluster", "missing")
	require.Error(t, err)
	assert.True(t, hyper.IsNotFound(err))
	assert.Equal(t, exitNotFound, exitCode(err))
}

func TestCreateCommand(t *testing.T) {
	srv := startAPI(t)
	path := filepath.Join(t.TempDir(), "cluster.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: from-yaml\nlabels:\n  env: dev\n"), 0o600))

	out, err := run(t, srv, "create", "cluster", "-F", path, "--set", "labels.team=core", "--set", "nodeCount=3", "-o", "json")
	require.NoError(t, err)
	obj := decodeOne(t, out)
	assert.Equal(t, "from-yaml", obj["name"])
	assert.Equal(t, map[string]any{"env": "dev", "team": "core"}, obj["labels"])
	assert.Equal(t, float64(3), obj["nodeCount"])

	stored, ok := srv.Resource("cluster", obj["id"].(string))
	require.True(t, ok)
	assert.Equal(t, "from-yaml", stored["name"])
}

func TestCreateCommand_Stdin(t *testing.T) {
	srv := startAPI(t)
	base := []string{"--url", srv.URL(), "--access-key", apiserver.DefaultAccessKey,
		"--secret-key", apiserver.DefaultSecretKey, "--log-level", "error"}
	out, err := runRaw(t, `{"name": "piped"}`, append(base, "create", "cluster", "-F", "-", "-o", "json")...)
	require.NoError(t, err)
	assert.Equal(t, "piped", decodeOne(t, out)["name"])
}

func TestUpdateCommand(t *testing.T) {
	srv := startAPI(t)
	id := srv.Seed("cluster", map[string]any{"name": "alpha"})["id"].(string)
	srv.FailNext("PUT", 409, 2)

	out, err := run(t, srv, "update", "cluster", id, "--set", "description=changed", "-o", "json")
	require.NoError(t, err)
	assert.Equal(t, "changed", decodeOne(t, out)["description"])
	assert.Equal(t, 3, srv.Count("PUT", "/clusters/"+id))

	_, err = run(t, srv, "update", "cluster", id)
	assert.True(t, errors.IsInvalidInput(err), "got %v", err)
}

func TestDeleteCommand(t *testing.T) {
	srv := startAPI(t)
	a := srv.Seed("cluster", map[string]any{"name": "a"})["id"].(string)
	b := srv.Seed("cluster", map[string]any{"name": "b"})["id"].(string)

	_, err := run(t, srv, "delete", "cluster", a, "missing")
	assert.True(t, hyper.IsNotFound(err), "got %v", err)
	assert.Zero(t, srv.Count("DELETE", "/clusters/"+a))

	out, err := run(t, srv, "delete", "cluster", a, b, "missing", "--ignore-not-found")
	require.NoError(t, err)
	assert.Contains(t, out, "cluster/"+a+" deleted")
	assert.Equal(t, 1, srv.Count("DELETE", "/clusters/"+a))
	assert.Equal(t, 1, srv.Count("DELETE", "/clusters/"+b))
}

func TestActionCommand(t *testing.T) {
	srv := startAPI(t)
	id := srv.Seed("cluster", map[string]any{"name": "alpha"})["id"].(string)

	out, err := run(t, srv, "action", "cluster", id, "generateKubeconfig", "--set", "ttl=60", "-o", "json")
	require.NoError(t, err)
	obj := decodeOne(t, out)
	assert.Equal(t, "generateKubeconfig", obj["action"])
	assert.Equal(t, id, obj["resourceId"])

	_, err = run(t, srv, "action", "cluster", id, "explode")
	assert.True(t, errors.HasCode(err, errors.ErrCodeUnknownAction), "got %v", err)
}

func TestWaitCommand(t *testing.T) {
	srv := startAPI(t)
	id := srv.Seed("cluster", map[string]any{"name": "alpha"})["id"].(string)

	srv.SetTransitioning("cluster", id, 2, "no", "")
	out, err := run(t, srv, "wait", "cluster", id, "--timeout", "5s", "-o", "json")
	require.NoError(t, err)
	assert.Equal(t, "no", decodeOne(t, out)["transitioning"])

	srv.SetTransitioning("cluster", id, 1, "error", "provisioning failed")
	_, err = run(t, srv, "wait", "cluster", id, "--timeout", "5s")
	assert.True(t, errors.IsTransitionFailed(err), "got %v", err)

	out, err = run(t, srv, "wait", "cluster", id, "--state", "active", "--timeout", "5s", "-o", "json")
	require.NoError(t, err)
	assert.Equal(t, "active", decodeOne(t, out)["state"])

	_, err = run(t, srv, "wait", "cluster", id, "--state", "never", "--timeout", "600ms")
	assert.Equal(t, exitTimeout, exitCode(err), "got %v", err)
}
