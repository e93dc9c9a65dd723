package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kbukum/hyperkit/errors"
	"github.com/kbukum/hyperkit/hyper"
	"github.com/kbukum/hyperkit/testutil"
	"github.com/kbukum/hyperkit/testutil/apiserver"
)

func startAPI(t *testing.T) *apiserver.Server {
	t.Helper()
	srv, err := apiserver.New(apiserver.Config{})
	require.NoError(t, err)
	testutil.T(t).Setup(srv)
	return srv
}

// run executes hyperctl against srv with admin keys and returns stdout.
func run(t *testing.T, srv *apiserver.Server, args ...string) (string, error) {
	t.Helper()
	base := []string{"--url", srv.URL(), "--access-key", apiserver.DefaultAccessKey,
		"--secret-key", apiserver.DefaultSecretKey, "--log-level", "error"}
	return runRaw(t, "", append(base, args...)...)
}

func runRaw(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	err := cmd.ExecuteContext(t.Context())
	return out.String(), err
}

func TestRootCommands(t *testing.T) {
	cmd := newRootCmd()
	names := make([]string, 0)
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"login", "schema", "list", "get", "create", "update", "delete", "action", "wait", "version"} {
		assert.Contains(t, names, want)
	}
	for _, flag := range []string{"url", "token", "access-key", "secret-key", "insecure", "cache", "strict", "config", "output", "log-level"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(flag), "missing --%s", flag)
	}
}

func TestVersion(t *testing.T) {
	out, err := runRaw(t, "", "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "hyperctl version "), out)

	out, err = runRaw(t, "", "version", "-o", "json")
	require.NoError(t, err)
	var info map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Contains(t, info, "version")
}

func TestBadOutputFormat(t *testing.T) {
	_, err := runRaw(t, "", "version", "-o", "xml")
	assert.True(t, errors.IsInvalidInput(err), "got %v", err)
}

func TestMissingTarget(t *testing.T) {
	t.Setenv("HYPER_URL", "")
	t.Setenv("HYPER_HOST", "")
	_, err := runRaw(t, "", "--config", filepath.Join(t.TempDir(), "none.yml"), "list", "cluster")
	require.Error(t, err)
	assert.Equal(t, exitError, exitCode(err))
}

func TestSchemaCommand(t *testing.T) {
	srv := startAPI(t)

	out, err := run(t, srv, "schema")
	require.NoError(t, err)
	for _, typ := range []string{"cluster", "node", "user", "setting", "clusterRegistrationToken"} {
		assert.Contains(t, out, typ)
	}

	out, err = run(t, srv, "schema", "cluster")
	require.NoError(t, err)
	assert.Contains(t, out, "name")
	assert.Contains(t, out, "prefix")

	_, err = run(t, srv, "schema", "widget")
	assert.True(t, errors.IsUnknownType(err), "got %v", err)
}

func TestSettingsFile(t *testing.T) {
	srv := startAPI(t)
	path := filepath.Join(t.TempDir(), "env.yml")
	doc := "url: " + srv.URL() + "\naccess_key: " + apiserver.DefaultAccessKey +
		"\nsecret_key: " + apiserver.DefaultSecretKey + "\nlogging:\n  level: error\n"
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	srv.Seed("cluster", map[string]any{"name": "from-file"})
	out, err := runRaw(t, "", "--config", path, "list", "cluster")
	require.NoError(t, err)
	assert.Contains(t, out, "from-file")
}

func TestLoginCommand(t *testing.T) {
	srv := startAPI(t)

	out, err := runRaw(t, "", "--url", srv.URL(), "--log-level", "error",
		"--password", apiserver.DefaultPassword, "login", "-o", "json")
	require.NoError(t, err)
	var doc map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	require.NotEmpty(t, doc["token"])

	out, err = runRaw(t, "", "--url", srv.URL(), "--log-level", "error", "--token", doc["token"], "schema")
	require.NoError(t, err)
	assert.Contains(t, out, "cluster")

	_, err = runRaw(t, "", "--url", srv.URL(), "--log-level", "error", "--password", "wrong", "login")
	require.Error(t, err)
	assert.Equal(t, exitUnauthorized, exitCode(err))
}

func TestPasswordLogsInImplicitly(t *testing.T) {
	srv := startAPI(t)
	srv.Seed("cluster", map[string]any{"name": "implicit"})

	out, err := runRaw(t, "", "--url", srv.URL(), "--log-level", "error",
		"--username", apiserver.DefaultUsername, "--password", apiserver.DefaultPassword, "list", "cluster")
	require.NoError(t, err)
	assert.Contains(t, out, "implicit")
	assert.Equal(t, 1, srv.Count("POST", "/localproviders/local"))
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, exitOK},
		{"plain", assert.AnError, exitError},
		{"unauthorized", errors.New(errors.ErrCodeUnauthorized, "no"), exitUnauthorized},
		{"not found", notFound("cluster", "c-1"), exitNotFound},
		{"timeout", errors.Timeout("late"), exitTimeout},
		{"api error", &hyper.APIError{Status: 500}, exitError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exitCode(tt.err))
		})
	}
}
