package main

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kbukum/hyperkit/errors"
	"github.com/kbukum/hyperkit/hyper"
)

func TestApplySets(t *testing.T) {
	body := hyper.NewObject()
	err := applySets(body, []string{
		"name=dev",
		"replicas=3",
		"paused=false",
		"note=null",
		"version=v1.2",
		"labels.env=test",
		"labels.team=core",
		"expr=a=b",
	})
	require.NoError(t, err)

	assert.Equal(t, map[string]any{
		"name":     "dev",
		"replicas": json.Number("3"),
		"paused":   false,
		"note":     nil,
		"version":  "v1.2",
		"labels":   map[string]any{"env": "test", "team": "core"},
		"expr":     "a=b",
	}, body.Data())

	for _, bad := range []string{"novalue", "=x"} {
		err := applySets(hyper.NewObject(), []string{bad})
		assert.True(t, errors.IsInvalidInput(err), "%q: got %v", bad, err)
	}
}

func TestScalar(t *testing.T) {
	assert.Equal(t, true, scalar("true"))
	assert.Equal(t, json.Number("-1.5"), scalar("-1.5"))
	assert.Equal(t, "NaN", scalar("NaN"))
	assert.Equal(t, "0x10", scalar("0x10"))
	assert.Equal(t, "", scalar(""))
}

func TestReadBody(t *testing.T) {
	body, err := readBody(strings.NewReader("name: piped\nspec:\n  size: 2\n"), "-", []string{"spec.size=4"})
	require.NoError(t, err)
	assert.Equal(t, "piped", body.String("name"))
	assert.Equal(t, json.Number("4"), body.Path("spec", "size"))

	_, err = readBody(strings.NewReader("- a\n- b\n"), "-", nil)
	assert.True(t, errors.IsInvalidInput(err), "got %v", err)

	_, err = readBody(nil, "/does/not/exist.yaml", nil)
	assert.True(t, errors.IsInvalidInput(err), "got %v", err)

	body, err = readBody(nil, "", nil)
	require.NoError(t, err)
	assert.Empty(t, body.Keys())
}

func TestParseFilters(t *testing.T) {
	f, err := parseFilters([]string{"name=a", "state_ne=removing", "name=b", "name=c"})
	require.NoError(t, err)
	assert.Equal(t, hyper.Filters{
		"name":     []string{"a", "b", "c"},
		"state_ne": "removing",
	}, f)

	f, err = parseFilters(nil)
	require.NoError(t, err)
	assert.Nil(t, f)

	_, err = parseFilters([]string{"broken"})
	assert.True(t, errors.IsInvalidInput(err))
}
