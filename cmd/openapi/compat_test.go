package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportedDocumentParses(t *testing.T) {
	raw, err := exportYAML()
	require.NoError(t, err)

	spec, err := parseSpec(raw)
	require.NoError(t, err)
	require.Contains(t, spec.Paths, "/groups/{id}")
	assert.Contains(t, spec.Paths["/groups/{id}"], "delete")
	assert.Contains(t, spec.Paths["/groups/{id}"]["delete"].Responses, "403")

	assert.Empty(t, compare(spec, spec))
}

func TestCompareReportsRemovals(t *testing.T) {
	base, err := parseSpec([]byte(`
paths:
  /groups:
    get:
      responses:
        "200": {}
        "400": {}
    post:
      responses:
        "201": {}
  /posts/{id}:
    get:
      responses:
        "200": {}
`))
	require.NoError(t, err)
	revision, err := parseSpec([]byte(`
paths:
  /groups:
    get:
      responses:
        "200": {}
    parameters: []
`))
	require.NoError(t, err)

	assert.Equal(t, []string{
		"removed operation: POST /groups",
		"removed path: /posts/{id}",
		"removed response code: GET /groups -> 400",
	}, compare(base, revision))
}

func TestParseSpecRequiresPaths(t *testing.T) {
	_, err := parseSpec([]byte("swagger: '2.0'\n"))
	assert.Error(t, err)
}
