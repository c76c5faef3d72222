package tree

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	yaml "gopkg.in/yaml.v3"
)

const yamlDoc = `a:
  b:
    key: x # keep comment
  foo: y
list:
  - one
  - two
key: w
`

func decodeYAML(t *testing.T, s string) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(s), &m))
	return m
}

func TestRedactYAML_KeysAndSequences(t *testing.T) {
	out, err := New("REDACTED").AddKey("key").AddKey("list").RedactYAML(yamlDoc)
	require.NoError(t, err)
	assert.Contains(t, out, "# keep comment")
	assert.Equal(t, map[string]any{
		"a":    map[string]any{"b": map[string]any{"key": "REDACTED"}, "foo": "y"},
		"list": []any{"REDACTED", "REDACTED"},
		"key":  "REDACTED",
	}, decodeYAML(t, out))
}

func TestRedactYAML_Paths(t *testing.T) {
	out, err := New("REDACTED").AddPath("a.*").RedactYAML(yamlDoc)
	require.NoError(t, err)
	got := decodeYAML(t, out)
	assert.Equal(t, "REDACTED", got["a"])
	assert.Equal(t, "w", got["key"])

	out, err = New("REDACTED").AddPath("a.b.key").RedactYAML(yamlDoc)
	require.NoError(t, err)
	got = decodeYAML(t, out)
	assert.Equal(t, map[string]any{"b": map[string]any{"key": "REDACTED"}, "foo": "y"}, got["a"])
}

func TestRedactYAML_KeepsKeyOrder(t *testing.T) {
	out, err := New("REDACTED").AddKey("foo").RedactYAML("z: 1\nfoo: 2\na: 3\n")
	require.NoError(t, err)
	assert.Less(t, strings.Index(out, "z:"), strings.Index(out, "foo:"))
	assert.Less(t, strings.Index(out, "foo:"), strings.Index(out, "a:"))
}

func TestRedactYAML_MultiDocument(t *testing.T) {
	out, err := New("REDACTED").AddKey("key").RedactYAML("a: 1\n---\nkey: 2\n")
	require.NoError(t, err)
	parts := strings.Split(out, "---\n")
	require.Len(t, parts, 2)
	assert.Equal(t, map[string]any{"a": 1}, decodeYAML(t, parts[0]))
	assert.Equal(t, map[string]any{"key": "REDACTED"}, decodeYAML(t, parts[1]))
}

func TestRedactYAML_ParseError(t *testing.T) {
	_, err := New("REDACTED").RedactYAML("a: [1, 2\n")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrParse))
}
