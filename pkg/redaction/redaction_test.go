package redaction

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const text = "foo,bar,baz,extra"

func TestRedactString_PatternsAndValues(t *testing.T) {
	b := NewBuilder().
		AddPattern(MustRule("(foo)", 1)).
		AddPatterns([]Rule{MustRule("(bar)", 1), MustRule("(baz)", 1)})
	assert.Equal(t, "[TEXT_REDACTED],[TEXT_REDACTED],[TEXT_REDACTED],extra", b.Build().RedactString(text))

	vb := NewBuilder()
	require.NoError(t, vb.AddValue("foo"))
	require.NoError(t, vb.AddValues([]string{"bar", "baz"}))
	assert.Equal(t, "[TEXT_REDACTED],[TEXT_REDACTED],[TEXT_REDACTED],extra", vb.Build().RedactString(text))
}

func TestKeysAndPaths_AreCopies(t *testing.T) {
	r := NewBuilder().AddKey("token").AddKey("api_key").AddPath("db.password").AddPath("auth.*").Build()
	assert.Equal(t, []string{"api_key", "token"}, r.Keys())
	assert.Equal(t, []string{"auth.*", "db.password"}, r.Paths())

	keys := r.Keys()
	keys[0] = "changed"
	assert.Equal(t, []string{"api_key", "token"}, r.Keys())

	out, err := r.RedactJSON(`{"api_key":"k","changed":"c"}`)
	require.NoError(t, err)
	assert.Equal(t, `{"api_key":"[TEXT_REDACTED]","changed":"c"}`, out)
}

func TestRedactString_CustomPlaceholder(t *testing.T) {
	r := NewBuilder().Placeholder("[HIDDEN_TEXT]").AddPattern(MustRule("(bar)", 1)).Build()
	assert.Equal(t, "foo,[HIDDEN_TEXT],baz,extra", r.RedactString(text))
	assert.Equal(t, "[HIDDEN_TEXT]", r.Placeholder())
}

func TestRedactString_GroupAcrossRules(t *testing.T) {
	r := NewBuilder().AddPatterns([]Rule{
		MustRule("(bar)", 1),
		MustRule("(foo),(bar),(baz)", 3),
	}).Build()
	assert.Equal(t, "foo,[TEXT_REDACTED],[TEXT_REDACTED],extra", r.RedactString(text))
}

func TestRedactStringWithInfo(t *testing.T) {
	r := NewBuilder().AddPattern(MustRule("(bar)", 1)).Build()
	res := r.RedactStringWithInfo("foo\nbar")
	assert.Equal(t, "foo\n[TEXT_REDACTED]", res.Output)
	require.Len(t, res.Captures, 1)
	assert.Equal(t, Position{Line: 2, StartOffset: 4, EndOffset: 7}, *res.Captures[0].Position)
}

func TestBuilder_AddValuesAllOrNothing(t *testing.T) {
	b := NewBuilder()
	err := b.AddValues([]string{"ok", ""})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidPattern))
	var ipe *InvalidPatternError
	require.True(t, errors.As(err, &ipe))
	assert.Equal(t, []string{""}, ipe.Values)
	assert.Equal(t, "ok", b.Build().RedactString("ok"))
}

func TestBuilder_BuildIsSnapshot(t *testing.T) {
	b := NewBuilder().AddPattern(MustRule("(a)", 1))
	first := b.Build()
	b.AddPattern(MustRule("(b)", 1))
	assert.Equal(t, "[TEXT_REDACTED] b", first.RedactString("a b"))
	assert.Equal(t, "[TEXT_REDACTED] [TEXT_REDACTED]", b.Build().RedactString("a b"))
}

func TestNew_Options(t *testing.T) {
	r, err := New(Options{
		Placeholder: "#",
		Rules:       []Rule{MustRule(`pw=(\S+)`, 1)},
		Values:      []string{"tok"},
		Keys:        []string{"k"},
		Paths:       []string{"a.*"},
		Workers:     2,
	})
	require.NoError(t, err)
	assert.Equal(t, "pw=# #", r.RedactString("pw=x tok"))
	out, err := r.RedactJSON(`{"a":{"x":1},"k":[1,2],"z":"tok"}`)
	require.NoError(t, err)
	assert.Equal(t, `{"a":"#","k":["#","#"],"z":"#"}`, out)

	_, err = New(Options{Values: []string{""}})
	assert.True(t, errors.Is(err, ErrInvalidPattern))
}

func TestRedactReader(t *testing.T) {
	r := NewBuilder().AddPattern(MustRule("(bar)", 1)).Build()
	out, err := r.RedactReader(strings.NewReader(text))
	require.NoError(t, err)
	assert.Equal(t, "foo,[TEXT_REDACTED],baz,extra", out)

	res, err := r.RedactReaderWithInfo(strings.NewReader(text))
	require.NoError(t, err)
	require.Len(t, res.Captures, 1)
	assert.Equal(t, 4, res.Captures[0].Position.StartOffset)
}

func TestRedactReader_InvalidUTF8(t *testing.T) {
	r := NewBuilder().Build()
	_, err := r.RedactReader(bytes.NewReader([]byte{'o', 'k', 0xff, 'x'}))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrEncoding))
	var ee *EncodingError
	require.True(t, errors.As(err, &ee))
	assert.Equal(t, 2, ee.Offset)

	_, err = r.RedactReaderWithInfo(bytes.NewReader([]byte{0xc3}))
	assert.True(t, errors.Is(err, ErrEncoding))
}

func TestRedactReader_ReadError(t *testing.T) {
	boom := errors.New("boom")
	_, err := NewBuilder().Build().RedactReader(iotest.ErrReader(boom))
	require.Error(t, err)
	assert.True(t, errors.Is(err, boom))
}

func TestRedactJSON(t *testing.T) {
	json := `{
		"all-path": {"b": {"key": "redact_me"}, "foo": "redact_me", "key": "redact_me"},
		"specific-key": {"b": {"key": "skip-redaction"}, "foo": "skip-redaction", "key": "redact_me"},
		"key": "redact_me",
		"skip": "skip-redaction",
		"by-value": "bar",
		"by-pattern": "redact-by-pattern"
	}`
	b := NewBuilder().
		AddPattern(MustRule("(redact-by-pattern)", 1)).
		AddPath("all-path.*").
		AddPath("specific-key.key").
		AddKey("key")
	require.NoError(t, b.AddValue("bar"))

	out, err := b.Build().RedactJSON(json)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"all-path": "[TEXT_REDACTED]",
		"specific-key": {"b": {"key": "[TEXT_REDACTED]"}, "foo": "skip-redaction", "key": "[TEXT_REDACTED]"},
		"key": "[TEXT_REDACTED]",
		"skip": "skip-redaction",
		"by-value": "[TEXT_REDACTED]",
		"by-pattern": "[TEXT_REDACTED]"
	}`, out)
}

func TestRedactJSON_ValuesMaskedInsideKeys(t *testing.T) {
	b := NewBuilder()
	require.NoError(t, b.AddValue("hunter2"))
	out, err := b.Build().RedactJSON(`{"hunter2":"x","note":"hunter2"}`)
	require.NoError(t, err)
	assert.Equal(t, `{"[TEXT_REDACTED]":"x","note":"[TEXT_REDACTED]"}`, out)
}

func TestRedactJSON_ParseError(t *testing.T) {
	_, err := NewBuilder().AddKey("a").Build().RedactJSON(`{"a":`)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrParse))
	var pe *ParseError
	assert.True(t, errors.As(err, &pe))
}

func TestRedactJSONValue(t *testing.T) {
	in := map[string]any{"user": "bob", "creds": map[string]any{"token": "abc"}}
	out, err := NewBuilder().AddPath("creds.*").Build().RedactJSONValue(in)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"user": "bob", "creds": "[TEXT_REDACTED]"}, out)

	_, err = NewBuilder().Build().RedactJSONValue(make(chan int))
	assert.Error(t, err)
}

func TestRedactYAML(t *testing.T) {
	b := NewBuilder().Placeholder("REDACTED").AddKey("password")
	require.NoError(t, b.AddValue("s3cr3t"))
	out, err := b.Build().RedactYAML("db:\n  password: hunter2 # rotate\n  note: uses s3cr3t\n")
	require.NoError(t, err)
	assert.Equal(t, "db:\n  password: REDACTED # rotate\n  note: uses REDACTED\n", out)
}

