package textredact

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/redactyl/textredact/internal/audit"
	"github.com/redactyl/textredact/internal/pattern"
	"github.com/redactyl/textredact/internal/report"
	"github.com/redactyl/textredact/pkg/redaction"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// resetFlags restores every flag to its default so rootCmd can run again.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.PersistentFlags().VisitAll(reset)
	cmd.Flags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

type result struct {
	stdout string
	stderr string
	err    error
}

// run executes the CLI in an isolated working directory with no global config.
func run(t *testing.T, dir, stdin string, args ...string) result {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("TEXTREDACT_LOG_LEVEL", "")
	t.Setenv("TEXTREDACT_LOG_FORMAT", "")
	t.Chdir(dir)
	resetFlags(rootCmd)

	var out, errb bytes.Buffer
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errb)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return result{stdout: out.String(), stderr: errb.String(), err: err}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestText_Stdin(t *testing.T) {
	res := run(t, t.TempDir(), "user=bob password=hunter2\n",
		"text", "--pattern", `1:password=(\S+)`, "--placeholder", "***")
	require.NoError(t, res.err)
	assert.Equal(t, "user=bob password=***\n", res.stdout)
	assert.Empty(t, res.stderr)
}

func TestText_FileAndValues(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "in.txt", "foo,bar,baz")
	res := run(t, dir, "", "text", "--value", "foo", "--value", "bar", p)
	require.NoError(t, res.err)
	assert.Equal(t, "[TEXT_REDACTED],[TEXT_REDACTED],baz", res.stdout)
}

func TestText_InfoJSONReport(t *testing.T) {
	res := run(t, t.TempDir(), "a\nb\nfoo", "text", "--value", "foo", "--info", "--format", "json")
	require.NoError(t, res.err)
	assert.Equal(t, "a\nb\n[TEXT_REDACTED]", res.stdout)

	var findings []report.Finding
	require.NoError(t, json.Unmarshal([]byte(res.stderr), &findings), res.stderr)
	require.Len(t, findings, 1)
	assert.Equal(t, 3, findings[0].Line)
	assert.Equal(t, 4, findings[0].StartOffset)
	assert.Equal(t, 7, findings[0].EndOffset)
	assert.Equal(t, report.Fingerprint("foo"), findings[0].Fingerprint)
	assert.NotContains(t, res.stderr, `"foo"`)
}

func TestText_InfoTextReport(t *testing.T) {
	res := run(t, t.TempDir(), "token=abc", "text", "--pattern", `1:token=(\w+)`, "--info")
	require.NoError(t, res.err)
	assert.Contains(t, res.stderr, "Captures: 1")
	assert.Contains(t, res.stderr, `token=(\w+)`)
}

func TestReports_NeverContainLiteralValues(t *testing.T) {
	const secret = "s3cr3tpw99"
	for _, format := range []string{"text", "table", "json", "sarif"} {
		t.Run(format, func(t *testing.T) {
			res := run(t, t.TempDir(), "my pw s3cr3tpw99\n", "text", "--value", secret, "--info", "--format", format)
			require.NoError(t, res.err)
			assert.Equal(t, "my pw [TEXT_REDACTED]\n", res.stdout)
			if format != "table" {
				assert.Contains(t, res.stderr, pattern.ValueID(secret))
			}
			assert.NotContains(t, res.stderr, secret)
			assert.NotContains(t, res.stderr, "s3cr")
		})
	}

	t.Run("audit", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "app.log", "login hunter2\n")
		res := run(t, dir, "", "files", dir, "--value", "hunter2", "--in-place", "--audit")
		require.NoError(t, res.err)
		raw, err := os.ReadFile(audit.New(dir).Path())
		require.NoError(t, err)
		assert.NotContains(t, string(raw), "hunter2")
		assert.Contains(t, string(raw), pattern.ValueID("hunter2"))
	})
}

func TestText_Errors(t *testing.T) {
	t.Run("bad pattern", func(t *testing.T) {
		res := run(t, t.TempDir(), "x", "text", "--pattern", "(", "--pattern", "[")
		require.Error(t, res.err)
		assert.ErrorIs(t, res.err, redaction.ErrInvalidPattern)
		assert.Contains(t, res.err.Error(), "(,[")
	})
	t.Run("bad format", func(t *testing.T) {
		res := run(t, t.TempDir(), "x", "text", "--format", "xml")
		assert.ErrorContains(t, res.err, "unknown format")
	})
	t.Run("invalid utf-8", func(t *testing.T) {
		res := run(t, t.TempDir(), "ok\xff", "text")
		assert.ErrorIs(t, res.err, redaction.ErrEncoding)
	})
	t.Run("missing file", func(t *testing.T) {
		res := run(t, t.TempDir(), "", "text", "does-not-exist.txt")
		assert.Error(t, res.err)
	})
}

func TestJSON(t *testing.T) {
	in := `{"password":"p","a":{"b":1},"list":[{"password":"q"}],"note":"hunter2"}`
	res := run(t, t.TempDir(), in, "json", "--key", "password", "--path", "a.*", "--value", "hunter2")
	require.NoError(t, res.err)
	assert.Equal(t,
		`{"a":"[TEXT_REDACTED]","list":[{"password":"q"}],"note":"[TEXT_REDACTED]","password":"[TEXT_REDACTED]"}`+"\n",
		res.stdout)
}

func TestJSON_Pretty(t *testing.T) {
	res := run(t, t.TempDir(), `{"b":1,"a":{"token":"x"}}`, "json", "--key", "token", "--pretty")
	require.NoError(t, res.err)
	assert.Equal(t, "{\n  \"a\": {\n    \"token\": \"[TEXT_REDACTED]\"\n  },\n  \"b\": 1\n}\n", res.stdout)
}

func TestJSON_ParseError(t *testing.T) {
	res := run(t, t.TempDir(), `{"a":`, "json")
	assert.ErrorIs(t, res.err, redaction.ErrParse)
}

func TestYAML(t *testing.T) {
	res := run(t, t.TempDir(), "db:\n  password: p\n  host: h\n", "yaml", "--path", "db.password")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "password: '[TEXT_REDACTED]'")
	assert.Contains(t, res.stdout, "host: h")
}

func TestLocalConfigIsApplied(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".textredact.yml", "placeholder: \"<x>\"\nvalues: [hunter2]\n")
	res := run(t, dir, "pw hunter2", "text")
	require.NoError(t, res.err)
	assert.Equal(t, "pw <x>", res.stdout)

	// flags layer on top of the file
	res = run(t, dir, "pw hunter2 s3cret", "text", "--value", "s3cret", "--placeholder", "#")
	require.NoError(t, res.err)
	assert.Equal(t, "pw # #", res.stdout)
}

func TestExplicitConfig_Invalid(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "bad.yml", "threads: 4\n")
	res := run(t, dir, "x", "--config", p, "text")
	require.Error(t, res.err)
	assert.Contains(t, res.err.Error(), "schema validation failed")
}

func TestFiles_DryRunInPlaceAndCache(t *testing.T) {
	dir := t.TempDir()
	root := filepath.Join(dir, "logs")
	a := writeFile(t, root, "a.log", "token=qwerty\n")
	writeFile(t, root, "b.log", "nothing here\n")
	writeFile(t, root, "c.txt", "token=zzz\n")
	args := []string{"files", root, "--pattern", `1:token=(\w+)`, "--placeholder", "***", "--include", "*.log"}

	res := run(t, dir, "", args...)
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "would redact")
	assert.NotContains(t, res.stdout, "c.txt")
	got, _ := os.ReadFile(a)
	assert.Equal(t, "token=qwerty\n", string(got), "dry run must not write")

	res = run(t, dir, "", append(args, "--in-place", "--audit")...)
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "redacted")
	got, _ = os.ReadFile(a)
	assert.Equal(t, "token=***\n", string(got))
	assert.FileExists(t, filepath.Join(root, ".textredactcache.json"))

	records, err := audit.New(root).LoadHistory()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 2, records[0].FilesProcessed)
	assert.Equal(t, 1, records[0].FilesChanged)
	assert.Equal(t, 1, records[0].TotalCaptures)
	raw, _ := os.ReadFile(audit.New(root).Path())
	assert.NotContains(t, string(raw), "qwerty")

	res = run(t, dir, "", append(args, "--in-place")...)
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "cached")
	assert.NotContains(t, res.stdout, "would redact")
}

func TestFiles_OutDir(t *testing.T) {
	dir := t.TempDir()
	root := filepath.Join(dir, "src")
	writeFile(t, root, "nested/a.log", "pw hunter2\n")
	out := filepath.Join(root, "redacted")

	res := run(t, dir, "", "files", root, "--value", "hunter2", "--out", out)
	require.NoError(t, res.err)
	got, err := os.ReadFile(filepath.Join(out, "nested", "a.log"))
	require.NoError(t, err)
	assert.Equal(t, "pw [TEXT_REDACTED]\n", string(got))
	orig, _ := os.ReadFile(filepath.Join(root, "nested", "a.log"))
	assert.Equal(t, "pw hunter2\n", string(orig))

	// the output tree is never walked as input
	res = run(t, dir, "", "files", root, "--value", "hunter2", "--out", out)
	require.NoError(t, res.err)
	assert.NotContains(t, res.stdout, "redacted/nested")
}

func TestFiles_Errors(t *testing.T) {
	dir := t.TempDir()
	res := run(t, dir, "", "files", dir, "--in-place", "--out", filepath.Join(dir, "o"))
	assert.Error(t, res.err)

	res = run(t, dir, "", "files", filepath.Join(dir, "missing"))
	assert.Error(t, res.err)

	res = run(t, dir, "", "files", dir, "--include", "[abc")
	assert.ErrorContains(t, res.err, "invalid glob")
}

func TestConfigInitAndValidate(t *testing.T) {
	dir := t.TempDir()
	res := run(t, dir, "", "config", "init", "--pattern", `1:password=(\S+)`, "--value", "hunter2", "--key", "token", "--path", "auth.*")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "Wrote .textredact.yml")

	res = run(t, dir, "", "config", "validate", ".textredact.yml")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "ok (1 patterns, 1 values, 1 keys, 1 paths)")

	// the written file now drives plain invocations
	res = run(t, dir, "password=x hunter2", "text")
	require.NoError(t, res.err)
	assert.Equal(t, "password=[TEXT_REDACTED] [TEXT_REDACTED]", res.stdout)

	res = run(t, dir, "", "config", "init")
	assert.ErrorContains(t, res.err, "already exists")

	res = run(t, dir, "", "config", "init", "--force", "--placeholder", "***")
	require.NoError(t, res.err)
}

func TestConfigValidate_BrokenLocalConfigStillRuns(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".textredact.yml", "patterns:\n  - pattern: \"(\"\n")
	p := writeFile(t, dir, "other.yml", "keys: [a]\n")

	res := run(t, dir, "", "config", "validate", p)
	require.NoError(t, res.err)

	res = run(t, dir, "", "config", "validate", ".textredact.yml")
	assert.ErrorIs(t, res.err, redaction.ErrInvalidPattern)
}

func TestCompletion(t *testing.T) {
	res := run(t, t.TempDir(), "", "completion", "bash")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "textredact")

	res = run(t, t.TempDir(), "", "completion", "tcsh")
	assert.Error(t, res.err)
}

func TestParsePatternFlag(t *testing.T) {
	cases := []struct {
		in   string
		want pattern.Spec
	}{
		{`1:password=(\S+)`, pattern.Spec{Pattern: `password=(\S+)`, Group: 1}},
		{`foo`, pattern.Spec{Pattern: `foo`}},
		{`a:b`, pattern.Spec{Pattern: `a:b`}},
		{`:x`, pattern.Spec{Pattern: `:x`}},
		{`0:x:y`, pattern.Spec{Pattern: `x:y`}},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, parsePatternFlag(c.in), c.in)
	}
}

func TestPickHelpers(t *testing.T) {
	s := "cfg"
	assert.Equal(t, "cli", pickString("cli", &s))
	assert.Equal(t, "cfg", pickString("", &s))
	assert.Equal(t, "", pickString("", nil))

	n := int64(5)
	assert.Equal(t, int64(7), pickInt64(7, &n, 1))
	assert.Equal(t, int64(5), pickInt64(0, &n, 1))
	assert.Equal(t, int64(1), pickInt64(0, nil, 1))

	f := false
	assert.True(t, pickBool(true, &f))
	assert.False(t, pickBool(false, &f))
	assert.False(t, pickBool(false, nil))
}

func TestRulesetFingerprint_ChangesWithRules(t *testing.T) {
	a := redaction.NewBuilder().AddKey("x").Build()
	b := redaction.NewBuilder().AddKey("y").Build()
	c := redaction.NewBuilder().AddKey("x").Build()
	assert.NotEqual(t, rulesetFingerprint(a), rulesetFingerprint(b))
	assert.Equal(t, rulesetFingerprint(a), rulesetFingerprint(c))
}
