package redaction

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/redactyl/textredact/internal/pattern"
	"github.com/redactyl/textredact/internal/tree"
	"github.com/redactyl/textredact/internal/types"
)

// DefaultPlaceholder replaces redacted content unless another is configured.
const DefaultPlaceholder = "[TEXT_REDACTED]"

// Re-exported so callers never import internal packages.
type (
	Rule     = pattern.Rule
	Spec     = pattern.Spec
	Capture  = types.Capture
	Position = types.Position
	Result   = types.Result
)

// NewRule compiles a rule redacting capture group group of expr.
func NewRule(expr string, group int) (Rule, error) { return pattern.NewRule(expr, group) }

// MustRule is like NewRule but panics on a bad expression.
func MustRule(expr string, group int) Rule { return pattern.MustRule(expr, group) }

// Options is the plain-struct form of a Builder, convenient for config files
// and request handlers.
type Options struct {
	Placeholder string
	Rules       []Rule
	Values      []string
	Keys        []string
	Paths       []string
	Workers     int
}

// New builds a Redactor from opts. It fails only when a value cannot be
// turned into a rule.
func New(opts Options) (*Redactor, error) {
	b := NewBuilder().Placeholder(opts.Placeholder).Workers(opts.Workers).AddPatterns(opts.Rules)
	if err := b.AddValues(opts.Values); err != nil {
		return nil, err
	}
	for _, k := range opts.Keys {
		b.AddKey(k)
	}
	for _, p := range opts.Paths {
		b.AddPath(p)
	}
	return b.Build(), nil
}

// Builder accumulates rules, keys and paths. Everything is append-only.
type Builder struct {
	placeholder string
	workers     int
	rules       []Rule
	keys        []string
	paths       []string
}

// NewBuilder starts an empty configuration using DefaultPlaceholder.
func NewBuilder() *Builder {
	return &Builder{placeholder: DefaultPlaceholder}
}

// Placeholder sets the replacement text. An empty string keeps the current one.
func (b *Builder) Placeholder(s string) *Builder {
	if s != "" {
		b.placeholder = s
	}
	return b
}

// Workers bounds parallel rule evaluation; see pattern.WithWorkers.
func (b *Builder) Workers(n int) *Builder {
	b.workers = n
	return b
}

func (b *Builder) AddPattern(r Rule) *Builder {
	b.rules = append(b.rules, r)
	return b
}

func (b *Builder) AddPatterns(rs []Rule) *Builder {
	b.rules = append(b.rules, rs...)
	return b
}

// AddValue redacts every occurrence of the literal value.
func (b *Builder) AddValue(v string) error {
	return b.AddValues([]string{v})
}

// AddValues redacts each literal. On failure nothing is added and the error
// names every bad value. An empty literal is rejected as an invalid pattern
// instead of being accepted as a rule that never matches.
func (b *Builder) AddValues(vs []string) error {
	if len(vs) == 0 {
		return nil
	}
	rules, err := pattern.FromValues(vs)
	if err != nil {
		return err
	}
	b.rules = append(b.rules, rules...)
	return nil
}

// AddKey redacts JSON/YAML values stored under key at any depth.
func (b *Builder) AddKey(k string) *Builder {
	b.keys = append(b.keys, k)
	return b
}

// AddPath redacts the JSON/YAML value at a dotted path; "a.*" collapses the
// whole value under "a".
func (b *Builder) AddPath(p string) *Builder {
	b.paths = append(b.paths, p)
	return b
}

// Build returns an immutable Redactor. The builder may keep being used; later
// additions do not affect Redactors already built.
func (b *Builder) Build() *Redactor {
	tr := tree.New(b.placeholder)
	for _, k := range b.keys {
		tr.AddKey(k)
	}
	for _, p := range b.paths {
		tr.AddPath(p)
	}
	return &Redactor{
		engine: pattern.New(b.placeholder, b.rules, pattern.WithWorkers(b.workers)),
		tree:   tr,
	}
}

// Redactor is safe for concurrent use.
type Redactor struct {
	engine *pattern.Engine
	tree   *tree.Redactor
}

// Placeholder returns the replacement text.
func (r *Redactor) Placeholder() string { return r.engine.Placeholder() }

// Engine exposes the pattern engine.
func (r *Redactor) Engine() *pattern.Engine { return r.engine }

// Keys returns the registered JSON/YAML key names, sorted.
func (r *Redactor) Keys() []string {
	keys := r.tree.Keys()
	sort.Strings(keys)
	return keys
}

// Paths returns the registered JSON/YAML paths, sorted. Subtree paths keep
// their ".*" suffix.
func (r *Redactor) Paths() []string {
	paths := r.tree.Paths()
	sort.Strings(paths)
	return paths
}

// Redact runs the pattern rules over text.
func (r *Redactor) Redact(text string, withPositions bool) Result {
	return r.engine.Redact(text, withPositions)
}

// RedactString returns text with every rule match replaced.
func (r *Redactor) RedactString(text string) string {
	return r.engine.Redact(text, false).Output
}

// RedactStringWithInfo also reports each capture with its line and offsets.
func (r *Redactor) RedactStringWithInfo(text string) Result {
	return r.engine.Redact(text, true)
}

// RedactReader reads rd to the end and redacts it as text.
func (r *Redactor) RedactReader(rd io.Reader) (string, error) {
	s, err := readText(rd)
	if err != nil {
		return "", err
	}
	return r.RedactString(s), nil
}

// RedactReaderWithInfo is RedactReader with capture positions.
func (r *Redactor) RedactReaderWithInfo(rd io.Reader) (Result, error) {
	s, err := readText(rd)
	if err != nil {
		return Result{}, err
	}
	return r.RedactStringWithInfo(s), nil
}

func readText(rd io.Reader) (string, error) {
	b, err := io.ReadAll(rd)
	if err != nil {
		return "", fmt.Errorf("read input: %w", err)
	}
	if err := CheckUTF8(b); err != nil {
		return "", err
	}
	return string(b), nil
}

// RedactJSON masks pattern and value matches in the raw text, then parses the
// result and applies key and path rules. The output is re-serialized with
// sorted keys.
func (r *Redactor) RedactJSON(s string) (string, error) {
	return r.tree.RedactString(r.RedactString(s))
}

// RedactJSONValue redacts any value encoding/json can marshal and returns the
// decoded redacted tree.
func (r *Redactor) RedactJSONValue(v any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal value: %w", err)
	}
	out, err := r.RedactJSON(string(b))
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(strings.NewReader(out))
	dec.UseNumber()
	var redacted any
	if err := dec.Decode(&redacted); err != nil {
		return nil, &ParseError{Format: "json", Err: err}
	}
	return redacted, nil
}

// RedactYAML is the YAML counterpart of RedactJSON. Comments and key order
// survive.
func (r *Redactor) RedactYAML(s string) (string, error) {
	return r.tree.RedactYAML(r.RedactString(s))
}
