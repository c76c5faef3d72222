package pattern

import (
	"runtime"
	"strings"

	"github.com/redactyl/textredact/internal/types"
	"golang.org/x/sync/errgroup"
)

// Engine applies an ordered rule set to text. It is read-only after New and
// safe for concurrent use.
type Engine struct {
	placeholder string
	rules       []Rule
	workers     int
}

// Option configures an Engine.
type Option func(*Engine)

// WithWorkers bounds how many rules are evaluated concurrently within a
// single Redact call. Values <= 0 mean GOMAXPROCS; 1 evaluates sequentially.
func WithWorkers(n int) Option {
	return func(e *Engine) { e.workers = n }
}

// New returns an engine over a copy of rules.
func New(placeholder string, rules []Rule, opts ...Option) *Engine {
	e := &Engine{
		placeholder: placeholder,
		rules:       append([]Rule(nil), rules...),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Placeholder returns the replacement text.
func (e *Engine) Placeholder() string { return e.placeholder }

// Len returns the number of rules.
func (e *Engine) Len() int { return len(e.rules) }

// Rules returns a copy of the configured rules in order.
func (e *Engine) Rules() []Rule { return append([]Rule(nil), e.rules...) }

// Redact finds every capture in text and replaces one first occurrence of
// each, in rule order then match order. Matching always runs against the
// original text, so a later rule never sees placeholders inserted by an
// earlier one, while substitution may land inside them.
func (e *Engine) Redact(text string, withPositions bool) types.Result {
	var captures []types.Capture
	for _, found := range e.collect(text, withPositions) {
		captures = append(captures, found...)
	}
	out := text
	for _, c := range captures {
		out = strings.Replace(out, c.Text, e.placeholder, 1)
	}
	return types.Result{Output: out, Captures: captures}
}

// collect evaluates the rules, possibly in parallel, and returns captures
// indexed by rule position.
func (e *Engine) collect(text string, withPositions bool) [][]types.Capture {
	found := make([][]types.Capture, len(e.rules))
	workers := e.workerCount()
	if workers <= 1 {
		for i, r := range e.rules {
			found[i] = capture(text, r, withPositions)
		}
		return found
	}
	var g errgroup.Group
	g.SetLimit(workers)
	for i, r := range e.rules {
		g.Go(func() error {
			found[i] = capture(text, r, withPositions)
			return nil
		})
	}
	_ = g.Wait()
	return found
}

func (e *Engine) workerCount() int {
	n := e.workers
	if n <= 0 {
		n = runtime.GOMAXPROCS(0)
	}
	if n > len(e.rules) {
		n = len(e.rules)
	}
	return n
}

// capture returns the non-empty group matches of r in text, left to right.
func capture(text string, r Rule, withPositions bool) []types.Capture {
	if r.Expr == nil || r.Group < 0 || r.Group > r.Expr.NumSubexp() {
		return nil
	}
	var out []types.Capture
	line, counted := 1, 0
	for _, m := range r.Expr.FindAllStringSubmatchIndex(text, -1) {
		start, end := m[2*r.Group], m[2*r.Group+1]
		if start < 0 || start == end {
			continue
		}
		c := types.Capture{Text: text[start:end], Rule: r.ID()}
		if withPositions {
			// matches arrive in increasing order, so count newlines incrementally
			line += strings.Count(text[counted:m[0]], "\n")
			counted = m[0]
			c.Position = &types.Position{Line: line, StartOffset: m[0], EndOffset: m[1]}
		}
		out = append(out, c)
	}
	return out
}
