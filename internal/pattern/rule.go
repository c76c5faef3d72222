package pattern

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// ErrInvalidPattern is matched by errors.Is for every InvalidPatternError.
var ErrInvalidPattern = errors.New("invalid pattern")

// Rule pairs an expression with the capture group to redact. Group 0 is the
// whole match. A group the expression does not have never yields captures.
// Name, when set, identifies the rule in captures and reports in place of
// the expression.
type Rule struct {
	Expr  *regexp.Regexp
	Group int
	Name  string
}

// Spec is the serialized form of a Rule as it appears in config files and
// request bodies.
type Spec struct {
	Pattern string `yaml:"pattern" json:"pattern"`
	Group   int    `yaml:"group" json:"group"`
}

// NewRule compiles expr and binds it to group.
func NewRule(expr string, group int) (Rule, error) {
	re, err := regexp.Compile(expr)
	if err != nil {
		return Rule{}, err
	}
	return Rule{Expr: re, Group: group}, nil
}

// MustRule is like NewRule but panics on a bad expression.
func MustRule(expr string, group int) Rule {
	r, err := NewRule(expr, group)
	if err != nil {
		panic(fmt.Sprintf("pattern: %v", err))
	}
	return r
}

// String returns the expression source.
func (r Rule) String() string {
	if r.Expr == nil {
		return ""
	}
	return r.Expr.String()
}

// ID names the rule in captures, reports and audit records. Rules built from
// literal values are named by a hash so the literal never leaves the engine.
func (r Rule) ID() string {
	if r.Name != "" {
		return r.Name
	}
	return r.String()
}

// ValueID is the ID given to the rule built from a literal value.
func ValueID(value string) string {
	return fmt.Sprintf("value-%016x", xxhash.Sum64String(value))
}

// Spec returns the serialized form of r.
func (r Rule) Spec() Spec {
	return Spec{Pattern: r.String(), Group: r.Group}
}

// InvalidPatternError reports every value or expression that could not be
// turned into a rule. Values and Errs are index-aligned.
type InvalidPatternError struct {
	Values []string
	Errs   []error
}

func (e *InvalidPatternError) Error() string {
	return fmt.Sprintf("could not parse %s to regex", strings.Join(e.Values, ","))
}

func (e *InvalidPatternError) Is(target error) bool { return target == ErrInvalidPattern }

func (e *InvalidPatternError) Unwrap() []error { return e.Errs }

// FromValue turns a literal into a rule matching exactly that literal in
// group 1. The rule is named by ValueID.
func FromValue(value string) (Rule, error) {
	rules, err := FromValues([]string{value})
	if err != nil {
		return Rule{}, err
	}
	return rules[0], nil
}

// FromValues converts every literal and reports all failures together.
// Empty literals are rejected since they can never redact anything.
func FromValues(values []string) ([]Rule, error) {
	var bad InvalidPatternError
	rules := make([]Rule, 0, len(values))
	for _, v := range values {
		if v == "" {
			bad.Values = append(bad.Values, v)
			bad.Errs = append(bad.Errs, errors.New("empty value"))
			continue
		}
		r, err := NewRule("("+regexp.QuoteMeta(v)+")", 1)
		if err != nil {
			bad.Values = append(bad.Values, v)
			bad.Errs = append(bad.Errs, err)
			continue
		}
		r.Name = ValueID(v)
		rules = append(rules, r)
	}
	if len(bad.Values) > 0 {
		return nil, &bad
	}
	return rules, nil
}

// Compile builds rules from serialized specs, collecting every bad
// expression before failing.
func Compile(specs []Spec) ([]Rule, error) {
	var bad InvalidPatternError
	rules := make([]Rule, 0, len(specs))
	for _, s := range specs {
		if s.Group < 0 {
			bad.Values = append(bad.Values, s.Pattern)
			bad.Errs = append(bad.Errs, fmt.Errorf("negative group %d", s.Group))
			continue
		}
		r, err := NewRule(s.Pattern, s.Group)
		if err != nil {
			bad.Values = append(bad.Values, s.Pattern)
			bad.Errs = append(bad.Errs, err)
			continue
		}
		rules = append(rules, r)
	}
	if len(bad.Values) > 0 {
		return nil, &bad
	}
	return rules, nil
}
