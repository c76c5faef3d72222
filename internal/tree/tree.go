// Package tree redacts values inside decoded JSON and YAML documents, either
// by bare key name at any depth or by dotted path from the document root.
//
// Paths are object keys joined with "." and arrays never add a segment. A
// path registered with a trailing ".*" collapses that key's whole value.
package tree

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrParse is matched by errors.Is for every ParseError.
var ErrParse = errors.New("parse error")

// ParseError wraps the decoder diagnostic for malformed input.
type ParseError struct {
	Format string
	Err    error
}

func (e *ParseError) Error() string { return fmt.Sprintf("parse %s: %v", e.Format, e.Err) }

func (e *ParseError) Unwrap() error { return e.Err }

func (e *ParseError) Is(target error) bool { return target == ErrParse }

// Redactor holds the keys and paths to redact. Add* calls belong to the
// build phase; once redaction starts the Redactor is only read.
type Redactor struct {
	placeholder string
	keys        map[string]struct{}
	paths       map[string]struct{}
	prefixes    map[string]struct{}
}

// New returns an empty Redactor that writes placeholder over matched values.
func New(placeholder string) *Redactor {
	return &Redactor{
		placeholder: placeholder,
		keys:        map[string]struct{}{},
		paths:       map[string]struct{}{},
		prefixes:    map[string]struct{}{},
	}
}

// AddKey redacts every value stored under key, at any depth.
func (r *Redactor) AddKey(key string) *Redactor {
	r.keys[key] = struct{}{}
	return r
}

// AddPath redacts the value at a dotted path. "a.b.*" registers the subtree
// rooted at "a.b".
func (r *Redactor) AddPath(path string) *Redactor {
	if strings.HasSuffix(path, "*") {
		p := strings.TrimSuffix(strings.TrimSuffix(path, "*"), ".")
		r.prefixes[p] = struct{}{}
		return r
	}
	r.paths[path] = struct{}{}
	return r
}

// Placeholder returns the replacement value.
func (r *Redactor) Placeholder() string { return r.placeholder }

// Empty reports whether no keys or paths are registered.
func (r *Redactor) Empty() bool {
	return len(r.keys) == 0 && len(r.paths) == 0 && len(r.prefixes) == 0
}

// Keys returns the registered key names.
func (r *Redactor) Keys() []string { return setKeys(r.keys) }

// Paths returns the registered paths; subtree paths carry their ".*" suffix.
func (r *Redactor) Paths() []string {
	out := setKeys(r.paths)
	for p := range r.prefixes {
		out = append(out, p+".*")
	}
	return out
}

func setKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

func (r *Redactor) matchesPath(path string) bool {
	if _, ok := r.paths[path]; ok {
		return true
	}
	_, ok := r.prefixes[path]
	return ok
}

func (r *Redactor) matchesKey(key string) bool {
	_, ok := r.keys[key]
	return ok
}

func childPath(parent, key string) string {
	if parent == "" {
		return key
	}
	return parent + "." + key
}

// Redact rewrites a tree produced by encoding/json in place. Only an object
// root is walked.
func (r *Redactor) Redact(v any) {
	if obj, ok := v.(map[string]any); ok {
		r.walk(obj, "")
	}
}

func (r *Redactor) walk(obj map[string]any, path string) {
	for key, val := range obj {
		child := childPath(path, key)
		switch {
		case r.matchesPath(child):
			obj[key] = r.placeholder
		case r.matchesKey(key):
			if arr, ok := val.([]any); ok {
				for i := range arr {
					arr[i] = r.placeholder
				}
				continue
			}
			obj[key] = r.placeholder
		default:
			if nested, ok := val.(map[string]any); ok {
				r.walk(nested, child)
			}
		}
	}
}

// RedactString parses s as one JSON document, redacts it and serializes it
// back. Object keys come out sorted and numbers keep their literal form.
func (r *Redactor) RedactString(s string) (string, error) {
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return "", &ParseError{Format: "json", Err: err}
	}
	if _, err := dec.Token(); err != io.EOF {
		if err == nil {
			err = errors.New("unexpected data after top-level value")
		}
		return "", &ParseError{Format: "json", Err: err}
	}
	r.Redact(doc)
	return encodeJSON(doc, "")
}

func encodeJSON(v any, indent string) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if indent != "" {
		enc.SetIndent("", indent)
	}
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// Indent re-serializes a JSON document with two-space indentation.
func Indent(s string) (string, error) {
	var doc any
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return "", &ParseError{Format: "json", Err: err}
	}
	return encodeJSON(doc, "  ")
}
