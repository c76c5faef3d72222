package files

import (
	"path/filepath"
	"strings"

	doublestar "github.com/bmatcuk/doublestar/v4"
)

var defaultExcludeDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
	"vendor":       true,
	"dist":         true,
	"build":        true,
	".venv":        true,
	"venv":         true,
	"__pycache__":  true,
}

// suffixes that are never useful to redact
var defaultExcludeFileSuffixes = []string{
	".min.js", ".map",
	".png", ".jpg", ".jpeg", ".gif", ".webp",
	".pdf", ".zip", ".gz", ".tar", ".tgz", ".7z",
	".jar", ".class", ".exe", ".dll", ".so",
	".wasm", ".pyc",
}

// state files written by textredact itself
var ownFiles = map[string]bool{
	".textredactcache.json":   true,
	".textredact_audit.jsonl": true,
}

func isDefaultDirExcluded(name string) bool {
	return defaultExcludeDirs[name]
}

func isDefaultFileExcluded(lowerRel string) bool {
	if ownFiles[filepath.Base(lowerRel)] {
		return true
	}
	for _, s := range defaultExcludeFileSuffixes {
		if strings.HasSuffix(lowerRel, s) {
			return true
		}
	}
	return false
}

// Allowed reports whether relPath passes the comma-separated include and
// exclude globs. Includes, when present, are a positive filter; excludes are
// subtracted last. Patterns match either the full slash path or the base name.
func Allowed(relPath, include, exclude string) bool {
	rp := filepath.ToSlash(relPath)
	includes := ParseGlobs(include)
	excludes := ParseGlobs(exclude)
	if len(includes) > 0 && !matchAnyGlob(rp, includes) {
		return false
	}
	if len(excludes) > 0 && matchAnyGlob(rp, excludes) {
		return false
	}
	return true
}

// ParseGlobs splits a comma-separated glob list. Each pattern is also kept
// with leading "./" and "**/" removed so base-name matching works.
func ParseGlobs(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
		if t := trimGlobPrefix(p); t != p {
			out = append(out, t)
		}
	}
	return out
}

// ValidGlobs returns the first malformed pattern in s, if any.
func ValidGlobs(s string) (string, bool) {
	for _, g := range ParseGlobs(s) {
		if !doublestar.ValidatePattern(g) {
			return g, false
		}
	}
	return "", true
}

func matchAnyGlob(p string, globs []string) bool {
	base := p
	if i := strings.LastIndex(p, "/"); i >= 0 {
		base = p[i+1:]
	}
	for _, g := range globs {
		if ok, _ := doublestar.Match(g, p); ok {
			return true
		}
		if ok, _ := doublestar.Match(g, base); ok {
			return true
		}
	}
	return false
}

func trimGlobPrefix(g string) string {
	s := strings.TrimPrefix(g, "./")
	for strings.HasPrefix(s, "**/") {
		s = strings.TrimPrefix(s, "**/")
	}
	return s
}
