package textredact

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/redactyl/textredact/internal/cache"
	"github.com/redactyl/textredact/internal/config"
	"github.com/redactyl/textredact/internal/pattern"
	"github.com/redactyl/textredact/pkg/redaction"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// loadConfig returns --config when given, otherwise the local config in the
// working directory layered over the global one. Missing files are fine.
func loadConfig() (config.FileConfig, error) {
	if flagConfig != "" {
		return config.LoadFile(flagConfig)
	}
	global, err := config.LoadGlobal()
	if err != nil && !errors.Is(err, config.ErrNotFound) {
		return config.FileConfig{}, err
	}
	wd, _ := os.Getwd()
	local, err := config.LoadLocal(wd)
	if err != nil && !errors.Is(err, config.ErrNotFound) {
		return config.FileConfig{}, err
	}
	return config.Merge(global, local), nil
}

// cliConfig expresses the rule flags as a config layer.
func cliConfig() config.FileConfig {
	var fc config.FileConfig
	if flagPlaceholder != "" {
		fc.Placeholder = strPtr(flagPlaceholder)
	}
	fc.Workers = intPtr(flagWorkers)
	for _, p := range flagPatterns {
		fc.Patterns = append(fc.Patterns, parsePatternFlag(p))
	}
	fc.Values = flagValues
	fc.Keys = flagKeys
	fc.Paths = flagPaths
	if flagNoColor {
		fc.NoColor = boolPtr(true)
	}
	return fc
}

// parsePatternFlag reads "N:regex" as group N of regex. Anything else is the
// whole match of the expression.
func parsePatternFlag(s string) pattern.Spec {
	if prefix, rest, ok := strings.Cut(s, ":"); ok && prefix != "" && isDigits(prefix) {
		if n, err := strconv.Atoi(prefix); err == nil {
			return pattern.Spec{Pattern: rest, Group: n}
		}
	}
	return pattern.Spec{Pattern: s}
}

func isDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// openInput returns the named file, or stdin when no argument is given.
func openInput(cmd *cobra.Command, args []string) (io.ReadCloser, error) {
	if len(args) == 0 || args[0] == "-" {
		return io.NopCloser(cmd.InOrStdin()), nil
	}
	f, err := os.Open(args[0])
	if err != nil {
		return nil, err
	}
	return f, nil
}

// readInput reads all input and rejects invalid UTF-8.
func readInput(cmd *cobra.Command, args []string) (string, error) {
	in, err := openInput(cmd, args)
	if err != nil {
		return "", err
	}
	defer in.Close()
	b, err := io.ReadAll(in)
	if err != nil {
		return "", fmt.Errorf("read input: %w", err)
	}
	if err := redaction.CheckUTF8(b); err != nil {
		return "", err
	}
	return string(b), nil
}

// colorEnabled is true when w is a terminal and color was not turned off.
func colorEnabled(w io.Writer) bool {
	if pickBool(flagNoColor, cfg.NoColor) {
		return false
	}
	return isTerminal(w)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// rulesetFingerprint identifies the redactor configuration for the cache.
func rulesetFingerprint(r *redaction.Redactor) string {
	parts := []string{r.Placeholder()}
	for _, rule := range r.Engine().Rules() {
		parts = append(parts, rule.String(), strconv.Itoa(rule.Group))
	}
	parts = append(parts, "keys")
	parts = append(parts, r.Keys()...)
	parts = append(parts, "paths")
	parts = append(parts, r.Paths()...)
	return cache.Ruleset(parts...)
}

func pickString(cli string, cfg *string) string {
	if cli != "" {
		return cli
	}
	if cfg != nil {
		return *cfg
	}
	return ""
}

func pickInt64(cli int64, cfg *int64, def int64) int64 {
	if cli != 0 {
		return cli
	}
	if cfg != nil && *cfg != 0 {
		return *cfg
	}
	return def
}

func pickBool(cli bool, cfg *bool) bool {
	if cli {
		return true
	}
	if cfg != nil {
		return *cfg
	}
	return false
}

func strPtr(s string) *string { return &s }
func intPtr(v int) *int {
	if v == 0 {
		return nil
	}
	return &v
}
func boolPtr(v bool) *bool { return &v }
