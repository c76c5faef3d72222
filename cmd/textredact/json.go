package textredact

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/redactyl/textredact/internal/report"
	"github.com/redactyl/textredact/internal/tree"
	"github.com/spf13/cobra"
)

var flagPretty bool

func init() {
	jsonCmd := &cobra.Command{
		Use:   "json [file]",
		Short: "Redact a JSON document by pattern, value, key and path",
		Long: "Patterns and values are applied to the raw text first; the result is parsed and\n" +
			"--key/--path rules are applied to the tree. Output has sorted keys.",
		Args: cobra.MaximumNArgs(1),
		RunE: runJSON,
		Example: `
textredact json --key password --path 'auth.*' config.json
`,
	}
	jsonCmd.Flags().BoolVar(&flagPretty, "pretty", false, "indent the output")
	rootCmd.AddCommand(jsonCmd)

	yamlCmd := &cobra.Command{
		Use:   "yaml [file]",
		Short: "Redact a YAML document (all documents in a stream) by pattern, value, key and path",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runYAML,
	}
	rootCmd.AddCommand(yamlCmd)
}

func runJSON(cmd *cobra.Command, args []string) error {
	s, err := readInput(cmd, args)
	if err != nil {
		return err
	}
	start := time.Now()
	out, err := redactor.RedactJSON(s)
	if err != nil {
		return err
	}
	if flagPretty {
		if out, err = tree.Indent(out); err != nil {
			return err
		}
	}
	slog.Debug("redacted json", "bytes", len(s), "duration", time.Since(start))

	w := cmd.OutOrStdout()
	if colorEnabled(w) {
		out = report.HighlightCode(out, "json")
	}
	fmt.Fprintln(w, out)
	return nil
}

func runYAML(cmd *cobra.Command, args []string) error {
	s, err := readInput(cmd, args)
	if err != nil {
		return err
	}
	start := time.Now()
	out, err := redactor.RedactYAML(s)
	if err != nil {
		return err
	}
	slog.Debug("redacted yaml", "bytes", len(s), "duration", time.Since(start))

	w := cmd.OutOrStdout()
	if colorEnabled(w) {
		out = report.HighlightCode(out, "yaml")
	}
	fmt.Fprint(w, out)
	return nil
}
