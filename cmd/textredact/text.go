package textredact

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/atotto/clipboard"
	"github.com/redactyl/textredact/internal/report"
	"github.com/spf13/cobra"
)

var (
	flagInfo   bool
	flagFormat string
	flagCopy   bool
)

func init() {
	cmd := &cobra.Command{
		Use:   "text [file]",
		Short: "Redact plain text from a file or stdin",
		Long: "Redact plain text. The redacted text goes to stdout. With --info a report of every\n" +
			"capture (location, rule, masked value, fingerprint) is written to stderr.",
		Args: cobra.MaximumNArgs(1),
		RunE: runText,
		Example: `
# Mask a literal and everything after "password="
echo "password=hunter2" | textredact text --pattern '1:password=(\S+)'

# Report where captures were found
textredact text --info --format table app.log > app.redacted.log
`,
	}
	cmd.Flags().BoolVar(&flagInfo, "info", false, "report each capture on stderr")
	cmd.Flags().StringVar(&flagFormat, "format", "text", "capture report format: text|table|json|sarif")
	cmd.Flags().BoolVar(&flagCopy, "copy", false, "also copy the redacted text to the clipboard")
	rootCmd.AddCommand(cmd)
}

func runText(cmd *cobra.Command, args []string) error {
	switch flagFormat {
	case "text", "table", "json", "sarif":
	default:
		return fmt.Errorf("unknown format %q (want text, table, json or sarif)", flagFormat)
	}
	s, err := readInput(cmd, args)
	if err != nil {
		return err
	}

	start := time.Now()
	res := redactor.Redact(s, flagInfo)
	slog.Debug("redacted text", "captures", len(res.Captures), "duration", time.Since(start))

	out := cmd.OutOrStdout()
	fmt.Fprint(out, report.Highlight(res.Output, redactor.Placeholder(), !colorEnabled(out)))

	if flagCopy {
		if err := clipboard.WriteAll(res.Output); err != nil {
			return fmt.Errorf("copy to clipboard: %w", err)
		}
	}
	if !flagInfo {
		return nil
	}

	path := ""
	if len(args) == 1 && args[0] != "-" {
		path = args[0]
	}
	findings := report.FromResult(path, res)
	errw := cmd.ErrOrStderr()
	opts := report.PrintOptions{NoColor: !colorEnabled(errw), Duration: time.Since(start)}
	switch flagFormat {
	case "json":
		return report.WriteJSON(errw, findings)
	case "sarif":
		return report.WriteSARIF(errw, findings)
	case "table":
		return report.PrintTable(errw, findings, opts)
	default:
		report.PrintText(errw, findings, opts)
		return nil
	}
}
