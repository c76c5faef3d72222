package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/olekukonko/tablewriter"
)

var (
	placeholderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	ruleStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
)

type PrintOptions struct {
	NoColor  bool
	Duration time.Duration
	Files    int
}

// PrintText writes one line per finding followed by an optional footer.
func PrintText(w io.Writer, findings []Finding, opts PrintOptions) {
	Sort(findings)
	if len(findings) == 0 {
		fmt.Fprintln(w, "Nothing redacted")
	} else {
		fmt.Fprintf(w, "Captures: %d\n", len(findings))
		for _, f := range findings {
			rule := f.Rule
			if !opts.NoColor {
				rule = ruleStyle.Render(rule)
			}
			fmt.Fprintf(w, "%s  %s  %s  %s\n", location(f), rule, f.Masked, f.Fingerprint)
		}
	}
	footer(w, len(findings), opts)
}

// PrintTable renders findings as a bordered table.
func PrintTable(w io.Writer, findings []Finding, opts PrintOptions) error {
	Sort(findings)
	if len(findings) == 0 {
		fmt.Fprintln(w, "Nothing redacted")
		footer(w, 0, opts)
		return nil
	}
	table := tablewriter.NewWriter(w)
	table.Header("LOCATION", "RULE", "MATCH", "FINGERPRINT")
	for _, f := range findings {
		if err := table.Append([]string{location(f), f.Rule, f.Masked, f.Fingerprint}); err != nil {
			return err
		}
	}
	if err := table.Render(); err != nil {
		return err
	}
	footer(w, len(findings), opts)
	return nil
}

// FileSummary is one row of a batch run.
type FileSummary struct {
	Path     string
	Captures int
	Status   string
}

// PrintSummary renders the per-file outcome of a batch run.
func PrintSummary(w io.Writer, rows []FileSummary, opts PrintOptions) error {
	total := 0
	if len(rows) > 0 {
		table := tablewriter.NewWriter(w)
		table.Header("FILE", "CAPTURES", "STATUS")
		for _, r := range rows {
			total += r.Captures
			if err := table.Append([]string{r.Path, strconv.Itoa(r.Captures), r.Status}); err != nil {
				return err
			}
		}
		if err := table.Render(); err != nil {
			return err
		}
	}
	footer(w, total, opts)
	return nil
}

// Highlight styles every occurrence of placeholder in s.
func Highlight(s, placeholder string, noColor bool) string {
	if noColor || placeholder == "" {
		return s
	}
	return strings.ReplaceAll(s, placeholder, placeholderStyle.Render(placeholder))
}

func location(f Finding) string {
	switch {
	case f.Path != "" && f.Line > 0:
		return fmt.Sprintf("%s:%d", f.Path, f.Line)
	case f.Path != "":
		return f.Path
	case f.Line > 0:
		return fmt.Sprintf("line %d [%d:%d]", f.Line, f.StartOffset, f.EndOffset)
	default:
		return "-"
	}
}

func footer(w io.Writer, captures int, opts PrintOptions) {
	if opts.Duration <= 0 && opts.Files <= 0 {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Captures: %d\n", captures)
	if opts.Duration > 0 {
		fmt.Fprintf(w, "Duration: %.2fs\n", opts.Duration.Seconds())
	}
	if opts.Files > 0 {
		fmt.Fprintf(w, "Files processed: %d\n", opts.Files)
	}
}
