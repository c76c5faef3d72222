package textredact

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/redactyl/textredact/internal/audit"
	"github.com/redactyl/textredact/internal/cache"
	"github.com/redactyl/textredact/internal/files"
	"github.com/redactyl/textredact/internal/metrics"
	"github.com/redactyl/textredact/internal/report"
	"github.com/redactyl/textredact/pkg/redaction"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var (
	flagInclude         string
	flagExclude         string
	flagMaxBytes        int64
	flagInPlace         bool
	flagOutDir          string
	flagNoCache         bool
	flagAudit           bool
	flagDefaultExcludes bool
)

const defaultMaxBytes int64 = 1 << 20

func init() {
	cmd := &cobra.Command{
		Use:   "files <root>",
		Short: "Redact every text file under a directory",
		Long: "Walks root, redacts each selected text file and prints a summary. Without --in-place\n" +
			"or --out nothing is written and the summary shows what would change.",
		Args: cobra.ExactArgs(1),
		RunE: runFiles,
		Example: `
# Preview
textredact files ./logs --include '**/*.log'

# Rewrite files, skipping ones already clean since the last run
textredact files ./logs --in-place --audit
`,
	}
	cmd.Flags().StringVar(&flagInclude, "include", "", "comma-separated globs to include (e.g. **/*.log,**/*.json)")
	cmd.Flags().StringVar(&flagExclude, "exclude", "", "comma-separated globs to exclude")
	cmd.Flags().Int64Var(&flagMaxBytes, "max-bytes", 0, "skip files larger than this (default 1 MiB)")
	cmd.Flags().BoolVar(&flagInPlace, "in-place", false, "rewrite files in place")
	cmd.Flags().StringVar(&flagOutDir, "out", "", "write redacted copies under this directory")
	cmd.Flags().BoolVar(&flagNoCache, "no-cache", false, "ignore and do not update the content cache")
	cmd.Flags().BoolVar(&flagAudit, "audit", false, "append a run record to the audit log")
	cmd.Flags().BoolVar(&flagDefaultExcludes, "default-excludes", true, "skip vendored trees, archives and media")
	cmd.MarkFlagsMutuallyExclusive("in-place", "out")
	rootCmd.AddCommand(cmd)
}

type fileOutcome struct {
	entry    audit.FileEntry
	captures []redaction.Capture
}

func runFiles(cmd *cobra.Command, args []string) error {
	root := args[0]
	if st, err := os.Stat(root); err != nil {
		return err
	} else if !st.IsDir() {
		return fmt.Errorf("%s is not a directory", root)
	}
	opts := files.Options{
		Root:            root,
		Include:         pickString(flagInclude, cfg.Include),
		Exclude:         pickString(flagExclude, cfg.Exclude),
		MaxBytes:        pickInt64(flagMaxBytes, cfg.MaxBytes, defaultMaxBytes),
		DefaultExcludes: flagDefaultExcludes,
	}
	for _, g := range []string{opts.Include, opts.Exclude} {
		if bad, ok := files.ValidGlobs(g); !ok {
			return fmt.Errorf("invalid glob %q", bad)
		}
	}
	if flagOutDir != "" {
		opts.SkipDirs = []string{flagOutDir}
	}

	start := time.Now()
	targets, err := files.Collect(cmd.Context(), opts)
	if err != nil {
		return err
	}

	ruleset := rulesetFingerprint(redactor)
	useCache := flagInPlace && !flagNoCache
	var db cache.DB
	if useCache {
		db, err = cache.Load(root)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			slog.Warn("ignoring unreadable cache", "err", err)
		}
		db = db.ForRuleset(ruleset)
	}

	outcomes := make([]fileOutcome, len(targets))
	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(batchWorkers())
	for i, f := range targets {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			o, err := redactFile(f, db, useCache)
			if err != nil {
				return fmt.Errorf("%s: %w", f.Rel, err)
			}
			outcomes[i] = o
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	entries := make([]audit.FileEntry, 0, len(outcomes))
	rows := make([]report.FileSummary, 0, len(outcomes))
	ruleCounts := map[string]int{}
	seen := map[string]bool{}
	for _, o := range outcomes {
		entries = append(entries, o.entry)
		rows = append(rows, report.FileSummary{Path: o.entry.Path, Captures: o.entry.Captures, Status: o.entry.Status})
		for _, c := range o.captures {
			ruleCounts[c.Rule]++
		}
		seen[o.entry.Path] = true
		if useCache && o.entry.Hash != "" {
			db.Record(o.entry.Path, o.entry.Hash)
		}
	}
	elapsed := time.Since(start)

	if useCache {
		db.Prune(seen)
		if err := cache.Save(root, db); err != nil {
			slog.Warn("could not save cache", "err", err)
		}
	}
	if flagAudit {
		rec := audit.NewRunRecord(root, ruleset, entries, ruleCounts, elapsed)
		if err := audit.New(root).Append(rec); err != nil {
			return err
		}
	}
	slog.Info("batch complete", "files", len(entries), "duration", elapsed)

	return report.PrintSummary(cmd.OutOrStdout(), rows, report.PrintOptions{
		NoColor:  !colorEnabled(cmd.OutOrStdout()),
		Duration: elapsed,
		Files:    len(rows),
	})
}

// redactFile redacts one file and writes the result according to the mode
// flags. The returned entry hash is the content now on disk (or in --out).
func redactFile(f files.File, db cache.DB, useCache bool) (fileOutcome, error) {
	if useCache && db.Fresh(f.Rel, f.Data) {
		return fileOutcome{entry: audit.FileEntry{Path: f.Rel, Status: audit.StatusCached, Hash: cache.Hash(f.Data)}}, nil
	}
	start := time.Now()
	if err := redaction.CheckUTF8(f.Data); err != nil {
		metrics.ObserveRedaction(metrics.KindFile, 0, start, err)
		slog.Debug("skipping non utf-8 file", "path", f.Rel, "err", err)
		return fileOutcome{entry: audit.FileEntry{Path: f.Rel, Status: audit.StatusSkipped}}, nil
	}
	src := string(f.Data)
	res := redactor.Redact(src, false)
	metrics.ObserveRedaction(metrics.KindFile, len(res.Captures), start, nil)

	entry := audit.FileEntry{Path: f.Rel, Captures: len(res.Captures), Hash: cache.Hash([]byte(res.Output))}
	changed := res.Output != src
	switch {
	case !changed:
		entry.Status = audit.StatusClean
	case flagInPlace:
		entry.Status = audit.StatusChanged
	case flagOutDir != "":
		entry.Status = audit.StatusChanged
	default:
		entry.Status = audit.StatusDryRun
	}

	switch {
	case flagInPlace && changed:
		if err := os.WriteFile(f.Abs, []byte(res.Output), f.Mode); err != nil {
			return fileOutcome{}, err
		}
	case flagOutDir != "":
		dst := filepath.Join(flagOutDir, filepath.FromSlash(f.Rel))
		if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
			return fileOutcome{}, err
		}
		if err := os.WriteFile(dst, []byte(res.Output), f.Mode); err != nil {
			return fileOutcome{}, err
		}
	}
	slog.Debug("redacted file", "path", f.Rel, "captures", entry.Captures, "status", entry.Status)
	return fileOutcome{entry: entry, captures: res.Captures}, nil
}

// batchWorkers bounds concurrent files. Rules inside each file may also run
// in parallel, so this stays at GOMAXPROCS.
func batchWorkers() int {
	if flagWorkers > 0 {
		return flagWorkers
	}
	return runtime.GOMAXPROCS(0)
}
