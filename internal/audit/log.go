package audit

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// RunRecord summarises one batch redaction run. It holds counts and content
// fingerprints only; captured text never reaches the log.
type RunRecord struct {
	Timestamp      time.Time      `json:"timestamp"`
	RunID          string         `json:"run_id"`
	Root           string         `json:"root"`
	Ruleset        string         `json:"ruleset"`
	FilesProcessed int            `json:"files_processed"`
	FilesChanged   int            `json:"files_changed"`
	FilesCached    int            `json:"files_cached"`
	TotalCaptures  int            `json:"total_captures"`
	RuleCounts     map[string]int `json:"rule_counts,omitempty"`
	Duration       string         `json:"duration"`
	Files          []FileEntry    `json:"files,omitempty"`
}

// FileEntry is the outcome for a single file.
type FileEntry struct {
	Path     string `json:"path"`
	Captures int    `json:"captures"`
	Status   string `json:"status"`
	// Hash of the content after redaction.
	Hash string `json:"hash,omitempty"`
}

type Log struct {
	path string
}

// New returns the audit log for root, stored under .git when present.
func New(root string) *Log {
	gitDir := filepath.Join(root, ".git")
	p := filepath.Join(root, ".textredact_audit.jsonl")
	if st, err := os.Stat(gitDir); err == nil && st.IsDir() {
		p = filepath.Join(gitDir, "textredact_audit.jsonl")
	}
	return &Log{path: p}
}

func (a *Log) Path() string { return a.path }

// LoadHistory returns all records, newest first. Undecodable lines are skipped.
func (a *Log) LoadHistory() ([]RunRecord, error) {
	f, err := os.Open(a.path)
	if err != nil {
		return nil, fmt.Errorf("open audit log: %w", err)
	}
	defer f.Close()

	var records []RunRecord
	decoder := json.NewDecoder(f)
	for decoder.More() {
		var record RunRecord
		if err := decoder.Decode(&record); err != nil {
			break
		}
		records = append(records, record)
	}

	for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
		records[i], records[j] = records[j], records[i]
	}
	return records, nil
}

// Append writes record as one JSON line.
func (a *Log) Append(record RunRecord) error {
	if record.RunID == "" {
		record.RunID = fmt.Sprintf("run_%d", time.Now().UnixNano())
	}

	f, err := os.OpenFile(a.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("open audit log: %w", err)
	}
	defer f.Close()

	if err := json.NewEncoder(f).Encode(record); err != nil {
		return fmt.Errorf("write audit record: %w", err)
	}
	return nil
}

// NewRunRecord builds a record from per-file outcomes. Files are sorted by path.
func NewRunRecord(root, ruleset string, files []FileEntry, ruleCounts map[string]int, duration time.Duration) RunRecord {
	rec := RunRecord{
		Timestamp:  time.Now().UTC(),
		Root:       root,
		Ruleset:    ruleset,
		RuleCounts: ruleCounts,
		Duration:   duration.String(),
		Files:      append([]FileEntry(nil), files...),
	}
	sort.Slice(rec.Files, func(i, j int) bool { return rec.Files[i].Path < rec.Files[j].Path })
	for _, f := range files {
		rec.FilesProcessed++
		rec.TotalCaptures += f.Captures
		switch f.Status {
		case StatusChanged:
			rec.FilesChanged++
		case StatusCached:
			rec.FilesCached++
		}
	}
	return rec
}

// File statuses recorded by batch runs.
const (
	StatusChanged = "redacted"
	StatusClean   = "clean"
	StatusCached  = "cached"
	StatusDryRun  = "would redact"
	StatusSkipped = "skipped"
)
