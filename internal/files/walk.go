package files

import (
	"context"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
	"strings"
)

// Options controls which files Walk yields.
type Options struct {
	Root    string
	Include string
	Exclude string
	// MaxBytes skips files larger than this; zero means no limit.
	MaxBytes int64
	// DefaultExcludes skips vendored trees, archives and media.
	DefaultExcludes bool
	// SkipDirs are absolute directories never descended into.
	SkipDirs []string
}

// File is one selected text file.
type File struct {
	Rel  string
	Abs  string
	Mode fs.FileMode
	Data []byte
}

// Walk visits every eligible text file under opts.Root in lexical order.
// Unreadable entries are skipped; an error returned by handle stops the walk.
func Walk(ctx context.Context, opts Options, handle func(File) error) error {
	skip := make(map[string]bool, len(opts.SkipDirs))
	for _, d := range opts.SkipDirs {
		if abs, err := filepath.Abs(d); err == nil {
			skip[abs] = true
		}
	}
	return filepath.WalkDir(opts.Root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() {
			if p == opts.Root {
				return nil
			}
			if opts.DefaultExcludes && isDefaultDirExcluded(d.Name()) {
				return filepath.SkipDir
			}
			if abs, err := filepath.Abs(p); err == nil && skip[abs] {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, _ := filepath.Rel(opts.Root, p)
		rel = filepath.ToSlash(rel)
		if !Allowed(rel, opts.Include, opts.Exclude) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		if opts.MaxBytes > 0 && info.Size() > opts.MaxBytes {
			return nil
		}
		if opts.DefaultExcludes && isDefaultFileExcluded(strings.ToLower(rel)) {
			return nil
		}
		b, err := os.ReadFile(p)
		if err != nil {
			return nil
		}
		if LooksBinary(b) || looksNonTextMIME(rel, b) {
			return nil
		}
		return handle(File{Rel: rel, Abs: p, Mode: info.Mode().Perm(), Data: b})
	})
}

// Collect returns every file Walk would visit.
func Collect(ctx context.Context, opts Options) ([]File, error) {
	var out []File
	err := Walk(ctx, opts, func(f File) error {
		out = append(out, f)
		return nil
	})
	return out, err
}

// LooksBinary reports a NUL byte in the first 800 bytes.
func LooksBinary(b []byte) bool {
	n := min(len(b), 800)
	for i := 0; i < n; i++ {
		if b[i] == 0 {
			return true
		}
	}
	return false
}

// looksNonTextMIME skips media and archives by extension or magic number.
func looksNonTextMIME(path string, b []byte) bool {
	if ct := mime.TypeByExtension(filepath.Ext(path)); ct != "" {
		if strings.HasPrefix(ct, "image/") || strings.HasPrefix(ct, "video/") || strings.HasPrefix(ct, "audio/") {
			return true
		}
		if strings.Contains(ct, "zip") || strings.Contains(ct, "tar") || strings.Contains(ct, "gzip") {
			return true
		}
	}
	if len(b) >= 8 && string(b[:8]) == "\x89PNG\r\n\x1a\n" {
		return true
	}
	if len(b) >= 4 && b[0] == 'P' && b[1] == 'K' && b[2] == 3 && b[3] == 4 {
		return true
	}
	return false
}
