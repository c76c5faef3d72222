package report

import (
	"fmt"
	"sort"

	"github.com/cespare/xxhash/v2"
	"github.com/redactyl/textredact/internal/types"
)

// Finding is a capture prepared for display. The captured text itself is
// never kept; only a mask and a stable fingerprint survive.
type Finding struct {
	Path        string `json:"path,omitempty"`
	Rule        string `json:"rule"`
	Line        int    `json:"line,omitempty"`
	StartOffset int    `json:"start_offset,omitempty"`
	EndOffset   int    `json:"end_offset,omitempty"`
	Masked      string `json:"masked"`
	Fingerprint string `json:"fingerprint"`
}

// FromResult converts the captures of res into findings for path.
func FromResult(path string, res types.Result) []Finding {
	out := make([]Finding, 0, len(res.Captures))
	for _, c := range res.Captures {
		f := Finding{
			Path:        path,
			Rule:        c.Rule,
			Line:        c.Line(),
			Masked:      Mask(c.Text),
			Fingerprint: Fingerprint(c.Text),
		}
		if c.Position != nil {
			f.StartOffset = c.Position.StartOffset
			f.EndOffset = c.Position.EndOffset
		}
		out = append(out, f)
	}
	return out
}

// Fingerprint returns the hex xxhash of s.
func Fingerprint(s string) string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(s))
}

// Mask hides s. Values longer than 16 runes keep a prefix and suffix that
// together cover at most a quarter of the value; shorter ones are fully
// hidden.
func Mask(s string) string {
	r := []rune(s)
	if len(r) <= 16 {
		return "********"
	}
	k := min(4, len(r)/8)
	return string(r[:k]) + "…" + string(r[len(r)-k:])
}

// Sort orders findings by path, then line, then offset.
func Sort(fs []Finding) {
	sort.SliceStable(fs, func(i, j int) bool {
		if fs[i].Path != fs[j].Path {
			return fs[i].Path < fs[j].Path
		}
		if fs[i].Line != fs[j].Line {
			return fs[i].Line < fs[j].Line
		}
		return fs[i].StartOffset < fs[j].StartOffset
	})
}
