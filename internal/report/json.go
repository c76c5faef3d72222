package report

import (
	"encoding/json"
	"io"
)

// WriteJSON writes findings as an indented JSON array.
func WriteJSON(w io.Writer, findings []Finding) error {
	Sort(findings)
	if findings == nil {
		findings = []Finding{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(findings)
}
