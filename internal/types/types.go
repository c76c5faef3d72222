package types

// Position locates a match in the original input. Offsets are byte offsets of
// the whole match and Line is 1-based.
type Position struct {
	Line        int `json:"line" yaml:"line"`
	StartOffset int `json:"start_offset" yaml:"start_offset"`
	EndOffset   int `json:"end_offset" yaml:"end_offset"`
}

// Capture is one redacted span: the exact text that was replaced, the ID of
// the rule that found it, and its position when positions were requested.
type Capture struct {
	Text     string    `json:"text" yaml:"text"`
	Rule     string    `json:"rule" yaml:"rule"`
	Position *Position `json:"position,omitempty" yaml:"position,omitempty"`
}

// Result is the outcome of redacting one input. Output is the input with one
// first occurrence of each capture's Text replaced, in capture order.
type Result struct {
	Output   string    `json:"output" yaml:"output"`
	Captures []Capture `json:"captures" yaml:"captures"`
}

// Line returns the capture line or 0 when no position was recorded.
func (c Capture) Line() int {
	if c.Position == nil {
		return 0
	}
	return c.Position.Line
}
