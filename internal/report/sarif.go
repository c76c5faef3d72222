package report

import (
	"encoding/json"
	"io"
)

type sarif struct {
	Schema  string     `json:"$schema"`
	Version string     `json:"version"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool    sarifTool     `json:"tool"`
	Results []sarifResult `json:"results"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name           string      `json:"name"`
	InformationURI string      `json:"informationUri,omitempty"`
	Rules          []sarifRule `json:"rules"`
}

type sarifRule struct {
	ID               string       `json:"id"`
	ShortDescription sarifMessage `json:"shortDescription"`
}

type sarifResult struct {
	RuleID              string            `json:"ruleId"`
	RuleIndex           int               `json:"ruleIndex"`
	Level               string            `json:"level"`
	Message             sarifMessage      `json:"message"`
	Locations           []sarifLoc        `json:"locations"`
	PartialFingerprints map[string]string `json:"partialFingerprints"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifLoc struct {
	PhysicalLocation sarifPhys `json:"physicalLocation"`
}

type sarifPhys struct {
	ArtifactLocation sarifArt     `json:"artifactLocation"`
	Region           *sarifRegion `json:"region,omitempty"`
}

type sarifArt struct {
	URI string `json:"uri"`
}

type sarifRegion struct {
	StartLine int          `json:"startLine"`
	Snippet   sarifMessage `json:"snippet"`
}

// WriteSARIF writes findings as SARIF 2.1.0. Each distinct rule expression
// becomes one reporting rule; snippets carry the masked value only.
func WriteSARIF(w io.Writer, findings []Finding) error {
	Sort(findings)
	run := sarifRun{
		Tool:    sarifTool{Driver: sarifDriver{Name: "textredact", Rules: []sarifRule{}}},
		Results: []sarifResult{},
	}
	index := map[string]int{}
	for _, f := range findings {
		idx, ok := index[f.Rule]
		if !ok {
			idx = len(run.Tool.Driver.Rules)
			index[f.Rule] = idx
			run.Tool.Driver.Rules = append(run.Tool.Driver.Rules, sarifRule{
				ID:               ruleID(f.Rule),
				ShortDescription: sarifMessage{Text: f.Rule},
			})
		}
		uri := f.Path
		if uri == "" {
			uri = "stdin"
		}
		phys := sarifPhys{ArtifactLocation: sarifArt{URI: uri}}
		if f.Line > 0 {
			phys.Region = &sarifRegion{StartLine: f.Line, Snippet: sarifMessage{Text: f.Masked}}
		}
		run.Results = append(run.Results, sarifResult{
			RuleID:              ruleID(f.Rule),
			RuleIndex:           idx,
			Level:               "warning",
			Message:             sarifMessage{Text: "value redacted by " + f.Rule},
			Locations:           []sarifLoc{{PhysicalLocation: phys}},
			PartialFingerprints: map[string]string{"xxhash/v1": f.Fingerprint},
		})
	}
	doc := sarif{
		Schema:  "https://json.schemastore.org/sarif-2.1.0.json",
		Version: "2.1.0",
		Runs:    []sarifRun{run},
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

func ruleID(expr string) string {
	return "pattern-" + Fingerprint(expr)[:8]
}
