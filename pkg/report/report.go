// Package report holds the scan report model and renders it as JSON, Markdown or text.
package report

import (
	"sort"
)

// Level is the coarse confidence label of a scan.
type Level string

// Confidence levels.
const (
	Low      Level = "LOW"
	Moderate Level = "MODERATE"
	High     Level = "HIGH"
)

// FindingType distinguishes verified profiles from search hits.
type FindingType string

// Finding types.
const (
	TypeProfile FindingType = "profile"
	TypeSearch  FindingType = "search"
)

// Confidence assigned to search hits.
const (
	EmailSearchConfidence    = 0.55
	UsernameSearchConfidence = 0.45
)

const (
	minProfileConfidence = 0.55
	maxProfileConfidence = 0.95

	highPlatforms = 4
	highRisk      = 3
)

// Finding is one piece of evidence tying an identifier to a URL.
type Finding struct {
	Entity     string      `json:"entity"`
	Type       FindingType `json:"type"`
	Source     string      `json:"source"`
	Title      string      `json:"title"`
	URL        string      `json:"url"`
	Confidence float64     `json:"confidence"`
}

// Entities are the identifiers a report covers.
type Entities struct {
	Emails    []string `json:"emails"`
	Usernames []string `json:"usernames"`
}

// Summary aggregates a report's findings.
type Summary struct {
	TotalFindings  int   `json:"totalFindings"`
	Platforms      int   `json:"platforms"`
	Confidence     Level `json:"confidence"`
	RiskIndicators int   `json:"riskIndicators"`
}

// Report is the result of one scan.
type Report struct {
	Entities Entities  `json:"entities"`
	Summary  Summary   `json:"summary"`
	Findings []Finding `json:"findings"`
}

// New builds a report. Findings are deduplicated and the summary is derived from
// the deduplicated list; platforms counts distinct sites with a confirmed profile.
func New(entities Entities, findings []Finding, platforms, riskIndicators int) *Report {
	deduped := Dedup(findings)
	r := &Report{
		Entities: entities,
		Summary: Summary{
			TotalFindings:  len(deduped),
			Platforms:      platforms,
			Confidence:     ConfidenceLevel(platforms, riskIndicators),
			RiskIndicators: riskIndicators,
		},
		Findings: deduped,
	}
	r.fillNil()
	return r
}

// fillNil replaces nil slices so JSON output carries [] instead of null.
func (r *Report) fillNil() {
	if r.Entities.Emails == nil {
		r.Entities.Emails = []string{}
	}
	if r.Entities.Usernames == nil {
		r.Entities.Usernames = []string{}
	}
	if r.Findings == nil {
		r.Findings = []Finding{}
	}
}

// ConfidenceLevel maps platform and risk counts to a label.
func ConfidenceLevel(platforms, riskIndicators int) Level {
	switch {
	case platforms >= highPlatforms || riskIndicators >= highRisk:
		return High
	case platforms > 0 || riskIndicators > 0:
		return Moderate
	default:
		return Low
	}
}

// ProfileConfidence converts a site weight to a finding confidence in [0.55, 0.95].
func ProfileConfidence(weight float64) float64 {
	c := 0.65 + weight*0.3
	return max(minProfileConfidence, min(maxProfileConfidence, c))
}

// Dedup keeps the first finding for each (source, url) pair and drops findings
// without a URL. Order is preserved.
func Dedup(findings []Finding) []Finding {
	out := make([]Finding, 0, len(findings))
	seen := make(map[string]bool, len(findings))
	for _, f := range findings {
		if f.URL == "" {
			continue
		}
		key := f.Source + "|" + f.URL
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, f)
	}
	return out
}

// SourceCount is the number of findings attributed to one source.
type SourceCount struct {
	Source string
	Count  int
}

// CountBySource tallies findings per source, most frequent first, ties by name.
func (r *Report) CountBySource() []SourceCount {
	counts := make(map[string]int)
	for _, f := range r.Findings {
		counts[f.Source]++
	}
	out := make([]SourceCount, 0, len(counts))
	for s, n := range counts {
		out = append(out, SourceCount{Source: s, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Source < out[j].Source
	})
	return out
}
