package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
)

// MarkdownWriter renders reports as GitHub-flavored Markdown.
type MarkdownWriter struct {
	output io.Writer
}

// NewMarkdownWriter creates a MarkdownWriter.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{output: output}
}

// Write renders r.
func (w *MarkdownWriter) Write(r *Report) error {
	md := markdown.NewMarkdown(w.output)

	md.H1("shadowtrace report")
	md.PlainText("")
	w.writeSummary(md, r)
	w.writeFindings(md, r)

	if err := md.Build(); err != nil {
		return fmt.Errorf("write markdown: %w", err)
	}
	return nil
}

func (*MarkdownWriter) writeSummary(md *markdown.Markdown, r *Report) {
	md.H2("Summary")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Emails", cell(joinOrDash(r.Entities.Emails))},
			{"Usernames", cell(joinOrDash(r.Entities.Usernames))},
			{"Platforms", strconv.Itoa(r.Summary.Platforms)},
			{"Findings", strconv.Itoa(r.Summary.TotalFindings)},
			{"Risk indicators", strconv.Itoa(r.Summary.RiskIndicators)},
			{"Confidence", "**" + string(r.Summary.Confidence) + "**"},
		},
	})
	md.PlainText("")

	if len(r.Findings) > 0 {
		chart := piechart.NewPieChart(
			io.Discard,
			piechart.WithTitle("Findings by source"),
			piechart.WithShowData(true),
		)
		for _, sc := range r.CountBySource() {
			chart.LabelAndIntValue(displaySource(sc.Source), uint64(sc.Count)) //nolint:gosec // counts are non-negative
		}
		md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
		md.PlainText("")
	}

	switch r.Summary.Confidence {
	case High:
		md.Warningf("HIGH confidence: %d platform(s) confirmed and %d public email mention(s).",
			r.Summary.Platforms, r.Summary.RiskIndicators)
	case Moderate:
		md.Importantf("MODERATE confidence: %d platform(s) confirmed and %d public email mention(s).",
			r.Summary.Platforms, r.Summary.RiskIndicators)
	default:
		md.Tip("LOW confidence: no platform confirmed the identifiers.")
	}
	md.PlainText("")
}

func (*MarkdownWriter) writeFindings(md *markdown.Markdown, r *Report) {
	md.H2("Findings")
	md.PlainText("")

	if len(r.Findings) == 0 {
		md.PlainText("No findings.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(r.Findings))
	for i, f := range r.Findings {
		rows[i] = []string{
			cell(f.Entity),
			string(f.Type),
			displaySource(f.Source),
			cell(f.Title),
			cell(f.URL),
			formatConfidence(f.Confidence),
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Entity", "Type", "Source", "Title", "URL", "Confidence"},
		Rows:   rows,
	})
	md.PlainText("")
}

// cell escapes pipes so scraped titles cannot break table rows.
func cell(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.ReplaceAll(s, "|", `\|`)
}
