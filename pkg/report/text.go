package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
)

// TextWriter renders reports for a terminal.
type TextWriter struct {
	output io.Writer
}

// NewTextWriter creates a TextWriter.
func NewTextWriter(output io.Writer) *TextWriter {
	return &TextWriter{output: output}
}

// Write renders r as a confidence banner followed by summary and findings tables.
func (w *TextWriter) Write(r *Report) error {
	if _, err := fmt.Fprintf(w.output, "Confidence: %s\n\n", levelColor(r.Summary.Confidence).Sprint(r.Summary.Confidence)); err != nil {
		return fmt.Errorf("write text report: %w", err)
	}

	summary := tablewriter.NewWriter(w.output)
	summary.Header("Property", "Value")
	for _, row := range [][]string{
		{"Emails", joinOrDash(r.Entities.Emails)},
		{"Usernames", strconv.Itoa(len(r.Entities.Usernames))},
		{"Platforms", strconv.Itoa(r.Summary.Platforms)},
		{"Findings", strconv.Itoa(r.Summary.TotalFindings)},
		{"Risk indicators", strconv.Itoa(r.Summary.RiskIndicators)},
	} {
		if err := summary.Append(row); err != nil {
			return fmt.Errorf("append summary: %w", err)
		}
	}
	if err := summary.Render(); err != nil {
		return fmt.Errorf("render summary: %w", err)
	}

	if len(r.Findings) == 0 {
		_, err := fmt.Fprintln(w.output, "\nNo findings.")
		return err
	}

	fmt.Fprintln(w.output) //nolint:errcheck // best effort spacing
	findings := tablewriter.NewWriter(w.output)
	findings.Header("No", "Entity", "Type", "Source", "URL", "Confidence")
	for i, f := range r.Findings {
		if err := findings.Append(i+1, f.Entity, string(f.Type), displaySource(f.Source), f.URL, formatConfidence(f.Confidence)); err != nil {
			return fmt.Errorf("append finding: %w", err)
		}
	}
	if err := findings.Render(); err != nil {
		return fmt.Errorf("render findings: %w", err)
	}
	return nil
}

func levelColor(l Level) *color.Color {
	switch l {
	case High:
		return color.New(color.FgRed, color.Bold)
	case Moderate:
		return color.New(color.FgYellow, color.Bold)
	default:
		return color.New(color.FgGreen)
	}
}
