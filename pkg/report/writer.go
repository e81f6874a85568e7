package report

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Format names an output format.
type Format string

// Supported formats.
const (
	FormatText     Format = "text"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
)

// Writer renders a report to its destination.
type Writer interface {
	Write(r *Report) error
}

// NewWriter returns the writer for format.
func NewWriter(format Format, output io.Writer) (Writer, error) {
	switch format {
	case FormatText, "":
		return NewTextWriter(output), nil
	case FormatJSON:
		return NewJSONWriter(output), nil
	case FormatMarkdown, "md":
		return NewMarkdownWriter(output), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// displaySource turns a source identifier such as "github" into "Github".
// Single-letter sources are upper-cased whole.
func displaySource(source string) string {
	if len(source) == 1 {
		return strings.ToUpper(source)
	}
	return cases.Title(language.English).String(source)
}

func formatConfidence(c float64) string {
	return fmt.Sprintf("%.2f", c)
}

func joinOrDash(items []string) string {
	if len(items) == 0 {
		return "-"
	}
	return strings.Join(items, ", ")
}
