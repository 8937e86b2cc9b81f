// Package export handles exporting debate transcripts to various formats.
package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/ForgottenHistory/Debate-Corner/internal/core"
)

// Format represents an export format.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatPDF      Format = "pdf"
	FormatJSON     Format = "json"
)

// Exporter defines the interface for exporting debates.
type Exporter interface {
	Export(debate *core.Debate, w io.Writer) error
	FileExtension() string
	ContentType() string
}

// GetExporter returns an exporter for the given format.
func GetExporter(format Format) (Exporter, error) {
	switch format {
	case FormatMarkdown, "md":
		return &MarkdownExporter{}, nil
	case FormatPDF:
		return &PDFExporter{}, nil
	case FormatJSON:
		return &JSONExporter{}, nil
	default:
		return nil, fmt.Errorf("unsupported export format: %s", format)
	}
}

// GenerateFilename creates a filename for the export.
func GenerateFilename(debate *core.Debate, ext string) string {
	// Sanitize topic for filename
	topic := debate.Topic
	if r := []rune(topic); len(r) > 50 {
		topic = string(r[:50])
	}

	replacer := strings.NewReplacer(
		" ", "_",
		"/", "-",
		"\\", "-",
		":", "-",
		"*", "",
		"?", "",
		"\"", "",
		"<", "",
		">", "",
		"|", "",
	)
	topic = replacer.Replace(topic)

	timestamp := debate.CreatedAt.Format("20060102")
	return fmt.Sprintf("debate_%s_%s.%s", timestamp, topic, ext)
}

func describe(p core.Participant) string {
	var parts []string
	if p.Model != "" {
		parts = append(parts, p.Model)
	}
	if p.Provider != "" {
		parts = append(parts, "via "+p.Provider)
	}
	if p.Personality != "" {
		parts = append(parts, "("+p.Personality+")")
	}
	if len(parts) == 0 {
		return "unknown"
	}
	return strings.Join(parts, " ")
}

func outcomeText(w core.Winner) string {
	switch w {
	case core.WinnerFor:
		return "FOR wins"
	case core.WinnerAgainst:
		return "AGAINST wins"
	case core.WinnerTie:
		return "Tie"
	default:
		return "Undecided"
	}
}
