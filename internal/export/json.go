package export

import (
	"encoding/json"
	"io"

	"github.com/ForgottenHistory/Debate-Corner/internal/core"
	"github.com/ForgottenHistory/Debate-Corner/internal/verdict"
)

// JSONExporter exports debates to JSON format.
type JSONExporter struct{}

// ExportData represents the full export structure.
type ExportData struct {
	Debate *core.Debate   `json:"debate"`
	Votes  *verdict.Votes `json:"votes,omitempty"`
}

// Export writes the debate as JSON.
func (e *JSONExporter) Export(debate *core.Debate, w io.Writer) error {
	data := ExportData{Debate: debate}
	if len(debate.Judges) > 0 {
		v := tally(debate)
		data.Votes = &v
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// FileExtension returns the file extension for JSON.
func (e *JSONExporter) FileExtension() string {
	return "json"
}

// ContentType returns the MIME type for JSON.
func (e *JSONExporter) ContentType() string {
	return "application/json"
}

func tally(debate *core.Debate) verdict.Votes {
	winners := make([]core.Winner, len(debate.Judges))
	for i, j := range debate.Judges {
		winners[i] = j.Winner
	}
	return verdict.Tally(winners)
}
