package export

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ForgottenHistory/Debate-Corner/internal/core"
)

func sampleDebate() *core.Debate {
	return &core.Debate{
		ID:        "0f8e2a4c-1111-2222-3333-444455556666",
		Topic:     "Should cities ban cars? A \u201cserious\u201d question",
		For:       core.Participant{Provider: "featherless", Model: "llama", Personality: "academic"},
		Against:   core.Participant{Provider: "openrouter", Model: "qwen", Personality: "zealot"},
		CreatedAt: time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC),
		Turns: []core.DebateTurn{
			{Side: core.SideFor, Kind: core.TurnOpening, Text: "Cars pollute."},
			{Side: core.SideAgainst, Kind: core.TurnOpening, Text: "Cars are freedom \u2014 full stop."},
			{Side: core.SideFor, Kind: core.TurnRebuttal, Round: 1, Text: "Freedom to breathe matters more."},
		},
		Judges: []core.JudgeVerdict{
			{JudgeIndex: 1, Winner: core.WinnerFor, Reasoning: "Clearer.", Personality: "The Logician"},
			{JudgeIndex: 2, Winner: core.WinnerAgainst, Reasoning: "Punchier.", Personality: "The Rhetorician"},
			{JudgeIndex: 3, Winner: core.WinnerFor, Reasoning: "Better evidence.", Personality: "The Evidence Hawk"},
		},
		Winner: core.WinnerFor,
	}
}

func TestGetExporter(t *testing.T) {
	tests := []struct {
		format  Format
		ext     string
		wantErr bool
	}{
		{FormatMarkdown, "md", false},
		{"md", "md", false},
		{FormatJSON, "json", false},
		{FormatPDF, "pdf", false},
		{"docx", "", true},
	}

	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			exp, err := GetExporter(tt.format)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.ext, exp.FileExtension())
		})
	}
}

func TestMarkdownExport(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&MarkdownExporter{}).Export(sampleDebate(), &buf))
	out := buf.String()

	for _, want := range []string{
		"# Should cities ban cars?",
		"- **FOR:** llama via featherless (academic)",
		"### FOR - Opening Statement",
		"### AGAINST - Opening Statement",
		"### FOR - Round 1 Rebuttal",
		"### Judge 2: The Rhetorician",
		"**FOR wins** (FOR 2, AGAINST 1, TIE 0)",
	} {
		assert.Contains(t, out, want)
	}
}

func TestMarkdownExportNoJudges(t *testing.T) {
	d := sampleDebate()
	d.Judges = nil
	d.Turns = nil

	var buf bytes.Buffer
	require.NoError(t, (&MarkdownExporter{}).Export(d, &buf))
	assert.Contains(t, buf.String(), "*No turns recorded.*")
	assert.NotContains(t, buf.String(), "## Result", "result section should be omitted without judges")
}

func TestJSONExport(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&JSONExporter{}).Export(sampleDebate(), &buf))

	var data struct {
		Debate struct {
			Topic  string `json:"topic"`
			Turns  []map[string]any
			Winner string `json:"finalWinner"`
		} `json:"debate"`
		Votes struct {
			For     int `json:"for"`
			Against int `json:"against"`
		} `json:"votes"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &data))
	require.Len(t, data.Debate.Turns, 3)
	assert.Equal(t, "FOR", data.Debate.Turns[0]["position"])
	assert.Equal(t, "FOR", data.Debate.Winner)
	assert.Equal(t, 2, data.Votes.For)
	assert.Equal(t, 1, data.Votes.Against)
}

func TestPDFExport(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&PDFExporter{}).Export(sampleDebate(), &buf))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")), "output is not a PDF")
}

func TestGenerateFilename(t *testing.T) {
	got := GenerateFilename(sampleDebate(), "md")
	assert.True(t, strings.HasPrefix(got, "debate_20260304_Should_cities_ban_cars"), got)
	assert.NotContains(t, got, "?")
	assert.NotContains(t, got, `"`)
	assert.True(t, strings.HasSuffix(got, ".md"), got)
}
