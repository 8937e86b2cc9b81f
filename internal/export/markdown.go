package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/ForgottenHistory/Debate-Corner/internal/core"
)

// MarkdownExporter exports debates to Markdown format.
type MarkdownExporter struct{}

// Export writes the debate as Markdown.
func (e *MarkdownExporter) Export(debate *core.Debate, w io.Writer) error {
	var sb strings.Builder

	fmt.Fprintf(&sb, "# %s\n\n", debate.Topic)

	sb.WriteString("## Debate Information\n\n")
	if debate.ID != "" {
		fmt.Fprintf(&sb, "- **ID:** `%s`\n", debate.ID)
	}
	if !debate.CreatedAt.IsZero() {
		fmt.Fprintf(&sb, "- **Created:** %s\n", debate.CreatedAt.Format("January 2, 2006 at 3:04 PM"))
	}
	fmt.Fprintf(&sb, "- **FOR:** %s\n", describe(debate.For))
	fmt.Fprintf(&sb, "- **AGAINST:** %s\n", describe(debate.Against))
	sb.WriteString("\n")

	sb.WriteString("## Debate\n\n")
	if len(debate.Turns) == 0 {
		sb.WriteString("*No turns recorded.*\n\n")
	}
	for _, turn := range debate.Turns {
		fmt.Fprintf(&sb, "### %s - %s\n\n", turn.Side, turn.Label())
		sb.WriteString(strings.TrimSpace(turn.Text))
		sb.WriteString("\n\n")
	}

	if len(debate.Judges) > 0 {
		sb.WriteString("## Judges\n\n")
		for _, j := range debate.Judges {
			fmt.Fprintf(&sb, "### Judge %d: %s\n\n", j.JudgeIndex, j.Personality)
			fmt.Fprintf(&sb, "**Winner:** %s\n\n", j.Winner)
			sb.WriteString(strings.TrimSpace(j.Reasoning))
			sb.WriteString("\n\n")
		}

		v := tally(debate)
		sb.WriteString("## Result\n\n")
		fmt.Fprintf(&sb, "**%s** (FOR %d, AGAINST %d, TIE %d)\n", outcomeText(debate.Winner), v.For, v.Against, v.Tie)
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

// FileExtension returns the file extension for Markdown.
func (e *MarkdownExporter) FileExtension() string {
	return "md"
}

// ContentType returns the MIME type for Markdown.
func (e *MarkdownExporter) ContentType() string {
	return "text/markdown; charset=utf-8"
}
