package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"github.com/ForgottenHistory/Debate-Corner/internal/core"
)

// PDFExporter exports debates to PDF format.
type PDFExporter struct{}

var sideColors = map[core.Side][3]int{
	core.SideFor:     {200, 230, 255}, // Light blue
	core.SideAgainst: {255, 215, 200}, // Light red
}

// Export writes the debate as PDF.
func (e *PDFExporter) Export(debate *core.Debate, w io.Writer) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 20)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont("Arial", "I", 8)
		pdf.CellFormat(0, 10, fmt.Sprintf("Debate Corner - page %d", pdf.PageNo()), "", 0, "C", false, 0, "")
	})

	pdf.AddPage()

	// Title
	pdf.SetFont("Arial", "B", 18)
	pdf.MultiCell(0, 10, tr(sanitizeText(debate.Topic)), "", "C", false)
	pdf.Ln(5)

	// Metadata section
	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(0, 8, "Debate Information")
	pdf.Ln(8)

	if debate.ID != "" {
		e.addMetadataRow(pdf, "ID:", core.ShortID(debate.ID))
	}
	if !debate.CreatedAt.IsZero() {
		e.addMetadataRow(pdf, "Created:", debate.CreatedAt.Format("January 2, 2006 at 3:04 PM"))
	}
	e.addMetadataRow(pdf, "FOR:", tr(describe(debate.For)))
	e.addMetadataRow(pdf, "AGAINST:", tr(describe(debate.Against)))
	pdf.Ln(5)

	// Debate content
	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(0, 8, "Debate")
	pdf.Ln(8)

	if len(debate.Turns) == 0 {
		pdf.SetFont("Arial", "I", 10)
		pdf.Cell(0, 6, "No turns recorded.")
		pdf.Ln(6)
	}
	for _, turn := range debate.Turns {
		if pdf.GetY() > 250 {
			pdf.AddPage()
		}

		c := sideColors[turn.Side]
		pdf.SetFillColor(c[0], c[1], c[2])
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(0, 7, fmt.Sprintf("%s - %s", turn.Side, turn.Label()), "", 1, "", true, 0, "")

		pdf.SetFont("Arial", "", 9)
		pdf.SetFillColor(255, 255, 255)
		pdf.MultiCell(0, 5, tr(sanitizeText(turn.Text)), "", "", false)
		pdf.Ln(5)
	}

	if len(debate.Judges) > 0 {
		if pdf.GetY() > 230 {
			pdf.AddPage()
		}

		pdf.SetFont("Arial", "B", 12)
		pdf.Cell(0, 8, "Judges")
		pdf.Ln(8)

		for _, j := range debate.Judges {
			pdf.SetFillColor(235, 235, 235)
			pdf.SetFont("Arial", "B", 10)
			header := fmt.Sprintf("Judge %d: %s - %s", j.JudgeIndex, j.Personality, j.Winner)
			pdf.CellFormat(0, 7, tr(header), "", 1, "", true, 0, "")

			pdf.SetFont("Arial", "", 9)
			pdf.MultiCell(0, 5, tr(sanitizeText(j.Reasoning)), "", "", false)
			pdf.Ln(3)
		}

		v := tally(debate)
		pdf.SetFont("Arial", "B", 12)
		pdf.Cell(0, 8, fmt.Sprintf("Result: %s (FOR %d, AGAINST %d, TIE %d)", outcomeText(debate.Winner), v.For, v.Against, v.Tie))
		pdf.Ln(8)
	}

	return pdf.Output(w)
}

// FileExtension returns the file extension for PDF.
func (e *PDFExporter) FileExtension() string {
	return "pdf"
}

// ContentType returns the MIME type for PDF.
func (e *PDFExporter) ContentType() string {
	return "application/pdf"
}

func (e *PDFExporter) addMetadataRow(pdf *gofpdf.Fpdf, label, value string) {
	pdf.SetFont("Arial", "B", 10)
	pdf.Cell(30, 5, label)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 5, value)
	pdf.Ln(5)
}

// sanitizeText flattens typographic punctuation to ASCII.
func sanitizeText(text string) string {
	replacer := strings.NewReplacer(
		"\u2018", "'", // Left single quote
		"\u2019", "'", // Right single quote
		"\u201C", "\"", // Left double quote
		"\u201D", "\"", // Right double quote
		"\u2013", "-", // En dash
		"\u2014", "--", // Em dash
		"\u2026", "...", // Ellipsis
		"\u2022", "*", // Bullet
		"\u00A0", " ", // Non-breaking space
	)
	return replacer.Replace(text)
}
