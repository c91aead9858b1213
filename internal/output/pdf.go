package output

import (
	"strings"

	"github.com/go-pdf/fpdf"
)

// WritePDF renders Markdown text as a plain A4 PDF. Headings are bold and
// emphasis markers are dropped; tables are written row by row.
func WritePDF(path, md string) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	for _, raw := range strings.Split(md, "\n") {
		line := strings.ReplaceAll(raw, "**", "")
		line = strings.ReplaceAll(line, "`", "")

		switch {
		case strings.HasPrefix(line, "# "):
			pdf.SetFont("Helvetica", "B", 16)
			pdf.MultiCell(0, 8, tr(strings.TrimPrefix(line, "# ")), "", "L", false)
		case strings.HasPrefix(line, "## "):
			pdf.Ln(2)
			pdf.SetFont("Helvetica", "B", 12)
			pdf.MultiCell(0, 7, tr(strings.TrimPrefix(line, "## ")), "", "L", false)
		case strings.HasPrefix(line, "|---"):
			continue
		case strings.HasPrefix(line, "|"):
			cells := strings.Split(strings.Trim(line, "|"), "|")
			for i := range cells {
				cells[i] = strings.TrimSpace(cells[i])
			}
			pdf.SetFont("Courier", "", 8)
			pdf.MultiCell(0, 4, tr(strings.Join(cells, "  ")), "", "L", false)
		case strings.TrimSpace(line) == "":
			pdf.Ln(3)
		default:
			pdf.SetFont("Helvetica", "", 10)
			pdf.MultiCell(0, 5, tr(line), "", "L", false)
		}
	}

	return pdf.OutputFileAndClose(path)
}
