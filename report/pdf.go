package report

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"github.com/cwbudde/algo-shaper/tune"
)

// PDFPage is the input for one axis page of the calibration report.
type PDFPage struct {
	Axis   string
	Result tune.Result
	Plot   []byte // optional PNG from RenderPNG
}

// WritePDF renders a printable calibration report, one page per axis, with
// the candidate table and the optional response plot.
func WritePDF(w io.Writer, title string, pages []PDFPage) error {
	if len(pages) == 0 {
		return fmt.Errorf("report: no pages to render")
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(title, true)

	for i, page := range pages {
		pdf.AddPage()

		pdf.SetFont("Helvetica", "B", 16)
		pdf.CellFormat(0, 10, title, "", 1, "L", false, 0, "")

		pdf.SetFont("Helvetica", "B", 13)
		pdf.CellFormat(0, 9, fmt.Sprintf("Axis %s", strings.ToUpper(page.Axis)), "", 1, "L", false, 0, "")

		pdf.SetFont("Helvetica", "", 11)
		recommended := fmt.Sprintf("Recommended: %s", SummaryLine(page.Result.Best))
		if page.Result.BelowTarget {
			recommended += "  (below reduction target)"
		}
		pdf.CellFormat(0, 7, recommended, "", 1, "L", false, 0, "")
		pdf.Ln(2)

		writeCandidateTable(pdf, page.Result)

		if len(page.Plot) > 0 {
			name := fmt.Sprintf("plot-%d", i)
			pdf.RegisterImageOptionsReader(name,
				gofpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(page.Plot))
			pdf.Ln(4)
			pdf.ImageOptions(name, 15, pdf.GetY(), 180, 0, true,
				gofpdf.ImageOptions{ImageType: "PNG"}, 0, "")
		}
	}

	return pdf.Output(w)
}

func writeCandidateTable(pdf *gofpdf.Fpdf, result tune.Result) {
	widths := []float64{28, 24, 30, 30, 32}
	headers := []string{"Shaper", "Freq (Hz)", "Residual (%)", "Smoothing (s)", "Max accel"}

	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(220, 220, 220)
	for i, h := range headers {
		pdf.CellFormat(widths[i], 7, h, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 10)
	for _, cand := range result.Candidates {
		selected := cand.Type == result.Best.Type
		if selected {
			pdf.SetFont("Helvetica", "B", 10)
		}
		cells := []string{
			strings.ToUpper(cand.Type.String()),
			fmt.Sprintf("%.1f", cand.Freq),
			fmt.Sprintf("%.1f", 100-cand.Reduction),
			fmt.Sprintf("%.3f", cand.Smoothing),
			fmt.Sprintf("%.0f", cand.MaxAccel),
		}
		for i, c := range cells {
			pdf.CellFormat(widths[i], 7, c, "1", 0, "C", false, 0, "")
		}
		pdf.Ln(-1)
		if selected {
			pdf.SetFont("Helvetica", "", 10)
		}
	}
}
