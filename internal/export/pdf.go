package export

import (
	"fmt"
	"io"

	"github.com/go-pdf/fpdf"

	"github.com/JonMunkholm/scorecharts/internal/render"
)

// Page geometry in millimetres (A4 landscape).
const (
	pageMargin = 10.0
)

// WritePDF writes a multi-page PDF with one chart per page, in slice order.
func WritePDF(w io.Writer, charts []render.Chart) error {
	if len(charts) == 0 {
		return ErrNothingToExport
	}

	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetTitle("Student charts", true)
	pdf.SetCreator("scorecharts", true)
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(false, pageMargin)

	pageW, pageH := pdf.GetPageSize()
	maxW, maxH := pageW-2*pageMargin, pageH-2*pageMargin

	opt := fpdf.ImageOptions{ImageType: "PNG"}
	for i, c := range charts {
		name := fmt.Sprintf("chart-%d", i)
		info := pdf.RegisterImageOptionsReader(name, opt, c.Reader())
		if pdf.Err() {
			return fmt.Errorf("add chart for %q: %w", c.Student, pdf.Error())
		}

		w, h := fit(info.Width(), info.Height(), maxW, maxH)
		pdf.AddPage()
		pdf.ImageOptions(name, (pageW-w)/2, (pageH-h)/2, w, h, false, opt, 0, "")
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

// fit scales (w, h) to the largest size inside (maxW, maxH) keeping aspect.
func fit(w, h, maxW, maxH float64) (float64, float64) {
	if w <= 0 || h <= 0 {
		return maxW, maxH
	}
	scale := min(maxW/w, maxH/h)
	return w * scale, h * scale
}
