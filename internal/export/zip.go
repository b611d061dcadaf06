package export

import (
	"archive/zip"
	"fmt"
	"io"
	"time"

	"github.com/JonMunkholm/scorecharts/internal/render"
)

// WriteZip writes a ZIP archive with one "<name>_chart.png" entry per chart,
// in slice order. Repeated names are suffixed by Namer.
func WriteZip(w io.Writer, charts []render.Chart) error {
	if len(charts) == 0 {
		return ErrNothingToExport
	}

	zw := zip.NewWriter(w)
	namer := NewNamer(FormatPNG)
	now := time.Now()

	for _, c := range charts {
		fw, err := zw.CreateHeader(&zip.FileHeader{
			Name:     namer.Next(c.Student),
			Method:   zip.Deflate,
			Modified: now,
		})
		if err != nil {
			return fmt.Errorf("zip entry for %q: %w", c.Student, err)
		}
		if _, err := io.Copy(fw, c.Reader()); err != nil {
			return fmt.Errorf("zip entry for %q: %w", c.Student, err)
		}
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("close zip: %w", err)
	}
	return nil
}

// WriteSingle writes one chart as a PNG or a one-page PDF and returns the
// download file name.
func WriteSingle(w io.Writer, c render.Chart, format Format) (string, error) {
	switch format {
	case FormatPNG:
		if _, err := io.Copy(w, c.Reader()); err != nil {
			return "", fmt.Errorf("write png: %w", err)
		}
	case FormatPDF:
		if err := WritePDF(w, []render.Chart{c}); err != nil {
			return "", err
		}
	default:
		return "", fmt.Errorf("single chart export does not support %q", format)
	}
	return ChartFileName(c.Student, format), nil
}
