// Package export packages rendered charts and summaries as downloadable files.
package export

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// Bundle and summary file names.
const (
	BundlePDFName   = "student_charts.pdf"
	BundleZipName   = "student_charts.zip"
	SummaryCSVName  = "student_summary.csv"
	SummaryXLSXName = "student_summary.xlsx"
)

// ErrNothingToExport is returned when there are no charts or records.
var ErrNothingToExport = errors.New("nothing to export")

// Format is a downloadable artifact type.
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatZip  Format = "zip"
	FormatPNG  Format = "png"
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatPDF, FormatZip, FormatPNG, FormatCSV, FormatXLSX:
		return f, nil
	default:
		return "", fmt.Errorf("unknown export format %q", s)
	}
}

// ContentType returns the MIME type for the format.
func (f Format) ContentType() string {
	switch f {
	case FormatPDF:
		return "application/pdf"
	case FormatZip:
		return "application/zip"
	case FormatPNG:
		return "image/png"
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "application/octet-stream"
	}
}

// ChartFileName returns "<name>_chart.<ext>" with whitespace in the student
// name replaced by underscores. Path separators and other characters that
// are unsafe in file names are replaced too.
func ChartFileName(student string, ext Format) string {
	return safeName(student) + "_chart." + string(ext)
}

func safeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "student"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case unicode.IsSpace(r):
			return '_'
		case strings.ContainsRune(`/\:*?"<>|`, r), unicode.IsControl(r):
			return '-'
		default:
			return r
		}
	}, s)
}

// Namer hands out chart file names that are unique within one bundle.
// The first "Alice" gets Alice_chart.png, the second Alice_2_chart.png.
type Namer struct {
	ext  Format
	seen map[string]int
}

// NewNamer returns a Namer for files with the given extension.
func NewNamer(ext Format) *Namer {
	return &Namer{ext: ext, seen: make(map[string]int)}
}

// Next returns the file name for the next chart of student.
func (n *Namer) Next(student string) string {
	base := safeName(student)
	for {
		n.seen[base]++
		count := n.seen[base]
		name := base
		if count > 1 {
			name = fmt.Sprintf("%s_%d", base, count)
		}
		file := name + "_chart." + string(n.ext)
		// "Alice_2" may itself be a student name; keep looking.
		if count > 1 && n.seen[name] > 0 {
			continue
		}
		if count > 1 {
			n.seen[name]++
		}
		return file
	}
}
