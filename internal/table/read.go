package table

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

var (
	// ErrUnsupportedFormat is returned for file types that cannot be read.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrNoHeader is returned when the input has no header row.
	ErrNoHeader = errors.New("file has no header row")
)

// Supported extensions, by container.
var (
	workbookExts  = map[string]bool{".xlsx": true, ".xlsm": true}
	delimitedExts = map[string]bool{".csv": true, ".tsv": true, ".txt": true}
)

// CheckSupported returns an error wrapping ErrUnsupportedFormat unless name
// has a readable extension. It only looks at the name, so callers can reject
// a file before reading it.
func CheckSupported(name string) error {
	ext := strings.ToLower(filepath.Ext(name))
	switch {
	case workbookExts[ext], delimitedExts[ext]:
		return nil
	case ext == ".xls":
		return fmt.Errorf("%w: legacy .xls workbooks must be re-saved as .xlsx", ErrUnsupportedFormat)
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

// Read parses r according to the extension of name.
func Read(name string, r io.Reader) (*Table, error) {
	if err := CheckSupported(name); err != nil {
		return nil, err
	}
	if workbookExts[strings.ToLower(filepath.Ext(name))] {
		return ReadWorkbook(r)
	}
	return ReadDelimited(r)
}

// ReadDelimited parses delimited text. The delimiter is sniffed from the
// header line among ',', ';' and tab.
func ReadDelimited(r io.Reader) (*Table, error) {
	br := bufio.NewReader(wrapText(r))

	head, _ := br.Peek(4096)
	delim := sniffDelimiter(head)

	cr := csv.NewReader(br)
	cr.Comma = delim
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrNoHeader
		}
		return nil, fmt.Errorf("invalid csv: read header: %w", err)
	}

	var (
		records [][]string
		lines   []int
	)
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("invalid csv: %w", err)
		}
		line, _ := cr.FieldPos(0)
		records = append(records, rec)
		lines = append(lines, line)
	}

	return New(header, records, lines), nil
}

// sniffDelimiter picks the candidate that occurs most often on the first line.
// Comma wins ties and the no-match case.
func sniffDelimiter(head []byte) rune {
	if i := bytes.IndexByte(head, '\n'); i >= 0 {
		head = head[:i]
	}
	best, bestCount := ',', bytes.Count(head, []byte{','})
	for _, d := range []rune{';', '\t'} {
		if c := bytes.Count(head, []byte(string(d))); c > bestCount {
			best, bestCount = d, c
		}
	}
	return best
}

// ReadWorkbook parses the first worksheet of an xlsx workbook. Raw cell values
// are used so number formatting does not leak into scores.
func ReadWorkbook(r io.Reader) (*Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoHeader
	}

	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	// Header is the first row with any content.
	start := 0
	for start < len(rows) && isBlank(rows[start]) {
		start++
	}
	if start == len(rows) {
		return nil, ErrNoHeader
	}

	records := rows[start+1:]
	lines := make([]int, len(records))
	for i := range records {
		lines[i] = start + i + 2
	}
	return New(rows[start], records, lines), nil
}

func isBlank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
