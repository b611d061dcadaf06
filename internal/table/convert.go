package table

// convert.go classifies raw spreadsheet text into typed cells.
//
// User-provided sheets are messy:
//   - NA markers exported by spreadsheet tools and statistics packages
//   - thousands separators and trailing percent signs in numbers
//   - Excel formula prefixes (="80")
//   - stray surrounding quotes

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// numericRegex validates that a string is a valid numeric format after cleanup.
// Matches integers, decimals, and scientific notation.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// groupedRegex matches a number with comma thousands grouping. Any other
// comma, such as a decimal comma in "80,5", leaves the value non-numeric.
var groupedRegex = regexp.MustCompile(`^[+-]?\d{1,3}(,\d{3})+(\.\d+)?$`)

// naTokens are cell values treated as missing. The set matches what common
// data tools write for "no value".
var naTokens = map[string]bool{
	"#N/A":     true,
	"#N/A N/A": true,
	"#NA":      true,
	"-1.#IND":  true,
	"-1.#QNAN": true,
	"-NaN":     true,
	"-nan":     true,
	"1.#IND":   true,
	"1.#QNAN":  true,
	"<NA>":     true,
	"N/A":      true,
	"NA":       true,
	"NULL":     true,
	"NaN":      true,
	"None":     true,
	"n/a":      true,
	"nan":      true,
	"null":     true,
}

// IsNullToken reports whether s represents a missing value.
func IsNullToken(s string) bool {
	s = strings.TrimSpace(s)
	return s == "" || naTokens[s]
}

// ParseCell classifies a raw value. Plain numerals (after trimming) become
// Number cells; NA markers and blanks become Null; anything else is kept
// verbatim as Text.
func ParseCell(s string) Cell {
	if IsNullToken(s) {
		return NullCell()
	}
	trimmed := strings.TrimSpace(s)
	if numericRegex.MatchString(trimmed) {
		if f, err := strconv.ParseFloat(trimmed, 64); err == nil {
			return NumberCell(f)
		}
	}
	return TextCell(s)
}

// ParseNumber converts score text to a float64.
// Handles whitespace, Excel formula wrappers, thousands separators and a
// trailing percent sign ("85%", " 1,000 ", "=\"72.5\""). A decimal comma
// ("80,5") is rejected rather than guessed at.
func ParseNumber(s string) (float64, error) {
	clean := CleanCell(s)
	clean = strings.TrimSpace(strings.TrimSuffix(clean, "%"))
	if groupedRegex.MatchString(clean) {
		clean = strings.ReplaceAll(clean, ",", "")
	}

	if !numericRegex.MatchString(clean) {
		return 0, fmt.Errorf("%q is not a number", s)
	}
	f, err := strconv.ParseFloat(clean, 64)
	if err != nil {
		return 0, fmt.Errorf("%q is not a number: %w", s, err)
	}
	return f, nil
}

// CleanCell removes common spreadsheet artifacts from a cell value:
// - Trims whitespace
// - Removes Excel formula prefix (="...")
// - Removes surrounding quotes
func CleanCell(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "=\"") && strings.HasSuffix(s, "\"") {
		s = s[2 : len(s)-1]
	} else if strings.HasPrefix(s, "=") {
		s = s[1:]
	}

	return strings.Trim(s, `"'`)
}
