package core

import (
	"errors"
	"testing"
)

func TestValidateMapping(t *testing.T) {
	tbl := pairedScores()

	tests := []struct {
		name       string
		mapping    ColumnMapping
		wantErr    bool
		wantIssues int
	}{
		{
			name:    "valid",
			mapping: NewMapping("Student", []string{"Chem", "Bio"}, []string{"Pct", "Pct2"}),
		},
		{
			name:    "reordered pairs are fine",
			mapping: NewMapping("Student", []string{"Bio", "Chem"}, []string{"Pct2", "Pct"}),
		},
		{
			name:       "missing column",
			mapping:    NewMapping("Student", []string{"Chem"}, []string{"Nope"}),
			wantErr:    true,
			wantIssues: 1,
		},
		{
			name:       "student reused as subject",
			mapping:    NewMapping("Student", []string{"Student"}, []string{"Pct"}),
			wantErr:    true,
			wantIssues: 1,
		},
		{
			name:       "same column twice",
			mapping:    NewMapping("Student", []string{"Chem", "Bio"}, []string{"Pct", "Pct"}),
			wantErr:    true,
			wantIssues: 1,
		},
		{
			name:       "no pairs",
			mapping:    ColumnMapping{Format: FormatPaired, StudentColumn: "Student"},
			wantErr:    true,
			wantIssues: 1,
		},
		{
			name:       "no student and no pairs",
			mapping:    ColumnMapping{},
			wantErr:    true,
			wantIssues: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateMapping(tbl, tt.mapping)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateMapping() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr {
				return
			}
			if !errors.Is(err, ErrInvalidMapping) {
				t.Errorf("error %v does not match ErrInvalidMapping", err)
			}
			if got := len(IssuesOf(err)); got != tt.wantIssues {
				t.Errorf("got %d issues, want %d: %v", got, tt.wantIssues, err)
			}
		})
	}
}

func TestNewMapping(t *testing.T) {
	m := NewMapping("Name", []string{"Math", "", "Art"}, []string{"Math %", "x", "Art score"})

	if len(m.Pairs) != 2 {
		t.Fatalf("got %d pairs, want 2 (incomplete pair dropped)", len(m.Pairs))
	}
	if !m.Pairs[0].LooksLikePercentage || m.Pairs[1].LooksLikePercentage {
		t.Errorf("LooksLikePercentage flags = %v, %v", m.Pairs[0].LooksLikePercentage, m.Pairs[1].LooksLikePercentage)
	}
	if m.Format != FormatPaired {
		t.Errorf("Format = %q", m.Format)
	}
}
