package sql

import (
	"testing"
)

func TestApplyRowLimit(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		maxRows  int
		expected string
	}{
		{
			name:     "no limit gets one appended",
			input:    "SELECT * FROM videos",
			maxRows:  10000,
			expected: "SELECT * FROM videos LIMIT 10000",
		},
		{
			name:     "limit above ceiling is rewritten",
			input:    "SELECT * FROM videos LIMIT 500000",
			maxRows:  10000,
			expected: "SELECT * FROM videos LIMIT 10000",
		},
		{
			name:     "limit below ceiling is kept",
			input:    "SELECT * FROM videos LIMIT 5",
			maxRows:  10000,
			expected: "SELECT * FROM videos LIMIT 5",
		},
		{
			name:     "limit equal to ceiling is kept",
			input:    "SELECT * FROM videos LIMIT 10000",
			maxRows:  10000,
			expected: "SELECT * FROM videos LIMIT 10000",
		},
		{
			name:     "trailing semicolon stripped before append",
			input:    "SELECT * FROM videos;",
			maxRows:  10000,
			expected: "SELECT * FROM videos LIMIT 10000",
		},
		{
			name:     "repeated trailing semicolons stripped",
			input:    "SELECT * FROM videos ; ;",
			maxRows:  100,
			expected: "SELECT * FROM videos LIMIT 100",
		},
		{
			name:     "lowercase limit recognized",
			input:    "select * from videos limit 99999",
			maxRows:  10000,
			expected: "select * from videos LIMIT 10000",
		},
		{
			name:     "limit on its own line",
			input:    "SELECT *\nFROM videos\nLIMIT 200000",
			maxRows:  50000,
			expected: "SELECT *\nFROM videos\nLIMIT 50000",
		},
		{
			name:     "oversized literal is rewritten",
			input:    "SELECT * FROM videos LIMIT 99999999999999999999",
			maxRows:  10000,
			expected: "SELECT * FROM videos LIMIT 10000",
		},
		{
			name:     "whitespace only input still bounded",
			input:    "SELECT 1  ",
			maxRows:  10,
			expected: "SELECT 1 LIMIT 10",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ApplyRowLimit(tt.input, tt.maxRows)
			if got != tt.expected {
				t.Errorf("got %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestApplyRowLimit_Idempotent(t *testing.T) {
	inputs := []string{
		"SELECT * FROM videos",
		"SELECT * FROM videos LIMIT 500000",
		"SELECT * FROM videos LIMIT 5",
		"SELECT * FROM videos;",
	}

	for _, input := range inputs {
		once := ApplyRowLimit(input, 10000)
		twice := ApplyRowLimit(once, 10000)
		if once != twice {
			t.Errorf("not idempotent for %q: first %q, second %q", input, once, twice)
		}
	}
}

func TestStripTrailingSemicolon(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "no semicolon",
			input:    "SELECT 1",
			expected: "SELECT 1",
		},
		{
			name:     "trailing semicolon",
			input:    "SELECT 1;",
			expected: "SELECT 1",
		},
		{
			name:     "semicolon with trailing whitespace",
			input:    "SELECT 1;  \n",
			expected: "SELECT 1",
		},
		{
			name:     "whitespace before semicolon",
			input:    "SELECT 1 ;",
			expected: "SELECT 1",
		},
		{
			name:     "multiple terminators",
			input:    "SELECT 1;;",
			expected: "SELECT 1",
		},
		{
			name:     "interior semicolon untouched",
			input:    "SELECT 'a;b'",
			expected: "SELECT 'a;b'",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := stripTrailingSemicolon(tt.input)
			if got != tt.expected {
				t.Errorf("got %q, want %q", got, tt.expected)
			}
		})
	}
}
