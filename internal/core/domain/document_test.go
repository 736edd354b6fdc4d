package domain

import (
	"errors"
	"testing"
)

func TestSourceTypeIsValid(t *testing.T) {
	tests := []struct {
		value    SourceType
		expected bool
	}{
		{SourceTypePDF, true},
		{SourceTypeTXT, true},
		{SourceTypeText, true},
		{SourceTypeJSON, true},
		{"markdown", false},
		{"", false},
		{"PDF", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.value), func(t *testing.T) {
			if tt.value.IsValid() != tt.expected {
				t.Errorf("expected IsValid(%q) = %v", tt.value, tt.expected)
			}
		})
	}
}

func TestNormalizeSourceType(t *testing.T) {
	if got := NormalizeSourceType("  JSON "); got != SourceTypeJSON {
		t.Errorf("expected json, got %q", got)
	}
}

func TestInferSourceType(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		explicit string
		expected SourceType
		wantErr  bool
	}{
		{"explicit wins", "notes.json", "TXT", SourceTypeTXT, false},
		{"pdf extension", "report.PDF", "", SourceTypePDF, false},
		{"txt extension", "readme.txt", "", SourceTypeTXT, false},
		{"json extension", "data.json", "", SourceTypeJSON, false},
		{"unknown extension", "image.png", "", "", true},
		{"no extension", "Makefile", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := InferSourceType(tt.filename, tt.explicit)
			if tt.wantErr {
				if !errors.Is(err, ErrUnsupportedSourceType) {
					t.Errorf("expected ErrUnsupportedSourceType, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}
