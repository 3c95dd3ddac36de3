package validate_test

import (
	"strings"
	"testing"

	"github.com/blobsvc/blobsvc/internal/validate"
)

func TestFilename(t *testing.T) {
	tests := []struct {
		name  string
		input string
		ok    bool
	}{
		{"simple", "report.pdf", true},
		{"nested path", "invoices/2024/report.pdf", true},
		{"empty", "", false},
		{"leading slash", "/report.pdf", false},
		{"trailing slash", "report.pdf/", false},
		{"double slash", "invoices//report.pdf", false},
		{"control char", "report\x01.pdf", false},
		{"backslash", "report\\x.pdf", false},
		{"nul byte", "report\x00.pdf", false},
		{"disallowed char", "report?.pdf", false},
		{"too long", strings.Repeat("a", 1025), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := validate.Filename(tt.input)
			if got.OK != tt.ok {
				t.Fatalf("Filename(%q) = %+v, want ok=%v", tt.input, got, tt.ok)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	got, err := validate.Normalize("invoices%2F2024%20report.pdf")
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	want := "invoices/2024 report.pdf"
	if got != want {
		t.Fatalf("Normalize = %q, want %q", got, want)
	}
}
