package filings

import (
	"errors"
	"path/filepath"
	"testing"

	"secsum/internal/services"
)

func TestParseMode(t *testing.T) {
	cases := []struct {
		in   string
		want Mode
	}{
		{"annual", ModeAnnual},
		{"Annual", ModeAnnual},
		{"  quarterly ", ModeQuarterly},
		{"QUARTERLY", ModeQuarterly},
	}
	for _, tc := range cases {
		got, err := ParseMode(tc.in)
		if err != nil {
			t.Errorf("ParseMode(%q) returned error: %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseMode(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}

	for _, bad := range []string{"", "yearly", "10-K"} {
		if _, err := ParseMode(bad); !errors.Is(err, services.ErrValidation) {
			t.Errorf("ParseMode(%q) error = %v, want ErrValidation", bad, err)
		}
	}
}

func TestModeFormType(t *testing.T) {
	if got := ModeAnnual.FormType(); got != "10-K" {
		t.Errorf("annual form = %q, want 10-K", got)
	}
	if got := ModeQuarterly.FormType(); got != "10-Q" {
		t.Errorf("quarterly form = %q, want 10-Q", got)
	}
}

func TestModeDisplayName(t *testing.T) {
	if got := ModeAnnual.DisplayName(); got != "Annual" {
		t.Errorf("DisplayName = %q, want Annual", got)
	}
	if got := ModeQuarterly.DisplayName(); got != "Quarterly" {
		t.Errorf("DisplayName = %q, want Quarterly", got)
	}
}

func TestArchiveLayout(t *testing.T) {
	if got := NormalizeSymbol("  aapl "); got != "AAPL" {
		t.Errorf("NormalizeSymbol = %q, want AAPL", got)
	}

	want := filepath.Join("/data", "sec-edgar-filings", "AAPL", "10-K")
	if got := FormDir("/data", "aapl", ModeAnnual); got != want {
		t.Errorf("FormDir = %q, want %q", got, want)
	}

	want = filepath.Join(want, "0000320193-24-000123")
	if got := AccessionDir("/data", "aapl", ModeAnnual, "0000320193-24-000123"); got != want {
		t.Errorf("AccessionDir = %q, want %q", got, want)
	}
}
