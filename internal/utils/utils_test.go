package utils

import (
	"testing"
	"time"
)

func TestFormatPrice(t *testing.T) {
	cases := []struct {
		amount float64
		suffix string
		want   string
	}{
		{0, "", "$0"},
		{950, "", "$950"},
		{2500, "/mo", "$2,500/mo"},
		{1234567.4, "", "$1,234,567"},
		{-1000, "", "-$1,000"},
		{189.5, "/night", "$190/night"},
	}
	for _, tc := range cases {
		if got := FormatPrice(tc.amount, tc.suffix); got != tc.want {
			t.Errorf("FormatPrice(%v, %q) = %q, want %q", tc.amount, tc.suffix, got, tc.want)
		}
	}
}

func TestFormatDate(t *testing.T) {
	if got := FormatDate(time.Time{}); got != "" {
		t.Fatalf("zero time should format empty, got %q", got)
	}
	d := time.Date(2024, 3, 9, 12, 0, 0, 0, time.Local)
	if got := FormatDate(d); got != "2024-03-09" {
		t.Fatalf("FormatDate = %q", got)
	}
}

func TestNormalize(t *testing.T) {
	if got := NormalizeSpace("  a \t b\n c "); got != "a b c" {
		t.Fatalf("NormalizeSpace = %q", got)
	}
	if got := NormalizeEmail("  Ana@Example.COM "); got != "ana@example.com" {
		t.Fatalf("NormalizeEmail = %q", got)
	}
}
