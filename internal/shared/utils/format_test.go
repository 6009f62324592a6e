package utils

import (
	"strings"
	"testing"
)

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"+91 98765-43210", "919876543210"},
		{"919876543210", "919876543210"},
		{"(022) 555 0101", "0225550101"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizePhone(tt.in); got != tt.want {
			t.Errorf("NormalizePhone(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatINR(t *testing.T) {
	got := FormatINR(1500)
	if !strings.Contains(got, "₹") {
		t.Errorf("FormatINR(1500) = %q, missing rupee symbol", got)
	}
	if !strings.Contains(got, "1,500") {
		t.Errorf("FormatINR(1500) = %q, missing grouped digits", got)
	}
}
