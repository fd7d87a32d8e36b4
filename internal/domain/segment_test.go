package domain

import "testing"

func TestValidSegment(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"us", true},
		{"apps", true},
		{"top-free", true},
		{"topfreeapplications", true},
		{"top_free2", true},
		{"", false},
		{"..", false},
		{"../x", false},
		{"a/b", false},
		{".hidden", false},
		{"-lead", false},
		{"US", false},
		{"latest", false},
		{"2026-10-18", false},
		{"2026-13-40", true},
	}
	for _, tc := range tests {
		if got := ValidSegment(tc.in); got != tc.want {
			t.Errorf("ValidSegment(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}
