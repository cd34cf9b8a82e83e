package utils

import "testing"

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"", 0.0},
		{"0.00", 0.0},
		{"1000.00", 1000.0},
		{"-650.50", -650.50},
		{"12,345.67", 12345.67},
		{"1,234,567.89", 1234567.89},
		{"not a number", 0.0},
	}
	for _, tc := range tests {
		if got := ParseAmount(tc.in); got != tc.want {
			t.Errorf("ParseAmount(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestParseISODate(t *testing.T) {
	d, err := ParseISODate("2024-01-31")
	if err != nil {
		t.Fatalf("ParseISODate returned error: %v", err)
	}
	if d.Year() != 2024 || d.Month() != 1 || d.Day() != 31 {
		t.Errorf("unexpected parsed date: %v", d)
	}

	if _, err := ParseISODate("31-01-2024"); err == nil {
		t.Error("expected error for non-ISO layout, got nil")
	}
}

func TestRoundFloat(t *testing.T) {
	if got := RoundFloat(1.23456, 2); got != 1.23 {
		t.Errorf("RoundFloat(1.23456, 2) = %v, want 1.23", got)
	}
	if got := RoundFloat(3.14159, 3); got != 3.142 {
		t.Errorf("RoundFloat(3.14159, 3) = %v, want 3.142", got)
	}
}
