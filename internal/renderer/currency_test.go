package renderer

import "testing"

func TestFormatCurrency(t *testing.T) {
	tests := []struct {
		amount int64
		want   string
	}{
		{0, "Rp0"},
		{5, "Rp5"},
		{999, "Rp999"},
		{1000, "Rp1.000"},
		{40000, "Rp40.000"},
		{125000, "Rp125.000"},
		{1225000, "Rp1.225.000"},
		{1000000000, "Rp1.000.000.000"},
		{-10000, "Rp-10.000"},
	}

	for _, tt := range tests {
		if got := FormatCurrency(tt.amount); got != tt.want {
			t.Errorf("FormatCurrency(%d): expected %s, got %s", tt.amount, tt.want, got)
		}
	}
}

func TestGroupDigitsMatchesLocale(t *testing.T) {
	amounts := []int64{0, 7, 10, 100, 1000, 12345, 999999, 1000000, 1225000, 987654321, -1500}

	for _, amount := range amounts {
		if got, want := groupDigits(amount), groupThousands(amount); got != want {
			t.Errorf("Fallback for %d: expected %s, got %s", amount, want, got)
		}
	}
}
