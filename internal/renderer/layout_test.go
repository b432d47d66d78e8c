package renderer

import (
	"reflect"
	"strings"
	"testing"
)

func TestPadLine(t *testing.T) {
	tests := []struct {
		name  string
		label string
		value string
		width int
		want  string
	}{
		{"fits", "TOTAL", "Rp40.000", 24, "TOTAL" + strings.Repeat(" ", 11) + "Rp40.000"},
		{"exact", "Subtotal", "Rp1.000", 16, "Subtotal Rp1.000"},
		{"overflow", "Pembayaran Non Tunai", "Rp1.225.000", 24, "Pembayaran Non Tunai Rp1.225.000"},
		{"empty label", "", "Rp0", 8, "     Rp0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PadLine(tt.label, tt.value, tt.width)
			if got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestPadLine_Width(t *testing.T) {
	labels := []string{"", "A", "Kembali", "Subtotal", "Pembayaran via Transfer Bank"}
	values := []string{"", "0", "Rp10.000", "Rp1.225.000"}

	for _, width := range []int{24, 32} {
		for _, label := range labels {
			for _, value := range values {
				line := PadLine(label, value, width)
				n := len(label) + len(value)
				if n < width && len(line) != width {
					t.Errorf("Expected width %d for %q/%q, got %d", width, label, value, len(line))
				}
				if n >= width && len(line) != n+1 {
					t.Errorf("Expected single space for %q/%q at width %d, got %q", label, value, width, line)
				}
			}
		}
	}
}

func TestPadLine_CountsRunes(t *testing.T) {
	line := PadLine("Café", "Rp5.000", 16)
	if textLen(line) != 16 {
		t.Errorf("Expected 16 columns, got %d", textLen(line))
	}
}

func TestWrapText(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		width int
		want  []string
	}{
		{"short", "Kopi Hitam", 24, []string{"Kopi Hitam"}},
		{"exact", "Nasi Goreng Spesial Ayam", 24, []string{"Nasi Goreng Spesial Ayam"}},
		{"greedy", "Nasi Goreng Spesial Ayam Bakar Madu", 24, []string{"Nasi Goreng Spesial Ayam", "Bakar Madu"}},
		{"hard split", "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789", 24, []string{"ABCDEFGHIJKLMNOPQRSTUVWX", "YZ0123456789"}},
		{"split after words", "Es Teh SUPERLONGWORDTHATEXCEEDSWIDTH", 10, []string{"Es Teh", "SUPERLONGW", "ORDTHATEXC", "EEDSWIDTH"}},
		{"chunk multiple", "ABCDEFGHIJKL", 6, []string{"ABCDEF", "GHIJKL"}},
		{"collapses spaces", "Es   Teh   Manis   Dingin", 10, []string{"Es Teh", "Manis", "Dingin"}},
		{"empty", "", 24, []string{""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := WrapText(tt.text, tt.width)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestWrapText_PreservesCharacters(t *testing.T) {
	names := []string{
		"Nasi Goreng Spesial Dengan Telur Mata Sapi Dan Kerupuk",
		"Es Jeruk Peras Segar",
		"Paket Hemat Ayam Geprek Sambal Matah Level 5 Plus Es Teh Manis Jumbo",
		"Supercalifragilisticexpialidocious Latte",
		"Mie Ayam Bakso Urat",
	}
	squash := func(s string) string { return strings.Join(strings.Fields(s), "") }

	for _, width := range []int{24, 32, 10} {
		for _, name := range names {
			lines := WrapText(name, width)
			for _, l := range lines {
				if textLen(l) > width {
					t.Errorf("Line %q exceeds width %d", l, width)
				}
			}
			if got := squash(strings.Join(lines, "")); got != squash(name) {
				t.Errorf("Expected characters of %q preserved, got %q", name, got)
			}
		}
	}
}

func TestWrapText_ShortNameIsSingleLine(t *testing.T) {
	for _, name := range []string{"Teh", "Kopi Susu Gula Aren", "Nasi Uduk Komplit Spesial"} {
		for _, width := range []int{24, 32} {
			if textLen(name) > width {
				continue
			}
			lines := WrapText(name, width)
			if len(lines) != 1 || lines[0] != name {
				t.Errorf("Expected %q unchanged at width %d, got %q", name, width, lines)
			}
		}
	}
}

func TestWrapIndented(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"fits", "Kopi Hitam", []string{"Kopi Hitam"}},
		{"first line full width", "Ayam Bakar Madu Pedas XL Extra", []string{"Ayam Bakar Madu Pedas XL", "  Extra"}},
		{"continuation narrower", "Nasi Goreng Spesial Ayam Bakar Madu Pedas Manis", []string{"Nasi Goreng Spesial Ayam", "  Bakar Madu Pedas Manis"}},
		{"long word", "Es Kopisusugulaarenmantap", []string{"Es", "  Kopisusugulaarenmantap"}},
		{"long word split", "Kopisusugulaarenmantapsekali", []string{"Kopisusugulaarenmantapse", "  kali"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := wrapIndented(tt.text, 24, "  ")
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestRule(t *testing.T) {
	if Rule('=', 24) != strings.Repeat("=", 24) {
		t.Error("Expected 24 equals signs")
	}
	if textLen(Rule('-', 32)) != 32 {
		t.Error("Expected 32 columns")
	}
}

func TestPlain(t *testing.T) {
	in := Init + AlignCenter + BoldOn + "BK POS\n" + BoldOff + AlignLeft + "TOTAL\n" + Cut
	if got := Plain(in); got != "BK POS\nTOTAL\n" {
		t.Errorf("Expected control codes stripped, got %q", got)
	}
}
