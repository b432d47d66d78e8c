package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/thereceipt/kantin-receipt/internal/renderer"
)

const sampleReceipt = renderer.Init + renderer.AlignCenter + "KANTIN\n" + renderer.AlignLeft +
	renderer.BoldOn + "TOTAL      Rp40.000\n" + renderer.BoldOff + "Terima kasih\n" + renderer.Cut

func TestMarkCodes(t *testing.T) {
	got := markCodes(sampleReceipt, 20)

	for _, code := range []string{renderer.Init, renderer.AlignCenter, renderer.BoldOn, renderer.Cut} {
		if strings.Contains(got, code) {
			t.Errorf("Expected control code %q to be replaced", code)
		}
	}
	if !strings.Contains(got, "TOTAL      Rp40.000") {
		t.Errorf("Expected bold line text to survive, got %q", got)
	}
	if !strings.Contains(got, "✂"+strings.Repeat("-", 19)) {
		t.Errorf("Expected cut marker, got %q", got)
	}
}

func TestPager(t *testing.T) {
	var m tea.Model = NewPager("order.json", sampleReceipt, 32)

	if v := m.View(); !strings.Contains(v, "Loading") {
		t.Errorf("Expected loading view before size is known, got %q", v)
	}

	m, _ = m.Update(tea.WindowSizeMsg{Width: 80, Height: 30})
	view := m.View()
	if !strings.Contains(view, "order.json") || !strings.Contains(view, "KANTIN") {
		t.Errorf("Expected title and receipt in view, got:\n%s", view)
	}

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'m'}})
	if m.(Pager).markers {
		t.Error("Expected 'm' to turn markers off")
	}
	if strings.Contains(m.View(), "✂") {
		t.Error("Expected no cut marker in plain mode")
	}

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if cmd == nil {
		t.Fatal("Expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("Expected tea.QuitMsg")
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"Printer Dapur", 20, "Printer Dapur"},
		{"Printer Dapur Belakang", 10, "Printer..."},
		{"Kasir", 2, "Ka"},
	}

	for _, tt := range tests {
		if got := Truncate(tt.in, tt.max); got != tt.want {
			t.Errorf("Truncate(%q, %d): expected %q, got %q", tt.in, tt.max, tt.want, got)
		}
	}
}
