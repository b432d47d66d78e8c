package tui

import (
	"github.com/charmbracelet/lipgloss"
)

// Colors
var (
	Primary   = lipgloss.Color("#7C3AED") // Purple
	Secondary = lipgloss.Color("#06B6D4") // Cyan
	Success   = lipgloss.Color("#10B981") // Green
	Warning   = lipgloss.Color("#F59E0B") // Amber
	Error     = lipgloss.Color("#EF4444") // Red
	Muted     = lipgloss.Color("#6B7280") // Gray

	BgCard  = lipgloss.Color("#1E293B") // Slate 800
	BgPaper = lipgloss.Color("#F8FAFC") // Slate 50

	colorTextBright = lipgloss.Color("#F8FAFC") // Slate 50
	colorTextMuted  = lipgloss.Color("#64748B") // Slate 500
	colorInk        = lipgloss.Color("#0F172A") // Slate 900
)

// Styles
var (
	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorTextBright).
			Background(Primary).
			Padding(0, 2).
			MarginBottom(1)

	// Paper strip the receipt is laid on
	PaperStyle = lipgloss.NewStyle().
			Foreground(colorInk).
			Background(BgPaper).
			Padding(0, 1).
			MarginLeft(2)

	BoldStyle = lipgloss.NewStyle().
			Bold(true)

	HelpStyle = lipgloss.NewStyle().
			Foreground(colorTextMuted)

	HelpKeyStyle = lipgloss.NewStyle().
			Foreground(Secondary).
			Bold(true)

	HelpBarStyle = lipgloss.NewStyle().
			Foreground(colorTextMuted).
			Background(BgCard).
			Padding(0, 2)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(Success)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(Error)

	WarningStyle = lipgloss.NewStyle().
			Foreground(Warning)

	InfoStyle = lipgloss.NewStyle().
			Foreground(Secondary)

	MutedStyle = lipgloss.NewStyle().
			Foreground(Muted)
)

func RenderKey(key string) string {
	return HelpKeyStyle.Render(key)
}

func RenderHelp(key, desc string) string {
	return RenderKey(key) + HelpStyle.Render(" "+desc)
}

// StatusIcon returns a colored dot for a printer or job status
func StatusIcon(status string) string {
	switch status {
	case "online", "connected", "completed":
		return SuccessStyle.Render("●")
	case "offline", "disconnected", "failed":
		return ErrorStyle.Render("●")
	default:
		return WarningStyle.Render("●")
	}
}

func Truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max <= 3 {
		return string(r[:max])
	}
	return string(r[:max-3]) + "..."
}
