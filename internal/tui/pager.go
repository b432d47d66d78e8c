package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/thereceipt/kantin-receipt/internal/renderer"
)

// Pager shows a rendered receipt on a paper-width strip in the terminal.
// Bold text and paper cuts are marked; 'm' toggles plain text.
type Pager struct {
	title    string
	text     string
	columns  int
	markers  bool
	viewport viewport.Model
	ready    bool
}

// NewPager creates a pager for receipt text rendered at columns width
func NewPager(title, text string, columns int) Pager {
	return Pager{
		title:   title,
		text:    text,
		columns: columns,
		markers: true,
	}
}

// RunPager runs the pager full screen until the user quits
func RunPager(title, text string, columns int) error {
	_, err := tea.NewProgram(NewPager(title, text, columns), tea.WithAltScreen()).Run()
	return err
}

func (p Pager) Init() tea.Cmd {
	return nil
}

func (p Pager) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return p, tea.Quit
		case "m":
			p.markers = !p.markers
			p.viewport.SetContent(p.paper())
			return p, nil
		case "g", "home":
			p.viewport.GotoTop()
			return p, nil
		case "G", "end":
			p.viewport.GotoBottom()
			return p, nil
		}

	case tea.WindowSizeMsg:
		height := msg.Height - lipgloss.Height(p.header()) - lipgloss.Height(p.footer())
		if height < 1 {
			height = 1
		}
		if !p.ready {
			p.viewport = viewport.New(msg.Width, height)
			p.viewport.SetContent(p.paper())
			p.ready = true
		} else {
			p.viewport.Width = msg.Width
			p.viewport.Height = height
		}
	}

	var cmd tea.Cmd
	p.viewport, cmd = p.viewport.Update(msg)
	return p, cmd
}

func (p Pager) View() string {
	if !p.ready {
		return "\n  Loading..."
	}
	return fmt.Sprintf("%s\n%s\n%s", p.header(), p.viewport.View(), p.footer())
}

func (p Pager) header() string {
	return HeaderStyle.Render(fmt.Sprintf("%s • %d columns", p.title, p.columns))
}

func (p Pager) footer() string {
	percent := 100.0
	if p.ready {
		percent = p.viewport.ScrollPercent() * 100
	}
	help := strings.Join([]string{
		RenderHelp("↑/↓", "scroll"),
		RenderHelp("m", "markers"),
		RenderHelp("q", "quit"),
	}, "  ")
	return HelpBarStyle.Render(fmt.Sprintf("%s  %3.f%%", help, percent))
}

// paper lays the receipt lines on a strip exactly columns wide
func (p Pager) paper() string {
	body := renderer.Plain(p.text)
	if p.markers {
		body = markCodes(p.text, p.columns)
	}
	body = strings.TrimRight(body, "\n")

	return PaperStyle.Width(p.columns + 2).Render(body)
}

// markCodes shows bold text in bold and paper cuts as a scissor line
func markCodes(s string, columns int) string {
	cut := "✂" + strings.Repeat("-", max(columns-1, 0)) + "\n"
	s = strings.NewReplacer(
		renderer.Init, "",
		renderer.AlignLeft, "",
		renderer.AlignCenter, "",
		renderer.Cut, cut,
	).Replace(s)

	var b strings.Builder
	for i, part := range strings.Split(s, renderer.BoldOn) {
		if i == 0 {
			b.WriteString(part)
			continue
		}
		bold, rest, _ := strings.Cut(part, renderer.BoldOff)
		for j, line := range strings.Split(bold, "\n") {
			if j > 0 {
				b.WriteByte('\n')
			}
			if line != "" {
				b.WriteString(BoldStyle.Render(line))
			}
		}
		b.WriteString(renderer.Plain(rest))
	}
	return b.String()
}
