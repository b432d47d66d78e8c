package preview

import (
	"image"
	"strings"
	"unicode/utf8"

	"github.com/thereceipt/kantin-receipt/internal/renderer"
	"golang.org/x/image/font/basicfont"
)

// Text is drawn with a fixed 7x13 bitmap font, one cell per printer column,
// then scaled up to the paper width.
const (
	cellWidth  = 7
	lineHeight = 15
	textMargin = 4
	cutSpace   = 20
)

var face = basicfont.Face7x13

// textLine is one printed line with the printer state it was printed in
type textLine struct {
	Text   string
	Bold   bool
	Center bool
	Cut    bool
}

var controlCodes = []string{
	renderer.Init,
	renderer.AlignLeft,
	renderer.AlignCenter,
	renderer.BoldOn,
	renderer.BoldOff,
	renderer.Cut,
}

// splitLines replays the control codes in text and returns the printable lines
func splitLines(text string) []textLine {
	var (
		lines   []textLine
		line    strings.Builder
		bold    bool
		center  bool
		sawBold bool
	)

	flush := func() {
		lines = append(lines, textLine{Text: line.String(), Bold: bold || sawBold, Center: center})
		line.Reset()
		sawBold = false
	}

	for i := 0; i < len(text); {
		code := matchCode(text[i:])
		switch code {
		case renderer.Init:
			bold, center = false, false
		case renderer.AlignLeft:
			center = false
		case renderer.AlignCenter:
			center = true
		case renderer.BoldOn:
			bold, sawBold = true, true
		case renderer.BoldOff:
			bold = false
		case renderer.Cut:
			if line.Len() > 0 {
				flush()
			}
			lines = append(lines, textLine{Cut: true})
		case "":
			if text[i] == '\n' {
				flush()
			} else {
				line.WriteByte(text[i])
			}
			i++
			continue
		}
		i += len(code)
	}

	if line.Len() > 0 {
		flush()
	}
	return lines
}

func matchCode(s string) string {
	if s == "" || (s[0] != '\x1b' && s[0] != '\x1d') {
		return ""
	}
	for _, code := range controlCodes {
		if strings.HasPrefix(s, code) {
			return code
		}
	}
	return ""
}

// textBlock draws lines on a canvas columns cells wide
func textBlock(lines []textLine, columns int) image.Image {
	c := newCanvas(columns*cellWidth+2*textMargin, len(lines)*lineHeight+cutSpace)
	c.setFontFace(face)

	ascent := float64(face.Metrics().Ascent.Ceil())
	for _, l := range lines {
		switch {
		case l.Cut:
			c.y += cutSpace
		case isRule(l.Text, columns):
			c.drawRule(l.Text[0])
		default:
			c.drawTextLine(l, ascent)
		}
	}

	return c.cropToContent()
}

func (c *canvas) drawTextLine(l textLine, ascent float64) {
	c.ensureHeight(lineHeight)

	x := float64(textMargin)
	if l.Center {
		x = float64(c.width-utf8.RuneCountInString(l.Text)*cellWidth) / 2
	}

	c.ctx.DrawString(l.Text, x, c.y+ascent)
	if l.Bold {
		c.ctx.DrawString(l.Text, x+1, c.y+ascent)
	}

	c.y += lineHeight
}

// isRule reports whether s is a full-width separator line
func isRule(s string, columns int) bool {
	if len(s) != columns || (s[0] != '=' && s[0] != '-') {
		return false
	}
	return strings.Count(s, s[:1]) == len(s)
}
