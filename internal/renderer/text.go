package renderer

import "strings"

// writer accumulates receipt text for a fixed column width
type writer struct {
	b     strings.Builder
	width int
	last  string
}

func newWriter(width int) *writer {
	return &writer{width: width}
}

func (w *writer) raw(code string) {
	w.b.WriteString(code)
}

func (w *writer) line(text string) {
	w.b.WriteString(text)
	w.b.WriteByte('\n')
	w.last = text
}

func (w *writer) blank() {
	w.b.WriteByte('\n')
	w.last = ""
}

func (w *writer) feed(lines int) {
	for i := 0; i < lines; i++ {
		w.blank()
	}
}

func (w *writer) pad(label, value string) {
	w.line(PadLine(label, value, w.width))
}

func (w *writer) boldPad(label, value string) {
	w.raw(BoldOn)
	w.pad(label, value)
	w.raw(BoldOff)
}

// rule writes a separator unless the previous line is the same separator,
// so an empty section never leaves two rules stacked
func (w *writer) rule(ch rune) {
	r := Rule(ch, w.width)
	if w.last == r {
		return
	}
	w.line(r)
}

// wrapped writes text wrapped to the paper width, indenting continuation lines
func (w *writer) wrapped(text, indent string) {
	for _, l := range wrapIndented(text, w.width, indent) {
		w.line(l)
	}
}

// prefixed writes prefix followed by wrapped text, aligning continuation lines under the text
func (w *writer) prefixed(prefix, text string) {
	indent := strings.Repeat(" ", textLen(prefix))
	for i, l := range WrapText(text, w.width-textLen(prefix)) {
		if i == 0 {
			w.line(prefix + l)
		} else {
			w.line(indent + l)
		}
	}
}

func (w *writer) boldWrapped(text, indent string) {
	w.raw(BoldOn)
	w.wrapped(text, indent)
	w.raw(BoldOff)
}

// centered switches to center alignment for fn and back to left afterwards
func (w *writer) centered(fn func()) {
	w.raw(AlignCenter)
	fn()
	w.raw(AlignLeft)
}

func (w *writer) String() string {
	return w.b.String()
}
