package renderer

import (
	"strings"
	"unicode/utf8"
)

func textLen(s string) int {
	return utf8.RuneCountInString(s)
}

// PadLine places label on the left and value on the right of a width-column line.
// At least one space always separates them, so a pair wider than the paper
// overflows instead of being truncated.
func PadLine(label, value string, width int) string {
	spaces := width - textLen(label) - textLen(value)
	if spaces < 1 {
		spaces = 1
	}
	return label + strings.Repeat(" ", spaces) + value
}

// WrapText breaks text into lines of at most width columns.
// Words are packed greedily; a word longer than width is split into
// full-width chunks. Text that already fits comes back unchanged as one line.
func WrapText(text string, width int) []string {
	if width <= 0 || textLen(text) <= width {
		return []string{text}
	}

	var lines []string
	current := ""

	for _, word := range strings.Fields(text) {
		for textLen(word) > width {
			if current != "" {
				lines = append(lines, current)
				current = ""
			}
			runes := []rune(word)
			lines = append(lines, string(runes[:width]))
			word = string(runes[width:])
		}
		if word == "" {
			continue
		}

		if current == "" {
			current = word
		} else if textLen(current)+1+textLen(word) <= width {
			current += " " + word
		} else {
			lines = append(lines, current)
			current = word
		}
	}

	if current != "" {
		lines = append(lines, current)
	}
	if len(lines) == 0 {
		return []string{""}
	}
	return lines
}

// wrapIndented takes the first line greedily at the full width, then wraps
// the remaining words narrower and prefixes them with indent.
func wrapIndented(text string, width int, indent string) []string {
	lines := WrapText(text, width)
	if len(lines) == 1 {
		return lines
	}

	first := lines[0]
	rest := strings.TrimPrefix(strings.Join(strings.Fields(text), " "), first)
	rest = strings.TrimLeft(rest, " ")

	out := []string{first}
	for _, l := range WrapText(rest, width-textLen(indent)) {
		out = append(out, indent+l)
	}
	return out
}

// Rule is a separator line of ch repeated across the paper
func Rule(ch rune, width int) string {
	return strings.Repeat(string(ch), width)
}
