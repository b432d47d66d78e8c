package renderer

import "strings"

// ESC/POS control sequences embedded in rendered receipts
const (
	Init        = "\x1b@"
	AlignLeft   = "\x1ba\x00"
	AlignCenter = "\x1ba\x01"
	BoldOn      = "\x1bE\x01"
	BoldOff     = "\x1bE\x00"
	Cut         = "\x1dVA\x03"
)

var controlStripper = strings.NewReplacer(
	Init, "",
	AlignLeft, "",
	AlignCenter, "",
	BoldOn, "",
	BoldOff, "",
	Cut, "",
)

// Plain removes every control sequence the renderer emits, leaving the printable text
func Plain(s string) string {
	return controlStripper.Replace(s)
}

// Annotate replaces control sequences with readable markers for terminal previews
func Annotate(s string) string {
	return strings.NewReplacer(
		Init, "",
		AlignLeft, "",
		AlignCenter, "",
		BoldOn, "",
		BoldOff, "",
		Cut, "✂------------ cut ------------\n",
	).Replace(s)
}
