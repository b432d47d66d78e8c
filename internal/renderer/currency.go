package renderer

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const currencyPrefix = "Rp"

var plainInteger = regexp.MustCompile(`^(-?)(\d+)$`)

// FormatCurrency renders a whole-rupiah amount as "Rp" plus dot-grouped digits
func FormatCurrency(amount int64) string {
	return currencyPrefix + groupThousands(amount)
}

// groupThousands uses Indonesian locale formatting and falls back to manual
// grouping when the locale output is unusable.
func groupThousands(amount int64) (out string) {
	defer func() {
		if recover() != nil {
			out = groupDigits(amount)
		}
	}()

	out = message.NewPrinter(language.Indonesian).Sprintf("%d", amount)
	digits := strconv.FormatInt(amount, 10)
	if strings.ReplaceAll(out, ".", "") != digits {
		return groupDigits(amount)
	}
	// some locale tables skip grouping entirely
	if len(strings.TrimPrefix(digits, "-")) > 3 && !strings.Contains(out, ".") {
		return groupDigits(amount)
	}
	return out
}

// groupDigits inserts a dot before every run of three digits counted from the right
func groupDigits(amount int64) string {
	m := plainInteger.FindStringSubmatch(strconv.FormatInt(amount, 10))
	if m == nil {
		return strconv.FormatInt(amount, 10)
	}
	sign, digits := m[1], m[2]

	var b strings.Builder
	b.WriteString(sign)
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(d)
	}
	return b.String()
}
