package store

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const dayLabel = "02/01/2006"

// ErrInvalidPeriod is returned by ParseRange for input it does not understand
var ErrInvalidPeriod = errors.New("invalid period")

// Range is a half-open report window [From, To)
type Range struct {
	From  time.Time
	To    time.Time
	Label string
}

// ParseRange understands "today" (also empty), "yesterday", "week" (last
// seven days), "month" (this calendar month), a single YYYY-MM-DD day and
// an inclusive YYYY-MM-DD..YYYY-MM-DD span. Days are in now's location.
func ParseRange(s string, now time.Time) (Range, error) {
	today := startOfDay(now)

	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "today", "hari-ini":
		return days(today, today), nil
	case "yesterday", "kemarin":
		y := today.AddDate(0, 0, -1)
		return days(y, y), nil
	case "week", "minggu":
		return days(today.AddDate(0, 0, -6), today), nil
	case "month", "bulan":
		first := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location())
		return days(first, today), nil
	}

	first, last, found := strings.Cut(strings.TrimSpace(s), "..")
	from, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(first), now.Location())
	if err != nil {
		return Range{}, fmt.Errorf("%w %q: %v", ErrInvalidPeriod, s, err)
	}
	if !found {
		return days(from, from), nil
	}

	to, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(last), now.Location())
	if err != nil {
		return Range{}, fmt.Errorf("%w %q: %v", ErrInvalidPeriod, s, err)
	}
	if to.Before(from) {
		return Range{}, fmt.Errorf("%w %q: end before start", ErrInvalidPeriod, s)
	}
	return days(from, to), nil
}

func days(first, last time.Time) Range {
	label := first.Format(dayLabel)
	if !last.Equal(first) {
		label += " - " + last.Format(dayLabel)
	}
	return Range{From: first, To: last.AddDate(0, 0, 1), Label: label}
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
