package utils

import (
	"fmt"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var jpPrinter = message.NewPrinter(language.Japanese)

// Weekday kanji, Sunday first to line up with time.Weekday
var jaWeekdays = [...]string{"日", "月", "火", "水", "木", "金", "土"}

// FormatCurrency renders a yen amount with grouping, e.g. 5000 -> ¥5,000
func FormatCurrency(amount int) string {
	return jpPrinter.Sprintf("¥%v", number.Decimal(amount))
}

// FormatDateTime renders a timestamp in the long Japanese form,
// e.g. 2026年04月01日(水) 14:00. The zero time renders empty.
func FormatDateTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return fmt.Sprintf("%04d年%02d月%02d日(%s) %02d:%02d",
		t.Year(), int(t.Month()), t.Day(), jaWeekdays[t.Weekday()], t.Hour(), t.Minute())
}

// FormatShortDate renders a timestamp in the short form, e.g. 04/01(水) 14:00
func FormatShortDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return fmt.Sprintf("%02d/%02d(%s) %02d:%02d",
		int(t.Month()), t.Day(), jaWeekdays[t.Weekday()], t.Hour(), t.Minute())
}
