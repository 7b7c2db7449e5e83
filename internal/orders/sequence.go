package orders

import (
	"fmt"
	"time"
)

// orderNumberPrefix starts every order number.
const orderNumberPrefix = "INV"

// dayKey is the counter key for the calendar day of t in loc.
func dayKey(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format("20060102")
}

// FormatOrderNumber renders INV-YYYYMMDD-NNNN. The sequence is zero padded to
// four digits and keeps growing past 9999.
func FormatOrderNumber(day string, seq int) string {
	return fmt.Sprintf("%s-%s-%04d", orderNumberPrefix, day, seq)
}
