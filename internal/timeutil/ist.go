package timeutil

import (
	"fmt"
	"time"
)

// IST is the Indian Standard Time location (UTC+5:30). Business days of a
// station start and end at IST midnight.
var IST *time.Location

func init() {
	var err error
	IST, err = time.LoadLocation("Asia/Kolkata")
	if err != nil {
		IST = time.FixedZone("IST", 5*60*60+30*60)
	}
}

// Common layouts
const (
	DateLayout     = "2006-01-02"
	DateTimeLayout = "2006-01-02 15:04:05"
)

// Now returns the current time in IST
func Now() time.Time {
	return time.Now().In(IST)
}

// StartOfDay returns 00:00:00 IST of the day containing t
func StartOfDay(t time.Time) time.Time {
	ist := t.In(IST)
	return time.Date(ist.Year(), ist.Month(), ist.Day(), 0, 0, 0, 0, IST)
}

// EndOfDay returns the last instant of the IST day containing t
func EndOfDay(t time.Time) time.Time {
	ist := t.In(IST)
	return time.Date(ist.Year(), ist.Month(), ist.Day(), 23, 59, 59, 999999999, IST)
}

// BusinessDate formats the IST calendar date of t as YYYY-MM-DD.
func BusinessDate(t time.Time) string {
	return t.In(IST).Format(DateLayout)
}

// ParseDate parses a YYYY-MM-DD business date in IST.
func ParseDate(value string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, value, IST)
}

// ParseRecordedAt accepts RFC3339 timestamps as sent by clients and falls
// back to a plain business date.
func ParseRecordedAt(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation(DateTimeLayout, value, IST); err == nil {
		return t, nil
	}
	return ParseDate(value)
}

// RangeStart returns the inclusive start of a named dashboard range ending at now.
func RangeStart(name string, now time.Time) (time.Time, error) {
	day := StartOfDay(now)
	switch name {
	case "", "daily":
		return day, nil
	case "weekly":
		return day.AddDate(0, 0, -6), nil
	case "monthly":
		return day.AddDate(0, -1, 0), nil
	case "yearly":
		return day.AddDate(-1, 0, 0), nil
	default:
		return time.Time{}, fmt.Errorf("unknown range %q", name)
	}
}
