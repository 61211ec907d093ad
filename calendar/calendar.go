package calendar

import (
	"time"

	"github.com/meenmo/hw2c/utils"
)

// CalendarID identifies a holiday calendar.
type CalendarID string

const (
	// TARGET is the Trans-European Automated Real-time Gross settlement calendar.
	TARGET CalendarID = "TARGET"
	// WeekendsOnly treats every weekday as a business day.
	WeekendsOnly CalendarID = "WEEKENDS"
)

func isHoliday(cal CalendarID, t time.Time) bool {
	switch cal {
	case TARGET:
		return isTargetHoliday(t)
	default:
		return false
	}
}

// isTargetHoliday applies the TARGET closing days in force since 2000:
// New Year's Day, Good Friday, Easter Monday, Labour Day, Christmas and
// Boxing Day, plus the one-off closures on 31 December 1999 and 2001.
func isTargetHoliday(t time.Time) bool {
	y, m, d := t.Date()
	switch {
	case m == time.January && d == 1:
		return true
	case m == time.May && d == 1 && y >= 2000:
		return true
	case m == time.December && d == 25:
		return true
	case m == time.December && d == 26 && y >= 2000:
		return true
	case m == time.December && d == 31 && (y == 1998 || y == 1999 || y == 2001):
		return true
	}
	if y >= 2000 {
		easter := EasterSunday(y)
		if t.Equal(easter.AddDate(0, 0, -2)) || t.Equal(easter.AddDate(0, 0, 1)) {
			return true
		}
	}
	return false
}

// EasterSunday returns the Gregorian Easter Sunday of year y.
func EasterSunday(y int) time.Time {
	a := y % 19
	b := y / 100
	c := y % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	month := (h + l - 7*m + 114) / 31
	day := (h+l-7*m+114)%31 + 1
	return time.Date(y, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

// IsBusinessDay checks weekends and holiday sets.
func IsBusinessDay(cal CalendarID, t time.Time) bool {
	if t.Weekday() == time.Saturday || t.Weekday() == time.Sunday {
		return false
	}
	return !isHoliday(cal, t)
}

// Adjust applies Modified Following.
func Adjust(cal CalendarID, t time.Time) time.Time {
	origMonth := t.Month()
	for !IsBusinessDay(cal, t) {
		t = t.AddDate(0, 0, 1)
	}
	if t.Month() != origMonth {
		t = t.AddDate(0, 0, -1)
		for !IsBusinessDay(cal, t) {
			t = t.AddDate(0, 0, -1)
		}
	}
	return t
}

// AdjustFollowing applies a simple Following convention (no month preservation).
func AdjustFollowing(cal CalendarID, t time.Time) time.Time {
	for !IsBusinessDay(cal, t) {
		t = t.AddDate(0, 0, 1)
	}
	return t
}

// AddBusinessDays advances n business days (n can be negative).
func AddBusinessDays(cal CalendarID, t time.Time, n int) time.Time {
	step := 1
	if n < 0 {
		step = -1
	}
	for n != 0 {
		t = t.AddDate(0, 0, step)
		if IsBusinessDay(cal, t) {
			n -= step
		}
	}
	return t
}

// Advance adds months to t and applies Modified Following. With endOfMonth set,
// a start on the last business day of its month rolls to the last business day
// of the target month.
func Advance(cal CalendarID, t time.Time, months int, endOfMonth bool) time.Time {
	target := utils.AddMonth(t, months)
	if endOfMonth && IsEndOfMonth(cal, t) {
		return LastBusinessDayOfMonth(cal, target)
	}
	return Adjust(cal, target)
}

// LastBusinessDayOfMonth returns the last business day of the month containing t.
func LastBusinessDayOfMonth(cal CalendarID, t time.Time) time.Time {
	nextMonth := time.Date(t.Year(), t.Month()+1, 1, 0, 0, 0, 0, time.UTC)
	return AddBusinessDays(cal, nextMonth, -1)
}

// IsEndOfMonth checks if t is the last business day of its month.
func IsEndOfMonth(cal CalendarID, t time.Time) bool {
	return t.Equal(LastBusinessDayOfMonth(cal, t))
}
