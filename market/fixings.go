package market

import (
	"time"

	"github.com/meenmo/hw2c/calendar"
	"github.com/meenmo/hw2c/utils"
)

// Fixings is a history of published index fixings (decimal) keyed by fixing date.
type Fixings map[time.Time]float64

// Add records rate on date d.
func (f Fixings) Add(d time.Time, rate float64) {
	f[utils.DateOnly(d)] = rate
}

// RateOn returns the fixing published on d.
func (f Fixings) RateOn(d time.Time) (float64, bool) {
	if f == nil {
		return 0, false
	}
	r, ok := f[utils.DateOnly(d)]
	return r, ok
}

// FillFlat records rate on every business day of cal in [from, to].
func (f Fixings) FillFlat(cal calendar.CalendarID, from, to time.Time, rate float64) {
	for d := utils.DateOnly(from); !d.After(to); d = d.AddDate(0, 0, 1) {
		if calendar.IsBusinessDay(cal, d) {
			f.Add(d, rate)
		}
	}
}
