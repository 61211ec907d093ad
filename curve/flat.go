package curve

import (
	"math"
	"time"

	"github.com/meenmo/hw2c/utils"
)

// FlatForward is a curve with a constant continuously-compounded zero rate.
type FlatForward struct {
	reference time.Time
	rate      float64
	dayCount  string
}

// NewFlatForward returns a flat curve paying rate (decimal, continuous compounding).
func NewFlatForward(reference time.Time, rate float64, dayCount string) *FlatForward {
	return &FlatForward{
		reference: utils.DateOnly(reference),
		rate:      rate,
		dayCount:  dayCount,
	}
}

func (f *FlatForward) ReferenceDate() time.Time { return f.reference }
func (f *FlatForward) DayCount() string         { return f.dayCount }
func (f *FlatForward) Rate() float64            { return f.rate }

func (f *FlatForward) DF(d time.Time) float64 {
	return f.Discount(TimeOf(f, d))
}

func (f *FlatForward) Discount(t float64) float64 {
	return math.Exp(-f.rate * t)
}
