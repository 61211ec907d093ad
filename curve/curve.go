package curve

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/meenmo/hw2c/utils"
)

var (
	// ErrNoPillars is returned when an interpolated curve is built without discount factors.
	ErrNoPillars = errors.New("curve has no pillars")
	// ErrInvalidDiscountFactor is returned for non-positive discount factors.
	ErrInvalidDiscountFactor = errors.New("discount factor must be positive")
)

// YieldCurve is a term structure of discount factors anchored at a reference date.
//
// Times are year fractions from ReferenceDate measured with DayCount; DF(d) and
// Discount(TimeOf(c, d)) agree for every date d.
type YieldCurve interface {
	ReferenceDate() time.Time
	DayCount() string
	DF(d time.Time) float64
	Discount(t float64) float64
}

// TimeOf returns the curve time of date d.
func TimeOf(c YieldCurve, d time.Time) float64 {
	return utils.YearFraction(c.ReferenceDate(), d, c.DayCount())
}

// ZeroRate returns the continuously-compounded zero rate (decimal) of c at time t.
func ZeroRate(c YieldCurve, t float64) float64 {
	if t <= 0 {
		t = 1e-4
	}
	return -math.Log(c.Discount(t)) / t
}

// Curve is a discount curve with log-linear interpolation between pillar dates.
// Beyond the last pillar the last forward rate is extended flat.
type Curve struct {
	reference time.Time
	dayCount  string
	dates     []time.Time
	times     []float64
	logDFs    []float64
}

// NewCurveFromDFs creates a curve from explicitly provided discount factors.
// A pillar of 1.0 at the reference date is added when missing.
func NewCurveFromDFs(reference time.Time, dfs map[time.Time]float64, dayCount string) (*Curve, error) {
	if len(dfs) == 0 {
		return nil, ErrNoPillars
	}
	reference = utils.DateOnly(reference)

	dates := make([]time.Time, 0, len(dfs)+1)
	values := make(map[time.Time]float64, len(dfs)+1)
	for d, df := range dfs {
		if df <= 0 || math.IsNaN(df) {
			return nil, fmt.Errorf("NewCurveFromDFs: %s: %w", utils.FormatDate(d), ErrInvalidDiscountFactor)
		}
		d = utils.DateOnly(d)
		if d.Before(reference) {
			continue
		}
		if _, ok := values[d]; !ok {
			dates = append(dates, d)
		}
		values[d] = df
	}
	if _, ok := values[reference]; !ok {
		dates = append(dates, reference)
		values[reference] = 1.0
	}
	utils.SortDates(dates)

	c := &Curve{
		reference: reference,
		dayCount:  dayCount,
		dates:     dates,
		times:     make([]float64, len(dates)),
		logDFs:    make([]float64, len(dates)),
	}
	for i, d := range dates {
		c.times[i] = utils.YearFraction(reference, d, dayCount)
		c.logDFs[i] = math.Log(values[d])
	}
	return c, nil
}

// ReferenceDate returns the curve's anchor date.
func (c *Curve) ReferenceDate() time.Time {
	return c.reference
}

// DayCount returns the curve's day count convention.
func (c *Curve) DayCount() string {
	return c.dayCount
}

// DF returns the discount factor for date d.
func (c *Curve) DF(d time.Time) float64 {
	return c.Discount(TimeOf(c, d))
}

// Discount returns the discount factor at curve time t.
func (c *Curve) Discount(t float64) float64 {
	n := len(c.times)
	if n == 1 {
		return math.Exp(c.logDFs[0])
	}
	i := sort.SearchFloat64s(c.times, t)
	switch {
	case i <= 0:
		i = 1
	case i >= n:
		i = n - 1
	}
	t1, t2 := c.times[i-1], c.times[i]
	l1, l2 := c.logDFs[i-1], c.logDFs[i]
	if t2 == t1 {
		return math.Exp(l1)
	}
	w := (t - t1) / (t2 - t1)
	return math.Exp(l1 + w*(l2-l1))
}

// Pillars returns the pillar dates and discount factors.
func (c *Curve) Pillars() ([]time.Time, []float64) {
	dfs := make([]float64, len(c.logDFs))
	for i, l := range c.logDFs {
		dfs[i] = math.Exp(l)
	}
	dates := make([]time.Time, len(c.dates))
	copy(dates, c.dates)
	return dates, dfs
}
