package engine

import (
	"fmt"
	"time"

	"github.com/meenmo/hw2c/lattice"
	"github.com/meenmo/hw2c/swap"
	"github.com/meenmo/hw2c/utils"
)

// CouponAdjustment says whether a coupon is added before (Pre) or after (Post)
// an exercise decision taken at its reset time.
type CouponAdjustment int

const (
	Pre CouponAdjustment = iota
	Post
)

func (c CouponAdjustment) String() string {
	if c == Post {
		return "POST"
	}
	return "PRE"
}

// DiscretizedSwap values a vanilla swap on a pair of lattices. Node values live
// on the discount lattice; floating coupons are projected on the forward one.
type DiscretizedSwap struct {
	lattice.State

	swap    *swap.VanillaSwap
	forward *lattice.Tree
	sign    float64

	fixedResetTimes []float64
	fixedPayTimes   []float64
	fixedAdjust     []CouponAdjustment

	floatResetTimes []float64
	floatPayTimes   []float64
	indexStartTimes []float64
	indexEndTimes   []float64
	floatAdjust     []CouponAdjustment
}

// NewDiscretizedSwap measures every coupon date of s as a time from reference
// with the day count dayCount. All coupons use the Pre adjustment.
func NewDiscretizedSwap(s *swap.VanillaSwap, reference time.Time, dayCount string) (*DiscretizedSwap, error) {
	if s == nil {
		return nil, fmt.Errorf("NewDiscretizedSwap: %w", swap.ErrNilSwap)
	}
	return newDiscretizedSwap(s, reference, dayCount,
		make([]CouponAdjustment, len(s.Fixed)), make([]CouponAdjustment, len(s.Floating))), nil
}

func newDiscretizedSwap(s *swap.VanillaSwap, reference time.Time, dayCount string, fixedAdjust, floatAdjust []CouponAdjustment) *DiscretizedSwap {
	yf := func(d time.Time) float64 { return utils.YearFraction(reference, d, dayCount) }

	d := &DiscretizedSwap{
		swap:        s,
		sign:        1,
		fixedAdjust: fixedAdjust,
		floatAdjust: floatAdjust,
	}
	if s.Position == swap.Receiver {
		d.sign = -1
	}
	for _, c := range s.Fixed {
		d.fixedResetTimes = append(d.fixedResetTimes, yf(c.ResetDate))
		d.fixedPayTimes = append(d.fixedPayTimes, yf(c.PayDate))
	}
	for _, c := range s.Floating {
		d.floatResetTimes = append(d.floatResetTimes, yf(c.ResetDate))
		d.floatPayTimes = append(d.floatPayTimes, yf(c.PayDate))
		d.indexStartTimes = append(d.indexStartTimes, yf(c.IndexStart))
		d.indexEndTimes = append(d.indexEndTimes, yf(c.IndexEnd))
	}
	d.SetAdjustments(d.preAdjust, d.postAdjust)
	return d
}

// MandatoryTimes lists the non-negative reset, payment and index times.
func (d *DiscretizedSwap) MandatoryTimes() []float64 {
	var out []float64
	for _, ts := range [][]float64{
		d.fixedResetTimes, d.fixedPayTimes,
		d.floatResetTimes, d.floatPayTimes, d.indexStartTimes, d.indexEndTimes,
	} {
		for _, t := range ts {
			if t >= 0 {
				out = append(out, t)
			}
		}
	}
	return out
}

// Initialize attaches the swap to both lattices and resets it at time t.
func (d *DiscretizedSwap) Initialize(discount, forward *lattice.Tree, t float64) error {
	if discount == nil || forward == nil {
		return fmt.Errorf("Initialize: nil lattice: %w", ErrLatticeMismatch)
	}
	if discount.Grid() != forward.Grid() {
		return fmt.Errorf("Initialize: lattices built on different time grids: %w", ErrLatticeMismatch)
	}
	d.forward = forward
	return discount.Initialize(d, t)
}

// Reset zeroes the values and applies the coupons due at the current time.
func (d *DiscretizedSwap) Reset(size int) error {
	d.SetValues(make([]float64, size))
	return d.AdjustValues()
}

// Rollback moves the values back to time to on the discount lattice.
func (d *DiscretizedSwap) Rollback(to float64) error {
	return d.Tree().Rollback(d, to)
}

// PresentValue is the state-price weighted value at the current time.
func (d *DiscretizedSwap) PresentValue() (float64, error) {
	return d.Tree().PresentValue(d)
}

func (d *DiscretizedSwap) preAdjust() error {
	return d.addResettingCoupons(Pre)
}

func (d *DiscretizedSwap) postAdjust() error {
	if err := d.addResettingCoupons(Post); err != nil {
		return err
	}
	return d.addPastResetCoupons()
}

// addResettingCoupons adds the coupons with adjustment adj that reset now.
func (d *DiscretizedSwap) addResettingCoupons(adj CouponAdjustment) error {
	for i, t := range d.fixedResetTimes {
		if t >= 0 && d.fixedAdjust[i] == adj && d.IsOnTime(t) {
			if err := d.addFixedCoupon(i); err != nil {
				return err
			}
		}
	}
	for i, t := range d.floatResetTimes {
		if t >= 0 && d.floatAdjust[i] == adj && d.IsOnTime(t) {
			if err := d.addFloatingCoupon(i); err != nil {
				return err
			}
		}
	}
	return nil
}

// addPastResetCoupons adds, at their payment time, coupons that reset before
// the reference date and whose amount is therefore known.
func (d *DiscretizedSwap) addPastResetCoupons() error {
	values := d.Values()
	for i, t := range d.fixedResetTimes {
		pay := d.fixedPayTimes[i]
		if t < 0 && pay >= 0 && d.IsOnTime(pay) {
			amount := -d.sign * d.swap.Fixed[i].Amount
			for j := range values {
				values[j] += amount
			}
		}
	}
	for i, t := range d.floatResetTimes {
		pay := d.floatPayTimes[i]
		if t < 0 && pay >= 0 && d.IsOnTime(pay) {
			c := d.swap.Floating[i]
			if !c.HasFixing {
				return fmt.Errorf("addPastResetCoupons: fixing %s: %w", utils.FormatDate(c.FixingDate), ErrMissingFixing)
			}
			amount := d.sign * d.swap.Nominal * c.Accrual * (c.Fixing + c.Spread)
			for j := range values {
				values[j] += amount
			}
		}
	}
	return nil
}

func (d *DiscretizedSwap) addFixedCoupon(i int) error {
	bond, err := lattice.ZeroBond(d.Tree(), d.fixedPayTimes[i], d.Time())
	if err != nil {
		return fmt.Errorf("addFixedCoupon: %w", err)
	}
	values := d.Values()
	if len(bond) != len(values) {
		return fmt.Errorf("addFixedCoupon: %d bond values for %d nodes: %w", len(bond), len(values), ErrLatticeMismatch)
	}
	amount := -d.sign * d.swap.Fixed[i].Amount
	for j := range values {
		values[j] += amount * bond[j]
	}
	return nil
}

// addFloatingCoupon projects the index on the forward lattice as
// (P_f(t,S)/P_f(t,E) - 1)/span and discounts the coupon on the discount lattice.
func (d *DiscretizedSwap) addFloatingCoupon(i int) error {
	now := d.Time()
	c := d.swap.Floating[i]

	end, err := lattice.ZeroBond(d.forward, d.indexEndTimes[i], now)
	if err != nil {
		return fmt.Errorf("addFloatingCoupon: index end: %w", err)
	}
	var start []float64
	if s := d.indexStartTimes[i]; s > now && !lattice.CloseEnough(s, now) {
		if start, err = lattice.ZeroBond(d.forward, s, now); err != nil {
			return fmt.Errorf("addFloatingCoupon: index start: %w", err)
		}
	}
	pay, err := lattice.ZeroBond(d.Tree(), d.floatPayTimes[i], now)
	if err != nil {
		return fmt.Errorf("addFloatingCoupon: payment: %w", err)
	}

	values := d.Values()
	if len(end) != len(values) || len(pay) != len(values) || (start != nil && len(start) != len(values)) {
		return fmt.Errorf("addFloatingCoupon: forward lattice has %d nodes, discount lattice %d: %w", len(end), len(values), ErrLatticeMismatch)
	}
	scale := d.sign * d.swap.Nominal * c.Accrual
	for j := range values {
		s := 1.0
		if start != nil {
			s = start[j]
		}
		var fwd float64
		if c.IndexSpan != 0 {
			fwd = (s/end[j] - 1) / c.IndexSpan
		}
		values[j] += scale * (fwd + c.Spread) * pay[j]
	}
	return nil
}
