package swap

import (
	"fmt"
	"time"

	"github.com/meenmo/hw2c/calendar"
	"github.com/meenmo/hw2c/market"
	"github.com/meenmo/hw2c/utils"
)

// Terms describes a vanilla swap to be built by MakeVanillaSwap.
//
// When EffectiveDate is zero the swap starts on spot (ReferenceDate plus the
// index fixing days) shifted by ForwardStartMonths.
type Terms struct {
	Position           Position
	Nominal            float64
	FixedRate          float64
	Spread             float64
	Index              market.IborIndex
	TenorMonths        int
	ForwardStartMonths int
	ReferenceDate      time.Time
	EffectiveDate      time.Time
	FixedLeg           *market.LegConvention
	UseIndexedCoupons  bool
	Fixings            market.Fixings
}

// SpotDate returns ReferenceDate advanced by the index fixing days.
func SpotDate(reference time.Time, index market.IborIndex) time.Time {
	ref := calendar.AdjustFollowing(index.Calendar, utils.DateOnly(reference))
	return calendar.AddBusinessDays(index.Calendar, ref, index.FixingDays)
}

// MakeVanillaSwap materializes the fixed and floating coupons of a swap.
func MakeVanillaSwap(t Terms) (*VanillaSwap, error) {
	if t.TenorMonths <= 0 {
		return nil, fmt.Errorf("MakeVanillaSwap: tenor must be positive, got %d months", t.TenorMonths)
	}
	if t.Index.TenorMonths <= 0 {
		return nil, fmt.Errorf("MakeVanillaSwap: index %q has no tenor", t.Index.Name)
	}
	nominal := t.Nominal
	if nominal == 0 {
		nominal = 1.0
	}

	effective := utils.DateOnly(t.EffectiveDate)
	if effective.IsZero() {
		if t.ReferenceDate.IsZero() {
			return nil, fmt.Errorf("MakeVanillaSwap: reference date or effective date required")
		}
		effective = utils.AddMonth(SpotDate(t.ReferenceDate, t.Index), t.ForwardStartMonths)
	}
	maturity := utils.AddMonth(effective, t.TenorMonths)

	fixedLeg := market.EURFixedLeg()
	if t.FixedLeg != nil {
		fixedLeg = *t.FixedLeg
	}
	floatLeg := market.FloatingLeg(t.Index)

	s := &VanillaSwap{
		Position:       t.Position,
		Nominal:        nominal,
		FixedRate:      t.FixedRate,
		Spread:         t.Spread,
		Index:          t.Index,
		FixedLeg:       fixedLeg,
		FloatingLeg:    floatLeg,
		EffectiveDate:  effective,
		MaturityDate:   fixedLeg.Adjust(maturity),
		IndexedCoupons: t.UseIndexedCoupons,
	}

	fixedPeriods, err := GenerateSchedule(effective, maturity, fixedLeg)
	if err != nil {
		return nil, fmt.Errorf("MakeVanillaSwap: fixed leg: %w", err)
	}
	for _, p := range fixedPeriods {
		accrual := utils.YearFraction(p.StartDate, p.EndDate, string(fixedLeg.DayCount))
		s.Fixed = append(s.Fixed, FixedCoupon{
			AccrualStart: p.StartDate,
			AccrualEnd:   p.EndDate,
			PayDate:      p.PayDate,
			ResetDate:    p.StartDate,
			Accrual:      accrual,
			Rate:         t.FixedRate,
			Amount:       nominal * accrual * t.FixedRate,
		})
	}

	floatPeriods, err := GenerateSchedule(effective, maturity, floatLeg)
	if err != nil {
		return nil, fmt.Errorf("MakeVanillaSwap: floating leg: %w", err)
	}
	for _, p := range floatPeriods {
		s.Floating = append(s.Floating, floatingCoupon(p, t.Index, floatLeg, t.Spread, t.UseIndexedCoupons, t.Fixings))
	}
	return s, nil
}

// floatingCoupon projects the index over its own tenor for indexed coupons,
// and over the accrual period otherwise.
func floatingCoupon(p SchedulePeriod, index market.IborIndex, leg market.LegConvention, spread float64, indexed bool, fixings market.Fixings) FloatingCoupon {
	accrual := utils.YearFraction(p.StartDate, p.EndDate, string(leg.DayCount))
	fixingDate := index.FixingDate(p.StartDate)

	c := FloatingCoupon{
		AccrualStart: p.StartDate,
		AccrualEnd:   p.EndDate,
		PayDate:      p.PayDate,
		ResetDate:    p.StartDate,
		FixingDate:   fixingDate,
		Accrual:      accrual,
		Spread:       spread,
	}
	if indexed {
		c.IndexStart = index.ValueDate(fixingDate)
		c.IndexEnd = index.MaturityDate(c.IndexStart)
		c.IndexSpan = utils.YearFraction(c.IndexStart, c.IndexEnd, string(index.DayCount))
	} else {
		c.IndexStart = p.StartDate
		c.IndexEnd = p.EndDate
		c.IndexSpan = accrual
	}
	if r, ok := fixings.RateOn(fixingDate); ok {
		c.Fixing = r
		c.HasFixing = true
	}
	return c
}
