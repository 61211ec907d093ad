package swap

import (
	"fmt"
	"reflect"
	"time"

	"github.com/meenmo/hw2c/curve"
	"github.com/meenmo/hw2c/utils"
)

func isNilInterface(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Slice, reflect.Map, reflect.Func:
		return rv.IsNil()
	default:
		return false
	}
}

func forwardRate(projCurve curve.YieldCurve, start, end time.Time, span float64) float64 {
	if span == 0 {
		return 0
	}
	return (projCurve.DF(start)/projCurve.DF(end) - 1.0) / span
}

// FloatingRate returns the rate (without spread) that c accrues at: the
// fixing when c reset before valuationDate, the projected forward otherwise.
func FloatingRate(c FloatingCoupon, projCurve curve.YieldCurve, valuationDate time.Time) (float64, error) {
	if c.ResetDate.Before(valuationDate) {
		if !c.HasFixing {
			return 0, fmt.Errorf("FloatingRate: fixing %s: %w", utils.FormatDate(c.FixingDate), ErrMissingFixing)
		}
		return c.Fixing, nil
	}
	return forwardRate(projCurve, c.IndexStart, c.IndexEnd, c.IndexSpan), nil
}

func fixedLegPV(s *VanillaSwap, discCurve curve.YieldCurve, valuationDate time.Time) float64 {
	pv := 0.0
	for _, c := range s.Fixed {
		if c.PayDate.Before(valuationDate) {
			continue
		}
		pv += c.Amount * discCurve.DF(c.PayDate)
	}
	return pv
}

func floatingLegPV(s *VanillaSwap, projCurve, discCurve curve.YieldCurve, valuationDate time.Time) (float64, error) {
	pv := 0.0
	for _, c := range s.Floating {
		if c.PayDate.Before(valuationDate) {
			continue
		}
		rate, err := FloatingRate(c, projCurve, valuationDate)
		if err != nil {
			return 0, err
		}
		pv += s.Nominal * c.Accrual * (rate + c.Spread) * discCurve.DF(c.PayDate)
	}
	return pv, nil
}

func validate(s *VanillaSwap, projCurve, discCurve curve.YieldCurve) error {
	if s == nil {
		return ErrNilSwap
	}
	if isNilInterface(discCurve) || isNilInterface(projCurve) {
		return ErrNilCurve
	}
	return nil
}

// PVByLeg values both legs by discounting projected cashflows on discCurve.
// Cashflows paid before the discount curve's reference date are ignored.
func PVByLeg(s *VanillaSwap, projCurve, discCurve curve.YieldCurve) (PV, error) {
	if err := validate(s, projCurve, discCurve); err != nil {
		return PV{}, fmt.Errorf("PVByLeg: %w", err)
	}
	valuationDate := discCurve.ReferenceDate()

	fixed := fixedLegPV(s, discCurve, valuationDate)
	floating, err := floatingLegPV(s, projCurve, discCurve, valuationDate)
	if err != nil {
		return PV{}, fmt.Errorf("PVByLeg: floating leg: %w", err)
	}

	sign := 1.0
	if s.Position == Receiver {
		sign = -1.0
	}
	out := PV{
		FixedLegPV:    -sign * fixed,
		FloatingLegPV: sign * floating,
	}
	out.TotalPV = out.FixedLegPV + out.FloatingLegPV
	return out, nil
}

// NPV calculates the net present value of a swap by summing discounted cashflows across both legs.
func NPV(s *VanillaSwap, projCurve, discCurve curve.YieldCurve) (float64, error) {
	pv, err := PVByLeg(s, projCurve, discCurve)
	if err != nil {
		return 0, err
	}
	return pv.TotalPV, nil
}

// Annuity is the value of one unit of fixed rate paid on the remaining fixed leg.
func Annuity(s *VanillaSwap, discCurve curve.YieldCurve) (float64, error) {
	if s == nil {
		return 0, ErrNilSwap
	}
	if isNilInterface(discCurve) {
		return 0, ErrNilCurve
	}
	valuationDate := discCurve.ReferenceDate()
	annuity := 0.0
	for _, c := range s.Fixed {
		if c.PayDate.Before(valuationDate) {
			continue
		}
		annuity += s.Nominal * c.Accrual * discCurve.DF(c.PayDate)
	}
	return annuity, nil
}

// FairRate returns the fixed rate that sets the swap NPV to zero.
func FairRate(s *VanillaSwap, projCurve, discCurve curve.YieldCurve) (float64, error) {
	if err := validate(s, projCurve, discCurve); err != nil {
		return 0, fmt.Errorf("FairRate: %w", err)
	}
	annuity, err := Annuity(s, discCurve)
	if err != nil {
		return 0, fmt.Errorf("FairRate: %w", err)
	}
	if annuity == 0 {
		return 0, fmt.Errorf("FairRate: annuity is zero")
	}
	floating, err := floatingLegPV(s, projCurve, discCurve, discCurve.ReferenceDate())
	if err != nil {
		return 0, fmt.Errorf("FairRate: %w", err)
	}
	return floating / annuity, nil
}

// WithFixedRate returns a copy of s paying rate on every fixed coupon.
func (s *VanillaSwap) WithFixedRate(rate float64) *VanillaSwap {
	c := s.Clone()
	c.FixedRate = rate
	for i := range c.Fixed {
		c.Fixed[i].Rate = rate
		c.Fixed[i].Amount = c.Nominal * c.Fixed[i].Accrual * rate
	}
	return c
}
