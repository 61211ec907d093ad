package swaption

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/meenmo/hw2c/config"
	"github.com/meenmo/hw2c/curve"
	"github.com/meenmo/hw2c/swap"
	"github.com/meenmo/hw2c/utils"
)

// ErrImpliedVolNotFound is returned when no volatility reproduces a price.
var ErrImpliedVolNotFound = errors.New("implied volatility not found")

// VolatilityType selects the Black (shifted lognormal) or Bachelier (normal) model.
type VolatilityType int

const (
	ShiftedLognormal VolatilityType = iota
	Normal
)

func (v VolatilityType) String() string {
	if v == Normal {
		return "NORMAL"
	}
	return "SHIFTED_LOGNORMAL"
}

// ParseVolatilityType accepts lognormal/black and normal/bachelier spellings.
func ParseVolatilityType(s string) (VolatilityType, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "LOGNORMAL", "SHIFTED_LOGNORMAL", "BLACK":
		return ShiftedLognormal, nil
	case "NORMAL", "BACHELIER":
		return Normal, nil
	default:
		return ShiftedLognormal, fmt.Errorf("ParseVolatilityType: unknown volatility type %q", s)
	}
}

// BlackInputs are the market quantities a Black-style swaption price depends on.
type BlackInputs struct {
	Forward float64
	Strike  float64
	Annuity float64
	Expiry  float64
	Payer   bool
}

// BlackEngine prices european swaptions with a flat Black or Bachelier volatility.
// Forwards come from Forward, discounting and the annuity from Discount.
type BlackEngine struct {
	Discount   curve.YieldCurve
	Forward    curve.YieldCurve
	Volatility float64
	Type       VolatilityType
	Shift      float64
	// DayCount measures the time to expiry; ACT/365F when empty.
	DayCount string
}

// Inputs computes the forward swap rate, strike, annuity and expiry of s.
func (e *BlackEngine) Inputs(s *Swaption) (BlackInputs, error) {
	if s == nil || s.Swap == nil {
		return BlackInputs{}, swap.ErrNilSwap
	}
	if s.Exercise.Type != European || len(s.Exercise.Dates) != 1 {
		return BlackInputs{}, ErrNotEuropean
	}
	if e.Discount == nil || e.Forward == nil {
		return BlackInputs{}, swap.ErrNilCurve
	}
	fwd, err := swap.FairRate(s.Swap, e.Forward, e.Discount)
	if err != nil {
		return BlackInputs{}, fmt.Errorf("BlackEngine: %w", err)
	}
	annuity, err := swap.Annuity(s.Swap, e.Discount)
	if err != nil {
		return BlackInputs{}, fmt.Errorf("BlackEngine: %w", err)
	}
	dc := e.DayCount
	if dc == "" {
		dc = utils.Act365F
	}
	return BlackInputs{
		Forward: fwd,
		Strike:  s.Swap.FixedRate,
		Annuity: annuity,
		Expiry:  utils.YearFraction(e.Discount.ReferenceDate(), s.Exercise.Dates[0], dc),
		Payer:   s.Swap.Position == swap.Payer,
	}, nil
}

// Price returns the swaption premium.
func (e *BlackEngine) Price(s *Swaption) (float64, error) {
	in, err := e.Inputs(s)
	if err != nil {
		return 0, err
	}
	return PriceFromInputs(in, e.Volatility, e.Type, e.Shift), nil
}

// PriceFromInputs evaluates the Black or Bachelier formula scaled by the annuity.
func PriceFromInputs(in BlackInputs, vol float64, typ VolatilityType, shift float64) float64 {
	stdDev := vol * math.Sqrt(math.Max(in.Expiry, 0))
	if typ == Normal {
		return in.Annuity * BachelierFormula(in.Payer, in.Strike, in.Forward, stdDev)
	}
	return in.Annuity * BlackFormula(in.Payer, in.Strike, in.Forward, stdDev, shift)
}

// BlackFormula is the undiscounted displaced-lognormal option value.
func BlackFormula(call bool, strike, forward, stdDev, displacement float64) float64 {
	f := forward + displacement
	k := strike + displacement
	intrinsic := f - k
	if !call {
		intrinsic = -intrinsic
	}
	if stdDev <= 0 || k <= 0 || f <= 0 {
		return math.Max(intrinsic, 0)
	}
	d1 := math.Log(f/k)/stdDev + 0.5*stdDev
	d2 := d1 - stdDev
	n := distuv.UnitNormal
	if call {
		return f*n.CDF(d1) - k*n.CDF(d2)
	}
	return k*n.CDF(-d2) - f*n.CDF(-d1)
}

// BachelierFormula is the undiscounted normal-model option value.
func BachelierFormula(call bool, strike, forward, stdDev float64) float64 {
	diff := forward - strike
	if !call {
		diff = -diff
	}
	if stdDev <= 0 {
		return math.Max(diff, 0)
	}
	d := diff / stdDev
	n := distuv.UnitNormal
	return diff*n.CDF(d) + stdDev*n.Prob(d)
}

func vega(in BlackInputs, vol float64, typ VolatilityType, shift float64) float64 {
	sqrtT := math.Sqrt(math.Max(in.Expiry, 0))
	stdDev := vol * sqrtT
	if stdDev <= 0 {
		return 0
	}
	n := distuv.UnitNormal
	if typ == Normal {
		return in.Annuity * sqrtT * n.Prob((in.Forward-in.Strike)/stdDev)
	}
	f := in.Forward + shift
	k := in.Strike + shift
	if f <= 0 || k <= 0 {
		return 0
	}
	d1 := math.Log(f/k)/stdDev + 0.5*stdDev
	return in.Annuity * f * sqrtT * n.Prob(d1)
}

// ImpliedVolatility inverts PriceFromInputs with Newton steps on vega,
// falling back to bisection when a step leaves the bracket.
func ImpliedVolatility(price float64, in BlackInputs, typ VolatilityType, shift float64) (float64, error) {
	cfg := config.GetConfig()
	lo, hi := 1e-10, 5.0
	guess := 0.2
	if typ == Normal {
		hi = 0.5
		guess = 0.01
	}
	f := func(v float64) float64 { return PriceFromInputs(in, v, typ, shift) - price }

	flo, fhi := f(lo), f(hi)
	if flo > 0 || fhi < 0 {
		return 0, fmt.Errorf("ImpliedVolatility: price %.10g outside [%.10g, %.10g]: %w", price, flo+price, fhi+price, ErrImpliedVolNotFound)
	}

	v := guess
	for i := 0; i < cfg.ImpliedVolMaxIterations; i++ {
		fv := f(v)
		if math.Abs(fv) <= cfg.ImpliedVolAccuracy {
			return v, nil
		}
		if fv > 0 {
			hi = v
		} else {
			lo = v
		}
		next := v
		if dv := vega(in, v, typ, shift); dv > 0 {
			next = v - fv/dv
		}
		if next <= lo || next >= hi || next == v {
			next = 0.5 * (lo + hi)
		}
		v = next
		if hi-lo < 1e-15 {
			return v, nil
		}
	}
	return v, fmt.Errorf("ImpliedVolatility: no convergence after %d iterations: %w", cfg.ImpliedVolMaxIterations, ErrImpliedVolNotFound)
}
