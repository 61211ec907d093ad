package model

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/meenmo/hw2c/curve"
	"github.com/meenmo/hw2c/lattice"
)

var (
	// ErrCurveMismatch is returned when the discount and forward curves do not
	// share a reference date and day count.
	ErrCurveMismatch = errors.New("discount and forward curves differ in reference date or day count")
	// ErrInvalidParameter is returned for non-positive or malformed parameters.
	ErrInvalidParameter = errors.New("invalid model parameter")
)

// HullWhite is the single-curve short-rate model r(t) = x(t) + phi(t) with
// dx = -a x dt + sigma dW, fitted to curve.
type HullWhite struct {
	curve curve.YieldCurve
	a     float64
	sigma float64
}

// NewHullWhite validates the parameters and binds them to c.
func NewHullWhite(c curve.YieldCurve, a, sigma float64) (*HullWhite, error) {
	if c == nil {
		return nil, fmt.Errorf("NewHullWhite: nil curve")
	}
	if err := checkParams(a, sigma); err != nil {
		return nil, fmt.Errorf("NewHullWhite: %w", err)
	}
	return &HullWhite{curve: c, a: a, sigma: sigma}, nil
}

func checkParams(a, sigma float64) error {
	if !(a > 0) || math.IsInf(a, 0) {
		return fmt.Errorf("mean reversion %g: %w", a, ErrInvalidParameter)
	}
	if !(sigma > 0) || math.IsInf(sigma, 0) {
		return fmt.Errorf("volatility %g: %w", sigma, ErrInvalidParameter)
	}
	return nil
}

func (m *HullWhite) A() float64              { return m.a }
func (m *HullWhite) Sigma() float64          { return m.sigma }
func (m *HullWhite) Curve() curve.YieldCurve { return m.curve }

// Process is the state-variable dynamics shared by every lattice of the model.
func (m *HullWhite) Process() lattice.OrnsteinUhlenbeck {
	return lattice.OrnsteinUhlenbeck{Speed: m.a, Volatility: m.sigma}
}

// Tree builds a trinomial lattice on grid fitted to the model's curve.
func (m *HullWhite) Tree(grid *lattice.TimeGrid) *lattice.Tree {
	return m.fit(lattice.NewTrinomialTree(m.Process(), grid))
}

func (m *HullWhite) fit(tri *lattice.TrinomialTree) *lattice.Tree {
	return lattice.NewShortRateTree(tri, m.curve.Discount)
}

// B is the Hull-White bond sensitivity (1 - exp(-a tau)) / a.
func (m *HullWhite) B(t, T float64) float64 {
	return (1 - math.Exp(-m.a*(T-t))) / m.a
}

// DiscountBondOption prices a european option expiring at maturity on a zero
// bond paying one at bondMaturity, with the closed-form Hull-White formula.
func (m *HullWhite) DiscountBondOption(call bool, strike, maturity, bondMaturity float64) float64 {
	pT := m.curve.Discount(maturity)
	pS := m.curve.Discount(bondMaturity)
	v := m.sigma * m.B(maturity, bondMaturity) * math.Sqrt((1-math.Exp(-2*m.a*maturity))/(2*m.a))
	if v <= 0 {
		if call {
			return math.Max(pS-strike*pT, 0)
		}
		return math.Max(strike*pT-pS, 0)
	}
	h := math.Log(pS/(pT*strike))/v + 0.5*v
	if call {
		return pS*distuv.UnitNormal.CDF(h) - strike*pT*distuv.UnitNormal.CDF(h-v)
	}
	return strike*pT*distuv.UnitNormal.CDF(-h+v) - pS*distuv.UnitNormal.CDF(-h)
}
