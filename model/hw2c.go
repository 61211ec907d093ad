package model

import (
	"fmt"
	"sync"

	"github.com/meenmo/hw2c/curve"
	"github.com/meenmo/hw2c/lattice"
)

const (
	DefaultA     = 0.1
	DefaultSigma = 0.01
)

// HW2C is the dual-curve Hull-White model: one short-rate process with
// parameters (a, sigma) fitted once to the discount curve and once to the
// forward curve.
//
// Parameter changes bump Version; the single-curve sub-models are rebuilt on
// the next request, so trees are never built from stale parameters.
type HW2C struct {
	discount curve.YieldCurve
	forward  curve.YieldCurve

	mu      sync.Mutex
	a       float64
	sigma   float64
	version uint64

	built     uint64
	discModel *HullWhite
	fwdModel  *HullWhite
}

// New binds both curves to the parameters (a, sigma). The curves must share
// reference date and day count so that one time axis serves both lattices.
func New(discount, forward curve.YieldCurve, a, sigma float64) (*HW2C, error) {
	if discount == nil || forward == nil {
		return nil, fmt.Errorf("New: nil curve: %w", ErrCurveMismatch)
	}
	if !discount.ReferenceDate().Equal(forward.ReferenceDate()) || discount.DayCount() != forward.DayCount() {
		return nil, fmt.Errorf("New: discount %s/%s, forward %s/%s: %w",
			discount.ReferenceDate().Format("2006-01-02"), discount.DayCount(),
			forward.ReferenceDate().Format("2006-01-02"), forward.DayCount(), ErrCurveMismatch)
	}
	if err := checkParams(a, sigma); err != nil {
		return nil, fmt.Errorf("New: %w", err)
	}
	return &HW2C{discount: discount, forward: forward, a: a, sigma: sigma, version: 1}, nil
}

// Params returns [a, sigma].
func (m *HW2C) Params() []float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return []float64{m.a, m.sigma}
}

// SetParams replaces [a, sigma] and invalidates the sub-models.
func (m *HW2C) SetParams(p []float64) error {
	if len(p) != 2 {
		return fmt.Errorf("SetParams: want 2 parameters, got %d: %w", len(p), ErrInvalidParameter)
	}
	if err := checkParams(p[0], p[1]); err != nil {
		return fmt.Errorf("SetParams: %w", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.a, m.sigma = p[0], p[1]
	m.version++
	return nil
}

// Version increases with every successful SetParams.
func (m *HW2C) Version() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.version
}

func (m *HW2C) DiscountCurve() curve.YieldCurve { return m.discount }
func (m *HW2C) ForwardCurve() curve.YieldCurve  { return m.forward }

// refresh rebuilds the sub-models when the parameters moved. Callers hold mu.
func (m *HW2C) refresh() {
	if m.built == m.version && m.discModel != nil {
		return
	}
	m.discModel = &HullWhite{curve: m.discount, a: m.a, sigma: m.sigma}
	m.fwdModel = &HullWhite{curve: m.forward, a: m.a, sigma: m.sigma}
	m.built = m.version
}

func (m *HW2C) snapshot() (disc, fwd *HullWhite, version uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refresh()
	return m.discModel, m.fwdModel, m.version
}

// DiscountModel is the sub-model fitted to the discount curve.
func (m *HW2C) DiscountModel() *HullWhite {
	d, _, _ := m.snapshot()
	return d
}

// ForwardModel is the sub-model fitted to the forward curve.
func (m *HW2C) ForwardModel() *HullWhite {
	_, f, _ := m.snapshot()
	return f
}

// DiscountTree builds the lattice fitted to the discount curve.
func (m *HW2C) DiscountTree(grid *lattice.TimeGrid) *lattice.Tree {
	return m.DiscountModel().Tree(grid)
}

// ForwardTree builds the lattice fitted to the forward curve.
func (m *HW2C) ForwardTree(grid *lattice.TimeGrid) *lattice.Tree {
	return m.ForwardModel().Tree(grid)
}

// Trees builds both lattices on grid from one parameter snapshot. They share
// the same trinomial skeleton and differ only in the fitted drift, and version
// identifies the parameters they were built from.
func (m *HW2C) Trees(grid *lattice.TimeGrid) (disc, fwd *lattice.Tree, version uint64, err error) {
	if grid == nil {
		return nil, nil, 0, fmt.Errorf("Trees: nil grid: %w", lattice.ErrInadequateGrid)
	}
	dm, fm, version := m.snapshot()
	tri := lattice.NewTrinomialTree(dm.Process(), grid)
	return dm.fit(tri), fm.fit(tri), version, nil
}
