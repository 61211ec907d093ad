// Package engine prices swaps and swaptions by backward induction on a pair
// of Hull-White lattices, one fitted to the discount curve and one to the
// forward curve.
package engine

import (
	"errors"
	"fmt"
	"math"
	"reflect"

	"github.com/meenmo/hw2c/config"
	"github.com/meenmo/hw2c/curve"
	"github.com/meenmo/hw2c/lattice"
	"github.com/meenmo/hw2c/swap"
	"github.com/meenmo/hw2c/swaption"
)

var (
	// ErrNoModel is returned when an engine has no model attached.
	ErrNoModel = errors.New("no model attached to engine")
	// ErrUnsupportedSettlement is returned for cash settlement against the par yield curve.
	ErrUnsupportedSettlement = errors.New("cash par-yield-curve settlement not supported by tree engine")
	// ErrLatticeMismatch is returned when discount and forward lattice values
	// cannot be combined node by node.
	ErrLatticeMismatch = errors.New("discount and forward lattices do not match")
	// ErrNoExercise is returned when every exercise date is in the past.
	ErrNoExercise = errors.New("no exercise date on or after the reference date")
	// ErrMissingFixing is returned when a coupon reset in the past without a fixing.
	ErrMissingFixing = swap.ErrMissingFixing
)

// Asset is a lattice-pair instrument the engines can roll back.
type Asset interface {
	MandatoryTimes() []float64
	Initialize(discount, forward *lattice.Tree, t float64) error
	Rollback(to float64) error
	PresentValue() (float64, error)
}

var (
	_ Asset         = (*DiscretizedSwap)(nil)
	_ Asset         = (*DiscretizedSwaption)(nil)
	_ lattice.Asset = (*DiscretizedSwap)(nil)
	_ lattice.Asset = (*DiscretizedSwaption)(nil)
)

// Model supplies the curves and the lattice pair the engines price on.
type Model interface {
	DiscountCurve() curve.YieldCurve
	Trees(grid *lattice.TimeGrid) (discount, forward *lattice.Tree, version uint64, err error)
}

// noModel reports whether m is empty, including a nil pointer stored in the
// interface.
func noModel(m Model) bool {
	if m == nil {
		return true
	}
	rv := reflect.ValueOf(m)
	return rv.Kind() == reflect.Ptr && rv.IsNil()
}

// Results is the output of one pricing call.
type Results struct {
	Value        float64
	GridSize     int
	ModelVersion uint64
}

// gridFor builds the time grid for an asset. When steps is not positive the
// step count follows the configured steps per year.
func gridFor(times []float64, steps int) (*lattice.TimeGrid, error) {
	last := 0.0
	for _, t := range times {
		last = math.Max(last, t)
	}
	if last == 0 {
		// everything happens today; one unit step keeps the grid non-degenerate
		times = append(times, 1)
		last = 1
	}
	if steps <= 0 {
		steps = config.TimeSteps(last)
	}
	return lattice.NewTimeGrid(times, steps)
}

func lattices(m Model, times []float64, steps int) (*lattice.TimeGrid, *lattice.Tree, *lattice.Tree, uint64, error) {
	grid, err := gridFor(times, steps)
	if err != nil {
		return nil, nil, nil, 0, err
	}
	disc, fwd, version, err := m.Trees(grid)
	if err != nil {
		return nil, nil, nil, 0, err
	}
	return grid, disc, fwd, version, nil
}

// SwapEngine prices vanilla swaps on the lattice pair of a Model.
type SwapEngine struct {
	model     Model
	timeSteps int
}

// NewSwapEngine returns an engine using timeSteps lattice steps over the life
// of the swap; zero selects the configured density.
func NewSwapEngine(m Model, timeSteps int) *SwapEngine {
	return &SwapEngine{model: m, timeSteps: timeSteps}
}

// Calculate values s as seen from the discount curve's reference date.
func (e *SwapEngine) Calculate(s *swap.VanillaSwap) (Results, error) {
	if noModel(e.model) {
		return Results{}, fmt.Errorf("SwapEngine: %w", ErrNoModel)
	}
	dc := e.model.DiscountCurve()
	asset, err := NewDiscretizedSwap(s, dc.ReferenceDate(), dc.DayCount())
	if err != nil {
		return Results{}, fmt.Errorf("SwapEngine: %w", err)
	}
	times := asset.MandatoryTimes()
	if len(times) == 0 {
		return Results{}, nil
	}

	grid, disc, fwd, version, err := lattices(e.model, times, e.timeSteps)
	if err != nil {
		return Results{}, fmt.Errorf("SwapEngine: %w", err)
	}
	if err := asset.Initialize(disc, fwd, grid.Back()); err != nil {
		return Results{}, fmt.Errorf("SwapEngine: %w", err)
	}
	if err := asset.Rollback(0); err != nil {
		return Results{}, fmt.Errorf("SwapEngine: %w", err)
	}
	v, err := asset.PresentValue()
	if err != nil {
		return Results{}, fmt.Errorf("SwapEngine: %w", err)
	}
	return Results{Value: v, GridSize: grid.Len(), ModelVersion: version}, nil
}

// Price returns only the value of Calculate.
func (e *SwapEngine) Price(s *swap.VanillaSwap) (float64, error) {
	r, err := e.Calculate(s)
	return r.Value, err
}

// SwaptionEngine prices european, bermudan and american swaptions with
// physical or collateralized cash settlement.
type SwaptionEngine struct {
	model     Model
	timeSteps int
}

// NewSwaptionEngine returns an engine using timeSteps lattice steps; zero
// selects the configured density.
func NewSwaptionEngine(m Model, timeSteps int) *SwaptionEngine {
	return &SwaptionEngine{model: m, timeSteps: timeSteps}
}

// Calculate values s as seen from the discount curve's reference date.
func (e *SwaptionEngine) Calculate(s *swaption.Swaption) (Results, error) {
	if noModel(e.model) {
		return Results{}, fmt.Errorf("SwaptionEngine: %w", ErrNoModel)
	}
	if s != nil && s.Settlement == swaption.CashParYieldCurve {
		return Results{}, fmt.Errorf("SwaptionEngine: %w", ErrUnsupportedSettlement)
	}
	dc := e.model.DiscountCurve()
	asset, err := NewDiscretizedSwaption(s, dc.ReferenceDate(), dc.DayCount())
	if err != nil {
		return Results{}, fmt.Errorf("SwaptionEngine: %w", err)
	}

	exercise := asset.ExerciseTimes()
	last := exercise[len(exercise)-1]
	if last < 0 {
		return Results{}, fmt.Errorf("SwaptionEngine: %w", ErrNoExercise)
	}
	next := last
	for _, t := range exercise {
		if t >= 0 {
			next = t
			break
		}
	}
	if s.Exercise.Type == swaption.American && exercise[0] < 0 {
		next = 0
	}

	grid, disc, fwd, version, err := lattices(e.model, asset.MandatoryTimes(), e.timeSteps)
	if err != nil {
		return Results{}, fmt.Errorf("SwaptionEngine: %w", err)
	}
	if err := asset.Initialize(disc, fwd, last); err != nil {
		return Results{}, fmt.Errorf("SwaptionEngine: %w", err)
	}
	if err := asset.Rollback(next); err != nil {
		return Results{}, fmt.Errorf("SwaptionEngine: %w", err)
	}
	v, err := asset.PresentValue()
	if err != nil {
		return Results{}, fmt.Errorf("SwaptionEngine: %w", err)
	}
	return Results{Value: v, GridSize: grid.Len(), ModelVersion: version}, nil
}

// Price returns only the value of Calculate.
func (e *SwaptionEngine) Price(s *swaption.Swaption) (float64, error) {
	r, err := e.Calculate(s)
	return r.Value, err
}
