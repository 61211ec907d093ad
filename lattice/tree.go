package lattice

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// Tree is a trinomial short-rate lattice fitted to a discount curve: the short
// rate at node j of step i is x_j + phi_i, with phi_i chosen so that the state
// prices reprice P(0, t_{i+1}) exactly.
type Tree struct {
	tri         *TrinomialTree
	phi         []float64
	statePrices [][]float64
}

// NewShortRateTree fits tri to discount, a function of time returning P(0, t).
func NewShortRateTree(tri *TrinomialTree, discount func(float64) float64) *Tree {
	grid := tri.Grid()
	steps := grid.Len() - 1
	t := &Tree{
		tri:         tri,
		phi:         make([]float64, steps),
		statePrices: make([][]float64, steps+1),
	}
	t.statePrices[0] = []float64{1}

	for i := 0; i < steps; i++ {
		dt := grid.Dt(i)
		q := t.statePrices[i]

		var sum float64
		for j := range q {
			sum += q[j] * math.Exp(-tri.Underlying(i, j)*dt)
		}
		t.phi[i] = math.Log(sum/discount(grid.At(i+1))) / dt

		next := make([]float64, tri.Size(i+1))
		for j := range q {
			d := q[j] * math.Exp(-(tri.Underlying(i, j)+t.phi[i])*dt)
			for b := 0; b < 3; b++ {
				next[tri.Descendant(i, j, b)] += d * tri.Probability(i, j, b)
			}
		}
		t.statePrices[i+1] = next
	}
	return t
}

// Grid returns the time grid of the tree.
func (t *Tree) Grid() *TimeGrid { return t.tri.Grid() }

// Size is the number of nodes at step i.
func (t *Tree) Size(i int) int { return t.tri.Size(i) }

// Underlying is the state variable x at node j of step i.
func (t *Tree) Underlying(i, j int) float64 { return t.tri.Underlying(i, j) }

// ShortRate is the one-step rate at node j of step i.
func (t *Tree) ShortRate(i, j int) float64 { return t.tri.Underlying(i, j) + t.phi[i] }

// Discount is the one-step discount factor from node j of step i.
func (t *Tree) Discount(i, j int) float64 {
	return math.Exp(-t.ShortRate(i, j) * t.Grid().Dt(i))
}

// Descendant is the node at step i+1 reached from j through branch.
func (t *Tree) Descendant(i, j, branch int) int { return t.tri.Descendant(i, j, branch) }

// Probability is the transition probability of branch from node j at step i.
func (t *Tree) Probability(i, j, branch int) float64 { return t.tri.Probability(i, j, branch) }

// StatePrices returns the Arrow-Debreu prices of the nodes at step i.
func (t *Tree) StatePrices(i int) []float64 { return t.statePrices[i] }

// Initialize attaches a to the tree and resets it at time at, which must be a node.
func (t *Tree) Initialize(a Asset, at float64) error {
	i, err := t.Grid().Index(at)
	if err != nil {
		return fmt.Errorf("Initialize: %w", err)
	}
	a.Attach(t)
	a.SetTime(at)
	return a.Reset(t.Size(i))
}

// PartialRollback rolls a back to time to, adjusting values at every
// intermediate node but not at to itself.
func (t *Tree) PartialRollback(a Asset, to float64) error {
	from := a.Time()
	if CloseEnough(from, to) {
		return nil
	}
	if from < to {
		return fmt.Errorf("PartialRollback: cannot roll back from %.12g to later time %.12g", from, to)
	}
	grid := t.Grid()
	iFrom, err := grid.Index(from)
	if err != nil {
		return fmt.Errorf("PartialRollback: %w", err)
	}
	iTo, err := grid.Index(to)
	if err != nil {
		return fmt.Errorf("PartialRollback: %w", err)
	}

	for i := iFrom - 1; i >= iTo; i-- {
		values, err := t.stepback(i, a.Values())
		if err != nil {
			return err
		}
		a.SetTime(grid.At(i))
		a.SetValues(values)
		if i != iTo {
			if err := a.AdjustValues(); err != nil {
				return err
			}
		}
	}
	return nil
}

// Rollback rolls a back to time to and applies its adjustments there.
func (t *Tree) Rollback(a Asset, to float64) error {
	if err := t.PartialRollback(a, to); err != nil {
		return err
	}
	return a.AdjustValues()
}

// PresentValue is the state-price weighted value of a at its current time.
func (t *Tree) PresentValue(a Asset) (float64, error) {
	i, err := t.Grid().Index(a.Time())
	if err != nil {
		return 0, fmt.Errorf("PresentValue: %w", err)
	}
	values := a.Values()
	if len(values) != len(t.statePrices[i]) {
		return 0, fmt.Errorf("PresentValue: %d values for %d nodes at step %d", len(values), len(t.statePrices[i]), i)
	}
	return floats.Dot(values, t.statePrices[i]), nil
}

func (t *Tree) stepback(i int, values []float64) ([]float64, error) {
	if want := t.Size(i + 1); len(values) != want {
		return nil, fmt.Errorf("stepback: %d values for %d nodes at step %d", len(values), want, i+1)
	}
	out := make([]float64, t.Size(i))
	for j := range out {
		var v float64
		for b := 0; b < 3; b++ {
			v += t.Probability(i, j, b) * values[t.Descendant(i, j, b)]
		}
		out[j] = v * t.Discount(i, j)
	}
	return out, nil
}
