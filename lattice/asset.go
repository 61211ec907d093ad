package lattice

import "math"

// Asset is a value vector living on a Tree that can be rolled back in time.
type Asset interface {
	Attach(t *Tree)
	Time() float64
	SetTime(t float64)
	Values() []float64
	SetValues(v []float64)
	// Reset fills the values for size nodes at the current time.
	Reset(size int) error
	// AdjustValues applies the asset's conditions at the current time.
	AdjustValues() error
}

// State carries the time, values and tree of an asset and runs its pre and
// post adjustments at most once per time. Concrete assets embed it and
// register their hooks with SetAdjustments.
type State struct {
	time   float64
	values []float64
	tree   *Tree

	pre, post             func() error
	latestPre, latestPost float64
}

// SetAdjustments registers the hooks run by PreAdjustValues and PostAdjustValues.
func (s *State) SetAdjustments(pre, post func() error) {
	s.pre, s.post = pre, post
}

func (s *State) Attach(t *Tree) {
	s.tree = t
	s.latestPre = math.MaxFloat64
	s.latestPost = math.MaxFloat64
}

func (s *State) Tree() *Tree           { return s.tree }
func (s *State) Time() float64         { return s.time }
func (s *State) SetTime(t float64)     { s.time = t }
func (s *State) Values() []float64     { return s.values }
func (s *State) SetValues(v []float64) { s.values = v }

// PreAdjustValues runs the pre hook unless it already ran at the current time.
func (s *State) PreAdjustValues() error {
	if CloseEnough(s.time, s.latestPre) {
		return nil
	}
	if s.pre != nil {
		if err := s.pre(); err != nil {
			return err
		}
	}
	s.latestPre = s.time
	return nil
}

// PostAdjustValues runs the post hook unless it already ran at the current time.
func (s *State) PostAdjustValues() error {
	if CloseEnough(s.time, s.latestPost) {
		return nil
	}
	if s.post != nil {
		if err := s.post(); err != nil {
			return err
		}
	}
	s.latestPost = s.time
	return nil
}

// AdjustValues runs the pre and then the post adjustment.
func (s *State) AdjustValues() error {
	if err := s.PreAdjustValues(); err != nil {
		return err
	}
	return s.PostAdjustValues()
}

// IsOnTime reports whether t falls on the grid node the asset currently sits at.
func (s *State) IsOnTime(t float64) bool {
	if s.tree == nil {
		return false
	}
	grid := s.tree.Grid()
	return CloseEnough(grid.At(grid.ClosestIndex(t)), s.time)
}

// DiscountBond pays one unit at the time it is initialized.
type DiscountBond struct {
	State
}

func (b *DiscountBond) Reset(size int) error {
	v := make([]float64, size)
	for i := range v {
		v[i] = 1
	}
	b.SetValues(v)
	return nil
}

// ZeroBond returns the node values at time to of a unit paid at maturity.
func ZeroBond(t *Tree, maturity, to float64) ([]float64, error) {
	var b DiscountBond
	if err := t.Initialize(&b, maturity); err != nil {
		return nil, err
	}
	if err := t.Rollback(&b, to); err != nil {
		return nil, err
	}
	return b.Values(), nil
}
