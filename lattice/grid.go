package lattice

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

var (
	// ErrNegativeTime is returned when a grid is requested for times before zero.
	ErrNegativeTime = errors.New("negative times not allowed")
	// ErrInadequateGrid is returned when a time is not a node of the grid.
	ErrInadequateGrid = errors.New("inadequate time grid")
	// ErrEmptyGrid is returned when a grid has no positive mandatory time.
	ErrEmptyGrid = errors.New("grid needs a positive mandatory time")
)

const closeTolerance = 42 * 2.220446049250313e-16

// CloseEnough compares two times with a relative tolerance of a few ulps.
func CloseEnough(x, y float64) bool {
	if x == y {
		return true
	}
	diff := math.Abs(x - y)
	if x == 0 || y == 0 {
		return diff < closeTolerance*closeTolerance
	}
	return diff <= closeTolerance*math.Abs(x) || diff <= closeTolerance*math.Abs(y)
}

// TimeGrid is a sorted time discretization starting at zero that contains every
// mandatory time as a node.
type TimeGrid struct {
	times     []float64
	dt        []float64
	mandatory []float64
}

// NewTimeGrid builds a grid whose largest step is about last/steps. Each interval
// between consecutive mandatory times is split into equal sub-steps.
func NewTimeGrid(mandatory []float64, steps int) (*TimeGrid, error) {
	if len(mandatory) == 0 {
		return nil, ErrEmptyGrid
	}
	if steps <= 0 {
		return nil, fmt.Errorf("NewTimeGrid: steps must be positive, got %d", steps)
	}
	ts := append([]float64(nil), mandatory...)
	sort.Float64s(ts)
	if ts[0] < 0 {
		return nil, fmt.Errorf("NewTimeGrid: %g: %w", ts[0], ErrNegativeTime)
	}

	unique := ts[:1]
	for _, t := range ts[1:] {
		if !CloseEnough(t, unique[len(unique)-1]) {
			unique = append(unique, t)
		}
	}

	last := unique[len(unique)-1]
	if last <= 0 {
		return nil, ErrEmptyGrid
	}
	dtMax := last / float64(steps)

	times := []float64{0}
	begin := 0.0
	for _, end := range unique {
		if end == 0 {
			continue
		}
		n := int(math.Floor((end-begin)/dtMax + 0.5))
		if n < 1 {
			n = 1
		}
		h := (end - begin) / float64(n)
		for k := 1; k < n; k++ {
			times = append(times, begin+float64(k)*h)
		}
		times = append(times, end)
		begin = end
	}

	dt := make([]float64, len(times)-1)
	for i := range dt {
		dt[i] = times[i+1] - times[i]
	}
	return &TimeGrid{times: times, dt: dt, mandatory: unique}, nil
}

// Len is the number of nodes.
func (g *TimeGrid) Len() int { return len(g.times) }

// At returns the i-th node.
func (g *TimeGrid) At(i int) float64 { return g.times[i] }

// Dt returns the step from node i to node i+1.
func (g *TimeGrid) Dt(i int) float64 { return g.dt[i] }

// Back returns the last node.
func (g *TimeGrid) Back() float64 { return g.times[len(g.times)-1] }

// Times returns a copy of the nodes.
func (g *TimeGrid) Times() []float64 { return append([]float64(nil), g.times...) }

// MandatoryTimes returns the deduplicated mandatory times.
func (g *TimeGrid) MandatoryTimes() []float64 { return append([]float64(nil), g.mandatory...) }

// ClosestIndex returns the node nearest to t.
func (g *TimeGrid) ClosestIndex(t float64) int {
	i := sort.SearchFloat64s(g.times, t)
	if i == 0 {
		return 0
	}
	if i == len(g.times) {
		return len(g.times) - 1
	}
	if g.times[i]-t < t-g.times[i-1] {
		return i
	}
	return i - 1
}

// Index returns the node equal to t, or ErrInadequateGrid when t is not a node.
func (g *TimeGrid) Index(t float64) (int, error) {
	i := g.ClosestIndex(t)
	if CloseEnough(t, g.times[i]) {
		return i, nil
	}
	switch {
	case t < g.times[0]:
		return 0, fmt.Errorf("Index: all nodes are later than t=%.12g: %w", t, ErrInadequateGrid)
	case t > g.Back():
		return 0, fmt.Errorf("Index: all nodes are earlier than t=%.12g: %w", t, ErrInadequateGrid)
	default:
		return 0, fmt.Errorf("Index: closest node to t=%.12g is %.12g: %w", t, g.times[i], ErrInadequateGrid)
	}
}
