package lattice

import (
	"math"
)

// OrnsteinUhlenbeck is the zero-mean process dx = -a x dt + sigma dW.
type OrnsteinUhlenbeck struct {
	Speed      float64
	Volatility float64
}

// Expectation returns E[x(t+dt) | x(t) = x0].
func (p OrnsteinUhlenbeck) Expectation(x0, dt float64) float64 {
	return x0 * math.Exp(-p.Speed*dt)
}

// Variance returns Var[x(t+dt) | x(t)].
func (p OrnsteinUhlenbeck) Variance(dt float64) float64 {
	if p.Speed < math.Sqrt(2.220446049250313e-16) {
		return p.Volatility * p.Volatility * dt
	}
	return 0.5 * p.Volatility * p.Volatility / p.Speed * (1.0 - math.Exp(-2.0*p.Speed*dt))
}

type branching struct {
	k          []int
	probs      [3][]float64
	kMin, kMax int
}

func newBranching() branching {
	return branching{kMin: math.MaxInt, kMax: math.MinInt}
}

func (b *branching) add(k int, p1, p2, p3 float64) {
	b.k = append(b.k, k)
	b.probs[0] = append(b.probs[0], p1)
	b.probs[1] = append(b.probs[1], p2)
	b.probs[2] = append(b.probs[2], p3)
	if k < b.kMin {
		b.kMin = k
	}
	if k > b.kMax {
		b.kMax = k
	}
}

func (b *branching) jMin() int { return b.kMin - 1 }
func (b *branching) jMax() int { return b.kMax + 1 }
func (b *branching) size() int { return b.jMax() - b.jMin() + 1 }

func (b *branching) descendant(index, branch int) int {
	return b.k[index] - b.jMin() - 1 + branch
}

// TrinomialTree is a recombining tree for an Ornstein-Uhlenbeck process on a
// TimeGrid. Node spacing at step i+1 is sqrt(3 Var) and branching targets the
// conditional mean, so each node has three descendants.
type TrinomialTree struct {
	grid       *TimeGrid
	x0         float64
	dx         []float64
	branchings []branching
}

// NewTrinomialTree discretizes process on grid starting from x = 0.
func NewTrinomialTree(process OrnsteinUhlenbeck, grid *TimeGrid) *TrinomialTree {
	steps := grid.Len() - 1
	tr := &TrinomialTree{
		grid:       grid,
		dx:         make([]float64, 1, steps+1),
		branchings: make([]branching, 0, steps),
	}

	jMin, jMax := 0, 0
	for i := 0; i < steps; i++ {
		dt := grid.Dt(i)
		v2 := process.Variance(dt)
		v := math.Sqrt(v2)
		tr.dx = append(tr.dx, v*math.Sqrt(3.0))

		b := newBranching()
		for j := jMin; j <= jMax; j++ {
			x := tr.x0 + float64(j)*tr.dx[i]
			m := process.Expectation(x, dt)
			temp := int(math.Floor((m-tr.x0)/tr.dx[i+1] + 0.5))

			e := m - (tr.x0 + float64(temp)*tr.dx[i+1])
			e2 := e * e
			e3 := e * math.Sqrt(3.0)

			p1 := (1.0 + e2/v2 - e3/v) / 6.0
			p2 := (2.0 - e2/v2) / 3.0
			p3 := (1.0 + e2/v2 + e3/v) / 6.0
			b.add(temp, p1, p2, p3)
		}
		tr.branchings = append(tr.branchings, b)
		jMin, jMax = b.jMin(), b.jMax()
	}
	return tr
}

// Grid returns the underlying time grid.
func (tr *TrinomialTree) Grid() *TimeGrid { return tr.grid }

// Size is the number of nodes at step i.
func (tr *TrinomialTree) Size(i int) int {
	if i == 0 {
		return 1
	}
	return tr.branchings[i-1].size()
}

// Dx is the node spacing at step i.
func (tr *TrinomialTree) Dx(i int) float64 { return tr.dx[i] }

// Underlying is the state x at node index of step i.
func (tr *TrinomialTree) Underlying(i, index int) float64 {
	if i == 0 {
		return tr.x0
	}
	return tr.x0 + float64(tr.branchings[i-1].jMin()+index)*tr.dx[i]
}

// Descendant is the node at step i+1 reached from index through branch (0, 1, 2).
func (tr *TrinomialTree) Descendant(i, index, branch int) int {
	return tr.branchings[i].descendant(index, branch)
}

// Probability is the transition probability of branch from node index at step i.
func (tr *TrinomialTree) Probability(i, index, branch int) float64 {
	return tr.branchings[i].probs[branch][index]
}
