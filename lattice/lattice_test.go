package lattice_test

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/meenmo/hw2c/curve"
	"github.com/meenmo/hw2c/lattice"
	"github.com/meenmo/hw2c/utils"
)

func TestTimeGridContainsMandatoryTimes(t *testing.T) {
	t.Parallel()

	mandatory := []float64{2, 0.5, 1, 0.5, 5}
	grid, err := lattice.NewTimeGrid(mandatory, 20)
	if err != nil {
		t.Fatalf("NewTimeGrid error: %v", err)
	}
	if grid.At(0) != 0 {
		t.Fatalf("grid starts at %g, want 0", grid.At(0))
	}
	if grid.Back() != 5 {
		t.Fatalf("grid ends at %g, want 5", grid.Back())
	}
	for _, m := range mandatory {
		if _, err := grid.Index(m); err != nil {
			t.Fatalf("mandatory time %g missing: %v", m, err)
		}
	}
	if got := len(grid.MandatoryTimes()); got != 4 {
		t.Fatalf("mandatory times = %d, want 4 after dedup", got)
	}
	for i := 0; i < grid.Len()-1; i++ {
		if grid.Dt(i) <= 0 || grid.Dt(i) > 0.25*1.5 {
			t.Fatalf("dt[%d] = %g out of range", i, grid.Dt(i))
		}
	}
}

func TestTimeGridErrors(t *testing.T) {
	t.Parallel()

	if _, err := lattice.NewTimeGrid([]float64{-0.1, 1}, 10); !errors.Is(err, lattice.ErrNegativeTime) {
		t.Fatalf("expected ErrNegativeTime, got %v", err)
	}
	if _, err := lattice.NewTimeGrid(nil, 10); !errors.Is(err, lattice.ErrEmptyGrid) {
		t.Fatalf("expected ErrEmptyGrid, got %v", err)
	}
	grid, err := lattice.NewTimeGrid([]float64{1}, 4)
	if err != nil {
		t.Fatalf("NewTimeGrid error: %v", err)
	}
	if _, err := grid.Index(0.3); !errors.Is(err, lattice.ErrInadequateGrid) {
		t.Fatalf("expected ErrInadequateGrid, got %v", err)
	}
	if i := grid.ClosestIndex(0.3); i != 1 {
		t.Fatalf("ClosestIndex(0.3) = %d, want 1", i)
	}
}

func fittedTree(t *testing.T, mandatory []float64, steps int) (*lattice.Tree, curve.YieldCurve) {
	t.Helper()
	ref := time.Date(2022, 11, 15, 0, 0, 0, 0, time.UTC)
	c := curve.NewFlatForward(ref, 0.03, utils.Act365F)
	grid, err := lattice.NewTimeGrid(mandatory, steps)
	if err != nil {
		t.Fatalf("NewTimeGrid error: %v", err)
	}
	tri := lattice.NewTrinomialTree(lattice.OrnsteinUhlenbeck{Speed: 0.1, Volatility: 0.01}, grid)
	return lattice.NewShortRateTree(tri, c.Discount), c
}

func TestTrinomialProbabilities(t *testing.T) {
	t.Parallel()

	tree, _ := fittedTree(t, []float64{1, 3}, 12)
	grid := tree.Grid()
	for i := 0; i < grid.Len()-1; i++ {
		for j := 0; j < tree.Size(i); j++ {
			var sum float64
			for b := 0; b < 3; b++ {
				p := tree.Probability(i, j, b)
				if p < 0 {
					t.Fatalf("negative probability at (%d,%d,%d): %g", i, j, b, p)
				}
				if d := tree.Descendant(i, j, b); d < 0 || d >= tree.Size(i+1) {
					t.Fatalf("descendant %d out of range at (%d,%d)", d, i, j)
				}
				sum += p
			}
			if math.Abs(sum-1) > 1e-14 {
				t.Fatalf("probabilities at (%d,%d) sum to %.16f", i, j, sum)
			}
		}
	}
}

func TestTreeRepricesCurve(t *testing.T) {
	t.Parallel()

	mandatory := []float64{0.5, 1, 2, 5, 10}
	tree, c := fittedTree(t, mandatory, 40)
	for _, m := range mandatory {
		values, err := lattice.ZeroBond(tree, m, 0)
		if err != nil {
			t.Fatalf("ZeroBond error: %v", err)
		}
		if len(values) != 1 {
			t.Fatalf("values at t=0 = %d nodes", len(values))
		}
		if got, want := values[0], c.Discount(m); math.Abs(got-want) > 1e-12 {
			t.Fatalf("P(0,%g) = %.15f, want %.15f", m, got, want)
		}

		i, _ := tree.Grid().Index(m)
		var sum float64
		for _, q := range tree.StatePrices(i) {
			sum += q
		}
		if math.Abs(sum-c.Discount(m)) > 1e-12 {
			t.Fatalf("state prices at %g sum to %.15f", m, sum)
		}
	}
}

func TestPresentValueMatchesRollback(t *testing.T) {
	t.Parallel()

	tree, c := fittedTree(t, []float64{1, 4}, 16)
	var bond lattice.DiscountBond
	if err := tree.Initialize(&bond, 4); err != nil {
		t.Fatalf("Initialize error: %v", err)
	}
	if err := tree.Rollback(&bond, 1); err != nil {
		t.Fatalf("Rollback error: %v", err)
	}
	pv, err := tree.PresentValue(&bond)
	if err != nil {
		t.Fatalf("PresentValue error: %v", err)
	}
	if math.Abs(pv-c.Discount(4)) > 1e-12 {
		t.Fatalf("PresentValue = %.15f, want %.15f", pv, c.Discount(4))
	}

	if err := tree.PartialRollback(&bond, 2); err == nil {
		t.Fatalf("expected error when rolling forward")
	}
}

func TestAdjustmentsRunOncePerTime(t *testing.T) {
	t.Parallel()

	tree, _ := fittedTree(t, []float64{1, 2}, 8)
	var bond lattice.DiscountBond
	var pre, post int
	bond.SetAdjustments(
		func() error { pre++; return nil },
		func() error { post++; return nil },
	)
	if err := tree.Initialize(&bond, 2); err != nil {
		t.Fatalf("Initialize error: %v", err)
	}
	if err := bond.AdjustValues(); err != nil {
		t.Fatalf("AdjustValues error: %v", err)
	}
	if err := bond.AdjustValues(); err != nil {
		t.Fatalf("AdjustValues error: %v", err)
	}
	if pre != 1 || post != 1 {
		t.Fatalf("pre=%d post=%d after repeated adjustment at one time", pre, post)
	}
	if !bond.IsOnTime(2) || bond.IsOnTime(1) {
		t.Fatalf("IsOnTime mismatch at t=%g", bond.Time())
	}

	if err := tree.Rollback(&bond, 0); err != nil {
		t.Fatalf("Rollback error: %v", err)
	}
	steps := tree.Grid().Len() - 1
	if pre != steps+1 || post != steps+1 {
		t.Fatalf("pre=%d post=%d, want %d each", pre, post, steps+1)
	}
}
