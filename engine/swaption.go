package engine

import (
	"fmt"
	"math"
	"time"

	"github.com/meenmo/hw2c/config"
	"github.com/meenmo/hw2c/lattice"
	"github.com/meenmo/hw2c/swap"
	"github.com/meenmo/hw2c/swaption"
	"github.com/meenmo/hw2c/utils"
)

// DiscretizedSwaption values the right to enter a swap on a pair of lattices.
// The underlying swap is rolled back alongside the option and the option takes
// the larger of continuation and exercise value on exercise nodes.
type DiscretizedSwaption struct {
	lattice.State

	underlying    *DiscretizedSwap
	forward       *lattice.Tree
	exerciseType  swaption.ExerciseType
	exerciseTimes []float64
	lastPayment   float64
}

// NewDiscretizedSwaption snaps coupon reset dates lying within the configured
// window of an exercise date onto that date. Coupons whose reset is moved
// forward onto the exercise are flagged Post so they do not enter the exercise
// value.
func NewDiscretizedSwaption(s *swaption.Swaption, reference time.Time, dayCount string) (*DiscretizedSwaption, error) {
	if s == nil || s.Swap == nil {
		return nil, fmt.Errorf("NewDiscretizedSwaption: %w", swap.ErrNilSwap)
	}
	if len(s.Exercise.Dates) == 0 {
		return nil, fmt.Errorf("NewDiscretizedSwaption: %w", swaption.ErrNoExerciseDates)
	}
	window := time.Duration(config.GetConfig().SnapWindowDays) * 24 * time.Hour

	snapped := s.Swap.Clone()
	fixedAdjust := make([]CouponAdjustment, len(snapped.Fixed))
	floatAdjust := make([]CouponAdjustment, len(snapped.Floating))
	for _, ex := range s.Exercise.Dates {
		for i := range snapped.Fixed {
			r, adj, ok := snap(snapped.Fixed[i].ResetDate, ex, window)
			if ok {
				snapped.Fixed[i].ResetDate = r
				fixedAdjust[i] = adj
			}
		}
		for i := range snapped.Floating {
			r, adj, ok := snap(snapped.Floating[i].ResetDate, ex, window)
			if ok {
				snapped.Floating[i].ResetDate = r
				floatAdjust[i] = adj
			}
		}
	}

	o := &DiscretizedSwaption{
		underlying:   newDiscretizedSwap(snapped, reference, dayCount, fixedAdjust, floatAdjust),
		exerciseType: s.Exercise.Type,
	}
	for _, ex := range s.Exercise.Dates {
		o.exerciseTimes = append(o.exerciseTimes, utils.YearFraction(reference, ex, dayCount))
	}
	o.lastPayment = math.Inf(-1)
	for _, t := range o.underlying.MandatoryTimes() {
		o.lastPayment = math.Max(o.lastPayment, t)
	}
	o.SetAdjustments(nil, o.postAdjust)
	return o, nil
}

// snap moves reset onto exercise when they are at most window apart.
func snap(reset, exercise time.Time, window time.Duration) (time.Time, CouponAdjustment, bool) {
	switch {
	case reset.Equal(exercise):
		return reset, Pre, false
	case reset.After(exercise) && reset.Sub(exercise) <= window:
		return exercise, Pre, true
	case reset.Before(exercise) && exercise.Sub(reset) <= window:
		return exercise, Post, true
	}
	return reset, Pre, false
}

// Underlying exposes the discretized swap the option is written on.
func (o *DiscretizedSwaption) Underlying() *DiscretizedSwap { return o.underlying }

// ExerciseTimes returns the exercise dates as curve times.
func (o *DiscretizedSwaption) ExerciseTimes() []float64 {
	return append([]float64(nil), o.exerciseTimes...)
}

// MandatoryTimes adds the non-negative exercise times to the swap's times.
func (o *DiscretizedSwaption) MandatoryTimes() []float64 {
	out := o.underlying.MandatoryTimes()
	for _, t := range o.exerciseTimes {
		if t >= 0 {
			out = append(out, t)
		}
	}
	return out
}

// Initialize attaches the option to both lattices and resets it at time t.
func (o *DiscretizedSwaption) Initialize(discount, forward *lattice.Tree, t float64) error {
	if discount == nil || forward == nil {
		return fmt.Errorf("Initialize: nil lattice: %w", ErrLatticeMismatch)
	}
	o.forward = forward
	return discount.Initialize(o, t)
}

// Reset starts the underlying at its last payment and the option at zero.
func (o *DiscretizedSwaption) Reset(size int) error {
	if err := o.underlying.Initialize(o.Tree(), o.forward, o.lastPayment); err != nil {
		return fmt.Errorf("Reset: %w", err)
	}
	o.SetValues(make([]float64, size))
	return o.AdjustValues()
}

// Rollback moves the option back to time to on the discount lattice.
func (o *DiscretizedSwaption) Rollback(to float64) error {
	return o.Tree().Rollback(o, to)
}

// PresentValue is the state-price weighted option value at the current time.
func (o *DiscretizedSwaption) PresentValue() (float64, error) {
	return o.Tree().PresentValue(o)
}

func (o *DiscretizedSwaption) postAdjust() error {
	now := o.Time()
	if err := o.Tree().PartialRollback(o.underlying, now); err != nil {
		return fmt.Errorf("postAdjust: underlying: %w", err)
	}
	if err := o.underlying.PreAdjustValues(); err != nil {
		return err
	}
	if o.canExercise(now) {
		if err := o.exercise(); err != nil {
			return err
		}
	}
	return o.underlying.PostAdjustValues()
}

func (o *DiscretizedSwaption) canExercise(now float64) bool {
	if o.exerciseType == swaption.American {
		t0, t1 := o.exerciseTimes[0], o.exerciseTimes[len(o.exerciseTimes)-1]
		return (now >= t0 || lattice.CloseEnough(now, t0)) && (now <= t1 || lattice.CloseEnough(now, t1))
	}
	for _, t := range o.exerciseTimes {
		if t >= 0 && o.IsOnTime(t) {
			return true
		}
	}
	return false
}

func (o *DiscretizedSwaption) exercise() error {
	values, underlying := o.Values(), o.underlying.Values()
	if len(values) != len(underlying) {
		return fmt.Errorf("exercise: option has %d nodes, underlying %d: %w", len(values), len(underlying), ErrLatticeMismatch)
	}
	for j := range values {
		values[j] = math.Max(values[j], underlying[j])
	}
	return nil
}
