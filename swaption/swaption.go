package swaption

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/meenmo/hw2c/calendar"
	"github.com/meenmo/hw2c/curve"
	"github.com/meenmo/hw2c/market"
	"github.com/meenmo/hw2c/swap"
	"github.com/meenmo/hw2c/utils"
)

var (
	// ErrNoExerciseDates is returned for an exercise schedule without dates.
	ErrNoExerciseDates = errors.New("exercise has no dates")
	// ErrNotEuropean is returned by analytic engines for early-exercise swaptions.
	ErrNotEuropean = errors.New("analytic pricing requires a european exercise")
)

// ExerciseType enumerates exercise styles.
type ExerciseType int

const (
	European ExerciseType = iota
	Bermudan
	American
)

func (e ExerciseType) String() string {
	switch e {
	case Bermudan:
		return "BERMUDAN"
	case American:
		return "AMERICAN"
	default:
		return "EUROPEAN"
	}
}

// Exercise is the set of dates on which the holder may enter the swap.
// American exercise uses Dates[0] and Dates[1] as the window bounds.
type Exercise struct {
	Type  ExerciseType
	Dates []time.Time
}

// NewExercise sorts dates and validates the shape required by typ.
func NewExercise(typ ExerciseType, dates []time.Time) (Exercise, error) {
	if len(dates) == 0 {
		return Exercise{}, ErrNoExerciseDates
	}
	ds := make([]time.Time, len(dates))
	for i, d := range dates {
		ds[i] = utils.DateOnly(d)
	}
	sort.Slice(ds, func(i, j int) bool { return ds[i].Before(ds[j]) })
	switch typ {
	case European:
		if len(ds) != 1 {
			return Exercise{}, fmt.Errorf("NewExercise: european exercise needs one date, got %d", len(ds))
		}
	case American:
		if len(ds) != 2 {
			return Exercise{}, fmt.Errorf("NewExercise: american exercise needs two dates, got %d", len(ds))
		}
	}
	return Exercise{Type: typ, Dates: ds}, nil
}

// Settlement describes how the swaption is delivered.
type Settlement int

const (
	PhysicalOTC Settlement = iota
	PhysicalCleared
	CashCollateralized
	CashParYieldCurve
)

func (s Settlement) String() string {
	switch s {
	case PhysicalCleared:
		return "PHYSICAL_CLEARED"
	case CashCollateralized:
		return "CASH_COLLATERALIZED"
	case CashParYieldCurve:
		return "CASH_PAR_YIELD_CURVE"
	default:
		return "PHYSICAL_OTC"
	}
}

// ParseSettlement maps the String form back to a Settlement. Empty means PhysicalOTC.
func ParseSettlement(s string) (Settlement, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "PHYSICAL_OTC", "PHYSICAL":
		return PhysicalOTC, nil
	case "PHYSICAL_CLEARED":
		return PhysicalCleared, nil
	case "CASH_COLLATERALIZED":
		return CashCollateralized, nil
	case "CASH_PAR_YIELD_CURVE", "PAR_YIELD_CURVE":
		return CashParYieldCurve, nil
	default:
		return PhysicalOTC, fmt.Errorf("ParseSettlement: unknown settlement %q", s)
	}
}

// Swaption is an option to enter Swap on one of the exercise dates.
type Swaption struct {
	Swap       *swap.VanillaSwap
	Exercise   Exercise
	Settlement Settlement
}

// EuropeanTerms describes a standard expiry-by-tenor european swaption.
type EuropeanTerms struct {
	ReferenceDate     time.Time
	ExpiryMonths      int
	TenorMonths       int
	Nominal           float64
	Position          swap.Position
	Strike            float64
	ATM               bool
	Index             *market.IborIndex
	UseIndexedCoupons bool
	Settlement        Settlement
}

// MakeEuropean builds a swaption expiring ExpiryMonths after the reference date
// on a swap starting at the expiry value date. With ATM set, the strike is the
// fair rate of the underlying on the given curves.
func MakeEuropean(t EuropeanTerms, discount, forward curve.YieldCurve) (*Swaption, error) {
	if t.ExpiryMonths <= 0 {
		return nil, fmt.Errorf("MakeEuropean: expiry must be positive, got %d months", t.ExpiryMonths)
	}
	index := market.SwapIndexFor(t.TenorMonths)
	if t.Index != nil {
		index = *t.Index
	}
	expiry := calendar.Advance(index.Calendar, utils.DateOnly(t.ReferenceDate), t.ExpiryMonths, false)

	s, err := swap.MakeVanillaSwap(swap.Terms{
		Position:          t.Position,
		Nominal:           t.Nominal,
		FixedRate:         t.Strike,
		Index:             index,
		TenorMonths:       t.TenorMonths,
		EffectiveDate:     index.ValueDate(expiry),
		UseIndexedCoupons: t.UseIndexedCoupons,
	})
	if err != nil {
		return nil, fmt.Errorf("MakeEuropean: %w", err)
	}
	if t.ATM {
		fair, err := swap.FairRate(s, forward, discount)
		if err != nil {
			return nil, fmt.Errorf("MakeEuropean: %w", err)
		}
		s = s.WithFixedRate(fair)
	}
	ex, err := NewExercise(European, []time.Time{expiry})
	if err != nil {
		return nil, fmt.Errorf("MakeEuropean: %w", err)
	}
	return &Swaption{Swap: s, Exercise: ex, Settlement: t.Settlement}, nil
}

// MakeBermudan makes every fixed-leg accrual start of s an exercise date.
func MakeBermudan(s *swap.VanillaSwap, settlement Settlement) (*Swaption, error) {
	if s == nil {
		return nil, swap.ErrNilSwap
	}
	dates := make([]time.Time, 0, len(s.Fixed))
	for _, c := range s.Fixed {
		dates = append(dates, c.AccrualStart)
	}
	ex, err := NewExercise(Bermudan, dates)
	if err != nil {
		return nil, fmt.Errorf("MakeBermudan: %w", err)
	}
	return &Swaption{Swap: s, Exercise: ex, Settlement: settlement}, nil
}
