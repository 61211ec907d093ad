package swap

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/meenmo/hw2c/market"
)

var (
	// ErrNilCurve is returned when a required curve argument is nil.
	ErrNilCurve = errors.New("nil curve")
	// ErrNilSwap is returned when a required swap argument is nil.
	ErrNilSwap = errors.New("nil swap")
	// ErrMissingFixing is returned when a coupon that reset before the
	// reference date has no fixing.
	ErrMissingFixing = errors.New("missing fixing for past reset")
)

// Position is the direction of a swap from the holder's side.
type Position int

const (
	// Payer pays fixed and receives floating.
	Payer Position = iota
	// Receiver receives fixed and pays floating.
	Receiver
)

func (p Position) String() string {
	if p == Receiver {
		return "REC"
	}
	return "PAY"
}

// ParsePosition accepts PAY/PAYER and REC/RECEIVER.
func ParsePosition(s string) (Position, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "PAY", "PAYER":
		return Payer, nil
	case "REC", "RECEIVER", "RECEIVE":
		return Receiver, nil
	default:
		return Payer, fmt.Errorf("ParsePosition: unknown position %q", s)
	}
}

// SchedulePeriod is a cashflow period for a single leg.
//
// Dates are business-day adjusted per the provided leg convention.
type SchedulePeriod struct {
	StartDate   time.Time
	EndDate     time.Time
	PayDate     time.Time
	AccrualDays int
}

// FixedCoupon is one fixed-leg cashflow. Amount is Nominal*Accrual*Rate.
type FixedCoupon struct {
	AccrualStart time.Time
	AccrualEnd   time.Time
	PayDate      time.Time
	ResetDate    time.Time
	Accrual      float64
	Rate         float64
	Amount       float64
}

// FloatingCoupon is one floating-leg cashflow projected off [IndexStart, IndexEnd].
type FloatingCoupon struct {
	AccrualStart time.Time
	AccrualEnd   time.Time
	PayDate      time.Time
	ResetDate    time.Time
	FixingDate   time.Time
	IndexStart   time.Time
	IndexEnd     time.Time
	Accrual      float64
	IndexSpan    float64
	Spread       float64
	Fixing       float64
	HasFixing    bool
}

// VanillaSwap is a fixed-vs-Ibor swap with fully materialized coupons.
type VanillaSwap struct {
	Position       Position
	Nominal        float64
	FixedRate      float64
	Spread         float64
	Index          market.IborIndex
	FixedLeg       market.LegConvention
	FloatingLeg    market.LegConvention
	EffectiveDate  time.Time
	MaturityDate   time.Time
	IndexedCoupons bool
	Fixed          []FixedCoupon
	Floating       []FloatingCoupon
}

// Clone returns a deep copy of s whose coupon slices can be edited freely.
func (s *VanillaSwap) Clone() *VanillaSwap {
	c := *s
	c.Fixed = append([]FixedCoupon(nil), s.Fixed...)
	c.Floating = append([]FloatingCoupon(nil), s.Floating...)
	return &c
}

// PV contains present values for each leg and the net sum.
//
// Leg values carry the holder's sign: the paid leg is negative.
type PV struct {
	FixedLegPV    float64
	FloatingLegPV float64
	TotalPV       float64
}
