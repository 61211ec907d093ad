package market

import (
	"time"

	"github.com/meenmo/hw2c/calendar"
	"github.com/meenmo/hw2c/utils"
)

// LegType distinguishes floating vs fixed.
type LegType string

const (
	LegFloating LegType = "FLOATING"
	LegFixed    LegType = "FIXED"
)

// Frequency enumerates payment/reset frequencies in months.
type Frequency int

const (
	FreqAnnual    Frequency = 12
	FreqSemi      Frequency = 6
	FreqQuarterly Frequency = 3
	FreqMonthly   Frequency = 1
)

// BusinessDayAdjustment roll convention.
type BusinessDayAdjustment string

const (
	ModifiedFollowing BusinessDayAdjustment = "MODIFIED_FOLLOWING"
	Following         BusinessDayAdjustment = "FOLLOWING"
	Unadjusted        BusinessDayAdjustment = "UNADJUSTED"
)

// ScheduleDirection selects how schedule dates are generated.
type ScheduleDirection string

const (
	ScheduleBackward ScheduleDirection = "BACKWARD"
	ScheduleForward  ScheduleDirection = "FORWARD"
)

// DayCount enum.
type DayCount string

const (
	Act360  DayCount = utils.Act360
	Act365F DayCount = utils.Act365F
	Dc30360 DayCount = utils.Thirty
	Dc30E   DayCount = utils.ThirtyE
)

// LegConvention captures standard swap leg settings.
type LegConvention struct {
	LegType               LegType
	DayCount              DayCount
	PayFrequency          Frequency
	PayDelayDays          int
	BusinessDayAdjustment BusinessDayAdjustment
	ScheduleDirection     ScheduleDirection
	EndOfMonth            bool
	Calendar              calendar.CalendarID
}

// Adjust applies the leg's business day adjustment to t.
func (l LegConvention) Adjust(t time.Time) time.Time {
	switch l.BusinessDayAdjustment {
	case Unadjusted:
		return t
	case Following:
		return calendar.AdjustFollowing(l.Calendar, t)
	default:
		return calendar.Adjust(l.Calendar, t)
	}
}

// EURFixedLeg is the annual 30/360 fixed leg used against Euribor.
func EURFixedLeg() LegConvention {
	return LegConvention{
		LegType:               LegFixed,
		DayCount:              Dc30360,
		PayFrequency:          FreqAnnual,
		BusinessDayAdjustment: ModifiedFollowing,
		ScheduleDirection:     ScheduleBackward,
		Calendar:              calendar.TARGET,
	}
}

// FloatingLeg returns the floating leg convention implied by index.
func FloatingLeg(index IborIndex) LegConvention {
	return LegConvention{
		LegType:               LegFloating,
		DayCount:              index.DayCount,
		PayFrequency:          Frequency(index.TenorMonths),
		BusinessDayAdjustment: index.Convention,
		ScheduleDirection:     ScheduleBackward,
		Calendar:              index.Calendar,
	}
}
