package market

import (
	"fmt"
	"strings"
	"time"

	"github.com/meenmo/hw2c/calendar"
)

// ReferenceIndex enumerates supported floating benchmarks.
type ReferenceIndex string

const (
	EURIBOR3M ReferenceIndex = "EURIBOR3M"
	EURIBOR6M ReferenceIndex = "EURIBOR6M"
	EURIBOR1Y ReferenceIndex = "EURIBOR1Y"
)

// IborIndex describes a term rate fixing: value date, maturity and accrual rules.
type IborIndex struct {
	Name        ReferenceIndex
	TenorMonths int
	FixingDays  int
	Calendar    calendar.CalendarID
	Convention  BusinessDayAdjustment
	EndOfMonth  bool
	DayCount    DayCount
}

func euribor(name ReferenceIndex, months int) IborIndex {
	return IborIndex{
		Name:        name,
		TenorMonths: months,
		FixingDays:  2,
		Calendar:    calendar.TARGET,
		Convention:  ModifiedFollowing,
		EndOfMonth:  true,
		DayCount:    Act360,
	}
}

// Euribor3M, Euribor6M and Euribor1Y return the standard Euribor indices.
func Euribor3M() IborIndex { return euribor(EURIBOR3M, 3) }
func Euribor6M() IborIndex { return euribor(EURIBOR6M, 6) }
func Euribor1Y() IborIndex { return euribor(EURIBOR1Y, 12) }

// IndexByName resolves a reference index name such as "EURIBOR6M".
func IndexByName(name string) (IborIndex, error) {
	switch ReferenceIndex(strings.ToUpper(strings.TrimSpace(name))) {
	case EURIBOR3M:
		return Euribor3M(), nil
	case EURIBOR6M:
		return Euribor6M(), nil
	case EURIBOR1Y:
		return Euribor1Y(), nil
	default:
		return IborIndex{}, fmt.Errorf("IndexByName: unsupported index %q", name)
	}
}

// SwapIndexFor returns the Euribor tenor quoted against a swap of the given
// length: 3M up to one year, 6M beyond.
func SwapIndexFor(swapTenorMonths int) IborIndex {
	if swapTenorMonths > 12 {
		return Euribor6M()
	}
	return Euribor3M()
}

// ValueDate is the start of the deposit fixed on fixingDate.
func (ix IborIndex) ValueDate(fixingDate time.Time) time.Time {
	return calendar.AddBusinessDays(ix.Calendar, fixingDate, ix.FixingDays)
}

// FixingDate is the fixing that starts accruing on valueDate.
func (ix IborIndex) FixingDate(valueDate time.Time) time.Time {
	return calendar.AddBusinessDays(ix.Calendar, valueDate, -ix.FixingDays)
}

// MaturityDate is the end of the deposit starting on valueDate.
func (ix IborIndex) MaturityDate(valueDate time.Time) time.Time {
	if ix.Convention == Following {
		return calendar.AdjustFollowing(ix.Calendar, valueDate.AddDate(0, ix.TenorMonths, 0))
	}
	return calendar.Advance(ix.Calendar, valueDate, ix.TenorMonths, ix.EndOfMonth)
}
