package swap

import (
	"fmt"
	"time"

	"github.com/meenmo/hw2c/calendar"
	"github.com/meenmo/hw2c/market"
	"github.com/meenmo/hw2c/utils"
)

// GenerateSchedule builds the payment schedule for a leg.
//
// It returns business-day adjusted StartDate/EndDate/PayDate along with integer accrual days.
// When leg.ScheduleDirection is ScheduleBackward, periods are generated from maturity
// backward, creating a front stub if needed.
func GenerateSchedule(effective, maturity time.Time, leg market.LegConvention) ([]SchedulePeriod, error) {
	if !maturity.After(effective) {
		return nil, fmt.Errorf("GenerateSchedule: maturity %s not after effective %s", utils.FormatDate(maturity), utils.FormatDate(effective))
	}
	if leg.PayFrequency <= 0 {
		return nil, fmt.Errorf("GenerateSchedule: unsupported pay frequency %d", leg.PayFrequency)
	}

	var dates []time.Time
	if leg.ScheduleDirection == market.ScheduleForward {
		dates = forwardDates(effective, maturity, leg)
	} else {
		dates = backwardDates(effective, maturity, leg)
	}
	return buildPeriods(dates, leg), nil
}

// backwardDates rolls from maturity towards effective. A first roll date that
// lands within a week of effective is dropped, giving a long front stub.
func backwardDates(effective, maturity time.Time, leg market.LegConvention) []time.Time {
	months := int(leg.PayFrequency)
	eom := leg.EndOfMonth && utils.IsMonthEnd(maturity)

	unadjusted := []time.Time{maturity}
	for i := 1; ; i++ {
		d := utils.AddMonth(maturity, -i*months)
		if eom {
			d = time.Date(d.Year(), d.Month(), utils.DaysInMonth(d.Year(), d.Month()), 0, 0, 0, 0, time.UTC)
		}
		if !d.After(effective) {
			break
		}
		unadjusted = append(unadjusted, d)
	}

	last := unadjusted[len(unadjusted)-1]
	if diff := int(utils.Days(effective, last)); diff > 0 && diff <= 7 && len(unadjusted) > 1 {
		unadjusted = unadjusted[:len(unadjusted)-1]
	}
	unadjusted = append(unadjusted, effective)

	for i, j := 0, len(unadjusted)-1; i < j; i, j = i+1, j-1 {
		unadjusted[i], unadjusted[j] = unadjusted[j], unadjusted[i]
	}
	return unadjusted
}

// forwardDates rolls from effective towards maturity with a short back stub.
func forwardDates(effective, maturity time.Time, leg market.LegConvention) []time.Time {
	months := int(leg.PayFrequency)
	unadjusted := []time.Time{effective}
	for i := 1; ; i++ {
		d := utils.AddMonth(effective, i*months)
		if !d.Before(maturity.AddDate(0, 0, -1)) {
			break
		}
		unadjusted = append(unadjusted, d)
	}
	return append(unadjusted, maturity)
}

func buildPeriods(unadjusted []time.Time, leg market.LegConvention) []SchedulePeriod {
	periods := make([]SchedulePeriod, 0, len(unadjusted)-1)
	for i := 0; i < len(unadjusted)-1; i++ {
		start := leg.Adjust(unadjusted[i])
		end := leg.Adjust(unadjusted[i+1])
		pay := end
		if leg.PayDelayDays != 0 {
			pay = calendar.AddBusinessDays(leg.Calendar, end, leg.PayDelayDays)
		}
		periods = append(periods, SchedulePeriod{
			StartDate:   start,
			EndDate:     end,
			PayDate:     pay,
			AccrualDays: int(utils.Days(start, end)),
		})
	}
	return periods
}
