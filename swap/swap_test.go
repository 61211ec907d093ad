package swap_test

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/meenmo/hw2c/calendar"
	"github.com/meenmo/hw2c/curve"
	"github.com/meenmo/hw2c/market"
	"github.com/meenmo/hw2c/swap"
	"github.com/meenmo/hw2c/utils"
)

var today = time.Date(2022, 11, 15, 0, 0, 0, 0, time.UTC)

func curves() (disc, fwd curve.YieldCurve) {
	return curve.NewFlatForward(today, 0.05, utils.Act360), curve.NewFlatForward(today, 0.03, utils.Act360)
}

func tenYearPayer(t *testing.T, indexed bool) *swap.VanillaSwap {
	t.Helper()
	s, err := swap.MakeVanillaSwap(swap.Terms{
		Position:          swap.Payer,
		Nominal:           10000,
		FixedRate:         0.04,
		Index:             market.Euribor3M(),
		TenorMonths:       120,
		ReferenceDate:     today,
		UseIndexedCoupons: indexed,
	})
	if err != nil {
		t.Fatalf("MakeVanillaSwap error: %v", err)
	}
	return s
}

func TestGenerateSchedule_SinglePeriod(t *testing.T) {
	t.Parallel()

	effective := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
	maturity := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)

	leg := market.EURFixedLeg()
	periods, err := swap.GenerateSchedule(effective, maturity, leg)
	if err != nil {
		t.Fatalf("GenerateSchedule error: %v", err)
	}
	if len(periods) != 1 {
		t.Fatalf("expected 1 period, got %d", len(periods))
	}
	p := periods[0]
	if !p.StartDate.Equal(effective) || !p.EndDate.Equal(maturity) || !p.PayDate.Equal(maturity) {
		t.Fatalf("unexpected period %+v", p)
	}
	if p.AccrualDays != 365 {
		t.Fatalf("AccrualDays mismatch: got %d", p.AccrualDays)
	}
}

func TestGenerateSchedule_BackwardFrontStub(t *testing.T) {
	t.Parallel()

	effective := time.Date(2023, 2, 15, 0, 0, 0, 0, time.UTC)
	maturity := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	leg := market.FloatingLeg(market.Euribor3M())

	periods, err := swap.GenerateSchedule(effective, maturity, leg)
	if err != nil {
		t.Fatalf("GenerateSchedule error: %v", err)
	}
	if len(periods) != 4 {
		t.Fatalf("expected 4 periods, got %d", len(periods))
	}
	// front stub 2023-02-15 -> 2023-04-17 (04-15 is a saturday)
	if !periods[0].EndDate.Equal(time.Date(2023, 4, 17, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("stub end = %s", utils.FormatDate(periods[0].EndDate))
	}
	for i := 1; i < len(periods); i++ {
		if !periods[i].StartDate.Equal(periods[i-1].EndDate) {
			t.Fatalf("period %d does not chain", i)
		}
	}
}

func TestGenerateSchedule_Errors(t *testing.T) {
	t.Parallel()

	d := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
	if _, err := swap.GenerateSchedule(d, d, market.EURFixedLeg()); err == nil {
		t.Fatalf("expected error for empty schedule")
	}
	leg := market.EURFixedLeg()
	leg.PayFrequency = 0
	if _, err := swap.GenerateSchedule(d, d.AddDate(1, 0, 0), leg); err == nil {
		t.Fatalf("expected error for zero frequency")
	}
}

func TestMakeVanillaSwap_Dates(t *testing.T) {
	t.Parallel()

	s := tenYearPayer(t, false)
	if !s.EffectiveDate.Equal(time.Date(2022, 11, 17, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("effective = %s", utils.FormatDate(s.EffectiveDate))
	}
	if !s.MaturityDate.Equal(time.Date(2032, 11, 17, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("maturity = %s", utils.FormatDate(s.MaturityDate))
	}
	if len(s.Fixed) != 10 {
		t.Fatalf("expected 10 fixed coupons, got %d", len(s.Fixed))
	}
	if len(s.Floating) != 40 {
		t.Fatalf("expected 40 floating coupons, got %d", len(s.Floating))
	}
	for _, c := range s.Floating {
		if !calendar.IsBusinessDay(calendar.TARGET, c.PayDate) {
			t.Fatalf("pay date %s is not a business day", utils.FormatDate(c.PayDate))
		}
		if !c.IndexEnd.Equal(c.AccrualEnd) {
			t.Fatalf("par coupon index end %s != accrual end %s", utils.FormatDate(c.IndexEnd), utils.FormatDate(c.AccrualEnd))
		}
	}
}

func TestMakeVanillaSwap_IndexedCoupons(t *testing.T) {
	t.Parallel()

	s := tenYearPayer(t, true)
	ix := market.Euribor3M()
	for _, c := range s.Floating {
		if want := ix.MaturityDate(c.IndexStart); !c.IndexEnd.Equal(want) {
			t.Fatalf("indexed coupon end %s, want %s", utils.FormatDate(c.IndexEnd), utils.FormatDate(want))
		}
		if want := utils.YearFraction(c.IndexStart, c.IndexEnd, utils.Act360); math.Abs(c.IndexSpan-want) > 1e-15 {
			t.Fatalf("index span %.15f, want %.15f", c.IndexSpan, want)
		}
	}
}

func TestFairRateZeroesNPV(t *testing.T) {
	t.Parallel()

	disc, fwd := curves()
	s := tenYearPayer(t, false)

	fair, err := swap.FairRate(s, fwd, disc)
	if err != nil {
		t.Fatalf("FairRate error: %v", err)
	}
	npv, err := swap.NPV(s.WithFixedRate(fair), fwd, disc)
	if err != nil {
		t.Fatalf("NPV error: %v", err)
	}
	if math.Abs(npv) > 1e-9 {
		t.Fatalf("NPV at fair rate = %.12f, want 0", npv)
	}

	payer, _ := swap.NPV(s, fwd, disc)
	rec := s.Clone()
	rec.Position = swap.Receiver
	receiver, _ := swap.NPV(rec, fwd, disc)
	if math.Abs(payer+receiver) > 1e-12 {
		t.Fatalf("payer %.12f and receiver %.12f do not offset", payer, receiver)
	}
	// 3% forwards against a 4% fixed rate: the payer loses.
	if payer >= 0 {
		t.Fatalf("payer NPV = %.6f, want negative", payer)
	}
}

func TestPVByLeg_SingleCurveParFloatingLeg(t *testing.T) {
	t.Parallel()

	disc, _ := curves()
	s := tenYearPayer(t, false)

	pv, err := swap.PVByLeg(s, disc, disc)
	if err != nil {
		t.Fatalf("PVByLeg error: %v", err)
	}
	// par coupons on a single curve telescope to N*(P(start) - P(end)).
	want := s.Nominal * (disc.DF(s.EffectiveDate) - disc.DF(s.Floating[len(s.Floating)-1].PayDate))
	if math.Abs(pv.FloatingLegPV-want) > 1e-9 {
		t.Fatalf("floating leg PV = %.10f, want %.10f", pv.FloatingLegPV, want)
	}
	if pv.FixedLegPV >= 0 {
		t.Fatalf("payer fixed leg PV must be negative, got %.6f", pv.FixedLegPV)
	}
}

func TestPVByLeg_SeasonedSwapNeedsFixing(t *testing.T) {
	t.Parallel()

	disc, fwd := curves()
	effective := time.Date(2021, 7, 15, 0, 0, 0, 0, time.UTC)
	terms := swap.Terms{
		Nominal:       10000,
		FixedRate:     0.04,
		Index:         market.Euribor6M(),
		TenorMonths:   60,
		EffectiveDate: effective,
	}
	s, err := swap.MakeVanillaSwap(terms)
	if err != nil {
		t.Fatalf("MakeVanillaSwap error: %v", err)
	}
	if _, err := swap.NPV(s, fwd, disc); !errors.Is(err, swap.ErrMissingFixing) {
		t.Fatalf("expected ErrMissingFixing, got %v", err)
	}

	fixings := market.Fixings{}
	fixings.FillFlat(calendar.TARGET, effective.AddDate(0, -1, 0), today, 0.05)
	terms.Fixings = fixings
	s, err = swap.MakeVanillaSwap(terms)
	if err != nil {
		t.Fatalf("MakeVanillaSwap error: %v", err)
	}
	if _, err := swap.NPV(s, fwd, disc); err != nil {
		t.Fatalf("NPV with fixings error: %v", err)
	}
}

func TestNilArguments(t *testing.T) {
	t.Parallel()

	disc, fwd := curves()
	if _, err := swap.NPV(nil, fwd, disc); !errors.Is(err, swap.ErrNilSwap) {
		t.Fatalf("expected ErrNilSwap, got %v", err)
	}
	var nilCurve *curve.FlatForward
	if _, err := swap.NPV(tenYearPayer(t, false), fwd, nilCurve); !errors.Is(err, swap.ErrNilCurve) {
		t.Fatalf("expected ErrNilCurve, got %v", err)
	}
}
