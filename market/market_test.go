package market_test

import (
	"testing"
	"time"

	"github.com/meenmo/hw2c/market"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestEuriborDates(t *testing.T) {
	t.Parallel()

	ix := market.Euribor6M()
	fixing := date(2022, 11, 15)
	value := ix.ValueDate(fixing)
	if !value.Equal(date(2022, 11, 17)) {
		t.Fatalf("ValueDate = %s", value.Format("2006-01-02"))
	}
	if back := ix.FixingDate(value); !back.Equal(fixing) {
		t.Fatalf("FixingDate = %s", back.Format("2006-01-02"))
	}
	if mat := ix.MaturityDate(value); !mat.Equal(date(2023, 5, 17)) {
		t.Fatalf("MaturityDate = %s", mat.Format("2006-01-02"))
	}

	// end of month rolls to the end of month
	eom := market.Euribor3M().MaturityDate(date(2023, 2, 28))
	if !eom.Equal(date(2023, 5, 31)) {
		t.Fatalf("MaturityDate(eom) = %s", eom.Format("2006-01-02"))
	}
}

func TestIndexByName(t *testing.T) {
	t.Parallel()

	ix, err := market.IndexByName("euribor1y")
	if err != nil {
		t.Fatalf("IndexByName error: %v", err)
	}
	if ix.TenorMonths != 12 || ix.DayCount != market.Act360 {
		t.Fatalf("unexpected index %+v", ix)
	}
	if _, err := market.IndexByName("SOFR"); err == nil {
		t.Fatalf("expected error for unsupported index")
	}
	if got := market.SwapIndexFor(24).Name; got != market.EURIBOR6M {
		t.Fatalf("SwapIndexFor(2Y) = %s", got)
	}
	if got := market.SwapIndexFor(12).Name; got != market.EURIBOR3M {
		t.Fatalf("SwapIndexFor(1Y) = %s", got)
	}
}

func TestFixingsFillFlat(t *testing.T) {
	t.Parallel()

	f := market.Fixings{}
	f.FillFlat(market.Euribor3M().Calendar, date(2023, 4, 6), date(2023, 4, 11), 0.05)
	if len(f) != 2 {
		t.Fatalf("expected 2 TARGET business days, got %d", len(f))
	}
	if r, ok := f.RateOn(date(2023, 4, 11).Add(5 * time.Hour)); !ok || r != 0.05 {
		t.Fatalf("RateOn = %v, %v", r, ok)
	}
	if _, ok := f.RateOn(date(2023, 4, 7)); ok {
		t.Fatalf("good friday should have no fixing")
	}
}
