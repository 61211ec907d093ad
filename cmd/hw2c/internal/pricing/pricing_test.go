package pricing_test

import (
	"math"
	"testing"

	"github.com/meenmo/hw2c/cmd/hw2c/internal/pricing"
	"github.com/meenmo/hw2c/config"
)

func flat(pct float64) config.CurveSpec {
	return config.CurveSpec{FlatRate: &pct}
}

func testMarket() config.MarketSpec {
	return config.MarketSpec{
		ReferenceDate: "2022-11-15",
		DayCount:      "ACT/360",
		Discount:      flat(5),
		Forward:       flat(3),
	}
}

func TestPriceSwapAgreesWithDiscounting(t *testing.T) {
	t.Parallel()

	out, err := pricing.PriceSwap(pricing.SwapRequest{
		Market: testMarket(),
		Model:  config.ModelSpec{TimeSteps: 40},
		Swap: pricing.SwapSpec{
			Direction:    "PAY",
			Notional:     10000,
			FixedRatePct: 3.0,
			Tenor:        "5Y",
		},
	})
	if err != nil {
		t.Fatalf("PriceSwap error: %v", err)
	}
	tree, _ := out.TreeNPV.Float64()
	disc, _ := out.DiscountingNPV.Float64()
	if math.Abs(tree-disc) > 1e-4 {
		t.Fatalf("tree npv %.6f vs discounting %.6f", tree, disc)
	}
	if out.EffectiveDate != "2022-11-17" {
		t.Fatalf("effective date = %s, want spot 2022-11-17", out.EffectiveDate)
	}
	if out.ModelVersion != 1 || out.GridSize == 0 {
		t.Fatalf("grid %d version %d", out.GridSize, out.ModelVersion)
	}
}

func TestPriceSwapRejectsBadInput(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		req  pricing.SwapRequest
	}{
		{"no notional", pricing.SwapRequest{Market: testMarket(), Swap: pricing.SwapSpec{Direction: "PAY", Tenor: "5Y"}}},
		{"bad direction", pricing.SwapRequest{Market: testMarket(), Swap: pricing.SwapSpec{Direction: "BUY", Notional: 1, Tenor: "5Y"}}},
		{"bad tenor", pricing.SwapRequest{Market: testMarket(), Swap: pricing.SwapSpec{Direction: "PAY", Notional: 1, Tenor: "5Q"}}},
		{"no market", pricing.SwapRequest{Swap: pricing.SwapSpec{Direction: "PAY", Notional: 1, Tenor: "5Y"}}},
		{"negative sigma", pricing.SwapRequest{Market: testMarket(), Model: config.ModelSpec{Sigma: -1}, Swap: pricing.SwapSpec{Direction: "PAY", Notional: 1, Tenor: "5Y"}}},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if _, err := pricing.PriceSwap(tc.req); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestPriceSwaptionATM(t *testing.T) {
	t.Parallel()

	req := pricing.SwaptionRequest{
		Market:         testMarket(),
		Model:          config.ModelSpec{TimeSteps: 40},
		Swap:           pricing.SwapSpec{Direction: "PAY", Notional: 10000, Tenor: "5Y"},
		Expiry:         "2Y",
		ATM:            true,
		Volatility:     0.01,
		VolatilityType: "NORMAL",
	}
	out, err := pricing.PriceSwaption(req)
	if err != nil {
		t.Fatalf("PriceSwaption error: %v", err)
	}
	if !out.StrikePct.Equal(out.ForwardPct) {
		t.Fatalf("atm strike %s != forward %s", out.StrikePct, out.ForwardPct)
	}
	if len(out.ExerciseDates) != 1 || out.BlackPrice == nil {
		t.Fatalf("european output = %+v", out)
	}
	if p, _ := out.TreePrice.Float64(); p <= 0 {
		t.Fatalf("tree price %v", p)
	}

	req.Exercise = "BERMUDAN"
	berm, err := pricing.PriceSwaption(req)
	if err != nil {
		t.Fatalf("PriceSwaption bermudan error: %v", err)
	}
	if len(berm.ExerciseDates) < 2 || berm.BlackPrice != nil {
		t.Fatalf("bermudan output = %+v", berm)
	}
	eu, _ := out.TreePrice.Float64()
	bm, _ := berm.TreePrice.Float64()
	if bm < eu-1e-8 {
		t.Fatalf("bermudan %.6f below european %.6f", bm, eu)
	}

	req.Exercise = "ASIAN"
	if _, err := pricing.PriceSwaption(req); err == nil {
		t.Fatalf("expected error for unknown exercise")
	}
}

func TestCalibrateSigma(t *testing.T) {
	t.Parallel()

	f := &config.CalibrationFile{
		Market: testMarket(),
		Model:  config.ModelSpec{A: 0.1, Sigma: 0.005, TimeSteps: 30},
		Helpers: []config.HelperSpec{
			{Expiry: "2Y", Tenor: "5Y", Volatility: 0.009, VolatilityType: "NORMAL", ErrorType: "IMPLIED_VOL", Weight: 1},
		},
	}
	out, err := pricing.Calibrate(f, nil)
	if err != nil {
		t.Fatalf("Calibrate error: %v", err)
	}
	if !out.Converged {
		t.Fatalf("calibration did not converge: %+v", out)
	}
	if out.A != 0.1 {
		t.Fatalf("single helper moved mean reversion to %g", out.A)
	}
	if len(out.Errors) != 1 || math.Abs(out.Errors[0]) > 1e-5 {
		t.Fatalf("errors = %v", out.Errors)
	}
	if len(out.MarketValues) != 1 || out.MarketValues[0] <= 0 {
		t.Fatalf("market values = %v", out.MarketValues)
	}
}
