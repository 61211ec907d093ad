package pricing

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"time"

	"github.com/leekchan/accounting"
	"github.com/shopspring/decimal"

	"github.com/meenmo/hw2c/config"
	"github.com/meenmo/hw2c/curve"
	"github.com/meenmo/hw2c/market"
	"github.com/meenmo/hw2c/model"
	"github.com/meenmo/hw2c/swap"
	"github.com/meenmo/hw2c/utils"
)

// SwapSpec is the JSON description of a fixed-vs-Ibor swap.
//
// Conventions:
// - rates are in percent (e.g., 2.50 means 2.50%)
// - spreads are in bp (e.g., 10 means +10bp)
// - tenors are "6M", "5Y", ...
type SwapSpec struct {
	Direction      string             `json:"direction"` // PAY or REC fixed
	Notional       float64            `json:"notional"`
	FixedRatePct   float64            `json:"fixed_rate"`
	FloatSpreadBP  float64            `json:"float_spread_bp"`
	FloatIndex     string             `json:"float_index"` // EURIBOR3M, EURIBOR6M, EURIBOR1Y; optional
	Tenor          string             `json:"tenor"`
	ForwardStart   string             `json:"forward_start"`  // optional, from spot
	EffectiveDate  string             `json:"effective_date"` // optional, overrides spot + forward_start
	IndexedCoupons bool               `json:"indexed_coupons"`
	FixingsPct     map[string]float64 `json:"fixings"` // fixing date -> percent
}

// ReadInput reads path when set, stdin otherwise.
func ReadInput(stdin io.Reader, path string) ([]byte, error) {
	if path != "" {
		return os.ReadFile(path)
	}
	return io.ReadAll(stdin)
}

// WriteJSON writes v as one JSON line.
func WriteJSON(w io.Writer, v any) {
	b, _ := json.Marshal(v)
	fmt.Fprintln(w, string(b))
}

// Amount rounds a money value for reporting.
func Amount(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v).Round(6)
}

// Rate rounds a percent rate for reporting.
func Rate(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v).Round(8)
}

var money = accounting.Accounting{Precision: 2}

// FormatMoney renders v with thousands separators for the text output.
func FormatMoney(v float64) string {
	return money.FormatMoney(v)
}

// BuildCurves turns a market description into the discount and forward curves.
func BuildCurves(m config.MarketSpec) (disc, fwd curve.YieldCurve, err error) {
	if err := m.Validate(); err != nil {
		return nil, nil, err
	}
	ref, err := utils.ParseDate(m.ReferenceDate)
	if err != nil {
		return nil, nil, err
	}
	dc := m.DayCount
	if strings.TrimSpace(dc) == "" {
		dc = utils.Act360
	}
	if disc, err = buildCurve(ref, dc, m.Discount); err != nil {
		return nil, nil, fmt.Errorf("discount curve: %w", err)
	}
	if fwd, err = buildCurve(ref, dc, m.Forward); err != nil {
		return nil, nil, fmt.Errorf("forward curve: %w", err)
	}
	return disc, fwd, nil
}

func buildCurve(ref time.Time, dc string, c config.CurveSpec) (curve.YieldCurve, error) {
	if c.FlatRate != nil {
		return curve.NewFlatForward(ref, *c.FlatRate/100.0, dc), nil
	}
	dfs := make(map[time.Time]float64, len(c.DiscountFactors))
	for k, v := range c.DiscountFactors {
		d, err := utils.ParseDate(k)
		if err != nil {
			return nil, err
		}
		dfs[d] = v
	}
	return curve.NewCurveFromDFs(ref, dfs, dc)
}

// BuildModel binds the curves to the requested parameters, defaulting to
// model.DefaultA and model.DefaultSigma.
func BuildModel(disc, fwd curve.YieldCurve, spec config.ModelSpec) (*model.HW2C, error) {
	a, sigma := spec.A, spec.Sigma
	if a == 0 {
		a = model.DefaultA
	}
	if sigma == 0 {
		sigma = model.DefaultSigma
	}
	return model.New(disc, fwd, a, sigma)
}

// BuildSwap materializes spec as of reference.
func BuildSwap(spec SwapSpec, reference time.Time) (*swap.VanillaSwap, error) {
	if spec.Notional == 0 {
		return nil, fmt.Errorf("notional is required")
	}
	position, err := swap.ParsePosition(spec.Direction)
	if err != nil {
		return nil, err
	}
	tenor, err := utils.TenorMonths(spec.Tenor)
	if err != nil {
		return nil, fmt.Errorf("invalid tenor: %w", err)
	}
	forwardStart := 0
	if strings.TrimSpace(spec.ForwardStart) != "" {
		if forwardStart, err = utils.TenorMonths(spec.ForwardStart); err != nil {
			return nil, fmt.Errorf("invalid forward_start: %w", err)
		}
	}
	index := market.SwapIndexFor(tenor)
	if strings.TrimSpace(spec.FloatIndex) != "" {
		if index, err = market.IndexByName(spec.FloatIndex); err != nil {
			return nil, err
		}
	}
	var effective time.Time
	if strings.TrimSpace(spec.EffectiveDate) != "" {
		if effective, err = utils.ParseDate(spec.EffectiveDate); err != nil {
			return nil, fmt.Errorf("invalid effective_date: %w", err)
		}
	}
	fixings := market.Fixings{}
	for k, v := range spec.FixingsPct {
		d, err := utils.ParseDate(k)
		if err != nil {
			return nil, fmt.Errorf("invalid fixing date: %w", err)
		}
		fixings.Add(d, v/100.0)
	}

	return swap.MakeVanillaSwap(swap.Terms{
		Position:           position,
		Nominal:            math.Abs(spec.Notional),
		FixedRate:          spec.FixedRatePct / 100.0,
		Spread:             spec.FloatSpreadBP / 10000.0,
		Index:              index,
		TenorMonths:        tenor,
		ForwardStartMonths: forwardStart,
		ReferenceDate:      reference,
		EffectiveDate:      effective,
		UseIndexedCoupons:  spec.IndexedCoupons,
		Fixings:            fixings,
	})
}
