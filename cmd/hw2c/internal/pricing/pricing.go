package pricing

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/meenmo/hw2c/calibration"
	"github.com/meenmo/hw2c/config"
	"github.com/meenmo/hw2c/curve"
	"github.com/meenmo/hw2c/engine"
	"github.com/meenmo/hw2c/market"
	"github.com/meenmo/hw2c/swap"
	"github.com/meenmo/hw2c/swaption"
	"github.com/meenmo/hw2c/utils"
)

// SwapRequest is the JSON input of the swap command.
type SwapRequest struct {
	Market config.MarketSpec `json:"market"`
	Model  config.ModelSpec  `json:"model"`
	Swap   SwapSpec          `json:"swap"`
}

type SwapResponse struct {
	TreeNPV        decimal.Decimal `json:"tree_npv"`
	DiscountingNPV decimal.Decimal `json:"discounting_npv"`
	FixedLegPV     decimal.Decimal `json:"fixed_leg_pv"`
	FloatingLegPV  decimal.Decimal `json:"floating_leg_pv"`
	FairRatePct    decimal.Decimal `json:"fair_rate"`
	EffectiveDate  string          `json:"effective_date"`
	MaturityDate   string          `json:"maturity_date"`
	GridSize       int             `json:"grid_size"`
	ModelVersion   uint64          `json:"model_version"`
	Error          string          `json:"error,omitempty"`
}

// PriceSwap values the swap on the lattice pair and with plain discounting.
func PriceSwap(req SwapRequest) (*SwapResponse, error) {
	disc, fwd, err := BuildCurves(req.Market)
	if err != nil {
		return nil, err
	}
	m, err := BuildModel(disc, fwd, req.Model)
	if err != nil {
		return nil, err
	}
	s, err := BuildSwap(req.Swap, disc.ReferenceDate())
	if err != nil {
		return nil, fmt.Errorf("failed to build swap: %w", err)
	}

	res, err := engine.NewSwapEngine(m, req.Model.TimeSteps).Calculate(s)
	if err != nil {
		return nil, fmt.Errorf("failed to price swap: %w", err)
	}
	pv, err := swap.PVByLeg(s, fwd, disc)
	if err != nil {
		return nil, fmt.Errorf("failed to price swap: %w", err)
	}
	fair, err := swap.FairRate(s, fwd, disc)
	if err != nil {
		return nil, fmt.Errorf("failed to compute fair rate: %w", err)
	}
	return &SwapResponse{
		TreeNPV:        Amount(res.Value),
		DiscountingNPV: Amount(pv.TotalPV),
		FixedLegPV:     Amount(pv.FixedLegPV),
		FloatingLegPV:  Amount(pv.FloatingLegPV),
		FairRatePct:    Rate(fair * 100),
		EffectiveDate:  utils.FormatDate(s.EffectiveDate),
		MaturityDate:   utils.FormatDate(s.MaturityDate),
		GridSize:       res.GridSize,
		ModelVersion:   res.ModelVersion,
	}, nil
}

// SwaptionRequest is the JSON input of the swaption command. The underlying
// starts at the value date of the first exercise date; with ATM set its fixed
// rate is the forward swap rate.
type SwaptionRequest struct {
	Market         config.MarketSpec `json:"market"`
	Model          config.ModelSpec  `json:"model"`
	Swap           SwapSpec          `json:"swap"`
	Expiry         string            `json:"expiry"`
	Exercise       string            `json:"exercise"` // EUROPEAN or BERMUDAN
	Settlement     string            `json:"settlement"`
	ATM            bool              `json:"atm"`
	Volatility     float64           `json:"volatility"` // optional, for the Black benchmark
	VolatilityType string            `json:"volatility_type"`
	Shift          float64           `json:"shift"`
}

type SwaptionResponse struct {
	TreePrice     decimal.Decimal  `json:"tree_price"`
	BlackPrice    *decimal.Decimal `json:"black_price,omitempty"`
	StrikePct     decimal.Decimal  `json:"strike"`
	ForwardPct    decimal.Decimal  `json:"forward_swap_rate"`
	ExerciseDates []string         `json:"exercise_dates"`
	GridSize      int              `json:"grid_size"`
	ModelVersion  uint64           `json:"model_version"`
	Error         string           `json:"error,omitempty"`
}

// PriceSwaption values the swaption on the lattice pair and, for european
// exercise with a volatility, with the Black or Bachelier formula.
func PriceSwaption(req SwaptionRequest) (*SwaptionResponse, error) {
	disc, fwd, err := BuildCurves(req.Market)
	if err != nil {
		return nil, err
	}
	m, err := BuildModel(disc, fwd, req.Model)
	if err != nil {
		return nil, err
	}
	opt, err := buildSwaption(req, disc.ReferenceDate())
	if err != nil {
		return nil, err
	}
	forward, err := swap.FairRate(opt.Swap, fwd, disc)
	if err != nil {
		return nil, fmt.Errorf("failed to compute forward swap rate: %w", err)
	}
	if req.ATM {
		opt.Swap = opt.Swap.WithFixedRate(forward)
	}

	res, err := engine.NewSwaptionEngine(m, req.Model.TimeSteps).Calculate(opt)
	if err != nil {
		return nil, fmt.Errorf("failed to price swaption: %w", err)
	}
	out := &SwaptionResponse{
		TreePrice:    Amount(res.Value),
		StrikePct:    Rate(opt.Swap.FixedRate * 100),
		ForwardPct:   Rate(forward * 100),
		GridSize:     res.GridSize,
		ModelVersion: res.ModelVersion,
	}
	for _, d := range opt.Exercise.Dates {
		out.ExerciseDates = append(out.ExerciseDates, utils.FormatDate(d))
	}

	if req.Volatility > 0 && opt.Exercise.Type == swaption.European {
		typ, err := swaption.ParseVolatilityType(req.VolatilityType)
		if err != nil {
			return nil, err
		}
		black := &swaption.BlackEngine{Discount: disc, Forward: fwd, Volatility: req.Volatility, Type: typ, Shift: req.Shift}
		p, err := black.Price(opt)
		if err != nil {
			return nil, fmt.Errorf("failed to price swaption with %s volatility: %w", typ, err)
		}
		bp := Amount(p)
		out.BlackPrice = &bp
	}
	return out, nil
}

func buildSwaption(req SwaptionRequest, reference time.Time) (*swaption.Swaption, error) {
	settlement, err := swaption.ParseSettlement(req.Settlement)
	if err != nil {
		return nil, err
	}
	expiryMonths, err := utils.TenorMonths(req.Expiry)
	if err != nil {
		return nil, fmt.Errorf("invalid expiry: %w", err)
	}
	spec := req.Swap
	tenor, err := utils.TenorMonths(spec.Tenor)
	if err != nil {
		return nil, fmt.Errorf("invalid tenor: %w", err)
	}
	index := market.SwapIndexFor(tenor)
	if strings.TrimSpace(spec.FloatIndex) != "" {
		if index, err = market.IndexByName(spec.FloatIndex); err != nil {
			return nil, err
		}
	}
	position, err := swap.ParsePosition(spec.Direction)
	if err != nil {
		return nil, err
	}

	opt, err := swaption.MakeEuropean(swaption.EuropeanTerms{
		ReferenceDate:     reference,
		ExpiryMonths:      expiryMonths,
		TenorMonths:       tenor,
		Nominal:           spec.Notional,
		Position:          position,
		Strike:            spec.FixedRatePct / 100.0,
		Index:             &index,
		UseIndexedCoupons: spec.IndexedCoupons,
		Settlement:        settlement,
	}, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build swaption: %w", err)
	}
	switch strings.ToUpper(strings.TrimSpace(req.Exercise)) {
	case "", "EUROPEAN":
		return opt, nil
	case "BERMUDAN":
		return swaption.MakeBermudan(opt.Swap, settlement)
	default:
		return nil, fmt.Errorf("invalid exercise %q (use EUROPEAN or BERMUDAN)", req.Exercise)
	}
}

type CalibrationResponse struct {
	A               float64   `json:"a"`
	Sigma           float64   `json:"sigma"`
	Objective       float64   `json:"objective"`
	Errors          []float64 `json:"errors"`
	MarketValues    []float64 `json:"market_values"`
	Iterations      int       `json:"iterations"`
	FuncEvaluations int       `json:"function_evaluations"`
	Status          string    `json:"status"`
	Converged       bool      `json:"converged"`
	Error           string    `json:"error,omitempty"`
}

// Calibrate fits the model of f to its swaption basket. A run that stops on
// an optimizer limit still reports the best parameters with Converged unset.
func Calibrate(f *config.CalibrationFile, logger *slog.Logger) (*CalibrationResponse, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	if f.Numerics != nil {
		config.SetConfig(*f.Numerics)
	}
	disc, fwd, err := BuildCurves(f.Market)
	if err != nil {
		return nil, err
	}
	m, err := BuildModel(disc, fwd, f.Model)
	if err != nil {
		return nil, err
	}
	eng := engine.NewSwaptionEngine(m, f.Model.TimeSteps)

	helpers := make([]calibration.Helper, 0, len(f.Helpers))
	weights := make([]float64, 0, len(f.Helpers))
	quoted := make([]float64, 0, len(f.Helpers))
	for i, hs := range f.Helpers {
		h, err := buildHelper(hs, disc.ReferenceDate(), disc, fwd)
		if err != nil {
			return nil, fmt.Errorf("helpers[%d]: %w", i, err)
		}
		h.SetEngine(eng)
		helpers = append(helpers, h)
		w := hs.Weight
		if w == 0 {
			w = 1
		}
		weights = append(weights, w)
		quoted = append(quoted, h.MarketValue())
	}

	res, err := calibration.Calibrate(m, helpers, calibration.Options{
		EndCriteria: calibration.EndCriteria{
			MaxIterations:           f.EndCriteria.MaxIterations,
			MaxStationaryIterations: f.EndCriteria.MaxStationaryIterations,
			FunctionEpsilon:         f.EndCriteria.FunctionEpsilon,
		},
		Weights:       weights,
		FixParameters: f.FixParameters,
		Restarts:      f.Restarts,
		Seed:          f.Seed,
		Parallel:      f.Parallel,
		Logger:        logger,
	})
	if err != nil && (res == nil || !errors.Is(err, calibration.ErrDidNotConverge)) {
		return nil, err
	}
	return &CalibrationResponse{
		A:               res.Params[0],
		Sigma:           res.Params[1],
		Objective:       res.Objective,
		Errors:          res.Errors,
		MarketValues:    quoted,
		Iterations:      res.Iterations,
		FuncEvaluations: res.FuncEvaluations,
		Status:          res.Status.String(),
		Converged:       err == nil,
	}, nil
}

func buildHelper(hs config.HelperSpec, reference time.Time, disc, fwd curve.YieldCurve) (*calibration.SwaptionHelper, error) {
	expiry, err := utils.TenorMonths(hs.Expiry)
	if err != nil {
		return nil, fmt.Errorf("invalid expiry: %w", err)
	}
	tenor, err := utils.TenorMonths(hs.Tenor)
	if err != nil {
		return nil, fmt.Errorf("invalid tenor: %w", err)
	}
	typ, err := swaption.ParseVolatilityType(hs.VolatilityType)
	if err != nil {
		return nil, err
	}
	errType, err := parseErrorType(hs.ErrorType)
	if err != nil {
		return nil, err
	}
	nominal := hs.Nominal
	if nominal == 0 {
		nominal = 10000
	}
	opt, err := swaption.MakeEuropean(swaption.EuropeanTerms{
		ReferenceDate:     reference,
		ExpiryMonths:      expiry,
		TenorMonths:       tenor,
		Nominal:           nominal,
		Position:          swap.Payer,
		ATM:               true,
		UseIndexedCoupons: hs.IndexedCoupons,
	}, disc, fwd)
	if err != nil {
		return nil, err
	}
	return calibration.NewSwaptionHelper(opt, calibration.Quote{
		Volatility: hs.Volatility,
		Type:       typ,
		Shift:      hs.Shift,
		Price:      hs.Price,
	}, disc, fwd, errType)
}

func parseErrorType(s string) (calibration.ErrorType, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "RELATIVE_PRICE":
		return calibration.RelativePriceError, nil
	case "PRICE":
		return calibration.PriceError, nil
	case "IMPLIED_VOL", "IMPLIED_VOLATILITY":
		return calibration.ImpliedVolError, nil
	default:
		return 0, fmt.Errorf("invalid error_type %q", s)
	}
}
