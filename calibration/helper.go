package calibration

import (
	"errors"
	"fmt"
	"math"

	"github.com/meenmo/hw2c/curve"
	"github.com/meenmo/hw2c/engine"
	"github.com/meenmo/hw2c/swaption"
)

// ErrNoEngine is returned when a helper is asked for a model value before an
// engine is attached.
var ErrNoEngine = errors.New("calibration helper has no pricing engine")

// Helper is one calibration instrument.
type Helper interface {
	MarketValue() float64
	ModelValue() (float64, error)
	CalibrationError() (float64, error)
}

// ErrorType selects how a helper measures the model-market distance.
type ErrorType int

const (
	RelativePriceError ErrorType = iota
	PriceError
	ImpliedVolError
)

func (e ErrorType) String() string {
	switch e {
	case PriceError:
		return "PRICE"
	case ImpliedVolError:
		return "IMPLIED_VOL"
	default:
		return "RELATIVE_PRICE"
	}
}

// Quote is the market input of a swaption helper: a volatility of the given
// type, or an explicit premium when Price is positive.
type Quote struct {
	Volatility float64
	Type       swaption.VolatilityType
	Shift      float64
	Price      float64
}

// SwaptionHelper calibrates to one european swaption.
type SwaptionHelper struct {
	swaption  *swaption.Swaption
	quote     Quote
	errorType ErrorType
	inputs    swaption.BlackInputs
	market    float64
	engine    *engine.SwaptionEngine
}

// NewSwaptionHelper prices the market quote with the Black or Bachelier
// formula on the dual curves. With an explicit price the quoted volatility is
// backed out of it, so every error type stays available.
func NewSwaptionHelper(s *swaption.Swaption, q Quote, discount, forward curve.YieldCurve, errorType ErrorType) (*SwaptionHelper, error) {
	black := &swaption.BlackEngine{Discount: discount, Forward: forward, Volatility: q.Volatility, Type: q.Type, Shift: q.Shift}
	in, err := black.Inputs(s)
	if err != nil {
		return nil, fmt.Errorf("NewSwaptionHelper: %w", err)
	}
	h := &SwaptionHelper{swaption: s, quote: q, errorType: errorType, inputs: in}
	if q.Price > 0 {
		h.market = q.Price
		if errorType == ImpliedVolError {
			vol, err := swaption.ImpliedVolatility(q.Price, in, q.Type, q.Shift)
			if err != nil {
				return nil, fmt.Errorf("NewSwaptionHelper: %w", err)
			}
			h.quote.Volatility = vol
		}
		return h, nil
	}
	if !(q.Volatility > 0) {
		return nil, fmt.Errorf("NewSwaptionHelper: volatility must be positive, got %g", q.Volatility)
	}
	h.market = swaption.PriceFromInputs(in, q.Volatility, q.Type, q.Shift)
	return h, nil
}

// SetEngine attaches the engine that produces model values.
func (h *SwaptionHelper) SetEngine(e *engine.SwaptionEngine) { h.engine = e }

func (h *SwaptionHelper) Swaption() *swaption.Swaption { return h.swaption }
func (h *SwaptionHelper) Quote() Quote                 { return h.quote }
func (h *SwaptionHelper) MarketValue() float64         { return h.market }

// ModelValue prices the swaption on the attached engine.
func (h *SwaptionHelper) ModelValue() (float64, error) {
	if h.engine == nil {
		return 0, ErrNoEngine
	}
	return h.engine.Price(h.swaption)
}

// CalibrationError measures the model value against the market per the
// helper's error type.
func (h *SwaptionHelper) CalibrationError() (float64, error) {
	model, err := h.ModelValue()
	if err != nil {
		return 0, err
	}
	switch h.errorType {
	case PriceError:
		return model - h.market, nil
	case ImpliedVolError:
		vol, err := swaption.ImpliedVolatility(model, h.inputs, h.quote.Type, h.quote.Shift)
		if err != nil {
			return 0, fmt.Errorf("CalibrationError: %w", err)
		}
		return vol - h.quote.Volatility, nil
	default:
		if h.market == 0 {
			return math.Abs(model), nil
		}
		return (model - h.market) / h.market, nil
	}
}
