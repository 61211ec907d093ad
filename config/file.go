package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// CurveSpec describes one term structure: a flat continuously-compounded rate
// in percent, or discount factors keyed by YYYY-MM-DD.
type CurveSpec struct {
	FlatRate        *float64           `yaml:"flat_rate,omitempty" json:"flat_rate,omitempty"`
	DiscountFactors map[string]float64 `yaml:"discount_factors,omitempty" json:"discount_factors,omitempty"`
}

// MarketSpec is the curve pair. Both curves share reference date and day count.
type MarketSpec struct {
	ReferenceDate string    `yaml:"reference_date" json:"reference_date"`
	DayCount      string    `yaml:"day_count" json:"day_count"`
	Discount      CurveSpec `yaml:"discount" json:"discount"`
	Forward       CurveSpec `yaml:"forward" json:"forward"`
}

// ModelSpec holds the Hull-White parameters and lattice density. Zero values
// select the model defaults.
type ModelSpec struct {
	A         float64 `yaml:"a" json:"a"`
	Sigma     float64 `yaml:"sigma" json:"sigma"`
	TimeSteps int     `yaml:"time_steps" json:"time_steps"`
}

// HelperSpec is one european swaption of a calibration basket.
type HelperSpec struct {
	Expiry         string  `yaml:"expiry" json:"expiry"`
	Tenor          string  `yaml:"tenor" json:"tenor"`
	Nominal        float64 `yaml:"nominal" json:"nominal"`
	Volatility     float64 `yaml:"volatility" json:"volatility"`
	VolatilityType string  `yaml:"volatility_type" json:"volatility_type"`
	Shift          float64 `yaml:"shift" json:"shift"`
	Price          float64 `yaml:"price" json:"price"`
	ErrorType      string  `yaml:"error_type" json:"error_type"`
	Weight         float64 `yaml:"weight" json:"weight"`
	IndexedCoupons bool    `yaml:"indexed_coupons" json:"indexed_coupons"`
}

// EndCriteriaSpec bounds the optimizer; zero fields use the numerics defaults.
type EndCriteriaSpec struct {
	MaxIterations           int     `yaml:"max_iterations" json:"max_iterations"`
	MaxStationaryIterations int     `yaml:"max_stationary_iterations" json:"max_stationary_iterations"`
	FunctionEpsilon         float64 `yaml:"function_epsilon" json:"function_epsilon"`
}

// CalibrationFile is the on-disk shape (YAML) of a calibration run.
type CalibrationFile struct {
	Market        MarketSpec      `yaml:"market" json:"market"`
	Model         ModelSpec       `yaml:"model" json:"model"`
	Helpers       []HelperSpec    `yaml:"helpers" json:"helpers"`
	FixParameters []bool          `yaml:"fix_parameters,omitempty" json:"fix_parameters,omitempty"`
	EndCriteria   EndCriteriaSpec `yaml:"end_criteria" json:"end_criteria"`
	Restarts      int             `yaml:"restarts" json:"restarts"`
	Seed          uint64          `yaml:"seed" json:"seed"`
	Parallel      bool            `yaml:"parallel" json:"parallel"`
	// Numerics, when present, replaces the active Config for the run.
	Numerics *Config `yaml:"numerics,omitempty" json:"numerics,omitempty"`
}

// LoadCalibration reads and validates a calibration run file.
func LoadCalibration(path string) (*CalibrationFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f CalibrationFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("LoadCalibration: %w", err)
	}
	for i := range f.Helpers {
		if f.Helpers[i].Weight == 0 {
			f.Helpers[i].Weight = 1
		}
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

func (f *CalibrationFile) Validate() error {
	if f == nil {
		return errors.New("calibration file is nil")
	}
	if err := f.Market.Validate(); err != nil {
		return err
	}
	if len(f.Helpers) == 0 {
		return errors.New("helpers: at least one swaption is required")
	}
	for i, h := range f.Helpers {
		if strings.TrimSpace(h.Expiry) == "" || strings.TrimSpace(h.Tenor) == "" {
			return fmt.Errorf("helpers[%d]: expiry and tenor are required", i)
		}
		if h.Volatility <= 0 && h.Price <= 0 {
			return fmt.Errorf("helpers[%d]: volatility or price is required", i)
		}
	}
	if f.FixParameters != nil && len(f.FixParameters) != 2 {
		return fmt.Errorf("fix_parameters: want 2 flags, got %d", len(f.FixParameters))
	}
	if f.Model.A < 0 || f.Model.Sigma < 0 {
		return errors.New("model: a and sigma must be positive")
	}
	return nil
}

func (m MarketSpec) Validate() error {
	if _, err := time.Parse("2006-01-02", m.ReferenceDate); err != nil {
		return fmt.Errorf("market.reference_date: %w", err)
	}
	if err := m.Discount.validate(); err != nil {
		return fmt.Errorf("market.discount: %w", err)
	}
	if err := m.Forward.validate(); err != nil {
		return fmt.Errorf("market.forward: %w", err)
	}
	return nil
}

func (c CurveSpec) validate() error {
	if c.FlatRate == nil && len(c.DiscountFactors) == 0 {
		return errors.New("flat_rate or discount_factors is required")
	}
	if c.FlatRate != nil && len(c.DiscountFactors) > 0 {
		return errors.New("flat_rate and discount_factors are exclusive")
	}
	return nil
}
