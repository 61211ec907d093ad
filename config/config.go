package config

import "sync"

// Config holds the numerical policy shared by the lattice engines, the
// analytic swaption pricer and the calibration loop.
type Config struct {
	// TimeStepsPerYear sizes the lattice when callers do not pass a step count.
	TimeStepsPerYear int `yaml:"time_steps_per_year" json:"time_steps_per_year"`

	// MinTimeSteps is the floor applied to TimeSteps.
	MinTimeSteps int `yaml:"min_time_steps" json:"min_time_steps"`

	// SnapWindowDays is the distance (calendar days) within which a coupon
	// reset date is moved onto a nearby exercise date.
	SnapWindowDays int `yaml:"snap_window_days" json:"snap_window_days"`

	// ImpliedVolAccuracy is the price tolerance of the implied volatility solver.
	ImpliedVolAccuracy float64 `yaml:"implied_vol_accuracy" json:"implied_vol_accuracy"`

	// ImpliedVolMaxIterations bounds the Newton/bisection iterations.
	ImpliedVolMaxIterations int `yaml:"implied_vol_max_iterations" json:"implied_vol_max_iterations"`

	// CalibrationMaxIterations is the optimizer's major iteration budget.
	CalibrationMaxIterations int `yaml:"calibration_max_iterations" json:"calibration_max_iterations"`

	// CalibrationMaxStationaryIterations stops the optimizer after this many
	// iterations without an improvement larger than CalibrationFunctionEpsilon.
	CalibrationMaxStationaryIterations int `yaml:"calibration_max_stationary_iterations" json:"calibration_max_stationary_iterations"`

	// CalibrationFunctionEpsilon is the objective improvement regarded as stationary.
	CalibrationFunctionEpsilon float64 `yaml:"calibration_function_epsilon" json:"calibration_function_epsilon"`
}

// DefaultConfig provides production-ready default values.
var DefaultConfig = Config{
	TimeStepsPerYear:                   4,
	MinTimeSteps:                       10,
	SnapWindowDays:                     7,
	ImpliedVolAccuracy:                 1e-12,
	ImpliedVolMaxIterations:            100,
	CalibrationMaxIterations:           1000,
	CalibrationMaxStationaryIterations: 100,
	CalibrationFunctionEpsilon:         1e-16,
}

var (
	mu  sync.RWMutex
	cfg = DefaultConfig
)

// SetConfig replaces the active configuration.
func SetConfig(c Config) {
	mu.Lock()
	defer mu.Unlock()
	cfg = c
}

// GetConfig returns the active configuration.
func GetConfig() Config {
	mu.RLock()
	defer mu.RUnlock()
	return cfg
}

// TimeSteps returns the lattice step count for an instrument living years.
func TimeSteps(years float64) int {
	c := GetConfig()
	n := int(years * float64(c.TimeStepsPerYear))
	if n < c.MinTimeSteps {
		n = c.MinTimeSteps
	}
	return n
}
