// Package calibration fits the dual-curve Hull-White parameters to a basket
// of market instruments.
package calibration

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"sync"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/optimize"

	"github.com/meenmo/hw2c/config"
	"github.com/meenmo/hw2c/model"
)

// ErrDidNotConverge is returned when the optimizer stops on an iteration or
// evaluation limit, or fails.
var ErrDidNotConverge = errors.New("calibration did not converge")

// penalty is the objective value reported for parameters the model or a
// helper cannot price.
const penalty = 1e100

// EndCriteria bounds the optimizer. Zero fields take the configured defaults.
type EndCriteria struct {
	MaxIterations           int
	MaxStationaryIterations int
	FunctionEpsilon         float64
}

func (e EndCriteria) withDefaults() EndCriteria {
	cfg := config.GetConfig()
	if e.MaxIterations <= 0 {
		e.MaxIterations = cfg.CalibrationMaxIterations
	}
	if e.MaxStationaryIterations <= 0 {
		e.MaxStationaryIterations = cfg.CalibrationMaxStationaryIterations
	}
	if e.FunctionEpsilon <= 0 {
		e.FunctionEpsilon = cfg.CalibrationFunctionEpsilon
	}
	return e
}

// Options configures Calibrate.
type Options struct {
	EndCriteria EndCriteria
	// Weights scale each helper's squared error; nil weighs all helpers by one.
	Weights []float64
	// FixParameters marks [a, sigma] entries held at their current value; nil
	// applies DefaultFixParameters.
	FixParameters []bool
	// Restarts reruns the optimizer from perturbed starting points.
	Restarts int
	Seed     uint64
	// Parallel evaluates the helpers of one objective call concurrently.
	Parallel bool
	Logger   *slog.Logger
}

// Result reports the calibrated parameters and the fit quality.
type Result struct {
	Params          []float64
	Objective       float64
	Errors          []float64
	Iterations      int
	FuncEvaluations int
	Restarts        int
	Status          optimize.Status
}

// DefaultFixParameters fixes the mean reversion when a single helper cannot
// identify both parameters and frees both otherwise.
func DefaultFixParameters(helpers int) []bool {
	if helpers <= 1 {
		return []bool{true, false}
	}
	return []bool{false, false}
}

// Calibrate minimizes the weighted sum of squared helper errors over the free
// parameters of m with Nelder-Mead on log-parameters. On return m holds the
// best parameters found, also when the optimizer did not converge.
func Calibrate(m *model.HW2C, helpers []Helper, opts Options) (*Result, error) {
	if m == nil {
		return nil, fmt.Errorf("Calibrate: nil model")
	}
	if len(helpers) == 0 {
		return nil, fmt.Errorf("Calibrate: no helpers")
	}
	weights := opts.Weights
	if weights == nil {
		weights = make([]float64, len(helpers))
		for i := range weights {
			weights[i] = 1
		}
	}
	if len(weights) != len(helpers) {
		return nil, fmt.Errorf("Calibrate: %d weights for %d helpers", len(weights), len(helpers))
	}
	fix := opts.FixParameters
	if fix == nil {
		fix = DefaultFixParameters(len(helpers))
	}
	start := m.Params()
	if len(fix) != len(start) {
		return nil, fmt.Errorf("Calibrate: %d fix flags for %d parameters", len(fix), len(start))
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	end := opts.EndCriteria.withDefaults()

	var free []int
	for i, f := range fix {
		if !f {
			free = append(free, i)
		}
	}
	toParams := func(x []float64) []float64 {
		p := append([]float64(nil), start...)
		for k, i := range free {
			p[i] = math.Exp(x[k])
		}
		return p
	}

	ev := evaluator{model: m, helpers: helpers, weights: weights, parallel: opts.Parallel}
	logger.Info("calibration start", "helpers", len(helpers), "params", start, "free", len(free))

	if len(free) == 0 {
		obj, errs, err := ev.evaluate(start)
		if err != nil {
			return nil, fmt.Errorf("Calibrate: %w", err)
		}
		return &Result{Params: start, Objective: obj, Errors: errs, Status: optimize.Success}, nil
	}

	x0 := make([]float64, len(free))
	for k, i := range free {
		x0[k] = math.Log(start[i])
	}
	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			obj, _, err := ev.evaluate(toParams(x))
			if err != nil {
				return penalty
			}
			return obj
		},
	}
	settings := &optimize.Settings{
		MajorIterations: end.MaxIterations,
		Converger: &optimize.FunctionConverge{
			Absolute:   end.FunctionEpsilon,
			Iterations: end.MaxStationaryIterations,
		},
	}

	best, runErr := optimize.Minimize(problem, x0, settings, &optimize.NelderMead{})
	if best == nil {
		return nil, fmt.Errorf("Calibrate: %v: %w", runErr, ErrDidNotConverge)
	}
	iterations, evaluations := best.Stats.MajorIterations, best.Stats.FuncEvaluations

	rng := rand.New(rand.NewSource(opts.Seed))
	for r := 0; r < opts.Restarts; r++ {
		x := make([]float64, len(best.X))
		for k := range x {
			x[k] = best.X[k] + 0.5*rng.NormFloat64()
		}
		res, err := optimize.Minimize(problem, x, settings, &optimize.NelderMead{})
		if res == nil {
			logger.Warn("calibration restart failed", "restart", r+1, "err", err)
			continue
		}
		iterations += res.Stats.MajorIterations
		evaluations += res.Stats.FuncEvaluations
		logger.Info("calibration restart", "restart", r+1, "objective", res.F, "best", best.F)
		if res.F < best.F {
			best, runErr = res, err
		}
	}

	params := toParams(best.X)
	if err := m.SetParams(params); err != nil {
		return nil, fmt.Errorf("Calibrate: %w", err)
	}
	obj, errs, err := ev.evaluate(params)
	if err != nil {
		return nil, fmt.Errorf("Calibrate: final evaluation: %w", err)
	}
	result := &Result{
		Params:          params,
		Objective:       obj,
		Errors:          errs,
		Iterations:      iterations,
		FuncEvaluations: evaluations,
		Restarts:        opts.Restarts,
		Status:          best.Status,
	}
	logger.Info("calibration done", "status", best.Status.String(), "params", params, "objective", obj, "iterations", iterations)

	if runErr != nil || !converged(best.Status) {
		return result, fmt.Errorf("Calibrate: status %s: %w", best.Status, ErrDidNotConverge)
	}
	return result, nil
}

func converged(s optimize.Status) bool {
	switch s {
	case optimize.Failure, optimize.IterationLimit, optimize.RuntimeLimit,
		optimize.FunctionEvaluationLimit, optimize.NotTerminated:
		return false
	}
	return true
}

type evaluator struct {
	model    *model.HW2C
	helpers  []Helper
	weights  []float64
	parallel bool

	mu sync.Mutex
}

// evaluate sets params on the model and returns the weighted objective and the
// per-helper errors. The lock keeps parameters fixed while helpers price.
func (e *evaluator) evaluate(params []float64) (float64, []float64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.model.SetParams(params); err != nil {
		return 0, nil, err
	}

	errs := make([]float64, len(e.helpers))
	failures := make([]error, len(e.helpers))
	if e.parallel {
		var wg sync.WaitGroup
		for i, h := range e.helpers {
			wg.Add(1)
			go func(i int, h Helper) {
				defer wg.Done()
				errs[i], failures[i] = h.CalibrationError()
			}(i, h)
		}
		wg.Wait()
	} else {
		for i, h := range e.helpers {
			errs[i], failures[i] = h.CalibrationError()
		}
	}

	var obj float64
	for i, err := range failures {
		if err != nil {
			return 0, nil, fmt.Errorf("helper %d: %w", i, err)
		}
		obj += e.weights[i] * errs[i] * errs[i]
	}
	return obj, errs, nil
}
