// Package optimization solves constrained mean-variance problems over the
// daily mean/covariance model: minimum volatility, maximum Sharpe ratio and
// the efficient frontier, each with an optional per-asset allocation floor.
package optimization

import (
	"fmt"
	"math"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/optimize"

	"github.com/wagnojunior/financial-report/internal/modules/history"
	"github.com/wagnojunior/financial-report/pkg/formulas"
)

const (
	// NoFloor disables the per-asset minimum-allocation constraint.
	NoFloor = -1.0

	// DiversificationFloor is the per-asset minimum used for the floored
	// optimization variants.
	DiversificationFloor = 0.05

	penaltyWeight = 1000.0
)

// Result is one solved portfolio. Return and Volatility are daily; annualize
// at presentation time. Converged false means the solver stopped without
// meeting its convergence criteria and the weights are best-effort.
type Result struct {
	Weights    map[string]float64 `json:"weights"`
	Return     float64            `json:"return"`
	Volatility float64            `json:"volatility"`
	Converged  bool               `json:"converged"`
}

// Sharpe returns the result's annualized Sharpe ratio against the given
// annualized risk-free rate.
func (r Result) Sharpe(riskFree float64) float64 {
	return formulas.SharpeRatio(r.Return, r.Volatility, riskFree)
}

// Optimizer solves mean-variance problems for one model. The model must be
// complete: a NaN mean or covariance entry makes every problem ill-posed.
type Optimizer struct {
	model    history.Model
	riskFree float64 // annualized
	log      zerolog.Logger
}

func New(model history.Model, riskFree float64, log zerolog.Logger) (*Optimizer, error) {
	for i, m := range model.Mean {
		if math.IsNaN(m) {
			return nil, fmt.Errorf("model has no mean return for %s", model.Symbols[i])
		}
		for j := i; j < len(model.Mean); j++ {
			if math.IsNaN(model.Cov.At(i, j)) {
				return nil, fmt.Errorf("model has no covariance for %s/%s", model.Symbols[i], model.Symbols[j])
			}
		}
	}
	return &Optimizer{
		model:    model,
		riskFree: riskFree,
		log:      log.With().Str("component", "optimizer").Logger(),
	}, nil
}

// Performance evaluates a weight vector against the model: expected daily
// return μ'w and daily volatility sqrt(w'Σw).
func (o *Optimizer) Performance(weights []float64) (ret, vol float64) {
	n := len(o.model.Symbols)
	var variance float64
	for i := 0; i < n; i++ {
		ret += o.model.Mean[i] * weights[i]
		for j := 0; j < n; j++ {
			variance += weights[i] * weights[j] * o.model.Cov.At(i, j)
		}
	}
	return ret, math.Sqrt(math.Max(variance, 0))
}

// MinimizeVolatility finds the weight vector minimizing w'Σw subject to
// Σw = 1 and floor ≤ w ≤ 1 componentwise.
func (o *Optimizer) MinimizeVolatility(floor float64) (Result, error) {
	if err := o.checkFeasible(floor); err != nil {
		return Result{}, err
	}
	n := len(o.model.Symbols)
	lower := floorBound(floor)

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			xp := o.projectToBounds(x, lower)
			var variance float64
			for i := 0; i < n; i++ {
				for j := 0; j < n; j++ {
					variance += xp[i] * xp[j] * o.model.Cov.At(i, j)
				}
			}
			return variance + sumPenalty(xp)
		},
		Grad: func(grad, x []float64) {
			xp := o.projectToBounds(x, lower)
			for i := 0; i < n; i++ {
				grad[i] = 0
				for j := 0; j < n; j++ {
					grad[i] += 2 * o.model.Cov.At(i, j) * xp[j]
				}
			}
			addSumPenaltyGradient(grad, xp)
		},
	}

	return o.solve(problem, lower, "min_volatility")
}

// MaximizeSharpe finds the weight vector minimizing the negative annualized
// Sharpe ratio −(R−Rf)/σ subject to Σw = 1 and floor ≤ w ≤ 1. Minimizing the
// negative keeps the search moving toward higher Sharpe even while the
// portfolio return sits below the risk-free rate, where maximizing a
// sign-flipped ratio would chase higher volatility instead.
func (o *Optimizer) MaximizeSharpe(floor float64) (Result, error) {
	if err := o.checkFeasible(floor); err != nil {
		return Result{}, err
	}
	n := len(o.model.Symbols)
	lower := floorBound(floor)
	annualize := float64(formulas.TradingDays)
	volScale := math.Sqrt(annualize)

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			xp := o.projectToBounds(x, lower)
			ret, variance := o.returnAndVariance(xp)
			std := math.Sqrt(math.Max(variance, 1e-10))
			sharpe := (annualize*ret - o.riskFree) / (volScale * std)
			return -sharpe + sumPenalty(xp)
		},
		Grad: func(grad, x []float64) {
			xp := o.projectToBounds(x, lower)
			ret, variance := o.returnAndVariance(xp)
			std := math.Sqrt(math.Max(variance, 1e-10))
			excess := annualize*ret - o.riskFree
			for i := 0; i < n; i++ {
				var dVariance float64
				for j := 0; j < n; j++ {
					dVariance += 2 * o.model.Cov.At(i, j) * xp[j]
				}
				grad[i] = -annualize*o.model.Mean[i]/(volScale*std) +
					excess*dVariance/(2*volScale*std*std*std)
			}
			addSumPenaltyGradient(grad, xp)
		},
	}

	return o.solve(problem, lower, "max_sharpe")
}

// CurrentPerformance evaluates an existing allocation against the model: a
// direct evaluation, not an optimization. Weights are keyed by symbol and
// normalized before evaluation.
func (o *Optimizer) CurrentPerformance(weights map[string]float64) Result {
	n := len(o.model.Symbols)
	x := make([]float64, n)
	var sum float64
	for i, s := range o.model.Symbols {
		x[i] = weights[s]
		sum += x[i]
	}
	if sum > 0 {
		for i := range x {
			x[i] /= sum
		}
	}

	ret, vol := o.Performance(x)
	return Result{
		Weights:    o.keyedWeights(x),
		Return:     ret,
		Volatility: vol,
		Converged:  true,
	}
}

// solve runs the minimizer with BFGS first and NelderMead as fallback,
// accepting the usual convergence statuses. A run that still has not
// converged is returned with Converged false rather than dropped.
func (o *Optimizer) solve(problem optimize.Problem, lower float64, strategy string) (Result, error) {
	n := len(o.model.Symbols)
	initial := make([]float64, n)
	for i := range initial {
		initial[i] = 1.0 / float64(n)
	}

	result, err := optimize.Minimize(problem, initial, &optimize.Settings{}, &optimize.BFGS{})
	if err != nil || !converged(result.Status) {
		result, err = optimize.Minimize(problem, initial, &optimize.Settings{}, &optimize.NelderMead{})
		if err != nil {
			return Result{}, fmt.Errorf("%s optimization failed: %w", strategy, err)
		}
	}

	x := o.projectToBounds(result.X, lower)
	redistribute(x, lower)

	ret, vol := o.Performance(x)
	out := Result{
		Weights:    o.keyedWeights(x),
		Return:     ret,
		Volatility: vol,
		Converged:  converged(result.Status),
	}
	if !out.Converged {
		o.log.Warn().Str("strategy", strategy).Stringer("status", result.Status).Msg("Optimization did not converge")
	}
	return out, nil
}

func (o *Optimizer) returnAndVariance(x []float64) (ret, variance float64) {
	n := len(x)
	for i := 0; i < n; i++ {
		ret += o.model.Mean[i] * x[i]
		for j := 0; j < n; j++ {
			variance += x[i] * x[j] * o.model.Cov.At(i, j)
		}
	}
	return ret, variance
}

func (o *Optimizer) projectToBounds(x []float64, lower float64) []float64 {
	proj := make([]float64, len(x))
	for i := range x {
		proj[i] = math.Max(lower, math.Min(1, x[i]))
	}
	return proj
}

func (o *Optimizer) keyedWeights(x []float64) map[string]float64 {
	weights := make(map[string]float64, len(x))
	for i, s := range o.model.Symbols {
		weights[s] = x[i]
	}
	return weights
}

func (o *Optimizer) checkFeasible(floor float64) error {
	if floor > 0 && floor*float64(len(o.model.Symbols)) > 1 {
		return fmt.Errorf("floor %.2f is infeasible for %d assets", floor, len(o.model.Symbols))
	}
	return nil
}

func floorBound(floor float64) float64 {
	if floor < 0 {
		return 0
	}
	return floor
}

// redistribute scales x onto {w : Σw = 1, lower ≤ w ≤ 1}. Excess mass is
// removed in proportion to each component's headroom above the floor and
// missing mass added in proportion to its headroom below 1, so no component
// crosses a bound. x must already lie within [lower, 1] componentwise; for a
// feasible floor a single pass lands exactly on the simplex.
func redistribute(x []float64, lower float64) {
	var sum float64
	for _, w := range x {
		sum += w
	}
	switch {
	case sum-1 > 1e-12:
		excess := sum - 1
		var free float64
		for _, w := range x {
			free += w - lower
		}
		if free > 0 {
			for i := range x {
				x[i] -= excess * (x[i] - lower) / free
			}
		}
	case 1-sum > 1e-12:
		deficit := 1 - sum
		var room float64
		for _, w := range x {
			room += 1 - w
		}
		if room > 0 {
			for i := range x {
				x[i] += deficit * (1 - x[i]) / room
			}
		}
	}
}

func sumPenalty(x []float64) float64 {
	var sum float64
	for _, w := range x {
		sum += w
	}
	return penaltyWeight * (sum - 1.0) * (sum - 1.0)
}

func addSumPenaltyGradient(grad, x []float64) {
	var sum float64
	for _, w := range x {
		sum += w
	}
	for i := range grad {
		grad[i] += 2 * penaltyWeight * (sum - 1.0)
	}
}

func converged(status optimize.Status) bool {
	switch status {
	case optimize.Success, optimize.GradientThreshold, optimize.FunctionConvergence:
		return true
	}
	return false
}
