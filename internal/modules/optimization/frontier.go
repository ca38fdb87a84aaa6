package optimization

import (
	"context"
	"math"
	"math/rand"
	"runtime"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/optimize"

	"github.com/wagnojunior/financial-report/pkg/formulas"
)

const (
	// FrontierPoints is the size of the target-return grid.
	FrontierPoints = 100

	// FrontierSpan is the annualized half-width of the grid: targets run
	// from −30% to +30% annualized return.
	FrontierSpan = 0.30
)

// FrontierPoint is one solved grid point. TargetReturn is daily, like the
// embedded result's Return.
type FrontierPoint struct {
	TargetReturn float64 `json:"target_return"`
	Result
}

// EfficientFrontier minimizes volatility at each point of a 100-target grid
// spanning ±30% annualized return, subject to Σw = 1 and the floor. Grid
// points are solved in parallel; a non-convergent point keeps its slot with
// Converged false instead of being dropped.
func (o *Optimizer) EfficientFrontier(ctx context.Context, floor float64) ([]FrontierPoint, error) {
	if err := o.checkFeasible(floor); err != nil {
		return nil, err
	}

	lo := -FrontierSpan / formulas.TradingDays
	hi := FrontierSpan / formulas.TradingDays
	step := (hi - lo) / (FrontierPoints - 1)

	points := make([]FrontierPoint, FrontierPoints)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for i := 0; i < FrontierPoints; i++ {
		i := i
		target := lo + float64(i)*step
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			result, err := o.solveTarget(target, floor)
			if err != nil {
				return err
			}
			points[i] = FrontierPoint{TargetReturn: target, Result: result}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return points, nil
}

// solveTarget minimizes w'Σw subject to Σw = 1, the floor bounds, and
// μ'w = target, the latter two as quadratic penalties.
func (o *Optimizer) solveTarget(target, floor float64) (Result, error) {
	n := len(o.model.Symbols)
	lower := floorBound(floor)

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			xp := o.projectToBounds(x, lower)
			ret, variance := o.returnAndVariance(xp)
			obj := variance + sumPenalty(xp)
			obj += penaltyWeight * (ret - target) * (ret - target)
			return obj
		},
		Grad: func(grad, x []float64) {
			xp := o.projectToBounds(x, lower)
			ret, _ := o.returnAndVariance(xp)
			for i := 0; i < n; i++ {
				grad[i] = 0
				for j := 0; j < n; j++ {
					grad[i] += 2 * o.model.Cov.At(i, j) * xp[j]
				}
				grad[i] += 2 * penaltyWeight * (ret - target) * o.model.Mean[i]
			}
			addSumPenaltyGradient(grad, xp)
		},
	}

	return o.solve(problem, lower, "efficient_return")
}

// RandomPortfolios evaluates uniformly drawn long-only weight vectors against
// the model, producing the scatter cloud the frontier is plotted over.
func (o *Optimizer) RandomPortfolios(count int, seed int64) []Result {
	n := len(o.model.Symbols)
	rng := rand.New(rand.NewSource(seed))

	out := make([]Result, count)
	for k := 0; k < count; k++ {
		x := make([]float64, n)
		var sum float64
		for i := range x {
			x[i] = rng.Float64()
			sum += x[i]
		}
		for i := range x {
			x[i] /= math.Max(sum, 1e-10)
		}
		ret, vol := o.Performance(x)
		out[k] = Result{
			Weights:    o.keyedWeights(x),
			Return:     ret,
			Volatility: vol,
			Converged:  true,
		}
	}
	return out
}
