// Package simulation projects portfolio value forward with Monte Carlo draws
// from the portfolio's estimated daily return distribution.
package simulation

import (
	"context"
	"fmt"
	"math"
	"runtime"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/wagnojunior/financial-report/internal/modules/history"
	"github.com/wagnojunior/financial-report/pkg/formulas"
)

// Summary describes the distribution of simulated terminal values. Value 1.0
// is the break-even line: the portfolio's worth at the start of the horizon.
type Summary struct {
	Min          float64 `json:"min"`
	Max          float64 `json:"max"`
	Mean         float64 `json:"mean"`
	Median       float64 `json:"median"`
	ProbBelowPar float64 `json:"prob_below_par"` // % of paths ending < 1
	ProbAbovePar float64 `json:"prob_above_par"` // % of paths ending > 1
}

// Outcome is a full simulation run: one value path per trial plus terminal
// statistics.
type Outcome struct {
	Paths    [][]float64 `json:"paths"` // [trial][day], day 0 is always 1
	Terminal []float64   `json:"terminal"`
	Summary  Summary     `json:"summary"`
}

// Simulator draws daily portfolio returns from a normal distribution with
// the model-implied scalar mean and volatility.
type Simulator struct {
	mean float64
	std  float64
	log  zerolog.Logger
}

// New builds a simulator from the mean/covariance model and a weight vector
// keyed by symbol: mean = Σwμ and std = sqrt(w'Σw).
func New(model history.Model, weights map[string]float64, log zerolog.Logger) (*Simulator, error) {
	n := len(model.Symbols)
	x := make([]float64, n)
	for i, s := range model.Symbols {
		x[i] = weights[s]
	}

	var mean, variance float64
	for i := 0; i < n; i++ {
		mean += model.Mean[i] * x[i]
		for j := 0; j < n; j++ {
			variance += x[i] * x[j] * model.Cov.At(i, j)
		}
	}
	if math.IsNaN(mean) || math.IsNaN(variance) {
		return nil, fmt.Errorf("simulation model is incomplete")
	}

	return &Simulator{
		mean: mean,
		std:  math.Sqrt(math.Max(variance, 0)),
		log:  log.With().Str("component", "simulator").Logger(),
	}, nil
}

// Run simulates numSim value paths of timeSim days each. Paths start at 1
// and compound daily draws; every terminal value is strictly positive as
// long as draws stay above −100%, which finite normal draws at realistic
// volatilities do.
func (s *Simulator) Run(ctx context.Context, numSim, timeSim int) (*Outcome, error) {
	if numSim <= 0 || timeSim <= 0 {
		return nil, fmt.Errorf("invalid simulation size: num_sim=%d time_sim=%d", numSim, timeSim)
	}

	// distuv.Normal without an explicit Src uses the globally seeded
	// source, which is safe for concurrent draws.
	dist := distuv.Normal{Mu: s.mean, Sigma: s.std}

	paths := make([][]float64, numSim)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for k := 0; k < numSim; k++ {
		k := k
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			path := make([]float64, timeSim+1)
			path[0] = 1.0
			for d := 1; d <= timeSim; d++ {
				path[d] = path[d-1] * (1 + dist.Rand())
			}
			paths[k] = path
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	terminal := make([]float64, numSim)
	for k, path := range paths {
		terminal[k] = path[timeSim]
	}

	s.log.Debug().Int("num_sim", numSim).Int("time_sim", timeSim).Msg("Simulation complete")
	return &Outcome{
		Paths:    paths,
		Terminal: terminal,
		Summary:  summarize(terminal),
	}, nil
}

func summarize(terminal []float64) Summary {
	min, max := terminal[0], terminal[0]
	var below, above int
	for _, v := range terminal {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
		if v < 1 {
			below++
		}
		if v > 1 {
			above++
		}
	}
	n := float64(len(terminal))
	return Summary{
		Min:          min,
		Max:          max,
		Mean:         formulas.Mean(terminal),
		Median:       formulas.Median(terminal),
		ProbBelowPar: 100 * float64(below) / n,
		ProbAbovePar: 100 * float64(above) / n,
	}
}
