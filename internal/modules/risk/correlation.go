package risk

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// CorrelationMatrix is the Pearson correlation of the assets' daily returns.
// Symbols fixes the row/column order; the benchmark is excluded by the
// caller. Entries with fewer than two overlapping observations are NaN.
type CorrelationMatrix struct {
	Symbols []string    `json:"symbols"`
	Values  [][]float64 `json:"values"`
}

// Correlations computes the pairwise correlation matrix over the days both
// series of each pair observed. The matrix is symmetric with a unit diagonal
// for every series that has at least two observations.
func Correlations(returns map[string][]float64, benchmark string) CorrelationMatrix {
	symbols := make([]string, 0, len(returns))
	for s := range returns {
		if s == benchmark {
			continue
		}
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)

	n := len(symbols)
	values := make([][]float64, n)
	for i := range values {
		values[i] = make([]float64, n)
	}

	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			c := pairwiseCorrelation(returns[symbols[i]], returns[symbols[j]])
			values[i][j] = c
			values[j][i] = c
		}
	}

	return CorrelationMatrix{Symbols: symbols, Values: values}
}

func pairwiseCorrelation(xs, ys []float64) float64 {
	n := len(xs)
	if len(ys) < n {
		n = len(ys)
	}

	px := make([]float64, 0, n)
	py := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		if math.IsNaN(xs[i]) || math.IsNaN(ys[i]) {
			continue
		}
		px = append(px, xs[i])
		py = append(py, ys[i])
	}
	if len(px) < 2 {
		return math.NaN()
	}
	return stat.Correlation(px, py, nil)
}
