// Package history builds aligned daily price and return series from stored
// close prices, and derives the mean/covariance model the optimizer and
// simulator consume.
package history

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/wagnojunior/financial-report/internal/domain"
	"github.com/wagnojunior/financial-report/pkg/formulas"
)

// TimeSeriesData holds per-symbol series on a shared date calendar. Missing
// observations are NaN.
type TimeSeriesData struct {
	Dates []string             `json:"dates"` // YYYY-MM-DD, ascending
	Data  map[string][]float64 `json:"data"`
}

// BuildSeries pivots price points into a TimeSeriesData on the union of all
// observed dates. Dates a symbol did not trade on become NaN.
func BuildSeries(points []domain.PricePoint) TimeSeriesData {
	dateSet := make(map[string]bool)
	bySymbol := make(map[string]map[string]float64)
	for _, p := range points {
		dateSet[p.Date] = true
		m, ok := bySymbol[p.Symbol]
		if !ok {
			m = make(map[string]float64)
			bySymbol[p.Symbol] = m
		}
		m[p.Date] = p.Close
	}

	dates := make([]string, 0, len(dateSet))
	for d := range dateSet {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	data := make(map[string][]float64, len(bySymbol))
	for symbol, byDate := range bySymbol {
		prices := make([]float64, len(dates))
		for i, d := range dates {
			if close, ok := byDate[d]; ok {
				prices[i] = close
			} else {
				prices[i] = math.NaN()
			}
		}
		data[symbol] = prices
	}

	return TimeSeriesData{Dates: dates, Data: data}
}

// AlignTo reindexes the series onto the given calendar. Dates absent from the
// source become NaN.
func AlignTo(data TimeSeriesData, dates []string) TimeSeriesData {
	dateIndex := make(map[string]int, len(data.Dates))
	for i, d := range data.Dates {
		dateIndex[d] = i
	}

	aligned := TimeSeriesData{Dates: dates, Data: make(map[string][]float64, len(data.Data))}
	for symbol, prices := range data.Data {
		out := make([]float64, len(dates))
		for i, d := range dates {
			if j, ok := dateIndex[d]; ok && j < len(prices) {
				out[i] = prices[j]
			} else {
				out[i] = math.NaN()
			}
		}
		aligned.Data[symbol] = out
	}
	return aligned
}

// FillLeading back-fills leading NaNs with the first valid observation so
// series can be base-normalized. Gaps after the first observation are left
// as NaN: forward-filling them would manufacture zero returns.
func FillLeading(data TimeSeriesData) TimeSeriesData {
	filled := TimeSeriesData{Dates: data.Dates, Data: make(map[string][]float64, len(data.Data))}
	for symbol, prices := range data.Data {
		out := make([]float64, len(prices))
		copy(out, prices)
		for i, v := range out {
			if !math.IsNaN(v) {
				for j := 0; j < i; j++ {
					out[j] = v
				}
				break
			}
		}
		filled.Data[symbol] = out
	}
	return filled
}

// Shift applies a day shift to the listed symbols: +1 delays the series by
// one calendar slot, -1 advances it. The vacated edge becomes NaN. Symbols on
// the benchmark's own market pass through unshifted.
func Shift(data TimeSeriesData, symbols map[string]bool, shift int) TimeSeriesData {
	if shift == 0 || len(symbols) == 0 {
		return data
	}

	shifted := TimeSeriesData{Dates: data.Dates, Data: make(map[string][]float64, len(data.Data))}
	for symbol, prices := range data.Data {
		if !symbols[symbol] {
			shifted.Data[symbol] = prices
			continue
		}
		out := make([]float64, len(prices))
		for i := range out {
			j := i - shift
			if j >= 0 && j < len(prices) {
				out[i] = prices[j]
			} else {
				out[i] = math.NaN()
			}
		}
		shifted.Data[symbol] = out
	}
	return shifted
}

// Returns computes per-symbol daily returns. A NaN on either side of a day
// boundary propagates into that day's return.
func Returns(data TimeSeriesData) map[string][]float64 {
	out := make(map[string][]float64, len(data.Data))
	for symbol, prices := range data.Data {
		out[symbol] = formulas.CalculateReturns(prices)
	}
	return out
}

// Normalize rebases each series to 1 at its first valid observation.
func Normalize(data TimeSeriesData) TimeSeriesData {
	normalized := TimeSeriesData{Dates: data.Dates, Data: make(map[string][]float64, len(data.Data))}
	for symbol, prices := range data.Data {
		out := make([]float64, len(prices))
		base := math.NaN()
		for _, v := range prices {
			if !math.IsNaN(v) && v != 0 {
				base = v
				break
			}
		}
		for i, v := range prices {
			out[i] = v / base
		}
		normalized.Data[symbol] = out
	}
	return normalized
}

// WeightedSeries combines normalized series into a single portfolio path
// using the given weights. Observations where every weighted series is NaN
// are NaN; partial NaNs renormalize across the symbols present that day.
func WeightedSeries(data TimeSeriesData, weights map[string]float64) []float64 {
	out := make([]float64, len(data.Dates))
	for i := range data.Dates {
		var sum, weight float64
		for symbol, w := range weights {
			prices, ok := data.Data[symbol]
			if !ok || i >= len(prices) || math.IsNaN(prices[i]) {
				continue
			}
			sum += w * prices[i]
			weight += w
		}
		if weight == 0 {
			out[i] = math.NaN()
		} else {
			out[i] = sum / weight
		}
	}
	return out
}

// Model is the daily mean/covariance estimate the optimizer and simulator
// work from. Symbols fixes the coordinate order of Mean and Cov.
type Model struct {
	Symbols []string
	Mean    []float64
	Cov     *mat.SymDense
}

// BuildModel estimates per-symbol mean daily returns and the covariance
// matrix over pairwise-complete observations. A pair with fewer than two
// overlapping observations gets a NaN covariance entry.
func BuildModel(returns map[string][]float64, symbols []string) Model {
	n := len(symbols)
	model := Model{
		Symbols: symbols,
		Mean:    make([]float64, n),
		Cov:     mat.NewSymDense(n, nil),
	}

	for i, s := range symbols {
		model.Mean[i] = nanMean(returns[s])
	}

	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			model.Cov.SetSym(i, j, nanCovariance(returns[symbols[i]], returns[symbols[j]]))
		}
	}
	return model
}

func nanMean(xs []float64) float64 {
	var sum float64
	var n int
	for _, x := range xs {
		if math.IsNaN(x) {
			continue
		}
		sum += x
		n++
	}
	if n == 0 {
		return math.NaN()
	}
	return sum / float64(n)
}

// nanCovariance is the sample covariance over observations where both series
// are present.
func nanCovariance(xs, ys []float64) float64 {
	n := len(xs)
	if len(ys) < n {
		n = len(ys)
	}

	var sumX, sumY float64
	var count int
	for i := 0; i < n; i++ {
		if math.IsNaN(xs[i]) || math.IsNaN(ys[i]) {
			continue
		}
		sumX += xs[i]
		sumY += ys[i]
		count++
	}
	if count < 2 {
		return math.NaN()
	}
	meanX, meanY := sumX/float64(count), sumY/float64(count)

	var cov float64
	for i := 0; i < n; i++ {
		if math.IsNaN(xs[i]) || math.IsNaN(ys[i]) {
			continue
		}
		cov += (xs[i] - meanX) * (ys[i] - meanY)
	}
	return cov / float64(count-1)
}
