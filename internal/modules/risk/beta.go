// Package risk computes per-asset beta against a benchmark and the pairwise
// correlation matrix of the aligned daily-return series.
package risk

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/wagnojunior/financial-report/internal/domain"
	"github.com/wagnojunior/financial-report/internal/modules/positions"
)

// BetaRow is one asset's regression slope against the benchmark.
type BetaRow struct {
	Code string  `json:"code"`
	Name string  `json:"name"`
	Beta float64 `json:"beta"`
}

// Betas regresses each asset's daily returns on the benchmark's. A missing
// benchmark series makes every regression impossible and is an error. Only
// days where both series have an observation enter a regression; an asset
// with fewer than two such days gets a NaN beta, which callers must surface.
func Betas(returns map[string][]float64, benchmark string, names map[string]string) ([]BetaRow, error) {
	bench, ok := returns[benchmark]
	if !ok {
		return nil, &domain.PriceUnavailableError{Symbol: benchmark}
	}

	out := make([]BetaRow, 0, len(returns)-1)
	for symbol, series := range returns {
		if symbol == benchmark {
			continue
		}
		out = append(out, BetaRow{
			Code: symbol,
			Name: names[symbol],
			Beta: beta(bench, series),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

// beta is the OLS slope of asset returns on benchmark returns over the days
// both observed.
func beta(bench, asset []float64) float64 {
	n := len(bench)
	if len(asset) < n {
		n = len(asset)
	}

	xs := make([]float64, 0, n)
	ys := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		if math.IsNaN(bench[i]) || math.IsNaN(asset[i]) {
			continue
		}
		xs = append(xs, bench[i])
		ys = append(ys, asset[i])
	}
	if len(xs) < 2 {
		return math.NaN()
	}

	_, slope := stat.LinearRegression(xs, ys, nil, false)
	return slope
}

// PortfolioBeta is the allocation-weighted beta of the whole portfolio. All
// positions are first converted into the reference currency so the weights
// come from one unified amount base rather than per-currency slices. Rates
// are keyed by asset code.
func PortfolioBeta(holdings []positions.CurrentPosition, betas []BetaRow, rates map[string]float64) (float64, error) {
	byCode := make(map[string]float64, len(betas))
	for _, b := range betas {
		byCode[b.Code] = b.Beta
	}

	var total float64
	converted := make(map[string]float64, len(holdings))
	for _, p := range holdings {
		rate, ok := rates[p.Code]
		if !ok || rate <= 0 {
			return 0, &domain.RateUnavailableError{Currency: p.Currency}
		}
		amount := p.Amount * rate
		converted[p.Code] = amount
		total += amount
	}
	if total == 0 {
		return math.NaN(), nil
	}

	var portfolio float64
	for code, amount := range converted {
		b, ok := byCode[code]
		if !ok {
			return 0, &domain.PriceUnavailableError{Symbol: code}
		}
		portfolio += amount / total * b
	}
	return portfolio, nil
}
