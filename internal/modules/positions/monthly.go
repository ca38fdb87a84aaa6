package positions

import (
	"math"
	"sort"
	"time"

	"github.com/wagnojunior/financial-report/internal/domain"
)

// MonthlySeries is a per-currency cumulative series on a monthly calendar.
// Values are divided by the currency's Multiplier to keep chart axes
// readable; multiply back to recover raw amounts.
type MonthlySeries struct {
	Months     []string             `json:"months"` // YYYY-MM, contiguous
	Values     map[string][]float64 `json:"values"`
	Multiplier map[string]float64   `json:"multiplier"`
}

// MonthlyCumulative accumulates the given per-transaction value month by
// month, per currency. The calendar runs contiguously from the first to the
// last transaction month; months without activity carry the previous
// cumulative value forward. Signed transactions make the series net.
func MonthlyCumulative(txs []domain.Transaction, value func(domain.Transaction) float64) (MonthlySeries, error) {
	series := MonthlySeries{
		Values:     make(map[string][]float64),
		Multiplier: make(map[string]float64),
	}
	if len(txs) == 0 {
		return series, nil
	}

	type key struct{ month, currency string }
	perMonth := make(map[key]float64)
	var first, last time.Time
	currencies := make(map[string]bool)
	for _, t := range txs {
		d, err := time.Parse("2006-01-02", t.Date)
		if err != nil {
			return MonthlySeries{}, &domain.ValidationError{
				Code:      t.Code,
				Operation: t.Operation,
				Reason:    "transaction date is not in YYYY-MM-DD form",
			}
		}
		if first.IsZero() || d.Before(first) {
			first = d
		}
		if d.After(last) {
			last = d
		}
		perMonth[key{d.Format("2006-01"), t.Currency}] += value(t)
		currencies[t.Currency] = true
	}

	for m := monthStart(first); !m.After(last); m = m.AddDate(0, 1, 0) {
		series.Months = append(series.Months, m.Format("2006-01"))
	}

	sorted := make([]string, 0, len(currencies))
	for c := range currencies {
		sorted = append(sorted, c)
	}
	sort.Strings(sorted)

	for _, c := range sorted {
		values := make([]float64, len(series.Months))
		var cum, maxAbs float64
		for i, m := range series.Months {
			cum += perMonth[key{m, c}]
			values[i] = cum
			if a := math.Abs(cum); a > maxAbs {
				maxAbs = a
			}
		}
		mult := scaleFactor(maxAbs)
		for i := range values {
			values[i] /= mult
		}
		series.Values[c] = values
		series.Multiplier[c] = mult
	}

	return series, nil
}

func monthStart(d time.Time) time.Time {
	return time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// scaleFactor picks the power of a thousand that brings the series' largest
// absolute value into [1, 1000).
func scaleFactor(maxAbs float64) float64 {
	mult := 1.0
	for maxAbs/mult >= 1000 {
		mult *= 1000
	}
	return mult
}
