package positions

import (
	"sort"

	"github.com/wagnojunior/financial-report/internal/domain"
)

// FeeThreshold is the fee percentage below which fee-table rows are folded
// into the "Other" bucket.
const FeeThreshold = 0.15

// CurrencyTotal sums invested amounts and fees per currency.
type CurrencyTotal struct {
	Currency  string  `json:"currency"`
	Amount    float64 `json:"amount"`
	BrokerFee float64 `json:"broker_fee"`
	TaxFee    float64 `json:"tax_fee"`
	TotalFee  float64 `json:"total_fee"`
	FeePct    float64 `json:"fee_pct"` // total fee as % of amount
}

// TotalsByCurrency reduces transactions into per-currency totals, sorted by
// currency. Pass signed transactions to net buys against sells, or raw ones
// to sum turnover.
func TotalsByCurrency(txs []domain.Transaction) []CurrencyTotal {
	totals := make(map[string]*CurrencyTotal)
	for _, t := range txs {
		c, ok := totals[t.Currency]
		if !ok {
			c = &CurrencyTotal{Currency: t.Currency}
			totals[t.Currency] = c
		}
		c.Amount += t.Amount
		c.BrokerFee += t.BrokerFee
		c.TaxFee += t.TaxFee
	}

	out := make([]CurrencyTotal, 0, len(totals))
	for _, c := range totals {
		c.TotalFee = c.BrokerFee + c.TaxFee
		if c.Amount != 0 {
			c.FeePct = 100 * c.TotalFee / c.Amount
		}
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Currency < out[j].Currency })
	return out
}

// FeeRow is one line of a fee table grouped by an asset attribute.
type FeeRow struct {
	Group    string  `json:"group"`
	Currency string  `json:"currency"`
	Amount   float64 `json:"amount"`
	TotalFee float64 `json:"total_fee"`
	FeePct   float64 `json:"fee_pct"`
}

// FeesByVariable groups transactions by the given attribute within each
// currency and computes the fee load of each group. Rows are sorted by
// currency, then descending fee percentage.
func FeesByVariable(txs []domain.Transaction, variable GroupVariable) []FeeRow {
	type key struct{ group, currency string }

	groups := make(map[key]*FeeRow)
	for _, t := range txs {
		k := key{txGroupValue(t, variable), t.Currency}
		row, ok := groups[k]
		if !ok {
			row = &FeeRow{Group: k.group, Currency: k.currency}
			groups[k] = row
		}
		row.Amount += t.Amount
		row.TotalFee += t.TotalFee()
	}

	out := make([]FeeRow, 0, len(groups))
	for _, row := range groups {
		if row.Amount != 0 {
			row.FeePct = 100 * row.TotalFee / row.Amount
		}
		out = append(out, *row)
	}
	sortFees(out)
	return out
}

// MergeOtherFees folds rows whose fee percentage is below the threshold into
// a single "Other" row per currency, recomputing the bucket's fee percentage
// from its merged sums. A lone small row stays as is.
func MergeOtherFees(rows []FeeRow, threshold float64) []FeeRow {
	below := make(map[string]int)
	for _, r := range rows {
		if r.FeePct < threshold {
			below[r.Currency]++
		}
	}

	out := make([]FeeRow, 0, len(rows))
	other := make(map[string]*FeeRow)
	for _, r := range rows {
		if r.FeePct >= threshold || below[r.Currency] < 2 {
			out = append(out, r)
			continue
		}
		o, ok := other[r.Currency]
		if !ok {
			o = &FeeRow{Group: "Other", Currency: r.Currency}
			other[r.Currency] = o
		}
		o.Amount += r.Amount
		o.TotalFee += r.TotalFee
	}
	for _, o := range other {
		if o.Amount != 0 {
			o.FeePct = 100 * o.TotalFee / o.Amount
		}
		out = append(out, *o)
	}
	sortFees(out)
	return out
}

func txGroupValue(t domain.Transaction, variable GroupVariable) string {
	switch variable {
	case GroupByType:
		return t.Type
	case GroupByIndustry:
		return t.Industry
	case GroupByMarket:
		return t.Market
	default:
		return t.Name
	}
}

func sortFees(rows []FeeRow) {
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Currency != rows[j].Currency {
			return rows[i].Currency < rows[j].Currency
		}
		if rows[i].FeePct != rows[j].FeePct {
			return rows[i].FeePct > rows[j].FeePct
		}
		return rows[i].Group < rows[j].Group
	})
}
