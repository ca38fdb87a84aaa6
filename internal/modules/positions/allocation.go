package positions

import "sort"

// GroupVariable selects the asset attribute an allocation table is grouped by.
type GroupVariable string

const (
	GroupByName     GroupVariable = "Name"
	GroupByType     GroupVariable = "Type"
	GroupByIndustry GroupVariable = "Industry"
	GroupByMarket   GroupVariable = "Market"
)

// OtherThreshold is the allocation percentage below which rows are folded
// into a single "Other" bucket.
const OtherThreshold = 5.0

// AllocationRow is one line of an allocation table. AllocationPct is the
// row's share of the summed amount within its own currency.
type AllocationRow struct {
	Group         string  `json:"group"`
	Currency      string  `json:"currency"`
	Quantity      float64 `json:"quantity"`
	Amount        float64 `json:"amount"`
	AllocationPct float64 `json:"allocation_pct"`
}

// AllocationByVariable groups current positions by the given attribute and
// computes each group's allocation within its currency. Rows are sorted by
// currency, then descending allocation.
func AllocationByVariable(positions []CurrentPosition, variable GroupVariable) []AllocationRow {
	type key struct{ group, currency string }

	groups := make(map[key]*AllocationRow)
	currencyTotal := make(map[string]float64)
	for _, p := range positions {
		k := key{groupValue(p, variable), p.Currency}
		row, ok := groups[k]
		if !ok {
			row = &AllocationRow{Group: k.group, Currency: k.currency}
			groups[k] = row
		}
		row.Quantity += p.Quantity
		row.Amount += p.Amount
		currencyTotal[p.Currency] += p.Amount
	}

	out := make([]AllocationRow, 0, len(groups))
	for _, row := range groups {
		if total := currencyTotal[row.Currency]; total != 0 {
			row.AllocationPct = 100 * row.Amount / total
		}
		out = append(out, *row)
	}
	sortAllocation(out)
	return out
}

// MergeOther folds rows below the threshold percentage into a single "Other"
// row per currency. Folding only happens when a currency has more than one
// row below the threshold; a lone small row stays as is.
func MergeOther(rows []AllocationRow, threshold float64) []AllocationRow {
	below := make(map[string]int)
	for _, r := range rows {
		if r.AllocationPct < threshold {
			below[r.Currency]++
		}
	}

	out := make([]AllocationRow, 0, len(rows))
	other := make(map[string]*AllocationRow)
	for _, r := range rows {
		if r.AllocationPct >= threshold || below[r.Currency] < 2 {
			out = append(out, r)
			continue
		}
		o, ok := other[r.Currency]
		if !ok {
			o = &AllocationRow{Group: "Other", Currency: r.Currency}
			other[r.Currency] = o
		}
		o.Quantity += r.Quantity
		o.Amount += r.Amount
		o.AllocationPct += r.AllocationPct
	}
	for _, o := range other {
		out = append(out, *o)
	}
	sortAllocation(out)
	return out
}

func groupValue(p CurrentPosition, variable GroupVariable) string {
	switch variable {
	case GroupByType:
		return p.Type
	case GroupByIndustry:
		return p.Industry
	case GroupByMarket:
		return p.Market
	default:
		return p.Name
	}
}

func sortAllocation(rows []AllocationRow) {
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Currency != rows[j].Currency {
			return rows[i].Currency < rows[j].Currency
		}
		if rows[i].AllocationPct != rows[j].AllocationPct {
			return rows[i].AllocationPct > rows[j].AllocationPct
		}
		return rows[i].Group < rows[j].Group
	})
}
