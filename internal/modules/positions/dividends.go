package positions

import (
	"sort"

	"github.com/wagnojunior/financial-report/internal/domain"
)

// DividendRow summarizes the dividends an asset paid inside a window. DPS is
// the per-share dividend (the summed unit prices of the events), NetDPS the
// same after per-event fees, and YieldPct the net dividend yield on the
// holder's average purchase price.
type DividendRow struct {
	Name     string  `json:"name"`
	Code     string  `json:"code"`
	Currency string  `json:"currency"`
	Quantity float64 `json:"quantity"`
	Amount   float64 `json:"amount"`
	TotalFee float64 `json:"total_fee"`
	DPS      float64 `json:"dps"`
	NetDPS   float64 `json:"net_dps"`
	AvgPrice float64 `json:"avg_price"`
	YieldPct float64 `json:"yield_pct"`
}

// DividendHistory reduces dividend transactions dated on or after the cutoff
// into per-asset rows. The holding quantity and average price come from the
// buy-side positions; dividends of assets no longer held are skipped. An
// empty result means no dividends in the window.
func DividendHistory(dividends []domain.Transaction, holdings []Position, since string) []DividendRow {
	byCode := make(map[string]Position, len(holdings))
	for _, p := range holdings {
		byCode[p.Code] = p
	}

	rows := make(map[string]*DividendRow)
	for _, t := range dividends {
		if t.Date < since {
			continue
		}
		holding, held := byCode[t.Code]
		if !held {
			continue
		}
		r, ok := rows[t.Code]
		if !ok {
			r = &DividendRow{
				Name:     t.Name,
				Code:     t.Code,
				Currency: t.Currency,
				Quantity: holding.Quantity,
				AvgPrice: holding.AvgPrice,
			}
			rows[t.Code] = r
		}
		r.Amount += t.Amount
		r.TotalFee += t.TotalFee()
		r.DPS += t.UnitPrice
		if t.Quantity != 0 {
			r.NetDPS += t.UnitPrice - t.TotalFee()/float64(t.Quantity)
		}
	}

	out := make([]DividendRow, 0, len(rows))
	for _, r := range rows {
		if r.AvgPrice != 0 {
			r.YieldPct = 100 * r.NetDPS / r.AvgPrice
		}
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}
