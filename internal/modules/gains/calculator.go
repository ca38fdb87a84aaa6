// Package gains computes realized and unrealized capital gains per asset
// from aggregated buy, sell/current and dividend legs.
package gains

import (
	"sort"

	"github.com/wagnojunior/financial-report/internal/domain"
	"github.com/wagnojunior/financial-report/internal/modules/positions"
)

// Row is the capital-gain breakdown of one asset. For current assets the sell
// side is the mark-to-market value; for past assets it is the realized sale.
type Row struct {
	domain.AssetKey
	BuyAmount      float64 `json:"buy_amount"`
	SellAmount     float64 `json:"sell_amount"`
	DividendAmount float64 `json:"dividend_amount"`
	HasDividend    bool    `json:"has_dividend"`
	Gain           float64 `json:"gain"`
	GainPct        float64 `json:"gain_pct"`
}

// CurrentGains computes the unrealized gain of each held asset. The sell side
// uses the position's mark-to-market amount and the currency's latest
// exchange rate; there is no sell fee on an open position. Rates are keyed by
// asset code.
func CurrentGains(buys, dividends []domain.Transaction, holdings []positions.CurrentPosition, rates map[string]float64) ([]Row, error) {
	buyLegs := positions.AggregateLegs(buys)
	divLegs := positions.AggregateLegs(dividends)

	out := make([]Row, 0, len(holdings))
	for _, p := range holdings {
		buy, ok := buyLegs[p.AssetKey]
		if !ok {
			return nil, &domain.ValidationError{
				Code:   p.Code,
				Reason: "current asset has no buy transactions",
			}
		}
		rate, ok := rates[p.Code]
		if !ok {
			return nil, &domain.RateUnavailableError{Currency: p.Currency}
		}
		sell := positions.Leg{Amount: p.Amount, AvgRate: rate}
		row, err := gainRow(p.AssetKey, buy, sell, lookupDividend(divLegs, p.AssetKey))
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	sortRows(out)
	return out, nil
}

// PastGains computes the realized gain of each liquidated asset from its buy,
// sell and dividend legs.
func PastGains(buys, sells, dividends []domain.Transaction) ([]Row, error) {
	buyLegs := positions.AggregateLegs(buys)
	sellLegs := positions.AggregateLegs(sells)
	divLegs := positions.AggregateLegs(dividends)

	out := make([]Row, 0, len(buyLegs))
	for key, buy := range buyLegs {
		sell, ok := sellLegs[key]
		if !ok {
			return nil, &domain.ValidationError{
				Code:      key.Code,
				Operation: domain.OperationSell,
				Reason:    "past asset has no sell transactions",
			}
		}
		row, err := gainRow(key, buy, sell, lookupDividend(divLegs, key))
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	sortRows(out)
	return out, nil
}

// gainRow applies the capital-gain formula to one asset:
//
//	gain = (sell_amount·sell_rate − buy_amount·buy_rate) / sell_rate
//	       + dividend_amount − buy_fee − sell_fee − dividend_fee
//
// Division by the sell-side rate expresses the gain in the asset's trading
// currency. Fees are already denominated in the reference currency and stay
// outside the conversion. The dividend leg is an explicit branch so callers
// can tell "no dividend" apart from a failed aggregation.
func gainRow(key domain.AssetKey, buy, sell positions.Leg, div *positions.Leg) (Row, error) {
	if sell.AvgRate == 0 {
		return Row{}, &domain.RateUnavailableError{Currency: key.Currency}
	}

	gain := (sell.Amount*sell.AvgRate - buy.Amount*buy.AvgRate) / sell.AvgRate
	row := Row{
		AssetKey:   key,
		BuyAmount:  buy.Amount,
		SellAmount: sell.Amount,
	}
	if div != nil {
		row.HasDividend = true
		row.DividendAmount = div.Amount
		gain += div.Amount - div.Fee()
	}
	gain -= buy.Fee() + sell.Fee()

	row.Gain = gain
	if buy.Amount != 0 {
		row.GainPct = 100 * gain / buy.Amount
	}
	return row, nil
}

func lookupDividend(legs map[domain.AssetKey]positions.Leg, key domain.AssetKey) *positions.Leg {
	if leg, ok := legs[key]; ok {
		return &leg
	}
	return nil
}

func sortRows(rows []Row) {
	sort.Slice(rows, func(i, j int) bool { return rows[i].Code < rows[j].Code })
}
