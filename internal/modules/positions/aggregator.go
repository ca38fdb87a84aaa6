// Package positions reduces ledger transactions into per-asset positions and
// the allocation, fee and dividend tables derived from them.
package positions

import (
	"sort"

	"github.com/wagnojunior/financial-report/internal/domain"
)

// Leg is the aggregate of one side (buy, sell or dividend) of an asset's
// transactions.
type Leg struct {
	Quantity  float64 `json:"quantity"`
	Amount    float64 `json:"amount"`
	BrokerFee float64 `json:"broker_fee"`
	TaxFee    float64 `json:"tax_fee"`
	AvgPrice  float64 `json:"avg_price"`
	AvgRate   float64 `json:"avg_rate"` // amount-weighted, not a simple mean
}

// Fee returns the combined broker and tax fee of the leg.
func (l Leg) Fee() float64 { return l.BrokerFee + l.TaxFee }

// Position is an aggregated per-asset position.
type Position struct {
	domain.AssetKey
	Quantity float64 `json:"quantity"`
	AvgPrice float64 `json:"avg_price"`
	AvgRate  float64 `json:"avg_rate"`
	Amount   float64 `json:"amount"`
}

// CurrentPosition is a position an investor still holds. Amount is marked to
// the latest close price.
type CurrentPosition struct {
	Position
	ClosePrice float64 `json:"close_price"`
}

// PastPosition is a fully liquidated position. Amount is the realized amount
// at the average selling price.
type PastPosition struct {
	Position
	SellingPrice float64 `json:"selling_price"`
}

// AggregateLegs groups transactions by the composite asset key and reduces
// each group into a Leg. The weighted-average exchange rate uses the group's
// amounts as weights; groups whose summed amount is zero are excluded so the
// weighting never divides by zero.
func AggregateLegs(txs []domain.Transaction) map[domain.AssetKey]Leg {
	type acc struct {
		qty        int64
		amount     float64
		brokerFee  float64
		taxFee     float64
		rateWeight float64 // Σ(rate·amount)
	}

	groups := make(map[domain.AssetKey]*acc)
	for _, t := range txs {
		key := t.Key()
		g, ok := groups[key]
		if !ok {
			g = &acc{}
			groups[key] = g
		}
		g.qty += t.Quantity
		g.amount += t.Amount
		g.brokerFee += t.BrokerFee
		g.taxFee += t.TaxFee
		g.rateWeight += t.ExchangeRate * t.Amount
	}

	legs := make(map[domain.AssetKey]Leg, len(groups))
	for key, g := range groups {
		if g.amount == 0 {
			continue
		}
		leg := Leg{
			Quantity:  float64(g.qty),
			Amount:    g.amount,
			BrokerFee: g.brokerFee,
			TaxFee:    g.taxFee,
			AvgRate:   g.rateWeight / g.amount,
		}
		if g.qty != 0 {
			leg.AvgPrice = g.amount / float64(g.qty)
		}
		legs[key] = leg
	}

	return legs
}

// AggregateBuys reduces buy transactions into per-asset positions: summed
// quantity and amount, average price and amount-weighted average rate.
func AggregateBuys(buys []domain.Transaction) []Position {
	legs := AggregateLegs(buys)
	out := make([]Position, 0, len(legs))
	for key, leg := range legs {
		out = append(out, Position{
			AssetKey: key,
			Quantity: leg.Quantity,
			AvgPrice: leg.AvgPrice,
			AvgRate:  leg.AvgRate,
			Amount:   leg.Amount,
		})
	}
	sortPositions(out)
	return out
}

// AggregateCurrent reduces signed buy+sell transactions of current assets
// into positions marked to the latest close price. Every asset must have a
// latest price; a missing one aborts with PriceUnavailableError.
//
// The net quantity of a current position must be non-zero; a zero here means
// the asset was misclassified upstream and the ledger is inconsistent.
func AggregateCurrent(signed []domain.Transaction, latest map[string]float64) ([]CurrentPosition, error) {
	legs := AggregateLegs(signed)
	out := make([]CurrentPosition, 0, len(legs))
	for key, leg := range legs {
		if leg.Quantity == 0 {
			return nil, &domain.ValidationError{
				Code:   key.Code,
				Reason: "current asset has zero net quantity",
			}
		}
		close, ok := latest[key.Code]
		if !ok {
			return nil, &domain.PriceUnavailableError{Symbol: key.Code}
		}
		out = append(out, CurrentPosition{
			Position: Position{
				AssetKey: key,
				Quantity: leg.Quantity,
				AvgPrice: leg.AvgPrice,
				AvgRate:  leg.AvgRate,
				Amount:   leg.Quantity * close,
			},
			ClosePrice: close,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

// AggregatePast reduces the buy and sell legs of liquidated assets into
// realized positions: the buy side gives quantity, average price and rate;
// the sell side gives the average selling price; the realized amount is
// quantity × selling price.
//
// Liquidated assets must have matching buy and sell quantities; a mismatch is
// a ledger inconsistency.
func AggregatePast(buys, sells []domain.Transaction) ([]PastPosition, error) {
	buyLegs := AggregateLegs(buys)
	sellLegs := AggregateLegs(sells)

	out := make([]PastPosition, 0, len(buyLegs))
	for key, buy := range buyLegs {
		sell, ok := sellLegs[key]
		if !ok || buy.Quantity != sell.Quantity {
			return nil, &domain.ValidationError{
				Code:      key.Code,
				Operation: domain.OperationSell,
				Reason:    "past asset has unmatched buy and sell quantities",
			}
		}
		sellingPrice := sell.Amount / sell.Quantity
		out = append(out, PastPosition{
			Position: Position{
				AssetKey: key,
				Quantity: buy.Quantity,
				AvgPrice: buy.AvgPrice,
				AvgRate:  buy.AvgRate,
				Amount:   buy.Quantity * sellingPrice,
			},
			SellingPrice: sellingPrice,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

// FilterByType returns the current positions of the given asset type. An
// empty result is a valid "no data" answer, not an error.
func FilterByType(positions []CurrentPosition, assetType domain.AssetType) []CurrentPosition {
	out := make([]CurrentPosition, 0, len(positions))
	for _, p := range positions {
		if p.Type == string(assetType) {
			out = append(out, p)
		}
	}
	return out
}

func sortPositions(positions []Position) {
	sort.Slice(positions, func(i, j int) bool { return positions[i].Code < positions[j].Code })
}
